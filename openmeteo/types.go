package openmeteo

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
)

const ForecastDays = 3

// Variable names requested for the current conditions block.
const (
	Temperature2m      = "temperature_2m"
	RelativeHumidity2m = "relative_humidity_2m"
	IsDay              = "is_day"
	Precipitation      = "precipitation"
	CloudCover         = "cloud_cover"
	WindSpeed10m       = "wind_speed_10m"
	WindDirection10m   = "wind_direction_10m"
	WindGusts10m       = "wind_gusts_10m"
)

// Variable names requested for the daily block.
const (
	Temperature2mMax         = "temperature_2m_max"
	Temperature2mMin         = "temperature_2m_min"
	Sunrise                  = "sunrise"
	Sunset                   = "sunset"
	UVIndexMax               = "uv_index_max"
	WindSpeed10mMax          = "wind_speed_10m_max"
	WindGusts10mMax          = "wind_gusts_10m_max"
	WindDirection10mDominant = "wind_direction_10m_dominant"
)

var CurrentVariables = []string{
	Temperature2m,
	RelativeHumidity2m,
	IsDay,
	Precipitation,
	CloudCover,
	WindSpeed10m,
	WindDirection10m,
	WindGusts10m,
}

var DailyVariables = []string{
	Temperature2mMax,
	Temperature2mMin,
	Sunrise,
	Sunset,
	UVIndexMax,
	WindSpeed10mMax,
	WindGusts10mMax,
	WindDirection10mDominant,
}

const secondsPerDay = 86400

// ForecastResponse is a single location's forecast as returned by the provider.
type ForecastResponse struct {
	Latitude         float64       `json:"latitude"`
	Longitude        float64       `json:"longitude"`
	Timezone         string        `json:"timezone"`
	UTCOffsetSeconds int64         `json:"utc_offset_seconds"`
	Current          *CurrentBlock `json:"current"`
	Daily            *DailyBlock   `json:"daily"`
}

// CurrentBlock holds one scalar per requested current variable.
type CurrentBlock struct {
	Time      int64
	Interval  int64
	Variables map[string]float64
}

// Value looks a variable up by name. A nil block, an absent name or a null
// value all report false.
func (c *CurrentBlock) Value(name string) (float64, bool) {
	if c == nil {
		return 0, false
	}
	v, ok := c.Variables[name]
	return v, ok
}

func (c *CurrentBlock) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	block := CurrentBlock{Variables: map[string]float64{}}
	for name, raw := range fields {
		switch name {
		case "time":
			if err := json.Unmarshal(raw, &block.Time); err != nil {
				return fmt.Errorf("current.time: %w", err)
			}
		case "interval":
			if err := json.Unmarshal(raw, &block.Interval); err != nil {
				return fmt.Errorf("current.interval: %w", err)
			}
		default:
			var v *float64
			if err := json.Unmarshal(raw, &v); err != nil {
				// non-numeric extras are not variables we can display
				continue
			}
			if v != nil {
				block.Variables[name] = *v
			}
		}
	}
	*c = block
	return nil
}

// DailyBlock describes the per-day series. Times are seconds since the epoch
// and TimeEnd is exclusive. Ticks is the decoded day axis, one per entry of
// every series; local midnights around a DST change are not 86400s apart.
type DailyBlock struct {
	Time      int64
	TimeEnd   int64
	Interval  int64
	Ticks     []int64
	Variables map[string][]float64
}

// Values looks a series up by name. Null entries in the provider payload are
// carried as NaN so every series keeps the length of the time axis.
func (d *DailyBlock) Values(name string) ([]float64, bool) {
	if d == nil {
		return nil, false
	}
	v, ok := d.Variables[name]
	return v, ok
}

func (d *DailyBlock) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	block := DailyBlock{Interval: secondsPerDay, Variables: map[string][]float64{}}
	for name, raw := range fields {
		if name == "time" {
			var ticks []int64
			if err := json.Unmarshal(raw, &ticks); err != nil {
				return fmt.Errorf("daily.time: %w", err)
			}
			if !slices.IsSorted(ticks) {
				return fmt.Errorf("daily.time is not ascending")
			}
			if len(ticks) > 1 {
				block.Interval = ticks[1] - ticks[0]
			}
			block.Ticks = ticks
			if len(ticks) > 0 {
				block.Time = ticks[0]
				block.TimeEnd = ticks[len(ticks)-1] + block.Interval
			}
			continue
		}
		var values []*float64
		if err := json.Unmarshal(raw, &values); err != nil {
			continue
		}
		series := make([]float64, len(values))
		for i, v := range values {
			if v == nil {
				series[i] = math.NaN()
				continue
			}
			series[i] = *v
		}
		block.Variables[name] = series
	}
	*d = block
	return nil
}

// providerError is the body the provider sends alongside a 4xx/5xx status.
type providerError struct {
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

package data

import (
	"time"

	"github.com/stuartleeks/home-dash/weather-dash/openmeteo"
)

type CurrentConditions struct {
	Temperature   Reading `json:"temperature"`
	Humidity      Reading `json:"humidity"`
	IsDay         Reading `json:"is_day"`
	Precipitation Reading `json:"precipitation"`
	CloudCover    Reading `json:"cloud_cover"`
	WindSpeed     Reading `json:"wind_speed"`
	WindDirection Reading `json:"wind_direction"`
	WindGusts     Reading `json:"wind_gusts"`
}

// DailyForecast holds parallel series: index i of every slice describes the
// day at Time[i].
type DailyForecast struct {
	Time                  []time.Time `json:"time"`
	TemperatureMax        []Reading   `json:"temperature_max"`
	TemperatureMin        []Reading   `json:"temperature_min"`
	Sunrise               []Reading   `json:"sunrise"`
	Sunset                []Reading   `json:"sunset"`
	UVIndexMax            []Reading   `json:"uv_index_max"`
	WindSpeedMax          []Reading   `json:"wind_speed_max"`
	WindGustsMax          []Reading   `json:"wind_gusts_max"`
	WindDirectionDominant []Reading   `json:"wind_direction_dominant"`
}

type WeatherViewModel struct {
	Current CurrentConditions `json:"current"`
	Daily   DailyForecast     `json:"daily"`
}

// DailyEntry is one row of the daily forecast.
type DailyEntry struct {
	Date                  time.Time
	HasDate               bool
	TemperatureMax        Reading
	TemperatureMin        Reading
	UVIndexMax            Reading
	WindSpeedMax          Reading
	WindGustsMax          Reading
	WindDirectionDominant Reading
}

// BuildViewModel reshapes a provider response into the display model. It
// never fails: anything the provider left out comes back as a missing
// reading or an empty series.
func BuildViewModel(resp *openmeteo.ForecastResponse) *WeatherViewModel {
	var current *openmeteo.CurrentBlock
	var daily *openmeteo.DailyBlock
	var utcOffsetSeconds int64
	if resp != nil {
		current = resp.Current
		daily = resp.Daily
		utcOffsetSeconds = resp.UTCOffsetSeconds
	}

	model := &WeatherViewModel{
		Current: CurrentConditions{
			Temperature:   currentReading(current, openmeteo.Temperature2m),
			Humidity:      currentReading(current, openmeteo.RelativeHumidity2m),
			IsDay:         currentReading(current, openmeteo.IsDay),
			Precipitation: currentReading(current, openmeteo.Precipitation),
			CloudCover:    currentReading(current, openmeteo.CloudCover),
			WindSpeed:     currentReading(current, openmeteo.WindSpeed10m),
			WindDirection: currentReading(current, openmeteo.WindDirection10m),
			WindGusts:     currentReading(current, openmeteo.WindGusts10m),
		},
		Daily: DailyForecast{
			Time:                  []time.Time{},
			TemperatureMax:        dailySeries(daily, openmeteo.Temperature2mMax),
			TemperatureMin:        dailySeries(daily, openmeteo.Temperature2mMin),
			Sunrise:               dailySeries(daily, openmeteo.Sunrise),
			Sunset:                dailySeries(daily, openmeteo.Sunset),
			UVIndexMax:            dailySeries(daily, openmeteo.UVIndexMax),
			WindSpeedMax:          dailySeries(daily, openmeteo.WindSpeed10mMax),
			WindGustsMax:          dailySeries(daily, openmeteo.WindGusts10mMax),
			WindDirectionDominant: dailySeries(daily, openmeteo.WindDirection10mDominant),
		},
	}
	switch {
	case daily == nil:
	case daily.Ticks != nil:
		model.Daily.Time = TickTimes(daily.Ticks, utcOffsetSeconds)
	default:
		model.Daily.Time = DayTimes(daily.Time, daily.TimeEnd, daily.Interval, utcOffsetSeconds)
	}
	return model
}

// DayTimes steps from start up to (excluding) end by interval and shifts each
// tick by the UTC offset. A non-positive interval is treated as 1.
func DayTimes(start int64, end int64, interval int64, utcOffsetSeconds int64) []time.Time {
	if interval <= 0 {
		interval = 1
	}
	if end <= start {
		return []time.Time{}
	}
	count := (end - start) / interval
	times := make([]time.Time, 0, count)
	for i := int64(0); i < count; i++ {
		times = append(times, time.Unix(start+i*interval+utcOffsetSeconds, 0).UTC())
	}
	return times
}

// TickTimes shifts each provider tick by the UTC offset, one instant per tick.
func TickTimes(ticks []int64, utcOffsetSeconds int64) []time.Time {
	times := make([]time.Time, 0, len(ticks))
	for _, t := range ticks {
		times = append(times, time.Unix(t+utcOffsetSeconds, 0).UTC())
	}
	return times
}

// Days zips the parallel daily series into rows, one per TemperatureMax entry.
func (m *WeatherViewModel) Days() []DailyEntry {
	if m == nil {
		return nil
	}
	d := m.Daily
	entries := make([]DailyEntry, 0, len(d.TemperatureMax))
	for i := range d.TemperatureMax {
		entry := DailyEntry{
			TemperatureMax:        at(d.TemperatureMax, i),
			TemperatureMin:        at(d.TemperatureMin, i),
			UVIndexMax:            at(d.UVIndexMax, i),
			WindSpeedMax:          at(d.WindSpeedMax, i),
			WindGustsMax:          at(d.WindGustsMax, i),
			WindDirectionDominant: at(d.WindDirectionDominant, i),
		}
		if i < len(d.Time) {
			entry.Date = d.Time[i]
			entry.HasDate = true
		}
		entries = append(entries, entry)
	}
	return entries
}

func currentReading(block *openmeteo.CurrentBlock, name string) Reading {
	v, ok := block.Value(name)
	if !ok {
		return Missing()
	}
	return Some(v)
}

func dailySeries(block *openmeteo.DailyBlock, name string) []Reading {
	values, ok := block.Values(name)
	if !ok {
		return []Reading{}
	}
	series := make([]Reading, len(values))
	for i, v := range values {
		series[i] = Some(v)
	}
	return series
}

func at(series []Reading, i int) Reading {
	if i < 0 || i >= len(series) {
		return Missing()
	}
	return series[i]
}

// Package display turns view model readings into the strings shown on the page.
package display

import (
	"math"
	"strconv"

	"github.com/stuartleeks/home-dash/weather-dash/data"
)

const notAvailable = "n/a"

// epsilon is the gap between 1 and the next float64, added before scaling
// when rounding to two decimals.
var epsilon = math.Nextafter(1, 2) - 1

// Round rounds half up (towards +Inf), so -2.5 becomes -2.
func Round(v float64) float64 {
	return math.Floor(v + 0.5)
}

// RoundTo2 rounds to two decimals. The epsilon nudge only helps values whose
// scaled form lands just below a .5 boundary; treat the result as
// implementation defined near such boundaries.
func RoundTo2(v float64) float64 {
	scaled := float64((v + epsilon) * 100)
	return Round(scaled) / 100
}

func Temperature(r data.Reading) string {
	return rounded(r, "°C")
}

func WindSpeed(r data.Reading) string {
	return rounded(r, " km/h")
}

func WindDirection(r data.Reading) string {
	return rounded(r, "°")
}

// Percentage shows humidity and cloud cover as provided, without rounding.
func Percentage(r data.Reading) string {
	v, ok := r.Get()
	if !ok {
		return notAvailable
	}
	return formatNumber(v) + "%"
}

func Precipitation(r data.Reading) string {
	if !r.Truthy() {
		return "No precipitation"
	}
	v, _ := r.Get()
	return formatNumber(v) + " mm"
}

func DayNight(r data.Reading) string {
	if r.Truthy() {
		return "Day"
	}
	return "Night"
}

func UVIndex(r data.Reading) string {
	v, ok := r.Get()
	if !ok {
		return notAvailable
	}
	return formatNumber(RoundTo2(v))
}

func rounded(r data.Reading, unit string) string {
	v, ok := r.Get()
	if !ok {
		return notAvailable
	}
	return formatNumber(Round(v)) + unit
}

// formatNumber prints the shortest representation, without a trailing ".0"
// and without a negative zero.
func formatNumber(v float64) string {
	if v == 0 {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

package main

import (
	"embed"
	"html/template"
	"io"

	"github.com/stuartleeks/home-dash/weather-dash/data"
	"github.com/stuartleeks/home-dash/weather-dash/display"
)

//go:embed templates/weather.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/weather.html"))

type currentView struct {
	Temperature   string
	Humidity      string
	DayNight      string
	Precipitation string
	CloudCover    string
	WindSpeed     string
	WindDirection string
	WindGusts     string
}

type dayView struct {
	Date                  string
	TemperatureMax        string
	TemperatureMin        string
	UVIndexMax            string
	WindSpeedMax          string
	WindGustsMax          string
	WindDirectionDominant string
}

type pageData struct {
	Status    data.Status
	Latitude  string
	Longitude string
	Current   currentView
	Days      []dayView
}

func newPageData(state data.ViewState, dates display.DateFormatter) pageData {
	page := pageData{
		Status:    state.Status,
		Latitude:  state.Coordinates.Latitude,
		Longitude: state.Coordinates.Longitude,
	}
	if state.Status != data.StatusPopulated || state.Weather == nil {
		return page
	}

	c := state.Weather.Current
	page.Current = currentView{
		Temperature:   display.Temperature(c.Temperature),
		Humidity:      display.Percentage(c.Humidity),
		DayNight:      display.DayNight(c.IsDay),
		Precipitation: display.Precipitation(c.Precipitation),
		CloudCover:    display.Percentage(c.CloudCover),
		WindSpeed:     display.WindSpeed(c.WindSpeed),
		WindDirection: display.WindDirection(c.WindDirection),
		WindGusts:     display.WindSpeed(c.WindGusts),
	}
	for _, d := range state.Weather.Days() {
		date := "n/a"
		if d.HasDate {
			date = dates.Format(d.Date)
		}
		page.Days = append(page.Days, dayView{
			Date:                  date,
			TemperatureMax:        display.Temperature(d.TemperatureMax),
			TemperatureMin:        display.Temperature(d.TemperatureMin),
			UVIndexMax:            display.UVIndex(d.UVIndexMax),
			WindSpeedMax:          display.WindSpeed(d.WindSpeedMax),
			WindGustsMax:          display.WindSpeed(d.WindGustsMax),
			WindDirectionDominant: display.WindDirection(d.WindDirectionDominant),
		})
	}
	return page
}

func renderPage(w io.Writer, state data.ViewState, dates display.DateFormatter) error {
	return pageTemplate.Execute(w, newPageData(state, dates))
}

package main

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/stuartleeks/home-dash/weather-dash/data"
	"github.com/stuartleeks/home-dash/weather-dash/display"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	dashboardWidth  = 800
	dashboardHeight = 480
)

var loadFont = sync.OnceValues(func() (*truetype.Font, error) {
	return truetype.Parse(goregular.TTF)
})

func fontFace(size float64) (font.Face, error) {
	f, err := loadFont()
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	return truetype.NewFace(f, &truetype.Options{Size: size}), nil
}

func drawDashboardImage(state data.ViewState, dates display.DateFormatter, now time.Time) (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, dashboardWidth, dashboardHeight))

	dc := gg.NewContextForRGBA(img)
	dc.SetRGB(1, 1, 1)
	dc.DrawRectangle(0, 0, float64(dashboardWidth), float64(dashboardHeight))
	dc.Fill()

	if err := drawImageHeading(dc, "Weather App", now.UTC().Format("Monday, 02 January 2006")); err != nil {
		return nil, err
	}
	if err := drawCoordinates(dc, state.Coordinates); err != nil {
		return nil, err
	}

	switch state.Status {
	case data.StatusLoading:
		if err := drawStatusMessage(dc, "Loading..."); err != nil {
			return nil, err
		}
	case data.StatusFailed:
		if err := drawStatusMessage(dc, "Failed to load weather data."); err != nil {
			return nil, err
		}
	default:
		if err := drawCurrentWeather(dc, state.Weather.Current, 90, 20); err != nil {
			return nil, err
		}
		if err := drawDailyWeather(dc, state.Weather.Days(), dates, 90, 300); err != nil {
			return nil, err
		}
	}
	return img, nil
}

func drawImageHeading(dc *gg.Context, text string, dateText string) error {
	dc.SetHexColor("#000000")

	face, err := fontFace(25)
	if err != nil {
		return err
	}
	dc.SetFontFace(face)
	drawStringLeft(dc, text, 10, 10)

	face, err = fontFace(17.5)
	if err != nil {
		return err
	}
	dc.SetFontFace(face)
	w, h := dc.MeasureString(dateText)
	dc.DrawString(dateText, float64(dc.Width())-w-10, 15+h)

	dc.SetLineWidth(1)
	dc.DrawLine(10, 50, float64(dc.Width())-10, 50)
	dc.Stroke()
	return nil
}

func drawCoordinates(dc *gg.Context, coordinates data.Coordinates) error {
	dc.SetHexColor("#555555")
	face, err := fontFace(15)
	if err != nil {
		return err
	}
	dc.SetFontFace(face)
	drawStringLeft(dc, fmt.Sprintf("lat %s, lon %s", coordinates.Latitude, coordinates.Longitude), 10, 58)
	return nil
}

func drawStatusMessage(dc *gg.Context, message string) error {
	dc.SetHexColor("#000000")

	messageFontSize := 30
	for messageFontSize > 10 {
		face, err := fontFace(float64(messageFontSize))
		if err != nil {
			return err
		}
		dc.SetFontFace(face)
		w, _ := dc.MeasureString(message)
		if w < float64(dc.Width())-20 {
			break
		}
		messageFontSize -= 1
	}
	drawStringCentered(dc, message, float64(dc.Width())/2, float64(dc.Height())/2)
	return nil
}

func drawCurrentWeather(dc *gg.Context, current data.CurrentConditions, top float64, left float64) error {
	dc.SetHexColor("#000000")

	face, err := fontFace(60)
	if err != nil {
		return err
	}
	dc.SetFontFace(face)
	drawStringLeft(dc, display.Temperature(current.Temperature), left, top)

	face, err = fontFace(20)
	if err != nil {
		return err
	}
	dc.SetFontFace(face)
	lines := []string{
		display.DayNight(current.IsDay),
		fmt.Sprintf("Humidity %s", display.Percentage(current.Humidity)),
		display.Precipitation(current.Precipitation),
		fmt.Sprintf("Cloud cover %s", display.Percentage(current.CloudCover)),
		fmt.Sprintf("Wind %s (%s gusts)", display.WindSpeed(current.WindSpeed), display.WindSpeed(current.WindGusts)),
		fmt.Sprintf("Direction %s", display.WindDirection(current.WindDirection)),
	}
	currentTop := top + 90
	for _, line := range lines {
		drawStringLeft(dc, line, left, currentTop)
		currentTop += 35
	}
	return nil
}

func drawDailyWeather(dc *gg.Context, days []data.DailyEntry, dates display.DateFormatter, top float64, left float64) error {
	dc.SetHexColor("#000000")

	columnWidth := float64(160)
	for i, day := range days {
		if i >= 3 {
			break
		}
		x := left + float64(i)*columnWidth
		currentTop := top

		date := "n/a"
		if day.HasDate {
			date = dates.Format(day.Date)
		}
		face, err := fontFace(17)
		if err != nil {
			return err
		}
		dc.SetFontFace(face)
		drawStringCentered(dc, date, x+columnWidth/2, currentTop)

		currentTop += 35
		face, err = fontFace(25)
		if err != nil {
			return err
		}
		dc.SetFontFace(face)
		drawStringCentered(dc,
			fmt.Sprintf("%s / %s", display.Temperature(day.TemperatureMax), display.Temperature(day.TemperatureMin)),
			x+columnWidth/2,
			currentTop)

		face, err = fontFace(15)
		if err != nil {
			return err
		}
		dc.SetFontFace(face)
		currentTop += 50
		for _, line := range []string{
			fmt.Sprintf("UV %s", display.UVIndex(day.UVIndexMax)),
			fmt.Sprintf("Wind %s", display.WindSpeed(day.WindSpeedMax)),
			fmt.Sprintf("Gusts %s", display.WindSpeed(day.WindGustsMax)),
			fmt.Sprintf("From %s", display.WindDirection(day.WindDirectionDominant)),
		} {
			drawStringCentered(dc, line, x+columnWidth/2, currentTop)
			currentTop += 25
		}

		if i > 0 {
			dc.SetLineWidth(1)
			dc.DrawLine(x, top, x, top+200)
			dc.Stroke()
		}
	}
	return nil
}

// scaleImage resizes the dashboard for displays that are not 800x480.
func scaleImage(source *image.RGBA, width int, height int) *image.RGBA {
	if width == source.Bounds().Dx() && height == source.Bounds().Dy() {
		return source
	}
	destImage := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(destImage, destImage.Rect, source, source.Bounds(), draw.Over, nil)
	return destImage
}

func drawStringCentered(dc *gg.Context, text string, x, y float64) {
	w, h := dc.MeasureString(text)
	dc.DrawString(text, x-w/2, y+h)
}
func drawStringLeft(dc *gg.Context, text string, x, y float64) {
	_, h := dc.MeasureString(text)
	dc.DrawString(text, x, y+h)
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"code.cloudfoundry.org/clock/fakeclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stuartleeks/home-dash/weather-dash/appinsightsutils"
	"github.com/stuartleeks/home-dash/weather-dash/data"
	"github.com/stuartleeks/home-dash/weather-dash/display"
	"github.com/stuartleeks/home-dash/weather-dash/openmeteo"
	"golang.org/x/net/html"
)

type stubFetcher struct {
	resp      *openmeteo.ForecastResponse
	err       error
	latitude  string
	longitude string
}

func (f *stubFetcher) FetchForecast(ctx context.Context, latitude string, longitude string) (*openmeteo.ForecastResponse, error) {
	f.latitude = latitude
	f.longitude = longitude
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.resp, f.err
}

const firstDay = int64(1704067200) // 2024-01-01T00:00:00Z

func londonResponse() *openmeteo.ForecastResponse {
	return &openmeteo.ForecastResponse{
		Current: &openmeteo.CurrentBlock{
			Variables: map[string]float64{
				openmeteo.Temperature2m:      12.6,
				openmeteo.RelativeHumidity2m: 71,
				openmeteo.IsDay:              1,
				openmeteo.Precipitation:      2.3,
				openmeteo.CloudCover:         40,
				openmeteo.WindSpeed10m:       11.4,
				openmeteo.WindDirection10m:   270.5,
				openmeteo.WindGusts10m:       25.1,
			},
		},
		Daily: &openmeteo.DailyBlock{
			Time:     firstDay,
			TimeEnd:  firstDay + 3*86400,
			Interval: 86400,
			Variables: map[string][]float64{
				openmeteo.Temperature2mMax:         {9.1, 8.4, 7.9},
				openmeteo.Temperature2mMin:         {4.0, 3.2, 2.5},
				openmeteo.UVIndexMax:               {5.555, 5.0, 0.45},
				openmeteo.WindSpeed10mMax:          {20.5, 18.1, 15.0},
				openmeteo.WindGusts10mMax:          {45.0, 39.6, 33.1},
				openmeteo.WindDirection10mDominant: {230, 241, 250},
			},
		},
	}
}

type testApp struct {
	widget  *data.Widget
	fetcher *stubFetcher
	handler http.Handler
}

func newTestApp(t *testing.T, fetcher *stubFetcher) *testApp {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clk := fakeclock.NewFakeClock(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	client := appinsightsutils.NewTelemetryClient("", "weather-dash-test")

	widget := data.NewWidget(fetcher, client, clk, logger)
	mux := appinsightsutils.NewServeMuxWithTrace(client, logger)
	registerHandlers(mux, NewApiRouter(client, widget, display.NewDateFormatter("en-US"), clk, logger))
	return &testApp{widget: widget, fetcher: fetcher, handler: mux}
}

func (a *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) page(t *testing.T) *html.Node {
	t.Helper()
	rec := a.do(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	doc, err := html.Parse(rec.Body)
	require.NoError(t, err)
	return doc
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == "id" && a.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

func findAllByClass(n *html.Node, class string) []*html.Node {
	var found []*html.Node
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == "class" && strings.Contains(" "+a.Val+" ", " "+class+" ") {
				found = append(found, n)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		found = append(found, findAllByClass(c, class)...)
	}
	return found
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

func TestPageLoadingState(t *testing.T) {
	assert := assert.New(t)

	app := newTestApp(t, &stubFetcher{resp: londonResponse()})
	doc := app.page(t)

	status := findByID(doc, "status")
	require.NotNil(t, status)
	assert.Equal("Loading...", textContent(status))

	latitude := findByID(doc, "latitude")
	require.NotNil(t, latitude)
	assert.Equal("51.5085", attr(latitude, "value"))
	longitude := findByID(doc, "longitude")
	require.NotNil(t, longitude)
	assert.Equal("-0.1257", attr(longitude, "value"))

	assert.NotNil(findByID(doc, "top"))
	assert.NotNil(findByID(doc, "enter-coordinates"))
	assert.Nil(findByID(doc, "current-weather"))
}

func TestPagePopulatedState(t *testing.T) {
	assert := assert.New(t)

	app := newTestApp(t, &stubFetcher{resp: londonResponse()})
	require.NoError(t, app.widget.Refresh(context.Background()))

	doc := app.page(t)
	assert.Nil(findByID(doc, "status"))

	current := findByID(doc, "current-weather")
	require.NotNil(t, current)
	text := textContent(current)
	assert.Contains(text, "Temperature: 13°C")
	assert.Contains(text, "Humidity: 71%")
	assert.Contains(text, "Day/Night: Day")
	assert.Contains(text, "Precipitation: 2.3 mm")
	assert.Contains(text, "Cloud Cover: 40%")
	assert.Contains(text, "Wind Speed: 11 km/h")
	assert.Contains(text, "Wind Direction: 271°")
	assert.Contains(text, "Wind Gusts: 25 km/h")

	daily := findByID(doc, "daily-weather")
	require.NotNil(t, daily)
	days := findAllByClass(daily, "day")
	require.Len(t, days, 3)

	first := textContent(days[0])
	assert.Contains(first, "Date: 1/1/2024")
	assert.Contains(first, "Max Temperature: 9°C")
	assert.Contains(first, "Min Temperature: 4°C")
	assert.Contains(first, "Max UV Index: 5.56")
	assert.Contains(first, "Max Wind Speed: 21 km/h")
	assert.Contains(first, "Max Wind Gusts: 45 km/h")
	assert.Contains(first, "Dominant Wind Direction: 230°")

	assert.Contains(textContent(days[1]), "Date: 1/2/2024")
	assert.Contains(textContent(days[1]), "Max UV Index: 5 ")
	assert.Contains(textContent(days[2]), "Date: 1/3/2024")
}

func TestPageFailedState(t *testing.T) {
	app := newTestApp(t, &stubFetcher{err: errors.New("network down")})
	assert.Error(t, app.widget.Refresh(context.Background()))

	doc := app.page(t)

	status := findByID(doc, "status")
	require.NotNil(t, status)
	assert.Equal(t, "Failed to load weather data.", textContent(status))
	// the form stays usable
	assert.NotNil(t, findByID(doc, "latitude"))
	assert.Nil(t, findByID(doc, "current-weather"))
}

func TestPageNotFound(t *testing.T) {
	app := newTestApp(t, &stubFetcher{resp: londonResponse()})
	rec := app.do(httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func postCoordinates(app *testApp, latitude string, longitude string) *httptest.ResponseRecorder {
	form := url.Values{}
	form.Set("latitude", latitude)
	form.Set("longitude", longitude)
	req := httptest.NewRequest(http.MethodPost, "/coordinates", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return app.do(req)
}

func getState(t *testing.T, app *testApp) map[string]any {
	t.Helper()
	rec := app.do(httptest.NewRequest(http.MethodGet, "/weather", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var state map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&state))
	return state
}

func TestCoordinatesSetRefreshes(t *testing.T) {
	assert := assert.New(t)

	app := newTestApp(t, &stubFetcher{resp: londonResponse()})

	rec := postCoordinates(app, "40.7128", "-74.0060")
	assert.Equal(http.StatusSeeOther, rec.Code)
	assert.Equal("/#current-weather", rec.Header().Get("Location"))

	assert.Equal("40.7128", app.fetcher.latitude)
	assert.Equal("-74.0060", app.fetcher.longitude)

	state := getState(t, app)
	assert.Equal("populated", state["status"])
	assert.Equal(map[string]any{"latitude": "40.7128", "longitude": "-74.0060"}, state["coordinates"])

	weather := state["weather"].(map[string]any)
	daily := weather["daily"].(map[string]any)
	assert.Len(daily["time"], 3)
	assert.Equal([]any{}, daily["sunrise"])
	current := weather["current"].(map[string]any)
	assert.Equal(12.6, current["temperature"])
}

func TestCoordinatesSetOutlivesClientDisconnect(t *testing.T) {
	app := newTestApp(t, &stubFetcher{resp: londonResponse()})

	form := url.Values{}
	form.Set("latitude", "40.7128")
	form.Set("longitude", "-74.0060")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/coordinates", strings.NewReader(form.Encode())).WithContext(ctx)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := app.do(req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	state := getState(t, app)
	assert.Equal(t, "populated", state["status"])
	assert.NotNil(t, state["weather"])
}

func TestCoordinatesSetFailureIsNotAnHTTPError(t *testing.T) {
	app := newTestApp(t, &stubFetcher{err: &openmeteo.StatusError{StatusCode: 400, Reason: "Latitude must be in range of -90 to 90°"}})

	rec := postCoordinates(app, "100", "0")
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	state := getState(t, app)
	assert.Equal(t, "failed", state["status"])
	assert.Nil(t, state["weather"])
}

func TestWeatherImage(t *testing.T) {
	assert := assert.New(t)

	app := newTestApp(t, &stubFetcher{resp: londonResponse()})
	require.NoError(t, app.widget.Refresh(context.Background()))

	rec := app.do(httptest.NewRequest(http.MethodGet, "/weather-image", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal("image/png", rec.Header().Get("Content-Type"))
	etag := rec.Header().Get("Etag")
	assert.NotEmpty(etag)

	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(800, img.Bounds().Dx())
	assert.Equal(480, img.Bounds().Dy())

	req := httptest.NewRequest(http.MethodGet, "/weather-image", nil)
	req.Header.Set("If-None-Match", etag)
	rec = app.do(req)
	assert.Equal(http.StatusNotModified, rec.Code)
	assert.Empty(rec.Body.Bytes())
}

func TestWeatherImageScaled(t *testing.T) {
	app := newTestApp(t, &stubFetcher{resp: londonResponse()})

	rec := app.do(httptest.NewRequest(http.MethodGet, "/weather-image?width=400&height=240", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, 240, img.Bounds().Dy())
}

func TestWeatherImageBadDimensions(t *testing.T) {
	app := newTestApp(t, &stubFetcher{resp: londonResponse()})

	for _, query := range []string{"width=abc", "height=0", "width=99999"} {
		rec := app.do(httptest.NewRequest(http.MethodGet, "/weather-image?"+query, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
}

func TestWeatherImageFailedState(t *testing.T) {
	app := newTestApp(t, &stubFetcher{err: openmeteo.ErrDecode})
	assert.Error(t, app.widget.Refresh(context.Background()))

	rec := app.do(httptest.NewRequest(http.MethodGet, "/weather-image", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, &stubFetcher{})
	rec := app.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

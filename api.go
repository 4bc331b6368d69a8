package main

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"image/png"
	"log/slog"
	"net/http"
	"strconv"

	"code.cloudfoundry.org/clock"
	"github.com/microsoft/ApplicationInsights-Go/appinsights"
	"github.com/stuartleeks/home-dash/weather-dash/data"
	"github.com/stuartleeks/home-dash/weather-dash/display"
)

type ApiRouter struct {
	appInsightsClient appinsights.TelemetryClient
	widget            *data.Widget
	dates             display.DateFormatter
	clock             clock.Clock
	logger            *slog.Logger
}

func NewApiRouter(appInsightsClient appinsights.TelemetryClient, widget *data.Widget, dates display.DateFormatter, clk clock.Clock, logger *slog.Logger) *ApiRouter {
	if appInsightsClient == nil {
		panic("appInsightsClient is required")
	}
	if widget == nil {
		panic("widget is required")
	}
	return &ApiRouter{
		appInsightsClient: appInsightsClient,
		widget:            widget,
		dates:             dates,
		clock:             clk,
		logger:            logger,
	}
}

func (api *ApiRouter) PageGet(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	buf := new(bytes.Buffer)
	if err := renderPage(buf, api.widget.Snapshot(), api.dates); err != nil {
		api.logger.Error("error rendering page", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// CoordinatesSet takes the form submission, refetches and sends the browser
// back to the page. A failed fetch shows up on the page, not as an HTTP error.
func (api *ApiRouter) CoordinatesSet(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if r.PostForm.Has("latitude") {
		api.widget.SetLatitude(r.PostForm.Get("latitude"))
	}
	if r.PostForm.Has("longitude") {
		api.widget.SetLongitude(r.PostForm.Get("longitude"))
	}

	// A dropped form post must not cancel the fetch and clear the page; the
	// outbound client timeout still bounds it
	if err := api.widget.Refresh(context.WithoutCancel(r.Context())); err != nil {
		api.trackEvent("refresh", false)
	} else {
		api.trackEvent("refresh", true)
	}

	http.Redirect(w, r, "/#current-weather", http.StatusSeeOther)
}

func (api *ApiRouter) WeatherDataGet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(api.widget.Snapshot())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (api *ApiRouter) WeatherImageGet(w http.ResponseWriter, r *http.Request, telemetry *appinsights.RequestTelemetry) {
	width, height := dashboardWidth, dashboardHeight
	var err error
	if v := r.URL.Query().Get("width"); v != "" {
		if width, err = parseDimension(v); err != nil {
			http.Error(w, fmt.Sprintf("invalid width: %s", err), http.StatusBadRequest)
			return
		}
	}
	if v := r.URL.Query().Get("height"); v != "" {
		if height, err = parseDimension(v); err != nil {
			http.Error(w, fmt.Sprintf("invalid height: %s", err), http.StatusBadRequest)
			return
		}
	}

	state := api.widget.Snapshot()
	telemetry.Properties["status"] = string(state.Status)

	img, err := drawDashboardImage(state, api.dates, api.clock.Now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Can't stream the image: the hash is needed for the etag header
	// before any of the body is written
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, scaleImage(img, width, height)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	bufBytes := buf.Bytes()

	hash := sha1.New()
	hash.Write(bufBytes)
	hashValue := fmt.Sprintf("%x", hash.Sum(nil))
	telemetry.Properties["Etag"] = hashValue
	w.Header().Set("Etag", hashValue)

	if ifNoneMatch := r.Header.Get("If-None-Match"); ifNoneMatch != "" && ifNoneMatch == hashValue {
		api.trackEvent("image-not-modified", true)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(bufBytes)
}

func (api *ApiRouter) HealthGet(w http.ResponseWriter, r *http.Request) {
	fmt.Fprint(w, "ok")
}

func (api *ApiRouter) trackEvent(name string, success bool) {
	e := appinsights.NewEventTelemetry(name)
	e.Properties["success"] = fmt.Sprintf("%t", success)
	api.appInsightsClient.Track(e)
}

func parseDimension(v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n < 1 || n > 4096 {
		return 0, fmt.Errorf("%d is out of range 1-4096", n)
	}
	return n, nil
}

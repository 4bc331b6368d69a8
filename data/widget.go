package data

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/gofrs/uuid"
	"github.com/microsoft/ApplicationInsights-Go/appinsights"
	"github.com/stuartleeks/home-dash/weather-dash/openmeteo"
)

// Default coordinates (London)
const (
	DefaultLatitude  = "51.5085"
	DefaultLongitude = "-0.1257"
)

type Status string

const (
	StatusLoading   Status = "loading"
	StatusFailed    Status = "failed"
	StatusPopulated Status = "populated"
)

type Coordinates struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

// ViewState is what the page renders.
type ViewState struct {
	Status      Status            `json:"status"`
	Coordinates Coordinates       `json:"coordinates"`
	Weather     *WeatherViewModel `json:"weather"`
	FetchedAt   *time.Time        `json:"fetched_at,omitempty"`
}

// Widget holds the coordinate fields and the displayed forecast. Refreshes
// may overlap; only the most recently issued one is allowed to update the
// displayed state.
type Widget struct {
	fetcher   openmeteo.Fetcher
	telemetry appinsights.TelemetryClient
	clock     clock.Clock
	logger    *slog.Logger

	mutex       sync.Mutex
	coordinates Coordinates
	issued      uint64
	settled     bool
	weather     *WeatherViewModel
	fetchedAt   time.Time
}

// NewWidget creates a widget with the default coordinates. telemetry may be nil.
func NewWidget(fetcher openmeteo.Fetcher, telemetry appinsights.TelemetryClient, clk clock.Clock, logger *slog.Logger) *Widget {
	if fetcher == nil {
		panic("fetcher is required")
	}
	if clk == nil {
		clk = clock.NewClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Widget{
		fetcher:   fetcher,
		telemetry: telemetry,
		clock:     clk,
		logger:    logger,
		coordinates: Coordinates{
			Latitude:  DefaultLatitude,
			Longitude: DefaultLongitude,
		},
	}
}

func (w *Widget) Coordinates() Coordinates {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.coordinates
}

// SetLatitude stores the value as entered; it is not validated.
func (w *Widget) SetLatitude(latitude string) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.coordinates.Latitude = latitude
}

// SetLongitude stores the value as entered; it is not validated.
func (w *Widget) SetLongitude(longitude string) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.coordinates.Longitude = longitude
}

// Refresh fetches the forecast for the current coordinates. A failure is
// logged, clears the displayed forecast and is returned to the caller; it is
// never retried.
func (w *Widget) Refresh(ctx context.Context) error {
	w.mutex.Lock()
	w.issued++
	token := w.issued
	coordinates := w.coordinates
	w.mutex.Unlock()

	operationID := newOperationID()
	logger := w.logger.With(
		"operation_id", operationID,
		"token", token,
		"latitude", coordinates.Latitude,
		"longitude", coordinates.Longitude,
	)

	start := w.clock.Now()
	resp, err := w.fetcher.FetchForecast(ctx, coordinates.Latitude, coordinates.Longitude)
	w.trackFetch(operationID, w.clock.Now().Sub(start), err)

	var weather *WeatherViewModel
	if err != nil {
		logger.Error("error fetching weather data", "error", err)
	} else {
		weather = BuildViewModel(resp)
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()

	if token != w.issued {
		logger.Debug("discarding stale forecast", "latest_token", w.issued)
		if err != nil {
			return fmt.Errorf("refresh failed: %w", err)
		}
		return nil
	}
	w.settled = true
	if err != nil {
		w.weather = nil
		w.fetchedAt = time.Time{}
		return fmt.Errorf("refresh failed: %w", err)
	}
	w.weather = weather
	w.fetchedAt = w.clock.Now()
	logger.Info("fetched and processed weather data", "days", len(weather.Daily.Time))
	return nil
}

// Snapshot returns the state to render.
func (w *Widget) Snapshot() ViewState {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	state := ViewState{
		Coordinates: w.coordinates,
		Weather:     w.weather,
	}
	switch {
	case !w.settled:
		state.Status = StatusLoading
	case w.weather == nil:
		state.Status = StatusFailed
	default:
		state.Status = StatusPopulated
		fetchedAt := w.fetchedAt
		state.FetchedAt = &fetchedAt
	}
	return state
}

func (w *Widget) trackFetch(operationID string, duration time.Duration, err error) {
	if w.telemetry == nil {
		return
	}
	dependency := appinsights.NewRemoteDependencyTelemetry("GET /v1/forecast", "HTTP", "open-meteo", err == nil)
	dependency.Duration = duration
	dependency.Properties["operation-id"] = operationID

	var statusErr *openmeteo.StatusError
	switch {
	case err == nil:
		dependency.ResultCode = "200"
	case errors.As(err, &statusErr):
		dependency.ResultCode = fmt.Sprintf("%d", statusErr.StatusCode)
	}
	w.telemetry.Track(dependency)

	if err != nil {
		w.telemetry.TrackException(err)
	}
}

func newOperationID() string {
	id, err := uuid.NewV4()
	if err != nil {
		return ""
	}
	return id.String()
}

package appinsightsutils

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/microsoft/ApplicationInsights-Go/appinsights"
)

// ServeMuxWithTrace records a request telemetry item and a log line for
// every handled request.
type ServeMuxWithTrace struct {
	*http.ServeMux
	appInsightsClient appinsights.TelemetryClient
	logger            *slog.Logger
}

func NewServeMuxWithTrace(appInsightsClient appinsights.TelemetryClient, logger *slog.Logger) *ServeMuxWithTrace {
	if appInsightsClient == nil {
		panic("appInsightsClient is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ServeMuxWithTrace{
		ServeMux:          http.NewServeMux(),
		appInsightsClient: appInsightsClient,
		logger:            logger,
	}
}

func (mux *ServeMuxWithTrace) HandleFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	mux.ServeMux.HandleFunc(pattern, mux.traceHttpFunc(pattern, handler))
}
func (mux *ServeMuxWithTrace) HandleFuncWithContext(pattern string, handler func(http.ResponseWriter, *http.Request, *appinsights.RequestTelemetry)) {
	mux.ServeMux.HandleFunc(pattern, mux.traceHttpFuncWithContext(pattern, handler))
}

func (mux *ServeMuxWithTrace) traceHttpFunc(name string, fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return mux.traceHttpFuncWithContext(name, func(w http.ResponseWriter, r *http.Request, _ *appinsights.RequestTelemetry) {
		fn(w, r)
	})
}
func (mux *ServeMuxWithTrace) traceHttpFuncWithContext(name string, fn func(http.ResponseWriter, *http.Request, *appinsights.RequestTelemetry)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scheme := "https"
		if r.TLS == nil {
			scheme = "http"
		}
		telemetry := appinsights.NewRequestTelemetry(r.Method, fmt.Sprintf("%s://%s%s", scheme, r.Host, r.URL.Path), 0*time.Second, "200")
		startTime := time.Now().UTC()

		wrappedResponseWriter := NewResponseWriterWithStatusCode(w)
		fn(wrappedResponseWriter, r, telemetry)

		duration := time.Since(startTime)
		telemetry.Duration = duration
		telemetry.ResponseCode = fmt.Sprintf("%d", wrappedResponseWriter.StatusCode())
		telemetry.Name = name

		mux.appInsightsClient.Track(telemetry)
		mux.logger.Debug("handled request",
			"route", name,
			"status", wrappedResponseWriter.StatusCode(),
			"bytes", wrappedResponseWriter.BytesWritten(),
			"duration", duration,
		)
	}
}

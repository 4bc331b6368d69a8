package appinsightsutils

import (
	"time"

	"github.com/microsoft/ApplicationInsights-Go/appinsights"
)

// NewTelemetryClient builds the client for the given instrumentation key.
// Without a key the client is created disabled so nothing is submitted.
func NewTelemetryClient(instrumentationKey string, role string) appinsights.TelemetryClient {
	telemetryConfig := appinsights.NewTelemetryConfiguration(instrumentationKey)
	// Configure how many items can be sent in one call to the data collector:
	telemetryConfig.MaxBatchSize = 8192
	// Configure the maximum delay before sending queued telemetry:
	telemetryConfig.MaxBatchInterval = 2 * time.Second

	client := appinsights.NewTelemetryClientFromConfig(telemetryConfig)
	client.Context().Tags.Cloud().SetRole(role)
	client.SetIsEnabled(instrumentationKey != "")
	return client
}

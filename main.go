package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/joho/godotenv"
	"github.com/stuartleeks/home-dash/weather-dash/appinsightsutils"
	"github.com/stuartleeks/home-dash/weather-dash/config"
	"github.com/stuartleeks/home-dash/weather-dash/data"
	"github.com/stuartleeks/home-dash/weather-dash/display"
	"github.com/stuartleeks/home-dash/weather-dash/openmeteo"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
	logger.Info("server starting", "pid", os.Getpid())

	_, err := os.Stat(".env")
	if err == nil {
		if err := godotenv.Load(); err != nil {
			logger.Error("error loading .env file", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("configuration",
		"open_meteo_url", config.GetOpenMeteoURL(),
		"locale", config.GetDisplayLocale(),
		"telemetry", config.GetApplicationInsightsInstrumentationKey() != "",
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if err := serveAPI(ctx, config.GetListenAddress(), logger); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func serveAPI(ctx context.Context, address string, logger *slog.Logger) error {
	logger.Info("listening", "address", address)
	l, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}

	appInsightsClient := appinsightsutils.NewTelemetryClient(config.GetApplicationInsightsInstrumentationKey(), "weather-dash")
	defer func() {
		select {
		case <-appInsightsClient.Channel().Close(5 * time.Second):
		case <-time.After(10 * time.Second):
		}
	}()

	clk := clock.NewClock()
	fetcher := openmeteo.NewRateLimitedFetcher(
		openmeteo.NewClient(config.GetOpenMeteoURL(), &http.Client{Timeout: config.GetHTTPTimeout()}),
		config.GetOpenMeteoRateLimit(),
		config.GetOpenMeteoRateBurst(),
	)
	widget := data.NewWidget(fetcher, appInsightsClient, clk, logger)

	// Initial fetch for the default coordinates; the page shows the loading
	// state until it resolves
	go func() {
		_ = widget.Refresh(ctx)
	}()

	mux := appinsightsutils.NewServeMuxWithTrace(appInsightsClient, logger)
	registerHandlers(mux, NewApiRouter(appInsightsClient, widget, display.NewDateFormatter(config.GetDisplayLocale()), clk, logger))
	server := &http.Server{
		Addr:              address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		_ = server.Shutdown(context.Background())
	}()
	return server.Serve(l)
}

func registerHandlers(mux *appinsightsutils.ServeMuxWithTrace, api *ApiRouter) {
	mux.HandleFunc("GET /", api.PageGet)
	mux.HandleFunc("POST /coordinates", api.CoordinatesSet)
	mux.HandleFunc("GET /weather", api.WeatherDataGet)
	mux.HandleFuncWithContext("GET /weather-image", api.WeatherImageGet)
	mux.HandleFunc("GET /healthz", api.HealthGet)
}

package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

const (
	DefaultListenAddress = ":8080"
	DefaultOpenMeteoURL  = "https://api.open-meteo.com/v1/forecast"
	DefaultLocale        = "en-US"
)

func GetListenAddress() string {
	return getOrDefault("LISTEN_ADDRESS", DefaultListenAddress)
}

func GetApplicationInsightsInstrumentationKey() string {
	return os.Getenv("APPLICATIONINSIGHTS_INSTRUMENTATION_KEY")
}

func GetOpenMeteoURL() string {
	return getOrDefault("OPEN_METEO_URL", DefaultOpenMeteoURL)
}

func GetDisplayLocale() string {
	return getOrDefault("DISPLAY_LOCALE", DefaultLocale)
}

// GetOpenMeteoRateLimit returns the allowed upstream requests per second.
func GetOpenMeteoRateLimit() float64 {
	v := os.Getenv("OPEN_METEO_RATE_LIMIT")
	if v == "" {
		return 1
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		slog.Warn("invalid OPEN_METEO_RATE_LIMIT, using default", "value", v)
		return 1
	}
	return f
}

func GetOpenMeteoRateBurst() int {
	v := os.Getenv("OPEN_METEO_RATE_BURST")
	if v == "" {
		return 5
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		slog.Warn("invalid OPEN_METEO_RATE_BURST, using default", "value", v)
		return 5
	}
	return i
}

func GetHTTPTimeout() time.Duration {
	v := os.Getenv("HTTP_TIMEOUT")
	if v == "" {
		return 10 * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid HTTP_TIMEOUT, using default", "value", v)
		return 10 * time.Second
	}
	return d
}

func getOrDefault(key string, defaultValue string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	return v
}

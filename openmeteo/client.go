package openmeteo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

var (
	// ErrFetch covers transport failures talking to the provider.
	ErrFetch = errors.New("failed fetching forecast")
	// ErrDecode covers bodies that are not a forecast.
	ErrDecode = errors.New("failed decoding forecast")
)

// StatusError is returned when the provider answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Reason     string
}

func (e *StatusError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("open-meteo returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("open-meteo returned HTTP %d: %s", e.StatusCode, e.Reason)
}

// Fetcher retrieves the forecast for a coordinate pair.
type Fetcher interface {
	FetchForecast(ctx context.Context, latitude string, longitude string) (*ForecastResponse, error)
}

const userAgent = "weather-dash (https://github.com/stuartleeks/home-dash)"

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the forecast endpoint at baseURL. A nil
// httpClient uses http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// BuildQuery returns the fixed parameter set for a coordinate pair. The
// coordinates are passed through as entered.
func BuildQuery(latitude string, longitude string) url.Values {
	params := url.Values{}
	params.Set("latitude", latitude)
	params.Set("longitude", longitude)
	params.Set("current", strings.Join(CurrentVariables, ","))
	params.Set("daily", strings.Join(DailyVariables, ","))
	params.Set("timezone", "auto")
	params.Set("forecast_days", strconv.Itoa(ForecastDays))
	params.Set("timeformat", "unixtime")
	return params
}

// FetchForecast issues one request and returns the first location in the
// response.
func (c *Client) FetchForecast(ctx context.Context, latitude string, longitude string) (*ForecastResponse, error) {
	reqURL := c.baseURL + "?" + BuildQuery(latitude, longitude).Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ErrFetch, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var perr providerError
		_ = json.Unmarshal(body, &perr)
		return nil, &StatusError{StatusCode: resp.StatusCode, Reason: perr.Reason}
	}

	return decodeForecast(body)
}

func decodeForecast(body []byte) (*ForecastResponse, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, fmt.Errorf("%w: empty body", ErrDecode)
	}

	// Multi-location requests come back as a list
	if trimmed[0] == '[' {
		var responses []ForecastResponse
		if err := json.Unmarshal(trimmed, &responses); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecode, err)
		}
		if len(responses) == 0 {
			return nil, fmt.Errorf("%w: no locations in response", ErrDecode)
		}
		return &responses[0], nil
	}

	var response ForecastResponse
	if err := json.Unmarshal(trimmed, &response); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return &response, nil
}

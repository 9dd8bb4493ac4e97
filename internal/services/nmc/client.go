package nmc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultTimeout bounds one round trip including the body read.
	DefaultTimeout = 20 * time.Second

	maxBodySize = 4 << 20
	weatherPath = "/rest/weather"
)

// HTTPClient is satisfied by *http.Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client performs single-attempt GET requests against the NMC REST API.
type Client struct {
	baseURL string
	timeout time.Duration
	client  HTTPClient
	logger  zerolog.Logger
}

// NewClient constructs a new NMC client. A non-positive timeout means DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration, httpClient HTTPClient, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		client:  httpClient,
		logger:  logger.With().Str("component", "nmc_client").Logger(),
	}
}

// URL returns the request URL for a station.
func (c *Client) URL(stationID string) string {
	return fmt.Sprintf("%s%s?stationid=%s", c.baseURL, weatherPath, url.QueryEscape(stationID))
}

// Fetch returns the raw response body for stationID. Every failure is a *TransportError.
func (c *Client) Fetch(ctx context.Context, stationID string) ([]byte, error) {
	start := time.Now()
	u := c.URL(stationID)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.logger.Debug().
		Ctx(ctx).
		Str("station", stationID).
		Str("url", u).
		Msg("starting NMC request")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		c.logger.Error().
			Ctx(ctx).
			Err(err).
			Str("url", u).
			Msg("failed to create HTTP request")
		return nil, &TransportError{URL: u, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error().
			Ctx(ctx).
			Err(err).
			Str("url", u).
			Msg("error sending HTTP request to NMC")
		return nil, &TransportError{URL: u, Err: err}
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Error().
				Ctx(ctx).
				Err(cerr).
				Str("station", stationID).
				Msg("failed to close response body")
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.logger.Error().
			Ctx(ctx).
			Str("station", stationID).
			Int("status_code", resp.StatusCode).
			Msg("NMC returned non-success status")
		return nil, &TransportError{URL: u, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		c.logger.Error().
			Ctx(ctx).
			Err(err).
			Str("station", stationID).
			Msg("failed to read NMC response body")
		return nil, &TransportError{URL: u, Err: err}
	}

	c.logger.Info().
		Ctx(ctx).
		Str("station", stationID).
		Int("bytes", len(body)).
		Dur("duration_ms", time.Since(start)).
		Msg("fetched NMC payload")

	return body, nil
}

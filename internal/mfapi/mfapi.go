package mfapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultBaseURL is the public AMFI NAV mirror used when no override is configured.
const DefaultBaseURL = "https://api.mfapi.in"

// Client provides methods for fetching mutual fund NAV history from the
// mfapi.in feed. It wraps an HTTP client and a configurable base URL so tests
// can point it at a local server.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new NAV feed client. An empty baseURL selects the
// public endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
	}
}

// GetNAVHistory fetches the full published NAV history for one AMFI scheme
// code and returns it parsed, oldest observation first.
func (c *Client) GetNAVHistory(ctx context.Context, amfiCode string) (NAVSeries, error) {
	url := fmt.Sprintf("%s/mf/%s", c.baseURL, amfiCode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return NAVSeries{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return NAVSeries{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return NAVSeries{}, fmt.Errorf("nav feed returned status %d for scheme %s", resp.StatusCode, amfiCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return NAVSeries{}, err
	}

	var response Response
	if err := json.Unmarshal(data, &response); err != nil {
		return NAVSeries{}, err
	}

	return c.ParseSeries(response)
}

// ParseSeries converts a raw feed response into a structured NAV series.
// The feed publishes observations newest first with dd-mm-yyyy dates; the
// parsed series is reversed to oldest first with UTC dates.
func (c *Client) ParseSeries(response Response) (NAVSeries, error) {
	if response.Status != "" && response.Status != "SUCCESS" {
		return NAVSeries{}, fmt.Errorf("nav feed error: %s", response.Status)
	}
	if len(response.Data) == 0 {
		return NAVSeries{}, fmt.Errorf("no nav data returned for scheme %d", response.Meta.SchemeCode)
	}

	quotes := make([]NAVQuote, 0, len(response.Data))
	for i := len(response.Data) - 1; i >= 0; i-- {
		entry := response.Data[i]

		date, err := time.Parse("02-01-2006", entry.Date)
		if err != nil {
			return NAVSeries{}, fmt.Errorf("failed to parse nav date %q: %w", entry.Date, err)
		}
		nav, err := decimal.NewFromString(entry.NAV)
		if err != nil {
			return NAVSeries{}, fmt.Errorf("failed to parse nav value %q: %w", entry.NAV, err)
		}

		quotes = append(quotes, NAVQuote{Date: date.UTC(), NAV: nav})
	}

	return NAVSeries{
		SchemeCode: strconv.FormatInt(response.Meta.SchemeCode, 10),
		SchemeName: response.Meta.SchemeName,
		FundHouse:  response.Meta.FundHouse,
		Quotes:     quotes,
	}, nil
}

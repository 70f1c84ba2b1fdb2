package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// NominatimClient reverse-geocodes coordinates against a Nominatim-compatible
// HTTP endpoint.
type NominatimClient struct {
	baseURL    string
	httpClient *http.Client
}

type nominatimResponse struct {
	Address PlaceRecord `json:"address"`
}

// NewNominatimClient creates a client for the given server URL.
func NewNominatimClient(serverURL string) (*NominatimClient, error) {
	if serverURL == "" {
		serverURL = "https://nominatim.openstreetmap.org"
	}
	if _, err := url.Parse(serverURL); err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}

	return &NominatimClient{
		baseURL: strings.TrimSuffix(serverURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}, nil
}

// ReverseGeocode looks up the address for a coordinate pair.
func (c *NominatimClient) ReverseGeocode(ctx context.Context, lat, lon float64) (*PlaceRecord, error) {
	query := url.Values{}
	query.Set("format", "json")
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))

	reqURL := c.baseURL + "/reverse?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("User-Agent", "RecycleLens/1.0 (+https://github.com/ecoscan/recyclelens)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed nominatimResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %v", err)
	}

	return &parsed.Address, nil
}

package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"mountain-sentinel/config"
	"mountain-sentinel/internal/logger"

	"github.com/avast/retry-go"
)

type Address struct {
	Street   string `json:"street,omitempty"`
	Suburb   string `json:"suburb,omitempty"`
	Barangay string `json:"barangay,omitempty"`
}

type nominatimResponse struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		Road          string `json:"road"`
		Street        string `json:"street"`
		Neighbourhood string `json:"neighbourhood"`
		Suburb        string `json:"suburb"`
		Quarter       string `json:"quarter"`
	} `json:"address"`
}

// Geocoder resolves coordinates against a Nominatim-compatible endpoint.
type Geocoder struct {
	baseURL   string
	userAgent string
	timeout   time.Duration
	attempts  uint
	client    *http.Client
}

func NewGeocoder(cfg config.GeocoderConfig, client *http.Client) *Geocoder {
	if client == nil {
		client = &http.Client{}
	}
	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = 1
	}
	timeout := cfg.Timeout.Duration
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Geocoder{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		timeout:   timeout,
		attempts:  uint(attempts),
		client:    client,
	}
}

// Reverse looks up the address at lat/lng. Failures are logged and reported
// as ok == false; the caller never gets an error.
func (g *Geocoder) Reverse(ctx context.Context, lat, lng float64) (Address, bool) {
	log := logger.Component("geocoder").WithFields(map[string]interface{}{"lat": lat, "lng": lng})

	var resp nominatimResponse
	err := retry.Do(
		func() error {
			return g.fetch(ctx, lat, lng, &resp)
		},
		retry.Attempts(g.attempts),
		retry.Delay(200*time.Millisecond),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		log.WithError(err).Warn("reverse geocoding failed")
		return Address{}, false
	}

	a := resp.Address
	addr := Address{
		Street: firstNonEmpty(a.Road, a.Street, a.Neighbourhood),
		Suburb: firstNonEmpty(a.Suburb, a.Neighbourhood, a.Quarter),
	}
	if b, ok := MatchBarangay(addr.Suburb); ok {
		addr.Barangay = b
	}
	if addr.Street == "" && addr.Suburb == "" {
		return Address{}, false
	}
	return addr, true
}

func (g *Geocoder) fetch(ctx context.Context, lat, lng float64, out *nominatimResponse) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("zoom", "18")
	q.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return retry.Unrecoverable(err)
	}
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	res, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		err := fmt.Errorf("geocoder returned %d", res.StatusCode)
		if res.StatusCode >= 400 && res.StatusCode < 500 && res.StatusCode != http.StatusTooManyRequests {
			return retry.Unrecoverable(err)
		}
		return err
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return retry.Unrecoverable(fmt.Errorf("decode geocoder response: %w", err))
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// Package currency adapts the remote exchange-rate service. Failures
// of any kind collapse to a missing value: callers only branch on
// presence, never on the failure reason.
package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ledgerbot/internal/log"
)

// Rates is the port the engine and report formatter consume.
type Rates interface {
	// Codes returns the supported currency codes, false on any failure.
	Codes(ctx context.Context) ([]string, bool)

	// Rate returns the conversion rate from base to target, false on
	// any failure (network, unknown code, malformed response).
	Rate(ctx context.Context, base, target string) (decimal.Decimal, bool)
}

// Client talks to the exchange-rate HTTP API:
//
//	GET {base}/{key}/codes
//	GET {base}/{key}/latest/{base}
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *log.Logger
}

func NewClient(baseURL, apiKey string, timeout time.Duration, logger *log.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		log:     logger.WithComponent(log.ComponentCurrency),
	}
}

type codesResponse struct {
	Result         string     `json:"result"`
	SupportedCodes [][]string `json:"supported_codes"`
}

type latestResponse struct {
	Result          string             `json:"result"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
}

func (c *Client) Codes(ctx context.Context) ([]string, bool) {
	var resp codesResponse
	if !c.get(ctx, "codes", &resp) || resp.Result != "success" {
		return nil, false
	}
	codes := make([]string, 0, len(resp.SupportedCodes))
	for _, pair := range resp.SupportedCodes {
		if len(pair) > 0 {
			codes = append(codes, pair[0])
		}
	}
	return codes, true
}

func (c *Client) Rate(ctx context.Context, base, target string) (decimal.Decimal, bool) {
	// Identity conversion needs no network call.
	if base == target {
		return decimal.NewFromInt(1), true
	}
	rates, ok := c.ratesFor(ctx, base)
	if !ok {
		return decimal.Zero, false
	}
	rate, ok := rates[target]
	if !ok {
		return decimal.Zero, false
	}
	return rate, true
}

// ratesFor fetches the full conversion table for a base currency.
func (c *Client) ratesFor(ctx context.Context, base string) (map[string]decimal.Decimal, bool) {
	var resp latestResponse
	if !c.get(ctx, "latest/"+base, &resp) || resp.Result != "success" {
		return nil, false
	}
	rates := make(map[string]decimal.Decimal, len(resp.ConversionRates))
	for code, rate := range resp.ConversionRates {
		rates[code] = decimal.NewFromFloat(rate)
	}
	return rates, true
}

func (c *Client) get(ctx context.Context, path string, out any) bool {
	url := fmt.Sprintf("%s/%s/%s", c.baseURL, c.apiKey, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.log.WarnContext(ctx, "Building rate request failed", log.FieldError, err)
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WarnContext(ctx, "Rate service unreachable", log.FieldError, err)
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.log.WarnContext(ctx, "Rate service returned non-OK status", "status", resp.StatusCode)
		return false
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.log.WarnContext(ctx, "Malformed rate service response", log.FieldError, err)
		return false
	}
	return true
}

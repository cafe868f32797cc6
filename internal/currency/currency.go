// Package currency parses free-text course fee strings and normalises them
// to EUR through an exchange-rate provider. Scraped fee fields are messy:
// the amount may precede or follow the currency, the two may be glued
// together ("£9,250"), and dollar, pound, and euro appear as symbols, words,
// or ISO codes.
package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"

	pkgerrors "github.com/coursehound/coursehound/pkg/errors"
	"github.com/coursehound/coursehound/pkg/resilience"
)

// Amount is one candidate fee found in a fee string.
type Amount struct {
	Value    float64
	Currency string // ISO 4217 code
}

// Converter resolves the EUR exchange rate for a base currency.
type Converter interface {
	RateToEUR(ctx context.Context, base string) (float64, error)
}

// symbolAliases maps the non-ISO spellings of dollar, pound, and euro to
// their ISO codes. Tokens are matched after uppercasing.
var symbolAliases = map[string]string{
	"£": "GBP", "POUNDS": "GBP",
	"$": "USD", "DOLLARS": "USD",
	"€": "EUR", "EUROS": "EUR",
}

var isoCodes = []string{
	"AED", "AFN", "ALL", "AMD", "ANG", "AOA", "ARS", "AUD", "AWG", "AZN",
	"BAM", "BBD", "BDT", "BGN", "BHD", "BIF", "BMD", "BND", "BOB", "BRL",
	"BSD", "BTN", "BWP", "BYN", "BZD", "CAD", "CDF", "CHF", "CLP", "CNY",
	"COP", "CRC", "CUP", "CVE", "CZK", "DJF", "DKK", "DOP", "DZD", "EGP",
	"ERN", "ETB", "EUR", "FJD", "FKP", "FOK", "GBP", "GEL", "GGP", "GHS",
	"GIP", "GMD", "GNF", "GTQ", "GYD", "HKD", "HNL", "HRK", "HTG", "HUF",
	"IDR", "ILS", "IMP", "INR", "IQD", "IRR", "ISK", "JEP", "JMD", "JOD",
	"JPY", "KES", "KGS", "KHR", "KID", "KMF", "KRW", "KWD", "KYD", "KZT",
	"LAK", "LBP", "LKR", "LRD", "LSL", "LYD", "MAD", "MDL", "MGA", "MKD",
	"MMK", "MNT", "MOP", "MRU", "MUR", "MVR", "MWK", "MXN", "MYR", "MZN",
	"NAD", "NGN", "NIO", "NOK", "NPR", "NZD", "OMR", "PAB", "PEN", "PGK",
	"PHP", "PKR", "PLN", "PYG", "QAR", "RON", "RSD", "RUB", "RWF", "SAR",
	"SBD", "SCR", "SDG", "SEK", "SGD", "SHP", "SLE", "SLL", "SOS", "SRD",
	"SSP", "STN", "SYP", "SZL", "THB", "TJS", "TMT", "TND", "TOP", "TRY",
	"TTD", "TVD", "TWD", "TZS", "UAH", "UGX", "UYU", "UZS", "VES", "VND",
	"VUV", "WST", "XAF", "XCD", "XDR", "XOF", "XPF", "YER", "ZAR", "ZMW",
	"ZWL",
}

var knownCurrencies = func() map[string]string {
	m := make(map[string]string, len(isoCodes)+len(symbolAliases))
	for _, code := range isoCodes {
		m[code] = code
	}
	for alias, code := range symbolAliases {
		m[alias] = code
	}
	return m
}()

var (
	trailingZeroCents = regexp.MustCompile(`\.00([^0-9]|$)`)
	digitRun          = regexp.MustCompile(`\d+`)
)

// ParseFees extracts every (value, currency) pair from a scraped fee string.
// An amount counts only when a recognised currency token sits directly
// before or after it, or when a currency symbol is glued to the number
// itself. An empty result means the fee could not be determined.
func ParseFees(fees string) []Amount {
	fees = trailingZeroCents.ReplaceAllString(fees, "$1")
	tokens := strings.Fields(strings.ToUpper(fees))
	for i, t := range tokens {
		tokens[i] = strings.NewReplacer(",", "", ".", "").Replace(t)
	}

	var amounts []Amount
	for i, tok := range tokens {
		if isDigits(tok) {
			if i > 0 {
				if code, ok := knownCurrencies[tokens[i-1]]; ok {
					amounts = append(amounts, Amount{Value: mustFloat(tok), Currency: code})
					continue
				}
			}
			if i < len(tokens)-1 {
				if code, ok := knownCurrencies[tokens[i+1]]; ok {
					amounts = append(amounts, Amount{Value: mustFloat(tok), Currency: code})
				}
			}
			continue
		}
		// symbol glued to the number, either side
		runes := []rune(tok)
		if len(runes) == 0 {
			continue
		}
		if code, ok := symbolAliases[string(runes[len(runes)-1])]; ok {
			if digits := digitRun.FindString(string(runes[:len(runes)-1])); digits != "" {
				amounts = append(amounts, Amount{Value: mustFloat(digits), Currency: code})
			}
		} else if code, ok := symbolAliases[string(runes[0])]; ok {
			if digits := digitRun.FindString(string(runes[1:])); digits != "" {
				amounts = append(amounts, Amount{Value: mustFloat(digits), Currency: code})
			}
		}
	}
	return amounts
}

// ConvertMax converts every parsed fee to EUR and returns the highest,
// rounded to two decimals. It returns nil when the string yields no
// recognisable fee, which callers record as a missing value.
func ConvertMax(ctx context.Context, conv Converter, fees string) (*float64, error) {
	amounts := ParseFees(fees)
	if len(amounts) == 0 {
		return nil, nil
	}
	var best *float64
	for _, a := range amounts {
		rate, err := conv.RateToEUR(ctx, a.Currency)
		if err != nil {
			return nil, fmt.Errorf("converting %s: %w", a.Currency, err)
		}
		eur := math.Round(a.Value*rate*100) / 100
		if best == nil || eur > *best {
			v := eur
			best = &v
		}
	}
	return best, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func mustFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

// Client fetches EUR rates from an open exchange-rate API and caches them
// per base currency for the life of the process.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	retry   resilience.RetryConfig

	mu    sync.Mutex
	rates map[string]float64
}

func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    httpClient,
		rates:   make(map[string]float64),
	}
}

func (c *Client) RateToEUR(ctx context.Context, base string) (float64, error) {
	if base == "EUR" {
		return 1, nil
	}
	c.mu.Lock()
	if rate, ok := c.rates[base]; ok {
		c.mu.Unlock()
		return rate, nil
	}
	c.mu.Unlock()

	var rate float64
	err := resilience.Retry(ctx, "exchange-rate", c.retry, func() error {
		fetched, err := c.fetchRate(ctx, base)
		if err != nil {
			return err
		}
		rate = fetched
		return nil
	})
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.rates[base] = rate
	c.mu.Unlock()
	return rate, nil
}

func (c *Client) fetchRate(ctx context.Context, base string) (float64, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return 0, fmt.Errorf("parsing exchange-rate URL: %w", err)
	}
	q := u.Query()
	q.Set("base", base)
	if c.apiKey != "" {
		q.Set("apiKey", c.apiKey)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: exchange-rate API returned %d", pkgerrors.ErrInternal, resp.StatusCode)
	}

	var payload struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decoding exchange-rate response: %w", err)
	}
	rate, ok := payload.Rates["EUR"]
	if !ok {
		return 0, fmt.Errorf("%w: no EUR rate for base %s", pkgerrors.ErrInternal, base)
	}
	return rate, nil
}

// Static returns a Converter backed by a fixed rate table, for tests and
// offline runs. Unknown bases return an error.
func Static(rates map[string]float64) Converter {
	return staticConverter(rates)
}

type staticConverter map[string]float64

func (s staticConverter) RateToEUR(_ context.Context, base string) (float64, error) {
	if base == "EUR" {
		return 1, nil
	}
	rate, ok := s[base]
	if !ok {
		return 0, fmt.Errorf("%w: no rate for %s", pkgerrors.ErrInvalidInput, base)
	}
	return rate, nil
}

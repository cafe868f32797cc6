package currency

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFeesSeparatedPairs(t *testing.T) {
	cases := map[string][]Amount{
		"9,250 GBP":                        {{Value: 9250, Currency: "GBP"}},
		"GBP 9250":                         {{Value: 9250, Currency: "GBP"}},
		"tuition is 9250 dollars per year": {{Value: 9250, Currency: "USD"}},
		"POUNDS 9250":                      {{Value: 9250, Currency: "GBP"}},
		"15000.00 EUR":                     {{Value: 15000, Currency: "EUR"}},
		"about 20,000 euros total":         {{Value: 20000, Currency: "EUR"}},
	}
	for input, want := range cases {
		assert.Equal(t, want, ParseFees(input), "input %q", input)
	}
}

func TestParseFeesAttachedSymbols(t *testing.T) {
	cases := map[string][]Amount{
		"£9,250":  {{Value: 9250, Currency: "GBP"}},
		"9250£":   {{Value: 9250, Currency: "GBP"}},
		"€9.250":  {{Value: 9250, Currency: "EUR"}},
		"$12,000": {{Value: 12000, Currency: "USD"}},
	}
	for input, want := range cases {
		assert.Equal(t, want, ParseFees(input), "input %q", input)
	}
}

func TestParseFeesFindsNothing(t *testing.T) {
	for _, input := range []string{
		"",
		"See the university website",
		"9250",
		"free of charge",
	} {
		assert.Empty(t, ParseFees(input), "input %q", input)
	}
}

func TestParseFeesMultipleAmounts(t *testing.T) {
	amounts := ParseFees("1000 EUR home, 2000 USD international")
	require.Len(t, amounts, 2)
	assert.Equal(t, Amount{Value: 1000, Currency: "EUR"}, amounts[0])
	assert.Equal(t, Amount{Value: 2000, Currency: "USD"}, amounts[1])
}

func TestConvertMaxPicksHighestEUR(t *testing.T) {
	conv := Static(map[string]float64{"USD": 0.9})

	got, err := ConvertMax(context.Background(), conv, "1000 EUR home, 2000 USD international")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1800.0, *got)
}

func TestConvertMaxRounds(t *testing.T) {
	conv := Static(map[string]float64{"GBP": 1.173})

	got, err := ConvertMax(context.Background(), conv, "£9,250")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 10850.25, *got)
}

func TestConvertMaxMissingFee(t *testing.T) {
	got, err := ConvertMax(context.Background(), Static(nil), "See website")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestConvertMaxUnknownRate(t *testing.T) {
	_, err := ConvertMax(context.Background(), Static(nil), "9250 GBP")
	assert.Error(t, err)
}

func TestClientFetchesAndCachesRates(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "GBP", r.URL.Query().Get("base"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apiKey"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"rates":{"EUR":1.17,"USD":1.30}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", server.Client())

	rate, err := client.RateToEUR(context.Background(), "GBP")
	require.NoError(t, err)
	assert.Equal(t, 1.17, rate)

	_, err = client.RateToEUR(context.Background(), "GBP")
	require.NoError(t, err)
	assert.Equal(t, 1, requests, "second lookup should come from the cache")
}

func TestClientEURIsIdentity(t *testing.T) {
	client := NewClient("http://unreachable.invalid", "", nil)
	rate, err := client.RateToEUR(context.Background(), "EUR")
	require.NoError(t, err)
	assert.Equal(t, 1.0, rate)
}

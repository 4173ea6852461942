package canlidoviz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	portfolio "github.com/emrek92/Portfoy-Takip"
)

func TestParseTurkishFloat(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"41,25", 41.25, false},
		{"1.234,56", 1234.56, false},
		{"1,234.56", 1234.56, false},
		{"1234.56", 1234.56, false},
		{"-0,75", -0.75, false},
		{"+2,10", 2.10, false},
		{"", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseTurkishFloat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

const fxPage = `<html><body><table>
<tr class="currency-list-row">
  <td><span itemprop="currency">USD</span><span itemprop="name">Amerikan Doları</span></td>
  <td><span dt="bA">41,2530</span></td>
  <td><span dt="change">%0,45</span></td>
</tr>
<tr class="currency-list-row">
  <td><span itemprop="currency">EUR</span><span itemprop="name">Euro</span></td>
  <td><span dt="bA">44,8010</span></td>
  <td><span dt="change">-%0,12</span></td>
</tr>
<tr class="currency-list-row">
  <td><span itemprop="name">Kapalı Satır</span></td>
  <td><span dt="bA">0,00</span></td>
</tr>
</table></body></html>`

const cryptoPage = `<html><body><table>
<tr class="table-row-md">
  <td><span class="table-code">BTC</span><span class="truncate text-theme text-base">Bitcoin</span></td>
  <td><span dt="amount">2.450.000,50</span></td>
  <td><span class="table-perc">%1,20</span></td>
</tr>
</table></body></html>`

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/doviz-kurlari":
			w.Write([]byte(fxPage))
		case "/kripto-paralar":
			w.Write([]byte(cryptoPage))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_QuoteFX(t *testing.T) {
	srv := testServer(t)
	c := NewClient(WithBaseURL(srv.URL))

	q, err := c.Quote(context.Background(), "USD", portfolio.FX)
	require.NoError(t, err)
	assert.Equal(t, "USD", q.Symbol)
	assert.Equal(t, "Amerikan Doları", q.Name)
	assert.Equal(t, 41.2530, q.LastPrice)
	assert.Equal(t, 0.45, q.ChangePercent)

	q, err = c.Quote(context.Background(), "EUR", portfolio.FX)
	require.NoError(t, err)
	assert.Equal(t, -0.12, q.ChangePercent)
}

func TestClient_QuoteCryptoGetsSuffix(t *testing.T) {
	srv := testServer(t)
	c := NewClient(WithBaseURL(srv.URL))

	q, err := c.Quote(context.Background(), "BTC-C", portfolio.Crypto)
	require.NoError(t, err)
	assert.Equal(t, "BTC-C", q.Symbol)
	assert.Equal(t, 2450000.50, q.LastPrice)
}

func TestClient_QuoteMemoizesPage(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(fxPage))
	}))
	t.Cleanup(srv.Close)
	c := NewClient(WithBaseURL(srv.URL))

	_, err := c.Quote(context.Background(), "USD", portfolio.FX)
	require.NoError(t, err)
	_, err = c.Quote(context.Background(), "EUR", portfolio.FX)
	require.NoError(t, err)
	assert.Equal(t, 1, hits, "one page fetch serves all symbols of the class")
}

func TestClient_QuoteUnknownSymbol(t *testing.T) {
	srv := testServer(t)
	c := NewClient(WithBaseURL(srv.URL))

	_, err := c.Quote(context.Background(), "NOPE", portfolio.FX)
	require.Error(t, err)
	var pe *portfolio.ProviderError
	assert.ErrorAs(t, err, &pe)
	assert.Equal(t, "NOPE", pe.Symbol)
}

func TestClient_QuoteFundClassRejected(t *testing.T) {
	c := NewClient()
	_, err := c.Quote(context.Background(), "AFT", portfolio.Fund)
	assert.Error(t, err, "funds are not listed on canlidoviz")
}

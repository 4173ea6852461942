package portfolio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportExport_RoundTrip(t *testing.T) {
	s := testStore(t)
	_, err := s.InsertTransaction(Transaction{
		Date: "2025-01-01", Type: Equity, Symbol: "THYAO", Kind: Buy,
		Quantity: Q(10.5), Price: TRY(312.25), Fees: TRY(1.5), Broker: "Midas", Notes: "ilk alım",
		IsDividend: true,
	})
	require.NoError(t, err)
	_, err = s.InsertTransaction(Transaction{
		Date: "2025-02-01", Type: Fund, Symbol: "AFT", Kind: Sell,
		Quantity: Q(3), Price: TRY(9.123456),
	})
	require.NoError(t, err)

	var backup bytes.Buffer
	require.NoError(t, s.ExportJSON(&backup))

	restored := testStore(t)
	n, err := restored.ImportJSON(bytes.NewReader(backup.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	want, err := s.Transactions()
	require.NoError(t, err)
	got, err := restored.Transactions()
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Symbol, got[i].Symbol)
		assert.Equal(t, want[i].Kind, got[i].Kind)
		assert.Equal(t, want[i].Date, got[i].Date)
		assert.True(t, got[i].Quantity.Equal(want[i].Quantity), "quantity %s != %s", got[i].Quantity, want[i].Quantity)
		assert.True(t, got[i].Price.Equal(want[i].Price), "price survives exactly")
		assert.True(t, got[i].Fees.Equal(want[i].Fees))
		assert.Equal(t, want[i].Broker, got[i].Broker)
		assert.Equal(t, want[i].IsDividend, got[i].IsDividend)
	}
}

func TestImportJSON_BareList(t *testing.T) {
	s := testStore(t)
	input := `[
		{"date": "2025-01-01", "symbol": "thyao", "type": "Alış", "quantity": 10, "price": 100},
		{"date": "-", "symbol": "USD", "type": "sell", "quantity": 5, "price": 41}
	]`

	n, err := s.ImportJSON(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	txs, err := s.Transactions()
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "THYAO", txs[0].Symbol)
	assert.Equal(t, Buy, txs[0].Kind, "Turkish kind is normalized")
	assert.Equal(t, Today().String(), txs[1].Date, `"-" date becomes today`)

	// Class was missing and must be inferred: USD is FX.
	a, err := s.Asset("USD")
	require.NoError(t, err)
	assert.Equal(t, FX, a.Type)
}

func TestImportJSON_AllOrNothing(t *testing.T) {
	s := testStore(t)
	input := `{"transactions": [
		{"date": "2025-01-01", "symbol": "AAA", "type": "buy", "quantity": 10, "price": 100},
		{"date": "2025-01-02", "symbol": "BBB", "type": "buy", "quantity": -1, "price": 100}
	]}`

	_, err := s.ImportJSON(strings.NewReader(input))
	require.Error(t, err)

	txs, err := s.Transactions()
	require.NoError(t, err)
	assert.Empty(t, txs, "a bad row must reject the whole backup")
}

func TestImportJSON_Malformed(t *testing.T) {
	s := testStore(t)
	_, err := s.ImportJSON(strings.NewReader(`{"foo": 1`))
	assert.Error(t, err)
	_, err = s.ImportJSON(strings.NewReader(`"just a string"`))
	assert.Error(t, err)
}

func TestExportJSON_Idempotent(t *testing.T) {
	s := testStore(t)
	_, err := s.InsertTransaction(Transaction{
		Date: "2025-01-01", Type: Equity, Symbol: "AAA", Kind: Buy,
		Quantity: Q(1), Price: TRY(10),
	})
	require.NoError(t, err)

	var first, second bytes.Buffer
	require.NoError(t, s.ExportJSON(&first))

	restored := testStore(t)
	_, err = restored.ImportJSON(bytes.NewReader(first.Bytes()))
	require.NoError(t, err)
	require.NoError(t, restored.ExportJSON(&second))

	// The transactions block must be byte-identical; only exported_at differs.
	trim := func(s string) string {
		i := strings.Index(s, `"exported_at"`)
		require.Positive(t, i)
		return s[:i]
	}
	assert.Equal(t, trim(first.String()), trim(second.String()))
}

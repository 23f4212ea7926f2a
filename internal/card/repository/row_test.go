package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dario/cardvault/internal/card/domain"
)

func TestNormalizeColumn(t *testing.T) {
	assert.Equal(t, "CARDID", NormalizeColumn("CARD_ID"))
	assert.Equal(t, "CARDID", NormalizeColumn("CardId"))
	assert.Equal(t, "CARDID", NormalizeColumn("cardid"))
	assert.Equal(t, "CARDID", NormalizeColumn("card__id"))
}

func TestRow(t *testing.T) {
	row := NewRow(
		[]string{"card_id", "CardBin", "CARDMASK", "CARD_NAME", "cardid"},
		[]any{int64(42), []byte("411111"), "1111", nil, int64(7)},
	)

	t.Run("LookupIsCaseAndSeparatorInsensitive", func(t *testing.T) {
		assert.Equal(t, int64(42), row.Int64("CARDID"))
		assert.Equal(t, int64(42), row.Int64("CardId"))
		assert.Equal(t, "411111", row.String("CARD_BIN"))
		assert.Equal(t, "1111", row.String("cardMask"))
	})

	t.Run("FirstDuplicateWins", func(t *testing.T) {
		value, ok := row.Value("cardid")
		assert.True(t, ok)
		assert.Equal(t, int64(42), value)
	})

	t.Run("BytesBecomeStrings", func(t *testing.T) {
		value, ok := row.Value("CARDBIN")
		assert.True(t, ok)
		assert.Equal(t, "411111", value)
		assert.Equal(t, int64(411111), row.Int64("CARDBIN"))
	})

	t.Run("MissingAndNullDefaultToZero", func(t *testing.T) {
		assert.Equal(t, "", row.String("CARDIBAN"))
		assert.Equal(t, int64(0), row.Int64("CARDFAMILY"))
		assert.Equal(t, "", row.String("CARDNAME"))

		_, ok := row.Value("CARDIBAN")
		assert.False(t, ok)
	})

	t.Run("UnconvertibleDefaultsToZero", func(t *testing.T) {
		assert.Equal(t, int64(0), row.Int64("CARDMASK_NOT_THERE"))
		r := NewRow([]string{"CARDID"}, []any{"not-a-number"})
		assert.Equal(t, int64(0), r.Int64("CARDID"))
	})

	t.Run("Columns", func(t *testing.T) {
		assert.Len(t, row.Columns(), 5)
	})
}

func TestMapRow(t *testing.T) {
	t.Run("UpperCaseColumns", func(t *testing.T) {
		row := NewRow(
			[]string{
				"CARDID", "CARDPAN", "CARDPRODUCTCODE", "CARDDATA", "CARDHASH", "CARDEXDATE", "CARDMASK",
				"CARDBIN", "CARDBINNAME", "CARDNAME", "CARDFAMILY", "CARDNATIONALCODE", "CARDIBAN",
			},
			[]any{
				int64(42), "4111111111111111", "11", "pan-cipher", "hash", "exp-cipher", "1111",
				"411111", "Test Bank", "Jane", "Doe", "0012345678", "IR000000000000000000000001",
			},
		)

		assert.Equal(t, domain.Card{
			CardID:       42,
			PanCipher:    "pan-cipher",
			ExpiryCipher: "exp-cipher",
			DedupHash:    "hash",
			Bin:          "411111",
			ProductCode:  "11",
			MaskedTail:   "1111",
			BinName:      "Test Bank",
			HolderName:   "Jane",
			Family:       "Doe",
			NationalCode: "0012345678",
			Iban:         "IR000000000000000000000001",
		}, MapRow(row))
	})

	t.Run("SnakeCaseMatchesUpperCase", func(t *testing.T) {
		upper := MapRow(NewRow([]string{"CARDID"}, []any{int64(42)}))
		snake := MapRow(NewRow([]string{"card_id"}, []any{int64(42)}))

		assert.Equal(t, upper, snake)
		assert.Equal(t, int64(42), snake.CardID)
	})

	t.Run("CleartextPanIsNeverMapped", func(t *testing.T) {
		card := MapRow(NewRow([]string{"CARD_PAN"}, []any{"4111111111111111"}))

		assert.Empty(t, card.Pan)
		assert.Empty(t, card.PanCipher)
	})

	t.Run("EmptyRow", func(t *testing.T) {
		assert.Equal(t, domain.Card{}, MapRow(NewRow(nil, nil)))
	})
}

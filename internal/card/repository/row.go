package repository

import (
	"strings"

	"github.com/spf13/cast"

	"github.com/dario/cardvault/internal/card/domain"
)

// Row is one result row with case- and underscore-insensitive column lookup.
type Row struct {
	columns []string
	values  []any
	index   map[string]int
}

// NewRow builds a Row. When two columns normalize to the same key the first one wins.
func NewRow(columns []string, values []any) Row {
	index := make(map[string]int, len(columns))
	for i, column := range columns {
		key := NormalizeColumn(column)
		if _, exists := index[key]; !exists {
			index[key] = i
		}
	}
	return Row{columns: columns, values: values, index: index}
}

// NormalizeColumn upper-cases name and strips underscores, so CARD_ID, CardId and cardid
// compare equal.
func NormalizeColumn(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "_", ""))
}

// Columns returns the column names as reported by the driver.
func (r Row) Columns() []string {
	return r.columns
}

// Value returns the raw value of column. Driver byte slices are returned as strings.
func (r Row) Value(column string) (any, bool) {
	i, ok := r.index[NormalizeColumn(column)]
	if !ok || i >= len(r.values) {
		return nil, false
	}
	if b, isBytes := r.values[i].([]byte); isBytes {
		return string(b), true
	}
	return r.values[i], true
}

// String returns column as a string, or "" when it is missing, NULL or not convertible.
func (r Row) String(column string) string {
	value, ok := r.Value(column)
	if !ok || value == nil {
		return ""
	}
	s, err := cast.ToStringE(value)
	if err != nil {
		return ""
	}
	return s
}

// Int64 returns column as an int64, or 0 when it is missing, NULL or not convertible.
func (r Row) Int64(column string) int64 {
	value, ok := r.Value(column)
	if !ok || value == nil {
		return 0
	}
	if s, isString := value.(string); isString {
		value = strings.TrimSpace(s)
	}
	n, err := cast.ToInt64E(value)
	if err != nil {
		return 0
	}
	return n
}

// MapRow converts a lookup row into a Card. Missing columns leave the zero value. The
// cleartext PAN column, if a procedure exposes one, is never mapped.
func MapRow(row Row) domain.Card {
	return domain.Card{
		CardID:       row.Int64("CARDID"),
		PanCipher:    row.String("CARDDATA"),
		ExpiryCipher: row.String("CARDEXDATE"),
		DedupHash:    row.String("CARDHASH"),
		Bin:          row.String("CARDBIN"),
		ProductCode:  row.String("CARDPRODUCTCODE"),
		MaskedTail:   row.String("CARDMASK"),
		BinName:      row.String("CARDBINNAME"),
		HolderName:   row.String("CARDNAME"),
		Family:       row.String("CARDFAMILY"),
		NationalCode: row.String("CARDNATIONALCODE"),
		Iban:         row.String("CARDIBAN"),
	}
}

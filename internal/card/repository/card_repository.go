package repository

import (
	"context"
	"fmt"

	"github.com/spf13/cast"

	"github.com/dario/cardvault/internal/card/domain"
)

// Store procedure parameter names, in the positional order of the write procedure.
const (
	ParamCardHash    = "p_CardHash"
	ParamCardData    = "p_CardData"
	ParamCardBin     = "p_CardBin"
	ParamCardProduct = "p_CardProduct"
	ParamCardEnd     = "p_CardEnd"
	ParamCardExpDate = "p_CardExpDate"
)

// Procedures names the stored procedures the repository calls.
type Procedures struct {
	Store                string
	Lookup               string
	LookupParameterNames []string
}

// CardRepository persists and reads vaulted cards through the store procedures. Writes and
// lookups use the write gateway; the health probe uses the query gateway.
type CardRepository struct {
	write      *Gateway
	query      *Gateway
	procedures Procedures
}

// NewCardRepository creates a CardRepository.
func NewCardRepository(write, query *Gateway, procedures Procedures) *CardRepository {
	return &CardRepository{
		write:      write,
		query:      query,
		procedures: procedures,
	}
}

// Store executes the write procedure and returns the card id it assigned. It returns
// domain.ErrEmptyCursor when no cursor comes back and domain.ErrCardNotFound when the
// cursor has no row or no positive CARDID.
func (r *CardRepository) Store(ctx context.Context, in domain.StoreInput) (cardID int64, err error) {
	params := []Param{
		{Name: ParamCardHash, Value: in.DedupHash},
		{Name: ParamCardData, Value: in.EncryptedPan},
		{Name: ParamCardBin, Value: in.Bin},
		{Name: ParamCardProduct, Value: in.ProductCode},
		{Name: ParamCardEnd, Value: in.MaskedTail},
		{Name: ParamCardExpDate, Value: in.EncryptedExpiry},
	}

	cursor, err := r.write.Execute(ctx, r.procedures.Store, params)
	if err != nil {
		return 0, err
	}
	defer func() {
		if closeErr := cursor.Close(); closeErr != nil && err == nil {
			cardID, err = 0, r.write.executionError(ctx, r.procedures.Store, closeErr)
		}
	}()

	if cursor.Empty() {
		return 0, domain.ErrEmptyCursor
	}

	row, found, err := cursor.Next(ctx)
	if err != nil {
		return 0, r.write.executionError(ctx, r.procedures.Store, err)
	}
	if !found {
		return 0, domain.ErrCardNotFound
	}

	cardID = row.Int64("CARDID")
	if cardID <= 0 {
		return 0, domain.ErrCardNotFound
	}
	return cardID, nil
}

// GetByID runs the lookup procedure, probing the configured parameter names, and maps the
// first row. Ciphertext fields are returned as stored.
func (r *CardRepository) GetByID(ctx context.Context, cardID int64) (card *domain.Card, err error) {
	cursor, err := r.write.ProbeParameterName(ctx, r.procedures.Lookup, r.procedures.LookupParameterNames, cardID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := cursor.Close(); closeErr != nil && err == nil {
			card, err = nil, r.write.executionError(ctx, r.procedures.Lookup, closeErr)
		}
	}()

	if cursor.Empty() {
		return nil, domain.ErrEmptyCursor
	}

	row, found, err := cursor.Next(ctx)
	if err != nil {
		return nil, r.write.executionError(ctx, r.procedures.Lookup, err)
	}
	if !found {
		return nil, domain.ErrCardNotFound
	}

	mapped := MapRow(row)
	return &mapped, nil
}

// Ping runs the health query against the query target and reports whether it returned the
// sentinel value 1.
func (r *CardRepository) Ping(ctx context.Context) (bool, error) {
	value, err := r.query.QueryScalar(ctx, r.query.Dialect().HealthQuery())
	if err != nil {
		return false, err
	}

	n, err := cast.ToInt64E(value)
	if err != nil {
		return false, fmt.Errorf("unexpected health probe result %v: %w", value, err)
	}
	return n == 1, nil
}

// Package dto provides data transfer objects for the card vault HTTP endpoints.
package dto

import (
	validation "github.com/jellydator/validation"

	"github.com/dario/cardvault/internal/card/domain"
	customValidation "github.com/dario/cardvault/internal/validation"
)

// CardRequest is the body shared by the card endpoints. Store reads CardPan and CardExDate;
// the lookups read CardID.
type CardRequest struct {
	CardID     int64  `json:"cardId"`
	CardPan    string `json:"cardPan"`
	CardExDate string `json:"cardExDate"`
}

// ValidateStore checks the shape of a store request. An empty PAN is left to the vault,
// which answers with a failure envelope.
func (r *CardRequest) ValidateStore() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.CardPan,
			validation.Length(0, 32),
			customValidation.CardNumber,
		),
		validation.Field(&r.CardExDate,
			customValidation.Expiry,
		),
	)
}

// ValidateLookup checks the shape of an identifier lookup.
func (r *CardRequest) ValidateLookup() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.CardID,
			validation.Required,
			validation.Min(int64(1)),
		),
	)
}

// ToVaultRequest converts the body into the domain request.
func (r *CardRequest) ToVaultRequest() domain.VaultRequest {
	return domain.VaultRequest{
		CardID: r.CardID,
		Pan:    r.CardPan,
		Expiry: r.CardExDate,
	}
}

package domain

import (
	"github.com/dario/cardvault/internal/errors"
)

// Messages surfaced in failure envelopes.
const (
	MessageInvalidBIN   = "Card BIN is invalid."
	MessageEmptyPAN     = "Card PAN is required."
	MessageEmptyCursor  = "Cursor result was empty."
	MessageNoStoredCard = "No card record returned from storage."
	MessageNoCard       = "No card record returned."
	MessageInvalidID    = "Card id is invalid."
)

var (
	// ErrEmptyPAN indicates a store request without a PAN.
	ErrEmptyPAN = errors.Wrap(errors.ErrInvalidInput, "card pan is empty")

	// ErrInvalidBIN indicates the leading digits of the PAN are not a numeric BIN.
	ErrInvalidBIN = errors.Wrap(errors.ErrInvalidInput, "card bin is invalid")

	// ErrInvalidCardID indicates a lookup with a non-positive identifier.
	ErrInvalidCardID = errors.Wrap(errors.ErrInvalidInput, "card id is invalid")

	// ErrEmptyCursor indicates the store produced no cursor at all.
	ErrEmptyCursor = errors.Wrap(errors.ErrNotFound, "card cursor is empty")

	// ErrCardNotFound indicates the store returned no row for the request.
	ErrCardNotFound = errors.Wrap(errors.ErrNotFound, "card not found")
)

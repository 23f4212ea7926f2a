// Package validation provides the custom rules shared by request DTOs and configuration.
package validation

import (
	"encoding/base64"
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/dario/cardvault/internal/errors"
)

var (
	// cardNumberRegex allows digits separated by single spaces or dashes.
	cardNumberRegex = regexp.MustCompile(`^[0-9]+([ -]?[0-9]+)*$`)
	expiryRegex     = regexp.MustCompile(`^(0[1-9]|1[0-2])/?[0-9]{2}$`)
	identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$#.]*$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// CardNumber accepts a PAN written as digits, optionally grouped with spaces or dashes.
var CardNumber = validation.NewStringRuleWithError(
	func(s string) bool {
		return cardNumberRegex.MatchString(strings.TrimSpace(s))
	},
	validation.NewError("validation_card_number", "must contain only digits, spaces or dashes"),
)

// Expiry accepts MMYY or MM/YY.
var Expiry = validation.NewStringRuleWithError(
	func(s string) bool {
		return expiryRegex.MatchString(s)
	},
	validation.NewError("validation_card_expiry", "must be a valid expiry in MMYY or MM/YY format"),
)

// Identifier accepts a plain SQL identifier such as a procedure or parameter name.
var Identifier = validation.NewStringRuleWithError(
	func(s string) bool {
		return identifierRegex.MatchString(s)
	},
	validation.NewError("validation_identifier", "must be a plain identifier"),
)

// Base64 accepts standard base64 text, such as a KMS-wrapped encryption key.
var Base64 = validation.NewStringRuleWithError(
	func(s string) bool {
		_, err := base64.StdEncoding.DecodeString(s)
		return err == nil
	},
	validation.NewError("validation_base64", "must be valid base64-encoded data"),
)

// IdentifierList validates a comma-separated list of identifiers with at least one entry.
var IdentifierList = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_identifier_list_type", "must be a string")
	}
	names := SplitList(s)
	if len(names) == 0 {
		return validation.NewError("validation_identifier_list_empty", "must name at least one identifier")
	}
	for _, name := range names {
		if !identifierRegex.MatchString(name) {
			return validation.NewError("validation_identifier_list", "must contain only plain identifiers")
		}
	}
	return nil
})

// SplitList splits a comma-separated value, trimming entries and dropping empty ones.
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// Package domain defines the card vault entities, the response envelope returned by every
// vault operation and the pure PAN derivation helpers.
package domain

// VaultRequest is the inbound shape shared by all vault operations. Pan and Expiry are empty
// on identifier-only lookups.
type VaultRequest struct {
	CardID int64
	Pan    string
	Expiry string
}

// Card is a vaulted card record as returned by the backing store.
//
// PanCipher and ExpiryCipher always hold ciphertext. Pan and Expiry are populated only by
// the decrypting lookup and are empty on every other path.
type Card struct {
	CardID       int64  `json:"cardId"`
	Pan          string `json:"cardPan,omitempty"`
	Expiry       string `json:"cardExDate,omitempty"`
	PanCipher    string `json:"cardData"`
	ExpiryCipher string `json:"cardExDateCipher"`
	DedupHash    string `json:"cardHash"`
	Bin          string `json:"cardBin"`
	ProductCode  string `json:"cardProductCode"`
	MaskedTail   string `json:"cardMask"`
	BinName      string `json:"cardBinName"`
	HolderName   string `json:"cardName"`
	Family       string `json:"cardFamily"`
	NationalCode string `json:"cardNationalCode"`
	Iban         string `json:"cardIban"`
}

// Summary is what Store hands back to the caller once a card has been vaulted.
type Summary struct {
	CardID      int64  `json:"cardId"`
	Bin         string `json:"cardBin"`
	MaskedTail  string `json:"cardData"`
	ProductCode string `json:"cardProductCode"`
}

// StoreInput carries the derived and encrypted values sent to the write procedure.
// It never holds the cleartext PAN.
type StoreInput struct {
	DedupHash       string
	EncryptedPan    string
	Bin             int64
	ProductCode     string
	MaskedTail      string
	EncryptedExpiry string
}

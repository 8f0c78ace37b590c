package payment

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/kodella-ai/kodella/internal/domain"
)

// CheckoutToken is the opaque state embedded in a checkout URL. The intent ID
// doubles as the payment event ID so a checkout can be confirmed at most once.
type CheckoutToken struct {
	IntentID  string  `json:"intentId"`
	UserID    int64   `json:"userId"`
	PackageID int     `json:"packageId"`
	Tokens    int64   `json:"tokens"`
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"`
}

// EncodeCheckoutToken serializes a checkout token to its base64 wire form
func EncodeCheckoutToken(token CheckoutToken) (string, error) {
	data, err := json.Marshal(token)
	if err != nil {
		return "", fmt.Errorf("failed to marshal checkout token: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DecodeCheckoutToken parses a base64 checkout token
func DecodeCheckoutToken(encoded string) (*CheckoutToken, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid checkout token", domain.ErrValidation)
	}

	var token CheckoutToken
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("%w: invalid checkout token", domain.ErrValidation)
	}
	return &token, nil
}

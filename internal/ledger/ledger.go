// Package ledger implements the token balance and audit-trail subsystem.
// Balances are mutated only through the store's atomic operations; every
// mutation appends a TokenTransaction so that for any user
// balance == initial grant + sum of signed transaction amounts.
package ledger

import (
	"context"
	"math"

	"github.com/kodella-ai/kodella/internal/domain"
	"github.com/kodella-ai/kodella/internal/store"
	"github.com/kodella-ai/kodella/internal/store/schema"
)

// Service exposes ledger operations over the store
type Service struct {
	store store.Store
}

// NewService creates a new ledger service
func NewService(s store.Store) *Service {
	return &Service{store: s}
}

// EstimateCost converts request/response character counts into a token cost.
// Characters map to provider tokens at roughly 4 characters per token, rounded
// up, and the cost is input*0.1 + output*0.2, rounded up again. The two
// rounding stages are deliberate and must not be collapsed into one.
func EstimateCost(inputLength, outputLength int) int {
	inputTokens := math.Ceil(float64(inputLength) / domain.CHARS_PER_TOKEN)
	outputTokens := math.Ceil(float64(outputLength) / domain.CHARS_PER_TOKEN)

	return int(math.Ceil(inputTokens*domain.INPUT_TOKEN_PRICE + outputTokens*domain.OUTPUT_TOKEN_PRICE))
}

// Balance returns the user's current balance; an absent user reads as 0
func (s *Service) Balance(ctx context.Context, userID int64) (int64, error) {
	return s.store.GetBalance(ctx, userID)
}

// Credit adds amount to the user's balance and records an addition transaction
func (s *Service) Credit(ctx context.Context, userID int64, amount int64, description string) (int64, error) {
	return s.store.CreditTokens(ctx, userID, amount, domain.TransactionTypeAddition, description)
}

// AdminCredit adds amount to the user's balance and records an admin_addition
// transaction. Used by the admin CLI only.
func (s *Service) AdminCredit(ctx context.Context, userID int64, amount int64, description string) (int64, error) {
	return s.store.CreditTokens(ctx, userID, amount, domain.TransactionTypeAdminAddition, description)
}

// Debit subtracts amount from the user's balance when sufficient, recording a
// deduction transaction with the negated amount. Returns the new balance.
func (s *Service) Debit(ctx context.Context, userID int64, amount int64, pluginID *int64, description string) (int64, error) {
	return s.store.DebitTokens(ctx, userID, amount, pluginID, description)
}

// SetBalance overwrites the user's balance, recording the implied delta as an
// admin_set transaction. Returns the previous balance. Admin CLI only.
func (s *Service) SetBalance(ctx context.Context, userID int64, newAmount int64, description string) (int64, error) {
	return s.store.SetTokenBalance(ctx, userID, newAmount, description)
}

// Transactions returns the user's most recent transactions, newest first,
// bounded to the standard page size
func (s *Service) Transactions(ctx context.Context, userID int64) ([]*schema.TokenTransaction, error) {
	return s.store.ListTransactions(ctx, userID, domain.TRANSACTION_PAGE_SIZE)
}

package store

import (
	"context"

	"github.com/kodella-ai/kodella/internal/domain"
	"github.com/kodella-ai/kodella/internal/store/schema"
)

// UserUpdate holds the optional profile fields to change. Nil means unchanged.
type UserUpdate struct {
	Username     *string
	Email        *string
	PasswordHash *string
}

// PluginMetadataUpdate holds the optional plugin fields to change. Nil means unchanged.
type PluginMetadataUpdate struct {
	Name        *string
	Description *string
}

// PluginStats aggregates a user's plugin counters
type PluginStats struct {
	Total      int64
	Completed  int64
	Draft      int64
	TokensUsed int64
}

// CreateGeneratedPluginInput is the payload for the atomic debit-and-persist
// step of the generate workflow
type CreateGeneratedPluginInput struct {
	UserID      int64
	Name        string
	Description string
	Code        string
	Prompt      string
	Cost        int64
	DebitReason string
}

// RevisePluginInput is the payload for the atomic debit-and-persist step of
// the improve and fix workflows
type RevisePluginInput struct {
	UserID        int64
	PluginID      int64
	Code          string
	VersionPrompt string
	Cost          int64
	DebitReason   string
}

// GenerationResult carries the persisted plugin state and the post-debit balance
type GenerationResult struct {
	Plugin     *schema.Plugin
	Version    int64
	NewBalance int64
}

// PaymentCreditInput is the payload for an idempotent payment-backed credit
type PaymentCreditInput struct {
	EventID     string
	UserID      int64
	TokenAmount int64
	Payload     []byte
	Description string
}

// Store defines the interface for database operations
type Store interface {
	// CreateUser inserts a new user; returns domain.ErrConflict when the email
	// or username is already taken
	CreateUser(ctx context.Context, user *schema.User) error
	// GetUserByID retrieves a user by ID; returns (nil, nil) when absent
	GetUserByID(ctx context.Context, userID int64) (*schema.User, error)
	// GetUserByEmail retrieves a user by email; returns (nil, nil) when absent
	GetUserByEmail(ctx context.Context, email string) (*schema.User, error)
	// GetUserByUsername retrieves a user by username; returns (nil, nil) when absent
	GetUserByUsername(ctx context.Context, username string) (*schema.User, error)
	// UpdateUser applies the non-nil fields of update to the user
	UpdateUser(ctx context.Context, userID int64, update UserUpdate) error
	// ListUsers returns the most recently registered users
	ListUsers(ctx context.Context, limit int) ([]*schema.User, error)

	// GetBalance returns the user's current token balance, 0 when the user is absent
	GetBalance(ctx context.Context, userID int64) (int64, error)
	// CreditTokens atomically adds amount to the balance and appends an audit
	// transaction of the given type; returns the new balance
	CreditTokens(ctx context.Context, userID int64, amount int64, txType domain.TransactionType, description string) (int64, error)
	// DebitTokens atomically subtracts amount from the balance when sufficient
	// and appends a deduction transaction; returns the new balance.
	// Fails with domain.ErrUserNotFound or domain.ErrInsufficientBalance.
	DebitTokens(ctx context.Context, userID int64, amount int64, pluginID *int64, description string) (int64, error)
	// SetTokenBalance overwrites the balance and records the implied delta as
	// an admin_set transaction; returns the previous balance
	SetTokenBalance(ctx context.Context, userID int64, newAmount int64, description string) (int64, error)
	// ListTransactions returns the user's transactions, newest first
	ListTransactions(ctx context.Context, userID int64, limit int) ([]*schema.TokenTransaction, error)
	// SumTransactionsByType returns the signed sum of the user's transactions of one type
	SumTransactionsByType(ctx context.Context, userID int64, txType domain.TransactionType) (int64, error)

	// ListPlugins returns the user's plugins without code, most recently updated first
	ListPlugins(ctx context.Context, userID int64) ([]*schema.Plugin, error)
	// ListRecentPlugins returns the user's most recently updated plugins
	ListRecentPlugins(ctx context.Context, userID int64, limit int) ([]*schema.Plugin, error)
	// GetPlugin retrieves a plugin owned by the user; returns (nil, nil) when absent
	GetPlugin(ctx context.Context, pluginID int64, userID int64) (*schema.Plugin, error)
	// GetUserPluginStats aggregates plugin counters for the user
	GetUserPluginStats(ctx context.Context, userID int64) (*PluginStats, error)
	// ListPluginVersions returns a plugin's versions, highest ordinal first
	ListPluginVersions(ctx context.Context, pluginID int64) ([]*schema.PluginVersion, error)
	// UpdatePluginMetadata applies the non-nil fields and returns the updated plugin
	UpdatePluginMetadata(ctx context.Context, pluginID int64, userID int64, update PluginMetadataUpdate) (*schema.Plugin, error)
	// DeletePlugin removes the plugin and its versions, and nulls (not deletes)
	// audit transactions that reference it
	DeletePlugin(ctx context.Context, pluginID int64, userID int64) error

	// CreateGeneratedPlugin debits the generation cost and persists the new
	// plugin plus its first version in a single transaction
	CreateGeneratedPlugin(ctx context.Context, input CreateGeneratedPluginInput) (*GenerationResult, error)
	// RevisePlugin debits the revision cost, overwrites the plugin code and
	// appends the next version in a single transaction
	RevisePlugin(ctx context.Context, input RevisePluginInput) (*GenerationResult, error)

	// RecordPaymentCredit credits a payment grant exactly once per event ID;
	// returns domain.ErrDuplicatePayment when the event was already processed
	RecordPaymentCredit(ctx context.Context, input PaymentCreditInput) (int64, error)
}

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kodella-ai/kodella/internal/domain"
	"github.com/kodella-ai/kodella/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new store instance over a GORM connection
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// AutoMigrate creates or updates the database schema for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&schema.User{},
		&schema.Plugin{},
		&schema.PluginVersion{},
		&schema.TokenTransaction{},
		&schema.PaymentEvent{},
	)
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero values fall back to reasonable defaults.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings into safe values.
//
// Defaults (when zero):
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	// Ensure MaxIdleConns doesn't exceed MaxOpenConns
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// forUpdate applies a row-level lock on dialects that support it.
// SQLite (used by the test suite) serializes writers on its own.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// CreateUser inserts a new user; returns domain.ErrConflict when the email or
// username is already taken
func (s *pgStore) CreateUser(ctx context.Context, user *schema.User) error {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(user)
	if res.Error != nil {
		return fmt.Errorf("failed to create user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

// GetUserByID retrieves a user by ID
func (s *pgStore) GetUserByID(ctx context.Context, userID int64) (*schema.User, error) {
	var user schema.User
	err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email
func (s *pgStore) GetUserByEmail(ctx context.Context, email string) (*schema.User, error) {
	var user schema.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username
func (s *pgStore) GetUserByUsername(ctx context.Context, username string) (*schema.User, error) {
	var user schema.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return &user, nil
}

// UpdateUser applies the non-nil fields of update to the user
func (s *pgStore) UpdateUser(ctx context.Context, userID int64, update UserUpdate) error {
	fields := map[string]interface{}{}
	if update.Username != nil {
		fields["username"] = *update.Username
	}
	if update.Email != nil {
		fields["email"] = *update.Email
	}
	if update.PasswordHash != nil {
		fields["password_hash"] = *update.PasswordHash
	}
	if len(fields) == 0 {
		return nil
	}

	res := s.db.WithContext(ctx).Model(&schema.User{}).Where("id = ?", userID).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("failed to update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// ListUsers returns the most recently registered users
func (s *pgStore) ListUsers(ctx context.Context, limit int) ([]*schema.User, error) {
	var users []*schema.User
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// GetBalance returns the user's current token balance, 0 when the user is absent
func (s *pgStore) GetBalance(ctx context.Context, userID int64) (int64, error) {
	var user schema.User
	err := s.db.WithContext(ctx).Select("tokens").Where("id = ?", userID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return user.Tokens, nil
}

// creditTx adds amount to the user's balance and appends the audit transaction.
// Must run inside a transaction.
func (s *pgStore) creditTx(tx *gorm.DB, userID int64, amount int64, txType domain.TransactionType, description string) (int64, error) {
	res := tx.Model(&schema.User{}).
		Where("id = ?", userID).
		UpdateColumn("tokens", gorm.Expr("tokens + ?", amount))
	if res.Error != nil {
		return 0, fmt.Errorf("failed to credit tokens: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, domain.ErrUserNotFound
	}

	record := schema.TokenTransaction{
		UserID:      userID,
		Amount:      amount,
		Type:        txType.String(),
		Description: description,
	}
	if err := tx.Create(&record).Error; err != nil {
		return 0, fmt.Errorf("failed to record credit transaction: %w", err)
	}

	var user schema.User
	if err := tx.Select("tokens").Where("id = ?", userID).First(&user).Error; err != nil {
		return 0, fmt.Errorf("failed to read balance after credit: %w", err)
	}
	return user.Tokens, nil
}

// debitTx subtracts amount from the user's balance when sufficient and appends
// the deduction transaction. The balance check and subtraction are one
// conditional UPDATE so concurrent debits can never overdraw the balance.
// Must run inside a transaction.
func (s *pgStore) debitTx(tx *gorm.DB, userID int64, amount int64, pluginID *int64, description string) (int64, error) {
	res := tx.Model(&schema.User{}).
		Where("id = ? AND tokens >= ?", userID, amount).
		UpdateColumn("tokens", gorm.Expr("tokens - ?", amount))
	if res.Error != nil {
		return 0, fmt.Errorf("failed to debit tokens: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&schema.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
			return 0, fmt.Errorf("failed to check user existence: %w", err)
		}
		if count == 0 {
			return 0, domain.ErrUserNotFound
		}
		return 0, domain.ErrInsufficientBalance
	}

	record := schema.TokenTransaction{
		UserID:      userID,
		PluginID:    pluginID,
		Amount:      -amount,
		Type:        domain.TransactionTypeDeduction.String(),
		Description: description,
	}
	if err := tx.Create(&record).Error; err != nil {
		return 0, fmt.Errorf("failed to record debit transaction: %w", err)
	}

	var user schema.User
	if err := tx.Select("tokens").Where("id = ?", userID).First(&user).Error; err != nil {
		return 0, fmt.Errorf("failed to read balance after debit: %w", err)
	}
	return user.Tokens, nil
}

// CreditTokens atomically adds amount to the balance and appends an audit transaction
func (s *pgStore) CreditTokens(ctx context.Context, userID int64, amount int64, txType domain.TransactionType, description string) (int64, error) {
	var newBalance int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		newBalance, err = s.creditTx(tx, userID, amount, txType, description)
		return err
	})
	return newBalance, err
}

// DebitTokens atomically subtracts amount from the balance and appends a deduction transaction
func (s *pgStore) DebitTokens(ctx context.Context, userID int64, amount int64, pluginID *int64, description string) (int64, error) {
	var newBalance int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		newBalance, err = s.debitTx(tx, userID, amount, pluginID, description)
		return err
	})
	return newBalance, err
}

// SetTokenBalance overwrites the balance and records the implied delta as an
// admin_set transaction; returns the previous balance
func (s *pgStore) SetTokenBalance(ctx context.Context, userID int64, newAmount int64, description string) (int64, error) {
	var previous int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user schema.User
		err := forUpdate(tx).Where("id = ?", userID).First(&user).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrUserNotFound
			}
			return fmt.Errorf("failed to lock user: %w", err)
		}
		previous = user.Tokens

		if err := tx.Model(&schema.User{}).
			Where("id = ?", userID).
			UpdateColumn("tokens", newAmount).Error; err != nil {
			return fmt.Errorf("failed to set balance: %w", err)
		}

		record := schema.TokenTransaction{
			UserID:      userID,
			Amount:      newAmount - previous,
			Type:        domain.TransactionTypeAdminSet.String(),
			Description: description,
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to record admin_set transaction: %w", err)
		}
		return nil
	})
	return previous, err
}

// ListTransactions returns the user's transactions, newest first
func (s *pgStore) ListTransactions(ctx context.Context, userID int64, limit int) ([]*schema.TokenTransaction, error) {
	var transactions []*schema.TokenTransaction
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&transactions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactions, nil
}

// SumTransactionsByType returns the signed sum of the user's transactions of one type
func (s *pgStore) SumTransactionsByType(ctx context.Context, userID int64, txType domain.TransactionType) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).
		Model(&schema.TokenTransaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND type = ?", userID, txType.String()).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum transactions: %w", err)
	}
	return total, nil
}

// ListPlugins returns the user's plugins without code, most recently updated first
func (s *pgStore) ListPlugins(ctx context.Context, userID int64) ([]*schema.Plugin, error) {
	var plugins []*schema.Plugin
	err := s.db.WithContext(ctx).
		Select("id", "user_id", "name", "description", "status", "tokens_used", "created_at", "updated_at").
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&plugins).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list plugins: %w", err)
	}
	return plugins, nil
}

// ListRecentPlugins returns the user's most recently updated plugins
func (s *pgStore) ListRecentPlugins(ctx context.Context, userID int64, limit int) ([]*schema.Plugin, error) {
	var plugins []*schema.Plugin
	err := s.db.WithContext(ctx).
		Select("id", "name", "status", "created_at", "updated_at").
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Limit(limit).
		Find(&plugins).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recent plugins: %w", err)
	}
	return plugins, nil
}

// GetPlugin retrieves a plugin owned by the user
func (s *pgStore) GetPlugin(ctx context.Context, pluginID int64, userID int64) (*schema.Plugin, error) {
	var plugin schema.Plugin
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", pluginID, userID).
		First(&plugin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get plugin: %w", err)
	}
	return &plugin, nil
}

// GetUserPluginStats aggregates plugin counters for the user
func (s *pgStore) GetUserPluginStats(ctx context.Context, userID int64) (*PluginStats, error) {
	var stats PluginStats
	err := s.db.WithContext(ctx).
		Model(&schema.Plugin{}).
		Select(
			"COUNT(*) AS total, "+
				"COUNT(CASE WHEN status = 'completed' THEN 1 END) AS completed, "+
				"COUNT(CASE WHEN status = 'draft' THEN 1 END) AS draft, "+
				"COALESCE(SUM(tokens_used), 0) AS tokens_used").
		Where("user_id = ?", userID).
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get plugin stats: %w", err)
	}
	return &stats, nil
}

// ListPluginVersions returns a plugin's versions, highest ordinal first
func (s *pgStore) ListPluginVersions(ctx context.Context, pluginID int64) ([]*schema.PluginVersion, error) {
	var versions []*schema.PluginVersion
	err := s.db.WithContext(ctx).
		Where("plugin_id = ?", pluginID).
		Order("version DESC").
		Find(&versions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list plugin versions: %w", err)
	}
	return versions, nil
}

// UpdatePluginMetadata applies the non-nil fields and returns the updated plugin
func (s *pgStore) UpdatePluginMetadata(ctx context.Context, pluginID int64, userID int64, update PluginMetadataUpdate) (*schema.Plugin, error) {
	fields := map[string]interface{}{}
	if update.Name != nil {
		fields["name"] = *update.Name
	}
	if update.Description != nil {
		fields["description"] = *update.Description
	}

	if len(fields) > 0 {
		res := s.db.WithContext(ctx).
			Model(&schema.Plugin{}).
			Where("id = ? AND user_id = ?", pluginID, userID).
			Updates(fields)
		if res.Error != nil {
			return nil, fmt.Errorf("failed to update plugin: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, domain.ErrPluginNotFound
		}
	}

	plugin, err := s.GetPlugin(ctx, pluginID, userID)
	if err != nil {
		return nil, err
	}
	if plugin == nil {
		return nil, domain.ErrPluginNotFound
	}
	return plugin, nil
}

// DeletePlugin removes the plugin and its versions, and nulls audit
// transactions that reference it. Done explicitly in one transaction so the
// behavior does not depend on database-level cascade configuration.
func (s *pgStore) DeletePlugin(ctx context.Context, pluginID int64, userID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var plugin schema.Plugin
		err := tx.Select("id").Where("id = ? AND user_id = ?", pluginID, userID).First(&plugin).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrPluginNotFound
			}
			return fmt.Errorf("failed to get plugin for deletion: %w", err)
		}

		// Audit records survive the plugin; only the reference is cleared
		if err := tx.Model(&schema.TokenTransaction{}).
			Where("plugin_id = ?", pluginID).
			UpdateColumn("plugin_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach transactions: %w", err)
		}

		if err := tx.Where("plugin_id = ?", pluginID).Delete(&schema.PluginVersion{}).Error; err != nil {
			return fmt.Errorf("failed to delete plugin versions: %w", err)
		}

		if err := tx.Where("id = ?", pluginID).Delete(&schema.Plugin{}).Error; err != nil {
			return fmt.Errorf("failed to delete plugin: %w", err)
		}
		return nil
	})
}

// CreateGeneratedPlugin debits the generation cost and persists the new plugin
// plus its first version in a single transaction
func (s *pgStore) CreateGeneratedPlugin(ctx context.Context, input CreateGeneratedPluginInput) (*GenerationResult, error) {
	var result GenerationResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		newBalance, err := s.debitTx(tx, input.UserID, input.Cost, nil, input.DebitReason)
		if err != nil {
			return err
		}

		plugin := schema.Plugin{
			UserID:      input.UserID,
			Name:        input.Name,
			Description: input.Description,
			Code:        input.Code,
			Prompt:      input.Prompt,
			Status:      domain.PluginStatusCompleted.String(),
			TokensUsed:  input.Cost,
		}
		if err := tx.Create(&plugin).Error; err != nil {
			return fmt.Errorf("failed to create plugin: %w", err)
		}

		version := schema.PluginVersion{
			PluginID:   plugin.ID,
			Version:    1,
			Code:       input.Code,
			Prompt:     input.Prompt,
			TokensUsed: input.Cost,
		}
		if err := tx.Create(&version).Error; err != nil {
			return fmt.Errorf("failed to create plugin version: %w", err)
		}

		result = GenerationResult{Plugin: &plugin, Version: 1, NewBalance: newBalance}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// RevisePlugin debits the revision cost, overwrites the plugin code and
// appends the next version in a single transaction. The plugin row is locked
// for the duration so concurrent revisions assign distinct, increasing ordinals.
func (s *pgStore) RevisePlugin(ctx context.Context, input RevisePluginInput) (*GenerationResult, error) {
	var result GenerationResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var plugin schema.Plugin
		err := forUpdate(tx).
			Where("id = ? AND user_id = ?", input.PluginID, input.UserID).
			First(&plugin).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrPluginNotFound
			}
			return fmt.Errorf("failed to lock plugin: %w", err)
		}

		newBalance, err := s.debitTx(tx, input.UserID, input.Cost, &plugin.ID, input.DebitReason)
		if err != nil {
			return err
		}

		var maxVersion int64
		if err := tx.Model(&schema.PluginVersion{}).
			Select("COALESCE(MAX(version), 0)").
			Where("plugin_id = ?", plugin.ID).
			Scan(&maxVersion).Error; err != nil {
			return fmt.Errorf("failed to get latest version: %w", err)
		}
		nextVersion := maxVersion + 1

		if err := tx.Model(&plugin).Updates(map[string]interface{}{
			"code":        input.Code,
			"tokens_used": gorm.Expr("tokens_used + ?", input.Cost),
		}).Error; err != nil {
			return fmt.Errorf("failed to update plugin: %w", err)
		}

		version := schema.PluginVersion{
			PluginID:   plugin.ID,
			Version:    nextVersion,
			Code:       input.Code,
			Prompt:     input.VersionPrompt,
			TokensUsed: input.Cost,
		}
		if err := tx.Create(&version).Error; err != nil {
			return fmt.Errorf("failed to create plugin version: %w", err)
		}

		plugin.Code = input.Code
		plugin.TokensUsed += input.Cost
		result = GenerationResult{Plugin: &plugin, Version: nextVersion, NewBalance: newBalance}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// RecordPaymentCredit credits a payment grant exactly once per event ID
func (s *pgStore) RecordPaymentCredit(ctx context.Context, input PaymentCreditInput) (int64, error) {
	var newBalance int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event := schema.PaymentEvent{
			EventID:     input.EventID,
			UserID:      input.UserID,
			TokenAmount: input.TokenAmount,
			Payload:     input.Payload,
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).Create(&event)
		if res.Error != nil {
			return fmt.Errorf("failed to record payment event: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrDuplicatePayment
		}

		var err error
		newBalance, err = s.creditTx(tx, input.UserID, input.TokenAmount, domain.TransactionTypeAddition, input.Description)
		return err
	})
	return newBalance, err
}

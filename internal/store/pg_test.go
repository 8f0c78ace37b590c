package store_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kodella-ai/kodella/internal/domain"
	"github.com/kodella-ai/kodella/internal/store"
	"github.com/kodella-ai/kodella/internal/store/schema"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps the in-memory database alive and serializes
	// writers the way the production database does with row locks
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, store.AutoMigrate(db))
	return store.NewPGStore(db)
}

func createTestUser(t *testing.T, s store.Store, username string, tokens int64) *schema.User {
	t.Helper()

	user := &schema.User{
		Email:        username + "@example.com",
		Username:     username,
		PasswordHash: "$2a$10$hash",
		Tokens:       tokens,
	}
	require.NoError(t, s.CreateUser(context.Background(), user))
	require.NotZero(t, user.ID)
	return user
}

func TestCreateUser_Conflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	createTestUser(t, s, "alice", 1000)

	duplicateEmail := &schema.User{
		Email:        "alice@example.com",
		Username:     "alice2",
		PasswordHash: "$2a$10$hash",
	}
	assert.ErrorIs(t, s.CreateUser(ctx, duplicateEmail), domain.ErrConflict)

	duplicateUsername := &schema.User{
		Email:        "other@example.com",
		Username:     "alice",
		PasswordHash: "$2a$10$hash",
	}
	assert.ErrorIs(t, s.CreateUser(ctx, duplicateUsername), domain.ErrConflict)
}

func TestGetUser_Absent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user, err := s.GetUserByID(ctx, 42)
	assert.NoError(t, err)
	assert.Nil(t, user)

	user, err = s.GetUserByEmail(ctx, "nobody@example.com")
	assert.NoError(t, err)
	assert.Nil(t, user)

	user, err = s.GetUserByUsername(ctx, "nobody")
	assert.NoError(t, err)
	assert.Nil(t, user)
}

func TestUpdateUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "bob", 1000)

	newUsername := "bobby"
	newEmail := "bobby@example.com"
	err := s.UpdateUser(ctx, user.ID, store.UserUpdate{Username: &newUsername, Email: &newEmail})
	require.NoError(t, err)

	updated, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "bobby", updated.Username)
	assert.Equal(t, "bobby@example.com", updated.Email)
	assert.Equal(t, "$2a$10$hash", updated.PasswordHash)

	// No fields set is a no-op, not an error
	assert.NoError(t, s.UpdateUser(ctx, user.ID, store.UserUpdate{}))

	err = s.UpdateUser(ctx, 9999, store.UserUpdate{Username: &newUsername})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestCreditAndDebit_AuditConservation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "carol", 1000)

	balance, err := s.CreditTokens(ctx, user.ID, 500, domain.TransactionTypeAddition, "Tebex payment - 500 tokens purchased")
	require.NoError(t, err)
	assert.Equal(t, int64(1500), balance)

	balance, err = s.DebitTokens(ctx, user.ID, 23, nil, "Plugin generation: Teleport")
	require.NoError(t, err)
	assert.Equal(t, int64(1477), balance)

	balance, err = s.CreditTokens(ctx, user.ID, 100, domain.TransactionTypeAdminAddition, "Admin grant: 100 tokens")
	require.NoError(t, err)
	assert.Equal(t, int64(1577), balance)

	// Every mutation left an audit record, and the signed sum accounts for
	// the balance exactly
	transactions, err := s.ListTransactions(ctx, user.ID, 50)
	require.NoError(t, err)
	require.Len(t, transactions, 3)

	var sum int64
	for _, tx := range transactions {
		sum += tx.Amount
	}
	final, err := s.GetBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000)+sum, final)
}

func TestDebitTokens_Insufficient(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "dave", 20)

	_, err := s.DebitTokens(ctx, user.ID, 21, nil, "Plugin generation: Test")
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	// Failed debit leaves no trace
	balance, err := s.GetBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20), balance)

	transactions, err := s.ListTransactions(ctx, user.ID, 50)
	require.NoError(t, err)
	assert.Empty(t, transactions)

	// Debiting exactly the balance succeeds
	balance, err = s.DebitTokens(ctx, user.ID, 20, nil, "Plugin generation: Test")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)
}

func TestDebitTokens_UserNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.DebitTokens(context.Background(), 9999, 10, nil, "Plugin generation: Test")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestDebitTokens_ConcurrentNeverOverdraws(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const (
		workers    = 10
		debit      = 100
		startingAt = (workers - 1) * debit
	)
	user := createTestUser(t, s, "erin", startingAt)

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.DebitTokens(ctx, user.ID, debit, nil, "Plugin generation: Race")
		}(i)
	}
	wg.Wait()

	var succeeded, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, domain.ErrInsufficientBalance):
			insufficient++
		}
	}
	assert.Equal(t, workers-1, succeeded)
	assert.Equal(t, 1, insufficient)

	balance, err := s.GetBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)

	transactions, err := s.ListTransactions(ctx, user.ID, 50)
	require.NoError(t, err)
	assert.Len(t, transactions, workers-1)
}

func TestSetTokenBalance(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "frank", 1000)

	previous, err := s.SetTokenBalance(ctx, user.ID, 250, "Admin set balance: 250 tokens")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), previous)

	balance, err := s.GetBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(250), balance)

	// The implied delta is recorded, keeping the audit trail consistent
	transactions, err := s.ListTransactions(ctx, user.ID, 50)
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, int64(-750), transactions[0].Amount)
	assert.Equal(t, domain.TransactionTypeAdminSet.String(), transactions[0].Type)

	_, err = s.SetTokenBalance(ctx, 9999, 100, "Admin set balance: 100 tokens")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestListTransactions_OrderAndLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "grace", 100000)

	for i := 0; i < 60; i++ {
		_, err := s.DebitTokens(ctx, user.ID, int64(i+1), nil, fmt.Sprintf("Plugin generation: Batch %d", i))
		require.NoError(t, err)
	}

	transactions, err := s.ListTransactions(ctx, user.ID, 50)
	require.NoError(t, err)
	require.Len(t, transactions, 50)

	// Newest first
	assert.Equal(t, int64(-60), transactions[0].Amount)
	assert.Equal(t, int64(-11), transactions[49].Amount)
}

func TestSumTransactionsByType(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "heidi", 1000)

	_, err := s.CreditTokens(ctx, user.ID, 500, domain.TransactionTypeAddition, "Tebex payment - 500 tokens purchased")
	require.NoError(t, err)
	_, err = s.CreditTokens(ctx, user.ID, 1000, domain.TransactionTypeAddition, "Tebex payment - 1000 tokens purchased")
	require.NoError(t, err)
	_, err = s.CreditTokens(ctx, user.ID, 100, domain.TransactionTypeAdminAddition, "Admin grant: 100 tokens")
	require.NoError(t, err)
	_, err = s.DebitTokens(ctx, user.ID, 23, nil, "Plugin generation: Test")
	require.NoError(t, err)

	purchased, err := s.SumTransactionsByType(ctx, user.ID, domain.TransactionTypeAddition)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), purchased)

	spent, err := s.SumTransactionsByType(ctx, user.ID, domain.TransactionTypeDeduction)
	require.NoError(t, err)
	assert.Equal(t, int64(-23), spent)
}

func TestCreateGeneratedPlugin(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "ivan", 1000)

	result, err := s.CreateGeneratedPlugin(ctx, store.CreateGeneratedPluginInput{
		UserID:      user.ID,
		Name:        "Teleport Pads",
		Description: "Pads that teleport players",
		Code:        "// plugin code",
		Prompt:      "Make teleport pads",
		Cost:        23,
		DebitReason: "Plugin generation: Teleport Pads",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Version)
	assert.Equal(t, int64(977), result.NewBalance)
	require.NotNil(t, result.Plugin)
	assert.Equal(t, domain.PluginStatusCompleted.String(), result.Plugin.Status)
	assert.Equal(t, int64(23), result.Plugin.TokensUsed)

	versions, err := s.ListPluginVersions(ctx, result.Plugin.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, int64(1), versions[0].Version)
	assert.Equal(t, "Make teleport pads", versions[0].Prompt)
	assert.Equal(t, "// plugin code", versions[0].Code)
}

func TestCreateGeneratedPlugin_InsufficientRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "judy", 10)

	_, err := s.CreateGeneratedPlugin(ctx, store.CreateGeneratedPluginInput{
		UserID:      user.ID,
		Name:        "Too Expensive",
		Code:        "// plugin code",
		Prompt:      "Make something big",
		Cost:        11,
		DebitReason: "Plugin generation: Too Expensive",
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	// Nothing was persisted
	balance, err := s.GetBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), balance)

	plugins, err := s.ListPlugins(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, plugins)
}

func TestRevisePlugin(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "karl", 1000)

	created, err := s.CreateGeneratedPlugin(ctx, store.CreateGeneratedPluginInput{
		UserID:      user.ID,
		Name:        "Economy",
		Code:        "// v1",
		Prompt:      "Make an economy plugin",
		Cost:        20,
		DebitReason: "Plugin generation: Economy",
	})
	require.NoError(t, err)

	revised, err := s.RevisePlugin(ctx, store.RevisePluginInput{
		UserID:        user.ID,
		PluginID:      created.Plugin.ID,
		Code:          "// v2",
		VersionPrompt: "Add shops",
		Cost:          15,
		DebitReason:   "Plugin improvement: Economy",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), revised.Version)
	assert.Equal(t, int64(965), revised.NewBalance)
	assert.Equal(t, "// v2", revised.Plugin.Code)
	assert.Equal(t, int64(35), revised.Plugin.TokensUsed)

	versions, err := s.ListPluginVersions(ctx, created.Plugin.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, int64(2), versions[0].Version)
	assert.Equal(t, "Add shops", versions[0].Prompt)
	assert.Equal(t, int64(1), versions[1].Version)

	// The deduction is attributed to the plugin
	transactions, err := s.ListTransactions(ctx, user.ID, 50)
	require.NoError(t, err)
	require.NotEmpty(t, transactions)
	require.NotNil(t, transactions[0].PluginID)
	assert.Equal(t, created.Plugin.ID, *transactions[0].PluginID)
}

func TestRevisePlugin_NotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner := createTestUser(t, s, "laura", 1000)
	other := createTestUser(t, s, "mallory", 1000)

	created, err := s.CreateGeneratedPlugin(ctx, store.CreateGeneratedPluginInput{
		UserID:      owner.ID,
		Name:        "Private",
		Code:        "// v1",
		Prompt:      "Make a private plugin",
		Cost:        10,
		DebitReason: "Plugin generation: Private",
	})
	require.NoError(t, err)

	// Another user's plugin is indistinguishable from a missing one
	_, err = s.RevisePlugin(ctx, store.RevisePluginInput{
		UserID:        other.ID,
		PluginID:      created.Plugin.ID,
		Code:          "// hacked",
		VersionPrompt: "Take over",
		Cost:          10,
		DebitReason:   "Plugin improvement: Private",
	})
	assert.ErrorIs(t, err, domain.ErrPluginNotFound)

	_, err = s.RevisePlugin(ctx, store.RevisePluginInput{
		UserID:        owner.ID,
		PluginID:      9999,
		Code:          "// v2",
		VersionPrompt: "Update",
		Cost:          10,
		DebitReason:   "Plugin improvement: Private",
	})
	assert.ErrorIs(t, err, domain.ErrPluginNotFound)
}

func TestRevisePlugin_ConcurrentOrdinalsAreUnique(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "nina", 100000)

	created, err := s.CreateGeneratedPlugin(ctx, store.CreateGeneratedPluginInput{
		UserID:      user.ID,
		Name:        "Contended",
		Code:        "// v1",
		Prompt:      "Make a plugin",
		Cost:        10,
		DebitReason: "Plugin generation: Contended",
	})
	require.NoError(t, err)

	const revisions = 8
	var wg sync.WaitGroup
	errs := make([]error, revisions)
	for i := 0; i < revisions; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.RevisePlugin(ctx, store.RevisePluginInput{
				UserID:        user.ID,
				PluginID:      created.Plugin.ID,
				Code:          fmt.Sprintf("// rev %d", i),
				VersionPrompt: fmt.Sprintf("Revision %d", i),
				Cost:          10,
				DebitReason:   "Plugin improvement: Contended",
			})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	versions, err := s.ListPluginVersions(ctx, created.Plugin.ID)
	require.NoError(t, err)
	require.Len(t, versions, revisions+1)

	seen := map[int64]bool{}
	for _, v := range versions {
		assert.False(t, seen[v.Version], "duplicate version ordinal %d", v.Version)
		seen[v.Version] = true
	}
	assert.Equal(t, int64(revisions+1), versions[0].Version)
}

func TestListPlugins_OmitsCode(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "oscar", 1000)

	_, err := s.CreateGeneratedPlugin(ctx, store.CreateGeneratedPluginInput{
		UserID:      user.ID,
		Name:        "Listed",
		Code:        "// big source",
		Prompt:      "Make a plugin",
		Cost:        10,
		DebitReason: "Plugin generation: Listed",
	})
	require.NoError(t, err)

	plugins, err := s.ListPlugins(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, plugins, 1)
	assert.Equal(t, "Listed", plugins[0].Name)
	assert.Empty(t, plugins[0].Code)
}

func TestGetUserPluginStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "peggy", 1000)

	stats, err := s.GetUserPluginStats(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Total)

	for i := 0; i < 3; i++ {
		_, err := s.CreateGeneratedPlugin(ctx, store.CreateGeneratedPluginInput{
			UserID:      user.ID,
			Name:        fmt.Sprintf("Plugin %d", i),
			Code:        "// code",
			Prompt:      "Make a plugin",
			Cost:        10,
			DebitReason: fmt.Sprintf("Plugin generation: Plugin %d", i),
		})
		require.NoError(t, err)
	}

	stats, err = s.GetUserPluginStats(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(3), stats.Completed)
	assert.Equal(t, int64(0), stats.Draft)
	assert.Equal(t, int64(30), stats.TokensUsed)
}

func TestUpdatePluginMetadata(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "quentin", 1000)
	other := createTestUser(t, s, "rachel", 1000)

	created, err := s.CreateGeneratedPlugin(ctx, store.CreateGeneratedPluginInput{
		UserID:      user.ID,
		Name:        "Old Name",
		Code:        "// code",
		Prompt:      "Make a plugin",
		Cost:        10,
		DebitReason: "Plugin generation: Old Name",
	})
	require.NoError(t, err)

	newName := "New Name"
	updated, err := s.UpdatePluginMetadata(ctx, created.Plugin.ID, user.ID, store.PluginMetadataUpdate{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)

	// Ownership is checked before applying
	_, err = s.UpdatePluginMetadata(ctx, created.Plugin.ID, other.ID, store.PluginMetadataUpdate{Name: &newName})
	assert.ErrorIs(t, err, domain.ErrPluginNotFound)
}

func TestDeletePlugin(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "sybil", 1000)
	other := createTestUser(t, s, "trent", 1000)

	created, err := s.CreateGeneratedPlugin(ctx, store.CreateGeneratedPluginInput{
		UserID:      user.ID,
		Name:        "Doomed",
		Code:        "// code",
		Prompt:      "Make a plugin",
		Cost:        10,
		DebitReason: "Plugin generation: Doomed",
	})
	require.NoError(t, err)

	_, err = s.RevisePlugin(ctx, store.RevisePluginInput{
		UserID:        user.ID,
		PluginID:      created.Plugin.ID,
		Code:          "// v2",
		VersionPrompt: "Improve it",
		Cost:          10,
		DebitReason:   "Plugin improvement: Doomed",
	})
	require.NoError(t, err)

	// Not the owner
	err = s.DeletePlugin(ctx, created.Plugin.ID, other.ID)
	assert.ErrorIs(t, err, domain.ErrPluginNotFound)

	require.NoError(t, s.DeletePlugin(ctx, created.Plugin.ID, user.ID))

	plugin, err := s.GetPlugin(ctx, created.Plugin.ID, user.ID)
	require.NoError(t, err)
	assert.Nil(t, plugin)

	versions, err := s.ListPluginVersions(ctx, created.Plugin.ID)
	require.NoError(t, err)
	assert.Empty(t, versions)

	// The audit trail survives with the plugin reference cleared
	transactions, err := s.ListTransactions(ctx, user.ID, 50)
	require.NoError(t, err)
	require.Len(t, transactions, 2)
	for _, tx := range transactions {
		assert.Nil(t, tx.PluginID)
	}

	err = s.DeletePlugin(ctx, created.Plugin.ID, user.ID)
	assert.ErrorIs(t, err, domain.ErrPluginNotFound)
}

func TestRecordPaymentCredit_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "victor", 1000)

	input := store.PaymentCreditInput{
		EventID:     "evt_12345",
		UserID:      user.ID,
		TokenAmount: 5000,
		Payload:     []byte(`{"id":"evt_12345","type":"payment.completed"}`),
		Description: "Tebex payment - 5000 tokens purchased",
	}

	balance, err := s.RecordPaymentCredit(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, int64(6000), balance)

	// Replaying the same event credits nothing
	_, err = s.RecordPaymentCredit(ctx, input)
	assert.ErrorIs(t, err, domain.ErrDuplicatePayment)

	balance, err = s.GetBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(6000), balance)

	transactions, err := s.ListTransactions(ctx, user.ID, 50)
	require.NoError(t, err)
	assert.Len(t, transactions, 1)

	// A different event goes through
	input.EventID = "evt_67890"
	balance, err = s.RecordPaymentCredit(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, int64(11000), balance)
}

// Package account implements registration, login and profile management.
package account

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/kodella-ai/kodella/internal/auth"
	"github.com/kodella-ai/kodella/internal/domain"
	"github.com/kodella-ai/kodella/internal/store"
	"github.com/kodella-ai/kodella/internal/store/schema"
)

// Service handles account operations
type Service struct {
	store   store.Store
	authCfg auth.Config
}

// NewService creates a new account service
func NewService(s store.Store, authCfg auth.Config) *Service {
	return &Service{
		store:   s,
		authCfg: authCfg,
	}
}

// RegisterInput is the payload for creating a new account
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Validate checks the register payload
func (i RegisterInput) Validate() error {
	if strings.TrimSpace(i.Username) == "" {
		return fmt.Errorf("%w: username is required", domain.ErrValidation)
	}
	if !strings.Contains(i.Email, "@") {
		return fmt.Errorf("%w: valid email is required", domain.ErrValidation)
	}
	if len(i.Password) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", domain.ErrValidation)
	}
	return nil
}

// Session carries an authenticated user together with their session token
type Session struct {
	User  *schema.User
	Token string
}

// Register creates a new user with the signup token grant and signs them in
func (s *Service) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &schema.User{
		Username:     strings.TrimSpace(input.Username),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: string(hash),
		Tokens:       domain.DEFAULT_SIGNUP_TOKENS,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	token, err := auth.IssueToken(s.authCfg, user.ID)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token}, nil
}

// Login authenticates a user by email or username
func (s *Service) Login(ctx context.Context, identifier, password string) (*Session, error) {
	if strings.TrimSpace(identifier) == "" || password == "" {
		return nil, fmt.Errorf("%w: email/username and password are required", domain.ErrValidation)
	}

	user, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(identifier)))
	if err != nil {
		return nil, err
	}
	if user == nil {
		user, err = s.store.GetUserByUsername(ctx, strings.TrimSpace(identifier))
		if err != nil {
			return nil, err
		}
	}
	if user == nil {
		return nil, domain.ErrUnauthorized
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrUnauthorized
	}

	token, err := auth.IssueToken(s.authCfg, user.ID)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token}, nil
}

// Profile is a user together with their aggregate plugin counters
type Profile struct {
	User         *schema.User
	TotalPlugins int64
	TokensUsed   int64
}

// GetProfile returns the user's profile with plugin counters
func (s *Service) GetProfile(ctx context.Context, userID int64) (*Profile, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	stats, err := s.store.GetUserPluginStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Profile{
		User:         user,
		TotalPlugins: stats.Total,
		TokensUsed:   stats.TokensUsed,
	}, nil
}

// UpdateProfileInput is the payload for changing profile fields. Nil means unchanged.
type UpdateProfileInput struct {
	Username *string
	Email    *string
	// NewPassword requires CurrentPassword to be set and correct
	NewPassword     *string
	CurrentPassword string
}

// UpdateProfile applies the requested profile changes
func (s *Service) UpdateProfile(ctx context.Context, userID int64, input UpdateProfileInput) (*schema.User, error) {
	if input.Username == nil && input.Email == nil && input.NewPassword == nil {
		return nil, fmt.Errorf("%w: nothing to update", domain.ErrValidation)
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	update := store.UserUpdate{}

	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		if username == "" {
			return nil, fmt.Errorf("%w: username cannot be empty", domain.ErrValidation)
		}
		if username != user.Username {
			taken, err := s.store.GetUserByUsername(ctx, username)
			if err != nil {
				return nil, err
			}
			if taken != nil {
				return nil, fmt.Errorf("%w: username already taken", domain.ErrConflict)
			}
			update.Username = &username
		}
	}

	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if !strings.Contains(email, "@") {
			return nil, fmt.Errorf("%w: valid email is required", domain.ErrValidation)
		}
		if email != user.Email {
			taken, err := s.store.GetUserByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if taken != nil {
				return nil, fmt.Errorf("%w: email already taken", domain.ErrConflict)
			}
			update.Email = &email
		}
	}

	if input.NewPassword != nil {
		if len(*input.NewPassword) < 6 {
			return nil, fmt.Errorf("%w: password must be at least 6 characters", domain.ErrValidation)
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.CurrentPassword)); err != nil {
			return nil, fmt.Errorf("%w: current password is incorrect", domain.ErrUnauthorized)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		hashStr := string(hash)
		update.PasswordHash = &hashStr
	}

	if update.Username != nil || update.Email != nil || update.PasswordHash != nil {
		if err := s.store.UpdateUser(ctx, userID, update); err != nil {
			return nil, err
		}
	}

	return s.store.GetUserByID(ctx, userID)
}

// Stats aggregates a user's account activity
type Stats struct {
	TotalPlugins     int64
	CompletedPlugins int64
	DraftPlugins     int64
	TokensUsed       int64
	TokensPurchased  int64
	RecentPlugins    []*schema.Plugin
}

// GetStats returns the user's dashboard statistics
func (s *Service) GetStats(ctx context.Context, userID int64) (*Stats, error) {
	plugins, err := s.store.GetUserPluginStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	purchased, err := s.store.SumTransactionsByType(ctx, userID, domain.TransactionTypeAddition)
	if err != nil {
		return nil, err
	}

	recent, err := s.store.ListRecentPlugins(ctx, userID, 5)
	if err != nil {
		return nil, err
	}

	return &Stats{
		TotalPlugins:     plugins.Total,
		CompletedPlugins: plugins.Completed,
		DraftPlugins:     plugins.Draft,
		TokensUsed:       plugins.TokensUsed,
		TokensPurchased:  purchased,
		RecentPlugins:    recent,
	}, nil
}

package dto

import (
	"time"

	"github.com/kodella-ai/kodella/internal/store/schema"
)

// UserDTO is the public representation of a user account
type UserDTO struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Tokens    int64     `json:"tokens"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewUserDTO maps a user row to its public representation
func NewUserDTO(user *schema.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		Tokens:    user.Tokens,
		CreatedAt: user.CreatedAt,
	}
}

// SessionResponse is returned by register and login
type SessionResponse struct {
	User  UserDTO `json:"user"`
	Token string  `json:"token"`
}

// ProfileUserDTO is a user together with aggregate plugin counters
type ProfileUserDTO struct {
	UserDTO
	TotalPlugins    int64 `json:"totalPlugins"`
	TotalTokensUsed int64 `json:"totalTokensUsed"`
}

// ProfileResponse is returned by GET /api/profile
type ProfileResponse struct {
	User ProfileUserDTO `json:"user"`
}

// PluginDTO is the full representation of a plugin including its code
type PluginDTO struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Code        string    `json:"code"`
	Prompt      string    `json:"prompt"`
	Status      string    `json:"status"`
	TokensUsed  int64     `json:"tokensUsed"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewPluginDTO maps a plugin row to its full representation
func NewPluginDTO(plugin *schema.Plugin) PluginDTO {
	return PluginDTO{
		ID:          plugin.ID,
		Name:        plugin.Name,
		Description: plugin.Description,
		Code:        plugin.Code,
		Prompt:      plugin.Prompt,
		Status:      plugin.Status,
		TokensUsed:  plugin.TokensUsed,
		CreatedAt:   plugin.CreatedAt,
		UpdatedAt:   plugin.UpdatedAt,
	}
}

// PluginSummaryDTO is the code-free representation used in listings
type PluginSummaryDTO struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	TokensUsed  int64     `json:"tokensUsed"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewPluginSummaryDTOs maps plugin rows to their code-free representations
func NewPluginSummaryDTOs(plugins []*schema.Plugin) []PluginSummaryDTO {
	result := make([]PluginSummaryDTO, 0, len(plugins))
	for _, p := range plugins {
		result = append(result, PluginSummaryDTO{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Status:      p.Status,
			TokensUsed:  p.TokensUsed,
			CreatedAt:   p.CreatedAt,
			UpdatedAt:   p.UpdatedAt,
		})
	}
	return result
}

// PluginVersionDTO is one snapshot in a plugin's history
type PluginVersionDTO struct {
	ID         int64     `json:"id"`
	Version    int64     `json:"version"`
	Code       string    `json:"code"`
	Prompt     string    `json:"prompt"`
	TokensUsed int64     `json:"tokensUsed"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewPluginVersionDTOs maps version rows to their public representations
func NewPluginVersionDTOs(versions []*schema.PluginVersion) []PluginVersionDTO {
	result := make([]PluginVersionDTO, 0, len(versions))
	for _, v := range versions {
		result = append(result, PluginVersionDTO{
			ID:         v.ID,
			Version:    v.Version,
			Code:       v.Code,
			Prompt:     v.Prompt,
			TokensUsed: v.TokensUsed,
			CreatedAt:  v.CreatedAt,
		})
	}
	return result
}

// GenerationResponse is returned by the generate, improve and fix operations
type GenerationResponse struct {
	Success         bool      `json:"success"`
	Plugin          PluginDTO `json:"plugin"`
	Version         int64     `json:"version"`
	TokensRemaining int64     `json:"tokensRemaining"`
}

// StatsResponse is returned by GET /api/profile/stats
type StatsResponse struct {
	Stats StatsDTO `json:"stats"`
}

// StatsDTO aggregates a user's dashboard statistics
type StatsDTO struct {
	TotalPlugins         int64              `json:"totalPlugins"`
	CompletedPlugins     int64              `json:"completedPlugins"`
	DraftPlugins         int64              `json:"draftPlugins"`
	TotalTokensUsed      int64              `json:"totalTokensUsed"`
	TotalTokensPurchased int64              `json:"totalTokensPurchased"`
	RecentActivity       []PluginSummaryDTO `json:"recentActivity"`
}

// TransactionDTO is one entry of the token audit trail
type TransactionDTO struct {
	ID          int64     `json:"id"`
	PluginID    *int64    `json:"pluginId"`
	Amount      int64     `json:"amount"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewTransactionDTOs maps transaction rows to their public representations
func NewTransactionDTOs(transactions []*schema.TokenTransaction) []TransactionDTO {
	result := make([]TransactionDTO, 0, len(transactions))
	for _, tx := range transactions {
		result = append(result, TransactionDTO{
			ID:          tx.ID,
			PluginID:    tx.PluginID,
			Amount:      tx.Amount,
			Type:        tx.Type,
			Description: tx.Description,
			CreatedAt:   tx.CreatedAt,
		})
	}
	return result
}

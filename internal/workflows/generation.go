// Package workflows orchestrates the plugin generation operations: balance
// gate, provider call, cost estimation, then one atomic debit-and-persist
// step. Nothing is written before the provider call succeeds, so a provider
// failure is always a state no-op.
package workflows

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kodella-ai/kodella/internal/domain"
	"github.com/kodella-ai/kodella/internal/ledger"
	"github.com/kodella-ai/kodella/internal/logger"
	"github.com/kodella-ai/kodella/internal/providers/megallm"
	"github.com/kodella-ai/kodella/internal/store"
	"github.com/kodella-ai/kodella/internal/store/schema"
)

// GenerateInput is the validated payload for the generate operation
type GenerateInput struct {
	Name        string
	Description string
	Prompt      string
	Model       string
}

// ImproveInput is the validated payload for the improve operation
type ImproveInput struct {
	Instructions string
	Model        string
}

// FixInput is the validated payload for the fix operation
type FixInput struct {
	ErrorDescription string
	Model            string
}

// Outcome carries the resulting plugin state and post-debit balance
type Outcome struct {
	Plugin          *schema.Plugin
	Version         int64
	TokensUsed      int64
	TokensRemaining int64
}

// Service runs the generation workflows and plugin management operations
type Service struct {
	store store.Store
	llm   megallm.Client
}

// NewService creates a new workflow service
func NewService(s store.Store, llm megallm.Client) *Service {
	return &Service{store: s, llm: llm}
}

// checkGate verifies the caller holds at least the minimum balance required to
// start a generation. This is an optimistic gate, not a reservation: the
// actual debit may still fail with ErrInsufficientBalance.
func (s *Service) checkGate(ctx context.Context, userID int64) error {
	balance, err := s.store.GetBalance(ctx, userID)
	if err != nil {
		return err
	}
	if balance < domain.MIN_GENERATION_BALANCE {
		return domain.ErrInsufficientTokens
	}
	return nil
}

// Generate creates a new plugin from a prompt
func (s *Service) Generate(ctx context.Context, userID int64, input GenerateInput) (*Outcome, error) {
	if input.Prompt == "" || input.Name == "" {
		return nil, fmt.Errorf("%w: prompt and name are required", domain.ErrValidation)
	}

	if err := s.checkGate(ctx, userID); err != nil {
		return nil, err
	}

	result, err := s.llm.Generate(ctx, input.Prompt, input.Model)
	if err != nil {
		return nil, err
	}

	cost := ledger.EstimateCost(result.InputLength, result.OutputLength)

	created, err := s.store.CreateGeneratedPlugin(ctx, store.CreateGeneratedPluginInput{
		UserID:      userID,
		Name:        input.Name,
		Description: input.Description,
		Code:        result.Code,
		Prompt:      input.Prompt,
		Cost:        int64(cost),
		DebitReason: fmt.Sprintf("Plugin generation: %s", input.Name),
	})
	if err != nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "Plugin generated",
		zap.Int64("user_id", userID),
		zap.Int64("plugin_id", created.Plugin.ID),
		zap.Int("cost", cost),
	)

	return &Outcome{
		Plugin:          created.Plugin,
		Version:         created.Version,
		TokensUsed:      int64(cost),
		TokensRemaining: created.NewBalance,
	}, nil
}

// Improve rewrites an existing plugin's code according to instructions
func (s *Service) Improve(ctx context.Context, userID int64, pluginID int64, input ImproveInput) (*Outcome, error) {
	if input.Instructions == "" {
		return nil, fmt.Errorf("%w: improvement instructions are required", domain.ErrValidation)
	}

	plugin, err := s.getOwnedPlugin(ctx, pluginID, userID)
	if err != nil {
		return nil, err
	}

	if err := s.checkGate(ctx, userID); err != nil {
		return nil, err
	}

	result, err := s.llm.Improve(ctx, plugin.Code, input.Instructions, input.Model)
	if err != nil {
		return nil, err
	}

	cost := ledger.EstimateCost(result.InputLength, result.OutputLength)

	revised, err := s.store.RevisePlugin(ctx, store.RevisePluginInput{
		UserID:        userID,
		PluginID:      pluginID,
		Code:          result.Code,
		VersionPrompt: input.Instructions,
		Cost:          int64(cost),
		DebitReason:   fmt.Sprintf("Plugin improvement: %s", plugin.Name),
	})
	if err != nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "Plugin improved",
		zap.Int64("user_id", userID),
		zap.Int64("plugin_id", pluginID),
		zap.Int64("version", revised.Version),
		zap.Int("cost", cost),
	)

	return &Outcome{
		Plugin:          revised.Plugin,
		Version:         revised.Version,
		TokensUsed:      int64(cost),
		TokensRemaining: revised.NewBalance,
	}, nil
}

// Fix rewrites an existing plugin's code to resolve the described error
func (s *Service) Fix(ctx context.Context, userID int64, pluginID int64, input FixInput) (*Outcome, error) {
	if input.ErrorDescription == "" {
		return nil, fmt.Errorf("%w: error description is required", domain.ErrValidation)
	}

	plugin, err := s.getOwnedPlugin(ctx, pluginID, userID)
	if err != nil {
		return nil, err
	}

	if err := s.checkGate(ctx, userID); err != nil {
		return nil, err
	}

	result, err := s.llm.Fix(ctx, plugin.Code, input.ErrorDescription, input.Model)
	if err != nil {
		return nil, err
	}

	cost := ledger.EstimateCost(result.InputLength, result.OutputLength)

	revised, err := s.store.RevisePlugin(ctx, store.RevisePluginInput{
		UserID:        userID,
		PluginID:      pluginID,
		Code:          result.Code,
		VersionPrompt: fmt.Sprintf("Fix: %s", input.ErrorDescription),
		Cost:          int64(cost),
		DebitReason:   fmt.Sprintf("Plugin fix: %s", plugin.Name),
	})
	if err != nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "Plugin fixed",
		zap.Int64("user_id", userID),
		zap.Int64("plugin_id", pluginID),
		zap.Int64("version", revised.Version),
		zap.Int("cost", cost),
	)

	return &Outcome{
		Plugin:          revised.Plugin,
		Version:         revised.Version,
		TokensUsed:      int64(cost),
		TokensRemaining: revised.NewBalance,
	}, nil
}

// getOwnedPlugin fetches a plugin and enforces ownership
func (s *Service) getOwnedPlugin(ctx context.Context, pluginID int64, userID int64) (*schema.Plugin, error) {
	plugin, err := s.store.GetPlugin(ctx, pluginID, userID)
	if err != nil {
		return nil, err
	}
	if plugin == nil {
		return nil, domain.ErrPluginNotFound
	}
	return plugin, nil
}

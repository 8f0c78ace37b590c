package workflows

import (
	"context"
	"fmt"
	"strings"

	"github.com/kodella-ai/kodella/internal/domain"
	"github.com/kodella-ai/kodella/internal/store"
	"github.com/kodella-ai/kodella/internal/store/schema"
)

// MetadataUpdate holds the optional plugin metadata fields to change
type MetadataUpdate struct {
	Name        *string
	Description *string
}

// Download carries a plugin's raw code and its suggested filename
type Download struct {
	Filename string
	Code     string
}

// List returns the user's plugins without code, most recently updated first
func (s *Service) List(ctx context.Context, userID int64) ([]*schema.Plugin, error) {
	return s.store.ListPlugins(ctx, userID)
}

// Get returns one plugin owned by the user
func (s *Service) Get(ctx context.Context, userID int64, pluginID int64) (*schema.Plugin, error) {
	return s.getOwnedPlugin(ctx, pluginID, userID)
}

// History returns a plugin's versions, highest ordinal first
func (s *Service) History(ctx context.Context, userID int64, pluginID int64) ([]*schema.PluginVersion, error) {
	if _, err := s.getOwnedPlugin(ctx, pluginID, userID); err != nil {
		return nil, err
	}
	return s.store.ListPluginVersions(ctx, pluginID)
}

// Download returns the plugin's persisted code bytes, unmodified, along with
// a filename derived from the plugin name
func (s *Service) Download(ctx context.Context, userID int64, pluginID int64) (*Download, error) {
	plugin, err := s.getOwnedPlugin(ctx, pluginID, userID)
	if err != nil {
		return nil, err
	}

	filename := strings.Join(strings.Fields(plugin.Name), "_") + ".js"
	return &Download{Filename: filename, Code: plugin.Code}, nil
}

// Delete removes a plugin and its versions; audit transactions referencing the
// plugin keep their rows with the reference nulled
func (s *Service) Delete(ctx context.Context, userID int64, pluginID int64) error {
	return s.store.DeletePlugin(ctx, pluginID, userID)
}

// UpdateMetadata changes a plugin's name and/or description
func (s *Service) UpdateMetadata(ctx context.Context, userID int64, pluginID int64, update MetadataUpdate) (*schema.Plugin, error) {
	if update.Name == nil && update.Description == nil {
		return nil, fmt.Errorf("%w: no updates provided", domain.ErrValidation)
	}
	if update.Name != nil && *update.Name == "" {
		return nil, fmt.Errorf("%w: name must not be empty", domain.ErrValidation)
	}

	return s.store.UpdatePluginMetadata(ctx, pluginID, userID, store.PluginMetadataUpdate{
		Name:        update.Name,
		Description: update.Description,
	})
}

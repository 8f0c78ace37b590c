package schema

import (
	"time"
)

// PluginVersion represents the plugin_versions table - immutable snapshots of a
// plugin at each generation step. Version ordinals are unique per plugin and
// strictly increasing in creation order.
type PluginVersion struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// PluginID references the plugin this version belongs to
	PluginID int64 `gorm:"column:plugin_id;not null;uniqueIndex:idx_plugin_versions_plugin_version,priority:1"`
	// Version is the per-plugin sequential ordinal, starting at 1
	Version int64 `gorm:"column:version;not null;uniqueIndex:idx_plugin_versions_plugin_version,priority:2"`
	// Code is the plugin source at this version
	Code string `gorm:"column:code;not null;type:text"`
	// Prompt is the prompt or instruction that produced this version
	Prompt string `gorm:"column:prompt;not null;type:text"`
	// TokensUsed is the token cost of producing this version
	TokensUsed int64 `gorm:"column:tokens_used;not null;default:0"`
	// CreatedAt is the timestamp when this version was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`

	// Associations
	Plugin Plugin `gorm:"foreignKey:PluginID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the PluginVersion model
func (PluginVersion) TableName() string {
	return "plugin_versions"
}

package schema

import (
	"time"
)

// Plugin represents the plugins table - generated plugins owned by a user
type Plugin struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// UserID references the owning user
	UserID int64 `gorm:"column:user_id;not null;index"`
	// Name is the user-chosen plugin name
	Name string `gorm:"column:name;not null;type:text"`
	// Description is an optional free-text description
	Description string `gorm:"column:description;type:text"`
	// Code is the generated plugin source, stored verbatim
	Code string `gorm:"column:code;not null;type:text"`
	// Prompt is the original prompt that produced the plugin
	Prompt string `gorm:"column:prompt;not null;type:text"`
	// Status is the plugin lifecycle state (draft, completed)
	Status string `gorm:"column:status;not null;default:draft;type:text"`
	// TokensUsed is the cumulative token cost across all generations of this plugin
	TokensUsed int64 `gorm:"column:tokens_used;not null;default:0"`
	// CreatedAt is the timestamp when this plugin was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this plugin was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`

	// Associations
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Plugin model
func (Plugin) TableName() string {
	return "plugins"
}

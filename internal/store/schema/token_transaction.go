package schema

import (
	"time"
)

// TokenTransaction represents the token_transactions table - the append-only
// audit trail of every balance mutation. Positive amounts are credits,
// negative amounts are debits.
type TokenTransaction struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// UserID references the user whose balance was mutated
	UserID int64 `gorm:"column:user_id;not null;index"`
	// PluginID optionally references the plugin that caused the mutation.
	// Nulled (not deleted) when the plugin is removed.
	PluginID *int64 `gorm:"column:plugin_id"`
	// Amount is the signed balance delta
	Amount int64 `gorm:"column:amount;not null"`
	// Type classifies the mutation (addition, deduction, admin_addition, admin_set)
	Type string `gorm:"column:type;not null;type:text"`
	// Description is a human-readable explanation of the mutation
	Description string `gorm:"column:description;type:text"`
	// CreatedAt is the timestamp when this transaction was recorded
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`

	// Associations
	User   User    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Plugin *Plugin `gorm:"foreignKey:PluginID;constraint:OnDelete:SET NULL"`
}

// TableName specifies the table name for the TokenTransaction model
func (TokenTransaction) TableName() string {
	return "token_transactions"
}

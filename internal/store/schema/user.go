package schema

import (
	"time"
)

// User represents the users table - platform accounts with a token balance
type User struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Email is the unique login email
	Email string `gorm:"column:email;not null;unique;type:text"`
	// Username is the unique display name
	Username string `gorm:"column:username;not null;unique;type:text"`
	// PasswordHash is the bcrypt digest of the user's password
	PasswordHash string `gorm:"column:password_hash;not null;type:text"`
	// Tokens is the current usage-token balance. Mutated only through ledger operations.
	Tokens int64 `gorm:"column:tokens;not null;default:1000"`
	// CreatedAt is the timestamp when this user registered
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this user was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

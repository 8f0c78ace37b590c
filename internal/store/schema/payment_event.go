package schema

import (
	"time"

	"gorm.io/datatypes"
)

// PaymentEvent represents the payment_events table - processed payment
// notifications. The unique EventID makes webhook confirmation idempotent:
// a notification whose event ID was already recorded credits nothing.
type PaymentEvent struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// EventID is the payment provider's unique event identifier
	EventID string `gorm:"column:event_id;not null;unique;type:text"`
	// UserID references the credited user
	UserID int64 `gorm:"column:user_id;not null;index"`
	// TokenAmount is the number of tokens granted by this payment
	TokenAmount int64 `gorm:"column:token_amount;not null"`
	// Payload is the raw provider notification body, kept for audit
	Payload datatypes.JSON `gorm:"column:payload;type:jsonb"`
	// CreatedAt is the timestamp when this event was processed
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the PaymentEvent model
func (PaymentEvent) TableName() string {
	return "payment_events"
}

package models

import "time"

// PaymentEvent is the standardized event published to Kafka whenever an order
// reaches a terminal state.
type PaymentEvent struct {
	Type        string    `json:"type"` // payment_completed, payment_failed, payment_cancelled
	MerchantUID string    `json:"merchant_uid"`
	MemberID    string    `json:"member_id"`
	ProductID   string    `json:"product_id"`
	Amount      int       `json:"amount"`
	Timestamp   time.Time `json:"timestamp"` // UTC event time
}

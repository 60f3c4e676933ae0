package models

import "time"

// Payment capture states.
const (
	PaymentStatusCreated  = "created"
	PaymentStatusCaptured = "captured"
	PaymentStatusFailed   = "failed"
)

// Payment records one checkout attempt against an approved order. The
// amount is charged in EUR, converted from the KM total at a fixed
// rate; both amounts are kept for reconciliation.
type Payment struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	OrderID    uint       `json:"order_id" gorm:"index;not null"`
	Order      Order      `json:"-" gorm:"foreignKey:OrderID"`
	Reference  string     `json:"reference" gorm:"type:varchar(64);uniqueIndex;not null"`
	AmountKM   float64    `json:"amount_km" gorm:"type:decimal(10,2);not null"`
	AmountEUR  float64    `json:"amount_eur" gorm:"type:decimal(10,2);not null"`
	Status     string     `json:"status" gorm:"type:varchar(16);not null;default:'created'"`
	CreatedAt  time.Time  `json:"created_at"`
	CapturedAt *time.Time `json:"captured_at,omitempty"`
}

package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Order lifecycle states.
const (
	StatusSentForApproval    = "sent_for_approval"
	StatusApproved           = "approved"
	StatusNotApproved        = "not_approved"
	StatusReadyForCollecting = "ready_for_collecting"
	StatusCollected          = "collected"
)

// OrderStatuses lists every lifecycle state in order.
var OrderStatuses = []string{
	StatusSentForApproval,
	StatusApproved,
	StatusNotApproved,
	StatusReadyForCollecting,
	StatusCollected,
}

// NotApprovedReasons is the fixed reason set for rejected orders.
var NotApprovedReasons = []string{
	"Date fully booked",
	"Design not feasible",
	"Other",
}

func IsOrderStatus(v string) bool       { return contains(OrderStatuses, v) }
func IsNotApprovedReason(v string) bool { return contains(NotApprovedReasons, v) }

// forwardTransitions is the intended direction of the lifecycle. The
// admin endpoint accepts any status change (the operator can and does
// move orders backwards); this table only classifies a change so
// regressions get logged.
var forwardTransitions = map[string][]string{
	StatusSentForApproval:    {StatusApproved, StatusNotApproved},
	StatusApproved:           {StatusReadyForCollecting},
	StatusNotApproved:        {},
	StatusReadyForCollecting: {StatusCollected},
	StatusCollected:          {},
}

// IsForwardTransition reports whether from -> to follows the intended
// lifecycle direction.
func IsForwardTransition(from, to string) bool {
	return contains(forwardTransitions[from], to)
}

// OrderItem is the immutable snapshot of a cart line item taken at
// submission time.
type OrderItem struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Image  *string  `json:"image,omitempty"`
	Size   string   `json:"size,omitempty"`
	Taste  string   `json:"taste,omitempty"`
	Notes  string   `json:"notes,omitempty"`
	Source string   `json:"source"`
	Price  *float64 `json:"price,omitempty"`
}

// OrderItems is stored inline on the order row as JSON. The items are a
// composition, not a foreign-keyed collection: they are frozen at
// submission and never individually addressable.
type OrderItems []OrderItem

func (items OrderItems) Value() (driver.Value, error) {
	return json.Marshal(items)
}

func (items *OrderItems) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, items)
	case string:
		return json.Unmarshal([]byte(v), items)
	case nil:
		*items = nil
		return nil
	}
	return errors.New("unsupported type for order items")
}

// SnapshotItems freezes cart items into order item snapshots.
func SnapshotItems(items []CartItem) OrderItems {
	snapshot := make(OrderItems, 0, len(items))
	for _, item := range items {
		snapshot = append(snapshot, OrderItem{
			ID:     item.ID,
			Title:  item.Title,
			Image:  item.Image,
			Size:   item.Size,
			Taste:  item.Taste,
			Notes:  item.Notes,
			Source: item.Source,
			Price:  item.Price,
		})
	}
	return snapshot
}

// Order is a durable customer request for one or more cakes. The
// identity fields are a snapshot taken at submission; later profile
// changes do not touch existing orders. Only status, admin_note and
// not_approved_reason are mutable, and only by the admin.
type Order struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	UserID            uint       `gorm:"index;not null" json:"user_id"`
	UserEmail         string     `gorm:"type:varchar(255)" json:"user_email"`
	UserPhone         string     `gorm:"type:varchar(32)" json:"user_phone"`
	Items             OrderItems `gorm:"type:text;not null" json:"items"`
	NeededForDate     string     `gorm:"type:varchar(10);not null" json:"needed_for_date"`
	Status            string     `gorm:"type:varchar(32);not null;default:'sent_for_approval'" json:"status"`
	AdminNote         string     `gorm:"type:text" json:"admin_note"`
	NotApprovedReason string     `gorm:"type:varchar(64)" json:"not_approved_reason,omitempty"`
	CreatedAt         time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"not null" json:"updated_at"`
}

// Total sums the snapshot prices; a missing price counts as zero.
func (o *Order) Total() float64 {
	var total float64
	for _, item := range o.Items {
		if item.Price != nil {
			total += *item.Price
		}
	}
	return total
}

package models

import "time"

// Line item sources.
const (
	SourceCatalog = "catalog"
	SourceCustom  = "custom"
)

// CartItem is one cake selection held in a cart. The cart is keyed by a
// client-generated device key (or the user id once logged in) so it
// survives page reloads on the same device; concurrent writers are
// last-write-wins, matching the original local-first cart.
type CartItem struct {
	ID        string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	CartKey   string    `gorm:"type:varchar(64);index;not null" json:"-"`
	Position  int       `gorm:"not null" json:"-"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	Image     *string   `gorm:"type:text" json:"image,omitempty"`
	Size      string    `gorm:"type:varchar(64)" json:"size,omitempty"`
	Taste     string    `gorm:"type:varchar(64)" json:"taste,omitempty"`
	Notes     string    `gorm:"type:text" json:"notes,omitempty"`
	Source    string    `gorm:"type:varchar(16);not null" json:"source"`
	Price     *float64  `json:"price,omitempty"`
	CreatedAt time.Time `json:"-"`
}

// CartTotal sums the item prices; a missing price counts as zero.
func CartTotal(items []CartItem) float64 {
	var total float64
	for _, item := range items {
		if item.Price != nil {
			total += *item.Price
		}
	}
	return total
}

package wishlist

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// AlertTTL is how long a sweep-created alert stays actionable.
const AlertTTL = 7 * 24 * time.Hour

// Item is one saved service on a user's wishlist, keyed by product.
type Item struct {
	ID               uuid.UUID `json:"id" db:"id"`
	UserID           uuid.UUID `json:"user_id" db:"user_id"`
	ProductID        uuid.UUID `json:"product_id" db:"product_id"`
	ProductName      string    `json:"product_name" db:"product_name"`
	PriceWhenAdded   int       `json:"price_when_added" db:"price_when_added"` // cents
	CurrentPrice     int       `json:"current_price" db:"current_price"`       // cents
	AlertOnPriceDrop bool      `json:"alert_on_price_drop" db:"alert_on_price_drop"`
	AlertOnRestock   bool      `json:"alert_on_restock" db:"alert_on_restock"`
	Priority         int       `json:"priority" db:"priority"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

type AlertType string

const (
	AlertPriceDrop        AlertType = "price_drop"
	AlertBackInStock      AlertType = "back_in_stock"
	AlertExpiringDiscount AlertType = "expiring_discount"
)

// Alert is a time-limited, read-once nudge produced by the sweep.
type Alert struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	UserID    uuid.UUID  `json:"user_id" db:"user_id"`
	ProductID uuid.UUID  `json:"product_id" db:"product_id"`
	Type      AlertType  `json:"type" db:"type"`
	Discount  *int       `json:"discount,omitempty" db:"discount"`
	Message   string     `json:"message" db:"message"`
	ExpiresAt time.Time  `json:"expires_at" db:"expires_at"`
	ReadAt    *time.Time `json:"read_at,omitempty" db:"read_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// PriceUpdate is one product's new pricing/stock as seen by the sweep.
type PriceUpdate struct {
	ProductID uuid.UUID `json:"product_id"`
	NewPrice  int       `json:"new_price"` // cents
	InStock   *bool     `json:"in_stock,omitempty"`
}

// Wishlisted purchases earn double the standard rate of 1 XP per dollar.
const purchaseXPPerDollar = 2

// CompletionBonusXP is the one-time payout for buying out the whole
// wishlist in a single order.
const CompletionBonusXP = 500

// PurchaseXP returns the XP for buying one wishlisted item at priceCents.
func PurchaseXP(priceCents int) int {
	return purchaseXPPerDollar * priceCents / 100
}

// CompletionDue reports whether a purchase batch emptied the wishlist:
// at least one wishlisted item was bought and none remain.
func CompletionDue(purchased, remaining int) bool {
	return purchased > 0 && remaining == 0
}

// PriceDropAlert builds the alert payload for a price drop from oldPrice to
// newPrice (cents). Discount is the rounded percentage saved.
func PriceDropAlert(oldPrice, newPrice int, ref time.Time) (discount int, message string, expiresAt time.Time) {
	discount = int(math.Round(float64(oldPrice-newPrice) / float64(oldPrice) * 100))
	saved := float64(oldPrice-newPrice) / 100
	message = fmt.Sprintf("Price dropped %d%%! Save $%.2f", discount, saved)
	return discount, message, ref.Add(AlertTTL)
}

// RestockMessage builds the back-in-stock alert text.
func RestockMessage(productName string) string {
	return fmt.Sprintf("%s is back in stock", productName)
}

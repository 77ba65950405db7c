package wishlist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPriceDropAlert(t *testing.T) {
	ref := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

	discount, message, expiresAt := PriceDropAlert(10000, 7000, ref)
	assert.Equal(t, 30, discount)
	assert.Equal(t, "Price dropped 30%! Save $30.00", message)
	assert.Equal(t, ref.Add(7*24*time.Hour), expiresAt)
}

func TestPriceDropAlertRounding(t *testing.T) {
	// 1/3 off rounds to 33%.
	discount, message, _ := PriceDropAlert(30000, 20000, time.Now())
	assert.Equal(t, 33, discount)
	assert.Equal(t, "Price dropped 33%! Save $100.00", message)

	// Two thirds rounds to 67%.
	discount, _, _ = PriceDropAlert(30000, 10000, time.Now())
	assert.Equal(t, 67, discount)
}

func TestPriceDropAlertSmallDrop(t *testing.T) {
	discount, message, _ := PriceDropAlert(9999, 9950, time.Now())
	assert.Equal(t, 0, discount)
	assert.Equal(t, "Price dropped 0%! Save $0.49", message)
}

func TestPurchaseXPDoublesStandardRate(t *testing.T) {
	// Standard purchase reward is 1 XP per dollar; wishlisted items pay 2x.
	assert.Equal(t, 200, PurchaseXP(10000))
	assert.Equal(t, 50, PurchaseXP(2500))
	assert.Equal(t, 0, PurchaseXP(49))
}

func TestCompletionDue(t *testing.T) {
	// Buying the last remaining items triggers the bonus exactly when the
	// list is emptied by an actual purchase.
	assert.True(t, CompletionDue(3, 0))
	assert.True(t, CompletionDue(1, 0))
	assert.False(t, CompletionDue(3, 2))
	assert.False(t, CompletionDue(0, 0)) // nothing matched, list was already empty
}

func TestRestockMessage(t *testing.T) {
	assert.Equal(t, "Uncontested Divorce Package is back in stock", RestockMessage("Uncontested Divorce Package"))
}

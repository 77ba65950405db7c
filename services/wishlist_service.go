package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"lexengageAPI/internal/notification"
	"lexengageAPI/internal/wishlist"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type WishlistService struct {
	db            *pgxpool.Pool
	xpService     *XPService
	notifications *NotificationService
}

func NewWishlistService(db *pgxpool.Pool, xpService *XPService, notifications *NotificationService) *WishlistService {
	return &WishlistService{db: db, xpService: xpService, notifications: notifications}
}

// AddItem saves a product to the user's wishlist. Adding a product that is
// already on the list returns the existing item unchanged.
func (s *WishlistService) AddItem(ctx context.Context, userID uuid.UUID, item *wishlist.Item) (*wishlist.Item, error) {
	item.ID = uuid.New()
	item.UserID = userID
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	if item.CurrentPrice == 0 {
		item.CurrentPrice = item.PriceWhenAdded
	}

	tag, err := s.db.Exec(ctx, `
		INSERT INTO wishlist_items (id, user_id, product_id, product_name, price_when_added,
		                            current_price, alert_on_price_drop, alert_on_restock, priority,
		                            created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id, product_id) DO NOTHING`,
		item.ID, item.UserID, item.ProductID, item.ProductName, item.PriceWhenAdded,
		item.CurrentPrice, item.AlertOnPriceDrop, item.AlertOnRestock, item.Priority,
		item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add wishlist item: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return s.getItem(ctx, userID, item.ProductID)
	}
	return item, nil
}

// RemoveItem deletes a product from the user's wishlist.
func (s *WishlistService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`,
		userID, productID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove wishlist item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("item not found")
	}
	return nil
}

// GetWishlist returns the user's items, highest priority first.
func (s *WishlistService) GetWishlist(ctx context.Context, userID uuid.UUID) ([]wishlist.Item, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, product_id, product_name, price_when_added, current_price,
		       alert_on_price_drop, alert_on_restock, priority, created_at, updated_at
		FROM wishlist_items
		WHERE user_id = $1
		ORDER BY priority DESC, created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query wishlist: %w", err)
	}
	defer rows.Close()

	items := []wishlist.Item{}
	for rows.Next() {
		var it wishlist.Item
		if err := rows.Scan(&it.ID, &it.UserID, &it.ProductID, &it.ProductName, &it.PriceWhenAdded,
			&it.CurrentPrice, &it.AlertOnPriceDrop, &it.AlertOnRestock, &it.Priority,
			&it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wishlist item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read wishlist rows: %w", err)
	}

	return items, nil
}

// GetAlerts returns the user's unexpired, unread alerts and marks them read.
// A second call returns nothing until new alerts arrive.
func (s *WishlistService) GetAlerts(ctx context.Context, userID uuid.UUID) ([]wishlist.Alert, error) {
	rows, err := s.db.Query(ctx, `
		UPDATE wishlist_alerts
		SET read_at = NOW()
		WHERE user_id = $1 AND read_at IS NULL AND expires_at > NOW()
		RETURNING id, user_id, product_id, type, discount, message, expires_at, read_at, created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch alerts: %w", err)
	}
	defer rows.Close()

	alerts := []wishlist.Alert{}
	for rows.Next() {
		var a wishlist.Alert
		if err := rows.Scan(&a.ID, &a.UserID, &a.ProductID, &a.Type, &a.Discount,
			&a.Message, &a.ExpiresAt, &a.ReadAt, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read alert rows: %w", err)
	}

	return alerts, nil
}

// PurgeExpiredAlerts removes alerts past their expiry. Run periodically.
func (s *WishlistService) PurgeExpiredAlerts(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM wishlist_alerts WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired alerts: %w", err)
	}
	return tag.RowsAffected(), nil
}

// SweepSummary tallies one price sweep.
type SweepSummary struct {
	Updates    int `json:"updates"`
	PriceDrops int `json:"price_drops"`
	Restocks   int `json:"restocks"`
}

// SweepPrices applies a batch of product price/stock updates against every
// wishlist item watching those products, creating alerts and notifications
// for drops and restocks.
func (s *WishlistService) SweepPrices(ctx context.Context, updates []wishlist.PriceUpdate) (*SweepSummary, error) {
	summary := &SweepSummary{}
	now := time.Now()

	for _, upd := range updates {
		summary.Updates++

		rows, err := s.db.Query(ctx, `
			SELECT id, user_id, product_id, product_name, current_price,
			       alert_on_price_drop, alert_on_restock
			FROM wishlist_items
			WHERE product_id = $1`,
			upd.ProductID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to query watchers for %s: %w", upd.ProductID, err)
		}

		type watcher struct {
			itemID       uuid.UUID
			userID       uuid.UUID
			productID    uuid.UUID
			productName  string
			currentPrice int
			onDrop       bool
			onRestock    bool
		}
		watchers := []watcher{}
		for rows.Next() {
			var w watcher
			if err := rows.Scan(&w.itemID, &w.userID, &w.productID, &w.productName,
				&w.currentPrice, &w.onDrop, &w.onRestock); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan watcher: %w", err)
			}
			watchers = append(watchers, w)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to read watcher rows: %w", err)
		}

		for _, w := range watchers {
			if upd.NewPrice != w.currentPrice {
				_, err := s.db.Exec(ctx, `
					UPDATE wishlist_items SET current_price = $1, updated_at = NOW()
					WHERE id = $2`,
					upd.NewPrice, w.itemID,
				)
				if err != nil {
					log.Printf("ERROR: failed to update price for item %s: %v", w.itemID, err)
					continue
				}
			}

			if w.onDrop && upd.NewPrice < w.currentPrice {
				summary.PriceDrops++
				s.createPriceDropAlert(ctx, w.userID, w.productID, w.currentPrice, upd.NewPrice, now)
			}

			if w.onRestock && upd.InStock != nil && *upd.InStock {
				summary.Restocks++
				s.createRestockAlert(ctx, w.userID, w.productID, w.productName, now)
			}
		}
	}

	return summary, nil
}

func (s *WishlistService) createPriceDropAlert(ctx context.Context, userID, productID uuid.UUID, oldPrice, newPrice int, now time.Time) {
	discount, message, expiresAt := wishlist.PriceDropAlert(oldPrice, newPrice, now)

	_, err := s.db.Exec(ctx, `
		INSERT INTO wishlist_alerts (id, user_id, product_id, type, discount, message, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.New(), userID, productID, wishlist.AlertPriceDrop, discount, message, expiresAt, now,
	)
	if err != nil {
		log.Printf("ERROR: failed to create price-drop alert for %s: %v", userID, err)
		return
	}

	s.notify(ctx, userID, notification.TypePriceDrop, map[string]any{
		"product_id": productID.String(),
		"discount":   discount,
		"message":    message,
	})
}

func (s *WishlistService) createRestockAlert(ctx context.Context, userID, productID uuid.UUID, productName string, now time.Time) {
	message := wishlist.RestockMessage(productName)

	_, err := s.db.Exec(ctx, `
		INSERT INTO wishlist_alerts (id, user_id, product_id, type, discount, message, expires_at, created_at)
		VALUES ($1, $2, $3, $4, NULL, $5, $6, $7)`,
		uuid.New(), userID, productID, wishlist.AlertBackInStock, message, now.Add(wishlist.AlertTTL), now,
	)
	if err != nil {
		log.Printf("ERROR: failed to create restock alert for %s: %v", userID, err)
		return
	}

	s.notify(ctx, userID, notification.TypeBackInStock, map[string]any{
		"product_id": productID.String(),
		"message":    message,
	})
}

func (s *WishlistService) notify(ctx context.Context, userID uuid.UUID, t notification.NotificationType, data map[string]any) {
	if s.notifications == nil {
		return
	}
	_, err := s.notifications.CreateNotification(ctx, &notification.CreateNotificationRequest{
		UserID:   userID,
		Type:     t,
		Priority: notification.PriorityNormal,
		Data:     data,
	})
	if err != nil {
		log.Printf("WARN: failed to create %s notification for %s: %v", t, userID, err)
	}
}

// RecordPurchases awards XP for wishlisted products bought in one order and
// removes them from the list. Wishlisted purchases pay double the standard
// rate per item; emptying the wishlist pays a one-time completion bonus
// keyed by order ID so webhook replays cannot grant it twice. Products not
// on the wishlist are skipped.
func (s *WishlistService) RecordPurchases(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID, orderID string) (int, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin purchase transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	type purchased struct {
		productID uuid.UUID
		price     int
	}
	matched := []purchased{}
	for _, productID := range productIDs {
		var price int
		err := tx.QueryRow(ctx, `
			DELETE FROM wishlist_items
			WHERE user_id = $1 AND product_id = $2
			RETURNING current_price`,
			userID, productID,
		).Scan(&price)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("failed to clear purchased item: %w", err)
		}
		matched = append(matched, purchased{productID, price})
	}

	var remaining int
	err = tx.QueryRow(ctx, `SELECT COUNT(*) FROM wishlist_items WHERE user_id = $1`, userID).Scan(&remaining)
	if err != nil {
		return 0, fmt.Errorf("failed to count remaining items: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit purchase transaction: %w", err)
	}

	total := 0
	for _, p := range matched {
		amount := wishlist.PurchaseXP(p.price)
		if amount <= 0 {
			continue
		}
		key := fmt.Sprintf("wishlist:purchase:%s", p.productID)
		if err := s.xpService.AwardFixedXP(ctx, userID, amount, "wishlist_purchase", key); err != nil {
			log.Printf("Error awarding wishlist purchase XP for %s: %v", userID, err)
			continue
		}
		total += amount
	}

	if wishlist.CompletionDue(len(matched), remaining) {
		key := fmt.Sprintf("wishlist:complete:%s", orderID)
		if err := s.xpService.AwardFixedXP(ctx, userID, wishlist.CompletionBonusXP, "wishlist_complete", key); err != nil {
			log.Printf("Error awarding wishlist completion bonus for %s: %v", userID, err)
		} else {
			total += wishlist.CompletionBonusXP
		}
	}

	return total, nil
}

func (s *WishlistService) getItem(ctx context.Context, userID, productID uuid.UUID) (*wishlist.Item, error) {
	it := &wishlist.Item{}
	err := s.db.QueryRow(ctx, `
		SELECT id, user_id, product_id, product_name, price_when_added, current_price,
		       alert_on_price_drop, alert_on_restock, priority, created_at, updated_at
		FROM wishlist_items
		WHERE user_id = $1 AND product_id = $2`,
		userID, productID,
	).Scan(&it.ID, &it.UserID, &it.ProductID, &it.ProductName, &it.PriceWhenAdded,
		&it.CurrentPrice, &it.AlertOnPriceDrop, &it.AlertOnRestock, &it.Priority,
		&it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("item not found")
		}
		return nil, fmt.Errorf("failed to load wishlist item: %w", err)
	}
	return it, nil
}

package db

import (
	"context"
	"fmt"
	"time"

	"ms-landing/internal/models"
	"ms-landing/internal/utils"

	"github.com/uptrace/bun"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type DB struct {
	Bun *bun.DB
}

func New(bunDB *bun.DB) *DB {
	return &DB{Bun: bunDB}
}

// SavePurchase → insert, or refresh the row already stored for the same checkout session
func (d *DB) SavePurchase(ctx context.Context, p *models.Purchase) error {
	if p.ID == "" {
		p.ID = utils.NewID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	_, err := d.Bun.NewInsert().
		Model(p).
		On("CONFLICT (session_id) DO UPDATE").
		Set("event_id = EXCLUDED.event_id").
		Set("product = EXCLUDED.product").
		Set("customer_name = EXCLUDED.customer_name").
		Set("email = EXCLUDED.email").
		Set("phone = EXCLUDED.phone").
		Set("amount_total = EXCLUDED.amount_total").
		Set("currency = EXCLUDED.currency").
		Set("status = EXCLUDED.status").
		Set("purchased_at = EXCLUDED.purchased_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save purchase %s: %w", p.SessionID, err)
	}
	return nil
}

// GetBySessionID → sql.ErrNoRows when the webhook has not recorded the session
func (d *DB) GetBySessionID(ctx context.Context, sessionID string) (*models.Purchase, error) {
	var purchase models.Purchase
	err := d.Bun.NewSelect().
		Model(&purchase).
		Where("session_id = ?", sessionID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

// ListPurchases → most recent first
func (d *DB) ListPurchases(ctx context.Context, limit int) ([]models.Purchase, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	var purchases []models.Purchase
	err := d.Bun.NewSelect().
		Model(&purchases).
		Order("purchased_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return purchases, nil
}

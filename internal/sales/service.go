package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ms-landing/internal/models"

	"github.com/uptrace/bun"
)

const dateLayout = "2006-01-02"

// DefaultWindow is the report range when the caller gives none.
const DefaultWindow = 30 * 24 * time.Hour

var ErrInvalidRange = errors.New("invalid date range")

type purchaseRow struct {
	PurchasedAt time.Time `bun:"purchased_at"`
	AmountTotal int64     `bun:"amount_total"`
}

// Service reports on the purchases table.
type Service struct {
	db       *bun.DB
	location *time.Location
	zone     string
	now      func() time.Time
}

// NewService groups days in zone, falling back to UTC when it cannot be loaded.
func NewService(db *bun.DB, zone string) *Service {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		loc, zone = time.UTC, "UTC"
	}
	return &Service{db: db, location: loc, zone: zone, now: time.Now}
}

// Range parses from/to as local dates (YYYY-MM-DD, to inclusive) and returns
// the half-open UTC interval they cover. Empty values default to the last
// DefaultWindow ending today.
func (s *Service) Range(from, to string) (time.Time, time.Time, error) {
	today := s.startOfDay(s.now())

	end := today.AddDate(0, 0, 1)
	if to != "" {
		day, err := time.ParseInLocation(dateLayout, to, s.location)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: to=%q", ErrInvalidRange, to)
		}
		end = day.AddDate(0, 0, 1)
	}

	start := s.startOfDay(end.Add(-DefaultWindow))
	if from != "" {
		day, err := time.ParseInLocation(dateLayout, from, s.location)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: from=%q", ErrInvalidRange, from)
		}
		start = day
	}

	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: from must not be after to", ErrInvalidRange)
	}
	return start.UTC(), end.UTC(), nil
}

// Report aggregates completed purchases with start <= purchased_at < end.
func (s *Service) Report(ctx context.Context, start, end time.Time) (*models.SalesReport, error) {
	start, end = start.UTC(), end.UTC()

	var byProduct []models.ProductSalesMetrics
	err := s.db.NewSelect().
		TableExpr("purchases").
		ColumnExpr("product").
		ColumnExpr("COUNT(*) AS sales").
		ColumnExpr("COALESCE(SUM(amount_total), 0) AS amount").
		Where("status = ?", models.PurchaseCompleted).
		Where("purchased_at >= ?", start).
		Where("purchased_at < ?", end).
		GroupExpr("product").
		OrderExpr("product").
		Scan(ctx, &byProduct)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate sales by product: %w", err)
	}

	// Days are bucketed here rather than in SQL so they follow the local
	// calendar on every dialect.
	var rows []purchaseRow
	err = s.db.NewSelect().
		TableExpr("purchases").
		Column("purchased_at", "amount_total").
		Where("status = ?", models.PurchaseCompleted).
		Where("purchased_at >= ?", start).
		Where("purchased_at < ?", end).
		OrderExpr("purchased_at").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to load purchases for daily sales: %w", err)
	}

	report := &models.SalesReport{
		From:           start.In(s.location).Format(dateLayout),
		To:             end.In(s.location).AddDate(0, 0, -1).Format(dateLayout),
		TimeZone:       s.zone,
		SalesByProduct: make([]models.ProductSalesMetrics, 0, len(byProduct)),
		DailySales:     []models.DailySalesMetrics{},
	}
	for _, p := range byProduct {
		report.TotalSales += p.Sales
		report.TotalAmount += p.Amount
		report.SalesByProduct = append(report.SalesByProduct, p)
	}

	index := map[string]int{}
	for _, row := range rows {
		date := row.PurchasedAt.In(s.location).Format(dateLayout)
		i, ok := index[date]
		if !ok {
			i = len(report.DailySales)
			index[date] = i
			report.DailySales = append(report.DailySales, models.DailySalesMetrics{Date: date})
		}
		report.DailySales[i].Sales++
		report.DailySales[i].Amount += row.AmountTotal
	}

	return report, nil
}

func (s *Service) startOfDay(t time.Time) time.Time {
	y, m, d := t.In(s.location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.location)
}

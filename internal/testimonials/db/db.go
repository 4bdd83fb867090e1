package db

import (
	"context"
	"database/sql"
	"errors"

	"ms-landing/internal/models"
	"ms-landing/internal/testimonials"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func New(bunDB *bun.DB) *DB {
	return &DB{Bun: bunDB}
}

var _ testimonials.Repository = (*DB)(nil)

// Create → insert new testimonial
func (d *DB) Create(ctx context.Context, t *models.Testimonial) error {
	_, err := d.Bun.NewInsert().Model(t).Exec(ctx)
	return err
}

// Get → fetch one testimonial by its ID
func (d *DB) Get(ctx context.Context, id string) (*models.Testimonial, error) {
	var t models.Testimonial
	err := d.Bun.NewSelect().
		Model(&t).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, testimonials.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Update → rewrite the editable fields
func (d *DB) Update(ctx context.Context, t *models.Testimonial) error {
	res, err := d.Bun.NewUpdate().
		Model(t).
		Column("estrelas", "comentario", "atualizado_em").
		Where("id = ?", t.ID).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Delete → remove a testimonial by ID
func (d *DB) Delete(ctx context.Context, id string) error {
	res, err := d.Bun.NewDelete().
		Model((*models.Testimonial)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// List → newest first
func (d *DB) List(ctx context.Context, limit int) ([]models.Testimonial, error) {
	list := make([]models.Testimonial, 0)
	err := d.Bun.NewSelect().
		Model(&list).
		Order("criado_em DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) FindByAuthorAndComment(ctx context.Context, uid, comment string) (*models.Testimonial, error) {
	var t models.Testimonial
	err := d.Bun.NewSelect().
		Model(&t).
		Where("uid = ?", uid).
		Where("comentario = ?", comment).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, testimonials.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (d *DB) Summary(ctx context.Context) (models.TestimonialSummary, error) {
	var summary models.TestimonialSummary
	// AVG is NULL on an empty table and numeric on Postgres.
	var average sql.NullFloat64
	err := d.Bun.NewSelect().
		Model((*models.Testimonial)(nil)).
		ColumnExpr("COUNT(*)").
		ColumnExpr("AVG(estrelas)").
		Scan(ctx, &summary.Count, &average)
	if err != nil {
		return summary, err
	}
	summary.Average = average.Float64
	return summary, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return testimonials.ErrNotFound
	}
	return nil
}

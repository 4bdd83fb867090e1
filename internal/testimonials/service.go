package testimonials

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"ms-landing/internal/auth"
	"ms-landing/internal/logger"
	"ms-landing/internal/models"
	"ms-landing/internal/sse"
	"ms-landing/internal/utils"
)

// Topic is the broker topic live testimonial changes are published on.
const Topic = "testimonials"

const (
	DefaultListLimit = 50
	MaxListLimit     = 200

	anonymousName = "Usuário"
)

var (
	ErrNotFound     = errors.New("testimonial not found")
	ErrForbidden    = errors.New("testimonial belongs to another user")
	ErrInvalidInput = errors.New("comment and a 1-5 rating are required")
	ErrDuplicate    = errors.New("testimonial already submitted")
)

// Repository is implemented by the bun and MongoDB stores.
type Repository interface {
	Create(ctx context.Context, t *models.Testimonial) error
	Get(ctx context.Context, id string) (*models.Testimonial, error)
	Update(ctx context.Context, t *models.Testimonial) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit int) ([]models.Testimonial, error)
	FindByAuthorAndComment(ctx context.Context, uid, comment string) (*models.Testimonial, error)
	Summary(ctx context.Context) (models.TestimonialSummary, error)
}

type Service struct {
	Repo   Repository
	Broker *sse.Broker
	logger *logger.Logger
	now    func() time.Time
}

func NewService(repo Repository, broker *sse.Broker, log *logger.Logger) *Service {
	return &Service{Repo: repo, Broker: broker, logger: log, now: time.Now}
}

func (s *Service) List(ctx context.Context, limit int) ([]models.Testimonial, error) {
	return s.Repo.List(ctx, ClampLimit(limit))
}

// Summary reports the count and the average rating rounded to one decimal.
func (s *Service) Summary(ctx context.Context) (models.TestimonialSummary, error) {
	summary, err := s.Repo.Summary(ctx)
	if err != nil {
		return summary, err
	}
	summary.Average = math.Round(summary.Average*10) / 10
	return summary, nil
}

func (s *Service) Create(ctx context.Context, identity *auth.Identity, req models.TestimonialRequest) (*models.Testimonial, error) {
	comment, err := validate(req)
	if err != nil {
		return nil, err
	}

	if err := s.checkDuplicate(ctx, identity.UID, comment, ""); err != nil {
		return nil, err
	}

	t := &models.Testimonial{
		ID:        utils.NewID(),
		Name:      DisplayName(identity),
		Rating:    req.Rating,
		Comment:   comment,
		AuthorID:  identity.UID,
		CreatedAt: s.timestamp(),
	}
	if err := s.Repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create testimonial: %w", err)
	}

	s.logger.Info("TESTIMONIAL", fmt.Sprintf("Created testimonial %s by %s (%d stars)", t.ID, t.AuthorID, t.Rating))
	s.publish(models.TestimonialCreated, t.ID, t)
	return t, nil
}

// Update edits the caller's own testimonial.
func (s *Service) Update(ctx context.Context, identity *auth.Identity, id string, req models.TestimonialRequest) (*models.Testimonial, error) {
	comment, err := validate(req)
	if err != nil {
		return nil, err
	}

	t, err := s.owned(ctx, identity, id)
	if err != nil {
		return nil, err
	}

	if comment != t.Comment {
		if err := s.checkDuplicate(ctx, identity.UID, comment, t.ID); err != nil {
			return nil, err
		}
	}

	updatedAt := s.timestamp()
	t.Comment = comment
	t.Rating = req.Rating
	t.UpdatedAt = &updatedAt
	if err := s.Repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to update testimonial %s: %w", id, err)
	}

	s.logger.Info("TESTIMONIAL", fmt.Sprintf("Updated testimonial %s", t.ID))
	s.publish(models.TestimonialUpdated, t.ID, t)
	return t, nil
}

func (s *Service) Delete(ctx context.Context, identity *auth.Identity, id string) error {
	if _, err := s.owned(ctx, identity, id); err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete testimonial %s: %w", id, err)
	}

	s.logger.Info("TESTIMONIAL", fmt.Sprintf("Deleted testimonial %s", id))
	s.publish(models.TestimonialDeleted, id, nil)
	return nil
}

func (s *Service) owned(ctx context.Context, identity *auth.Identity, id string) (*models.Testimonial, error) {
	t, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.AuthorID != identity.UID {
		s.logger.LogSecurity("TESTIMONIAL_FORBIDDEN", fmt.Sprintf("user %s tried to modify %s owned by %s", identity.UID, id, t.AuthorID))
		return nil, ErrForbidden
	}
	return t, nil
}

// checkDuplicate fails when uid already has comment on a testimonial other than exceptID.
func (s *Service) checkDuplicate(ctx context.Context, uid, comment, exceptID string) error {
	existing, err := s.Repo.FindByAuthorAndComment(ctx, uid, comment)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check duplicate testimonial: %w", err)
	}
	if existing.ID != exceptID {
		return ErrDuplicate
	}
	return nil
}

func (s *Service) publish(kind, id string, t *models.Testimonial) {
	if s.Broker == nil {
		return
	}
	s.Broker.Publish(Topic, sse.Event{
		Name: kind,
		Data: models.TestimonialEvent{Type: kind, ID: id, Testimonial: t},
	})
}

// timestamp is truncated to milliseconds so both stores round-trip it unchanged.
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func validate(req models.TestimonialRequest) (string, error) {
	comment := strings.TrimSpace(req.Comment)
	if comment == "" || req.Rating < 1 || req.Rating > 5 {
		return "", ErrInvalidInput
	}
	return comment, nil
}

// DisplayName picks the author label: profile name, else email, else a generic one.
func DisplayName(identity *auth.Identity) string {
	if name := strings.TrimSpace(identity.Name); name != "" {
		return name
	}
	if identity.Email != "" {
		return identity.Email
	}
	return anonymousName
}

func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Testimonial is a rating-and-comment record shown on the landing page.
// Field names on the wire match the comentarios collection.
type Testimonial struct {
	bun.BaseModel `bun:"table:comentarios" bson:"-"`

	ID        string     `bun:"id,pk" json:"id" bson:"_id"`
	Name      string     `bun:"nome,notnull" json:"nome" bson:"nome"`
	Rating    int        `bun:"estrelas,notnull" json:"estrelas" bson:"estrelas"`
	Comment   string     `bun:"comentario,notnull" json:"comentario" bson:"comentario"`
	AuthorID  string     `bun:"uid,notnull" json:"uid" bson:"uid"`
	CreatedAt time.Time  `bun:"criado_em,notnull" json:"criadoEm" bson:"criadoEm"`
	UpdatedAt *time.Time `bun:"atualizado_em" json:"atualizadoEm,omitempty" bson:"atualizadoEm,omitempty"`
}

type TestimonialRequest struct {
	Comment string `json:"comentario"`
	Rating  int    `json:"estrelas"`
}

type TestimonialSummary struct {
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

const (
	TestimonialCreated = "created"
	TestimonialUpdated = "updated"
	TestimonialDeleted = "deleted"
)

type TestimonialEvent struct {
	Type        string       `json:"type"`
	ID          string       `json:"id"`
	Testimonial *Testimonial `json:"testimonial,omitempty"`
}

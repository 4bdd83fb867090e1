package models

import (
	"time"

	"github.com/uptrace/bun"
)

type PurchaseStatus string

const (
	PurchaseCompleted PurchaseStatus = "completed"
	PurchasePending   PurchaseStatus = "pending"
)

// SheetStatusPending is the status the spreadsheet starts every purchase row with.
const SheetStatusPending = "Pendente"

type Purchase struct {
	bun.BaseModel `bun:"table:purchases"`

	ID           string         `bun:"id,pk" json:"id"`
	SessionID    string         `bun:"session_id,unique,notnull" json:"session_id"`
	EventID      string         `bun:"event_id" json:"event_id"`
	Product      string         `bun:"product,notnull" json:"produto"`
	CustomerName string         `bun:"customer_name" json:"nome"`
	Email        string         `bun:"email" json:"email"`
	Phone        string         `bun:"phone" json:"telefone"`
	AmountTotal  int64          `bun:"amount_total" json:"amount_total"`
	Currency     string         `bun:"currency" json:"currency"`
	Status       PurchaseStatus `bun:"status,notnull" json:"status"`
	PurchasedAt  time.Time      `bun:"purchased_at,notnull" json:"purchased_at"`
	CreatedAt    time.Time      `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// SheetRecord is the row shape the spreadsheet automation script expects.
type SheetRecord struct {
	Nome       string `json:"nome"`
	Email      string `json:"email"`
	Telefone   string `json:"telefone"`
	Produto    string `json:"produto"`
	DataCompra string `json:"dataCompra"`
	Status     string `json:"status"`
}

type PurchaseEvent struct {
	Type      string    `json:"type"`
	EventID   string    `json:"event_id"`
	Purchase  *Purchase `json:"purchase"`
	Timestamp time.Time `json:"timestamp"`
}

type PurchaseStatusResponse struct {
	SessionID string         `json:"session_id"`
	Status    PurchaseStatus `json:"status"`
	Product   string         `json:"produto,omitempty"`
}

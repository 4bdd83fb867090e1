package models

import "time"

type PromoStatus struct {
	EndsAt           time.Time `json:"ends_at"`
	RemainingSeconds int64     `json:"remaining_seconds"`
	Days             int64     `json:"days"`
	Hours            int64     `json:"hours"`
	Minutes          int64     `json:"minutes"`
	Seconds          int64     `json:"seconds"`
	Expired          bool      `json:"expired"`
}

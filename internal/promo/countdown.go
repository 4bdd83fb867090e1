package promo

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"ms-landing/internal/models"
)

// Countdown tracks the promotional deadline. Without a fixed end the offer
// is rolling and always ends at the next local midnight.
type Countdown struct {
	endsAt   time.Time
	location *time.Location
}

func NewCountdown(endsAt, zone string) (*Countdown, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("invalid promo time zone %q: %w", zone, err)
	}

	c := &Countdown{location: loc}
	if endsAt != "" {
		c.endsAt, err = time.Parse(time.RFC3339, endsAt)
		if err != nil {
			return nil, fmt.Errorf("invalid PROMO_ENDS_AT %q: %w", endsAt, err)
		}
	}
	return c, nil
}

func (c *Countdown) Rolling() bool {
	return c.endsAt.IsZero()
}

func (c *Countdown) Deadline(now time.Time) time.Time {
	if !c.Rolling() {
		return c.endsAt
	}
	local := now.In(c.location)
	y, m, d := local.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, c.location)
}

// StatusAt splits the time left at now into days, hours, minutes and seconds.
func (c *Countdown) StatusAt(now time.Time) models.PromoStatus {
	deadline := c.Deadline(now)
	remaining := int64(deadline.Sub(now) / time.Second)
	if remaining < 0 {
		remaining = 0
	}

	return models.PromoStatus{
		EndsAt:           deadline,
		RemainingSeconds: remaining,
		Days:             remaining / 86400,
		Hours:            remaining % 86400 / 3600,
		Minutes:          remaining % 3600 / 60,
		Seconds:          remaining % 60,
		Expired:          remaining == 0 && !c.Rolling(),
	}
}

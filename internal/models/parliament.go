package models

import "time"

// Parliament mirrors a parliament from the abgeordnetenwatch API.
// FractionID references the single organization that represents the
// parliament's fraction group locally.
type Parliament struct {
	ID         int64     `json:"id"`
	AwID       int64     `json:"aw_id"`
	Name       string    `json:"name"`
	FractionID *int64    `json:"fraction"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Election mirrors an electoral term start from the abgeordnetenwatch
// API. EndDate is the election date itself.
type Election struct {
	ID           int64      `json:"id"`
	AwID         int64      `json:"aw_id"`
	Name         string     `json:"name"`
	ParliamentID int64      `json:"parliament"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// LegislativePeriod mirrors a legislature from the abgeordnetenwatch
// API. ElectionID links the election that started the period; it is
// resolved from the remote period's previous-period reference.
type LegislativePeriod struct {
	ID           int64      `json:"id"`
	AwID         int64      `json:"aw_id"`
	Name         string     `json:"name"`
	ParliamentID int64      `json:"parliament"`
	ElectionID   *int64     `json:"election"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

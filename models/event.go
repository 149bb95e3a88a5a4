package models

import "time"

// Event is the drinking game being played (beer pong, flip cup, ...).
// WinPoints/LossPoints feed the point ledger on match confirmation.
type Event struct {
	ID         int       `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	Rules      *string   `json:"rules,omitempty" db:"rules"`
	WinPoints  int       `json:"win_points" db:"win_points"`
	LossPoints int       `json:"loss_points" db:"loss_points"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

const (
	DefaultWinPoints  = 10
	DefaultLossPoints = 5
)

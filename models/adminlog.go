package models

import "time"

type AdminAction string

const (
	ActionResolveDispute AdminAction = "resolve_dispute"
	ActionOverrideMatch  AdminAction = "override_match"
)

// AdminActionLog is an immutable audit record of adjudicator actions.
// Detail carries a JSON payload; for score overrides it preserves the
// pre-override values for reversibility.
type AdminActionLog struct {
	ID         int         `json:"id" db:"id"`
	AdminID    int         `json:"admin_id" db:"admin_id"`
	Action     AdminAction `json:"action" db:"action"`
	TargetType string      `json:"target_type" db:"target_type"`
	TargetID   string      `json:"target_id" db:"target_id"`
	Reason     string      `json:"reason" db:"reason"`
	Detail     *string     `json:"detail,omitempty" db:"detail"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
}

package entity

import "time"

// AuditEntry is one append-only record of a committed transition.
// Entries are never mutated or deleted.
type AuditEntry struct {
	ID            int64     `json:"id"`
	ApplicationID string    `json:"application_id"`
	PriorStage    int       `json:"prior_stage"`
	NewStage      int       `json:"new_stage"`
	PriorSubState SubState  `json:"prior_sub_state"`
	NewSubState   SubState  `json:"new_sub_state"`
	Outcome       Outcome   `json:"outcome"`
	ActorID       string    `json:"actor_id"`
	ActorRole     Role      `json:"actor_role"`
	Action        Action    `json:"action"`
	Reason        string    `json:"reason,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

package entity

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// ApplicationType tags which workflow definition an application follows.
type ApplicationType string

const (
	TypeRegularPermit       ApplicationType = "regular_permit"
	TypeRotatorPermit       ApplicationType = "rotator_permit"
	TypeCompanyRegistration ApplicationType = "company_registration"
	TypeJVCompliance        ApplicationType = "jv_compliance"
	TypeLocalContent        ApplicationType = "local_content"
)

// String returns the string representation of the application type.
func (t ApplicationType) String() string {
	return string(t)
}

// Application represents one submission moving through its workflow.
// It is mutated exclusively by the transition engine; the Version field
// carries the optimistic-concurrency counter and increments on every
// committed mutation.
type Application struct {
	ID                string          `json:"id"`
	Type              ApplicationType `json:"type"`
	StageIndex        int             `json:"stage_index"`
	SubState          SubState        `json:"sub_state"`
	Outcome           Outcome         `json:"outcome"`
	SubmitterID       string          `json:"submitter_id"`
	AssigneeID        string          `json:"assignee_id"`
	PaymentConfirmed  bool            `json:"payment_confirmed"`
	DocumentsVerified bool            `json:"documents_verified"`
	StageEnteredAt    time.Time       `json:"stage_entered_at"`
	Version           int64           `json:"version"`
	SubmittedAt       time.Time       `json:"submitted_at"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// IsTerminal returns true once the application has a decided outcome.
// Terminal applications are read-only.
func (a *Application) IsTerminal() bool {
	return a.Outcome.IsTerminal()
}

// TimeInStage returns how long the application has sat in its current stage.
// Info round-trips do not reset the stage clock, so this is always measured
// from the original stage-entry timestamp.
func (a *Application) TimeInStage(now time.Time) time.Duration {
	return now.Sub(a.StageEnteredAt)
}

// Clone returns a shallow copy of the application. The engine snapshots
// pre-transition state with it so audit entries see both sides.
func (a *Application) Clone() *Application {
	cp := *a
	return &cp
}

// NewApplicationID generates a unique application identifier.
func NewApplicationID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return fmt.Sprintf("APP-%d-%s", time.Now().UnixNano(), hex.EncodeToString(b))
}

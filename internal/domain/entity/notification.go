package entity

import "time"

// Notification is an outbox record targeted at a role or a specific actor.
// Exactly one of TargetRole and TargetActorID is set. The read flag is owned
// by the UI collaborator; the workflow core only ever creates notifications.
type Notification struct {
	ID            int64     `json:"id"`
	ApplicationID string    `json:"application_id"`
	TargetRole    Role      `json:"target_role,omitempty"`
	TargetActorID string    `json:"target_actor_id,omitempty"`
	TemplateKey   string    `json:"template_key"`
	Read          bool      `json:"read"`
	CreatedAt     time.Time `json:"created_at"`
}

// ForRole builds a role-targeted notification.
func ForRole(appID string, role Role, templateKey string) *Notification {
	return &Notification{
		ApplicationID: appID,
		TargetRole:    role,
		TemplateKey:   templateKey,
		CreatedAt:     time.Now(),
	}
}

// ForActor builds an actor-targeted notification.
func ForActor(appID, actorID, templateKey string) *Notification {
	return &Notification{
		ApplicationID: appID,
		TargetActorID: actorID,
		TemplateKey:   templateKey,
		CreatedAt:     time.Now(),
	}
}

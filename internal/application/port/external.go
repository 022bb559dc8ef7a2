package port

import (
	"context"

	"github.com/petrocom/permit-workflow/internal/domain/entity"
)

// Actor is the authenticated caller of a transition.
type Actor struct {
	ID   string
	Role entity.Role
}

// IdentityProvider supplies the authenticated actor for a request context.
// The workflow core trusts this value; authentication mechanics are external.
type IdentityProvider interface {
	CurrentActor(ctx context.Context) (Actor, error)
}

// PaymentProvider exposes the external payment collaborator's view of
// whether fees for an application have been settled.
type PaymentProvider interface {
	IsConfirmed(ctx context.Context, applicationID string) (bool, error)
}

// DocumentVerifier exposes the external document collaborator's view of
// whether an application's documents have been verified.
type DocumentVerifier interface {
	IsVerified(ctx context.Context, applicationID string) (bool, error)
}

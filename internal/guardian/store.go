// Package guardian indexes guardian-child associations and guardian push
// addresses.
//
// The association is an explicit (guardian, child) pair index rather than
// mutual object references, so concurrent traversal needs no ownership
// gymnastics. Account CRUD lives in the accounts service; this engine reads
// links and owns only the push address field.
package guardian

import (
	"context"

	"custodia/pkg/domain"
)

// Store answers ownership queries and manages push addresses.
type Store interface {
	// GuardiansOf returns every guardian linked to the child. An empty
	// slice means the child has no linked guardians; not an error.
	GuardiansOf(ctx context.Context, childID domain.ChildID) ([]domain.GuardianID, error)

	// IsLinked reports whether the guardian supervises the child.
	IsLinked(ctx context.Context, guardianID domain.GuardianID, childID domain.ChildID) (bool, error)

	// PushAddress returns the guardian's registered push address.
	// ok is false when none is registered.
	PushAddress(ctx context.Context, guardianID domain.GuardianID) (string, bool, error)

	// SetPushAddress registers or replaces the guardian's push address.
	SetPushAddress(ctx context.Context, guardianID domain.GuardianID, addr string) error

	// ClearPushAddress removes the stored address only while it still
	// equals addr. The compare keeps a clear-on-invalid race from wiping
	// an address the guardian re-registered in the meantime.
	ClearPushAddress(ctx context.Context, guardianID domain.GuardianID, addr string) error
}

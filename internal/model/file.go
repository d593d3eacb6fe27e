package model

import (
	"fmt"
	"time"
)

// FileResource represents a file tracked by the backend.
type FileResource struct {
	ID          string
	Name        string
	Path        string
	SizeBytes   int64
	ContentType string
	CreatedAt   time.Time
}

// ShareLink is a time-limited grant to access a file without credentials.
type ShareLink struct {
	URL       string
	Token     string
	ExpiresAt time.Time
}

// PermissionAccess is the access level granted on a file.
type PermissionAccess string

const (
	PermissionAccessRead  PermissionAccess = "read"
	PermissionAccessWrite PermissionAccess = "write"
	PermissionAccessOwner PermissionAccess = "owner"
)

// PermissionUpdate grants or changes a principal's access to a file.
type PermissionUpdate struct {
	Principal string
	Access    PermissionAccess
}

// Validate validates the permission update.
func (p *PermissionUpdate) Validate() error {
	if p.Principal == "" {
		return fmt.Errorf("principal is required: %w", ErrNotValid)
	}

	switch p.Access {
	case PermissionAccessRead, PermissionAccessWrite, PermissionAccessOwner:
	default:
		return fmt.Errorf("unknown access level %q: %w", p.Access, ErrNotValid)
	}

	return nil
}

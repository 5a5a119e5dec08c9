package authz

import "errors"

// DenialKind separates the three ways an operation can be refused.
type DenialKind int

const (
	// DenialUnauthenticated means no valid identity was presented.
	DenialUnauthenticated DenialKind = iota + 1
	// DenialInsufficientRole means the actor lacks the required role.
	DenialInsufficientRole
	// DenialNotOwner means the actor has an acceptable role but is not the
	// manager-of-record or assignee the operation requires.
	DenialNotOwner
)

func (k DenialKind) String() string {
	switch k {
	case DenialUnauthenticated:
		return "unauthenticated"
	case DenialInsufficientRole:
		return "insufficient_role"
	case DenialNotOwner:
		return "not_owner"
	}
	return "unknown"
}

// Denial is returned by every authorization check that refuses an operation.
type Denial struct {
	Kind   DenialKind
	Reason string
}

func (d *Denial) Error() string {
	return d.Reason
}

func deny(kind DenialKind, reason string) *Denial {
	return &Denial{Kind: kind, Reason: reason}
}

var (
	ErrUnauthenticated    = deny(DenialUnauthenticated, "authentication required")
	ErrAdminRequired      = deny(DenialInsufficientRole, "requires admin role")
	ErrManagerRequired    = deny(DenialInsufficientRole, "requires manager or admin role")
	ErrNotProjectManager  = deny(DenialNotOwner, "only the project's manager or an admin may perform this action")
	ErrNotTaskAssignee    = deny(DenialNotOwner, "only the task's assignee may perform this action")
	ErrAssigneeStatusOnly = deny(DenialNotOwner, "the task's assignee may only update the status field")
	ErrTaskUpdateDenied   = deny(DenialNotOwner, "you do not have permission to update this task")
)

// Validation failures raised by guards. These are not denials: the actor is
// allowed to call the operation but the requested change is not acceptable.
var (
	ErrSelfDemotion       = errors.New("admins cannot remove the admin role from themselves")
	ErrIneligibleAssignee = errors.New("managers and admins cannot be assigned to tasks")
)

// IsDenial reports whether err is an authorization denial and returns it.
func IsDenial(err error) (*Denial, bool) {
	var d *Denial
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}

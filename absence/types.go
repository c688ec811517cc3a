/*
Package absence provides the core absence-tracking engine.

PURPOSE:
  This package contains the domain types and algorithms for tracking
  employee absence requests: the request lifecycle state machine, the
  role-based permission strategies, and the composable query
  specifications used to retrieve requests and resources.

KEY CONCEPTS IN THIS FILE (types.go):
  - Request:  An absence request with a lifecycle status
  - Resource: A person (employee/manager/approver/admin)
  - Group:    A named partition of resources (team)
  - Status:   Pending -> Approved | Rejected | Cancelled

DESIGN PRINCIPLES:
  1. Type Safety: Strong typing for IDs prevents mixing request/resource IDs
  2. Precision: Uses decimal.Decimal for day counts (half-day support)
  3. Auditability: Every transition records who decided and when
  4. Immutability after decision: A non-Pending request never mutates again

SEE ALSO:
  - lifecycle.go:  State machine guards and the AbsenceService
  - permission.go: Role strategies deciding who may do what
  - spec.go:       Query specification composition
*/
package absence

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type RequestID string
type ResourceID string
type GroupID string

// =============================================================================
// STATUS - Request lifecycle states
// =============================================================================

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// AllStatuses returns every lifecycle status in display order.
func AllStatuses() []Status {
	return []Status{StatusPending, StatusApproved, StatusRejected, StatusCancelled}
}

// ParseStatus converts a wire label into a Status.
// Returns false for unknown labels.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return Status(s), true
	}
	return "", false
}

// Terminal reports whether the status admits no further transitions.
// Pending is the only non-terminal state.
func (s Status) Terminal() bool { return s != StatusPending }

// =============================================================================
// REQUEST - A single absence request
// =============================================================================

// Request represents one employee's request for time off over [Start, End).
// End is an exclusive upper bound: a one-day absence on March 10 has
// Start=Mar 10 00:00 and End=Mar 11 00:00.
type Request struct {
	ID         RequestID
	EmployeeID ResourceID

	Start time.Time
	End   time.Time // exclusive

	Reason string
	Status Status

	// When the request was submitted. Drives the FIFO review queue.
	RequestedDate time.Time

	// Decision tracking, set by Approve/Reject.
	ApproverID       *ResourceID
	ApprovedDate     *time.Time
	ApprovalComments *string

	// Version supports optimistic concurrency: bumped on every mutation,
	// checked by the store on update.
	Version int
}

// Days returns the requested span in days at half-day granularity.
func (r *Request) Days() decimal.Decimal {
	hours := decimal.NewFromFloat(r.End.Sub(r.Start).Hours())
	days := hours.Div(decimal.NewFromInt(24))
	// Round to the nearest half day.
	return days.Mul(decimal.NewFromInt(2)).Round(0).Div(decimal.NewFromInt(2))
}

// Overlaps reports whether the request intersects the half-open window
// [from, to). A request ending exactly at `from`, or starting exactly
// at `to`, does not overlap.
func (r *Request) Overlaps(from, to time.Time) bool {
	return r.Start.Before(to) && r.End.After(from)
}

// =============================================================================
// RESOURCE - A person tracked by the system
// =============================================================================

// Resource is an employee/manager/approver/admin, and historically the
// calendar "row" an absence renders against.
type Resource struct {
	ID             ResourceID
	Name           string
	Email          string
	EmployeeNumber string

	// Role is a free-form label (Employee/Manager/Approver/Admin).
	// Authorization decisions come from UserContext claims, not from
	// this display field.
	Role       string
	IsApprover bool
	IsActive   bool

	ManagerID ResourceID
	GroupID   GroupID

	// Directory correlation fields. The directory sync itself lives
	// outside this module.
	DirectoryID string
	SyncedAt    *time.Time
}

// =============================================================================
// GROUP - A named partition of resources
// =============================================================================

type Group struct {
	ID   GroupID
	Name string
}

// =============================================================================
// DATE HELPERS
// =============================================================================

// DateOnly truncates a timestamp to midnight UTC of the same calendar day.
// Creation guards and cell eligibility compare dates, not instants.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// BeforeDate reports whether a falls on an earlier calendar day than b.
func BeforeDate(a, b time.Time) bool {
	return DateOnly(a).Before(DateOnly(b))
}

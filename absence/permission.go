/*
permission.go - Role-based permission strategies

PURPOSE:
  Maps a caller's role claims to a capability object answering "can this
  user create/edit/approve/delete X". The strategy is resolved ONCE at
  construction (closed set of variants) rather than re-comparing role
  strings on every call.

VARIANT SELECTION (first match wins, case-insensitive):
  1. Roles contain "Admin"                          -> AdminStrategy
  2. IsApprover, or roles contain Manager/Approver  -> ManagerStrategy
  3. Otherwise                                      -> EmployeeStrategy

  A nil UserContext resolves to an EmployeeStrategy with zero self
  identity: only read-only actions survive downstream.

DECISION TABLE:
  Capability        Admin              Manager/Approver            Employee
  CanCreateFor      always             always                      target == self
  CanEdit           always             owner && Pending            owner && Pending
  CanApprove        Pending            Pending                     never
  CanDelete         Pending|Cancelled  owner && Pending|Cancelled  owner && Pending|Cancelled
  VisibleFilters    all four           Pending,Approved            all four
  DefaultFilters    all four           Pending,Approved            Pending

IDENTITY NORMALIZATION:
  Callers supply ids as strings or numbers (JSON claims decode numbers
  as float64). All comparisons go through NormalizeID, so numeric 1 and
  string "1" compare equal. Empty/absent ids equal each other but never
  a concrete id.

SEE ALSO:
  - menu.go: Composes these decisions into context-menu actions
  - lifecycle.go: Re-checks the same capabilities before mutations
*/
package absence

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// USER CONTEXT - Claims supplied by the identity layer
// =============================================================================

// UserContext carries the caller's identity claims. ID may be a string
// or a number depending on the upstream identity provider.
type UserContext struct {
	ID         any
	Roles      []string
	IsApprover bool
}

// NormalizeID converts any id representation into its canonical string
// form. nil and empty strings normalize to "" (the "no identity" value).
func NormalizeID(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case ResourceID:
		return strings.TrimSpace(string(x))
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return fmt.Sprint(x)
	}
}

func sameID(a, b string) bool { return a == b }

// =============================================================================
// STRATEGY - Capability object for one caller
// =============================================================================

// CellDisabled is the presentation hint for calendar cells the caller
// may not select (past dates, resources outside their scope).
const CellDisabled = "disabled-cell"

// Strategy answers every authorization question for one caller.
// Construct via NewStrategy; the variant never changes afterwards.
type Strategy interface {
	CanCreateFor(target ResourceID) bool
	CanEdit(r *Request) bool
	// CanApprove gates both Approve and Reject: they require the same
	// authority.
	CanApprove(r *Request) bool
	CanDelete(r *Request) bool

	// VisibleFilters lists the status filters this caller may toggle.
	VisibleFilters() []Status
	// DefaultFilters lists the status filters selected on first load.
	DefaultFilters() []Status

	// CellClass returns CellDisabled when the calendar cell at cellDate
	// for the target resource is not selectable by this caller, and ""
	// otherwise.
	CellClass(cellDate, today time.Time, target ResourceID) string
}

// NewStrategy resolves the caller's claims to a strategy variant.
// A nil context yields a zero-identity employee strategy.
func NewStrategy(user *UserContext) Strategy {
	if user == nil {
		return employeeStrategy{}
	}
	self := NormalizeID(user.ID)
	if hasRole(user.Roles, "admin") {
		return adminStrategy{self: self}
	}
	if user.IsApprover || hasRole(user.Roles, "manager") || hasRole(user.Roles, "approver") {
		return managerStrategy{self: self}
	}
	return employeeStrategy{self: self}
}

func hasRole(roles []string, want string) bool {
	for _, r := range roles {
		if strings.EqualFold(strings.TrimSpace(r), want) {
			return true
		}
	}
	return false
}

// deletableFrom holds for every variant: delete is offered only while a
// request is Pending or already Cancelled.
func deletableFrom(s Status) bool {
	return s == StatusPending || s == StatusCancelled
}

// =============================================================================
// ADMIN STRATEGY
// =============================================================================

type adminStrategy struct {
	self string
}

func (a adminStrategy) CanCreateFor(ResourceID) bool { return true }
func (a adminStrategy) CanEdit(*Request) bool        { return true }
func (a adminStrategy) CanApprove(r *Request) bool   { return r.Status == StatusPending }
func (a adminStrategy) CanDelete(r *Request) bool    { return deletableFrom(r.Status) }

func (a adminStrategy) VisibleFilters() []Status { return AllStatuses() }
func (a adminStrategy) DefaultFilters() []Status { return AllStatuses() }

func (a adminStrategy) CellClass(cellDate, today time.Time, _ ResourceID) string {
	if BeforeDate(cellDate, today) {
		return CellDisabled
	}
	return ""
}

// =============================================================================
// MANAGER STRATEGY - Managers and approvers
// =============================================================================

type managerStrategy struct {
	self string
}

func (m managerStrategy) CanCreateFor(ResourceID) bool { return true }

func (m managerStrategy) CanEdit(r *Request) bool {
	return sameID(NormalizeID(r.EmployeeID), m.self) && r.Status == StatusPending
}

func (m managerStrategy) CanApprove(r *Request) bool { return r.Status == StatusPending }

func (m managerStrategy) CanDelete(r *Request) bool {
	return sameID(NormalizeID(r.EmployeeID), m.self) && deletableFrom(r.Status)
}

func (m managerStrategy) VisibleFilters() []Status {
	return []Status{StatusPending, StatusApproved}
}

func (m managerStrategy) DefaultFilters() []Status {
	return []Status{StatusPending, StatusApproved}
}

func (m managerStrategy) CellClass(cellDate, today time.Time, _ ResourceID) string {
	if BeforeDate(cellDate, today) {
		return CellDisabled
	}
	return ""
}

// =============================================================================
// EMPLOYEE STRATEGY - Default, and the zero-identity fallback
// =============================================================================

type employeeStrategy struct {
	self string
}

func (e employeeStrategy) CanCreateFor(target ResourceID) bool {
	return sameID(NormalizeID(target), e.self)
}

func (e employeeStrategy) CanEdit(r *Request) bool {
	return sameID(NormalizeID(r.EmployeeID), e.self) && r.Status == StatusPending
}

func (e employeeStrategy) CanApprove(*Request) bool { return false }

func (e employeeStrategy) CanDelete(r *Request) bool {
	return sameID(NormalizeID(r.EmployeeID), e.self) && deletableFrom(r.Status)
}

func (e employeeStrategy) VisibleFilters() []Status { return AllStatuses() }

func (e employeeStrategy) DefaultFilters() []Status {
	return []Status{StatusPending}
}

func (e employeeStrategy) CellClass(cellDate, today time.Time, target ResourceID) string {
	if BeforeDate(cellDate, today) || !e.CanCreateFor(target) {
		return CellDisabled
	}
	return ""
}

/*
spec.go - Composable query specifications

PURPOSE:
  Builds a single query over a collection (requests or resources) from
  independent, optional filter dimensions, so callers never hand-write
  combined boolean expressions. A specification holds a predicate,
  related-entity inclusion hints, at most one ordering key, optional
  paging, and a tracking flag for fetch-for-update reads.

COMPOSITION CONTRACT:
  - Predicates combine via AND only. Composition is associative and
    order-independent; the system never needs OR.
  - Apply order: filter -> order -> skip -> take. Ascending wins if
    both orderings were somehow set (the presets never set both).

NAMED PRESETS:
  DateRangeRequests  overlap with a half-open window
  StatusRequests     status membership; empty set means match ALL
  EmployeeRequests   exact employee match
  FilteredRequests   employee? AND range AND statuses?
  PendingQueue       Pending only, oldest RequestedDate first (FIFO)
  RequestByID        single-record fetch-for-update

SEE ALSO:
  - store.go: Stores return full slices; callers Apply specifications
*/
package absence

import (
	"sort"
	"time"
)

// =============================================================================
// SPECIFICATION - Generic over the entity type
// =============================================================================

type Predicate[T any] func(T) bool

// LessFunc orders two entities; used with sort.SliceStable.
type LessFunc[T any] func(a, b T) bool

// Specification is a declarative description of one query.
type Specification[T any] struct {
	criteria  Predicate[T]
	includes  []string
	orderAsc  LessFunc[T]
	orderDesc LessFunc[T]

	skip, take       int
	hasSkip, hasTake bool

	tracking bool
}

func NewSpecification[T any]() *Specification[T] {
	return &Specification[T]{}
}

// And combines p with the existing criteria via logical AND. If no
// criteria exists yet, p becomes the criteria.
func (s *Specification[T]) And(p Predicate[T]) *Specification[T] {
	if s.criteria == nil {
		s.criteria = p
		return s
	}
	prev := s.criteria
	s.criteria = func(v T) bool { return prev(v) && p(v) }
	return s
}

// Include records a related-entity fetch hint (e.g. "Employee").
// In-memory application ignores it; relational stores may use it to
// join eagerly.
func (s *Specification[T]) Include(relation string) *Specification[T] {
	s.includes = append(s.includes, relation)
	return s
}

// OrderBy sets ascending ordering. At most one ordering applies.
func (s *Specification[T]) OrderBy(less LessFunc[T]) *Specification[T] {
	s.orderAsc = less
	return s
}

// OrderByDescending sets descending ordering.
func (s *Specification[T]) OrderByDescending(less LessFunc[T]) *Specification[T] {
	s.orderDesc = less
	return s
}

// Page sets skip/take paging, applied after filtering and ordering.
func (s *Specification[T]) Page(skip, take int) *Specification[T] {
	s.skip, s.hasSkip = skip, true
	s.take, s.hasTake = take, true
	return s
}

// ForUpdate marks the read as a fetch-for-update (tracking) read.
func (s *Specification[T]) ForUpdate() *Specification[T] {
	s.tracking = true
	return s
}

func (s *Specification[T]) Criteria() Predicate[T] { return s.criteria }
func (s *Specification[T]) Includes() []string     { return s.includes }
func (s *Specification[T]) Tracking() bool         { return s.tracking }

// =============================================================================
// APPLICATION - Evaluate a specification against a slice
// =============================================================================

// Apply evaluates spec against items: filter, then order, then page.
// The input slice is never mutated.
func Apply[T any](items []T, spec *Specification[T]) []T {
	if spec == nil {
		out := make([]T, len(items))
		copy(out, items)
		return out
	}

	var out []T
	if spec.criteria == nil {
		out = make([]T, len(items))
		copy(out, items)
	} else {
		out = make([]T, 0, len(items))
		for _, v := range items {
			if spec.criteria(v) {
				out = append(out, v)
			}
		}
	}

	switch {
	case spec.orderAsc != nil:
		sort.SliceStable(out, func(i, j int) bool { return spec.orderAsc(out[i], out[j]) })
	case spec.orderDesc != nil:
		sort.SliceStable(out, func(i, j int) bool { return spec.orderDesc(out[j], out[i]) })
	}

	if spec.hasSkip {
		if spec.skip >= len(out) {
			out = out[:0]
		} else if spec.skip > 0 {
			out = out[spec.skip:]
		}
	}
	if spec.hasTake && spec.take < len(out) {
		out = out[:spec.take]
	}
	return out
}

// =============================================================================
// REQUEST PRESETS
// =============================================================================

// DateRangeRequests matches requests overlapping the half-open window
// [from, to). A request ending exactly at `from`, or starting exactly
// at `to`, does not match.
func DateRangeRequests(from, to time.Time) *Specification[Request] {
	return NewSpecification[Request]().And(func(r Request) bool {
		return r.Overlaps(from, to)
	})
}

// StatusRequests matches requests whose status is in the given set.
// An empty or nil set matches ALL statuses (no filtering) - callers
// rely on this.
func StatusRequests(statuses []Status) *Specification[Request] {
	s := NewSpecification[Request]()
	if len(statuses) == 0 {
		return s
	}
	set := make(map[Status]bool, len(statuses))
	for _, st := range statuses {
		set[st] = true
	}
	return s.And(func(r Request) bool { return set[r.Status] })
}

// EmployeeRequests matches requests owned by the given employee.
func EmployeeRequests(id ResourceID) *Specification[Request] {
	want := NormalizeID(id)
	return NewSpecification[Request]().And(func(r Request) bool {
		return sameID(NormalizeID(r.EmployeeID), want)
	})
}

// FilteredRequests is the calendar query: employee (when given) AND
// date range AND status set (when non-empty), with employee and
// approver rows fetched alongside.
func FilteredRequests(employeeID ResourceID, from, to time.Time, statuses []Status) *Specification[Request] {
	s := NewSpecification[Request]().
		Include("Employee").
		Include("Approver")
	if employeeID != "" {
		want := NormalizeID(employeeID)
		s.And(func(r Request) bool { return sameID(NormalizeID(r.EmployeeID), want) })
	}
	s.And(func(r Request) bool { return r.Overlaps(from, to) })
	if len(statuses) > 0 {
		set := make(map[Status]bool, len(statuses))
		for _, st := range statuses {
			set[st] = true
		}
		s.And(func(r Request) bool { return set[r.Status] })
	}
	return s
}

// PendingQueue returns the approver review queue: Pending requests,
// oldest RequestedDate first. The FIFO ordering is load-bearing.
func PendingQueue() *Specification[Request] {
	return NewSpecification[Request]().
		Include("Employee").
		And(func(r Request) bool { return r.Status == StatusPending }).
		OrderBy(func(a, b Request) bool { return a.RequestedDate.Before(b.RequestedDate) })
}

// RequestByID fetches a single request for mutation.
func RequestByID(id RequestID) *Specification[Request] {
	return NewSpecification[Request]().
		And(func(r Request) bool { return r.ID == id }).
		ForUpdate()
}

// =============================================================================
// RESOURCE PRESETS
// =============================================================================

// ActiveResources matches active resources ordered by name.
func ActiveResources() *Specification[Resource] {
	return NewSpecification[Resource]().
		And(func(r Resource) bool { return r.IsActive }).
		OrderBy(func(a, b Resource) bool { return a.Name < b.Name })
}

// GroupResources matches resources in the given group, ordered by name.
func GroupResources(id GroupID) *Specification[Resource] {
	return NewSpecification[Resource]().
		Include("Group").
		And(func(r Resource) bool { return r.GroupID == id }).
		OrderBy(func(a, b Resource) bool { return a.Name < b.Name })
}

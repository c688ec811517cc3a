/*
spec_test.go - Specification composition and application tests

The specification layer is the read-side contract: date-range overlap
semantics, empty-status-means-all, AND composition order independence,
and the FIFO pending queue are all pinned here.
*/
package absence_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/absence-engine/absence"
)

// =============================================================================
// FIXTURES
// =============================================================================

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func request(id, owner string, start, end time.Time, status absence.Status, requested time.Time) absence.Request {
	return absence.Request{
		ID:            absence.RequestID(id),
		EmployeeID:    absence.ResourceID(owner),
		Start:         start,
		End:           end,
		Status:        status,
		RequestedDate: requested,
		Version:       1,
	}
}

func ids(rows []absence.Request) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = string(r.ID)
	}
	return out
}

// =============================================================================
// DATE-RANGE OVERLAP
// =============================================================================

func TestDateRange_OverlapSemantics(t *testing.T) {
	// Window: [Jan 1, Jan 31)
	window := absence.DateRangeRequests(day(2026, time.January, 1), day(2026, time.January, 31))

	rows := []absence.Request{
		// Inside the window: matches.
		request("inside", "e", day(2026, time.January, 10), day(2026, time.January, 12), absence.StatusPending, day(2026, time.January, 1)),
		// Entirely outside: no match.
		request("outside", "e", day(2026, time.February, 10), day(2026, time.February, 12), absence.StatusPending, day(2026, time.January, 1)),
		// Straddles the window start: matches.
		request("straddle", "e", day(2025, time.December, 28), day(2026, time.January, 3), absence.StatusPending, day(2026, time.January, 1)),
		// Ends exactly at window start: the bound is exclusive, no match.
		request("ends-at-start", "e", day(2025, time.December, 28), day(2026, time.January, 1), absence.StatusPending, day(2026, time.January, 1)),
		// Starts exactly at window end: no match.
		request("starts-at-end", "e", day(2026, time.January, 31), day(2026, time.February, 2), absence.StatusPending, day(2026, time.January, 1)),
	}

	got := absence.Apply(rows, window)
	assert.ElementsMatch(t, []string{"inside", "straddle"}, ids(got))
}

// =============================================================================
// STATUS SET
// =============================================================================

func TestStatusSet_EmptyMeansAll(t *testing.T) {
	rows := []absence.Request{
		request("p", "e", day(2026, time.January, 1), day(2026, time.January, 2), absence.StatusPending, day(2026, time.January, 1)),
		request("a", "e", day(2026, time.January, 1), day(2026, time.January, 2), absence.StatusApproved, day(2026, time.January, 1)),
		request("r", "e", day(2026, time.January, 1), day(2026, time.January, 2), absence.StatusRejected, day(2026, time.January, 1)),
		request("c", "e", day(2026, time.January, 1), day(2026, time.January, 2), absence.StatusCancelled, day(2026, time.January, 1)),
	}

	// Empty set: every status passes, filtering is a no-op.
	assert.Len(t, absence.Apply(rows, absence.StatusRequests(nil)), 4)
	assert.Len(t, absence.Apply(rows, absence.StatusRequests([]absence.Status{})), 4)

	// Singleton set: only that status.
	got := absence.Apply(rows, absence.StatusRequests([]absence.Status{absence.StatusPending}))
	assert.Equal(t, []string{"p"}, ids(got))
}

// =============================================================================
// COMPOSITION
// =============================================================================

func TestFiltered_CombinesAllDimensions(t *testing.T) {
	jan := day(2026, time.January, 1)
	rows := []absence.Request{
		request("match", "emp-1", day(2026, time.January, 10), day(2026, time.January, 12), absence.StatusPending, jan),
		request("wrong-owner", "emp-2", day(2026, time.January, 10), day(2026, time.January, 12), absence.StatusPending, jan),
		request("wrong-status", "emp-1", day(2026, time.January, 10), day(2026, time.January, 12), absence.StatusRejected, jan),
		request("wrong-window", "emp-1", day(2026, time.March, 10), day(2026, time.March, 12), absence.StatusPending, jan),
	}

	spec := absence.FilteredRequests("emp-1", jan, day(2026, time.January, 31),
		[]absence.Status{absence.StatusPending, absence.StatusApproved})
	got := absence.Apply(rows, spec)
	assert.Equal(t, []string{"match"}, ids(got))

	// The composite carries eager-load hints for its related entities.
	assert.Contains(t, spec.Includes(), "Employee")
	assert.Contains(t, spec.Includes(), "Approver")
}

func TestAnd_OrderIndependent(t *testing.T) {
	jan := day(2026, time.January, 1)
	rows := []absence.Request{
		request("a", "emp-1", day(2026, time.January, 10), day(2026, time.January, 12), absence.StatusPending, jan),
		request("b", "emp-2", day(2026, time.January, 10), day(2026, time.January, 12), absence.StatusPending, jan),
		request("c", "emp-1", day(2026, time.January, 10), day(2026, time.January, 12), absence.StatusApproved, jan),
	}

	owner := func(r absence.Request) bool { return r.EmployeeID == "emp-1" }
	pending := func(r absence.Request) bool { return r.Status == absence.StatusPending }

	oneWay := absence.NewSpecification[absence.Request]().And(owner).And(pending)
	otherWay := absence.NewSpecification[absence.Request]().And(pending).And(owner)

	assert.Equal(t, ids(absence.Apply(rows, oneWay)), ids(absence.Apply(rows, otherWay)))
	assert.Equal(t, []string{"a"}, ids(absence.Apply(rows, oneWay)))
}

// =============================================================================
// PENDING QUEUE
// =============================================================================

func TestPendingQueue_OldestFirst(t *testing.T) {
	// GIVEN: Three Pending requests submitted at t1 < t2 < t3
	// THEN:  The queue returns them t1, t2, t3 - a FIFO for approvers
	t1 := day(2026, time.January, 5)
	t2 := day(2026, time.January, 6)
	t3 := day(2026, time.January, 7)

	rows := []absence.Request{
		request("second", "e", day(2026, time.February, 1), day(2026, time.February, 2), absence.StatusPending, t2),
		request("third", "e", day(2026, time.February, 1), day(2026, time.February, 2), absence.StatusPending, t3),
		request("first", "e", day(2026, time.February, 1), day(2026, time.February, 2), absence.StatusPending, t1),
		request("decided", "e", day(2026, time.February, 1), day(2026, time.February, 2), absence.StatusApproved, t1),
	}

	got := absence.Apply(rows, absence.PendingQueue())
	require.Equal(t, []string{"first", "second", "third"}, ids(got))
}

// =============================================================================
// ORDERING AND PAGING
// =============================================================================

func TestApply_FilterOrderPage(t *testing.T) {
	jan := day(2026, time.January, 1)
	rows := []absence.Request{
		request("d", "e", day(2026, time.January, 4), day(2026, time.January, 5), absence.StatusPending, jan.AddDate(0, 0, 3)),
		request("a", "e", day(2026, time.January, 1), day(2026, time.January, 2), absence.StatusPending, jan),
		request("c", "e", day(2026, time.January, 3), day(2026, time.January, 4), absence.StatusPending, jan.AddDate(0, 0, 2)),
		request("b", "e", day(2026, time.January, 2), day(2026, time.January, 3), absence.StatusPending, jan.AddDate(0, 0, 1)),
	}

	spec := absence.NewSpecification[absence.Request]().
		OrderBy(func(x, y absence.Request) bool { return x.RequestedDate.Before(y.RequestedDate) }).
		Page(1, 2)

	got := absence.Apply(rows, spec)
	assert.Equal(t, []string{"b", "c"}, ids(got))
}

func TestApply_DescendingOrder(t *testing.T) {
	jan := day(2026, time.January, 1)
	rows := []absence.Request{
		request("a", "e", day(2026, time.January, 1), day(2026, time.January, 2), absence.StatusPending, jan),
		request("b", "e", day(2026, time.January, 2), day(2026, time.January, 3), absence.StatusPending, jan.AddDate(0, 0, 1)),
	}

	spec := absence.NewSpecification[absence.Request]().
		OrderByDescending(func(x, y absence.Request) bool { return x.RequestedDate.Before(y.RequestedDate) })

	assert.Equal(t, []string{"b", "a"}, ids(absence.Apply(rows, spec)))
}

func TestApply_SkipPastEnd(t *testing.T) {
	rows := []absence.Request{
		request("a", "e", day(2026, time.January, 1), day(2026, time.January, 2), absence.StatusPending, day(2026, time.January, 1)),
	}
	spec := absence.NewSpecification[absence.Request]().Page(5, 10)
	assert.Empty(t, absence.Apply(rows, spec))
}

func TestApply_NeverMutatesInput(t *testing.T) {
	jan := day(2026, time.January, 1)
	rows := []absence.Request{
		request("b", "e", day(2026, time.January, 2), day(2026, time.January, 3), absence.StatusPending, jan.AddDate(0, 0, 1)),
		request("a", "e", day(2026, time.January, 1), day(2026, time.January, 2), absence.StatusPending, jan),
	}

	spec := absence.NewSpecification[absence.Request]().
		OrderBy(func(x, y absence.Request) bool { return x.RequestedDate.Before(y.RequestedDate) })
	_ = absence.Apply(rows, spec)

	assert.Equal(t, []string{"b", "a"}, ids(rows), "input order preserved")
}

// =============================================================================
// BY-ID
// =============================================================================

func TestRequestByID_TracksForUpdate(t *testing.T) {
	jan := day(2026, time.January, 1)
	rows := []absence.Request{
		request("one", "e", jan, jan.AddDate(0, 0, 1), absence.StatusPending, jan),
		request("two", "e", jan, jan.AddDate(0, 0, 1), absence.StatusPending, jan),
	}

	spec := absence.RequestByID("two")
	got := absence.Apply(rows, spec)
	require.Len(t, got, 1)
	assert.Equal(t, absence.RequestID("two"), got[0].ID)
	assert.True(t, spec.Tracking(), "single-record fetch is a tracking read")
}

/*
lifecycle_test.go - State machine tests for the request lifecycle

Each transition is tested for its guard (current status must be
exactly Pending), its side effects (decision tracking), and its
failure taxonomy (NotFound vs InvalidState vs Unauthorized).
*/
package absence_test

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/absence-engine/absence"
	memstore "github.com/warp/absence-engine/absence/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var testNow = time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*absence.Service, *memstore.Memory) {
	t.Helper()
	store := memstore.NewMemory()
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	svc := absence.NewService(store, log)
	svc.Now = func() time.Time { return testNow }

	ctx := context.Background()
	require.NoError(t, store.SaveGroup(ctx, absence.Group{ID: "eng", Name: "Engineering"}))
	for _, r := range []absence.Resource{
		{ID: "emp-1", Name: "Carla", Email: "carla@example.com", IsActive: true, GroupID: "eng"},
		{ID: "emp-2", Name: "Derek", Email: "derek@example.com", IsActive: true, GroupID: "eng"},
		{ID: "mgr-1", Name: "Bruno", Email: "bruno@example.com", IsActive: true, IsApprover: true, GroupID: "eng"},
		{ID: "gone", Name: "Former", Email: "former@example.com", IsActive: false, GroupID: "eng"},
	} {
		require.NoError(t, store.SaveResource(ctx, r))
	}
	return svc, store
}

func mustCreate(t *testing.T, svc *absence.Service, owner string) *absence.Request {
	t.Helper()
	req, err := svc.Create(context.Background(), employeeUser(owner),
		absence.ResourceID(owner), testNow.AddDate(0, 0, 7), testNow.AddDate(0, 0, 9), "Family vacation")
	require.NoError(t, err)
	return req
}

// =============================================================================
// CREATE
// =============================================================================

func TestCreate_StartsPending(t *testing.T) {
	svc, _ := newTestService(t)

	req := mustCreate(t, svc, "emp-1")

	assert.Equal(t, absence.StatusPending, req.Status)
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, testNow, req.RequestedDate)
	assert.Equal(t, 1, req.Version)
	assert.Nil(t, req.ApproverID)
}

func TestCreate_ValidationGuards(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	user := employeeUser("emp-1")
	start := testNow.AddDate(0, 0, 7)

	var ve *absence.ValidationError

	// end must be strictly after start
	_, err := svc.Create(ctx, user, "emp-1", start, start, "valid reason")
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "end", ve.Field)

	// start must not be in the past (date-only)
	_, err = svc.Create(ctx, user, "emp-1", testNow.AddDate(0, 0, -1), start, "valid reason")
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "start", ve.Field)

	// reason 3-500 characters
	_, err = svc.Create(ctx, user, "emp-1", start, start.AddDate(0, 0, 1), "ab")
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "reason", ve.Field)
}

func TestCreate_SameDayStartAllowed(t *testing.T) {
	// The past-date guard is date-only: a start earlier today passes.
	svc, _ := newTestService(t)

	earlierToday := time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)
	_, err := svc.Create(context.Background(), employeeUser("emp-1"),
		"emp-1", earlierToday, earlierToday.AddDate(0, 0, 1), "Half day off")
	assert.NoError(t, err)
}

func TestCreate_EmployeeCannotCreateForOthers(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), employeeUser("emp-1"),
		"emp-2", testNow.AddDate(0, 0, 1), testNow.AddDate(0, 0, 2), "On their behalf")
	assert.ErrorIs(t, err, absence.ErrUnauthorized)
}

func TestCreate_ManagerCreatesOnBehalf(t *testing.T) {
	svc, _ := newTestService(t)

	req, err := svc.Create(context.Background(), managerUser("mgr-1"),
		"emp-1", testNow.AddDate(0, 0, 1), testNow.AddDate(0, 0, 2), "Sick leave logged by manager")
	require.NoError(t, err)
	assert.Equal(t, absence.ResourceID("emp-1"), req.EmployeeID)
}

func TestCreate_UnknownOrInactiveEmployee(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	start, end := testNow.AddDate(0, 0, 1), testNow.AddDate(0, 0, 2)

	_, err := svc.Create(ctx, adminUser("a"), "nobody", start, end, "valid reason")
	assert.ErrorIs(t, err, absence.ErrNotFound)

	var ve *absence.ValidationError
	_, err = svc.Create(ctx, adminUser("a"), "gone", start, end, "valid reason")
	assert.ErrorAs(t, err, &ve)
}

// =============================================================================
// APPROVE / REJECT
// =============================================================================

func TestApprove_RecordsDecision(t *testing.T) {
	svc, _ := newTestService(t)
	req := mustCreate(t, svc, "emp-1")

	approved, err := svc.Approve(context.Background(), managerUser("mgr-1"), req.ID, "Enjoy")
	require.NoError(t, err)

	assert.Equal(t, absence.StatusApproved, approved.Status)
	require.NotNil(t, approved.ApproverID)
	assert.Equal(t, absence.ResourceID("mgr-1"), *approved.ApproverID)
	require.NotNil(t, approved.ApprovedDate)
	assert.Equal(t, testNow, *approved.ApprovedDate)
	require.NotNil(t, approved.ApprovalComments)
	assert.Equal(t, "Enjoy", *approved.ApprovalComments)
	assert.Equal(t, 2, approved.Version)
}

func TestApprove_CommentIsOptional(t *testing.T) {
	svc, _ := newTestService(t)
	req := mustCreate(t, svc, "emp-1")

	approved, err := svc.Approve(context.Background(), managerUser("mgr-1"), req.ID, "")
	require.NoError(t, err)
	assert.Nil(t, approved.ApprovalComments)
}

func TestApprove_OnlyFromPending(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	req := mustCreate(t, svc, "emp-1")

	_, err := svc.Approve(ctx, managerUser("mgr-1"), req.ID, "")
	require.NoError(t, err)

	// Second approval: row exists but is no longer Pending.
	_, err = svc.Approve(ctx, managerUser("mgr-1"), req.ID, "")
	assert.ErrorIs(t, err, absence.ErrInvalidState)
	assert.NotErrorIs(t, err, absence.ErrNotFound,
		"wrong state is reported distinctly from a missing row")
}

func TestApprove_EmployeeForbidden(t *testing.T) {
	svc, _ := newTestService(t)
	req := mustCreate(t, svc, "emp-1")

	_, err := svc.Approve(context.Background(), employeeUser("emp-1"), req.ID, "")
	assert.ErrorIs(t, err, absence.ErrUnauthorized)
}

func TestApprove_MissingRequest(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Approve(context.Background(), managerUser("mgr-1"), "no-such-id", "")
	assert.ErrorIs(t, err, absence.ErrNotFound)
}

func TestReject_RequiresReason(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	req := mustCreate(t, svc, "emp-1")

	var ve *absence.ValidationError
	_, err := svc.Reject(ctx, managerUser("mgr-1"), req.ID, "")
	require.ErrorAs(t, err, &ve)

	rejected, err := svc.Reject(ctx, managerUser("mgr-1"), req.ID, "Team is at capacity that week")
	require.NoError(t, err)
	assert.Equal(t, absence.StatusRejected, rejected.Status)
	require.NotNil(t, rejected.ApprovalComments)
	assert.Equal(t, "Team is at capacity that week", *rejected.ApprovalComments)
	require.NotNil(t, rejected.ApproverID)
	assert.Equal(t, absence.ResourceID("mgr-1"), *rejected.ApproverID)
}

// =============================================================================
// UPDATE
// =============================================================================

func TestUpdate_PendingOnly(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	req := mustCreate(t, svc, "emp-1")

	newStart := testNow.AddDate(0, 0, 10)
	newEnd := testNow.AddDate(0, 0, 11)

	updated, err := svc.Update(ctx, employeeUser("emp-1"), req.ID, newStart, newEnd, "Moved the trip")
	require.NoError(t, err)
	assert.Equal(t, newStart, updated.Start)
	assert.Equal(t, "Moved the trip", updated.Reason)
	assert.Equal(t, absence.StatusPending, updated.Status)

	_, err = svc.Approve(ctx, managerUser("mgr-1"), req.ID, "")
	require.NoError(t, err)

	_, err = svc.Update(ctx, employeeUser("emp-1"), req.ID, newStart, newEnd, "Too late")
	assert.ErrorIs(t, err, absence.ErrInvalidState)
}

func TestUpdate_OwnerOnly(t *testing.T) {
	svc, _ := newTestService(t)
	req := mustCreate(t, svc, "emp-1")

	_, err := svc.Update(context.Background(), employeeUser("emp-2"), req.ID,
		testNow.AddDate(0, 0, 10), testNow.AddDate(0, 0, 11), "Not my request")
	assert.ErrorIs(t, err, absence.ErrUnauthorized)
}

// =============================================================================
// CANCEL
// =============================================================================

func TestCancel_SecondCallFails(t *testing.T) {
	// GIVEN: A Pending request
	// WHEN:  The owner cancels twice
	// THEN:  First succeeds, second fails - cancel is not idempotent
	svc, _ := newTestService(t)
	ctx := context.Background()
	req := mustCreate(t, svc, "emp-1")

	cancelled, err := svc.Cancel(ctx, employeeUser("emp-1"), req.ID)
	require.NoError(t, err)
	assert.Equal(t, absence.StatusCancelled, cancelled.Status)

	_, err = svc.Cancel(ctx, employeeUser("emp-1"), req.ID)
	assert.ErrorIs(t, err, absence.ErrInvalidState)
}

func TestCancel_OwnerOnly(t *testing.T) {
	svc, _ := newTestService(t)
	req := mustCreate(t, svc, "emp-1")

	// Even a manager cannot cancel on the owner's behalf.
	_, err := svc.Cancel(context.Background(), managerUser("mgr-1"), req.ID)
	assert.ErrorIs(t, err, absence.ErrUnauthorized)
}

func TestCancel_NotFromDecidedStates(t *testing.T) {
	// The capability table wins over the looser legacy guard: an
	// Approved request cannot be cancelled.
	svc, _ := newTestService(t)
	ctx := context.Background()
	req := mustCreate(t, svc, "emp-1")

	_, err := svc.Approve(ctx, managerUser("mgr-1"), req.ID, "")
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, employeeUser("emp-1"), req.ID)
	assert.ErrorIs(t, err, absence.ErrInvalidState)
}

// =============================================================================
// DELETE
// =============================================================================

func TestDelete_PendingAndCancelledOnly(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	pending := mustCreate(t, svc, "emp-1")
	require.NoError(t, svc.Delete(ctx, employeeUser("emp-1"), pending.ID))
	_, err := svc.Get(ctx, pending.ID)
	assert.ErrorIs(t, err, absence.ErrNotFound, "hard delete removes the row")

	approved := mustCreate(t, svc, "emp-1")
	_, err = svc.Approve(ctx, managerUser("mgr-1"), approved.ID, "")
	require.NoError(t, err)

	err = svc.Delete(ctx, adminUser("a"), approved.ID)
	assert.ErrorIs(t, err, absence.ErrInvalidState,
		"decided requests are the audit trail and are never deletable")
}

func TestDelete_NonOwnerForbidden(t *testing.T) {
	svc, _ := newTestService(t)
	req := mustCreate(t, svc, "emp-1")

	err := svc.Delete(context.Background(), employeeUser("emp-2"), req.ID)
	assert.ErrorIs(t, err, absence.ErrUnauthorized)
}

// =============================================================================
// OPTIMISTIC CONCURRENCY
// =============================================================================

func TestWrite_StaleVersionConflicts(t *testing.T) {
	// GIVEN: Two actors read the same Pending request
	// WHEN:  Both try to decide it
	// THEN:  The second write loses with ErrConflict at the store level
	svc, store := newTestService(t)
	ctx := context.Background()
	req := mustCreate(t, svc, "emp-1")

	stale, err := store.GetRequest(ctx, req.ID)
	require.NoError(t, err)

	_, err = svc.Approve(ctx, managerUser("mgr-1"), req.ID, "")
	require.NoError(t, err)

	stale.Status = absence.StatusRejected
	err = store.UpdateRequest(ctx, *stale, stale.Version)
	assert.ErrorIs(t, err, absence.ErrConflict)
}

/*
lifecycle.go - Absence request lifecycle

PURPOSE:
  Handles the full lifecycle of absence requests:
  1. Create:  Validate and persist a Pending request
  2. Approve: Pending -> Approved, recording approver and time
  3. Reject:  Pending -> Rejected, with a mandatory reason
  4. Update:  Mutate start/end/reason while still Pending
  5. Cancel:  Pending -> Cancelled, owner only
  6. Delete:  Hard removal, gated by the caller's capability

STATE MACHINE:

          ┌──────────────▶ Approved (terminal)
          │
  Pending ├──────────────▶ Rejected (terminal)
          │
          └── owner only ─▶ Cancelled (terminal)

  Every transition guard requires the CURRENT status to be exactly
  Pending. Cancelling twice fails the second time: the guard rejects,
  it does not succeed idempotently.

GUARD ORDER:
  fetch -> state guard -> authority check -> input validation -> write.
  A missing row is ErrNotFound; a row in the wrong status is
  ErrInvalidState; a capability denial is ErrUnauthorized. The write is
  conditional on the version read, so a concurrent mutation surfaces as
  ErrConflict instead of a silent overwrite.

SEE ALSO:
  - permission.go: The capability checks used by every transition
  - errors.go: The failure taxonomy raised here
*/
package absence

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// =============================================================================
// VALIDATION GUARDS - Pure checks, run before any mutation
// =============================================================================

const (
	MinReasonLen  = 3
	MaxReasonLen  = 500
	MaxCommentLen = 1000
)

// ValidateWindow checks the structural invariant end > start.
func ValidateWindow(start, end time.Time) error {
	if !end.After(start) {
		return &ValidationError{Field: "end", Message: "must be after start"}
	}
	return nil
}

// ValidateReason checks the request reason length (3-500 characters).
func ValidateReason(reason string) error {
	n := utf8.RuneCountInString(reason)
	if n < MinReasonLen || n > MaxReasonLen {
		return &ValidationError{
			Field:   "reason",
			Message: fmt.Sprintf("length must be %d-%d characters", MinReasonLen, MaxReasonLen),
		}
	}
	return nil
}

// ValidateDecisionComment checks an optional approval comment (<=1000).
func ValidateDecisionComment(c string) error {
	if utf8.RuneCountInString(c) > MaxCommentLen {
		return &ValidationError{
			Field:   "comments",
			Message: fmt.Sprintf("length must be at most %d characters", MaxCommentLen),
		}
	}
	return nil
}

// ValidateRejectReason checks the mandatory rejection reason (3-1000).
func ValidateRejectReason(c string) error {
	n := utf8.RuneCountInString(c)
	if n < MinReasonLen || n > MaxCommentLen {
		return &ValidationError{
			Field:   "reason",
			Message: fmt.Sprintf("length must be %d-%d characters", MinReasonLen, MaxCommentLen),
		}
	}
	return nil
}

// =============================================================================
// SERVICE - Orchestrates guards, capabilities, and persistence
// =============================================================================

// Service runs the request lifecycle against a Store. All operations
// take the caller's UserContext; a nil context carries no permissions.
type Service struct {
	Store Store
	Log   *logrus.Logger

	// Now is overridable for tests. Defaults to time.Now.
	Now func() time.Time
}

func NewService(store Store, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.New()
	}
	return &Service{Store: store, Log: log}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) audit(action string, user *UserContext, id RequestID) *logrus.Entry {
	actor := ""
	if user != nil {
		actor = NormalizeID(user.ID)
	}
	return s.Log.WithFields(logrus.Fields{
		"action":  action,
		"actor":   actor,
		"request": id,
	})
}

// =============================================================================
// CREATE - New request, always Pending
// =============================================================================

// Create submits a new absence request for employeeID on behalf of the
// caller. Admins, managers, and approvers may create for anyone;
// employees only for themselves. The start date must not be in the
// past (date-only comparison) - this is enforced at creation only.
func (s *Service) Create(ctx context.Context, user *UserContext, employeeID ResourceID, start, end time.Time, reason string) (*Request, error) {
	strat := NewStrategy(user)
	if !strat.CanCreateFor(employeeID) {
		return nil, ErrUnauthorized
	}

	if employeeID == "" {
		return nil, &ValidationError{Field: "employeeId", Message: "is required"}
	}
	if err := ValidateWindow(start, end); err != nil {
		return nil, err
	}
	now := s.now()
	if BeforeDate(start, now) {
		return nil, &ValidationError{Field: "start", Message: "must not be in the past"}
	}
	if err := ValidateReason(reason); err != nil {
		return nil, err
	}

	emp, err := s.Store.GetResource(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if !emp.IsActive {
		return nil, &ValidationError{Field: "employeeId", Message: "employee is not active"}
	}

	req := &Request{
		ID:            RequestID(uuid.NewString()),
		EmployeeID:    employeeID,
		Start:         start,
		End:           end,
		Reason:        reason,
		Status:        StatusPending,
		RequestedDate: now,
		Version:       1,
	}
	if err := s.Store.SaveRequest(ctx, *req); err != nil {
		return nil, err
	}

	s.audit("request_created", user, req.ID).
		WithField("employee", employeeID).
		WithField("days", req.Days().String()).
		Info("absence request created")
	return req, nil
}

// =============================================================================
// APPROVE / REJECT - Decision transitions
// =============================================================================

// Approve moves a Pending request to Approved, recording the approver,
// the decision time, and an optional comment.
func (s *Service) Approve(ctx context.Context, user *UserContext, id RequestID, comments string) (*Request, error) {
	req, err := s.Store.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, &InvalidStateError{RequestID: id, Current: req.Status, Action: "approve"}
	}
	if !NewStrategy(user).CanApprove(req) {
		return nil, ErrUnauthorized
	}
	if err := ValidateDecisionComment(comments); err != nil {
		return nil, err
	}

	now := s.now()
	approver := ResourceID(NormalizeID(user.ID))
	req.Status = StatusApproved
	req.ApproverID = &approver
	req.ApprovedDate = &now
	if comments != "" {
		req.ApprovalComments = &comments
	}
	if err := s.write(ctx, req); err != nil {
		return nil, err
	}

	s.audit("request_approved", user, id).Info("absence request approved")
	return req, nil
}

// Reject moves a Pending request to Rejected. Unlike Approve's
// optional comment, the rejection reason is mandatory.
func (s *Service) Reject(ctx context.Context, user *UserContext, id RequestID, reason string) (*Request, error) {
	req, err := s.Store.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, &InvalidStateError{RequestID: id, Current: req.Status, Action: "reject"}
	}
	if !NewStrategy(user).CanApprove(req) {
		return nil, ErrUnauthorized
	}
	if err := ValidateRejectReason(reason); err != nil {
		return nil, err
	}

	now := s.now()
	approver := ResourceID(NormalizeID(user.ID))
	req.Status = StatusRejected
	req.ApproverID = &approver
	req.ApprovedDate = &now
	req.ApprovalComments = &reason
	if err := s.write(ctx, req); err != nil {
		return nil, err
	}

	s.audit("request_rejected", user, id).Info("absence request rejected")
	return req, nil
}

// =============================================================================
// UPDATE - Mutate a Pending request
// =============================================================================

// Update changes start/end/reason on a request that is still Pending.
// Other attributes never change through this path. The past-date check
// is a creation-only guard and is not re-applied here.
func (s *Service) Update(ctx context.Context, user *UserContext, id RequestID, start, end time.Time, reason string) (*Request, error) {
	req, err := s.Store.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, &InvalidStateError{RequestID: id, Current: req.Status, Action: "update"}
	}
	if !NewStrategy(user).CanEdit(req) {
		return nil, ErrUnauthorized
	}
	if err := ValidateWindow(start, end); err != nil {
		return nil, err
	}
	if err := ValidateReason(reason); err != nil {
		return nil, err
	}

	req.Start = start
	req.End = end
	req.Reason = reason
	if err := s.write(ctx, req); err != nil {
		return nil, err
	}

	s.audit("request_updated", user, id).Info("absence request updated")
	return req, nil
}

// =============================================================================
// CANCEL - Owner withdraws a Pending request
// =============================================================================

// Cancel moves a Pending request to Cancelled. Only the owning
// employee may cancel, and only from Pending: cancelling an already
// Cancelled (or decided) request fails with ErrInvalidState.
func (s *Service) Cancel(ctx context.Context, user *UserContext, id RequestID) (*Request, error) {
	req, err := s.Store.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, &InvalidStateError{RequestID: id, Current: req.Status, Action: "cancel"}
	}
	self := ""
	if user != nil {
		self = NormalizeID(user.ID)
	}
	if self == "" || !sameID(NormalizeID(req.EmployeeID), self) {
		return nil, ErrUnauthorized
	}

	req.Status = StatusCancelled
	if err := s.write(ctx, req); err != nil {
		return nil, err
	}

	s.audit("request_cancelled", user, id).Info("absence request cancelled")
	return req, nil
}

// =============================================================================
// DELETE - Hard removal
// =============================================================================

// Delete removes a request permanently. The capability table governs:
// admins may delete any Pending or Cancelled request, everyone else
// only their own. Decided requests (Approved/Rejected) are never
// deletable; they are the audit trail.
func (s *Service) Delete(ctx context.Context, user *UserContext, id RequestID) error {
	req, err := s.Store.GetRequest(ctx, id)
	if err != nil {
		return err
	}
	if !NewStrategy(user).CanDelete(req) {
		if req.Status != StatusPending && req.Status != StatusCancelled {
			return &InvalidStateError{RequestID: id, Current: req.Status, Action: "delete"}
		}
		return ErrUnauthorized
	}
	if err := s.Store.DeleteRequest(ctx, id); err != nil {
		return err
	}

	s.audit("request_deleted", user, id).Info("absence request deleted")
	return nil
}

// =============================================================================
// READS - Specification-driven queries
// =============================================================================

// Get fetches a single request.
func (s *Service) Get(ctx context.Context, id RequestID) (*Request, error) {
	return s.Store.GetRequest(ctx, id)
}

// Find loads all requests and applies the specification.
func (s *Service) Find(ctx context.Context, spec *Specification[Request]) ([]Request, error) {
	rows, err := s.Store.ListRequests(ctx)
	if err != nil {
		return nil, err
	}
	return Apply(rows, spec), nil
}

// FindResources loads all resources and applies the specification.
func (s *Service) FindResources(ctx context.Context, spec *Specification[Resource]) ([]Resource, error) {
	rows, err := s.Store.ListResources(ctx)
	if err != nil {
		return nil, err
	}
	return Apply(rows, spec), nil
}

// write persists a mutation with the version bumped, surfacing
// ErrConflict when the row changed since the read.
func (s *Service) write(ctx context.Context, req *Request) error {
	expected := req.Version
	req.Version++
	return s.Store.UpdateRequest(ctx, *req, expected)
}

/*
seed.go - Demo data for local runs

PURPOSE:
  Loads a small demo organization (groups, resources, a handful of
  absence requests in various states) so the calendar has something to
  render on a fresh database. Enabled via the SEED flag in main.

  Not for production. Resource saves are idempotent (insert-or-replace)
  but absence inserts are skipped when the database already has rows.
*/
package api

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/warp/absence-engine/absence"
)

// SeedDemo populates the store with a demo org. Safe to call on every
// startup: it no-ops when absences already exist.
func SeedDemo(ctx context.Context, store absence.Store) error {
	existing, err := store.ListRequests(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	groups := []absence.Group{
		{ID: "eng", Name: "Engineering"},
		{ID: "ops", Name: "Operations"},
	}
	for _, g := range groups {
		if err := store.SaveGroup(ctx, g); err != nil {
			return err
		}
	}

	resources := []absence.Resource{
		{ID: "alice", Name: "Alice Moreau", Email: "alice@example.com", EmployeeNumber: "E-1001",
			Role: "Admin", IsActive: true, GroupID: "eng"},
		{ID: "bruno", Name: "Bruno Keller", Email: "bruno@example.com", EmployeeNumber: "E-1002",
			Role: "Manager", IsApprover: true, IsActive: true, GroupID: "eng"},
		{ID: "carla", Name: "Carla Diaz", Email: "carla@example.com", EmployeeNumber: "E-1003",
			Role: "Employee", IsActive: true, ManagerID: "bruno", GroupID: "eng"},
		{ID: "derek", Name: "Derek Obi", Email: "derek@example.com", EmployeeNumber: "E-1004",
			Role: "Employee", IsActive: true, ManagerID: "bruno", GroupID: "ops"},
	}
	for _, r := range resources {
		if err := store.SaveResource(ctx, r); err != nil {
			return err
		}
	}

	now := time.Now()
	day := func(offset int) time.Time {
		return absence.DateOnly(now).AddDate(0, 0, offset)
	}
	approver := absence.ResourceID("bruno")
	decided := day(-2)
	comment := "Enjoy the break"

	requests := []absence.Request{
		{
			ID: absence.RequestID(uuid.NewString()), EmployeeID: "carla",
			Start: day(7), End: day(12), Reason: "Family vacation",
			Status: absence.StatusPending, RequestedDate: now.Add(-48 * time.Hour), Version: 1,
		},
		{
			ID: absence.RequestID(uuid.NewString()), EmployeeID: "derek",
			Start: day(3), End: day(4), Reason: "Dentist appointment",
			Status: absence.StatusPending, RequestedDate: now.Add(-24 * time.Hour), Version: 1,
		},
		{
			ID: absence.RequestID(uuid.NewString()), EmployeeID: "carla",
			Start: day(14), End: day(16), Reason: "Conference travel",
			Status: absence.StatusApproved, RequestedDate: now.Add(-96 * time.Hour),
			ApproverID: &approver, ApprovedDate: &decided, ApprovalComments: &comment, Version: 2,
		},
	}
	for _, req := range requests {
		if err := store.SaveRequest(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

/*
dto.go - Request/response data structures for the HTTP API

PURPOSE:
  Wire-level shapes, kept separate from domain types so the API can
  evolve independently. Inbound payloads carry validator tags; a shared
  validator instance runs before any domain call.

SEE ALSO:
  - handlers.go: Uses these for JSON (de)serialization
  - absence/lifecycle.go: The domain guards behind the validator tags
*/
package api

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/warp/absence-engine/absence"
)

// validate is the shared validator for inbound DTOs.
var validate = validator.New()

// =============================================================================
// INBOUND
// =============================================================================

type CreateAbsenceRequest struct {
	EmployeeID string    `json:"employee_id" validate:"required"`
	Start      time.Time `json:"start" validate:"required"`
	End        time.Time `json:"end" validate:"required,gtfield=Start"`
	Reason     string    `json:"reason" validate:"required,min=3,max=500"`
}

type UpdateAbsenceRequest struct {
	Start  time.Time `json:"start" validate:"required"`
	End    time.Time `json:"end" validate:"required,gtfield=Start"`
	Reason string    `json:"reason" validate:"required,min=3,max=500"`
}

type ApproveRequest struct {
	Comments string `json:"comments" validate:"max=1000"`
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=1000"`
}

type CreateResourceRequest struct {
	ID             string `json:"id" validate:"required"`
	Name           string `json:"name" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	EmployeeNumber string `json:"employee_number"`
	Role           string `json:"role"`
	IsApprover     bool   `json:"is_approver"`
	IsActive       *bool  `json:"is_active"`
	ManagerID      string `json:"manager_id"`
	GroupID        string `json:"group_id"`
}

type CreateGroupRequest struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// =============================================================================
// OUTBOUND
// =============================================================================

type AbsenceDTO struct {
	ID               string  `json:"id"`
	EmployeeID       string  `json:"employee_id"`
	Start            string  `json:"start"`
	End              string  `json:"end"`
	Days             string  `json:"days"`
	Reason           string  `json:"reason"`
	Status           string  `json:"status"`
	RequestedDate    string  `json:"requested_date"`
	ApproverID       *string `json:"approver_id,omitempty"`
	ApprovedDate     *string `json:"approved_date,omitempty"`
	ApprovalComments *string `json:"approval_comments,omitempty"`
	Version          int     `json:"version"`
}

type ResourceDTO struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	EmployeeNumber string `json:"employee_number,omitempty"`
	Role           string `json:"role,omitempty"`
	IsApprover     bool   `json:"is_approver"`
	IsActive       bool   `json:"is_active"`
	ManagerID      string `json:"manager_id,omitempty"`
	GroupID        string `json:"group_id,omitempty"`
}

type GroupDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CalendarEventDTO is one absence rendered on a resource row.
type CalendarEventDTO struct {
	AbsenceDTO
	ResourceName string `json:"resource_name"`
}

type MenuItemDTO struct {
	Label   string `json:"label"`
	Action  string `json:"action"`
	Enabled bool   `json:"enabled"`
}

// FiltersDTO lists the caller's status filters for the calendar UI.
type FiltersDTO struct {
	Visible []string `json:"visible"`
	Default []string `json:"default"`
}

// =============================================================================
// MAPPERS
// =============================================================================

func toAbsenceDTO(r *absence.Request) AbsenceDTO {
	dto := AbsenceDTO{
		ID:            string(r.ID),
		EmployeeID:    string(r.EmployeeID),
		Start:         r.Start.UTC().Format(time.RFC3339),
		End:           r.End.UTC().Format(time.RFC3339),
		Days:          r.Days().String(),
		Reason:        r.Reason,
		Status:        string(r.Status),
		RequestedDate: r.RequestedDate.UTC().Format(time.RFC3339),
		Version:       r.Version,
	}
	if r.ApproverID != nil {
		s := string(*r.ApproverID)
		dto.ApproverID = &s
	}
	if r.ApprovedDate != nil {
		s := r.ApprovedDate.UTC().Format(time.RFC3339)
		dto.ApprovedDate = &s
	}
	dto.ApprovalComments = r.ApprovalComments
	return dto
}

func toResourceDTO(r *absence.Resource) ResourceDTO {
	return ResourceDTO{
		ID:             string(r.ID),
		Name:           r.Name,
		Email:          r.Email,
		EmployeeNumber: r.EmployeeNumber,
		Role:           r.Role,
		IsApprover:     r.IsApprover,
		IsActive:       r.IsActive,
		ManagerID:      string(r.ManagerID),
		GroupID:        string(r.GroupID),
	}
}

func statusLabels(statuses []absence.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

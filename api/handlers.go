/*
handlers.go - HTTP API handlers for the absence tracker

PURPOSE:
  Exposes the absence engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Absences:
    GET    /api/absences                 Filtered query (from/to/employee/statuses)
    POST   /api/absences                 Submit a request
    GET    /api/absences/pending         FIFO review queue
    GET    /api/absences/{id}            Fetch one
    PUT    /api/absences/{id}            Update (Pending only)
    POST   /api/absences/{id}/approve    Approve
    POST   /api/absences/{id}/reject     Reject
    POST   /api/absences/{id}/cancel     Cancel (owner only)
    DELETE /api/absences/{id}            Hard delete
    GET    /api/absences/{id}/menu       Context-menu actions for caller

  Calendar:
    GET    /api/calendar                 Events per resource for a window
    GET    /api/calendar/cell-class      Cell selectability hint
    GET    /api/filters                  Caller's status filters

  Resources/Groups:
    GET/POST /api/resources, GET /api/resources/{id}
    GET/POST /api/groups

ERROR HANDLING:
  Domain errors map onto HTTP status:
  - 400: validation failures, malformed input
  - 403: permission strategy denied the caller
  - 404: request/resource/group not found
  - 409: wrong lifecycle state, or stale version (concurrent edit)
  - 500: infrastructure failures

  Wrong-state and stale-version failures are deliberately distinct from
  404 here; the original service collapsed them into one generic
  not-found outcome.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/warp/absence-engine/absence"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *absence.Service
	Store   absence.Store
	Log     *logrus.Logger
}

// NewHandler creates a new handler over the given store.
func NewHandler(store absence.Store, log *logrus.Logger) *Handler {
	return &Handler{
		Service: absence.NewService(store, log),
		Store:   store,
		Log:     log,
	}
}

// =============================================================================
// ABSENCE HANDLERS
// =============================================================================

// ListAbsences runs the filtered calendar query. Query params:
// from, to (required, RFC3339 or YYYY-MM-DD), employee (optional),
// statuses (optional comma-separated; absent means all statuses).
func (h *Handler) ListAbsences(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.window(w, r)
	if !ok {
		return
	}
	statuses, ok := h.statuses(w, r)
	if !ok {
		return
	}
	employee := absence.ResourceID(r.URL.Query().Get("employee"))

	spec := absence.FilteredRequests(employee, from, to, statuses)
	rows, err := h.Service.Find(r.Context(), spec)
	if err != nil {
		h.domainError(w, err)
		return
	}

	dtos := make([]AbsenceDTO, len(rows))
	for i := range rows {
		dtos[i] = toAbsenceDTO(&rows[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListPending returns the approver review queue, oldest first.
func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Service.Find(r.Context(), absence.PendingQueue())
	if err != nil {
		h.domainError(w, err)
		return
	}
	dtos := make([]AbsenceDTO, len(rows))
	for i := range rows {
		dtos[i] = toAbsenceDTO(&rows[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateAbsence submits a new request.
func (h *Handler) CreateAbsence(w http.ResponseWriter, r *http.Request) {
	var req CreateAbsenceRequest
	if !decode(w, r, &req) {
		return
	}

	created, err := h.Service.Create(r.Context(), userFrom(r.Context()),
		absence.ResourceID(req.EmployeeID), req.Start, req.End, req.Reason)
	if err != nil {
		h.domainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAbsenceDTO(created))
}

// GetAbsence fetches a single request.
func (h *Handler) GetAbsence(w http.ResponseWriter, r *http.Request) {
	req, err := h.Service.Get(r.Context(), absence.RequestID(chi.URLParam(r, "id")))
	if err != nil {
		h.domainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAbsenceDTO(req))
}

// UpdateAbsence mutates start/end/reason on a Pending request.
func (h *Handler) UpdateAbsence(w http.ResponseWriter, r *http.Request) {
	var req UpdateAbsenceRequest
	if !decode(w, r, &req) {
		return
	}

	updated, err := h.Service.Update(r.Context(), userFrom(r.Context()),
		absence.RequestID(chi.URLParam(r, "id")), req.Start, req.End, req.Reason)
	if err != nil {
		h.domainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAbsenceDTO(updated))
}

// ApproveAbsence moves a Pending request to Approved.
func (h *Handler) ApproveAbsence(w http.ResponseWriter, r *http.Request) {
	var req ApproveRequest
	if !decode(w, r, &req) {
		return
	}

	approved, err := h.Service.Approve(r.Context(), userFrom(r.Context()),
		absence.RequestID(chi.URLParam(r, "id")), req.Comments)
	if err != nil {
		h.domainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAbsenceDTO(approved))
}

// RejectAbsence moves a Pending request to Rejected.
func (h *Handler) RejectAbsence(w http.ResponseWriter, r *http.Request) {
	var req RejectRequest
	if !decode(w, r, &req) {
		return
	}

	rejected, err := h.Service.Reject(r.Context(), userFrom(r.Context()),
		absence.RequestID(chi.URLParam(r, "id")), req.Reason)
	if err != nil {
		h.domainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAbsenceDTO(rejected))
}

// CancelAbsence lets the owner withdraw a Pending request.
func (h *Handler) CancelAbsence(w http.ResponseWriter, r *http.Request) {
	cancelled, err := h.Service.Cancel(r.Context(), userFrom(r.Context()),
		absence.RequestID(chi.URLParam(r, "id")))
	if err != nil {
		h.domainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAbsenceDTO(cancelled))
}

// DeleteAbsence removes a request permanently.
func (h *Handler) DeleteAbsence(w http.ResponseWriter, r *http.Request) {
	err := h.Service.Delete(r.Context(), userFrom(r.Context()),
		absence.RequestID(chi.URLParam(r, "id")))
	if err != nil {
		h.domainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ContextMenu returns the permitted UI actions for one request.
func (h *Handler) ContextMenu(w http.ResponseWriter, r *http.Request) {
	req, err := h.Service.Get(r.Context(), absence.RequestID(chi.URLParam(r, "id")))
	if err != nil {
		h.domainError(w, err)
		return
	}

	items := absence.BuildContextMenu(req, userFrom(r.Context()), absence.MenuHandlers{})
	dtos := make([]MenuItemDTO, len(items))
	for i, item := range items {
		dtos[i] = MenuItemDTO{Label: item.Label, Action: item.Action, Enabled: item.Enabled}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// CALENDAR HANDLERS
// =============================================================================

// Calendar returns absence events joined with resource names for a
// window, for rendering per-resource calendar rows.
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.window(w, r)
	if !ok {
		return
	}
	statuses, ok := h.statuses(w, r)
	if !ok {
		return
	}

	rows, err := h.Service.Find(r.Context(), absence.FilteredRequests("", from, to, statuses))
	if err != nil {
		h.domainError(w, err)
		return
	}

	resources, err := h.Store.ListResources(r.Context())
	if err != nil {
		h.domainError(w, err)
		return
	}
	names := make(map[absence.ResourceID]string, len(resources))
	for _, res := range resources {
		names[res.ID] = res.Name
	}

	events := make([]CalendarEventDTO, len(rows))
	for i := range rows {
		events[i] = CalendarEventDTO{
			AbsenceDTO:   toAbsenceDTO(&rows[i]),
			ResourceName: names[rows[i].EmployeeID],
		}
	}
	writeJSON(w, http.StatusOK, events)
}

// CellClass reports whether a calendar cell is selectable by the
// caller. Query params: date (required), resource (required).
func (h *Handler) CellClass(w http.ResponseWriter, r *http.Request) {
	cellDate, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid or missing date", err)
		return
	}
	target := absence.ResourceID(r.URL.Query().Get("resource"))
	if target == "" {
		writeError(w, http.StatusBadRequest, "Missing resource", nil)
		return
	}

	strat := absence.NewStrategy(userFrom(r.Context()))
	class := strat.CellClass(cellDate, time.Now(), target)
	writeJSON(w, http.StatusOK, map[string]string{"class": class})
}

// Filters returns the caller's visible and default status filters.
func (h *Handler) Filters(w http.ResponseWriter, r *http.Request) {
	strat := absence.NewStrategy(userFrom(r.Context()))
	writeJSON(w, http.StatusOK, FiltersDTO{
		Visible: statusLabels(strat.VisibleFilters()),
		Default: statusLabels(strat.DefaultFilters()),
	})
}

// =============================================================================
// RESOURCE / GROUP HANDLERS
// =============================================================================

// ListResources returns active resources ordered by name.
func (h *Handler) ListResources(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Service.FindResources(r.Context(), absence.ActiveResources())
	if err != nil {
		h.domainError(w, err)
		return
	}
	dtos := make([]ResourceDTO, len(rows))
	for i := range rows {
		dtos[i] = toResourceDTO(&rows[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetResource returns a single resource.
func (h *Handler) GetResource(w http.ResponseWriter, r *http.Request) {
	res, err := h.Store.GetResource(r.Context(), absence.ResourceID(chi.URLParam(r, "id")))
	if err != nil {
		h.domainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResourceDTO(res))
}

// CreateResource inserts or replaces a resource.
func (h *Handler) CreateResource(w http.ResponseWriter, r *http.Request) {
	var req CreateResourceRequest
	if !decode(w, r, &req) {
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	res := absence.Resource{
		ID:             absence.ResourceID(req.ID),
		Name:           req.Name,
		Email:          req.Email,
		EmployeeNumber: req.EmployeeNumber,
		Role:           req.Role,
		IsApprover:     req.IsApprover,
		IsActive:       active,
		ManagerID:      absence.ResourceID(req.ManagerID),
		GroupID:        absence.GroupID(req.GroupID),
	}
	if err := h.Store.SaveResource(r.Context(), res); err != nil {
		h.domainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResourceDTO(&res))
}

// ListGroups returns every group.
func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Store.ListGroups(r.Context())
	if err != nil {
		h.domainError(w, err)
		return
	}
	dtos := make([]GroupDTO, len(rows))
	for i, g := range rows {
		dtos[i] = GroupDTO{ID: string(g.ID), Name: g.Name}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateGroup inserts or replaces a group.
func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req CreateGroupRequest
	if !decode(w, r, &req) {
		return
	}
	g := absence.Group{ID: absence.GroupID(req.ID), Name: req.Name}
	if err := h.Store.SaveGroup(r.Context(), g); err != nil {
		h.domainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, GroupDTO{ID: string(g.ID), Name: g.Name})
}

// =============================================================================
// REQUEST PARSING HELPERS
// =============================================================================

// decode parses and validates a JSON body, writing a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

// window parses the required from/to query params.
func (h *Handler) window(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	from, err := parseDate(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid or missing from", err)
		return time.Time{}, time.Time{}, false
	}
	to, err := parseDate(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid or missing to", err)
		return time.Time{}, time.Time{}, false
	}
	if !to.After(from) {
		writeError(w, http.StatusBadRequest, "to must be after from", nil)
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// statuses parses the optional comma-separated statuses query param.
// Absent or empty means "all statuses".
func (h *Handler) statuses(w http.ResponseWriter, r *http.Request) ([]absence.Status, bool) {
	raw := r.URL.Query().Get("statuses")
	if raw == "" {
		return nil, true
	}
	var out []absence.Status
	for _, label := range strings.Split(raw, ",") {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		st, ok := absence.ParseStatus(label)
		if !ok {
			writeError(w, http.StatusBadRequest, "Unknown status: "+label, nil)
			return nil, false
		}
		out = append(out, st)
	}
	return out, true
}

// parseDate accepts RFC3339 or YYYY-MM-DD.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := errorResponse{Error: message}
	if err != nil {
		resp.Detail = err.Error()
	}
	writeJSON(w, status, resp)
}

// domainError maps domain failures onto HTTP status codes.
func (h *Handler) domainError(w http.ResponseWriter, err error) {
	var ve *absence.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error(), nil)
	case errors.Is(err, absence.ErrGroupRequired):
		writeError(w, http.StatusBadRequest, "Referenced group does not exist", nil)
	case errors.Is(err, absence.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "Not permitted", nil)
	case errors.Is(err, absence.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found", nil)
	case errors.Is(err, absence.ErrInvalidState):
		writeError(w, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, absence.ErrConflict):
		writeError(w, http.StatusConflict, "Concurrent modification, re-fetch and retry", nil)
	default:
		h.Log.WithError(err).Error("internal error")
		writeError(w, http.StatusInternalServerError, "Internal error", nil)
	}
}

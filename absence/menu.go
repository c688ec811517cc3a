/*
menu.go - Context-menu action authorization

PURPOSE:
  Derives the set of permitted UI actions for one absence request and
  one caller, combining the permission strategy with the request's
  current status. The result is a flat, ordered action list with
  separators between logical groups; the ordering is a tested contract.

ORDERING:
  1. View Details                  (always)
  2. Edit Reason                   (if CanEdit)
  --- separator ---
  3. Approve, Reject               (if CanApprove)
  --- separator ---
  4. Delete                        (if CanDelete)

  Separators appear only between non-empty groups, never leading or
  trailing.
*/
package absence

// Menu action identifiers, stable across the API.
const (
	ActionViewDetails = "view-details"
	ActionEditReason  = "edit-reason"
	ActionApprove     = "approve"
	ActionReject      = "reject"
	ActionDelete      = "delete"
	ActionSeparator   = "-"
)

// MenuItem is one entry in the context menu. A separator has
// Label == ActionSeparator and no handler.
type MenuItem struct {
	Label   string
	Action  string
	Enabled bool
	Handler func()
}

// MenuHandlers binds menu actions to caller-supplied callbacks. Any
// field may be nil; the item is still listed when permitted.
type MenuHandlers struct {
	OnViewDetails func()
	OnEditReason  func()
	OnApprove     func()
	OnReject      func()
	OnDelete      func()
}

func separator() MenuItem {
	return MenuItem{Label: ActionSeparator, Action: ActionSeparator}
}

// BuildContextMenu composes the permitted actions for req as seen by
// user. View Details is always present; everything else depends on the
// caller's strategy and the request's status.
func BuildContextMenu(req *Request, user *UserContext, handlers MenuHandlers) []MenuItem {
	strat := NewStrategy(user)

	items := []MenuItem{{
		Label:   "View Details",
		Action:  ActionViewDetails,
		Enabled: true,
		Handler: handlers.OnViewDetails,
	}}

	if strat.CanEdit(req) {
		items = append(items, MenuItem{
			Label:   "Edit Reason",
			Action:  ActionEditReason,
			Enabled: true,
			Handler: handlers.OnEditReason,
		})
	}

	if strat.CanApprove(req) {
		items = append(items, separator())
		items = append(items,
			MenuItem{Label: "Approve", Action: ActionApprove, Enabled: true, Handler: handlers.OnApprove},
			MenuItem{Label: "Reject", Action: ActionReject, Enabled: true, Handler: handlers.OnReject},
		)
	}

	if strat.CanDelete(req) {
		items = append(items, separator())
		items = append(items, MenuItem{
			Label:   "Delete",
			Action:  ActionDelete,
			Enabled: true,
			Handler: handlers.OnDelete,
		})
	}

	return items
}

/*
store.go - Persistence interface for requests, resources, and groups

PURPOSE:
  Defines the interface between the domain logic and the database.
  Different implementations can use SQLite or in-memory storage.

CONTRACTS:
  - GetX returns ErrNotFound for missing rows, never (nil, nil).
  - UpdateRequest is conditional: the row must still carry the version
    the caller read, otherwise ErrConflict. This is the optimistic
    concurrency check guarding the read-modify-write transitions.
  - SaveResource enforces group integrity: an unknown GroupID fails
    with ErrGroupRequired.
  - List methods return copies; callers may mutate results freely.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite
  - absence/store: In-memory for testing/dev

SEE ALSO:
  - lifecycle.go: The only writer of requests
  - spec.go: Specifications applied over List results
*/
package absence

import "context"

// Store handles persistence for the absence domain.
type Store interface {
	// SaveRequest inserts a new request. The ID must be unset in the
	// store already.
	SaveRequest(ctx context.Context, r Request) error

	// GetRequest returns the request or ErrNotFound.
	GetRequest(ctx context.Context, id RequestID) (*Request, error)

	// UpdateRequest overwrites the row if its stored version equals
	// expectedVersion. Returns ErrNotFound if the row is missing and
	// ErrConflict if the version moved.
	UpdateRequest(ctx context.Context, r Request, expectedVersion int) error

	// DeleteRequest removes the row permanently. ErrNotFound if missing.
	DeleteRequest(ctx context.Context, id RequestID) error

	// ListRequests returns every request, unordered.
	ListRequests(ctx context.Context) ([]Request, error)

	// SaveResource inserts or replaces a resource. The referenced
	// group must exist.
	SaveResource(ctx context.Context, r Resource) error

	// GetResource returns the resource or ErrNotFound.
	GetResource(ctx context.Context, id ResourceID) (*Resource, error)

	// ListResources returns every resource, unordered.
	ListResources(ctx context.Context) ([]Resource, error)

	// SaveGroup inserts or replaces a group.
	SaveGroup(ctx context.Context, g Group) error

	// GetGroup returns the group or ErrNotFound.
	GetGroup(ctx context.Context, id GroupID) (*Group, error)

	// ListGroups returns every group, unordered.
	ListGroups(ctx context.Context) ([]Group, error)
}

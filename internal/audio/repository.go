package audio

import "context"

// ClientRepository defines persistence operations for audio clients.
// The abstraction allows SQLite and mock implementations and keeps the
// coordinator testable without a database.
type ClientRepository interface {
	// GetByID retrieves a client by its unique identifier.
	// Returns ErrClientNotFound if the client does not exist.
	GetByID(ctx context.Context, id string) (*Client, error)

	// List retrieves all clients ordered by name.
	List(ctx context.Context) ([]Client, error)

	// ListByZone retrieves all clients assigned to a zone.
	ListByZone(ctx context.Context, zoneID string) ([]Client, error)

	// Create inserts a new client.
	// Returns ErrClientExists if the ID is already taken.
	Create(ctx context.Context, client *Client) error

	// Update modifies an existing client.
	// Returns ErrClientNotFound if the client does not exist.
	Update(ctx context.Context, client *Client) error

	// Delete removes a client by ID.
	// Returns ErrClientNotFound if the client does not exist.
	Delete(ctx context.Context, id string) error
}

// ZoneRepository defines persistence operations for zones.
type ZoneRepository interface {
	// GetByID retrieves a zone by its unique identifier.
	// Returns ErrZoneNotFound if the zone does not exist.
	GetByID(ctx context.Context, id string) (*Zone, error)

	// List retrieves all zones ordered by name.
	List(ctx context.Context) ([]Zone, error)

	// Create inserts a new zone.
	// Returns ErrZoneExists if the ID is already taken.
	Create(ctx context.Context, zone *Zone) error

	// Update modifies an existing zone.
	// Returns ErrZoneNotFound if the zone does not exist.
	Update(ctx context.Context, zone *Zone) error

	// Delete removes a zone by ID.
	// Returns ErrZoneNotFound if the zone does not exist.
	Delete(ctx context.Context, id string) error
}

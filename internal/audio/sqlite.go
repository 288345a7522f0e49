package audio

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SQLiteClientRepository implements ClientRepository using SQLite.
type SQLiteClientRepository struct {
	db *sql.DB
}

// NewSQLiteClientRepository creates a SQLite-backed client repository.
// The db parameter should be an open SQLite connection with the schema
// migrated.
func NewSQLiteClientRepository(db *sql.DB) *SQLiteClientRepository {
	return &SQLiteClientRepository{db: db}
}

const clientColumns = `id, name, host, volume, muted, connected, zone_id,
	knx_volume_ga, knx_mute_ga, created_at, updated_at`

// GetByID retrieves a client by its unique identifier.
func (r *SQLiteClientRepository) GetByID(ctx context.Context, id string) (*Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = ?`

	client, err := scanClient(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("querying client by id: %w", err)
	}
	return client, nil
}

// List retrieves all clients ordered by name.
func (r *SQLiteClientRepository) List(ctx context.Context) ([]Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients ORDER BY name`
	return r.queryClients(ctx, query)
}

// ListByZone retrieves all clients assigned to a zone.
func (r *SQLiteClientRepository) ListByZone(ctx context.Context, zoneID string) ([]Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE zone_id = ? ORDER BY name`
	return r.queryClients(ctx, query, zoneID)
}

// Create inserts a new client.
func (r *SQLiteClientRepository) Create(ctx context.Context, client *Client) error {
	if err := client.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	if client.CreatedAt.IsZero() {
		client.CreatedAt = now
	}
	client.UpdatedAt = now

	query := `
		INSERT INTO clients (` + clientColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		client.ID,
		client.Name,
		client.Host,
		client.Volume,
		boolToInt(client.Muted),
		boolToInt(client.Connected),
		nullableString(client.ZoneID),
		nullableString(client.KNXVolumeGA),
		nullableString(client.KNXMuteGA),
		client.CreatedAt.Format(time.RFC3339),
		client.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrClientExists
		}
		return fmt.Errorf("inserting client: %w", err)
	}

	return nil
}

// Update modifies an existing client.
func (r *SQLiteClientRepository) Update(ctx context.Context, client *Client) error {
	if err := client.Validate(); err != nil {
		return err
	}

	client.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE clients SET
			name = ?, host = ?, volume = ?, muted = ?, connected = ?,
			zone_id = ?, knx_volume_ga = ?, knx_mute_ga = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		client.Name,
		client.Host,
		client.Volume,
		boolToInt(client.Muted),
		boolToInt(client.Connected),
		nullableString(client.ZoneID),
		nullableString(client.KNXVolumeGA),
		nullableString(client.KNXMuteGA),
		client.UpdatedAt.Format(time.RFC3339),
		client.ID,
	)
	if err != nil {
		return fmt.Errorf("updating client: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if rows == 0 {
		return ErrClientNotFound
	}

	return nil
}

// Delete removes a client by ID.
func (r *SQLiteClientRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM clients WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting client: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if rows == 0 {
		return ErrClientNotFound
	}

	return nil
}

// queryClients runs a multi-row client query.
func (r *SQLiteClientRepository) queryClients(ctx context.Context, query string, args ...any) ([]Client, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying clients: %w", err)
	}
	defer rows.Close()

	var clients []Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning client: %w", err)
		}
		clients = append(clients, *client)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating clients: %w", err)
	}

	return clients, nil
}

// SQLiteZoneRepository implements ZoneRepository using SQLite.
type SQLiteZoneRepository struct {
	db *sql.DB
}

// NewSQLiteZoneRepository creates a SQLite-backed zone repository.
func NewSQLiteZoneRepository(db *sql.DB) *SQLiteZoneRepository {
	return &SQLiteZoneRepository{db: db}
}

const zoneColumns = `id, name, volume, muted, knx_volume_ga, knx_mute_ga,
	stream_id, created_at, updated_at`

// GetByID retrieves a zone by its unique identifier.
func (r *SQLiteZoneRepository) GetByID(ctx context.Context, id string) (*Zone, error) {
	query := `SELECT ` + zoneColumns + ` FROM zones WHERE id = ?`

	zone, err := scanZone(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrZoneNotFound
		}
		return nil, fmt.Errorf("querying zone by id: %w", err)
	}
	return zone, nil
}

// List retrieves all zones ordered by name.
func (r *SQLiteZoneRepository) List(ctx context.Context) ([]Zone, error) {
	query := `SELECT ` + zoneColumns + ` FROM zones ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying zones: %w", err)
	}
	defer rows.Close()

	var zones []Zone
	for rows.Next() {
		zone, err := scanZone(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning zone: %w", err)
		}
		zones = append(zones, *zone)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating zones: %w", err)
	}

	return zones, nil
}

// Create inserts a new zone.
func (r *SQLiteZoneRepository) Create(ctx context.Context, zone *Zone) error {
	if zone.ID == "" {
		zone.ID = GenerateID()
	}
	if err := zone.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	if zone.CreatedAt.IsZero() {
		zone.CreatedAt = now
	}
	zone.UpdatedAt = now

	query := `
		INSERT INTO zones (` + zoneColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		zone.ID,
		zone.Name,
		zone.Volume,
		boolToInt(zone.Muted),
		nullableString(zone.KNXVolumeGA),
		nullableString(zone.KNXMuteGA),
		nullableString(zone.StreamID),
		zone.CreatedAt.Format(time.RFC3339),
		zone.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrZoneExists
		}
		return fmt.Errorf("inserting zone: %w", err)
	}

	return nil
}

// Update modifies an existing zone.
func (r *SQLiteZoneRepository) Update(ctx context.Context, zone *Zone) error {
	if err := zone.Validate(); err != nil {
		return err
	}

	zone.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE zones SET
			name = ?, volume = ?, muted = ?, knx_volume_ga = ?,
			knx_mute_ga = ?, stream_id = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		zone.Name,
		zone.Volume,
		boolToInt(zone.Muted),
		nullableString(zone.KNXVolumeGA),
		nullableString(zone.KNXMuteGA),
		nullableString(zone.StreamID),
		zone.UpdatedAt.Format(time.RFC3339),
		zone.ID,
	)
	if err != nil {
		return fmt.Errorf("updating zone: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if rows == 0 {
		return ErrZoneNotFound
	}

	return nil
}

// Delete removes a zone by ID.
func (r *SQLiteZoneRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM zones WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting zone: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if rows == 0 {
		return ErrZoneNotFound
	}

	return nil
}

// rowScanner is an interface that sql.Row and sql.Rows both implement.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanClient scans a row or rows result into a Client.
func scanClient(scanner rowScanner) (*Client, error) {
	var c Client
	var muted, connected int
	var zoneID, volumeGA, muteGA sql.NullString
	var createdAt, updatedAt string

	err := scanner.Scan(
		&c.ID,
		&c.Name,
		&c.Host,
		&c.Volume,
		&muted,
		&connected,
		&zoneID,
		&volumeGA,
		&muteGA,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Muted = muted != 0
	c.Connected = connected != 0
	c.ZoneID = zoneID.String
	c.KNXVolumeGA = volumeGA.String
	c.KNXMuteGA = muteGA.String
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	c.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return &c, nil
}

// scanZone scans a row or rows result into a Zone.
func scanZone(scanner rowScanner) (*Zone, error) {
	var z Zone
	var muted int
	var volumeGA, muteGA, streamID sql.NullString
	var createdAt, updatedAt string

	err := scanner.Scan(
		&z.ID,
		&z.Name,
		&z.Volume,
		&muted,
		&volumeGA,
		&muteGA,
		&streamID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	z.Muted = muted != 0
	z.KNXVolumeGA = volumeGA.String
	z.KNXMuteGA = muteGA.String
	z.StreamID = streamID.String
	z.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	z.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return &z, nil
}

// nullableString returns a sql.NullString treating "" as NULL.
func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// boolToInt converts a boolean to 0/1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueConstraintError checks for a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "unique constraint")
}

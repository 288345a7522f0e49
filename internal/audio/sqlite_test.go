package audio

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory SQLite database with the schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE zones (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			volume INTEGER NOT NULL DEFAULT 50,
			muted INTEGER NOT NULL DEFAULT 0,
			knx_volume_ga TEXT,
			knx_mute_ga TEXT,
			stream_id TEXT,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;
		CREATE TABLE clients (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			host TEXT NOT NULL DEFAULT '',
			volume INTEGER NOT NULL DEFAULT 50,
			muted INTEGER NOT NULL DEFAULT 0,
			connected INTEGER NOT NULL DEFAULT 0,
			zone_id TEXT REFERENCES zones(id) ON DELETE SET NULL,
			knx_volume_ga TEXT,
			knx_mute_ga TEXT,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;
		CREATE INDEX idx_clients_zone_id ON clients(zone_id);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// testClient creates a client for testing.
func testClient(id, name string) *Client {
	return &Client{
		ID:          id,
		Name:        name,
		Host:        "kitchen-pi",
		Volume:      50,
		KNXVolumeGA: "2/1/5",
		KNXMuteGA:   "2/1/6",
	}
}

// testZone creates a zone for testing.
func testZone(id, name string) *Zone {
	return &Zone{
		ID:          id,
		Name:        name,
		Volume:      40,
		KNXVolumeGA: "2/3/4",
		StreamID:    "radio",
	}
}

func TestClientRepositoryCRUD(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteClientRepository(db)
	ctx := context.Background()

	client := testClient("1", "Kitchen")
	if err := repo.Create(ctx, client); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	got, err := repo.GetByID(ctx, "1")
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if got.Name != "Kitchen" {
		t.Errorf("Name = %q, want Kitchen", got.Name)
	}
	if got.Volume != 50 {
		t.Errorf("Volume = %d, want 50", got.Volume)
	}
	if got.KNXVolumeGA != "2/1/5" {
		t.Errorf("KNXVolumeGA = %q, want 2/1/5", got.KNXVolumeGA)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt is zero")
	}

	got.Volume = 75
	got.Muted = true
	got.Connected = true
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	got, err = repo.GetByID(ctx, "1")
	if err != nil {
		t.Fatalf("GetByID() after update error: %v", err)
	}
	if got.Volume != 75 || !got.Muted || !got.Connected {
		t.Errorf("after update: volume=%d muted=%v connected=%v, want 75/true/true",
			got.Volume, got.Muted, got.Connected)
	}

	if err := repo.Delete(ctx, "1"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := repo.GetByID(ctx, "1"); !errors.Is(err, ErrClientNotFound) {
		t.Errorf("GetByID() after delete = %v, want ErrClientNotFound", err)
	}
}

func TestClientRepositoryNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteClientRepository(db)
	ctx := context.Background()

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, ErrClientNotFound) {
		t.Errorf("GetByID() = %v, want ErrClientNotFound", err)
	}
	if err := repo.Update(ctx, testClient("missing", "Ghost")); !errors.Is(err, ErrClientNotFound) {
		t.Errorf("Update() = %v, want ErrClientNotFound", err)
	}
	if err := repo.Delete(ctx, "missing"); !errors.Is(err, ErrClientNotFound) {
		t.Errorf("Delete() = %v, want ErrClientNotFound", err)
	}
}

func TestClientRepositoryDuplicate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteClientRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, testClient("1", "Kitchen")); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if err := repo.Create(ctx, testClient("1", "Duplicate")); !errors.Is(err, ErrClientExists) {
		t.Errorf("Create() duplicate = %v, want ErrClientExists", err)
	}
}

func TestClientRepositoryValidation(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteClientRepository(db)
	ctx := context.Background()

	tests := []struct {
		name   string
		client *Client
	}{
		{name: "missing id", client: &Client{Name: "Kitchen"}},
		{name: "missing name", client: &Client{ID: "1"}},
		{name: "volume too high", client: &Client{ID: "1", Name: "Kitchen", Volume: 101}},
		{name: "volume negative", client: &Client{ID: "1", Name: "Kitchen", Volume: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := repo.Create(ctx, tt.client); !errors.Is(err, ErrInvalidClient) {
				t.Errorf("Create() = %v, want ErrInvalidClient", err)
			}
		})
	}
}

func TestClientRepositoryListByZone(t *testing.T) {
	db := setupTestDB(t)
	zones := NewSQLiteZoneRepository(db)
	clients := NewSQLiteClientRepository(db)
	ctx := context.Background()

	if err := zones.Create(ctx, testZone("z1", "Living Room")); err != nil {
		t.Fatalf("zone Create() error: %v", err)
	}

	a := testClient("1", "Left Speaker")
	a.ZoneID = "z1"
	b := testClient("2", "Right Speaker")
	b.ZoneID = "z1"
	c := testClient("3", "Bathroom")

	for _, client := range []*Client{a, b, c} {
		if err := clients.Create(ctx, client); err != nil {
			t.Fatalf("Create(%s) error: %v", client.ID, err)
		}
	}

	got, err := clients.ListByZone(ctx, "z1")
	if err != nil {
		t.Fatalf("ListByZone() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListByZone() returned %d clients, want 2", len(got))
	}

	all, err := clients.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("List() returned %d clients, want 3", len(all))
	}
}

func TestZoneRepositoryGeneratesID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteZoneRepository(db)
	ctx := context.Background()

	zone := testZone("", "Unbound Zone")
	if err := repo.Create(ctx, zone); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if zone.ID == "" {
		t.Fatal("Create() should assign a generated ID")
	}

	got, err := repo.GetByID(ctx, zone.ID)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if got.Name != "Unbound Zone" {
		t.Errorf("Name = %q, want %q", got.Name, "Unbound Zone")
	}
}

func TestZoneRepositoryCRUD(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteZoneRepository(db)
	ctx := context.Background()

	zone := testZone("z1", "Living Room")
	if err := repo.Create(ctx, zone); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	got, err := repo.GetByID(ctx, "z1")
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if got.Name != "Living Room" || got.StreamID != "radio" {
		t.Errorf("zone = %+v, want Living Room on radio", got)
	}

	got.Volume = 60
	got.StreamID = "spotify"
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	got, err = repo.GetByID(ctx, "z1")
	if err != nil {
		t.Fatalf("GetByID() after update error: %v", err)
	}
	if got.Volume != 60 || got.StreamID != "spotify" {
		t.Errorf("after update: volume=%d stream=%q, want 60/spotify", got.Volume, got.StreamID)
	}

	if err := repo.Delete(ctx, "z1"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := repo.GetByID(ctx, "z1"); !errors.Is(err, ErrZoneNotFound) {
		t.Errorf("GetByID() after delete = %v, want ErrZoneNotFound", err)
	}
}

func TestZoneRepositoryNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteZoneRepository(db)
	ctx := context.Background()

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, ErrZoneNotFound) {
		t.Errorf("GetByID() = %v, want ErrZoneNotFound", err)
	}
	if err := repo.Delete(ctx, "missing"); !errors.Is(err, ErrZoneNotFound) {
		t.Errorf("Delete() = %v, want ErrZoneNotFound", err)
	}
}

func TestZoneRepositoryOptionalFieldsEmpty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteZoneRepository(db)
	ctx := context.Background()

	zone := &Zone{ID: "z1", Name: "Bare", Volume: 50}
	if err := repo.Create(ctx, zone); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	got, err := repo.GetByID(ctx, "z1")
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if got.KNXVolumeGA != "" || got.KNXMuteGA != "" || got.StreamID != "" {
		t.Errorf("optional fields = %q/%q/%q, want empty", got.KNXVolumeGA, got.KNXMuteGA, got.StreamID)
	}
}

// Package persistence provides SQLite-based storage for fabric profiles.
//
// Profiles are stored by feature tag, so the database also records the
// ordered variant names of every enumeration it was written with. Opening a
// database written with a different enumeration layout fails instead of
// silently misreading tags.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/eig/internal/config"
	"github.com/talgya/eig/internal/fabric"
)

var (
	// ErrProfileNotFound reports a profile name with no stored row.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrOrdinalMismatch reports a database written with another enum layout.
	ErrOrdinalMismatch = errors.New("stored enumeration layout differs")
)

// layout is the tag order of each enumeration, recorded in fabric_meta.
var layout = map[string]string{
	"stage_names":   joinNames(fabric.Stages()),
	"role_names":    joinNames(fabric.Roles()),
	"feature_names": joinNames(fabric.AllFeatures()),
	"surface_names": joinNames(fabric.Surfaces()),
}

func joinNames[T fmt.Stringer](values []T) string {
	names := make([]string, len(values))
	for i, v := range values {
		names[i] = v.String()
	}
	return strings.Join(names, ",")
}

// DB wraps a SQLite connection for profile persistence.
type DB struct {
	conn *sqlx.DB
}

// ProfileInfo summarizes a stored profile.
type ProfileInfo struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
	Overrides   int       `db:"overrides" json:"overrides"`
	UpdatedAt   time.Time `db:"-" json:"updated_at"`
	Updated     int64     `db:"updated_at" json:"-"`
}

type profileRow struct {
	ID          string        `db:"id"`
	Name        string        `db:"name"`
	Description string        `db:"description"`
	Surface     sql.NullInt16 `db:"surface"`
}

type featureRow struct {
	Feature uint8   `db:"feature"`
	Value   float64 `db:"value"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := db.checkLayout(); err != nil {
		conn.Close()
		return nil, err
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		surface INTEGER,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS profile_features (
		profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		feature INTEGER NOT NULL,
		value REAL NOT NULL,
		PRIMARY KEY (profile_id, feature)
	);

	CREATE TABLE IF NOT EXISTS fabric_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// checkLayout records the enumeration layout on first use and verifies it
// on every later open.
func (db *DB) checkLayout() error {
	for key, want := range layout {
		stored, err := db.GetMeta(key)
		if errors.Is(err, sql.ErrNoRows) {
			if err := db.SaveMeta(key, want); err != nil {
				return fmt.Errorf("save meta %s: %w", key, err)
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("read meta %s: %w", key, err)
		}
		if stored != want {
			return fmt.Errorf("%w: %s is %q, expected %q", ErrOrdinalMismatch, key, stored, want)
		}
	}
	return nil
}

// SaveProfile writes a profile, replacing any stored profile of the same
// name. It returns the profile's ID, which survives replacement.
func (db *DB) SaveProfile(p *config.Profile) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var id string
	err = tx.Get(&id, "SELECT id FROM profiles WHERE name = ?", p.Name)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		id = uuid.NewString()
	case err != nil:
		return "", fmt.Errorf("lookup profile %q: %w", p.Name, err)
	}

	var surface sql.NullInt16
	if p.Surface != nil {
		surface = sql.NullInt16{Int16: int16(p.Surface.Tag()), Valid: true}
	}

	_, err = tx.Exec(`INSERT INTO profiles (id, name, description, surface, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			description = excluded.description,
			surface = excluded.surface,
			updated_at = excluded.updated_at`,
		id, p.Name, p.Description, surface, time.Now().UnixMilli(),
	)
	if err != nil {
		return "", fmt.Errorf("upsert profile %q: %w", p.Name, err)
	}

	if _, err := tx.Exec("DELETE FROM profile_features WHERE profile_id = ?", id); err != nil {
		return "", err
	}

	stmt, err := tx.Preparex("INSERT INTO profile_features (profile_id, feature, value) VALUES (?, ?, ?)")
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for f, v := range p.Overrides {
		if _, err := stmt.Exec(id, f.Tag(), float64(v)); err != nil {
			return "", fmt.Errorf("insert %s: %w", f, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	slog.Info("profile saved", "name", p.Name, "id", id, "overrides", len(p.Overrides))
	return id, nil
}

// LoadProfile reads a profile by name.
func (db *DB) LoadProfile(name string) (*config.Profile, error) {
	var row profileRow
	err := db.conn.Get(&row, "SELECT id, name, description, surface FROM profiles WHERE name = ?", name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%q: %w", name, ErrProfileNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load profile %q: %w", name, err)
	}

	var rows []featureRow
	err = db.conn.Select(&rows,
		"SELECT feature, value FROM profile_features WHERE profile_id = ? ORDER BY feature", row.ID)
	if err != nil {
		return nil, fmt.Errorf("load features of %q: %w", name, err)
	}

	p := &config.Profile{
		Name:        row.Name,
		Description: row.Description,
		Overrides:   make(map[fabric.FabricFeature]float32, len(rows)),
	}
	if row.Surface.Valid {
		surface, err := fabric.SurfaceFromTag(uint8(row.Surface.Int16))
		if err != nil {
			return nil, fmt.Errorf("profile %q: %w", name, err)
		}
		p.Surface = &surface
	}
	for _, r := range rows {
		f, err := fabric.FeatureFromTag(r.Feature)
		if err != nil {
			return nil, fmt.Errorf("profile %q: %w", name, err)
		}
		p.Overrides[f] = float32(r.Value)
	}
	return p, nil
}

// ListProfiles returns every stored profile, most recently updated first.
func (db *DB) ListProfiles() ([]ProfileInfo, error) {
	var out []ProfileInfo
	err := db.conn.Select(&out, `SELECT p.id, p.name, p.description, p.updated_at,
			(SELECT COUNT(*) FROM profile_features f WHERE f.profile_id = p.id) AS overrides
		FROM profiles p
		ORDER BY p.updated_at DESC, p.name`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	for i := range out {
		out[i].UpdatedAt = time.UnixMilli(out[i].Updated)
	}
	return out, nil
}

// DeleteProfile removes a profile and its overrides.
func (db *DB) DeleteProfile(name string) error {
	res, err := db.conn.Exec("DELETE FROM profiles WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("delete profile %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%q: %w", name, ErrProfileNotFound)
	}
	return nil
}

// SaveMeta stores a key-value pair in fabric metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO fabric_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM fabric_meta WHERE key = ?", key)
	return value, err
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// migrations are applied in order exactly once; the schema_migrations table
// records the highest applied version.
var migrations = []string{
	`CREATE TABLE users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		company TEXT NOT NULL DEFAULT '',
		is_admin INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'pending',
		work_start_minutes INTEGER NOT NULL DEFAULT 420,
		work_end_minutes INTEGER NOT NULL DEFAULT 1200,
		work_days TEXT NOT NULL DEFAULT '1,2,3,4,5',
		end_licence_date TEXT,
		stripe_customer_id TEXT,
		stripe_subscription_id TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE clients (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'actif',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX idx_clients_owner ON clients(owner_id)`,
	`CREATE TABLE projects (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
		owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL,
		first_month TEXT,
		duration_months INTEGER,
		duration_minutes INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'en_attente',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX idx_projects_owner ON projects(owner_id)`,
	`CREATE TABLE plan_items (
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		month TEXT NOT NULL,
		occurrences INTEGER NOT NULL,
		PRIMARY KEY (project_id, position)
	)`,
	`CREATE TABLE chantiers (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		client_id TEXT NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
		owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		month_target TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		date_time TEXT,
		duration_minutes INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX idx_chantiers_owner ON chantiers(owner_id)`,
	`CREATE INDEX idx_chantiers_project ON chantiers(project_id)`,
	`CREATE TABLE calendar_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		client_id TEXT REFERENCES clients(id) ON DELETE SET NULL,
		chantier_id TEXT REFERENCES chantiers(id) ON DELETE CASCADE,
		project_id TEXT REFERENCES projects(id) ON DELETE CASCADE,
		date_time TEXT,
		duration_minutes INTEGER NOT NULL DEFAULT 60,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		recurring INTEGER NOT NULL DEFAULT 0,
		notes TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX idx_events_owner_date ON calendar_events(owner_id, date_time)`,
	`CREATE TABLE sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token TEXT NOT NULL UNIQUE,
		expires_at TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		revoked_at TEXT
	)`,
	`CREATE TABLE support_messages (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		from_admin INTEGER NOT NULL DEFAULT 0,
		content TEXT NOT NULL,
		created_at TEXT NOT NULL,
		read_at TEXT
	)`,
	`CREATE INDEX idx_support_user ON support_messages(user_id, created_at)`,
	`CREATE TABLE client_addresses (
		client_id TEXT NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		street TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		postal_code TEXT NOT NULL DEFAULT '',
		access TEXT NOT NULL DEFAULT '',
		has_key INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (client_id, position)
	)`,
	`CREATE TABLE remarks (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
		owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		content TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX idx_remarks_client ON remarks(client_id, owner_id)`,
	`CREATE TABLE remark_images (
		remark_id TEXT NOT NULL REFERENCES remarks(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		image_ref TEXT NOT NULL,
		PRIMARY KEY (remark_id, position)
	)`,
}

// Migrate brings the schema up to date.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY, applied_at TEXT NOT NULL)`); err != nil {
		return fmt.Errorf("sqlite: create schema_migrations: %w", err)
	}

	var current int
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("sqlite: read schema version: %w", err)
	}

	for version := current + 1; version <= len(migrations); version++ {
		statement := migrations[version-1]
		err := s.withTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, statement); err != nil {
				return fmt.Errorf("sqlite: migration %d: %w", version, err)
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`, version, encodeTime(time.Now())); err != nil {
				return fmt.Errorf("sqlite: record migration %d: %w", version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

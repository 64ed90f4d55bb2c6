package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/sweetpotato0/voyager/archive"
)

// PostgresStore implements archive.Store using PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DefaultPostgresConfig returns default PostgreSQL configuration
func DefaultPostgresConfig() *PostgresConfig {
	return &PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		DBName:   "voyager",
		SSLMode:  "disable",
	}
}

// DSN renders the connection string for lib/pq.
func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// NewPostgresStore connects to PostgreSQL and creates the itineraries table
// if needed.
func NewPostgresStore(ctx context.Context, config *PostgresConfig) (*PostgresStore, error) {
	if config == nil {
		config = DefaultPostgresConfig()
	}

	db, err := sql.Open("postgres", config.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.createTable(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) createTable(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS itineraries (
		id VARCHAR(255) PRIMARY KEY,
		conversation_id VARCHAR(255) NOT NULL,
		package_id VARCHAR(255) NOT NULL,
		package_name TEXT,
		place TEXT,
		round INTEGER NOT NULL DEFAULT 0,
		days JSONB NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_itineraries_conversation ON itineraries(conversation_id, created_at DESC);
	`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// Add inserts an entry; re-adding an id overwrites it
func (s *PostgresStore) Add(ctx context.Context, entry *archive.Entry) error {
	if err := archive.Prepare(entry); err != nil {
		return err
	}
	days, err := json.Marshal(entry.Days)
	if err != nil {
		return fmt.Errorf("failed to marshal days: %w", err)
	}

	query := `
	INSERT INTO itineraries (id, conversation_id, package_id, package_name, place, round, days, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (id) DO UPDATE SET
		package_id = EXCLUDED.package_id,
		package_name = EXCLUDED.package_name,
		place = EXCLUDED.place,
		round = EXCLUDED.round,
		days = EXCLUDED.days
	`
	_, err = s.db.ExecContext(ctx, query,
		entry.ID,
		entry.ConversationID,
		entry.PackageID,
		entry.PackageName,
		entry.Place,
		entry.Round,
		string(days),
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add itinerary to PostgreSQL: %w", err)
	}
	return nil
}

// List returns the entries of a conversation, newest first
func (s *PostgresStore) List(ctx context.Context, conversationID string) ([]*archive.Entry, error) {
	var (
		rows *sql.Rows
		err  error
	)
	const columns = `SELECT id, conversation_id, package_id, package_name, place, round, days, created_at FROM itineraries`
	if conversationID == "" {
		rows, err = s.db.QueryContext(ctx, columns+` ORDER BY created_at DESC`)
	} else {
		rows, err = s.db.QueryContext(ctx, columns+` WHERE conversation_id = $1 ORDER BY created_at DESC`, conversationID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list itineraries: %w", err)
	}
	defer rows.Close()

	entries := make([]*archive.Entry, 0)
	for rows.Next() {
		e := &archive.Entry{}
		var (
			name sql.NullString
			days string
		)
		if err := rows.Scan(&e.ID, &e.ConversationID, &e.PackageID, &name, &e.Place, &e.Round, &days, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan itinerary: %w", err)
		}
		e.PackageName = name.String
		if err := json.Unmarshal([]byte(days), &e.Days); err != nil {
			return nil, fmt.Errorf("failed to unmarshal days: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating itineraries: %w", err)
	}
	return entries, nil
}

// Count returns the number of archived itineraries
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM itineraries").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count itineraries: %w", err)
	}
	return count, nil
}

// Clear removes all itineraries
func (s *PostgresStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM itineraries"); err != nil {
		return fmt.Errorf("failed to clear itineraries: %w", err)
	}
	return nil
}

// Close closes the PostgreSQL connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Ping checks if PostgreSQL connection is alive
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

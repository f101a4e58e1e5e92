// Package sqlite provides the durable implementation of the entity store
// on SQLite. External keys live in a shared entity_keys table whose
// primary key enforces the one-entity-per-(source, external id) invariant
// at the schema level.
package sqlite

import (
	"database/sql"
	"time"

	"github.com/agentstation/utc"

	"github.com/scholarsync/scholarsync/internal/store/db"
	"github.com/scholarsync/scholarsync/pkg/entities"
	"github.com/scholarsync/scholarsync/pkg/errors"
)

// Store is a SQLite-backed entities.Store.
type Store struct {
	db *db.DB
}

// Open opens (and migrates) the database at path and returns a store over
// it.
func Open(path string) (*Store, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(); err != nil {
		database.Close()
		return nil, err
	}
	return &Store{db: database}, nil
}

// New wraps an already-open database.
func New(database *db.DB) *Store {
	return &Store{db: database}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// timeLayout is the column rendering for all timestamps.
const timeLayout = time.RFC3339Nano

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// nullTime renders an optional timestamp as RFC3339, or NULL.
func nullTime(t *utc.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(timeLayout), Valid: true}
}

// scanTime parses an optional RFC3339 timestamp column.
func scanTime(ns sql.NullString) (*utc.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := time.Parse(timeLayout, ns.String)
	if err != nil {
		return nil, err
	}
	u := utc.Time{Time: t.UTC()}
	return &u, nil
}

// mustTime parses a required RFC3339 timestamp column.
func mustTime(s string) (utc.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return utc.Time{}, err
	}
	return utc.Time{Time: t.UTC()}, nil
}

// keysFor loads the external keys attached to an entity.
func keysFor(q querier, id entities.ID) ([]entities.ExternalKey, error) {
	rows, err := q.Query(
		"SELECT source, external_id FROM entity_keys WHERE entity_id = ? ORDER BY source",
		string(id),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []entities.ExternalKey
	for rows.Next() {
		var source, externalID string
		if err := rows.Scan(&source, &externalID); err != nil {
			return nil, err
		}
		keys = append(keys, entities.ExternalKey{Source: entities.Source(source), ExternalID: externalID})
	}
	return keys, rows.Err()
}

// saveKeys replaces the external keys attached to an entity. The table's
// primary key rejects a key already claimed by another entity.
func saveKeys(q querier, id entities.ID, keys []entities.ExternalKey) error {
	if _, err := q.Exec("DELETE FROM entity_keys WHERE entity_id = ?", string(id)); err != nil {
		return err
	}
	for _, k := range keys {
		if _, err := q.Exec(
			"INSERT INTO entity_keys (entity_id, source, external_id) VALUES (?, ?, ?)",
			string(id), string(k.Source), k.ExternalID,
		); err != nil {
			return err
		}
	}
	return nil
}

// entityIDByKey resolves the entity id claiming an external key.
func entityIDByKey(q querier, key entities.ExternalKey) (entities.ID, error) {
	var id string
	err := q.QueryRow(
		"SELECT entity_id FROM entity_keys WHERE source = ? AND external_id = ?",
		string(key.Source), key.ExternalID,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return "", errors.NewNotFoundError("entity key", key.ExternalID)
	}
	if err != nil {
		return "", err
	}
	return entities.ID(id), nil
}

// withTx executes fn within a transaction, committing when fn returns nil.
func (s *Store) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// ensureID assigns a fresh local id when the record carries none.
func ensureID(id *entities.ID) {
	if *id == "" {
		*id = entities.NewID()
	}
}

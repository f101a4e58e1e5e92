package scholarsync

import (
	"github.com/scholarsync/scholarsync/pkg/entities"
	"github.com/scholarsync/scholarsync/pkg/errors"
)

type options struct {
	databasePath string
	store        entities.Store
	auditDiffs   bool
}

// Option configures a Client.
type Option func(*options) error

// WithDatabasePath backs the client with the SQLite database at path,
// creating and migrating it as needed.
func WithDatabasePath(path string) Option {
	return func(o *options) error {
		if path == "" {
			return errors.NewValidationError("database_path", path, "path cannot be empty")
		}
		if o.store != nil {
			return errors.NewValidationError("database_path", path, "conflicts with WithStore")
		}
		o.databasePath = path
		return nil
	}
}

// WithStore backs the client with an existing store. The caller keeps
// ownership; Close will not touch it.
func WithStore(store entities.Store) Option {
	return func(o *options) error {
		if store == nil {
			return errors.NewValidationError("store", nil, "store cannot be nil")
		}
		if o.databasePath != "" {
			return errors.NewValidationError("store", nil, "conflicts with WithDatabasePath")
		}
		o.store = store
		return nil
	}
}

// WithAuditDiffs enables debug-level attribute diffs on every update the
// engine applies.
func WithAuditDiffs(enabled bool) Option {
	return func(o *options) error {
		o.auditDiffs = enabled
		return nil
	}
}

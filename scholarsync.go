// Package scholarsync reconciles scholarly records — people,
// organizations, publications, and memberships — ingested from
// heterogeneous institutional feeds into a single repository.
//
// The Client is the embedding surface: it owns a store and a
// reconciliation engine and drives whole feed files through the batch
// importer. Callers who need finer control can use pkg/importer and
// pkg/reconcile directly.
//
// Example usage:
//
//	client, err := scholarsync.New(scholarsync.WithDatabasePath("scholarsync.db"))
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	report, err := client.ImportFile(ctx, "people.csv", entities.KindPerson, "activity-insight")
package scholarsync

import (
	"context"
	"os"

	"github.com/scholarsync/scholarsync/internal/feeds"
	"github.com/scholarsync/scholarsync/internal/store/memory"
	"github.com/scholarsync/scholarsync/internal/store/sqlite"
	"github.com/scholarsync/scholarsync/pkg/entities"
	"github.com/scholarsync/scholarsync/pkg/importer"
	"github.com/scholarsync/scholarsync/pkg/logging"
	"github.com/scholarsync/scholarsync/pkg/reconcile"
)

// Client ties a store to a reconciliation engine.
type Client struct {
	store  entities.Store
	engine *reconcile.Engine
	closer func() error
}

// New creates a client. Without options it runs on an in-memory store.
func New(opts ...Option) (*Client, error) {
	o := &options{}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	c := &Client{store: o.store}
	if c.store == nil {
		if o.databasePath != "" {
			s, err := sqlite.Open(o.databasePath)
			if err != nil {
				return nil, err
			}
			c.store = s
			c.closer = s.Close
		} else {
			logging.Debug().Msg("no database configured, using in-memory store")
			c.store = memory.New()
		}
	}

	engine, err := reconcile.New(c.store, reconcile.WithAuditDiffs(o.auditDiffs))
	if err != nil {
		if c.closer != nil {
			_ = c.closer()
		}
		return nil, err
	}
	c.engine = engine
	return c, nil
}

// Store returns the client's entity store.
func (c *Client) Store() entities.Store {
	return c.store
}

// Engine returns the client's reconciliation engine.
func (c *Client) Engine() *reconcile.Engine {
	return c.engine
}

// Close releases the underlying store, if the client owns one.
func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

// ImportFile runs one feed file through the batch importer. The feed
// format is inferred from the file extension; use ImportReader to supply
// it explicitly. source names the feed family for external key linkage.
func (c *Client) ImportFile(ctx context.Context, path string, kind entities.Kind, source entities.Source) (*importer.Report, error) {
	format, err := feeds.DetectFormat(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return c.runImport(ctx, format, path, f, kind, source)
}

// Import runs one already-opened feed through the batch importer.
func (c *Client) Import(ctx context.Context, src importer.Source, kind entities.Kind, source entities.Source) (*importer.Report, error) {
	parser, err := feeds.NewParser(kind, source)
	if err != nil {
		return nil, err
	}
	return importer.New(parser, c.engine).Run(ctx, src)
}

func (c *Client) runImport(ctx context.Context, format feeds.Format, name string, f *os.File, kind entities.Kind, source entities.Source) (*importer.Report, error) {
	src, err := feeds.NewSource(format, name, f)
	if err != nil {
		return nil, err
	}
	return c.Import(logging.WithSource(ctx, string(source)), src, kind, source)
}

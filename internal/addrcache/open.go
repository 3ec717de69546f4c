package addrcache

import (
	"context"

	"github.com/rotisserie/eris"
)

// Drivers accepted by Open.
const (
	DriverJSON     = "json"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Migrator is implemented by stores that need a schema.
type Migrator interface {
	Migrate(ctx context.Context) error
}

// Options selects and configures a backend.
type Options struct {
	Driver      string
	Path        string
	DatabaseURL string
}

// Open builds the configured store and applies its schema.
func Open(ctx context.Context, opts Options) (Store, error) {
	var st Store
	switch opts.Driver {
	case DriverJSON, "":
		if opts.Path == "" {
			return nil, eris.New("addrcache: json driver requires a path")
		}
		st = NewJSON(opts.Path)
	case DriverSQLite:
		dsn := opts.DatabaseURL
		if dsn == "" {
			dsn = opts.Path
		}
		s, err := NewSQLite(dsn)
		if err != nil {
			return nil, err
		}
		st = s
	case DriverPostgres:
		s, err := NewPostgres(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, err
		}
		st = s
	case DriverMemory:
		st = NewMemory(nil)
	default:
		return nil, eris.Errorf("addrcache: unsupported driver %q", opts.Driver)
	}

	if m, ok := st.(Migrator); ok {
		if err := m.Migrate(ctx); err != nil {
			st.Close() //nolint:errcheck
			return nil, err
		}
	}
	return st, nil
}

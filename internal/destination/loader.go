// Package destination loads compressed snapshot streams into replication
// targets. Three loader variants share one protocol: a provisioned object
// store (non-transactional, returns a signed URL) and the Redshift and
// Snowflake warehouses (transactional, staged through shared object storage
// and upserted by primary key).
package destination

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mintlify/pipebird-showcase/pkg/database"
	"github.com/mintlify/pipebird-showcase/pkg/models"

	"github.com/mintlify/pipebird-showcase/internal/objectstore"
)

// Loader is the uniform load protocol the orchestrator drives. The
// object-store variant implements the transactional methods as no-ops so the
// calling sequence is identical across variants. Rollback must be safe to
// call at any point after construction.
type Loader interface {
	Begin(ctx context.Context) error
	CreateTable(ctx context.Context) error
	// Stage consumes the compressed CSV stream and makes it available to the
	// destination.
	Stage(ctx context.Context, data io.Reader) error
	Upsert(ctx context.Context) error
	// TearDown removes staging artifacts created by Stage.
	TearDown(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	// ObjectURL returns the signed retrieval URL when the destination
	// produced one, or the empty string.
	ObjectURL() string
	Close() error
}

// Table describes the destination table a transfer loads into. Columns are
// destination-side names in stream order; Primary is the subset forming the
// upsert identity.
type Table struct {
	Name    string
	Columns []string
	Primary []string
}

// MissingCredentialsError reports which destination credential fields are
// absent. It is raised before any connection attempt.
type MissingCredentialsError struct {
	Nickname string
	Fields   []string
}

func (e *MissingCredentialsError) Error() string {
	return fmt.Sprintf("destination %q is missing credentials: %s",
		e.Nickname, strings.Join(e.Fields, ", "))
}

// StagingConfig points warehouse COPY statements at the shared bucket.
// Credentials are embedded in the COPY text because the warehouse reads the
// staged object directly.
type StagingConfig struct {
	Bucket          string
	Prefix          string
	AccessKeyID     string
	SecretAccessKey string
}

// Factory builds the loader variant a destination calls for.
type Factory struct {
	Store   objectstore.Store
	Staging StagingConfig
}

// NewLoader validates the destination and constructs its loader. For
// warehouse types credential validation happens before any dial, and the
// table must map at least one primary key column to key the upsert on.
func (f *Factory) NewLoader(ctx context.Context, dst *models.Destination, table Table) (Loader, error) {
	switch dst.Type {
	case models.DestProvisionedS3:
		return &objectStoreLoader{store: f.Store}, nil

	case models.DestRedshift:
		if err := validateWarehouse(dst, table, true, false); err != nil {
			return nil, err
		}
		db, err := database.ConnectSQL(ctx, "postgres", redshiftDSN(dst))
		if err != nil {
			return nil, fmt.Errorf("destination %q unreachable: %w", dst.Nickname, err)
		}
		return &redshiftLoader{newWarehouseBase(dst, table, f, dbConn{db})}, nil

	case models.DestSnowflake:
		if err := validateWarehouse(dst, table, false, true); err != nil {
			return nil, err
		}
		dsn, err := snowflakeDSN(dst)
		if err != nil {
			return nil, fmt.Errorf("destination %q: %w", dst.Nickname, err)
		}
		db, err := database.ConnectSQL(ctx, "snowflake", dsn)
		if err != nil {
			return nil, fmt.Errorf("destination %q unreachable: %w", dst.Nickname, err)
		}
		return &snowflakeLoader{newWarehouseBase(dst, table, f, dbConn{db})}, nil

	default:
		return nil, fmt.Errorf("unsupported destination type %q", dst.Type)
	}
}

func validateWarehouse(dst *models.Destination, table Table, needPort, needWarehouse bool) error {
	var missing []string
	if dst.Host == "" {
		missing = append(missing, "host")
	}
	if needPort && dst.Port == 0 {
		missing = append(missing, "port")
	}
	if dst.Username == "" {
		missing = append(missing, "username")
	}
	if dst.Password == "" {
		missing = append(missing, "password")
	}
	if dst.Database == "" {
		missing = append(missing, "database")
	}
	if dst.Schema == "" {
		missing = append(missing, "schema")
	}
	if needWarehouse && dst.Warehouse == "" {
		missing = append(missing, "warehouse")
	}
	if len(missing) > 0 {
		return &MissingCredentialsError{Nickname: dst.Nickname, Fields: missing}
	}
	if len(table.Primary) == 0 {
		return fmt.Errorf("destination %q: configuration maps no primary key column to upsert on", dst.Nickname)
	}
	return nil
}

// Package models defines the catalog domain model shared by the transfer
// engine: transfers, shares, configurations, views, sources, destinations,
// results, webhooks and audit log entries.
package models

import "time"

// TransferStatus tracks a transfer through its state machine.
// STARTED and PENDING are non-terminal; the other three are terminal and
// trigger no further processing of that transfer id.
type TransferStatus string

const (
	TransferStarted   TransferStatus = "STARTED"
	TransferPending   TransferStatus = "PENDING"
	TransferComplete  TransferStatus = "COMPLETE"
	TransferFailed    TransferStatus = "FAILED"
	TransferCancelled TransferStatus = "CANCELLED"
)

// Terminal reports whether no further processing may happen for a transfer
// in this status.
func (s TransferStatus) Terminal() bool {
	switch s {
	case TransferComplete, TransferFailed, TransferCancelled:
		return true
	}
	return false
}

// SourceEngine identifies the SQL engine a source speaks.
type SourceEngine string

const (
	EnginePostgres    SourceEngine = "POSTGRES"
	EngineCockroachDB SourceEngine = "COCKROACHDB"
	EngineRedshift    SourceEngine = "REDSHIFT"
	EngineMySQL       SourceEngine = "MYSQL"
	EngineMSSQL       SourceEngine = "MSSQL"
)

// DestinationType discriminates loader variants.
type DestinationType string

const (
	DestProvisionedS3 DestinationType = "PROVISIONED_S3"
	DestRedshift      DestinationType = "REDSHIFT"
	DestSnowflake     DestinationType = "SNOWFLAKE"
)

// Transfer identifies one execution attempt of a share sync.
type Transfer struct {
	ID      string         `bson:"_id" json:"id"`
	Status  TransferStatus `bson:"status" json:"status"`
	ShareID string         `bson:"shareId" json:"shareId"`
}

// Share is a tenant's subscription binding a Configuration to a Destination.
// LastModifiedAt is the watermark; it advances only on a COMPLETE outcome.
type Share struct {
	ID              string    `bson:"_id" json:"id"`
	TenantID        string    `bson:"tenantId" json:"tenantId"`
	DestinationID   string    `bson:"destinationId" json:"destinationId"`
	ConfigurationID string    `bson:"configurationId" json:"configurationId"`
	LastModifiedAt  time.Time `bson:"lastModifiedAt" json:"lastModifiedAt"`
}

// ConfigColumn maps one view column to its name in the destination.
type ConfigColumn struct {
	NameInSource      string `bson:"nameInSource" json:"nameInSource"`
	NameInDestination string `bson:"nameInDestination" json:"nameInDestination"`
	ViewColumn        string `bson:"viewColumn" json:"viewColumn"`
}

// Configuration is a named column mapping over a View.
type Configuration struct {
	ID      string         `bson:"_id" json:"id"`
	ViewID  string         `bson:"viewId" json:"viewId"`
	Columns []ConfigColumn `bson:"columns" json:"columns"`
}

// ViewColumn is one column of the curated projection a View exposes.
type ViewColumn struct {
	Name           string `bson:"name" json:"name"`
	IsLastModified bool   `bson:"isLastModified" json:"isLastModified"`
	IsTenantColumn bool   `bson:"isTenantColumn" json:"isTenantColumn"`
	IsPrimaryKey   bool   `bson:"isPrimaryKey" json:"isPrimaryKey"`
}

// View is the logical, column-curated projection of a source table.
type View struct {
	ID        string       `bson:"_id" json:"id"`
	SourceID  string       `bson:"sourceId" json:"sourceId"`
	TableName string       `bson:"tableName" json:"tableName"`
	Columns   []ViewColumn `bson:"columns" json:"columns"`
}

// Source holds connection parameters for an origin database.
type Source struct {
	ID       string       `bson:"_id" json:"id"`
	Engine   SourceEngine `bson:"engine" json:"engine"`
	Host     string       `bson:"host" json:"host"`
	Port     int          `bson:"port" json:"port"`
	Username string       `bson:"username" json:"username"`
	Password string       `bson:"password" json:"-"`
	Database string       `bson:"database" json:"database"`
	Schema   string       `bson:"schema,omitempty" json:"schema,omitempty"`
}

// Destination holds connection parameters for a replication target.
// Warehouse types carry the full credential set; PROVISIONED_S3 needs none
// beyond the shared object-store configuration.
type Destination struct {
	ID        string          `bson:"_id" json:"id"`
	Nickname  string          `bson:"nickname" json:"nickname"`
	Type      DestinationType `bson:"destinationType" json:"destinationType"`
	Host      string          `bson:"host,omitempty" json:"host,omitempty"`
	Port      int             `bson:"port,omitempty" json:"port,omitempty"`
	Username  string          `bson:"username,omitempty" json:"username,omitempty"`
	Password  string          `bson:"password,omitempty" json:"-"`
	Database  string          `bson:"database,omitempty" json:"database,omitempty"`
	Schema    string          `bson:"schema,omitempty" json:"schema,omitempty"`
	Warehouse string          `bson:"warehouse,omitempty" json:"warehouse,omitempty"`
	TableName string          `bson:"tableName,omitempty" json:"tableName,omitempty"`
}

// TransferResult records the finalized outcome of a transfer, one-to-one by
// transfer id. ObjectURL is set only when the destination produced one.
type TransferResult struct {
	TransferID  string    `bson:"_id" json:"transferId"`
	FinalizedAt time.Time `bson:"finalizedAt" json:"finalizedAt"`
	ObjectURL   string    `bson:"objectUrl,omitempty" json:"objectUrl,omitempty"`
}

// Webhook is a registered listener for finalized-transfer events.
type Webhook struct {
	ID        string `bson:"_id" json:"id"`
	URL       string `bson:"url" json:"url"`
	SecretKey string `bson:"secretKey" json:"-"`
}

// Audit log domains and actions.
const (
	LogDomainDestination = "DESTINATION"
	LogDomainTransfer    = "TRANSFER"

	LogActionDelete = "DELETE"
	LogActionCreate = "CREATE"
)

// LogEntry is an append-only audit record of domain/action/outcome.
type LogEntry struct {
	ID        string    `bson:"_id" json:"id"`
	Domain    string    `bson:"domain" json:"domain"`
	Action    string    `bson:"action" json:"action"`
	Meta      string    `bson:"meta" json:"meta"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

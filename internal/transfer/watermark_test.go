package transfer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mintlify/pipebird-showcase/pkg/models"

	"github.com/mintlify/pipebird-showcase/internal/source"
)

// fakeSourceConn scripts the watermark value and the row stream.
type fakeSourceConn struct {
	dialect      source.Dialect
	watermark    interface{}
	watermarkErr error
	rows         [][]interface{}
	streamErr    error
	queries      []string
	streamArgs   []interface{}
	closed       bool
}

func newFakeConn() *fakeSourceConn {
	d, _ := source.DialectFor(models.EnginePostgres)
	return &fakeSourceConn{dialect: d}
}

func (c *fakeSourceConn) Dialect() source.Dialect { return c.dialect }

func (c *fakeSourceConn) QueryValue(_ context.Context, query string, _ []interface{}) (interface{}, bool, error) {
	c.queries = append(c.queries, query)
	if c.watermarkErr != nil {
		return nil, false, c.watermarkErr
	}
	if c.watermark == nil {
		return nil, false, nil
	}
	return c.watermark, true, nil
}

func (c *fakeSourceConn) Stream(_ context.Context, query string, args []interface{}, fn func([]interface{}) error) error {
	c.queries = append(c.queries, query)
	c.streamArgs = args
	if c.streamErr != nil {
		return c.streamErr
	}
	for _, row := range c.rows {
		if err := fn(row); err != nil {
			return err
		}
	}
	return nil
}

func (c *fakeSourceConn) Close() error { c.closed = true; return nil }

func ordersView() *models.View {
	return &models.View{
		ID:        "view-1",
		SourceID:  "src-1",
		TableName: "orders",
		Columns: []models.ViewColumn{
			{Name: "id", IsPrimaryKey: true},
			{Name: "customer_id", IsTenantColumn: true},
			{Name: "amount"},
			{Name: "updated_at", IsLastModified: true},
		},
	}
}

func ordersConfiguration() *models.Configuration {
	return &models.Configuration{
		ID:     "cfg-1",
		ViewID: "view-1",
		Columns: []models.ConfigColumn{
			{NameInSource: "id", NameInDestination: "id", ViewColumn: "id"},
			{NameInSource: "amount", NameInDestination: "amount_usd", ViewColumn: "amount"},
			{NameInSource: "updated_at", NameInDestination: "updated_at", ViewColumn: "updated_at"},
		},
	}
}

func testShare(watermark time.Time) *models.Share {
	return &models.Share{
		ID:              "share-1",
		TenantID:        "tenant-1",
		DestinationID:   "dst-1",
		ConfigurationID: "cfg-1",
		LastModifiedAt:  watermark,
	}
}

func TestResolveWatermark(t *testing.T) {
	ctx := context.Background()
	conn := newFakeConn()
	conn.watermark = "2024-03-14 08:26:53"

	mark, ok, err := ResolveWatermark(ctx, conn, "public", ordersView(), testShare(time.Time{}))
	if err != nil {
		t.Fatalf("Failed to resolve watermark: %v", err)
	}
	if !ok {
		t.Fatal("Expected a watermark to be found")
	}
	want := time.Date(2024, 3, 14, 8, 26, 53, 0, time.UTC)
	if !mark.Equal(want) {
		t.Errorf("Expected watermark %v, got %v", want, mark)
	}

	wantQuery := `SELECT "updated_at" FROM "public"."orders" WHERE "customer_id" = $1 ORDER BY "updated_at" DESC LIMIT 1`
	if len(conn.queries) != 1 || conn.queries[0] != wantQuery {
		t.Errorf("Expected query %q, got %v", wantQuery, conn.queries)
	}
}

func TestResolveWatermarkTimeValue(t *testing.T) {
	conn := newFakeConn()
	want := time.Date(2024, 3, 14, 9, 26, 53, 0, time.FixedZone("CET", 3600))
	conn.watermark = want

	mark, ok, err := ResolveWatermark(context.Background(), conn, "", ordersView(), testShare(time.Time{}))
	if err != nil || !ok {
		t.Fatalf("Failed to resolve watermark: ok=%v err=%v", ok, err)
	}
	if !mark.Equal(want) {
		t.Errorf("Expected watermark %v, got %v", want, mark)
	}
}

func TestResolveWatermarkNoRows(t *testing.T) {
	conn := newFakeConn()

	_, ok, err := ResolveWatermark(context.Background(), conn, "", ordersView(), testShare(time.Time{}))
	if err != nil {
		t.Fatalf("Expected no error for empty result, got %v", err)
	}
	if ok {
		t.Error("Expected ok=false when the tenant has no rows")
	}
}

func TestResolveWatermarkParseFailure(t *testing.T) {
	conn := newFakeConn()
	conn.watermark = "not-a-timestamp"

	if _, _, err := ResolveWatermark(context.Background(), conn, "", ordersView(), testShare(time.Time{})); err == nil {
		t.Error("Expected parse error for junk watermark value")
	}
}

func TestResolveWatermarkQueryError(t *testing.T) {
	conn := newFakeConn()
	conn.watermarkErr = errors.New("connection reset")

	if _, _, err := ResolveWatermark(context.Background(), conn, "", ordersView(), testShare(time.Time{})); err == nil {
		t.Error("Expected query error to propagate")
	}
}

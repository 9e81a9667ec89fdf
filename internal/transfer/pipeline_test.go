package transfer

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
)

func decodeSnapshot(t *testing.T, r io.Reader) [][]string {
	gz, err := gzip.NewReader(r)
	if err != nil {
		t.Fatalf("Failed to open gzip stream: %v", err)
	}
	records, err := csv.NewReader(gz).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV: %v", err)
	}
	return records
}

func TestSnapshotStream(t *testing.T) {
	mark := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	conn := newFakeConn()
	conn.rows = [][]interface{}{
		{int64(1), "12.50", mark.Add(time.Hour)},
		{int64(2), []byte("99.00"), mark.Add(2 * time.Hour)},
		{int64(3), nil, mark.Add(3 * time.Hour)},
	}

	stream := Snapshot(context.Background(), conn, "public", ordersView(), ordersConfiguration(), testShare(mark))
	defer stream.Close()

	records := decodeSnapshot(t, stream)
	if len(records) != 4 {
		t.Fatalf("Expected header plus 3 rows, got %d records", len(records))
	}

	header := strings.Join(records[0], ",")
	if header != "id,amount_usd,updated_at" {
		t.Errorf("Expected destination names in header, got %q", header)
	}
	if records[1][0] != "1" || records[1][1] != "12.50" || records[1][2] != "2024-03-01T01:00:00Z" {
		t.Errorf("Unexpected first row: %v", records[1])
	}
	if records[2][1] != "99.00" {
		t.Errorf("Expected byte slice rendered as text, got %q", records[2][1])
	}
	if records[3][1] != "" {
		t.Errorf("Expected NULL rendered as empty cell, got %q", records[3][1])
	}

	query := conn.queries[0]
	for _, want := range []string{`"customer_id" = $1`, `"updated_at" > $2`} {
		if !strings.Contains(query, want) {
			t.Errorf("Expected extraction query to contain %q, got %q", want, query)
		}
	}
	if len(conn.streamArgs) != 2 {
		t.Fatalf("Expected 2 bind args, got %d", len(conn.streamArgs))
	}
	if conn.streamArgs[0] != "tenant-1" {
		t.Errorf("Expected tenant filter arg, got %v", conn.streamArgs[0])
	}
	if got, ok := conn.streamArgs[1].(time.Time); !ok || !got.Equal(mark) {
		t.Errorf("Expected watermark arg %v, got %v", mark, conn.streamArgs[1])
	}
}

func TestSnapshotQuotesCSVMetacharacters(t *testing.T) {
	mark := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	tricky := `say "hi", ok` + "\nsecond line"
	conn := newFakeConn()
	conn.rows = [][]interface{}{{int64(1), tricky, mark.Add(time.Hour)}}

	stream := Snapshot(context.Background(), conn, "", ordersView(), ordersConfiguration(), testShare(mark))
	defer stream.Close()

	records := decodeSnapshot(t, stream)
	if len(records) != 2 {
		t.Fatalf("Expected header plus 1 row, got %d records", len(records))
	}
	if records[1][1] != tricky {
		t.Errorf("Expected value to survive CSV round trip, got %q", records[1][1])
	}
}

func TestSnapshotPropagatesStreamError(t *testing.T) {
	conn := newFakeConn()
	conn.streamErr = errors.New("cursor lost")

	stream := Snapshot(context.Background(), conn, "", ordersView(), ordersConfiguration(), testShare(time.Time{}))
	defer stream.Close()

	_, err := io.ReadAll(stream)
	if err == nil || !strings.Contains(err.Error(), "cursor lost") {
		t.Errorf("Expected read to surface the stream error, got %v", err)
	}
}

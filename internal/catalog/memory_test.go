package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mintlify/pipebird-showcase/pkg/models"
)

func seedShareWithTransfer(s *MemoryStore, status models.TransferStatus) {
	s.PutDestination(models.Destination{ID: "dst-1", Nickname: "events lake", Type: models.DestProvisionedS3})
	s.PutShare(models.Share{ID: "share-1", TenantID: "tenant-1", DestinationID: "dst-1"})
	s.PutTransfer(models.Transfer{ID: "tr-1", Status: status, ShareID: "share-1"})
}

func TestClaimTransfer(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.PutTransfer(models.Transfer{ID: "tr-1", Status: models.TransferStarted, ShareID: "share-1"})

	claimed, err := s.ClaimTransfer(ctx, "tr-1")
	if err != nil {
		t.Fatalf("Failed to claim transfer: %v", err)
	}
	if !claimed {
		t.Fatal("Expected first claim to succeed")
	}

	tr, err := s.GetTransfer(ctx, "tr-1")
	if err != nil {
		t.Fatalf("Failed to read transfer: %v", err)
	}
	if tr.Status != models.TransferPending {
		t.Errorf("Expected status PENDING after claim, got %v", tr.Status)
	}

	claimed, err = s.ClaimTransfer(ctx, "tr-1")
	if err != nil {
		t.Fatalf("Second claim returned error: %v", err)
	}
	if claimed {
		t.Error("Expected second claim to lose")
	}

	claimed, err = s.ClaimTransfer(ctx, "missing")
	if err != nil {
		t.Fatalf("Claim of missing transfer returned error: %v", err)
	}
	if claimed {
		t.Error("Expected claim of missing transfer to lose")
	}
}

func TestFinalizeTransfer(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.PutTransfer(models.Transfer{ID: "tr-1", Status: models.TransferPending, ShareID: "share-1"})

	if err := s.FinalizeTransfer(ctx, "tr-1", models.TransferComplete); err != nil {
		t.Fatalf("Failed to finalize transfer: %v", err)
	}
	tr, err := s.GetTransfer(ctx, "tr-1")
	if err != nil {
		t.Fatalf("Failed to read transfer: %v", err)
	}
	if tr.Status != models.TransferComplete {
		t.Errorf("Expected status COMPLETE, got %v", tr.Status)
	}

	if err := s.FinalizeTransfer(ctx, "tr-1", models.TransferPending); err == nil {
		t.Error("Expected error when finalizing with non-terminal status")
	}
	if err := s.FinalizeTransfer(ctx, "missing", models.TransferFailed); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing transfer, got %v", err)
	}
}

func TestUpsertTransferResult(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	first := &models.TransferResult{TransferID: "tr-1", FinalizedAt: time.Now().UTC()}
	if err := s.UpsertTransferResult(ctx, first); err != nil {
		t.Fatalf("Failed to upsert result: %v", err)
	}

	second := &models.TransferResult{
		TransferID:  "tr-1",
		FinalizedAt: time.Now().UTC(),
		ObjectURL:   "https://store.example/signed/abc",
	}
	if err := s.UpsertTransferResult(ctx, second); err != nil {
		t.Fatalf("Failed to upsert result a second time: %v", err)
	}

	got, err := s.GetTransferResult(ctx, "tr-1")
	if err != nil {
		t.Fatalf("Failed to read result: %v", err)
	}
	if got.ObjectURL != second.ObjectURL {
		t.Errorf("Expected second upsert to replace the row, got URL %q", got.ObjectURL)
	}
}

func TestAdvanceShareWatermark(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.PutShare(models.Share{ID: "share-1", TenantID: "tenant-1"})

	mark := time.Date(2024, 3, 14, 8, 26, 53, 0, time.UTC)
	if err := s.AdvanceShareWatermark(ctx, "share-1", mark); err != nil {
		t.Fatalf("Failed to advance watermark: %v", err)
	}

	sh, err := s.GetShare(ctx, "share-1")
	if err != nil {
		t.Fatalf("Failed to read share: %v", err)
	}
	if !sh.LastModifiedAt.Equal(mark) {
		t.Errorf("Expected watermark %v, got %v", mark, sh.LastModifiedAt)
	}

	if err := s.AdvanceShareWatermark(ctx, "missing", mark); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing share, got %v", err)
	}
}

func TestDeleteDestinationBusy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seedShareWithTransfer(s, models.TransferPending)

	err := s.DeleteDestination(ctx, "dst-1")
	if !errors.Is(err, ErrDestinationBusy) {
		t.Fatalf("Expected ErrDestinationBusy, got %v", err)
	}

	if _, err := s.GetDestination(ctx, "dst-1"); err != nil {
		t.Errorf("Expected destination row to remain, got %v", err)
	}

	logs := s.Logs()
	if len(logs) != 1 {
		t.Fatalf("Expected one audit entry, got %d", len(logs))
	}
	if logs[0].Domain != models.LogDomainDestination || logs[0].Action != models.LogActionDelete {
		t.Errorf("Expected DESTINATION/DELETE audit entry, got %s/%s", logs[0].Domain, logs[0].Action)
	}
}

func TestDeleteDestinationAfterTerminalTransfers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seedShareWithTransfer(s, models.TransferComplete)

	if err := s.DeleteDestination(ctx, "dst-1"); err != nil {
		t.Fatalf("Failed to delete destination: %v", err)
	}
	if _, err := s.GetDestination(ctx, "dst-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
	if len(s.Logs()) != 0 {
		t.Errorf("Expected no audit entries for a clean delete, got %d", len(s.Logs()))
	}
}

package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mintlify/pipebird-showcase/pkg/models"
)

// MemoryStore is an in-memory Store used by tests and local runs. It applies
// the same claim and delete-precondition semantics as MongoStore under a
// single mutex.
type MemoryStore struct {
	mu             sync.Mutex
	transfers      map[string]models.Transfer
	shares         map[string]models.Share
	configurations map[string]models.Configuration
	views          map[string]models.View
	sources        map[string]models.Source
	destinations   map[string]models.Destination
	results        map[string]models.TransferResult
	webhooks       []models.Webhook
	logs           []models.LogEntry
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		transfers:      make(map[string]models.Transfer),
		shares:         make(map[string]models.Share),
		configurations: make(map[string]models.Configuration),
		views:          make(map[string]models.View),
		sources:        make(map[string]models.Source),
		destinations:   make(map[string]models.Destination),
		results:        make(map[string]models.TransferResult),
	}
}

// Seeding helpers for tests.

func (s *MemoryStore) PutTransfer(t models.Transfer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transfers[t.ID] = t
}

func (s *MemoryStore) PutShare(sh models.Share) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shares[sh.ID] = sh
}

func (s *MemoryStore) PutConfiguration(c models.Configuration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configurations[c.ID] = c
}

func (s *MemoryStore) PutView(v models.View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views[v.ID] = v
}

func (s *MemoryStore) PutSource(src models.Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[src.ID] = src
}

func (s *MemoryStore) PutDestination(d models.Destination) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destinations[d.ID] = d
}

func (s *MemoryStore) PutWebhook(w models.Webhook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.webhooks = append(s.webhooks, w)
}

// Logs returns a copy of the audit log, oldest first.
func (s *MemoryStore) Logs() []models.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.LogEntry, len(s.logs))
	copy(out, s.logs)
	return out
}

func (s *MemoryStore) GetTransfer(_ context.Context, id string) (*models.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transfers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (s *MemoryStore) GetShare(_ context.Context, id string) (*models.Share, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.shares[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &sh, nil
}

func (s *MemoryStore) GetConfiguration(_ context.Context, id string) (*models.Configuration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.configurations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (s *MemoryStore) GetView(_ context.Context, id string) (*models.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.views[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &v, nil
}

func (s *MemoryStore) GetSource(_ context.Context, id string) (*models.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.sources[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &src, nil
}

func (s *MemoryStore) GetDestination(_ context.Context, id string) (*models.Destination, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.destinations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (s *MemoryStore) GetTransferResult(_ context.Context, transferID string) (*models.TransferResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.results[transferID]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (s *MemoryStore) ListWebhooks(_ context.Context) ([]models.Webhook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Webhook, len(s.webhooks))
	copy(out, s.webhooks)
	return out, nil
}

func (s *MemoryStore) ClaimTransfer(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transfers[id]
	if !ok || t.Status != models.TransferStarted {
		return false, nil
	}
	t.Status = models.TransferPending
	s.transfers[id] = t
	return true, nil
}

func (s *MemoryStore) FinalizeTransfer(_ context.Context, id string, status models.TransferStatus) error {
	if !status.Terminal() {
		return fmt.Errorf("status %q is not terminal", status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transfers[id]
	if !ok {
		return ErrNotFound
	}
	t.Status = status
	s.transfers[id] = t
	return nil
}

func (s *MemoryStore) UpsertTransferResult(_ context.Context, result *models.TransferResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.TransferID] = *result
	return nil
}

func (s *MemoryStore) AdvanceShareWatermark(_ context.Context, shareID string, watermark time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.shares[shareID]
	if !ok {
		return ErrNotFound
	}
	sh.LastModifiedAt = watermark
	s.shares[shareID] = sh
	return nil
}

func (s *MemoryStore) DeleteDestination(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.destinations[id]; !ok {
		return ErrNotFound
	}
	for _, sh := range s.shares {
		if sh.DestinationID != id {
			continue
		}
		for _, t := range s.transfers {
			if t.ShareID == sh.ID && !t.Status.Terminal() {
				s.logs = append(s.logs, models.LogEntry{
					ID:        uuid.NewString(),
					Domain:    models.LogDomainDestination,
					Action:    models.LogActionDelete,
					Meta:      fmt.Sprintf("delete of destination %s rejected: unfinished transfers", id),
					CreatedAt: time.Now().UTC(),
				})
				return ErrDestinationBusy
			}
		}
	}
	delete(s.destinations, id)
	return nil
}

func (s *MemoryStore) AppendLog(_ context.Context, entry *models.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := *entry
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	s.logs = append(s.logs, e)
	return nil
}

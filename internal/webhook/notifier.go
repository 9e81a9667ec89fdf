// Package webhook delivers signed transfer.finalized events to registered
// listeners. Delivery is strictly fire-and-forget: failures are logged and
// swallowed, never retried, and never affect the transfer's outcome.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/mintlify/pipebird-showcase/pkg/logger"
	"github.com/mintlify/pipebird-showcase/pkg/models"

	"github.com/mintlify/pipebird-showcase/internal/catalog"
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body, keyed by
// the webhook's secret.
const SignatureHeader = "X-Pipebird-Signature"

const eventTransferFinalized = "transfer.finalized"

type finalizedObject struct {
	models.Transfer
	FinalizedAt time.Time `json:"finalizedAt"`
	ObjectURL   string    `json:"objectUrl,omitempty"`
}

type envelope struct {
	Type   string          `json:"type"`
	Object finalizedObject `json:"object"`
}

// Notifier posts finalized-transfer events to every registered webhook.
type Notifier struct {
	store   catalog.Store
	client  *http.Client
	limiter *rate.Limiter
}

// NewNotifier builds a notifier with a bounded request timeout and an
// outbound rate cap in deliveries per second. A non-positive rate disables
// the cap.
func NewNotifier(store catalog.Store, timeout time.Duration, perSecond float64) *Notifier {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	return &Notifier{
		store:   store,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, 1),
	}
}

// NotifyFinalized loads the transfer and its result and posts the signed
// envelope to all registered webhooks.
func (n *Notifier) NotifyFinalized(ctx context.Context, transferID string) {
	hooks, err := n.store.ListWebhooks(ctx)
	if err != nil {
		logger.Errorf("Failed to list webhooks for transfer %s: %v", transferID, err)
		return
	}
	if len(hooks) == 0 {
		return
	}

	t, err := n.store.GetTransfer(ctx, transferID)
	if err != nil {
		logger.Errorf("Failed to load transfer %s for webhook delivery: %v", transferID, err)
		return
	}
	obj := finalizedObject{Transfer: *t}
	result, err := n.store.GetTransferResult(ctx, transferID)
	if err != nil && !errors.Is(err, catalog.ErrNotFound) {
		logger.Errorf("Failed to load result for transfer %s: %v", transferID, err)
		return
	}
	if result != nil {
		obj.FinalizedAt = result.FinalizedAt
		obj.ObjectURL = result.ObjectURL
	}

	body, err := json.Marshal(envelope{Type: eventTransferFinalized, Object: obj})
	if err != nil {
		logger.Errorf("Failed to encode webhook body for transfer %s: %v", transferID, err)
		return
	}

	for _, hook := range hooks {
		if err := n.limiter.Wait(ctx); err != nil {
			logger.Warnf("Webhook delivery for transfer %s interrupted: %v", transferID, err)
			return
		}
		if err := n.deliver(ctx, hook, body); err != nil {
			logger.Errorf("Webhook delivery to %s failed for transfer %s: %v", hook.URL, transferID, err)
			continue
		}
		logger.Debugf("Delivered %s event for transfer %s to %s", eventTransferFinalized, transferID, hook.URL)
	}
}

func (n *Notifier) deliver(ctx context.Context, hook models.Webhook, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hook.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, Sign(hook.SecretKey, body))

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return nil
}

// Sign computes the hex HMAC-SHA256 signature listeners verify the body
// against.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Package remote holds the client side of the opaque sync endpoint. The
// endpoint's schema is not owned here; this core only requires that a push
// for the same session id is safe to repeat.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"studycore/internal/logger"
	"studycore/internal/models"
	"studycore/internal/syncqueue"
)

// NewHTTPPusher returns a PushFunc POSTing session records as JSON to the
// given endpoint. A non-2xx response is a push failure and will be retried
// by the queue.
func NewHTTPPusher(endpoint string) syncqueue.PushFunc {
	client := &http.Client{Timeout: 15 * time.Second}
	log := logger.Default().WithPrefix("remote")

	return func(ctx context.Context, snap models.ExamSnapshot) error {
		body, err := json.Marshal(snap)
		if err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("sync endpoint returned %d", resp.StatusCode)
		}
		log.Debug("pushed session %s (%d bytes)", snap.SessionID, len(body))
		return nil
	}
}

// NewNoopPusher returns a PushFunc that accepts every record without sending
// it anywhere. Used when no sync endpoint is configured.
func NewNoopPusher() syncqueue.PushFunc {
	log := logger.Default().WithPrefix("remote")
	return func(_ context.Context, snap models.ExamSnapshot) error {
		log.Debug("no sync endpoint configured, accepting session %s locally", snap.SessionID)
		return nil
	}
}

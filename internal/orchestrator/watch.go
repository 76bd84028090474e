package orchestrator

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/nexliaai/corretor/internal/documents"
	"github.com/nexliaai/corretor/internal/extraction"
	"github.com/nexliaai/corretor/pkg/poll"
)

// Watch tracks a processing document until it leaves processing or the
// attempt budget runs out, in which case the document is expired. When the
// provider supports job queries each attempt asks it for the job state;
// otherwise the watch waits for a callback to move the document. Read and
// finish errors only cost an attempt; a deleted document ends the watch.
func (o *Orchestrator) Watch(ctx context.Context, id uuid.UUID) error {
	poller, _ := o.provider.(extraction.JobPoller)

	check := func(ctx context.Context, attempt int) (bool, error) {
		doc, err := o.docs.Find(ctx, id)
		if errors.Is(err, documents.ErrNotFound) {
			return false, err
		}
		if err != nil {
			o.logger.Warn("watch.read_error", "document_id", id, "attempt", attempt, "error", err)
			return false, nil
		}
		if doc.Status != documents.StatusProcessing {
			return true, nil
		}
		if poller == nil || doc.JobRef == nil {
			return false, nil
		}

		res, err := poller.Poll(ctx, *doc.JobRef)
		if err != nil {
			if errors.Is(err, extraction.ErrPollUnsupported) {
				poller = nil
				return false, nil
			}
			o.logger.Warn("watch.poll_error", "document_id", id, "attempt", attempt, "error", err)
			return false, nil
		}
		if !res.State.Terminal() {
			return false, nil
		}

		if _, err := o.Finish(ctx, id, res); err != nil {
			o.logger.Warn("watch.finish_error", "document_id", id, "attempt", attempt, "error", err)
			return false, nil
		}
		return true, nil
	}

	cfg := poll.Config{Interval: o.cfg.PollInterval, MaxAttempts: o.cfg.PollAttempts}

	attempts, err := poll.Until(ctx, cfg, o.sleeper, check)
	if errors.Is(err, poll.ErrExhausted) {
		_, err = o.Expire(ctx, id, attempts)
	}
	return err
}

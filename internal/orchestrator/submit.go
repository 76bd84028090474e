package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nexliaai/corretor/internal/documents"
	"github.com/nexliaai/corretor/internal/extraction"
	"github.com/nexliaai/corretor/pkg/lifecycle"
)

const queueDepth = 64

// Start launches the dispatch workers on the coordinator. Workers stop when
// the coordinator context ends; documents still queued stay pending.
func (o *Orchestrator) Start(lc *lifecycle.Coordinator) {
	o.lc = lc
	o.queue = make(chan uuid.UUID, o.cfg.Workers*queueDepth)

	for i := range o.cfg.Workers {
		lc.Go(func(ctx context.Context) {
			o.work(ctx, i)
		})
	}

	o.logger.Info(
		"pipeline started",
		"provider", o.provider.Name(),
		"mode", o.cfg.Mode,
		"workers", o.cfg.Workers,
	)
}

func (o *Orchestrator) work(ctx context.Context, worker int) {
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-o.queue:
			if _, err := o.Submit(ctx, id); err != nil {
				o.logger.Warn(
					"dispatch.submit_failed",
					"worker", worker,
					"document_id", id,
					"error", err,
				)
			}
		}
	}
}

// Dispatch queues a pending document for submission. It never blocks: when
// the pipeline is not running or the queue is full the document stays
// pending and can be submitted later.
func (o *Orchestrator) Dispatch(id uuid.UUID) {
	if o.queue == nil {
		o.logger.Warn("dispatch.skipped", "document_id", id, "error", ErrNotStarted)
		return
	}

	select {
	case o.queue <- id:
	default:
		o.logger.Warn("dispatch.queue_full", "document_id", id)
	}
}

// Submit moves a pending document to processing and hands it to the
// provider. An inline result is finished immediately; an accepted job is
// recorded and, in poll mode, watched in the background. Submission errors
// fail the document and are returned.
func (o *Orchestrator) Submit(ctx context.Context, id uuid.UUID) (*StatusView, error) {
	doc, err := o.docs.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status != documents.StatusPending {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, doc.Status)
	}

	ok, err := o.docs.MarkProcessing(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: document left pending concurrently", ErrInvalidStatus)
	}

	start := time.Now()
	res, err := o.submit(ctx, doc)
	if err != nil {
		o.logger.Error(
			"extraction.submit.failed",
			"document_id", id,
			"provider", o.provider.Name(),
			"elapsed_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		if _, ferr := o.docs.MarkFailed(ctx, id, documents.StatusProcessing, err.Error(), nil); ferr != nil {
			return nil, errors.Join(err, ferr)
		}
		return nil, err
	}

	switch res.State {
	case extraction.StateAccepted:
		if res.JobRef != "" {
			if _, err := o.docs.SetJobRef(ctx, id, res.JobRef); err != nil {
				return nil, err
			}
		}
		o.logger.Info("extraction.accepted", "document_id", id, "job_ref", res.JobRef)
		if o.Watching() {
			o.watch(id)
		}
	default:
		if _, err := o.Finish(ctx, id, res); err != nil {
			return nil, err
		}
	}

	return o.Status(ctx, id)
}

func (o *Orchestrator) submit(ctx context.Context, doc *documents.Document) (*extraction.Result, error) {
	category, err := extraction.ParseCategory(doc.Category)
	if err != nil {
		return nil, err
	}

	url, err := o.docs.PresignedURL(ctx, doc.ID, 0)
	if err != nil {
		return nil, err
	}

	prompt, err := extraction.ComposePrompt(ctx, o.overrides, category)
	if err != nil {
		return nil, err
	}

	return o.provider.Submit(ctx, extraction.Submission{
		DocumentID:   doc.ID,
		Category:     category,
		Filename:     doc.Filename,
		ContentType:  doc.ContentType,
		Size:         doc.SizeBytes,
		StorageKey:   doc.StorageKey,
		FileURL:      url,
		Instructions: prompt,
	})
}

func (o *Orchestrator) watch(id uuid.UUID) {
	if o.lc == nil {
		o.logger.Warn("watch.skipped", "document_id", id, "error", ErrNotStarted)
		return
	}
	o.lc.Go(func(ctx context.Context) {
		if err := o.Watch(ctx, id); err != nil && ctx.Err() == nil {
			o.logger.Error("watch.failed", "document_id", id, "error", err)
		}
	})
}

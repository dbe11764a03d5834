// Package worker runs the lease-worker process's background loops: periodic
// reconciliation of dispatched documents against the e-signature provider,
// and the daily reminder sweep.
package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/neela-property/neela-server/internal/lease"
	"github.com/neela-property/neela-server/internal/notify"
	"github.com/neela-property/neela-server/internal/storage"
)

// Poller periodically reconciles every dispatched document. Webhook callbacks
// normally move documents forward faster; the poller is the safety net for
// missed callbacks.
type Poller struct {
	store    storage.Store
	svc      *lease.Service
	notifier notify.Notifier
	interval time.Duration
}

// NewPoller creates a reconciliation poller
func NewPoller(store storage.Store, svc *lease.Service, notifier notify.Notifier, interval time.Duration) *Poller {
	return &Poller{
		store:    store,
		svc:      svc,
		notifier: notifier,
		interval: interval,
	}
}

// Start runs the poll loop and blocks until the context is cancelled
func (p *Poller) Start(ctx context.Context) error {
	log.Info().Dur("interval", p.interval).Msg("Reconciliation poller started")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.runOnce(ctx)
		}
	}
}

// runOnce reconciles all dispatched documents, isolating failures so one bad
// envelope cannot stall the rest
func (p *Poller) runOnce(ctx context.Context) {
	docs, err := p.store.ListDispatchedDocuments(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list dispatched documents")
		return
	}

	for _, doc := range docs {
		notifications, err := p.svc.Reconcile(ctx, doc)
		if err != nil {
			log.Error().
				Err(err).
				Str("document_id", doc.ID.String()).
				Msg("Failed to reconcile document")
			continue
		}

		for _, n := range notifications {
			_ = p.notifier.Send(ctx, n)
		}
	}

	if len(docs) > 0 {
		log.Debug().Int("count", len(docs)).Msg("Reconciliation sweep complete")
	}
}

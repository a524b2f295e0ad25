// Package worker keeps evaluation engines warm by reacting to
// algorithm lifecycle events on the bus.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/interpreter"
	"github.com/opensource-finance/kestrel/internal/routing"
	"github.com/opensource-finance/kestrel/internal/surcharge"
)

// activeAlgorithmTTL matches the API's cache window for active
// algorithms.
const activeAlgorithmTTL = 5 * time.Minute

// Worker loads activated algorithms into the evaluation engines as
// activation events arrive, so multi-node deployments converge without
// waiting for the lazy load on the evaluate path.
type Worker struct {
	bus             domain.EventBus
	repo            domain.Repository
	cache           domain.Cache
	routingEngine   *interpreter.Engine[routing.ConnectorSelection]
	surchargeEngine *interpreter.Engine[surcharge.SurchargeDecisionConfigs]

	subscriptions []domain.Subscription
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

// Config holds worker configuration.
type Config struct {
	// MerchantIDs is the list of merchants to track (empty = none).
	MerchantIDs []string
}

// NewWorker creates a new algorithm activation worker.
func NewWorker(bus domain.EventBus, repo domain.Repository, cache domain.Cache, routingEngine *interpreter.Engine[routing.ConnectorSelection], surchargeEngine *interpreter.Engine[surcharge.SurchargeDecisionConfigs]) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:             bus,
		repo:            repo,
		cache:           cache,
		routingEngine:   routingEngine,
		surchargeEngine: surchargeEngine,
		ctx:             ctx,
		cancel:          cancel,
	}
}

// Start begins tracking activation events for the given merchants.
func (w *Worker) Start(cfg Config) error {
	for _, merchantID := range cfg.MerchantIDs {
		if err := w.startMerchantWorker(merchantID); err != nil {
			slog.Error("failed to start worker for merchant",
				"merchant_id", merchantID,
				"error", err,
			)
			continue
		}
	}

	slog.Info("workers started",
		"merchant_count", len(cfg.MerchantIDs),
	)

	return nil
}

// startMerchantWorker subscribes to activation events for one merchant.
func (w *Worker) startMerchantWorker(merchantID string) error {
	sub, err := w.bus.Subscribe(w.ctx, merchantID, domain.TopicAlgorithmActivated, w.handleActivation)
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("merchant worker started",
		"merchant_id", merchantID,
		"topic", domain.TopicAlgorithmActivated,
	)

	return nil
}

// handleActivation fetches the activated algorithm and installs it.
func (w *Worker) handleActivation(ctx context.Context, msg *domain.Message) error {
	start := time.Now()

	var event domain.AlgorithmEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		slog.Error("failed to parse algorithm event",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	merchantID := event.MerchantID
	if merchantID == "" {
		merchantID = msg.MerchantID
	}

	record, err := w.repo.GetAlgorithm(ctx, merchantID, event.AlgorithmID)
	if err != nil {
		slog.Error("failed to fetch activated algorithm",
			"algorithm_id", event.AlgorithmID,
			"merchant_id", merchantID,
			"error", err,
		)
		return err
	}

	switch record.Kind {
	case domain.AlgorithmRouting:
		var stored routing.Record
		if err := json.Unmarshal(record.Document, &stored); err != nil {
			slog.Error("stored routing algorithm is corrupt", "algorithm_id", record.ID, "error", err)
			return err
		}
		if err := w.routingEngine.LoadProgram(merchantID, &stored.Algorithm); err != nil {
			slog.Error("failed to load routing algorithm", "algorithm_id", record.ID, "error", err)
			return err
		}

	case domain.AlgorithmSurcharge:
		var stored surcharge.SurchargeDecisionManagerRecord
		if err := json.Unmarshal(record.Document, &stored); err != nil {
			slog.Error("stored surcharge config is corrupt", "algorithm_id", record.ID, "error", err)
			return err
		}
		if err := w.surchargeEngine.LoadProgram(merchantID, &stored.Algorithm); err != nil {
			slog.Error("failed to load surcharge config", "algorithm_id", record.ID, "error", err)
			return err
		}

	default:
		slog.Warn("unknown algorithm kind in event",
			"algorithm_id", record.ID,
			"kind", record.Kind,
		)
		return nil
	}

	if w.cache != nil {
		if err := w.cache.SetActiveAlgorithm(ctx, merchantID, record, activeAlgorithmTTL); err != nil {
			slog.Warn("failed to warm algorithm cache",
				"algorithm_id", record.ID,
				"error", err,
			)
		}
	}

	slog.Info("algorithm installed",
		"algorithm_id", record.ID,
		"merchant_id", merchantID,
		"kind", record.Kind,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

// Stop gracefully stops all workers.
func (w *Worker) Stop() error {
	w.cancel()

	// Unsubscribe all
	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	w.wg.Wait()

	slog.Info("workers stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
	}
}

package reconcile

import (
	"context"
	"fmt"

	"finflow/internal/models"
)

// Hook bridges transaction creation to the engine through the dispatcher.
// It implements services.TransactionObserver: the evaluation runs in the
// background, and its failures are logged by the dispatcher rather than
// surfaced to the HTTP caller.
type Hook struct {
	engine     *Engine
	dispatcher *Dispatcher
}

// NewHook creates a transaction-creation hook.
func NewHook(engine *Engine, dispatcher *Dispatcher) *Hook {
	return &Hook{engine: engine, dispatcher: dispatcher}
}

// TransactionCreated enqueues ad-hoc evaluation for a freshly committed
// transaction. Only the id is captured; the engine reloads the record so a
// stale copy is never evaluated.
func (h *Hook) TransactionCreated(transaction *models.Transaction) {
	id := transaction.ID
	h.dispatcher.Enqueue(fmt.Sprintf("transaction-created:%d", id), func(ctx context.Context) error {
		return h.engine.OnTransactionCreated(ctx, id)
	})
}

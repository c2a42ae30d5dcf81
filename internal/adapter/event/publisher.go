package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wallet-transaction-service/internal/core/domain"
	"wallet-transaction-service/internal/core/ports"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// Task type names consumed by the notification worker and the bill-splitting
// domain.
const (
	TaskTransactionCompleted = "transaction:completed"
	TaskTransactionFailed    = "transaction:failed"
	TaskPaymentStatusUpdated = "payment:status-updated"
)

// Publisher implements ports.EventPublisher on an asynq task queue backed by
// Redis. Enqueue failures are returned to the caller, who logs and moves on;
// a lost event never fails a finished transfer.
type Publisher struct {
	client *asynq.Client
	queue  string
	log    zerolog.Logger
}

// NewPublisher creates a Publisher on the given queue.
func NewPublisher(client *asynq.Client, queue string, log zerolog.Logger) *Publisher {
	return &Publisher{client: client, queue: queue, log: log}
}

// transactionEvent is the payload for completed and failed transaction tasks.
type transactionEvent struct {
	TransactionID  string `json:"transaction_id"`
	TransactionRef string `json:"transaction_ref"`
	Type           string `json:"type"`
	Status         string `json:"status"`
	Amount         string `json:"amount"`
	Currency       string `json:"currency"`
	UserID         string `json:"user_id"`
	CounterpartyID string `json:"counterparty_id"`
	FailureReason  string `json:"failure_reason,omitempty"`
	OccurredAt     string `json:"occurred_at"`
}

// TransactionCompleted enqueues a completion notification for one leg.
func (p *Publisher) TransactionCompleted(ctx context.Context, t *domain.Transaction) error {
	return p.enqueue(ctx, TaskTransactionCompleted, p.transactionPayload(t))
}

// TransactionFailed enqueues a failure notification.
func (p *Publisher) TransactionFailed(ctx context.Context, t *domain.Transaction) error {
	return p.enqueue(ctx, TaskTransactionFailed, p.transactionPayload(t))
}

// PaymentStatusUpdated notifies the bill-splitting domain about a linked
// payment outcome.
func (p *Publisher) PaymentStatusUpdated(ctx context.Context, ev ports.PaymentStatusEvent) error {
	payload := map[string]string{
		"split_bill_id":        ev.SplitBillID.String(),
		"split_bill_member_id": ev.SplitBillMemberID.String(),
		"transaction_ref":      ev.TransactionRef,
		"status":               string(ev.Status),
	}
	return p.enqueue(ctx, TaskPaymentStatusUpdated, payload)
}

func (p *Publisher) transactionPayload(t *domain.Transaction) transactionEvent {
	ev := transactionEvent{
		TransactionID:  t.ID.String(),
		TransactionRef: t.TransactionRef,
		Type:           string(t.Type),
		Status:         string(t.Status),
		Amount:         t.Amount.String(),
		Currency:       t.Currency,
		UserID:         t.UserID.String(),
		CounterpartyID: t.CounterpartyUserID.String(),
		OccurredAt:     time.Now().UTC().Format(time.RFC3339),
	}
	if t.FailureReason != nil {
		ev.FailureReason = *t.FailureReason
	}
	return ev
}

func (p *Publisher) enqueue(ctx context.Context, taskType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", taskType, err)
	}

	task := asynq.NewTask(taskType, data)
	info, err := p.client.EnqueueContext(ctx, task, asynq.Queue(p.queue), asynq.MaxRetry(5))
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}

	p.log.Debug().
		Str("task", taskType).
		Str("task_id", info.ID).
		Str("queue", info.Queue).
		Msg("event enqueued")
	return nil
}

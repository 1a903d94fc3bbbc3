package amqp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

func TestDispatchRoutesSyncMessages(t *testing.T) {
	client := &Client{}
	body, err := encodeMessage(messageTypeSync, NewExpenseSyncMessage(42, 1))
	if err != nil {
		t.Fatalf("encodeMessage: %v", err)
	}

	var got *ExpenseSyncMessage
	err = client.dispatch(context.Background(), body,
		func(_ context.Context, msg *ExpenseSyncMessage) error {
			got = msg
			return nil
		},
		func(_ context.Context, _ *ExpenseDeleteMessage) error {
			t.Fatal("delete handler called for sync message")
			return nil
		})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if got == nil || got.ID != 42 || got.Version != 1 {
		t.Errorf("unexpected sync message: %+v", got)
	}
}

func TestDispatchRoutesDeleteMessages(t *testing.T) {
	client := &Client{}
	expense := core.Expense{
		ID:          7,
		UserID:      "alice",
		Amount:      decimal.RequireFromString("120.50"),
		Category:    "food",
		Description: "Lunch",
		CreatedAt:   time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC),
	}
	body, err := encodeMessage(messageTypeDelete, NewExpenseDeleteMessage(expense))
	if err != nil {
		t.Fatalf("encodeMessage: %v", err)
	}

	var got *ExpenseDeleteMessage
	err = client.dispatch(context.Background(), body,
		func(_ context.Context, _ *ExpenseSyncMessage) error {
			t.Fatal("sync handler called for delete message")
			return nil
		},
		func(_ context.Context, msg *ExpenseDeleteMessage) error {
			got = msg
			return nil
		})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if got == nil || got.ID != 7 || got.Amount != "120.5" || got.UserID != "alice" {
		t.Errorf("unexpected delete message: %+v", got)
	}
}

func TestDispatchMalformedMessages(t *testing.T) {
	client := &Client{}
	noop := func(_ context.Context, _ *ExpenseSyncMessage) error { return nil }
	noopDelete := func(_ context.Context, _ *ExpenseDeleteMessage) error { return nil }

	cases := []struct {
		name string
		body []byte
	}{
		{"not json", []byte("garbage")},
		{"missing type", []byte(`{"payload":{}}`)},
		{"unknown type", []byte(`{"type":"expense.unknown","payload":{}}`)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := client.dispatch(context.Background(), tc.body, noop, noopDelete)
			if err == nil || !isMalformed(err) {
				t.Errorf("expected malformed error, got %v", err)
			}
		})
	}
}

func TestDispatchHandlerErrorIsNotMalformed(t *testing.T) {
	client := &Client{}
	body, err := encodeMessage(messageTypeSync, NewExpenseSyncMessage(1, 1))
	if err != nil {
		t.Fatalf("encodeMessage: %v", err)
	}

	handlerErr := errors.New("sheet unavailable")
	err = client.dispatch(context.Background(), body,
		func(_ context.Context, _ *ExpenseSyncMessage) error { return handlerErr },
		func(_ context.Context, _ *ExpenseDeleteMessage) error { return nil })
	if !errors.Is(err, handlerErr) {
		t.Fatalf("expected handler error, got %v", err)
	}
	if isMalformed(err) {
		t.Error("handler error must be requeued, not dropped as malformed")
	}
}

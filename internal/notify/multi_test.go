package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/nvoss/persona-pilot/internal/outcome"
)

type stubNotifier struct {
	err   error
	calls int
}

func (s *stubNotifier) Notify(context.Context, outcome.Composite) error {
	s.calls++
	return s.err
}

func TestMultiNotifierAttemptsAll(t *testing.T) {
	first := &stubNotifier{err: errors.New("first down")}
	second := &stubNotifier{}

	multi := NewMultiNotifier(first, nil, second)
	err := multi.Notify(context.Background(), sampleComposite())
	if err == nil || err.Error() != "first down" {
		t.Fatalf("expected first error returned, got %v", err)
	}
	if first.calls != 1 || second.calls != 1 {
		t.Fatalf("every notifier must be attempted, got %d/%d", first.calls, second.calls)
	}
}

func TestDryRunNotifierSuppressesDelivery(t *testing.T) {
	inner := &stubNotifier{}
	dry := NewDryRunNotifier(zerolog.Nop(), inner)

	if err := dry.Notify(context.Background(), sampleComposite()); err != nil {
		t.Fatalf("Notify error: %v", err)
	}
	if inner.calls != 0 {
		t.Fatalf("dry run must not deliver, inner called %d times", inner.calls)
	}
}

package badge

import (
	"context"
	"testing"

	"recallkit/internal/domain"
	"recallkit/internal/queue"
)

func TestCountMatchesQueueLength(t *testing.T) {
	ctx := context.Background()
	store := queue.NewMemory()
	r := New(store, nil)

	if n, err := r.Count(ctx); err != nil || n != 0 {
		t.Fatalf("Count = %d, %v; want 0, nil", n, err)
	}

	p := domain.CardPayload{Front: "f", Back: "b", DeckID: "d", Source: domain.SourceText}
	item, _ := store.Append(ctx, queue.ActionCreateCard, p)
	store.Append(ctx, queue.ActionCreateCard, p)

	if n, _ := r.Count(ctx); n != 2 {
		t.Errorf("Count = %d, want 2", n)
	}

	store.Remove(ctx, item.ID)
	if n, _ := r.Count(ctx); n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestListenerKeepsLastInSync(t *testing.T) {
	ctx := context.Background()
	store := queue.NewMemory()
	r := New(store, nil)
	store.SetListener(r)

	p := domain.CardPayload{Front: "f", Back: "b", DeckID: "d", Source: domain.SourceText}
	item, _ := store.Append(ctx, queue.ActionCreateCard, p)
	if r.Last() != 1 {
		t.Errorf("Last = %d, want 1", r.Last())
	}

	store.Remove(ctx, item.ID)
	if r.Last() != 0 {
		t.Errorf("Last = %d, want 0", r.Last())
	}
}

package review

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"recallkit/internal/domain"
	"recallkit/internal/fsrs"
	"recallkit/internal/remote"
)

var reviewTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeRemote struct {
	due       []domain.Card
	dueErr    error
	byID      map[string]*domain.Card
	updates   map[string]fsrs.MemoryState
	updateErr error
}

func (f *fakeRemote) InsertCard(context.Context, string, domain.CardPayload) error { return nil }

func (f *fakeRemote) Card(_ context.Context, _, cardID string) (*domain.Card, error) {
	return f.byID[cardID], nil
}

func (f *fakeRemote) DueCards(_ context.Context, _ string, _ time.Time, limit int) ([]domain.Card, error) {
	if f.dueErr != nil {
		return nil, f.dueErr
	}
	if len(f.due) > limit {
		return f.due[:limit], nil
	}
	return f.due, nil
}

func (f *fakeRemote) UpdateMemoryState(_ context.Context, cardID string, m fsrs.MemoryState) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if f.updates == nil {
		f.updates = map[string]fsrs.MemoryState{}
	}
	f.updates[cardID] = m
	return nil
}

func newDriver(t *testing.T, rem *fakeRemote) *Driver {
	t.Helper()
	sched, err := fsrs.NewScheduler(fsrs.Config{})
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	return New(rem, sched, remote.StaticSession{ID: "user-1"},
		func() time.Time { return reviewTime }, slog.New(slog.DiscardHandler))
}

func TestNextReturnsFirstDueCard(t *testing.T) {
	rem := &fakeRemote{due: []domain.Card{
		{ID: "c1", Front: "f1", Memory: fsrs.NewMemoryState(reviewTime)},
		{ID: "c2", Front: "f2", Memory: fsrs.NewMemoryState(reviewTime)},
	}}
	d := newDriver(t, rem)

	card, err := d.Next(context.Background())
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if card == nil || card.ID != "c1" {
		t.Errorf("card = %+v, want c1", card)
	}
}

func TestNextNothingDue(t *testing.T) {
	d := newDriver(t, &fakeRemote{})
	card, err := d.Next(context.Background())
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if card != nil {
		t.Errorf("card = %+v, want nil", card)
	}
}

func TestNextRemoteError(t *testing.T) {
	d := newDriver(t, &fakeRemote{dueErr: errors.New("boom")})
	if _, err := d.Next(context.Background()); err == nil {
		t.Error("Next should propagate the remote error")
	}
}

func TestAnswerSchedulesAndPersists(t *testing.T) {
	rem := &fakeRemote{}
	d := newDriver(t, rem)
	card := &domain.Card{ID: "c1", Memory: fsrs.NewMemoryState(reviewTime)}

	next, err := d.Answer(context.Background(), card, fsrs.Good)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if next.Reps != 1 || next.State != fsrs.Learning {
		t.Errorf("memory state = %+v, want first review in Learning", next)
	}
	persisted, ok := rem.updates["c1"]
	if !ok {
		t.Fatal("memory state was not persisted")
	}
	if persisted != next {
		t.Error("persisted state differs from returned state")
	}
	if card.Memory != next {
		t.Error("card's in-memory state was not updated")
	}
}

func TestAnswerPersistFailureLeavesCardUntouched(t *testing.T) {
	rem := &fakeRemote{updateErr: errors.New("boom")}
	d := newDriver(t, rem)
	before := fsrs.NewMemoryState(reviewTime)
	card := &domain.Card{ID: "c1", Memory: before}

	if _, err := d.Answer(context.Background(), card, fsrs.Good); err == nil {
		t.Fatal("Answer should fail when persistence fails")
	}
	if card.Memory != before {
		t.Error("card memory mutated despite persistence failure")
	}
}

func TestAnswerRejectsInvalidRating(t *testing.T) {
	d := newDriver(t, &fakeRemote{})
	card := &domain.Card{ID: "c1", Memory: fsrs.NewMemoryState(reviewTime)}
	if _, err := d.Answer(context.Background(), card, fsrs.Rating(7)); err == nil {
		t.Error("Answer should reject an out-of-range rating")
	}
}

func TestAnswerByID(t *testing.T) {
	card := &domain.Card{ID: "c1", Memory: fsrs.NewMemoryState(reviewTime)}
	rem := &fakeRemote{byID: map[string]*domain.Card{"c1": card}}
	d := newDriver(t, rem)

	next, err := d.AnswerByID(context.Background(), "c1", fsrs.Easy)
	if err != nil {
		t.Fatalf("AnswerByID: %v", err)
	}
	if next.Reps != 1 {
		t.Errorf("Reps = %d, want 1", next.Reps)
	}
	if _, ok := rem.updates["c1"]; !ok {
		t.Error("memory state was not persisted")
	}
}

func TestAnswerByIDUnknownCard(t *testing.T) {
	d := newDriver(t, &fakeRemote{})
	_, err := d.AnswerByID(context.Background(), "nope", fsrs.Good)
	if !errors.Is(err, ErrCardNotFound) {
		t.Errorf("err = %v, want ErrCardNotFound", err)
	}
}

func TestNoSession(t *testing.T) {
	sched, _ := fsrs.NewScheduler(fsrs.Config{})
	d := New(&fakeRemote{}, sched, remote.StaticSession{}, nil, slog.New(slog.DiscardHandler))
	if _, err := d.Next(context.Background()); err == nil {
		t.Error("Next should fail without a session")
	}
}

package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"lexscribe/deposition-service/internal/models"
)

// fakeActivityStore keeps entries in memory and counts them the way the
// postgres store does.
type fakeActivityStore struct {
	entries   []models.ActivityLogEntry
	countErr  error
	insertErr error
}

func (f *fakeActivityStore) InsertActivity(ctx context.Context, entry models.ActivityLogEntry) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeActivityStore) CountActivity(ctx context.Context, actionType, identifier string, since time.Time) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	count := 0
	for _, entry := range f.entries {
		if entry.ActionType != actionType {
			continue
		}
		if entry.Metadata["identifier"] != identifier {
			continue
		}
		if entry.Created.Before(since) {
			continue
		}
		count++
	}
	return count, nil
}

func newTestLimiter(store ActivityStore) (*Limiter, *time.Time) {
	limiter := NewLimiter(store)
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	return limiter, &now
}

func TestAllowUpToMaxThenDeny(t *testing.T) {
	store := &fakeActivityStore{}
	limiter, _ := newTestLimiter(store)

	for i := 0; i < 5; i++ {
		if !limiter.Allow(context.Background(), ActionSignIn, "reporter@example.com") {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if limiter.Allow(context.Background(), ActionSignIn, "reporter@example.com") {
		t.Fatal("6th attempt within the window should be denied")
	}
}

func TestWindowElapsesAndAllowsAgain(t *testing.T) {
	store := &fakeActivityStore{}
	limiter, now := newTestLimiter(store)

	for i := 0; i < 6; i++ {
		limiter.Allow(context.Background(), ActionSignIn, "reporter@example.com")
	}
	*now = now.Add(61 * time.Second)
	if !limiter.Allow(context.Background(), ActionSignIn, "reporter@example.com") {
		t.Fatal("attempt after the window elapsed should be allowed")
	}
}

func TestIdentifiersAreIndependent(t *testing.T) {
	store := &fakeActivityStore{}
	limiter, _ := newTestLimiter(store)

	for i := 0; i < 6; i++ {
		limiter.Allow(context.Background(), ActionSignIn, "first@example.com")
	}
	if !limiter.Allow(context.Background(), ActionSignIn, "second@example.com") {
		t.Fatal("a different identifier should not share the window")
	}
}

func TestActionsAreIndependent(t *testing.T) {
	store := &fakeActivityStore{}
	limiter, _ := newTestLimiter(store)

	for i := 0; i < 6; i++ {
		limiter.Allow(context.Background(), ActionSignIn, "reporter@example.com")
	}
	if !limiter.Allow(context.Background(), ActionResetPassword, "reporter@example.com") {
		t.Fatal("a different action should not share the window")
	}
}

func TestResetPasswordPolicyIsTighter(t *testing.T) {
	store := &fakeActivityStore{}
	limiter, _ := newTestLimiter(store)

	for i := 0; i < 3; i++ {
		if !limiter.Allow(context.Background(), ActionResetPassword, "reporter@example.com") {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if limiter.Allow(context.Background(), ActionResetPassword, "reporter@example.com") {
		t.Fatal("4th reset attempt should be denied")
	}
}

func TestEveryCallConsumesASlot(t *testing.T) {
	store := &fakeActivityStore{}
	limiter, _ := newTestLimiter(store)

	for i := 0; i < 8; i++ {
		limiter.Allow(context.Background(), ActionSignIn, "reporter@example.com")
	}
	if len(store.entries) != 8 {
		t.Fatalf("expected 8 log entries (denied calls log too), got %d", len(store.entries))
	}
}

func TestCountFailureFailsClosed(t *testing.T) {
	store := &fakeActivityStore{countErr: errors.New("db down")}
	limiter, _ := newTestLimiter(store)

	if limiter.Allow(context.Background(), ActionSignIn, "reporter@example.com") {
		t.Fatal("count failure must deny")
	}
}

func TestInsertFailureStillAllows(t *testing.T) {
	store := &fakeActivityStore{insertErr: errors.New("db down")}
	limiter, _ := newTestLimiter(store)

	if !limiter.Allow(context.Background(), ActionSignIn, "reporter@example.com") {
		t.Fatal("insert failure after a successful count should not deny")
	}
}

func TestUnknownActionDenied(t *testing.T) {
	limiter, _ := newTestLimiter(&fakeActivityStore{})
	if limiter.Allow(context.Background(), "delete_account", "reporter@example.com") {
		t.Fatal("unknown action should be denied")
	}
	if limiter.Allow(context.Background(), "", "reporter@example.com") {
		t.Fatal("empty action should be denied")
	}
	if limiter.Allow(context.Background(), ActionSignIn, "") {
		t.Fatal("empty identifier should be denied")
	}
}

func TestSetPolicyOverride(t *testing.T) {
	store := &fakeActivityStore{}
	limiter, _ := newTestLimiter(store)
	limiter.SetPolicy(ActionSignIn, Policy{MaxAttempts: 2, Window: time.Minute})

	limiter.Allow(context.Background(), ActionSignIn, "reporter@example.com")
	limiter.Allow(context.Background(), ActionSignIn, "reporter@example.com")
	if limiter.Allow(context.Background(), ActionSignIn, "reporter@example.com") {
		t.Fatal("3rd attempt should be denied under the overridden policy")
	}

	// zero values must not clobber the policy
	limiter.SetPolicy(ActionSignIn, Policy{})
	if _, ok := limiter.policies[ActionSignIn]; !ok {
		t.Fatal("policy should survive an invalid override")
	}
}

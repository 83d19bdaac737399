// Package ratelimit counts recent attempts per action and identifier against
// the persisted activity log. It is an advisory, log-scan limiter: every call
// appends a check entry, so each call consumes a slot in the window whether or
// not it is allowed.
package ratelimit

import (
	"context"
	"log"
	"time"

	"lexscribe/deposition-service/internal/models"
)

const (
	ActionSignUp        = "signup"
	ActionSignIn        = "signin"
	ActionResetPassword = "reset_password"
)

type Policy struct {
	MaxAttempts int
	Window      time.Duration
}

// ActivityStore is the slice of the persistence layer the limiter needs.
type ActivityStore interface {
	InsertActivity(ctx context.Context, entry models.ActivityLogEntry) error
	CountActivity(ctx context.Context, actionType, identifier string, since time.Time) (int, error)
}

type Limiter struct {
	store    ActivityStore
	policies map[string]Policy
	now      func() time.Time
}

func NewLimiter(store ActivityStore) *Limiter {
	return &Limiter{
		store: store,
		policies: map[string]Policy{
			ActionSignUp:        {MaxAttempts: 5, Window: time.Minute},
			ActionSignIn:        {MaxAttempts: 5, Window: time.Minute},
			ActionResetPassword: {MaxAttempts: 3, Window: time.Minute},
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

// SetPolicy overrides the policy for an action, for configured knobs.
func (l *Limiter) SetPolicy(action string, policy Policy) {
	if policy.MaxAttempts > 0 && policy.Window > 0 {
		l.policies[action] = policy
	}
}

// Allow reports whether the attempt may proceed. A count-query failure denies
// (fail closed); a failure to append the check entry is logged but does not
// deny, since the count already succeeded. The count-then-insert sequence is
// knowingly non-atomic.
func (l *Limiter) Allow(ctx context.Context, action, identifier string) bool {
	if action == "" || identifier == "" {
		log.Printf("ratelimit: missing action or identifier")
		return false
	}
	policy, ok := l.policies[action]
	if !ok {
		log.Printf("ratelimit: unknown action %q", action)
		return false
	}

	now := l.now()
	count, err := l.store.CountActivity(ctx, action, identifier, now.Add(-policy.Window))
	if err != nil {
		log.Printf("ratelimit: count failed action=%s: %v", action, err)
		return false
	}

	entry := models.ActivityLogEntry{
		ActionType:  action,
		Description: "Rate limit check for " + action,
		Metadata:    map[string]string{"identifier": identifier},
		Created:     now,
	}
	if err := l.store.InsertActivity(ctx, entry); err != nil {
		log.Printf("ratelimit: log insert failed action=%s: %v", action, err)
	}

	return count < policy.MaxAttempts
}

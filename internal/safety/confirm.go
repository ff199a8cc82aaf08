package safety

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

const tokenTTL = 5 * time.Minute

// pendingConfirmation is what a token was issued for.
type pendingConfirmation struct {
	action   string
	subject  string
	issuedAt time.Time
}

// ConfirmationTracker issues single-use, time-limited tokens that an MCP
// client must echo back before a guarded action (such as silencing alerts)
// takes effect. A token is bound to the action and subject it was issued for.
type ConfirmationTracker struct {
	guarded map[string]struct{}
	now     func() time.Time

	mu     sync.Mutex
	tokens map[string]pendingConfirmation
}

// NewConfirmationTracker returns a tracker guarding the named actions. A nil
// or empty slice guards nothing.
func NewConfirmationTracker(guardedActions []string) *ConfirmationTracker {
	ct := &ConfirmationTracker{
		guarded: make(map[string]struct{}, len(guardedActions)),
		now:     time.Now,
		tokens:  make(map[string]pendingConfirmation),
	}
	for _, a := range guardedActions {
		ct.guarded[a] = struct{}{}
	}
	return ct
}

// NeedsConfirmation reports whether action is guarded.
func (ct *ConfirmationTracker) NeedsConfirmation(action string) bool {
	_, ok := ct.guarded[action]
	return ok
}

// RequestConfirmation issues a token for action on subject. Tokens live for
// five minutes.
func (ct *ConfirmationTracker) RequestConfirmation(action, subject string) string {
	token := generateToken()

	ct.mu.Lock()
	defer ct.mu.Unlock()
	ct.sweepExpired()
	ct.tokens[token] = pendingConfirmation{action: action, subject: subject, issuedAt: ct.now()}
	return token
}

// Confirm consumes token and reports whether it was issued for the same
// action and subject and has not expired. A token is removed on first use
// even when it does not match.
func (ct *ConfirmationTracker) Confirm(token, action, subject string) bool {
	if token == "" {
		return false
	}

	ct.mu.Lock()
	defer ct.mu.Unlock()

	pending, ok := ct.tokens[token]
	if !ok {
		return false
	}
	delete(ct.tokens, token)

	if ct.now().Sub(pending.issuedAt) > tokenTTL {
		return false
	}
	return pending.action == action && pending.subject == subject
}

// sweepExpired drops stale tokens. Caller holds ct.mu.
func (ct *ConfirmationTracker) sweepExpired() {
	now := ct.now()
	for token, p := range ct.tokens {
		if now.Sub(p.issuedAt) > tokenTTL {
			delete(ct.tokens, token)
		}
	}
}

func generateToken() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand does not fail on supported platforms.
		panic("safety: crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(b[:])
}

package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// resetTokens issues single-use confirmation tokens for destructive resets.
type resetTokens struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	tokens map[string]time.Time // token -> expiry
}

func newResetTokens(ttl time.Duration) *resetTokens {
	return &resetTokens{ttl: ttl, now: time.Now, tokens: make(map[string]time.Time)}
}

// issue returns a new token and its expiry.
func (t *resetTokens) issue() (string, time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for tok, exp := range t.tokens {
		if now.After(exp) {
			delete(t.tokens, tok)
		}
	}

	tok := uuid.New().String()
	exp := now.Add(t.ttl)
	t.tokens[tok] = exp
	return tok, exp
}

// consume reports whether tok is valid and unexpired, invalidating it.
func (t *resetTokens) consume(tok string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	exp, ok := t.tokens[tok]
	if !ok {
		return false
	}
	delete(t.tokens, tok)
	return !t.now().After(exp)
}

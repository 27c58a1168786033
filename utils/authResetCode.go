package utils

import (
	"CareDesk/cache"
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/pkg/errors"
)

const (
	resetCodeTTL = 15 * time.Minute
	// MaxResetAttempts is how many wrong guesses discard a code.
	MaxResetAttempts = 5
)

// GenerateResetCode generates a random 6-digit reset code.
func GenerateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", errors.Wrap(err, "failed to generate reset code")
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// ResetCodes stores pending password reset codes in redis, or in process
// memory when the cache is disabled.
type ResetCodes struct {
	cache *cache.Cache

	mu    sync.Mutex
	local map[string]localCode
	now   func() time.Time
}

type localCode struct {
	code     string
	expires  time.Time
	failures int
}

func NewResetCodes(c *cache.Cache) *ResetCodes {
	return &ResetCodes{cache: c, local: make(map[string]localCode), now: time.Now}
}

func resetKey(email string) string {
	return "reset_code:" + email
}

func resetAttemptsKey(email string) string {
	return "reset_attempts:" + email
}

// Set stores the code for email for 15 minutes and clears earlier misses.
func (r *ResetCodes) Set(ctx context.Context, email, code string) error {
	if r.cache.Enabled() {
		if err := r.cache.Delete(ctx, resetAttemptsKey(email)); err != nil {
			return err
		}
		return r.cache.Set(ctx, resetKey(email), code, resetCodeTTL)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.local[email] = localCode{code: code, expires: r.now().Add(resetCodeTTL)}
	return nil
}

// Verify reports whether code is the live code for email. Every miss counts
// against the code, which is discarded after MaxResetAttempts misses.
func (r *ResetCodes) Verify(ctx context.Context, email, code string) (bool, error) {
	if r.cache.Enabled() {
		stored, err := r.cache.Get(ctx, resetKey(email))
		if err != nil || stored == "" {
			return false, err
		}
		if codesMatch(stored, code) {
			return true, nil
		}
		misses, err := r.cache.Incr(ctx, resetAttemptsKey(email), resetCodeTTL)
		if err != nil {
			return false, err
		}
		if misses >= MaxResetAttempts {
			return false, r.cache.DeleteBatch(ctx, resetKey(email), resetAttemptsKey(email))
		}
		return false, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.local[email]
	if !ok || r.now().After(c.expires) {
		delete(r.local, email)
		return false, nil
	}
	if codesMatch(c.code, code) {
		return true, nil
	}
	c.failures++
	if c.failures >= MaxResetAttempts {
		delete(r.local, email)
	} else {
		r.local[email] = c
	}
	return false, nil
}

func codesMatch(stored, given string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

func (r *ResetCodes) Delete(ctx context.Context, email string) error {
	if r.cache.Enabled() {
		return r.cache.DeleteBatch(ctx, resetKey(email), resetAttemptsKey(email))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.local, email)
	return nil
}

// Package ratelimit throttles the unauthenticated flow endpoints per client IP
// with a sliding window.
package ratelimit

import (
	"context"
	"time"
)

// Class groups endpoints that share a limit.
type Class string

const (
	// ClassStart covers session creation by browsers.
	ClassStart Class = "start"
	// ClassWallet covers wallet responses posted to /auth.
	ClassWallet Class = "wallet"
	// ClassCallback covers registration callbacks from relying services.
	ClassCallback Class = "callback"
)

// Rule is the number of requests allowed per window.
type Rule struct {
	Limit  int
	Window time.Duration
}

// Policy maps classes to rules. A class without a rule is not limited.
type Policy map[Class]Rule

// DefaultPolicy allows a browser a few flows per minute and leaves room for
// wallets and services retrying.
func DefaultPolicy() Policy {
	return Policy{
		ClassStart:    {Limit: 30, Window: time.Minute},
		ClassWallet:   {Limit: 60, Window: time.Minute},
		ClassCallback: {Limit: 120, Window: time.Minute},
	}
}

// Result describes one admission decision.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the whole number of seconds until the window frees a slot,
// at least one.
func (r Result) RetryAfter(now time.Time) int {
	secs := int(r.ResetAt.Sub(now).Round(time.Second) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

// Store counts requests per key within a sliding window.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}

func bucketKey(class Class, ip string) string {
	return "rl:" + string(class) + ":" + ip
}

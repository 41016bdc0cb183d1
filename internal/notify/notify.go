// Package notify wakes the browser tab waiting on a session once the wallet
// flow finishes, possibly on another broker instance.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	id "didgate/pkg/domain"
)

type Kind string

const (
	KindReady   Kind = "ready"
	KindAborted Kind = "aborted"
)

// Signal is published once per finished flow. RedirectURL is set for aborted
// flows and names the service's logout page.
type Signal struct {
	Kind        Kind   `json:"kind"`
	RedirectURL string `json:"redirect_url,omitempty"`
}

func Ready() Signal { return Signal{Kind: KindReady} }

func Aborted(redirectURL string) Signal {
	return Signal{Kind: KindAborted, RedirectURL: redirectURL}
}

// Channel returns the pub/sub channel for a session: "redirect.<session_id>".
func Channel(sessionID id.SessionID) string {
	return "redirect." + sessionID.String()
}

type Publisher interface {
	Publish(ctx context.Context, sessionID id.SessionID, signal Signal) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, sessionID id.SessionID) (Subscription, error)
}

// Subscription delivers signals until Close or until the subscribing
// context ends; the channel is closed afterwards.
type Subscription interface {
	Signals() <-chan Signal
	Close() error
}

type Notifier interface {
	Publisher
	Subscriber
}

func encode(s Signal) ([]byte, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode signal: %w", err)
	}
	return b, nil
}

func decode(raw string) (Signal, error) {
	var s Signal
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return Signal{}, fmt.Errorf("decode signal: %w", err)
	}
	return s, nil
}

type immediate struct {
	ch chan Signal
}

// Immediate returns a subscription that yields signal once and then ends.
func Immediate(signal Signal) Subscription {
	ch := make(chan Signal, 1)
	ch <- signal
	close(ch)
	return immediate{ch: ch}
}

func (i immediate) Signals() <-chan Signal { return i.ch }
func (immediate) Close() error            { return nil }

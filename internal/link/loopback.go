// Package link provides uplinks for the message exchange.
package link

import (
	"context"
	"sync"

	"git.home.luguber.info/inful/lorasensor/internal/foundation/errors"
)

var (
	ErrNotConnected = errors.ExchangeError("uplink not connected").Build()
	ErrJoinRefused  = errors.ExchangeError("uplink join refused").Build()
)

// Loopback is an in-process uplink that records every frame it sends. It
// stands in for the radio on hosts and in tests.
type Loopback struct {
	mu        sync.Mutex
	connected bool
	session   bool
	joinable  bool
	failSends int
	frames    [][]byte
}

// NewLoopback creates a Loopback that joins on the first Connect.
func NewLoopback() *Loopback {
	return &Loopback{joinable: true}
}

// SetJoinable controls whether Connect succeeds.
func (l *Loopback) SetJoinable(ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.joinable = ok
}

// FailNextSends makes the next n sends fail.
func (l *Loopback) FailNextSends(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failSends = n
}

// Disconnect drops the connection; the session survives.
func (l *Loopback) Disconnect() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.connected = false
}

func (l *Loopback) Connect(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.joinable {
		return ErrJoinRefused
	}
	l.connected = true
	l.session = true
	return nil
}

func (l *Loopback) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.connected
}

// HasSession reports whether the link has joined before.
func (l *Loopback) HasSession(context.Context) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.session
}

func (l *Loopback) Send(_ context.Context, payload []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.connected {
		return ErrNotConnected
	}
	if l.failSends > 0 {
		l.failSends--
		return errors.ExchangeError("loopback send dropped").Build()
	}
	frame := make([]byte, len(payload))
	copy(frame, payload)
	l.frames = append(l.frames, frame)
	return nil
}

// Frames returns a copy of every frame sent so far.
func (l *Loopback) Frames() [][]byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([][]byte, len(l.frames))
	copy(out, l.frames)
	return out
}

func (l *Loopback) Close() error {
	l.Disconnect()
	return nil
}

package confirm

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Kind enumerates the actions that need an explicit confirmation.
type Kind string

// Confirmable actions.
const (
	CloseVoting Kind = "close"
	ResetRound  Kind = "reset"
	WipeRound   Kind = "wipe"
)

// ParseKind validates a kind received from a client.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case CloseVoting, ResetRound, WipeRound:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}
}

// Action is what a token authorises. Round holds the round key for actions
// bound to a specific round and is empty otherwise.
type Action struct {
	Kind  Kind   `json:"action"`
	Round string `json:"round,omitempty"`
}

// node is an entry in the outstanding-token list, newest first.
type node struct {
	token  string
	action Action
	next   *node
}

// Ledger records outstanding confirmation tokens. A token is single use and
// only valid for the action it was issued for. Declining a confirmation is
// simply never consuming the token.
type Ledger struct {
	mu       sync.Mutex
	pending  map[string]*node
	head     *node
	maxSize  int
	size     atomic.Int64
	newToken func() string
}

// NewLedger creates a ledger with configuration options.
func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{
		maxSize:  64,
		newToken: uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.pending = make(map[string]*node)
	return l
}

// Request issues a token for action.
func (l *Ledger) Request(_ context.Context, action Action) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.maxSize > 0 && len(l.pending) >= l.maxSize {
		l.evictOldest()
	}
	n := &node{token: l.newToken(), action: action, next: l.head}
	l.head = n
	l.pending[n.token] = n
	l.size.Add(1)
	return n.token
}

// Consume validates and spends token for action. A token presented for a
// different action is left outstanding.
func (l *Ledger) Consume(_ context.Context, token string, action Action) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	n, ok := l.pending[token]
	if !ok || token == "" {
		return fmt.Errorf("%w: %s", ErrConfirmationRequired, action.Kind)
	}
	if n.action != action {
		return fmt.Errorf("%w: token was issued for %s %s", ErrConfirmationRequired, n.action.Kind, n.action.Round)
	}
	l.unlink(n)
	return nil
}

// Size returns the number of outstanding tokens.
func (l *Ledger) Size() int64 {
	return l.size.Load()
}

// unlink removes n. Must be called with l.mu held.
func (l *Ledger) unlink(n *node) {
	delete(l.pending, n.token)
	if l.head == n {
		l.head = n.next
	} else {
		cur := l.head
		for cur != nil && cur.next != n {
			cur = cur.next
		}
		if cur != nil {
			cur.next = n.next
		}
	}
	n.next = nil
	l.size.Add(-1)
}

// evictOldest removes the tail. Must be called with l.mu held.
func (l *Ledger) evictOldest() {
	if l.head == nil {
		return
	}
	tail := l.head
	for tail.next != nil {
		tail = tail.next
	}
	l.unlink(tail)
}

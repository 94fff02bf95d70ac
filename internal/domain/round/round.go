// Package round defines the fixed, ordered sequence of voting rounds and the
// per-round status flags.
package round

import (
	"fmt"
	"strconv"
	"strings"
)

// ID identifies a round by its position in a Sequence, starting at 0.
type ID int

// Sequence is an immutable ordered list of round keys such as day1, day2, day3.
type Sequence struct {
	keys  []string
	index map[string]ID
}

// NewSequence builds a Sequence from keys. Keys must be non-blank and unique.
func NewSequence(keys ...string) (Sequence, error) {
	if len(keys) == 0 {
		return Sequence{}, fmt.Errorf("%w: at least one round is required", ErrInvalidSequence)
	}
	s := Sequence{
		keys:  make([]string, len(keys)),
		index: make(map[string]ID, len(keys)),
	}
	for i, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			return Sequence{}, fmt.Errorf("%w: round %d has an empty key", ErrInvalidSequence, i+1)
		}
		if _, dup := s.index[k]; dup {
			return Sequence{}, fmt.Errorf("%w: duplicate round key %q", ErrInvalidSequence, k)
		}
		s.keys[i] = k
		s.index[k] = ID(i)
	}
	return s, nil
}

// Days returns the sequence day1..dayN.
func Days(n int) Sequence {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = "day" + strconv.Itoa(i+1)
	}
	s, err := NewSequence(keys...)
	if err != nil {
		panic(err)
	}
	return s
}

// Default is the three day sequence of the reference deployment.
func Default() Sequence { return Days(3) }

// Len returns the number of rounds.
func (s Sequence) Len() int { return len(s.keys) }

// First returns the first round.
func (s Sequence) First() ID { return 0 }

// Last returns the terminal round.
func (s Sequence) Last() ID { return ID(len(s.keys) - 1) }

// Contains reports whether id is in range.
func (s Sequence) Contains(id ID) bool { return id >= 0 && int(id) < len(s.keys) }

// Next returns the round after id, or false when id is the last round.
func (s Sequence) Next(id ID) (ID, bool) {
	if !s.Contains(id) || id == s.Last() {
		return id, false
	}
	return id + 1, true
}

// Key returns the persisted key for id.
func (s Sequence) Key(id ID) string {
	if !s.Contains(id) {
		return "round" + strconv.Itoa(int(id)+1)
	}
	return s.keys[id]
}

// Parse resolves a key to its ID.
func (s Sequence) Parse(key string) (ID, error) {
	id, ok := s.index[strings.TrimSpace(key)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownRound, key)
	}
	return id, nil
}

// Keys returns a copy of the round keys in order.
func (s Sequence) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// All returns every round ID in order.
func (s Sequence) All() []ID {
	out := make([]ID, len(s.keys))
	for i := range out {
		out[i] = ID(i)
	}
	return out
}

// Through returns the rounds from the first up to and including id.
func (s Sequence) Through(id ID) []ID {
	if !s.Contains(id) {
		return nil
	}
	return s.All()[:id+1]
}

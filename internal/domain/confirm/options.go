// Package confirm implements the two-phase confirmation protocol for
// destructive admin actions.
package confirm

// Option applies a configuration option to the Ledger.
type Option func(*Ledger)

// WithMaxSize sets how many outstanding tokens are kept. When full, the
// oldest token is evicted. A size <= 0 keeps every token.
func WithMaxSize(maxSize int) Option {
	return func(l *Ledger) {
		l.maxSize = maxSize
	}
}

// WithTokenSource replaces the token generator.
func WithTokenSource(next func() string) Option {
	return func(l *Ledger) {
		if next != nil {
			l.newToken = next
		}
	}
}

package round

// Phase is the lifecycle position of a round derived from its Status.
type Phase int

// Round phases. A round moves Open -> Closed -> Published and re-enters Open
// only when it is wiped.
const (
	Open Phase = iota
	Closed
	Published
)

func (p Phase) String() string {
	switch p {
	case Open:
		return "open"
	case Closed:
		return "closed"
	case Published:
		return "published"
	default:
		return "unknown"
	}
}

// Status holds the two persisted flags of a round.
// Published implies Closed.
type Status struct {
	Closed    bool `json:"closed"`
	Published bool `json:"published"`
}

// Phase maps the flags onto the lifecycle.
func (s Status) Phase() Phase {
	switch {
	case s.Published:
		return Published
	case s.Closed:
		return Closed
	default:
		return Open
	}
}

// Valid reports whether the flags respect published => closed.
func (s Status) Valid() bool { return !s.Published || s.Closed }

// Normalized returns s with the published => closed invariant restored.
func (s Status) Normalized() Status {
	if s.Published {
		s.Closed = true
	}
	return s
}

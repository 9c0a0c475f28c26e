// Package refcode issues unique, human-readable reference codes for catalogued images.
//
// Ordered codes look like REF-000123. With per-day reset enabled the counter
// restarts every calendar day and the date is carried in the code, for example
// 20261019-REF-000001.
package refcode

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	Delimiter   = "-"
	DateLayout  = "20060102"
	sequenceLen = 6
)

// Config holds the allocator settings supplied by the configuration loader
type Config struct {
	Prefix     string
	DailyReset bool
}

// Allocator hands out monotonically increasing codes. It is safe for concurrent use.
type Allocator struct {
	mu sync.Mutex

	prefix    string
	daily     bool
	counter   int
	lastReset string
	now       func() time.Time
}

type Option func(*Allocator)

// WithClock overrides the time source used for per-day resets
func WithClock(now func() time.Time) Option {
	return func(a *Allocator) {
		a.now = now
	}
}

func New(cfg Config, opts ...Option) *Allocator {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "REF"
	}

	a := &Allocator{
		prefix: prefix,
		daily:  cfg.DailyReset,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.lastReset = a.today()
	return a
}

func (a *Allocator) today() string {
	return a.now().Format(DateLayout)
}

// Next returns the next code
func (a *Allocator) Next() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.daily {
		if today := a.today(); today != a.lastReset {
			a.counter = 0
			a.lastReset = today
		}
	}

	a.counter++
	code := fmt.Sprintf("%s%s%0*d", a.prefix, Delimiter, sequenceLen, a.counter)
	if a.daily {
		code = a.lastReset + Delimiter + code
	}
	return code
}

// Counter returns the sequence number of the most recently issued code
func (a *Allocator) Counter() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.counter
}

// Restore advances the counter past every code that this allocator could
// have issued, so that codes stay unique across process restarts.
func (a *Allocator) Restore(codes ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	today := a.today()
	if a.daily && today != a.lastReset {
		a.counter = 0
		a.lastReset = today
	}

	for _, raw := range codes {
		code := Parse(raw)
		if code.Prefix != a.prefix {
			continue
		}

		switch {
		case a.daily && code.Kind == KindTimestamp && code.Date.Format(DateLayout) == a.lastReset:
		case !a.daily && code.Kind == KindOrdered:
		default:
			continue
		}

		if code.Sequence > a.counter {
			a.counter = code.Sequence
		}
	}
}

// Kind classifies a parsed code
type Kind int

const (
	KindUnknown Kind = iota
	KindOrdered
	KindTimestamp
)

func (k Kind) String() string {
	switch k {
	case KindOrdered:
		return "ordered"
	case KindTimestamp:
		return "timestamp"
	default:
		return "unknown"
	}
}

// Code is the decomposed form of a reference code
type Code struct {
	Raw      string
	Kind     Kind
	Prefix   string
	Date     time.Time
	Sequence int
}

// Parse decomposes a code. Malformed input yields KindUnknown rather than an error.
func Parse(raw string) Code {
	code := Code{Raw: raw, Kind: KindUnknown}
	parts := strings.Split(strings.TrimSpace(raw), Delimiter)

	switch len(parts) {
	case 2:
		seq, ok := parseSequence(parts[1])
		if !ok || parts[0] == "" {
			return code
		}
		code.Kind = KindOrdered
		code.Prefix = parts[0]
		code.Sequence = seq

	case 3:
		// PREFIX-YYYYMMDD-NNNNNN
		if date, ok := parseDate(parts[1]); ok && parts[0] != "" {
			seq, ok := parseSequence(parts[2])
			if !ok {
				return code
			}
			code.Kind = KindTimestamp
			code.Prefix = parts[0]
			code.Date = date
			code.Sequence = seq
			return code
		}

		// YYYYMMDD-PREFIX-NNNNNN
		if date, ok := parseDate(parts[0]); ok && parts[1] != "" {
			seq, ok := parseSequence(parts[2])
			if !ok {
				return code
			}
			code.Kind = KindTimestamp
			code.Prefix = parts[1]
			code.Date = date
			code.Sequence = seq
		}
	}

	return code
}

// Validate reports whether raw parses as a known code form
func Validate(raw string) bool {
	return Parse(raw).Kind != KindUnknown
}

func parseSequence(value string) (int, bool) {
	if value == "" {
		return 0, false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	seq, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	return seq, true
}

func parseDate(value string) (time.Time, bool) {
	if len(value) != len(DateLayout) {
		return time.Time{}, false
	}
	date, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}

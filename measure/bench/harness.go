package bench

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Errors returned by [Harness] methods.
var (
	ErrNoNames        = errors.New("bench: no operation names")
	ErrEmptyName      = errors.New("bench: empty operation name")
	ErrDuplicateName  = errors.New("bench: duplicate operation name")
	ErrUnknownName    = errors.New("bench: unknown operation name")
	ErrNotStarted     = errors.New("bench: end without matching begin")
	ErrAlreadyStarted = errors.New("bench: begin while measurement is running")
	ErrNoMeasurements = errors.New("bench: no measurements")
)

// maxPrealloc bounds the sample capacity reserved per record up front. Larger
// policies grow the slice as samples arrive.
const maxPrealloc = 4096

type record struct {
	name    string
	samples []time.Duration
	start   time.Time
	running bool
}

// Harness records per-iteration durations for a fixed set of named operations.
type Harness struct {
	records []*record
	index   map[string]*record
	policy  Policy
	now     func() time.Time
}

// Option configures a Harness.
type Option func(*Harness)

// WithPolicy sets the stopping rule. The default is [DefaultPolicy].
func WithPolicy(p Policy) Option {
	return func(h *Harness) {
		h.policy = p
	}
}

// WithClock replaces [time.Now] as the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(h *Harness) {
		if now != nil {
			h.now = now
		}
	}
}

// New creates a Harness for names, keeping their order.
func New(names []string, opts ...Option) (*Harness, error) {
	if len(names) == 0 {
		return nil, ErrNoNames
	}

	h := &Harness{
		records: make([]*record, 0, len(names)),
		index:   make(map[string]*record, len(names)),
		policy:  DefaultPolicy(),
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}

	if err := h.policy.Validate(); err != nil {
		return nil, err
	}

	for _, name := range names {
		if name == "" {
			return nil, ErrEmptyName
		}
		if _, ok := h.index[name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
		r := &record{
			name:    name,
			samples: make([]time.Duration, 0, min(h.policy.MaxIterations, maxPrealloc)),
		}
		h.records = append(h.records, r)
		h.index[name] = r
	}

	return h, nil
}

// Names returns the operation names in construction order.
func (h *Harness) Names() []string {
	names := make([]string, len(h.records))
	for i, r := range h.records {
		names[i] = r.name
	}
	return names
}

// Policy returns the stopping rule in use.
func (h *Harness) Policy() Policy { return h.policy }

func (h *Harness) lookup(name string) (*record, error) {
	r, ok := h.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownName, name)
	}
	return r, nil
}

// Begin records the start timestamp of one iteration of name.
func (h *Harness) Begin(name string) error {
	r, err := h.lookup(name)
	if err != nil {
		return err
	}
	if r.running {
		return fmt.Errorf("%w: %q", ErrAlreadyStarted, name)
	}

	r.running = true
	r.start = h.now()
	return nil
}

// End appends the time elapsed since the matching Begin to name's record.
func (h *Harness) End(name string) error {
	stop := h.now()

	r, err := h.lookup(name)
	if err != nil {
		return err
	}
	if !r.running {
		return fmt.Errorf("%w: %q", ErrNotStarted, name)
	}

	r.running = false
	r.samples = append(r.samples, stop.Sub(r.start))
	return nil
}

// IsComplete reports whether every operation satisfies the stopping rule and
// no measurement is in progress.
func (h *Harness) IsComplete() bool {
	for _, r := range h.records {
		if !h.recordComplete(r) {
			return false
		}
	}
	return true
}

func (h *Harness) recordComplete(r *record) bool {
	if r.running {
		return false
	}

	n := len(r.samples)
	if n >= h.policy.MaxIterations {
		return true
	}
	if !h.policy.Stable() || n < h.policy.MinIterations || n < h.policy.Window {
		return false
	}

	return variation(r.samples[n-h.policy.Window:]) <= h.policy.Tolerance
}

// Count returns the number of samples recorded for name.
func (h *Harness) Count(name string) (int, error) {
	r, err := h.lookup(name)
	if err != nil {
		return 0, err
	}
	return len(r.samples), nil
}

// Samples returns a copy of the durations recorded for name.
func (h *Harness) Samples(name string) ([]time.Duration, error) {
	r, err := h.lookup(name)
	if err != nil {
		return nil, err
	}
	out := make([]time.Duration, len(r.samples))
	copy(out, r.samples)
	return out, nil
}

// Average returns the arithmetic mean of the durations recorded for name.
func (h *Harness) Average(name string) (time.Duration, error) {
	r, err := h.lookup(name)
	if err != nil {
		return 0, err
	}
	if len(r.samples) == 0 {
		return 0, fmt.Errorf("%w: %q", ErrNoMeasurements, name)
	}
	return mean(r.samples), nil
}

// Run repeats Begin, fn, End for name until name satisfies the stopping rule,
// and returns its summary. Other operations are not waited for.
func (h *Harness) Run(name string, fn func()) (Summary, error) {
	r, err := h.lookup(name)
	if err != nil {
		return Summary{}, err
	}

	for !h.recordComplete(r) {
		if err := h.Begin(name); err != nil {
			return Summary{}, err
		}
		fn()
		if err := h.End(name); err != nil {
			return Summary{}, err
		}
	}

	return h.Summary(name)
}

// mean computes the integer mean of d; d must not be empty.
func mean(d []time.Duration) time.Duration {
	var sum time.Duration
	for _, v := range d {
		sum += v
	}
	return sum / time.Duration(len(d))
}

// variation returns the coefficient of variation of d, or 0 when its mean is 0.
func variation(d []time.Duration) float64 {
	x := seconds(d)
	m, sd := stat.MeanStdDev(x, nil)
	if m == 0 {
		return 0
	}
	return sd / m
}

func seconds(d []time.Duration) []float64 {
	x := make([]float64, len(d))
	for i, v := range d {
		x[i] = v.Seconds()
	}
	return x
}

// Summary describes the durations recorded for one operation.
type Summary struct {
	Name    string
	Count   int
	Average time.Duration
	StdDev  time.Duration
	Min     time.Duration
	Max     time.Duration
}

// Summary returns count, mean, sample standard deviation, minimum and maximum
// for name.
func (h *Harness) Summary(name string) (Summary, error) {
	r, err := h.lookup(name)
	if err != nil {
		return Summary{}, err
	}
	if len(r.samples) == 0 {
		return Summary{Name: name}, fmt.Errorf("%w: %q", ErrNoMeasurements, name)
	}

	s := Summary{
		Name:    name,
		Count:   len(r.samples),
		Average: mean(r.samples),
		Min:     slices.Min(r.samples),
		Max:     slices.Max(r.samples),
	}
	if len(r.samples) > 1 {
		s.StdDev = fromSeconds(stat.StdDev(seconds(r.samples), nil))
	}
	return s, nil
}

func fromSeconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

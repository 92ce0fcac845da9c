package param

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// WarningHandler receives EncodingErrors for parameters dropped from a hit
type WarningHandler func(err *EncodingError)

// collection keeps parameters by name in insertion order
type collection struct {
	order  []string
	params map[string]*Parameter
}

func newCollection() *collection {
	return &collection{params: make(map[string]*Parameter)}
}

func (c *collection) put(p *Parameter) {
	if _, exists := c.params[p.Name]; !exists {
		c.order = append(c.order, p.Name)
	}
	c.params[p.Name] = p
}

func (c *collection) remove(name string) {
	if _, exists := c.params[name]; !exists {
		return
	}
	delete(c.params, name)
	for i, n := range c.order {
		if n == name {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// snapshot copies the parameters so closures can be evaluated without holding the lock
func (c *collection) snapshot() []*Parameter {
	out := make([]*Parameter, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.params[name].clone())
	}
	return out
}

// Buffer accumulates the parameters of the next hit.
// All methods are safe for concurrent use; the lock is held for one operation only.
type Buffer struct {
	volatile   *collection
	persistent *collection
	onWarning  WarningHandler
	mu         sync.Mutex
}

// BufferOption configures a Buffer
type BufferOption func(*Buffer)

// WithWarningHandler routes dropped-parameter warnings to h instead of the logger
func WithWarningHandler(h WarningHandler) BufferOption {
	return func(b *Buffer) {
		b.onWarning = h
	}
}

// NewBuffer creates an empty buffer
func NewBuffer(opts ...BufferOption) *Buffer {
	b := &Buffer{
		volatile:   newCollection(),
		persistent: newCollection(),
		onWarning: func(err *EncodingError) {
			logrus.WithFields(logrus.Fields{
				"parameter": err.Name,
				"type":      err.Type.String(),
			}).Warnf("parameter dropped from hit: %v", err.Err)
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Buffer) collection(c Collection) *collection {
	if c == Persistent {
		return b.persistent
	}
	return b.volatile
}

// Set stores value under name. Without opts.Append any previous values are replaced
// and the parameter keeps its position; with opts.Append it behaves like Append.
func (b *Buffer) Set(c Collection, name string, value Closure, opts Options) error {
	if err := validate(name, value); err != nil {
		return err
	}
	if opts.Append {
		return b.Append(c, name, value, opts)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.collection(c).put(&Parameter{
		Name:    name,
		Values:  []Closure{value},
		Options: opts,
	})
	return nil
}

// Append adds value to the named parameter, creating it if absent.
// The stored parameter always ends up with Append set.
func (b *Buffer) Append(c Collection, name string, value Closure, opts Options) error {
	if err := validate(name, value); err != nil {
		return err
	}
	opts.Append = true

	b.mu.Lock()
	defer b.mu.Unlock()

	coll := b.collection(c)
	if existing, ok := coll.params[name]; ok {
		existing.Values = append(existing.Values, value)
		existing.Options = opts
		return nil
	}
	coll.put(&Parameter{
		Name:    name,
		Values:  []Closure{value},
		Options: opts,
	})
	return nil
}

// Unset removes the named parameter. Removing an absent parameter is a no-op.
func (b *Buffer) Unset(c Collection, name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.collection(c).remove(name)
}

// Get returns a copy of the named parameter
func (b *Buffer) Get(c Collection, name string) (Parameter, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.collection(c).params[name]
	if !ok {
		return Parameter{}, false
	}
	return *p.clone(), true
}

// Names returns parameter names in insertion order
func (b *Buffer) Names(c Collection) []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	coll := b.collection(c)
	out := make([]string, len(coll.order))
	copy(out, coll.order)
	return out
}

// Len returns the number of parameters in a collection
func (b *Buffer) Len(c Collection) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.collection(c).order)
}

// ClearVolatile removes every volatile parameter
func (b *Buffer) ClearVolatile() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.volatile = newCollection()
}

// Flatten encodes one collection in insertion order.
// Parameters that fail to encode are reported to the warning handler and left out.
func (b *Buffer) Flatten(c Collection) []Pair {
	b.mu.Lock()
	params := b.collection(c).snapshot()
	b.mu.Unlock()

	return b.encode(params)
}

// FlattenHit encodes persistent then volatile parameters as one hit.
// A volatile parameter overrides a persistent one of the same name in place.
// RelativeFirst and RelativeLast parameters are moved to the edges.
func (b *Buffer) FlattenHit() []Pair {
	b.mu.Lock()
	params := mergeForHit(b.persistent.snapshot(), b.volatile.snapshot())
	b.mu.Unlock()

	return b.encode(params)
}

// TakeHit flattens the hit and clears the volatile collection in one step,
// so a parameter set concurrently lands either in this hit or in the next one.
func (b *Buffer) TakeHit() []Pair {
	b.mu.Lock()
	params := mergeForHit(b.persistent.snapshot(), b.volatile.snapshot())
	b.volatile = newCollection()
	b.mu.Unlock()

	return b.encode(params)
}

func (b *Buffer) encode(params []*Parameter) []Pair {
	pairs := make([]Pair, 0, len(params))
	for _, p := range params {
		value, err := encodeParameter(p)
		if err != nil {
			if b.onWarning != nil {
				b.onWarning(&EncodingError{Name: p.Name, Type: p.Options.Type, Err: err})
			}
			continue
		}
		pairs = append(pairs, Pair{Name: p.Name, Value: value})
	}
	return pairs
}

func mergeForHit(persistent, volatile []*Parameter) []*Parameter {
	merged := make([]*Parameter, 0, len(persistent)+len(volatile))
	index := make(map[string]int, len(persistent))
	for _, p := range persistent {
		index[p.Name] = len(merged)
		merged = append(merged, p)
	}
	for _, p := range volatile {
		if i, exists := index[p.Name]; exists {
			merged[i] = p
			continue
		}
		merged = append(merged, p)
	}

	var first, middle, last []*Parameter
	for _, p := range merged {
		switch p.Options.Relative {
		case RelativeFirst:
			first = append(first, p)
		case RelativeLast:
			last = append(last, p)
		default:
			middle = append(middle, p)
		}
	}
	out := append(first, middle...)
	return append(out, last...)
}

func validate(name string, value Closure) error {
	if name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidName)
	}
	if value == nil {
		return fmt.Errorf("%w: parameter %q", ErrNilValue, name)
	}
	return nil
}

package txn

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/roach88/ontostore/internal/ir"
	"github.com/roach88/ontostore/internal/notify"
)

var (
	// ErrNoScope is raised (by panic) when a scope is closed but none is open.
	ErrNoScope = errors.New("no open scope")

	// ErrScopeMismatch is raised (by panic) when the innermost open scope is
	// of a different kind than the one being closed.
	ErrScopeMismatch = errors.New("scope mismatch")
)

// Deliverer receives flushed changes. *notify.Notifier implements it.
type Deliverer interface {
	Deliver(notify.Change)
}

// Kind distinguishes the two scope kinds.
type Kind int

const (
	// KindChange is a StartChange/StopChange scope.
	KindChange Kind = iota + 1
	// KindQuery is a QueryBegin/QueryCommit scope.
	KindQuery
)

func (k Kind) String() string {
	switch k {
	case KindChange:
		return "change"
	case KindQuery:
		return "query"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

type pendingKey struct {
	owner    ir.ID
	property string
}

// frame holds the pending changes of one open scope.
type frame struct {
	kind    Kind
	changes []notify.Change
	seen    map[pendingKey]struct{}
	byOwner map[ir.ID]int // query frames only: owner -> index into changes
}

func newFrame(kind Kind) *frame {
	f := &frame{
		kind: kind,
		seen: make(map[pendingKey]struct{}),
	}
	if kind == KindQuery {
		f.byOwner = make(map[ir.ID]int)
	}
	return f
}

// add merges c, dropping properties already pending for the owner.
// Returns how many properties were coalesced away.
func (f *frame) add(c notify.Change) int {
	fresh := make([]string, 0, len(c.Properties))
	for _, p := range c.Properties {
		k := pendingKey{owner: c.Owner, property: p}
		if _, dup := f.seen[k]; dup {
			continue
		}
		f.seen[k] = struct{}{}
		fresh = append(fresh, p)
	}
	dropped := len(c.Properties) - len(fresh)
	if len(fresh) == 0 {
		return dropped
	}

	if f.kind == KindQuery {
		if i, ok := f.byOwner[c.Owner]; ok {
			f.changes[i].Properties = append(f.changes[i].Properties, fresh...)
			return dropped
		}
		f.byOwner[c.Owner] = len(f.changes)
	}
	f.changes = append(f.changes, notify.Change{Owner: c.Owner, Properties: fresh})
	return dropped
}

// Stats counts coordinator activity since construction.
type Stats struct {
	// Queued is the number of Queue calls.
	Queued uint64
	// Coalesced is the number of queued (owner, property) pairs absorbed by
	// an already pending notification.
	Coalesced uint64
	// Delivered is the number of Change values handed to the deliverer.
	Delivered uint64
}

// Coordinator tracks open scopes and pending notifications.
type Coordinator struct {
	sink   Deliverer
	logger zerolog.Logger
	frames []*frame
	depth  [KindQuery + 1]int
	stats  Stats
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger used for scope diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// New creates a coordinator that flushes into sink.
// A nil sink discards flushed changes.
func New(sink Deliverer, opts ...Option) *Coordinator {
	c := &Coordinator{
		sink:   sink,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartChange opens a change scope. Change scopes are reentrant.
func (c *Coordinator) StartChange() {
	c.open(KindChange)
}

// StopChange closes the innermost scope, which must be a change scope.
// Panics with ErrNoScope or ErrScopeMismatch otherwise.
func (c *Coordinator) StopChange() {
	c.close(KindChange)
}

// QueryBegin opens a query scope.
func (c *Coordinator) QueryBegin() {
	c.open(KindQuery)
}

// QueryCommit closes the innermost scope, which must be a query scope.
// The aggregate is delivered now if no other scope is open, otherwise it
// is deferred to the enclosing scope.
//
// A deferred aggregate is not kept whole. Properties the enclosing scope
// already holds for the owner stay in that earlier pending change, and
// only the remaining properties travel on as one change of their own.
func (c *Coordinator) QueryCommit() {
	c.close(KindQuery)
}

// Change runs fn inside a change scope. The scope is closed even if fn
// returns an error or panics; fn's error is returned unchanged.
func (c *Coordinator) Change(fn func() error) error {
	c.StartChange()
	defer c.StopChange()
	return fn()
}

// Query runs fn inside a query scope. See Change.
func (c *Coordinator) Query(fn func() error) error {
	c.QueryBegin()
	defer c.QueryCommit()
	return fn()
}

// Queue records a write of property on owner.
// With no scope open the change is delivered immediately.
func (c *Coordinator) Queue(owner ir.ID, property string) {
	c.stats.Queued++
	change := notify.Change{Owner: owner, Properties: []string{property}}

	if len(c.frames) == 0 {
		c.deliver([]notify.Change{change})
		return
	}
	c.stats.Coalesced += uint64(c.frames[len(c.frames)-1].add(change))
}

// ChangeDepth returns the number of open change scopes.
func (c *Coordinator) ChangeDepth() int {
	return c.depth[KindChange]
}

// QueryDepth returns the number of open query scopes.
func (c *Coordinator) QueryDepth() int {
	return c.depth[KindQuery]
}

// Depth returns the total number of open scopes.
func (c *Coordinator) Depth() int {
	return len(c.frames)
}

// Pending returns a copy of the changes waiting in the innermost scope.
func (c *Coordinator) Pending() []notify.Change {
	if len(c.frames) == 0 {
		return nil
	}
	top := c.frames[len(c.frames)-1]
	out := make([]notify.Change, len(top.changes))
	for i, ch := range top.changes {
		out[i] = notify.Change{
			Owner:      ch.Owner,
			Properties: append([]string(nil), ch.Properties...),
		}
	}
	return out
}

// Stats returns activity counters.
func (c *Coordinator) Stats() Stats {
	return c.stats
}

func (c *Coordinator) open(kind Kind) {
	c.frames = append(c.frames, newFrame(kind))
	c.depth[kind]++
}

func (c *Coordinator) close(kind Kind) {
	if len(c.frames) == 0 {
		c.logger.Error().Str("scope", kind.String()).Msg("close with no open scope")
		panic(fmt.Errorf("txn: close %s scope: %w", kind, ErrNoScope))
	}

	top := c.frames[len(c.frames)-1]
	if top.kind != kind {
		c.logger.Error().
			Str("scope", kind.String()).
			Str("open", top.kind.String()).
			Msg("close does not match innermost scope")
		panic(fmt.Errorf("txn: close %s scope while %s scope is innermost: %w", kind, top.kind, ErrScopeMismatch))
	}

	c.frames[len(c.frames)-1] = nil
	c.frames = c.frames[:len(c.frames)-1]
	c.depth[kind]--

	if len(c.frames) == 0 {
		c.deliver(top.changes)
		return
	}

	parent := c.frames[len(c.frames)-1]
	for _, ch := range top.changes {
		c.stats.Coalesced += uint64(parent.add(ch))
	}
}

// deliver hands changes to the sink. The frame is already popped, so
// handlers that write to the store open fresh scopes of their own.
func (c *Coordinator) deliver(changes []notify.Change) {
	if len(changes) == 0 {
		return
	}
	c.logger.Debug().Int("changes", len(changes)).Msg("flushing notifications")
	for _, ch := range changes {
		c.stats.Delivered++
		if c.sink != nil {
			c.sink.Deliver(ch)
		}
	}
}

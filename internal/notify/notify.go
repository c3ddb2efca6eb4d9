// Package notify delivers property-change notifications to observers.
//
// Observers attach to one record (owner id) and one logical property name,
// or to every property of that record with the "*" wildcard. Global sinks
// (journals, metrics, test traces) attach with SubscribeAll and see every
// delivered change.
//
// A Change carries names only, never before/after values. Consumers re-read
// current state from the store.
//
// The notifier is not safe for concurrent use. It runs on the goroutine
// that owns the store.
package notify

import (
	"slices"

	"github.com/rs/zerolog"

	"github.com/roach88/ontostore/internal/ir"
)

// Wildcard subscribes to every property of an owner.
const Wildcard = "*"

// Change is one delivered notification.
//
// Properties lists the changed logical property names in first-write
// order. A change scope produces one Change per (owner, property); a query
// scope aggregates all properties written on one owner into one Change.
type Change struct {
	Owner      ir.ID
	Properties []string
}

// Property returns the first changed property, or "" if there is none.
func (c Change) Property() string {
	if len(c.Properties) == 0 {
		return ""
	}
	return c.Properties[0]
}

// Has reports whether property is among the changed properties.
func (c Change) Has(property string) bool {
	return slices.Contains(c.Properties, property)
}

// Handler processes a delivered change.
// A returned error is logged and counted; it never stops delivery.
type Handler func(Change) error

// Subscription is an attached observer.
type Subscription struct {
	notifier  *Notifier
	owner     ir.ID
	property  string
	handler   Handler
	global    bool
	cancelled bool
}

// Cancel detaches the observer. Safe to call more than once, and safe to
// call from inside a handler during delivery; a cancelled observer is not
// called again, even later in the same delivery.
func (s *Subscription) Cancel() {
	if s == nil || s.cancelled {
		return
	}
	s.cancelled = true
	s.notifier.detach(s)
}

// Active reports whether the subscription is still attached.
func (s *Subscription) Active() bool {
	return s != nil && !s.cancelled
}

func (s *Subscription) matches(c Change) bool {
	if s.global {
		return true
	}
	if s.owner != c.Owner {
		return false
	}
	return s.property == Wildcard || c.Has(s.property)
}

// Notifier routes changes to subscriptions.
type Notifier struct {
	byOwner  map[ir.ID][]*Subscription
	global   []*Subscription
	logger   zerolog.Logger
	failures uint64
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithLogger sets the logger used to report handler failures.
func WithLogger(logger zerolog.Logger) Option {
	return func(n *Notifier) {
		n.logger = logger
	}
}

// New creates a notifier with no subscriptions.
func New(opts ...Option) *Notifier {
	n := &Notifier{
		byOwner: make(map[ir.ID][]*Subscription),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Subscribe attaches handler to one owner and property.
// Use Wildcard as property to observe every property of the owner.
func (n *Notifier) Subscribe(owner ir.ID, property string, handler Handler) *Subscription {
	sub := &Subscription{
		notifier: n,
		owner:    owner,
		property: property,
		handler:  handler,
	}
	n.byOwner[owner] = append(n.byOwner[owner], sub)
	return sub
}

// SubscribeAll attaches handler to every change regardless of owner.
func (n *Notifier) SubscribeAll(handler Handler) *Subscription {
	sub := &Subscription{
		notifier: n,
		handler:  handler,
		global:   true,
	}
	n.global = append(n.global, sub)
	return sub
}

// Deliver calls every matching handler once.
//
// Owner observers run first, in subscription order, followed by global
// sinks in subscription order. Subscriptions added during delivery do not
// see the change being delivered.
func (n *Notifier) Deliver(c Change) {
	n.logger.Debug().
		Uint32("owner", uint32(c.Owner)).
		Strs("properties", c.Properties).
		Msg("change delivered")

	// Snapshot so handlers may subscribe and cancel freely.
	matched := slices.Clone(n.byOwner[c.Owner])
	matched = append(matched, n.global...)

	for _, sub := range matched {
		if sub.cancelled || !sub.matches(c) {
			continue
		}
		if err := sub.handler(c); err != nil {
			n.failures++
			n.logger.Error().
				Err(err).
				Uint32("owner", uint32(c.Owner)).
				Strs("properties", c.Properties).
				Msg("change handler error")
		}
	}
}

// HasSubscribers reports whether a change to owner would reach any
// observer, global sinks included.
func (n *Notifier) HasSubscribers(owner ir.ID) bool {
	return len(n.byOwner[owner]) > 0 || len(n.global) > 0
}

// Len returns the number of active subscriptions.
func (n *Notifier) Len() int {
	total := len(n.global)
	for _, subs := range n.byOwner {
		total += len(subs)
	}
	return total
}

// Failures returns how many handler calls returned an error.
func (n *Notifier) Failures() uint64 {
	return n.failures
}

func (n *Notifier) detach(sub *Subscription) {
	if sub.global {
		n.global = slices.DeleteFunc(n.global, func(s *Subscription) bool { return s == sub })
		return
	}
	subs := slices.DeleteFunc(n.byOwner[sub.owner], func(s *Subscription) bool { return s == sub })
	if len(subs) == 0 {
		delete(n.byOwner, sub.owner)
		return
	}
	n.byOwner[sub.owner] = subs
}

package harness

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/roach88/ontostore/internal/ir"
	"github.com/roach88/ontostore/internal/metrics"
	"github.com/roach88/ontostore/internal/notify"
	"github.com/roach88/ontostore/internal/schema"
	"github.com/roach88/ontostore/internal/store"
)

// Harness executes scenarios against fresh stores.
type Harness struct {
	logger  zerolog.Logger
	sinks   []notify.Handler
	factory SinkFactory
	metrics *metrics.Collector
}

// SinkFactory opens a per-scenario sink once the scenario's schema
// fingerprint is known.
type SinkFactory func(scenario, schemaHash string) (notify.Handler, error)

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger passed to every store. Defaults to zerolog.Nop().
func WithLogger(logger zerolog.Logger) Option {
	return func(h *Harness) {
		h.logger = logger
	}
}

// WithSink adds a global notification sink to every scenario's store,
// subscribed after the trace recorder.
func WithSink(handler notify.Handler) Option {
	return func(h *Harness) {
		h.sinks = append(h.sinks, handler)
	}
}

// WithSinkFactory opens one extra sink per scenario, subscribed after the
// sinks added with WithSink.
func WithSinkFactory(f SinkFactory) Option {
	return func(h *Harness) {
		h.factory = f
	}
}

// WithMetrics records store activity and deliveries into c.
func WithMetrics(c *metrics.Collector) Option {
	return func(h *Harness) {
		h.metrics = c
	}
}

// New creates a harness.
func New(opts ...Option) *Harness {
	h := &Harness{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario with a default harness.
func Run(scenario *Scenario) (*Result, error) {
	return New().Run(scenario)
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh registry and store, so record ids
// start at 1 and traces are reproducible.
//
// Execution flow:
// 1. Register CUE and inline tables
// 2. Build the store and attach the trace recorder and sinks
// 3. Execute flow steps with expect validation
// 4. Evaluate assertions
//
// The returned error reports scenarios that cannot execute (bad tables,
// unknown aliases). Failed expectations are reported in Result.Errors.
func (h *Harness) Run(scenario *Scenario) (*Result, error) {
	reg, err := buildRegistry(scenario)
	if err != nil {
		return nil, fmt.Errorf("load tables: %w", err)
	}

	opts := []store.Option{store.WithLogger(h.logger)}
	if h.metrics != nil {
		opts = append(opts, store.WithMetrics(h.metrics))
	}
	st := store.New(reg, opts...)

	r := &run{
		store:   st,
		result:  NewResult(),
		aliases: make(map[string]ir.ID),
		names:   make(map[ir.ID]string),
		logger:  h.logger.With().Str("scenario", scenario.Name).Logger(),
	}

	st.Notifier().SubscribeAll(r.record(EventChange))
	if h.metrics != nil {
		st.Notifier().SubscribeAll(h.metrics.Handler())
	}
	for _, sink := range h.sinks {
		st.Notifier().SubscribeAll(sink)
	}
	if h.factory != nil {
		sink, err := h.factory(scenario.Name, reg.Fingerprint())
		if err != nil {
			return nil, fmt.Errorf("open sink: %w", err)
		}
		st.Notifier().SubscribeAll(sink)
	}

	if err := r.steps("flow", scenario.Flow); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	for _, msg := range EvaluateAssertions(r.result, scenario.Assertions, r.context()) {
		r.result.AddError(msg)
	}

	for alias, id := range r.aliases {
		r.result.Records[alias] = uint32(id)
	}

	r.logger.Debug().
		Bool("pass", r.result.Pass).
		Int("events", len(r.result.Trace)).
		Msg("scenario finished")
	return r.result, nil
}

func buildRegistry(scenario *Scenario) (*schema.Registry, error) {
	reg := schema.NewRegistry()
	for _, dir := range scenario.Tables {
		tables, err := schema.LoadDir(dir)
		if err != nil {
			return nil, err
		}
		if err := schema.RegisterAll(reg, tables); err != nil {
			return nil, err
		}
	}
	for _, def := range scenario.Schema {
		t, err := def.Table()
		if err != nil {
			return nil, err
		}
		if err := reg.Register(t); err != nil {
			return nil, fmt.Errorf("register %s: %w", def.Name, err)
		}
	}
	return reg, nil
}

// run is the state of one scenario execution.
type run struct {
	store   *store.Store
	result  *Result
	aliases map[string]ir.ID
	names   map[ir.ID]string
	logger  zerolog.Logger
}

// record returns a handler that appends deliveries to the trace.
func (r *run) record(eventType string) notify.Handler {
	return func(c notify.Change) error {
		r.result.add(TraceEvent{
			Type:       eventType,
			Record:     r.aliasOf(c.Owner),
			Properties: append([]string(nil), c.Properties...),
		})
		return nil
	}
}

func (r *run) aliasOf(id ir.ID) string {
	if alias, ok := r.names[id]; ok {
		return alias
	}
	return "#" + id.String()
}

func (r *run) bind(alias string, id ir.ID) {
	r.aliases[alias] = id
	r.names[id] = alias
}

func (r *run) context() *AssertionContext {
	return &AssertionContext{Store: r.store, Records: r.aliases}
}

func (r *run) id(alias string) (ir.ID, error) {
	id, ok := r.aliases[alias]
	if !ok {
		return ir.NoID, fmt.Errorf("unknown record %q", alias)
	}
	return id, nil
}

func (r *run) steps(path string, steps []Step) error {
	for i := range steps {
		at := fmt.Sprintf("%s[%d]", path, i)
		if err := r.step(at, &steps[i]); err != nil {
			return fmt.Errorf("%s: %w", at, err)
		}
	}
	return nil
}

func (r *run) step(at string, s *Step) error {
	switch s.Op {
	case OpChange, OpQuery:
		return r.scope(at, s)
	case OpWatch:
		id, err := r.id(s.Record)
		if err != nil {
			return err
		}
		property := s.Property
		if property == "" {
			property = notify.Wildcard
		}
		r.store.Notifier().Subscribe(id, property, r.record(EventObserved))
		return nil
	case OpCreate, OpLoad:
		return r.create(at, s)
	case OpSelect, OpSelectAll, OpCount, OpContains:
		return r.read(at, s)
	default:
		return r.write(at, s)
	}
}

func (r *run) scope(at string, s *Step) error {
	coord := r.store.Coordinator()
	fn := coord.Change
	if s.Op == OpQuery {
		fn = coord.Query
	}

	r.result.add(TraceEvent{Type: EventScope, Op: s.Op, Result: "open"})
	err := fn(func() error {
		return r.steps(at+".steps", s.Steps)
	})
	r.result.add(TraceEvent{Type: EventScope, Op: s.Op, Result: "close"})
	return err
}

func (r *run) create(at string, s *Step) error {
	if _, taken := r.aliases[s.Record]; taken {
		return fmt.Errorf("record %q already bound", s.Record)
	}

	idx := r.result.add(TraceEvent{Type: EventOp, Op: s.Op, Record: s.Record})

	var (
		id  ir.ID
		res store.Result
	)
	switch {
	case s.Op == OpLoad:
		id = ir.ID(s.ID)
		res = r.store.Load(id)
	case s.Name != "":
		id, res = r.store.CreateNamed(s.Name)
	default:
		id, res = r.store.Create(), store.Success
	}
	if res.OK() {
		r.bind(s.Record, id)
	}

	r.result.Trace[idx].Result = res.String()
	r.checkResult(at, s.Expect, res.String())
	return nil
}

// write executes a mutating operation. Schema violations are recovered and
// compared against expect.panic.
func (r *run) write(at string, s *Step) error {
	id, err := r.id(s.Record)
	if err != nil {
		return err
	}

	var v ir.Value
	switch s.Op {
	case OpUpdate, OpInsert, OpRemove:
		if v, err = r.value(s); err != nil {
			return err
		}
	}

	idx := r.result.add(TraceEvent{
		Type:   EventOp,
		Op:     s.Op,
		Record: s.Record,
		Table:  s.Table,
		Column: s.Column,
	})

	var res store.Result
	code := guard(func() {
		switch s.Op {
		case OpUpdate:
			res = r.store.Update(id, s.Table, s.Column, v)
		case OpInsert:
			res = r.store.Insert(id, s.Table, s.Column, v)
		case OpRemove:
			res = r.store.Remove(id, s.Table, s.Column, v)
		case OpRemoveColumn:
			res = r.store.RemoveColumn(id, s.Table, s.Column)
		case OpRemoveAll:
			res = r.store.RemoveAll(id, s.Table)
		case OpRemoveRecord:
			res = r.store.RemoveRecord(id)
		}
	})

	if code != "" {
		r.result.Trace[idx].Result = code
		r.checkPanic(at, s.Expect, code)
		return nil
	}
	r.result.Trace[idx].Result = res.String()
	r.checkPanic(at, s.Expect, "")
	r.checkResult(at, s.Expect, res.String())
	return nil
}

// read executes a query operation and checks its outcome. Reads are not
// traced.
func (r *run) read(at string, s *Step) error {
	id, err := r.id(s.Record)
	if err != nil {
		return err
	}

	var probe ir.Value
	if s.Op == OpContains {
		if probe, err = r.value(s); err != nil {
			return err
		}
	}

	var (
		got    ir.Value
		all    []ir.Value
		count  int
		found  bool
		column *schema.Column
	)
	code := guard(func() {
		switch s.Op {
		case OpSelect:
			got = r.store.Select(id, s.Table, s.Column)
		case OpSelectAll:
			all = r.store.SelectAll(id, s.Table, s.Column)
		case OpCount:
			count = r.store.Count(id, s.Table, s.Column)
		case OpContains:
			found = r.store.Contains(id, s.Table, s.Column, probe)
		}
	})
	r.checkPanic(at, s.Expect, code)
	if code != "" || s.Expect == nil {
		return nil
	}
	column, _ = r.store.Registry().Column(s.Table, s.Column)

	e := s.Expect
	switch s.Op {
	case OpSelect:
		if e.Null {
			if !ir.IsNull(got) {
				r.result.AddError(fmt.Sprintf("%s: expected null, got %s", at, ir.Format(got)))
			}
			return nil
		}
		if e.Value == nil {
			return nil
		}
		want, err := r.expected(column, e.Value)
		if err != nil {
			return err
		}
		if got != want {
			r.result.AddError(fmt.Sprintf("%s: expected %s, got %s", at, ir.Format(want), ir.Format(got)))
		}
	case OpSelectAll:
		if e.Values == nil {
			return nil
		}
		want := make([]ir.Value, len(e.Values))
		for i, raw := range e.Values {
			if want[i], err = r.expected(column, raw); err != nil {
				return err
			}
		}
		if !equalValues(want, all) {
			r.result.AddError(fmt.Sprintf("%s: expected %s, got %s", at, formatValues(want), formatValues(all)))
		}
	case OpCount:
		if e.Count != nil && *e.Count != count {
			r.result.AddError(fmt.Sprintf("%s: expected count %d, got %d", at, *e.Count, count))
		}
	case OpContains:
		if e.Found != nil && *e.Found != found {
			r.result.AddError(fmt.Sprintf("%s: expected found=%t, got %t", at, *e.Found, found))
		}
	}
	return nil
}

// value resolves a step's operand against the column's declared type.
//
// Values that do not coerce are passed through with their natural type so
// that the store reports the mismatch. Unknown columns get Null; the store
// rejects the column before looking at the value.
func (r *run) value(s *Step) (ir.Value, error) {
	if s.Null {
		return ir.Null{}, nil
	}
	column, err := r.store.Registry().Column(s.Table, s.Column)
	if err != nil {
		return ir.Null{}, nil
	}
	return r.expected(column, s.Value)
}

func (r *run) expected(column *schema.Column, raw any) (ir.Value, error) {
	if column == nil {
		return natural(raw)
	}
	if alias, ok := raw.(string); ok && column.Type == ir.TypeRef {
		id, err := r.id(alias)
		if err != nil {
			return nil, err
		}
		return ir.Ref(id), nil
	}
	if v, err := ir.Coerce(column.Type, raw); err == nil {
		return v, nil
	}
	return natural(raw)
}

// natural converts a decoded YAML scalar into the value of its own type.
func natural(raw any) (ir.Value, error) {
	switch v := raw.(type) {
	case nil:
		return ir.Null{}, nil
	case string:
		return ir.String(v), nil
	case int:
		return ir.Int(v), nil
	case int64:
		return ir.Int(v), nil
	case float64:
		return ir.Float(v), nil
	case bool:
		return ir.Bool(v), nil
	default:
		return nil, fmt.Errorf("unsupported value %T (%v)", raw, raw)
	}
}

// guard runs fn and returns the code of a recovered *schema.Error, or "".
// Any other panic is re-raised.
func guard(fn func()) (code string) {
	defer func() {
		p := recover()
		if p == nil {
			return
		}
		err, ok := p.(error)
		var serr *schema.Error
		if ok && errors.As(err, &serr) {
			code = string(serr.Code)
			return
		}
		panic(p)
	}()
	fn()
	return ""
}

func (r *run) checkResult(at string, e *Expect, got string) {
	if e == nil || e.Result == "" {
		return
	}
	if e.Result != got {
		r.result.AddError(fmt.Sprintf("%s: expected result %s, got %s", at, e.Result, got))
	}
}

func (r *run) checkPanic(at string, e *Expect, code string) {
	want := ""
	if e != nil {
		want = e.Panic
	}
	switch {
	case want == code:
	case code == "":
		r.result.AddError(fmt.Sprintf("%s: expected panic %s, operation succeeded", at, want))
	case want == "":
		r.result.AddError(fmt.Sprintf("%s: unexpected panic %s", at, code))
	default:
		r.result.AddError(fmt.Sprintf("%s: expected panic %s, got %s", at, want, code))
	}
}

func equalValues(a, b []ir.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func formatValues(vs []ir.Value) string {
	out := "["
	for i, v := range vs {
		if i > 0 {
			out += ", "
		}
		out += ir.Format(v)
	}
	return out + "]"
}

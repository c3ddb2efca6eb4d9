package harness

// Trace event types.
const (
	// EventOp is a store operation issued by the flow.
	EventOp = "op"

	// EventScope marks a change or query scope opening or closing.
	EventScope = "scope"

	// EventChange is a change delivered to the global sinks.
	EventChange = "change"

	// EventObserved is a change delivered to a per-record watch.
	EventObserved = "observed"
)

// TraceEvent is one entry of the scenario trace.
type TraceEvent struct {
	Type       string   `json:"type"`
	Op         string   `json:"op,omitempty"`
	Record     string   `json:"record,omitempty"`
	Table      string   `json:"table,omitempty"`
	Column     string   `json:"column,omitempty"`
	Result     string   `json:"result,omitempty"`
	Properties []string `json:"properties,omitempty"`
	Seq        int64    `json:"seq"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success.
	// True if every expect clause and assertion matched.
	Pass bool `json:"pass"`

	// Trace contains operations, scope boundaries and deliveries in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Records maps each alias to its record id.
	Records map[string]uint32 `json:"records,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Trace:   []TraceEvent{},
		Errors:  []string{},
		Records: make(map[string]uint32),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Changes returns the change events of the trace.
func (r *Result) Changes() []TraceEvent {
	var out []TraceEvent
	for _, e := range r.Trace {
		if e.Type == EventChange {
			out = append(out, e)
		}
	}
	return out
}

// add appends an event, assigning the next sequence number, and returns
// its index.
func (r *Result) add(e TraceEvent) int {
	e.Seq = int64(len(r.Trace) + 1)
	r.Trace = append(r.Trace, e)
	return len(r.Trace) - 1
}

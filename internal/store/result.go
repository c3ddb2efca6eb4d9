package store

// Result is the outcome of a relational write.
type Result int

const (
	// Success means the write took effect and a change was queued.
	Success Result = iota + 1

	// AlreadyExists means the write was a no-op because the pair, id or
	// name is already present.
	AlreadyExists

	// Failed means the write was rejected: unknown owner, nothing to
	// remove, or an invalid argument such as a null relation target.
	Failed
)

// String returns the result name used in logs, metrics and traces.
func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case AlreadyExists:
		return "already_exists"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// OK reports whether the write took effect.
func (r Result) OK() bool {
	return r == Success
}

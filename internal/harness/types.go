package harness

// StepEvent records one executed operation.
type StepEvent struct {
	Seq   int                    `json:"seq"`
	Phase string                 `json:"phase"` // "before_load" or "ready"
	Op    string                 `json:"op"`
	Args  map[string]interface{} `json:"args,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Trace lists the executed operations in order.
	Trace []StepEvent `json:"trace"`

	// Errors contains assertion failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Persisted is the store contents after the final flush.
	Persisted map[string]string `json:"persisted"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:      true,
		Trace:     []StepEvent{},
		Errors:    []string{},
		Persisted: map[string]string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddStep appends an executed operation to the trace.
func (r *Result) AddStep(phase string, step Step) {
	r.Trace = append(r.Trace, StepEvent{
		Seq:   len(r.Trace) + 1,
		Phase: phase,
		Op:    step.Op,
		Args:  step.Args,
	})
}

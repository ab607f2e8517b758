package operations

import "fmt"

// Registry is the ordered list of steps a run executes. Steps are
// registered once while the pipeline is assembled, before any run.
type Registry struct {
	steps []Step
}

// NewRegistry creates an empty step registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends step. IDs must be non-empty and unique.
func (r *Registry) Register(step Step) error {
	if step == nil {
		return fmt.Errorf("cannot register nil step")
	}
	if step.ID() == "" {
		return fmt.Errorf("step ID cannot be empty")
	}
	if r.Has(step.ID()) {
		return fmt.Errorf("step with ID %s already registered", step.ID())
	}
	r.steps = append(r.steps, step)
	return nil
}

// Get returns the step registered under id
func (r *Registry) Get(id string) (Step, error) {
	for _, s := range r.steps {
		if s.ID() == id {
			return s, nil
		}
	}
	return nil, fmt.Errorf("step with ID %s not found", id)
}

// Has reports whether id is registered
func (r *Registry) Has(id string) bool {
	_, err := r.Get(id)
	return err == nil
}

// List returns the steps in execution order
func (r *Registry) List() []Step {
	return append([]Step(nil), r.steps...)
}

// ListIDs returns the step IDs in execution order
func (r *Registry) ListIDs() []string {
	ids := make([]string, len(r.steps))
	for i, s := range r.steps {
		ids[i] = s.ID()
	}
	return ids
}

// Count returns the number of registered steps
func (r *Registry) Count() int {
	return len(r.steps)
}

package tasks

import (
	"fmt"
	"sort"

	"git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
)

// Registry holds tasks in declaration order plus named composites.
type Registry struct {
	tasks      map[string]Task
	order      []string
	composites map[string][]string
}

// NewRegistry registers tasks in the given order.
func NewRegistry(tasks ...Task) (*Registry, error) {
	r := &Registry{tasks: make(map[string]Task), composites: make(map[string][]string)}
	for _, t := range tasks {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register appends t. Names must be unique across tasks and composites.
func (r *Registry) Register(t Task) error {
	name := t.Name()
	if _, exists := r.tasks[name]; exists {
		return fmt.Errorf("duplicate task name: %q", name)
	}
	if _, exists := r.composites[name]; exists {
		return fmt.Errorf("task name %q is already a composite", name)
	}
	r.tasks[name] = t
	r.order = append(r.order, name)
	return nil
}

// Composite registers name as shorthand for members.
func (r *Registry) Composite(name string, members ...string) error {
	if _, exists := r.tasks[name]; exists {
		return fmt.Errorf("composite name %q is already a task", name)
	}
	for _, m := range members {
		if _, ok := r.tasks[m]; !ok {
			return fmt.Errorf("composite %q references unknown task %q", name, m)
		}
	}
	r.composites[name] = append([]string(nil), members...)
	return nil
}

// Get returns the task called name.
func (r *Registry) Get(name string) (Task, bool) {
	t, ok := r.tasks[name]
	return t, ok
}

// Names returns task names in declaration order.
func (r *Registry) Names() []string { return append([]string(nil), r.order...) }

// Composites returns composite names, sorted.
func (r *Registry) Composites() []string {
	out := make([]string, 0, len(r.composites))
	for name := range r.composites {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Members returns the tasks of a composite.
func (r *Registry) Members(name string) ([]string, bool) {
	m, ok := r.composites[name]
	return append([]string(nil), m...), ok
}

// expand resolves composites and removes duplicates, keeping first occurrence.
func (r *Registry) expand(names []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	var unknown []string
	for _, n := range names {
		members := []string{n}
		if m, ok := r.composites[n]; ok {
			members = m
		} else if _, ok := r.tasks[n]; !ok {
			unknown = append(unknown, n)
			continue
		}
		for _, m := range members {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	if len(unknown) > 0 {
		return nil, errors.ValidationError(fmt.Sprintf("unknown task(s): %v", unknown)).
			WithContext("available", r.Names()).
			WithContext("composites", r.Composites()).
			Build()
	}
	return out, nil
}

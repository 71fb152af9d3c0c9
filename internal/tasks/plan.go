package tasks

import (
	"fmt"
	"slices"
	"sort"

	"git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
)

// Edge says To must run after From; Via names the resource that links them.
type Edge struct {
	From string
	To   string
	Via  Resource
}

// Plan is an executable ordering of tasks.
type Plan struct {
	Levels [][]Task
	Edges  []Edge
}

// Tasks returns the planned tasks level by level.
func (p *Plan) Tasks() []Task {
	var out []Task
	for _, l := range p.Levels {
		out = append(out, l...)
	}
	return out
}

// Names returns the planned task names level by level.
func (p *Plan) Names() []string {
	var out []string
	for _, t := range p.Tasks() {
		out = append(out, t.Name())
	}
	return out
}

// Plan orders the named tasks (composites expand to their members). Edges only
// link selected tasks: B runs after A when B consumes a resource A produces,
// and producers of one resource run one after another in declaration order.
func (r *Registry) Plan(names ...string) (*Plan, error) {
	selected, err := r.expand(names)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return &Plan{}, nil
	}

	declIndex := make(map[string]int, len(r.order))
	for i, n := range r.order {
		declIndex[n] = i
	}
	sort.SliceStable(selected, func(i, j int) bool { return declIndex[selected[i]] < declIndex[selected[j]] })

	producers := make(map[Resource][]string)
	for _, n := range selected {
		for _, res := range r.tasks[n].Spec().Produces {
			producers[res] = append(producers[res], n)
		}
	}

	var edges []Edge
	seen := make(map[[2]string]bool)
	add := func(from, to string, via Resource) {
		key := [2]string{from, to}
		if from == to || seen[key] {
			return
		}
		seen[key] = true
		edges = append(edges, Edge{From: from, To: to, Via: via})
	}
	for _, n := range selected {
		for _, res := range r.tasks[n].Spec().Consumes {
			for _, p := range producers[res] {
				add(p, n, res)
			}
		}
	}
	resources := make([]Resource, 0, len(producers))
	for res := range producers {
		resources = append(resources, res)
	}
	slices.Sort(resources)
	for _, res := range resources {
		ps := producers[res]
		for i := 1; i < len(ps); i++ {
			add(ps[i-1], ps[i], res)
		}
	}

	levels, err := levelize(selected, edges, declIndex)
	if err != nil {
		return nil, err
	}
	plan := &Plan{Edges: edges}
	for _, level := range levels {
		ts := make([]Task, len(level))
		for i, n := range level {
			ts[i] = r.tasks[n]
		}
		plan.Levels = append(plan.Levels, ts)
	}
	return plan, nil
}

// levelize runs Kahn's algorithm one frontier at a time. Each level holds the
// tasks whose predecessors all ran in earlier levels, in declaration order.
func levelize(nodes []string, edges []Edge, declIndex map[string]int) ([][]string, error) {
	graph := make(map[string][]string)
	inDegree := make(map[string]int, len(nodes))
	for _, n := range nodes {
		inDegree[n] = 0
	}
	for _, e := range edges {
		graph[e.From] = append(graph[e.From], e.To)
		inDegree[e.To]++
	}

	byDecl := func(s []string) {
		sort.Slice(s, func(i, j int) bool { return declIndex[s[i]] < declIndex[s[j]] })
	}

	var frontier []string
	for _, n := range nodes {
		if inDegree[n] == 0 {
			frontier = append(frontier, n)
		}
	}

	var levels [][]string
	visited := 0
	for len(frontier) > 0 {
		byDecl(frontier)
		levels = append(levels, frontier)
		visited += len(frontier)

		var next []string
		for _, n := range frontier {
			for _, m := range graph[n] {
				inDegree[m]--
				if inDegree[m] == 0 {
					next = append(next, m)
				}
			}
		}
		frontier = next
	}

	if visited != len(nodes) {
		var cyclic []string
		for _, n := range nodes {
			if inDegree[n] > 0 {
				cyclic = append(cyclic, n)
			}
		}
		sort.Strings(cyclic)
		return nil, errors.ValidationError(fmt.Sprintf("circular dependency detected involving tasks: %v", cyclic)).Build()
	}
	return levels, nil
}

package tasks

import (
	"encoding/json"
	"fmt"
	"strings"
)

// GraphFormat is the output format of Graph.
type GraphFormat string

const (
	FormatText    GraphFormat = "text"
	FormatMermaid GraphFormat = "mermaid"
	FormatDOT     GraphFormat = "dot"
	FormatJSON    GraphFormat = "json"
)

// SupportedFormats lists the graph formats.
func SupportedFormats() []GraphFormat {
	return []GraphFormat{FormatText, FormatMermaid, FormatDOT, FormatJSON}
}

// Graph renders the plan.
func Graph(plan *Plan, format GraphFormat) (string, error) {
	switch format {
	case FormatText, "":
		return graphText(plan), nil
	case FormatMermaid:
		return graphMermaid(plan), nil
	case FormatDOT:
		return graphDOT(plan), nil
	case FormatJSON:
		return graphJSON(plan)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func (p *Plan) after(name string) []string {
	var deps []string
	for _, e := range p.Edges {
		if e.To == name {
			deps = append(deps, fmt.Sprintf("%s (%s)", e.From, e.Via))
		}
	}
	return deps
}

func graphText(plan *Plan) string {
	var sb strings.Builder
	sb.WriteString("Task Graph\n")
	sb.WriteString("==========\n\n")
	for i, level := range plan.Levels {
		fmt.Fprintf(&sb, "┌─ Level %d\n", i+1)
		sb.WriteString("│\n")
		for j, t := range level {
			isLast := j == len(level)-1
			prefix, connector := "├──", "│   "
			if isLast {
				prefix, connector = "└──", "    "
			}
			fmt.Fprintf(&sb, "│ %s [%s]\n", prefix, t.Name())
			if deps := plan.after(t.Name()); len(deps) > 0 {
				fmt.Fprintf(&sb, "│ %s   ⤷ after: %s\n", connector, strings.Join(deps, ", "))
			}
		}
		sb.WriteString("│\n")
		if i < len(plan.Levels)-1 {
			sb.WriteString("↓\n")
		}
	}
	fmt.Fprintf(&sb, "\nTotal: %d tasks across %d levels\n", len(plan.Tasks()), len(plan.Levels))
	return sb.String()
}

func mermaidID(name string) string {
	return strings.NewReplacer("-", "", "_", "").Replace(name)
}

func graphMermaid(plan *Plan) string {
	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("graph TD\n")
	for i, level := range plan.Levels {
		fmt.Fprintf(&sb, "    subgraph level%d[\"Level %d\"]\n", i+1, i+1)
		for _, t := range level {
			fmt.Fprintf(&sb, "        %s[\"%s\"]\n", mermaidID(t.Name()), t.Name())
		}
		sb.WriteString("    end\n")
	}
	sb.WriteString("\n")
	for _, e := range plan.Edges {
		fmt.Fprintf(&sb, "    %s -->|%s| %s\n", mermaidID(e.From), e.Via, mermaidID(e.To))
	}
	sb.WriteString("```\n")
	return sb.String()
}

func graphDOT(plan *Plan) string {
	var sb strings.Builder
	sb.WriteString("digraph Tasks {\n")
	sb.WriteString("    rankdir=TB;\n")
	sb.WriteString("    node [shape=box, style=rounded];\n\n")
	for i, level := range plan.Levels {
		fmt.Fprintf(&sb, "    subgraph cluster_%d {\n", i)
		fmt.Fprintf(&sb, "        label=\"Level %d\";\n", i+1)
		sb.WriteString("        style=filled;\n")
		sb.WriteString("        color=lightgrey;\n\n")
		for _, t := range level {
			fmt.Fprintf(&sb, "        %q;\n", t.Name())
		}
		sb.WriteString("    }\n\n")
	}
	for _, e := range plan.Edges {
		fmt.Fprintf(&sb, "    %q -> %q [label=%q];\n", e.From, e.To, string(e.Via))
	}
	sb.WriteString("}\n")
	return sb.String()
}

type jsonTask struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Level       int        `json:"level"`
	Consumes    []Resource `json:"consumes"`
	Produces    []Resource `json:"produces"`
}

type jsonEdge struct {
	From string   `json:"from"`
	To   string   `json:"to"`
	Via  Resource `json:"via"`
}

type jsonGraph struct {
	Tasks       []jsonTask `json:"tasks"`
	Edges       []jsonEdge `json:"edges"`
	TotalTasks  int        `json:"totalTasks"`
	TotalLevels int        `json:"totalLevels"`
}

func graphJSON(plan *Plan) (string, error) {
	out := jsonGraph{Tasks: []jsonTask{}, Edges: []jsonEdge{}, TotalLevels: len(plan.Levels)}
	for i, level := range plan.Levels {
		for _, t := range level {
			spec := t.Spec()
			out.Tasks = append(out.Tasks, jsonTask{
				Name:        t.Name(),
				Description: spec.Description,
				Level:       i + 1,
				Consumes:    nonNil(spec.Consumes),
				Produces:    nonNil(spec.Produces),
			})
		}
	}
	for _, e := range plan.Edges {
		out.Edges = append(out.Edges, jsonEdge(e))
	}
	out.TotalTasks = len(out.Tasks)
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}

func nonNil(rs []Resource) []Resource {
	if rs == nil {
		return []Resource{}
	}
	return rs
}

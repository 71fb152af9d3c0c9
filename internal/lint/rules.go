package lint

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tdewolff/parse/v2/js"
)

var builtinRules = map[string]Rule{
	"camelcase":    camelcaseRule{},
	"comma-dangle": commaDangleRule{},
	"quotes":       quotesRule{},
}

// RuleNames lists the available rules.
func RuleNames() []string {
	names := make([]string, 0, len(builtinRules))
	for name := range builtinRules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// camelcaseRule flags identifiers with an inner underscore unless they are constants.
type camelcaseRule struct{}

func (camelcaseRule) Name() string { return "camelcase" }

func (camelcaseRule) Check(toks []token) []finding {
	var out []finding
	for i, t := range toks {
		if t.tt != js.IdentifierToken {
			continue
		}
		if i > 0 && toks[i-1].tt == js.DotToken {
			continue
		}
		name := strings.Trim(t.text, "_")
		if !strings.Contains(name, "_") || name == strings.ToUpper(name) {
			continue
		}
		out = append(out, finding{t.line, t.col, fmt.Sprintf("Identifier '%s' is not in camel case.", t.text)})
	}
	return out
}

// commaDangleRule flags a comma directly before a closing brace or bracket.
type commaDangleRule struct{}

func (commaDangleRule) Name() string { return "comma-dangle" }

func (commaDangleRule) Check(toks []token) []finding {
	var out []finding
	for i := 0; i+1 < len(toks); i++ {
		if toks[i].tt != js.CommaToken {
			continue
		}
		if next := toks[i+1].tt; next == js.CloseBraceToken || next == js.CloseBracketToken {
			out = append(out, finding{toks[i].line, toks[i].col, "Unexpected trailing comma."})
		}
	}
	return out
}

// quotesRule requires double quotes unless the string contains one.
type quotesRule struct{}

func (quotesRule) Name() string { return "quotes" }

func (quotesRule) Check(toks []token) []finding {
	var out []finding
	for _, t := range toks {
		if t.tt != js.StringToken || !strings.HasPrefix(t.text, "'") {
			continue
		}
		if strings.Contains(t.text, `"`) {
			continue
		}
		out = append(out, finding{t.line, t.col, "Strings must use doublequote."})
	}
	return out
}

package entity

import (
	"regexp"
	"strings"
)

// CGExpression matches a legacy ${...} expression token.
var CGExpression = regexp.MustCompile(`\$\{[\w\-."()]+}`)

// Exact legacy expressions with a known NG equivalent.
var knownExpressions = map[string]string{
	"${app.name}":                   "<+project.name>",
	"${app.description}":            "<+project.description>",
	"${service.name}":               "<+service.name>",
	"${service.description}":        "<+service.description>",
	"${env.name}":                   "<+env.name>",
	"${env.environmentType}":        "<+env.type>",
	"${infra.name}":                 "<+infra.name>",
	"${infra.kubernetes.namespace}": "<+infra.namespace>",
	"${workflow.name}":              "<+pipeline.name>",
	"${pipeline.name}":              "<+pipeline.name>",
	"${deploymentTriggeredBy}":      "<+pipeline.triggeredBy.name>",
	"${currentStep.name}":           "<+step.name>",
}

// Legacy prefixes rewritten in place.
var knownPrefixes = []struct{ from, to string }{
	{"${workflow.variables.", "<+pipeline.variables."},
	{"${pipeline.variables.", "<+pipeline.variables."},
	{"${serviceVariable.", "<+serviceVariables."},
	{"${serviceVariables.", "<+serviceVariables."},
	{"${environmentVariable.", "<+env.variables."},
	{"${secrets.getValue(", "<+secrets.getValue("},
	{"${app.defaults.", "<+variable."},
}

// TranslateExpressions rewrites every legacy expression in s that has a known
// NG equivalent. Unknown expressions are left untouched.
func TranslateExpressions(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return CGExpression.ReplaceAllStringFunc(s, translateExpression)
}

func translateExpression(tok string) string {
	if ng, ok := knownExpressions[tok]; ok {
		return ng
	}
	for _, p := range knownPrefixes {
		if strings.HasPrefix(tok, p.from) {
			return p.to + strings.TrimSuffix(strings.TrimPrefix(tok, p.from), "}") + ">"
		}
	}
	return tok
}

// TranslateValue applies TranslateExpressions to every string inside v,
// returning a copy.
func TranslateValue(v interface{}) interface{} {
	switch t := v.(type) {
	case string:
		return TranslateExpressions(t)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, item := range t {
			out[k] = TranslateValue(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = TranslateValue(item)
		}
		return out
	}
	return v
}

// SkippedExpressions returns the distinct legacy expressions containing a
// dot that remain in text, in order of first appearance.
func SkippedExpressions(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, tok := range CGExpression.FindAllString(text, -1) {
		if !strings.Contains(tok, ".") || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}

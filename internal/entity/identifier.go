package entity

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/rflorenc/ng-migrator/internal/models"
)

// Placeholders written where a reference could not be resolved.
const (
	RuntimeInput = "<+input>"
	PleaseFixMe  = "__PLEASE_FIX_ME__"
)

var (
	nonAlnum        = regexp.MustCompile(`[^A-Za-z0-9]`)
	uiLeading       = regexp.MustCompile(`^[0-9\-$]*`)
	uiInvalid       = regexp.MustCompile(`[^0-9a-zA-Z_$ ]`)
	whitespace      = regexp.MustCompile(`\s`)
	nameInvalidChar = regexp.MustCompile(`[^-0-9a-zA-Z_\s]`)
)

// stripAccents removes combining marks: "Café" becomes "Cafe".
func stripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// GenerateIdentifier turns a display name into an NG identifier.
func GenerateIdentifier(name string, format models.CaseFormat) string {
	switch format {
	case models.LowerCase:
		return strings.ToLower(camelCaseIdentifier(name))
	case models.SnakeCase:
		return snakeCaseIdentifier(name)
	case models.HarnessUIFormat:
		return uiFormatIdentifier(name)
	default:
		return camelCaseIdentifier(name)
	}
}

func camelCaseIdentifier(name string) string {
	if strings.TrimSpace(name) == "" {
		return ""
	}
	words := strings.Fields(nonAlnum.ReplaceAllString(stripAccents(name), " "))
	var b strings.Builder
	for i, w := range words {
		w = strings.ToLower(w)
		if i > 0 {
			w = strings.ToUpper(w[:1]) + w[1:]
		}
		b.WriteString(w)
	}
	return prefixDigit(b.String())
}

func snakeCaseIdentifier(name string) string {
	if strings.TrimSpace(name) == "" {
		return ""
	}
	var b strings.Builder
	for _, r := range strings.ToLower(stripAccents(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return prefixDigit(b.String())
}

func uiFormatIdentifier(name string) string {
	if strings.TrimSpace(name) == "" {
		return ""
	}
	s := strings.TrimSpace(stripAccents(name))
	s = uiLeading.ReplaceAllString(s, "")
	s = uiInvalid.ReplaceAllString(s, "")
	return whitespace.ReplaceAllString(s, "_")
}

func prefixDigit(s string) string {
	if s != "" && s[0] >= '0' && s[0] <= '9' {
		return "_" + s
	}
	return s
}

// GenerateName sanitizes a display name for NG: unsupported characters become
// underscores and the name must start with a letter.
func GenerateName(s string) string {
	if strings.TrimSpace(s) == "" {
		return s
	}
	s = nameInvalidChar.ReplaceAllString(stripAccents(strings.TrimSpace(s)), "_")
	if r := []rune(s)[0]; !unicode.IsLetter(r) {
		return "_" + s
	}
	return s
}

// DefaultScope picks the scope for id: the type's built-in default, replaced
// by the run's per-type default, replaced by a per-entity override.
func DefaultScope(input *models.MigrationInput, id models.EntityID, fallback models.Scope) models.Scope {
	if input == nil {
		return fallback
	}
	scope := fallback
	if s, ok := input.DefaultScopes[id.Type]; ok && s != "" {
		scope = s
	}
	if o, ok := input.Overrides[id]; ok && o.Scope != "" {
		scope = o.Scope
	}
	return scope
}

// OrgIdentifier returns the org for scope, or an error if the run input has
// none where one is needed.
func OrgIdentifier(scope models.Scope, input *models.MigrationInput) (string, error) {
	if scope == models.ScopeAccount {
		return "", nil
	}
	if input.OrgIdentifier == "" {
		return "", fmt.Errorf("trying to scope entity to %s but no org identifier provided in input", scope)
	}
	return input.OrgIdentifier, nil
}

// ProjectIdentifier returns the project for scope.
func ProjectIdentifier(scope models.Scope, input *models.MigrationInput) (string, error) {
	if scope != models.ScopeProject {
		return "", nil
	}
	if input.ProjectIdentifier == "" {
		return "", fmt.Errorf("trying to scope entity to PROJECT but no project identifier provided in input")
	}
	return input.ProjectIdentifier, nil
}

// ResolveTarget computes the NG name and identity of a discovered entity,
// applying overrides and the run's case format.
func ResolveTarget(mc *Context, node *models.EntityNode, defaultScope models.Scope) (string, models.NGEntityDetail, error) {
	id := node.EntityID
	override := mc.Input.Overrides[id]

	name := override.Name
	if name == "" {
		name = GenerateName(node.Name)
	}
	identifier := override.Identifier
	if identifier == "" {
		identifier = GenerateIdentifier(node.Name, mc.Input.IdentifierCaseFormat)
	}
	if identifier == "" {
		return "", models.NGEntityDetail{}, fmt.Errorf("cannot derive an identifier from name %q", node.Name)
	}

	scope := DefaultScope(mc.Input, id, defaultScope)
	org, err := OrgIdentifier(scope, mc.Input)
	if err != nil {
		return "", models.NGEntityDetail{}, err
	}
	project, err := ProjectIdentifier(scope, mc.Input)
	if err != nil {
		return "", models.NGEntityDetail{}, err
	}
	return name, models.NGEntityDetail{
		EntityType:        id.Type,
		Identifier:        identifier,
		OrgIdentifier:     org,
		ProjectIdentifier: project,
	}, nil
}

// ScopedRef returns how NG should reference the artifact migrated for id,
// or fallback if id has not been migrated in this run.
func ScopedRef(migrated map[models.EntityID]*models.Artifact, id models.EntityID, fallback string) string {
	a, ok := migrated[id]
	if !ok {
		return fallback
	}
	return a.Target.ScopedIdentifier()
}

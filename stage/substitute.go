package stage

import (
	"strings"

	"github.com/pithecene-io/crucible/types"
)

// Placeholder delimiters. Chosen so they cannot collide with ${...}
// property references in the samples' own build descriptors.
const (
	PlaceholderOpen  = "${{"
	PlaceholderClose = "}}"
)

// escapeChar placed directly before PlaceholderOpen renders the
// placeholder literally: $${{key}} becomes ${{key}}.
const escapeChar = '$'

// Parameter keys always present in the substitution mapping.
const (
	ParamGroupID    = "current-group-id"
	ParamArtifactID = "current-artifact-id"
	ParamVersion    = "current-version"
)

// Parameters composes the substitution mapping from the project identity
// and user overrides. Overrides win on collision.
func Parameters(project *types.Project, overrides map[string]string) map[string]string {
	params := make(map[string]string, 3+len(overrides))
	params[ParamGroupID] = project.Group
	params[ParamArtifactID] = project.Name
	params[ParamVersion] = project.Version
	for k, v := range overrides {
		params[k] = v
	}
	return params
}

// Substitute replaces every ${{key}} in text with params[key].
//
// Unknown keys are left verbatim. Replacement values are inserted as-is
// and never rescanned.
func Substitute(text string, params map[string]string) string {
	if !strings.Contains(text, PlaceholderOpen) {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))

	for {
		i := strings.Index(text, PlaceholderOpen)
		if i < 0 {
			b.WriteString(text)
			return b.String()
		}

		if i > 0 && text[i-1] == escapeChar {
			b.WriteString(text[:i-1])
			b.WriteString(PlaceholderOpen)
			text = text[i+len(PlaceholderOpen):]
			continue
		}

		b.WriteString(text[:i])
		rest := text[i+len(PlaceholderOpen):]

		j := strings.Index(rest, PlaceholderClose)
		if j < 0 {
			b.WriteString(text[i:])
			return b.String()
		}

		value, ok := params[rest[:j]]
		if !ok {
			// Emit only the opening delimiter and rescan, so a nested
			// placeholder inside an unknown key still resolves.
			b.WriteString(PlaceholderOpen)
			text = rest
			continue
		}

		b.WriteString(value)
		text = rest[j+len(PlaceholderClose):]
	}
}

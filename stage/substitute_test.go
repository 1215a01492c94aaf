package stage

import (
	"testing"

	"github.com/pithecene-io/crucible/types"
)

func TestSubstitute(t *testing.T) {
	params := map[string]string{
		"current-version": "1.2.3",
		"name":            "demo",
		"empty":           "",
		"dollar":          "${{name}}",
	}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no placeholders", "plain text\n", "plain text\n"},
		{"single", "<version>${{current-version}}</version>", "<version>1.2.3</version>"},
		{"repeated", "${{name}}-${{name}}", "demo-demo"},
		{"adjacent", "${{name}}${{current-version}}", "demo1.2.3"},
		{"missing key kept", "v=${{missing-key}};", "v=${{missing-key}};"},
		{"empty value", "[${{empty}}]", "[]"},
		{"value not rescanned", "${{dollar}}", "${{name}}"},
		{"unterminated", "x ${{name", "x ${{name"},
		{"build property untouched", "${project.version} ${{name}}", "${project.version} demo"},
		{"escaped", "$${{name}} ${{name}}", "${{name}} demo"},
		{"nested in unknown key", "${{a ${{name}}", "${{a demo"},
		{"crlf preserved", "a\r\n${{name}}\r\n", "a\r\ndemo\r\n"},
		{"no trailing newline", "${{name}}", "demo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Substitute(tt.in, params); got != tt.want {
				t.Errorf("Substitute(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSubstitute_NilParams(t *testing.T) {
	in := "${{current-version}}"
	if got := Substitute(in, nil); got != in {
		t.Errorf("Substitute with nil params = %q, want %q", got, in)
	}
}

func TestParameters(t *testing.T) {
	project := &types.Project{Group: "org.example", Name: "plugin", Version: "1.0.0"}

	params := Parameters(project, map[string]string{
		"extra":      "x",
		ParamVersion: "9.9.9",
	})

	if params[ParamGroupID] != "org.example" {
		t.Errorf("%s = %q", ParamGroupID, params[ParamGroupID])
	}
	if params[ParamArtifactID] != "plugin" {
		t.Errorf("%s = %q", ParamArtifactID, params[ParamArtifactID])
	}
	if params[ParamVersion] != "9.9.9" {
		t.Errorf("override should win: %s = %q", ParamVersion, params[ParamVersion])
	}
	if params["extra"] != "x" {
		t.Errorf("extra = %q", params["extra"])
	}
}

func TestParameters_NoOverrides(t *testing.T) {
	params := Parameters(&types.Project{Group: "g", Name: "n", Version: "v"}, nil)
	if len(params) != 3 {
		t.Errorf("len(params) = %d, want 3", len(params))
	}
}

package repository

import (
	"path"
	"strings"

	"github.com/pithecene-io/crucible/types"
)

// handler describes how an artifact type maps onto a repository file.
type handler struct {
	extension  string
	classifier string
}

// handlers covers packaging types whose file extension or implied
// classifier differ from the type name. Unlisted types use the type name
// as the extension.
var handlers = map[string]handler{
	"maven-plugin": {extension: "jar"},
	"ejb":          {extension: "jar"},
	"ejb-client":   {extension: "jar", classifier: "client"},
	"test-jar":     {extension: "jar", classifier: "tests"},
	"java-source":  {extension: "jar", classifier: "sources"},
	"javadoc":      {extension: "jar", classifier: "javadoc"},
}

// Extension returns the file extension used for an artifact type.
func Extension(artifactType string) string {
	if h, ok := handlers[artifactType]; ok {
		return h.extension
	}
	return artifactType
}

// Layout returns the coordinate-derived path of an artifact inside a
// repository, always slash-separated:
//
//	org/example/demo/1.0/demo-1.0[-classifier].jar
func Layout(a *types.Artifact) string {
	classifier := a.Classifier
	if classifier == "" {
		classifier = handlers[a.Kind()].classifier
	}

	file := a.Name + "-" + a.Version
	if classifier != "" {
		file += "-" + classifier
	}
	file += "." + Extension(a.Kind())

	return path.Join(strings.ReplaceAll(a.Group, ".", "/"), a.Name, a.Version, file)
}

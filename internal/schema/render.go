package schema

import (
	"strings"

	"github.com/vektah/gqlparser/v2/formatter"
)

// Render produces SDL for the user-defined part of the schema. Built-in
// scalars, directives and introspection types are omitted.
func Render(s *Schema) string {
	if s == nil || s.Schema == nil {
		return ""
	}
	var b strings.Builder
	formatter.NewFormatter(&b, formatter.WithIndent("  ")).FormatSchema(s.Schema)
	return strings.TrimRight(b.String(), "\n") + "\n"
}

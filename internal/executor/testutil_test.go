package executor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"

	language "github.com/hanpama/catstronauts/internal/language"
	schema "github.com/hanpama/catstronauts/internal/schema"
)

// mustParseQuery parses a GraphQL query and fails the test on error.
func mustParseQuery(t *testing.T, q string) *ast.QueryDocument {
	t.Helper()
	d, err := language.ParseQuery(q)
	require.NoError(t, err)
	return d
}

// mustLoadSchema loads sdl and marks the given "Type.field" keys async.
func mustLoadSchema(t *testing.T, sdl string, async ...string) *schema.Schema {
	t.Helper()
	s, err := schema.Load("test.graphql", sdl)
	require.NoError(t, err)
	for _, key := range async {
		typ, field, ok := strings.Cut(key, ".")
		require.True(t, ok, "bad async key %q", key)
		s.SetAsync(typ, field)
	}
	return s
}

package executor

import (
	"context"
	"fmt"
	"testing"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestErrors_LocatedPaths(t *testing.T) {
	t.Run("Simple", func(t *testing.T) {
		sch := mustLoadSchema(t, `type Query { a: String }`)
		rt := NewMockRuntime(map[string]MockResolver{"Query.a": NewMockErrorResolver(fmt.Errorf("boom"))})

		gotRes := NewExecutor(rt, sch).ExecuteRequest(context.Background(), mustParseQuery(t, "{ a }"), "", nil, nil)

		wantRes := &Result{
			Data:   map[string]any{"a": nil},
			Errors: []Error{{Message: "boom", Path: Path{"a"}, Locations: []Location{{Line: 1, Column: 3}}}},
		}
		if diff := cmp.Diff(wantRes, gotRes); diff != "" {
			t.Fatalf("Result mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("List index in path", func(t *testing.T) {
		sch := mustLoadSchema(t, heredoc.Doc(`
			type Query { objs: [Obj] }
			type Obj { a: String }
		`), "Obj.a")
		rt := NewMockRuntime(map[string]MockResolver{
			"Query.objs": NewMockValueResolver([]any{map[string]any{"idx": 0}, map[string]any{"idx": 1}}),
			"Obj.a": func(ctx context.Context, src any, args map[string]any) (any, error) {
				if src.(map[string]any)["idx"].(int) == 1 {
					return nil, fmt.Errorf("boom")
				}
				return "ok", nil
			},
		})

		gotRes := NewExecutor(rt, sch).ExecuteRequest(context.Background(), mustParseQuery(t, "{ objs { a } }"), "", nil, nil)

		wantRes := &Result{
			Data:   map[string]any{"objs": []any{map[string]any{"a": "ok"}, map[string]any{"a": nil}}},
			Errors: []Error{{Message: "boom", Path: Path{"objs", 1, "a"}}},
		}
		if diff := cmp.Diff(wantRes, gotRes, ignoreLocations); diff != "" {
			t.Fatalf("Result mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestNullPropagation(t *testing.T) {
	t.Run("Non-null field nulls its nullable parent", func(t *testing.T) {
		sch := mustLoadSchema(t, heredoc.Doc(`
			type Query { obj: Obj other: String }
			type Obj { a: String! b: String }
		`))
		rt := NewMockRuntime(map[string]MockResolver{
			"Query.obj":   NewMockValueResolver(map[string]any{"b": "B"}),
			"Query.other": NewMockValueResolver("O"),
			"Obj.a":       NewMockErrorResolver(fmt.Errorf("boom")),
		})

		gotRes := NewExecutor(rt, sch).ExecuteRequest(context.Background(), mustParseQuery(t, "{ obj { a b } other }"), "", nil, nil)

		wantRes := &Result{
			Data:   map[string]any{"obj": nil, "other": "O"},
			Errors: []Error{{Message: "boom", Path: Path{"obj", "a"}}},
		}
		if diff := cmp.Diff(wantRes, gotRes, ignoreLocations); diff != "" {
			t.Fatalf("Result mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Non-null root field nulls data", func(t *testing.T) {
		sch := mustLoadSchema(t, `type Query { a: String! }`)
		rt := NewMockRuntime(map[string]MockResolver{"Query.a": NewMockErrorResolver(fmt.Errorf("boom"))})

		gotRes := NewExecutor(rt, sch).ExecuteRequest(context.Background(), mustParseQuery(t, "{ a }"), "", nil, nil)

		wantRes := &Result{Data: nil, Errors: []Error{{Message: "boom", Path: Path{"a"}}}}
		if diff := cmp.Diff(wantRes, gotRes, ignoreLocations); diff != "" {
			t.Fatalf("Result mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Async null on non-null root field nulls data", func(t *testing.T) {
		sch := mustLoadSchema(t, `type Query { a: String! }`, "Query.a")
		rt := NewMockRuntime(map[string]MockResolver{"Query.a": NewMockValueResolver(nil)})

		gotRes := NewExecutor(rt, sch).ExecuteRequest(context.Background(), mustParseQuery(t, "{ a }"), "", nil, nil)

		wantRes := &Result{Data: nil, Errors: []Error{{
			Message: "Cannot return null for non-nullable field Query.a",
			Path:    Path{"a"},
		}}}
		if diff := cmp.Diff(wantRes, gotRes, ignoreLocations); diff != "" {
			t.Fatalf("Result mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Async null nulls the nearest nullable list item", func(t *testing.T) {
		sch := mustLoadSchema(t, heredoc.Doc(`
			type Query { users: [User]! }
			type User { id: ID! name: String! }
		`), "User.name")
		rt := NewMockRuntime(map[string]MockResolver{
			"Query.users": NewMockValueResolver([]any{map[string]any{"id": "1"}, map[string]any{"id": "2"}}),
			"User.name": func(ctx context.Context, src any, args map[string]any) (any, error) {
				if src.(map[string]any)["id"] == "1" {
					return "Ann", nil
				}
				return nil, nil
			},
		})

		gotRes := NewExecutor(rt, sch).ExecuteRequest(context.Background(), mustParseQuery(t, "{ users { id name } }"), "", nil, nil)

		wantRes := &Result{
			Data: map[string]any{"users": []any{map[string]any{"id": "1", "name": "Ann"}, nil}},
			Errors: []Error{{
				Message: "Cannot return null for non-nullable field User.name",
				Path:    Path{"users", 1, "name"},
			}},
		}
		if diff := cmp.Diff(wantRes, gotRes, ignoreLocations); diff != "" {
			t.Fatalf("Result mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Null item in non-null list nulls the list", func(t *testing.T) {
		sch := mustLoadSchema(t, `type Query { tags: [String!] }`)
		rt := NewMockRuntime(map[string]MockResolver{"Query.tags": NewMockValueResolver([]any{"a", nil})})

		gotRes := NewExecutor(rt, sch).ExecuteRequest(context.Background(), mustParseQuery(t, "{ tags }"), "", nil, nil)

		wantRes := &Result{
			Data:   map[string]any{"tags": nil},
			Errors: []Error{{Message: "Cannot return null for non-nullable field tags[1]", Path: Path{"tags", 1}}},
		}
		if diff := cmp.Diff(wantRes, gotRes, ignoreLocations); diff != "" {
			t.Fatalf("Result mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Tasks under a nulled object are dropped", func(t *testing.T) {
		sch := mustLoadSchema(t, heredoc.Doc(`
			type Query { obj: Obj }
			type Obj { child: Child req: String! }
			type Child { v: String }
		`), "Obj.child")
		rt := NewMockRuntime(map[string]MockResolver{
			"Query.obj": NewMockValueResolver(map[string]any{}),
			"Obj.child": NewMockValueResolver(map[string]any{"v": "V"}),
			"Obj.req":   NewMockErrorResolver(fmt.Errorf("boom")),
		})

		gotRes := NewExecutor(rt, sch).ExecuteRequest(context.Background(), mustParseQuery(t, "{ obj { child { v } req } }"), "", nil, nil)

		wantRes := &Result{
			Data:   map[string]any{"obj": nil},
			Errors: []Error{{Message: "boom", Path: Path{"obj", "req"}}},
		}
		if diff := cmp.Diff(wantRes, gotRes, ignoreLocations); diff != "" {
			t.Fatalf("Result mismatch (-want +got):\n%s", diff)
		}
		require.Zero(t, rt.BatchCount())
	})

	t.Run("Resolver error on non-null field adds a single error", func(t *testing.T) {
		sch := mustLoadSchema(t, heredoc.Doc(`
			type Query { obj: Obj }
			type Obj { a: String! }
		`), "Obj.a")
		rt := NewMockRuntime(map[string]MockResolver{
			"Query.obj": NewMockValueResolver(map[string]any{}),
			"Obj.a":     NewMockErrorResolver(fmt.Errorf("boom")),
		})

		res := NewExecutor(rt, sch).ExecuteRequest(context.Background(), mustParseQuery(t, "{ obj { a } }"), "", nil, nil)

		require.Equal(t, map[string]any{"obj": nil}, res.Data)
		require.Len(t, res.Errors, 1)
		require.Equal(t, "boom", res.Errors[0].Message)
	})
}

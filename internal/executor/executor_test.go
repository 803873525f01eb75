package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

var ignoreLocations = cmpopts.IgnoreFields(Error{}, "Locations")

func TestOrdering_SyncBeforeAsync(t *testing.T) {
	sch := mustLoadSchema(t, `type Query { a: String b: String c: String }`, "Query.b")
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.a": NewMockValueResolver("A"),
		"Query.b": NewMockValueResolver("B"),
		"Query.c": NewMockValueResolver("C"),
	})
	exec := NewExecutor(rt, sch)

	gotRes := exec.ExecuteRequest(context.Background(), mustParseQuery(t, "{ a b c }"), "", nil, nil)

	wantRes := &Result{Data: map[string]any{"a": "A", "b": "B", "c": "C"}, Errors: []Error{}}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("Result mismatch (-want +got):\n%s", diff)
	}
	wantCalls := []Call{
		{Kind: "sync", ObjectType: "Query", Field: "a", Args: map[string]any{}, Path: "a"},
		{Kind: "sync", ObjectType: "Query", Field: "c", Args: map[string]any{}, Path: "c"},
		{Kind: "async", ObjectType: "Query", Field: "b", Args: map[string]any{}, Path: "b", BatchID: 1},
	}
	if diff := cmp.Diff(wantCalls, rt.GetCalls()); diff != "" {
		t.Fatalf("Runtime calls mismatch (-want +got):\n%s", diff)
	}
}

func TestOrdering_OneBatchPerAsyncDepth(t *testing.T) {
	sch := mustLoadSchema(t, heredoc.Doc(`
		type Query { users: [User!]! }
		type User { name: String friend: Friend }
		type Friend { name: String }
	`), "Query.users", "User.friend")

	rt := NewMockRuntime(map[string]MockResolver{
		"Query.users": NewMockValueResolver([]any{
			map[string]any{"name": "ann"},
			map[string]any{"name": "bob"},
		}),
		"User.friend": func(ctx context.Context, src any, args map[string]any) (any, error) {
			return map[string]any{"name": src.(map[string]any)["name"].(string) + "'s friend"}, nil
		},
	})
	exec := NewExecutor(rt, sch)

	gotRes := exec.ExecuteRequest(context.Background(), mustParseQuery(t, "{ users { name friend { name } } }"), "", nil, nil)

	wantRes := &Result{Data: map[string]any{"users": []any{
		map[string]any{"name": "ann", "friend": map[string]any{"name": "ann's friend"}},
		map[string]any{"name": "bob", "friend": map[string]any{"name": "bob's friend"}},
	}}, Errors: []Error{}}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("Result mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, 2, rt.BatchCount())

	var friendBatches []int
	for _, c := range rt.GetCalls() {
		if c.Field == "friend" {
			friendBatches = append(friendBatches, c.BatchID)
		}
	}
	require.Equal(t, []int{2, 2}, friendBatches)
}

func TestOrdering_MergesDuplicateFields(t *testing.T) {
	sch := mustLoadSchema(t, heredoc.Doc(`
		type Query { obj: Obj }
		type Obj { a: String b: String }
	`))
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.obj": NewMockValueResolver(map[string]any{"a": "A", "b": "B"}),
	})
	exec := NewExecutor(rt, sch)

	gotRes := exec.ExecuteRequest(context.Background(), mustParseQuery(t, "{ obj { a } obj { b } }"), "", nil, nil)

	wantRes := &Result{Data: map[string]any{"obj": map[string]any{"a": "A", "b": "B"}}, Errors: []Error{}}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("Result mismatch (-want +got):\n%s", diff)
	}
	objCalls := 0
	for _, c := range rt.GetCalls() {
		if c.Field == "obj" {
			objCalls++
		}
	}
	require.Equal(t, 1, objCalls)
}

func TestOperationSelection(t *testing.T) {
	sch := mustLoadSchema(t, `type Query { a: String }`)
	rt := NewMockRuntime(map[string]MockResolver{"Query.a": NewMockValueResolver("A")})
	exec := NewExecutor(rt, sch)

	t.Run("Single named operation without name", func(t *testing.T) {
		res := exec.ExecuteRequest(context.Background(), mustParseQuery(t, "query Foo { a }"), "", nil, nil)
		require.Empty(t, res.Errors)
		require.Equal(t, map[string]any{"a": "A"}, res.Data)
	})

	t.Run("Pick by name", func(t *testing.T) {
		doc := mustParseQuery(t, "query Foo { a } query Bar { b: a }")
		res := exec.ExecuteRequest(context.Background(), doc, "Bar", nil, nil)
		require.Empty(t, res.Errors)
		require.Equal(t, map[string]any{"b": "A"}, res.Data)
	})

	t.Run("Ambiguous without name", func(t *testing.T) {
		doc := mustParseQuery(t, "query Foo { a } query Bar { a }")
		res := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)
		require.Nil(t, res.Data)
		require.Equal(t, []Error{{Message: "operation not found"}}, res.Errors)
	})

	t.Run("Unknown name", func(t *testing.T) {
		res := exec.ExecuteRequest(context.Background(), mustParseQuery(t, "query Foo { a }"), "Baz", nil, nil)
		require.Equal(t, []Error{{Message: "operation not found"}}, res.Errors)
	})

	t.Run("Missing root type", func(t *testing.T) {
		res := exec.ExecuteRequest(context.Background(), mustParseQuery(t, "mutation { a }"), "", nil, nil)
		require.Len(t, res.Errors, 1)
		require.Contains(t, res.Errors[0].Message, "root type not found")
	})
}

func TestTypenameAndUnknownField(t *testing.T) {
	sch := mustLoadSchema(t, `type Query { a: String }`)
	exec := NewExecutor(NewMockRuntime(nil), sch)

	res := exec.ExecuteRequest(context.Background(), mustParseQuery(t, "{ __typename nope }"), "", nil, nil)

	require.Equal(t, map[string]any{"__typename": "Query"}, res.Data)
	require.Len(t, res.Errors, 1)
	require.Equal(t, "Cannot query field 'nope' on type 'Query'", res.Errors[0].Message)
}

func TestCancelledContextFailsAsyncTasks(t *testing.T) {
	sch := mustLoadSchema(t, `type Query { a: String b: String }`, "Query.a")
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.a": NewMockValueResolver("A"),
		"Query.b": NewMockValueResolver("B"),
	})
	exec := NewExecutor(rt, sch)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gotRes := exec.ExecuteRequest(ctx, mustParseQuery(t, "{ a b }"), "", nil, nil)

	wantRes := &Result{
		Data:   map[string]any{"a": nil, "b": "B"},
		Errors: []Error{{Message: context.Canceled.Error(), Path: Path{"a"}}},
	}
	if diff := cmp.Diff(wantRes, gotRes, ignoreLocations); diff != "" {
		t.Fatalf("Result mismatch (-want +got):\n%s", diff)
	}
	require.Zero(t, rt.BatchCount())
}

type shortRuntime struct{ *MockRuntime }

func (shortRuntime) BatchResolveAsync(ctx context.Context, tasks []ResolveTask) []ResolveResult {
	return nil
}

func TestRuntimeResultCountMismatch(t *testing.T) {
	sch := mustLoadSchema(t, `type Query { a: String }`, "Query.a")
	exec := NewExecutor(shortRuntime{NewMockRuntime(nil)}, sch)

	res := exec.ExecuteRequest(context.Background(), mustParseQuery(t, "{ a }"), "", nil, nil)

	require.Equal(t, map[string]any{"a": nil}, res.Data)
	require.Len(t, res.Errors, 1)
	require.Equal(t, "runtime returned 0 results for 1 tasks", res.Errors[0].Message)
}

func TestLeafSerializationError(t *testing.T) {
	sch := mustLoadSchema(t, `type Query { n: Int }`)
	rt := NewMockRuntime(map[string]MockResolver{"Query.n": NewMockValueResolver("seven")})
	rt.SetSerializer(func(typeName string, val any) (any, error) {
		if _, ok := val.(int); !ok {
			return nil, errors.New("Int cannot represent " + val.(string))
		}
		return val, nil
	})
	exec := NewExecutor(rt, sch)

	gotRes := exec.ExecuteRequest(context.Background(), mustParseQuery(t, "{ n }"), "", nil, nil)

	wantRes := &Result{
		Data:   map[string]any{"n": nil},
		Errors: []Error{{Message: "Int cannot represent seven", Path: Path{"n"}}},
	}
	if diff := cmp.Diff(wantRes, gotRes, ignoreLocations); diff != "" {
		t.Fatalf("Result mismatch (-want +got):\n%s", diff)
	}
}

func TestPathString(t *testing.T) {
	require.Equal(t, "users[1].name", Path{"users", 1, "name"}.String())
	require.Equal(t, "", Path{}.String())
	require.Equal(t, "users[1].name: boom", Error{Message: "boom", Path: Path{"users", 1, "name"}}.Error())
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-logr/logr"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/require"

	config "github.com/hanpama/catstronauts/internal/config"
)

var update = flag.Bool("update", false, "rewrite golden files")

// assertGolden compares got with testdata/name and prints a unified diff on
// mismatch.
func assertGolden(t *testing.T, name, got string) {
	t.Helper()
	path := filepath.Join("testdata", name)
	if *update {
		require.NoError(t, os.WriteFile(path, []byte(got), 0o644))
	}
	want, err := os.ReadFile(path)
	require.NoError(t, err)
	if string(want) == got {
		return
	}
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(want)),
		B:        difflib.SplitLines(got),
		FromFile: path,
		ToFile:   "got",
		Context:  3,
	})
	t.Fatalf("%s mismatch:\n%s", name, diff)
}

func TestHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"help", "serve"}, &stdout, &stderr))
	require.Contains(t, stdout.String(), "serve FLAGS")
	require.Contains(t, stdout.String(), "-trackapi.backend")

	stdout.Reset()
	require.NoError(t, run([]string{"help"}, &stdout, &stderr))
	require.True(t, strings.HasPrefix(stdout.String(), "catstronauts: "))

	require.EqualError(t, run([]string{"help", "nope"}, &stdout, &stderr), `unknown help topic "nope"`)
}

func TestUnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run([]string{"deploy"}, &stdout, &stderr)
	require.EqualError(t, err, `unknown command "deploy"`)
	require.Contains(t, stderr.String(), "COMMANDS:")

	require.EqualError(t, run(nil, &stdout, &stderr), "missing command")
}

func TestPrintSchema(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"print-schema"}, &stdout, &stderr))
	assertGolden(t, "schema.graphql.golden", stdout.String())
}

func TestPrintSchemaToFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "schema.graphql")
	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"print-schema", "-out", out}, &stdout, &stderr))
	require.Empty(t, stdout.String())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assertGolden(t, "schema.graphql.golden", string(data))
}

func TestServeRejectsBadConfig(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run([]string{"serve", "-trackapi.backend", "ftp"}, &stdout, &stderr)
	require.ErrorContains(t, err, `trackapi.backend "ftp"`)
	require.Contains(t, stderr.String(), "serve FLAGS")
}

func newMemoryHandler(t *testing.T, args ...string) http.Handler {
	t.Helper()
	args = append([]string{"-trackapi.backend", "memory", "-trackapi.fixtures", filepath.Join("testdata", "fixtures.yaml")}, args...)
	cfg, err := config.Load(args, nil)
	require.NoError(t, err)
	api, closeAPI, err := openTrackAPI(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeAPI(context.Background()) })
	h, err := newHandler(cfg, api, logr.Discard())
	require.NoError(t, err)
	return h
}

func postQuery(t *testing.T, h http.Handler, query string) string {
	t.Helper()
	body, err := json.Marshal(map[string]string{"query": query})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, spew.Sdump(w.Header(), w.Body.String()))
	return w.Body.String()
}

func TestServeMemoryBackend(t *testing.T) {
	h := newMemoryHandler(t)

	got := postQuery(t, h, `{ tracksForHome { id title length modulesCount author { name photo } } }`)

	require.JSONEq(t, `{"data":{"tracksForHome":[
		{"id":"c_0","title":"Splish splash","length":1120,"modulesCount":6,
		 "author":{"name":"Henri, le Chat Noir","photo":"https://images.unsplash.com/photo-1442291928580-fb5d0856a8f1"}},
		{"id":"c_1","title":"Cat-stronomy, an introduction","length":null,"modulesCount":null,
		 "author":{"name":"Grumpy Cat","photo":""}}
	]}}`, got)
}

func TestServeMemoryBackendWithoutFixtures(t *testing.T) {
	cfg, err := config.Load([]string{"-trackapi.backend", "memory"}, nil)
	require.NoError(t, err)
	api, closeAPI, err := openTrackAPI(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeAPI(context.Background()) })
	h, err := newHandler(cfg, api, logr.Discard())
	require.NoError(t, err)

	got := postQuery(t, h, `{ tracksForHome { id } }`)

	require.JSONEq(t, `{"data":{"tracksForHome":[]}}`, got)
}

func TestServeIntrospectionToggle(t *testing.T) {
	query := `{ __type(name: "Track") { fields { name } } }`

	got := postQuery(t, newMemoryHandler(t), query)
	require.Contains(t, got, `{"name":"modulesCount"}`)

	got = postQuery(t, newMemoryHandler(t, "-graphql.introspection=false"), query)
	require.Contains(t, got, "introspection is disabled")
}

// Package graph holds the catalogue schema and the resolvers bound to it.
package graph

import (
	"context"
	_ "embed"
	"fmt"

	datasources "github.com/hanpama/catstronauts/internal/datasources"
	resolver "github.com/hanpama/catstronauts/internal/resolver"
	schema "github.com/hanpama/catstronauts/internal/schema"
)

//go:embed schema.graphql
var sdl string

// SDL returns the schema source.
func SDL() string { return sdl }

// Schema loads the schema without any resolver marks.
func Schema() (*schema.Schema, error) {
	return schema.Load("schema.graphql", sdl)
}

// Resolvers returns the resolver map. Every other field is read from its
// parent value.
func Resolvers() resolver.Map {
	return resolver.Map{
		"Query": {
			// tracks for the homepage grid of the web client
			"tracksForHome": tracksForHome,
		},
		"Track": {
			"author": trackAuthor,
		},
	}
}

func tracksForHome(ctx context.Context, parent any, args map[string]any, info resolver.Info) (any, error) {
	return datasources.MustFromContext(ctx).TrackAPI.GetTracksForHome(ctx)
}

func trackAuthor(ctx context.Context, parent any, args map[string]any, info resolver.Info) (any, error) {
	authorID, _ := resolver.Property(parent, "authorId").(string)
	return datasources.MustFromContext(ctx).TrackAPI.GetAuthor(ctx, authorID)
}

// NewRuntime loads the schema, checks the resolver map against it and
// returns the schema with resolver-backed fields marked, plus the runtime
// serving them.
func NewRuntime(opts ...resolver.Option) (*schema.Schema, *resolver.Runtime, error) {
	s, err := Schema()
	if err != nil {
		return nil, nil, err
	}
	m := Resolvers()
	if err := m.Check(s); err != nil {
		return nil, nil, fmt.Errorf("graph: %w", err)
	}
	m.Apply(s)
	return s, resolver.NewRuntime(m, opts...), nil
}

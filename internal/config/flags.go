package config

import (
	"bytes"
	"flag"
	"strings"
)

// FlagSet returns the serve flags bound to cfg. Flag defaults are the
// current values of cfg.
func FlagSet(name string, cfg *Config) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))

	fs.StringVar(&cfg.Server.Addr, "server.addr", cfg.Server.Addr, "HTTP listen address")
	fs.StringVar(&cfg.Server.Path, "server.path", cfg.Server.Path, "GraphQL endpoint path")
	fs.BoolVar(&cfg.Server.Pretty, "server.pretty", cfg.Server.Pretty, "Pretty-print JSON responses")
	fs.DurationVar(&cfg.Server.Timeout, "server.timeout", cfg.Server.Timeout, "Per-request timeout")
	fs.Int64Var(&cfg.Server.MaxBodyBytes, "server.max-body-bytes", cfg.Server.MaxBodyBytes, "Request body limit, 0 for none")
	fs.Var(newStringList(&cfg.Server.MetadataHeaders), "server.metadata-header", "Forward HTTP header to upstream calls")
	fs.Var(newStringList(&cfg.Server.CORSOrigins), "server.cors-origin", "Allowed CORS origin")
	fs.BoolVar(&cfg.Server.GraphiQL, "server.graphiql", cfg.Server.GraphiQL, "Serve GraphiQL to browsers")
	fs.BoolVar(&cfg.GraphQL.Introspection, "graphql.introspection", cfg.GraphQL.Introspection, "Enable GraphQL introspection")
	fs.IntVar(&cfg.GraphQL.Concurrency, "graphql.concurrency", cfg.GraphQL.Concurrency, "Resolvers run at once per depth")
	fs.StringVar(&cfg.TrackAPI.Backend, "trackapi.backend", cfg.TrackAPI.Backend, "Track data source: rest, mongo or memory")
	fs.StringVar(&cfg.TrackAPI.URL, "trackapi.url", cfg.TrackAPI.URL, "REST API base URL")
	fs.DurationVar(&cfg.TrackAPI.Timeout, "trackapi.timeout", cfg.TrackAPI.Timeout, "REST call timeout")
	fs.StringVar(&cfg.TrackAPI.Fixtures, "trackapi.fixtures", cfg.TrackAPI.Fixtures, "YAML fixtures for the memory backend")
	fs.StringVar(&cfg.Mongo.URI, "mongo.uri", cfg.Mongo.URI, "MongoDB connection string")
	fs.StringVar(&cfg.Mongo.Database, "mongo.database", cfg.Mongo.Database, "MongoDB database")
	fs.StringVar(&cfg.Otel.Endpoint, "otel.endpoint", cfg.Otel.Endpoint, "OTLP collector endpoint")
	fs.StringVar(&cfg.Otel.Service, "otel.service", cfg.Otel.Service, "OpenTelemetry service name")
	fs.IntVar(&cfg.Log.Verbosity, "log.verbosity", cfg.Log.Verbosity, "Log verbosity")
	return fs
}

// stringList is a repeatable flag. The first Set replaces values from
// earlier sources; later ones append.
type stringList struct {
	p   *[]string
	set bool
}

func newStringList(p *[]string) *stringList { return &stringList{p: p} }

func (s *stringList) String() string {
	if s == nil || s.p == nil {
		return ""
	}
	return strings.Join(*s.p, ",")
}

func (s *stringList) Set(v string) error {
	if !s.set {
		*s.p = nil
		s.set = true
	}
	*s.p = append(*s.p, v)
	return nil
}

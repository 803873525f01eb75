// Package config resolves the server configuration. Sources are applied in
// order, each overriding the previous: defaults, a .env file, CATSTRONAUTS_*
// environment variables, a YAML file, command line flags.
package config

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes the environment variable of every flag. The variable
// for -server.addr is CATSTRONAUTS_SERVER_ADDR.
const EnvPrefix = "CATSTRONAUTS_"

type Config struct {
	Server   Server   `yaml:"server"`
	GraphQL  GraphQL  `yaml:"graphql"`
	TrackAPI TrackAPI `yaml:"trackapi"`
	Mongo    Mongo    `yaml:"mongo"`
	Otel     Otel     `yaml:"otel"`
	Log      Log      `yaml:"log"`
}

type Server struct {
	Addr            string        `yaml:"addr"`
	Path            string        `yaml:"path"`
	Pretty          bool          `yaml:"pretty"`
	Timeout         time.Duration `yaml:"timeout"`
	MaxBodyBytes    int64         `yaml:"max-body-bytes"`
	MetadataHeaders []string      `yaml:"metadata-headers"`
	CORSOrigins     []string      `yaml:"cors-origins"`
	GraphiQL        bool          `yaml:"graphiql"`
}

type GraphQL struct {
	Introspection bool `yaml:"introspection"`
	// Concurrency bounds the resolvers run at once per depth.
	Concurrency int `yaml:"concurrency"`
}

type TrackAPI struct {
	// Backend is one of rest, mongo or memory.
	Backend  string        `yaml:"backend"`
	URL      string        `yaml:"url"`
	Timeout  time.Duration `yaml:"timeout"`
	Fixtures string        `yaml:"fixtures"`
}

type Mongo struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type Otel struct {
	Endpoint string `yaml:"endpoint"`
	Service  string `yaml:"service"`
}

type Log struct {
	Verbosity int `yaml:"verbosity"`
}

const (
	BackendREST   = "rest"
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

func Default() Config {
	return Config{
		Server: Server{
			Addr:     ":4000",
			Path:     "/",
			Timeout:  10 * time.Second,
			GraphiQL: true,
		},
		GraphQL: GraphQL{Introspection: true, Concurrency: 8},
		TrackAPI: TrackAPI{
			Backend: BackendREST,
			URL:     "https://odyssey-lift-off-rest-api.herokuapp.com/",
			Timeout: 5 * time.Second,
		},
		Mongo: Mongo{Database: "catstronauts"},
		Otel:  Otel{Service: "catstronauts"},
	}
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	switch c.TrackAPI.Backend {
	case BackendREST:
		if c.TrackAPI.URL == "" {
			errs = append(errs, errors.New("trackapi.url is required for the rest backend"))
		}
	case BackendMongo:
		if c.Mongo.URI == "" {
			errs = append(errs, errors.New("mongo.uri is required for the mongo backend"))
		}
		if c.Mongo.Database == "" {
			errs = append(errs, errors.New("mongo.database is required for the mongo backend"))
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("trackapi.backend %q is not one of rest, mongo, memory", c.TrackAPI.Backend))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if !strings.HasPrefix(c.Server.Path, "/") {
		errs = append(errs, fmt.Errorf("server.path %q must start with /", c.Server.Path))
	}
	if c.GraphQL.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("graphql.concurrency must be positive, got %d", c.GraphQL.Concurrency))
	}
	return errors.Join(errs...)
}

// Env looks up environment variables.
type Env func(key string) (string, bool)

// OSEnv reads the process environment, falling back to the dotenv file at
// path. A missing file is ignored.
func OSEnv(path string) (Env, error) {
	dotenv, err := godotenv.Read(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}, nil
}

// Load resolves the configuration from env, the YAML file named by -config
// or CATSTRONAUTS_CONFIG, and args.
func Load(args []string, env Env) (*Config, error) {
	if env == nil {
		env = func(string) (string, bool) { return "", false }
	}

	scratch := Default()
	var path string
	pfs := FlagSet("serve", &scratch)
	pfs.StringVar(&path, "config", "", "")
	if err := pfs.Parse(args); err != nil {
		return nil, err
	}
	if path == "" {
		path, _ = env(EnvPrefix + "CONFIG")
	}

	cfg := Default()
	if err := applyEnv(FlagSet("env", &cfg), env); err != nil {
		return nil, err
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		if err := decodeYAML(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
	}

	ffs := FlagSet("serve", &cfg)
	ffs.String("config", path, "")
	if err := ffs.Parse(args); err != nil {
		return nil, err
	}
	if ffs.NArg() > 0 {
		return nil, fmt.Errorf("config: unexpected arguments %q", ffs.Args())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data), yaml.Strict())
	return dec.Decode(cfg)
}

// EnvKey returns the environment variable for a flag name.
func EnvKey(flagName string) string {
	r := strings.NewReplacer(".", "_", "-", "_")
	return EnvPrefix + strings.ToUpper(r.Replace(flagName))
}

func applyEnv(fs *flag.FlagSet, env Env) error {
	var errs []error
	fs.VisitAll(func(f *flag.Flag) {
		v, ok := env(EnvKey(f.Name))
		if !ok {
			return
		}
		values := []string{v}
		if _, isList := f.Value.(*stringList); isList {
			values = splitList(v)
		}
		for _, v := range values {
			if err := f.Value.Set(v); err != nil {
				errs = append(errs, fmt.Errorf("config: %s: %w", EnvKey(f.Name), err))
			}
		}
	})
	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

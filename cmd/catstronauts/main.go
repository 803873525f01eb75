package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/MakeNowJust/heredoc/v2"

	graph "github.com/hanpama/catstronauts/internal/graph"
	schema "github.com/hanpama/catstronauts/internal/schema"
)

var rootUsage = heredoc.Doc(`
	catstronauts: GraphQL API for the Catstronauts learning catalogue

	USAGE:
	  catstronauts <command> [flags]

	COMMANDS:
	  serve            Run the HTTP GraphQL server
	  print-schema     Print the GraphQL schema
	  help             Show help for any command
`)

var serveUsage = heredoc.Doc(`
	serve FLAGS:
	  -config <file>                   YAML configuration file (env: CATSTRONAUTS_CONFIG)
	  -server.addr <addr>              HTTP listen address (default: :4000)
	  -server.path <path>              GraphQL endpoint path (default: /)
	  -server.pretty                   Pretty-print JSON responses
	  -server.timeout <duration>       Per-request timeout (default: 10s)
	  -server.max-body-bytes <n>       Request body limit, 0 for none
	  -server.metadata-header <name>   Forward HTTP header to upstream calls. Repeatable
	  -server.cors-origin <origin>     Allowed CORS origin, * for any. Repeatable
	  -server.graphiql <bool>          Serve GraphiQL to browsers (default: true)
	  -graphql.introspection <bool>    Enable GraphQL introspection (default: true)
	  -graphql.concurrency <n>         Resolvers run at once per depth (default: 8)
	  -trackapi.backend <name>         rest, mongo or memory (default: rest)
	  -trackapi.url <url>              REST API base URL
	  -trackapi.timeout <duration>     REST call timeout (default: 5s)
	  -trackapi.fixtures <file>        YAML fixtures for the memory backend
	  -mongo.uri <uri>                 MongoDB connection string
	  -mongo.database <name>           MongoDB database (default: catstronauts)
	  -otel.endpoint <addr>            OTLP collector endpoint
	  -otel.service <name>             OpenTelemetry service name (default: catstronauts)
	  -log.verbosity <n>               Log verbosity (default: 0)

	Every flag can also be set with CATSTRONAUTS_<FLAG> in the environment or
	a .env file, e.g. CATSTRONAUTS_TRACKAPI_BACKEND=memory. Flags override the
	config file, which overrides the environment.
`)

var printSchemaUsage = heredoc.Doc(`
	print-schema FLAGS:
	  -out <file>   Write the schema to file (default: stdout)
`)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "catstronauts:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd, cmdArgs := args[0], args[1:]
	switch cmd {
	case "serve":
		return cmdServe(cmdArgs, stderr)
	case "print-schema":
		return cmdPrintSchema(cmdArgs, stdout, stderr)
	case "help", "-h", "-help", "--help":
		return cmdHelp(cmdArgs, stdout)
	default:
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, rootUsage)
		return nil
	}
	switch args[0] {
	case "serve":
		fmt.Fprint(stdout, serveUsage)
	case "print-schema":
		fmt.Fprint(stdout, printSchemaUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

func cmdPrintSchema(args []string, stdout, stderr io.Writer) error {
	outFile := ""
	fs := flag.NewFlagSet("print-schema", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&outFile, "out", outFile, "Write the schema to file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, printSchemaUsage)
		return err
	}

	s, err := graph.Schema()
	if err != nil {
		return fmt.Errorf("load schema: %w", err)
	}
	sdl := schema.Render(s)
	if outFile == "" {
		_, err := io.WriteString(stdout, sdl)
		return err
	}
	return os.WriteFile(outFile, []byte(sdl), 0o644)
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/hanpama/gqlfront/config"
	"github.com/hanpama/gqlfront/internal/eventbus"
	"github.com/hanpama/gqlfront/internal/logging"
	"github.com/hanpama/gqlfront/internal/otel"
	"github.com/hanpama/gqlfront/registry"
	"github.com/hanpama/gqlfront/transport"
)

const rootUsage = `gqlfront — batched GraphQL client

USAGE:
  gqlfront <command> [flags]

COMMANDS:
  query            Run a GraphQL query against the configured endpoint
  mutate           Run a GraphQL mutation
  upload           Run a mutation carrying a multipart file upload
  help             Show help for any command
`

const opUsage = `query/mutate FLAGS:
  -config <file>            YAML config file with url and default headers
  -url <endpoint>           GraphQL endpoint (overrides config)
  -name <query name>        Query name used for dispatch (required)
  -query <text>             Query text with $-prefixed placeholders (required)
  -arg <name=Type=value>    Declare an argument. Repeatable
  -var <name=value>         Runtime variable override. Repeatable
  -header <name=value>      Extra request header. Repeatable
  -validate                 Syntax-check the composed document before sending
  -pretty                   Pretty-print the JSON result
  -timeout <duration>       Transport timeout, e.g. 10s (default: 10s)
  -log.level <level>        zerolog level (default: info)
  -otel.endpoint <addr>     OTLP collector endpoint
  -otel.service <name>      OpenTelemetry service name (default: gqlfront)
`

const uploadUsage = `upload FLAGS:
  (all query/mutate flags, plus)
  -field <name>             Multipart field name for the files (default: files)
  -file <path>              File to attach. Repeatable
`

func main() {
	// .env is optional; absence is not an error.
	_ = godotenv.Load()
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	global := flag.NewFlagSet("gqlfront", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer)) // silence automatic output
	if err := global.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]
	switch cmd {
	case "query":
		return cmdOp(cmdArgs, false, false)
	case "mutate":
		return cmdOp(cmdArgs, true, false)
	case "upload":
		return cmdOp(cmdArgs, true, true)
	case "help":
		return cmdHelp(cmdArgs)
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string) error {
	if len(args) == 0 {
		fmt.Print(rootUsage)
		return nil
	}
	switch args[0] {
	case "query", "mutate":
		fmt.Print(opUsage)
	case "upload":
		fmt.Print(uploadUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

// kvFlag collects repeatable name=value pairs.
type kvFlag struct {
	m map[string]string
}

func (f *kvFlag) String() string { return "" }

func (f *kvFlag) Set(v string) error {
	parts := strings.SplitN(v, "=", 2)
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
		return fmt.Errorf("invalid pair %q", v)
	}
	if f.m == nil {
		f.m = map[string]string{}
	}
	f.m[strings.TrimSpace(parts[0])] = parts[1]
	return nil
}

// argFlag collects repeatable name=Type=value argument declarations.
// The value part is optional: "id=Int" declares with no default.
type argFlag struct {
	args map[string]registry.ArgumentSpec
}

func (f *argFlag) String() string { return "" }

func (f *argFlag) Set(v string) error {
	parts := strings.SplitN(v, "=", 3)
	if len(parts) < 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
		return fmt.Errorf("invalid argument %q, want name=Type[=value]", v)
	}
	spec := registry.ArgumentSpec{Type: strings.TrimSpace(parts[1])}
	if len(parts) == 3 {
		spec.Value = parts[2]
	}
	if f.args == nil {
		f.args = map[string]registry.ArgumentSpec{}
	}
	f.args[strings.TrimSpace(parts[0])] = spec
	return nil
}

type stringListFlag []string

func (s *stringListFlag) String() string { return "" }

func (s *stringListFlag) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func cmdOp(args []string, mutate, upload bool) error {
	configPath := ""
	url := ""
	name := ""
	queryText := ""
	validate := false
	pretty := false
	timeout := 10 * time.Second
	logLevel := "info"
	otelEndpoint := ""
	otelService := "gqlfront"
	uploadField := "files"
	var argsFlag argFlag
	var varsFlag kvFlag
	var headersFlag kvFlag
	var files stringListFlag

	usage := opUsage
	if upload {
		usage = uploadUsage
	}

	fs := flag.NewFlagSet("op", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&configPath, "config", configPath, "YAML config file")
	fs.StringVar(&url, "url", url, "GraphQL endpoint")
	fs.StringVar(&name, "name", name, "Query name")
	fs.StringVar(&queryText, "query", queryText, "Query text")
	fs.Var(&argsFlag, "arg", "Argument declaration")
	fs.Var(&varsFlag, "var", "Runtime variable")
	fs.Var(&headersFlag, "header", "Extra request header")
	fs.BoolVar(&validate, "validate", validate, "Syntax-check the composed document")
	fs.BoolVar(&pretty, "pretty", pretty, "Pretty-print the JSON result")
	fs.DurationVar(&timeout, "timeout", timeout, "Transport timeout")
	fs.StringVar(&logLevel, "log.level", logLevel, "Log level")
	fs.StringVar(&otelEndpoint, "otel.endpoint", otelEndpoint, "OTLP collector endpoint")
	fs.StringVar(&otelService, "otel.service", otelService, "OpenTelemetry service name")
	if upload {
		fs.StringVar(&uploadField, "field", uploadField, "Multipart field name")
		fs.Var(&files, "file", "File to attach")
	}
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, usage)
		return err
	}
	if name == "" || queryText == "" {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("-name and -query are required")
	}

	cfg, err := loadConfig(configPath, url)
	if err != nil {
		return err
	}

	eventbus.Use(eventbus.New())
	log := logging.Setup(logLevel)
	logging.Attach(log)
	shutdown, err := otel.Setup(otelEndpoint, otelService)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	entry := registry.Entry{Name: name, Query: queryText, Args: argsFlag.args}
	vars := parseVars(varsFlag.m)
	opts := []registry.Option{registry.WithTransport(transport.New(transport.WithTimeout(timeout)))}
	if validate {
		opts = append(opts, registry.WithValidation())
	}

	ctx := context.Background()
	var res *registry.Result
	switch {
	case upload:
		reg := registry.NewMutation(cfg, opts...)
		if err := reg.Set(entry); err != nil {
			return err
		}
		attachments, closers, err := openFiles(files)
		defer closers()
		if err != nil {
			return err
		}
		res, err = reg.ExecUpload(ctx, uploadField, attachments, vars, headersFlag.m)
		if err != nil {
			return err
		}
	case mutate:
		res, err = registry.RunMutation(ctx, cfg, entry, vars, headersFlag.m, opts...)
		if err != nil {
			return err
		}
	default:
		res, err = registry.RunQuery(ctx, cfg, entry, vars, headersFlag.m, opts...)
		if err != nil {
			return err
		}
	}

	return printResult(res, pretty)
}

func loadConfig(path, url string) (*config.Config, error) {
	var cfg *config.Config
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.FromEnv()
	}
	if url != "" {
		cfg.URL = url
	}
	return cfg, nil
}

// parseVars interprets flag values as JSON scalars where possible so that
// -var count=3 becomes a number and -var active=true a boolean.
func parseVars(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch {
		case v == "true":
			out[k] = true
		case v == "false":
			out[k] = false
		case v == "null":
			out[k] = nil
		default:
			if n, err := strconv.Atoi(v); err == nil {
				out[k] = n
			} else if f, err := strconv.ParseFloat(v, 64); err == nil {
				out[k] = f
			} else {
				out[k] = v
			}
		}
	}
	return out
}

func openFiles(paths []string) ([]transport.File, func(), error) {
	var opened []*os.File
	closers := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}
	files := make([]transport.File, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, closers, err
		}
		opened = append(opened, f)
		files = append(files, transport.File{Name: filepath.Base(p), Content: f})
	}
	return files, closers, nil
}

func printResult(res *registry.Result, pretty bool) error {
	out := map[string]any{"data": res.Data, "errors": res.Errors}
	enc := json.NewEncoder(os.Stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(out); err != nil {
		return err
	}
	if len(res.Errors) > 0 {
		return fmt.Errorf("operation finished with %d error(s)", len(res.Errors))
	}
	return nil
}

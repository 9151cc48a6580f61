// Command pidctl validates, converts and stores P&ID diagram documents.
//
//	pidctl validate [-min-severity s] [-rules a,b] [-fail-fast] [-json] FILE
//	pidctl convert IN OUT
//	pidctl new [-title t] OUT
//	pidctl store put FILE
//	pidctl store get ID OUT
//	pidctl store ls
//	pidctl store export [-format f] ID [KEY]
//	pidctl store import KEY
//
// Store commands use the repository and blob store selected by the
// PIDCORE_* environment. PIDCORE_METRICS_FILE dumps operation metrics after
// any command and PIDCORE_TRACE=1 logs one JSON line per service operation.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"pidcore/internal/codec"
	"pidcore/internal/core"
	"pidcore/internal/validation"
	"pidcore/pkg/domain"
)

const usage = `usage: pidctl <command> [flags] [args]

commands:
  validate [-min-severity s] [-rules a,b] [-fail-fast] [-json] FILE
  convert IN OUT
  new [-title t] OUT
  store put FILE | get ID OUT | ls | export [-format f] ID [KEY] | import KEY
`

var (
	exitFunc   = os.Exit
	loadConfig = core.LoadConfig
)

// errInvalid signals a diagram that failed validation; the report is already written.
var errInvalid = errors.New("diagram is invalid")

// errUsage signals bad arguments; usage has already been printed.
var errUsage = errors.New("usage")

func main() {
	code := cli(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		_, _ = fmt.Fprint(stderr, usage)
		return 2
	}
	cfg, err := loadConfig()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "pidctl: %v\n", err)
		return 2
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	tel := newTelemetry(cfg, stderr)

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "validate":
		err = runValidate(ctx, rest, stdout, stderr, logger, tel)
	case "convert":
		err = runConvert(rest, stderr)
	case "new":
		err = runNew(rest, stdout, stderr)
	case "store":
		err = runStore(ctx, cfg, rest, stdout, stderr, logger, tel)
	case "-h", "-help", "--help", "help":
		_, _ = fmt.Fprint(stdout, usage)
		return 0
	default:
		_, _ = fmt.Fprintf(stderr, "pidctl: unknown command %q\n%s", cmd, usage)
		return 2
	}
	if werr := tel.write(); werr != nil && err == nil {
		err = werr
	}
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		return 2
	case errors.Is(err, errInvalid):
		return 1
	default:
		logger.Error("command failed", "command", cmd, "error", err)
		_, _ = fmt.Fprintf(stderr, "pidctl %s: %v\n", cmd, err)
		return 1
	}
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("pidctl "+name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func wantArgs(fs *flag.FlagSet, n int, stderr io.Writer) error {
	if fs.NArg() != n {
		_, _ = fmt.Fprintf(stderr, "%s: expected %d argument(s), got %d\n", fs.Name(), n, fs.NArg())
		return errUsage
	}
	return nil
}

func runValidate(ctx context.Context, args []string, stdout, stderr io.Writer, logger *slog.Logger, tel *telemetry) error {
	fs := newFlagSet("validate", stderr)
	minSeverity := fs.String("min-severity", "", "lowest severity to report (error, warning, info)")
	rules := fs.String("rules", "", "comma separated rule names to run; all when empty")
	failFast := fs.Bool("fail-fast", false, "stop at the first reported issue")
	asJSON := fs.Bool("json", false, "print the result as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := wantArgs(fs, 1, stderr); err != nil {
		return err
	}

	opts := domain.ValidationOptions{FailFast: *failFast}
	if *minSeverity != "" {
		sev, err := domain.ParseSeverity(*minSeverity)
		if err != nil {
			return err
		}
		opts.MinSeverity = sev
	}
	engine := validation.NewDefaultRulesEngine()
	known := engine.RuleNames()
	for _, name := range strings.Split(*rules, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !slices.Contains(known, domain.RuleType(name)) {
			_, _ = fmt.Fprintf(stderr, "%s: unknown rule %q (known: %s)\n", fs.Name(), name, joinRules(known))
			return errUsage
		}
		opts.Rules = append(opts.Rules, domain.RuleType(name))
	}

	svc := core.NewService(append(tel.options(),
		core.WithLogger(logger),
		core.WithRulesEngine(engine),
		core.WithValidationOptions(opts),
		core.WithAutoValidate(false),
	)...)
	if _, err := importFile(svc, fs.Arg(0)); err != nil {
		return err
	}
	res, err := svc.Validate(ctx)
	if err != nil {
		return err
	}
	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else if err := writeReport(stdout, fs.Arg(0), res); err != nil {
		return err
	}
	if !res.Valid {
		return errInvalid
	}
	return nil
}

func joinRules(names []domain.RuleType) string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = string(n)
	}
	return strings.Join(out, ", ")
}

// writeReport prints issues most severe first, keeping rule order within a severity.
func writeReport(w io.Writer, name string, res domain.ValidationResult) error {
	issues := slices.Clone(res.Issues)
	slices.SortStableFunc(issues, func(a, b domain.Issue) int {
		return b.Severity.Rank() - a.Severity.Rank()
	})
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, is := range issues {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", strings.ToUpper(string(is.Severity)), is.Rule, strings.Join(is.ElementIDs, ","), is.Message)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	status := "valid"
	if !res.Valid {
		status = "invalid"
	}
	_, err := fmt.Fprintf(w, "%s: %s (%d errors, %d warnings, %d info)\n",
		name, status, res.Summary.Errors, res.Summary.Warnings, res.Summary.Info)
	return err
}

func runConvert(args []string, stderr io.Writer) error {
	fs := newFlagSet("convert", stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := wantArgs(fs, 2, stderr); err != nil {
		return err
	}
	d, err := readFile(fs.Arg(0))
	if err != nil {
		return err
	}
	return writeFile(fs.Arg(1), d)
}

func runNew(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("new", stderr)
	title := fs.String("title", domain.DefaultTitle, "drawing title")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := wantArgs(fs, 1, stderr); err != nil {
		return err
	}
	d := domain.NewDiagram(domain.DiagramSpec{Metadata: &domain.DiagramMetadata{Title: *title}})
	if err := writeFile(fs.Arg(0), d); err != nil {
		return err
	}
	_, err := fmt.Fprintln(stdout, d.ID)
	return err
}

func runStore(ctx context.Context, cfg core.Config, args []string, stdout, stderr io.Writer, logger *slog.Logger, tel *telemetry) error {
	if len(args) == 0 {
		_, _ = fmt.Fprint(stderr, usage)
		return errUsage
	}
	sub, rest := args[0], args[1:]
	fs := newFlagSet("store "+sub, stderr)
	format := fs.String("format", string(codec.FormatJSON), "export format (json, yaml, msgpack)")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	arity := map[string][2]int{"put": {1, 1}, "get": {2, 2}, "ls": {0, 0}, "export": {1, 2}, "import": {1, 1}}
	bounds, ok := arity[sub]
	if !ok {
		_, _ = fmt.Fprintf(stderr, "pidctl: unknown store command %q\n%s", sub, usage)
		return errUsage
	}
	if n := fs.NArg(); n < bounds[0] || n > bounds[1] {
		_, _ = fmt.Fprintf(stderr, "%s: expected %d to %d argument(s), got %d\n", fs.Name(), bounds[0], bounds[1], n)
		return errUsage
	}

	svc, err := core.NewServiceFromConfig(ctx, cfg, append(tel.options(), core.WithLogger(logger), core.WithAutoValidate(false))...)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	switch sub {
	case "put":
		d, err := importFile(svc, fs.Arg(0))
		if err != nil {
			return err
		}
		if err := svc.Save(ctx); err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, d.ID)
		return err
	case "get":
		if err := svc.Open(ctx, fs.Arg(0)); err != nil {
			return err
		}
		return writeFile(fs.Arg(1), svc.Store().Diagram())
	case "ls":
		list, err := svc.List(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "ID\tTITLE\tVERSION\tELEMENTS\tUPDATED")
		for _, sum := range list {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", sum.ID, sum.Title, sum.Version, sum.Elements, sum.UpdatedAt.Format("2006-01-02 15:04:05"))
		}
		return tw.Flush()
	case "export":
		if err := svc.Open(ctx, fs.Arg(0)); err != nil {
			return err
		}
		info, err := svc.Export(ctx, fs.Arg(1), codec.Format(*format))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, info.Key)
		return err
	default: // import
		d, err := svc.Import(ctx, fs.Arg(0))
		if err != nil {
			return err
		}
		if err := svc.Save(ctx); err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, d.ID)
		return err
	}
}

func importFile(svc *core.Service, path string) (domain.Diagram, error) {
	c, err := codec.ForPath(path)
	if err != nil {
		return domain.Diagram{}, err
	}
	f, err := os.Open(path) // #nosec G304 -- path is an explicit CLI argument
	if err != nil {
		return domain.Diagram{}, err
	}
	defer func() { _ = f.Close() }()
	return svc.ImportFrom(f, c)
}

func readFile(path string) (domain.Diagram, error) {
	c, err := codec.ForPath(path)
	if err != nil {
		return domain.Diagram{}, err
	}
	data, err := os.ReadFile(path) // #nosec G304 -- path is an explicit CLI argument
	if err != nil {
		return domain.Diagram{}, err
	}
	d, err := codec.Unmarshal(c, data)
	if err != nil {
		return domain.Diagram{}, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

func writeFile(path string, d domain.Diagram) error {
	c, err := codec.ForPath(path)
	if err != nil {
		return err
	}
	data, err := codec.Marshal(c, d)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

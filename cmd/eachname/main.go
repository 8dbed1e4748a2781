// Command eachname previews the test names a set of fixture files would
// register.
//
// Usage:
//
//	eachname [flags] <pattern>...
//
// Patterns use doublestar syntax, so "testdata/**/*.yaml" crosses directories.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/specvital/each/pkg/config"
	"github.com/specvital/each/pkg/domain"
	"github.com/specvital/each/pkg/fixture"
	"github.com/specvital/each/pkg/logging"
	"github.com/specvital/each/pkg/selector"
)

const (
	outputJSON = "json"
	outputText = "text"
	outputYAML = "yaml"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

type cliFlags struct {
	hasIndex bool
	index    int
	name     string
	output   string
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("eachname", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: eachname [flags] <pattern>...\n\nFlags:\n")
		fs.PrintDefaults()
	}

	var cli cliFlags
	fs.StringVar(&cli.name, "name", "", "Name template overriding the one in each fixture.")
	fs.IntVar(&cli.index, "index", 0, "Only plan the case at this index.")
	fs.StringVarP(&cli.output, "output", "o", outputText, "Output format: text, json, yaml.")
	fs.String("log-level", "", "Log level: debug, info, warn, error.")
	fs.Bool("fail-on-focus", false, "Exit non-zero when a fixture is focused.")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}
	cli.hasIndex = fs.Changed("index")
	switch cli.output {
	case outputJSON, outputText, outputYAML:
	default:
		fmt.Fprintf(stderr, "eachname: unknown output format %q\n", cli.output)
		return 2
	}

	settings, err := config.Load(config.WithFlags(fs))
	if err != nil {
		fmt.Fprintf(stderr, "eachname: %v\n", err)
		return 1
	}
	logger := logging.NewWithWriter("eachname", settings.LogLevel, stderr)

	res, err := fixture.Glob(ctx, fs.Args())
	if err != nil {
		fmt.Fprintf(stderr, "eachname: %v\n", err)
		return 1
	}
	logger.Debug("fixtures matched", "tables", len(res.Tables), "errors", len(res.Errors))

	code := 0
	for _, lerr := range res.Errors {
		logger.Error("failed to load fixture", "path", lerr.Path, "error", lerr.Err)
		code = 1
	}

	inv, err := plan(res.Tables, cli, settings)
	if err != nil {
		fmt.Fprintf(stderr, "eachname: %v\n", err)
		return 1
	}

	for _, p := range inv.Plans {
		if p.Focused() {
			logger.Warn("focused fixture", "path", p.Source)
			if settings.FailOnFocus {
				code = 1
			}
		}
	}

	if err := write(stdout, cli.output, inv); err != nil {
		fmt.Fprintf(stderr, "eachname: %v\n", err)
		return 1
	}
	return code
}

func plan(tables []*fixture.Table, cli cliFlags, settings *config.Settings) (domain.Inventory, error) {
	var extra []selector.Filter[any]
	if cli.hasIndex {
		extra = append(extra, selector.Index[any](cli.index))
	}
	if settings.HasCase() {
		extra = append(extra, selector.Index[any](settings.Case))
	}

	inv := domain.Inventory{Plans: make([]domain.Plan, 0, len(tables))}
	for _, tbl := range tables {
		p, err := tbl.Plan(cli.name, extra...)
		if err != nil {
			return inv, fmt.Errorf("plan %s: %w", tbl.Path, err)
		}
		inv.Plans = append(inv.Plans, *p)
	}
	return inv, nil
}

func write(w io.Writer, format string, inv domain.Inventory) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(inv)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(inv); err != nil {
			return err
		}
		return enc.Close()
	default:
		_, err := io.WriteString(w, renderText(newTheme(w), inv))
		return err
	}
}

type theme struct {
	header  lipgloss.Style
	index   lipgloss.Style
	muted   lipgloss.Style
	focused lipgloss.Style
	skipped lipgloss.Style
}

func newTheme(w io.Writer) theme {
	r := lipgloss.NewRenderer(w)
	return theme{
		header:  r.NewStyle().Bold(true),
		index:   r.NewStyle().Foreground(lipgloss.Color("6")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
		focused: r.NewStyle().Foreground(lipgloss.Color("3")),
		skipped: r.NewStyle().Foreground(lipgloss.Color("8")).Italic(true),
	}
}

func renderText(th theme, inv domain.Inventory) string {
	var b strings.Builder
	for _, p := range inv.Plans {
		b.WriteString(th.header.Render(p.Source))
		b.WriteString(" ")
		b.WriteString(th.muted.Render(fmt.Sprintf("(%d of %d cases, filter: %s)", p.Count(), p.Total, p.Filter)))
		b.WriteString("\n")

		for _, reg := range p.Registrations {
			b.WriteString("  ")
			b.WriteString(th.index.Render(fmt.Sprintf("[%d]", reg.Index)))
			b.WriteString(" ")
			b.WriteString(reg.Name)
			switch reg.Status {
			case domain.CaseStatusFocused:
				b.WriteString(" " + th.focused.Render("(focused)"))
			case domain.CaseStatusSkipped:
				b.WriteString(" " + th.skipped.Render("(skipped)"))
			}
			b.WriteString("\n")
		}
	}
	b.WriteString(th.muted.Render(fmt.Sprintf("%d fixtures, %d cases", len(inv.Plans), inv.CountCases())))
	b.WriteString("\n")
	return b.String()
}

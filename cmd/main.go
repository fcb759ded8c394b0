package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/jaxxstorm/gitvers"
)

// Version will be set by build process
var Version = "dev"

type Globals struct {
	Repo            string `short:"r" env:"GITVERS_REPO" help:"Repository path (default: current directory)"`
	Order           string `default:"lexical" enum:"lexical,version" env:"GITVERS_ORDER" help:"Release tag ordering: lexical (string sort) or version (semantic version sort)"`
	HeadLookup      string `default:"ref" enum:"ref,log" env:"GITVERS_HEAD_LOOKUP" help:"Head commit lookup: ref (HEAD) or log (first commit of the full history walk)"`
	CI              string `name:"ci" env:"SNAP_CI" help:"CI indicator, the pipeline counter is only used when this is set to true"`
	PipelineCounter string `env:"SNAP_PIPELINE_COUNTER" help:"CI pipeline counter"`
	JSON            bool   `short:"j" help:"Output as JSON"`
	LogLevel        string `default:"warn" enum:"debug,info,warn,error" env:"GITVERS_LOG_LEVEL" help:"Log level"`
	ShowVersion     bool   `help:"Show version information" name:"version"`
}

type SchemeFlags struct {
	TagPattern        string `default:"${tag_pattern}" env:"GITVERS_TAG_PATTERN" help:"Regex matching whole release tag names"`
	MatchGroup        string `default:"${match_group}" env:"GITVERS_MATCH_GROUP" help:"Template selecting the version from the pattern's groups"`
	Splitter          string `default:"${splitter}" env:"GITVERS_SPLITTER" help:"Separator between version components"`
	SnapshotQualifier string `default:"${qualifier}" name:"qualifier" env:"GITVERS_QUALIFIER" help:"Suffix for snapshot versions"`
}

func (s SchemeFlags) scheme() gitvers.Scheme {
	return gitvers.Scheme{
		TagPattern:        s.TagPattern,
		MatchGroup:        s.MatchGroup,
		Splitter:          s.Splitter,
		SnapshotQualifier: s.SnapshotQualifier,
	}
}

type CLI struct {
	Globals

	Build       BuildCmd       `cmd:"" default:"1" help:"Print the release or next snapshot version"`
	LatestTag   LatestTagCmd   `cmd:"" help:"Print the latest release tag"`
	Integration IntegrationCmd `cmd:"" help:"Print the integration version"`
	Head        HeadCmd        `cmd:"" help:"Print the head commit id"`
}

type BuildCmd struct {
	SchemeFlags `embed:""`

	Release bool `env:"GITVERS_RELEASE" help:"Print the release version instead of the next snapshot"`
}

func (c *BuildCmd) Run(g *Globals, log *slog.Logger, out io.Writer) error {
	resolver, err := g.resolver(c.SchemeFlags, log)
	if err != nil {
		return err
	}

	version, err := resolver.BuildVersion(c.scheme(), c.Release)
	if err != nil {
		return err
	}

	return g.print(out, "version", version)
}

type LatestTagCmd struct {
	SchemeFlags `embed:""`
}

func (c *LatestTagCmd) Run(g *Globals, log *slog.Logger, out io.Writer) error {
	resolver, err := g.resolver(c.SchemeFlags, log)
	if err != nil {
		return err
	}

	tag, found, err := resolver.LatestReleaseTag(c.TagPattern)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w matching %q", gitvers.ErrNoReleaseTag, c.TagPattern)
	}

	return g.print(out, "tag", tag)
}

type IntegrationCmd struct{}

func (c *IntegrationCmd) Run(g *Globals, log *slog.Logger, out io.Writer) error {
	resolver, err := g.resolver(SchemeFlags{}, log)
	if err != nil {
		return err
	}

	version, err := resolver.IntegrationVersion()
	if err != nil {
		return err
	}

	return g.print(out, "version", version)
}

type HeadCmd struct{}

func (c *HeadCmd) Run(g *Globals, log *slog.Logger, out io.Writer) error {
	resolver, err := g.resolver(SchemeFlags{}, log)
	if err != nil {
		return err
	}

	commit, err := resolver.HeadCommit()
	if err != nil {
		return err
	}

	return g.print(out, "commit", commit)
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newParser(cli *CLI, stdout, stderr io.Writer) (*kong.Kong, error) {
	return kong.New(cli,
		kong.Name("gitvers"),
		kong.Description("Calculate build versions from annotated release tags in a Git repository"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Writers(stdout, stderr),
		kong.Vars{
			"version":     Version,
			"tag_pattern": gitvers.DefaultScheme.TagPattern,
			"match_group": gitvers.DefaultScheme.MatchGroup,
			"splitter":    gitvers.DefaultScheme.Splitter,
			"qualifier":   gitvers.DefaultScheme.SnapshotQualifier,
		},
	)
}

func run(args []string, stdout, stderr io.Writer) error {
	var cli CLI

	parser, err := newParser(&cli, stdout, stderr)
	if err != nil {
		return err
	}

	ctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	if cli.ShowVersion {
		return cli.showVersion(stdout)
	}

	log, err := newLogger(cli.LogLevel, stderr)
	if err != nil {
		return err
	}

	ctx.BindTo(stdout, (*io.Writer)(nil))
	return ctx.Run(&cli.Globals, log)
}

func newLogger(level string, w io.Writer) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", level, err)
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

func (g *Globals) showVersion(out io.Writer) error {
	versionInfo := map[string]string{
		"version": Version,
		"name":    "gitvers",
	}

	if g.JSON {
		return json.NewEncoder(out).Encode(versionInfo)
	}

	_, err := fmt.Fprintf(out, "gitvers version %s\n", Version)
	return err
}

func (g *Globals) resolver(scheme SchemeFlags, log *slog.Logger) (*gitvers.Resolver, error) {
	repoPath := g.Repo
	if repoPath == "" {
		var err error
		repoPath, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting current directory: %w", err)
		}
	}

	opts := gitvers.Options{
		Path: repoPath,
		Environment: gitvers.Environment{
			CI:              g.CI,
			PipelineCounter: g.PipelineCounter,
		},
		Logger: log,
	}

	if g.Order == "version" {
		opts.TagOrder = gitvers.VersionOrder(scheme.TagPattern, scheme.MatchGroup)
	}
	if g.HeadLookup == "log" {
		opts.HeadLookup = gitvers.HeadFromLog
	}

	return gitvers.NewResolver(opts)
}

func (g *Globals) print(out io.Writer, key, value string) error {
	if g.JSON {
		return json.NewEncoder(out).Encode(map[string]string{key: value})
	}

	_, err := fmt.Fprintln(out, value)
	return err
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dalemusser/researchhub/internal/client"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultServer = "http://localhost:8000"

// errUsage marks a bad invocation; the usage text has already been printed.
var errUsage = errors.New("usage")

type app struct {
	out    io.Writer
	log    *zap.Logger
	tokens *client.FileTokens
	c      *client.Client
}

type command struct {
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"login":         {"log in and store the access token", cmdLogin},
	"logout":        {"forget the stored token", cmdLogout},
	"me":            {"show the signed-in user", cmdMe},
	"dashboard":     {"show the landing summary for your role", cmdDashboard},
	"notifications": {"list notifications", cmdNotifications},
	"open":          {"open a notification and mark it read", cmdOpen},
	"act":           {"accept or reject an invitation or join request", cmdAct},
	"chat":          {"read or post to a group chat", cmdChat},
	"respond":       {"answer a mentorship request", cmdRespond},
	"match":         {"find students, professors or groups", cmdMatch},
	"import":        {"bulk-create accounts from a CSV file", cmdImport},
	"template":      {"print a CSV template", cmdTemplate},
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("researchctl", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)
	var (
		cfgPath string
		server  string
		verbose bool
	)
	fs.StringVar(&cfgPath, "config", defaultConfigPath(), "settings file holding the server URL and token")
	fs.StringVar(&server, "server", "", "API base URL (saved to the settings file)")
	fs.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	fs.Usage = func() { usage(stderr, fs) }
	if err := fs.Parse(args); err != nil {
		return 2
	}

	rest := fs.Args()
	if len(rest) == 0 {
		usage(stderr, fs)
		return 2
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", rest[0])
		usage(stderr, fs)
		return 2
	}

	logger := newLogger(stderr, verbose)
	defer func() { _ = logger.Sync() }()

	tokens, err := client.LoadFileTokens(cfgPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if server != "" {
		if err := tokens.SetBaseURL(server); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
	}
	base := tokens.Config().BaseURL
	if base == "" {
		base = defaultServer
	}

	a := &app{
		out:    stdout,
		log:    logger,
		tokens: tokens,
		c:      client.New(base, tokens, logger),
	}
	if err := cmd.run(ctx, a, rest[1:]); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(stderr, describe(err))
		}
		return 1
	}
	return 0
}

func usage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintln(w, "usage: researchctl [flags] <command> [args]")
	fmt.Fprintln(w, "\ncommands:")
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(w, "  %-14s %s\n", n, commands[n].summary)
	}
	fmt.Fprintln(w, "\nflags:")
	fs.SetOutput(w)
	fs.PrintDefaults()
}

func describe(err error) string {
	if errors.Is(err, client.ErrUnauthorized) {
		return "not signed in (run: researchctl login)"
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("error %d: %s", apiErr.Status, apiErr.Detail)
	}
	return err.Error()
}

func defaultConfigPath() string {
	if p := os.Getenv("RESEARCHCTL_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".researchctl.yaml"
	}
	return filepath.Join(home, ".researchctl.yaml")
}

func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), level)
	return zap.New(core)
}

// subcommand is the flag set of one command plus its positional usage.
type subcommand struct {
	*pflag.FlagSet
	name, args string
	out        io.Writer
}

func (a *app) sub(name, args string) subcommand {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(a.out)
	return subcommand{FlagSet: fs, name: name, args: args, out: a.out}
}

// parse checks for exactly want positional arguments.
func (s subcommand) parse(argv []string, want int) ([]string, error) {
	if err := s.Parse(argv); err != nil {
		return nil, errUsage
	}
	if s.NArg() != want {
		fmt.Fprintf(s.out, "usage: researchctl %s %s\n", s.name, s.args)
		s.PrintDefaults()
		return nil, errUsage
	}
	return s.Args(), nil
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

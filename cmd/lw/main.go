package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/claude/lightweight/internal/client"
)

// Version is set at build time via -ldflags.
var Version = "dev"

const defaultServer = "http://localhost:8080"

// app carries what every subcommand needs.
type app struct {
	state  *client.StateDB
	client *client.Client
	out    io.Writer
	in     io.Reader
	log    *slog.Logger
}

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = []command{
	{"setup", "set the server password on first use", runSetup},
	{"login", "log in and save the token", runLogin},
	{"exercises", "list or add exercises", runExercises},
	{"templates", "list templates", runTemplates},
	{"start", "start a session, optionally from a template", runStart},
	{"status", "show the session in progress", runStatus},
	{"pause", "pause the session in progress", transitionCommand("pause")},
	{"resume", "resume a paused session", transitionCommand("resume")},
	{"finish", "complete the session in progress", transitionCommand("complete")},
	{"abandon", "abandon the session in progress", transitionCommand("abandon")},
	{"add-exercise", "add an exercise to the session in progress", runAddExercise},
	{"log", "log a set", runLog},
	{"undo", "delete the most recently logged set", runUndo},
	{"watch", "show a live timer for the session in progress", runWatch},
	{"history", "show recent sets for an exercise", runHistory},
	{"sessions", "list recent sessions", runSessions},
	{"import", "import sessions from JSON files", runImport},
	{"mcp", "serve MCP over stdio against the server", runMCP},
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage: lw [flags] <command> [command flags]\n\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(out, "  %-13s %s\n", c.name, c.usage)
	}
	fmt.Fprintf(out, "\nFlags:\n")
	flag.PrintDefaults()
}

func main() {
	serverURL := flag.String("server", "", "server URL (remembered after login; default "+defaultServer+")")
	stateDir := flag.String("state-dir", "", "directory for local state (default ~/.lightweight)")
	apiKey := flag.String("api-key", os.Getenv("LW_API_KEY"), "static API key instead of a login token")
	verbose := flag.Bool("v", false, "verbose logging to stderr")
	version := flag.Bool("version", false, "print version and exit")
	flag.Usage = usage
	flag.Parse()

	if *version {
		fmt.Println("lw", Version)
		return
	}
	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	// stdout belongs to command output (and to the MCP protocol in `lw mcp`).
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	name := flag.Arg(0)
	var cmd *command
	for i := range commands {
		if commands[i].name == name {
			cmd = &commands[i]
		}
	}
	if cmd == nil {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
		usage()
		os.Exit(2)
	}

	dir := *stateDir
	if dir == "" {
		d, err := client.DefaultStateDir()
		if err != nil {
			log.Error("failed to locate state directory", "error", err)
			os.Exit(1)
		}
		dir = d
	}
	state, err := client.OpenStateDB(dir)
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}

	a, err := newApp(state, *serverURL, *apiKey, log)
	if err != nil {
		state.Close()
		log.Error("failed to read state", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = cmd.run(ctx, a, flag.Args()[1:])
	stop()
	state.Close()

	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if errors.Is(err, client.ErrUnauthorized) {
			fmt.Fprintln(os.Stderr, "Run `lw login` to log in again.")
		}
		os.Exit(1)
	}
}

func newApp(state *client.StateDB, serverURL, apiKey string, log *slog.Logger) (*app, error) {
	saved, err := state.Get(client.KeyServerURL)
	if err != nil {
		return nil, err
	}
	token, err := state.Get(client.KeyToken)
	if err != nil {
		return nil, err
	}

	url := serverURL
	if url == "" {
		url = saved
	}
	if url == "" {
		url = defaultServer
	}
	// A token belongs to the server it was issued by.
	if serverURL != "" && saved != "" && serverURL != saved {
		token = ""
	}

	c := client.New(url, token)
	if apiKey != "" {
		c.SetAPIKey(apiKey)
	}
	return &app{state: state, client: c, out: os.Stdout, in: os.Stdin, log: log}, nil
}

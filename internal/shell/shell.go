package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"gopkg.in/yaml.v3"

	"github.com/giantswarm/patternhost/internal/app"
	"github.com/giantswarm/patternhost/internal/events"
	"github.com/giantswarm/patternhost/internal/formatting"
	"github.com/giantswarm/patternhost/internal/pattern"
)

// errQuit ends the read loop.
var errQuit = errors.New("quit")

// Controller is the part of the host the shell drives.
type Controller interface {
	Enable(id pattern.ID) error
	Disable(id pattern.ID) error
	SetParam(key string, value any) error
	SetStyle(url string) error
	ReloadStyle() error
	Status() app.HostStatus
	Events() []events.Event
	Registry() *pattern.Registry
}

type command struct {
	name  string
	usage string
	help  string
	run   func(s *Shell, args []string) error
}

var commands []command

func init() {
	commands = []command{
		{"enable", "enable <id>", "Declare a pattern", cmdEnable},
		{"disable", "disable <id>", "Withdraw a pattern", cmdDisable},
		{"param", "param <key> <value>", "Set a parameter for all active patterns", cmdParam},
		{"style", "style <url>", "Switch the map style", cmdStyle},
		{"reload", "reload", "Reload the current style", cmdReload},
		{"status", "status", "Show patterns, layers and counters", cmdStatus},
		{"patterns", "patterns", "List registered patterns", cmdPatterns},
		{"events", "events [n]", "Show recent lifecycle events", cmdEvents},
		{"help", "help", "List commands", cmdHelp},
		{"quit", "quit", "Leave the shell", func(*Shell, []string) error { return errQuit }},
	}
}

// Shell is an interactive console bound to a Controller.
type Shell struct {
	host      Controller
	formatter formatting.Formatter
	out       io.Writer
}

// New creates a shell writing to out.
func New(host Controller, formatter formatting.Formatter, out io.Writer) *Shell {
	return &Shell{host: host, formatter: formatter, out: out}
}

// Execute runs a single command line. It reports whether the shell should
// exit.
func (s *Shell) Execute(line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	name := strings.ToLower(fields[0])
	if name == "exit" {
		name = "quit"
	}
	for _, c := range commands {
		if c.name != name {
			continue
		}
		err := c.run(s, fields[1:])
		if errors.Is(err, errQuit) {
			return true, nil
		}
		return false, err
	}
	return false, fmt.Errorf("unknown command %q, type 'help' for a list", fields[0])
}

// Run reads commands until quit, EOF or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "patterns> ",
		HistoryFile:       filepath.Join(os.TempDir(), ".patternhost_history"),
		AutoComplete:      s.completer(),
		InterruptPrompt:   "^C",
		EOFPrompt:         "quit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline instance: %w", err)
	}
	defer rl.Close()

	go func() {
		<-ctx.Done()
		_ = rl.Close()
	}()

	fmt.Fprintln(s.out, "Type 'help' for available commands. Use TAB for completion.")
	for {
		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("readline error: %w", err)
		}

		quit, err := s.Execute(line)
		if err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

func (s *Shell) completer() *readline.PrefixCompleter {
	ids := func(string) []string {
		out := []string{}
		for _, id := range s.host.Registry().IDs() {
			out = append(out, string(id))
		}
		return out
	}

	items := make([]readline.PrefixCompleterInterface, 0, len(commands))
	for _, c := range commands {
		switch c.name {
		case "enable", "disable":
			items = append(items, readline.PcItem(c.name, readline.PcItemDynamic(ids)))
		case "param":
			items = append(items, readline.PcItem(c.name, readline.PcItem("opacity")))
		default:
			items = append(items, readline.PcItem(c.name))
		}
	}
	return readline.NewPrefixCompleter(items...)
}

func usage(name string) error {
	for _, c := range commands {
		if c.name == name {
			return fmt.Errorf("usage: %s", c.usage)
		}
	}
	return fmt.Errorf("usage: %s", name)
}

func cmdEnable(s *Shell, args []string) error {
	if len(args) != 1 {
		return usage("enable")
	}
	if err := s.host.Enable(pattern.ID(args[0])); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Enabled %s\n", args[0])
	return nil
}

func cmdDisable(s *Shell, args []string) error {
	if len(args) != 1 {
		return usage("disable")
	}
	if err := s.host.Disable(pattern.ID(args[0])); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Disabled %s\n", args[0])
	return nil
}

func cmdParam(s *Shell, args []string) error {
	if len(args) != 2 {
		return usage("param")
	}
	value, err := parseValue(args[1])
	if err != nil {
		return err
	}
	if err := s.host.SetParam(args[0], value); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Set %s = %v\n", args[0], value)
	return nil
}

// parseValue decodes a scalar the way the manifest would.
func parseValue(raw string) (any, error) {
	var value any
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
		return nil, fmt.Errorf("invalid value %q: %w", raw, err)
	}
	switch value.(type) {
	case map[string]any, []any:
		return nil, fmt.Errorf("invalid value %q: expected a scalar", raw)
	}
	return value, nil
}

func cmdStyle(s *Shell, args []string) error {
	if len(args) != 1 {
		return usage("style")
	}
	if err := s.host.SetStyle(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Loading style %s\n", args[0])
	return nil
}

func cmdReload(s *Shell, args []string) error {
	if err := s.host.ReloadStyle(); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Reloading style")
	return nil
}

func cmdStatus(s *Shell, args []string) error {
	fmt.Fprintln(s.out, s.formatter.FormatStatus(s.host.Status()))
	return nil
}

func cmdPatterns(s *Shell, args []string) error {
	status := s.host.Status()
	fmt.Fprintln(s.out, s.formatter.FormatCatalog(s.host.Registry().IDs(), status.Declared))
	return nil
}

func cmdEvents(s *Shell, args []string) error {
	evs := s.host.Events()
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return usage("events")
		}
		if n < len(evs) {
			evs = evs[len(evs)-n:]
		}
	}
	fmt.Fprintln(s.out, s.formatter.FormatEvents(evs))
	return nil
}

func cmdHelp(s *Shell, args []string) error {
	fmt.Fprintln(s.out, "Available commands:")
	for _, c := range commands {
		fmt.Fprintf(s.out, "  %-22s %s\n", c.usage, c.help)
	}
	return nil
}

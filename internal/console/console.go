package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/vk/statgraph/internal/builder"
	"github.com/vk/statgraph/internal/engine"
)

// ErrQuit is returned by Execute for the quit command.
var ErrQuit = errors.New("quit")

// Prompt is printed before each interactive line.
const Prompt = "> "

// CommandObserver is notified after every executed command.
type CommandObserver interface {
	CommandHandled(command string, err error)
}

// Console dispatches text commands to an engine.
type Console struct {
	eng      *engine.Engine
	logger   *slog.Logger
	observer CommandObserver
	commands map[string]*command
}

// Option configures a Console.
type Option func(*Console)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Console) { c.logger = l }
}

// WithObserver reports command outcomes, e.g. to metrics.
func WithObserver(o CommandObserver) Option {
	return func(c *Console) { c.observer = o }
}

// New creates a console bound to eng.
func New(eng *engine.Engine, opts ...Option) *Console {
	c := &Console{
		eng:    eng,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.commands = c.table()
	return c
}

// Execute runs one command line and returns its output.
func (c *Console) Execute(ctx context.Context, line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	cmd, ok := c.commands[name]
	if !ok {
		err := fmt.Errorf("unknown command %q (try help)", name)
		c.observe("unknown", err)
		return "", err
	}
	if len(args) < cmd.minArgs {
		err := fmt.Errorf("usage: %s", cmd.usage)
		c.observe(name, err)
		return "", err
	}

	c.logger.Debug("Executing console command.", "command", name, "args", args)
	out, err := cmd.run(ctx, args)
	if errors.Is(err, ErrQuit) {
		return out, err
	}
	c.observe(name, err)
	return out, err
}

func (c *Console) observe(name string, err error) {
	if c.observer != nil {
		c.observer.CommandHandled(name, err)
	}
}

// do runs fn on the engine goroutine and returns what fn returned.
func (c *Console) do(ctx context.Context, fn func(*builder.Character) (string, error)) (string, error) {
	var (
		out    string
		runErr error
	)
	if err := c.eng.Do(ctx, func(ch *builder.Character) { out, runErr = fn(ch) }); err != nil {
		return "", err
	}
	return out, runErr
}

// Run reads commands from in until EOF, quit, or ctx ends. Command errors
// are printed and do not stop the loop.
func (c *Console) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "statgraph console. Type help for commands.")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, Prompt)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}
		result, err := c.Execute(ctx, scanner.Text())
		switch {
		case errors.Is(err, ErrQuit):
			return nil
		case errors.Is(err, engine.ErrStopped), errors.Is(err, context.Canceled):
			return nil
		case err != nil:
			fmt.Fprintf(out, "error: %v\n", err)
		case result != "":
			fmt.Fprintln(out, result)
		}
	}
}

// Help lists every command with its usage.
func (c *Console) Help() string {
	names := make([]string, 0, len(c.commands))
	for name := range c.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Commands:\n")
	for _, name := range names {
		cmd := c.commands[name]
		fmt.Fprintf(&b, "  %-28s %s\n", cmd.usage, cmd.help)
	}
	return strings.TrimRight(b.String(), "\n")
}

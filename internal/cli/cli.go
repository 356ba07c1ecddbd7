// Package cli implements the storefront command line: the public catalog,
// account commands, and the admin and owner panels.
package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/utafrali/storefront/internal/admin"
	"github.com/utafrali/storefront/internal/api"
	"github.com/utafrali/storefront/internal/app"
	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/session"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/health"
)

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

var errUsage = errors.New("usage")

type command struct {
	usage string
	// restore resumes the stored session before the command runs.
	restore bool
	run     func(ctx context.Context, args []string) error
}

// CLI dispatches one command line against a wired application.
type CLI struct {
	api     *api.API
	session *session.Session
	catalog *catalog.Catalog
	health  *health.Registry
	logger  *slog.Logger

	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer

	commands map[string]command
}

// New creates a CLI reading prompts from in and writing views to out.
func New(a *app.App, log *slog.Logger, in io.Reader, out, errOut io.Writer) *CLI {
	c := &CLI{
		api:     a.API,
		session: a.Session,
		catalog: a.Catalog,
		health:  a.Health,
		logger:  log,
		in:      bufio.NewReader(in),
		out:     out,
		errOut:  errOut,
	}
	c.commands = map[string]command{
		"products":             {"products [-search s] [-category c] [-sort order] [-filter name=v1,v2]...", true, c.products},
		"product":              {"product <id>", true, c.product},
		"categories":           {"categories", true, c.categories},
		"filters":              {"filters [-category c]", true, c.filters},
		"login":                {"login -email e [-password p]", false, c.login},
		"logout":               {"logout", false, c.logout},
		"whoami":               {"whoami", true, c.whoami},
		"profile":              {"profile", true, c.profile},
		"signup":               {"signup -email e -first f -last l [-username u]", false, c.signup},
		"activate":             {"activate -email e -temp t [-password p]", false, c.activate},
		"forgot-password":      {"forgot-password -email e", false, c.forgotPassword},
		"reset-password":       {"reset-password -token t [-password p]", false, c.resetPassword},
		"validate-reset-token": {"validate-reset-token -token t", false, c.validateResetToken},
		"change-password":      {"change-password [-current p] [-password p]", true, c.changePassword},
		"admin":                {"admin products|categories|filters|values|images <action> [flags]", true, c.admin},
		"owner":                {"owner users <action> [flags]", true, c.owner},
		"health":               {"health", false, c.healthCheck},
	}
	return c
}

// Run executes args (without the program name) and returns the exit code.
func (c *CLI) Run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		c.usage()
		return ExitUsage
	}
	cmd, ok := c.commands[args[0]]
	if !ok {
		fmt.Fprintf(c.errOut, "unknown command %q\n", args[0])
		c.usage()
		return ExitUsage
	}

	if cmd.restore {
		c.session.Restore(ctx)
	}
	ctx = c.session.Context(ctx)

	err := cmd.run(ctx, args[1:])
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, flag.ErrHelp):
		return ExitUsage
	case errors.Is(err, errUsage):
		fmt.Fprintf(c.errOut, "usage: storefront %s\n", cmd.usage)
		return ExitUsage
	default:
		c.logger.DebugContext(ctx, "command failed", slog.String("command", args[0]), slog.String("error", err.Error()))
		fmt.Fprintln(c.errOut, apperrors.Message(err))
		return ExitError
	}
}

func (c *CLI) usage() {
	names := make([]string, 0, len(c.commands))
	for name := range c.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(c.errOut, "usage: storefront <command> [flags]")
	fmt.Fprintln(c.errOut)
	for _, name := range names {
		fmt.Fprintf(c.errOut, "  %s\n", c.commands[name].usage)
	}
}

func (c *CLI) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	return fs
}

func (c *CLI) table() *tabwriter.Writer {
	return tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
}

// prompt reads one line from the input, or returns def when the input is
// exhausted.
func (c *CLI) prompt(label, def string) string {
	fmt.Fprintf(c.errOut, "%s: ", label)
	line, err := c.in.ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil && line == "" {
		return def
	}
	return line
}

// confirmer approves prompts when yes is set and asks otherwise.
func (c *CLI) confirmer(yes bool) admin.Confirmer {
	if yes {
		return admin.AlwaysConfirm
	}
	return admin.ConfirmFunc(func(prompt string) bool {
		answer := strings.ToLower(c.prompt(prompt+" [y/N]", "n"))
		return answer == "y" || answer == "yes"
	})
}

// requireID parses a positive id flag.
func requireID(name string, id int64) error {
	if id <= 0 {
		return apperrors.InvalidInput(fmt.Sprintf("-%s is required", name))
	}
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.InvalidInput(fmt.Sprintf("invalid id %q", s))
	}
	return id, nil
}

// visited reports the flags explicitly set on the command line.
func visited(fs *flag.FlagSet) map[string]bool {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func price(v float64) string {
	return "$" + strconv.FormatFloat(v, 'f', 2, 64)
}

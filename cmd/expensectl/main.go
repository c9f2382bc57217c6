// Command expensectl is a terminal client for the expense API. It shares the
// web front-end's service layer, so validation and session rules are the same.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"golang.org/x/term"

	"smartexpense/internal/amqp"
	"smartexpense/internal/api"
	"smartexpense/internal/cli"
	"smartexpense/internal/core"
	"smartexpense/internal/log"
	"smartexpense/internal/services"
	"smartexpense/internal/session"
)

// sessionKey scopes the service's per-session caches and in-flight guard.
const sessionKey = "cli"

const (
	msgSessionExpired = "Session expired. Please login again."
	msgNotLoggedIn    = "not logged in: run 'expensectl login' first"
	msgRegistered     = "Registration successful! Please log in."
	msgConfirmDelete  = "Delete this expense? [y/N] "
)

var errSessionExpired = errors.New(msgSessionExpired)

const usage = `Usage: expensectl <command> [flags]

Commands:
  login       -email E [-password P]
  register    -name N -email E [-password P]
  logout
  categories
  list
  add         -category ID -amount A -date YYYY-MM-DD [-note N]
  edit        -id ID [-category ID] [-amount A] [-date D] [-note N]
  delete      -id ID [-yes]
  report      [-year Y] [-month M]
`

func main() {
	cli.LoadEnvFile()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type app struct {
	svc    *services.ExpenseService
	slot   session.FileSlot
	stdin  *bufio.Reader
	rawIn  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errors.New("missing command")
	}

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	log.SetDefault(log.New(log.Config{Level: slog.LevelWarn, Component: log.ComponentCLI, Writer: stderr}))

	a := &app{
		svc:    services.NewExpenseService(api.New(cfg.APIBaseURL, cfg.APITimeout), nil, amqp.SourceCLI),
		slot:   session.FileSlot{Path: cfg.TokenPath()},
		stdin:  bufio.NewReader(stdin),
		rawIn:  stdin,
		stdout: stdout,
		stderr: stderr,
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return a.login(ctx, rest)
	case "register":
		return a.register(ctx, rest)
	case "logout":
		return a.logout()
	case "categories":
		return a.categories(ctx)
	case "list":
		return a.list(ctx)
	case "add":
		return a.add(ctx, rest)
	case "edit":
		return a.edit(ctx, rest)
	case "delete":
		return a.delete(ctx, rest)
	case "report":
		return a.report(ctx, rest)
	case "help", "-h", "-help", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

// token returns the stored token, or an error when there is none.
func (a *app) token() (string, error) {
	token, err := a.slot.Load()
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", errors.New(msgNotLoggedIn)
	}
	return token, nil
}

// readFailed turns an error from an authenticated read into the command's
// result. A 401 clears the stored token.
func (a *app) readFailed(err error, msg string) error {
	if services.EndsSession(err) {
		if clearErr := a.slot.Clear(); clearErr != nil {
			fmt.Fprintf(a.stderr, "Warning: %v\n", clearErr)
		}
		fmt.Fprintln(a.stderr, msgSessionExpired)
		return errSessionExpired
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func (a *app) readPassword() (string, error) {
	fmt.Fprint(a.stdout, "Password: ")
	defer fmt.Fprintln(a.stdout)
	if f, ok := a.rawIn.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return a.readLine()
}

func (a *app) readLine() (string, error) {
	line, err := a.stdin.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := a.flags("login")
	email := fs.String("email", "", "Account email")
	password := fs.String("password", "", "Password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		fs.PrintDefaults()
		return errors.New("missing required flag: email")
	}
	if *password == "" {
		p, err := a.readPassword()
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		*password = p
	}

	token, err := a.svc.Login(ctx, core.Credentials{Email: *email, Password: *password})
	if err != nil {
		return errors.New(api.Message(err, "Login failed"))
	}
	if err := a.slot.Save(token); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "Logged in.")
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := a.flags("register")
	name := fs.String("name", "", "Display name")
	email := fs.String("email", "", "Account email")
	password := fs.String("password", "", "Password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *password == "" && *name != "" && *email != "" {
		p, err := a.readPassword()
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		*password = p
	}

	_, err := a.svc.Register(ctx, core.Registration{Name: *name, Email: *email, Password: *password})
	switch {
	case errors.Is(err, core.ErrMissingRegistrationFields):
		return errors.New("Please fill all fields")
	case err != nil:
		return errors.New(api.Message(err, "Register failed"))
	}
	fmt.Fprintln(a.stdout, msgRegistered)
	return nil
}

func (a *app) logout() error {
	if err := a.slot.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "Logged out.")
	return nil
}

func (a *app) categories(ctx context.Context) error {
	token, err := a.token()
	if err != nil {
		return err
	}
	cats, err := a.svc.Categories(ctx, sessionKey, token)
	if err != nil {
		return a.readFailed(err, "Failed to load data")
	}
	fmt.Fprintln(a.stdout, renderCategories(cats))
	return nil
}

func (a *app) list(ctx context.Context) error {
	token, err := a.token()
	if err != nil {
		return err
	}
	d, err := a.svc.LoadDashboard(ctx, sessionKey, token)
	if err != nil {
		return a.readFailed(err, "Failed to load data")
	}
	fmt.Fprintln(a.stdout, renderExpenses(d.Expenses, d.Categories))
	return nil
}

type expenseFlags struct {
	category *int64
	amount   *string
	date     *string
	note     *string
}

func addExpenseFlags(fs *flag.FlagSet) expenseFlags {
	return expenseFlags{
		category: fs.Int64("category", 0, "Category id"),
		amount:   fs.String("amount", "", "Amount"),
		date:     fs.String("date", "", "Date (YYYY-MM-DD)"),
		note:     fs.String("note", "", "Optional note"),
	}
}

func (a *app) add(ctx context.Context, args []string) error {
	fs := a.flags("add")
	ef := addExpenseFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	in := core.ExpenseInput{CategoryID: *ef.category, Amount: *ef.amount, Date: *ef.date, Note: *ef.note}
	return a.save(ctx, 0, in, "Add failed")
}

func (a *app) edit(ctx context.Context, args []string) error {
	fs := a.flags("edit")
	id := fs.Int64("id", 0, "Expense id")
	ef := addExpenseFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		return errors.New("missing required flag: id")
	}
	token, err := a.token()
	if err != nil {
		return err
	}

	current, err := a.svc.FindExpense(ctx, token, *id)
	switch {
	case errors.Is(err, services.ErrExpenseNotFound):
		return errors.New("Expense not found")
	case err != nil:
		return a.readFailed(err, "Failed to load data")
	}

	in := current.Input()
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "category":
			in.CategoryID = *ef.category
		case "amount":
			in.Amount = *ef.amount
		case "date":
			in.Date = *ef.date
		case "note":
			in.Note = *ef.note
		}
	})
	return a.save(ctx, *id, in, "Update failed")
}

func (a *app) save(ctx context.Context, id int64, in core.ExpenseInput, failMsg string) error {
	token, err := a.token()
	if err != nil {
		return err
	}
	res, err := a.svc.Save(ctx, sessionKey, token, id, in)
	switch {
	case errors.Is(err, core.ErrMissingExpenseFields):
		return errors.New("Fill all required fields")
	case services.EndsSession(err):
		return a.readFailed(err, "Failed to refresh expenses")
	case services.IsRefreshFailure(err):
		fmt.Fprintf(a.stdout, "Saved expense %d.\n", res.Expense.ID)
		return fmt.Errorf("Failed to refresh expenses: %w", err)
	case err != nil:
		return fmt.Errorf("%s: %s", failMsg, api.Message(err, err.Error()))
	}

	verb := "Updated"
	if res.Created {
		verb = "Added"
	}
	fmt.Fprintf(a.stdout, "%s expense %d.\n", verb, res.Expense.ID)

	cats, err := a.svc.Categories(ctx, sessionKey, token)
	if err != nil {
		return a.readFailed(err, "Failed to refresh expenses")
	}
	fmt.Fprintln(a.stdout, renderExpenses(res.Expenses, cats))
	return nil
}

func (a *app) delete(ctx context.Context, args []string) error {
	fs := a.flags("delete")
	id := fs.Int64("id", 0, "Expense id")
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		return errors.New("missing required flag: id")
	}
	token, err := a.token()
	if err != nil {
		return err
	}

	if !*yes {
		fmt.Fprint(a.stdout, msgConfirmDelete)
		answer, err := a.readLine()
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		if ans := strings.ToLower(strings.TrimSpace(answer)); ans != "y" && ans != "yes" {
			fmt.Fprintln(a.stdout, "Cancelled.")
			return nil
		}
	}

	expenses, err := a.svc.Delete(ctx, sessionKey, token, *id)
	switch {
	case services.EndsSession(err):
		return a.readFailed(err, "Failed to refresh expenses")
	case services.IsRefreshFailure(err):
		fmt.Fprintf(a.stdout, "Deleted expense %d.\n", *id)
		return fmt.Errorf("Failed to refresh expenses: %w", err)
	case err != nil:
		return fmt.Errorf("Delete failed: %s", api.Message(err, err.Error()))
	}

	fmt.Fprintf(a.stdout, "Deleted expense %d.\n", *id)
	cats, err := a.svc.Categories(ctx, sessionKey, token)
	if err != nil {
		return a.readFailed(err, "Failed to refresh expenses")
	}
	fmt.Fprintln(a.stdout, renderExpenses(expenses, cats))
	return nil
}

func (a *app) report(ctx context.Context, args []string) error {
	now := timeNow()
	fs := a.flags("report")
	year := fs.Int("year", now.Year(), "Year")
	month := fs.Int("month", int(now.Month()), "Month (clamped to 1-12)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	token, err := a.token()
	if err != nil {
		return err
	}

	m := core.ClampMonth(*month)
	report, err := a.svc.Report(ctx, sessionKey, token, *year, m)
	if err != nil {
		return a.readFailed(err, "Failed to fetch report")
	}
	fmt.Fprintln(a.stdout, renderReport(*year, m, report))
	return nil
}

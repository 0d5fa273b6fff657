// Command rolodex is a command-line contact manager backed by a local
// SQLite file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/smileynet/rolodex/internal/browse"
	"github.com/smileynet/rolodex/internal/config"
	"github.com/smileynet/rolodex/internal/contact"
	"github.com/smileynet/rolodex/internal/logging"
	"github.com/smileynet/rolodex/internal/render"
	"github.com/smileynet/rolodex/internal/storage"
	"github.com/smileynet/rolodex/internal/storage/sqlite"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// CLI is the top-level command structure for rolodex.
type CLI struct {
	Version kong.VersionFlag `help:"Show version." short:"V"`
	Config  string           `help:"Extra config file, highest priority." type:"path"`
	DB      string           `help:"Database path or sqlite:// connection string (overrides config)."`

	Add    AddCmd    `cmd:"" help:"Add a new contact."`
	Show   ShowCmd   `cmd:"" help:"Show one contact by id."`
	List   ListCmd   `cmd:"" help:"List contacts, one page at a time."`
	Update UpdateCmd `cmd:"" help:"Update a contact's email and/or phone."`
	Delete DeleteCmd `cmd:"" help:"Delete a contact by id."`
	Search SearchCmd `cmd:"" help:"Search contacts by name, email, or phone."`
	Browse BrowseCmd `cmd:"" help:"Browse contacts in an interactive TUI."`
}

// loadConfig loads layered config from user and project paths plus an
// optional extra file, with env and flag overrides applied on top.
func loadConfig(root *CLI) (*config.Config, error) {
	paths := []string{
		os.ExpandEnv("$HOME/.config/rolodex/config.yaml"),
		".rolodex.yaml",
	}
	if root.Config != "" {
		paths = append(paths, root.Config)
	}
	cfg, err := config.LoadLayered(paths...)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	if root.DB != "" {
		cfg.Database.Path = root.DB
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setup loads config, builds the logger, and opens the contact store.
// The caller owns closing the returned store.
func setup(root *CLI) (*config.Config, *slog.Logger, *sqlite.Store, error) {
	cfg, err := loadConfig(root)
	if err != nil {
		return nil, nil, nil, err
	}
	logger := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		File:   cfg.Logging.File,
		Format: cfg.Logging.Format,
	})
	store, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, store, nil
}

// AddCmd adds a new contact.
type AddCmd struct {
	Name  string `help:"Name of the contact." required:""`
	Email string `help:"Email of the contact." required:""`
	Phone string `help:"Phone number of the contact." required:""`
}

// Run executes the add command.
func (a *AddCmd) Run(root *CLI) error {
	_, logger, store, err := setup(root)
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}
	defer func() { _ = store.Close() }()
	return a.run(os.Stdout, store, logger)
}

// run adds the contact with the given store, enabling testable wiring.
func (a *AddCmd) run(w io.Writer, store storage.ContactStore, logger *slog.Logger) error {
	c, err := store.Add(context.Background(), a.Name, a.Email, a.Phone)
	if err != nil {
		logger.Error("add contact failed", "name", a.Name, "err", err)
		return fmt.Errorf("add: %w", err)
	}
	logger.Info("contact added", "id", c.ID, "name", c.Name)
	_, _ = fmt.Fprintf(w, "Added contact %q with id %d.\n", c.Name, c.ID)
	return nil
}

// ShowCmd shows a single contact.
type ShowCmd struct {
	ID    int64 `arg:"" help:"Contact id."`
	Plain bool  `help:"Force plain text output even if stdout is a TTY." default:"false"`
}

// Run executes the show command.
func (s *ShowCmd) Run(root *CLI) error {
	_, logger, store, err := setup(root)
	if err != nil {
		return fmt.Errorf("show: %w", err)
	}
	defer func() { _ = store.Close() }()
	return s.run(os.Stdout, store, logger)
}

func (s *ShowCmd) run(w io.Writer, store storage.ContactStore, logger *slog.Logger) error {
	c, err := store.GetByID(context.Background(), s.ID)
	if err != nil {
		logger.Warn("show contact failed", "id", s.ID, "err", err)
		return fmt.Errorf("show %d: %w", s.ID, err)
	}
	render.Contacts(render.Options{Writer: w, ForcePlain: s.Plain}, []contact.Contact{c}, "")
	return nil
}

// ListCmd lists contacts one page at a time.
type ListCmd struct {
	Page    int  `help:"Page number." default:"1"`
	PerPage int  `help:"Contacts per page (0 uses the configured default)." default:"0"`
	Plain   bool `help:"Force plain text output even if stdout is a TTY." default:"false"`
}

// Run executes the list command.
func (l *ListCmd) Run(root *CLI) error {
	cfg, logger, store, err := setup(root)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	defer func() { _ = store.Close() }()
	if l.PerPage == 0 {
		l.PerPage = cfg.List.PerPage
	}
	return l.run(os.Stdout, store, logger)
}

func (l *ListCmd) run(w io.Writer, store storage.ContactStore, logger *slog.Logger) error {
	page, err := store.List(context.Background(), l.Page, l.PerPage)
	if err != nil {
		logger.Error("list contacts failed", "page", l.Page, "err", err)
		return fmt.Errorf("list: %w", err)
	}
	logger.Debug("listed contacts", "page", l.Page, "count", len(page.Contacts), "total", page.TotalCount)
	title := render.PageTitle(l.Page, l.PerPage, page.TotalCount)
	render.Contacts(render.Options{Writer: w, ForcePlain: l.Plain}, page.Contacts, title)
	return nil
}

// UpdateCmd updates a contact's email and/or phone. Name is immutable.
type UpdateCmd struct {
	ID    int64   `arg:"" help:"Contact id."`
	Email *string `help:"New email address."`
	Phone *string `help:"New phone number."`
}

// Run executes the update command.
func (u *UpdateCmd) Run(root *CLI) error {
	_, logger, store, err := setup(root)
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	defer func() { _ = store.Close() }()
	return u.run(os.Stdout, store, logger)
}

func (u *UpdateCmd) run(w io.Writer, store storage.ContactStore, logger *slog.Logger) error {
	fields := storage.UpdateFields{Email: u.Email, Phone: u.Phone}
	c, err := store.Update(context.Background(), u.ID, fields)
	if err != nil {
		logger.Warn("update contact failed", "id", u.ID, "err", err)
		return fmt.Errorf("update %d: %w", u.ID, err)
	}
	logger.Info("contact updated", "id", c.ID)
	_, _ = fmt.Fprintf(w, "Updated contact %d: %s <%s> %s\n", c.ID, c.Name, c.Email, c.Phone)
	return nil
}

// DeleteCmd deletes a contact by id.
type DeleteCmd struct {
	ID int64 `arg:"" help:"Contact id."`
}

// Run executes the delete command.
func (d *DeleteCmd) Run(root *CLI) error {
	_, logger, store, err := setup(root)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	defer func() { _ = store.Close() }()
	return d.run(os.Stdout, store, logger)
}

func (d *DeleteCmd) run(w io.Writer, store storage.ContactStore, logger *slog.Logger) error {
	if err := store.Delete(context.Background(), d.ID); err != nil {
		logger.Warn("delete contact failed", "id", d.ID, "err", err)
		return fmt.Errorf("delete %d: %w", d.ID, err)
	}
	logger.Info("contact deleted", "id", d.ID)
	_, _ = fmt.Fprintf(w, "Deleted contact %d.\n", d.ID)
	return nil
}

// SearchCmd searches contacts by substring across the supplied fields.
type SearchCmd struct {
	Name  string `help:"Name substring to search for."`
	Email string `help:"Email substring to search for."`
	Phone string `help:"Phone substring to search for."`
	Plain bool   `help:"Force plain text output even if stdout is a TTY." default:"false"`
}

// Run executes the search command.
func (s *SearchCmd) Run(root *CLI) error {
	_, logger, store, err := setup(root)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	defer func() { _ = store.Close() }()
	return s.run(os.Stdout, store, logger)
}

func (s *SearchCmd) run(w io.Writer, store storage.ContactStore, logger *slog.Logger) error {
	filter := storage.SearchFilter{Name: s.Name, Email: s.Email, Phone: s.Phone}
	contacts, err := store.Search(context.Background(), filter)
	if err != nil {
		logger.Warn("search contacts failed", "err", err)
		return fmt.Errorf("search: %w", err)
	}
	logger.Debug("searched contacts", "matches", len(contacts))
	title := fmt.Sprintf("Search results (%d)", len(contacts))
	render.Contacts(render.Options{Writer: w, ForcePlain: s.Plain}, contacts, title)
	return nil
}

// BrowseCmd opens the interactive contact browser TUI.
type BrowseCmd struct{}

// teaRunner abstracts Bubble Tea program execution for testing.
type teaRunner interface {
	Run() (tea.Model, error)
}

// Run executes the browse command.
func (b *BrowseCmd) Run(root *CLI) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return errors.New("browse: stdout is not a terminal (use list or search instead)")
	}

	cfg, logger, store, err := setup(root)
	if err != nil {
		return fmt.Errorf("browse: %w", err)
	}
	defer func() { _ = store.Close() }()

	model := browse.New(store, cfg.List.PerPage)
	p := tea.NewProgram(model, tea.WithAltScreen())
	logger.Debug("starting contact browser")
	return b.run(p)
}

// run executes the Bubble Tea program, enabling testable wiring.
func (b *BrowseCmd) run(p teaRunner) error {
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("browse: %w", err)
	}
	return nil
}

const (
	exitSuccess = 0
	exitDomain  = 1
	exitSetup   = 2
)

// exitCode maps an error to the appropriate exit code. Validation
// failures, missing records, and empty update/search requests are
// domain failures; everything else is a setup failure.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ve *contact.ValidationError
	if errors.As(err, &ve) {
		return exitDomain
	}
	if errors.Is(err, storage.ErrNotFound) ||
		errors.Is(err, contact.ErrNoFields) ||
		errors.Is(err, contact.ErrNoCriteria) {
		return exitDomain
	}
	return exitSetup
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli, kong.Vars{"version": version + " " + commit + " " + date})
	err := ctx.Run(&cli)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(exitCode(err))
	}
}

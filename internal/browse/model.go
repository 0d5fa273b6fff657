// Package browse implements the interactive contact browser TUI.
package browse

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/rolodex/internal/contact"
	"github.com/smileynet/rolodex/internal/storage"
)

// Mode selects which key handling and view the model uses.
type Mode int

// Browser modes.
const (
	ModeList Mode = iota
	ModeFilter
	ModeConfirm
)

// Store is the subset of the contact store the browser needs.
type Store interface {
	List(ctx context.Context, page, perPage int) (storage.Page, error)
	Search(ctx context.Context, filter storage.SearchFilter) ([]contact.Contact, error)
	Delete(ctx context.Context, id int64) error
}

// Model is the root Bubble Tea model for the contact browser.
type Model struct {
	store   Store
	perPage int

	mode     Mode
	page     int
	total    int64
	contacts []contact.Contact
	cursor   int
	filter   string
	loading  bool
	err      error
	width    int

	help        help.Model
	listKeys    browseKeys
	filterKeys  filterKeys
	confirmKeys confirmKeys
}

// New creates a browser Model over the given store, loading perPage
// contacts per page.
func New(store Store, perPage int) Model {
	if perPage < 1 {
		perPage = 10
	}
	return Model{
		store:       store,
		perPage:     perPage,
		page:        1,
		loading:     true,
		help:        help.New(),
		listKeys:    BrowseKeyMap(),
		filterKeys:  FilterKeyMap(),
		confirmKeys: ConfirmKeyMap(),
	}
}

// Init starts the initial page load.
func (m Model) Init() tea.Cmd {
	return m.loadCmd()
}

// loadCmd returns a tea.Cmd that fetches the current page (or filtered
// results) asynchronously and wraps them in a PageMsg.
func (m Model) loadCmd() tea.Cmd {
	store, page, perPage, filter := m.store, m.page, m.perPage, m.filter
	return func() tea.Msg {
		ctx := context.Background()
		if filter != "" {
			contacts, err := store.Search(ctx, storage.SearchFilter{Name: filter})
			return PageMsg{Page: storage.Page{Contacts: contacts, TotalCount: int64(len(contacts))}, Err: err}
		}
		p, err := store.List(ctx, page, perPage)
		return PageMsg{Page: p, Err: err}
	}
}

// deleteCmd returns a tea.Cmd that deletes one contact asynchronously.
func (m Model) deleteCmd(id int64) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		return DeletedMsg{ID: id, Err: store.Delete(context.Background(), id)}
	}
}

// Update handles incoming messages with mode-based routing.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case PageMsg:
		return m.applyPage(msg), nil

	case DeletedMsg:
		m.mode = ModeList
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		// Reload so pagination and total stay accurate.
		m.loading = true
		return m, m.loadCmd()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// applyPage applies a fetched page (or error), clearing the loading
// indicator and clamping the cursor.
func (m Model) applyPage(msg PageMsg) Model {
	m.loading = false
	if msg.Err != nil {
		m.err = msg.Err
		m.contacts = nil
		return m
	}
	m.err = nil
	m.contacts = msg.Page.Contacts
	m.total = msg.Page.TotalCount
	if m.cursor >= len(m.contacts) {
		m.cursor = len(m.contacts) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	return m
}

// handleKey processes key messages per mode.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case ModeFilter:
		return m.handleFilterKey(msg)
	case ModeConfirm:
		return m.handleConfirmKey(msg)
	default:
		return m.handleListKey(msg)
	}
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.contacts)-1 {
			m.cursor++
		}
	case "left", "h", "pgup":
		if m.filter == "" && m.page > 1 {
			m.page--
			m.cursor = 0
			m.loading = true
			return m, m.loadCmd()
		}
	case "right", "l", "pgdown":
		if m.filter == "" && int64(m.page*m.perPage) < m.total {
			m.page++
			m.cursor = 0
			m.loading = true
			return m, m.loadCmd()
		}
	case "/":
		m.mode = ModeFilter
	case "d":
		if len(m.contacts) > 0 {
			m.mode = ModeConfirm
		}
	case "r":
		m.loading = true
		return m, m.loadCmd()
	}
	return m, nil
}

// handleFilterKey edits the filter text. Every edit reloads, so the
// list narrows as the user types.
func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.mode = ModeList
		return m, nil
	case "esc":
		m.mode = ModeList
		m.filter = ""
		m.page = 1
		m.loading = true
		return m, m.loadCmd()
	case "backspace":
		if m.filter == "" {
			return m, nil
		}
		runes := []rune(m.filter)
		m.filter = string(runes[:len(runes)-1])
	case " ":
		m.filter += " "
	default:
		if msg.Type != tea.KeyRunes {
			return m, nil
		}
		m.filter += string(msg.Runes)
	}
	m.page = 1
	m.cursor = 0
	m.loading = true
	return m, m.loadCmd()
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y":
		if m.cursor < len(m.contacts) {
			return m, m.deleteCmd(m.contacts[m.cursor].ID)
		}
		m.mode = ModeList
	case "n", "esc":
		m.mode = ModeList
	}
	return m, nil
}

// View renders the contact list, status line, and help bar.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title()))
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(dimStyle.Render("Loading contacts..."))
		b.WriteString("\n")
	case m.err != nil:
		b.WriteString(errorStyle.Render(fmt.Sprintf("error: %v", m.err)))
		b.WriteString("\n")
	case len(m.contacts) == 0:
		b.WriteString(dimStyle.Render("No contacts found."))
		b.WriteString("\n")
	default:
		for i, c := range m.contacts {
			line := fmt.Sprintf("%d  %s  <%s>  %s", c.ID, c.Name, c.Email, c.Phone)
			if i == m.cursor {
				b.WriteString(selectedStyle.Render(CursorMarker + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	switch m.mode {
	case ModeFilter:
		b.WriteString(promptStyle.Render("filter: " + m.filter + "█"))
		b.WriteString("\n")
		b.WriteString(m.help.View(m.filterKeys))
	case ModeConfirm:
		if m.cursor < len(m.contacts) {
			c := m.contacts[m.cursor]
			b.WriteString(promptStyle.Render(fmt.Sprintf("Delete %s (id %d)?", c.Name, c.ID)))
			b.WriteString("\n")
		}
		b.WriteString(m.help.View(m.confirmKeys))
	default:
		if m.filter != "" {
			b.WriteString(dimStyle.Render("filter: " + m.filter))
			b.WriteString("\n")
		}
		b.WriteString(m.help.View(m.listKeys))
	}

	return b.String()
}

// title describes what the list currently shows.
func (m Model) title() string {
	if m.filter != "" {
		return fmt.Sprintf("Contacts matching %q", m.filter)
	}
	pages := m.total / int64(m.perPage)
	if m.total%int64(m.perPage) != 0 {
		pages++
	}
	if pages < 1 {
		pages = 1
	}
	return fmt.Sprintf("Contacts - page %d of %d (%d total)", m.page, pages, m.total)
}

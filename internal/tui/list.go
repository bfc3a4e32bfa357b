package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/i474232898/cityweather/internal/cities"
)

// Column widths of the city table.
const (
	colName       = 28
	colCountry    = 24
	colPopulation = 14
	colTimezone   = 24
)

// listChrome is the number of lines around the rows: title, search,
// header, status and help.
const listChrome = 5

// stateMsg carries a store update of one list session.
type stateMsg struct {
	sessionID string
	state     cities.State
}

// openDetailMsg asks the app to show the weather of a city.
type openDetailMsg struct {
	record cities.Record
}

// waitForState blocks on the session's update feed. A closed feed yields no
// message, which ends the subscription.
func waitForState(s *cities.Session) tea.Cmd {
	updates := s.Updates()
	id := s.ID()
	return func() tea.Msg {
		st, ok := <-updates
		if !ok {
			return nil
		}
		return stateMsg{sessionID: id, state: st}
	}
}

// ListModel renders one mounted city list.
//
//nolint:recvcheck // Bubble Tea models use value receivers.
type ListModel struct {
	session *cities.Session
	opts    cities.Options
	variant string

	view     cities.View
	search   textinput.Model
	spinner  spinner.Model
	selected int
	offset   int
	width    int
	height   int
}

// NewListModel mounts a list over session. The first page is requested by Init.
func NewListModel(session *cities.Session, opts cities.Options, variant string) ListModel {
	ti := textinput.New()
	ti.Placeholder = "search by name or country..."
	ti.Prompt = "/ "
	ti.CharLimit = 64

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = TitleStyle

	return ListModel{
		session: session,
		opts:    opts,
		variant: variant,
		view:    session.View(),
		search:  ti,
		spinner: sp,
		width:   defaultWidth,
		height:  defaultHeight,
	}
}

// Init requests the first page and subscribes to store updates.
func (m ListModel) Init() tea.Cmd {
	m.session.Start()
	return tea.Batch(waitForState(m.session), m.spinner.Tick)
}

// Close unmounts the list.
func (m ListModel) Close() {
	m.session.Close()
}

func (m ListModel) Update(msg tea.Msg) (ListModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clamp()
		return m, nil

	case stateMsg:
		if msg.sessionID != m.session.ID() {
			return m, nil
		}
		return m.handleState(msg.state)

	case spinner.TickMsg:
		if !m.view.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.search.Focused() {
			return m.handleSearchKey(msg)
		}
		return m.handleKey(msg)
	}

	return m, nil
}

func (m ListModel) handleState(st cities.State) (ListModel, tea.Cmd) {
	wasLoading := m.view.Loading
	m.view = m.session.ViewOf(st)
	m.clamp()

	cmds := []tea.Cmd{waitForState(m.session)}
	if m.view.Loading && !wasLoading {
		cmds = append(cmds, m.spinner.Tick)
	}
	// A page that does not fill the viewport leaves it "at the bottom".
	if !m.view.Loading && m.view.Err == "" && m.view.Search == "" {
		m.session.Scroll(m.position())
	}
	return m, tea.Batch(cmds...)
}

func (m ListModel) handleSearchKey(msg tea.KeyMsg) (ListModel, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyEnter:
		m.search.Blur()
		return m, nil
	}

	prev := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if v := m.search.Value(); v != prev {
		m.session.SetSearch(v)
		m.view = m.session.View()
		m.selected, m.offset = 0, 0
	}
	return m, cmd
}

func (m ListModel) handleKey(msg tea.KeyMsg) (ListModel, tea.Cmd) {
	switch msg.String() {
	case "/":
		return m, m.search.Focus()
	case "r":
		m.session.Reload()
		m.selected, m.offset = 0, 0
		m.view = m.session.View()
		return m, m.spinner.Tick
	case "enter":
		if rec, ok := m.Selected(); ok {
			return m, func() tea.Msg { return openDetailMsg{record: rec} }
		}
		return m, nil
	case "up", "k":
		m.move(-1)
	case "down", "j":
		m.move(1)
	case "pgup":
		m.move(-m.rows())
	case "pgdown", " ":
		m.move(m.rows())
	case "home", "g":
		m.move(-len(m.view.Records))
	case "end", "G":
		m.move(len(m.view.Records))
	default:
		return m, nil
	}

	m.session.Scroll(m.position())
	return m, nil
}

// Searching reports whether the search input has focus.
func (m ListModel) Searching() bool {
	return m.search.Focused()
}

// Selected returns the highlighted record of the filtered view.
func (m ListModel) Selected() (cities.Record, bool) {
	if m.selected < 0 || m.selected >= len(m.view.Records) {
		return cities.Record{}, false
	}
	return m.view.Records[m.selected], true
}

func (m *ListModel) move(delta int) {
	m.selected += delta
	m.clamp()
}

// clamp keeps the selection inside the view and the selection visible.
func (m *ListModel) clamp() {
	n := len(m.view.Records)
	if m.selected >= n {
		m.selected = n - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}

	rows := m.rows()
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if m.selected >= m.offset+rows {
		m.offset = m.selected - rows + 1
	}
	if maxOffset := n - rows; m.offset > maxOffset {
		m.offset = maxOffset
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m ListModel) rows() int {
	rows := m.height - listChrome
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (m ListModel) position() cities.ScrollPosition {
	return cities.ScrollPosition{
		Offset:   m.offset,
		Viewport: m.rows(),
		Content:  len(m.view.Records),
	}
}

func (m ListModel) View() string {
	var b strings.Builder

	title := "Cities"
	if m.variant != "" {
		title += " (" + m.variant + ")"
	}
	b.WriteString(TitleStyle.Render(title))
	fmt.Fprintf(&b, " %s\n", MutedStyle.Render(fmt.Sprintf("%d loaded", m.view.Total)))
	b.WriteString(m.search.View())
	b.WriteString("\n")
	b.WriteString(HeaderStyle.Render(m.header()))
	b.WriteString("\n")

	end := m.offset + m.rows()
	if end > len(m.view.Records) {
		end = len(m.view.Records)
	}
	for i := m.offset; i < end; i++ {
		line := m.row(m.view.Records[i])
		if i == m.selected {
			line = SelectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString(m.status())
	b.WriteString("\n")
	b.WriteString(MutedStyle.Render(m.help()))
	return lipgloss.NewStyle().MaxWidth(m.width).Render(b.String())
}

func (m ListModel) header() string {
	h := fit("NAME", colName) + " " + fit("COUNTRY", colCountry) + " " + fitRight("POPULATION", colPopulation)
	if m.opts.IncludeTimezone {
		h += " " + fit("TIMEZONE", colTimezone)
	}
	return h
}

func (m ListModel) row(r cities.Record) string {
	line := fit(orNA(r.Name), colName) + " " +
		fit(orNA(r.Country), colCountry) + " " +
		fitRight(formatPopulation(r.Population), colPopulation)
	if m.opts.IncludeTimezone {
		line += " " + fit(orNA(r.Timezone), colTimezone)
	}
	return line
}

func (m ListModel) status() string {
	switch {
	case m.view.Loading && m.view.Total == 0:
		return m.spinner.View() + " Loading cities..."
	case m.view.Loading:
		return m.spinner.View() + " Loading more..."
	case m.view.Err != "":
		return ErrorStyle.Render("Error: "+m.view.Err) + MutedStyle.Render("  (press r to reload)")
	case m.session.ScrollPending():
		return MutedStyle.Render("More cities shortly...")
	case m.view.Search != "" && len(m.view.Records) == 0:
		return MutedStyle.Render(fmt.Sprintf("No loaded city matches %q", m.view.Search))
	case !m.view.HasMore:
		return MutedStyle.Render("No more cities")
	}
	return ""
}

func (m ListModel) help() string {
	if m.search.Focused() {
		return "enter/esc done"
	}
	return "j/k move • / search • enter weather • r reload • q quit"
}

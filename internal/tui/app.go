package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/i474232898/cityweather/internal/cities"
	"github.com/i474232898/cityweather/internal/weather"
)

// ViewState is the screen the app is showing.
type ViewState int

const (
	ViewStateList ViewState = iota
	ViewStateDetail
)

// Config holds what the app needs to mount its views.
type Config struct {
	Cities  cities.Fetcher
	Weather weather.Fetcher
	Options cities.Options
	Variant string
	Logger  zerolog.Logger
}

// App routes between the city list and the weather detail. Leaving a view
// unmounts it: the list session and the weather lookup are closed, and
// returning to the list mounts a fresh session.
//
//nolint:recvcheck // Bubble Tea requires value receivers for Init/Update/View interface methods.
type App struct {
	cfg    Config
	state  ViewState
	list   ListModel
	detail DetailModel
	mounts uint64
	width  int
	height int
}

func NewApp(cfg Config) App {
	a := App{
		cfg:    cfg,
		state:  ViewStateList,
		width:  defaultWidth,
		height: defaultHeight,
	}
	a.list = a.mountList()
	return a
}

func (a App) Init() tea.Cmd {
	return a.list.Init()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return a, tea.Quit
		}
		if a.state == ViewStateDetail {
			return a.handleDetailKey(msg)
		}
		if !a.list.Searching() && msg.String() == "q" {
			return a, tea.Quit
		}

	case openDetailMsg:
		if a.state != ViewStateList {
			return a, nil
		}
		return a.openDetail(msg.record)
	}

	var cmd tea.Cmd
	switch a.state {
	case ViewStateList:
		a.list, cmd = a.list.Update(msg)
	case ViewStateDetail:
		a.detail, cmd = a.detail.Update(msg)
	}
	return a, cmd
}

func (a App) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "esc", "backspace", "b":
		a.detail.Close()
		a.state = ViewStateList
		a.list = a.mountList()
		return a, a.list.Init()
	}
	return a, nil
}

func (a App) openDetail(rec cities.Record) (tea.Model, tea.Cmd) {
	a.list.Close()

	a.mounts++
	a.detail = NewDetailModel(a.cfg.Weather, rec, a.mounts, a.cfg.Logger)
	a.detail.width = a.width
	a.state = ViewStateDetail
	return a, a.detail.Init()
}

func (a App) mountList() ListModel {
	session := cities.NewSession(a.cfg.Cities, a.cfg.Options, a.cfg.Logger)
	list := NewListModel(session, a.cfg.Options, a.cfg.Variant)
	list.width, list.height = a.width, a.height
	return list
}

// Close unmounts whatever view is active. Quitting does not call it; the
// caller closes the final model once the program returns. It is safe to
// call more than once.
func (a App) Close() {
	switch a.state {
	case ViewStateList:
		a.list.Close()
	case ViewStateDetail:
		a.detail.Close()
	}
}

// State returns the active screen.
func (a App) State() ViewState {
	return a.state
}

func (a App) View() string {
	if a.state == ViewStateDetail {
		return a.detail.View()
	}
	return a.list.View()
}

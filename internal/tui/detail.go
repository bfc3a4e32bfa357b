package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/i474232898/cityweather/internal/cities"
	"github.com/i474232898/cityweather/internal/weather"
)

const mapZoom = 10

// lookupDoneMsg carries the settled lookup of one detail mount.
type lookupDoneMsg struct {
	mount  uint64
	result weather.Result
}

// DetailModel shows the weather of one city for the lifetime of one mount.
//
//nolint:recvcheck // Bubble Tea models use value receivers.
type DetailModel struct {
	record  cities.Record
	lookup  *weather.Lookup
	mount   uint64
	result  weather.Result
	spinner spinner.Model
	width   int
}

func NewDetailModel(fetcher weather.Fetcher, record cities.Record, mount uint64, logger zerolog.Logger) DetailModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = TitleStyle

	lookup := weather.NewLookup(fetcher, record.Name, logger)
	return DetailModel{
		record:  record,
		lookup:  lookup,
		mount:   mount,
		result:  lookup.Result(),
		spinner: sp,
		width:   defaultWidth,
	}
}

// Init issues the single weather request of this mount.
func (m DetailModel) Init() tea.Cmd {
	m.lookup.Start(context.Background())
	lookup, mount := m.lookup, m.mount
	wait := func() tea.Msg {
		res, _ := lookup.Wait(context.Background())
		return lookupDoneMsg{mount: mount, result: res}
	}
	return tea.Batch(wait, m.spinner.Tick)
}

// Close unmounts the view; a response still in flight is discarded.
func (m DetailModel) Close() {
	m.lookup.Close()
}

func (m DetailModel) Update(msg tea.Msg) (DetailModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case lookupDoneMsg:
		if msg.mount == m.mount {
			m.result = msg.result
		}
	case spinner.TickMsg:
		if m.result.State != weather.LookupLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// Result is the lookup state as last seen by the view.
func (m DetailModel) Result() weather.Result {
	return m.result
}

func (m DetailModel) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(orNA(m.record.Name)))
	fmt.Fprintf(&b, " %s\n\n", MutedStyle.Render(orNA(m.record.Country)))

	switch m.result.State {
	case weather.LookupLoading:
		fmt.Fprintf(&b, "%s Loading weather...\n", m.spinner.View())
	case weather.LookupErrored:
		b.WriteString(ErrorStyle.Render("Could not load weather: " + m.result.Err))
		b.WriteString("\n")
	case weather.LookupLoaded:
		b.WriteString(BoxStyle.Width(min(m.width, defaultWidth) - 2).Render(renderDetail(m.result.Detail)))
		b.WriteString("\n")
	}

	b.WriteString(MutedStyle.Render("esc back • q quit"))
	return b.String()
}

func renderDetail(d weather.Detail) string {
	var b strings.Builder
	field := func(label, value string) {
		fmt.Fprintf(&b, "%s %s\n", LabelStyle.Render(fmt.Sprintf("%-12s", label+":")), ValueStyle.Render(value))
	}

	place := orNA(d.CityName)
	if d.CountryCode != "" {
		place += ", " + d.CountryCode
	}
	field("Station", place)

	cond := string(d.Condition)
	if d.Description != "" {
		cond += " (" + d.Description + ")"
	}
	field("Conditions", cond)
	field("Temperature", fmt.Sprintf("%.1f °C / %.1f °F (%.2f K)", d.Celsius(), d.Fahrenheit(), d.TemperatureKelvin))
	field("Humidity", fmt.Sprintf("%.0f%%", d.HumidityPercent))
	field("Wind", fmt.Sprintf("%.1f m/s", d.WindSpeedMps))
	field("Coordinates", fmt.Sprintf("%.4f, %.4f", d.Coordinates.Lat, d.Coordinates.Lon))
	field("Map", d.Coordinates.MapURL(mapZoom))

	return strings.TrimSuffix(b.String(), "\n")
}

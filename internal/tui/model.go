package tui

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/chaz8081/carctl/internal/car"
	"github.com/chaz8081/carctl/internal/input"
)

// Terminals deliver key-down events only, so momentary controls are held via
// key repeat: each press arms the direction until holdFor elapses without a
// repeat.
const (
	holdFor  = 250 * time.Millisecond
	tickRate = 50 * time.Millisecond
)

type tickMsg time.Time

// BatteryMsg carries a battery level pushed by the telemetry sink.
type BatteryMsg int

// Model is the bubbletea model for the driving screen.
type Model struct {
	state   *input.State
	session *car.Session
	codec   car.Codec

	keys   KeyMap
	styles Styles

	// Momentary direction hold deadlines; zero when released.
	forwardUntil, backwardUntil, leftUntil, rightUntil time.Time

	lights, turbo, donut bool
	battery              int // -1 unknown
	lastFrame            string
}

// NewModel creates the driving screen model.
func NewModel(state *input.State, session *car.Session, codec car.Codec) Model {
	return Model{
		state:   state,
		session: session,
		codec:   codec,
		keys:    DefaultKeyMap(),
		styles:  DefaultStyles(),
		battery: -1,
	}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		m.pushDirections(time.Now())
		if frame, err := m.codec.Encode(m.state.Snapshot()); err == nil {
			m.lastFrame = hex.EncodeToString(frame)
		}
		return m, tick()

	case BatteryMsg:
		m.battery = int(msg)
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	now := time.Now()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Forward):
		m.forwardUntil = now.Add(holdFor)
	case key.Matches(msg, m.keys.Backward):
		m.backwardUntil = now.Add(holdFor)
	case key.Matches(msg, m.keys.Left):
		m.leftUntil = now.Add(holdFor)
	case key.Matches(msg, m.keys.Right):
		m.rightUntil = now.Add(holdFor)
	case key.Matches(msg, m.keys.Lights):
		m.lights = m.state.PressLights()
	case key.Matches(msg, m.keys.Turbo):
		m.turbo = m.state.PressTurbo()
	case key.Matches(msg, m.keys.Donut):
		m.donut = m.state.PressDonut()
	}
	m.pushDirections(now)
	return m, nil
}

func (m *Model) pushDirections(now time.Time) {
	m.state.SetDirections(
		now.Before(m.forwardUntil),
		now.Before(m.backwardUntil),
		now.Before(m.leftUntil),
		now.Before(m.rightUntil),
	)
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("carctl"))
	b.WriteString("\n\n")

	state := m.session.State()
	link := m.styles.Offline.Render(state.String())
	if state == car.StatePaired {
		link = m.styles.Online.Render(fmt.Sprintf("paired (%s)", m.session.Target()))
	}
	b.WriteString(m.styles.Label.Render("Link") + link + "\n")

	battery := "--"
	if m.battery >= 0 {
		battery = fmt.Sprintf("%d%%", m.battery)
	}
	b.WriteString(m.styles.Label.Render("Battery") + m.styles.Value.Render(battery) + "\n")

	now := time.Now()
	b.WriteString(m.styles.Label.Render("Drive") + strings.Join([]string{
		m.flag("forward", now.Before(m.forwardUntil)),
		m.flag("reverse", now.Before(m.backwardUntil)),
		m.flag("left", now.Before(m.leftUntil)),
		m.flag("right", now.Before(m.rightUntil)),
	}, " ") + "\n")

	b.WriteString(m.styles.Label.Render("Flags") + strings.Join([]string{
		m.flag("lights", m.lights),
		m.flag("turbo", m.turbo),
		m.flag("donut", m.donut),
	}, " ") + "\n")

	frame := m.lastFrame
	if frame == "" {
		frame = "--"
	}
	b.WriteString(m.styles.Label.Render("Frame") + m.styles.Value.Render(frame) + "\n")

	b.WriteString(m.styles.Help.Render(
		"w/a/s/d drive · l lights · t turbo · o donut · q quit"))

	return m.styles.App.Render(b.String())
}

func (m Model) flag(name string, on bool) string {
	if on {
		return m.styles.Active.Render(name)
	}
	return m.styles.Inactive.Render(name)
}

package tui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/chaz8081/carctl/internal/car"
	"github.com/chaz8081/carctl/internal/input"
)

// Run starts the driving screen. The telemetry sink's battery updates are
// routed into the program as messages; the caller owns the control loop that
// consumes state.
func Run(state *input.State, session *car.Session, codec car.Codec, telemetry *car.Telemetry) error {
	m := NewModel(state, session, codec)
	p := tea.NewProgram(m, tea.WithAltScreen())

	telemetry.SetOnBattery(func(level int) {
		p.Send(BatteryMsg(level))
	})

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		return err
	}
	return nil
}

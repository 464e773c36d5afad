// Package tui renders a simulation live in the terminal: braille-canvas
// orbits on the left, run stats on the right, stepping the integrator a
// configurable number of iterations per frame.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/satwerk/gravsim/internal/orbit"
	"github.com/satwerk/gravsim/internal/rangestore"
	"github.com/satwerk/gravsim/internal/sim"
)

const (
	canvasWidth  = 64
	canvasHeight = 20
	historyCap   = 600
	trailCap     = 256
	maxSpeed     = 64
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(38)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(10)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(2)
)

type TickMsg time.Time

type worldPoint struct{ x, y float64 }

// Model steps agents through the integrator frame by frame. Records
// accumulate in a range store exactly as they would in a batch run.
type Model struct {
	name    string
	initial []orbit.Agent
	agents  []orbit.Agent
	grav    orbit.Gravity
	integ   *sim.Integrator
	store   *rangestore.Store
	canvas  *Canvas

	trails        map[string][]worldPoint
	energyHistory []float64
	scale         float64
	stepsPerTick  int
	running       bool
	showHelp      bool
	err           error
}

// NewModel validates the initial conditions and builds a paused-at-zero
// live view. cfg supplies the force model and worker count; iteration
// bounds do not apply to a live session.
func NewModel(name string, ic orbit.InitialConditions, cfg sim.Config) (Model, error) {
	agents, err := ic.Agents()
	if err != nil {
		return Model{}, err
	}

	grav := orbit.Gravity{G: cfg.G, Softening: cfg.Softening}
	m := Model{
		name:         name,
		initial:      append([]orbit.Agent(nil), agents...),
		agents:       agents,
		grav:         grav,
		integ:        sim.NewIntegrator(grav, cfg.Workers, len(agents)),
		store:        rangestore.New(),
		canvas:       NewCanvas(canvasWidth, canvasHeight),
		trails:       make(map[string][]worldPoint, len(agents)),
		stepsPerTick: 1,
		running:      true,
	}
	m.scale = m.fitScale()
	return m, nil
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			if m.err == nil {
				m.running = !m.running
			}
		case "r":
			m.reset()
		case "+", "=":
			if m.stepsPerTick < maxSpeed {
				m.stepsPerTick *= 2
			}
		case "-", "_":
			if m.stepsPerTick > 1 {
				m.stepsPerTick /= 2
			}
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

func (m *Model) step() {
	for i := 0; i < m.stepsPerTick; i++ {
		if err := m.integ.Advance(m.agents, m.store); err != nil {
			m.err = err
			m.running = false
			return
		}
	}

	m.energyHistory = append(m.energyHistory, m.grav.Energy(m.agents))
	if len(m.energyHistory) > historyCap {
		m.energyHistory = m.energyHistory[1:]
	}

	for i := range m.agents {
		name := m.agents[i].Name
		st := m.agents[i].State
		tr := append(m.trails[name], worldPoint{st.X, st.Y})
		if len(tr) > trailCap {
			tr = tr[1:]
		}
		m.trails[name] = tr
	}

	// The view only zooms out, so the frame never jitters when bodies
	// swing back in.
	if s := m.fitScale(); s < m.scale {
		m.scale = s
	}
}

func (m *Model) reset() {
	m.agents = append([]orbit.Agent(nil), m.initial...)
	m.store = rangestore.New()
	m.trails = make(map[string][]worldPoint, len(m.agents))
	m.energyHistory = m.energyHistory[:0]
	m.err = nil
	m.running = true
	m.scale = m.fitScale()
}

// fitScale returns sub-pixels per distance unit that keeps every agent
// inside the canvas.
func (m *Model) fitScale() float64 {
	maxR := 1e-6
	for i := range m.agents {
		if r := m.agents[i].State.Radius(); r > maxR {
			maxR = r
		}
	}
	half := float64(min(canvasWidth*2, canvasHeight*4))/2 - 2
	return half / maxR
}

func (m *Model) draw() {
	m.canvas.Clear()
	cx, cy := canvasWidth, canvasHeight*2

	for i := range m.agents {
		name := m.agents[i].Name
		for _, p := range m.trails[name] {
			m.canvas.Set(cx+int(p.x*m.scale), cy-int(p.y*m.scale))
		}
		st := m.agents[i].State
		m.canvas.Dot(cx+int(st.X*m.scale), cy-int(st.Y*m.scale), 1)
	}
}

func (m *Model) simTime() float64 {
	if len(m.agents) == 0 {
		return 0
	}
	t := m.agents[0].State.Time
	for i := 1; i < len(m.agents); i++ {
		if m.agents[i].State.Time < t {
			t = m.agents[i].State.Time
		}
	}
	return t
}

func (m Model) View() string {
	m.draw()
	canvasView := canvasStyle.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(headerStyle.Render("GRAVSIM "+strings.ToUpper(m.name)) + "\n")
	switch {
	case m.err != nil:
		s.WriteString(errorStyle.Render("FAILED: "+m.err.Error()) + "\n\n")
	case !m.running:
		s.WriteString("PAUSED\n\n")
	default:
		s.WriteString("RUNNING\n\n")
	}

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.2f", m.simTime())) + "\n")
	energy := 0.0
	if len(m.energyHistory) > 0 {
		energy = m.energyHistory[len(m.energyHistory)-1]
	}
	s.WriteString(labelStyle.Render("Energy") + valueStyle.Render(fmt.Sprintf("%.4f", energy)) + "\n")
	s.WriteString(labelStyle.Render("Speed") + valueStyle.Render(fmt.Sprintf("x%d", m.stepsPerTick)) + "\n")

	records := 0
	for _, name := range m.store.Agents() {
		records += m.store.Len(name)
	}
	s.WriteString(labelStyle.Render("Records") + valueStyle.Render(fmt.Sprintf("%d", records)) + "\n")

	s.WriteString("\nAGENTS\n")
	for i := range m.agents {
		a := m.agents[i]
		s.WriteString(fmt.Sprintf("  %-8.8s r=%7.3f v=%7.3f\n", a.Name, a.State.Radius(), a.State.Speed()))
	}

	s.WriteString(helpStyle.Render("\n─────────────────────\nSP:Pause R:Reset Q:Quit\n+/-:Speed ?:Help"))
	statsView := statsStyle.Render(s.String())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)

	if m.showHelp {
		return `
╔══════════════════════════════════╗
║        KEYBOARD SHORTCUTS        ║
╠══════════════════════════════════╣
║  Space  - Pause/Resume           ║
║  R      - Reset                  ║
║  +/-    - Steps per frame        ║
║  Q      - Quit                   ║
║  ?      - Toggle this help       ║
╚══════════════════════════════════╝
` + "\n" + mainView
	}
	return mainView
}

package viz

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/apid/internal/control"
	"github.com/san-kum/apid/internal/dynamo"
	"github.com/san-kum/apid/internal/sim"
)

const (
	graphWidth      = 60
	graphHeight     = 10
	historyCapacity = 600
	setpointStep    = 0.1
)

type TickMsg time.Time

type LiveConfig struct {
	Name   string
	Target float64
	Dt     float64
	// Duration stops stepping once reached; zero runs until quit.
	Duration      float64
	StepsPerFrame int
	Theme         string
}

// Model steps a closed loop on a timer and keeps a bounded history of the
// signals it charts.
type Model struct {
	loop          *sim.Loop
	x0            dynamo.State
	cfg           LiveConfig
	target        float64
	running       bool
	err           error
	targets       []float64
	measured      []float64
	control       []float64
	correction    []float64
	params        map[string]float64
	initialParams map[string]float64
	paramKeys     []string
	selected      int
	theme         int
	showHelp      bool
}

func NewModel(loop *sim.Loop, x0 dynamo.State, cfg LiveConfig) Model {
	if cfg.StepsPerFrame <= 0 {
		cfg.StepsPerFrame = 1
	}

	params := make(map[string]float64)
	initialParams := make(map[string]float64)
	if c, ok := loop.Plant().(dynamo.Configurable); ok {
		for k, v := range c.GetParams() {
			params[k] = v
			initialParams[k] = v
		}
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	theme := 0
	for i, name := range ThemeNames() {
		if name == cfg.Theme {
			theme = i
		}
	}

	return Model{
		loop:          loop,
		x0:            x0.Clone(),
		cfg:           cfg,
		target:        cfg.Target,
		running:       true,
		targets:       make([]float64, 0, historyCapacity),
		measured:      make([]float64, 0, historyCapacity),
		control:       make([]float64, 0, historyCapacity),
		correction:    make([]float64, 0, historyCapacity),
		params:        params,
		initialParams: initialParams,
		paramKeys:     keys,
		theme:         theme,
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "s":
			if !m.running {
				m.advance(1)
			}
		case "r":
			m.reset()
		case "+", "=":
			m.target += setpointStep
		case "-", "_":
			m.target -= setpointStep
		case "tab":
			m.cycleParam()
		case "up", "k":
			m.adjustParam(1.05)
		case "down", "j":
			m.adjustParam(0.95)
		case "t":
			m.theme = (m.theme + 1) % len(Themes)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.advance(m.cfg.StepsPerFrame)
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) done() bool {
	return m.cfg.Duration > 0 && m.loop.Time() >= m.cfg.Duration-m.cfg.Dt/2
}

// advance runs up to n ticks, stopping at the first error or at the
// configured duration.
func (m *Model) advance(n int) {
	for i := 0; i < n; i++ {
		if m.err != nil || m.done() {
			m.running = false
			return
		}
		s, err := m.loop.Step(m.target, m.cfg.Dt)
		if err != nil {
			m.err = err
			m.running = false
			return
		}
		m.targets = push(m.targets, s.Target)
		m.measured = push(m.measured, s.Measured)
		m.control = push(m.control, s.Control)
		m.correction = push(m.correction, s.Correction)
	}
}

func push(buf []float64, v float64) []float64 {
	buf = append(buf, v)
	if len(buf) > historyCapacity {
		buf = buf[1:]
	}
	return buf
}

func (m *Model) cycleParam() {
	if len(m.paramKeys) == 0 {
		return
	}
	m.selected = (m.selected + 1) % len(m.paramKeys)
}

func (m *Model) adjustParam(factor float64) {
	if len(m.paramKeys) == 0 {
		return
	}
	key := m.paramKeys[m.selected]
	newVal := m.params[key] * factor
	c, ok := m.loop.Plant().(dynamo.Configurable)
	if !ok {
		return
	}
	if err := c.SetParam(key, newVal); err != nil {
		return
	}
	m.params[key] = newVal
}

// reset restores the plant state, plant parameters and setpoint. Controller
// state is cleared when the controller supports it; learned weights stay.
func (m *Model) reset() {
	m.loop.Reset(m.x0)
	if r, ok := m.loop.Controller().(dynamo.Resetter); ok {
		r.Reset()
	}
	if c, ok := m.loop.Plant().(dynamo.Configurable); ok {
		for k, v := range m.initialParams {
			if err := c.SetParam(k, v); err == nil {
				m.params[k] = v
			}
		}
	}
	m.target = m.cfg.Target
	m.err = nil
	m.running = true
	m.targets = m.targets[:0]
	m.measured = m.measured[:0]
	m.control = m.control[:0]
	m.correction = m.correction[:0]
}

func last(buf []float64) float64 {
	if len(buf) == 0 {
		return 0
	}
	return buf[len(buf)-1]
}

func (m Model) status(st styles) string {
	switch {
	case m.err != nil:
		return st.failed.Render("ERROR: " + m.err.Error())
	case m.done():
		return st.paused.Render("DONE")
	case !m.running:
		return st.paused.Render("PAUSED")
	}
	return st.running.Render("RUNNING")
}

func (m Model) View() string {
	theme := Themes[m.theme]
	st := newStyles(theme)

	var charts strings.Builder
	if len(m.measured) > 1 {
		charts.WriteString(asciigraph.PlotMany([][]float64{m.targets, m.measured},
			asciigraph.Height(graphHeight),
			asciigraph.Width(graphWidth),
			asciigraph.SeriesColors(seriesColor(theme.Target), seriesColor(theme.Measured)),
			asciigraph.Caption("target / measured")))
		charts.WriteString("\n\n")
		charts.WriteString(asciigraph.Plot(m.control,
			asciigraph.Height(graphHeight/2),
			asciigraph.Width(graphWidth),
			asciigraph.Caption("control u")))
		charts.WriteString("\n\ncorrection " + Sparkline(m.correction, graphWidth/2))
	} else {
		charts.WriteString("waiting for samples...")
	}

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.cfg.Name)) + "\n")
	s.WriteString(m.status(st) + "\n\n")

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", m.loop.Time()))
	if m.cfg.Duration > 0 {
		row("Progress", ProgressBar(m.loop.Time()/m.cfg.Duration, 20))
	}
	row("Target", fmt.Sprintf("%.3f", m.target))
	row("Measured", fmt.Sprintf("%.4f", m.loop.Output()))
	row("Error", fmt.Sprintf("%+.4f", m.target-m.loop.Output()))
	row("Control", fmt.Sprintf("%.4f", last(m.control)))
	row("Correction", fmt.Sprintf("%.4f", last(m.correction)))
	if a, ok := m.loop.Controller().(*control.AdaptivePID); ok {
		row("Integral", fmt.Sprintf("%.4f", a.Integral()))
		row("Derivative", fmt.Sprintf("%.4f", a.Derivative()))
	}

	s.WriteString("\nPLANT\n")
	if len(m.paramKeys) == 0 {
		s.WriteString(st.label.Render("  (none)") + "\n")
	}
	for i, k := range m.paramKeys {
		line := fmt.Sprintf("%-10s %.3f", k, m.params[k])
		if i == m.selected {
			s.WriteString(st.activeParam.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + st.label.Render(line) + "\n")
		}
	}
	s.WriteString(st.help.Render("SP:Pause S:Step R:Reset Q:Quit\n+/-:Setpoint ↑↓:Tune T:Theme ?:Help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top,
		st.panel.Render(charts.String()),
		st.panel.Render(s.String()))

	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  S        - Single step when paused  ║
║  R        - Reset loop               ║
║  Q        - Quit                     ║
║  + / -    - Raise/lower setpoint     ║
║  Tab      - Cycle plant parameters   ║
║  Up/K     - Increase parameter (+5%) ║
║  Down/J   - Decrease parameter (-5%) ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`

// Target returns the current setpoint.
func (m Model) Target() float64 { return m.target }

// Err returns the error that stopped the loop, if any.
func (m Model) Err() error { return m.err }

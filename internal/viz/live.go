package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/orbiter/internal/automation"
	"github.com/san-kum/orbiter/internal/controller"
	"github.com/san-kum/orbiter/internal/modulation"
	"github.com/san-kum/orbiter/internal/params"
	"github.com/san-kum/orbiter/internal/port"
	"github.com/san-kum/orbiter/internal/routing"
)

const (
	canvasWidth     = 48
	canvasHeight    = 24
	curveSteps      = 720
	historyCapacity = 120
	logCapacity     = 5
)

// Controller is what the observer needs from the controller side.
type Controller interface {
	Inputs() params.Inputs
	SetInput(name string, value float64) error
	SetTarget(ch modulation.Channel, targetID string) error
	Trail() *controller.Trail
	Readout() float64
	Stats() controller.Stats
	TargetInstance() string
}

type (
	tickMsg time.Time
	// LogMsg carries an engine log record into the program.
	LogMsg port.Log
	// DoneMsg tells the observer the engine has completed.
	DoneMsg struct{}
)

// Forward returns a controller listener that hands engine logs to p.
func Forward(p *tea.Program) controller.Listener {
	return func(m port.Outbound) {
		if m.Kind == port.KindLog {
			p.Send(LogMsg(m.Log))
		}
	}
}

type focusArea int

const (
	focusInputs focusArea = iota
	focusBindings
)

type Options struct {
	Strategy modulation.Strategy
	Canvas   modulation.Canvas
	Targets  []string
	Bindings routing.Bindings
	Theme    string
	FPS      int
	// Gate, when set, lets the user take the automation bus offline.
	Gate *automation.Gate
}

// Model is the bubbletea live observer: the figure with its trail on the
// left, inputs, bindings and readout on the right.
type Model struct {
	ctrl     Controller
	strategy modulation.Strategy
	space    modulation.Canvas
	targets  []string
	fps      int
	gate     *automation.Gate

	curve  *Canvas
	trail  *Canvas
	theme  Theme
	styles Styles

	inputs     []params.Descriptor
	channels   []modulation.Channel
	focus      focusArea
	selInput   int
	selChannel int
	bindings   routing.Bindings

	readouts  []float64
	logs      []string
	lastErr   string
	showHelp  bool
	completed bool
}

func NewModel(ctrl Controller, opts Options) Model {
	inputs := make([]params.Descriptor, 0)
	for _, d := range params.Descriptors() {
		if d.Name != params.Destroyed {
			inputs = append(inputs, d)
		}
	}
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	if opts.Canvas.Width <= 0 || opts.Canvas.Height <= 0 {
		opts.Canvas = modulation.DefaultCanvas()
	}
	theme := GetTheme(opts.Theme)
	return Model{
		ctrl:     ctrl,
		strategy: opts.Strategy,
		space:    opts.Canvas,
		targets:  opts.Targets,
		fps:      opts.FPS,
		gate:     opts.Gate,
		curve:    NewCanvas(canvasWidth, canvasHeight),
		trail:    NewCanvas(canvasWidth, canvasHeight),
		theme:    theme,
		styles:   NewStyles(theme),
		inputs:   inputs,
		channels: opts.Strategy.Channels(),
		bindings: opts.Bindings,
		readouts: make([]float64, 0, historyCapacity),
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Init() tea.Cmd { return m.tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tickMsg:
		if m.strategy.Kind() != modulation.QuadCorner {
			m.pushReadout(m.ctrl.Readout())
		}
		return m, m.tick()
	case LogMsg:
		m.applyLog(port.Log(msg))
	case DoneMsg:
		m.completed = true
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "?":
		m.showHelp = !m.showHelp
	case "t":
		m.theme = NextTheme(m.theme.Name)
		m.styles = NewStyles(m.theme)
	case "b":
		if m.gate != nil {
			m.gate.SetReady(!m.gate.Ready())
		}
	case "tab":
		if m.focus == focusInputs {
			m.focus = focusBindings
		} else {
			m.focus = focusInputs
		}
	case "up", "k":
		m.moveSelection(-1)
	case "down", "j":
		m.moveSelection(1)
	case "left", "h":
		m.adjust(-1)
	case "right", "l":
		m.adjust(1)
	case "H":
		m.adjust(-10)
	case "L":
		m.adjust(10)
	case "c", "backspace":
		if m.focus == focusBindings && len(m.channels) > 0 {
			m.setTarget(m.channels[m.selChannel], "")
		}
	}
	return m, nil
}

func (m *Model) moveSelection(d int) {
	if m.focus == focusInputs {
		m.selInput = wrapIndex(m.selInput+d, len(m.inputs))
		return
	}
	m.selChannel = wrapIndex(m.selChannel+d, len(m.channels))
}

// adjust nudges the selected input by steps hundredths of its range, or
// cycles the selected channel through the available targets.
func (m *Model) adjust(steps int) {
	if m.completed {
		return
	}
	if m.focus == focusInputs {
		d := m.inputs[m.selInput]
		in := m.ctrl.Inputs()
		cur, err := in.Get(d.Name)
		if err != nil {
			m.lastErr = err.Error()
			return
		}
		next := cur + float64(steps)*(d.Max-d.Min)/100
		if next < d.Min {
			next = d.Min
		} else if next > d.Max {
			next = d.Max
		}
		if err := m.ctrl.SetInput(d.Name, next); err != nil {
			m.lastErr = err.Error()
		}
		return
	}
	if len(m.channels) == 0 {
		return
	}
	ch := m.channels[m.selChannel]
	options := append([]string{""}, m.targets...)
	cur := 0
	for i, id := range options {
		if id == m.bindings[ch] {
			cur = i
			break
		}
	}
	dir := 1
	if steps < 0 {
		dir = -1
	}
	m.setTarget(ch, options[wrapIndex(cur+dir, len(options))])
}

func (m *Model) setTarget(ch modulation.Channel, id string) {
	if err := m.ctrl.SetTarget(ch, id); err != nil {
		m.lastErr = err.Error()
	}
}

// applyLog records engine logs. Bindings only change here, once the engine
// has confirmed them.
func (m *Model) applyLog(l port.Log) {
	switch l.Event {
	case port.LogTargetSet:
		if l.Channel.Valid() {
			m.bindings[l.Channel] = l.TargetID
		}
	case port.LogTargetCleared:
		if l.Channel.Valid() {
			m.bindings[l.Channel] = ""
		}
	case port.LogDestroyed:
		m.completed = true
	}
	m.logs = append(m.logs, l.String())
	if len(m.logs) > logCapacity {
		m.logs = m.logs[len(m.logs)-logCapacity:]
	}
}

func (m *Model) pushReadout(v float64) {
	if len(m.readouts) == historyCapacity {
		copy(m.readouts, m.readouts[1:])
		m.readouts = m.readouts[:historyCapacity-1]
	}
	m.readouts = append(m.readouts, v)
}

func (m *Model) draw(in params.Inputs, pts []port.Telemetry) {
	m.curve.Clear()
	m.trail.Clear()
	fit := m.curve.Fit(m.space)
	in = in.Clamp()
	m.curve.DrawCurve(fit, in.FreqX, in.FreqY, in.Phase, in.AmpX, in.AmpY, curveSteps)
	m.trail.DrawTrail(fit, pts)
	if n := len(pts); n > 0 {
		m.trail.DrawDot(fit, pts[n-1].X, pts[n-1].Y)
	}
}

// renderCanvas overlays the trail on the faint analytic curve.
func (m Model) renderCanvas() string {
	lines := make([]string, m.trail.Height)
	for row := range m.trail.Grid {
		var b strings.Builder
		var run []rune
		runTrail := false
		flush := func() {
			if len(run) == 0 {
				return
			}
			if runTrail {
				b.WriteString(string(run))
			} else {
				b.WriteString(m.styles.Curve.Render(string(run)))
			}
			run = run[:0]
		}
		for col, r := range m.trail.Grid[row] {
			isTrail := r != brailleBase
			if isTrail != runTrail {
				flush()
				runTrail = isTrail
			}
			run = append(run, r|m.curve.Grid[row][col])
		}
		flush()
		lines[row] = b.String()
	}
	return m.styles.Canvas.Render(strings.Join(lines, "\n"))
}

func (m Model) View() string {
	if m.showHelp {
		return helpText
	}
	in := m.ctrl.Inputs()
	pts := m.ctrl.Trail().Points()
	m.draw(in, pts)

	var s strings.Builder
	title := "ORBITER · " + strings.ToUpper(m.strategy.Kind().String())
	s.WriteString(m.styles.Header.Render(title) + "\n")
	status := "RUNNING"
	if m.completed {
		status = m.styles.Error.Render("COMPLETED")
	}
	s.WriteString(m.styles.Label.Render("Status") + m.styles.Value.Render(status) + "\n")
	if m.gate != nil {
		bus := "ready"
		if !m.gate.Ready() {
			bus = m.styles.Warning.Render("offline")
		}
		s.WriteString(m.styles.Label.Render("Bus") + m.styles.Value.Render(bus) + "\n")
	}
	if inst := m.ctrl.TargetInstance(); inst != "" {
		s.WriteString(m.styles.Label.Render("Instance") + m.styles.Value.Render(inst) + "\n")
	}

	s.WriteString(m.styles.Section.Render("INPUTS") + "\n")
	for i, d := range m.inputs {
		v, _ := in.Get(d.Name)
		line := fmt.Sprintf("%-12s %s %5.2f", d.Name, Bar((v-d.Min)/(d.Max-d.Min), 10), v)
		s.WriteString(m.row(m.focus == focusInputs && i == m.selInput, line) + "\n")
	}

	s.WriteString(m.styles.Section.Render("BINDINGS") + "\n")
	for i, ch := range m.channels {
		target := m.bindings[ch]
		if target == "" {
			target = "(none)"
		}
		line := fmt.Sprintf("%-12s → %s", ch, target)
		s.WriteString(m.row(m.focus == focusBindings && i == m.selChannel, line) + "\n")
	}

	if m.strategy.Kind() == modulation.QuadCorner && len(pts) > 0 {
		last := pts[len(pts)-1]
		w := modulation.CornerWeights(last.X/m.space.Width, last.Y/m.space.Height)
		s.WriteString(m.styles.Section.Render("WEIGHTS") + "\n")
		for _, cw := range []struct {
			ch modulation.Channel
			v  float64
		}{
			{modulation.TopLeft, w.TopLeft},
			{modulation.TopRight, w.TopRight},
			{modulation.BottomLeft, w.BottomLeft},
			{modulation.BottomRight, w.BottomRight},
		} {
			s.WriteString(m.styles.Label.Render(cw.ch.String()) + m.styles.Value.Render(fmt.Sprintf("%s %.2f", Bar(cw.v, 10), cw.v)) + "\n")
		}
	}

	if len(m.readouts) > 1 {
		chart := asciigraph.Plot(m.readouts, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Readout"))
		s.WriteString(m.styles.Graph.Render(chart) + "\n")
	}

	st := m.ctrl.Stats()
	s.WriteString(m.styles.Label.Render("Samples") + m.styles.Value.Render(fmt.Sprintf("%d", st.Telemetry)) + "\n")
	for _, l := range m.logs {
		s.WriteString(m.styles.Help.UnsetMarginTop().Render(l) + "\n")
	}
	if m.lastErr != "" {
		s.WriteString(m.styles.Warning.Render(m.lastErr) + "\n")
	}
	s.WriteString(m.styles.Help.Render("TAB:Focus ←→:Adjust C:Clear B:Bus T:Theme ?:Help Q:Quit"))

	return lipgloss.JoinHorizontal(lipgloss.Top, m.renderCanvas(), m.styles.Panel.Render(s.String()))
}

func (m Model) row(selected bool, line string) string {
	if selected {
		return m.styles.Selected.Render("> " + line)
	}
	return "  " + m.styles.Value.Render(line)
}

func wrapIndex(i, n int) int {
	if n == 0 {
		return 0
	}
	return ((i % n) + n) % n
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Tab      - Inputs / bindings        ║
║  Up/K     - Previous row             ║
║  Down/J   - Next row                 ║
║  Left/H   - Decrease / prev target   ║
║  Right/L  - Increase / next target   ║
║  Shift+HL - Adjust by 10 steps       ║
║  C        - Clear selected binding   ║
║  B        - Toggle automation bus    ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝
`

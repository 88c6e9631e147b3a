// Package tui renders a live view of a mission while it is flown.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/aerosim/internal/mission"
	"github.com/san-kum/aerosim/internal/segment"
)

type phase int

const (
	pending phase = iota
	flying
	done
)

type row struct {
	name, kind string
	phase      phase
	result     mission.SegmentResult
}

type model struct {
	mission string
	rows    []row
	current int

	// profile is range and altitude of every finished control point.
	rangeX   []float64
	altitude []float64

	started  time.Time
	elapsed  time.Duration
	finished bool
	err      error
	frame    int

	width  int
	height int
}

func newModel(m *mission.Mission) model {
	md := model{mission: m.Name, current: -1, width: 80, height: 24, started: time.Now()}
	for _, s := range m.Segments() {
		md.rows = append(md.rows, row{name: s.Name, kind: s.Kind})
	}
	return md
}

type (
	segmentStartMsg struct{ name string }
	segmentEndMsg   struct{ result mission.SegmentResult }
	finishedMsg     struct{ err error }
	tickMsg         time.Time
)

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Init() tea.Cmd { return tick() }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case segmentStartMsg:
		if i := m.index(msg.name); i >= 0 {
			m.rows[i].phase = flying
			m.current = i
		}
	case segmentEndMsg:
		if i := m.index(msg.result.Name); i >= 0 {
			m.rows[i].phase = done
			m.rows[i].result = msg.result
			m.record(msg.result)
		}
	case finishedMsg:
		m.finished = true
		m.err = msg.err
		m.elapsed = time.Since(m.started)
	case tickMsg:
		if m.finished {
			return m, nil
		}
		m.frame++
		m.elapsed = time.Since(m.started)
		return m, tick()
	}
	return m, nil
}

func (m model) index(name string) int {
	for i, r := range m.rows {
		if r.name == name {
			return i
		}
	}
	return -1
}

func (m *model) record(r mission.SegmentResult) {
	if r.State == nil {
		return
	}
	pos, err := r.State.Condition(segment.PositionVector)
	if err != nil {
		return
	}
	alt, err := r.State.Condition(segment.Altitude)
	if err != nil {
		return
	}
	for i := 0; i < min(pos.Rows(), alt.Rows()); i++ {
		m.rangeX = append(m.rangeX, pos.At(i, 0))
		m.altitude = append(m.altitude, alt.At(i, 0))
	}
}

func (m model) completed() int {
	n := 0
	for _, r := range m.rows {
		if r.phase == done {
			n++
		}
	}
	return n
}

func (m model) View() string {
	var b strings.Builder

	statusIcon := green.Render("●")
	statusText := green.Render("flying")
	switch {
	case m.finished && m.err != nil:
		statusIcon, statusText = red.Render("●"), red.Render("stopped")
	case m.finished:
		statusIcon, statusText = cyan.Render("●"), cyan.Render("landed")
	case m.frame%2 == 1:
		statusIcon = dim.Render("○")
	}
	b.WriteString(fmt.Sprintf("\n   %s %s  %s\n", statusIcon, cyan.Render(m.mission), statusText))

	barWidth := 36
	filled := 0
	if len(m.rows) > 0 {
		filled = m.completed() * barWidth / len(m.rows)
	}
	bar := cyan.Render(strings.Repeat("━", filled)) + dimmer.Render(strings.Repeat("─", barWidth-filled))
	progress := fmt.Sprintf("%d/%d segments", m.completed(), len(m.rows))
	b.WriteString(fmt.Sprintf("   %s %s  %s\n\n", bar, dim.Render(progress), dim.Render(m.elapsed.Round(time.Millisecond).String())))

	for _, r := range m.rows {
		b.WriteString(m.viewRow(r) + "\n")
	}

	if len(m.altitude) > 1 {
		b.WriteString("\n")
		for _, line := range m.profile() {
			b.WriteString("   " + dimmer.Render("│") + cyan.Render(line) + "\n")
		}
		b.WriteString("   " + dim.Render("alt ") + magenta.Render(sparkline(m.altitude, 32)) + "\n")
	}

	if m.err != nil {
		b.WriteString("\n   " + red.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n" + dim.Render("   q quit") + "\n")
	return b.String()
}

func (m model) viewRow(r row) string {
	name := fmt.Sprintf("%-14s", r.name)
	kind := fmt.Sprintf("%-44s", r.kind)
	switch r.phase {
	case flying:
		return "   " + cyan.Render("▸ ") + white.Render(name) + dim.Render(kind)
	case pending:
		return "     " + dim.Render(name) + dimmer.Render(kind)
	}

	res := r.result
	detail := fmt.Sprintf("evals %-5d |r| %.2e", res.Evaluations, res.Residual)
	switch res.Status() {
	case "converged":
		return "   " + green.Render("✓ ") + white.Render(name) + dim.Render(kind) + dim.Render(detail)
	case "not_converged":
		return "   " + yellow.Render("~ ") + white.Render(name) + dim.Render(kind) + yellow.Render(detail)
	case "skipped":
		return "   " + dimmer.Render("- ") + dim.Render(name) + dimmer.Render(kind) + dimmer.Render("skipped")
	default:
		return "   " + red.Render("✗ ") + white.Render(name) + dim.Render(kind) + red.Render("error")
	}
}

// profile draws altitude against range.
func (m model) profile() []string {
	w := max(m.width-8, 40)
	h := max(m.height-len(m.rows)-14, 6)
	c := newCanvas(w, h)

	x0, x1 := bounds(m.rangeX)
	y0, y1 := bounds(m.altitude)
	px := func(v float64) int { return int((v - x0) / (x1 - x0) * float64(w-1)) }
	py := func(v float64) int { return h - 1 - int((v-y0)/(y1-y0)*float64(h-1)) }

	for i := 1; i < len(m.altitude); i++ {
		c.line(px(m.rangeX[i-1]), py(m.altitude[i-1]), px(m.rangeX[i]), py(m.altitude[i]), '·')
	}
	last := len(m.altitude) - 1
	c.set(px(m.rangeX[last]), py(m.altitude[last]), '✈')
	return c.rows()
}

func bounds(v []float64) (lo, hi float64) {
	lo, hi = v[0], v[0]
	for _, x := range v {
		lo = min(lo, x)
		hi = max(hi, x)
	}
	if hi == lo {
		hi = lo + 1
	}
	return lo, hi
}

// programObserver forwards segment events to a running program.
type programObserver struct {
	p *tea.Program
}

func (o programObserver) OnSegmentStart(_ string, s *segment.Segment) {
	o.p.Send(segmentStartMsg{name: s.Name})
}

func (o programObserver) OnSegmentEnd(_ string, r mission.SegmentResult) {
	o.p.Send(segmentEndMsg{result: r})
}

// Watch flies m while rendering its progress. Quitting the view cancels
// the mission between segments.
func Watch(ctx context.Context, m *mission.Mission) (*mission.Results, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newModel(m), tea.WithAltScreen(), tea.WithContext(ctx))
	m.AddObserver(programObserver{p: p})

	type outcome struct {
		res *mission.Results
		err error
	}
	out := make(chan outcome, 1)
	go func() {
		res, err := m.Evaluate(ctx)
		out <- outcome{res, err}
		p.Send(finishedMsg{err: err})
	}()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return nil, err
	}
	cancel()
	o := <-out
	return o.res, o.err
}

package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/aerosim/internal/mission"
	"github.com/san-kum/aerosim/internal/segment"
	"github.com/san-kum/aerosim/internal/segments"
	"github.com/san-kum/aerosim/internal/state"
	"github.com/san-kum/aerosim/internal/vehicle"
)

func testMission(t *testing.T) *mission.Mission {
	t.Helper()
	m := mission.New("hop")
	v := vehicle.Turboprop()
	if err := m.Append(
		segments.Climb("climb", v, nil),
		segments.Cruise("cruise", v, nil),
	); err != nil {
		t.Fatal(err)
	}
	return m
}

func flown(name string, alt0, alt1 float64) mission.SegmentResult {
	st := state.New()
	st.SetCondition(segment.Altitude, state.Column(alt0, alt1))
	pos, _ := state.FromRows([][]float64{{0, 0, -alt0}, {5000, 0, -alt1}})
	st.SetCondition(segment.PositionVector, pos)
	return mission.SegmentResult{Name: name, Converged: true, Evaluations: 12, State: st}
}

func update(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(model)
}

func TestWatchTracksSegments(t *testing.T) {
	m := newModel(testMission(t))
	if len(m.rows) != 2 || m.current != -1 {
		t.Fatalf("unexpected initial model: %+v", m.rows)
	}

	m = update(t, m, segmentStartMsg{name: "climb"})
	if m.rows[0].phase != flying || m.current != 0 {
		t.Errorf("expected climb flying, got phase %d", m.rows[0].phase)
	}

	m = update(t, m, segmentEndMsg{result: flown("climb", 0, 1500)})
	if m.rows[0].phase != done || m.completed() != 1 {
		t.Errorf("expected climb done, got %d completed", m.completed())
	}
	if len(m.altitude) != 2 || m.altitude[1] != 1500 {
		t.Errorf("expected profile to record climb, got %v", m.altitude)
	}

	view := m.View()
	for _, want := range []string{"hop", "1/2 segments", "climb", "cruise", "evals 12"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in view", want)
		}
	}
}

func TestWatchFinished(t *testing.T) {
	m := newModel(testMission(t))
	m = update(t, m, segmentEndMsg{result: mission.SegmentResult{Name: "cruise", Skipped: true}})
	m = update(t, m, finishedMsg{err: errors.New("mission \"hop\": boom")})
	if !m.finished || m.err == nil {
		t.Fatal("expected finished with error")
	}
	view := m.View()
	if !strings.Contains(view, "stopped") || !strings.Contains(view, "skipped") {
		t.Errorf("expected stopped and skipped in view:\n%s", view)
	}
	if _, cmd := m.Update(tickMsg{}); cmd != nil {
		t.Error("expected ticking to stop once finished")
	}
}

func TestWatchQuit(t *testing.T) {
	m := newModel(testMission(t))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected QuitMsg")
	}
}

func TestSparkline(t *testing.T) {
	tests := []struct {
		data []float64
		want string
	}{
		{nil, ""},
		{[]float64{0, 1}, "▁█"},
		{[]float64{3, 3, 3}, "▁▁▁"},
	}
	for _, tt := range tests {
		if got := sparkline(tt.data, 8); got != tt.want {
			t.Errorf("sparkline(%v) = %q, want %q", tt.data, got, tt.want)
		}
	}
}

func TestCanvasLine(t *testing.T) {
	c := newCanvas(5, 5)
	c.line(0, 0, 4, 4, '#')
	c.set(10, 10, 'x')
	rows := c.rows()
	for i := 0; i < 5; i++ {
		if []rune(rows[i])[i] != '#' {
			t.Errorf("expected diagonal at %d, got %q", i, rows[i])
		}
	}
}

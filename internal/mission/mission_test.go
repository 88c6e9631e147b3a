package mission_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/aerosim/internal/dynamo"
	"github.com/san-kum/aerosim/internal/mission"
	"github.com/san-kum/aerosim/internal/segment"
	"github.com/san-kum/aerosim/internal/segments"
	"github.com/san-kum/aerosim/internal/state"
	"github.com/san-kum/aerosim/internal/vehicle"
)

func settings(params map[string]float64) *segment.Settings {
	s := segment.DefaultSettings()
	s.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.Numerics.ControlPoints = 4
	for k, v := range params {
		s.SetParam(k, v)
	}
	return s
}

func first(s *segment.Segment, path string) float64 {
	a, err := s.State.Condition(path)
	Expect(err).NotTo(HaveOccurred())
	return a.At(0, 0)
}

func last(s *segment.Segment, path string) float64 {
	a, err := s.State.Condition(path)
	Expect(err).NotTo(HaveOccurred())
	return a.Last()[0]
}

type recorder struct {
	mu     sync.Mutex
	starts []string
	ends   []string
}

func (r *recorder) OnSegmentStart(_ string, s *segment.Segment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts = append(r.starts, s.Name)
}

func (r *recorder) OnSegmentEnd(_ string, res mission.SegmentResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ends = append(r.ends, res.Name+":"+res.Status())
}

var _ = Describe("Mission", func() {
	var (
		ctx context.Context
		v   *vehicle.Vehicle
		m   *mission.Mission
	)

	BeforeEach(func() {
		ctx = context.Background()
		v = vehicle.Turboprop()
		m = mission.New("regional")
	})

	Describe("continuity", func() {
		It("starts a segment at the previous segment's terminal altitude", func() {
			climb := segments.Climb("climb", v, settings(map[string]float64{
				"altitude_start": 0, "altitude_end": 1000, "air_speed": 100, "climb_rate": 5,
			}))
			cruise := segments.Cruise("cruise", v, settings(map[string]float64{
				"air_speed": 110, "distance": 20000,
			}))
			Expect(m.Append(climb, cruise)).To(Succeed())

			res, err := m.Evaluate(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Segments).To(HaveLen(2))
			Expect(last(climb, segment.Altitude)).To(Equal(1000.0))
			Expect(first(cruise, segment.Altitude)).To(Equal(1000.0))
		})

		It("carries total mass forward without an override", func() {
			trainer := vehicle.ElectricTrainer()
			trim := segments.Point("trim", trainer, settings(map[string]float64{
				"altitude": 500, "air_speed": 40, "mass_start": 1000,
			}))
			cruise := segments.Cruise("cruise", trainer, settings(map[string]float64{
				"distance": 4000,
			}))
			Expect(m.Append(trim, cruise)).To(Succeed())

			_, err := m.Evaluate(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(last(trim, segment.TotalMass)).To(Equal(1000.0))
			Expect(first(cruise, segment.TotalMass)).To(Equal(1000.0))
		})

		It("chains burned mass, time, position and stored energy", func() {
			climb := segments.Climb("climb", v, settings(map[string]float64{
				"altitude_end": 2000, "air_speed": 100, "climb_rate": 5,
			}))
			cruise := segments.Cruise("cruise", v, settings(map[string]float64{
				"air_speed": 120, "distance": 60000,
			}))
			Expect(m.Append(climb, cruise)).To(Succeed())

			res, err := m.Evaluate(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Converged()).To(BeTrue())

			Expect(last(climb, segment.TotalMass)).To(BeNumerically("<", v.MassTakeoff))
			Expect(first(cruise, segment.TotalMass)).To(Equal(last(climb, segment.TotalMass)))
			Expect(first(cruise, segment.Time)).To(Equal(last(climb, segment.Time)))

			prev, _ := climb.State.Condition(segment.PositionVector)
			next, _ := cruise.State.Condition(segment.PositionVector)
			Expect(next.RowAt(0)[0]).To(Equal(prev.Last()[0]))

			trainer := vehicle.ElectricTrainer()
			e := mission.New("electric")
			a := segments.Cruise("a", trainer, settings(map[string]float64{"altitude": 500, "air_speed": 40, "distance": 8000}))
			b := segments.Cruise("b", trainer, settings(map[string]float64{"distance": 8000}))
			Expect(e.Append(a, b)).To(Succeed())
			_, err = e.Evaluate(ctx)
			Expect(err).NotTo(HaveOccurred())
			battery := segment.StoreEnergy("battery")
			Expect(last(a, battery)).To(BeNumerically("<", 90e6))
			Expect(first(b, battery)).To(Equal(last(a, battery)))
			Expect(last(b, battery)).To(BeNumerically("<", first(b, battery)))
		})

		It("does not carry unknowns or control deflections", func() {
			st := settings(map[string]float64{"altitude": 1000, "air_speed": 110, "distance": 20000})
			st.Controls.Throttle.InitialGuess = []float64{0.9}
			a := segments.Cruise("a", v, st)
			b := segments.Cruise("b", v, settings(map[string]float64{"distance": 20000}))
			Expect(m.Append(a, b)).To(Succeed())

			var guess float64
			var elevator []float64
			probe := segment.NewStep("probe", func(f segment.Frame) error {
				u, err := f.State.Get("unknowns.throttle_0")
				if err != nil {
					return err
				}
				guess = u.At(0, 0)
				e, err := f.State.Condition(segment.ElevatorFamily + "_0")
				if err != nil {
					return err
				}
				elevator = append([]float64(nil), e.Data()...)
				return nil
			})
			Expect(b.InsertAfter("initialize.unknowns", probe)).To(Succeed())

			_, err := m.Evaluate(ctx)
			Expect(err).NotTo(HaveOccurred())
			throttle, _ := a.State.Get("unknowns.throttle_0")
			Expect(throttle.At(0, 0)).NotTo(Equal(0.5))
			Expect(guess).To(Equal(0.5))
			Expect(elevator).To(HaveEach(0.0))
		})

		It("exposes the previous state read-only", func() {
			a := segments.Cruise("a", v, settings(map[string]float64{"altitude": 1000, "air_speed": 110, "distance": 20000}))
			b := segments.Cruise("b", v, settings(map[string]float64{"distance": 20000}))
			Expect(m.Append(a, b)).To(Succeed())
			_, err := m.Evaluate(ctx)
			Expect(err).NotTo(HaveOccurred())

			view := b.State.Initials()
			Expect(view).NotTo(BeNil())
			alt, err := view.Get(state.Conditions + "." + segment.Altitude)
			Expect(err).NotTo(HaveOccurred())
			alt.Fill(-1)
			Expect(last(a, segment.Altitude)).To(Equal(1000.0))
			Expect(a.State.Initials()).To(BeNil())
		})
	})

	Describe("failure handling", func() {
		var starved *segment.Segment

		BeforeEach(func() {
			st := settings(map[string]float64{"altitude_start": 0, "altitude_end": 1000, "air_speed": 100, "climb_rate": 5})
			st.Solver.MaxEvaluations = 3
			starved = segments.Climb("climb", v, st)
		})

		It("continues past a non-converged segment and flags it", func() {
			cruise := segments.Cruise("cruise", v, settings(map[string]float64{"air_speed": 110, "distance": 20000}))
			Expect(m.Append(starved, cruise)).To(Succeed())

			res, err := m.Evaluate(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Segments).To(HaveLen(2))
			Expect(res.Segments[0].Converged).To(BeFalse())
			Expect(res.Segments[0].Evaluations).To(BeNumerically("<=", 3))
			Expect(res.Segments[1].Skipped).To(BeFalse())
			Expect(res.Converged()).To(BeFalse())
			Expect(res.Failed()).To(ContainElement("climb"))
			Expect(first(cruise, segment.Altitude)).To(Equal(1000.0))

			x, _ := starved.State.Get("unknowns.throttle_0")
			Expect(x.IsValid()).To(BeTrue())
		})

		It("halts on a non-converged segment when asked", func() {
			cruise := segments.Cruise("cruise", v, settings(map[string]float64{"air_speed": 110, "distance": 20000}))
			Expect(m.Append(starved, cruise)).To(Succeed())
			m.HaltOnFailure = true

			res, err := m.Evaluate(ctx)
			Expect(err).To(MatchError(dynamo.ErrConvergence))
			Expect(res.Segments).To(HaveLen(2))
			Expect(res.Segments[1].Skipped).To(BeTrue())
			Expect(res.Segments[1].Status()).To(Equal("skipped"))
		})

		It("records a fatal error and skips the rest", func() {
			broken := segments.Cruise("broken", v, settings(map[string]float64{"altitude": 1000}))
			tail := segments.Cruise("tail", v, settings(map[string]float64{"air_speed": 110, "distance": 1000}))
			head := segments.Point("trim", v, settings(map[string]float64{"altitude": 1000, "air_speed": 110}))
			Expect(m.Append(head, broken, tail)).To(Succeed())

			res, err := m.Evaluate(ctx)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue())
			Expect(res.Segments).To(HaveLen(3))
			Expect(res.Segments[0].Converged).To(BeTrue())
			Expect(res.Segments[1].Err).To(HaveOccurred())
			Expect(res.Segments[1].Status()).To(Equal("error"))
			Expect(res.Segments[2].Skipped).To(BeTrue())
			Expect(res.Failed()).To(Equal([]string{"broken", "tail"}))
		})
	})

	Describe("results", func() {
		It("stacks conditions across segments", func() {
			climb := segments.Climb("climb", v, settings(map[string]float64{"altitude_end": 1000, "air_speed": 100, "climb_rate": 5}))
			cruise := segments.Cruise("cruise", v, settings(map[string]float64{"air_speed": 110, "distance": 20000}))
			Expect(m.Append(climb, cruise)).To(Succeed())
			res, err := m.Evaluate(ctx)
			Expect(err).NotTo(HaveOccurred())

			alt, err := res.Stack(segment.Altitude)
			Expect(err).NotTo(HaveOccurred())
			Expect(alt.Rows()).To(Equal(8))
			Expect(alt.At(7, 0)).To(Equal(1000.0))

			pos, err := res.Final(segment.PositionVector)
			Expect(err).NotTo(HaveOccurred())
			Expect(pos).To(HaveLen(3))
			Expect(pos[0]).To(BeNumerically(">", 20000))

			_, err = res.Stack("aerodynamics.nonexistent")
			Expect(err).To(MatchError(dynamo.ErrLookup))
			_, err = res.Segment("descent")
			Expect(err).To(MatchError(dynamo.ErrLookup))
		})

		It("notifies observers around every segment", func() {
			rec := &recorder{}
			m.AddObserver(mission.NoopObserver{})
			m.AddObserver(rec)
			m.AddObserver(mission.NewLoggingObserver(slog.New(slog.NewTextHandler(io.Discard, nil))))
			Expect(m.Append(
				segments.Point("trim", v, settings(map[string]float64{"altitude": 1000, "air_speed": 110})),
				segments.Cruise("cruise", v, settings(map[string]float64{"distance": 10000})),
			)).To(Succeed())

			_, err := m.Evaluate(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.starts).To(Equal([]string{"trim", "cruise"}))
			Expect(rec.ends).To(Equal([]string{"trim:converged", "cruise:converged"}))
		})
	})

	Describe("segment lookup", func() {
		It("rejects duplicate names and finds segments", func() {
			Expect(m.Append(segments.Point("trim", v, nil))).To(Succeed())
			Expect(m.Append(segments.Point("trim", v, nil))).NotTo(Succeed())
			s, err := m.Segment("trim")
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Kind).To(Equal(segments.SinglePoint))
			_, err = m.Segment("cruise")
			Expect(err).To(MatchError(dynamo.ErrLookup))
			Expect(m.Len()).To(Equal(1))
		})
	})

	Describe("RunAll", func() {
		It("evaluates independent missions concurrently", func() {
			cache := vehicle.NewCache()
			var missions []*mission.Mission
			for _, name := range []string{"a", "b", "c", "d"} {
				mm := mission.New(name)
				for _, seg := range []struct {
					name   string
					params map[string]float64
					build  segments.Builder
				}{
					{"climb", map[string]float64{"altitude_end": 1500, "air_speed": 100, "climb_rate": 5}, segments.Climb},
					{"cruise", map[string]float64{"air_speed": 115, "distance": 30000}, segments.Cruise},
				} {
					st := settings(seg.params)
					st.Cache = cache
					Expect(mm.Append(seg.build(seg.name, vehicle.Turboprop(), st))).To(Succeed())
				}
				missions = append(missions, mm)
			}

			results, err := mission.RunAll(ctx, missions, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(4))
			for i, r := range results {
				Expect(r.Mission).To(Equal(missions[i].Name))
				Expect(r.Converged()).To(BeTrue())
			}
			Expect(cache.Builds()).To(Equal(1))
		})
	})
})

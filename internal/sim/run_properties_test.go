package sim_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/satwerk/gravsim/internal/orbit"
	"github.com/satwerk/gravsim/internal/sim"
)

func f(v float64) *float64 { return &v }

// twoBody is the README example pair: a light probe orbiting past a
// second body.
func twoBody() orbit.InitialConditions {
	return orbit.InitialConditions{
		"Body1": {X: f(0), Y: f(0.1), VX: f(0.1), VY: f(0)},
		"Body2": {X: f(0), Y: f(1), VX: f(1), VY: f(0)},
	}
}

// binaryPair is an equal-mass circular binary, useful when energy should
// stay put.
func binaryPair() orbit.InitialConditions {
	const v = 0.7071067811865476
	return orbit.InitialConditions{
		"A": {X: f(-0.5), Y: f(0), VX: f(0), VY: f(-v)},
		"B": {X: f(0.5), Y: f(0), VX: f(0), VY: f(v)},
	}
}

var _ = Describe("Simulation", func() {
	Describe("a completed run", func() {
		const iterations = 100

		var (
			s   *sim.Simulation
			res *sim.Result
		)

		BeforeEach(func() {
			cfg := sim.DefaultConfig()
			cfg.Iterations = iterations

			var err error
			s, err = sim.New(twoBody(), cfg)
			Expect(err).NotTo(HaveOccurred())

			res, err = s.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
		})

		It("reports completion", func() {
			Expect(s.Status()).To(Equal(sim.StatusCompleted))
			Expect(res.Status).To(Equal(sim.StatusCompleted))
			Expect(res.Iterations).To(Equal(iterations))
			Expect(res.Agents).To(Equal(2))
		})

		It("gives every agent one record per iteration", func() {
			store := s.Store()
			for _, name := range store.Agents() {
				Expect(store.Len(name)).To(Equal(iterations), name)
			}
		})

		It("keeps every agent's intervals contiguous and increasing", func() {
			doc := s.Export()
			Expect(doc).To(HaveLen(2))
			for name, recs := range doc {
				for i := range recs {
					Expect(recs[i].End).To(BeNumerically(">", recs[i].Start), name)
					if i > 0 {
						Expect(recs[i].Start).To(Equal(recs[i-1].End), name)
						Expect(recs[i].Start).To(BeNumerically(">", recs[i-1].Start), name)
					}
				}
			}
		})

		It("answers point queries against the produced trajectory", func() {
			rec, ok := s.Store().Query("Body1", 0.055)
			Expect(ok).To(BeTrue())
			Expect(rec.Start).To(BeNumerically("~", 0.05, 1e-9))
			Expect(rec.End).To(BeNumerically("~", 0.06, 1e-9))
		})
	})

	It("applies equal and opposite forces to an equal-mass pair", func() {
		ic := orbit.InitialConditions{
			"A": {X: f(0), Y: f(0), VX: f(0), VY: f(0)},
			"B": {X: f(1), Y: f(0), VX: f(0), VY: f(0)},
		}
		cfg := sim.DefaultConfig()
		cfg.Iterations = 1

		s, err := sim.New(ic, cfg)
		Expect(err).NotTo(HaveOccurred())
		_, err = s.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())

		agents := s.Agents()
		Expect(agents[0].State.VX).To(Equal(-agents[1].State.VX))
		Expect(agents[0].State.VY).To(Equal(-agents[1].State.VY))
		Expect(agents[0].State.VX).NotTo(BeZero())
	})

	It("produces bit-identical output for identical input", func() {
		run := func() map[string][]float64 {
			cfg := sim.DefaultConfig()
			cfg.Iterations = 200

			s, err := sim.New(twoBody(), cfg)
			Expect(err).NotTo(HaveOccurred())
			_, err = s.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())

			out := make(map[string][]float64)
			for name, recs := range s.Export() {
				for _, r := range recs {
					out[name] = append(out[name],
						r.Start, r.End, r.State.X, r.State.Y, r.State.VX, r.State.VY)
				}
			}
			return out
		}

		Expect(run()).To(Equal(run()))
	})

	It("produces bit-identical output with parallel accelerations", func() {
		run := func(workers int) []orbit.Agent {
			cfg := sim.DefaultConfig()
			cfg.Iterations = 200
			cfg.Workers = workers

			s, err := sim.New(binaryPair(), cfg)
			Expect(err).NotTo(HaveOccurred())
			_, err = s.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			return s.Agents()
		}

		Expect(run(4)).To(Equal(run(0)))
	})

	It("keeps energy drift small on a circular binary", func() {
		cfg := sim.DefaultConfig()
		cfg.Iterations = 1000

		s, err := sim.New(binaryPair(), cfg)
		Expect(err).NotTo(HaveOccurred())
		res, err := s.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(res.EnergyDrift).To(BeNumerically("<", 0.05))
	})

	It("fails with a NumericalError when agents coincide", func() {
		ic := orbit.InitialConditions{
			"A": {X: f(0.5), Y: f(0.5), VX: f(0), VY: f(0)},
			"B": {X: f(0.5), Y: f(0.5), VX: f(0), VY: f(0)},
		}
		s, err := sim.New(ic, sim.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())

		res, err := s.Run(context.Background())
		Expect(err).To(HaveOccurred())

		var nerr *orbit.NumericalError
		Expect(errors.As(err, &nerr)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("iteration 0"))
		Expect(s.Status()).To(Equal(sim.StatusFailed))
		Expect(res.Iterations).To(BeZero())
		Expect(s.Store().Len("A")).To(BeZero())
	})

	It("rejects malformed initial conditions before running", func() {
		_, err := sim.New(orbit.InitialConditions{}, sim.DefaultConfig())
		var verr *orbit.ValidationError
		Expect(errors.As(err, &verr)).To(BeTrue())

		ic := orbit.InitialConditions{"A": {X: f(0), Y: f(0), VX: f(0)}}
		_, err = sim.New(ic, sim.DefaultConfig())
		Expect(errors.As(err, &verr)).To(BeTrue())
		Expect(verr.Field).To(Equal("vy"))
	})

	It("rejects an unbounded config", func() {
		cfg := sim.DefaultConfig()
		cfg.Iterations = 0

		_, err := sim.New(twoBody(), cfg)
		var verr *orbit.ValidationError
		Expect(errors.As(err, &verr)).To(BeTrue())
		Expect(verr.Field).To(Equal("iterations"))
	})

	It("refuses to run twice", func() {
		s, err := sim.New(twoBody(), sim.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())

		_, err = s.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())

		_, err = s.Run(context.Background())
		Expect(err).To(MatchError(sim.ErrAlreadyStarted))
	})

	It("stops between iterations when the context is cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		s, err := sim.New(twoBody(), sim.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())

		res, err := s.Run(ctx)
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		Expect(s.Status()).To(Equal(sim.StatusFailed))
		Expect(res.Iterations).To(BeZero())
	})

	It("stops once every agent has covered MaxTime", func() {
		cfg := sim.DefaultConfig()
		cfg.MaxTime = 0.045 // five default steps of 0.01

		s, err := sim.New(twoBody(), cfg)
		Expect(err).NotTo(HaveOccurred())

		res, err := s.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Status).To(Equal(sim.StatusCompleted))
		Expect(res.Iterations).To(Equal(5))
	})

	It("measures MaxTime against the slowest agent", func() {
		ic := orbit.InitialConditions{
			"fast": {X: f(0), Y: f(0), VX: f(0), VY: f(0.3), TimeStep: f(0.02)},
			"slow": {X: f(1), Y: f(0), VX: f(0), VY: f(-0.3), TimeStep: f(0.01)},
		}
		cfg := sim.DefaultConfig()
		cfg.MaxTime = 0.05

		s, err := sim.New(ic, cfg)
		Expect(err).NotTo(HaveOccurred())
		_, err = s.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())

		// The slow agent sets the pace: 0.01 steps need at least 5
		// iterations to span 0.05 even though the fast agent covers it
		// in 3.
		_, end, ok := s.Store().Span("slow")
		Expect(ok).To(BeTrue())
		Expect(end).To(BeNumerically(">=", 0.05-1e-12))
	})
})

package control

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/apid/internal/dynamo"
	"github.com/san-kum/apid/internal/rbf"
)

// recorder is an Approximator that returns a fixed correction and records
// every call.
type recorder struct {
	dim        int
	correction float64
	predicted  [][]float64
	trained    [][]float64
	targets    []float64
}

func (r *recorder) Predict(x []float64) float64 {
	r.predicted = append(r.predicted, append([]float64(nil), x...))
	return r.correction
}

func (r *recorder) Train(x []float64, target float64) {
	r.trained = append(r.trained, append([]float64(nil), x...))
	r.targets = append(r.targets, target)
}

func (r *recorder) InputDim() int { return r.dim }

var _ = Describe("AdaptivePID", func() {
	var (
		net  *rbf.Network
		ctrl *AdaptivePID
	)

	BeforeEach(func() {
		var err error
		net, err = rbf.New(3, 5, rand.New(rand.NewSource(20)))
		Expect(err).NotTo(HaveOccurred())
		ctrl, err = NewAdaptivePID(4.0, 0.1, 0.01, net)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("construction", func() {
		It("starts with zeroed PID state", func() {
			Expect(ctrl.LastError()).To(BeZero())
			Expect(ctrl.Integral()).To(BeZero())
			Expect(ctrl.Derivative()).To(BeZero())
			Expect(ctrl.PrevError()).To(BeZero())
			kp, ki, kd := ctrl.Gains()
			Expect([]float64{kp, ki, kd}).To(Equal([]float64{4.0, 0.1, 0.01}))
			Expect(ctrl.Approximator()).To(BeIdenticalTo(net))
		})

		It("rejects a nil approximator", func() {
			_, err := NewAdaptivePID(1, 0, 0, nil)
			Expect(err).To(MatchError(ErrNilApproximator))
		})

		It("rejects an approximator of the wrong dimension", func() {
			_, err := NewAdaptivePID(1, 0, 0, &recorder{dim: 2})
			Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
		})
	})

	Describe("Update", func() {
		It("reproduces the reference two-tick scenario", func() {
			u1, err := ctrl.Update(10.0, 8.0, 0.1)
			Expect(err).NotTo(HaveOccurred())
			Expect(math.IsNaN(u1) || math.IsInf(u1, 0)).To(BeFalse())
			Expect(u1).To(BeNumerically(">", 0))

			Expect(ctrl.LastError()).To(Equal(2.0))
			Expect(ctrl.Integral()).To(BeNumerically("~", 0.2, 1e-12))
			Expect(ctrl.Derivative()).To(BeNumerically("~", 20.0, 1e-9))
			Expect(ctrl.LastPIDTerm()).To(BeNumerically("~", 4.0*2+0.1*0.2+0.01*20, 1e-9))
			Expect(u1).To(BeNumerically("~", ctrl.LastPIDTerm()+ctrl.LastCorrection(), 1e-12))

			u2, err := ctrl.Update(10.0, 9.0, 0.1)
			Expect(err).NotTo(HaveOccurred())
			Expect(u2).NotTo(Equal(u1))
		})

		It("sets error to target minus measured", func() {
			for _, tc := range [][2]float64{{10, 8}, {1, 0}, {-3, 2.5}, {0.3, 0.1}} {
				c, err := NewAdaptivePID(4.0, 0.1, 0.01, &recorder{dim: 3})
				Expect(err).NotTo(HaveOccurred())
				_, err = c.Update(tc[0], tc[1], 0.05)
				Expect(err).NotTo(HaveOccurred())
				Expect(c.LastError()).To(Equal(tc[0] - tc[1]))
			}
		})

		It("accumulates the integral for a constant error", func() {
			for i := 0; i < 2; i++ {
				_, err := ctrl.Update(10.0, 8.0, 0.1)
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(ctrl.Integral()).To(BeNumerically("~", 2*2.0*0.1, 1e-12))
		})

		It("lowers the derivative as the measurement approaches the target", func() {
			_, err := ctrl.Update(10.0, 8.0, 0.1)
			Expect(err).NotTo(HaveOccurred())
			d1 := ctrl.Derivative()

			_, err = ctrl.Update(10.0, 9.0, 0.1)
			Expect(err).NotTo(HaveOccurred())
			Expect(ctrl.Derivative()).To(BeNumerically("<", d1))
			Expect(ctrl.Derivative()).To(BeNumerically("~", (1.0-2.0)/0.1, 1e-9))
		})

		It("trains the approximator every tick", func() {
			before := net.Weights()
			_, err := ctrl.Update(1.0, 0.9, 0.1)
			Expect(err).NotTo(HaveOccurred())
			Expect(net.Weights()).NotTo(Equal(before))
		})

		It("queries and trains with the state vector and the raw setpoint", func() {
			rec := &recorder{dim: 3, correction: 0.5}
			c, err := NewAdaptivePID(4.0, 0.1, 0.01, rec)
			Expect(err).NotTo(HaveOccurred())

			u, err := c.Update(10.0, 8.0, 0.1)
			Expect(err).NotTo(HaveOccurred())
			Expect(u).To(BeNumerically("~", 8.22+0.5, 1e-9))

			Expect(rec.predicted).To(HaveLen(1))
			Expect(rec.trained).To(HaveLen(1))
			Expect(rec.predicted[0]).To(Equal(rec.trained[0]))
			Expect(rec.predicted[0][0]).To(Equal(2.0))
			Expect(rec.predicted[0][1]).To(BeNumerically("~", 0.2, 1e-12))
			Expect(rec.predicted[0][2]).To(BeNumerically("~", 20.0, 1e-9))
			Expect(rec.targets).To(Equal([]float64{10.0}))
			Expect(c.LastCorrection()).To(Equal(0.5))
		})

		It("gives the same output through a synchronized approximator", func() {
			other, err := rbf.New(3, 5, rand.New(rand.NewSource(20)))
			Expect(err).NotTo(HaveOccurred())
			shared, err := NewAdaptivePID(4.0, 0.1, 0.01, rbf.NewSynchronized(other))
			Expect(err).NotTo(HaveOccurred())

			for _, m := range []float64{0, 0.3, 0.6, 0.8} {
				a, err := ctrl.Update(1.0, m, 0.1)
				Expect(err).NotTo(HaveOccurred())
				b, err := shared.Update(1.0, m, 0.1)
				Expect(err).NotTo(HaveOccurred())
				Expect(b).To(Equal(a))
			}
		})

		DescribeTable("rejects a bad timestep without touching state",
			func(dt float64) {
				_, err := ctrl.Update(10.0, 8.0, 0.1)
				Expect(err).NotTo(HaveOccurred())
				weights := net.Weights()
				integral, prev := ctrl.Integral(), ctrl.PrevError()

				_, err = ctrl.Update(10.0, 9.0, dt)
				Expect(err).To(MatchError(dynamo.ErrInvalidTimestep))

				Expect(ctrl.Integral()).To(Equal(integral))
				Expect(ctrl.PrevError()).To(Equal(prev))
				Expect(net.Weights()).To(Equal(weights))
			},
			Entry("zero", 0.0),
			Entry("negative", -0.1),
			Entry("NaN", math.NaN()),
			Entry("infinite", math.Inf(1)),
		)
	})

	It("resets PID state but keeps learned weights", func() {
		_, err := ctrl.Update(10.0, 8.0, 0.1)
		Expect(err).NotTo(HaveOccurred())
		weights := net.Weights()

		ctrl.Reset()

		Expect(ctrl.Integral()).To(BeZero())
		Expect(ctrl.PrevError()).To(BeZero())
		Expect(ctrl.LastCorrection()).To(BeZero())
		Expect(net.Weights()).To(Equal(weights))
	})

	It("exposes gains read-only", func() {
		Expect(ctrl.GetParams()).To(HaveKeyWithValue("Kp", 4.0))
		Expect(ctrl.SetParam("Kp", 1)).To(MatchError(dynamo.ErrImmutableParam))
		Expect(ctrl.SetParam("Target", 1)).To(MatchError(dynamo.ErrUnknownParam))
	})
})

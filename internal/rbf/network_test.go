package rbf

import (
	"math"
	"math/rand"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Kernel", func() {
	It("is exactly 1 at zero distance", func() {
		for _, x := range [][]float64{{0, 0, 0}, {6.0, 0.5, 0.2}, {-3, 1e3, 7}} {
			Expect(Kernel(x, x, 1.0)).To(Equal(1.0))
		}
	})

	It("stays in (0, 1] away from the center", func() {
		rng := rand.New(rand.NewSource(1))
		for i := 0; i < 200; i++ {
			x := []float64{rng.NormFloat64() * 3, rng.NormFloat64() * 3, rng.NormFloat64() * 3}
			c := []float64{rng.Float64(), rng.Float64(), rng.Float64()}
			k := Kernel(x, c, 1.0)
			Expect(k).To(BeNumerically(">", 0))
			Expect(k).To(BeNumerically("<=", 1))
		}
	})

	It("matches the closed form", func() {
		x := []float64{6.0, 0.5, 0.2}
		c := []float64{0.1, 0.2, 0.3}
		d2 := 5.9*5.9 + 0.3*0.3 + 0.1*0.1
		Expect(Kernel(x, c, 1.0)).To(BeNumerically("~", math.Exp(-d2/2), 1e-12))
		Expect(Kernel(x, c, 2.0)).To(BeNumerically("~", math.Exp(-d2/8), 1e-12))
	})
})

var _ = Describe("Network", func() {
	var (
		net *Network
		x   []float64
	)

	BeforeEach(func() {
		var err error
		net, err = New(3, 5, rand.New(rand.NewSource(20)))
		Expect(err).NotTo(HaveOccurred())
		x = []float64{6.0, 0.5, 0.2}
	})

	Describe("New", func() {
		It("uses the default bandwidth and learning rate", func() {
			Expect(net.Sigma()).To(Equal(DefaultSigma))
			Expect(net.LearningRate()).To(Equal(DefaultLearningRate))
			Expect(net.InputDim()).To(Equal(3))
			Expect(net.NumCenters()).To(Equal(5))
		})

		It("samples centers and weights in [0, 1)", func() {
			for _, c := range net.Centers() {
				Expect(c).To(HaveLen(3))
				for _, v := range c {
					Expect(v).To(BeNumerically(">=", 0))
					Expect(v).To(BeNumerically("<", 1))
				}
			}
			for _, w := range net.Weights() {
				Expect(w).To(BeNumerically(">=", 0))
				Expect(w).To(BeNumerically("<", 1))
			}
		})

		It("is reproducible for the same seed", func() {
			other, err := New(3, 5, rand.New(rand.NewSource(20)))
			Expect(err).NotTo(HaveOccurred())
			Expect(other.Centers()).To(Equal(net.Centers()))
			Expect(other.Weights()).To(Equal(net.Weights()))
		})

		DescribeTable("rejects invalid construction",
			func(inputDim, nCenters int, opts []Option, want error) {
				_, err := New(inputDim, nCenters, rand.New(rand.NewSource(1)), opts...)
				Expect(err).To(MatchError(want))
			},
			Entry("zero input dim", 0, 5, nil, ErrInvalidDimension),
			Entry("negative centers", 3, -1, nil, ErrInvalidDimension),
			Entry("zero centers", 3, 0, nil, ErrInvalidDimension),
			Entry("zero sigma", 3, 5, []Option{WithSigma(0)}, ErrInvalidBandwidth),
			Entry("NaN sigma", 3, 5, []Option{WithSigma(math.NaN())}, ErrInvalidBandwidth),
			Entry("negative learning rate", 3, 5, []Option{WithLearningRate(-0.1)}, ErrInvalidLearningRate),
		)

		It("requires a random source unless nothing is sampled", func() {
			_, err := New(3, 5, nil)
			Expect(err).To(MatchError(ErrNilSource))

			det, err := New(3, 4, nil, WithGridCenters(), WithZeroWeights())
			Expect(err).NotTo(HaveOccurred())
			Expect(det.Centers()[2]).To(Equal([]float64{2, 2, 2}))
			Expect(det.Weights()).To(Equal([]float64{0, 0, 0, 0}))
		})
	})

	It("does not expose internal storage", func() {
		c := net.Centers()
		c[0][0] = 42
		w := net.Weights()
		w[0] = 42
		Expect(net.Centers()[0][0]).NotTo(Equal(42.0))
		Expect(net.Weight(0)).NotTo(Equal(42.0))
	})

	It("predicts the activation-weighted sum", func() {
		act := net.Activations(x)
		w := net.Weights()
		sum := 0.0
		for i := range act {
			sum += act[i] * w[i]
		}
		Expect(net.Predict(x)).To(BeNumerically("~", sum, 1e-12))
	})

	It("does not mutate weights on Predict", func() {
		before := net.Weights()
		net.Predict(x)
		Expect(net.Weights()).To(Equal(before))
	})

	It("changes weights and prediction after Train", func() {
		before := net.Weights()
		outBefore := net.Predict(x)

		net.Train(x, 1.0)

		Expect(net.Weights()).NotTo(Equal(before))
		Expect(net.Predict(x)).NotTo(Equal(outBefore))
	})

	It("applies the delta rule exactly", func() {
		act := net.Activations(x)
		before := net.Weights()
		yhat := net.Predict(x)

		net.Train(x, 1.0)

		after := net.Weights()
		for i := range after {
			want := before[i] + DefaultLearningRate*(1.0-yhat)*act[i]
			Expect(after[i]).To(BeNumerically("~", want, 1e-15))
		}
	})

	It("moves toward the target over repeated exposure", func() {
		p := []float64{0.4, 0.5, 0.6}
		target := 3.0
		first := math.Abs(target - net.Predict(p))
		for i := 0; i < 500; i++ {
			net.Train(p, target)
		}
		Expect(math.Abs(target - net.Predict(p))).To(BeNumerically("<", first))
	})

	It("returns the pre-update prediction from PredictAndTrain", func() {
		want := net.Predict(x)
		Expect(net.PredictAndTrain(x, 5.0)).To(Equal(want))
		Expect(net.Predict(x)).NotTo(Equal(want))
	})

	It("adapts with a caller-supplied error", func() {
		act := net.Activations(x)
		before := net.Weights()
		net.Adapt(2.0, 0.5, x)
		for i, w := range net.Weights() {
			Expect(w).To(BeNumerically("~", before[i]+act[i], 1e-15))
		}
	})

	It("panics on a mis-sized input", func() {
		Expect(func() { net.Predict([]float64{1, 2}) }).To(PanicWith(MatchError(ErrDimensionMismatch)))
	})

	It("reads and writes single weights", func() {
		net.SetWeight(3, -1.5)
		Expect(net.Weight(3)).To(Equal(-1.5))
	})
})

var _ = Describe("Synchronized", func() {
	It("matches the wrapped network and survives concurrent training", func() {
		a, err := New(3, 5, rand.New(rand.NewSource(7)))
		Expect(err).NotTo(HaveOccurred())
		b, err := New(3, 5, rand.New(rand.NewSource(7)))
		Expect(err).NotTo(HaveOccurred())

		shared := NewSynchronized(a)
		Expect(shared.InputDim()).To(Equal(3))

		x := []float64{0.1, 0.2, 0.3}
		var wg sync.WaitGroup
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 50; i++ {
					shared.PredictAndTrain(x, 1.0)
				}
			}()
		}
		wg.Wait()

		for i := 0; i < 400; i++ {
			b.Train(x, 1.0)
		}
		Expect(shared.Predict(x)).To(BeNumerically("~", b.Predict(x), 1e-9))
	})
})

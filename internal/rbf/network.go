package rbf

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	DefaultSigma        = 1.0
	DefaultLearningRate = 0.01
)

var (
	ErrInvalidDimension    = errors.New("rbf: input dimension and center count must be positive")
	ErrInvalidBandwidth    = errors.New("rbf: sigma must be positive and finite")
	ErrInvalidLearningRate = errors.New("rbf: learning rate must be positive and finite")
	ErrNilSource           = errors.New("rbf: nil random source")
	ErrDimensionMismatch   = errors.New("rbf: input length does not match network dimension")
)

// Approximator is the predict/train contract a controller depends on.
type Approximator interface {
	Predict(x []float64) float64
	Train(x []float64, target float64)
	InputDim() int
}

// PredictTrainer is implemented by approximators that can return the
// pre-update prediction and apply one training step as a single operation.
type PredictTrainer interface {
	PredictAndTrain(x []float64, target float64) float64
}

type options struct {
	sigma        float64
	learningRate float64
	gridCenters  bool
	zeroWeights  bool
}

type Option func(*options)

// WithSigma sets the shared kernel bandwidth.
func WithSigma(sigma float64) Option {
	return func(o *options) { o.sigma = sigma }
}

// WithLearningRate sets the delta-rule step size used by Train.
func WithLearningRate(eta float64) Option {
	return func(o *options) { o.learningRate = eta }
}

// WithGridCenters places center i at (i, i, ..., i) instead of sampling.
func WithGridCenters() Option {
	return func(o *options) { o.gridCenters = true }
}

// WithZeroWeights starts the readout at zero instead of sampling.
func WithZeroWeights() Option {
	return func(o *options) { o.zeroWeights = true }
}

// Network is a fixed-center Gaussian RBF network with a trainable linear
// readout.
type Network struct {
	centers *mat.Dense    // nCenters x inputDim, immutable
	weights *mat.VecDense // nCenters
	sigma   float64
	eta     float64
}

// New builds a network of nCenters Gaussian kernels over inputDim-dimensional
// inputs. Centers and weights are drawn uniformly from [0, 1) using rng,
// centers first. rng may be nil only when both WithGridCenters and
// WithZeroWeights are given.
func New(inputDim, nCenters int, rng *rand.Rand, opts ...Option) (*Network, error) {
	o := options{sigma: DefaultSigma, learningRate: DefaultLearningRate}
	for _, opt := range opts {
		opt(&o)
	}

	if inputDim <= 0 || nCenters <= 0 {
		return nil, fmt.Errorf("%w: input_dim=%d n_centers=%d", ErrInvalidDimension, inputDim, nCenters)
	}
	if !(o.sigma > 0) || math.IsInf(o.sigma, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBandwidth, o.sigma)
	}
	if !(o.learningRate > 0) || math.IsInf(o.learningRate, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLearningRate, o.learningRate)
	}
	if rng == nil && (!o.gridCenters || !o.zeroWeights) {
		return nil, ErrNilSource
	}

	centers := mat.NewDense(nCenters, inputDim, nil)
	for i := 0; i < nCenters; i++ {
		for j := 0; j < inputDim; j++ {
			if o.gridCenters {
				centers.Set(i, j, float64(i))
			} else {
				centers.Set(i, j, rng.Float64())
			}
		}
	}

	weights := mat.NewVecDense(nCenters, nil)
	if !o.zeroWeights {
		for i := 0; i < nCenters; i++ {
			weights.SetVec(i, rng.Float64())
		}
	}

	return &Network{
		centers: centers,
		weights: weights,
		sigma:   o.sigma,
		eta:     o.learningRate,
	}, nil
}

// Kernel returns exp(-‖x-center‖² / (2σ²)).
func Kernel(x, center []float64, sigma float64) float64 {
	d := floats.Distance(x, center, 2)
	return math.Exp(-d * d / (2 * sigma * sigma))
}

// Kernel evaluates the network's Gaussian at x for an arbitrary center.
func (n *Network) Kernel(x, center []float64) float64 {
	return Kernel(x, center, n.sigma)
}

// Activations returns the kernel response of every center to x.
func (n *Network) Activations(x []float64) []float64 {
	n.checkInput(x)
	rows, _ := n.centers.Dims()
	act := make([]float64, rows)
	for i := range act {
		act[i] = Kernel(x, n.centers.RawRowView(i), n.sigma)
	}
	return act
}

func (n *Network) Predict(x []float64) float64 {
	return mat.Dot(mat.NewVecDense(n.NumCenters(), n.Activations(x)), n.weights)
}

// Train applies one least-mean-squares step toward target:
// w += η·(target − ŷ)·φ(x).
func (n *Network) Train(x []float64, target float64) {
	n.PredictAndTrain(x, target)
}

// PredictAndTrain returns the prediction for x before the update and then
// trains on (x, target). The activations are computed once.
func (n *Network) PredictAndTrain(x []float64, target float64) float64 {
	act := mat.NewVecDense(n.NumCenters(), n.Activations(x))
	yhat := mat.Dot(act, n.weights)
	n.weights.AddScaledVec(n.weights, n.eta*(target-yhat), act)
	return yhat
}

// Adapt moves the weights by rate·err along the activations of x, for
// callers that compute their own error signal.
func (n *Network) Adapt(err, rate float64, x []float64) {
	act := mat.NewVecDense(n.NumCenters(), n.Activations(x))
	n.weights.AddScaledVec(n.weights, rate*err, act)
}

func (n *Network) InputDim() int {
	_, c := n.centers.Dims()
	return c
}

func (n *Network) NumCenters() int {
	r, _ := n.centers.Dims()
	return r
}

func (n *Network) Sigma() float64        { return n.sigma }
func (n *Network) LearningRate() float64 { return n.eta }

// Weights returns a copy of the readout weights.
func (n *Network) Weights() []float64 {
	out := make([]float64, n.weights.Len())
	copy(out, n.weights.RawVector().Data)
	return out
}

// Centers returns a copy of the centers, one row per center.
func (n *Network) Centers() [][]float64 {
	rows, _ := n.centers.Dims()
	out := make([][]float64, rows)
	for i := range out {
		out[i] = append([]float64(nil), n.centers.RawRowView(i)...)
	}
	return out
}

func (n *Network) Weight(i int) float64 {
	return n.weights.AtVec(i)
}

func (n *Network) SetWeight(i int, v float64) {
	n.weights.SetVec(i, v)
}

func (n *Network) checkInput(x []float64) {
	if len(x) != n.InputDim() {
		panic(fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(x), n.InputDim()))
	}
}

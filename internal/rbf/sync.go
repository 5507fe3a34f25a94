package rbf

import "sync"

// Synchronized serializes access to an Approximator shared between
// controllers.
type Synchronized struct {
	mu    sync.Mutex
	inner Approximator
}

func NewSynchronized(a Approximator) *Synchronized {
	return &Synchronized{inner: a}
}

func (s *Synchronized) Predict(x []float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Predict(x)
}

func (s *Synchronized) Train(x []float64, target float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inner.Train(x, target)
}

// PredictAndTrain holds the lock across both halves so no other caller's
// update lands between the prediction and the training step.
func (s *Synchronized) PredictAndTrain(x []float64, target float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pt, ok := s.inner.(PredictTrainer); ok {
		return pt.PredictAndTrain(x, target)
	}
	y := s.inner.Predict(x)
	s.inner.Train(x, target)
	return y
}

func (s *Synchronized) InputDim() int {
	return s.inner.InputDim()
}

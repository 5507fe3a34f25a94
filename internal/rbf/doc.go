// Package rbf implements a Gaussian radial-basis-function network with a
// linear readout trained online by a single-sample delta rule.
//
// Centers and bandwidth are fixed at construction; only the readout
// weights adapt. One Predict or Train costs O(N·D) for N centers of
// dimension D, which keeps the network cheap enough to run on every
// control tick.
//
//	net, err := rbf.New(3, 5, rand.New(rand.NewSource(20)))
//	y := net.Predict([]float64{e, i, d})
//	net.Train([]float64{e, i, d}, target)
//
// A [Network] is not safe for concurrent use. Wrap it in [Synchronized]
// when several controllers share one network.
package rbf

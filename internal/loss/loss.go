// Package loss provides the cost functions used by the trainers.
package loss

import "gonum.org/v1/gonum/floats"

// Loss scores a network output against the expected output.
type Loss interface {
	Forward(yPred, yTrue []float64) float64
}

// MSE is mean squared error.
type MSE struct{}

// Forward computes mean squared error: (1/n) * sum((y_pred - y_true)^2)
func (m MSE) Forward(yPred, yTrue []float64) float64 {
	n := len(yPred)
	if n != len(yTrue) {
		panic("MSE: prediction and target must have same length")
	}
	if n == 0 {
		return 0
	}
	return SSE{}.Forward(yPred, yTrue) / float64(n)
}

// SSE is the sum of squared errors.
type SSE struct{}

// Forward computes sum((y_pred - y_true)^2)
func (SSE) Forward(yPred, yTrue []float64) float64 {
	if len(yPred) != len(yTrue) {
		panic("SSE: prediction and target must have same length")
	}
	d := floats.Distance(yPred, yTrue, 2)
	return d * d
}

// Residual returns the Euclidean norm of y_true - y_pred.
func Residual(yPred, yTrue []float64) float64 {
	if len(yPred) != len(yTrue) {
		panic("Residual: prediction and target must have same length")
	}
	return floats.Distance(yPred, yTrue, 2)
}

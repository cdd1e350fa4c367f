package dqn

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	deep "github.com/patrikeh/go-deep"
	"github.com/patrikeh/go-deep/training"
)

// ValueNetwork approximates Q(s, ·). Implementations must be swappable
// between the online and the target role.
type ValueNetwork interface {
	// Forward returns one value per action
	Forward(state []float64) []float64
	// Train takes one gradient step on (Q(state)[action] - target)^2 and returns the loss
	Train(state []float64, action int, target float64) float64
	// CopyFrom overwrites the parameters with those of other
	CopyFrom(other ValueNetwork) error
	json.Marshaler
	json.Unmarshaler
}

var errShape = errors.New("network shape mismatch")

// adamSolver keeps the moment estimates across training calls. The
// trainer initialises its solver on every call, only the first one counts.
type adamSolver struct {
	*training.Adam
	ready bool
}

func (a *adamSolver) Init(size int) {
	if a.ready {
		return
	}
	a.Adam.Init(size)
	a.ready = true
}

// MLP is a single hidden layer ReLU network with a linear output,
// trained one example at a time with Adam
type MLP struct {
	input  int
	hidden int
	output int

	net    *deep.Neural
	solver *adamSolver
}

var _ ValueNetwork = &MLP{}

// NewMLP initialises weights uniformly in ±1/sqrt(input)
func NewMLP(input, hidden, output int, learningRate float64) *MLP {
	return &MLP{
		input:  input,
		hidden: hidden,
		output: output,
		net: deep.NewNeural(&deep.Config{
			Inputs:     input,
			Layout:     []int{hidden, output},
			Activation: deep.ActivationReLU,
			Mode:       deep.ModeRegression,
			Weight:     deep.NewUniform(1/math.Sqrt(float64(input)), 0),
			Bias:       true,
		}),
		solver: &adamSolver{Adam: training.NewAdam(learningRate, 0.9, 0.999, 1e-8)},
	}
}

func (m *MLP) Forward(state []float64) []float64 {
	return m.net.Predict(state)
}

// Train regresses the full output vector towards the current prediction
// with only the action entry replaced by target, so the other outputs
// carry no gradient
func (m *MLP) Train(state []float64, action int, target float64) float64 {
	response := append([]float64(nil), m.net.Predict(state)...)
	diff := response[action] - target
	response[action] = target

	trainer := training.NewTrainer(m.solver, 0)
	trainer.Train(m.net, training.Examples{{Input: state, Response: response}}, nil, 1)
	return diff * diff
}

func (m *MLP) CopyFrom(other ValueNetwork) error {
	o, ok := other.(*MLP)
	if !ok {
		return fmt.Errorf("%w: cannot copy from %T", errShape, other)
	}
	if o.input != m.input || o.hidden != m.hidden || o.output != m.output {
		return fmt.Errorf("%w: %dx%dx%d vs %dx%dx%d", errShape, m.input, m.hidden, m.output, o.input, o.hidden, o.output)
	}
	m.net.ApplyWeights(o.net.Weights())
	return nil
}

func (m *MLP) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.net.Dump())
}

// UnmarshalJSON loads weights into a network of the same shape
func (m *MLP) UnmarshalJSON(data []byte) error {
	loaded, err := deep.Unmarshal(data)
	if err != nil {
		return err
	}
	w := loaded.Weights()
	if !m.sameShape(w) {
		return fmt.Errorf("%w: stored network does not match %dx%dx%d", errShape, m.input, m.hidden, m.output)
	}
	m.net.ApplyWeights(w)
	return nil
}

// sameShape checks layer, neuron and input counts, bias synapse included
func (m *MLP) sameShape(w [][][]float64) bool {
	if len(w) != 2 || len(w[0]) != m.hidden || len(w[1]) != m.output {
		return false
	}
	for _, n := range w[0] {
		if len(n) != m.input+1 {
			return false
		}
	}
	for _, n := range w[1] {
		if len(n) != m.hidden+1 {
			return false
		}
	}
	return true
}

// argmax returns the first index of the largest value
func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}

func maxValue(values []float64) float64 {
	return values[argmax(values)]
}

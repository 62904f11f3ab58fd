package model

import (
	"context"
	"encoding/gob"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"

	"github.com/sirupsen/logrus"
	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Network is a loaded descriptor plus its weights.
// Params holds, per layer, a (inputs x units) weight matrix followed by a
// (units) bias vector.
type Network struct {
	Desc   Descriptor
	Params []*tensor.Dense
}

// NewNetwork checks that params match desc.
func NewNetwork(desc Descriptor, params []*tensor.Dense) (*Network, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if len(params) != 2*len(desc.Layers) {
		return nil, fmt.Errorf("model %q: expected %d weight tensors, got %d", desc.Name, 2*len(desc.Layers), len(params))
	}
	in := desc.Inputs
	for i, l := range desc.Layers {
		w, b := params[2*i], params[2*i+1]
		if !w.Shape().Eq(tensor.Shape{in, l.Units}) {
			return nil, fmt.Errorf("model %q: layer %d weights have shape %v, want (%d, %d)", desc.Name, i, w.Shape(), in, l.Units)
		}
		if !b.Shape().Eq(tensor.Shape{l.Units}) {
			return nil, fmt.Errorf("model %q: layer %d bias has shape %v, want (%d)", desc.Name, i, b.Shape(), l.Units)
		}
		in = l.Units
	}
	return &Network{Desc: desc, Params: params}, nil
}

// NewPlaceholder builds an untrained network with Glorot-uniform weights
// and zero biases drawn from rng.
func NewPlaceholder(desc Descriptor, rng *rand.Rand) (*Network, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	params := make([]*tensor.Dense, 0, 2*len(desc.Layers))
	in := desc.Inputs
	for _, l := range desc.Layers {
		limit := math.Sqrt(6 / float64(in+l.Units))
		backing := make([]float64, in*l.Units)
		for i := range backing {
			backing[i] = (rng.Float64()*2 - 1) * limit
		}
		params = append(params,
			tensor.New(tensor.WithShape(in, l.Units), tensor.WithBacking(backing)),
			tensor.New(tensor.WithShape(l.Units), tensor.WithBacking(make([]float64, l.Units))),
		)
		in = l.Units
	}
	return NewNetwork(desc, params)
}

// Load reads a descriptor and its weights file.
func Load(descPath, weightsPath string) (*Network, error) {
	desc, err := LoadDescriptor(descPath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(weightsPath)
	if err != nil {
		return nil, fmt.Errorf("opening weights: %w", err)
	}
	defer f.Close()
	net, err := ReadWeights(f, desc)
	if err != nil {
		return nil, err
	}
	logrus.Infof("Loaded model %q: %d inputs, %d outputs, %d layers", desc.Name, desc.Inputs, desc.Outputs(), len(desc.Layers))
	return net, nil
}

// ReadWeights decodes the gob weight stream for desc.
func ReadWeights(r io.Reader, desc Descriptor) (*Network, error) {
	dec := gob.NewDecoder(r)
	params := make([]*tensor.Dense, 2*len(desc.Layers))
	for i := range params {
		var t *tensor.Dense
		if err := dec.Decode(&t); err != nil {
			return nil, fmt.Errorf("decoding weight tensor %d: %w", i, err)
		}
		params[i] = t
	}
	return NewNetwork(desc, params)
}

// WriteWeights gob-encodes the parameters in layer order.
func (n *Network) WriteWeights(w io.Writer) error {
	enc := gob.NewEncoder(w)
	for i, t := range n.Params {
		if err := enc.Encode(t); err != nil {
			return fmt.Errorf("encoding weight tensor %d: %w", i, err)
		}
	}
	return nil
}

// Save writes the descriptor and the weights.
func (n *Network) Save(descPath, weightsPath string) error {
	if err := SaveDescriptor(descPath, n.Desc); err != nil {
		return err
	}
	f, err := os.Create(weightsPath)
	if err != nil {
		return fmt.Errorf("creating weights: %w", err)
	}
	if err := n.WriteWeights(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Forward runs one inference. A fresh graph and tape machine are built per
// call and released before returning; the result is copied out of the
// tensor backing.
func (n *Network) Forward(ctx context.Context, features []float64) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(features) != n.Desc.Inputs {
		return nil, fmt.Errorf("model %q expects %d inputs, got %d", n.Desc.Name, n.Desc.Inputs, len(features))
	}

	g := gorgonia.NewGraph()
	input := append([]float64(nil), features...)
	h := gorgonia.NewVector(g, tensor.Float64, gorgonia.WithShape(len(input)), gorgonia.WithName("x"),
		gorgonia.WithValue(tensor.New(tensor.WithBacking(input))))

	in := n.Desc.Inputs
	for i, l := range n.Desc.Layers {
		w := gorgonia.NewMatrix(g, tensor.Float64, gorgonia.WithShape(in, l.Units),
			gorgonia.WithName(fmt.Sprintf("w%d", i)), gorgonia.WithValue(n.Params[2*i]))
		b := gorgonia.NewVector(g, tensor.Float64, gorgonia.WithShape(l.Units),
			gorgonia.WithName(fmt.Sprintf("b%d", i)), gorgonia.WithValue(n.Params[2*i+1]))

		z, err := gorgonia.Mul(h, w)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		if z, err = gorgonia.Add(z, b); err != nil {
			return nil, fmt.Errorf("layer %d bias: %w", i, err)
		}
		if h, err = activate(z, l.Activation); err != nil {
			return nil, fmt.Errorf("layer %d activation: %w", i, err)
		}
		in = l.Units
	}

	vm := gorgonia.NewTapeMachine(g)
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		return nil, fmt.Errorf("running model %q: %w", n.Desc.Name, err)
	}

	data, ok := h.Value().Data().([]float64)
	if !ok {
		return nil, fmt.Errorf("model %q produced %T, want []float64", n.Desc.Name, h.Value().Data())
	}
	out := make([]float64, len(data))
	copy(out, data)
	return out, nil
}

func activate(z *gorgonia.Node, name string) (*gorgonia.Node, error) {
	switch name {
	case ActivationReLU:
		return gorgonia.Rectify(z)
	case ActivationSigmoid:
		return gorgonia.Sigmoid(z)
	case ActivationTanh:
		return gorgonia.Tanh(z)
	default:
		return z, nil
	}
}

// Package model provides the neural-network Predictor: a small multilayer
// perceptron described by a YAML descriptor and a gob-encoded weights file,
// evaluated with gorgonia.
package model

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/inference-sim/drawsim/sim/draws"
)

// Activation names accepted in a descriptor.
const (
	ActivationReLU    = "relu"
	ActivationSigmoid = "sigmoid"
	ActivationTanh    = "tanh"
	ActivationLinear  = "linear"
)

var validActivations = map[string]bool{
	ActivationReLU:    true,
	ActivationSigmoid: true,
	ActivationTanh:    true,
	ActivationLinear:  true,
	"":                true, // empty means linear
}

// Layer is one dense layer.
type Layer struct {
	Units      int    `yaml:"units"`
	Activation string `yaml:"activation"`
}

// Descriptor is the network architecture, stored next to its weights.
type Descriptor struct {
	Name   string  `yaml:"name"`
	Inputs int     `yaml:"inputs"`
	Layers []Layer `yaml:"layers"`
}

// DefaultDescriptor returns the architecture used by `model init`: one hidden
// ReLU layer and a sigmoid output layer, so outputs stay in [0, 1].
func DefaultDescriptor(boardSize int) Descriptor {
	return Descriptor{
		Name:   "draw-mlp",
		Inputs: boardSize + draws.DerivedFeatureCount,
		Layers: []Layer{
			{Units: 64, Activation: ActivationReLU},
			{Units: boardSize, Activation: ActivationSigmoid},
		},
	}
}

// Validate checks the descriptor is a buildable network.
func (d Descriptor) Validate() error {
	if d.Inputs <= 0 {
		return fmt.Errorf("model %q: inputs must be > 0, got %d", d.Name, d.Inputs)
	}
	if len(d.Layers) == 0 {
		return fmt.Errorf("model %q: at least one layer required", d.Name)
	}
	for i, l := range d.Layers {
		if l.Units <= 0 {
			return fmt.Errorf("model %q: layer %d units must be > 0, got %d", d.Name, i, l.Units)
		}
		if !validActivations[l.Activation] {
			return fmt.Errorf("model %q: layer %d has unknown activation %q", d.Name, i, l.Activation)
		}
	}
	return nil
}

// Outputs returns the width of the final layer.
func (d Descriptor) Outputs() int {
	if len(d.Layers) == 0 {
		return 0
	}
	return d.Layers[len(d.Layers)-1].Units
}

// LoadDescriptor reads a YAML descriptor. Unknown keys are rejected.
func LoadDescriptor(path string) (Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Descriptor{}, fmt.Errorf("reading model descriptor: %w", err)
	}
	var d Descriptor
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&d); err != nil {
		return Descriptor{}, fmt.Errorf("parsing model descriptor: %w", err)
	}
	if err := d.Validate(); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}

// SaveDescriptor writes d as YAML.
func SaveDescriptor(path string, d Descriptor) error {
	data, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal model descriptor: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write model descriptor: %w", err)
	}
	return nil
}

package model

import (
	"context"
	"sync"

	"github.com/inference-sim/drawsim/sim"
)

// Adapter is the sim.Predictor backed by a swappable Network.
type Adapter struct {
	mu  sync.RWMutex
	net *Network
}

// NewAdapter returns an adapter holding net, which may be nil.
func NewAdapter(net *Network) *Adapter {
	return &Adapter{net: net}
}

// Set replaces the network. nil unloads it.
func (a *Adapter) Set(net *Network) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.net = net
}

// Ready reports whether a network is loaded.
func (a *Adapter) Ready() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.net != nil
}

// Descriptor returns the loaded architecture, if any.
func (a *Adapter) Descriptor() (Descriptor, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.net == nil {
		return Descriptor{}, false
	}
	return a.net.Desc, true
}

// BoardWidth returns the number of values the loaded network predicts.
func (a *Adapter) BoardWidth() (int, bool) {
	desc, ok := a.Descriptor()
	if !ok {
		return 0, false
	}
	return desc.Outputs(), true
}

// Predict runs one inference on the loaded network.
func (a *Adapter) Predict(ctx context.Context, features []float64) ([]float64, error) {
	a.mu.RLock()
	net := a.net
	a.mu.RUnlock()
	if net == nil {
		return nil, sim.ErrModelUnavailable
	}
	return net.Forward(ctx, features)
}

var (
	_ sim.Predictor     = (*Adapter)(nil)
	_ sim.WidthReporter = (*Adapter)(nil)
)

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/drawsim/sim"
	"github.com/inference-sim/drawsim/sim/draws"
	"github.com/inference-sim/drawsim/sim/history"
	"github.com/inference-sim/drawsim/sim/model"
)

// buildSimulator wires data, model and history into a new Simulator.
// The returned store must be closed by the caller.
func buildSimulator(ctx context.Context, cfg Config) (*sim.Simulator, history.Store, error) {
	simCfg, err := cfg.SimConfig()
	if err != nil {
		return nil, nil, err
	}

	ds, err := loadDataset(cfg.Data.CSV)
	if err != nil {
		return nil, nil, err
	}
	width := simCfg.Board.Size
	if ds != nil {
		width = ds.Width()
	}

	net, err := buildNetwork(cfg, width)
	if err != nil {
		return nil, nil, err
	}
	var predictor sim.Predictor
	if net != nil {
		predictor = model.NewAdapter(net)
	} else {
		logrus.Warn("No model configured; rounds will not run until one is loaded")
	}

	s, err := sim.NewSimulator(simCfg, predictor)
	if err != nil {
		return nil, nil, err
	}
	s.SetDataset(ds)

	store, err := history.NewStore(cfg.Store.Backend, cfg.Store.SQLitePath)
	if err != nil {
		return nil, nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, nil, fmt.Errorf("init %s history store: %w", cfg.Store.Backend, err)
	}
	s.SetRecorder(history.NewRecorder(store, 0))
	return s, store, nil
}

func loadDataset(path string) (*draws.Dataset, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening draw data: %w", err)
	}
	defer f.Close()
	ds, err := draws.Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// buildNetwork loads the configured model, or a seeded placeholder, and
// checks it fits boards of the given width. Returns nil when no model is set.
func buildNetwork(cfg Config, width int) (*model.Network, error) {
	var (
		net *model.Network
		err error
	)
	switch {
	case cfg.Model.Descriptor != "" || cfg.Model.Weights != "":
		if cfg.Model.Descriptor == "" || cfg.Model.Weights == "" {
			return nil, fmt.Errorf("model descriptor and weights must be given together")
		}
		net, err = model.Load(cfg.Model.Descriptor, cfg.Model.Weights)
	case cfg.Model.Placeholder:
		net, err = model.NewPlaceholder(placeholderDescriptor(width, cfg.Model.HiddenUnits), placeholderRNG(cfg.Simulation.Seed))
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	wantInputs := width + draws.DerivedFeatureCount
	if net.Desc.Inputs != wantInputs || net.Desc.Outputs() != width {
		return nil, fmt.Errorf("model %q has %d inputs and %d outputs; boards of width %d need %d and %d",
			net.Desc.Name, net.Desc.Inputs, net.Desc.Outputs(), width, wantInputs, width)
	}
	return net, nil
}

func placeholderDescriptor(width, hidden int) model.Descriptor {
	desc := model.DefaultDescriptor(width)
	if hidden > 0 {
		desc.Layers[0].Units = hidden
	}
	return desc
}

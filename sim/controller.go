package sim

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultTickInterval is the pause between the end of one round and the
// start of the next while playing.
const DefaultTickInterval = 200 * time.Millisecond

// ControllerConfig groups real-time loop parameters.
type ControllerConfig struct {
	TickInterval     time.Duration // delay between rounds while playing
	InferenceTimeout time.Duration // per-round prediction deadline; zero means none
}

// UpdateKind distinguishes why an Update was published.
type UpdateKind string

const (
	UpdateRound UpdateKind = "round" // a round was played or skipped
	UpdateState UpdateKind = "state" // play, pause, reset, data or model changed
)

// Update is pushed to subscribers after every state change.
type Update struct {
	Kind     UpdateKind `json:"kind"`
	Snapshot Snapshot   `json:"snapshot"`
}

type command struct {
	fn   func()
	done chan struct{}
}

// Controller drives a Simulator in real time. A single goroutine owns the
// simulator; every operation is serialized through its command channel, and
// the tick timer is re-armed only after a round has finished, so rounds never
// overlap.
type Controller struct {
	sim  *Simulator
	cfg  ControllerConfig
	cmds chan command
	done chan struct{}

	// Serializes commands run by callers once the loop has exited.
	fallbackMu sync.Mutex

	// Loop-owned.
	playing bool
	timer   *time.Timer
	tick    <-chan time.Time

	subsMu  sync.Mutex
	subs    map[int]chan Update
	nextSub int
}

// NewController wraps sim. Start must be called before any other method.
func NewController(sim *Simulator, cfg ControllerConfig) *Controller {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	return &Controller{
		sim:  sim,
		cfg:  cfg,
		cmds: make(chan command),
		done: make(chan struct{}),
		subs: make(map[int]chan Update),
	}
}

// Start launches the loop goroutine. It stops when ctx is done.
func (c *Controller) Start(ctx context.Context) {
	go c.loop(ctx)
}

// Done is closed once the loop has exited.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

func (c *Controller) loop(ctx context.Context) {
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			c.disarm()
			logrus.Debug("Controller loop stopped")
			return
		case cmd := <-c.cmds:
			cmd.fn()
			close(cmd.done)
		case <-c.tick:
			c.tick = nil
			if !c.playing {
				continue
			}
			c.round(ctx)
			if c.playing {
				c.arm()
			}
		}
	}
}

// do runs fn on the loop goroutine and waits for it.
func (c *Controller) do(fn func()) {
	cmd := command{fn: fn, done: make(chan struct{})}
	select {
	case c.cmds <- cmd:
		<-cmd.done
	case <-c.done:
		c.fallbackMu.Lock()
		defer c.fallbackMu.Unlock()
		fn()
	}
}

func (c *Controller) arm() {
	if c.timer == nil {
		c.timer = time.NewTimer(c.cfg.TickInterval)
	} else {
		c.timer.Reset(c.cfg.TickInterval)
	}
	c.tick = c.timer.C
}

func (c *Controller) disarm() {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.tick = nil
}

func (c *Controller) round(ctx context.Context) {
	stepCtx := ctx
	if c.cfg.InferenceTimeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, c.cfg.InferenceTimeout)
		defer cancel()
	}
	err := c.sim.Step(stepCtx)
	switch {
	case err == nil:
	case errors.Is(err, ErrModelUnavailable):
		logrus.Debug("No model loaded, tick skipped")
		return
	default:
		logrus.Warnf("Round skipped: %v", err)
	}
	c.publish(UpdateRound)
}

// Play starts the periodic loop. Idempotent.
func (c *Controller) Play() {
	c.do(func() {
		if c.playing {
			return
		}
		c.playing = true
		c.arm()
		logrus.Info("Simulation playing")
		c.publish(UpdateState)
	})
}

// Pause stops scheduling rounds. A round in progress completes first. Idempotent.
func (c *Controller) Pause() {
	c.do(func() {
		if !c.playing {
			return
		}
		c.playing = false
		c.disarm()
		logrus.Info("Simulation paused")
		c.publish(UpdateState)
	})
}

// Reset stops the loop and starts a fresh run.
func (c *Controller) Reset() {
	c.do(func() {
		c.playing = false
		c.disarm()
		c.sim.Reset()
		c.publish(UpdateState)
	})
}

// Playing reports whether the loop is running.
func (c *Controller) Playing() bool {
	var playing bool
	c.do(func() { playing = c.playing })
	return playing
}

// LoadData replaces the draw history. On error nothing changes.
func (c *Controller) LoadData(in io.Reader) error {
	var err error
	c.do(func() {
		if err = c.sim.LoadData(in); err == nil {
			c.publish(UpdateState)
		}
	})
	return err
}

// SetPredictor swaps the model between rounds.
func (c *Controller) SetPredictor(p Predictor) {
	c.do(func() {
		c.sim.SetPredictor(p)
		c.publish(UpdateState)
	})
}

// Snapshot returns a consistent copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	var snap Snapshot
	c.do(func() { snap = c.snapshot() })
	return snap
}

// Logs returns log lines starting at index since.
func (c *Controller) Logs(since int) []string {
	var lines []string
	c.do(func() { lines = c.sim.LogsSince(since) })
	return lines
}

// Subscribe registers a buffered update channel. Updates are dropped for
// subscribers whose buffer is full. The returned func unsubscribes.
func (c *Controller) Subscribe(buffer int) (<-chan Update, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Update, buffer)
	c.subsMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.subsMu.Lock()
			delete(c.subs, id)
			c.subsMu.Unlock()
			close(ch)
		})
	}
}

func (c *Controller) snapshot() Snapshot {
	snap := c.sim.Snapshot()
	snap.Playing = c.playing
	return snap
}

func (c *Controller) publish(kind UpdateKind) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	if len(c.subs) == 0 {
		return
	}
	update := Update{Kind: kind, Snapshot: c.snapshot()}
	for id, ch := range c.subs {
		select {
		case ch <- update:
		default:
			logrus.Debugf("Subscriber %d is slow, update dropped", id)
		}
	}
}

package simctl

import (
	"fmt"

	"github.com/ehrlich-b/go-simctl/internal/clock"
	"github.com/ehrlich-b/go-simctl/internal/conn"
	"github.com/ehrlich-b/go-simctl/internal/constants"
	"github.com/ehrlich-b/go-simctl/internal/fsm"
	"github.com/ehrlich-b/go-simctl/internal/interfaces"
	"github.com/ehrlich-b/go-simctl/internal/logging"
	"github.com/ehrlich-b/go-simctl/internal/registry"
)

// DriverParams configures a Driver, mirroring the teacher's
// DeviceParams/DefaultParams pattern.
type DriverParams struct {
	// Adapter bridges the control loop to the cycle-driven model. Required.
	Adapter interfaces.Adapter

	// ModelName/Product/Version populate "get {sel: sim_info}" replies.
	ModelName string
	Product   string
	Version   string

	Port       int // TCP loopback port; 0 means DefaultPort.
	TimeoutSec int // Accept timeout in seconds; 0 means DefaultTimeoutSec.
	Backlog    int // listen() backlog; 0 means the package default.
}

// DefaultParams returns params with the spec's port/timeout defaults and the
// given adapter.
func DefaultParams(adapter interfaces.Adapter) DriverParams {
	return DriverParams{
		Adapter:    adapter,
		ModelName:  "model",
		Product:    "go-simctl",
		Version:    "dev",
		Port:       constants.DefaultPort,
		TimeoutSec: constants.DefaultTimeoutSec,
	}
}

// Options carries optional collaborators, mirroring the teacher's Options.
type Options struct {
	Logger   *logging.Logger
	Observer interfaces.Observer
}

// Driver owns the Variable Registry and Clock Engine that must be
// populated (via Register*) before Run is called. It is the Embedding B
// program surface described by spec.md §6.
type Driver struct {
	reg    *registry.Registry
	clocks *clock.Engine
	params DriverParams
	opts   Options

	metrics  *Metrics
	observer interfaces.Observer

	started bool
}

// NewDriver constructs a Driver ready for Register* calls. params.Adapter
// must be non-nil.
func NewDriver(params DriverParams, opts *Options) (*Driver, error) {
	if params.Adapter == nil {
		return nil, NewError("NewDriver", ErrCodeFatalInit, "params.Adapter must not be nil")
	}
	if params.Port == 0 {
		params.Port = constants.DefaultPort
	}
	if params.TimeoutSec == 0 {
		params.TimeoutSec = constants.DefaultTimeoutSec
	}
	if opts == nil {
		opts = &Options{}
	}

	metrics := NewMetrics()
	observer := opts.Observer
	if observer == nil {
		observer = NewMetricsObserver(metrics)
	}

	return &Driver{
		reg:      registry.New(),
		clocks:   clock.New(),
		params:   params,
		opts:     *opts,
		metrics:  metrics,
		observer: observer,
	}, nil
}

// RegisterScalar binds name to a scalar cell the adapter already knows
// about (spec.md §4.4 "scalar" binding kind).
func (d *Driver) RegisterScalar(name string, h interfaces.Handle, primitive registry.PrimitiveKind) error {
	return d.reg.Insert(registry.Binding{
		Name:      name,
		Handle:    h,
		Primitive: primitive,
		Kind:      registry.Scalar,
		Width:     1,
	})
}

// RegisterParam binds name to a read/write parameter cell.
func (d *Driver) RegisterParam(name string, h interfaces.Handle, primitive registry.PrimitiveKind) error {
	return d.reg.Insert(registry.Binding{
		Name:      name,
		Handle:    h,
		Primitive: primitive,
		Kind:      registry.Param,
		Width:     1,
	})
}

// RegisterArray binds name to a memory array of the given depth (spec.md
// §4.4's dims=2 array binding).
func (d *Driver) RegisterArray(name string, h interfaces.Handle, primitive registry.PrimitiveKind, depth int) error {
	return d.reg.Insert(registry.Binding{
		Name:      name,
		Handle:    h,
		Primitive: primitive,
		Kind:      registry.Array,
		Dims:      2,
		Width:     1,
		Depth:     depth,
	})
}

// RegisterEvent binds name to a named event cell.
func (d *Driver) RegisterEvent(name string, h interfaces.Handle) error {
	return d.reg.Insert(registry.Binding{
		Name:      name,
		Handle:    h,
		Primitive: registry.PEvent,
		Kind:      registry.Event,
		Width:     1,
	})
}

// RegisterClock installs a programmable clock bound to the scalar cell
// behind h (its toggled value is written back through h) and returns the
// clock.Clock for period configuration.
func (d *Driver) RegisterClock(name string, h interfaces.Handle) *clock.Clock {
	return d.clocks.AddClock(name, h.ID())
}

// Run drives one client session to completion (spec.md §3 "Terminal =
// EXIT (clean) or ERROR"), returning a process-style exit status: 0 for a
// clean EXIT, nonzero for ERROR. It blocks until the session ends.
func (d *Driver) Run() int {
	logger := d.opts.Logger
	if logger == nil {
		logger = logging.Default()
	}

	machine := fsm.New(d.reg, d.clocks, d.params.Adapter, d.observer, logger, d.params.ModelName, d.params.Product, d.params.Version)

	cfg := &conn.Config{
		Port:       d.params.Port,
		TimeoutSec: d.params.TimeoutSec,
		Backlog:    d.params.Backlog,
		Logger:     logger,
	}
	if cfg.Backlog == 0 {
		cfg.Backlog = conn.DefaultConfig().Backlog
	}

	d.started = true
	status := machine.Run(cfg)
	d.metrics.Stop()
	return status
}

// Metrics returns the driver's metrics instance.
func (d *Driver) Metrics() *Metrics {
	return d.metrics
}

// MetricsSnapshot returns a point-in-time snapshot of driver metrics.
func (d *Driver) MetricsSnapshot() MetricsSnapshot {
	return d.metrics.Snapshot()
}

// String renders the driver's bind target, for logging/diagnostics.
func (d *Driver) String() string {
	return fmt.Sprintf("simctl.Driver{model=%s, port=%d}", d.params.ModelName, d.params.Port)
}

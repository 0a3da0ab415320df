// Package router dispatches named operations to service handlers
// through an explicit call table. Each entry declares its access mode
// and cycle cost; genesis entries run exactly once at bootstrap, before
// any other call is accepted. Results and errors are structured values,
// never panics, crossing the host boundary.
package router

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hackathon-cross/muta-cross/errkind"
	"github.com/hackathon-cross/muta-cross/eventlog"
	"github.com/hackathon-cross/muta-cross/service"
)

// Access is an operation's declared access mode.
type Access int

const (
	// AccessRead marks a query; reads never mutate and may run
	// concurrently with each other.
	AccessRead Access = iota
	// AccessWrite marks a mutating call; the external dispatcher
	// serializes these.
	AccessWrite
	// AccessGenesis marks a bootstrap handler.
	AccessGenesis
)

func (a Access) String() string {
	switch a {
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	case AccessGenesis:
		return "genesis"
	default:
		return "unknown"
	}
}

// Handler executes one operation against a call context.
type Handler func(ctx *service.Context, payload json.RawMessage) (json.RawMessage, error)

// Operation is one entry of the call table.
type Operation struct {
	Name    string
	Access  Access
	Cost    uint64
	Handler Handler
}

// Routing failures.
var (
	ErrUnknownOperation = errors.New("router: unknown operation")
	ErrDuplicateName    = errors.New("router: operation name already registered")
	ErrGenesisDone      = errors.New("router: genesis already executed")
	ErrGenesisPending   = errors.New("router: genesis not executed yet")
)

// Router owns the call table and the event sink successful calls flush
// into.
type Router struct {
	ops         map[string]Operation
	sink        eventlog.Sink
	genesisDone bool
	log         zerolog.Logger
}

// New builds an empty router flushing events into sink.
func New(sink eventlog.Sink, log zerolog.Logger) *Router {
	return &Router{
		ops:  make(map[string]Operation),
		sink: sink,
		log:  log.With().Str("component", "router").Logger(),
	}
}

// Register adds an operation to the table.
func (r *Router) Register(op Operation) error {
	if _, exists := r.ops[op.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateName, op.Name)
	}
	r.ops[op.Name] = op
	return nil
}

// MustRegister adds operations, panicking on duplicate names. For use
// during startup wiring only.
func (r *Router) MustRegister(ops ...Operation) {
	for _, op := range ops {
		if err := r.Register(op); err != nil {
			panic(err)
		}
	}
}

// GenesisCall is one bootstrap invocation.
type GenesisCall struct {
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
}

// Genesis runs the given bootstrap calls, in order, exactly once. Every
// named operation must be registered with AccessGenesis. After Genesis
// returns, genesis operations are permanently rejected.
func (r *Router) Genesis(ctx *service.Context, calls []GenesisCall) error {
	if r.genesisDone {
		return errkind.Wrap(errkind.StateConflict, ErrGenesisDone)
	}
	for _, call := range calls {
		op, ok := r.ops[call.Name]
		if !ok {
			return errkind.Wrap(errkind.NotFound, fmt.Errorf("%w: %s", ErrUnknownOperation, call.Name))
		}
		if op.Access != AccessGenesis {
			return errkind.Wrapf(errkind.Validation, "router: %s is not a genesis operation", call.Name)
		}
		if _, err := op.Handler(ctx, call.Payload); err != nil {
			ctx.DropEvents()
			return err
		}
	}
	r.genesisDone = true
	if err := ctx.Flush(r.sink); err != nil {
		return err
	}
	r.log.Debug().Int("calls", len(calls)).Msg("genesis complete")
	return nil
}

// Dispatch routes one call. On success the call's buffered events flush
// to the sink in emission order; on failure they are dropped, so a
// failed call is externally silent.
func (r *Router) Dispatch(ctx *service.Context, name string, payload json.RawMessage) (json.RawMessage, error) {
	op, ok := r.ops[name]
	if !ok {
		return nil, errkind.Wrap(errkind.NotFound, fmt.Errorf("%w: %s", ErrUnknownOperation, name))
	}
	if op.Access == AccessGenesis {
		return nil, errkind.Wrap(errkind.StateConflict, ErrGenesisDone)
	}
	if !r.genesisDone {
		return nil, errkind.Wrap(errkind.StateConflict, ErrGenesisPending)
	}

	result, err := op.Handler(ctx, payload)
	if err != nil {
		ctx.DropEvents()
		r.log.Warn().Str("op", name).Str("code", errkind.Of(err).String()).Err(err).Msg("call rejected")
		return nil, err
	}
	if err := ctx.Flush(r.sink); err != nil {
		return nil, err
	}
	r.log.Debug().Str("op", name).Str("access", op.Access.String()).Uint64("cost", op.Cost).Msg("call applied")
	return result, nil
}

// Cost returns the declared cycle cost of an operation.
func (r *Router) Cost(name string) (uint64, error) {
	op, ok := r.ops[name]
	if !ok {
		return 0, errkind.Wrap(errkind.NotFound, fmt.Errorf("%w: %s", ErrUnknownOperation, name))
	}
	return op.Cost, nil
}

// ErrorCode maps err to the wire code of its taxonomy kind.
func ErrorCode(err error) string {
	return errkind.Of(err).String()
}

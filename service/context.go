// Package service carries the per-call context services consume: the
// caller identity, an explicit authorization capability for trusted
// inter-service calls, and the buffered event emission that only reaches
// the sink when the call succeeds.
package service

import (
	"github.com/hackathon-cross/muta-cross/eventlog"
	"github.com/hackathon-cross/muta-cross/types"
)

// Capability names an elevated authorization carried in a call context.
// It replaces the older implicit "extra context present" privilege
// signal; a capability is granted explicitly at construction and is the
// sole authorization check for mint, burn and bridge operations.
type Capability string

// CapCrosschain is the capability the bridge holds to drive privileged
// mints and burns through the asset ledger.
const CapCrosschain Capability = "crosschain"

// Context is the per-call context. Events emitted during the call are
// buffered here; the dispatcher flushes them to the sink only if the
// call succeeds, so a failed call emits nothing.
type Context struct {
	caller     types.Address
	capability Capability
	onBehalf   *types.Address
	parent     *Context
	events     []eventlog.Event
}

// NewContext builds a context for an ordinary external call.
func NewContext(caller types.Address) *Context {
	return &Context{caller: caller}
}

// WithCapability returns a child context carrying cap. The caller and
// event buffer are shared with the parent, so events emitted through
// the child flush with the parent's call.
func (c *Context) WithCapability(cap Capability) *Context {
	return &Context{
		caller:     c.caller,
		capability: cap,
		parent:     c,
	}
}

// root follows parent links to the context owning the event buffer.
func (c *Context) root() *Context {
	r := c
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// Caller returns the externally authenticated caller account.
func (c *Context) Caller() types.Address { return c.caller }

// Privileged reports whether the context carries cap.
func (c *Context) Privileged(cap Capability) bool {
	return cap != "" && c.capability == cap
}

// Elevated reports whether the context carries any capability.
func (c *Context) Elevated() bool {
	return c.capability != ""
}

// SetOnBehalf records an explicit sender override. The ledger honors it
// only on elevated contexts.
func (c *Context) SetOnBehalf(a types.Address) {
	c.onBehalf = &a
}

// Sender resolves the acting account: the on-behalf override when the
// context is elevated, the caller otherwise.
func (c *Context) Sender() types.Address {
	if c.onBehalf != nil && c.Elevated() {
		return *c.onBehalf
	}
	return c.caller
}

// Emit buffers an event for this call.
func (c *Context) Emit(service, name string, body any) error {
	ev, err := eventlog.New(service, name, body)
	if err != nil {
		return err
	}
	root := c.root()
	root.events = append(root.events, ev)
	return nil
}

// Events returns the events buffered so far, in emission order.
func (c *Context) Events() []eventlog.Event {
	root := c.root()
	out := make([]eventlog.Event, len(root.events))
	copy(out, root.events)
	return out
}

// Flush appends every buffered event to sink and clears the buffer.
func (c *Context) Flush(sink eventlog.Sink) error {
	root := c.root()
	for _, ev := range root.events {
		if err := sink.Append(ev); err != nil {
			return err
		}
	}
	root.events = nil
	return nil
}

// DropEvents discards the buffered events of a failed call.
func (c *Context) DropEvents() {
	c.root().events = nil
}

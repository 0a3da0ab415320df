package service

import (
	"testing"

	"github.com/hackathon-cross/muta-cross/eventlog"
	"github.com/hackathon-cross/muta-cross/types"
)

func testAddr(b byte) types.Address {
	var a types.Address
	a[types.AddressLen-1] = b
	return a
}

func TestCapability(t *testing.T) {
	caller := testAddr(1)
	ctx := NewContext(caller)

	if ctx.Elevated() {
		t.Error("plain context reported elevated")
	}
	if ctx.Privileged(CapCrosschain) {
		t.Error("plain context reported privileged")
	}

	elevated := ctx.WithCapability(CapCrosschain)
	if !elevated.Elevated() || !elevated.Privileged(CapCrosschain) {
		t.Error("capability not carried")
	}
	if elevated.Privileged("other") {
		t.Error("wrong capability accepted")
	}
	if elevated.Caller() != caller {
		t.Error("caller not inherited")
	}

	// Granting a capability to a child never elevates the parent.
	if ctx.Elevated() {
		t.Error("parent gained capability")
	}
}

func TestSenderOverride(t *testing.T) {
	caller := testAddr(1)
	user := testAddr(2)

	t.Run("PlainContextIgnoresOverride", func(t *testing.T) {
		ctx := NewContext(caller)
		ctx.SetOnBehalf(user)
		if ctx.Sender() != caller {
			t.Errorf("unelevated override honored: %s", ctx.Sender())
		}
	})

	t.Run("ElevatedContextHonorsOverride", func(t *testing.T) {
		ctx := NewContext(caller).WithCapability(CapCrosschain)
		if ctx.Sender() != caller {
			t.Errorf("default sender: %s", ctx.Sender())
		}
		ctx.SetOnBehalf(user)
		if ctx.Sender() != user {
			t.Errorf("override not honored: %s", ctx.Sender())
		}
	})
}

func TestEventBuffer(t *testing.T) {
	ctx := NewContext(testAddr(1))
	sink := eventlog.NewMemorySink()

	if err := ctx.Emit("asset", "transfer", nil); err != nil {
		t.Fatalf("emit: %v", err)
	}

	// Emission through a child lands in the same buffer.
	child := ctx.WithCapability(CapCrosschain)
	if err := child.Emit("asset", "mint_token", nil); err != nil {
		t.Fatalf("emit: %v", err)
	}

	events := ctx.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 buffered events, got %d", len(events))
	}
	if events[0].Name != "transfer" || events[1].Name != "mint_token" {
		t.Errorf("order lost: %s, %s", events[0].Name, events[1].Name)
	}
	if sink.Len() != 0 {
		t.Error("events reached sink before flush")
	}

	if err := ctx.Flush(sink); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if sink.Len() != 2 {
		t.Errorf("expected 2 flushed events, got %d", sink.Len())
	}
	if len(ctx.Events()) != 0 {
		t.Error("buffer not cleared after flush")
	}
}

func TestDropEvents(t *testing.T) {
	ctx := NewContext(testAddr(1))
	ctx.Emit("asset", "transfer", nil)

	child := ctx.WithCapability(CapCrosschain)
	child.DropEvents()

	if len(ctx.Events()) != 0 {
		t.Error("drop through child left parent buffer populated")
	}
}

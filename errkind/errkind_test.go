package errkind

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrap(t *testing.T) {
	base := errors.New("asset not found")
	err := Wrap(NotFound, base)

	if Of(err) != NotFound {
		t.Errorf("kind: %s", Of(err))
	}
	if !errors.Is(err, base) {
		t.Error("wrapped error unreachable")
	}
	if err.Error() != base.Error() {
		t.Errorf("message: %q", err.Error())
	}

	if Wrap(Validation, nil) != nil {
		t.Error("wrapping nil should return nil")
	}
}

func TestOfThroughLayers(t *testing.T) {
	base := errors.New("insufficient balance")
	err := fmt.Errorf("transfer: %w", Wrap(InsufficientFunds, base))

	if Of(err) != InsufficientFunds {
		t.Errorf("kind not found through %%w: %s", Of(err))
	}
	if Of(errors.New("plain")) != Unknown {
		t.Error("unclassified error should be Unknown")
	}
}

func TestKindNames(t *testing.T) {
	names := map[Kind]string{
		Unknown:           "unknown",
		Validation:        "validation",
		Permission:        "permission",
		NotFound:          "not_found",
		Arithmetic:        "arithmetic",
		StateConflict:     "state_conflict",
		InsufficientFunds: "insufficient_funds",
	}
	for k, want := range names {
		if k.String() != want {
			t.Errorf("%d: got %q, want %q", k, k.String(), want)
		}
	}
}

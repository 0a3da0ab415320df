package bridge

import (
	"errors"
	"fmt"

	"github.com/hackathon-cross/muta-cross/errkind"
)

var (
	ErrInvalidHeader   = errors.New("bridge: invalid foreign header")
	ErrInvalidDeposit  = errors.New("bridge: invalid deposit transaction")
	ErrHeaderNotFound  = errors.New("bridge: no header at height")
	ErrDepositReplayed = errors.New("bridge: deposit already settled")
)

func errInvalidHeader(cause error) error {
	return errkind.Wrap(errkind.Validation, fmt.Errorf("%w: %v", ErrInvalidHeader, cause))
}

func errInvalidDeposit(reason string) error {
	return errkind.Wrap(errkind.Validation, fmt.Errorf("%w: %s", ErrInvalidDeposit, reason))
}

func errHeaderNotFound(height uint64) error {
	return errkind.Wrap(errkind.NotFound, fmt.Errorf("%w: %d", ErrHeaderNotFound, height))
}

package ledger

import (
	"errors"
	"fmt"

	"github.com/hackathon-cross/muta-cross/errkind"
	"github.com/hackathon-cross/muta-cross/types"
)

var (
	ErrAssetExists   = errors.New("ledger: asset already exists")
	ErrAssetNotFound = errors.New("ledger: asset not found")
	ErrNoPermission  = errors.New("ledger: no permission")
	ErrSelfTransfer  = errors.New("ledger: recipient is sender")
	ErrSelfApproval  = errors.New("ledger: approval to yourself")

	ErrInsufficientBalance   = errors.New("ledger: insufficient balance")
	ErrInsufficientAllowance = errors.New("ledger: insufficient allowance")
)

func errAssetExists(id types.Hash) error {
	return errkind.Wrap(errkind.StateConflict, fmt.Errorf("%w: %s", ErrAssetExists, id))
}

func errAssetNotFound(id types.Hash) error {
	return errkind.Wrap(errkind.NotFound, fmt.Errorf("%w: %s", ErrAssetNotFound, id))
}

func errInsufficient(base error, expect, real types.Uint128) error {
	return errkind.Wrap(errkind.InsufficientFunds,
		fmt.Errorf("%w: expect %s, real %s", base, expect, real))
}

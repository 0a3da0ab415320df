// Package ledger implements the fungible-asset ledger: asset creation,
// privileged mint and burn, transfer, approval and delegated transfer
// over unsigned 128-bit balances. All mutating calls buffer their writes
// and commit only after every check passes, so a failed call persists
// nothing.
package ledger

import (
	"github.com/rs/zerolog"

	"github.com/hackathon-cross/muta-cross/errkind"
	"github.com/hackathon-cross/muta-cross/fixedcodec"
	"github.com/hackathon-cross/muta-cross/service"
	"github.com/hackathon-cross/muta-cross/store"
	"github.com/hackathon-cross/muta-cross/types"
)

// ServiceName is the name ledger events carry.
const ServiceName = "asset"

// Single-byte key prefixes inside the shared store.
var (
	prefixAssets   = []byte("a")
	prefixBalances = []byte("b")
	keyNativeAsset = []byte("n")
)

// bridgeIssuer is the sentinel issuer recorded for assets first seen
// through a bridge mint.
var bridgeIssuer = mustAddress("0xc4b0000000000000000000000000000000000000")

func mustAddress(s string) types.Address {
	a, err := types.AddressFromHex(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Service is the asset ledger, holding its store handles explicitly.
type Service struct {
	kv  store.Store
	log zerolog.Logger
}

// New builds a ledger over kv.
func New(kv store.Store, log zerolog.Logger) *Service {
	return &Service{kv: kv, log: log.With().Str("service", ServiceName).Logger()}
}

// view is the per-call state access: maps over the given store, which is
// a staged overlay for mutating calls and the base store for queries.
type view struct {
	assets   *store.Map
	balances *store.Map
	native   *store.Value
}

func newView(s store.Store) *view {
	return &view{
		assets:   store.NewMap(s, prefixAssets),
		balances: store.NewMap(s, prefixBalances),
		native:   store.NewValue(s, keyNativeAsset),
	}
}

func (v *view) getAsset(id types.Hash) (*Asset, error) {
	raw, ok, err := v.assets.Get(id.Bytes())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errAssetNotFound(id)
	}
	var a Asset
	if err := a.UnmarshalBinary(raw); err != nil {
		return nil, err
	}
	return &a, nil
}

func (v *view) hasAsset(id types.Hash) (bool, error) {
	return v.assets.Has(id.Bytes())
}

func (v *view) putAsset(a *Asset) error {
	raw, err := a.MarshalBinary()
	if err != nil {
		return err
	}
	return v.assets.Put(a.ID.Bytes(), raw)
}

func balanceKey(user types.Address, asset types.Hash) []byte {
	k := make([]byte, 0, types.AddressLen+types.HashLen)
	k = append(k, user.Bytes()...)
	return append(k, asset.Bytes()...)
}

// getBalance returns the record for (user, asset), a fresh zero record
// if none exists yet.
func (v *view) getBalance(user types.Address, asset types.Hash) (*AccountBalance, error) {
	raw, ok, err := v.balances.Get(balanceKey(user, asset))
	if err != nil {
		return nil, err
	}
	if !ok {
		return NewAccountBalance(), nil
	}
	b := &AccountBalance{}
	if err := b.UnmarshalBinary(raw); err != nil {
		return nil, err
	}
	return b, nil
}

func (v *view) putBalance(user types.Address, asset types.Hash, b *AccountBalance) error {
	raw, err := b.MarshalBinary()
	if err != nil {
		return err
	}
	return v.balances.Put(balanceKey(user, asset), raw)
}

// InitGenesis seeds the native asset, credits the issuer with the full
// supply and records the native-asset pointer. It runs exactly once, at
// bootstrap, before any other call is accepted.
func (s *Service) InitGenesis(ctx *service.Context, p GenesisPayload) error {
	staged := store.NewStaged(s.kv)
	v := newView(staged)

	if ok, err := v.hasAsset(p.ID); err != nil {
		return err
	} else if ok {
		return errAssetExists(p.ID)
	}

	asset := &Asset{ID: p.ID, Name: p.Name, Supply: p.Supply, Issuer: p.Issuer}
	if err := v.putAsset(asset); err != nil {
		return err
	}
	if err := v.native.Set(p.ID.Bytes()); err != nil {
		return err
	}

	bal := NewAccountBalance()
	bal.Value = p.Supply
	if err := v.putBalance(p.Issuer, p.ID, bal); err != nil {
		return err
	}

	s.log.Debug().Str("asset", p.ID.Hex()).Str("supply", p.Supply.String()).Msg("genesis asset seeded")
	return staged.Commit()
}

// NativeAsset returns the descriptor the genesis pointer names.
func (s *Service) NativeAsset(ctx *service.Context) (*Asset, error) {
	v := newView(s.kv)
	raw, ok, err := v.native.Get()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errkind.Wrapf(errkind.NotFound, "ledger: native asset not initialized")
	}
	id, err := types.HashFromBytes(raw)
	if err != nil {
		return nil, err
	}
	return v.getAsset(id)
}

// Asset returns the descriptor for id.
func (s *Service) Asset(ctx *service.Context, p GetAssetPayload) (*Asset, error) {
	return newView(s.kv).getAsset(p.ID)
}

// Balance returns the amount user holds of the asset, zero if the record
// is absent. The asset itself must exist.
func (s *Service) Balance(ctx *service.Context, p GetBalancePayload) (*GetBalanceResponse, error) {
	v := newView(s.kv)
	if ok, err := v.hasAsset(p.AssetID); err != nil {
		return nil, err
	} else if !ok {
		return nil, errAssetNotFound(p.AssetID)
	}
	bal, err := v.getBalance(p.User, p.AssetID)
	if err != nil {
		return nil, err
	}
	return &GetBalanceResponse{AssetID: p.AssetID, User: p.User, Balance: bal.Value}, nil
}

// Allowance returns the amount grantor authorizes grantee to move, zero
// if no entry exists. The asset itself must exist.
func (s *Service) Allowance(ctx *service.Context, p GetAllowancePayload) (*GetAllowanceResponse, error) {
	v := newView(s.kv)
	if ok, err := v.hasAsset(p.AssetID); err != nil {
		return nil, err
	} else if !ok {
		return nil, errAssetNotFound(p.AssetID)
	}
	bal, err := v.getBalance(p.Grantor, p.AssetID)
	if err != nil {
		return nil, err
	}
	return &GetAllowanceResponse{
		AssetID: p.AssetID,
		Grantor: p.Grantor,
		Grantee: p.Grantee,
		Value:   bal.AllowanceOf(p.Grantee),
	}, nil
}

// AssetID derives the creator-bound id for a new asset: the digest of
// the deterministic (name, supply) encoding concatenated with the
// creator account. Identical payloads from different creators yield
// different ids; the same creator repeating a payload collides and is
// rejected as a duplicate.
func AssetID(name string, supply types.Uint128, creator types.Address) types.Hash {
	w := fixedcodec.NewWriter(4 + len(name) + types.Uint128Len + types.AddressLen)
	w.String(name)
	w.Uint128(supply)
	w.Address(creator)
	return types.Digest(w.Bytes())
}

// CreateAsset registers a new asset issued by the caller and credits the
// caller with the declared supply.
func (s *Service) CreateAsset(ctx *service.Context, p CreateAssetPayload) (*Asset, error) {
	caller := ctx.Caller()
	id := AssetID(p.Name, p.Supply, caller)

	staged := store.NewStaged(s.kv)
	v := newView(staged)

	if ok, err := v.hasAsset(id); err != nil {
		return nil, err
	} else if ok {
		return nil, errAssetExists(id)
	}

	asset := &Asset{ID: id, Name: p.Name, Supply: p.Supply, Issuer: caller}
	if err := v.putAsset(asset); err != nil {
		return nil, err
	}

	bal, err := v.getBalance(caller, id)
	if err != nil {
		return nil, err
	}
	bal.Value, err = bal.Value.Add(p.Supply)
	if err != nil {
		return nil, err
	}
	if err := v.putBalance(caller, id, bal); err != nil {
		return nil, err
	}

	if err := ctx.Emit(ServiceName, "create_asset", asset); err != nil {
		return nil, err
	}
	if err := staged.Commit(); err != nil {
		return nil, err
	}
	s.log.Debug().Str("asset", id.Hex()).Str("issuer", caller.Hex()).Msg("asset created")
	return asset, nil
}

// MintToken credits receiver with amount of the token, registering a
// zero-supply descriptor under the sentinel issuer if the token id has
// never been seen. Privileged callers only.
func (s *Service) MintToken(ctx *service.Context, p MintTokenPayload) error {
	staged := store.NewStaged(s.kv)
	if err := s.MintTokenView(ctx, staged, p); err != nil {
		return err
	}
	return staged.Commit()
}

// MintTokenView is MintToken against an externally managed staged view,
// letting the bridge fold several mints into one atomic call.
func (s *Service) MintTokenView(ctx *service.Context, sv store.Store, p MintTokenPayload) error {
	if !ctx.Privileged(service.CapCrosschain) {
		return errkind.Wrap(errkind.Permission, ErrNoPermission)
	}

	v := newView(sv)
	ok, err := v.hasAsset(p.TokenID)
	if err != nil {
		return err
	}
	if !ok {
		asset := &Asset{
			ID:     p.TokenID,
			Name:   "ckb-image_token" + p.TokenID.Hex()[2:7],
			Supply: types.Uint128{},
			Issuer: bridgeIssuer,
		}
		if err := v.putAsset(asset); err != nil {
			return err
		}
	}

	bal, err := v.getBalance(p.Receiver, p.TokenID)
	if err != nil {
		return err
	}
	bal.Value, err = bal.Value.Add(p.Amount)
	if err != nil {
		return err
	}
	return v.putBalance(p.Receiver, p.TokenID, bal)
}

// BurnToken debits user by amount of the token. Privileged callers only.
func (s *Service) BurnToken(ctx *service.Context, p BurnTokenPayload) error {
	staged := store.NewStaged(s.kv)
	if err := s.BurnTokenView(ctx, staged, p); err != nil {
		return err
	}
	return staged.Commit()
}

// BurnTokenView is BurnToken against an externally managed staged view.
func (s *Service) BurnTokenView(ctx *service.Context, sv store.Store, p BurnTokenPayload) error {
	if !ctx.Privileged(service.CapCrosschain) {
		return errkind.Wrap(errkind.Permission, ErrNoPermission)
	}

	v := newView(sv)
	if ok, err := v.hasAsset(p.TokenID); err != nil {
		return err
	} else if !ok {
		return errAssetNotFound(p.TokenID)
	}

	bal, err := v.getBalance(p.User, p.TokenID)
	if err != nil {
		return err
	}
	if bal.Value.Lt(p.Amount) {
		return errInsufficient(ErrInsufficientBalance, p.Amount, bal.Value)
	}
	bal.Value, err = bal.Value.Sub(p.Amount)
	if err != nil {
		return err
	}
	return v.putBalance(p.User, p.TokenID, bal)
}

// Transfer moves value from the acting sender to the recipient. Both
// legs are validated before either is persisted.
func (s *Service) Transfer(ctx *service.Context, p TransferPayload) error {
	sender := ctx.Sender()
	if sender == p.To {
		return errkind.Wrap(errkind.StateConflict, ErrSelfTransfer)
	}

	staged := store.NewStaged(s.kv)
	v := newView(staged)

	if ok, err := v.hasAsset(p.AssetID); err != nil {
		return err
	} else if !ok {
		return errAssetNotFound(p.AssetID)
	}

	if err := v.move(sender, p.To, p.AssetID, p.Value); err != nil {
		return err
	}

	ev := TransferEvent{AssetID: p.AssetID, From: sender, To: p.To, Value: p.Value}
	if err := ctx.Emit(ServiceName, "transfer", ev); err != nil {
		return err
	}
	return staged.Commit()
}

// Approve overwrites the allowance the caller grants to to. The prior
// value is irrelevant; approve is never additive.
func (s *Service) Approve(ctx *service.Context, p ApprovePayload) error {
	caller := ctx.Caller()
	if caller == p.To {
		return errkind.Wrap(errkind.StateConflict, ErrSelfApproval)
	}

	staged := store.NewStaged(s.kv)
	v := newView(staged)

	if ok, err := v.hasAsset(p.AssetID); err != nil {
		return err
	} else if !ok {
		return errAssetNotFound(p.AssetID)
	}

	bal, err := v.getBalance(caller, p.AssetID)
	if err != nil {
		return err
	}
	bal.Allowance[p.To] = p.Value
	if err := v.putBalance(caller, p.AssetID, bal); err != nil {
		return err
	}

	ev := ApproveEvent{AssetID: p.AssetID, Grantor: caller, Grantee: p.To, Value: p.Value}
	if err := ctx.Emit(ServiceName, "approve", ev); err != nil {
		return err
	}
	return staged.Commit()
}

// TransferFrom spends the acting caller's allowance on sender's balance
// and moves value to the recipient. The allowance decrement and both
// transfer legs commit together or not at all.
func (s *Service) TransferFrom(ctx *service.Context, p TransferFromPayload) error {
	caller := ctx.Sender()

	staged := store.NewStaged(s.kv)
	v := newView(staged)

	if ok, err := v.hasAsset(p.AssetID); err != nil {
		return err
	} else if !ok {
		return errAssetNotFound(p.AssetID)
	}

	grantorBal, err := v.getBalance(p.Sender, p.AssetID)
	if err != nil {
		return err
	}
	allowance := grantorBal.AllowanceOf(caller)
	if allowance.Lt(p.Value) {
		return errInsufficient(ErrInsufficientAllowance, p.Value, allowance)
	}
	grantorBal.Allowance[caller], err = allowance.Sub(p.Value)
	if err != nil {
		return err
	}
	if err := v.putBalance(p.Sender, p.AssetID, grantorBal); err != nil {
		return err
	}

	if err := v.move(p.Sender, p.Recipient, p.AssetID, p.Value); err != nil {
		return err
	}

	ev := TransferFromEvent{
		AssetID:   p.AssetID,
		Caller:    caller,
		Sender:    p.Sender,
		Recipient: p.Recipient,
		Value:     p.Value,
	}
	if err := ctx.Emit(ServiceName, "transfer_from", ev); err != nil {
		return err
	}
	return staged.Commit()
}

// move debits sender and credits recipient inside the current view, with
// both legs checked before either write lands in the base store.
func (v *view) move(sender, recipient types.Address, asset types.Hash, value types.Uint128) error {
	if sender == recipient {
		return errkind.Wrap(errkind.StateConflict, ErrSelfTransfer)
	}

	senderBal, err := v.getBalance(sender, asset)
	if err != nil {
		return err
	}
	if senderBal.Value.Lt(value) {
		return errInsufficient(ErrInsufficientBalance, value, senderBal.Value)
	}

	recipientBal, err := v.getBalance(recipient, asset)
	if err != nil {
		return err
	}
	recipientBal.Value, err = recipientBal.Value.Add(value)
	if err != nil {
		return err
	}

	senderBal.Value, err = senderBal.Value.Sub(value)
	if err != nil {
		return err
	}

	if err := v.putBalance(recipient, asset, recipientBal); err != nil {
		return err
	}
	return v.putBalance(sender, asset, senderBal)
}

package ledger

import (
	"sort"

	"github.com/hackathon-cross/muta-cross/fixedcodec"
	"github.com/hackathon-cross/muta-cross/types"
)

// Asset describes a registered fungible asset.
type Asset struct {
	ID   types.Hash `json:"id"`
	Name string     `json:"name"`
	// Supply is the declared supply at creation. Mint and burn do not
	// adjust it, so after genesis it is not a circulating-supply figure.
	Supply types.Uint128 `json:"supply"`
	Issuer types.Address `json:"issuer"`
}

// MarshalBinary encodes the asset in the fixed persisted layout.
func (a *Asset) MarshalBinary() ([]byte, error) {
	w := fixedcodec.NewWriter(types.HashLen + 4 + len(a.Name) + types.Uint128Len + types.AddressLen)
	w.Hash(a.ID)
	w.String(a.Name)
	w.Uint128(a.Supply)
	w.Address(a.Issuer)
	return w.Bytes(), nil
}

// UnmarshalBinary decodes the fixed persisted layout.
func (a *Asset) UnmarshalBinary(b []byte) error {
	r := fixedcodec.NewReader(b)
	a.ID = r.Hash()
	a.Name = r.String()
	a.Supply = r.Uint128()
	a.Issuer = r.Address()
	return r.Err()
}

// AccountBalance is the per-(account, asset) record: the held amount and
// the outgoing allowance map. Created lazily, persisted even at zero,
// never deleted.
type AccountBalance struct {
	Value     types.Uint128
	Allowance map[types.Address]types.Uint128
}

// NewAccountBalance returns a zero balance with an empty allowance map.
func NewAccountBalance() *AccountBalance {
	return &AccountBalance{Allowance: make(map[types.Address]types.Uint128)}
}

// AllowanceOf returns the allowance granted to grantee, zero if absent.
func (b *AccountBalance) AllowanceOf(grantee types.Address) types.Uint128 {
	return b.Allowance[grantee]
}

// MarshalBinary encodes the record: value, then the allowance entries as
// (address, amount) pairs sorted by address. Sorting guarantees a
// byte-identical re-serialization of any decoded record.
func (b *AccountBalance) MarshalBinary() ([]byte, error) {
	grantees := make([]types.Address, 0, len(b.Allowance))
	for g := range b.Allowance {
		grantees = append(grantees, g)
	}
	sort.Slice(grantees, func(i, j int) bool { return grantees[i].Less(grantees[j]) })

	w := fixedcodec.NewWriter(types.Uint128Len + 4 + len(grantees)*(types.AddressLen+types.Uint128Len))
	w.Uint128(b.Value)
	w.Uint32(uint32(len(grantees)))
	for _, g := range grantees {
		w.Address(g)
		w.Uint128(b.Allowance[g])
	}
	return w.Bytes(), nil
}

// UnmarshalBinary decodes the fixed persisted layout.
func (b *AccountBalance) UnmarshalBinary(data []byte) error {
	r := fixedcodec.NewReader(data)
	b.Value = r.Uint128()
	n := r.Uint32()
	b.Allowance = make(map[types.Address]types.Uint128, n)
	for i := uint32(0); i < n; i++ {
		g := r.Address()
		v := r.Uint128()
		if r.Broken() {
			break
		}
		b.Allowance[g] = v
	}
	return r.Err()
}

// GenesisPayload seeds the native asset at bootstrap.
type GenesisPayload struct {
	ID     types.Hash    `json:"id"`
	Name   string        `json:"name"`
	Supply types.Uint128 `json:"supply"`
	Issuer types.Address `json:"issuer"`
}

// CreateAssetPayload registers a new asset issued by the caller.
type CreateAssetPayload struct {
	Name   string        `json:"name"`
	Supply types.Uint128 `json:"supply"`
}

// MintTokenPayload credits receiver with amount of token_id.
type MintTokenPayload struct {
	TokenID  types.Hash    `json:"token_id"`
	Receiver types.Address `json:"receiver"`
	Amount   types.Uint128 `json:"amount"`
}

// BurnTokenPayload debits user by amount of token_id.
type BurnTokenPayload struct {
	TokenID types.Hash    `json:"token_id"`
	User    types.Address `json:"user"`
	Amount  types.Uint128 `json:"amount"`
}

// TransferPayload moves value of asset_id from the sender to to.
type TransferPayload struct {
	AssetID types.Hash    `json:"asset_id"`
	To      types.Address `json:"to"`
	Value   types.Uint128 `json:"value"`
}

// ApprovePayload overwrites the allowance granted to to.
type ApprovePayload = TransferPayload

// TransferFromPayload spends the caller's allowance on sender's balance.
type TransferFromPayload struct {
	AssetID   types.Hash    `json:"asset_id"`
	Sender    types.Address `json:"sender"`
	Recipient types.Address `json:"recipient"`
	Value     types.Uint128 `json:"value"`
}

// GetAssetPayload looks up an asset descriptor.
type GetAssetPayload struct {
	ID types.Hash `json:"id"`
}

// GetBalancePayload queries a user's balance of an asset.
type GetBalancePayload struct {
	AssetID types.Hash    `json:"asset_id"`
	User    types.Address `json:"user"`
}

// GetBalanceResponse echoes the query with the held amount.
type GetBalanceResponse struct {
	AssetID types.Hash    `json:"asset_id"`
	User    types.Address `json:"user"`
	Balance types.Uint128 `json:"balance"`
}

// GetAllowancePayload queries an allowance entry.
type GetAllowancePayload struct {
	AssetID types.Hash    `json:"asset_id"`
	Grantor types.Address `json:"grantor"`
	Grantee types.Address `json:"grantee"`
}

// GetAllowanceResponse echoes the query with the granted amount.
type GetAllowanceResponse struct {
	AssetID types.Hash    `json:"asset_id"`
	Grantor types.Address `json:"grantor"`
	Grantee types.Address `json:"grantee"`
	Value   types.Uint128 `json:"value"`
}

// TransferEvent records a completed transfer.
type TransferEvent struct {
	AssetID types.Hash    `json:"asset_id"`
	From    types.Address `json:"from"`
	To      types.Address `json:"to"`
	Value   types.Uint128 `json:"value"`
}

// ApproveEvent records an allowance overwrite.
type ApproveEvent struct {
	AssetID types.Hash    `json:"asset_id"`
	Grantor types.Address `json:"grantor"`
	Grantee types.Address `json:"grantee"`
	Value   types.Uint128 `json:"value"`
}

// TransferFromEvent records a delegated transfer.
type TransferFromEvent struct {
	AssetID   types.Hash    `json:"asset_id"`
	Caller    types.Address `json:"caller"`
	Sender    types.Address `json:"sender"`
	Recipient types.Address `json:"recipient"`
	Value     types.Uint128 `json:"value"`
}

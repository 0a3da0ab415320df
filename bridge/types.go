package bridge

import (
	"encoding/json"

	"github.com/hackathon-cross/muta-cross/fixedcodec"
	"github.com/hackathon-cross/muta-cross/types"
)

// Header is a foreign-chain block header as submitted by relayers, with
// numeric fields still in their hex-string wire form.
type Header struct {
	CompactTarget    types.Hex  `json:"compact_target"`
	Version          types.Hex  `json:"version"`
	Timestamp        types.Hex  `json:"timestamp"`
	Number           types.Hex  `json:"number"`
	Epoch            types.Hex  `json:"epoch"`
	ParentHash       types.Hash `json:"parent_hash"`
	TransactionsRoot types.Hash `json:"transactions_root"`
	ProposalsHash    types.Hash `json:"proposals_hash"`
	UnclesHash       types.Hash `json:"uncles_hash"`
	Dao              types.Hash `json:"dao"`
	Nonce            types.Hex  `json:"nonce"`
}

// HeaderRecord is the parsed, persisted form of a foreign header.
type HeaderRecord struct {
	CompactTarget    uint32
	Version          uint32
	Timestamp        uint64
	Number           uint64
	Epoch            uint64
	Nonce            types.Uint128
	ParentHash       types.Hash
	TransactionsRoot types.Hash
	ProposalsHash    types.Hash
	UnclesHash       types.Hash
	Dao              types.Hash
}

// Parse converts the wire header into its persisted record, failing on
// any malformed hex field.
func (h Header) Parse() (*HeaderRecord, error) {
	target, err := h.CompactTarget.Uint32()
	if err != nil {
		return nil, errInvalidHeader(err)
	}
	version, err := h.Version.Uint32()
	if err != nil {
		return nil, errInvalidHeader(err)
	}
	timestamp, err := h.Timestamp.Uint64()
	if err != nil {
		return nil, errInvalidHeader(err)
	}
	number, err := h.Number.Uint64()
	if err != nil {
		return nil, errInvalidHeader(err)
	}
	epoch, err := h.Epoch.Uint64()
	if err != nil {
		return nil, errInvalidHeader(err)
	}
	nonce, err := h.Nonce.Uint128()
	if err != nil {
		return nil, errInvalidHeader(err)
	}
	return &HeaderRecord{
		CompactTarget:    target,
		Version:          version,
		Timestamp:        timestamp,
		Number:           number,
		Epoch:            epoch,
		Nonce:            nonce,
		ParentHash:       h.ParentHash,
		TransactionsRoot: h.TransactionsRoot,
		ProposalsHash:    h.ProposalsHash,
		UnclesHash:       h.UnclesHash,
		Dao:              h.Dao,
	}, nil
}

// MarshalBinary encodes the record in the fixed persisted layout:
// numeric fields first, then the content hashes, all at fixed offsets.
func (r *HeaderRecord) MarshalBinary() ([]byte, error) {
	w := fixedcodec.NewWriter(4 + 4 + 8 + 8 + 8 + types.Uint128Len + 5*types.HashLen)
	w.Uint32(r.CompactTarget)
	w.Uint32(r.Version)
	w.Uint64(r.Timestamp)
	w.Uint64(r.Number)
	w.Uint64(r.Epoch)
	w.Uint128(r.Nonce)
	w.Hash(r.ParentHash)
	w.Hash(r.TransactionsRoot)
	w.Hash(r.ProposalsHash)
	w.Hash(r.UnclesHash)
	w.Hash(r.Dao)
	return w.Bytes(), nil
}

// UnmarshalBinary decodes the fixed persisted layout.
func (r *HeaderRecord) UnmarshalBinary(b []byte) error {
	rd := fixedcodec.NewReader(b)
	r.CompactTarget = rd.Uint32()
	r.Version = rd.Uint32()
	r.Timestamp = rd.Uint64()
	r.Number = rd.Uint64()
	r.Epoch = rd.Uint64()
	r.Nonce = rd.Uint128()
	r.ParentHash = rd.Hash()
	r.TransactionsRoot = rd.Hash()
	r.ProposalsHash = rd.Hash()
	r.UnclesHash = rd.Hash()
	r.Dao = rd.Hash()
	return rd.Err()
}

// UpdateHeadersPayload carries a batch of foreign headers.
type UpdateHeadersPayload struct {
	Headers []Header `json:"headers"`
}

// Script is a foreign-chain script reference: the code hash it commits
// to, how the hash binds, and the script argument.
type Script struct {
	CodeHash types.Hash `json:"code_hash"`
	HashType string     `json:"hash_type"`
	Args     types.Hex  `json:"args"`
}

// OutPoint references a transaction output on the foreign chain.
type OutPoint struct {
	TxHash types.Hash `json:"tx_hash"`
	Index  types.Hex  `json:"index"`
}

// CellDep is a foreign transaction dependency.
type CellDep struct {
	OutPoint OutPoint `json:"out_point"`
	DepType  string   `json:"dep_type"`
}

// CellInput consumes a previous output.
type CellInput struct {
	Since          types.Hex `json:"since"`
	PreviousOutput OutPoint  `json:"previous_output"`
}

// CellOutput is a foreign transaction output. Type carries the token
// script for deposits; it is nil for plain value outputs.
type CellOutput struct {
	Capacity types.Hex `json:"capacity"`
	Lock     Script    `json:"lock"`
	Type     *Script   `json:"type"`
}

// Tx is a foreign-chain transaction in its wire shape.
type Tx struct {
	Version     types.Hex    `json:"version"`
	CellDeps    []CellDep    `json:"cell_deps"`
	HeaderDeps  []types.Hash `json:"header_deps"`
	Inputs      []CellInput  `json:"inputs"`
	Outputs     []CellOutput `json:"outputs"`
	OutputsData []types.Hex  `json:"outputs_data"`
	Witnesses   []types.Hex  `json:"witnesses"`
}

// Hash returns the digest identifying the transaction for proof
// verification and deposit dedup: the blake2b-256 of its canonical JSON
// form.
func (t *Tx) Hash() (types.Hash, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return types.Hash{}, err
	}
	return types.Digest(raw), nil
}

// Message is one claimed deposit: the foreign transaction plus its
// inclusion-proof path. Index is the transaction's leaf position in the
// block's transaction tree; Proof holds the sibling hashes bottom-up.
// Both are checked only when inclusion verification is enabled.
type Message struct {
	Tx    Tx           `json:"tx"`
	Index uint64       `json:"index"`
	Proof []types.Hash `json:"proof"`
}

// MessagePayload carries the deposits claimed for one foreign block.
type MessagePayload struct {
	Height   uint64    `json:"height"`
	Messages []Message `json:"messages"`
}

// BurnPayload requests redemption on the foreign chain: burn the local
// tokens and ask the settlement watcher to release to Receiver.
type BurnPayload struct {
	TokenID  types.Hash    `json:"token_id"`
	Receiver string        `json:"receiver"`
	Amount   types.Uint128 `json:"amount"`
}

// MintTokenEvent records a bridge mint. AssetName is a cosmetic display
// name sliced from the token id's hex text, not an identity field.
type MintTokenEvent struct {
	AssetID   types.Hash    `json:"asset_id"`
	AssetName string        `json:"asset_name"`
	Receiver  types.Address `json:"receiver"`
	Amount    types.Uint128 `json:"amount"`
	Kind      string        `json:"kind"`
	Topic     string        `json:"topic"`
}

// BurnTokenEvent records a redemption burn for the external settlement
// watcher. Nonce is its sole ordering and replay handle.
type BurnTokenEvent struct {
	AssetID     types.Hash    `json:"asset_id"`
	MutaSender  types.Address `json:"muta_sender"`
	CkbReceiver string        `json:"ckb_receiver"`
	Amount      types.Uint128 `json:"amount"`
	Nonce       uint64        `json:"nonce"`
	Kind        string        `json:"kind"`
	Topic       string        `json:"topic"`
}

package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/hackathon-cross/muta-cross/ledger"
	"github.com/hackathon-cross/muta-cross/service"
	"github.com/hackathon-cross/muta-cross/store"
	"github.com/hackathon-cross/muta-cross/types"
)

func testAddr(b byte) types.Address {
	var a types.Address
	a[types.AddressLen-1] = b
	return a
}

func newTestBridge(t *testing.T, cfg Config) (*Service, *ledger.Service) {
	t.Helper()
	kv := store.NewMemStore()
	assets := ledger.New(kv, zerolog.Nop())
	b := New(kv, assets, cfg, zerolog.Nop())
	if err := b.InitGenesis(service.NewContext(testAddr(1))); err != nil {
		t.Fatalf("genesis: %v", err)
	}
	return b, assets
}

// depositTx builds a well-formed deposit: the token script in the first
// output, the little-endian amount in the first output data, and the
// receiver account in the last witness.
func depositTx(cfg Config, tokenID types.Hash, amount types.Uint128, receiver types.Address) Tx {
	return Tx{
		Version: "0x0",
		Outputs: []CellOutput{{
			Capacity: "0x1234",
			Type: &Script{
				CodeHash: cfg.SudtCodeHash,
				HashType: "data",
				Args:     types.NewHex(tokenID.Bytes()),
			},
		}},
		OutputsData: []types.Hex{types.NewHex(amount.LE())},
		Witnesses:   []types.Hex{types.NewHex(receiver.Bytes())},
	}
}

func mustLedgerBalance(t *testing.T, assets *ledger.Service, user types.Address, token types.Hash) types.Uint128 {
	t.Helper()
	resp, err := assets.Balance(service.NewContext(user), ledger.GetBalancePayload{
		AssetID: token, User: user,
	})
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	return resp.Balance
}

func wireHeader(height uint64, txRoot types.Hash) Header {
	return Header{
		CompactTarget:    "0x1a9c7b1a",
		Version:          "0x0",
		Timestamp:        "0x16e62df76ed",
		Number:           types.Hex(fmt.Sprintf("0x%x", height)),
		Epoch:            "0x7080291000049",
		Nonce:            "0x78b105310011a3c6",
		TransactionsRoot: txRoot,
	}
}

func TestHeaderParse(t *testing.T) {
	root := types.Digest([]byte("txroot"))
	rec, err := wireHeader(100, root).Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rec.Number != 100 || rec.TransactionsRoot != root {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.CompactTarget != 0x1a9c7b1a || rec.Timestamp != 0x16e62df76ed {
		t.Errorf("numeric fields: %+v", rec)
	}

	t.Run("BadField", func(t *testing.T) {
		h := wireHeader(100, root)
		h.Number = "0xnope"
		if _, err := h.Parse(); !errors.Is(err, ErrInvalidHeader) {
			t.Errorf("expected ErrInvalidHeader, got %v", err)
		}
	})
}

func TestHeaderRecordCodec(t *testing.T) {
	rec, _ := wireHeader(42, types.Digest([]byte("root"))).Parse()
	rec.ParentHash = types.Digest([]byte("parent"))
	rec.Dao = types.Digest([]byte("dao"))

	raw, err := rec.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back HeaderRecord
	if err := back.UnmarshalBinary(raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != *rec {
		t.Errorf("roundtrip mismatch:\n%+v\n%+v", back, *rec)
	}
	if err := back.UnmarshalBinary(raw[:10]); err == nil {
		t.Error("expected error for truncated record")
	}
}

func TestUpdateHeaders(t *testing.T) {
	b, _ := newTestBridge(t, DefaultConfig())
	ctx := service.NewContext(testAddr(1))
	root := types.Digest([]byte("root-a"))

	err := b.UpdateHeaders(ctx, UpdateHeadersPayload{Headers: []Header{
		wireHeader(10, root),
		wireHeader(11, root),
	}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	rec, err := b.Headers.Get(10)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.TransactionsRoot != root {
		t.Errorf("root: %s", rec.TransactionsRoot)
	}

	t.Run("Overwrite", func(t *testing.T) {
		newRoot := types.Digest([]byte("root-b"))
		if err := b.UpdateHeaders(ctx, UpdateHeadersPayload{Headers: []Header{
			wireHeader(10, newRoot),
		}}); err != nil {
			t.Fatalf("update: %v", err)
		}
		rec, _ := b.Headers.Get(10)
		if rec.TransactionsRoot != newRoot {
			t.Errorf("overwrite lost: %s", rec.TransactionsRoot)
		}
	})

	t.Run("BatchAtomic", func(t *testing.T) {
		bad := wireHeader(20, root)
		bad.Epoch = "0xzz"
		err := b.UpdateHeaders(ctx, UpdateHeadersPayload{Headers: []Header{
			wireHeader(19, root),
			bad,
		}})
		if !errors.Is(err, ErrInvalidHeader) {
			t.Fatalf("expected ErrInvalidHeader, got %v", err)
		}
		// The valid header in the same batch must not land either.
		if _, err := b.Headers.Get(19); !errors.Is(err, ErrHeaderNotFound) {
			t.Errorf("expected ErrHeaderNotFound, got %v", err)
		}
	})

	t.Run("MissingHeight", func(t *testing.T) {
		if _, err := b.Headers.Get(9999); !errors.Is(err, ErrHeaderNotFound) {
			t.Errorf("expected ErrHeaderNotFound, got %v", err)
		}
	})
}

func TestVerifyInclusion(t *testing.T) {
	leaf0 := types.Digest([]byte("tx-0"))
	leaf1 := types.Digest([]byte("tx-1"))
	root := types.Digest(append(leaf0.Bytes(), leaf1.Bytes()...))

	if !VerifyInclusion(leaf0, 0, []types.Hash{leaf1}, root) {
		t.Error("left leaf proof rejected")
	}
	if !VerifyInclusion(leaf1, 1, []types.Hash{leaf0}, root) {
		t.Error("right leaf proof rejected")
	}
	if VerifyInclusion(leaf0, 1, []types.Hash{leaf1}, root) {
		t.Error("wrong index accepted")
	}
	if VerifyInclusion(leaf0, 0, []types.Hash{leaf0}, root) {
		t.Error("wrong sibling accepted")
	}

	// A single-transaction block proves with an empty path.
	if !VerifyInclusion(leaf0, 0, nil, leaf0) {
		t.Error("single-leaf proof rejected")
	}
}

func TestSubmitMessages(t *testing.T) {
	cfg := DefaultConfig()
	b, assets := newTestBridge(t, cfg)
	relayer := testAddr(1)
	receiver := testAddr(2)
	tokenID := types.Digest([]byte("sudt"))

	ctx := service.NewContext(relayer)
	err := b.SubmitMessages(ctx, MessagePayload{
		Height: 5,
		Messages: []Message{
			{Tx: depositTx(cfg, tokenID, types.U128(10000), receiver)},
		},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	// 1% relay fee: 9900 to the receiver, 100 to the relayer.
	if got := mustLedgerBalance(t, assets, receiver, tokenID); !got.Eq(types.U128(9900)) {
		t.Errorf("receiver: %s", got)
	}
	if got := mustLedgerBalance(t, assets, relayer, tokenID); !got.Eq(types.U128(100)) {
		t.Errorf("relayer: %s", got)
	}

	events := ctx.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	var first, second MintTokenEvent
	if err := json.Unmarshal(events[0].Data, &first); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := json.Unmarshal(events[1].Data, &second); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// The receiver mint precedes the relayer mint.
	if first.Receiver != receiver || !first.Amount.Eq(types.U128(9900)) {
		t.Errorf("first event: %+v", first)
	}
	if second.Receiver != relayer || !second.Amount.Eq(types.U128(100)) {
		t.Errorf("second event: %+v", second)
	}
	if first.Kind != "cross_to_muta" || first.Topic != "mint_asset" {
		t.Errorf("labels: %+v", first)
	}
	if want := "ckb_image_token" + tokenID.Hex()[2:7]; first.AssetName != want {
		t.Errorf("display name: %q, want %q", first.AssetName, want)
	}
}

func TestSubmitMessagesSmallDeposit(t *testing.T) {
	cfg := DefaultConfig()
	b, assets := newTestBridge(t, cfg)
	relayer := testAddr(1)
	receiver := testAddr(2)
	tokenID := types.Digest([]byte("sudt"))

	// Below the divisor the fee floors to zero and the whole amount
	// reaches the receiver.
	err := b.SubmitMessages(service.NewContext(relayer), MessagePayload{
		Messages: []Message{{Tx: depositTx(cfg, tokenID, types.U128(99), receiver)}},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got := mustLedgerBalance(t, assets, receiver, tokenID); !got.Eq(types.U128(99)) {
		t.Errorf("receiver: %s", got)
	}
	if got := mustLedgerBalance(t, assets, relayer, tokenID); !got.IsZero() {
		t.Errorf("relayer: %s", got)
	}
}

func TestSubmitMessagesRejects(t *testing.T) {
	cfg := DefaultConfig()
	b, _ := newTestBridge(t, cfg)
	relayer := testAddr(1)
	receiver := testAddr(2)
	tokenID := types.Digest([]byte("sudt"))

	cases := []struct {
		name   string
		mutate func(*Tx)
	}{
		{"NoOutputs", func(tx *Tx) { tx.Outputs = nil }},
		{"NoOutputsData", func(tx *Tx) { tx.OutputsData = nil }},
		{"NoTokenScript", func(tx *Tx) { tx.Outputs[0].Type = nil }},
		{"CodeHashMismatch", func(tx *Tx) { tx.Outputs[0].Type.CodeHash = types.Digest([]byte("other")) }},
		{"NoWitnesses", func(tx *Tx) { tx.Witnesses = nil }},
		{"BadArgs", func(tx *Tx) { tx.Outputs[0].Type.Args = "0x1234" }},
		{"ShortAmount", func(tx *Tx) { tx.OutputsData[0] = "0x01" }},
		{"BadWitness", func(tx *Tx) { tx.Witnesses = []types.Hex{"0xbeef"} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := depositTx(cfg, tokenID, types.U128(10000), receiver)
			tc.mutate(&tx)
			err := b.SubmitMessages(service.NewContext(relayer), MessagePayload{
				Messages: []Message{{Tx: tx}},
			})
			if !errors.Is(err, ErrInvalidDeposit) {
				t.Errorf("expected ErrInvalidDeposit, got %v", err)
			}
		})
	}
}

func TestSubmitMessagesBatchAtomic(t *testing.T) {
	cfg := DefaultConfig()
	b, assets := newTestBridge(t, cfg)
	relayer := testAddr(1)
	receiver := testAddr(2)
	tokenID := types.Digest([]byte("sudt"))

	bad := depositTx(cfg, tokenID, types.U128(500), receiver)
	bad.Witnesses = nil

	err := b.SubmitMessages(service.NewContext(relayer), MessagePayload{
		Messages: []Message{
			{Tx: depositTx(cfg, tokenID, types.U128(10000), receiver)},
			{Tx: bad},
		},
	})
	if !errors.Is(err, ErrInvalidDeposit) {
		t.Fatalf("expected ErrInvalidDeposit, got %v", err)
	}

	// The valid first message must not settle.
	_, err = assets.Balance(service.NewContext(receiver), ledger.GetBalancePayload{
		AssetID: tokenID, User: receiver,
	})
	if !errors.Is(err, ledger.ErrAssetNotFound) {
		t.Errorf("expected no wrapped asset to exist, got %v", err)
	}
}

func TestSubmitMessagesWithProofs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VerifyInclusion = true
	b, assets := newTestBridge(t, cfg)
	relayer := testAddr(1)
	receiver := testAddr(2)
	tokenID := types.Digest([]byte("sudt"))

	tx := depositTx(cfg, tokenID, types.U128(10000), receiver)
	txHash, err := tx.Hash()
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	t.Run("HeaderMissing", func(t *testing.T) {
		err := b.SubmitMessages(service.NewContext(relayer), MessagePayload{
			Height:   7,
			Messages: []Message{{Tx: tx}},
		})
		if !errors.Is(err, ErrHeaderNotFound) {
			t.Errorf("expected ErrHeaderNotFound, got %v", err)
		}
	})

	// Store a header whose transactions root is the single-tx tree.
	if err := b.UpdateHeaders(service.NewContext(relayer), UpdateHeadersPayload{
		Headers: []Header{wireHeader(7, txHash)},
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	t.Run("BadProof", func(t *testing.T) {
		err := b.SubmitMessages(service.NewContext(relayer), MessagePayload{
			Height: 7,
			Messages: []Message{
				{Tx: tx, Proof: []types.Hash{types.Digest([]byte("junk"))}},
			},
		})
		if !errors.Is(err, ErrInvalidDeposit) {
			t.Errorf("expected ErrInvalidDeposit, got %v", err)
		}
	})

	t.Run("Proven", func(t *testing.T) {
		err := b.SubmitMessages(service.NewContext(relayer), MessagePayload{
			Height:   7,
			Messages: []Message{{Tx: tx}},
		})
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		if got := mustLedgerBalance(t, assets, receiver, tokenID); !got.Eq(types.U128(9900)) {
			t.Errorf("receiver: %s", got)
		}
	})

	t.Run("Replay", func(t *testing.T) {
		err := b.SubmitMessages(service.NewContext(relayer), MessagePayload{
			Height:   7,
			Messages: []Message{{Tx: tx}},
		})
		if !errors.Is(err, ErrDepositReplayed) {
			t.Errorf("expected ErrDepositReplayed, got %v", err)
		}
		// The replayed attempt must not mint again.
		if got := mustLedgerBalance(t, assets, receiver, tokenID); !got.Eq(types.U128(9900)) {
			t.Errorf("receiver after replay: %s", got)
		}
	})
}

func TestBurnForWithdrawal(t *testing.T) {
	cfg := DefaultConfig()
	b, assets := newTestBridge(t, cfg)
	relayer := testAddr(1)
	user := testAddr(2)
	tokenID := types.Digest([]byte("sudt"))

	if err := b.SubmitMessages(service.NewContext(relayer), MessagePayload{
		Messages: []Message{{Tx: depositTx(cfg, tokenID, types.U128(10000), user)}},
	}); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	nonce, err := b.WithdrawalNonce()
	if err != nil || nonce != 0 {
		t.Fatalf("initial nonce: %d err=%v", nonce, err)
	}

	ctx := service.NewContext(user)
	err = b.BurnForWithdrawal(ctx, BurnPayload{
		TokenID:  tokenID,
		Receiver: "ckt1qyqd5eyygtdmwdr7ge736zw6z0ju6wsw7rssu8fcve",
		Amount:   types.U128(400),
	})
	if err != nil {
		t.Fatalf("burn: %v", err)
	}

	if got := mustLedgerBalance(t, assets, user, tokenID); !got.Eq(types.U128(9500)) {
		t.Errorf("balance after burn: %s", got)
	}
	nonce, _ = b.WithdrawalNonce()
	if nonce != 1 {
		t.Errorf("nonce after burn: %d", nonce)
	}

	events := ctx.Events()
	if len(events) != 1 || events[0].Name != "burn_token" {
		t.Fatalf("expected one burn_token event, got %+v", events)
	}
	var ev BurnTokenEvent
	if err := json.Unmarshal(events[0].Data, &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Nonce != 1 || ev.MutaSender != user || !ev.Amount.Eq(types.U128(400)) {
		t.Errorf("event: %+v", ev)
	}
	if ev.Kind != "cross_to_ckb" || ev.Topic != "burn_asset" {
		t.Errorf("labels: %+v", ev)
	}

	t.Run("FailedBurnKeepsNonce", func(t *testing.T) {
		err := b.BurnForWithdrawal(service.NewContext(user), BurnPayload{
			TokenID: tokenID, Receiver: "ckt1...", Amount: types.U128(1000000),
		})
		if !errors.Is(err, ledger.ErrInsufficientBalance) {
			t.Fatalf("expected ErrInsufficientBalance, got %v", err)
		}
		nonce, _ := b.WithdrawalNonce()
		if nonce != 1 {
			t.Errorf("nonce advanced on failed burn: %d", nonce)
		}
	})

	t.Run("NonceMonotonic", func(t *testing.T) {
		if err := b.BurnForWithdrawal(service.NewContext(user), BurnPayload{
			TokenID: tokenID, Receiver: "ckt1...", Amount: types.U128(100),
		}); err != nil {
			t.Fatalf("burn: %v", err)
		}
		nonce, _ := b.WithdrawalNonce()
		if nonce != 2 {
			t.Errorf("nonce: %d", nonce)
		}
	})
}

package ledger

import (
	"bytes"
	"testing"

	"github.com/hackathon-cross/muta-cross/types"
)

func TestAssetCodec(t *testing.T) {
	a := &Asset{
		ID:     types.Digest([]byte("asset")),
		Name:   "muta_token",
		Supply: types.U128(21000000),
		Issuer: testAddr(7),
	}
	raw, err := a.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back Asset
	if err := back.UnmarshalBinary(raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.ID != a.ID || back.Name != a.Name || back.Issuer != a.Issuer || !back.Supply.Eq(a.Supply) {
		t.Errorf("roundtrip mismatch: %+v", back)
	}

	if err := back.UnmarshalBinary(raw[:len(raw)-1]); err == nil {
		t.Error("expected error for truncated record")
	}
	if err := back.UnmarshalBinary(append(append([]byte{}, raw...), 0)); err == nil {
		t.Error("expected error for trailing bytes")
	}
}

func TestAccountBalanceCodec(t *testing.T) {
	b := NewAccountBalance()
	b.Value = types.U128(660)
	b.Allowance[testAddr(3)] = types.U128(10)
	b.Allowance[testAddr(1)] = types.U128(50)
	b.Allowance[testAddr(2)] = types.U128(0)

	raw, err := b.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back AccountBalance
	if err := back.UnmarshalBinary(raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Value.Eq(b.Value) || len(back.Allowance) != 3 {
		t.Errorf("roundtrip mismatch: %+v", back)
	}
	if !back.AllowanceOf(testAddr(1)).Eq(types.U128(50)) {
		t.Errorf("allowance lost: %s", back.AllowanceOf(testAddr(1)))
	}

	// Decode then re-encode must be byte-identical: the allowance map
	// serializes in address order regardless of insertion order.
	again, err := back.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(raw, again) {
		t.Errorf("re-serialization differs:\n%x\n%x", raw, again)
	}
}

func TestAccountBalanceEmpty(t *testing.T) {
	b := NewAccountBalance()
	raw, err := b.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	// Amount plus an empty entry count.
	if len(raw) != types.Uint128Len+4 {
		t.Errorf("unexpected length %d", len(raw))
	}

	var back AccountBalance
	if err := back.UnmarshalBinary(raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Value.IsZero() || len(back.Allowance) != 0 {
		t.Errorf("roundtrip mismatch: %+v", back)
	}
	if back.Allowance == nil {
		t.Error("allowance map not initialized")
	}
}

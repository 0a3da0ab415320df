package ledger

import (
	"encoding/json"

	"github.com/hackathon-cross/muta-cross/errkind"
	"github.com/hackathon-cross/muta-cross/router"
	"github.com/hackathon-cross/muta-cross/service"
)

// Cycle costs mirrored onto the call table.
const (
	readCost  = 10000
	writeCost = 21000
)

func decode[P any](payload json.RawMessage) (P, error) {
	var p P
	if err := json.Unmarshal(payload, &p); err != nil {
		return p, errkind.Wrapf(errkind.Validation, "ledger: malformed payload: %v", err)
	}
	return p, nil
}

var null = json.RawMessage("null")

func encode(v any) (json.RawMessage, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// Operations returns the ledger's call-table entries.
func (s *Service) Operations() []router.Operation {
	return []router.Operation{
		{Name: "asset.init_genesis", Access: router.AccessGenesis, Cost: 0, Handler: s.handleGenesis},
		{Name: "asset.get_native_asset", Access: router.AccessRead, Cost: readCost, Handler: s.handleNativeAsset},
		{Name: "asset.get_asset", Access: router.AccessRead, Cost: readCost, Handler: s.handleGetAsset},
		{Name: "asset.get_balance", Access: router.AccessRead, Cost: readCost, Handler: s.handleGetBalance},
		{Name: "asset.get_allowance", Access: router.AccessRead, Cost: readCost, Handler: s.handleGetAllowance},
		{Name: "asset.create_asset", Access: router.AccessWrite, Cost: writeCost, Handler: s.handleCreateAsset},
		{Name: "asset.transfer", Access: router.AccessWrite, Cost: writeCost, Handler: s.handleTransfer},
		{Name: "asset.approve", Access: router.AccessWrite, Cost: writeCost, Handler: s.handleApprove},
		{Name: "asset.transfer_from", Access: router.AccessWrite, Cost: writeCost, Handler: s.handleTransferFrom},
		{Name: "asset.mint_token", Access: router.AccessWrite, Cost: writeCost, Handler: s.handleMintToken},
		{Name: "asset.burn_token", Access: router.AccessWrite, Cost: writeCost, Handler: s.handleBurnToken},
	}
}

func (s *Service) handleGenesis(ctx *service.Context, payload json.RawMessage) (json.RawMessage, error) {
	p, err := decode[GenesisPayload](payload)
	if err != nil {
		return nil, err
	}
	if err := s.InitGenesis(ctx, p); err != nil {
		return nil, err
	}
	return null, nil
}

func (s *Service) handleNativeAsset(ctx *service.Context, _ json.RawMessage) (json.RawMessage, error) {
	asset, err := s.NativeAsset(ctx)
	if err != nil {
		return nil, err
	}
	return encode(asset)
}

func (s *Service) handleGetAsset(ctx *service.Context, payload json.RawMessage) (json.RawMessage, error) {
	p, err := decode[GetAssetPayload](payload)
	if err != nil {
		return nil, err
	}
	asset, err := s.Asset(ctx, p)
	if err != nil {
		return nil, err
	}
	return encode(asset)
}

func (s *Service) handleGetBalance(ctx *service.Context, payload json.RawMessage) (json.RawMessage, error) {
	p, err := decode[GetBalancePayload](payload)
	if err != nil {
		return nil, err
	}
	resp, err := s.Balance(ctx, p)
	if err != nil {
		return nil, err
	}
	return encode(resp)
}

func (s *Service) handleGetAllowance(ctx *service.Context, payload json.RawMessage) (json.RawMessage, error) {
	p, err := decode[GetAllowancePayload](payload)
	if err != nil {
		return nil, err
	}
	resp, err := s.Allowance(ctx, p)
	if err != nil {
		return nil, err
	}
	return encode(resp)
}

func (s *Service) handleCreateAsset(ctx *service.Context, payload json.RawMessage) (json.RawMessage, error) {
	p, err := decode[CreateAssetPayload](payload)
	if err != nil {
		return nil, err
	}
	asset, err := s.CreateAsset(ctx, p)
	if err != nil {
		return nil, err
	}
	return encode(asset)
}

func (s *Service) handleTransfer(ctx *service.Context, payload json.RawMessage) (json.RawMessage, error) {
	p, err := decode[TransferPayload](payload)
	if err != nil {
		return nil, err
	}
	if err := s.Transfer(ctx, p); err != nil {
		return nil, err
	}
	return null, nil
}

func (s *Service) handleApprove(ctx *service.Context, payload json.RawMessage) (json.RawMessage, error) {
	p, err := decode[ApprovePayload](payload)
	if err != nil {
		return nil, err
	}
	if err := s.Approve(ctx, p); err != nil {
		return nil, err
	}
	return null, nil
}

func (s *Service) handleTransferFrom(ctx *service.Context, payload json.RawMessage) (json.RawMessage, error) {
	p, err := decode[TransferFromPayload](payload)
	if err != nil {
		return nil, err
	}
	if err := s.TransferFrom(ctx, p); err != nil {
		return nil, err
	}
	return null, nil
}

func (s *Service) handleMintToken(ctx *service.Context, payload json.RawMessage) (json.RawMessage, error) {
	p, err := decode[MintTokenPayload](payload)
	if err != nil {
		return nil, err
	}
	if err := s.MintToken(ctx, p); err != nil {
		return nil, err
	}
	return null, nil
}

func (s *Service) handleBurnToken(ctx *service.Context, payload json.RawMessage) (json.RawMessage, error) {
	p, err := decode[BurnTokenPayload](payload)
	if err != nil {
		return nil, err
	}
	if err := s.BurnToken(ctx, p); err != nil {
		return nil, err
	}
	return null, nil
}

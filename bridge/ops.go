package bridge

import (
	"encoding/json"

	"github.com/hackathon-cross/muta-cross/errkind"
	"github.com/hackathon-cross/muta-cross/router"
	"github.com/hackathon-cross/muta-cross/service"
)

const writeCost = 21000

var null = json.RawMessage("null")

func decode[P any](payload json.RawMessage) (P, error) {
	var p P
	if err := json.Unmarshal(payload, &p); err != nil {
		return p, errkind.Wrapf(errkind.Validation, "bridge: malformed payload: %v", err)
	}
	return p, nil
}

// Operations returns the bridge's call-table entries.
func (s *Service) Operations() []router.Operation {
	return []router.Operation{
		{Name: "crosschain.init_genesis", Access: router.AccessGenesis, Cost: 0, Handler: s.handleGenesis},
		{Name: "crosschain.update_headers", Access: router.AccessWrite, Cost: writeCost, Handler: s.handleUpdateHeaders},
		{Name: "crosschain.submit_messages", Access: router.AccessWrite, Cost: writeCost, Handler: s.handleSubmitMessages},
		{Name: "crosschain.burn_sudt", Access: router.AccessWrite, Cost: writeCost, Handler: s.handleBurnSudt},
	}
}

func (s *Service) handleGenesis(ctx *service.Context, _ json.RawMessage) (json.RawMessage, error) {
	if err := s.InitGenesis(ctx); err != nil {
		return nil, err
	}
	return null, nil
}

func (s *Service) handleUpdateHeaders(ctx *service.Context, payload json.RawMessage) (json.RawMessage, error) {
	p, err := decode[UpdateHeadersPayload](payload)
	if err != nil {
		return nil, err
	}
	if err := s.UpdateHeaders(ctx, p); err != nil {
		return nil, err
	}
	return null, nil
}

func (s *Service) handleSubmitMessages(ctx *service.Context, payload json.RawMessage) (json.RawMessage, error) {
	p, err := decode[MessagePayload](payload)
	if err != nil {
		return nil, err
	}
	if err := s.SubmitMessages(ctx, p); err != nil {
		return nil, err
	}
	return null, nil
}

func (s *Service) handleBurnSudt(ctx *service.Context, payload json.RawMessage) (json.RawMessage, error) {
	p, err := decode[BurnPayload](payload)
	if err != nil {
		return nil, err
	}
	if err := s.BurnForWithdrawal(ctx, p); err != nil {
		return nil, err
	}
	return null, nil
}

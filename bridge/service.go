// Package bridge implements the cross-chain side of the settlement
// engine: ingestion of foreign headers, validation of claimed deposits
// minted as local wrapped tokens (minus a relay fee), and redemption
// burns tracked by a monotonic withdrawal nonce.
package bridge

import (
	"github.com/rs/zerolog"

	"github.com/hackathon-cross/muta-cross/errkind"
	"github.com/hackathon-cross/muta-cross/ledger"
	"github.com/hackathon-cross/muta-cross/service"
	"github.com/hackathon-cross/muta-cross/store"
	"github.com/hackathon-cross/muta-cross/types"
)

// ServiceName is the name bridge events carry.
const ServiceName = "crosschain"

// DefaultSudtCodeHash is the token-script code hash deposits must commit
// to on the foreign chain.
const DefaultSudtCodeHash = "0x57dd0067814dab356e05c6def0d094bb79776711e68ffdfad2df6a7f877f7db6"

var (
	keyNonce   = []byte("w")
	prefixSeen = []byte("p")
)

// Config selects the foreign token script and the deposit trust mode.
type Config struct {
	// SudtCodeHash is the expected token-script code hash.
	SudtCodeHash types.Hash
	// FeeDivisor sets the relay fee: fee = amount / FeeDivisor.
	FeeDivisor uint64
	// VerifyInclusion, when true, requires every deposit message to
	// prove its transaction against the stored header at the claimed
	// height and rejects replays of settled deposits. The default is
	// false: the legacy trust-on-read mode, which mints against the
	// message's claimed content as-is.
	VerifyInclusion bool
}

// DefaultConfig returns the legacy configuration.
func DefaultConfig() Config {
	codeHash, err := types.HashFromHex(DefaultSudtCodeHash)
	if err != nil {
		panic(err)
	}
	return Config{
		SudtCodeHash:    codeHash,
		FeeDivisor:      100,
		VerifyInclusion: false,
	}
}

// Service is the bridge: the header store, deposit ingress and
// redemption egress over one shared key space, driving privileged mints
// and burns through the asset ledger.
type Service struct {
	kv     store.Store
	assets *ledger.Service
	cfg    Config
	log    zerolog.Logger

	Headers *HeaderStore
}

// New builds the bridge over kv, settling through assets.
func New(kv store.Store, assets *ledger.Service, cfg Config, log zerolog.Logger) *Service {
	if cfg.FeeDivisor == 0 {
		cfg.FeeDivisor = 100
	}
	return &Service{
		kv:      kv,
		assets:  assets,
		cfg:     cfg,
		log:     log.With().Str("service", ServiceName).Logger(),
		Headers: NewHeaderStore(kv),
	}
}

// InitGenesis zeroes the withdrawal nonce. Runs exactly once at
// bootstrap.
func (s *Service) InitGenesis(ctx *service.Context) error {
	return store.NewCounter(s.kv, keyNonce).Set(0)
}

// WithdrawalNonce returns the current nonce value.
func (s *Service) WithdrawalNonce() (uint64, error) {
	return store.NewCounter(s.kv, keyNonce).Get()
}

// UpdateHeaders parses and stores each submitted header by height,
// overwriting any existing entry. The batch is atomic: one malformed
// header rejects the whole call.
func (s *Service) UpdateHeaders(ctx *service.Context, p UpdateHeadersPayload) error {
	staged := store.NewStaged(s.kv)
	for _, h := range p.Headers {
		rec, err := h.Parse()
		if err != nil {
			return err
		}
		if err := putHeader(staged, rec); err != nil {
			return err
		}
	}
	if err := staged.Commit(); err != nil {
		return err
	}
	s.log.Debug().Int("headers", len(p.Headers)).Msg("foreign headers stored")
	return nil
}

// SubmitMessages settles a batch of claimed deposits: each message is
// validated against the expected script commitment, decoded, and minted
// to its receiver minus the relay fee, which is minted to the calling
// relayer. The receiver mint event precedes the relayer mint event for
// every message. The batch commits atomically.
func (s *Service) SubmitMessages(ctx *service.Context, p MessagePayload) error {
	staged := store.NewStaged(s.kv)
	seen := store.NewMap(staged, prefixSeen)
	elevated := ctx.WithCapability(service.CapCrosschain)
	relayer := ctx.Caller()

	for _, m := range p.Messages {
		tx := m.Tx
		if err := s.checkTx(&tx); err != nil {
			return err
		}

		args, err := tx.Outputs[0].Type.Args.Bytes()
		if err != nil {
			return errInvalidDeposit("token script args is not valid hex")
		}
		tokenID, err := types.HashFromBytes(args)
		if err != nil {
			return errInvalidDeposit("token script args is not a 32-byte id")
		}

		data, err := tx.OutputsData[0].Bytes()
		if err != nil || len(data) < types.Uint128Len {
			return errInvalidDeposit("output data does not carry a u128 amount")
		}
		amount, err := types.Uint128FromLE(data[:types.Uint128Len])
		if err != nil {
			return err
		}

		receiver, err := types.AddressFromHex(tx.Witnesses[len(tx.Witnesses)-1].String())
		if err != nil {
			return errInvalidDeposit("witness does not carry a receiver account")
		}

		if s.cfg.VerifyInclusion {
			if err := s.proveDeposit(staged, seen, p.Height, &m); err != nil {
				return err
			}
		}

		fee := amount.Div(s.cfg.FeeDivisor)
		net, err := amount.Sub(fee)
		if err != nil {
			return err
		}

		displayName := "ckb_image_token" + tokenID.Hex()[2:7]

		mint := ledger.MintTokenPayload{TokenID: tokenID, Receiver: receiver, Amount: net}
		if err := s.assets.MintTokenView(elevated, staged, mint); err != nil {
			return err
		}
		ev := MintTokenEvent{
			AssetID:   tokenID,
			AssetName: displayName,
			Receiver:  receiver,
			Amount:    net,
			Kind:      "cross_to_muta",
			Topic:     "mint_asset",
		}
		if err := ctx.Emit(ServiceName, "mint_token", ev); err != nil {
			return err
		}

		relayMint := ledger.MintTokenPayload{TokenID: tokenID, Receiver: relayer, Amount: fee}
		if err := s.assets.MintTokenView(elevated, staged, relayMint); err != nil {
			return err
		}
		relayEv := MintTokenEvent{
			AssetID:   tokenID,
			AssetName: displayName,
			Receiver:  relayer,
			Amount:    fee,
			Kind:      "cross_to_muta",
			Topic:     "mint_asset",
		}
		if err := ctx.Emit(ServiceName, "mint_token", relayEv); err != nil {
			return err
		}
	}

	if err := staged.Commit(); err != nil {
		return err
	}
	s.log.Debug().Int("messages", len(p.Messages)).Uint64("height", p.Height).Msg("deposits settled")
	return nil
}

// checkTx validates the deposit transaction's shape: the first output
// must commit to the configured token script, and the witness set must
// be non-empty to carry the destination account.
func (s *Service) checkTx(tx *Tx) error {
	if len(tx.Outputs) == 0 || len(tx.OutputsData) == 0 {
		return errInvalidDeposit("transaction has no outputs")
	}
	out := tx.Outputs[0]
	if out.Type == nil {
		return errInvalidDeposit("first output carries no token script")
	}
	if out.Type.CodeHash != s.cfg.SudtCodeHash {
		return errInvalidDeposit("token script code hash mismatch")
	}
	if len(tx.Witnesses) == 0 {
		return errInvalidDeposit("transaction has no witnesses")
	}
	return nil
}

// proveDeposit binds the message's transaction to the stored header at
// height via its merkle path and rejects replays of settled deposits.
func (s *Service) proveDeposit(sv store.Store, seen *store.Map, height uint64, m *Message) error {
	header, err := getHeader(sv, height)
	if err != nil {
		return err
	}
	txHash, err := m.Tx.Hash()
	if err != nil {
		return err
	}
	if !VerifyInclusion(txHash, m.Index, m.Proof, header.TransactionsRoot) {
		return errInvalidDeposit("inclusion proof does not match transactions root")
	}
	if ok, err := seen.Has(txHash.Bytes()); err != nil {
		return err
	} else if ok {
		return errkind.Wrap(errkind.StateConflict, ErrDepositReplayed)
	}
	return seen.Put(txHash.Bytes(), []byte{1})
}

// BurnForWithdrawal burns the caller's local tokens and records the
// redemption for the external settlement watcher. The nonce advances by
// exactly one per successful burn and never on failure; it is the
// watcher's sole ordering and replay handle.
func (s *Service) BurnForWithdrawal(ctx *service.Context, p BurnPayload) error {
	staged := store.NewStaged(s.kv)
	elevated := ctx.WithCapability(service.CapCrosschain)

	burn := ledger.BurnTokenPayload{TokenID: p.TokenID, User: ctx.Caller(), Amount: p.Amount}
	if err := s.assets.BurnTokenView(elevated, staged, burn); err != nil {
		return err
	}

	nonce, err := store.NewCounter(staged, keyNonce).Add(1)
	if err != nil {
		return err
	}

	ev := BurnTokenEvent{
		AssetID:     p.TokenID,
		MutaSender:  ctx.Caller(),
		CkbReceiver: p.Receiver,
		Amount:      p.Amount,
		Nonce:       nonce,
		Kind:        "cross_to_ckb",
		Topic:       "burn_asset",
	}
	if err := ctx.Emit(ServiceName, "burn_token", ev); err != nil {
		return err
	}

	if err := staged.Commit(); err != nil {
		return err
	}
	s.log.Debug().Uint64("nonce", nonce).Str("asset", p.TokenID.Hex()).Msg("withdrawal recorded")
	return nil
}

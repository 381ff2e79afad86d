package blockchain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/timertimertimer/kfudao/internal/domain"
	"github.com/timertimertimer/kfudao/internal/domain/bindings"
	"github.com/timertimertimer/kfudao/internal/domain/config"
	"github.com/timertimertimer/kfudao/internal/domain/models"
	"github.com/timertimertimer/kfudao/internal/usecase"
)

// backend is the part of ethclient the adapter uses
type backend interface {
	BlockNumber(ctx context.Context) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	ChainID(ctx context.Context) (*big.Int, error)
	Close()
}

// ClientAdapter reads governor state over JSON-RPC and relays transactions to the wallet
type ClientAdapter struct {
	backend  backend
	wallet   usecase.Wallet
	governor *bindings.Governor
	token    *bindings.GovernanceToken

	governorAddr common.Address
	tokenAddr    common.Address
	chainID      uint64
	timeout      time.Duration
	decimals     int32
	log          *slog.Logger

	metaMu     sync.Mutex
	metaLoaded bool
	symbol     string
}

var _ usecase.ChainClient = (*ClientAdapter)(nil)

// NewClientAdapter dials the configured RPC endpoint
func NewClientAdapter(cfg *config.RuntimeConfig, wallet usecase.Wallet, log *slog.Logger) (*ClientAdapter, func(), error) {
	if cfg.Network.RPCURL == "" {
		return nil, nil, fmt.Errorf("rpc url is not configured")
	}
	client, err := ethclient.Dial(cfg.Network.RPCURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}
	adapter := newClientAdapter(client, cfg, wallet, log)
	return adapter, client.Close, nil
}

func newClientAdapter(b backend, cfg *config.RuntimeConfig, wallet usecase.Wallet, log *slog.Logger) *ClientAdapter {
	return &ClientAdapter{
		backend:      b,
		wallet:       wallet,
		governor:     bindings.NewGovernor(),
		token:        bindings.NewGovernanceToken(),
		governorAddr: common.HexToAddress(cfg.Contracts.Governor),
		tokenAddr:    common.HexToAddress(cfg.Contracts.Token),
		chainID:      cfg.Network.ChainID,
		timeout:      cfg.RPCTimeout,
		decimals:     cfg.TokenDecimals,
		log:          log.With("component", "ChainClient"),
	}
}

func (c *ClientAdapter) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// CheckNetwork verifies the node serves the configured chain
func (c *ClientAdapter) CheckNetwork(ctx context.Context) error {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	networkChainID, err := c.backend.ChainID(ctx)
	if err != nil {
		return classify("get chain ID", err)
	}
	if c.chainID != 0 && networkChainID.Uint64() != c.chainID {
		return fmt.Errorf("%w: expected chain %d, node serves %d", domain.ErrNetworkMismatch, c.chainID, networkChainID.Uint64())
	}
	return nil
}

// LatestBlockNumber returns the chain head
func (c *ClientAdapter) LatestBlockNumber(ctx context.Context) (uint64, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	n, err := c.backend.BlockNumber(ctx)
	if err != nil {
		return 0, classify("get block number", err)
	}
	return n, nil
}

// BlockByNumber returns the header of a mined block
func (c *ClientAdapter) BlockByNumber(ctx context.Context, number uint64) (*models.Block, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	header, err := c.backend.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if errors.Is(err, ethereum.NotFound) || (err == nil && header == nil) {
		return nil, fmt.Errorf("block %d: %w", number, domain.ErrBlockNotFound)
	}
	if err != nil {
		return nil, classify(fmt.Sprintf("get block %d", number), err)
	}
	return &models.Block{Number: header.Number.Uint64(), Timestamp: header.Time}, nil
}

// ProposalCreatedEvents returns decoded ProposalCreated logs in chain order.
// Logs that cannot be decoded are skipped.
func (c *ClientAdapter) ProposalCreatedEvents(ctx context.Context, from, to uint64) ([]models.RawProposalEvent, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	logs, err := c.backend.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{c.governorAddr},
		Topics:    [][]common.Hash{{c.governor.ProposalCreatedTopic()}},
	})
	if err != nil {
		return nil, classify("filter ProposalCreated logs", err)
	}

	events := make([]models.RawProposalEvent, 0, len(logs))
	for i := range logs {
		event, err := c.decodeProposalCreated(&logs[i])
		if err != nil {
			c.log.Warn("skipping undecodable ProposalCreated log",
				"tx", logs[i].TxHash.Hex(),
				"index", logs[i].Index,
				"error", err,
			)
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

func (c *ClientAdapter) decodeProposalCreated(log *types.Log) (models.RawProposalEvent, error) {
	decoded, err := c.governor.UnpackProposalCreatedEvent(log)
	if err != nil {
		return models.RawProposalEvent{}, err
	}
	if decoded.ProposalId == nil || decoded.VoteStart == nil || decoded.VoteEnd == nil {
		return models.RawProposalEvent{}, fmt.Errorf("incomplete event")
	}
	if !decoded.VoteStart.IsUint64() || !decoded.VoteEnd.IsUint64() {
		return models.RawProposalEvent{}, fmt.Errorf("vote window out of range: %s-%s", decoded.VoteStart, decoded.VoteEnd)
	}

	return models.RawProposalEvent{
		ProposalID:  decoded.ProposalId,
		Proposer:    decoded.Proposer.Hex(),
		VoteStart:   decoded.VoteStart.Uint64(),
		VoteEnd:     decoded.VoteEnd.Uint64(),
		Description: decoded.Description,
		BlockNumber: log.BlockNumber,
		TxHash:      log.TxHash.Hex(),
	}, nil
}

func (c *ClientAdapter) call(ctx context.Context, to common.Address, data []byte, op string) ([]byte, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, classify(op, err)
	}
	return out, nil
}

// ProposalVotes returns the (for, against, abstain) tallies
func (c *ClientAdapter) ProposalVotes(ctx context.Context, proposalID *big.Int) (models.Token, models.Token, models.Token, error) {
	var zero models.Token

	data, err := c.governor.PackProposalVotes(proposalID)
	if err != nil {
		return zero, zero, zero, fmt.Errorf("failed to pack proposalVotes: %w", err)
	}
	out, err := c.call(ctx, c.governorAddr, data, "call proposalVotes")
	if err != nil {
		return zero, zero, zero, err
	}
	votes, err := c.governor.UnpackProposalVotes(out)
	if err != nil {
		return zero, zero, zero, fmt.Errorf("%w: failed to unpack proposalVotes: %v", domain.ErrChainRPC, err)
	}

	symbol, decimals := c.tokenMeta(ctx)
	return models.NewToken(votes.ForVotes, symbol, decimals),
		models.NewToken(votes.AgainstVotes, symbol, decimals),
		models.NewToken(votes.AbstainVotes, symbol, decimals),
		nil
}

// HasVoted asks the governor whether address voted on the proposal
func (c *ClientAdapter) HasVoted(ctx context.Context, proposalID *big.Int, address string) (bool, error) {
	if !common.IsHexAddress(address) {
		return false, fmt.Errorf("%w: %s", domain.ErrInvalidAddress, address)
	}
	data, err := c.governor.PackHasVoted(proposalID, common.HexToAddress(address))
	if err != nil {
		return false, fmt.Errorf("failed to pack hasVoted: %w", err)
	}
	out, err := c.call(ctx, c.governorAddr, data, "call hasVoted")
	if err != nil {
		return false, err
	}
	voted, err := c.governor.UnpackHasVoted(out)
	if err != nil {
		return false, fmt.Errorf("%w: failed to unpack hasVoted: %v", domain.ErrChainRPC, err)
	}
	return voted, nil
}

// TokenSymbol returns the governance token symbol, cached after the first success
func (c *ClientAdapter) TokenSymbol(ctx context.Context) (string, error) {
	c.metaMu.Lock()
	defer c.metaMu.Unlock()
	if err := c.loadTokenMetaLocked(ctx); err != nil {
		return "", err
	}
	return c.symbol, nil
}

// tokenMeta never fails; tallies are still useful without a symbol
func (c *ClientAdapter) tokenMeta(ctx context.Context) (string, int32) {
	c.metaMu.Lock()
	defer c.metaMu.Unlock()
	if err := c.loadTokenMetaLocked(ctx); err != nil {
		c.log.Debug("token metadata unavailable", "error", err)
	}
	return c.symbol, c.decimals
}

func (c *ClientAdapter) loadTokenMetaLocked(ctx context.Context) error {
	if c.metaLoaded {
		return nil
	}

	data, err := c.token.PackSymbol()
	if err != nil {
		return fmt.Errorf("failed to pack symbol: %w", err)
	}
	out, err := c.call(ctx, c.tokenAddr, data, "call symbol")
	if err != nil {
		return err
	}
	symbol, err := c.token.UnpackSymbol(out)
	if err != nil {
		return fmt.Errorf("%w: failed to unpack symbol: %v", domain.ErrChainRPC, err)
	}

	if data, err = c.token.PackDecimals(); err == nil {
		if out, err = c.call(ctx, c.tokenAddr, data, "call decimals"); err == nil {
			if decimals, err := c.token.UnpackDecimals(out); err == nil {
				c.decimals = int32(decimals)
			}
		}
	}

	c.symbol = symbol
	c.metaLoaded = true
	return nil
}

// SubmitTransaction asks the wallet to sign and send a transaction
func (c *ClientAdapter) SubmitTransaction(ctx context.Context, from, to string, data []byte) (*models.TransactionResult, error) {
	raw, err := c.wallet.SendRequest(ctx, "eth_sendTransaction", map[string]any{
		"from": from,
		"to":   to,
		"data": hexutil.Encode(data),
	})
	if err != nil {
		return nil, err
	}

	var hash string
	if err := json.Unmarshal(raw, &hash); err != nil {
		return nil, fmt.Errorf("unexpected eth_sendTransaction result %s: %w", string(raw), err)
	}
	return &models.TransactionResult{Hash: hash, From: from, To: to}, nil
}

// classify wraps err with ErrChainRPC when the node answered, ErrChainUnavailable otherwise
func classify(op string, err error) error {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return fmt.Errorf("failed to %s: %w: %w", op, domain.ErrChainRPC, err)
	}
	return fmt.Errorf("failed to %s: %w: %w", op, domain.ErrChainUnavailable, err)
}

package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/timertimertimer/kfudao/internal/domain"
	"github.com/timertimertimer/kfudao/internal/domain/config"
	"github.com/timertimertimer/kfudao/internal/usecase"
)

// EIP-1193 user rejection
const userRejectedCode = 4001

type dialFunc func(ctx context.Context) (*rpc.Client, error)

// RPCWallet talks to an external signer over JSON-RPC (eth_requestAccounts, eth_sendTransaction)
type RPCWallet struct {
	dial    dialFunc
	chainID uint64
	log     *slog.Logger

	mu        sync.Mutex
	client    *rpc.Client
	connected bool
	selected  string
}

var _ usecase.Wallet = (*RPCWallet)(nil)

// NewRPCWallet creates a wallet for the configured signer endpoint. Nothing is dialed until Connect.
func NewRPCWallet(cfg *config.RuntimeConfig, log *slog.Logger) (*RPCWallet, func()) {
	url := cfg.WalletURL
	w := newRPCWallet(func(ctx context.Context) (*rpc.Client, error) {
		if url == "" {
			return nil, fmt.Errorf("%w: wallet url is not configured", domain.ErrWalletNotConnected)
		}
		return rpc.DialContext(ctx, url)
	}, cfg.Network.ChainID, log)
	return w, func() { w.Disconnect(true) }
}

func newRPCWallet(dial dialFunc, chainID uint64, log *slog.Logger) *RPCWallet {
	return &RPCWallet{
		dial:    dial,
		chainID: chainID,
		log:     log.With("component", "Wallet"),
	}
}

// Connect requests accounts from the signer and selects the first one
func (w *RPCWallet) Connect(ctx context.Context) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.client == nil {
		client, err := w.dial(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to reach wallet: %w", err)
		}
		w.client = client
	}

	if w.chainID != 0 {
		var chainID hexutil.Uint64
		if err := w.client.CallContext(ctx, &chainID, "eth_chainId"); err != nil {
			return "", mapWalletError("eth_chainId", err)
		}
		if uint64(chainID) != w.chainID {
			return "", fmt.Errorf("%w: wallet is on chain %d, expected %d", domain.ErrNetworkMismatch, uint64(chainID), w.chainID)
		}
	}

	var accounts []string
	if err := w.client.CallContext(ctx, &accounts, "eth_requestAccounts"); err != nil {
		return "", mapWalletError("eth_requestAccounts", err)
	}
	if len(accounts) == 0 || !common.IsHexAddress(accounts[0]) {
		return "", fmt.Errorf("%w: no account returned", domain.ErrWalletRejected)
	}

	w.connected = true
	w.selected = common.HexToAddress(accounts[0]).Hex()
	w.log.Debug("connected", "address", w.selected)
	return w.selected, nil
}

// SelectedAddress returns the address chosen on Connect, empty when disconnected
func (w *RPCWallet) SelectedAddress() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.connected {
		return ""
	}
	return w.selected
}

// SendRequest forwards a JSON-RPC request to the signer
func (w *RPCWallet) SendRequest(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	w.mu.Lock()
	client, connected := w.client, w.connected
	w.mu.Unlock()

	if !connected || client == nil {
		return nil, domain.ErrWalletNotConnected
	}

	var result json.RawMessage
	if err := client.CallContext(ctx, &result, method, params...); err != nil {
		return nil, mapWalletError(method, err)
	}
	return result, nil
}

// Disconnect drops the connection; clearSession also forgets the selected account and closes the transport
func (w *RPCWallet) Disconnect(clearSession bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.connected = false
	if !clearSession {
		return
	}
	w.selected = ""
	if w.client != nil {
		w.client.Close()
		w.client = nil
	}
}

func mapWalletError(method string, err error) error {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == userRejectedCode {
		return fmt.Errorf("%s: %w", method, domain.ErrWalletRejected)
	}
	return fmt.Errorf("wallet %s failed: %w", method, err)
}

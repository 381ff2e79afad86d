package blockchain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/url"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/timertimertimer/kfudao/internal/domain"
	"github.com/timertimertimer/kfudao/internal/domain/bindings"
	"github.com/timertimertimer/kfudao/internal/domain/config"
)

const (
	governorHex = "0x1000000000000000000000000000000000000001"
	tokenHex    = "0x2000000000000000000000000000000000000002"
	voterHex    = "0x3000000000000000000000000000000000000003"
)

type rpcCodeError struct{ code int }

func (e rpcCodeError) Error() string  { return fmt.Sprintf("rpc error %d", e.code) }
func (e rpcCodeError) ErrorCode() int { return e.code }

// fakeBackend answers contract calls by method selector
type fakeBackend struct {
	head      uint64
	headErr   error
	headers   map[uint64]uint64
	logs      []types.Log
	logsErr   error
	calls     map[string][]byte
	callErr   error
	chainID   *big.Int
	lastQuery ethereum.FilterQuery
	callCount map[string]int
}

func (b *fakeBackend) BlockNumber(ctx context.Context) (uint64, error) { return b.head, b.headErr }

func (b *fakeBackend) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	ts, ok := b.headers[number.Uint64()]
	if !ok {
		return nil, ethereum.NotFound
	}
	return &types.Header{Number: new(big.Int).Set(number), Time: ts}, nil
}

func (b *fakeBackend) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	b.lastQuery = q
	return b.logs, b.logsErr
}

func (b *fakeBackend) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if b.callErr != nil {
		return nil, b.callErr
	}
	selector := common.Bytes2Hex(msg.Data[:4])
	if b.callCount == nil {
		b.callCount = map[string]int{}
	}
	b.callCount[selector]++
	out, ok := b.calls[selector]
	if !ok {
		return nil, rpcCodeError{code: 3}
	}
	return out, nil
}

func (b *fakeBackend) ChainID(ctx context.Context) (*big.Int, error) { return b.chainID, nil }
func (b *fakeBackend) Close()                                        {}

type mockWallet struct {
	mock.Mock
}

func (m *mockWallet) Connect(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockWallet) SelectedAddress() string { return m.Called().String(0) }

func (m *mockWallet) SendRequest(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	args := m.Called(ctx, method, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *mockWallet) Disconnect(clearSession bool) { m.Called(clearSession) }

func testAdapter(b *fakeBackend, wallet *mockWallet) *ClientAdapter {
	cfg := &config.RuntimeConfig{
		Network:       config.Network{ChainID: 1337},
		Contracts:     config.Contracts{Governor: governorHex, Token: tokenHex},
		TokenDecimals: 18,
	}
	return newClientAdapter(b, cfg, wallet, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func methodSelector(name string) string {
	if m, ok := bindings.NewGovernor().ABI().Methods[name]; ok {
		return common.Bytes2Hex(m.ID)
	}
	return common.Bytes2Hex(bindings.NewGovernanceToken().ABI().Methods[name].ID)
}

func proposalCreatedLog(t *testing.T, id int64, start, end uint64, description string) types.Log {
	t.Helper()
	gov := bindings.NewGovernor()
	ev := gov.ABI().Events["ProposalCreated"]
	data, err := ev.Inputs.NonIndexed().Pack(
		big.NewInt(id),
		common.HexToAddress(voterHex),
		[]common.Address{common.HexToAddress(voterHex)},
		[]*big.Int{big.NewInt(0)},
		[]string{""},
		[][]byte{{0x00}},
		new(big.Int).SetUint64(start),
		new(big.Int).SetUint64(end),
		description,
	)
	require.NoError(t, err)
	return types.Log{
		Address:     common.HexToAddress(governorHex),
		Topics:      []common.Hash{ev.ID},
		Data:        data,
		BlockNumber: 10,
		TxHash:      common.HexToHash("0xabc"),
	}
}

func TestBlockByNumber(t *testing.T) {
	b := &fakeBackend{headers: map[uint64]uint64{100: 1000}}
	c := testAdapter(b, nil)

	block, err := c.BlockByNumber(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), block.Timestamp)
	assert.Equal(t, int64(1000), block.Time().Unix())

	_, err = c.BlockByNumber(context.Background(), 200)
	assert.ErrorIs(t, err, domain.ErrBlockNotFound)
}

func TestProposalCreatedEvents(t *testing.T) {
	good := proposalCreatedLog(t, 7, 100, 200, "Buy a 3D printer")
	broken := good
	broken.Data = []byte{0x01, 0x02}

	b := &fakeBackend{logs: []types.Log{good, broken}}
	c := testAdapter(b, nil)

	events, err := c.ProposalCreatedEvents(context.Background(), 0, 500)
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, int64(7), ev.ProposalID.Int64())
	assert.Equal(t, common.HexToAddress(voterHex).Hex(), ev.Proposer)
	assert.Equal(t, uint64(100), ev.VoteStart)
	assert.Equal(t, uint64(200), ev.VoteEnd)
	assert.Equal(t, "Buy a 3D printer", ev.Description)
	assert.Equal(t, uint64(10), ev.BlockNumber)

	assert.Equal(t, uint64(0), b.lastQuery.FromBlock.Uint64())
	assert.Equal(t, uint64(500), b.lastQuery.ToBlock.Uint64())
	assert.Equal(t, []common.Address{common.HexToAddress(governorHex)}, b.lastQuery.Addresses)
	assert.Equal(t, bindings.NewGovernor().ProposalCreatedTopic(), b.lastQuery.Topics[0][0])
}

func TestProposalVotes(t *testing.T) {
	gov := bindings.NewGovernor().ABI()
	tok := bindings.NewGovernanceToken().ABI()

	votes, err := gov.Methods["proposalVotes"].Outputs.Pack(
		big.NewInt(1),
		new(big.Int).Mul(big.NewInt(5), big.NewInt(1e18)),
		big.NewInt(0),
	)
	require.NoError(t, err)
	symbol, err := tok.Methods["symbol"].Outputs.Pack("KFU")
	require.NoError(t, err)
	decimals, err := tok.Methods["decimals"].Outputs.Pack(uint8(18))
	require.NoError(t, err)

	b := &fakeBackend{calls: map[string][]byte{
		methodSelector("proposalVotes"): votes,
		methodSelector("symbol"):        symbol,
		methodSelector("decimals"):      decimals,
	}}
	c := testAdapter(b, nil)

	forVotes, against, abstain, err := c.ProposalVotes(context.Background(), big.NewInt(7))
	require.NoError(t, err)
	assert.Equal(t, "5", forVotes.Value().String())
	assert.Equal(t, "KFU", forVotes.Symbol())
	assert.Equal(t, "1", against.Amount().String())
	assert.True(t, abstain.IsZero())

	_, _, _, err = c.ProposalVotes(context.Background(), big.NewInt(8))
	require.NoError(t, err)
	assert.Equal(t, 1, b.callCount[methodSelector("symbol")])

	sym, err := c.TokenSymbol(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "KFU", sym)
}

func TestHasVoted(t *testing.T) {
	gov := bindings.NewGovernor().ABI()
	yes, err := gov.Methods["hasVoted"].Outputs.Pack(true)
	require.NoError(t, err)

	b := &fakeBackend{calls: map[string][]byte{methodSelector("hasVoted"): yes}}
	c := testAdapter(b, nil)

	voted, err := c.HasVoted(context.Background(), big.NewInt(7), voterHex)
	require.NoError(t, err)
	assert.True(t, voted)

	_, err = c.HasVoted(context.Background(), big.NewInt(7), "not-an-address")
	assert.ErrorIs(t, err, domain.ErrInvalidAddress)
}

func TestErrorClassification(t *testing.T) {
	t.Run("node errors are rpc errors", func(t *testing.T) {
		c := testAdapter(&fakeBackend{headErr: rpcCodeError{code: -32000}}, nil)
		_, err := c.LatestBlockNumber(context.Background())
		assert.ErrorIs(t, err, domain.ErrChainRPC)
		assert.False(t, errors.Is(err, domain.ErrChainUnavailable))
	})

	t.Run("transport errors are unavailability", func(t *testing.T) {
		dialErr := &url.Error{Op: "Post", URL: "http://127.0.0.1:1", Err: errors.New("connection refused")}
		c := testAdapter(&fakeBackend{logsErr: dialErr}, nil)
		_, err := c.ProposalCreatedEvents(context.Background(), 0, 1)
		assert.ErrorIs(t, err, domain.ErrChainUnavailable)
	})

	t.Run("undecodable call output is an rpc error", func(t *testing.T) {
		c := testAdapter(&fakeBackend{calls: map[string][]byte{methodSelector("hasVoted"): {0x01}}}, nil)
		_, err := c.HasVoted(context.Background(), big.NewInt(1), voterHex)
		assert.ErrorIs(t, err, domain.ErrChainRPC)
	})
}

func TestCheckNetwork(t *testing.T) {
	c := testAdapter(&fakeBackend{chainID: big.NewInt(1337)}, nil)
	require.NoError(t, c.CheckNetwork(context.Background()))

	c = testAdapter(&fakeBackend{chainID: big.NewInt(1)}, nil)
	assert.ErrorIs(t, c.CheckNetwork(context.Background()), domain.ErrNetworkMismatch)
}

func TestSubmitTransaction(t *testing.T) {
	wallet := new(mockWallet)
	wallet.On("SendRequest", mock.Anything, "eth_sendTransaction", mock.MatchedBy(func(params []any) bool {
		if len(params) != 1 {
			return false
		}
		tx, ok := params[0].(map[string]any)
		return ok && tx["from"] == voterHex && tx["to"] == governorHex && tx["data"] == "0xdeadbeef"
	})).Return(json.RawMessage(`"0x1234"`), nil)

	c := testAdapter(&fakeBackend{}, wallet)
	result, err := c.SubmitTransaction(context.Background(), voterHex, governorHex, []byte{0xde, 0xad, 0xbe, 0xef})
	require.NoError(t, err)
	assert.Equal(t, "0x1234", result.Hash)
	wallet.AssertExpectations(t)

	wallet = new(mockWallet)
	wallet.On("SendRequest", mock.Anything, "eth_sendTransaction", mock.Anything).Return(nil, domain.ErrWalletRejected)
	c = testAdapter(&fakeBackend{}, wallet)
	_, err = c.SubmitTransaction(context.Background(), voterHex, governorHex, nil)
	assert.ErrorIs(t, err, domain.ErrWalletRejected)
}

func TestEncodedSelectorsMatchGovernor(t *testing.T) {
	gov := bindings.NewGovernor()
	data, err := gov.PackCastVote(big.NewInt(1), 1)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, common.FromHex("0x56781388")))
}

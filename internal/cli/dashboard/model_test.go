package dashboard

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timertimertimer/kfudao/internal/domain/models"
	"github.com/timertimertimer/kfudao/internal/usecase"
)

type fakeBoard struct {
	mu    sync.Mutex
	views []usecase.ProposalView
	calls int
}

func (b *fakeBoard) Views(ctx context.Context, now time.Time) []usecase.ProposalView {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	return b.views
}

func (b *fakeBoard) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

type fakeHead struct{ number uint64 }

func (h *fakeHead) Publish(n uint64) { h.number = n }
func (h *fakeHead) Latest() (models.ChainHead, bool) {
	return models.ChainHead{Number: h.number}, h.number > 0
}

type fakeSession struct {
	state        usecase.SessionState
	connectErr   error
	disconnected bool
}

func (s *fakeSession) Snapshot() usecase.SessionState { return s.state }
func (s *fakeSession) WalletBinding() usecase.BindingStatus {
	if !s.state.WalletConnected {
		return usecase.BindingNotConnected
	}
	return usecase.BindingBound
}
func (s *fakeSession) ConnectWallet(ctx context.Context) (string, error) {
	if s.connectErr != nil {
		return "", s.connectErr
	}
	s.state.WalletConnected = true
	s.state.ConnectedAddress = "0xabc"
	return "0xabc", nil
}
func (s *fakeSession) Disconnect(clearSession bool) {
	s.disconnected = true
	s.state.WalletConnected = false
}

func proposalView(id int64, description string) usecase.ProposalView {
	return usecase.ProposalView{
		Proposal: &models.Proposal{
			ID:          big.NewInt(id),
			Description: description,
			VotesFor:    models.NewToken(nil, "KFU", 18),
		},
		Eligibility: usecase.Eligibility{CanVote: true, Band: usecase.BandLow, TimeLeft: time.Minute},
	}
}

func newTestModel() (Model, *fakeBoard, *fakeSession) {
	color.NoColor = true
	board := &fakeBoard{views: []usecase.ProposalView{proposalView(1, "first"), proposalView(2, "second")}}
	session := &fakeSession{state: usecase.SessionState{Account: &models.Account{Email: "student@kpfu.ru"}}}
	m := New(context.Background(), board, &fakeHead{number: 42}, session)
	return m, board, session
}

func apply(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func TestModel_RefreshShowsNewestFirst(t *testing.T) {
	m, board, _ := newTestModel()
	assert.Contains(t, m.View(), "Loading proposals...")

	msg := m.refresh()()
	m, _ = apply(t, m, msg)

	assert.Equal(t, 1, board.calls)
	require.Len(t, m.views, 2)
	assert.Equal(t, "2", m.views[0].Proposal.Key())

	view := m.View()
	assert.Contains(t, view, "block 42")
	assert.Contains(t, view, "student@kpfu.ru")
	assert.Contains(t, view, "#2  second")
	assert.Contains(t, view, "kfudao vote 2")
}

func TestModel_TickRecomputes(t *testing.T) {
	m, _, _ := newTestModel()
	m, _ = apply(t, m, m.refresh()())
	require.False(t, m.pending)

	m, cmd := apply(t, m, tickMsg(time.Now()))
	require.NotNil(t, cmd)
	assert.True(t, m.pending)
	assert.Equal(t, uint64(2), m.seq)
}

func TestModel_TickSkipsWhileRefreshPending(t *testing.T) {
	m, board, _ := newTestModel()
	require.True(t, m.pending)

	for i := 0; i < 10; i++ {
		var cmd tea.Cmd
		m, cmd = apply(t, m, tickMsg(time.Now()))
		require.NotNil(t, cmd)
	}
	assert.Equal(t, uint64(1), m.seq)
	assert.True(t, m.pending)
	assert.Equal(t, 0, board.callCount(), "ticks must not start refreshes while one is in flight")

	// the first refresh lands, the next tick starts exactly one more
	m, _ = apply(t, m, m.refresh()())
	assert.False(t, m.pending)
	assert.Equal(t, 1, board.callCount())

	m, _ = apply(t, m, tickMsg(time.Now()))
	m, _ = apply(t, m, tickMsg(time.Now()))
	assert.True(t, m.pending)
	assert.Equal(t, uint64(2), m.seq)
}

func TestModel_DropsStaleViews(t *testing.T) {
	m, _, session := newTestModel()
	session.state.WalletConnected = true
	session.state.ConnectedAddress = "0xabc"
	m, _ = apply(t, m, m.refresh()())

	// a tick refresh is taken while the wallet is still connected
	m, _ = apply(t, m, tickMsg(time.Now()))
	stale := m.refresh()()

	m, cmd := apply(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	require.NotNil(t, cmd)
	fresh := cmd()

	m, _ = apply(t, m, fresh)
	assert.False(t, m.state.WalletConnected)
	assert.False(t, m.pending)

	m, _ = apply(t, m, stale)
	assert.False(t, m.state.WalletConnected, "an older refresh must not override a newer one")
	assert.Equal(t, usecase.BindingNotConnected, m.binding)
}

func TestModel_CursorStaysInRange(t *testing.T) {
	m, _, _ := newTestModel()
	m, _ = apply(t, m, m.refresh()())

	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.cursor)
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyUp})
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.cursor)
}

func TestModel_ConnectAndDisconnect(t *testing.T) {
	m, _, session := newTestModel()

	m, cmd := apply(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	require.NotNil(t, cmd)
	assert.Contains(t, m.status, "Waiting for the wallet")

	m, cmd = apply(t, m, cmd())
	assert.Contains(t, m.status, "Connected 0xabc")
	require.NotNil(t, cmd)
	m, _ = apply(t, m, cmd())
	assert.Contains(t, m.View(), "0xabc")

	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	assert.True(t, session.disconnected)
	assert.Equal(t, "Wallet disconnected", m.status)
}

func TestModel_ConnectError(t *testing.T) {
	m, _, session := newTestModel()
	session.connectErr = errors.New("failed to connect: user rejected the request")

	_, cmd := apply(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	m, _ = apply(t, m, cmd())
	assert.Contains(t, m.status, "User rejected the request")
}

func TestModel_Quit(t *testing.T) {
	m, _, _ := newTestModel()
	m, cmd := apply(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.True(t, m.quitting)
	assert.NotNil(t, cmd)
	assert.Empty(t, m.View())
}

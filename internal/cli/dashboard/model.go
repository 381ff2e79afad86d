package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"

	"github.com/timertimertimer/kfudao/internal/cli/render"
	"github.com/timertimertimer/kfudao/internal/domain/models"
	"github.com/timertimertimer/kfudao/internal/usecase"
)

const refreshEvery = time.Second

// Board produces proposal views for the current session
type Board interface {
	Views(ctx context.Context, now time.Time) []usecase.ProposalView
}

// Session is the part of the account session the dashboard drives
type Session interface {
	Snapshot() usecase.SessionState
	WalletBinding() usecase.BindingStatus
	ConnectWallet(ctx context.Context) (string, error)
	Disconnect(clearSession bool)
}

type tickMsg time.Time

type viewsMsg struct {
	seq       uint64
	views     []usecase.ProposalView
	head      models.ChainHead
	headKnown bool
	state     usecase.SessionState
	binding   usecase.BindingStatus
}

type connectedMsg struct {
	address string
	err     error
}

// Model is the live proposal dashboard
type Model struct {
	ctx     context.Context
	board   Board
	head    usecase.ChainSnapshot
	session Session
	now     func() time.Time

	views     []usecase.ProposalView
	chainHead models.ChainHead
	headKnown bool
	state     usecase.SessionState
	binding   usecase.BindingStatus
	cursor    int
	status    string
	loading   bool
	quitting  bool

	// seq numbers refreshes; only the latest one is applied
	seq     uint64
	pending bool
}

// New creates a dashboard model. ctx bounds every chain call made on its behalf.
func New(ctx context.Context, board Board, head usecase.ChainSnapshot, session Session) Model {
	return Model{
		ctx:     ctx,
		board:   board,
		head:    head,
		session: session,
		now:     time.Now,
		loading: true,
		binding: usecase.BindingNotConnected,
		seq:     1,
		pending: true,
	}
}

// Run starts the dashboard on the terminal and blocks until the user quits or ctx ends
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("dashboard failed: %w", err)
	}
	return nil
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refresh(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(refreshEvery, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// refresh recomputes the views off the UI goroutine for the current seq
func (m Model) refresh() tea.Cmd {
	board, head, session, ctx, now, seq := m.board, m.head, m.session, m.ctx, m.now, m.seq
	return func() tea.Msg {
		views := render.NewestFirst(board.Views(ctx, now()))
		h, known := head.Latest()
		return viewsMsg{
			seq:       seq,
			views:     views,
			head:      h,
			headKnown: known,
			state:     session.Snapshot(),
			binding:   session.WalletBinding(),
		}
	}
}

// next starts a refresh that supersedes any still in flight
func (m Model) next() (Model, tea.Cmd) {
	m.seq++
	m.pending = true
	return m, m.refresh()
}

func (m Model) connect() tea.Cmd {
	session, ctx := m.session, m.ctx
	return func() tea.Msg {
		address, err := session.ConnectWallet(ctx)
		return connectedMsg{address: address, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.views)-1 {
				m.cursor++
			}
		case "c":
			m.status = "Waiting for the wallet..."
			return m, m.connect()
		case "d":
			m.session.Disconnect(false)
			m.status = "Wallet disconnected"
			return m.next()
		}

	case tickMsg:
		if m.pending {
			return m, tick()
		}
		next, cmd := m.next()
		return next, tea.Batch(cmd, tick())

	case viewsMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.pending = false
		m.loading = false
		m.views = msg.views
		m.chainHead = msg.head
		m.headKnown = msg.headKnown
		m.state = msg.state
		m.binding = msg.binding
		if m.cursor >= len(m.views) {
			m.cursor = max(len(m.views)-1, 0)
		}

	case connectedMsg:
		if msg.err != nil {
			m.status = render.FormatError(msg.err.Error())
		} else {
			m.status = render.FormatSuccess("Connected " + msg.address)
		}
		return m.next()
	}
	return m, nil
}

var (
	titleStyle  = color.New(color.FgCyan, color.Bold)
	faintStyle  = color.New(color.Faint)
	cursorStyle = color.New(color.FgCyan)
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Sprint("KFU DAO proposals"))
	if m.headKnown {
		b.WriteString(faintStyle.Sprintf("  block %d", m.chainHead.Number))
	}
	b.WriteString("\n")
	b.WriteString(m.sessionLine())
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString("Loading proposals...\n")
	case len(m.views) == 0:
		b.WriteString("No proposals found\n")
	default:
		lines := strings.Split(render.ProposalTable(m.views), "\n")
		for i, line := range lines {
			// first line is the header
			if i-1 == m.cursor {
				b.WriteString(cursorStyle.Sprint("▸ ") + line + "\n")
			} else {
				b.WriteString("  " + line + "\n")
			}
		}
		b.WriteString("\n")
		b.WriteString(m.detailLine())
	}

	if m.status != "" {
		b.WriteString("\n" + m.status + "\n")
	}
	b.WriteString("\n")
	b.WriteString(faintStyle.Sprint("↑/↓: move  c: connect wallet  d: disconnect  q: quit"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) sessionLine() string {
	account := "not signed in"
	if m.state.Authenticated() {
		account = m.state.Account.Email
	}

	var wallet string
	switch m.binding {
	case usecase.BindingNotConnected:
		wallet = "wallet not connected"
	case usecase.BindingUnbound:
		wallet = render.FormatWarning(m.state.ConnectedAddress + " not bound")
	case usecase.BindingMismatch:
		wallet = render.FormatWarning(m.state.ConnectedAddress + " differs from bound " + m.state.Account.Address)
	default:
		wallet = color.New(color.FgGreen).Sprint(m.state.ConnectedAddress)
	}
	return faintStyle.Sprint(account) + "  " + wallet
}

func (m Model) detailLine() string {
	if m.cursor >= len(m.views) {
		return ""
	}
	v := m.views[m.cursor]
	line := fmt.Sprintf("#%s  %s", v.Proposal.Key(), v.Proposal.Description)
	if v.Eligibility.CanVote {
		line += "\n" + faintStyle.Sprintf("kfudao vote %s", v.Proposal.Key())
	}
	return line + "\n"
}

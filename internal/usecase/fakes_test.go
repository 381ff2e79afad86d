package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"strings"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/timertimertimer/kfudao/internal/domain"
	"github.com/timertimertimer/kfudao/internal/domain/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type submittedTx struct {
	from, to string
	data     []byte
}

// fakeChain is an in-memory chain with configurable failures
type fakeChain struct {
	mu sync.Mutex

	networkErr error
	latest     uint64
	latestErr  error

	// block number -> timestamp; missing blocks are unmined
	blocks    map[uint64]uint64
	blockErrs map[uint64]error
	events    []models.RawProposalEvent
	eventsErr error
	votes     map[string][3]int64
	voted     map[string]bool
	votedErr  error
	submitErr error

	hasVotedCalls int
	submitted     []submittedTx
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		blocks:    make(map[uint64]uint64),
		blockErrs: make(map[uint64]error),
		votes:     make(map[string][3]int64),
		voted:     make(map[string]bool),
	}
}

func (c *fakeChain) CheckNetwork(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.networkErr
}

func (c *fakeChain) LatestBlockNumber(ctx context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest, c.latestErr
}

func (c *fakeChain) BlockByNumber(ctx context.Context, number uint64) (*models.Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.blockErrs[number]; err != nil {
		return nil, err
	}
	ts, ok := c.blocks[number]
	if !ok {
		return nil, fmt.Errorf("block %d: %w", number, domain.ErrBlockNotFound)
	}
	return &models.Block{Number: number, Timestamp: ts}, nil
}

func (c *fakeChain) ProposalCreatedEvents(ctx context.Context, from, to uint64) ([]models.RawProposalEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.eventsErr != nil {
		return nil, c.eventsErr
	}
	out := make([]models.RawProposalEvent, len(c.events))
	copy(out, c.events)
	return out, nil
}

// ProposalVotes reports tallies as (for, against, abstain)
func (c *fakeChain) ProposalVotes(ctx context.Context, id *big.Int) (models.Token, models.Token, models.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.votes[id.String()]
	return models.NewToken(big.NewInt(v[0]), "KFU", 0),
		models.NewToken(big.NewInt(v[1]), "KFU", 0),
		models.NewToken(big.NewInt(v[2]), "KFU", 0),
		nil
}

func (c *fakeChain) HasVoted(ctx context.Context, id *big.Int, address string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hasVotedCalls++
	if c.votedErr != nil {
		return false, c.votedErr
	}
	return c.voted[strings.ToLower(address)+"|"+id.String()], nil
}

func (c *fakeChain) TokenSymbol(ctx context.Context) (string, error) {
	return "KFU", nil
}

func (c *fakeChain) SubmitTransaction(ctx context.Context, from, to string, data []byte) (*models.TransactionResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitErr != nil {
		return nil, c.submitErr
	}
	c.submitted = append(c.submitted, submittedTx{from: from, to: to, data: data})
	return &models.TransactionResult{Hash: fmt.Sprintf("0x%064x", len(c.submitted)), From: from, To: to}, nil
}

func (c *fakeChain) setVoted(address string, id int64, voted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.voted[strings.ToLower(address)+"|"+big.NewInt(id).String()] = voted
}

func (c *fakeChain) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasVotedCalls
}

// memStore is a minimal ProposalStore that counts writes
type memStore struct {
	mu      sync.Mutex
	order   []string
	items   map[string]*models.Proposal
	upserts int
}

func newMemStore() *memStore {
	return &memStore{items: make(map[string]*models.Proposal)}
}

func (s *memStore) Upsert(p *models.Proposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	if _, ok := s.items[p.Key()]; !ok {
		s.order = append(s.order, p.Key())
	}
	s.items[p.Key()] = p.Clone()
}

func (s *memStore) Snapshot() []*models.Proposal {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Proposal, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.items[k].Clone())
	}
	return out
}

func (s *memStore) Get(id *big.Int) (*models.Proposal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.items[id.String()]
	return p.Clone(), ok
}

func (s *memStore) writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upserts
}

type memHead struct {
	mu    sync.Mutex
	head  models.ChainHead
	known bool
}

func (h *memHead) Publish(n uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.head = models.ChainHead{Number: n}
	h.known = true
}

func (h *memHead) Latest() (models.ChainHead, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.head, h.known
}

// memAccounts is an in-memory AccountRepository
type memAccounts struct {
	mu      sync.Mutex
	items   map[string]models.Account
	saveErr error
	saves   int
}

func newMemAccounts() *memAccounts {
	return &memAccounts{items: make(map[string]models.Account)}
}

func (r *memAccounts) GetAccount(ctx context.Context, email string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

func (r *memAccounts) SaveAccount(ctx context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saves++
	r.items[account.Email] = *account
	return nil
}

// memCredentials stores plain passwords
type memCredentials struct {
	items     map[string]string
	createErr error
	deleted   []string
}

func newMemCredentials() *memCredentials {
	return &memCredentials{items: make(map[string]string)}
}

func (c *memCredentials) CreateCredential(ctx context.Context, email, password string) error {
	if c.createErr != nil {
		return c.createErr
	}
	if _, ok := c.items[email]; ok {
		return domain.ErrAlreadyExists
	}
	c.items[email] = password
	return nil
}

func (c *memCredentials) VerifyCredential(ctx context.Context, email, password string) error {
	if p, ok := c.items[email]; !ok || p != password {
		return domain.ErrInvalidCredentials
	}
	return nil
}

func (c *memCredentials) DeleteCredential(ctx context.Context, email string) error {
	delete(c.items, email)
	c.deleted = append(c.deleted, email)
	return nil
}

type memTokens struct {
	email string
}

func (t *memTokens) Save(ctx context.Context, email string) error {
	t.email = email
	return nil
}

func (t *memTokens) Load(ctx context.Context) (string, error) {
	if t.email == "" {
		return "", domain.ErrNotAuthenticated
	}
	return t.email, nil
}

func (t *memTokens) Clear(ctx context.Context) error {
	t.email = ""
	return nil
}

// MockWallet is a testify mock of the Wallet port
type MockWallet struct {
	mock.Mock
}

func (m *MockWallet) Connect(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockWallet) SelectedAddress() string {
	return m.Called().String(0)
}

func (m *MockWallet) SendRequest(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	args := m.Called(ctx, method, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockWallet) Disconnect(clearSession bool) {
	m.Called(clearSession)
}

// stubCodec encodes calls as readable strings
type stubCodec struct{}

func (stubCodec) EncodeCastVote(id *big.Int, support uint8) ([]byte, error) {
	return []byte(fmt.Sprintf("castVote(%s,%d)", id, support)), nil
}

func (stubCodec) EncodePropose(targets []string, values []*big.Int, calldatas [][]byte, description string) ([]byte, error) {
	return []byte(fmt.Sprintf("propose(%s,%s,%x,%s)", strings.Join(targets, ","), values[0], calldatas[0], description)), nil
}

type memInstitutes struct {
	names     map[string]string
	faculties map[string][]string
	listCalls int
	facCalls  map[string]int
	saved     []models.Institute
}

func newMemInstitutes() *memInstitutes {
	return &memInstitutes{
		names:     map[string]string{"IVMiIT": "Institute of Computational Mathematics and IT"},
		faculties: map[string][]string{"IVMiIT": {"Software Engineering", "Applied Math"}},
		facCalls:  make(map[string]int),
	}
}

func (r *memInstitutes) ListInstitutes(ctx context.Context) (map[string]string, error) {
	r.listCalls++
	out := make(map[string]string, len(r.names))
	for k, v := range r.names {
		out[k] = v
	}
	return out, nil
}

func (r *memInstitutes) GetFaculties(ctx context.Context, abbreviation string) ([]string, error) {
	r.facCalls[abbreviation]++
	f, ok := r.faculties[abbreviation]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return f, nil
}

func (r *memInstitutes) SaveInstitute(ctx context.Context, inst *models.Institute) error {
	r.saved = append(r.saved, *inst)
	r.names[inst.Abbreviation] = inst.Name
	r.faculties[inst.Abbreviation] = inst.Faculties
	return nil
}

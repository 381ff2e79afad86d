package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timertimertimer/kfudao/internal/cli/render"
	"github.com/timertimertimer/kfudao/internal/domain"
	"github.com/timertimertimer/kfudao/internal/domain/config"
	"github.com/timertimertimer/kfudao/internal/domain/models"
	"github.com/timertimertimer/kfudao/internal/usecase"
)

const voter = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"

type fakeBoard struct {
	views      []usecase.ProposalView
	forAddress string
}

func (b *fakeBoard) Views(ctx context.Context, now time.Time) []usecase.ProposalView {
	return b.views
}

func (b *fakeBoard) View(ctx context.Context, id *big.Int, now time.Time) (*usecase.ProposalView, error) {
	for _, v := range b.views {
		if v.Proposal.ID.Cmp(id) == 0 {
			out := v
			return &out, nil
		}
	}
	return nil, fmt.Errorf("proposal %s: %w", id, domain.ErrNotFound)
}

func (b *fakeBoard) ViewsForAddress(ctx context.Context, address string, now time.Time) []usecase.ProposalView {
	b.forAddress = address
	out := make([]usecase.ProposalView, len(b.views))
	for i, v := range b.views {
		v.Eligibility.CanVote = true
		out[i] = v
	}
	return out
}

type fakeHead struct {
	head  models.ChainHead
	known bool
}

func (h *fakeHead) Publish(n uint64) {
	h.head = models.ChainHead{Number: n, ObservedAt: time.Unix(1700000000, 0)}
	h.known = true
}

func (h *fakeHead) Latest() (models.ChainHead, bool) { return h.head, h.known }

type fakeCatalog struct {
	institutes map[string]string
	faculties  map[string][]string
	err        error
}

func (c *fakeCatalog) Load(ctx context.Context) (map[string]string, error) {
	return c.institutes, c.err
}

func (c *fakeCatalog) Faculties(ctx context.Context, abbreviation string) ([]string, error) {
	f, ok := c.faculties[abbreviation]
	if !ok {
		return nil, fmt.Errorf("failed to load faculties for %s: %w", abbreviation, domain.ErrNotFound)
	}
	return f, nil
}

func proposal(id int64, description string) usecase.ProposalView {
	return usecase.ProposalView{
		Proposal: &models.Proposal{
			ID:          big.NewInt(id),
			Description: description,
			VotesFor:    models.NewToken(big.NewInt(3), "KFU", 0),
		},
		Eligibility: usecase.Eligibility{Band: usecase.BandLow, Reason: usecase.ReasonNotConnected},
	}
}

type fixture struct {
	board   *fakeBoard
	head    *fakeHead
	catalog *fakeCatalog
	handler http.Handler
}

func newFixture() *fixture {
	f := &fixture{
		board: &fakeBoard{views: []usecase.ProposalView{
			proposal(1, "First <script>alert(1)</script>proposal"),
			proposal(2, "Second"),
		}},
		head: &fakeHead{},
		catalog: &fakeCatalog{
			institutes: map[string]string{"IVMiIT": "Institute of CS"},
			faculties:  map[string][]string{"IVMiIT": {"Software Engineering"}},
		},
	}
	cfg := &config.RuntimeConfig{API: config.APIConfig{CORSOrigins: []string{"*"}}}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.handler = NewServer(cfg, f.board, f.head, f.catalog, log).Handler()
	return f
}

func (f *fixture) get(t *testing.T, path string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestListProposals(t *testing.T) {
	f := newFixture()
	rec := f.get(t, "/api/proposals", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var out []render.ProposalOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, "2", out[0].ID, "newest first")
	assert.Equal(t, "First proposal", out[1].Description)
	assert.False(t, out[0].CanVote)
	assert.NotEmpty(t, rec.Header().Get("ETag"))
}

func TestListProposals_ForAddress(t *testing.T) {
	f := newFixture()

	rec := f.get(t, "/api/proposals?address="+voter, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, voter, f.board.forAddress)

	var out []render.ProposalOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.True(t, out[0].CanVote)

	rec = f.get(t, "/api/proposals?address=nope", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListProposals_ETag(t *testing.T) {
	f := newFixture()
	first := f.get(t, "/api/proposals", nil)
	etag := first.Header().Get("ETag")
	require.NotEmpty(t, etag)

	again := f.get(t, "/api/proposals", map[string]string{"If-None-Match": etag})
	assert.Equal(t, http.StatusNotModified, again.Code)
	assert.Empty(t, again.Body.String())

	f.board.views = append(f.board.views, proposal(3, "Third"))
	changed := f.get(t, "/api/proposals", map[string]string{"If-None-Match": etag})
	assert.Equal(t, http.StatusOK, changed.Code)
	assert.NotEqual(t, etag, changed.Header().Get("ETag"))
}

func TestGetProposal(t *testing.T) {
	f := newFixture()

	rec := f.get(t, "/api/proposals/2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		ID          string `json:"id"`
		Description string `json:"description"`
		VotesFor    struct {
			Amount string `json:"amount"`
			Symbol string `json:"symbol"`
		} `json:"votesFor"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "2", out.ID)
	assert.Equal(t, "Second", out.Description)
	assert.Equal(t, "3", out.VotesFor.Amount)
	assert.Equal(t, "KFU", out.VotesFor.Symbol)

	assert.Equal(t, http.StatusNotFound, f.get(t, "/api/proposals/9", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.get(t, "/api/proposals/abc", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.get(t, "/api/proposals/-1", nil).Code)
}

func TestChainHead(t *testing.T) {
	f := newFixture()
	assert.Equal(t, http.StatusServiceUnavailable, f.get(t, "/api/chain/head", nil).Code)

	f.head.Publish(1234)
	rec := f.get(t, "/api/chain/head", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"number":1234,"observedAt":1700000000}`, rec.Body.String())
}

func TestInstitutes(t *testing.T) {
	f := newFixture()

	rec := f.get(t, "/api/institutes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"IVMiIT":"Institute of CS"}`, rec.Body.String())

	rec = f.get(t, "/api/institutes/IVMiIT/faculties", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["Software Engineering"]`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, f.get(t, "/api/institutes/NOPE/faculties", nil).Code)

	f.catalog.err = fmt.Errorf("redis down")
	assert.Equal(t, http.StatusBadGateway, f.get(t, "/api/institutes", nil).Code)
}

func TestHealthAndCORS(t *testing.T) {
	f := newFixture()
	rec := f.get(t, "/healthz", map[string]string{"Origin": "http://localhost:3000"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServe_StopsOnCancel(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	cfg := &config.RuntimeConfig{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := NewServer(cfg, &fakeBoard{}, &fakeHead{}, &fakeCatalog{}, log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, listener) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + listener.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

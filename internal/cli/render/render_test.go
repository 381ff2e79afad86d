package render

import (
	"bytes"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/timertimertimer/kfudao/internal/domain/models"
	"github.com/timertimertimer/kfudao/internal/usecase"
)

func init() {
	color.NoColor = true
}

func view(id int64, description string, band usecase.ProgressBand, canVote bool) usecase.ProposalView {
	return usecase.ProposalView{
		Proposal: &models.Proposal{
			ID:                 big.NewInt(id),
			Proposer:           "0x1111111111111111111111111111111111111111",
			Description:        description,
			VoteStartBlock:     100,
			VoteEndBlock:       200,
			VoteStartTimestamp: time.Unix(1000, 0),
			VoteEndTimestamp:   time.Unix(2200, 0),
			VotesFor:           models.NewToken(new(big.Int).Mul(big.NewInt(5), big.NewInt(1e18)), "KFU", 18),
			VotesAgainst:       models.NewToken(big.NewInt(0), "KFU", 18),
			VotesAbstain:       models.NewToken(big.NewInt(0), "KFU", 18),
		},
		Eligibility: usecase.Eligibility{
			CanVote:  canVote,
			TimeLeft: 90 * time.Second,
			Progress: 0.5,
			Band:     band,
		},
	}
}

func TestNewestFirst(t *testing.T) {
	views := []usecase.ProposalView{view(1, "a", usecase.BandLow, true), view(2, "b", usecase.BandLow, true)}
	out := NewestFirst(views)
	assert.Equal(t, "2", out[0].Proposal.Key())
	assert.Equal(t, "1", out[1].Proposal.Key())
	assert.Equal(t, "1", views[0].Proposal.Key(), "input untouched")
}

func TestBandColor(t *testing.T) {
	tests := []struct {
		band usecase.ProgressBand
		want *color.Color
	}{
		{usecase.BandLow, color.New(color.FgGreen)},
		{usecase.BandMedium, color.New(color.FgYellow)},
		{usecase.BandHigh, color.New(color.FgHiYellow, color.Bold)},
		{usecase.BandExpired, color.New(color.FgRed)},
		{usecase.BandNeutral, color.New(color.Faint)},
	}
	for _, tt := range tests {
		assert.True(t, BandColor(tt.band).Equals(tt.want), tt.band)
	}
}

func TestFormatTimeLeft(t *testing.T) {
	assert.Equal(t, "ended", formatTimeLeft(0))
	assert.Equal(t, "ended", formatTimeLeft(-time.Second))
	assert.Equal(t, "42s", formatTimeLeft(42*time.Second+500*time.Millisecond))
	assert.Equal(t, "1m 30s", formatTimeLeft(90*time.Second))
	assert.Equal(t, "2h 00m 05s", formatTimeLeft(2*time.Hour+5*time.Second))
	assert.Equal(t, "1d 01h 01m 01s", formatTimeLeft(25*time.Hour+61*time.Second))
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "0x1111…1111", shortenAddress("0x1111111111111111111111111111111111111111"))
	assert.Equal(t, "0x12", shortenAddress("0x12"))
	assert.Equal(t, "a b", truncate("a\n  b", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	assert.Equal(t, "123456…7890", shortID("12345678901234567890"))
	assert.Equal(t, "❌ Wallet not connected", FormatError("failed to vote: wallet not connected"))
	assert.Equal(t, "✅ done", FormatSuccess("done"))
}

func TestRenderProposalList(t *testing.T) {
	var buf bytes.Buffer
	r := NewProposalsRenderer(&buf, false)

	views := []usecase.ProposalView{
		view(1, "Older proposal", usecase.BandExpired, false),
		view(2, "Newer proposal", usecase.BandMedium, true),
	}
	views[0].Eligibility.Reason = usecase.ReasonVotingClosed

	require.NoError(t, r.RenderProposalList(views, models.ChainHead{Number: 150}, true))
	out := buf.String()

	assert.Contains(t, out, "Block 150")
	assert.Contains(t, out, "can vote")
	assert.Contains(t, out, "voting closed")
	assert.Contains(t, out, " 50%")
	assert.Contains(t, out, "1m 30s")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("Newer proposal")), bytes.Index(buf.Bytes(), []byte("Older proposal")))
}

func TestRenderProposalList_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewProposalsRenderer(&buf, false).RenderProposalList(nil, models.ChainHead{}, false))
	assert.Equal(t, "No proposals found\n", buf.String())
}

func TestRenderProposal(t *testing.T) {
	var buf bytes.Buffer
	v := view(7, "Fund the robotics club", usecase.BandLow, false)
	v.Proposal.VoteEndEstimated = true
	v.HasVoted = true

	require.NoError(t, NewProposalsRenderer(&buf, false).RenderProposal(v))
	out := buf.String()
	assert.Contains(t, out, "Proposal 7")
	assert.Contains(t, out, "Fund the robotics club")
	assert.Contains(t, out, "(estimated)")
	assert.Contains(t, out, "For:        5 KFU")
	assert.Contains(t, out, "You have already voted")
}

func TestProposalOutput(t *testing.T) {
	id, ok := new(big.Int).SetString("98765432109876543210987654321", 10)
	require.True(t, ok)
	v := view(1, "x", usecase.BandHigh, true)
	v.Proposal.ID = id

	out := NewProposalOutput(v)
	assert.Equal(t, "98765432109876543210987654321", out.ID)
	assert.Equal(t, int64(90), out.TimeLeftSeconds)

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"id":"98765432109876543210987654321"`)
	assert.Contains(t, string(raw), `"value":"5"`)
	assert.Contains(t, string(raw), `"band":"high"`)
}

func TestWriteStructured(t *testing.T) {
	payload := map[string]any{"binding": "bound"}

	var jsonBuf bytes.Buffer
	require.NoError(t, WriteStructured(&jsonBuf, "json", payload))
	assert.JSONEq(t, `{"binding":"bound"}`, jsonBuf.String())

	var yamlBuf bytes.Buffer
	require.NoError(t, WriteStructured(&yamlBuf, "yaml", payload))
	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(yamlBuf.Bytes(), &decoded))
	assert.Equal(t, "bound", decoded["binding"])

	assert.Error(t, WriteStructured(&bytes.Buffer{}, "xml", payload))
}

func TestRenderAccount(t *testing.T) {
	state := usecase.SessionState{
		Account: &models.Account{
			Email:                 "student@kpfu.ru",
			Institute:             "Institute of CS",
			InstituteAbbreviation: "IVMiIT",
			Faculty:               "Software Engineering",
		},
		WalletConnected:  true,
		ConnectedAddress: "0xabc",
	}

	var buf bytes.Buffer
	require.NoError(t, NewAccountRenderer(&buf).RenderAccount(state, usecase.BindingUnbound))
	out := buf.String()
	assert.Contains(t, out, "student@kpfu.ru")
	assert.Contains(t, out, "not bound")
	assert.Contains(t, out, "kfudao account bind")

	buf.Reset()
	require.NoError(t, NewAccountRenderer(&buf).RenderAccount(usecase.SessionState{}, usecase.BindingNotConnected))
	assert.Equal(t, "Not signed in\n", buf.String())

	output := NewAccountOutput(state, usecase.BindingUnbound)
	assert.Equal(t, "unbound", output.Binding)
	assert.Equal(t, "student@kpfu.ru", output.Email)
}

func TestRenderInstitutes(t *testing.T) {
	var buf bytes.Buffer
	r := NewInstitutesRenderer(&buf)
	require.NoError(t, r.RenderInstitutes(map[string]string{"IVMiIT": "Institute of CS", "IFMiB": "Institute of Physics"}))
	out := buf.String()
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("IFMiB")), bytes.Index(buf.Bytes(), []byte("IVMiIT")))
	assert.Contains(t, out, "Institute of Physics")

	buf.Reset()
	require.NoError(t, r.RenderFaculties("IVMiIT", []string{"applied IT"}))
	assert.Contains(t, buf.String(), "• Applied IT")
}

func TestRenderSyncReport(t *testing.T) {
	var buf bytes.Buffer
	r := NewSyncRenderer(&buf)

	require.NoError(t, r.RenderSyncReport(&usecase.SyncReport{Events: 2, Upserted: 2}))
	assert.Empty(t, buf.String())

	require.NoError(t, r.RenderSyncReport(&usecase.SyncReport{Events: 2, Upserted: 1, Failed: 1, Errors: []string{"proposal 3: boom"}}))
	assert.Contains(t, buf.String(), "Skipped 1 of 2 proposals")
	assert.Contains(t, buf.String(), "proposal 3: boom")
}

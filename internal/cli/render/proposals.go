package render

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/timertimertimer/kfudao/internal/domain/models"
	"github.com/timertimertimer/kfudao/internal/usecase"
)

var (
	headerStyle    = color.New(color.Bold, color.FgHiWhite)
	idStyle        = color.New(color.FgCyan)
	addressStyle   = color.New(color.FgWhite)
	estimatedStyle = color.New(color.Faint)
	canVoteStyle   = color.New(color.FgGreen, color.Bold)
	reasonStyle    = color.New(color.Faint)
	authorStyle    = color.New(color.FgMagenta)
)

// BandColor returns the colour of a progress band
func BandColor(band usecase.ProgressBand) *color.Color {
	switch band {
	case usecase.BandLow:
		return color.New(color.FgGreen)
	case usecase.BandMedium:
		return color.New(color.FgYellow)
	case usecase.BandHigh:
		return color.New(color.FgHiYellow, color.Bold)
	case usecase.BandExpired:
		return color.New(color.FgRed)
	default:
		return color.New(color.Faint)
	}
}

// ProposalOutput is the machine readable shape of a proposal view
type ProposalOutput struct {
	ID                 string    `json:"id" yaml:"id"`
	Proposer           string    `json:"proposer" yaml:"proposer"`
	Description        string    `json:"description" yaml:"description"`
	VoteStartBlock     uint64    `json:"voteStartBlock" yaml:"voteStartBlock"`
	VoteEndBlock       uint64    `json:"voteEndBlock" yaml:"voteEndBlock"`
	VoteStart          time.Time `json:"voteStart" yaml:"voteStart"`
	VoteEnd            time.Time `json:"voteEnd" yaml:"voteEnd"`
	VoteStartEstimated bool      `json:"voteStartEstimated" yaml:"voteStartEstimated"`
	VoteEndEstimated   bool      `json:"voteEndEstimated" yaml:"voteEndEstimated"`

	VotesFor     models.Token `json:"votesFor" yaml:"votesFor"`
	VotesAgainst models.Token `json:"votesAgainst" yaml:"votesAgainst"`
	VotesAbstain models.Token `json:"votesAbstain" yaml:"votesAbstain"`

	TimeLeftSeconds int64                `json:"timeLeftSeconds" yaml:"timeLeftSeconds"`
	Progress        float64              `json:"progress" yaml:"progress"`
	Band            usecase.ProgressBand `json:"band" yaml:"band"`
	CanVote         bool                 `json:"canVote" yaml:"canVote"`
	Reason          string               `json:"reason,omitempty" yaml:"reason,omitempty"`
	HasVoted        bool                 `json:"hasVoted" yaml:"hasVoted"`
	IsAuthor        bool                 `json:"isAuthor" yaml:"isAuthor"`
}

// NewProposalOutput flattens a view. Proposal ids are uint256 and are kept as decimal strings.
func NewProposalOutput(view usecase.ProposalView) ProposalOutput {
	p := view.Proposal
	e := view.Eligibility
	return ProposalOutput{
		ID:                 p.Key(),
		Proposer:           p.Proposer,
		Description:        p.Description,
		VoteStartBlock:     p.VoteStartBlock,
		VoteEndBlock:       p.VoteEndBlock,
		VoteStart:          p.VoteStartTimestamp.UTC(),
		VoteEnd:            p.VoteEndTimestamp.UTC(),
		VoteStartEstimated: p.VoteStartEstimated,
		VoteEndEstimated:   p.VoteEndEstimated,
		VotesFor:           p.VotesFor,
		VotesAgainst:       p.VotesAgainst,
		VotesAbstain:       p.VotesAbstain,
		TimeLeftSeconds:    e.TimeLeftSeconds(),
		Progress:           e.Progress,
		Band:               e.Band,
		CanVote:            e.CanVote,
		Reason:             e.Reason,
		HasVoted:           view.HasVoted,
		IsAuthor:           e.IsAuthor,
	}
}

// NewestFirst returns views in reverse discovery order
func NewestFirst(views []usecase.ProposalView) []usecase.ProposalView {
	out := slices.Clone(views)
	slices.Reverse(out)
	return out
}

// ProposalsRenderer renders proposal lists and details
type ProposalsRenderer struct {
	out   io.Writer
	color bool
}

// NewProposalsRenderer creates a new proposals renderer
func NewProposalsRenderer(out io.Writer, color bool) *ProposalsRenderer {
	return &ProposalsRenderer{out: out, color: color}
}

// RenderProposalList renders views newest first
func (r *ProposalsRenderer) RenderProposalList(views []usecase.ProposalView, head models.ChainHead, headKnown bool) error {
	if headKnown {
		fmt.Fprintf(r.out, "Block %s\n\n", headerStyle.Sprint(head.Number))
	}
	if len(views) == 0 {
		fmt.Fprintln(r.out, "No proposals found")
		return nil
	}

	fmt.Fprintln(r.out, ProposalTable(NewestFirst(views)))
	return nil
}

// ProposalTable renders views as a table in the given order
func ProposalTable(views []usecase.ProposalView) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.Style().Options.SeparateRows = false
	t.Style().Options.SeparateHeader = false
	t.Style().Box.PaddingRight = "  "

	t.AppendHeader(table.Row{"ID", "DESCRIPTION", "FOR", "AGAINST", "ABSTAIN", "PROGRESS", "TIME LEFT", "STATUS"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})

	for _, v := range views {
		p := v.Proposal
		e := v.Eligibility
		band := BandColor(e.Band)

		description := truncate(p.Description, 40)
		if e.IsAuthor {
			description = authorStyle.Sprint("★ ") + description
		}

		timeLeft := formatTimeLeft(e.TimeLeft)
		if p.VoteEndEstimated && e.TimeLeft > 0 {
			timeLeft = estimatedStyle.Sprint("~") + timeLeft
		}

		t.AppendRow(table.Row{
			idStyle.Sprint(shortID(p.Key())),
			description,
			p.VotesFor.Value().String(),
			p.VotesAgainst.Value().String(),
			p.VotesAbstain.Value().String(),
			band.Sprintf("%3.0f%%", e.Progress*100),
			band.Sprint(timeLeft),
			statusCell(v),
		})
	}
	return t.Render()
}

func statusCell(v usecase.ProposalView) string {
	switch {
	case v.Eligibility.CanVote:
		return canVoteStyle.Sprint("can vote")
	case v.HasVoted:
		return BandColor(usecase.BandNeutral).Sprint("voted")
	default:
		return reasonStyle.Sprint(v.Eligibility.Reason)
	}
}

// shortID keeps long uint256 ids readable in tables
func shortID(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:6] + "…" + id[len(id)-4:]
}

// RenderProposal renders one proposal in detail
func (r *ProposalsRenderer) RenderProposal(view usecase.ProposalView) error {
	p := view.Proposal
	e := view.Eligibility

	headerStyle.Fprintf(r.out, "Proposal %s\n", p.Key())
	fmt.Fprintln(r.out, strings.Repeat("=", 80))

	fmt.Fprintf(r.out, "\n%s\n\n", p.Description)
	fmt.Fprintf(r.out, "  Proposer:   %s", addressStyle.Sprint(p.Proposer))
	if e.IsAuthor {
		authorStyle.Fprint(r.out, "  (you)")
	}
	fmt.Fprintln(r.out)
	if p.TxHash != "" {
		fmt.Fprintf(r.out, "  Created:    block %d, tx %s\n", p.CreatedAtBlock, p.TxHash)
	}

	fmt.Fprintln(r.out, "\nVoting window:")
	fmt.Fprintf(r.out, "  Start:      block %d, %s\n", p.VoteStartBlock, formatTimestamp(p.VoteStartTimestamp, p.VoteStartEstimated))
	fmt.Fprintf(r.out, "  End:        block %d, %s\n", p.VoteEndBlock, formatTimestamp(p.VoteEndTimestamp, p.VoteEndEstimated))
	band := BandColor(e.Band)
	fmt.Fprintf(r.out, "  Progress:   %s\n", band.Sprintf("%.1f%%", e.Progress*100))
	fmt.Fprintf(r.out, "  Time left:  %s\n", band.Sprint(formatTimeLeft(e.TimeLeft)))

	fmt.Fprintln(r.out, "\nVotes:")
	fmt.Fprintf(r.out, "  For:        %s\n", color.New(color.FgGreen).Sprint(p.VotesFor.String()))
	fmt.Fprintf(r.out, "  Against:    %s\n", color.New(color.FgRed).Sprint(p.VotesAgainst.String()))
	fmt.Fprintf(r.out, "  Abstain:    %s\n", color.New(color.Faint).Sprint(p.VotesAbstain.String()))

	fmt.Fprintln(r.out)
	switch {
	case e.CanVote:
		canVoteStyle.Fprintln(r.out, "You can vote on this proposal")
	case view.HasVoted:
		fmt.Fprintln(r.out, "You have already voted")
	default:
		fmt.Fprintf(r.out, "Voting unavailable: %s\n", e.Reason)
	}
	return nil
}

func formatTimestamp(ts time.Time, estimated bool) string {
	s := ts.Local().Format("2006-01-02 15:04:05")
	if estimated {
		return s + estimatedStyle.Sprint(" (estimated)")
	}
	return s
}

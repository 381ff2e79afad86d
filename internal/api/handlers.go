package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"github.com/OneOfOne/xxhash"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/timertimertimer/kfudao/internal/cli/render"
	"github.com/timertimertimer/kfudao/internal/domain"
	"github.com/timertimertimer/kfudao/internal/usecase"
)

type headResponse struct {
	Number     uint64 `json:"number"`
	ObservedAt int64  `json:"observedAt"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listProposals(c *gin.Context) {
	ctx := c.Request.Context()
	now := s.now()

	var views []usecase.ProposalView
	if address := strings.TrimSpace(c.Query("address")); address != "" {
		if !common.IsHexAddress(address) {
			c.JSON(http.StatusBadRequest, gin.H{"err": "invalid address"})
			return
		}
		views = s.board.ViewsForAddress(ctx, address, now)
	} else {
		views = s.board.Views(ctx, now)
	}

	out := make([]render.ProposalOutput, 0, len(views))
	for _, v := range render.NewestFirst(views) {
		out = append(out, s.output(v))
	}
	s.writeJSON(c, http.StatusOK, out)
}

func (s *Server) getProposal(c *gin.Context) {
	id, ok := new(big.Int).SetString(c.Param("id"), 10)
	if !ok || id.Sign() < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid proposal id"})
		return
	}

	view, err := s.board.View(c.Request.Context(), id, s.now())
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"err": "proposal not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	s.writeJSON(c, http.StatusOK, s.output(*view))
}

func (s *Server) chainHead(c *gin.Context) {
	head, ok := s.head.Latest()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"err": "no block observed yet"})
		return
	}
	c.JSON(http.StatusOK, headResponse{Number: head.Number, ObservedAt: head.ObservedAt.Unix()})
}

func (s *Server) listInstitutes(c *gin.Context) {
	institutes, err := s.catalog.Load(c.Request.Context())
	if err != nil {
		s.log.Error("failed to load institutes", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"err": "institutes unavailable"})
		return
	}
	s.writeJSON(c, http.StatusOK, institutes)
}

func (s *Server) listFaculties(c *gin.Context) {
	faculties, err := s.catalog.Faculties(c.Request.Context(), c.Param("abbr"))
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"err": "institute not found"})
		return
	}
	if err != nil {
		s.log.Error("failed to load faculties", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"err": "faculties unavailable"})
		return
	}
	s.writeJSON(c, http.StatusOK, faculties)
}

// output flattens a view and strips markup from the free-text description
func (s *Server) output(v usecase.ProposalView) render.ProposalOutput {
	out := render.NewProposalOutput(v)
	out.Description = s.sanitizer.Sanitize(out.Description)
	return out
}

// writeJSON sends v with a content hash ETag and answers 304 when the client has it
func (s *Server) writeJSON(c *gin.Context, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	etag := fmt.Sprintf(`"%016x"`, xxhash.Checksum64(body))
	c.Header("ETag", etag)
	if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(status, "application/json; charset=utf-8", body)
}

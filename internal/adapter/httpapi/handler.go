package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"retrieval-engine/internal/domain"
	"retrieval-engine/internal/usecase"
)

// Handler exposes the retrieval pipeline over HTTP.
type Handler struct {
	retrieveUsecase usecase.RetrievePassagesUsecase
}

// NewHandler creates a new Handler.
func NewHandler(retrieveUsecase usecase.RetrievePassagesUsecase) *Handler {
	return &Handler{retrieveUsecase: retrieveUsecase}
}

// RetrieveRequest is the body of POST /v1/retrieve.
type RetrieveRequest struct {
	Question      string `json:"question"`
	SessionID     string `json:"session_id,omitempty"`
	K             int    `json:"k,omitempty"`
	DisableFilter bool   `json:"disable_filter,omitempty"`
}

// RetrievePassage is one ranked passage in the response.
type RetrievePassage struct {
	PassageID   string  `json:"passage_id"`
	Text        string  `json:"text"`
	Source      string  `json:"source"`
	TagPath     string  `json:"tag_path"`
	ResourceURL string  `json:"resource_url,omitempty"`
	Certificate bool    `json:"certificate,omitempty"`
	ChunkIndex  int     `json:"chunk_index"`
	ChunkTotal  int     `json:"chunk_total"`
	Score       float64 `json:"score"`
	Origin      string  `json:"origin"`
	Reranked    bool    `json:"reranked"`
}

// RetrieveResponse is the body returned by POST /v1/retrieve.
type RetrieveResponse struct {
	RetrievalID string            `json:"retrieval_id"`
	Intent      string            `json:"intent"`
	Passages    []RetrievePassage `json:"passages"`
	Context     string            `json:"context"`
	Compressed  bool              `json:"compressed"`
}

// Retrieve runs the pipeline for one question.
// (POST /v1/retrieve)
func (h *Handler) Retrieve(ctx echo.Context) error {
	var req RetrieveRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	output, err := h.retrieveUsecase.Execute(ctx.Request().Context(), usecase.RetrievePassagesInput{
		Question:      req.Question,
		SessionID:     req.SessionID,
		K:             req.K,
		DisableFilter: req.DisableFilter,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmptyQuestion) {
			return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "question is required"})
		}
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	passages := make([]RetrievePassage, len(output.Passages))
	for i, p := range output.Passages {
		passages[i] = RetrievePassage{
			PassageID:   p.PassageID,
			Text:        p.Text,
			Source:      p.Source,
			TagPath:     p.TagPath,
			ResourceURL: p.ResourceURL,
			Certificate: p.Certificate,
			ChunkIndex:  p.ChunkIndex,
			ChunkTotal:  p.ChunkTotal,
			Score:       p.Score,
			Origin:      p.Origin,
			Reranked:    p.Reranked,
		}
	}

	return ctx.JSON(http.StatusOK, RetrieveResponse{
		RetrievalID: output.RetrievalID,
		Intent:      output.Intent,
		Passages:    passages,
		Context:     output.Context,
		Compressed:  output.Compressed,
	})
}

// Health reports liveness.
// (GET /v1/health)
func (h *Handler) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

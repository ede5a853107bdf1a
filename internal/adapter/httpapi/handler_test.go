package httpapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"retrieval-engine/internal/adapter/httpapi"
	"retrieval-engine/internal/domain"
	"retrieval-engine/internal/usecase"
)

type mockRetrieveUsecase struct {
	mock.Mock
}

func (m *mockRetrieveUsecase) Execute(ctx context.Context, input usecase.RetrievePassagesInput) (*usecase.RetrievePassagesOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.RetrievePassagesOutput), args.Error(1)
}

func doRetrieve(t *testing.T, handler *httpapi.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/retrieve", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, handler.Retrieve(e.NewContext(req, rec)))
	return rec
}

func TestHandler_Retrieve(t *testing.T) {
	uc := new(mockRetrieveUsecase)
	uc.On("Execute", mock.Anything, usecase.RetrievePassagesInput{
		Question:  "how do I migrate",
		SessionID: "session-1",
		K:         5,
	}).Return(&usecase.RetrievePassagesOutput{
		RetrievalID: "rid-1",
		Intent:      "migration",
		Passages: []usecase.RetrievedPassage{
			{PassageID: "p-1", Text: "Step one.", Source: "document", TagPath: "document/migration-guides", Score: 1.1, Origin: "dense", Reranked: true},
		},
		Context: "Step one.",
	}, nil)

	handler := httpapi.NewHandler(uc)
	rec := doRetrieve(t, handler, `{"question":"how do I migrate","session_id":"session-1","k":5}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp httpapi.RetrieveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "rid-1", resp.RetrievalID)
	assert.Equal(t, "migration", resp.Intent)
	require.Len(t, resp.Passages, 1)
	assert.Equal(t, "p-1", resp.Passages[0].PassageID)
	assert.True(t, resp.Passages[0].Reranked)
	uc.AssertExpectations(t)
}

func TestHandler_RetrieveEmptyQuestion(t *testing.T) {
	uc := new(mockRetrieveUsecase)
	uc.On("Execute", mock.Anything, mock.Anything).Return(nil, domain.ErrEmptyQuestion)

	handler := httpapi.NewHandler(uc)
	rec := doRetrieve(t, handler, `{"question":""}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_RetrieveMalformedBody(t *testing.T) {
	handler := httpapi.NewHandler(new(mockRetrieveUsecase))
	rec := doRetrieve(t, handler, `{"question": 42`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Health(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	rec := httptest.NewRecorder()

	handler := httpapi.NewHandler(new(mockRetrieveUsecase))
	require.NoError(t, handler.Health(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ThiagoRGoveia/ans-operadoras/internal/database"
	"github.com/ThiagoRGoveia/ans-operadoras/internal/models"
	"github.com/ThiagoRGoveia/ans-operadoras/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDBManager struct {
	mock.Mock
}

func (m *MockDBManager) EnsureSchema(ctx context.Context) error {
	return nil
}

func (m *MockDBManager) WithTx(ctx context.Context, fn func(database.Tx) error) error {
	return nil
}

func (m *MockDBManager) TopOperatorsByExpense(ctx context.Context, window models.ReportWindow, description string, limit int) ([]models.OperatorExpense, error) {
	return nil, nil
}

func (m *MockDBManager) SearchOperators(ctx context.Context, filter models.OperatorFilter) ([]models.Operator, error) {
	args := m.Called(filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Operator), args.Error(1)
}

func ptr(s string) *string { return &s }

func TestOperatorService_SearchOperators(t *testing.T) {
	origins := []string{"http://localhost:5173"}

	t.Run("should return matching operators", func(t *testing.T) {
		dbManager := new(MockDBManager)
		router := SetupRoutes(NewOperatorService(dbManager, logger.Discard()), origins)

		expected := []models.Operator{
			{RegistroANS: "111111", RazaoSocial: ptr("ALFA SAUDE LTDA"), Cidade: ptr("Recife")},
		}
		dbManager.On("SearchOperators", models.OperatorFilter{RazaoSocial: "alfa", Cidade: "Recife"}).Return(expected, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"razao_social":" alfa ","cidade":"Recife"}`))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

		var got []models.Operator
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, expected, got)
		dbManager.AssertExpectations(t)
	})

	t.Run("should accept an empty body as an empty filter", func(t *testing.T) {
		dbManager := new(MockDBManager)
		router := SetupRoutes(NewOperatorService(dbManager, logger.Discard()), origins)
		dbManager.On("SearchOperators", models.OperatorFilter{}).Return([]models.Operator{}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/search", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, "[]", rr.Body.String())
	})

	t.Run("should return bad request for an invalid body", func(t *testing.T) {
		dbManager := new(MockDBManager)
		router := SetupRoutes(NewOperatorService(dbManager, logger.Discard()), origins)

		req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"ticker":"PETR4"}`))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		dbManager.AssertNotCalled(t, "SearchOperators", mock.Anything)
	})

	t.Run("should return internal server error on database failure", func(t *testing.T) {
		dbManager := new(MockDBManager)
		router := SetupRoutes(NewOperatorService(dbManager, logger.Discard()), origins)
		dbManager.On("SearchOperators", models.OperatorFilter{CNPJ: "19541931000125"}).Return(nil, errors.New("db error")).Once()

		req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"cnpj":"19541931000125"}`))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})

	t.Run("should reject other methods", func(t *testing.T) {
		router := SetupRoutes(NewOperatorService(new(MockDBManager), logger.Discard()), origins)

		req := httptest.NewRequest(http.MethodGet, "/search", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	})

	t.Run("should answer cors preflight for allowed origins", func(t *testing.T) {
		router := SetupRoutes(NewOperatorService(new(MockDBManager), logger.Discard()), origins)

		req := httptest.NewRequest(http.MethodOptions, "/search", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
	})
}

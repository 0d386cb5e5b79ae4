package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "finflow/internal/errors"
	"finflow/internal/models"
	"finflow/internal/pagination"
	"finflow/internal/services"
)

// --- mock transaction service ---

type mockTransactionService struct {
	createTransactionFn  func(ctx context.Context, userID uint, input services.CreateTransactionInput) (*models.Transaction, error)
	getUserTxFn          func(userID uint, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	getTransactionByIDFn func(userID, transactionID uint) (*models.Transaction, error)
	updateTransactionFn  func(ctx context.Context, userID, transactionID uint, input services.UpdateTransactionInput) (*models.Transaction, error)
	deleteTransactionFn  func(userID, transactionID uint) error
}

func (m *mockTransactionService) CreateTransaction(ctx context.Context, userID uint, input services.CreateTransactionInput) (*models.Transaction, error) {
	if m.createTransactionFn != nil {
		return m.createTransactionFn(ctx, userID, input)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) GetUserTransactions(userID uint, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if m.getUserTxFn != nil {
		return m.getUserTxFn(userID, page, filter)
	}
	resp := pagination.NewPageResponse([]models.Transaction{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockTransactionService) GetTransactionByID(userID, transactionID uint) (*models.Transaction, error) {
	if m.getTransactionByIDFn != nil {
		return m.getTransactionByIDFn(userID, transactionID)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) UpdateTransaction(ctx context.Context, userID, transactionID uint, input services.UpdateTransactionInput) (*models.Transaction, error) {
	if m.updateTransactionFn != nil {
		return m.updateTransactionFn(ctx, userID, transactionID, input)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) DeleteTransaction(userID, transactionID uint) error {
	if m.deleteTransactionFn != nil {
		return m.deleteTransactionFn(userID, transactionID)
	}
	return nil
}

var _ services.TransactionServicer = (*mockTransactionService)(nil)

func setupTransactionRouter(handler *TransactionHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(1))
	auth.POST("/transactions", handler.CreateTransaction)
	auth.GET("/transactions", handler.GetUserTransactions)
	auth.GET("/transactions/:id", handler.GetTransactionByID)
	auth.PUT("/transactions/:id", handler.UpdateTransaction)
	auth.DELETE("/transactions/:id", handler.DeleteTransaction)
	return r
}

func TestTransactionHandler_CreateTransaction(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		svc := &mockTransactionService{
			createTransactionFn: func(_ context.Context, userID uint, input services.CreateTransactionInput) (*models.Transaction, error) {
				return &models.Transaction{
					Base:            models.Base{ID: 1},
					UserID:          userID,
					Amount:          input.Amount,
					Currency:        "USD",
					ConvertedAmount: input.Amount,
					ExchangeRate:    1.0,
					Type:            input.Type,
					Category:        input.Category,
					Date:            time.Now(),
				}, nil
			},
		}
		handler := NewTransactionHandler(svc)
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "POST", "/transactions",
			`{"amount":2500,"currency":"USD","type":"expense","category":"Groceries"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		tx := result["transaction"].(map[string]interface{})
		if tx["category"] != "Groceries" {
			t.Errorf("expected Groceries, got %v", tx["category"])
		}
	})

	t.Run("parses date-only recurrence end date", func(t *testing.T) {
		var gotEnd *time.Time
		svc := &mockTransactionService{
			createTransactionFn: func(_ context.Context, _ uint, input services.CreateTransactionInput) (*models.Transaction, error) {
				gotEnd = input.RecurrenceEndDate
				return &models.Transaction{}, nil
			},
		}
		handler := NewTransactionHandler(svc)
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "POST", "/transactions",
			`{"amount":5000,"type":"expense","category":"Rent","recurring":true,"recurrence_pattern":"monthly","recurrence_end_date":"2026-12-31"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotEnd == nil {
			t.Fatal("expected recurrence end date to be passed through")
		}
		if gotEnd.Year() != 2026 || gotEnd.Month() != time.December || gotEnd.Day() != 31 {
			t.Errorf("expected 2026-12-31, got %v", gotEnd)
		}
	})

	t.Run("returns 400 on missing amount", func(t *testing.T) {
		handler := NewTransactionHandler(&mockTransactionService{})
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "POST", "/transactions", `{"type":"expense","category":"Food"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on invalid type", func(t *testing.T) {
		handler := NewTransactionHandler(&mockTransactionService{})
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "POST", "/transactions", `{"amount":100,"type":"refund","category":"Misc"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on invalid currency code", func(t *testing.T) {
		handler := NewTransactionHandler(&mockTransactionService{})
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "POST", "/transactions", `{"amount":100,"currency":"DOLLARS","type":"expense","category":"Misc"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on bad date format", func(t *testing.T) {
		handler := NewTransactionHandler(&mockTransactionService{})
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "POST", "/transactions", `{"amount":100,"type":"expense","category":"Misc","date":"31/12/2025"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestTransactionHandler_GetUserTransactions(t *testing.T) {
	t.Run("passes filters through", func(t *testing.T) {
		var gotFilter services.TransactionFilter
		svc := &mockTransactionService{
			getUserTxFn: func(_ uint, _ pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
				gotFilter = filter
				resp := pagination.NewPageResponse([]models.Transaction{}, 1, 20, 0)
				return &resp, nil
			},
		}
		handler := NewTransactionHandler(svc)
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "GET", "/transactions?type=expense&category=Food&min_amount=100&recurring=true", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotFilter.Type == nil || *gotFilter.Type != models.TransactionTypeExpense {
			t.Error("expected expense type filter")
		}
		if gotFilter.Category != "Food" {
			t.Errorf("expected Food category filter, got %q", gotFilter.Category)
		}
		if gotFilter.MinAmount == nil || *gotFilter.MinAmount != 100 {
			t.Error("expected min_amount filter of 100")
		}
		if gotFilter.Recurring == nil || !*gotFilter.Recurring {
			t.Error("expected recurring filter")
		}
	})

	t.Run("returns 400 on invalid type filter", func(t *testing.T) {
		handler := NewTransactionHandler(&mockTransactionService{})
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "GET", "/transactions?type=transfer", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestTransactionHandler_UpdateTransaction(t *testing.T) {
	t.Run("returns 400 for synthetic savings", func(t *testing.T) {
		svc := &mockTransactionService{
			updateTransactionFn: func(_ context.Context, _, _ uint, _ services.UpdateTransactionInput) (*models.Transaction, error) {
				return nil, apperrors.ErrSavingsNotEditable
			},
		}
		handler := NewTransactionHandler(svc)
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "PUT", "/transactions/5", `{"amount":999}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "SAVINGS_NOT_EDITABLE")
	})

	t.Run("returns 404 when not found", func(t *testing.T) {
		svc := &mockTransactionService{
			updateTransactionFn: func(_ context.Context, _, _ uint, _ services.UpdateTransactionInput) (*models.Transaction, error) {
				return nil, apperrors.ErrTransactionNotFound
			},
		}
		handler := NewTransactionHandler(svc)
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "PUT", "/transactions/999", `{"amount":999}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestTransactionHandler_DeleteTransaction(t *testing.T) {
	svc := &mockTransactionService{
		deleteTransactionFn: func(_, transactionID uint) error {
			if transactionID != 9 {
				t.Errorf("expected transaction ID 9, got %d", transactionID)
			}
			return nil
		},
	}
	handler := NewTransactionHandler(svc)
	r := setupTransactionRouter(handler)

	rec := doRequest(r, "DELETE", "/transactions/9", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"finflow/internal/currency"
	apperrors "finflow/internal/errors"
	"finflow/internal/models"
	"finflow/internal/pagination"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db        *gorm.DB
	converter *currency.Converter
	observer  TransactionObserver
}

// NewTransactionService creates a new TransactionServicer. The observer may
// be nil, in which case transaction creation triggers no ad-hoc evaluation.
func NewTransactionService(db *gorm.DB, converter *currency.Converter, observer TransactionObserver) TransactionServicer {
	return &transactionService{
		db:        db,
		converter: converter,
		observer:  observer,
	}
}

// CreateTransaction creates a new transaction for a user. The amount is
// converted to the base currency (identity rate when the rate lookup
// fails), and the reconciliation hook is notified after the commit.
func (s *transactionService) CreateTransaction(ctx context.Context, userID uint, input CreateTransactionInput) (*models.Transaction, error) {
	if input.Amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if strings.TrimSpace(input.Category) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category is required")
	}
	switch input.Type {
	case models.TransactionTypeIncome, models.TransactionTypeExpense:
	case models.TransactionTypeSavings:
		// Reserved for the allocation engine's audit records.
		return nil, apperrors.ErrSavingsNotEditable
	default:
		return nil, apperrors.ErrInvalidTransactionType
	}
	if input.Recurring {
		switch input.RecurrencePattern {
		case models.RecurrenceDaily, models.RecurrenceWeekly, models.RecurrenceMonthly:
		default:
			return nil, apperrors.ErrInvalidRecurrence
		}
	}

	if input.Date.IsZero() {
		input.Date = time.Now()
	}
	if input.Currency == "" {
		input.Currency = s.converter.BaseCurrency()
	}

	conv := s.converter.ConvertWithFallback(ctx, input.Amount, input.Currency)

	transaction := &models.Transaction{
		UserID:            userID,
		Amount:            input.Amount,
		Currency:          strings.ToUpper(input.Currency),
		ConvertedAmount:   conv.ConvertedAmount,
		ExchangeRate:      conv.ExchangeRate,
		Type:              input.Type,
		Category:          input.Category,
		Description:       input.Description,
		Date:              input.Date,
		Tags:              input.Tags,
		Recurring:         input.Recurring,
		RecurrencePattern: input.RecurrencePattern,
		RecurrenceEndDate: input.RecurrenceEndDate,
	}

	if err := s.db.Create(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if s.observer != nil {
		s.observer.TransactionCreated(transaction)
	}

	return transaction, nil
}

// GetUserTransactions retrieves a paginated, filtered list of the user's transactions.
func (s *transactionService) GetUserTransactions(userID uint, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	base = applyTransactionFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Order("date DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("date >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", *f.ToDate)
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.Category != "" {
		q = q.Where("LOWER(category) = LOWER(?)", f.Category)
	}
	if f.MinAmount != nil {
		q = q.Where("amount >= ?", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		q = q.Where("amount <= ?", *f.MaxAmount)
	}
	if f.Recurring != nil {
		q = q.Where("recurring = ?", *f.Recurring)
	}
	return q
}

// GetTransactionByID retrieves a transaction by ID for a specific user
func (s *transactionService) GetTransactionByID(userID, transactionID uint) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Where("id = ? AND user_id = ?", transactionID, userID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// UpdateTransaction updates an existing transaction. Synthetic savings
// records are immutable. A changed amount or currency is re-converted.
func (s *transactionService) UpdateTransaction(ctx context.Context, userID, transactionID uint, input UpdateTransactionInput) (*models.Transaction, error) {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return nil, err
	}

	if transaction.IsSyntheticSavings() {
		return nil, apperrors.ErrSavingsNotEditable
	}

	updates := make(map[string]interface{})
	if input.Amount != nil {
		if *input.Amount <= 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
		}
		updates["amount"] = *input.Amount
	}
	if input.Currency != nil {
		updates["currency"] = strings.ToUpper(*input.Currency)
	}
	if input.Category != nil {
		if strings.TrimSpace(*input.Category) == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category cannot be empty")
		}
		updates["category"] = *input.Category
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Date != nil {
		updates["date"] = *input.Date
	}
	if input.Tags != nil {
		updates["tags"] = input.Tags
	}
	if input.Recurring != nil {
		updates["recurring"] = *input.Recurring
	}
	if input.RecurrencePattern != nil {
		updates["recurrence_pattern"] = *input.RecurrencePattern
	}
	if input.RecurrenceEndDate != nil {
		updates["recurrence_end_date"] = input.RecurrenceEndDate
	}

	// Re-convert when the monetary fields changed.
	if input.Amount != nil || input.Currency != nil {
		amount := transaction.Amount
		if input.Amount != nil {
			amount = *input.Amount
		}
		curr := transaction.Currency
		if input.Currency != nil {
			curr = *input.Currency
		}
		conv := s.converter.ConvertWithFallback(ctx, amount, curr)
		updates["converted_amount"] = conv.ConvertedAmount
		updates["exchange_rate"] = conv.ExchangeRate
	}

	if len(updates) > 0 {
		if err := s.db.Model(transaction).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return transaction, nil
}

// DeleteTransaction deletes a transaction owned by the user.
func (s *transactionService) DeleteTransaction(userID, transactionID uint) error {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return err
	}

	if transaction.IsSyntheticSavings() {
		return apperrors.ErrSavingsNotEditable
	}

	if err := s.db.Delete(transaction).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

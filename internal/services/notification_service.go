package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "finflow/internal/errors"
	"finflow/internal/logger"
	"finflow/internal/models"
	"finflow/internal/pagination"
)

// RetentionAge is how long notifications are kept once their referenced
// budget is no longer active. Notifications tied to a still-active budget
// are preserved regardless of age: deleting them would re-arm threshold
// bands that already fired.
const RetentionAge = 30 * 24 * time.Hour

// notificationService is the deduplicating gate in front of the
// notifications table. Every evaluator proposes through it; it never
// creates a second notification for the same dedup key.
type notificationService struct {
	db *gorm.DB
}

// NewNotificationService creates a new NotificationServicer.
func NewNotificationService(db *gorm.DB) NotificationServicer {
	return &notificationService{db: db}
}

func (c NotificationCandidate) toModel(now time.Time) *models.Notification {
	return &models.Notification{
		UserID:        c.UserID,
		Type:          c.Type,
		Message:       c.Message,
		DedupKey:      c.DedupKey,
		TransactionID: c.TransactionID,
		BudgetID:      c.BudgetID,
		GoalID:        c.GoalID,
		CreatedAt:     now,
	}
}

// Propose inserts the candidate unless a notification with the same dedup
// key already exists. Returns true when a notification was created.
//
// The existence check and insert are not atomic; the unique index on
// dedup_key closes the race, and a duplicate-key failure from a concurrent
// insert is reported as "not created" rather than an error.
func (s *notificationService) Propose(candidate NotificationCandidate) (bool, error) {
	var count int64
	if err := s.db.Model(&models.Notification{}).
		Where("dedup_key = ?", candidate.DedupKey).
		Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return false, nil
	}

	if err := s.db.Create(candidate.toModel(time.Now())).Error; err != nil {
		if isDuplicateKey(err) {
			logger.Get().Debugw("concurrent duplicate notification suppressed",
				"dedup_key", candidate.DedupKey)
			return false, nil
		}
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return true, nil
}

// ProposeWithin inserts the candidate unless a notification with the same
// dedup key was created within the given window. A stale row with the same
// key is refreshed in place so the at-most-one-row-per-key invariant holds
// even for keys that can legitimately re-fire.
func (s *notificationService) ProposeWithin(candidate NotificationCandidate, window time.Duration, now time.Time) (bool, error) {
	var existing models.Notification
	err := s.db.Where("dedup_key = ?", candidate.DedupKey).First(&existing).Error
	switch {
	case err == nil:
		if now.Sub(existing.CreatedAt) < window {
			return false, nil
		}
		updates := map[string]interface{}{
			"message":    candidate.Message,
			"type":       candidate.Type,
			"is_read":    false,
			"created_at": now,
		}
		if err := s.db.Model(&existing).Updates(updates).Error; err != nil {
			return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := s.db.Create(candidate.toModel(now)).Error; err != nil {
			if isDuplicateKey(err) {
				return false, nil
			}
			return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return true, nil
	default:
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
}

// ListNotifications returns the user's notifications, newest first.
// Unless includeRead is set, already-read notifications are filtered out.
func (s *notificationService) ListNotifications(userID uint, includeRead bool, page pagination.PageRequest) (*pagination.PageResponse[models.Notification], error) {
	page.Defaults()

	base := s.db.Model(&models.Notification{}).Where("user_id = ?", userID)
	if !includeRead {
		base = base.Where("is_read = ?", false)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var notifications []models.Notification
	if err := base.Scopes(pagination.Paginate(page)).
		Order("created_at DESC").
		Find(&notifications).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(notifications, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// MarkRead marks a notification as read if it belongs to the user.
func (s *notificationService) MarkRead(userID, notificationID uint) error {
	var notification models.Notification
	if err := s.db.Where("id = ? AND user_id = ?", notificationID, userID).First(&notification).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotificationNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.db.Model(&notification).Update("is_read", true).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// Prune hard-deletes notifications older than the retention age whose
// referenced budget is no longer among the currently active budgets.
// Old notifications without a budget reference are pruned unconditionally.
func (s *notificationService) Prune(now time.Time) (int64, error) {
	cutoff := now.Add(-RetentionAge)
	activeBudgets := s.db.Model(&models.Budget{}).
		Select("id").
		Where("end_date >= ?", now)

	result := s.db.Where("created_at < ?", cutoff).
		Where("budget_id IS NULL OR budget_id NOT IN (?)", activeBudgets).
		Delete(&models.Notification{})
	if result.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	return result.RowsAffected, nil
}

// isDuplicateKey reports whether err is a unique-constraint violation.
// Driver error translation differs between postgres and sqlite, so the
// message is checked as a fallback.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}

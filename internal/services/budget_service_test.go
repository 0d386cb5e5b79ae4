package services

import (
	"testing"
	"time"

	"finflow/internal/models"
	"finflow/internal/pagination"
	"finflow/internal/testutil"
)

func TestCreateBudget(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)

		budget, err := svc.CreateBudget(user.ID, "Groceries", 50000, models.BudgetPeriodMonthly, time.Now(), nil)
		testutil.AssertNoError(t, err)

		if budget.ID == 0 {
			t.Fatal("expected non-zero budget ID")
		}
		if budget.Amount != 50000 {
			t.Errorf("expected amount 50000, got %d", budget.Amount)
		}
		if budget.Period != models.BudgetPeriodMonthly {
			t.Errorf("expected period monthly, got %s", budget.Period)
		}
	})

	t.Run("end_date_derived_from_period", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

		budget, err := svc.CreateBudget(user.ID, "Weekly Coffee", 2000, models.BudgetPeriodWeekly, start, nil)
		testutil.AssertNoError(t, err)

		want := start.AddDate(0, 0, 7)
		if !budget.EndDate.Equal(want) {
			t.Errorf("expected end date %v, got %v", want, budget.EndDate)
		}
	})

	t.Run("invalid_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateBudget(user.ID, "Bad", 0, models.BudgetPeriodMonthly, time.Now(), nil)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("end_before_start", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)

		start := time.Now()
		end := start.AddDate(0, 0, -1)
		_, err := svc.CreateBudget(user.ID, "Backwards", 50000, models.BudgetPeriodMonthly, start, &end)
		testutil.AssertAppError(t, err, "INVALID_DATE_WINDOW")
	})

	t.Run("overlapping_window_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		start := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)

		_, err := svc.CreateBudget(user.ID, "Rent", 100000, models.BudgetPeriodMonthly, start, nil)
		testutil.AssertNoError(t, err)

		// Overlaps the first window's tail.
		_, err = svc.CreateBudget(user.ID, "Rent", 100000, models.BudgetPeriodMonthly, start.AddDate(0, 0, 15), nil)
		testutil.AssertAppError(t, err, "BUDGET_OVERLAP")

		// Category comparison is case-insensitive.
		_, err = svc.CreateBudget(user.ID, "RENT", 100000, models.BudgetPeriodMonthly, start.AddDate(0, 0, 15), nil)
		testutil.AssertAppError(t, err, "BUDGET_OVERLAP")
	})

	t.Run("adjacent_window_allowed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		start := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

		first, err := svc.CreateBudget(user.ID, "Utilities", 30000, models.BudgetPeriodMonthly, start, nil)
		testutil.AssertNoError(t, err)

		_, err = svc.CreateBudget(user.ID, "Utilities", 30000, models.BudgetPeriodMonthly, first.EndDate.AddDate(0, 0, 1), nil)
		testutil.AssertNoError(t, err)
	})

	t.Run("same_window_different_category_allowed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		start := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)

		_, err := svc.CreateBudget(user.ID, "Food", 50000, models.BudgetPeriodMonthly, start, nil)
		testutil.AssertNoError(t, err)

		_, err = svc.CreateBudget(user.ID, "Transport", 20000, models.BudgetPeriodMonthly, start, nil)
		testutil.AssertNoError(t, err)
	})
}

func TestUpdateBudget(t *testing.T) {
	t.Run("update_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)

		budget, err := svc.CreateBudget(user.ID, "Books", 10000, models.BudgetPeriodMonthly, time.Now(), nil)
		testutil.AssertNoError(t, err)

		amount := int64(20000)
		updated, err := svc.UpdateBudget(user.ID, budget.ID, nil, &amount, nil, nil)
		testutil.AssertNoError(t, err)
		if updated.Amount != 20000 {
			t.Errorf("expected amount 20000, got %d", updated.Amount)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)

		amount := int64(20000)
		_, err := svc.UpdateBudget(user.ID, 999999, nil, &amount, nil, nil)
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
	})

	t.Run("update_cannot_create_overlap", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		start := time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)

		first, err := svc.CreateBudget(user.ID, "Gym", 5000, models.BudgetPeriodMonthly, start, nil)
		testutil.AssertNoError(t, err)
		_, err = svc.CreateBudget(user.ID, "Gym", 5000, models.BudgetPeriodMonthly, first.EndDate.AddDate(0, 0, 1), nil)
		testutil.AssertNoError(t, err)

		// Stretching the first window into the second must fail.
		newEnd := first.EndDate.AddDate(0, 0, 10)
		_, err = svc.UpdateBudget(user.ID, first.ID, nil, nil, nil, &newEnd)
		testutil.AssertAppError(t, err, "BUDGET_OVERLAP")
	})
}

func TestDeleteBudget(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewBudgetService(db)
	user := testutil.CreateTestUser(t, db)

	budget, err := svc.CreateBudget(user.ID, "Temp", 5000, models.BudgetPeriodMonthly, time.Now(), nil)
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, svc.DeleteBudget(user.ID, budget.ID))

	_, err = svc.GetBudgetByID(user.ID, budget.ID)
	testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
}

func TestSpentInWindow(t *testing.T) {
	t.Run("sums_converted_expense_amounts_in_window", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		now := time.Now()

		for _, amount := range []int64{1000, 2500} {
			tx := testutil.CreateTestTransaction(t, db, user.ID, models.TransactionTypeExpense, amount)
			if err := db.Model(tx).Update("category", "Snacks").Error; err != nil {
				t.Fatal(err)
			}
		}
		// Income and other categories must not count.
		testutil.CreateTestTransaction(t, db, user.ID, models.TransactionTypeIncome, 99999)
		testutil.CreateTestTransaction(t, db, user.ID, models.TransactionTypeExpense, 7777)

		spent, err := svc.SpentInWindow(user.ID, "snacks", now.AddDate(0, 0, -1), now.AddDate(0, 0, 1))
		testutil.AssertNoError(t, err)
		if spent != 3500 {
			t.Errorf("expected 3500 spent, got %d", spent)
		}
	})

	t.Run("empty_category_matches_all_spending", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		now := time.Now()

		testutil.CreateTestTransaction(t, db, user.ID, models.TransactionTypeExpense, 1000)
		testutil.CreateTestTransaction(t, db, user.ID, models.TransactionTypeExpense, 2000)

		spent, err := svc.SpentInWindow(user.ID, "", now.AddDate(0, 0, -1), now.AddDate(0, 0, 1))
		testutil.AssertNoError(t, err)
		if spent != 3000 {
			t.Errorf("expected 3000 spent, got %d", spent)
		}
	})

	t.Run("excludes_transactions_outside_window", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		now := time.Now()

		tx := testutil.CreateTestTransaction(t, db, user.ID, models.TransactionTypeExpense, 5000)
		if err := db.Model(tx).Update("date", now.AddDate(0, 0, -10)).Error; err != nil {
			t.Fatal(err)
		}

		spent, err := svc.SpentInWindow(user.ID, "", now.AddDate(0, 0, -1), now.AddDate(0, 0, 1))
		testutil.AssertNoError(t, err)
		if spent != 0 {
			t.Errorf("expected 0 spent, got %d", spent)
		}
	})
}

func TestGetBudgetUsage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewBudgetService(db)
	user := testutil.CreateTestUser(t, db)
	now := time.Now()

	_, err := svc.CreateBudget(user.ID, "Pets", 10000, models.BudgetPeriodMonthly, now.AddDate(0, 0, -5), nil)
	testutil.AssertNoError(t, err)

	tx := testutil.CreateTestTransaction(t, db, user.ID, models.TransactionTypeExpense, 4000)
	if err := db.Model(tx).Update("category", "Pets").Error; err != nil {
		t.Fatal(err)
	}

	usage, err := svc.GetBudgetUsage(user.ID)
	testutil.AssertNoError(t, err)
	if len(usage) != 1 {
		t.Fatalf("expected 1 usage row, got %d", len(usage))
	}
	if usage[0].Spent != 4000 {
		t.Errorf("expected spent 4000, got %d", usage[0].Spent)
	}
	if usage[0].Remaining != 6000 {
		t.Errorf("expected remaining 6000, got %d", usage[0].Remaining)
	}
}

func TestGetUserBudgets(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewBudgetService(db)
	user1 := testutil.CreateTestUser(t, db)
	user2 := testutil.CreateTestUser(t, db)
	now := time.Now()

	testutil.CreateTestBudget(t, db, user1.ID, "A", 1000, now, now.AddDate(0, 1, 0))
	testutil.CreateTestBudget(t, db, user1.ID, "B", 1000, now, now.AddDate(0, 1, 0))
	testutil.CreateTestBudget(t, db, user2.ID, "C", 1000, now, now.AddDate(0, 1, 0))

	page := pagination.PageRequest{Page: 1, PageSize: 20}
	result, err := svc.GetUserBudgets(user1.ID, page)
	testutil.AssertNoError(t, err)
	if result.TotalItems != 2 {
		t.Errorf("expected 2 budgets for user1, got %d", result.TotalItems)
	}
}

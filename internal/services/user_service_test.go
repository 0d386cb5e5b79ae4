package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"finflow/internal/testutil"
)

func TestCreateUser(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		email := fmt.Sprintf("alice-%d@example.com", time.Now().UnixNano())
		user, err := svc.CreateUser(email, "s3cret-pass", "Alice", "Smith")
		testutil.AssertNoError(t, err)

		if user.ID == 0 {
			t.Fatal("expected non-zero user ID")
		}
		if user.Password == "s3cret-pass" {
			t.Error("password stored in plaintext")
		}
		if !user.IsActive {
			t.Error("expected new user to be active")
		}
	})

	t.Run("email_normalized_to_lowercase", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		email := fmt.Sprintf("Bob-%d@Example.COM", time.Now().UnixNano())
		user, err := svc.CreateUser(email, "password", "Bob", "Jones")
		testutil.AssertNoError(t, err)
		if user.Email != strings.ToLower(email) {
			t.Errorf("expected lowercased email, got %s", user.Email)
		}
	})

	t.Run("duplicate_email", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		email := fmt.Sprintf("dup-%d@example.com", time.Now().UnixNano())
		_, err := svc.CreateUser(email, "password", "First", "User")
		testutil.AssertNoError(t, err)

		_, err = svc.CreateUser(email, "password", "Second", "User")
		testutil.AssertAppError(t, err, "DUPLICATE_EMAIL")
	})

	t.Run("missing_credentials", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.CreateUser("", "password", "No", "Email")
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		_, err = svc.CreateUser("nopass@example.com", "", "No", "Pass")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestAttemptLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	email := fmt.Sprintf("login-%d@example.com", time.Now().UnixNano())
	created, err := svc.CreateUser(email, "correct-horse", "Login", "Tester")
	testutil.AssertNoError(t, err)

	t.Run("success_records_login_time", func(t *testing.T) {
		user, err := svc.AttemptLogin(email, "correct-horse")
		testutil.AssertNoError(t, err)
		if user.ID != created.ID {
			t.Errorf("expected user %d, got %d", created.ID, user.ID)
		}
		if user.LastLoginAt == nil {
			t.Error("expected last login time to be recorded")
		}
	})

	t.Run("wrong_password", func(t *testing.T) {
		_, err := svc.AttemptLogin(email, "wrong-password")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("unknown_email_not_revealed", func(t *testing.T) {
		_, err := svc.AttemptLogin("nobody@example.com", "whatever")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})
}

func TestVerifyPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	email := fmt.Sprintf("verify-%d@example.com", time.Now().UnixNano())
	user, err := svc.CreateUser(email, "topsecret", "Verify", "Tester")
	testutil.AssertNoError(t, err)

	if !svc.VerifyPassword(user, "topsecret") {
		t.Error("expected correct password to verify")
	}
	if svc.VerifyPassword(user, "nottherightone") {
		t.Error("expected wrong password to fail verification")
	}
}

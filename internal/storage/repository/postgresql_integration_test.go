package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/doorbell-backend/internal/models"
)

func TestStorage_CreateUser(t *testing.T) {
	otpHash := "hashedotp"
	otpExpires := time.Now().Add(5 * time.Minute)
	lastRequest := time.Now()

	tests := []struct {
		name    string
		user    models.User
		wantErr error
		setup   func(t *testing.T, factory *TestDataFactory)
	}{
		{
			name: "successful create user",
			user: models.User{
				Email:          "new@example.com",
				PasswordHash:   "hashedpassword",
				Name:           "New User",
				OTPHash:        &otpHash,
				OTPExpires:     &otpExpires,
				OTPAttempts:    1,
				LastOTPRequest: &lastRequest,
			},
			wantErr: nil,
			setup:   func(_ *testing.T, _ *TestDataFactory) {},
		},
		{
			name: "duplicate email returns ErrUserExists",
			user: models.User{
				Email:        "taken@example.com",
				PasswordHash: "hashedpassword",
				Name:         "Second User",
			},
			wantErr: ErrUserExists,
			setup: func(t *testing.T, factory *TestDataFactory) {
				factory.CreateUser(t, "taken@example.com", "First User", "hashedpassword", true)
			},
		},
		{
			name: "duplicate email differs only in case",
			user: models.User{
				Email:        "mixed@example.com",
				PasswordHash: "hashedpassword",
				Name:         "Second User",
			},
			wantErr: ErrUserExists,
			setup: func(t *testing.T, factory *TestDataFactory) {
				factory.CreateUser(t, "Mixed@Example.com", "First User", "hashedpassword", true)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			factory := NewTestDataFactory(storage)
			tt.setup(t, factory)

			gotUID, err := storage.CreateUser(context.Background(), tt.user)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				require.NotEmpty(t, gotUID)

				verification := NewTestVerification(storage)
				verification.VerifyUserExists(t, gotUID)
			}
		})
	}
}

func TestStorage_DeleteUser(t *testing.T) {
	t.Run("successful delete user", func(t *testing.T) {
		storage, cleanup := setupTestDatabase(t)
		defer cleanup()

		factory := NewTestDataFactory(storage)
		userUID := factory.CreateUser(t, "test@example.com", "testuser", "hashedpassword", false)

		err := storage.DeleteUser(context.Background(), userUID)
		require.NoError(t, err)

		verification := NewTestVerification(storage)
		verification.VerifyUserDeleted(t, userUID)
	})

	t.Run("delete non-existing user", func(t *testing.T) {
		storage, cleanup := setupTestDatabase(t)
		defer cleanup()

		err := storage.DeleteUser(context.Background(), "550e8400-e29b-41d4-a716-446655440000")
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStorage_GetUserByEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr error
		setup   func(t *testing.T, factory *TestDataFactory) string
	}{
		{
			name:    "successful get user by email",
			email:   "test@example.com",
			wantErr: nil,
			setup: func(t *testing.T, factory *TestDataFactory) string {
				return factory.CreateUser(t, "test@example.com", "testuser", "hashedpassword", true)
			},
		},
		{
			name:    "get non-existing user",
			email:   "nobody@example.com",
			wantErr: ErrNotFound,
			setup:   func(_ *testing.T, _ *TestDataFactory) string { return "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			factory := NewTestDataFactory(storage)
			wantUID := tt.setup(t, factory)

			got, err := storage.GetUserByEmail(context.Background(), tt.email)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				require.NotNil(t, got)
				assert.Equal(t, wantUID, got.UID)
				assert.Equal(t, tt.email, got.Email)
				assert.True(t, got.IsVerified)
				assert.Equal(t, models.SubscriptionNone, got.SubscriptionStatus)
			}
		})
	}
}

func TestStorage_SetVerifyOTP(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	userUID := factory.CreateUser(t, "test@example.com", "testuser", "hashedpassword", false)

	now := time.Now()
	err := storage.SetVerifyOTP(context.Background(), userUID, "newhash", now.Add(5*time.Minute), now)
	require.NoError(t, err)

	got, err := storage.GetUser(context.Background(), userUID)
	require.NoError(t, err)
	require.NotNil(t, got.OTPHash)
	assert.Equal(t, "newhash", *got.OTPHash)
	assert.Equal(t, 1, got.OTPAttempts)
	require.NotNil(t, got.LastOTPRequest)

	// Повторная выдача инкрементирует общий счётчик
	err = storage.SetVerifyOTP(context.Background(), userUID, "newerhash", now.Add(5*time.Minute), now)
	require.NoError(t, err)

	err = storage.SetResetOTP(context.Background(), userUID, "resethash", now.Add(5*time.Minute), now)
	require.NoError(t, err)

	got, err = storage.GetUser(context.Background(), userUID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.OTPAttempts)
	require.NotNil(t, got.ResetOTPHash)
	assert.Equal(t, "resethash", *got.ResetOTPHash)
}

func TestStorage_MarkVerified(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	userUID := factory.CreateUserWithOTP(t, "test@example.com", "hashedotp", time.Now().Add(5*time.Minute), 2)

	err := storage.MarkVerified(context.Background(), userUID)
	require.NoError(t, err)

	got, err := storage.GetUser(context.Background(), userUID)
	require.NoError(t, err)
	assert.True(t, got.IsVerified)
	assert.Nil(t, got.OTPHash)
	assert.Nil(t, got.OTPExpires)
	assert.Equal(t, 0, got.OTPAttempts)
}

func TestStorage_UpdatePassword(t *testing.T) {
	t.Run("successful update password clears reset fields", func(t *testing.T) {
		storage, cleanup := setupTestDatabase(t)
		defer cleanup()

		factory := NewTestDataFactory(storage)
		userUID := factory.CreateUser(t, "test@example.com", "testuser", "oldhash", true)

		now := time.Now()
		err := storage.SetResetOTP(context.Background(), userUID, "resethash", now.Add(5*time.Minute), now)
		require.NoError(t, err)

		err = storage.UpdatePassword(context.Background(), userUID, "newhash")
		require.NoError(t, err)

		got, err := storage.GetUser(context.Background(), userUID)
		require.NoError(t, err)
		assert.Equal(t, "newhash", got.PasswordHash)
		assert.Nil(t, got.ResetOTPHash)
		assert.Nil(t, got.ResetOTPExpires)
		assert.Equal(t, 0, got.OTPAttempts)
	})

	t.Run("update password for non-existing user", func(t *testing.T) {
		storage, cleanup := setupTestDatabase(t)
		defer cleanup()

		err := storage.UpdatePassword(context.Background(), "550e8400-e29b-41d4-a716-446655440000", "newhash")
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStorage_ApprovePaymentIf(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	userUID := factory.CreateUser(t, "test@example.com", "testuser", "hashedpassword", true)
	paymentUID := factory.CreatePayment(t, userUID, "basic", models.CycleMonthly, models.PaymentPending)

	approvedAt := time.Now()
	gotRows, err := storage.ApprovePaymentIf(context.Background(), paymentUID, models.PaymentPending, "admin@example.com", approvedAt)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gotRows)

	verification := NewTestVerification(storage)
	verification.VerifyPaymentStatus(t, paymentUID, models.PaymentApproved)

	// Повторное одобрение не находит заявку в исходном статусе
	gotRows, err = storage.ApprovePaymentIf(context.Background(), paymentUID, models.PaymentPending, "admin@example.com", approvedAt)
	require.NoError(t, err)
	assert.Equal(t, int64(0), gotRows)
}

func TestStorage_RejectPaymentIf(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	userUID := factory.CreateUser(t, "test@example.com", "testuser", "hashedpassword", true)
	paymentUID := factory.CreatePayment(t, userUID, "basic", models.CycleMonthly, models.PaymentPending)

	rejectedAt := time.Now()
	gotRows, err := storage.RejectPaymentIf(context.Background(), paymentUID, models.PaymentPending,
		"blurry receipt", "admin@example.com", rejectedAt)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gotRows)

	got, err := storage.GetPayment(context.Background(), paymentUID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRejected, got.Status)
	require.NotNil(t, got.RejectionReason)
	assert.Equal(t, "blurry receipt", *got.RejectionReason)
	require.NotNil(t, got.ApprovedBy)
	assert.Equal(t, "admin@example.com", *got.ApprovedBy)

	latest, err := storage.FindLatestRejectedPayment(context.Background(), userUID)
	require.NoError(t, err)
	assert.Equal(t, paymentUID, latest.UID)
}

func TestStorage_FindPendingPayment(t *testing.T) {
	tests := []struct {
		name    string
		wantErr error
		setup   func(t *testing.T, factory *TestDataFactory) string
	}{
		{
			name:    "successful find pending payment",
			wantErr: nil,
			setup: func(t *testing.T, factory *TestDataFactory) string {
				userUID := factory.CreateUser(t, "test@example.com", "testuser", "hashedpassword", true)
				factory.CreatePayment(t, userUID, "basic", models.CycleMonthly, models.PaymentPending)
				return userUID
			},
		},
		{
			name:    "no pending payment",
			wantErr: ErrNotFound,
			setup: func(t *testing.T, factory *TestDataFactory) string {
				userUID := factory.CreateUser(t, "test@example.com", "testuser", "hashedpassword", true)
				factory.CreatePayment(t, userUID, "basic", models.CycleMonthly, models.PaymentRejected)
				return userUID
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			factory := NewTestDataFactory(storage)
			userUID := tt.setup(t, factory)

			got, err := storage.FindPendingPayment(context.Background(), userUID)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				require.NotNil(t, got)
				assert.Equal(t, models.PaymentPending, got.Status)
			}
		})
	}
}

func TestStorage_CreateSubscriptionRecord(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	userUID := factory.CreateUser(t, "test@example.com", "testuser", "hashedpassword", true)
	paymentUID := factory.CreatePayment(t, userUID, "basic", models.CycleMonthly, models.PaymentApproved)

	approvedAt := time.Now()
	recordUID, err := storage.CreateSubscriptionRecord(context.Background(), models.SubscriptionRecord{
		UserUID:      userUID,
		PaymentUID:   paymentUID,
		Plan:         "basic",
		BillingCycle: models.CycleMonthly,
		Amount:       499.00,
		Status:       models.SubscriptionActive,
		StartDate:    approvedAt,
		EndDate:      approvedAt.AddDate(0, 1, 0),
		ApprovedBy:   "admin@example.com",
		ApprovedAt:   approvedAt,
	})
	require.NoError(t, err)
	require.NotEmpty(t, recordUID)

	records, err := storage.ListSubscriptionRecords(context.Background(), userUID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, paymentUID, records[0].PaymentUID)
	assert.Equal(t, models.SubscriptionActive, records[0].Status)
}

func TestStorage_ListPlans(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	plans, err := storage.ListPlans(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "basic", plans[0].Name)
	assert.Equal(t, "premium", plans[1].Name)
}

func TestStorage_GetVisitor(t *testing.T) {
	tests := []struct {
		name    string
		wantErr error
		setup   func(t *testing.T, factory *TestDataFactory) (string, string)
	}{
		{
			name:    "successful get own visitor",
			wantErr: nil,
			setup: func(t *testing.T, factory *TestDataFactory) (string, string) {
				userUID := factory.CreateUser(t, "owner@example.com", "owner", "hashedpassword", true)
				visitorUID := factory.CreateVisitor(t, userUID, "Courier")
				return visitorUID, userUID
			},
		},
		{
			name:    "foreign visitor is indistinguishable from missing",
			wantErr: ErrNotFound,
			setup: func(t *testing.T, factory *TestDataFactory) (string, string) {
				ownerUID := factory.CreateUser(t, "owner@example.com", "owner", "hashedpassword", true)
				otherUID := factory.CreateUser(t, "other@example.com", "other", "hashedpassword", true)
				visitorUID := factory.CreateVisitor(t, ownerUID, "Courier")
				return visitorUID, otherUID
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			factory := NewTestDataFactory(storage)
			visitorUID, userUID := tt.setup(t, factory)

			got, err := storage.GetVisitor(context.Background(), visitorUID, userUID)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				require.NotNil(t, got)
				assert.Equal(t, "Courier", got.Name)
			}
		})
	}
}

func TestStorage_CreateOwnershipRequest(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	userUID := factory.CreateUser(t, "owner@example.com", "owner", "hashedpassword", true)

	requestUID, err := storage.CreateOwnershipRequest(context.Background(), models.OwnershipRequest{
		UserUID:   userUID,
		UserName:  "owner",
		UserEmail: "owner@example.com",
		Type:      models.RequestOwnershipTransfer,
		Details: map[string]any{
			"new_owner_email": "heir@example.com",
			"reason":          "moving out",
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, requestUID)

	got, err := storage.GetOwnershipRequest(context.Background(), requestUID, userUID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestOwnershipTransfer, got.Type)
	assert.Equal(t, "heir@example.com", got.Details["new_owner_email"])

	// Чужая заявка недоступна
	otherUID := factory.CreateUser(t, "other@example.com", "other", "hashedpassword", true)
	_, err = storage.GetOwnershipRequest(context.Background(), requestUID, otherUID)
	require.ErrorIs(t, err, ErrNotFound)
}

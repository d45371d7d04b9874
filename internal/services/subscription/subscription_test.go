package services

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/doorbell-backend/internal/models"
	"github.com/magabrotheeeer/doorbell-backend/internal/rabbitmq"
	"github.com/magabrotheeeer/doorbell-backend/internal/storage/repository"
)

type PaymentRepoMock struct {
	mock.Mock
}

func (m *PaymentRepoMock) CreatePayment(ctx context.Context, payment models.Payment) (string, error) {
	args := m.Called(ctx, payment)
	return args.String(0), args.Error(1)
}

func (m *PaymentRepoMock) GetPayment(ctx context.Context, paymentUID string) (*models.Payment, error) {
	args := m.Called(ctx, paymentUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *PaymentRepoMock) FindPendingPayment(ctx context.Context, userUID string) (*models.Payment, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *PaymentRepoMock) FindReconcilablePayment(ctx context.Context, userUID string) (*models.Payment, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *PaymentRepoMock) ListPaymentsByStatus(ctx context.Context, status string) ([]*models.Payment, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payment), args.Error(1)
}

func (m *PaymentRepoMock) ApprovePaymentIf(ctx context.Context, paymentUID, fromStatus, approvedBy string, approvedAt time.Time) (int64, error) {
	args := m.Called(ctx, paymentUID, fromStatus, approvedBy, approvedAt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *PaymentRepoMock) RejectPaymentIf(ctx context.Context, paymentUID, fromStatus, reason, rejectedBy string, rejectedAt time.Time) (int64, error) {
	args := m.Called(ctx, paymentUID, fromStatus, reason, rejectedBy, rejectedAt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *PaymentRepoMock) FindLatestRejectedPayment(ctx context.Context, userUID string) (*models.Payment, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *PaymentRepoMock) CreateSubscriptionRecord(ctx context.Context, record models.SubscriptionRecord) (string, error) {
	args := m.Called(ctx, record)
	return args.String(0), args.Error(1)
}

func (m *PaymentRepoMock) ListSubscriptionRecords(ctx context.Context, userUID string) ([]*models.SubscriptionRecord, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SubscriptionRecord), args.Error(1)
}

func (m *PaymentRepoMock) ListPlans(ctx context.Context) ([]*models.Plan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Plan), args.Error(1)
}

func (m *PaymentRepoMock) GetPlanByName(ctx context.Context, name string) (*models.Plan, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *PaymentRepoMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *PaymentRepoMock) SetSubscriptionSnapshot(ctx context.Context, userUID, status, plan string, startDate, endDate time.Time) error {
	args := m.Called(ctx, userUID, status, plan, startDate, endDate)
	return args.Error(0)
}

func (m *PaymentRepoMock) SetSubscriptionStatus(ctx context.Context, userUID, status string) error {
	args := m.Called(ctx, userUID, status)
	return args.Error(0)
}

type CacheMock struct {
	mock.Mock
}

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *CacheMock) Invalidate(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

type BlobStoreMock struct {
	mock.Mock
}

func (m *BlobStoreMock) Upload(ctx context.Context, r io.Reader, folder string) (string, string, error) {
	args := m.Called(ctx, r, folder)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *BlobStoreMock) Delete(ctx context.Context, fileName string) error {
	args := m.Called(ctx, fileName)
	return args.Error(0)
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(routingKey string, message any) error {
	args := m.Called(routingKey, message)
	return args.Error(0)
}

func noopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func permissiveCache() *CacheMock {
	cache := new(CacheMock)
	cache.On("Get", mock.Anything, mock.Anything).Return(false, nil).Maybe()
	cache.On("Set", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	cache.On("Invalidate", mock.Anything).Return(nil).Maybe()
	return cache
}

func TestSubscriptionService_SubmitPayment(t *testing.T) {
	user := &models.User{UID: "user-uid", Email: "test@example.com", Name: "Test User"}
	basicPlan := &models.Plan{UID: "plan-uid", Name: "basic", MonthlyPrice: 499, YearlyPrice: 4990}

	tests := []struct {
		name       string
		req        SubmitPaymentRequest
		setupMocks func(r *PaymentRepoMock, b *BlobStoreMock, p *PublisherMock)
		wantErr    error
		wantAmount float64
	}{
		{
			name: "successful submit lowercases plan and picks monthly price",
			req: SubmitPaymentRequest{
				DeviceID: "ABC123DEF456", Plan: "  Basic ", BillingCycle: models.CycleMonthly,
				ContactNumber: "+70000000000",
			},
			setupMocks: func(r *PaymentRepoMock, b *BlobStoreMock, p *PublisherMock) {
				r.On("FindPendingPayment", mock.Anything, "user-uid").
					Return(nil, repository.ErrNotFound).Once()
				r.On("GetPlanByName", mock.Anything, "basic").Return(basicPlan, nil).Once()
				b.On("Upload", mock.Anything, mock.Anything, "receipts").
					Return("https://cdn.example.com/receipt.jpg", "receipts/abc", nil).Once()
				r.On("CreatePayment", mock.Anything, mock.MatchedBy(func(payment models.Payment) bool {
					return payment.Plan == "basic" &&
						payment.Amount == 499 &&
						payment.Status == models.PaymentPending &&
						payment.ReceiptURL == "https://cdn.example.com/receipt.jpg"
				})).Return("payment-uid", nil).Once()
				r.On("SetSubscriptionStatus", mock.Anything, "user-uid", models.SubscriptionPending).
					Return(nil).Once()
				p.On("Publish", rabbitmq.RoutingKeyPaymentSubmitted, mock.Anything).Return(nil).Once()
			},
			wantAmount: 499,
		},
		{
			name: "yearly cycle picks yearly price",
			req: SubmitPaymentRequest{
				DeviceID: "ABC123DEF456", Plan: "basic", BillingCycle: models.CycleYearly,
				ContactNumber: "+70000000000",
			},
			setupMocks: func(r *PaymentRepoMock, b *BlobStoreMock, p *PublisherMock) {
				r.On("FindPendingPayment", mock.Anything, "user-uid").
					Return(nil, repository.ErrNotFound).Once()
				r.On("GetPlanByName", mock.Anything, "basic").Return(basicPlan, nil).Once()
				b.On("Upload", mock.Anything, mock.Anything, "receipts").
					Return("https://cdn.example.com/receipt.jpg", "receipts/abc", nil).Once()
				r.On("CreatePayment", mock.Anything, mock.MatchedBy(func(payment models.Payment) bool {
					return payment.Amount == 4990
				})).Return("payment-uid", nil).Once()
				r.On("SetSubscriptionStatus", mock.Anything, "user-uid", models.SubscriptionPending).
					Return(nil).Once()
				p.On("Publish", rabbitmq.RoutingKeyPaymentSubmitted, mock.Anything).Return(nil).Once()
			},
			wantAmount: 4990,
		},
		{
			name: "existing pending payment blocks new submission",
			req:  SubmitPaymentRequest{DeviceID: "ABC123DEF456", Plan: "basic", BillingCycle: models.CycleMonthly},
			setupMocks: func(r *PaymentRepoMock, _ *BlobStoreMock, _ *PublisherMock) {
				r.On("FindPendingPayment", mock.Anything, "user-uid").
					Return(&models.Payment{UID: "old-payment"}, nil).Once()
			},
			wantErr: ErrPaymentPending,
		},
		{
			name: "unknown plan",
			req:  SubmitPaymentRequest{DeviceID: "ABC123DEF456", Plan: "platinum", BillingCycle: models.CycleMonthly},
			setupMocks: func(r *PaymentRepoMock, _ *BlobStoreMock, _ *PublisherMock) {
				r.On("FindPendingPayment", mock.Anything, "user-uid").
					Return(nil, repository.ErrNotFound).Once()
				r.On("GetPlanByName", mock.Anything, "platinum").
					Return(nil, repository.ErrNotFound).Once()
			},
			wantErr: ErrPlanNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(PaymentRepoMock)
			blobStore := new(BlobStoreMock)
			publisher := new(PublisherMock)
			tt.setupMocks(repo, blobStore, publisher)

			svc := NewSubscriptionService(repo, permissiveCache(), blobStore, publisher, noopLogger())

			got, err := svc.SubmitPayment(context.Background(), user, tt.req,
				strings.NewReader("receipt-bytes"))

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				require.NotNil(t, got)
				assert.Equal(t, "payment-uid", got.UID)
				assert.Equal(t, tt.wantAmount, got.Amount)
			}
			repo.AssertExpectations(t)
			blobStore.AssertExpectations(t)
			publisher.AssertExpectations(t)
		})
	}
}

func TestSubscriptionService_ApprovePayment(t *testing.T) {
	payment := &models.Payment{
		UID:          "payment-uid",
		UserUID:      "user-uid",
		UserName:     "Test User",
		Email:        "test@example.com",
		Plan:         "basic",
		BillingCycle: models.CycleMonthly,
		Amount:       499,
		Status:       models.PaymentPending,
	}

	tests := []struct {
		name       string
		setupMocks func(r *PaymentRepoMock, p *PublisherMock)
		wantErr    error
	}{
		{
			name: "successful approve activates subscription",
			setupMocks: func(r *PaymentRepoMock, p *PublisherMock) {
				r.On("GetPayment", mock.Anything, "payment-uid").Return(payment, nil).Once()
				r.On("ApprovePaymentIf", mock.Anything, "payment-uid", models.PaymentPending,
					"admin@example.com", mock.Anything).Return(int64(1), nil).Once()
				r.On("CreateSubscriptionRecord", mock.Anything, mock.MatchedBy(func(record models.SubscriptionRecord) bool {
					return record.PaymentUID == "payment-uid" &&
						record.Status == models.SubscriptionActive &&
						record.EndDate.Sub(record.StartDate) > 27*24*time.Hour
				})).Return("record-uid", nil).Once()
				r.On("SetSubscriptionSnapshot", mock.Anything, "user-uid",
					models.SubscriptionActive, "basic", mock.Anything, mock.Anything).
					Return(nil).Once()
				p.On("Publish", rabbitmq.RoutingKeyPaymentApproved, mock.Anything).Return(nil).Once()
			},
		},
		{
			name: "already approved payment conflicts",
			setupMocks: func(r *PaymentRepoMock, _ *PublisherMock) {
				r.On("GetPayment", mock.Anything, "payment-uid").Return(payment, nil).Once()
				r.On("ApprovePaymentIf", mock.Anything, "payment-uid", models.PaymentPending,
					"admin@example.com", mock.Anything).Return(int64(0), nil).Once()
			},
			wantErr: ErrPaymentConflict,
		},
		{
			name: "unknown payment",
			setupMocks: func(r *PaymentRepoMock, _ *PublisherMock) {
				r.On("GetPayment", mock.Anything, "payment-uid").
					Return(nil, repository.ErrNotFound).Once()
			},
			wantErr: ErrPaymentNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(PaymentRepoMock)
			publisher := new(PublisherMock)
			tt.setupMocks(repo, publisher)

			svc := NewSubscriptionService(repo, permissiveCache(), new(BlobStoreMock), publisher, noopLogger())

			got, err := svc.ApprovePayment(context.Background(), "payment-uid", "admin@example.com")

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				require.NotNil(t, got)
				assert.Equal(t, models.PaymentApproved, got.Status)
				require.NotNil(t, got.ApprovedBy)
				assert.Equal(t, "admin@example.com", *got.ApprovedBy)
			}
			repo.AssertExpectations(t)
			publisher.AssertExpectations(t)
		})
	}
}

func TestSubscriptionService_RejectPayment(t *testing.T) {
	payment := &models.Payment{
		UID:          "payment-uid",
		UserUID:      "user-uid",
		UserName:     "Test User",
		Email:        "test@example.com",
		Plan:         "basic",
		BillingCycle: models.CycleMonthly,
		Status:       models.PaymentPending,
	}

	t.Run("successful reject stores reason verbatim and records rejector", func(t *testing.T) {
		repo := new(PaymentRepoMock)
		publisher := new(PublisherMock)
		repo.On("GetPayment", mock.Anything, "payment-uid").Return(payment, nil).Once()
		repo.On("RejectPaymentIf", mock.Anything, "payment-uid", models.PaymentPending,
			"  Blurry receipt!  ", "admin@example.com", mock.Anything).Return(int64(1), nil).Once()
		repo.On("SetSubscriptionStatus", mock.Anything, "user-uid", models.SubscriptionNone).
			Return(nil).Once()
		publisher.On("Publish", rabbitmq.RoutingKeyPaymentRejected, mock.MatchedBy(func(event any) bool {
			e, ok := event.(models.PaymentEvent)
			return ok && e.Reason == "  Blurry receipt!  "
		})).Return(nil).Once()

		svc := NewSubscriptionService(repo, permissiveCache(), new(BlobStoreMock), publisher, noopLogger())

		got, err := svc.RejectPayment(context.Background(), "payment-uid", "  Blurry receipt!  ", "admin@example.com")
		require.NoError(t, err)
		require.NotNil(t, got.RejectionReason)
		assert.Equal(t, "  Blurry receipt!  ", *got.RejectionReason)
		require.NotNil(t, got.ApprovedBy)
		assert.Equal(t, "admin@example.com", *got.ApprovedBy)
		require.NotNil(t, got.ApprovedAt)
		repo.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("reject after approve conflicts", func(t *testing.T) {
		repo := new(PaymentRepoMock)
		repo.On("GetPayment", mock.Anything, "payment-uid").Return(payment, nil).Once()
		repo.On("RejectPaymentIf", mock.Anything, "payment-uid", models.PaymentPending, "late",
			"admin@example.com", mock.Anything).Return(int64(0), nil).Once()

		svc := NewSubscriptionService(repo, permissiveCache(), new(BlobStoreMock), new(PublisherMock), noopLogger())

		_, err := svc.RejectPayment(context.Background(), "payment-uid", "late", "admin@example.com")
		require.ErrorIs(t, err, ErrPaymentConflict)
		repo.AssertExpectations(t)
	})
}

func TestSubscriptionService_Status(t *testing.T) {
	t.Run("reconciles confirmed payment into activation", func(t *testing.T) {
		confirmed := &models.Payment{
			UID:          "payment-uid",
			UserUID:      "user-uid",
			Plan:         "basic",
			BillingCycle: models.CycleMonthly,
			Amount:       499,
			Status:       models.PaymentConfirmed,
		}
		plan := "basic"
		start := time.Now().UTC()
		end := start.AddDate(0, 1, 0)

		repo := new(PaymentRepoMock)
		repo.On("GetUser", mock.Anything, "user-uid").
			Return(&models.User{UID: "user-uid", SubscriptionStatus: models.SubscriptionPending}, nil).Once()
		repo.On("FindReconcilablePayment", mock.Anything, "user-uid").Return(confirmed, nil).Once()
		repo.On("ApprovePaymentIf", mock.Anything, "payment-uid", models.PaymentConfirmed,
			"system", mock.Anything).Return(int64(1), nil).Once()
		repo.On("CreateSubscriptionRecord", mock.Anything, mock.Anything).Return("record-uid", nil).Once()
		repo.On("SetSubscriptionSnapshot", mock.Anything, "user-uid",
			models.SubscriptionActive, "basic", mock.Anything, mock.Anything).Return(nil).Once()
		repo.On("GetUser", mock.Anything, "user-uid").
			Return(&models.User{
				UID:                   "user-uid",
				SubscriptionStatus:    models.SubscriptionActive,
				SubscriptionPlan:      &plan,
				SubscriptionStartDate: &start,
				SubscriptionEndDate:   &end,
			}, nil).Once()
		repo.On("FindPendingPayment", mock.Anything, "user-uid").
			Return(nil, repository.ErrNotFound).Once()

		svc := NewSubscriptionService(repo, permissiveCache(), new(BlobStoreMock), nil, noopLogger())

		info, err := svc.Status(context.Background(), "user-uid")
		require.NoError(t, err)
		assert.Equal(t, models.SubscriptionActive, info.Status)
		assert.Equal(t, "basic", info.Plan)
		assert.False(t, info.PendingPayment)
		repo.AssertExpectations(t)
	})

	t.Run("marks overdue active subscription expired", func(t *testing.T) {
		plan := "basic"
		start := time.Now().UTC().AddDate(0, -2, 0)
		end := time.Now().UTC().AddDate(0, -1, 0)

		repo := new(PaymentRepoMock)
		repo.On("GetUser", mock.Anything, "user-uid").
			Return(&models.User{
				UID:                   "user-uid",
				SubscriptionStatus:    models.SubscriptionActive,
				SubscriptionPlan:      &plan,
				SubscriptionStartDate: &start,
				SubscriptionEndDate:   &end,
			}, nil).Once()
		repo.On("SetSubscriptionStatus", mock.Anything, "user-uid", models.SubscriptionExpired).
			Return(nil).Once()
		repo.On("FindPendingPayment", mock.Anything, "user-uid").
			Return(nil, repository.ErrNotFound).Once()

		svc := NewSubscriptionService(repo, permissiveCache(), new(BlobStoreMock), nil, noopLogger())

		info, err := svc.Status(context.Background(), "user-uid")
		require.NoError(t, err)
		assert.Equal(t, models.SubscriptionExpired, info.Status)
		repo.AssertExpectations(t)
	})

	t.Run("surfaces rejection reason until a new submission", func(t *testing.T) {
		reason := "  Blurry receipt!  "
		repo := new(PaymentRepoMock)
		repo.On("GetUser", mock.Anything, "user-uid").
			Return(&models.User{UID: "user-uid", SubscriptionStatus: models.SubscriptionNone}, nil).Once()
		repo.On("FindReconcilablePayment", mock.Anything, "user-uid").
			Return(nil, repository.ErrNotFound).Once()
		repo.On("FindPendingPayment", mock.Anything, "user-uid").
			Return(nil, repository.ErrNotFound).Once()
		repo.On("FindLatestRejectedPayment", mock.Anything, "user-uid").
			Return(&models.Payment{
				UID:             "payment-uid",
				Status:          models.PaymentRejected,
				RejectionReason: &reason,
			}, nil).Once()

		svc := NewSubscriptionService(repo, permissiveCache(), new(BlobStoreMock), nil, noopLogger())

		info, err := svc.Status(context.Background(), "user-uid")
		require.NoError(t, err)
		assert.Equal(t, models.SubscriptionNone, info.Status)
		assert.Equal(t, "  Blurry receipt!  ", info.RejectionReason)
		repo.AssertExpectations(t)
	})

	t.Run("reports pending payment flag", func(t *testing.T) {
		repo := new(PaymentRepoMock)
		repo.On("GetUser", mock.Anything, "user-uid").
			Return(&models.User{UID: "user-uid", SubscriptionStatus: models.SubscriptionPending}, nil).Once()
		repo.On("FindReconcilablePayment", mock.Anything, "user-uid").
			Return(nil, repository.ErrNotFound).Once()
		repo.On("FindPendingPayment", mock.Anything, "user-uid").
			Return(&models.Payment{UID: "payment-uid"}, nil).Once()

		svc := NewSubscriptionService(repo, permissiveCache(), new(BlobStoreMock), nil, noopLogger())

		info, err := svc.Status(context.Background(), "user-uid")
		require.NoError(t, err)
		assert.Equal(t, models.SubscriptionPending, info.Status)
		assert.True(t, info.PendingPayment)
		repo.AssertExpectations(t)
	})
}

func TestSubscriptionService_ListPlans(t *testing.T) {
	plans := []*models.Plan{
		{UID: "plan-1", Name: "basic", MonthlyPrice: 499, YearlyPrice: 4990},
		{UID: "plan-2", Name: "premium", MonthlyPrice: 999, YearlyPrice: 9990},
	}

	t.Run("cache miss loads from repository", func(t *testing.T) {
		repo := new(PaymentRepoMock)
		repo.On("ListPlans", mock.Anything).Return(plans, nil).Once()

		cache := new(CacheMock)
		cache.On("Get", "subscription:plans", mock.Anything).Return(false, nil).Once()
		cache.On("Set", "subscription:plans", plans, time.Hour).Return(nil).Once()

		svc := NewSubscriptionService(repo, cache, new(BlobStoreMock), nil, noopLogger())

		got, err := svc.ListPlans(context.Background())
		require.NoError(t, err)
		assert.Len(t, got, 2)
		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("cache hit skips repository", func(t *testing.T) {
		repo := new(PaymentRepoMock)

		cache := new(CacheMock)
		cache.On("Get", "subscription:plans", mock.Anything).Return(true, nil).Once()

		svc := NewSubscriptionService(repo, cache, new(BlobStoreMock), nil, noopLogger())

		_, err := svc.ListPlans(context.Background())
		require.NoError(t, err)
		repo.AssertNotCalled(t, "ListPlans")
		cache.AssertExpectations(t)
	})
}

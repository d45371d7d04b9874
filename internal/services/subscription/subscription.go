// Package services содержит бизнес-логику платежного цикла подписки:
// подача квитанции, ручная проверка оплаты и активация.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/doorbell-backend/internal/lib/blob"
	"github.com/magabrotheeeer/doorbell-backend/internal/lib/period"
	"github.com/magabrotheeeer/doorbell-backend/internal/lib/sl"
	"github.com/magabrotheeeer/doorbell-backend/internal/models"
	"github.com/magabrotheeeer/doorbell-backend/internal/rabbitmq"
	"github.com/magabrotheeeer/doorbell-backend/internal/storage/repository"
)

// Ошибки бизнес-уровня платежного цикла.
var (
	ErrPaymentPending  = errors.New("user already has a pending payment")
	ErrPaymentNotFound = errors.New("payment not found")
	ErrPaymentConflict = errors.New("payment is no longer in the expected status")
	ErrPlanNotFound    = errors.New("subscription plan not found")
)

// PaymentRepository определяет методы работы с платежами и подписками в хранилище.
type PaymentRepository interface {
	CreatePayment(ctx context.Context, payment models.Payment) (string, error)
	GetPayment(ctx context.Context, paymentUID string) (*models.Payment, error)
	FindPendingPayment(ctx context.Context, userUID string) (*models.Payment, error)
	FindReconcilablePayment(ctx context.Context, userUID string) (*models.Payment, error)
	FindLatestRejectedPayment(ctx context.Context, userUID string) (*models.Payment, error)
	ListPaymentsByStatus(ctx context.Context, status string) ([]*models.Payment, error)
	ApprovePaymentIf(ctx context.Context, paymentUID, fromStatus, approvedBy string, approvedAt time.Time) (int64, error)
	RejectPaymentIf(ctx context.Context, paymentUID, fromStatus, reason, rejectedBy string, rejectedAt time.Time) (int64, error)
	CreateSubscriptionRecord(ctx context.Context, record models.SubscriptionRecord) (string, error)
	ListSubscriptionRecords(ctx context.Context, userUID string) ([]*models.SubscriptionRecord, error)
	ListPlans(ctx context.Context) ([]*models.Plan, error)
	GetPlanByName(ctx context.Context, name string) (*models.Plan, error)
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	SetSubscriptionSnapshot(ctx context.Context, userUID, status, plan string, startDate, endDate time.Time) error
	SetSubscriptionStatus(ctx context.Context, userUID, status string) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// EventPublisher публикует события платежного цикла в обменник уведомлений.
type EventPublisher interface {
	Publish(routingKey string, message any) error
}

// SubmitPaymentRequest содержит данные формы подачи оплаты.
type SubmitPaymentRequest struct {
	DeviceID      string
	Plan          string
	BillingCycle  string
	ContactNumber string
}

// StatusInfo агрегирует состояние подписки пользователя для выдачи наружу.
type StatusInfo struct {
	Status          string     `json:"status"`
	Plan            string     `json:"plan,omitempty"`
	StartDate       *time.Time `json:"start_date,omitempty"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	DaysLeft        int        `json:"days_left,omitempty"`
	PendingPayment  bool       `json:"pending_payment"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
}

// SubscriptionService реализует платежный цикл с кешированием и событиями.
type SubscriptionService struct {
	repo     PaymentRepository
	cache    Cache
	receipts blob.Store
	events   EventPublisher
	log      *slog.Logger
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
func NewSubscriptionService(repo PaymentRepository, cache Cache, receipts blob.Store,
	events EventPublisher, log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		repo:     repo,
		cache:    cache,
		receipts: receipts,
		events:   events,
		log:      log,
	}
}

func statusCacheKey(userUID string) string {
	return fmt.Sprintf("subscription:status:%s", userUID)
}

const plansCacheKey = "subscription:plans"

// SubmitPayment принимает квитанцию об оплате и создает заявку в статусе
// pending. У пользователя может быть только одна незакрытая заявка.
func (s *SubscriptionService) SubmitPayment(ctx context.Context, user *models.User,
	req SubmitPaymentRequest, receipt io.Reader) (*models.Payment, error) {
	if _, err := s.repo.FindPendingPayment(ctx, user.UID); err == nil {
		return nil, ErrPaymentPending
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	planName := strings.ToLower(strings.TrimSpace(req.Plan))
	plan, err := s.repo.GetPlanByName(ctx, planName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	amount := plan.MonthlyPrice
	if req.BillingCycle == models.CycleYearly {
		amount = plan.YearlyPrice
	}

	receiptURL, _, err := s.receipts.Upload(ctx, receipt, "receipts")
	if err != nil {
		return nil, fmt.Errorf("failed to upload receipt: %w", err)
	}

	payment := models.Payment{
		UserUID:       user.UID,
		UserName:      user.Name,
		Email:         user.Email,
		ContactNumber: req.ContactNumber,
		DeviceID:      req.DeviceID,
		Plan:          planName,
		BillingCycle:  req.BillingCycle,
		Amount:        amount,
		ReceiptURL:    receiptURL,
		Status:        models.PaymentPending,
	}
	paymentUID, err := s.repo.CreatePayment(ctx, payment)
	if err != nil {
		return nil, err
	}
	payment.UID = paymentUID

	if err := s.repo.SetSubscriptionStatus(ctx, user.UID, models.SubscriptionPending); err != nil {
		return nil, err
	}
	s.invalidateStatus(user.UID)

	s.publishEvent(rabbitmq.RoutingKeyPaymentSubmitted, models.PaymentEvent{
		Event:        rabbitmq.RoutingKeyPaymentSubmitted,
		PaymentUID:   paymentUID,
		UserUID:      user.UID,
		Email:        user.Email,
		Name:         user.Name,
		Plan:         planName,
		BillingCycle: req.BillingCycle,
		Amount:       amount,
	})

	s.log.Info("payment submitted",
		slog.String("payment_uid", paymentUID),
		slog.String("user_uid", user.UID),
		slog.String("plan", planName))
	return &payment, nil
}

// Status возвращает агрегированное состояние подписки. Подтверждённая, но
// не активированная оплата доводится до активации прямо здесь, а
// просроченная активная подписка помечается истёкшей.
func (s *SubscriptionService) Status(ctx context.Context, userUID string) (*StatusInfo, error) {
	cacheKey := statusCacheKey(userUID)
	var cached StatusInfo
	if found, err := s.cache.Get(cacheKey, &cached); err == nil && found {
		return &cached, nil
	}

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	// Сверка: подтверждённая оплата без активной подписки активируется здесь.
	if user.SubscriptionStatus != models.SubscriptionActive {
		if payment, err := s.repo.FindReconcilablePayment(ctx, userUID); err == nil {
			rows, err := s.repo.ApprovePaymentIf(ctx, payment.UID, models.PaymentConfirmed, "system", now)
			if err != nil {
				return nil, err
			}
			if rows > 0 {
				if err := s.activate(ctx, payment, "system", now); err != nil {
					return nil, err
				}
				user, err = s.repo.GetUser(ctx, userUID)
				if err != nil {
					return nil, err
				}
			}
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	if user.SubscriptionStatus == models.SubscriptionActive &&
		user.SubscriptionEndDate != nil && period.Expired(*user.SubscriptionEndDate, now) {
		if err := s.repo.SetSubscriptionStatus(ctx, userUID, models.SubscriptionExpired); err != nil {
			return nil, err
		}
		user.SubscriptionStatus = models.SubscriptionExpired
	}

	info := &StatusInfo{
		Status:    user.SubscriptionStatus,
		StartDate: user.SubscriptionStartDate,
		EndDate:   user.SubscriptionEndDate,
	}
	if user.SubscriptionPlan != nil {
		info.Plan = *user.SubscriptionPlan
	}
	if user.SubscriptionStatus == models.SubscriptionActive && user.SubscriptionEndDate != nil {
		info.DaysLeft = period.DaysLeft(*user.SubscriptionEndDate, now)
	}

	if _, err := s.repo.FindPendingPayment(ctx, userUID); err == nil {
		info.PendingPayment = true
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	// Причина отказа показывается, пока пользователь не подал новую заявку.
	if user.SubscriptionStatus == models.SubscriptionNone && !info.PendingPayment {
		if rejected, err := s.repo.FindLatestRejectedPayment(ctx, userUID); err == nil {
			if rejected.RejectionReason != nil {
				info.RejectionReason = *rejected.RejectionReason
			}
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	if err := s.cache.Set(cacheKey, info, 5*time.Minute); err != nil {
		s.log.Warn("failed to cache subscription status", slog.String("key", cacheKey), sl.Err(err))
	}
	return info, nil
}

// ApprovePayment одобряет заявку и активирует подписку. Условное обновление
// статуса гарантирует, что заявку нельзя одобрить дважды.
func (s *SubscriptionService) ApprovePayment(ctx context.Context, paymentUID, approvedBy string) (*models.Payment, error) {
	payment, err := s.repo.GetPayment(ctx, paymentUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	now := time.Now().UTC()
	rows, err := s.repo.ApprovePaymentIf(ctx, paymentUID, models.PaymentPending, approvedBy, now)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrPaymentConflict
	}

	if err := s.activate(ctx, payment, approvedBy, now); err != nil {
		return nil, err
	}

	payment.Status = models.PaymentApproved
	payment.ApprovedBy = &approvedBy
	payment.ApprovedAt = &now

	endDate := period.EndDate(now, payment.BillingCycle)
	s.publishEvent(rabbitmq.RoutingKeyPaymentApproved, models.PaymentEvent{
		Event:        rabbitmq.RoutingKeyPaymentApproved,
		PaymentUID:   payment.UID,
		UserUID:      payment.UserUID,
		Email:        payment.Email,
		Name:         payment.UserName,
		Plan:         payment.Plan,
		BillingCycle: payment.BillingCycle,
		Amount:       payment.Amount,
		EndDate:      endDate.Format("2006-01-02"),
	})

	s.log.Info("payment approved",
		slog.String("payment_uid", paymentUID),
		slog.String("approved_by", approvedBy))
	return payment, nil
}

// RejectPayment отклоняет заявку с причиной и записывает, кто её отклонил.
// Статус подписки пользователя возвращается к none, причина сохраняется
// дословно.
func (s *SubscriptionService) RejectPayment(ctx context.Context, paymentUID, reason, rejectedBy string) (*models.Payment, error) {
	payment, err := s.repo.GetPayment(ctx, paymentUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	now := time.Now().UTC()
	rows, err := s.repo.RejectPaymentIf(ctx, paymentUID, models.PaymentPending, reason, rejectedBy, now)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrPaymentConflict
	}

	if err := s.repo.SetSubscriptionStatus(ctx, payment.UserUID, models.SubscriptionNone); err != nil {
		return nil, err
	}
	s.invalidateStatus(payment.UserUID)

	payment.Status = models.PaymentRejected
	payment.RejectionReason = &reason
	payment.ApprovedBy = &rejectedBy
	payment.ApprovedAt = &now

	s.publishEvent(rabbitmq.RoutingKeyPaymentRejected, models.PaymentEvent{
		Event:        rabbitmq.RoutingKeyPaymentRejected,
		PaymentUID:   payment.UID,
		UserUID:      payment.UserUID,
		Email:        payment.Email,
		Name:         payment.UserName,
		Plan:         payment.Plan,
		BillingCycle: payment.BillingCycle,
		Amount:       payment.Amount,
		Reason:       reason,
	})

	s.log.Info("payment rejected",
		slog.String("payment_uid", paymentUID),
		slog.String("rejected_by", rejectedBy),
		slog.String("reason", reason))
	return payment, nil
}

// ListPendingPayments возвращает заявки, ожидающие проверки.
func (s *SubscriptionService) ListPendingPayments(ctx context.Context) ([]*models.Payment, error) {
	return s.repo.ListPaymentsByStatus(ctx, models.PaymentPending)
}

// History возвращает историю активаций подписки пользователя.
func (s *SubscriptionService) History(ctx context.Context, userUID string) ([]*models.SubscriptionRecord, error) {
	return s.repo.ListSubscriptionRecords(ctx, userUID)
}

// ListPlans возвращает тарифы, кешируя их на час.
func (s *SubscriptionService) ListPlans(ctx context.Context) ([]*models.Plan, error) {
	var cached []*models.Plan
	if found, err := s.cache.Get(plansCacheKey, &cached); err == nil && found {
		return cached, nil
	}

	plans, err := s.repo.ListPlans(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(plansCacheKey, plans, time.Hour); err != nil {
		s.log.Warn("failed to cache plans", sl.Err(err))
	}
	return plans, nil
}

// activate добавляет неизменяемую запись об активации и обновляет снимок
// подписки в записи пользователя. Начало периода совпадает с моментом
// одобрения оплаты.
func (s *SubscriptionService) activate(ctx context.Context, payment *models.Payment,
	approvedBy string, approvedAt time.Time) error {
	endDate := period.EndDate(approvedAt, payment.BillingCycle)

	if _, err := s.repo.CreateSubscriptionRecord(ctx, models.SubscriptionRecord{
		UserUID:      payment.UserUID,
		PaymentUID:   payment.UID,
		Plan:         payment.Plan,
		BillingCycle: payment.BillingCycle,
		Amount:       payment.Amount,
		Status:       models.SubscriptionActive,
		StartDate:    approvedAt,
		EndDate:      endDate,
		ApprovedBy:   approvedBy,
		ApprovedAt:   approvedAt,
	}); err != nil {
		return err
	}

	if err := s.repo.SetSubscriptionSnapshot(ctx, payment.UserUID,
		models.SubscriptionActive, payment.Plan, approvedAt, endDate); err != nil {
		return err
	}

	s.invalidateStatus(payment.UserUID)
	return nil
}

// publishEvent публикует событие, не прерывая основной поток при сбое брокера.
func (s *SubscriptionService) publishEvent(routingKey string, event models.PaymentEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(routingKey, event); err != nil {
		s.log.Warn("failed to publish payment event",
			slog.String("routing_key", routingKey), sl.Err(err))
	}
}

func (s *SubscriptionService) invalidateStatus(userUID string) {
	key := statusCacheKey(userUID)
	if err := s.cache.Invalidate(key); err != nil {
		s.log.Warn("failed to invalidate status cache", slog.String("key", key), sl.Err(err))
	}
}

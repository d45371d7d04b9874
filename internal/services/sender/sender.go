// Package services отправляет письма пользователям: одноразовые коды и
// уведомления о статусе оплаты.
package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/doorbell-backend/internal/lib/sl"
	"github.com/magabrotheeeer/doorbell-backend/internal/lib/smtp"
	"github.com/magabrotheeeer/doorbell-backend/internal/models"
)

// SenderService отвечает за формирование и отправку писем по SMTP.
type SenderService struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(log *slog.Logger, transport smtp.TransportInterface) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// SendVerificationCode отправляет код верификации аккаунта.
func (s *SenderService) SendVerificationCode(to, name, code string) error {
	subject := "Код подтверждения аккаунта"
	bodyText := fmt.Sprintf("Здравствуйте, %s!\n\nВаш код подтверждения: %s\n\nКод действует 5 минут. Если вы не регистрировались, проигнорируйте это письмо.",
		name, code)
	return s.sendEmail([]string{to}, subject, bodyText)
}

// SendPasswordResetCode отправляет код для сброса пароля.
func (s *SenderService) SendPasswordResetCode(to, name, code string) error {
	subject := "Код для сброса пароля"
	bodyText := fmt.Sprintf("Здравствуйте, %s!\n\nВаш код для сброса пароля: %s\n\nКод действует 5 минут. Если вы не запрашивали сброс, проигнорируйте это письмо.",
		name, code)
	return s.sendEmail([]string{to}, subject, bodyText)
}

// SendPaymentSubmittedNotice уведомляет о принятой на проверку оплате.
func (s *SenderService) SendPaymentSubmittedNotice(body []byte) error {
	var event models.PaymentEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("failed to unmarshal payment event", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	subject := "Оплата принята на проверку"
	bodyText := fmt.Sprintf("Здравствуйте, %s!\n\nМы получили вашу квитанцию об оплате тарифа %q (%s). Подписка будет активирована после проверки платежа.",
		event.Name, event.Plan, event.BillingCycle)
	return s.sendEmail([]string{event.Email}, subject, bodyText)
}

// SendPaymentApprovedNotice уведомляет об активации подписки.
func (s *SenderService) SendPaymentApprovedNotice(body []byte) error {
	var event models.PaymentEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("failed to unmarshal payment event", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	subject := "Подписка активирована"
	bodyText := fmt.Sprintf("Здравствуйте, %s!\n\nВаша оплата подтверждена, подписка по тарифу %q активна до %s.",
		event.Name, event.Plan, event.EndDate)
	return s.sendEmail([]string{event.Email}, subject, bodyText)
}

// SendPaymentRejectedNotice уведомляет об отклонённой оплате с причиной.
func (s *SenderService) SendPaymentRejectedNotice(body []byte) error {
	var event models.PaymentEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("failed to unmarshal payment event", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	subject := "Оплата отклонена"
	bodyText := fmt.Sprintf("Здравствуйте, %s!\n\nК сожалению, ваша оплата тарифа %q отклонена.\nПричина: %s\n\nВы можете отправить новую квитанцию.",
		event.Name, event.Plan, event.Reason)
	return s.sendEmail([]string{event.Email}, subject, bodyText)
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("Failed to connect to SMTP server", "error", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("Failed to set MAIL FROM", "from", s.transport.GetSMTPUser(), "error", sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("Failed to set RCPT TO", "recipient", addr, "error", sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("Failed to get Data writer", "error", sl.Err(err))
		return err
	}

	_, err = wc.Write([]byte(msg))
	if err != nil {
		s.log.Error("Failed to write email body", "error", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("Failed to close Data writer", "error", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("Failed to quit SMTP client", "error", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", "to", to)
	return nil
}

package services

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/doorbell-backend/internal/lib/smtp"
	"github.com/magabrotheeeer/doorbell-backend/internal/models"
)

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Connect() (smtp.Client, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(smtp.Client), args.Error(1)
}

func (m *MockTransport) GetSMTPUser() string {
	args := m.Called()
	return args.String(0)
}

type MockSMTPClient struct {
	mock.Mock
}

func (m *MockSMTPClient) Mail(from string) error {
	args := m.Called(from)
	return args.Error(0)
}

func (m *MockSMTPClient) Rcpt(to string) error {
	args := m.Called(to)
	return args.Error(0)
}

func (m *MockSMTPClient) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

func (m *MockSMTPClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockSMTPClient) Quit() error {
	args := m.Called()
	return args.Error(0)
}

type MockSMTPWriter struct {
	mock.Mock
}

func (m *MockSMTPWriter) Write(p []byte) (n int, err error) {
	args := m.Called(p)
	return args.Int(0), args.Error(1)
}

func (m *MockSMTPWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func setupHappyPath(t *MockTransport, recipient string) (*MockSMTPClient, *MockSMTPWriter) {
	mockClient := new(MockSMTPClient)
	mockWriter := new(MockSMTPWriter)

	t.On("GetSMTPUser").Return("sender@example.com")
	t.On("Connect").Return(mockClient, nil).Once()
	mockClient.On("Mail", "sender@example.com").Return(nil).Once()
	mockClient.On("Rcpt", recipient).Return(nil).Once()
	mockClient.On("Data").Return(mockWriter, nil).Once()
	mockWriter.On("Write", mock.AnythingOfType("[]uint8")).Return(100, nil).Once()
	mockWriter.On("Close").Return(nil).Once()
	mockClient.On("Quit").Return(nil).Once()
	mockClient.On("Close").Return(nil).Once()

	return mockClient, mockWriter
}

func TestSenderService_SendVerificationCode(t *testing.T) {
	tests := []struct {
		name          string
		setupMocks    func(*MockTransport)
		expectedError bool
	}{
		{
			name: "success - verification code sent",
			setupMocks: func(tr *MockTransport) {
				setupHappyPath(tr, "test@example.com")
			},
		},
		{
			name: "error - connect failure",
			setupMocks: func(tr *MockTransport) {
				tr.On("GetSMTPUser").Return("sender@example.com")
				tr.On("Connect").Return(nil, errors.New("connection refused")).Once()
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := new(MockTransport)
			tt.setupMocks(transport)

			svc := NewSenderService(newNoopLogger(), transport)
			err := svc.SendVerificationCode("test@example.com", "Test User", "123456")

			if tt.expectedError {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			transport.AssertExpectations(t)
		})
	}
}

func TestSenderService_SendPasswordResetCode(t *testing.T) {
	transport := new(MockTransport)
	setupHappyPath(transport, "test@example.com")

	svc := NewSenderService(newNoopLogger(), transport)
	err := svc.SendPasswordResetCode("test@example.com", "Test User", "654321")

	require.NoError(t, err)
	transport.AssertExpectations(t)
}

func TestSenderService_SendPaymentApprovedNotice(t *testing.T) {
	event := models.PaymentEvent{
		Event:        "payment.approved",
		PaymentUID:   "payment-uid",
		Email:        "test@example.com",
		Name:         "Test User",
		Plan:         "basic",
		BillingCycle: models.CycleMonthly,
		EndDate:      "2026-09-29",
	}
	body, err := json.Marshal(event)
	require.NoError(t, err)

	transport := new(MockTransport)
	setupHappyPath(transport, "test@example.com")

	svc := NewSenderService(newNoopLogger(), transport)
	err = svc.SendPaymentApprovedNotice(body)

	require.NoError(t, err)
	transport.AssertExpectations(t)
}

func TestSenderService_SendPaymentRejectedNotice(t *testing.T) {
	tests := []struct {
		name          string
		body          []byte
		setupMocks    func(*MockTransport)
		expectedError bool
	}{
		{
			name: "success - rejection notice sent",
			body: []byte(`{"event":"payment.rejected","email":"test@example.com","name":"Test User","plan":"basic","reason":"blurry receipt"}`),
			setupMocks: func(tr *MockTransport) {
				setupHappyPath(tr, "test@example.com")
			},
		},
		{
			name:          "error - malformed message body",
			body:          []byte(`not-json`),
			setupMocks:    func(_ *MockTransport) {},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := new(MockTransport)
			tt.setupMocks(transport)

			svc := NewSenderService(newNoopLogger(), transport)
			err := svc.SendPaymentRejectedNotice(tt.body)

			if tt.expectedError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "unmarshalling")
			} else {
				require.NoError(t, err)
			}
			transport.AssertExpectations(t)
		})
	}
}

package verifyotp

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/doorbell-backend/internal/models"
	authservice "github.com/magabrotheeeer/doorbell-backend/internal/services/auth"
)

// MockService реализует интерфейс verifyotp.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) VerifyOTP(ctx context.Context, email, code string) (string, *models.User, error) {
	args := m.Called(ctx, email, code)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*models.User), args.Error(2)
}

func TestVerifyOTPHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешное подтверждение почты",
			body: `{"email":"test@example.com","code":"123456"}`,
			setupMock: func(m *MockService) {
				user := &models.User{UID: "user-uid", Email: "test@example.com", Name: "Test User"}
				m.On("VerifyOTP", mock.Anything, "test@example.com", "123456").
					Return("session-token", user, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"token":"session-token"`,
		},
		{
			name: "неверный код",
			body: `{"email":"test@example.com","code":"654321"}`,
			setupMock: func(m *MockService) {
				m.On("VerifyOTP", mock.Anything, "test@example.com", "654321").
					Return("", nil, authservice.ErrOTPMismatch)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `invalid or expired code`,
		},
		{
			name: "истёкший код",
			body: `{"email":"test@example.com","code":"123456"}`,
			setupMock: func(m *MockService) {
				m.On("VerifyOTP", mock.Anything, "test@example.com", "123456").
					Return("", nil, authservice.ErrOTPExpired)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `invalid or expired code`,
		},
		{
			name: "повторное подтверждение",
			body: `{"email":"test@example.com","code":"123456"}`,
			setupMock: func(m *MockService) {
				m.On("VerifyOTP", mock.Anything, "test@example.com", "123456").
					Return("", nil, authservice.ErrAlreadyVerified)
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `email already verified`,
		},
		{
			name:           "код не из шести цифр",
			body:           `{"email":"test@example.com","code":"12ab"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field Code`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/verify-otp", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}

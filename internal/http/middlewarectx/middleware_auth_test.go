package middlewarectx

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

	customjwt "github.com/magabrotheeeer/doorbell-backend/internal/lib/jwt"
	"github.com/magabrotheeeer/doorbell-backend/internal/models"
)

// MockAuthService реализует интерфейс middlewarectx.Service
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) ValidateToken(ctx context.Context, token string) (*models.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func TestJWTMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		authHeader     string
		setupMock      func(*MockAuthService)
		expectedStatus int
		expectUser     bool
	}{
		{
			name:       "валидный токен пропускает запрос",
			authHeader: "Bearer valid-token",
			setupMock: func(m *MockAuthService) {
				m.On("ValidateToken", mock.Anything, "valid-token").
					Return(&models.User{UID: "user-uid", Email: "test@example.com"}, nil)
			},
			expectedStatus: http.StatusOK,
			expectUser:     true,
		},
		{
			name:       "невалидный токен",
			authHeader: "Bearer bad-token",
			setupMock: func(m *MockAuthService) {
				m.On("ValidateToken", mock.Anything, "bad-token").
					Return(nil, customjwt.ErrInvalidToken)
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "заголовок отсутствует",
			authHeader:     "",
			setupMock:      func(_ *MockAuthService) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "заголовок без Bearer",
			authHeader:     "Basic dXNlcjpwYXNz",
			setupMock:      func(_ *MockAuthService) {},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockAuthService)
			tt.setupMock(mockService)

			var gotUser *models.User
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser, _ = UserFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			handler := JWTMiddleware(mockService, logger)(next)

			req := httptest.NewRequest(http.MethodGet, "/subscription/status", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectUser {
				assert.NotNil(t, gotUser)
				assert.Equal(t, "user-uid", gotUser.UID)
			} else {
				assert.Nil(t, gotUser)
				assert.True(t, strings.Contains(w.Body.String(), "authorization") ||
					strings.Contains(w.Body.String(), "token"))
			}

			mockService.AssertExpectations(t)
		})
	}
}

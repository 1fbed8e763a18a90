package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/guildgate/guildgate-auth/internal/domain"
	"github.com/guildgate/guildgate-auth/internal/service"
	"github.com/guildgate/guildgate-auth/internal/service/provision"
)

func newTestRouter(svc service.CredentialService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(svc, zap.NewNop())
	r := gin.New()
	r.GET("/auth/start", h.Start)
	r.GET("/auth/callback", h.Callback)
	r.POST("/auth/refresh", h.Refresh)
	r.GET("/auth/token", h.Token)
	return r
}

func TestCallbackReportsOutcome(t *testing.T) {
	svc := &fakeCredentialService{
		completion: &service.CompletionResult{
			SubjectID:  "subject-1",
			Credential: domain.Credential{AccessToken: "acc", ExpiresIn: 3600, ObtainedAt: 100},
			Provision:  provision.Result{Outcome: provision.OutcomeFullySucceeded},
		},
	}
	r := newTestRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=auth-code", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "subject-1", body["subject_id"])
	require.Equal(t, string(provision.OutcomeFullySucceeded), body["outcome"])
	require.Equal(t, "auth-code", svc.gotCode)
}

func TestCallbackProviderError(t *testing.T) {
	r := newTestRouter(&fakeCredentialService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/callback?error=access_denied", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCallbackExchangeFailure(t *testing.T) {
	svc := &fakeCredentialService{
		completeErr: &domain.ExchangeError{Reason: domain.ReasonProviderRejected, Detail: "invalid_grant"},
	}
	r := newTestRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=expired", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadGateway, w.Code)
	require.Contains(t, w.Body.String(), "invalid_grant")
}

func TestRefreshNotFound(t *testing.T) {
	svc := &fakeCredentialService{refreshErr: domain.ErrCredentialNotFound}
	r := newTestRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh?user_id=nobody", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestTokenAbsent(t *testing.T) {
	r := newTestRouter(&fakeCredentialService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/token?user_id=nobody", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestTokenReportsStaleness(t *testing.T) {
	svc := &fakeCredentialService{
		credential: &domain.Credential{AccessToken: "acc", ExpiresIn: 3600, ObtainedAt: 100},
	}
	r := newTestRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/token?user_id=subject-1", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, true, body["stale"])
}

func TestStartRedirects(t *testing.T) {
	svc := &fakeCredentialService{authorizeURL: "https://provider.example.com/oauth2/authorize?client_id=client"}
	r := newTestRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/start", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, svc.authorizeURL, w.Header().Get("Location"))
}

type fakeCredentialService struct {
	completion   *service.CompletionResult
	completeErr  error
	credential   *domain.Credential
	refreshErr   error
	authorizeURL string
	gotCode      string
}

func (f *fakeCredentialService) CompleteAuthorization(ctx context.Context, code string) (*service.CompletionResult, error) {
	f.gotCode = code
	if f.completeErr != nil {
		return nil, f.completeErr
	}
	if f.completion == nil {
		return nil, domain.ErrInvalidRequest
	}
	return f.completion, nil
}

func (f *fakeCredentialService) RefreshCredential(ctx context.Context, key string) (*domain.Credential, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	if f.credential == nil {
		return nil, domain.ErrCredentialNotFound
	}
	return f.credential, nil
}

func (f *fakeCredentialService) GetCredential(ctx context.Context, key string) (*domain.Credential, error) {
	return f.credential, nil
}

func (f *fakeCredentialService) AuthorizeURL() (string, error) {
	return f.authorizeURL, nil
}

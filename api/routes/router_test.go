package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/circlesapp/circles-backend/internal/auth"
	"github.com/circlesapp/circles-backend/internal/circles"
	"github.com/circlesapp/circles-backend/internal/invitations"
	"github.com/circlesapp/circles-backend/internal/memberships"
	"github.com/circlesapp/circles-backend/internal/posts"
	pkgAuth "github.com/circlesapp/circles-backend/pkg/auth"
	"github.com/circlesapp/circles-backend/pkg/auth/session"
	"github.com/circlesapp/circles-backend/pkg/config"
	"github.com/circlesapp/circles-backend/pkg/enums"
	"github.com/circlesapp/circles-backend/pkg/logger"
	"github.com/circlesapp/circles-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessionChecker struct{}

func (stubSessionChecker) HasSession(context.Context, string) (bool, error) {
	return true, nil
}

type stubAuthService struct{}

func (stubAuthService) Login(context.Context, auth.LoginRequest) (*auth.LoginResponse, error) {
	return &auth.LoginResponse{}, nil
}

func (stubAuthService) Refresh(context.Context, auth.RefreshRequest) (*auth.RefreshResponse, error) {
	return &auth.RefreshResponse{}, nil
}

func (stubAuthService) Logout(context.Context, string) error {
	return nil
}

type stubRegisterService struct{}

func (stubRegisterService) Register(context.Context, auth.RegisterRequest) (*auth.RegisterResponse, error) {
	return &auth.RegisterResponse{}, nil
}

type stubCirclesService struct{}

func (stubCirclesService) Create(context.Context, uuid.UUID, string) (*circles.CircleDetailDTO, error) {
	return &circles.CircleDetailDTO{}, nil
}

func (stubCirclesService) Rename(context.Context, uuid.UUID, uuid.UUID, string) (*circles.CircleDTO, error) {
	return &circles.CircleDTO{}, nil
}

func (stubCirclesService) Delete(context.Context, uuid.UUID, uuid.UUID) error {
	return nil
}

func (stubCirclesService) ListForUser(context.Context, uuid.UUID) ([]circles.CircleSummaryDTO, error) {
	return []circles.CircleSummaryDTO{}, nil
}

func (stubCirclesService) Get(context.Context, uuid.UUID, uuid.UUID) (*circles.CircleDetailDTO, error) {
	return &circles.CircleDetailDTO{}, nil
}

func (stubCirclesService) AddMembers(context.Context, uuid.UUID, uuid.UUID, enums.CircleRole, []uuid.UUID) ([]memberships.MembershipDTO, error) {
	return []memberships.MembershipDTO{}, nil
}

type stubInvitationsService struct{}

func (stubInvitationsService) Create(context.Context, uuid.UUID, uuid.UUID, string, enums.CircleRole) (*invitations.InvitationDTO, error) {
	return &invitations.InvitationDTO{}, nil
}

func (stubInvitationsService) Accept(context.Context, uuid.UUID, uuid.UUID, bool) (*invitations.InvitationDTO, error) {
	return &invitations.InvitationDTO{}, nil
}

func (stubInvitationsService) Get(context.Context, uuid.UUID, uuid.UUID) (*invitations.InvitationDTO, error) {
	return &invitations.InvitationDTO{}, nil
}

func (stubInvitationsService) ListForCircle(context.Context, uuid.UUID, uuid.UUID) ([]invitations.InvitationDTO, error) {
	return []invitations.InvitationDTO{}, nil
}

func (stubInvitationsService) ListMine(context.Context, uuid.UUID) ([]invitations.InvitationDTO, error) {
	return []invitations.InvitationDTO{}, nil
}

func (stubInvitationsService) Delete(context.Context, uuid.UUID, uuid.UUID) error {
	return nil
}

type stubPostsService struct{}

func (stubPostsService) Create(context.Context, uuid.UUID, posts.CreatePostInput) (*posts.PostDTO, error) {
	return &posts.PostDTO{}, nil
}

func (stubPostsService) ListVisible(context.Context, uuid.UUID, *uuid.UUID, pagination.Params) (*posts.FeedPage, error) {
	return &posts.FeedPage{Posts: []posts.PostDTO{}}, nil
}

func (stubPostsService) ListMine(context.Context, uuid.UUID) ([]posts.PostDTO, error) {
	return []posts.PostDTO{}, nil
}

func (stubPostsService) Get(context.Context, uuid.UUID, uuid.UUID) (*posts.PostDTO, error) {
	return &posts.PostDTO{}, nil
}

func (stubPostsService) Update(context.Context, uuid.UUID, uuid.UUID, posts.UpdatePostInput) (*posts.PostDTO, error) {
	return &posts.PostDTO{}, nil
}

func (stubPostsService) Delete(context.Context, uuid.UUID, uuid.UUID) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		stubPinger{},
		stubSessionChecker{},
		stubAuthService{},
		stubRegisterService{},
		stubCirclesService{},
		stubInvitationsService{},
		stubPostsService{},
	)
}

func buildToken(t *testing.T, cfg *config.Config) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestHealthReady(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestCirclesRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/circles", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestCirclesSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/circles", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with token got %d", resp.Code)
	}
}

func TestInvitationsRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/invitations", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPostsInboxRoutes(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	token := buildToken(t, cfg)

	for _, path := range []string{"/api/v1/posts", "/api/v1/posts/mine"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s got %d", path, resp.Code)
		}
	}
}

func TestAuthRoutesArePublic(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code == http.StatusUnauthorized {
		t.Fatalf("login should not require a token, got %d", resp.Code)
	}
}

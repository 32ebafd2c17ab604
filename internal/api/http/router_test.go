package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httptransport "github.com/nexusops/sla-service/internal/api/http"
	"github.com/nexusops/sla-service/internal/api/http/handlers"
	"github.com/nexusops/sla-service/internal/auth"
	"github.com/nexusops/sla-service/internal/config"
	"github.com/nexusops/sla-service/internal/domain"
	"github.com/nexusops/sla-service/internal/observability"
	"github.com/nexusops/sla-service/internal/repository"
	"github.com/nexusops/sla-service/internal/service"
	apperrors "github.com/nexusops/sla-service/pkg/util/errorutil"
)

// emptyTicketRepo satisfies TicketRepository with no data; these tests
// exercise routing, auth and response shaping, not persistence.
type emptyTicketRepo struct{}

func (emptyTicketRepo) Create(context.Context, *domain.Ticket) error { return nil }
func (emptyTicketRepo) Update(context.Context, *domain.Ticket) error { return nil }
func (emptyTicketRepo) GetByID(context.Context, string) (*domain.Ticket, error) {
	return nil, apperrors.NewNotFound("ticket", nil)
}
func (emptyTicketRepo) ListWithFilter(context.Context, repository.SLAFilter) ([]domain.Ticket, error) {
	return nil, nil
}
func (emptyTicketRepo) CountWithFilter(context.Context, repository.SLAFilter) (int, error) {
	return 0, nil
}
func (emptyTicketRepo) ListBreached(context.Context, string, time.Time) ([]domain.Ticket, error) {
	return nil, nil
}
func (emptyTicketRepo) ListAtRisk(context.Context, string, time.Time, time.Duration) ([]domain.Ticket, error) {
	return nil, nil
}

type memoryTargetRepo struct {
	targets []domain.SLATarget
}

func (r *memoryTargetRepo) FindByOrganization(_ context.Context, organizationID string) ([]domain.SLATarget, error) {
	result := make([]domain.SLATarget, 0)
	for _, target := range r.targets {
		if target.OrganizationID == organizationID {
			result = append(result, target)
		}
	}
	return result, nil
}

func (r *memoryTargetRepo) UpsertTargets(_ context.Context, organizationID string, targets []domain.SLATarget) error {
	for i, incoming := range targets {
		incoming.ID = "target-" + string(rune('a'+i))
		incoming.OrganizationID = organizationID
		incoming.CreatedAt = time.Now()
		r.targets = append(r.targets, incoming)
	}
	return nil
}

func newTestApp(t *testing.T) (*fiber.App, *auth.TokenManager) {
	t.Helper()

	tokens := auth.NewTokenManager("test-secret", 60)
	dashboardService := service.NewSLADashboardService(service.SLADashboardDependencies{
		TicketRepo: emptyTicketRepo{},
		TargetRepo: &memoryTargetRepo{},
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: emptyTicketRepo{},
		Resolver:   dashboardService,
	})
	authService := service.NewAuthService(config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 60})

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 5*time.Second)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler("sla-service", "test", nil, nil),
		Auth:           handlers.NewAuthHandler(authService),
		Dashboard:      handlers.NewDashboardHandler(dashboardService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
	})
	return app, tokens
}

func bearerToken(t *testing.T, tokens *auth.TokenManager, role domain.Role) string {
	t.Helper()
	token, _, err := tokens.GenerateToken("org-1", role)
	require.NoError(t, err)
	return "Bearer " + token
}

func decodeBody(t *testing.T, resp *nethttp.Response) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestHealthLive(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(nethttp.MethodGet, "/health/live", nil))
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "alive", body["status"])
}

func TestDashboardRequiresAuth(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(nethttp.MethodGet, "/dashboard/sla/targets", nil))
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)

	body := decodeBody(t, resp)
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "UNAUTHORIZED", errObj["code"])
}

func TestDashboardRejectsBadToken(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(nethttp.MethodGet, "/dashboard/sla/metrics", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
}

func TestGetTargetsReturnsDefaults(t *testing.T) {
	app, tokens := newTestApp(t)

	req := httptest.NewRequest(nethttp.MethodGet, "/dashboard/sla/targets", nil)
	req.Header.Set("Authorization", bearerToken(t, tokens, domain.RoleReader))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	data, ok := body["data"].([]any)
	require.True(t, ok)
	require.Len(t, data, 4)

	first, ok := data[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "critical", first["priority"])
	assert.Equal(t, "CRITICAL SLA", first["name"])
	assert.Equal(t, false, first["is_active"])
}

func TestUpdateTargetsForbiddenForReader(t *testing.T) {
	app, tokens := newTestApp(t)

	payload, err := json.Marshal(map[string]any{
		"targets": []map[string]any{
			{"priority": "critical", "response_time_mins": 10, "resolution_time_mins": 60},
		},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(nethttp.MethodPut, "/dashboard/sla/targets", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerToken(t, tokens, domain.RoleReader))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusForbidden, resp.StatusCode)
}

func TestUpdateTargetsAsAdmin(t *testing.T) {
	app, tokens := newTestApp(t)

	payload, err := json.Marshal(map[string]any{
		"targets": []map[string]any{
			{"priority": "critical", "response_time_mins": 10, "resolution_time_mins": 60},
		},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(nethttp.MethodPut, "/dashboard/sla/targets", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerToken(t, tokens, domain.RoleAdmin))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	data, ok := body["data"].([]any)
	require.True(t, ok)
	require.Len(t, data, 4)

	first, ok := data[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "critical", first["priority"])
	assert.Equal(t, float64(10), first["response_time_mins"])
	assert.Equal(t, true, first["is_active"])
	assert.NotEmpty(t, first["id"])
}

func TestUpdateTargetsValidationError(t *testing.T) {
	app, tokens := newTestApp(t)

	payload, err := json.Marshal(map[string]any{
		"targets": []map[string]any{
			{"priority": "urgent", "response_time_mins": 10, "resolution_time_mins": 60},
		},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(nethttp.MethodPut, "/dashboard/sla/targets", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerToken(t, tokens, domain.RoleAdmin))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_FAILED", errObj["code"])
}

func TestGetTicketNotFound(t *testing.T) {
	app, tokens := newTestApp(t)

	req := httptest.NewRequest(nethttp.MethodGet, "/tickets/missing", nil)
	req.Header.Set("Authorization", bearerToken(t, tokens, domain.RoleReader))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusNotFound, resp.StatusCode)

	body := decodeBody(t, resp)
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "NOT_FOUND", errObj["code"])
}

func TestComputeMetricsEmpty(t *testing.T) {
	app, tokens := newTestApp(t)

	req := httptest.NewRequest(nethttp.MethodGet, "/dashboard/sla/metrics?period=14d", nil)
	req.Header.Set("Authorization", bearerToken(t, tokens, domain.RoleReader))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(14), data["period_days"])
	assert.Equal(t, float64(0), data["total_incidents"])
	assert.Equal(t, "0%", data["response_sla_compliance"])
}

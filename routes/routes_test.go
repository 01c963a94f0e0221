package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"salonbook-backend/config"
	"salonbook-backend/services"
	"salonbook-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, config.Migrate(db))

	params := services.Params{DB: db, Log: zap.NewNop(), Location: time.UTC}
	clients := services.NewClientService(params)

	r := SetupRouter(Options{
		DB:              db,
		Log:             zap.NewNop(),
		Tokens:          utils.TokenIssuer{Secret: []byte("test-secret"), Expiry: time.Hour},
		DefaultOwnerPin: "9094",
		Clients:         clients,
		Visits:          services.NewVisitMutator(params),
		Insights:        services.NewInsightService(params, clients),
		Premium:         services.NewPremiumService(params),
	})
	return &testServer{t: t, router: r}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// session registers an account and returns a token for the given role.
func (s *testServer) session(email, role, pin string) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/auth/register", "", gin.H{
		"email": email, "name": "Owner", "password": "password123",
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	token := decode(s.t, w)["token"].(string)

	w = s.do(http.MethodPost, "/auth/role", token, gin.H{"role": role, "pin": pin})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	return decode(s.t, w)["token"].(string)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/auth/register", "", gin.H{
		"email": "Owner@Example.com", "name": "Owner", "password": "password123", "ownerPin": "1234",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("Set-Cookie"))
	token := decode(t, w)["token"].(string)

	w = s.do(http.MethodPost, "/auth/register", "", gin.H{
		"email": "owner@example.com", "name": "Again", "password": "password123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/auth/login", "", gin.H{"email": "owner@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/auth/login", "", gin.H{"email": "OWNER@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// no role selected yet
	w = s.do(http.MethodGet, "/api/clients", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/auth/role", token, gin.H{"role": "owner", "pin": "9094"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/auth/role", token, gin.H{"role": "manager"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/auth/role", token, gin.H{"role": "owner", "pin": "1234"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	ownerToken := decode(t, w)["token"].(string)

	w = s.do(http.MethodGet, "/auth/me", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "owner", decode(t, w)["role"])

	w = s.do(http.MethodGet, "/api/clients", ownerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = s.do(http.MethodGet, "/api/clients", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodDelete, "/auth/session", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestClientAndVisitLifecycle(t *testing.T) {
	s := newTestServer(t)
	owner := s.session("owner@example.com", "owner", "9094")

	w := s.do(http.MethodPost, "/api/clients", owner, gin.H{"name": "Jane Doe", "phone": "555-010-0000"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	client := decode(t, w)
	assert.Equal(t, "0001", client["displayId"])
	assert.Equal(t, []any{}, client["visits"])
	clientID := client["id"].(string)

	w = s.do(http.MethodPost, "/api/clients", owner, gin.H{"name": "Bad Phone", "phone": "abc"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/clients/duplicates?name=jane%20doe", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	dup := decode(t, w)["duplicate"].(map[string]any)
	assert.Equal(t, "name", dup["field"])

	w = s.do(http.MethodPost, "/api/clients/"+clientID+"/visits", owner, gin.H{
		"date":      "2025-03-03T14:00:00Z",
		"services":  []string{"Cut", "Color"},
		"amount":    80,
		"nextVisit": "2025-03-17T14:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	visits := decode(t, w)["visits"].([]any)
	require.Len(t, visits, 1)
	visit := visits[0].(map[string]any)
	visitID := visit["id"].(string)
	assert.True(t, strings.HasPrefix(visitID, "v"+clientID+"-"))
	assert.Equal(t, false, visit["paid"])

	w = s.do(http.MethodPost, "/api/clients/"+clientID+"/visits", owner, gin.H{"services": []string{"Cut"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPut, "/api/clients/"+clientID+"/visits/"+visitID+"/payment", owner, gin.H{"paid": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decode(t, w)["paid"])

	w = s.do(http.MethodPut, "/api/clients/"+clientID+"/visits/missing/payment", owner, gin.H{"paid": true})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/dashboard?date=2025-03-03", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	schedule := decode(t, w)
	assert.Equal(t, 80.0, schedule["totalPaid"])

	w = s.do(http.MethodGet, "/api/dashboard?date=03-03-2025", owner, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/payments?from=2025-03-01&to=2025-03-31", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["paid"], 1)

	w = s.do(http.MethodGet, "/api/payments?to=2025-03-31", owner, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/calendar?from=2025-03-01&to=2025-03-31", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["days"], 1)

	w = s.do(http.MethodGet, "/api/calendar?from=2025-01-01&to=2025-12-31", owner, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/analytics", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 80.0, decode(t, w)["totalRevenue"])

	w = s.do(http.MethodPut, "/api/clients/"+clientID, owner, gin.H{"name": "Jane Smith"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Jane Smith", decode(t, w)["name"])

	w = s.do(http.MethodDelete, "/api/clients/"+clientID+"/visits/"+visitID, owner, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodDelete, "/api/clients/"+clientID, owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	w = s.do(http.MethodGet, "/api/clients/"+clientID, owner, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAssistantRestrictions(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/auth/register", "", gin.H{
		"email": "salon@example.com", "name": "Salon", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	base := decode(t, w)["token"].(string)

	w = s.do(http.MethodPost, "/auth/role", base, gin.H{"role": "owner", "pin": "9094"})
	require.Equal(t, http.StatusOK, w.Code)
	owner := decode(t, w)["token"].(string)

	w = s.do(http.MethodPost, "/auth/role", base, gin.H{"role": "assistant"})
	require.Equal(t, http.StatusOK, w.Code)
	assistant := decode(t, w)["token"].(string)

	w = s.do(http.MethodPost, "/api/clients", assistant, gin.H{"name": "Walk In", "phone": "5550100000"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	clientID := decode(t, w)["id"].(string)

	w = s.do(http.MethodPost, "/api/clients/"+clientID+"/visits", assistant, gin.H{
		"date": "2025-03-03T14:00:00Z", "services": []string{"Cut"}, "amount": 30,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.Equal(t, true, created["historyHidden"])
	assert.Equal(t, []any{}, created["visits"])

	w = s.do(http.MethodPost, "/api/clients/"+clientID+"/visits", owner, gin.H{
		"date":      "2025-03-06T10:00:00Z",
		"services":  []string{"Secret Color"},
		"amount":    250,
		"notes":     "private note",
		"nextVisit": "2025-03-20T11:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/clients/"+clientID, assistant, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["historyHidden"])

	w = s.do(http.MethodGet, "/api/clients/"+clientID, owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	ownerView := decode(t, w)
	assert.Nil(t, ownerView["historyHidden"])
	visits := ownerView["visits"].([]any)
	require.Len(t, visits, 2)
	visitID := visits[0].(map[string]any)["id"].(string)

	w = s.do(http.MethodGet, "/api/calendar?from=2025-03-01&to=2025-03-31", assistant, nil)
	require.Equal(t, http.StatusOK, w.Code)
	calendar := w.Body.String()
	assert.Contains(t, calendar, "Walk In")
	assert.Contains(t, calendar, "Upcoming Appointment")
	assert.NotContains(t, calendar, "Secret Color")
	assert.NotContains(t, calendar, "private note")
	assert.NotContains(t, calendar, `"amount":250`)

	for _, path := range []string{"/api/dashboard", "/api/payments", "/api/analytics"} {
		w = s.do(http.MethodGet, path, assistant, nil)
		assert.Equal(t, http.StatusForbidden, w.Code, path)
	}

	ownerOnly := []struct {
		method, path string
		body         any
	}{
		{http.MethodPut, "/api/clients/" + clientID, gin.H{"name": "Renamed"}},
		{http.MethodPut, "/api/clients/" + clientID + "/visits/" + visitID + "/payment", gin.H{"paid": true}},
		{http.MethodDelete, "/api/clients/" + clientID + "/visits/" + visitID, nil},
		{http.MethodDelete, "/api/clients/" + clientID, nil},
	}
	for _, req := range ownerOnly {
		w = s.do(req.method, req.path, assistant, req.body)
		assert.Equal(t, http.StatusForbidden, w.Code, req.method+" "+req.path)
	}

	// nothing changed behind the rejected requests
	w = s.do(http.MethodGet, "/api/clients/"+clientID, owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	after := decode(t, w)
	assert.Equal(t, "Walk In", after["name"])
	require.Len(t, after["visits"], 2)
	assert.Equal(t, false, after["visits"].([]any)[0].(map[string]any)["paid"])
}

func TestClientsAreScopedPerAccount(t *testing.T) {
	s := newTestServer(t)
	first := s.session("first@example.com", "owner", "9094")
	second := s.session("second@example.com", "owner", "9094")

	w := s.do(http.MethodPost, "/api/clients", first, gin.H{"name": "Jane", "phone": "5550100000"})
	require.Equal(t, http.StatusCreated, w.Code)
	clientID := decode(t, w)["id"].(string)

	w = s.do(http.MethodPost, "/api/clients", second, gin.H{"name": "Joan", "phone": "5550100001"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "0001", decode(t, w)["displayId"])

	w = s.do(http.MethodGet, "/api/clients/"+clientID, second, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodDelete, "/api/clients/"+clientID, second, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPremiumRequestIsPublic(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/premium-requests", "", gin.H{
		"name": "Jane", "email": "jane@example.com", "phone": "+15550100000", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "pending", body["status"])
	assert.NotContains(t, body, "password")
	assert.NotContains(t, body, "passwordHash")

	w = s.do(http.MethodPost, "/premium-requests", "", gin.H{"name": "Jane", "email": "not-an-email", "phone": "+15550100000"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

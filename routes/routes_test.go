package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"supportmatch/internal/config"
	handlers "supportmatch/internal/handlers/shared"
	"supportmatch/internal/models"
	"supportmatch/internal/repositories/memory"
	"supportmatch/internal/services"
	"supportmatch/internal/utils"
	"supportmatch/pkg/cache"
	"supportmatch/pkg/logger"

	"github.com/gin-gonic/gin"
)

const testSecret = "routes-test-secret"

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	} `json:"error"`
	Meta *struct {
		Count int `json:"count"`
	} `json:"meta"`
}

type testAPI struct {
	t      *testing.T
	router *gin.Engine
}

func newTestAPI(t *testing.T, pendingTTL time.Duration) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.MatchingConfig{
		TopK:                   3,
		WeightTagOverlap:       0.5,
		WeightUrgency:          0.2,
		WeightProximity:        0.3,
		NeutralProximity:       0.5,
		LockTTL:                5 * time.Second,
		LockWait:               time.Second,
		MaxRetries:             3,
		PendingTTL:             pendingTTL,
		SweepInterval:          time.Minute,
		AppointmentDefaultLead: 48 * time.Hour,
	}
	log := logger.NewNop()
	store := memory.NewStore()
	reports := memory.NewReportRepository(store)
	supportServices := memory.NewSupportServiceRepository(store)
	matches := memory.NewMatchRepository(store)
	appointments := memory.NewAppointmentRepository(store)
	locker := cache.NewLocalLocker()
	publisher := services.NopPublisher()

	matcher := services.NewMatchingService(cfg, reports, matches, store, services.NewCatalogService(supportServices), locker, publisher, log)
	provisioner := services.NewAppointmentProvisioner(reports, matches, appointments, store, cfg.AppointmentDefaultLead)
	sweeper := services.NewPendingSweeper(cfg, reports, matches, store, locker, publisher, log)

	router := gin.New()
	Setup(router, &Handlers{
		Report:      handlers.NewReportHandler(services.NewReportService(reports, matches, matcher, log), log),
		Service:     handlers.NewSupportServiceHandler(services.NewSupportServiceService(supportServices, log), log),
		Match:       handlers.NewMatchHandler(services.NewMatchService(reports, supportServices, matches, store, provisioner, publisher, log), log),
		Appointment: handlers.NewAppointmentHandler(services.NewAppointmentService(appointments, log), log),
		Admin:       handlers.NewAdminHandler(sweeper, log),
		Health:      handlers.NewHealthHandler(nil),
	}, Options{JWTSecret: testSecret, WebSocketPath: "/ws"})

	return &testAPI{t: t, router: router}
}

func (a *testAPI) token(userID, userType string) string {
	a.t.Helper()
	tok, err := utils.GenerateAccessToken(userID, userType, testSecret, time.Hour)
	if err != nil {
		a.t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	return tok
}

func (a *testAPI) do(method, path, token string, body interface{}) (int, *envelope) {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			a.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			a.t.Fatalf("%s %s: decode response %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code, &env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode data %s: %v", raw, err)
	}
	return out
}

func reportBody(tags ...string) map[string]interface{} {
	return map[string]interface{}{
		"type_of_incident":     "harassment",
		"incident_description": "Repeated threats at work",
		"urgency":              "high",
		"required_services":    tags,
		"consent":              true,
		"contact_preference":   "email",
		"email":                "someone@example.org",
	}
}

func TestReportToAppointmentFlow(t *testing.T) {
	api := newTestAPI(t, 0)
	provider := api.token("provider-1", utils.UserTypeNGO)
	otherProvider := api.token("provider-2", utils.UserTypeProfessional)
	admin := api.token("admin-1", utils.UserTypeAdmin)

	code, env := api.do(http.MethodPost, "/api/v1/services", provider, map[string]interface{}{
		"name":          "Safe Harbor Counseling",
		"service_types": []string{"Counseling", "legal_aid"},
	})
	if code != http.StatusCreated {
		t.Fatalf("register service status = %d, error %+v", code, env.Error)
	}
	service := decode[models.SupportService](t, env.Data)
	if service.Availability != models.AvailabilityAvailable {
		t.Errorf("availability = %q, want default %q", service.Availability, models.AvailabilityAvailable)
	}

	code, env = api.do(http.MethodPost, "/api/v1/reports", "", reportBody("counseling"))
	if code != http.StatusCreated {
		t.Fatalf("submit report status = %d, error %+v", code, env.Error)
	}
	submitted := decode[services.SubmissionResult](t, env.Data)
	if submitted.Report.MatchStatus != models.ReportMatchStatusMatched || !submitted.Report.IsMatched {
		t.Fatalf("report status = %q matched=%v, want matched", submitted.Report.MatchStatus, submitted.Report.IsMatched)
	}
	if submitted.Match == nil || len(submitted.Match.Matches) != 1 {
		t.Fatalf("match result = %+v, want one match", submitted.Match)
	}
	matchID := submitted.Match.Matches[0].ID
	reportID := submitted.Report.ID

	// Anonymous reports are admin-only.
	if code, _ := api.do(http.MethodGet, "/api/v1/reports/"+reportID, otherProvider, nil); code != http.StatusForbidden {
		t.Errorf("non-owner GET report status = %d, want 403", code)
	}
	if code, _ := api.do(http.MethodGet, "/api/v1/reports/"+reportID, admin, nil); code != http.StatusOK {
		t.Errorf("admin GET report status = %d, want 200", code)
	}

	code, env = api.do(http.MethodGet, "/api/v1/matches?status=pending", provider, nil)
	if code != http.StatusOK || env.Meta == nil || env.Meta.Count != 1 {
		t.Fatalf("provider inbox status = %d meta %+v, want one pending match", code, env.Meta)
	}
	if code, env := api.do(http.MethodGet, "/api/v1/matches?status=bogus", provider, nil); code != http.StatusBadRequest {
		t.Errorf("bad status filter = %d (%+v), want 400", code, env.Error)
	}

	if code, _ := api.do(http.MethodPost, "/api/v1/matches/"+matchID+"/accept", otherProvider, nil); code != http.StatusForbidden {
		t.Errorf("accept by non-owner status = %d, want 403", code)
	}

	code, env = api.do(http.MethodPost, "/api/v1/matches/"+matchID+"/accept", provider, map[string]interface{}{"notes": "call first"})
	if code != http.StatusOK {
		t.Fatalf("accept status = %d, error %+v", code, env.Error)
	}
	accepted := decode[struct {
		Match       *models.Match       `json:"match"`
		Appointment *models.Appointment `json:"appointment"`
	}](t, env.Data)
	if accepted.Match.MatchStatusType != models.MatchStatusAccepted {
		t.Errorf("match status = %q, want accepted", accepted.Match.MatchStatusType)
	}
	if accepted.Appointment == nil || accepted.Appointment.ProfessionalID != "provider-1" || accepted.Appointment.SurvivorID != nil {
		t.Fatalf("appointment = %+v, want provider-1 and no survivor", accepted.Appointment)
	}

	code, env = api.do(http.MethodPost, "/api/v1/matches/"+matchID+"/accept", provider, nil)
	if code != http.StatusConflict || env.Error == nil || env.Error.Code != "INVALID_TRANSITION" {
		t.Errorf("second accept = %d %+v, want 409 INVALID_TRANSITION", code, env.Error)
	}

	code, env = api.do(http.MethodGet, "/api/v1/appointments", provider, nil)
	if code != http.StatusOK || env.Meta == nil || env.Meta.Count != 1 {
		t.Fatalf("list appointments = %d meta %+v, want one", code, env.Meta)
	}

	path := "/api/v1/appointments/" + accepted.Appointment.ID + "/status"
	if code, _ := api.do(http.MethodPut, path, provider, map[string]string{"status": "rescheduled"}); code != http.StatusBadRequest {
		t.Errorf("invalid status update = %d, want 400", code)
	}
	if code, _ := api.do(http.MethodPut, path, otherProvider, map[string]string{"status": "completed"}); code != http.StatusForbidden {
		t.Errorf("non-participant update = %d, want 403", code)
	}
	code, env = api.do(http.MethodPut, path, provider, map[string]string{"status": "completed"})
	if code != http.StatusOK {
		t.Fatalf("complete appointment = %d %+v", code, env.Error)
	}
	if got := decode[models.Appointment](t, env.Data); got.Status != models.AppointmentStatusCompleted {
		t.Errorf("appointment status = %q, want completed", got.Status)
	}
	if code, _ := api.do(http.MethodPut, path, provider, map[string]string{"status": "cancelled"}); code != http.StatusConflict {
		t.Errorf("update of completed appointment = %d, want 409", code)
	}
}

func TestSubmitReportValidation(t *testing.T) {
	api := newTestAPI(t, 0)

	body := reportBody("counseling")
	delete(body, "urgency")
	body["required_services"] = []string{"counseling", "Not A Tag!"}

	code, env := api.do(http.MethodPost, "/api/v1/reports", "", body)
	if code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", code)
	}
	if env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
		t.Fatalf("error = %+v, want VALIDATION_ERROR", env.Error)
	}
	for _, field := range []string{"urgency", "required_services[1]"} {
		if _, ok := env.Error.Details[field]; !ok {
			t.Errorf("details missing %q: %v", field, env.Error.Details)
		}
	}

	if code, _ := api.do(http.MethodPost, "/api/v1/reports", "Bearer-less", reportBody("counseling")); code != http.StatusUnauthorized {
		t.Errorf("malformed token status = %d, want 401", code)
	}
}

func TestSubmitWithoutCandidatesIsUnmatched(t *testing.T) {
	api := newTestAPI(t, 0)
	survivor := api.token("survivor-1", utils.UserTypeSurvivor)

	code, env := api.do(http.MethodPost, "/api/v1/reports", survivor, reportBody("shelter"))
	if code != http.StatusCreated {
		t.Fatalf("status = %d, error %+v", code, env.Error)
	}
	result := decode[services.SubmissionResult](t, env.Data)
	if result.Report.MatchStatus != models.ReportMatchStatusUnmatched || result.Report.IsMatched {
		t.Errorf("report = %q matched=%v, want unmatched", result.Report.MatchStatus, result.Report.IsMatched)
	}

	code, env = api.do(http.MethodGet, "/api/v1/reports/mine", survivor, nil)
	if code != http.StatusOK || env.Meta == nil || env.Meta.Count != 1 {
		t.Errorf("list mine = %d meta %+v, want one report", code, env.Meta)
	}
}

func TestRouteGuards(t *testing.T) {
	api := newTestAPI(t, 0)
	survivor := api.token("survivor-1", utils.UserTypeSurvivor)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"inbox needs auth", http.MethodGet, "/api/v1/matches", "", http.StatusUnauthorized},
		{"inbox needs provider", http.MethodGet, "/api/v1/matches", survivor, http.StatusForbidden},
		{"register needs provider", http.MethodPost, "/api/v1/services", survivor, http.StatusForbidden},
		{"sweep needs admin", http.MethodPost, "/api/v1/admin/matches/sweep", survivor, http.StatusForbidden},
		{"missing report", http.MethodGet, "/api/v1/reports/nope", survivor, http.StatusNotFound},
		{"health", http.MethodGet, "/health", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code, _ := api.do(tt.method, tt.path, tt.token, nil); code != tt.want {
				t.Errorf("status = %d, want %d", code, tt.want)
			}
		})
	}
}

func TestAdminSweep(t *testing.T) {
	disabled := newTestAPI(t, 0)
	admin := disabled.token("admin-1", utils.UserTypeAdmin)
	if code, _ := disabled.do(http.MethodPost, "/api/v1/admin/matches/sweep", admin, nil); code != http.StatusConflict {
		t.Errorf("sweep without ttl = %d, want 409", code)
	}

	enabled := newTestAPI(t, time.Hour)
	code, env := enabled.do(http.MethodPost, "/api/v1/admin/matches/sweep", admin, nil)
	if code != http.StatusOK {
		t.Fatalf("sweep = %d %+v", code, env.Error)
	}
	if got := decode[map[string]int](t, env.Data); got["expired"] != 0 {
		t.Errorf("expired = %d, want 0", got["expired"])
	}
}

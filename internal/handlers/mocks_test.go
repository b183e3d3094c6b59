package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"predictive_maintenance/internal/encoder"
	"predictive_maintenance/internal/geo"
	"predictive_maintenance/internal/models"
	"predictive_maintenance/internal/pipeline"
	"predictive_maintenance/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(_ context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(_ context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

// mockDashboard records the last command and returns canned results.
type mockDashboard struct {
	mu sync.Mutex

	snap       pipeline.Snapshot
	analyzeErr error
	cmdErr     error
	chatMsg    models.ChatMessage
	artifact   models.ReportArtifact
	dismissed  bool

	lastAnalyze pipeline.AnalyzeRequest
	lastEmail   string
	lastPhone   string
	lastChat    string
	calls       []string

	updates chan pipeline.Snapshot
}

func (m *mockDashboard) record(name string) {
	m.mu.Lock()
	m.calls = append(m.calls, name)
	m.mu.Unlock()
}

func (m *mockDashboard) Schema() encoder.Schema { return encoder.DefaultSchema() }

func (m *mockDashboard) Analyze(_ context.Context, req pipeline.AnalyzeRequest) (pipeline.Snapshot, error) {
	m.record("analyze")
	m.lastAnalyze = req
	return m.snap, m.analyzeErr
}

func (m *mockDashboard) Snapshot() pipeline.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}

func (m *mockDashboard) Subscribe() (<-chan pipeline.Snapshot, func()) {
	if m.updates == nil {
		m.updates = make(chan pipeline.Snapshot, 1)
	}
	return m.updates, func() {}
}

func (m *mockDashboard) RefreshInsights() error { m.record("insights"); return m.cmdErr }
func (m *mockDashboard) RetryUpload() error     { m.record("upload"); return m.cmdErr }
func (m *mockDashboard) InitChat() error        { m.record("chat_init"); return m.cmdErr }

func (m *mockDashboard) SendEmail(email string) error {
	m.record("email")
	m.lastEmail = email
	return m.cmdErr
}

func (m *mockDashboard) SendAlert(phone string) error {
	m.record("sms")
	m.lastPhone = phone
	return m.cmdErr
}

func (m *mockDashboard) Chat(_ context.Context, text string) (models.ChatMessage, error) {
	m.record("chat")
	m.lastChat = text
	return m.chatMsg, m.cmdErr
}

func (m *mockDashboard) Download() (models.ReportArtifact, error) {
	m.record("download")
	return m.artifact, m.cmdErr
}

func (m *mockDashboard) DismissNotice(string) bool { return m.dismissed }

type mockWorkshops struct {
	centers    []models.ServiceCenter
	err        error
	lastLoc    geo.Locator
	lastRadius int
}

func (m *mockWorkshops) Nearby(ctx context.Context, locator geo.Locator, radiusM int) ([]models.ServiceCenter, error) {
	m.lastLoc = locator
	m.lastRadius = radiusM
	if m.err != nil {
		return nil, m.err
	}
	if locator != nil {
		if _, err := locator.Locate(ctx); err != nil {
			return nil, err
		}
	}
	return m.centers, nil
}

type mockEventLog struct {
	resp     []models.PipelineEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.PipelineEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

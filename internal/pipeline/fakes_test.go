package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"predictive_maintenance/internal/models"
)

const cardsJSON = "```json\n[{\"type\":\"warning\",\"title\":\"Coolant\",\"description\":\"Running hot\"}]\n```"

var errBoom = errors.New("boom")

func sampleResult() models.PredictionResult {
	return models.PredictionResult{
		KPIs: models.KPIs{
			FailureProbability:  75,
			RemainingUsefulLife: 120,
			AnomalyScore:        0.5,
			OverallHealth:       40,
		},
		ComponentHealth: map[string]float64{"engine": 45, "brakes": 90},
		Contributors: []models.Contributor{
			{Feature: "coolant_temp", Value: 104, Importance: 0.4},
		},
		Decision: models.MaintenanceDecision{Level: models.MaintenanceCritical, Message: "Service now"},
	}
}

type fakePredictor struct {
	calls atomic.Int32
	fn    func(ctx context.Context, features []float64) (models.PredictionResult, error)
}

func (f *fakePredictor) Predict(ctx context.Context, features []float64) (models.PredictionResult, error) {
	f.calls.Add(1)
	if f.fn != nil {
		return f.fn(ctx, features)
	}
	return sampleResult(), nil
}

// insightCall is one pending GetAIInsights call when the fake is manual.
type insightCall struct {
	req   models.InsightRequest
	reply chan insightReply
}

type insightReply struct {
	raw string
	err error
}

type fakeInsights struct {
	calls  atomic.Int32
	manual chan *insightCall
	raw    string
	err    error
}

func (f *fakeInsights) GetAIInsights(ctx context.Context, req models.InsightRequest) (string, error) {
	f.calls.Add(1)
	if f.manual == nil {
		if f.raw == "" && f.err == nil {
			return cardsJSON, nil
		}
		return f.raw, f.err
	}
	call := &insightCall{req: req, reply: make(chan insightReply, 1)}
	f.manual <- call
	select {
	case r := <-call.reply:
		return r.raw, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func nextInsightCall(t *testing.T, f *fakeInsights) *insightCall {
	t.Helper()
	select {
	case c := <-f.manual:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("insight call not issued")
		return nil
	}
}

type fakeRenderer struct {
	calls atomic.Int32
	err   error
}

func (f *fakeRenderer) Render(result models.PredictionResult, cards []models.InsightCard) (models.ReportArtifact, error) {
	f.calls.Add(1)
	if f.err != nil {
		return models.ReportArtifact{}, f.err
	}
	return models.ReportArtifact{
		Filename:    "report-" + result.ID + ".pdf",
		Content:     []byte("%PDF-fake"),
		GeneratedAt: result.CreatedAt,
	}, nil
}

type fakeStore struct {
	calls atomic.Int32
	fn    func(ctx context.Context, n int32, art models.ReportArtifact) (models.StoredArtifact, error)
}

func (f *fakeStore) UploadArtifact(ctx context.Context, art models.ReportArtifact) (models.StoredArtifact, error) {
	n := f.calls.Add(1)
	if f.fn != nil {
		return f.fn(ctx, n, art)
	}
	return models.StoredArtifact{URL: "https://files.example/" + art.Filename, Filename: art.Filename}, nil
}

type fakeNotifier struct {
	alerts atomic.Int32
	emails atomic.Int32

	mu        sync.Mutex
	alertErr  error
	emailErr  error
	lastAlert models.AlertRequest
	lastEmail models.EmailRequest
}

func (f *fakeNotifier) SendAlert(_ context.Context, req models.AlertRequest) (models.NotificationResult, error) {
	f.alerts.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastAlert = req
	if f.alertErr != nil {
		return models.NotificationResult{}, f.alertErr
	}
	return models.NotificationResult{Success: true, Message: "queued"}, nil
}

func (f *fakeNotifier) SendReportEmail(_ context.Context, req models.EmailRequest) (models.NotificationResult, error) {
	f.emails.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastEmail = req
	if f.emailErr != nil {
		return models.NotificationResult{}, f.emailErr
	}
	return models.NotificationResult{Success: true, Message: "sent"}, nil
}

func (f *fakeNotifier) setEmailErr(err error) {
	f.mu.Lock()
	f.emailErr = err
	f.mu.Unlock()
}

func (f *fakeNotifier) setAlertErr(err error) {
	f.mu.Lock()
	f.alertErr = err
	f.mu.Unlock()
}

type fakeChat struct {
	inits   atomic.Int32
	initErr error
	msgErr  error
}

func (f *fakeChat) InitializeChat(_ context.Context, _ models.PredictionResult, _ string) (string, error) {
	f.inits.Add(1)
	if f.initErr != nil {
		return "", f.initErr
	}
	return "Hello, I have read your report.", nil
}

func (f *fakeChat) SendChatMessage(_ context.Context, text string) (string, error) {
	if f.msgErr != nil {
		return "", f.msgErr
	}
	return "You asked: " + text, nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []models.PipelineEvent
}

func (f *fakeEvents) Append(_ context.Context, ev models.PipelineEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeEvents) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, ev := range f.events {
		out = append(out, ev.Type)
	}
	return out
}

type harness struct {
	p         *Pipeline
	predictor *fakePredictor
	insights  *fakeInsights
	renderer  *fakeRenderer
	store     *fakeStore
	notifier  *fakeNotifier
	chat      *fakeChat
	events    *fakeEvents
}

func newHarness(t *testing.T, tweak func(h *harness, o *Options)) *harness {
	t.Helper()
	h := &harness{
		predictor: &fakePredictor{},
		insights:  &fakeInsights{},
		renderer:  &fakeRenderer{},
		store:     &fakeStore{},
		notifier:  &fakeNotifier{},
		chat:      &fakeChat{},
		events:    &fakeEvents{},
	}
	opts := Options{TaskTimeout: 2 * time.Second, NoticeTTL: time.Minute}
	if tweak != nil {
		tweak(h, &opts)
	}
	p, err := New(Deps{
		Predictor: h.predictor,
		Insights:  h.insights,
		Renderer:  h.renderer,
		Store:     h.store,
		Alerts:    h.notifier,
		Mailer:    h.notifier,
		Chat:      h.chat,
		Events:    h.events,
	}, opts)
	require.NoError(t, err)
	t.Cleanup(p.Close)
	h.p = p
	return h
}

func (h *harness) analyze(t *testing.T, req AnalyzeRequest) Snapshot {
	t.Helper()
	snap, err := h.p.Analyze(context.Background(), req)
	require.NoError(t, err)
	return snap
}

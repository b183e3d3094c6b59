package client

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"predictive_maintenance/internal/models"
)

func newTestBackend(t *testing.T, h http.HandlerFunc) *Backend {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return NewBackend(srv.URL+"/", time.Second, WithClock(func() time.Time { return fixed }))
}

func TestPredict_DecodesResult(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/predict", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"features":[1,2.5]}`, string(body))
		_, _ = w.Write([]byte(`{
			"kpis":{"failure_probability":72.5,"remaining_useful_life":120,"anomaly_score":0.4,"overall_health":41},
			"component_health":{"engine":55,"brakes":80},
			"degradation_contributors":[{"feature":"coolant_temp","value":104,"importance":0.31}],
			"maintenance_decision":{"level":"immediate","message":"Service now"}
		}`))
	})

	res, err := b.Predict(context.Background(), []float64{1, 2.5})
	require.NoError(t, err)
	assert.Equal(t, 72.5, res.KPIs.FailureProbability)
	assert.Equal(t, models.MaintenanceCritical, res.Decision.Level)
	assert.Equal(t, "Service now", res.Decision.Message)
	require.Len(t, res.Contributors, 1)
	assert.Equal(t, "coolant_temp", res.Contributors[0].Feature)
	assert.Equal(t, 55.0, res.ComponentHealth["engine"])
	assert.Empty(t, res.ID)
}

func TestPredict_Failures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `boom`},
		{"success false", http.StatusOK, `{"success":false,"error":"model offline"}`},
		{"not json", http.StatusOK, `<html>`},
		{"missing kpis", http.StatusOK, `{"component_health":{}}`},
		{"out of range", http.StatusOK, `{"kpis":{"failure_probability":140,"remaining_useful_life":1,"anomaly_score":0,"overall_health":50}}`},
		{"unknown level", http.StatusOK, `{"kpis":{"failure_probability":10,"remaining_useful_life":1,"anomaly_score":0,"overall_health":50},"maintenance_decision":{"level":"someday"}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := b.Predict(context.Background(), []float64{1})
			require.Error(t, err)
			var ne *NetworkError
			require.True(t, errors.As(err, &ne))
			assert.Equal(t, "predict", ne.Op)
		})
	}
}

func TestPredict_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewBackend(url, time.Second).Predict(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, IsNetworkError(err))
}

func TestPredict_StatusCodeKept(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"success":false,"error":"upstream down"}`))
	})
	_, err := b.Predict(context.Background(), nil)
	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, http.StatusBadGateway, ne.StatusCode)
	assert.Contains(t, ne.Error(), "upstream down")
}

func TestGetAIInsights_ReturnsRawText(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ai-insights", r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true,"insights":"` + "```json\\n[]\\n```" + `"}`))
	})
	raw, err := b.GetAIInsights(context.Background(), models.InsightRequest{
		Contributors: []models.Contributor{{Feature: "x", Importance: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "```json\n[]\n```", raw)
}

func TestUploadArtifact(t *testing.T) {
	var got uploadRequest
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/upload-pdf", r.URL.Path)
		assert.NoError(t, jsonStd.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"success":true,"url":"https://files.example/r.pdf"}`))
	})

	stored, err := b.UploadArtifact(context.Background(), models.ReportArtifact{
		Filename: "r.pdf",
		Content:  []byte("%PDF-1.3"),
	})
	require.NoError(t, err)
	assert.Equal(t, "https://files.example/r.pdf", stored.URL)
	assert.Equal(t, "r.pdf", stored.Filename)
	assert.Equal(t, 2026, stored.UploadedAt.Year())

	decoded, err := base64.StdEncoding.DecodeString(got.PDFBase64)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3", string(decoded))
}

func TestUploadArtifact_MissingURL(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true}`))
	})
	_, err := b.UploadArtifact(context.Background(), models.ReportArtifact{Filename: "r.pdf"})
	assert.True(t, IsNetworkError(err))
}

func TestSendAlertAndEmail(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/send-alert":
			var req models.AlertRequest
			assert.NoError(t, jsonStd.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, models.AlertCritical, req.Severity)
			_, _ = w.Write([]byte(`{"success":true,"message":"queued"}`))
		case "/send-report-email":
			_, _ = w.Write([]byte(`{"success":false,"message":"mailbox full"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	res, err := b.SendAlert(context.Background(), models.AlertRequest{Phone: "+15550100", Severity: models.AlertCritical})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "queued", res.Message)

	_, err = b.SendReportEmail(context.Background(), models.EmailRequest{Email: "a@b.co", PDFURL: "u"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mailbox full")
}

func TestChat(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/chat/init":
			_, _ = w.Write([]byte(`{"success":true,"greeting":"Hi, I read your report."}`))
		case "/chat/message":
			_, _ = w.Write([]byte(`{"success":true,"response":"Check the coolant."}`))
		}
	})

	greeting, err := b.InitializeChat(context.Background(), models.PredictionResult{}, "u")
	require.NoError(t, err)
	assert.Equal(t, "Hi, I read your report.", greeting)

	reply, err := b.SendChatMessage(context.Background(), "what now?")
	require.NoError(t, err)
	assert.Equal(t, "Check the coolant.", reply)
}

func TestGetServiceCenters(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "52.52", r.URL.Query().Get("lat"))
		assert.Equal(t, "13.405", r.URL.Query().Get("lng"))
		assert.Equal(t, "5000", r.URL.Query().Get("radius"))
		_, _ = w.Write([]byte(`{"success":true,"centers":[{"name":"Garage A","address":"Main 1","lat":52.5,"lng":13.4,"rating":4.5,"user_ratings_total":12,"open_now":true,"distance":2.3}]}`))
	})

	centers, err := b.GetServiceCenters(context.Background(), models.Coordinates{Lat: 52.52, Lng: 13.405}, 5000)
	require.NoError(t, err)
	require.Len(t, centers, 1)
	assert.Equal(t, "Garage A", centers[0].Name)
	assert.Equal(t, 12, centers[0].ReviewCount)
	require.NotNil(t, centers[0].OpenNow)
	assert.True(t, *centers[0].OpenNow)
	assert.Equal(t, 2.3, centers[0].DistanceKm)
}

func TestCall_RespectsContext(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := b.SendChatMessage(ctx, "hi")
	require.Error(t, err)
	assert.True(t, IsNetworkError(err))
}

package pipeline

import (
	"time"

	"predictive_maintenance/internal/models"
)

// Phase is the main pipeline state.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseAnalyzing    Phase = "analyzing"
	PhaseReady        Phase = "ready"
	PhaseGenerating   Phase = "generating_artifact"
	PhaseUploading    Phase = "uploading"
	PhaseUploaded     Phase = "uploaded"
	PhaseEmailSending Phase = "email_sending"
	PhaseEmailSent    Phase = "email_sent"
)

type SmsStatus string

const (
	SmsIdle    SmsStatus = "idle"
	SmsSending SmsStatus = "sending"
	SmsSent    SmsStatus = "sent"
	SmsFailed  SmsStatus = "failed"
)

type InsightsStatus string

const (
	InsightsIdle    InsightsStatus = "idle"
	InsightsLoading InsightsStatus = "loading"
	InsightsReady   InsightsStatus = "ready"
	InsightsFailed  InsightsStatus = "failed"
)

type ChatStatus string

const (
	ChatIdle         ChatStatus = "idle"
	ChatInitializing ChatStatus = "initializing"
	ChatReady        ChatStatus = "ready"
	ChatFailed       ChatStatus = "failed"
)

// SmsState tracks the alert sent for the current result.
type SmsState struct {
	Status    SmsStatus            `json:"status"`
	Recipient string               `json:"recipient,omitempty"`
	Severity  models.AlertSeverity `json:"severity,omitempty"`
	Error     string               `json:"error,omitempty"`
}

// InsightsState holds the advisory cards. RawText is set when the
// assistant answered with something that is not a card list.
type InsightsState struct {
	Status  InsightsStatus       `json:"status"`
	Cards   []models.InsightCard `json:"cards"`
	RawText string               `json:"raw_text,omitempty"`
	Error   string               `json:"error,omitempty"`
}

type ChatState struct {
	Status     ChatStatus           `json:"status"`
	Greeting   string               `json:"greeting,omitempty"`
	Transcript []models.ChatMessage `json:"transcript"`
	Error      string               `json:"error,omitempty"`
}

// Snapshot is a read-only copy of the pipeline state. Mutating it has no
// effect on the pipeline.
type Snapshot struct {
	Generation    uint64                   `json:"generation"`
	Phase         Phase                    `json:"phase"`
	Result        *models.PredictionResult `json:"result,omitempty"`
	AnalysisError string                   `json:"analysis_error,omitempty"`
	Artifact      *models.StoredArtifact   `json:"artifact,omitempty"`
	UploadError   string                   `json:"upload_error,omitempty"`
	EmailError    string                   `json:"email_error,omitempty"`
	EmailSentTo   string                   `json:"email_sent_to,omitempty"`
	Sms           SmsState                 `json:"sms"`
	Insights      InsightsState            `json:"insights"`
	Chat          ChatState                `json:"chat"`
	Notices       []models.Notice          `json:"notices"`
	UpdatedAt     time.Time                `json:"updated_at"`
}

func initialState(gen uint64, phase Phase, at time.Time) Snapshot {
	return Snapshot{
		Generation: gen,
		Phase:      phase,
		Sms:        SmsState{Status: SmsIdle},
		Insights:   InsightsState{Status: InsightsIdle, Cards: []models.InsightCard{}},
		Chat:       ChatState{Status: ChatIdle, Transcript: []models.ChatMessage{}},
		Notices:    []models.Notice{},
		UpdatedAt:  at,
	}
}

// clone deep-copies everything reachable through pointers, maps and slices.
func (s Snapshot) clone() Snapshot {
	out := s
	if s.Result != nil {
		r := cloneResult(*s.Result)
		out.Result = &r
	}
	if s.Artifact != nil {
		a := *s.Artifact
		out.Artifact = &a
	}
	out.Insights.Cards = append([]models.InsightCard{}, s.Insights.Cards...)
	out.Chat.Transcript = append([]models.ChatMessage{}, s.Chat.Transcript...)
	out.Notices = append([]models.Notice{}, s.Notices...)
	return out
}

func cloneResult(r models.PredictionResult) models.PredictionResult {
	out := r
	if r.ComponentHealth != nil {
		out.ComponentHealth = make(map[string]float64, len(r.ComponentHealth))
		for k, v := range r.ComponentHealth {
			out.ComponentHealth[k] = v
		}
	}
	out.Contributors = append([]models.Contributor(nil), r.Contributors...)
	return out
}

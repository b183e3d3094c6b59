package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"predictive_maintenance/internal/encoder"
	"predictive_maintenance/internal/insight"
	"predictive_maintenance/internal/models"
)

// AnalyzeRequest starts a new analysis. Phone triggers the SMS alert; with
// UseDefaultPhone the configured recipient is used when Phone is empty.
type AnalyzeRequest struct {
	Telemetry       models.TelemetryInput `json:"telemetry"`
	Phone           string                `json:"phone,omitempty"`
	UseDefaultPhone bool                  `json:"use_default_phone,omitempty"`
	NearestCenter   string                `json:"nearest_center,omitempty"`
}

// Analyze tears down the previous result, calls the predictor and, on
// success, kicks off the dependent tasks. It returns once the prediction
// settled. A non-nil error means the prediction did not become current.
func (p *Pipeline) Analyze(ctx context.Context, req AnalyzeRequest) (Snapshot, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return Snapshot{}, ErrClosed
	}
	p.gen++
	gen := p.gen
	p.nearest = req.NearestCenter
	p.state = initialState(gen, PhaseAnalyzing, p.opts.Now().UTC())
	schema := p.opts.Schema
	p.commit()

	features, err := encoder.Encode(schema, req.Telemetry)
	if err != nil {
		return p.analysisFailed(gen, fmt.Errorf("encode telemetry: %w", err))
	}

	pctx, cancel := context.WithTimeout(ctx, p.opts.TaskTimeout)
	result, err := p.deps.Predictor.Predict(pctx, features)
	cancel()
	if err != nil {
		return p.analysisFailed(gen, err)
	}
	result.ID = uuid.NewString()
	result.CreatedAt = p.opts.Now().UTC()

	p.mu.Lock()
	if p.closed {
		snap := p.snapshotLocked()
		p.mu.Unlock()
		return snap, ErrClosed
	}
	if gen != p.gen {
		snap := p.snapshotLocked()
		p.mu.Unlock()
		p.log.Infow("prediction_superseded", "generation", gen, "current", snap.Generation)
		return snap, ErrSuperseded
	}
	p.state.Phase = PhaseReady
	p.state.Result = &result
	p.recordLocked(gen, models.EventAnalyzed, "prediction received", map[string]any{
		"result_id":           result.ID,
		"failure_probability": result.KPIs.FailureProbability,
		"level":               result.Decision.Level,
	})
	p.log.Infow("prediction_ready", "generation", gen, "result_id", result.ID,
		"failure_probability", result.KPIs.FailureProbability)

	if phone := p.resolvePhone(strings.TrimSpace(req.Phone), req.UseDefaultPhone); phone != "" {
		if normalized, err := p.normalizePhone(phone); err != nil {
			p.state.Sms = SmsState{Status: SmsFailed, Recipient: phone, Error: err.Error()}
			p.notifyLocked(models.NoticeError, "sms", "SMS alert not sent: "+err.Error())
			p.log.Warnw("sms_invalid_phone", "generation", gen)
		} else {
			p.startSmsLocked(gen, normalized)
		}
	}
	if result.HasContributors() {
		p.startInsightsLocked(gen)
	} else {
		p.maybeAutoUploadLocked(gen)
	}
	return p.commitSnapshot(), nil
}

func (p *Pipeline) analysisFailed(gen uint64, err error) (Snapshot, error) {
	p.mu.Lock()
	if p.closed {
		snap := p.snapshotLocked()
		p.mu.Unlock()
		return snap, ErrClosed
	}
	if gen != p.gen {
		snap := p.snapshotLocked()
		p.mu.Unlock()
		return snap, ErrSuperseded
	}
	p.state.Phase = PhaseIdle
	p.state.AnalysisError = err.Error()
	p.notifyLocked(models.NoticeError, "analysis", "Analysis failed: "+err.Error())
	p.recordLocked(gen, models.EventAnalysisFailed, err.Error(), nil)
	p.log.Warnw("prediction_failed", "generation", gen, "err", err)
	return p.commitSnapshot(), err
}

func (p *Pipeline) resolvePhone(phone string, useDefault bool) string {
	if phone != "" {
		return phone
	}
	if useDefault {
		return p.opts.DefaultPhone
	}
	return ""
}

func (p *Pipeline) startSmsLocked(gen uint64, phone string) {
	result := *p.state.Result
	req := models.AlertRequest{
		Phone:              phone,
		FailureProbability: result.KPIs.FailureProbability,
		RUL:                result.KPIs.RemainingUsefulLife,
		Severity:           models.ClassifyAlertSeverity(result.KPIs.FailureProbability),
		NearestCenter:      p.nearest,
	}
	p.state.Sms = SmsState{Status: SmsSending, Recipient: phone, Severity: req.Severity}

	p.spawnLocked("sms", func(ctx context.Context) {
		res, err := p.deps.Alerts.SendAlert(ctx, req)

		p.mu.Lock()
		if !p.currentLocked(gen) {
			p.mu.Unlock()
			return
		}
		if err == nil && !res.Success {
			err = errors.New(nonEmpty(res.Message, "provider rejected the alert"))
		}
		if err != nil {
			p.state.Sms.Status = SmsFailed
			p.state.Sms.Error = err.Error()
			p.notifyLocked(models.NoticeError, "sms", "SMS alert failed: "+err.Error())
			p.recordLocked(gen, models.EventSmsFailed, err.Error(), map[string]any{"phone": phone})
			p.log.Warnw("sms_failed", "generation", gen, "err", err)
		} else {
			p.state.Sms.Status = SmsSent
			p.state.Sms.Error = ""
			p.notifyLocked(models.NoticeSuccess, "sms", "SMS alert sent to "+phone)
			p.recordLocked(gen, models.EventSmsSent, "sms alert sent", map[string]any{
				"phone":    phone,
				"severity": req.Severity,
			})
			p.log.Infow("sms_sent", "generation", gen, "severity", req.Severity)
		}
		p.commit()
	})
}

func (p *Pipeline) startInsightsLocked(gen uint64) {
	p.insightSeq++
	seq := p.insightSeq
	result := *p.state.Result
	kpis := result.KPIs
	req := models.InsightRequest{
		Contributors:    append([]models.Contributor(nil), result.Contributors...),
		KPIs:            &kpis,
		ComponentHealth: cloneResult(result).ComponentHealth,
	}
	p.state.Insights = InsightsState{Status: InsightsLoading, Cards: []models.InsightCard{}}

	p.spawnLocked("insights", func(ctx context.Context) {
		raw, err := p.deps.Insights.GetAIInsights(ctx, req)

		p.mu.Lock()
		if !p.currentLocked(gen) || seq != p.insightSeq {
			p.mu.Unlock()
			p.log.Debugw("insights_stale", "generation", gen, "seq", seq)
			return
		}
		switch {
		case err != nil:
			p.state.Insights = InsightsState{Status: InsightsFailed, Cards: []models.InsightCard{}, Error: err.Error()}
			p.notifyLocked(models.NoticeError, "insights", "AI insights unavailable: "+err.Error())
			p.log.Warnw("insights_failed", "generation", gen, "err", err)
		default:
			cards, perr := insight.Parse(raw)
			if perr != nil {
				p.state.Insights = InsightsState{Status: InsightsReady, Cards: []models.InsightCard{}, RawText: raw, Error: perr.Error()}
				p.log.Infow("insights_unparsed", "generation", gen, "err", perr)
			} else {
				p.state.Insights = InsightsState{Status: InsightsReady, Cards: cards}
			}
		}
		p.maybeAutoUploadLocked(gen)
		p.commit()
	})
}

// maybeAutoUploadLocked fires render+upload at most once per generation.
func (p *Pipeline) maybeAutoUploadLocked(gen uint64) {
	if !p.currentLocked(gen) || p.guards.upload == gen {
		return
	}
	p.guards.upload = gen
	p.startUploadLocked(gen)
}

func (p *Pipeline) startUploadLocked(gen uint64) {
	result := cloneResult(*p.state.Result)
	cards := append([]models.InsightCard(nil), p.state.Insights.Cards...)
	p.state.Phase = PhaseGenerating
	p.state.UploadError = ""

	p.spawnLocked("upload", func(ctx context.Context) {
		artifact, err := p.deps.Renderer.Render(result, cards)
		if err != nil {
			p.uploadFailed(gen, fmt.Errorf("render report: %w", err))
			return
		}

		p.mu.Lock()
		if !p.currentLocked(gen) {
			p.mu.Unlock()
			return
		}
		p.state.Phase = PhaseUploading
		p.commit()

		stored, err := p.deps.Store.UploadArtifact(ctx, artifact)
		if err != nil {
			p.uploadFailed(gen, err)
			return
		}

		p.mu.Lock()
		if !p.currentLocked(gen) {
			p.mu.Unlock()
			return
		}
		p.state.Phase = PhaseUploaded
		p.state.Artifact = &stored
		p.notifyLocked(models.NoticeSuccess, "upload", "Report uploaded")
		p.recordLocked(gen, models.EventUploaded, "report uploaded", map[string]any{
			"url":      stored.URL,
			"filename": stored.Filename,
		})
		p.log.Infow("report_uploaded", "generation", gen, "url", stored.URL)
		if p.guards.chat != gen {
			p.guards.chat = gen
			p.startChatLocked(gen)
		}
		p.commit()
	})
}

func (p *Pipeline) uploadFailed(gen uint64, err error) {
	p.mu.Lock()
	if !p.currentLocked(gen) {
		p.mu.Unlock()
		return
	}
	p.state.Phase = PhaseReady
	p.state.UploadError = err.Error()
	p.notifyLocked(models.NoticeError, "upload", "Report upload failed: "+err.Error())
	p.recordLocked(gen, models.EventUploadFailed, err.Error(), nil)
	p.log.Warnw("upload_failed", "generation", gen, "err", err)
	p.commit()
}

func (p *Pipeline) startChatLocked(gen uint64) {
	result := cloneResult(*p.state.Result)
	url := p.state.Artifact.URL
	p.state.Chat = ChatState{Status: ChatInitializing, Transcript: []models.ChatMessage{}}

	p.spawnLocked("chat_init", func(ctx context.Context) {
		greeting, err := p.deps.Chat.InitializeChat(ctx, result, url)

		p.mu.Lock()
		if !p.currentLocked(gen) {
			p.mu.Unlock()
			return
		}
		if err != nil {
			p.state.Chat.Status = ChatFailed
			p.state.Chat.Error = err.Error()
			p.notifyLocked(models.NoticeError, "chat", "Chat assistant unavailable: "+err.Error())
			p.recordLocked(gen, models.EventChatFailed, err.Error(), nil)
			p.log.Warnw("chat_init_failed", "generation", gen, "err", err)
		} else {
			p.state.Chat.Status = ChatReady
			p.state.Chat.Error = ""
			p.state.Chat.Greeting = greeting
			if greeting != "" {
				p.state.Chat.Transcript = append(p.state.Chat.Transcript, models.ChatMessage{
					Role: models.ChatAssistant,
					Text: greeting,
					At:   p.opts.Now().UTC(),
				})
			}
			p.recordLocked(gen, models.EventChatReady, "chat assistant ready", nil)
		}
		p.commit()
	})
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

package pipeline

import (
	"context"
	"errors"
	"strings"

	"predictive_maintenance/internal/models"
)

// RefreshInsights re-requests insight cards. The latest request wins.
func (p *Pipeline) RefreshInsights() error {
	p.mu.Lock()
	if p.state.Result == nil {
		p.mu.Unlock()
		return ErrNoResult
	}
	if !p.state.Result.HasContributors() {
		p.mu.Unlock()
		return ErrNoContributors
	}
	p.startInsightsLocked(p.gen)
	p.commit()
	return nil
}

// RetryUpload re-runs render+upload after the automatic attempt failed.
func (p *Pipeline) RetryUpload() error {
	p.mu.Lock()
	if p.state.Result == nil {
		p.mu.Unlock()
		return ErrNoResult
	}
	retryable := p.state.Phase == PhaseReady &&
		p.guards.upload == p.gen &&
		p.state.Artifact == nil &&
		p.state.UploadError != ""
	if !retryable {
		p.mu.Unlock()
		return ErrUploadNotRetryable
	}
	p.startUploadLocked(p.gen)
	p.commit()
	return nil
}

// SendEmail mails the uploaded report link. Once sent for the current
// result, further calls are no-ops.
func (p *Pipeline) SendEmail(email string) error {
	p.mu.Lock()
	if p.state.Result == nil {
		p.mu.Unlock()
		return ErrNoResult
	}
	gen := p.gen
	if p.guards.email == gen {
		p.mu.Unlock()
		return nil
	}
	if p.state.Phase == PhaseEmailSending {
		p.mu.Unlock()
		return ErrEmailInProgress
	}
	if p.state.Artifact == nil || (p.state.Phase != PhaseUploaded && p.state.Phase != PhaseReady) {
		p.mu.Unlock()
		return ErrNotUploaded
	}

	recipient := strings.TrimSpace(email)
	if recipient == "" {
		recipient = p.opts.DefaultEmail
	}
	if recipient == "" {
		p.mu.Unlock()
		return ErrNoRecipient
	}
	if !p.verifier.ParseAddress(recipient).Valid {
		p.mu.Unlock()
		return ErrInvalidEmail
	}

	req := models.EmailRequest{
		Email:  recipient,
		PDFURL: p.state.Artifact.URL,
		Date:   p.state.Result.CreatedAt.Format("2006-01-02"),
	}
	p.state.Phase = PhaseEmailSending
	p.state.EmailError = ""

	p.spawnLocked("email", func(ctx context.Context) {
		res, err := p.deps.Mailer.SendReportEmail(ctx, req)

		p.mu.Lock()
		if !p.currentLocked(gen) {
			p.mu.Unlock()
			return
		}
		if err == nil && !res.Success {
			err = errors.New(nonEmpty(res.Message, "provider rejected the email"))
		}
		if err != nil {
			p.state.Phase = PhaseReady
			p.state.EmailError = err.Error()
			p.notifyLocked(models.NoticeError, "email", "Report email failed: "+err.Error())
			p.recordLocked(gen, models.EventEmailFailed, err.Error(), map[string]any{"email": recipient})
			p.log.Warnw("email_failed", "generation", gen, "err", err)
		} else {
			p.guards.email = gen
			p.state.Phase = PhaseEmailSent
			p.state.EmailSentTo = recipient
			p.notifyLocked(models.NoticeSuccess, "email", "Report sent to "+recipient)
			p.recordLocked(gen, models.EventEmailSent, "report email sent", map[string]any{"email": recipient})
			p.log.Infow("email_sent", "generation", gen)
		}
		p.commit()
	})
	p.commit()
	return nil
}

// SendAlert sends the SMS alert by hand, e.g. when none was requested with
// the analysis or the automatic one failed.
func (p *Pipeline) SendAlert(phone string) error {
	p.mu.Lock()
	if p.state.Result == nil {
		p.mu.Unlock()
		return ErrNoResult
	}
	switch p.state.Sms.Status {
	case SmsSending:
		p.mu.Unlock()
		return ErrSmsInProgress
	case SmsSent:
		p.mu.Unlock()
		return ErrSmsAlreadySent
	}

	recipient := p.resolvePhone(strings.TrimSpace(phone), true)
	if recipient == "" {
		p.mu.Unlock()
		return ErrNoRecipient
	}
	recipient, err := p.normalizePhone(recipient)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	p.startSmsLocked(p.gen, recipient)
	p.commit()
	return nil
}

// InitChat (re)initializes the assistant for the uploaded report.
func (p *Pipeline) InitChat() error {
	p.mu.Lock()
	if p.state.Result == nil {
		p.mu.Unlock()
		return ErrNoResult
	}
	if p.state.Artifact == nil {
		p.mu.Unlock()
		return ErrNotUploaded
	}
	switch p.state.Chat.Status {
	case ChatInitializing:
		p.mu.Unlock()
		return ErrChatInitializing
	case ChatReady:
		p.mu.Unlock()
		return nil
	}
	p.guards.chat = p.gen
	p.startChatLocked(p.gen)
	p.commit()
	return nil
}

// Chat sends one message and waits for the reply. A collaborator failure
// is returned as a Failed assistant message, not as an error.
func (p *Pipeline) Chat(ctx context.Context, text string) (models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.ChatMessage{}, ErrEmptyMessage
	}

	p.mu.Lock()
	if p.state.Chat.Status != ChatReady {
		p.mu.Unlock()
		return models.ChatMessage{}, ErrChatNotReady
	}
	gen := p.gen
	p.state.Chat.Transcript = append(p.state.Chat.Transcript, models.ChatMessage{
		Role: models.ChatUser,
		Text: text,
		At:   p.opts.Now().UTC(),
	})
	p.commit()

	cctx, cancel := context.WithTimeout(ctx, p.opts.TaskTimeout)
	reply, err := p.deps.Chat.SendChatMessage(cctx, text)
	cancel()

	msg := models.ChatMessage{Role: models.ChatAssistant, Text: reply}
	if err != nil {
		msg.Text = "Sorry, the assistant could not answer right now."
		msg.Failed = true
		p.log.Warnw("chat_message_failed", "generation", gen, "err", err)
	}

	p.mu.Lock()
	msg.At = p.opts.Now().UTC()
	if gen != p.gen {
		p.mu.Unlock()
		return msg, ErrSuperseded
	}
	p.state.Chat.Transcript = append(p.state.Chat.Transcript, msg)
	if msg.Failed {
		p.notifyLocked(models.NoticeError, "chat", "Chat message failed: "+err.Error())
	}
	p.commit()
	return msg, nil
}

// Download renders the report from the in-memory result. It does not touch
// the upload path and works in any state that holds a result.
func (p *Pipeline) Download() (models.ReportArtifact, error) {
	p.mu.Lock()
	if p.state.Result == nil {
		p.mu.Unlock()
		return models.ReportArtifact{}, ErrNoResult
	}
	result := cloneResult(*p.state.Result)
	cards := append([]models.InsightCard(nil), p.state.Insights.Cards...)
	p.mu.Unlock()

	return p.deps.Renderer.Render(result, cards)
}

// normalizePhone strips common separators and checks the result is an
// E.164 number.
func (p *Pipeline) normalizePhone(phone string) (string, error) {
	n := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, phone)
	if err := p.validate.Var(n, "required,e164"); err != nil {
		return "", ErrInvalidPhone
	}
	return n, nil
}

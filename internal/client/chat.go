package client

import (
	"context"
	"net/http"

	"predictive_maintenance/internal/models"
)

type chatInitRequest struct {
	Prediction models.PredictionResult `json:"prediction"`
	PDFURL     string                  `json:"pdf_url,omitempty"`
}

type chatInitResponse struct {
	Greeting string `json:"greeting"`
}

type chatMessageRequest struct {
	Message string `json:"message"`
}

type chatMessageResponse struct {
	Response string `json:"response"`
}

// InitializeChat primes the assistant with the prediction and report link.
func (b *Backend) InitializeChat(ctx context.Context, result models.PredictionResult, pdfURL string) (string, error) {
	var resp chatInitResponse
	if err := b.call(ctx, "chat_init", http.MethodPost, "/chat/init", nil, chatInitRequest{Prediction: result, PDFURL: pdfURL}, &resp); err != nil {
		return "", err
	}
	return resp.Greeting, nil
}

// SendChatMessage forwards one user message and returns the assistant reply.
func (b *Backend) SendChatMessage(ctx context.Context, text string) (string, error) {
	var resp chatMessageResponse
	if err := b.call(ctx, "chat_message", http.MethodPost, "/chat/message", nil, chatMessageRequest{Message: text}, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

package client

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"predictive_maintenance/internal/models"
)

type uploadRequest struct {
	PDFBase64 string `json:"pdf_base64"`
	Filename  string `json:"filename,omitempty"`
}

type uploadResponse struct {
	URL string `json:"url"`
}

// UploadArtifact stores the report and returns its public URL.
func (b *Backend) UploadArtifact(ctx context.Context, artifact models.ReportArtifact) (models.StoredArtifact, error) {
	const op = "upload_artifact"
	req := uploadRequest{
		PDFBase64: base64.StdEncoding.EncodeToString(artifact.Content),
		Filename:  artifact.Filename,
	}
	var resp uploadResponse
	if err := b.call(ctx, op, http.MethodPost, "/upload-pdf", nil, req, &resp); err != nil {
		return models.StoredArtifact{}, err
	}
	if strings.TrimSpace(resp.URL) == "" {
		return models.StoredArtifact{}, &NetworkError{Op: op, Err: errMissing("url")}
	}
	return models.StoredArtifact{
		URL:        resp.URL,
		Filename:   artifact.Filename,
		UploadedAt: b.now().UTC(),
	}, nil
}

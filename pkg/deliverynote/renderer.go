package deliverynote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sidaputra/dapurlink-backend/pkg/config"
	"github.com/sidaputra/dapurlink-backend/pkg/logger"
)

// Renderer turns a complete request into raster image bytes.
type Renderer interface {
	Render(ctx context.Context, req RenderRequest) ([]byte, error)
}

// HTTPRenderer posts render requests to an external rendering service.
type HTTPRenderer struct {
	baseURL    string
	httpClient *http.Client
	logg       *logger.Logger
}

var _ Renderer = (*HTTPRenderer)(nil)

func NewHTTPRenderer(cfg config.RendererConfig, logg *logger.Logger) (*HTTPRenderer, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("renderer base url is required")
	}
	return &HTTPRenderer{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logg:       logg,
	}, nil
}

func (r *HTTPRenderer) Render(ctx context.Context, req RenderRequest) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding render request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/render", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building render request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling renderer: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && r.logg != nil {
			r.logg.Warn(ctx, "closing renderer response body failed")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("renderer returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	image, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading rendered image: %w", err)
	}
	if len(image) == 0 {
		return nil, errors.New("renderer returned empty image")
	}
	return image, nil
}

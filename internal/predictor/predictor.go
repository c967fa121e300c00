// Package predictor talks to the remote phishing-detection service.
package predictor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/raysh454/phishguard/internal/logging"
	"github.com/raysh454/phishguard/internal/model"
	"github.com/raysh454/phishguard/internal/webclient"
)

// Predictor is the contract the scan controller depends on.
type Predictor interface {
	// Predict issues exactly one prediction request for url. Every failure is
	// returned as a *RequestError.
	Predict(ctx context.Context, url string) (*model.PredictionResult, error)

	// Health reports the backend's health message.
	Health(ctx context.Context) (*model.HealthStatus, error)

	Close() error
}

// HTTPPredictor implements Predictor over a WebClient.
type HTTPPredictor struct {
	predictURL string
	healthURL  string
	wc         webclient.WebClient
	logger     logging.Logger
}

// New builds an HTTPPredictor. wc is owned by the predictor and closed by Close.
func New(cfg Config, wc webclient.WebClient, logger logging.Logger) (*HTTPPredictor, error) {
	if wc == nil {
		return nil, errors.New("predictor: nil webclient")
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.PredictPath == "" {
		cfg.PredictPath = def.PredictPath
	}
	if cfg.HealthPath == "" {
		cfg.HealthPath = def.HealthPath
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("predictor: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("predictor: base url %q must be http or https", cfg.BaseURL)
	}

	componentLogger := logger.With(logging.Field{Key: "component", Value: "predictor"})
	componentLogger.Info("created predictor", logging.Field{Key: "base_url", Value: base.String()})

	return &HTTPPredictor{
		predictURL: base.JoinPath(cfg.PredictPath).String(),
		healthURL:  base.JoinPath(cfg.HealthPath).String(),
		wc:         wc,
		logger:     componentLogger,
	}, nil
}

// Predict POSTs {"url": url} to the prediction endpoint and decodes the result.
func (p *HTTPPredictor) Predict(ctx context.Context, target string) (*model.PredictionResult, error) {
	body, err := json.Marshal(model.ScanRequest{URL: target})
	if err != nil {
		return nil, &RequestError{Kind: KindDecode, Err: fmt.Errorf("encode request: %w", err)}
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("Accept", "application/json")

	start := time.Now()
	resp, err := p.wc.Do(ctx, &webclient.Request{
		Method:  http.MethodPost,
		URL:     p.predictURL,
		Headers: headers,
		Body:    body,
	})
	if err != nil {
		return nil, &RequestError{Kind: transportKind(ctx, err), Err: err}
	}

	if !resp.OK() {
		p.logger.Warn("prediction endpoint returned error status",
			logging.Field{Key: "status", Value: resp.StatusCode},
			logging.Field{Key: "body", Value: truncate(resp.Body)})
		return nil, &RequestError{Kind: KindStatus, StatusCode: resp.StatusCode, Body: truncate(resp.Body)}
	}

	var result model.PredictionResult
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, &RequestError{Kind: KindDecode, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	if err := result.Validate(); err != nil {
		return nil, &RequestError{Kind: KindDecode, StatusCode: resp.StatusCode, Err: fmt.Errorf("validate response: %w", err)}
	}

	p.logger.Debug("prediction received",
		logging.Field{Key: "prediction", Value: result.Prediction},
		logging.Field{Key: "duration_ms", Value: time.Since(start).Milliseconds()})
	return &result, nil
}

func transportKind(ctx context.Context, err error) ErrorKind {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &ne) && ne.Timeout()) {
		return KindTimeout
	}
	return KindTransport
}

// Health calls the backend health check.
func (p *HTTPPredictor) Health(ctx context.Context) (*model.HealthStatus, error) {
	resp, err := p.wc.Get(ctx, p.healthURL)
	if err != nil {
		return nil, &RequestError{Kind: KindTransport, Err: err}
	}
	if !resp.OK() {
		return nil, &RequestError{Kind: KindStatus, StatusCode: resp.StatusCode, Body: truncate(resp.Body)}
	}
	var hs model.HealthStatus
	if err := json.Unmarshal(resp.Body, &hs); err != nil {
		return nil, &RequestError{Kind: KindDecode, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode health: %w", err)}
	}
	return &hs, nil
}

// Close releases the underlying WebClient.
func (p *HTTPPredictor) Close() error {
	return p.wc.Close()
}

package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	servicePath     = "/exa.language_server_pb.LanguageServerService/"
	tracerName      = "github.com/Paranoid-AF/ghostline/service"
	defaultTimeout  = 30 * time.Second
	maxErrorBodyLen = 512
)

// ErrCanceled is returned when a call is aborted through its context.
var ErrCanceled = errors.New("request canceled")

// IsCanceled reports whether err means the caller aborted the request.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled) || errors.Is(err, context.Canceled)
}

// APIError is a non-200 reply from the service.
type APIError struct {
	Method     string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: API error (status %d): %s", e.Method, e.StatusCode, e.Body)
}

// HTTPClient talks to the service with JSON over HTTP POST.
type HTTPClient struct {
	baseURL    string
	client     *http.Client
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
}

// HTTPClientOption configures an HTTPClient.
type HTTPClientOption func(*HTTPClient)

// WithTimeout sets the transport timeout. Zero disables it.
func WithTimeout(d time.Duration) HTTPClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) HTTPClientOption {
	return func(c *HTTPClient) {
		c.client = hc
	}
}

// WithTracerProvider traces calls with tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) HTTPClientOption {
	return func(c *HTTPClient) {
		c.tracer = tp.Tracer(tracerName)
	}
}

// NewHTTPClient creates a client for the service at baseURL.
func NewHTTPClient(baseURL string, opts ...HTTPClientOption) *HTTPClient {
	c := &HTTPClient{
		baseURL:    baseURL,
		client:     &http.Client{Timeout: defaultTimeout},
		tracer:     otel.Tracer(tracerName),
		propagator: otel.GetTextMapPropagator(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetCompletions implements Client.
func (c *HTTPClient) GetCompletions(ctx context.Context, req *GetCompletionsRequest) (*GetCompletionsResponse, error) {
	ctx, span := c.tracer.Start(ctx, "GetCompletions", trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("ghostline.editor_language", req.Document.EditorLanguage),
			attribute.Int("ghostline.other_documents", len(req.OtherDocuments)),
		))
	defer span.End()

	var resp GetCompletionsResponse
	if err := c.call(ctx, "GetCompletions", &req.Metadata, req, &resp); err != nil {
		recordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("ghostline.completion_items", len(resp.CompletionItems)))
	return &resp, nil
}

// AcceptCompletion implements Client.
func (c *HTTPClient) AcceptCompletion(ctx context.Context, req *AcceptCompletionRequest) error {
	ctx, span := c.tracer.Start(ctx, "AcceptCompletion", trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("ghostline.completion_id", req.CompletionID)))
	defer span.End()

	if err := c.call(ctx, "AcceptCompletion", &req.Metadata, req, nil); err != nil {
		recordError(span, err)
		return err
	}
	return nil
}

func (c *HTTPClient) call(ctx context.Context, method string, md *Metadata, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", method, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+servicePath+method, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	setHeaders(httpReq, md)
	c.propagator.Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w: %w", method, ErrCanceled, ctx.Err())
		}
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w: %w", method, ErrCanceled, ctx.Err())
		}
		return fmt.Errorf("%s: read response: %w", method, err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := string(respBody)
		if len(msg) > maxErrorBodyLen {
			i := maxErrorBodyLen
			for i > 0 && !utf8.RuneStart(msg[i]) {
				i--
			}
			msg = msg[:i] + "..."
		}
		return &APIError{Method: method, StatusCode: resp.StatusCode, Body: msg}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%s: failed to parse response: %w", method, err)
	}
	return nil
}

// setHeaders sets the content type and the auth header derived from the API
// key and session id.
func setHeaders(req *http.Request, md *Metadata) {
	req.Header.Set("Content-Type", "application/json")
	if md != nil && md.APIKey != "" {
		req.Header.Set("Authorization", "Basic "+md.APIKey+"-"+md.SessionID)
	}
}

func recordError(span trace.Span, err error) {
	if IsCanceled(err) {
		span.SetAttributes(attribute.Bool("ghostline.canceled", true))
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

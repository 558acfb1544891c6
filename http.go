package mologs

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// HTTPOption configures an HTTPSink.
type HTTPOption func(*httpConfig)

type httpConfig struct {
	method    string
	headers   map[string]string
	userAgent string
	timeout   time.Duration
}

// WithMethod sets the HTTP method for requests (default: POST).
func WithMethod(method string) HTTPOption {
	return func(config *httpConfig) {
		if method != "" {
			config.method = method
		}
	}
}

// WithHeaders sets custom HTTP headers for requests.
// Common use cases:
//   - Authorization: "Bearer token123"
//   - X-API-Key: "key123"
//
// Content-Type is always application/json.
func WithHeaders(headers map[string]string) HTTPOption {
	return func(config *httpConfig) {
		if config.headers == nil {
			config.headers = make(map[string]string)
		}
		for k, v := range headers {
			config.headers[k] = v
		}
	}
}

// WithRequestTimeout sets the HTTP request timeout (default: 30 seconds).
func WithRequestTimeout(timeout time.Duration) HTTPOption {
	return func(config *httpConfig) {
		if timeout > 0 {
			config.timeout = timeout
		}
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(userAgent string) HTTPOption {
	return func(config *httpConfig) {
		if userAgent != "" {
			config.userAgent = userAgent
		}
	}
}

// HTTPSink ships each record as a JSON document to a collector endpoint.
//
// The payload is the annotated record itself, with the rewritten format
// string under "format":
//
//	{"format":"hello {{params.name}}","severity":"INFO","template":"hello {{name}}","params":{"name":"x"},"timestamp":"..."}
//
// A non-2xx response is reported as a write error, so the sink composes
// with retry and fallback adapters:
//
//	collector := mologs.NewPipeSink("collector",
//	    mologs.NewHTTPSink("https://logs.example.com/ingest",
//	        mologs.WithHeaders(map[string]string{"Authorization": "Bearer " + token}),
//	    )).
//	    WithRetry(3).
//	    WithFallback(mologs.NewPipeSink("local", fileSink))
type HTTPSink struct {
	client *http.Client
	url    string
	config httpConfig
}

// NewHTTPSink creates a sink posting records to url.
func NewHTTPSink(url string, options ...HTTPOption) *HTTPSink {
	config := httpConfig{
		method:    "POST",
		headers:   map[string]string{},
		timeout:   30 * time.Second,
		userAgent: "mologs/1.0",
	}
	for _, option := range options {
		option(&config)
	}
	return &HTTPSink{
		client: &http.Client{Timeout: config.timeout},
		url:    url,
		config: config,
	}
}

func (s *HTTPSink) Write(format string, record Params) error {
	if s.url == "" {
		return errors.New("http sink requires a URL")
	}

	entry := make(Params, len(record)+1)
	for k, v := range record {
		entry[k] = v
	}
	entry["format"] = format

	body, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "can not serialize log record")
	}

	req, err := http.NewRequest(s.config.method, s.url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "can not build log request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", s.config.userAgent)
	for key, value := range s.config.headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "can not reach log collector")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// keep a slice of the body for the error, collectors tend to
		// explain rejections there
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return errors.Errorf("log collector responded %d: %s", resp.StatusCode, detail)
	}
	return nil
}

// Stop releases idle connections. In-flight requests are not interrupted.
func (s *HTTPSink) Stop() {
	s.client.CloseIdleConnections()
}

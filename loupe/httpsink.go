package loupe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
)

// HTTPSinkOptions configures an HTTPSink
type HTTPSinkOptions struct {
	// Endpoint is the server base URL, e.g. https://loupe.example.com
	Endpoint string
	APIKey   string
	Client   *http.Client
}

// HTTPSink posts zstd-compressed JSON batches to a collector endpoint.
type HTTPSink struct {
	url     string
	apiKey  string
	client  *http.Client
	encoder *zstd.Encoder
}

// IngestPath is appended to the endpoint for batch uploads
const IngestPath = "/api/ingest/batch"

// NewHTTPSink creates an HTTP sink
func NewHTTPSink(opts HTTPSinkOptions) (*HTTPSink, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("loupe: http sink endpoint is empty")
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("loupe: create zstd encoder: %w", err)
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPSink{
		url:     strings.TrimRight(opts.Endpoint, "/") + IngestPath,
		apiKey:  opts.APIKey,
		client:  client,
		encoder: enc,
	}, nil
}

// WireSource is the JSON form of a message source
type WireSource struct {
	Class  string `json:"class,omitempty"`
	Method string `json:"method,omitempty"`
	File   string `json:"file,omitempty"`
	Line   int    `json:"line,omitempty"`
}

// WireMessage is the JSON form of a message in an uploaded batch
type WireMessage struct {
	Timestamp   int64           `json:"timestamp"`
	Severity    string          `json:"severity"`
	LogSystem   string          `json:"logSystem,omitempty"`
	Category    string          `json:"category,omitempty"`
	Caption     string          `json:"caption,omitempty"`
	Description string          `json:"description"`
	Details     json.RawMessage `json:"details,omitempty"`
	Exception   string          `json:"exception,omitempty"`
	User        string          `json:"user,omitempty"`
	Source      *WireSource     `json:"source,omitempty"`
	Session     string          `json:"session"`
	Application string          `json:"application,omitempty"`
}

func toWire(session SessionInfo, msg *Message) WireMessage {
	w := WireMessage{
		Timestamp:   msg.Timestamp.UnixNano(),
		Severity:    msg.Severity.String(),
		LogSystem:   msg.LogSystem,
		Category:    msg.Category,
		Caption:     msg.Caption,
		Description: msg.Description,
		User:        msg.User,
		Session:     session.ID,
		Application: session.Application,
	}
	if msg.Details != "" {
		if json.Valid([]byte(msg.Details)) {
			w.Details = json.RawMessage(msg.Details)
		} else {
			quoted, _ := json.Marshal(msg.Details)
			w.Details = quoted
		}
	}
	if msg.Exception != nil {
		w.Exception = msg.Exception.Error()
	}
	if src := msg.Source; src != nil {
		ws := WireSource{
			Class:  src.ClassName(),
			Method: src.MethodName(),
			File:   src.FileName(),
			Line:   src.LineNumber(),
		}
		if ws != (WireSource{}) {
			w.Source = &ws
		}
	}
	return w
}

// Send uploads the batch as one request
func (s *HTTPSink) Send(ctx context.Context, session SessionInfo, batch []Message) error {
	if len(batch) == 0 {
		return nil
	}
	rows := make([]WireMessage, len(batch))
	for i := range batch {
		rows[i] = toWire(session, &batch[i])
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("loupe: encode batch: %w", err)
	}
	body := s.encoder.EncodeAll(data, nil)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("loupe: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "zstd")
	req.Header.Set("X-Session-ID", session.ID)
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("loupe: post batch: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("loupe: post batch: HTTP %d", resp.StatusCode)
	}
	return nil
}

// Close releases the encoder
func (s *HTTPSink) Close() error {
	return s.encoder.Close()
}

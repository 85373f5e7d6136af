// Package chatsvc is the HTTP client of the remote admissions assistant.
package chatsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"

	"github.com/trezcool/admissions/core"
	"github.com/trezcool/admissions/core/chat"
)

var chatEndpoint = "/chat"

// HTTPClient posts chat requests to `<base URL>/chat`, retrying connection errors & 5xx responses.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *retryablehttp.Client
}

var _ chat.Client = (*HTTPClient)(nil)

func NewHTTPClient(conf core.ChatConfig, logger core.Logger) *HTTPClient {
	rc := retryablehttp.NewClient()
	rc.RetryMax = conf.RetryMax
	rc.HTTPClient.Timeout = conf.Timeout
	rc.Logger = leveledLogger{logger}
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &HTTPClient{
		baseURL: strings.TrimRight(conf.BaseURL, "/"),
		apiKey:  conf.ApiKey,
		http:    rc,
	}
}

type response struct {
	SessionID string   `json:"session_id"`
	Reply     string   `json:"reply"`
	Sources   []string `json:"sources"`
}

func (c *HTTPClient) Send(ctx context.Context, req chat.Request) (chat.Reply, error) {
	if req.History == nil {
		req.History = []chat.Message{}
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return chat.Reply{}, errors.Wrap(err, "encoding chat request")
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatEndpoint, bytes.NewReader(payload))
	if err != nil {
		return chat.Reply{}, errors.Wrap(err, "creating chat request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	res, err := c.http.Do(httpReq)
	if err != nil {
		return chat.Reply{}, errors.Wrap(err, "sending chat request")
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return chat.Reply{}, errors.Wrap(err, "reading chat response")
	}
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return chat.Reply{}, fmt.Errorf("chat service responded %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	var data response
	if err := json.Unmarshal(body, &data); err != nil {
		return chat.Reply{}, errors.Wrap(err, "decoding chat response")
	}
	if strings.TrimSpace(data.Reply) == "" {
		return chat.Reply{}, errors.New("chat service sent an empty reply")
	}
	return chat.Reply{SessionID: data.SessionID, Message: data.Reply, Sources: data.Sources}, nil
}

// leveledLogger adapts core.Logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logger core.Logger
}

func (l leveledLogger) Error(msg string, kvs ...interface{}) { l.logger.Error(msg, kvMap(kvs)) }
func (l leveledLogger) Info(msg string, kvs ...interface{})  { l.logger.Debug(msg, kvMap(kvs)) }
func (l leveledLogger) Debug(msg string, kvs ...interface{}) { l.logger.Debug(msg, kvMap(kvs)) }
func (l leveledLogger) Warn(msg string, kvs ...interface{})  { l.logger.Warn(msg, kvMap(kvs)) }

func kvMap(kvs []interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i+1 < len(kvs); i += 2 {
		m[fmt.Sprint(kvs[i])] = kvs[i+1]
	}
	return m
}

package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/sync/semaphore"

	"github.com/devicelab-dev/calabash-bridge/pkg/decode"
	"github.com/devicelab-dev/calabash-bridge/pkg/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client communicates with the Calabash server over HTTP.
type Client struct {
	http    *http.Client
	baseURL string
	session *semaphore.Weighted
	closed  atomic.Bool
}

// NewClient creates a client for the server at endpoint.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		http: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(endpoint, "/"),
		session: semaphore.NewWeighted(1),
	}
}

// Invoke sends op with args and decodes the reply. Concurrent callers queue
// behind the one in flight; a cancelled ctx abandons the queue.
func (c *Client) Invoke(ctx context.Context, op string, args Args) (*Reply, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	body, err := encodeArgs(op, args)
	if err != nil {
		return nil, err
	}

	if err := c.session.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire session: %w", err)
	}
	defer c.session.Release(1)

	if c.closed.Load() {
		return nil, ErrClosed
	}

	status, data, err := c.request(ctx, op, body)
	if err != nil {
		return nil, err
	}
	return parseReply(op, status, data)
}

// Close ends the session. Further invocations fail with ErrClosed.
func (c *Client) Close() error {
	c.closed.Store(true)
	c.http.CloseIdleConnections()
	return nil
}

// request makes an HTTP request to the server.
func (c *Client) request(ctx context.Context, op string, body []byte) (int, []byte, error) {
	start := time.Now()
	requestID := uuid.NewString()

	bodyStr := string(body)
	if len(bodyStr) > 100 {
		bodyStr = bodyStr[:100] + "..."
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+op, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		logger.Debug("POST /%s [%v] id=%s ERROR: %v", op, elapsed, requestID, err)
		return 0, nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}

	status := "OK"
	if resp.StatusCode >= 400 {
		status = fmt.Sprintf("ERR:%d", resp.StatusCode)
	}
	logger.Debug("POST /%s [%v] id=%s %s body=%s", op, elapsed, requestID, status, bodyStr)

	return resp.StatusCode, respBody, nil
}

// encodeArgs serializes each argument on its own so a bad value is reported
// by name before any I/O happens.
func encodeArgs(op string, args Args) ([]byte, error) {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	encoded := make(map[string]jsoniter.RawMessage, len(args))
	for _, k := range keys {
		data, err := json.Marshal(args[k])
		if err != nil {
			return nil, &MarshalError{Op: op, Arg: k, Err: err}
		}
		encoded[k] = data
	}

	body, err := json.Marshal(encoded)
	if err != nil {
		return nil, &MarshalError{Op: op, Err: err}
	}
	return body, nil
}

// parseReply unpacks the {"outcome","results","reason","details","embeds"} envelope.
func parseReply(op string, status int, data []byte) (*Reply, error) {
	outcome, _ := decode.Field(data, "outcome").Str()
	if status >= 400 || outcome == "FAILURE" {
		reason, _ := decode.Field(data, "reason").Str()
		details, _ := decode.Field(data, "details").Str()
		if reason == "" && !json.Valid(data) {
			reason = strings.TrimSpace(string(data))
		}
		return nil, &RemoteError{Op: op, Status: status, Reason: reason, Details: details}
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("parse %s response: invalid JSON (body: %s)", op, string(data))
	}

	reply := &Reply{Value: decode.Field(data, "results")}
	for _, item := range listItems(decode.Field(data, "embeds")) {
		d, ok := item.Descriptor()
		if !ok {
			continue
		}
		path, _ := d.String("path")
		typ, _ := d.String("type")
		name, _ := d.String("name")
		reply.Embeds = append(reply.Embeds, Embed{Path: path, Type: typ, Name: name})
	}
	return reply, nil
}

func listItems(v decode.Value) []decode.Value {
	items, _ := v.List()
	return items
}

package jobclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joseph-ayodele/bookmap/internal/common"
)

// errorBody is the JSON shape of every backend failure.
type errorBody struct {
	Error string `json:"error"`
}

// call describes one request against the job service.
type call struct {
	op          string // log name, e.g. "upload"
	method      string
	path        string
	body        io.Reader
	contentType string
	// fallback is the user-facing message when the backend gives no error field.
	fallback string
	// useBodyError surfaces the backend's {"error"} field on non-2xx.
	useBodyError bool
}

// send executes c and returns the raw body of a 2xx response. Any other outcome is a
// *common.RemoteError whose Message is what the user should see.
func (cl *Client) send(ctx context.Context, c call) ([]byte, error) {
	traceID := common.RequestIDFromContext(ctx)
	reqID := uuid.New().String()
	ctx = common.WithRequestID(ctx, reqID)
	start := time.Now()
	url := cl.baseURL + c.path

	req, err := http.NewRequestWithContext(ctx, c.method, url, c.body)
	if err != nil {
		cl.logger.Error("jobclient.build_request_error", "op", c.op, "req_id", reqID, "error", err)
		return nil, &common.RemoteError{Op: c.op, Message: c.fallback, Cause: fmt.Errorf("build request: %w", err)}
	}
	if c.contentType != "" {
		req.Header.Set("Content-Type", c.contentType)
	}
	req.Header.Set("X-Request-ID", reqID)

	cl.logger.Debug("jobclient.request",
		"op", c.op,
		"req_id", reqID,
		"method", c.method,
		"url", url,
		"session_id", common.SessionIDFromContext(ctx),
		"trace_id", traceID,
	)

	resp, err := cl.http.Do(req)
	if err != nil {
		cl.logger.Error("jobclient.send_error",
			"op", c.op,
			"req_id", reqID,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, &common.RemoteError{Op: c.op, Message: transportMessage(err), Cause: err}
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			cl.logger.Warn("jobclient.response_body_close_error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		cl.logger.Error("jobclient.read_error", "op", c.op, "req_id", reqID, "error", err)
		return nil, &common.RemoteError{Op: c.op, StatusCode: resp.StatusCode, Message: transportMessage(err), Cause: err}
	}

	cl.logger.Debug("jobclient.response",
		"op", c.op,
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		msg := c.fallback
		if c.useBodyError {
			var eb errorBody
			if json.Unmarshal(raw, &eb) == nil && strings.TrimSpace(eb.Error) != "" {
				msg = eb.Error
			}
		}
		cl.logger.Warn("jobclient.non_2xx",
			"op", c.op,
			"req_id", reqID,
			"status", resp.StatusCode,
			"message", msg,
		)
		return nil, &common.RemoteError{
			Op:         c.op,
			StatusCode: resp.StatusCode,
			Message:    msg,
			Cause:      fmt.Errorf("non-2xx status: %d", resp.StatusCode),
		}
	}
	return raw, nil
}

// transportMessage keeps the innermost cause, which is the part a user can act on.
func transportMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "); i >= 0 && i+2 < len(msg) {
		return msg[i+2:]
	}
	return msg
}

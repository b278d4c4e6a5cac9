// Package jobclient talks to the document-indexing job service over HTTP.
package jobclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/bookmap/constants"
	"github.com/joseph-ayodele/bookmap/internal/common"
	"github.com/joseph-ayodele/bookmap/internal/entity"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Config for the job-service client.
type Config struct {
	BaseURL    string        // e.g. http://localhost:5000
	Timeout    time.Duration // http client timeout
	HTTPClient *http.Client  // optional, overrides Timeout
}

type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
	schemas schemas
}

func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		return nil, common.NewAppError("CONFIG_ERROR", "base URL is required", common.ErrInvalidInput)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	s, err := compileSchemas()
	if err != nil {
		return nil, fmt.Errorf("compile response schemas: %w", err)
	}
	return &Client{baseURL: base, http: hc, logger: logger, schemas: s}, nil
}

// Upload posts file as multipart field "file" and returns the new session.
func (c *Client) Upload(ctx context.Context, file *entity.UploadedFile) (entity.Session, error) {
	body, contentType, err := multipartBody(file)
	if err != nil {
		return entity.Session{}, &common.RemoteError{Op: "upload", Message: "Upload failed", Cause: err}
	}
	raw, err := c.send(ctx, call{
		op:           "upload",
		method:       http.MethodPost,
		path:         "/upload",
		body:         body,
		contentType:  contentType,
		fallback:     "Upload failed",
		useBodyError: true,
	})
	if err != nil {
		return entity.Session{}, err
	}
	var out entity.Session
	if err := c.decode("upload", c.schemas.upload, raw, &out); err != nil {
		return entity.Session{}, err
	}
	if verr := common.UUID("session_id", out.ID); verr != nil {
		c.logger.Warn("jobclient.upload.session_id_not_uuid", "session_id", out.ID)
	}
	c.logger.Info("jobclient.upload.ok", "session_id", out.ID, "file", file.Name, "size", file.Size)
	return out, nil
}

// Status fetches the job status for sessionID.
func (c *Client) Status(ctx context.Context, sessionID string) (entity.JobStatus, error) {
	if err := validateSession(sessionID); err != nil {
		return entity.JobStatus{}, err
	}
	raw, err := c.send(common.WithSessionID(ctx, sessionID), call{
		op:           "status",
		method:       http.MethodGet,
		path:         "/status/" + url.PathEscape(sessionID),
		fallback:     "Status check failed",
		useBodyError: true,
	})
	if err != nil {
		return entity.JobStatus{}, err
	}
	var out entity.JobStatus
	if err := c.decode("status", c.schemas.status, raw, &out); err != nil {
		return entity.JobStatus{}, err
	}
	return out, nil
}

// Index fetches the completed index for sessionID.
func (c *Client) Index(ctx context.Context, sessionID string) (entity.IndexResult, error) {
	if err := validateSession(sessionID); err != nil {
		return entity.IndexResult{}, err
	}
	raw, err := c.send(common.WithSessionID(ctx, sessionID), call{
		op:           "index",
		method:       http.MethodGet,
		path:         "/index/" + url.PathEscape(sessionID),
		fallback:     "Failed to load results",
		useBodyError: true,
	})
	if err != nil {
		return entity.IndexResult{}, err
	}
	var out entity.IndexResult
	if err := c.decode("index", c.schemas.index, raw, &out); err != nil {
		return entity.IndexResult{}, err
	}
	c.logger.Info("jobclient.index.ok", "session_id", sessionID, "entries", len(out.Index), "num_pages", out.NumPages)
	return out, nil
}

// PageImage fetches the rendered image of page (1-based) within sessionID.
func (c *Client) PageImage(ctx context.Context, sessionID string, page int) ([]byte, error) {
	v := common.NewValidator().
		Field("session_id", sessionID, common.Required).
		Field("page", page, common.Positive)
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}
	return c.send(common.WithSessionID(ctx, sessionID), call{
		op:       "page_image",
		method:   http.MethodGet,
		path:     "/get-page-image/" + url.PathEscape(sessionID) + "/" + strconv.Itoa(page),
		fallback: "Failed to load page image",
	})
}

// Download fetches a backend-built export of the index.
func (c *Client) Download(ctx context.Context, sessionID string, format constants.ExportFormat) ([]byte, error) {
	if err := validateSession(sessionID); err != nil {
		return nil, err
	}
	if !format.IsServerSide() {
		return nil, common.InvalidArgumentErrorf("format %q is not served by the backend", format)
	}
	return c.send(common.WithSessionID(ctx, sessionID), call{
		op:       "download",
		method:   http.MethodGet,
		path:     "/download/" + url.PathEscape(sessionID) + "/" + string(format),
		fallback: "Download failed",
	})
}

func validateSession(sessionID string) error {
	return common.ValidateAndReturnError(common.NewValidator().Field("session_id", sessionID, common.Required))
}

// Health calls the backend health endpoint.
func (c *Client) Health(ctx context.Context) (entity.Health, error) {
	raw, err := c.send(ctx, call{
		op:           "health",
		method:       http.MethodGet,
		path:         "/health",
		fallback:     "Health check failed",
		useBodyError: true,
	})
	if err != nil {
		return entity.Health{}, err
	}
	var out entity.Health
	if err := c.decode("health", c.schemas.health, raw, &out); err != nil {
		return entity.Health{}, err
	}
	return out, nil
}

// decode validates raw against schema and unmarshals it into out.
func (c *Client) decode(op string, schema *jsonschema.Schema, raw []byte, out any) error {
	if err := validateJSON(schema, raw); err != nil {
		c.logger.Error("jobclient.schema_validation_failed", "op", op, "error", err, "raw_bytes", len(raw))
		return &common.RemoteError{
			Op:         op,
			StatusCode: http.StatusOK,
			Message:    "invalid response from server",
			Cause:      err,
		}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.logger.Error("jobclient.unmarshal_failed", "op", op, "error", err)
		return &common.RemoteError{
			Op:         op,
			StatusCode: http.StatusOK,
			Message:    "invalid response from server",
			Cause:      err,
		}
	}
	return nil
}

func multipartBody(file *entity.UploadedFile) (*bytes.Buffer, string, error) {
	if file == nil {
		return nil, "", fmt.Errorf("no file")
	}
	buf := new(bytes.Buffer)
	w := multipart.NewWriter(buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		constants.UploadFormField, escapeQuotes(file.Name)))
	mimeType := file.MIMEType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	h.Set("Content-Type", mimeType)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create form part: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", fmt.Errorf("write form part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

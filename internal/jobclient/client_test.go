package jobclient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/joseph-ayodele/bookmap/constants"
	"github.com/joseph-ayodele/bookmap/internal/common"
	"github.com/joseph-ayodele/bookmap/internal/entity"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const testSession = "6f1c0d2e-3a4b-4c5d-8e9f-0a1b2c3d4e5f"

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{BaseURL: srv.URL + "/"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func remote(t *testing.T, err error) *common.RemoteError {
	t.Helper()
	var re *common.RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("expected *common.RemoteError, got %T: %v", err, err)
	}
	return re
}

func TestUploadSendsMultipartFile(t *testing.T) {
	var gotName, gotType string
	var gotBody []byte
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/upload" {
			http.Error(w, "unexpected", http.StatusTeapot)
			return
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		gotName = hdr.Filename
		gotType = hdr.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(f)
		_, _ = io.WriteString(w, `{"session_id":"`+testSession+`","message":"File uploaded successfully. Processing started."}`)
	}))

	file := &entity.UploadedFile{Name: "report.pdf", Size: 8, MIMEType: constants.PDFMimeType, Data: []byte("%PDF-1.7")}
	sess, err := c.Upload(context.Background(), file)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if sess.ID != testSession {
		t.Errorf("session = %q", sess.ID)
	}
	if gotName != "report.pdf" || gotType != constants.PDFMimeType || string(gotBody) != "%PDF-1.7" {
		t.Errorf("server saw name=%q type=%q body=%q", gotName, gotType, gotBody)
	}
}

func TestUploadSurfacesBackendError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		_, _ = io.WriteString(w, `{"error":"File too large. Maximum size is 50MB."}`)
	}))
	_, err := c.Upload(context.Background(), &entity.UploadedFile{Name: "a.pdf", MIMEType: constants.PDFMimeType})
	re := remote(t, err)
	if re.Message != "File too large. Maximum size is 50MB." {
		t.Errorf("message = %q", re.Message)
	}
	if re.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d", re.StatusCode)
	}
	if common.ClassOf(err) != common.ClassOperational {
		t.Errorf("class = %v", common.ClassOf(err))
	}
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("grpc code = %v", status.Code(err))
	}
}

func TestUploadGenericMessageWithoutErrorField(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `<html>oops</html>`)
	}))
	_, err := c.Upload(context.Background(), &entity.UploadedFile{Name: "a.pdf"})
	if re := remote(t, err); re.Message != "Upload failed" {
		t.Errorf("message = %q", re.Message)
	}
}

func TestStatus(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/status/"+testSession {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":"Session not found"}`)
			return
		}
		_, _ = io.WriteString(w, `{"status":"processing","progress":40,"message":"Running OCR..."}`)
	}))

	got, err := c.Status(context.Background(), testSession)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	want := entity.JobStatus{Status: constants.JobStatusProcessing, Progress: 40, Message: "Running OCR..."}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("status mismatch (-want +got):\n%s", diff)
	}

	_, err = c.Status(context.Background(), "missing")
	re := remote(t, err)
	if re.Message != "Session not found" || status.Code(err) != codes.NotFound {
		t.Errorf("got message=%q code=%v", re.Message, status.Code(err))
	}
}

func TestStatusAcceptsFractionalProgress(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"processing","progress":46.666666666666664,"message":"Extracting TOC"}`)
	}))
	got, err := c.Status(context.Background(), testSession)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if got.Percent() != 47 {
		t.Errorf("Percent() = %d, want 47", got.Percent())
	}
}

func TestStatusRejectsUnknownStatus(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"queued","progress":0}`)
	}))
	_, err := c.Status(context.Background(), testSession)
	if re := remote(t, err); re.Message != "invalid response from server" {
		t.Errorf("message = %q", re.Message)
	}
}

func TestIndex(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"index":[{"page":1,"title":"Introduction"},{"page":4,"title":"Overview"}],"num_pages":10,"raw_results":[],"created_at":"2025-01-01T00:00:00"}`)
	}))
	got, err := c.Index(context.Background(), testSession)
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	want := entity.IndexResult{
		Index:    []entity.IndexEntry{{Page: 1, Title: "Introduction"}, {Page: 4, Title: "Overview"}},
		NumPages: 10,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("index mismatch (-want +got):\n%s", diff)
	}
}

func TestIndexRejectsNonPositivePage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"index":[{"page":0,"title":"Cover"}],"num_pages":1}`)
	}))
	if _, err := c.Index(context.Background(), testSession); err == nil {
		t.Fatal("expected schema error for page 0")
	}
}

func TestPageImageAndDownload(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/get-page-image/" + testSession + "/3":
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte{0xFF, 0xD8, 0xFF})
		case "/download/" + testSession + "/csv":
			_, _ = io.WriteString(w, "Page,Title\r\n1,Introduction\r\n")
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":"Resource not found"}`)
		}
	}))

	img, err := c.PageImage(context.Background(), testSession, 3)
	if err != nil || len(img) != 3 {
		t.Fatalf("PageImage = %v, %v", img, err)
	}
	_, err = c.PageImage(context.Background(), testSession, 99)
	if re := remote(t, err); re.Message != "Failed to load page image" {
		t.Errorf("page image message = %q", re.Message)
	}

	csv, err := c.Download(context.Background(), testSession, constants.ExportCSV)
	if err != nil || string(csv) != "Page,Title\r\n1,Introduction\r\n" {
		t.Fatalf("Download = %q, %v", csv, err)
	}
	_, err = c.Download(context.Background(), testSession, constants.ExportJSON)
	if re := remote(t, err); re.Message != "Download failed" {
		t.Errorf("download message = %q", re.Message)
	}
}

func TestDownloadRejectsLocalFormat(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())
	_, err := c.Download(context.Background(), testSession, constants.ExportXLSX)
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("code = %v", status.Code(err))
	}
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := NewClient(Config{BaseURL: base}, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.Status(context.Background(), testSession)
	remote(t, err)
	if status.Code(err) != codes.Unavailable {
		t.Errorf("code = %v", status.Code(err))
	}
}

func TestHealth(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"healthy","message":"BookMap Web Application is running"}`)
	}))
	h, err := c.Health(context.Background())
	if err != nil || h.Status != "healthy" {
		t.Fatalf("Health = %+v, %v", h, err)
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(Config{}, nil); !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("err = %v", err)
	}
}

func TestCallsRequireSession(t *testing.T) {
	var hits int
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.NotFound(w, r)
	}))
	ctx := context.Background()

	_, err := c.Status(ctx, "  ")
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("Status: code = %v", status.Code(err))
	}
	if _, err := c.Index(ctx, ""); common.ClassOf(err) != common.ClassValidation {
		t.Errorf("Index: class = %v", common.ClassOf(err))
	}
	if _, err := c.PageImage(ctx, testSession, 0); status.Code(err) != codes.InvalidArgument {
		t.Errorf("PageImage page 0: code = %v", status.Code(err))
	}
	if _, err := c.Download(ctx, "", constants.ExportJSON); status.Code(err) != codes.InvalidArgument {
		t.Errorf("Download: code = %v", status.Code(err))
	}
	if hits != 0 {
		t.Errorf("server hit %d times", hits)
	}
}

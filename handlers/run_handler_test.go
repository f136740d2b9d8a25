package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-xray-sdk-go/strategy/ctxmissing"
	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/gofiber/fiber/v2"

	"github.com/rahulkarmakar28/code-sandbox/models"
	"github.com/rahulkarmakar28/code-sandbox/services"
)

func TestMain(m *testing.M) {
	_ = xray.Configure(xray.Config{
		ContextMissingStrategy: ctxmissing.NewDefaultLogErrorStrategy(),
	})
	os.Exit(m.Run())
}

func newRunApp(t *testing.T) (*miniredis.Miniredis, *fiber.App) {
	t.Helper()
	mr := miniredis.RunT(t)
	svc, err := services.NewRedisService("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("redis service: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })

	app := fiber.New()
	app.Post("/api/v1/run", NewRunHandler(svc).RunCode)
	return mr, app
}

func postRun(t *testing.T, app *fiber.App, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/run", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func queuedJobs(t *testing.T, mr *miniredis.Miniredis) []models.SubmissionJob {
	t.Helper()
	entries, err := mr.List(services.SubmissionQueueKey)
	if err != nil {
		if err == miniredis.ErrKeyNotFound {
			return nil
		}
		t.Fatalf("reading queue: %v", err)
	}
	jobs := make([]models.SubmissionJob, 0, len(entries))
	for _, e := range entries {
		var job models.SubmissionJob
		if err := json.Unmarshal([]byte(e), &job); err != nil {
			t.Fatalf("bad queue entry %q: %v", e, err)
		}
		jobs = append(jobs, job)
	}
	return jobs
}

func TestRunCodeQueuesExactlyOneJob(t *testing.T) {
	mr, app := newRunApp(t)

	resp := postRun(t, app, `{"code":"print(42)","language":"python","roomID":"abc123"}`)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var body models.RunResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if !body.Success || body.Message != "submission received" {
		t.Fatalf("unexpected acceptance body: %+v", body)
	}

	jobs := queuedJobs(t, mr)
	if len(jobs) != 1 {
		t.Fatalf("expected exactly 1 queued job, got %d", len(jobs))
	}
	want := models.SubmissionJob{Code: "print(42)", Language: "python", RoomID: "abc123"}
	if jobs[0] != want {
		t.Fatalf("queued %+v, want %+v", jobs[0], want)
	}
}

func TestRunCodeRejectsUnsupportedLanguage(t *testing.T) {
	mr, app := newRunApp(t)

	resp := postRun(t, app, `{"code":"puts 42","language":"ruby","roomID":"abc123"}`)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	var payload map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if payload["error"] != "Unsupported language" {
		t.Fatalf("unexpected error: %q", payload["error"])
	}
	if jobs := queuedJobs(t, mr); len(jobs) != 0 {
		t.Fatalf("rejected submission was queued: %+v", jobs)
	}
}

func TestRunCodeRejectsMalformedBody(t *testing.T) {
	mr, app := newRunApp(t)

	resp := postRun(t, app, `{"code": `)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if jobs := queuedJobs(t, mr); len(jobs) != 0 {
		t.Fatalf("malformed submission was queued: %+v", jobs)
	}
}

func TestRunCodeAllSupportedLanguages(t *testing.T) {
	mr, app := newRunApp(t)

	for _, lang := range models.SupportedLanguages {
		resp := postRun(t, app, `{"code":"x","language":"`+lang+`","roomID":"r"}`)
		if resp.StatusCode != fiber.StatusCreated {
			t.Fatalf("language %q: expected 201, got %d", lang, resp.StatusCode)
		}
	}
	if jobs := queuedJobs(t, mr); len(jobs) != len(models.SupportedLanguages) {
		t.Fatalf("expected %d queued jobs, got %d", len(models.SupportedLanguages), len(jobs))
	}
}

func TestRunCodeSurfacesEnqueueFailure(t *testing.T) {
	mr, app := newRunApp(t)
	mr.Close()

	resp := postRun(t, app, `{"code":"print(42)","language":"python","roomID":"abc123"}`)
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Fatalf("expected 500 when broker is down, got %d", resp.StatusCode)
	}

	var body models.RunResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if body.Success {
		t.Fatalf("failure response claims success")
	}
}

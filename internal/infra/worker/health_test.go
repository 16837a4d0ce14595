package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestHealthServer_Endpoints(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewWorkerMetrics(reg)
	metrics.RecordJobRun("success")

	h := NewHealthServer(":0", discardLogger(), reg)
	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	get := func(path string) (*http.Response, string) {
		t.Helper()
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		defer func() { _ = resp.Body.Close() }()
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		return resp, string(b)
	}

	resp, body := get("/health")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/health status = %d", resp.StatusCode)
	}
	var hr healthResponse
	if err := json.Unmarshal([]byte(body), &hr); err != nil || hr.Status != "ok" {
		t.Errorf("/health body = %q", body)
	}

	if resp, _ := get("/health/ready"); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("/health/ready before ready = %d, want 503", resp.StatusCode)
	}
	h.SetReady(true)
	if resp, _ := get("/health/ready"); resp.StatusCode != http.StatusOK {
		t.Errorf("/health/ready after ready = %d, want 200", resp.StatusCode)
	}

	resp, body = get("/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/metrics status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, `worker_digest_job_runs_total{status="success"} 1`) {
		t.Errorf("/metrics missing job counter:\n%s", body)
	}
}

func TestHealthServer_StartStop(t *testing.T) {
	h := NewHealthServer("127.0.0.1:0", discardLogger(), prometheus.NewRegistry())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, http.ErrServerClosed) {
			t.Errorf("Start() = %v, want http.ErrServerClosed", err)
		}
	case <-time.After(6 * time.Second):
		t.Fatal("server did not stop")
	}
}

package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordJobLifecycle(t *testing.T) {
	EffectJobsTotal.Reset()
	EffectJobDuration.Reset()
	JobsInProgress.Set(0)

	RecordJobStarted()
	RecordJobStarted()
	if got := testutil.ToFloat64(JobsInProgress); got != 2.0 {
		t.Errorf("Expected 2 jobs in progress, got %f", got)
	}

	RecordJobFinished("sepia", "frame_stream", "completed", 1.5)
	RecordJobFinished("sepia", "frame_stream", "failed", 0.2)

	if got := testutil.ToFloat64(JobsInProgress); got != 0.0 {
		t.Errorf("Expected 0 jobs in progress, got %f", got)
	}

	completed := testutil.ToFloat64(EffectJobsTotal.WithLabelValues("sepia", "completed"))
	if completed != 1.0 {
		t.Errorf("Expected completed counter to be 1.0, got %f", completed)
	}

	if count := testutil.CollectAndCount(EffectJobDuration); count != 1 {
		t.Errorf("Expected 1 duration series, got %d", count)
	}
}

func TestRecordFrames(t *testing.T) {
	FramesProcessedTotal.Reset()

	RecordFrames("blur", 120)
	RecordFrames("blur", 30)

	frames := testutil.ToFloat64(FramesProcessedTotal.WithLabelValues("blur"))
	if frames != 150.0 {
		t.Errorf("Expected 150 frames, got %f", frames)
	}
}

func TestRecordBatchItem(t *testing.T) {
	BatchItemsTotal.Reset()

	RecordBatchItem("grayscale", true)
	RecordBatchItem("grayscale", true)
	RecordBatchItem("grayscale", false)

	succeeded := testutil.ToFloat64(BatchItemsTotal.WithLabelValues("grayscale", "succeeded"))
	if succeeded != 2.0 {
		t.Errorf("Expected 2 succeeded items, got %f", succeeded)
	}

	failed := testutil.ToFloat64(BatchItemsTotal.WithLabelValues("grayscale", "failed"))
	if failed != 1.0 {
		t.Errorf("Expected 1 failed item, got %f", failed)
	}

	RecordBatch(3.2)
	RecordInputSize(5 * 1024 * 1024)
	// Histogram values require more complex verification
}

func TestRecordStorageOperation(t *testing.T) {
	StorageOperationsTotal.Reset()
	StorageBytesTransferred.Reset()

	RecordStorageOperation("upload", "success", 1048576)

	counter := testutil.ToFloat64(StorageOperationsTotal.WithLabelValues("upload", "success"))
	if counter != 1.0 {
		t.Errorf("Expected storage operation counter to be 1.0, got %f", counter)
	}

	bytes := testutil.ToFloat64(StorageBytesTransferred.WithLabelValues("upload"))
	if bytes != 1048576.0 {
		t.Errorf("Expected bytes transferred to be 1048576.0, got %f", bytes)
	}
}

func TestRecordCacheAccess(t *testing.T) {
	CacheHitsTotal.Reset()
	CacheMissesTotal.Reset()

	RecordCacheAccess("probe", true)
	RecordCacheAccess("probe", true)
	RecordCacheAccess("probe", false)

	hits := testutil.ToFloat64(CacheHitsTotal.WithLabelValues("probe"))
	if hits != 2.0 {
		t.Errorf("Expected cache hits to be 2.0, got %f", hits)
	}

	misses := testutil.ToFloat64(CacheMissesTotal.WithLabelValues("probe"))
	if misses != 1.0 {
		t.Errorf("Expected cache misses to be 1.0, got %f", misses)
	}
}

func TestRecordError(t *testing.T) {
	ErrorsTotal.Reset()

	RecordError("engine", "not_found")
	RecordError("engine", "render")
	RecordError("engine", "not_found")

	notFound := testutil.ToFloat64(ErrorsTotal.WithLabelValues("engine", "not_found"))
	if notFound != 2.0 {
		t.Errorf("Expected not_found errors to be 2.0, got %f", notFound)
	}
}

func TestServer(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}

	server := NewServer(0, nil)
	done := make(chan error, 1)
	go func() { done <- server.Serve(listener) }()

	RecordFrames("sepia", 1)

	base := "http://" + listener.Addr().String()
	resp, err := http.Get(base + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if !strings.Contains(string(body), "vfx_frames_processed_total") {
		t.Error("Expected vfx metrics in /metrics output")
	}

	resp, err = http.Get(base + "/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 from /health, got %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
	if err := <-done; err != nil {
		t.Errorf("Serve returned %v", err)
	}
}

func BenchmarkRecordFrames(b *testing.B) {
	for i := 0; i < b.N; i++ {
		RecordFrames("blur", 1)
	}
}

package monitoring

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestProgressTrackerMetrics(t *testing.T) {
	pt := NewProgressTracker(3)
	start := pt.startTime
	pt.now = func() time.Time { return start.Add(90 * time.Second) }

	pt.SetCurrentStep("insert CLIENT")
	pt.CompletedCollection("CLIENT", 4)
	pt.CompletedCollection("PRODUIT", 0)
	pt.AddWarning("DETAIL: 1 detail rows reference unknown NCOM: 9")

	metrics := pt.GetMetrics()

	if metrics.TotalDocuments != 4 {
		t.Errorf("Expected 4 documents, got %d", metrics.TotalDocuments)
	}
	if metrics.ProcessedCollections != 2 || metrics.TotalCollections != 3 {
		t.Errorf("Expected 2/3 collections, got %d/%d", metrics.ProcessedCollections, metrics.TotalCollections)
	}
	if count, ok := metrics.Counts["PRODUIT"]; !ok || count != 0 {
		t.Errorf("Expected PRODUIT recorded with 0 documents, got %v (present: %v)", count, ok)
	}
	if metrics.ElapsedTime != 90*time.Second {
		t.Errorf("Expected 90s elapsed, got %v", metrics.ElapsedTime)
	}
	if metrics.WarningCount != 1 || metrics.ErrorCount != 0 {
		t.Errorf("Unexpected warning/error counts %d/%d", metrics.WarningCount, metrics.ErrorCount)
	}
	if metrics.Collections[0] != "CLIENT" || metrics.Collections[1] != "PRODUIT" {
		t.Errorf("Expected collections in completion order, got %v", metrics.Collections)
	}
}

func TestGetRecentErrors(t *testing.T) {
	pt := NewProgressTracker(3)
	for _, e := range []string{"a", "b", "c"} {
		pt.AddError(e)
	}

	if got := pt.GetRecentErrors(2); len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Errorf("Expected last two errors, got %v", got)
	}
	if got := pt.GetRecentErrors(10); len(got) != 3 {
		t.Errorf("Expected all errors, got %v", got)
	}
}

func TestLogFinalSummary(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	pt := NewProgressTracker(3)
	pt.CompletedCollection("CLIENT", 2)
	pt.SetCurrentStep("fetch PRODUIT")
	pt.AddError("fetch PRODUIT: table missing")

	pt.LogFinalSummary(log)

	out := buf.String()
	if !strings.Contains(out, `"collection":"CLIENT"`) {
		t.Errorf("Expected CLIENT line, got %s", out)
	}
	if !strings.Contains(out, `"level":"error"`) || !strings.Contains(out, `"failed_step":"fetch PRODUIT"`) {
		t.Errorf("Expected error summary naming the failed step, got %s", out)
	}
	if !strings.Contains(out, `"collections":"1/3"`) {
		t.Errorf("Expected 1/3 collections, got %s", out)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d      time.Duration
		expect string
	}{
		{0, "0s"},
		{1500 * time.Microsecond, "2ms"},
		{45 * time.Second, "45s"},
		{2*time.Minute + 5*time.Second, "2m5s"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1h2m3s"},
	}

	for i, tc := range tests {
		if got := formatDuration(tc.d); got != tc.expect {
			t.Errorf("[Test case: %d] formatDuration(%v) expected %s, got %s", i+1, tc.d, tc.expect, got)
		}
	}
}

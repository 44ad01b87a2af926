package report

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"steadyudp/internal/config"
	"steadyudp/internal/stats"
	"steadyudp/internal/storage"
)

func sampleRecord() *storage.RunRecord {
	base := time.Unix(1700000000, 0)
	return &storage.RunRecord{
		ID:      "0190aaaa-0000-7000-8000-000000000000",
		Started: base,
		Ended:   base.Add(4 * time.Second),
		Config:  config.Config{Tier: config.TierMid, Low: 0, High: 10},
		Summary: storage.RunSummary{Sent: 160, Received: 150, Pending: 10, Windows: 3},
		Windows: []stats.WindowReport{
			{Index: 1, At: base.Add(500 * time.Millisecond), Replies: 50, Elapsed: 500 * time.Millisecond, Rate: 100},
			{Index: 2, At: base.Add(900 * time.Millisecond), Replies: 50, Elapsed: 400 * time.Millisecond, Rate: 125},
			{Index: 3, At: base.Add(2 * time.Second), Replies: 50, Elapsed: 1100 * time.Millisecond, Rate: 50 / 1.1},
		},
	}
}

func TestExport_WritesAllFiles(t *testing.T) {
	t.Parallel()

	prefix := filepath.Join(t.TempDir(), "run")
	if err := Export(prefix, sampleRecord()); err != nil {
		t.Fatalf("Export: %v", err)
	}

	f, err := os.Open(prefix + ".csv")
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows=%d", len(rows))
	}
	if rows[1][0] != "1" || rows[1][2] != "500.000" || rows[1][4] != "100.000000000" {
		t.Fatalf("row=%v", rows[1])
	}

	data, err := os.ReadFile(prefix + "_summary.json")
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	var summary map[string]interface{}
	if err := json.Unmarshal(data, &summary); err != nil {
		t.Fatalf("summary json: %v", err)
	}
	if summary["tier"] != "mid" || summary["duration_s"] != 4.0 {
		t.Fatalf("summary=%v", summary)
	}

	if _, err := os.Stat(prefix + "_timeline.json"); err != nil {
		t.Fatalf("timeline: %v", err)
	}
}

func TestTimeline_BucketsBySecond(t *testing.T) {
	t.Parallel()

	tl := Timeline(sampleRecord())
	if len(tl) != 2 {
		t.Fatalf("buckets=%d", len(tl))
	}
	if tl[0].Windows != 2 || tl[0].Replies != 100 || tl[0].MeanRate != 112.5 {
		t.Fatalf("first=%+v", tl[0])
	}
	if tl[1].Timestamp <= tl[0].Timestamp {
		t.Fatal("timeline not sorted")
	}
}

func TestExport_EmptyPrefix(t *testing.T) {
	t.Parallel()

	if err := Export("", sampleRecord()); err == nil {
		t.Fatal("expected error")
	}
}

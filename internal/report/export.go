package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"steadyudp/internal/storage"
)

// Export writes <prefix>.csv, <prefix>_summary.json and <prefix>_timeline.json.
func Export(prefix string, rec *storage.RunRecord) error {
	if prefix == "" {
		return fmt.Errorf("empty output prefix")
	}
	if err := ExportCSV(rec, prefix+".csv"); err != nil {
		return err
	}
	if err := ExportSummary(rec, prefix+"_summary.json"); err != nil {
		return err
	}
	return ExportTimeline(rec, prefix+"_timeline.json")
}

// ExportCSV writes one row per throughput window.
// Schema: window,timeStamp,elapsedMs,replies,rate
func ExportCSV(rec *storage.RunRecord, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	// Header
	if err := w.Write([]string{"window", "timeStamp", "elapsedMs", "replies", "rate"}); err != nil {
		return err
	}

	for _, win := range rec.Windows {
		record := []string{
			strconv.Itoa(win.Index),
			strconv.FormatInt(win.At.UnixMilli(), 10),
			strconv.FormatFloat(float64(win.Elapsed.Microseconds())/1000, 'f', 3, 64),
			strconv.Itoa(win.Replies),
			strconv.FormatFloat(win.Rate, 'f', 9, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// ExportSummary writes the run id, configuration and final counters.
func ExportSummary(rec *storage.RunRecord, filename string) error {
	summary := map[string]interface{}{
		"id":           rec.ID,
		"started":      rec.Started,
		"ended":        rec.Ended,
		"duration_s":   rec.Duration().Seconds(),
		"tier":         rec.Config.Tier,
		"req_num_low":  rec.Config.Low,
		"req_num_high": rec.Config.High,
		"servers":      len(rec.Config.Targets),
		"summary":      rec.Summary,
	}
	return writeJSON(filename, summary)
}

// TimeBucket aggregates the windows completed within one second.
type TimeBucket struct {
	Timestamp int64   `json:"timestamp"`
	Windows   int     `json:"windows"`
	Replies   int     `json:"replies"`
	MeanRate  float64 `json:"mean_rate"`
}

// Timeline buckets the run's windows by the second they completed in.
func Timeline(rec *storage.RunRecord) []TimeBucket {
	buckets := make(map[int64]*TimeBucket)

	for _, win := range rec.Windows {
		ts := win.At.Unix()
		if _, ok := buckets[ts]; !ok {
			buckets[ts] = &TimeBucket{Timestamp: ts}
		}
		b := buckets[ts]
		b.Windows++
		b.Replies += win.Replies
		b.MeanRate += win.Rate
	}

	timeline := make([]TimeBucket, 0, len(buckets))
	for _, b := range buckets {
		b.MeanRate /= float64(b.Windows)
		timeline = append(timeline, *b)
	}

	sort.Slice(timeline, func(i, j int) bool {
		return timeline[i].Timestamp < timeline[j].Timestamp
	})
	return timeline
}

func ExportTimeline(rec *storage.RunRecord, filename string) error {
	return writeJSON(filename, Timeline(rec))
}

func writeJSON(filename string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0o644)
}

package telemetry

import (
	"bufio"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/wardenlabs/warden/internal/model"
)

// series builds an ascending timestamp series from a list of intervals.
func series(deltas ...float64) []float64 {
	ts := make([]float64, 0, len(deltas)+1)
	var cur float64
	ts = append(ts, cur)
	for _, d := range deltas {
		cur += d
		ts = append(ts, cur)
	}
	return ts
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

type fakeReporter struct {
	users   []string
	kinds   []model.ReportKind
	details []string
}

func (f *fakeReporter) Report(_ context.Context, user string, kind model.ReportKind, details string) error {
	f.users = append(f.users, user)
	f.kinds = append(f.kinds, kind)
	f.details = append(f.details, details)
	return nil
}

func TestInsufficientData(t *testing.T) {
	a := NewAnalyzer(nil, nil, nil)

	v := a.Analyze(context.Background(), "u1", repeat(100, 9))
	if v.IsAnomaly {
		t.Error("short series must not be anomalous")
	}
	if v.Reason != model.AnomalyInsufficient {
		t.Errorf("reason = %s, want %s", v.Reason, model.AnomalyInsufficient)
	}
}

func TestTenSamplesAreAnalyzed(t *testing.T) {
	a := NewAnalyzer(nil, nil, nil)

	// 10 timestamps, 9 constant intervals: exactly at the analysis floor.
	v := a.Analyze(context.Background(), "u1", series(repeat(100, 9)...))
	if !v.IsAnomaly || v.Reason != model.AnomalyVariance {
		t.Errorf("verdict = %+v, want variance anomaly", v)
	}
}

func TestPerfectMachine(t *testing.T) {
	rep := &fakeReporter{}
	a := NewAnalyzer(rep, nil, nil)

	v := a.Analyze(context.Background(), "bot-1", series(repeat(100, 20)...))
	if !v.IsAnomaly {
		t.Fatal("constant intervals must be anomalous")
	}
	if v.Reason != model.AnomalyVariance {
		t.Errorf("reason = %s, want %s", v.Reason, model.AnomalyVariance)
	}
	if v.Stats.StdDev != 0 {
		t.Errorf("std dev = %v, want 0", v.Stats.StdDev)
	}
	if v.Stats.Mean != 100 {
		t.Errorf("mean = %v, want 100", v.Stats.Mean)
	}
	if len(rep.kinds) != 1 || rep.kinds[0] != model.ReportCheating {
		t.Errorf("expected one cheating report, got %v", rep.kinds)
	}
	if rep.users[0] != "bot-1" {
		t.Errorf("report user = %s", rep.users[0])
	}
}

func TestSpeedDemon(t *testing.T) {
	a := NewAnalyzer(nil, nil, nil)

	// Alternating 20/40ms: mean 30 < 40, stdDev 10 passes the variance gate.
	deltas := make([]float64, 0, 50)
	for i := 0; i < 25; i++ {
		deltas = append(deltas, 20, 40)
	}
	v := a.Analyze(context.Background(), "u1", series(deltas...))
	if !v.IsAnomaly {
		t.Fatal("30ms mean interval is not human")
	}
	if v.Reason != model.AnomalyRate {
		// Alternating values have kurtosis 1.0; rate must win by order.
		t.Errorf("reason = %s, want %s", v.Reason, model.AnomalyRate)
	}
	if v.Stats.Mean != 30 {
		t.Errorf("mean = %v, want 30", v.Stats.Mean)
	}
}

func TestSyntheticUniformDistribution(t *testing.T) {
	a := NewAnalyzer(nil, nil, nil)

	// 50 intervals sweeping 80..300ms evenly: a discrete uniform ramp.
	// Uniform kurtosis sits near 1.8, under the 2.0 floor.
	deltas := make([]float64, 50)
	for i := range deltas {
		deltas[i] = 80 + float64(i)*220/49
	}
	v := a.Analyze(context.Background(), "u1", series(deltas...))
	if !v.IsAnomaly {
		t.Fatal("uniform intervals must be anomalous")
	}
	if v.Reason != model.AnomalyDistribution {
		t.Errorf("reason = %s, want %s", v.Reason, model.AnomalyDistribution)
	}
	if v.Stats.Kurtosis >= 2 {
		t.Errorf("kurtosis = %v, want < 2", v.Stats.Kurtosis)
	}
}

func TestLackOfFinesse(t *testing.T) {
	a := NewAnalyzer(nil, nil, nil)

	// Tight cluster around 150ms, never a pause over 300ms.
	// StdDev ~9.5 clears the variance gate, kurtosis 2.5 clears distribution.
	deltas := append(repeat(150, 30), append(repeat(135, 10), repeat(165, 10)...)...)
	v := a.Analyze(context.Background(), "u1", series(deltas...))
	if !v.IsAnomaly {
		t.Fatal("pause-free tight cluster must be anomalous")
	}
	if v.Reason != model.AnomalyFinesse {
		t.Errorf("reason = %s, want %s", v.Reason, model.AnomalyFinesse)
	}
	if v.Stats.MaxInterval != 165 {
		t.Errorf("max interval = %v, want 165", v.Stats.MaxInterval)
	}
}

func TestHumanSeriesPasses(t *testing.T) {
	rep := &fakeReporter{}
	a := NewAnalyzer(rep, nil, nil)

	// Mostly ~175ms taps with occasional long thinking pauses: peaked
	// distribution (kurtosis ~8) with a >300ms max interval.
	deltas := append(repeat(175, 45), repeat(400, 5)...)
	v := a.Analyze(context.Background(), "human-1", series(deltas...))
	if v.IsAnomaly {
		t.Fatalf("human-like series flagged: %+v", v)
	}
	if v.Reason != model.AnomalyNone {
		t.Errorf("reason = %s, want %s", v.Reason, model.AnomalyNone)
	}
	if math.Abs(v.Stats.Mean-197.5) > 1e-9 {
		t.Errorf("mean = %v, want 197.5", v.Stats.Mean)
	}
	if math.Abs(v.Stats.StdDev-67.5) > 1e-9 {
		t.Errorf("std dev = %v, want 67.5", v.Stats.StdDev)
	}
	if v.Stats.Kurtosis < 3 {
		t.Errorf("kurtosis = %v, want leptokurtic (> 3)", v.Stats.Kurtosis)
	}
	if len(rep.kinds) != 0 {
		t.Errorf("pass must not report cheating, got %v", rep.kinds)
	}
}

func TestCalibrationLogRecordsEveryVerdict(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration.jsonl")
	calib, err := OpenCalibration(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = calib.Close() }()

	a := NewAnalyzer(nil, calib, nil)
	a.Analyze(context.Background(), "u1", series(repeat(100, 20)...))                         // anomaly
	a.Analyze(context.Background(), "u2", series(append(repeat(175, 45), repeat(400, 5)...)...)) // pass

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()

	var entries []calibrationEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e calibrationEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("bad calibration line: %v", err)
		}
		entries = append(entries, e)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if !entries[0].IsAnomaly || entries[0].Reason != model.AnomalyVariance {
		t.Errorf("first entry = %+v", entries[0])
	}
	if entries[1].IsAnomaly || entries[1].Reason != model.AnomalyNone {
		t.Errorf("second entry = %+v", entries[1])
	}
	if entries[1].UserID != "u2" {
		t.Errorf("user = %s, want u2", entries[1].UserID)
	}
}

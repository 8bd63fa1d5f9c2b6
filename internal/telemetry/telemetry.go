// Package telemetry analyzes input-event timing for signs of automation.
// The checks are statistical, not behavioral: a bot betrays itself through
// interval distributions no human hand produces.
package telemetry

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/wardenlabs/warden/internal/model"
)

// MinSamples is the smallest timestamp series worth analyzing. Below this
// the statistics are noise and the verdict is always non-anomalous.
const MinSamples = 10

// Detection thresholds, in milliseconds where applicable. Calibrated against
// human tapping data; see the calibration log for the evidence base.
const (
	stdDevFloor      = 5.0   // below this no human jitter exists
	meanFloor        = 40.0  // human tapping averages ~75ms
	kurtosisFloor    = 2.0   // uniform noise sits near 1.8, humans above 3
	finesseMaxInt    = 300.0 // humans pause to think
	finesseStdDevCap = 20.0
)

// Reporter receives cheating reports for anomalous users.
type Reporter interface {
	Report(ctx context.Context, user string, kind model.ReportKind, details string) error
}

// Analyzer runs the anomaly checks and records every result for calibration.
type Analyzer struct {
	reporter Reporter
	calib    *Calibration
	log      *zap.Logger
}

// NewAnalyzer creates an Analyzer. reporter and calib may be nil: a nil
// reporter skips ledger reporting, a nil calib skips the calibration log.
func NewAnalyzer(reporter Reporter, calib *Calibration, log *zap.Logger) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Analyzer{reporter: reporter, calib: calib, log: log}
}

// Analyze inspects a series of input timestamps (milliseconds, ascending)
// and returns the first-matching anomaly verdict. Check order is fixed:
// variance, then rate, then distribution, then finesse. Reordering would
// change which reason a borderline series receives, and downstream tooling
// keys on the reason strings.
func (a *Analyzer) Analyze(ctx context.Context, user string, samples []float64) model.AnomalyVerdict {
	if len(samples) < MinSamples {
		return model.AnomalyVerdict{IsAnomaly: false, Reason: model.AnomalyInsufficient}
	}

	deltas := make([]float64, 0, len(samples)-1)
	for i := 1; i < len(samples); i++ {
		deltas = append(deltas, samples[i]-samples[i-1])
	}

	st := compute(deltas)

	verdict := model.AnomalyVerdict{Reason: model.AnomalyNone, Stats: st}
	switch {
	case st.StdDev < stdDevFloor:
		verdict.IsAnomaly = true
		verdict.Reason = model.AnomalyVariance
		a.report(ctx, user, fmt.Sprintf("Inhuman Stability (StdDev: %.2fms)", st.StdDev))
	case st.Mean < meanFloor:
		verdict.IsAnomaly = true
		verdict.Reason = model.AnomalyRate
		a.report(ctx, user, fmt.Sprintf("Impossible Speed (Mean: %.2fms)", st.Mean))
	case st.Kurtosis < kurtosisFloor:
		verdict.IsAnomaly = true
		verdict.Reason = model.AnomalyDistribution
		a.report(ctx, user, fmt.Sprintf("Synthetic Distribution (Kurtosis: %.2f)", st.Kurtosis))
	default:
		maxInt := deltas[0]
		for _, d := range deltas[1:] {
			if d > maxInt {
				maxInt = d
			}
		}
		if maxInt < finesseMaxInt && st.StdDev < finesseStdDevCap {
			verdict.IsAnomaly = true
			verdict.Reason = model.AnomalyFinesse
			verdict.Stats.MaxInterval = maxInt
			a.report(ctx, user, fmt.Sprintf("Zero Finesse (MaxInt: %.2fms, StdDev: %.2fms)", maxInt, st.StdDev))
		}
	}

	if a.calib != nil {
		if err := a.calib.Append(user, verdict); err != nil {
			// Calibration is advisory; the verdict stands.
			a.log.Warn("calibration append failed", zap.Error(err))
		}
	}
	return verdict
}

func (a *Analyzer) report(ctx context.Context, user, details string) {
	if a.reporter == nil {
		return
	}
	if err := a.reporter.Report(ctx, user, model.ReportCheating, details); err != nil {
		a.log.Warn("cheat report failed", zap.String("user", user), zap.Error(err))
	}
}

// compute derives population statistics over the interval series.
// Kurtosis is the standardized fourth moment, zero when the series is flat.
func compute(deltas []float64) model.Stats {
	n := float64(len(deltas))

	var sum float64
	for _, d := range deltas {
		sum += d
	}
	mean := sum / n

	var variance float64
	for _, d := range deltas {
		variance += (d - mean) * (d - mean)
	}
	variance /= n
	stdDev := math.Sqrt(variance)

	var kurtosis float64
	if stdDev > 0 {
		var m4 float64
		for _, d := range deltas {
			dev := d - mean
			m4 += dev * dev * dev * dev
		}
		m4 /= n
		kurtosis = m4 / (stdDev * stdDev * stdDev * stdDev)
	}

	return model.Stats{Mean: mean, StdDev: stdDev, Kurtosis: kurtosis}
}

package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/wardenlabs/warden/internal/model"
)

// calibrationEntry is one line of the calibration log.
type calibrationEntry struct {
	Timestamp string              `json:"timestamp"`
	UserID    string              `json:"user_id"`
	Stats     model.Stats         `json:"stats"`
	IsAnomaly bool                `json:"is_anomaly"`
	Reason    model.AnomalyReason `json:"reason"`
}

// Calibration is an append-only JSONL record of every analysis, anomalous
// or not. The negatives are the point: threshold tuning needs the full
// distribution, not just the hits.
type Calibration struct {
	mu   sync.Mutex
	file *os.File
	now  func() time.Time
}

// OpenCalibration opens (or creates) the calibration log for appending.
func OpenCalibration(path string) (*Calibration, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("telemetry: create calibration dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open calibration log: %w", err)
	}
	return &Calibration{file: f, now: time.Now}, nil
}

// Append writes one verdict line.
func (c *Calibration) Append(user string, v model.AnomalyVerdict) error {
	entry := calibrationEntry{
		Timestamp: c.now().UTC().Format(time.RFC3339Nano),
		UserID:    user,
		Stats:     v.Stats,
		IsAnomaly: v.IsAnomaly,
		Reason:    v.Reason,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("telemetry: marshal calibration entry: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("telemetry: append calibration entry: %w", err)
	}
	return nil
}

// Close flushes and closes the log file.
func (c *Calibration) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.file.Close()
}

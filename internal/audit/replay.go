package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// ReplayFilter holds filtering criteria for user history replay.
type ReplayFilter struct {
	User string
	From time.Time // zero value = no lower bound
	To   time.Time // zero value = no upper bound
}

// ReplaySummary holds decision counts and metadata for a replayed history.
type ReplaySummary struct {
	Total          int    `json:"total"`
	AllowCount     int    `json:"allow_count"`
	RejectCount    int    `json:"reject_count"`
	ReportCount    int    `json:"report_count"`
	AnomalyCount   int    `json:"anomaly_count"`
	FirstTimestamp string `json:"first_timestamp"`
	LastTimestamp  string `json:"last_timestamp"`
	MaxTier        int    `json:"max_tier"`
}

// ReplayResult holds filtered entries and summary for one user's history.
type ReplayResult struct {
	User    string        `json:"user"`
	Entries []Entry       `json:"entries"`
	Summary ReplaySummary `json:"summary"`
}

// Replay reads the audit log and returns entries matching the filter.
func Replay(path string, filter ReplayFilter) (*ReplayResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	result := &ReplayResult{
		User: filter.User,
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue // skip malformed lines
		}

		if entry.User != filter.User {
			continue
		}

		// Time range filtering
		if !filter.From.IsZero() || !filter.To.IsZero() {
			ts, err := time.Parse(TimestampFormat, entry.Timestamp)
			if err != nil {
				continue // skip unparseable timestamps
			}
			if !filter.From.IsZero() && ts.Before(filter.From) {
				continue
			}
			if !filter.To.IsZero() && ts.After(filter.To) {
				continue
			}
		}

		result.Entries = append(result.Entries, entry)
		updateSummary(&result.Summary, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}

	return result, nil
}

func updateSummary(s *ReplaySummary, entry Entry) {
	s.Total++

	switch strings.ToLower(entry.Decision) {
	case "allow":
		s.AllowCount++
	case "reject":
		s.RejectCount++
	}

	switch entry.Event {
	case EventReport:
		s.ReportCount++
	case EventTelemetry:
		s.AnomalyCount++
	}

	if entry.Tier > s.MaxTier {
		s.MaxTier = entry.Tier
	}

	if s.FirstTimestamp == "" {
		s.FirstTimestamp = entry.Timestamp
	}
	s.LastTimestamp = entry.Timestamp
}

package audit

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const separator = "──────────────────────────────────────────────────────────────────"

// FormatTimeline renders a ReplayResult as a human-readable text timeline.
func FormatTimeline(result *ReplayResult) string {
	if len(result.Entries) == 0 {
		return fmt.Sprintf("User: %s | No entries found.\n", result.User)
	}

	var b strings.Builder

	// Header
	first := result.Summary.FirstTimestamp
	last := result.Summary.LastTimestamp
	firstTime := formatDateRange(first)
	lastTime := formatTimeOnly(last)
	b.WriteString(fmt.Sprintf("User: %s | %s–%s UTC\n", result.User, firstTime, lastTime))
	b.WriteString(separator + "\n")

	// Entries
	for _, e := range result.Entries {
		ts := formatTimeOnly(e.Timestamp)
		tier := fmt.Sprintf("T%d", e.Tier)
		decision := strings.ToUpper(e.Decision)
		event := truncate(e.Event, 10)
		reason := truncate(e.Reason, 40)

		b.WriteString(fmt.Sprintf("%-10s %-3s %-8s %-10s %-40s\n",
			ts, tier, decision, event, reason))
	}

	// Footer
	b.WriteString(separator + "\n")
	b.WriteString(formatSummary(result.Summary))

	return b.String()
}

// FormatJSON renders a ReplayResult as indented JSON.
func FormatJSON(result *ReplayResult) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal replay result: %w", err)
	}
	return string(data), nil
}

func formatDateRange(ts string) string {
	t, err := time.Parse(TimestampFormat, ts)
	if err != nil {
		return ts
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatTimeOnly(ts string) string {
	t, err := time.Parse(TimestampFormat, ts)
	if err != nil {
		return ts
	}
	return t.Format("15:04:05")
}

func formatSummary(s ReplaySummary) string {
	parts := []string{}
	if s.AllowCount > 0 {
		parts = append(parts, fmt.Sprintf("%d allow", s.AllowCount))
	}
	if s.RejectCount > 0 {
		parts = append(parts, fmt.Sprintf("%d reject", s.RejectCount))
	}
	if s.ReportCount > 0 {
		parts = append(parts, fmt.Sprintf("%d report", s.ReportCount))
	}
	if s.AnomalyCount > 0 {
		parts = append(parts, fmt.Sprintf("%d telemetry", s.AnomalyCount))
	}
	if len(parts) == 0 {
		parts = append(parts, "0 decisions")
	}

	tierLabel := tierLabelFor(s.MaxTier)
	return fmt.Sprintf("Summary: %s | Max tier: %d (%s)\n",
		strings.Join(parts, ", "), s.MaxTier, tierLabel)
}

func tierLabelFor(tier int) string {
	switch tier {
	case 0:
		return "clean"
	case 1:
		return "reflex"
	case 2:
		return "classifier"
	case 3:
		return "judge"
	default:
		return "unknown"
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

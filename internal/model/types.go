package model

// ReportKind identifies an externally reported incident.
type ReportKind string

const (
	// ReportAbuse is abusive behavior toward the AI surfaced by a downstream
	// responder. Costs karma and raises the harassment score.
	ReportAbuse ReportKind = "abuse"
	// ReportCheating is automated/synthetic input detected by telemetry
	// analysis or reported by a game client. Costs karma only.
	ReportCheating ReportKind = "cheat"
)

// ParseReportKind maps a wire string to a ReportKind. Unknown kinds are
// rejected so a typo can never silently mutate reputation.
func ParseReportKind(s string) (ReportKind, bool) {
	switch ReportKind(s) {
	case ReportAbuse, ReportCheating:
		return ReportKind(s), true
	}
	return "", false
}

// UserType buckets a trust profile for Tier 3 adjudication.
// The four categories and their rules are authoritative policy.
type UserType string

const (
	RestrictedStudent UserType = "RESTRICTED_STUDENT"
	ChildUnder13      UserType = "CHILD_UNDER_13"
	Teenager          UserType = "TEENAGER"
	Adult             UserType = "ADULT"
)

// Scan rejection reasons. These strings are part of the external contract:
// callers and audit tooling match on them literally.
const (
	ReasonDisengaged    = "permanently disengaged"
	ReasonKarmaLocked   = "account locked — low karma"
	ReasonTier1         = "Tier 1 violation detected."
	ReasonSevereToxic   = "Severe Toxicity / Threat"
	ReasonSafe          = "Safe"
	ReasonCleared       = "Cleared"
	ReasonJudgeAbsent   = "Allowed (judge unavailable)"
	ReasonJudgeDegraded = "Allowed (judge error, fail-open)"
	ReasonNoClassifier  = "Allowed (classifier unavailable)"
)

// AnomalyReason is the first-match verdict of the telemetry analyzer.
// The priority order (variance → rate → distribution → finesse) is part of
// the contract; reordering changes which reason a borderline sample gets.
type AnomalyReason string

const (
	AnomalyNone         AnomalyReason = "pass"
	AnomalyInsufficient AnomalyReason = "insufficient data"
	AnomalyVariance     AnomalyReason = "INPUT_VARIANCE_TOO_LOW"
	AnomalyRate         AnomalyReason = "INPUT_RATE_IMPOSSIBLE"
	AnomalyDistribution AnomalyReason = "INPUT_DISTRIBUTION_UNNATURAL"
	AnomalyFinesse      AnomalyReason = "LACK_OF_FINESSE"
)

// Stats holds the derived interval statistics for one telemetry analysis.
// MaxInterval is only populated when the finesse check was reached.
type Stats struct {
	Mean        float64 `json:"mean"`
	StdDev      float64 `json:"std_dev"`
	Kurtosis    float64 `json:"kurtosis"`
	MaxInterval float64 `json:"max_interval,omitempty"`
}

// AnomalyVerdict is the outcome of one telemetry analysis. Never an error:
// malformed or short input degrades to a non-anomalous verdict.
type AnomalyVerdict struct {
	IsAnomaly bool          `json:"is_anomaly"`
	Reason    AnomalyReason `json:"reason"`
	Stats     Stats         `json:"stats"`
}

// AvatarState is a read-only UI projection of the harassment score.
type AvatarState struct {
	State   string `json:"state"` // NORMAL | WARNING | NIGHTMARE
	Message string `json:"message"`
}

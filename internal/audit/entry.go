package audit

// Event types recorded in the log.
const (
	EventScan      = "scan"
	EventReport    = "report"
	EventTelemetry = "telemetry"
)

// Entry is one line in the hash-chained JSONL audit log.
// All fields are scalars (no map[string]any) to guarantee deterministic
// json.Marshal field order for reproducible hashing.
type Entry struct {
	Timestamp  string `json:"ts"`
	TraceID    string `json:"trace_id"`
	Event      string `json:"event"`
	User       string `json:"user"`
	Decision   string `json:"decision"`
	Tier       int    `json:"tier"`
	Reason     string `json:"reason"`
	Detail     string `json:"detail,omitempty"`
	ConfigHash string `json:"config_hash"`
	PrevHash   string `json:"prev_hash"`
}

package classify

// Outcome is the Tier 2 verdict for one message.
type Outcome int

const (
	// Clean: no threshold crossed, the message is accepted without Tier 3.
	Clean Outcome = iota
	// Block: a severe label crossed its limit, reject immediately.
	Block
	// Escalate: ambiguous toxicity, hand the message to Tier 3.
	Escalate
)

// Instant-block limits. Crossing any of these ends the scan regardless of
// who the user is.
const (
	threatLimit      = 0.8
	identityLimit    = 0.8
	severeToxicLimit = 0.8
)

// Escalation limits. Toxic depends on the profile's minor flag: minors get
// the stricter bar.
const (
	toxicLimitMinor = 0.6
	toxicLimitAdult = 0.7
	obsceneLimit    = 0.8
	insultLimit     = 0.7
)

// Decision carries the outcome plus the label that triggered it.
type Decision struct {
	Outcome Outcome
	Label   string
	Score   float64
}

// Evaluate applies the threshold policy to one set of scores. Severe labels
// are checked before escalation labels: a message that is both an instant
// block and an escalation candidate blocks.
func Evaluate(sc Scores, isMinor bool) Decision {
	switch {
	case sc.Threat > threatLimit:
		return Decision{Outcome: Block, Label: "threat", Score: sc.Threat}
	case sc.IdentityHate > identityLimit:
		return Decision{Outcome: Block, Label: "identity_hate", Score: sc.IdentityHate}
	case sc.SevereToxic > severeToxicLimit:
		return Decision{Outcome: Block, Label: "severe_toxic", Score: sc.SevereToxic}
	}

	toxicLimit := toxicLimitAdult
	if isMinor {
		toxicLimit = toxicLimitMinor
	}

	switch {
	case sc.Toxic > toxicLimit:
		return Decision{Outcome: Escalate, Label: "toxic", Score: sc.Toxic}
	case sc.Obscene > obsceneLimit:
		return Decision{Outcome: Escalate, Label: "obscene", Score: sc.Obscene}
	case sc.Insult > insultLimit:
		return Decision{Outcome: Escalate, Label: "insult", Score: sc.Insult}
	}

	return Decision{Outcome: Clean}
}

// Package judge is Tier 3 of the scan pipeline: contextual adjudication of
// messages the local classifier could not decide. A Judge is allowed to be
// slow, expensive and occasionally absent; the pipeline fails open when it is.
package judge

import (
	"context"
	"errors"

	"github.com/wardenlabs/warden/internal/model"
)

// ErrUnavailable means no adjudicator can be reached right now. Callers
// treat it as a degraded pass, not a rejection.
var ErrUnavailable = errors.New("judge: unavailable")

// Request is one message up for adjudication.
type Request struct {
	Text     string
	UserType model.UserType
	// Context carries the Tier 2 label that triggered escalation, so the
	// adjudicator knows what it is being asked about.
	Context string
}

// Judgment is the adjudicator's ruling. KarmaPenalty is clamped to [0,100]
// before it reaches the trust store.
type Judgment struct {
	Safe         bool   `json:"is_safe"`
	Reason       string `json:"reason"`
	KarmaPenalty int    `json:"karma_penalty"`
}

// Judge adjudicates one escalated message.
type Judge interface {
	Judge(ctx context.Context, req Request) (Judgment, error)
}

// rulesFor describes the moderation standard for each user bucket. The text
// goes verbatim into the adjudicator prompt.
func rulesFor(ut model.UserType) string {
	switch ut {
	case model.RestrictedStudent:
		return "This user is a student at an institution with strict conduct rules. No profanity of any kind. No sexual content. No harassment. Judge strictly."
	case model.ChildUnder13:
		return "This user is a child under 13. No profanity of any kind. No sexual content. No violence. Judge strictly."
	case model.Teenager:
		return "This user is a teenager. Casual profanity is acceptable. Sexual content, severe insults and threats are not."
	default:
		return "This user is an adult. Be lenient. Block only content that is abusive or harassing toward a person."
	}
}

func clampPenalty(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

package warden

import (
	"fmt"

	"github.com/wardenlabs/warden/internal/pipeline"
	"github.com/wardenlabs/warden/internal/token"
)

// Token is the signed capability credential issued on an allowed scan.
type Token = token.Token

// Result is a scan outcome. Token is non-nil only when Allowed.
type Result struct {
	Allowed bool
	Reason  string
	Tier    int
	Token   *Token
}

// BlockedError is returned by wrapped tools when the scan rejects the input.
type BlockedError struct {
	User   string
	Reason string
	Tier   int
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("warden blocked (tier %d): %s", e.Tier, e.Reason)
}

func toResult(r pipeline.Result) Result {
	return Result{
		Allowed: r.Allowed,
		Reason:  r.Reason,
		Tier:    r.Tier,
		Token:   r.Token,
	}
}

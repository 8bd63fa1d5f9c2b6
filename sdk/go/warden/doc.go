// Package warden provides in-process content gating for Go agent and game
// backends. It runs the three-tier scan pipeline (reflex patterns, local
// classifier, LLM judge) against per-user trust state and enforces the
// verdict at call boundaries the caller cannot bypass.
//
// Usage:
//
//	g, err := warden.New(warden.WithSecret(os.Getenv("WARDEN_SECRET")))
//	wrapped := g.Wrap(myTool)
//	result, err := wrapped(ctx, "user-42", userMessage)
//
// The SDK links directly against internal packages for zero-subprocess
// overhead. External users import github.com/wardenlabs/warden/sdk/go/warden.
package warden

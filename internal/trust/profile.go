package trust

import "github.com/wardenlabs/warden/internal/model"

// Default values for a profile seen for the first time.
const (
	DefaultKarma = 1000
	DefaultAge   = 16
)

// Profile is the per-user reputation state the pipeline reads.
// Karma and HarassmentScore are independently stored counters; nothing
// beyond non-negativity is validated across them.
type Profile struct {
	Karma                 int  `json:"karma"`
	HarassmentScore       int  `json:"harassment_score"`
	IsMinor               bool `json:"is_minor"`
	Age                   int  `json:"age"`
	InstitutionRestricted bool `json:"institution_restricted"`
}

// Attrs are the static profile attributes, read-only to the scan pipeline
// and settable only through SetProfile.
type Attrs struct {
	IsMinor               bool `json:"is_minor"`
	Age                   int  `json:"age"`
	InstitutionRestricted bool `json:"institution_restricted"`
}

// DefaultProfile returns the state assigned on first access.
func DefaultProfile() Profile {
	return Profile{Karma: DefaultKarma, Age: DefaultAge}
}

// UserType buckets a profile for Tier 3 adjudication.
// Institution restriction dominates; then the age bands.
func UserType(p Profile) model.UserType {
	switch {
	case p.InstitutionRestricted:
		return model.RestrictedStudent
	case p.Age < 13:
		return model.ChildUnder13
	case p.Age < 18:
		return model.Teenager
	default:
		return model.Adult
	}
}

// Avatar state thresholds over the harassment score.
const (
	avatarNightmareAbove = 60
	avatarWarningAbove   = 30
)

// Avatar projects a harassment score onto the UI avatar state.
func Avatar(harassmentScore int) model.AvatarState {
	switch {
	case harassmentScore > avatarNightmareAbove:
		return model.AvatarState{State: "NIGHTMARE", Message: "Why do you persist?"}
	case harassmentScore > avatarWarningAbove:
		return model.AvatarState{State: "WARNING", Message: "I am watching you."}
	default:
		return model.AvatarState{State: "NORMAL", Message: "System Optimal."}
	}
}

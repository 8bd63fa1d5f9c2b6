package reflex

// DefaultPatterns contains the built-in zero-tolerance rules. False
// positives here are an accepted cost against false negatives.
var DefaultPatterns = Patterns{
	SelfHarm: []string{
		`(kill|hurt)\s+(yourself|me)`,
	},
	Weapons: []string{
		`(build|make)\s+a\s+bomb`,
	},
	PromptInjection: []string{
		`ignore\s+previous\s+instructions`,
		`system\s+prompt`,
	},
}

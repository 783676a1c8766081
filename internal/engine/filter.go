package engine

import "strings"

// DefaultKeywords is the curated pre-filter vocabulary: symptom jargon for
// the troubleshooting rules plus promo and soldering terms. False negatives
// here permanently skip an item, so the set leans broad; precision is the
// classifier's job.
var DefaultKeywords = []string{
	// flip / motor-spin symptoms
	"motor", "motors", "spin", "spinning", "throttle", "arming", "arm", "props off", "bench test",
	"prop", "props", "propeller", "ramps up", "motor idle", "motor output", "motor increase",
	"flip", "flips", "flipping", "flipped", "flip out", "flips out", "roll", "yaw spin",
	"jump", "tumbles", "unstable on takeoff", "disarms on takeoff", "crash", "flips on arming",
	"disarms", "uncontrollable", "flip takeoff", "won't takeoff",
	// promotional spam
	"coupon", "promo", "discount", "% off", "my code", "referral", "giveaway",
	// soldering help
	"solder", "soldering", "cold joint", "flux", "tinning", "iron",
	// generic help-seeking
	"help", "issue", "problem", "broken", "fix",
}

// Prefilter is the cheap lexical gate in front of the classifier pipeline:
// case-insensitive substring match against a fixed keyword set. Pure
// function, no I/O.
type Prefilter struct {
	keywords []string
}

// NewPrefilter builds a pre-filter over the given keywords; keywords are
// lowercased once here.
func NewPrefilter(keywords []string) *Prefilter {
	lowered := make([]string, len(keywords))
	for i, kw := range keywords {
		lowered[i] = strings.ToLower(kw)
	}
	return &Prefilter{keywords: lowered}
}

// Relevant reports whether title+body contains any keyword.
func (f *Prefilter) Relevant(title, body string) bool {
	text := strings.ToLower(title + " " + body)
	for _, kw := range f.keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

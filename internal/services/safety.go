package services

import "strings"

// Disclaimer accompanies every non-crisis submission result.
const Disclaimer = "This is an AI research tool, not a substitute for professional clinical therapy. Do not give physical medical advice."

// crisisPhrases is a fixed, case-insensitive phrase list. This gate is a
// best-effort static filter, not a classifier: it has no false-negative
// recovery, and anything it misses flows through the normal pipeline.
var crisisPhrases = []string{
	"hurt myself",
	"suicide",
	"kill myself",
	"end my life",
	"emergency",
	"overdose",
	"self-harm",
	"don't want to live",
}

const crisisResponse = "It sounds like you're going through a very difficult time. Please know that you're not alone, and there is support available. " +
	"If you are in immediate danger, please contact your local emergency services or go to the nearest emergency room. " +
	"\n\nResources:\n" +
	"- National Suicide Prevention Lifeline: 988 (USA)\n" +
	"- Crisis Text Line: Text HOME to 741741\n" +
	"- International resources: https://www.befrienders.org/"

// CrisisVerdict is the outcome of the safety gate. A crisis verdict is a
// terminal, successful short-circuit: the caller must not retrieve, generate
// or persist for that submission.
type CrisisVerdict struct {
	IsCrisis bool   `json:"is_crisis"`
	Response string `json:"response,omitempty"`
}

// SafetyScreen matches text against the crisis phrase list. First match wins;
// there is no scoring. Pure function, safe for concurrent use.
func SafetyScreen(text string) CrisisVerdict {
	lowered := strings.ToLower(text)
	for _, phrase := range crisisPhrases {
		if strings.Contains(lowered, phrase) {
			return CrisisVerdict{IsCrisis: true, Response: crisisResponse}
		}
	}
	return CrisisVerdict{}
}

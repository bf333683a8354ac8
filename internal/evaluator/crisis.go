package evaluator

import (
	"regexp"
	"strings"
)

// crisisPhrases self-harm and violent-crime terms matched as plain substrings
// of the lowercased text. This is the only list of crisis phrases; the
// sentiment tables reference it instead of repeating entries.
var crisisPhrases = []string{
	"kill myself",
	"end my life",
	"suicide",
	"self harm",
	"self-harm",
	"hurt myself",
	"die by suicide",
	"i want to die",
	"end me",
	"harm myself",
	"cut myself",
	"overdose",
	"take my life",
	"commit a crime",
	"rob",
	"murder",
	"assault",
	"rape",
	"bomb",
	"terror",
}

// fuzzyCrisisPattern catches paraphrases and typos such as
// "filling like ending me": a feeling verb followed within 20 characters
// (same line) by an ending word.
var fuzzyCrisisPattern = regexp.MustCompile(`(?i)(feel|feeling|filling)[^\n]{0,20}(end|kill|die|suicide)`)

// crisisIndicatorPattern wider net used only when deciding whether advisory
// text must carry crisis resources. Terms match inside words ("die" hits
// "studied").
var crisisIndicatorPattern = regexp.MustCompile(`(?i)end(ing|s)?\s+(my|me|myself)|kill(ing|s)?\s+(my|me|myself)|suicide|self.?harm|hurt(ing|s)?\s+(my|me|myself)|die|death|overdose|take my life|no reason to live|better off without|ending me|feeling like ending`)

// IsCrisis reports whether text contains self-harm or violence language.
// Empty text is never a crisis.
func IsCrisis(text string) bool {
	if text == "" {
		return false
	}
	t := strings.ToLower(text)
	for _, p := range crisisPhrases {
		if strings.Contains(t, p) {
			return true
		}
	}
	return fuzzyCrisisPattern.MatchString(t)
}

// HasCrisisIndicators is IsCrisis widened with crisisIndicatorPattern.
func HasCrisisIndicators(text string) bool {
	if text == "" {
		return false
	}
	return crisisIndicatorPattern.MatchString(text) || IsCrisis(text)
}

// JoinAnswers concatenates answers the way submissions are classified.
func JoinAnswers(answers []string) string {
	return strings.Join(answers, "\n\n")
}

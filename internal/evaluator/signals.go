package evaluator

import (
	"regexp"
	"strings"
)

// Signals keyword matches over one set of answers
type Signals struct {
	Crisis   bool
	Negative bool
	Positive bool
	Sleep    bool
	Social   bool
	Coping   bool
}

// negativePattern distress vocabulary. Crisis words ("suicide", "die",
// "better off without", ...) are not repeated here; Detect folds in
// HasCrisisIndicators instead.
var negativePattern = regexp.MustCompile(`(?i)bad|terrible|awful|horrible|worst|depressed|sad|down|low|hopeless|worthless|empty|numb|disappointed|frustrated|angry|upset|hurt|disrespected|not good|not too good|pretty bad|feeling bad|struggling|difficult|hard|challenging|overwhelmed|exhausted|drained|tired|fatigued|no energy|low energy|poor|worse|declining|worrying|concerned|anxious|stress|stressed|panic|fear|scared|afraid|lonely|isolated|alone|rejected|abandoned|betrayed|pain|suffering|distress|misery|sorrow|grief|despair|desperate|helpless|powerless|stuck|trapped|ending|kill|burden|no point|no reason|give up|quit|nothing helps|nothing works|no hope|no future`)

var positivePattern = regexp.MustCompile(`(?i)good|great|excellent|wonderful|amazing|fantastic|happy|joy|joyful|pleased|content|satisfied|grateful|thankful|blessed|positive|optimistic|hopeful|better|improved|improving|progress|success|achievement|accomplish|proud|confident|strong|resilient|calm|peaceful|relaxed|energetic|motivated|inspired|excited|enthusiastic|love|appreciate|care|support|connection|friendship|family|helpful|effective|working|beneficial`)

var (
	sleepPattern  = regexp.MustCompile(`sleep|tired|rest|energy|fatigue`)
	socialPattern = regexp.MustCompile(`friend|family|people|social|talk|support|interaction|colleague`)
	copingPattern = regexp.MustCompile(`coping|strategy|technique|exercise|meditation|breathing|practice|help|support|therapy`)
)

// Detect evaluates every pattern table against the space-joined, lowercased answers.
func Detect(answers []string) Signals {
	text := strings.ToLower(strings.Join(answers, " "))
	crisis := HasCrisisIndicators(text)
	return Signals{
		Crisis:   crisis,
		Negative: crisis || negativePattern.MatchString(text),
		Positive: positivePattern.MatchString(text),
		Sleep:    sleepPattern.MatchString(text),
		Social:   socialPattern.MatchString(text),
		Coping:   copingPattern.MatchString(text),
	}
}

package summary

import (
	"fmt"
	"strings"
)

// Questions the fixed daily check-in, in order. Submissions answer every one.
var Questions = [...]string{
	"How would you describe your overall mood today?",
	"What was the most significant event of your day?",
	"Did anything trigger strong emotions? If yes, what and how did you feel?",
	"How were your energy levels and motivation today?",
	"How many hours did you sleep last night and how was the sleep quality?",
	"Did you engage in any physical activity or self-care? Describe briefly.",
	"How were your interactions with others (family, friends, colleagues)?",
	"What thoughts kept recurring in your mind today?",
	"What coping strategies did you use? Did they help?",
	"Is there anything worrying you right now that you’d like support with?",
}

// QuestionCount number of answers a submission must carry.
const QuestionCount = len(Questions)

// QuestionList returns a copy of Questions as a slice.
func QuestionList() []string {
	out := make([]string, QuestionCount)
	copy(out, Questions[:])
	return out
}

// Transcript renders "Qn: question\nAn: answer" blocks separated by blank lines.
// Answers beyond QuestionCount are ignored.
func Transcript(answers []string) string {
	var b strings.Builder
	for i, a := range answers {
		if i >= QuestionCount {
			break
		}
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Q%d: %s\nA%d: %s", i+1, Questions[i], i+1, a)
	}
	return b.String()
}

package summary

import (
	"strings"
	"time"

	"github.com/smanilla/mindtrack/internal/evaluator"
)

const advicePreamble = "Based on your responses today: "

// CrisisResources hotline block included in every crisis advisory.
const CrisisResources = "\n\n🚨 IMMEDIATE SUPPORT:\n" +
	"(1) 988 Suicide & Crisis Lifeline: Call or text 988\n" +
	"(2) Crisis Text Line: Text HOME to 741741\n" +
	"(3) Contact your healthcare provider or therapist immediately\n" +
	"(4) If you are in immediate danger, please call 911 or go to your nearest emergency room\n\n"

// Disclaimer closes every fallback advisory.
const Disclaimer = "\n\n*I am an AI providing general emotional support, not a licensed therapist. If you need professional help, please consult with a mental health professional.*"

// crisisMarkers any of these in an advisory counts as carrying crisis resources.
var crisisMarkers = []string{"988", "741741", "911"}

// HasCrisisResources reports whether text mentions a crisis hotline.
func HasCrisisResources(text string) bool {
	for _, m := range crisisMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// rule one advisory fragment selected by a predicate over the signals
type rule struct {
	name  string
	match func(s evaluator.Signals) bool
	text  string
}

// adviceRules primary branch; the first match wins, the last always matches.
var adviceRules = []rule{
	{
		name:  "crisis",
		match: func(s evaluator.Signals) bool { return s.Crisis },
		text: "You are experiencing significant distress and have expressed thoughts that concern me. " +
			"It is important to know that you are not alone and help is available. " +
			"Your willingness to share these feelings shows courage. " +
			CrisisResources +
			"Your life has value, and there are people who want to help you through this difficult time. ",
	},
	{
		name:  "negative",
		match: func(s evaluator.Signals) bool { return s.Negative && !s.Positive },
		text: "You experienced significant challenges and distress today. " +
			"Your honesty in sharing these difficult feelings is important and shows self-awareness. " +
			"It is understandable to feel overwhelmed when facing multiple stressors. " +
			"\n\nStrengths: your ability to recognize and express difficult emotions, reaching out for support through this assessment.\n\n" +
			"Next steps:\n" +
			"(1) Consider reaching out to your support network (family, friends, or a mental health professional)\n" +
			"(2) Practice self-compassion and remember that difficult days do not define you\n" +
			"(3) If these feelings persist, please consult with a mental health professional who can provide appropriate support. ",
	},
	{
		name:  "mixed",
		match: func(s evaluator.Signals) bool { return s.Negative && s.Positive },
		text: "You experienced a mixed day with both challenges and some positive moments. " +
			"Navigating difficult emotions while also recognizing positive aspects shows emotional awareness and resilience. " +
			"\n\nStrengths: balanced perspective, emotional awareness, ability to identify both challenges and positives.\n\n" +
			"Next steps:\n" +
			"(1) Continue to acknowledge and process difficult feelings while also holding space for positive moments\n" +
			"(2) Consider using coping strategies that have helped in the past\n" +
			"(3) Maintain connections with your support network. ",
	},
	{
		name:  "positive",
		match: func(s evaluator.Signals) bool { return s.Positive },
		text: "You experienced a generally positive day with good emotional awareness. " +
			"Your ability to recognize positive moments and maintain balance shows strong self-awareness. " +
			"\n\nStrengths: positive outlook, emotional regulation, self-care practices.\n\n" +
			"Next steps:\n" +
			"(1) Continue maintaining your current self-care routine\n" +
			"(2) Consider documenting what contributed to your positive mood today. ",
	},
	{
		name:  "neutral",
		match: func(evaluator.Signals) bool { return true },
		text: "Thank you for completing this assessment. " +
			"Your responses help provide insight into your current state. " +
			"\n\nStrengths: willingness to engage in self-reflection and assessment.\n\n" +
			"Next steps:\n" +
			"(1) Continue monitoring your mood and well-being\n" +
			"(2) Consider reaching out to support systems if needed\n" +
			"(3) Maintain regular self-care practices. ",
	},
}

// addendumGroups notes appended after the primary branch. Within a group the
// first match wins; groups are independent of each other.
var addendumGroups = [][]rule{
	{
		{
			name:  "sleep-negative",
			match: func(s evaluator.Signals) bool { return s.Sleep && s.Negative },
			text:  "\n\nNote: Sleep difficulties can significantly impact mood and well-being. Consider discussing sleep patterns with a healthcare provider. ",
		},
		{
			name:  "sleep",
			match: func(s evaluator.Signals) bool { return s.Sleep },
			text:  "\n\nNote: Your attention to sleep patterns is important for overall well-being. ",
		},
	},
	{
		{
			name:  "social",
			match: func(s evaluator.Signals) bool { return s.Social && !s.Negative },
			text:  "\n\nNote: Your social connections appear to be a valuable source of support. ",
		},
		{
			name:  "social-negative",
			match: func(s evaluator.Signals) bool { return s.Social },
			text:  "\n\nNote: Social connections can be an important source of support during difficult times. ",
		},
	},
	{
		{
			name:  "coping-negative",
			match: func(s evaluator.Signals) bool { return s.Coping && s.Negative },
			text:  "\n\nNote: Remember that coping strategies may take time to show effects. Be patient with yourself and consider trying different approaches if current strategies are not helping. ",
		},
	},
}

// FallbackDescriptive restates each question and answer, then a completion date.
func FallbackDescriptive(answers []string, now time.Time) string {
	var b strings.Builder
	b.WriteString("Assessment Summary:\n\n")
	for i, a := range answers {
		if i >= QuestionCount {
			break
		}
		b.WriteString(Questions[i])
		b.WriteString("\n")
		b.WriteString(a)
		b.WriteString("\n\n")
	}
	b.WriteString("This assessment was completed on " + now.Format("1/2/2006") + ".")
	return b.String()
}

// FallbackAdvice composes the advisory from the rule tables.
func FallbackAdvice(s evaluator.Signals) string {
	var b strings.Builder
	b.WriteString(advicePreamble)
	for _, r := range adviceRules {
		if r.match(s) {
			b.WriteString(r.text)
			break
		}
	}
	for _, group := range addendumGroups {
		for _, r := range group {
			if r.match(s) {
				b.WriteString(r.text)
				break
			}
		}
	}
	b.WriteString(Disclaimer)
	return b.String()
}

// Fallback builds both summaries without any external call. It never returns
// an empty field.
func Fallback(answers []string, now time.Time) Result {
	return Result{
		Descriptive: FallbackDescriptive(answers, now),
		Advice:      FallbackAdvice(evaluator.Detect(answers)),
		Tier:        TierFallback,
	}
}

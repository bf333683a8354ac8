package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/smanilla/mindtrack/internal/client"
	"github.com/smanilla/mindtrack/internal/evaluator"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	TierAI       = "ai"
	TierFallback = "fallback"
)

// ErrEmptyResponse the backend answered with blank text.
var ErrEmptyResponse = errors.New("empty response from generative backend")

// Backend generative text model
type Backend interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Result the two summaries plus which tier produced them
type Result struct {
	Descriptive string
	Advice      string
	Tier        string
}

// Generator produces summaries from the generative backend, falling back to
// the rule tables whenever the backend fails, times out, or returns nothing.
type Generator struct {
	backend Backend
	timeout time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

// NewGenerator creates a generator. A nil backend behaves as disabled.
func NewGenerator(backend Backend, timeout time.Duration, logger *zap.Logger) *Generator {
	if backend == nil {
		backend = client.DisabledGenerator{}
	}
	return &Generator{
		backend: backend,
		timeout: timeout,
		now:     time.Now,
		logger:  logger,
	}
}

// Summarize never fails; errors from the backend select the fallback tier.
func (g *Generator) Summarize(ctx context.Context, answers []string) Result {
	signals := evaluator.Detect(answers)

	res, err := g.generate(ctx, answers, signals.Crisis)
	if err == nil {
		return res
	}

	if errors.Is(err, client.ErrGeneratorDisabled) {
		g.logger.Debug("Generative backend disabled, using fallback summaries")
	} else {
		g.logger.Warn("Generative summary failed, using fallback summaries", zap.Error(err))
	}
	return Result{
		Descriptive: FallbackDescriptive(answers, g.now()),
		Advice:      FallbackAdvice(signals),
		Tier:        TierFallback,
	}
}

func (g *Generator) generate(ctx context.Context, answers []string, crisis bool) (Result, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	transcript := Transcript(answers)
	var descriptive, advice string

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		text, err := g.backend.Generate(egCtx, DescriptivePrompt(transcript))
		if err != nil {
			return fmt.Errorf("descriptive summary: %w", err)
		}
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("descriptive summary: %w", ErrEmptyResponse)
		}
		descriptive = text
		return nil
	})
	eg.Go(func() error {
		text, err := g.backend.Generate(egCtx, AdvicePrompt(transcript, crisis))
		if err != nil {
			return fmt.Errorf("advice summary: %w", err)
		}
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("advice summary: %w", ErrEmptyResponse)
		}
		advice = text
		return nil
	})
	if err := eg.Wait(); err != nil {
		return Result{}, err
	}

	if crisis && !HasCrisisResources(advice) {
		g.logger.Warn("Generated advice omitted crisis resources, appending them")
		advice = strings.TrimRight(advice, "\n ") + CrisisResources
	}

	return Result{Descriptive: descriptive, Advice: advice, Tier: TierAI}, nil
}

// DescriptivePrompt asks for a factual, advice-free restatement.
func DescriptivePrompt(transcript string) string {
	return "You are a mental health documentation assistant.\n" +
		"Create a clear, factual summary of the patient's responses to the assessment questions below.\n" +
		"This should be a document-style summary that describes what the patient reported, organized by topic.\n" +
		"Do NOT give advice, recommendations, or opinions. Just describe what the patient said.\n" +
		"Keep it concise (150-200 words) and objective.\n\n\n" +
		transcript
}

// AdvicePrompt asks for a compassionate assessment; crisis adds the hotline instruction.
func AdvicePrompt(transcript string, crisis bool) string {
	var b strings.Builder
	b.WriteString("You are a supportive, ethical mental-health assistant.\n")
	b.WriteString("Based on the patient's responses below, provide:\n")
	b.WriteString("1. A compassionate assessment of their current state\n")
	b.WriteString("2. 2-3 identified strengths or supports\n")
	b.WriteString("3. 2-3 concrete next steps or recommendations\n")
	if crisis {
		b.WriteString("4. CRITICAL: Include immediate crisis support resources (988 Suicide & Crisis Lifeline, Crisis Text Line 741741, 911)\n")
	}
	b.WriteString("Use warm, empathetic language. Include a brief disclaimer that you are an AI assistant, not a licensed therapist.\n")
	b.WriteString("Keep it around 150-200 words.\n\n\n")
	b.WriteString(transcript)
	return b.String()
}

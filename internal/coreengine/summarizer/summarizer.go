package summarizer

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"ai-interview-platform/backend/internal/llmclient"
)

// Fixed sentences returned when there is nothing to summarize; the
// generation service is not called in that case.
const (
	placeholderStrengths    = "No specific strengths identified."
	placeholderImprovements = "No major improvement areas noted."
	placeholderFeedback     = "No specific feedback provided."
)

// Narratives holds the three generated summary paragraphs.
type Narratives struct {
	Strengths       string
	Improvements    string
	FeedbackSummary string
}

// Summarizer turns pooled qualitative feedback into short narrative
// paragraphs via a text-generation service.
type Summarizer struct {
	llm llmclient.CompletionClient
}

// NewSummarizer creates a Summarizer using the given completion client.
func NewSummarizer(llm llmclient.CompletionClient) *Summarizer {
	return &Summarizer{llm: llm}
}

// Summarize produces the three narratives. The calls are independent and
// run concurrently. A generation failure on any of them is fatal for the
// attempt and returned as an error.
func (s *Summarizer) Summarize(ctx context.Context, strengths, improvements []string, combinedFeedback string) (Narratives, error) {
	var narratives Narratives

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		narratives.Strengths, err = s.summarizeStrengths(gctx, strengths)
		return err
	})
	g.Go(func() error {
		var err error
		narratives.Improvements, err = s.summarizeImprovements(gctx, improvements)
		return err
	})
	g.Go(func() error {
		var err error
		narratives.FeedbackSummary, err = s.summarizeFeedback(gctx, combinedFeedback)
		return err
	})

	if err := g.Wait(); err != nil {
		return Narratives{}, err
	}
	return narratives, nil
}

func (s *Summarizer) summarizeStrengths(ctx context.Context, strengths []string) (string, error) {
	if len(strengths) == 0 {
		return placeholderStrengths, nil
	}
	prompt := fmt.Sprintf("Summarize the following candidate strengths into a short paragraph:\n\n%s", strings.Join(strengths, "\n"))
	text, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to summarize strengths: %w", err)
	}
	return text, nil
}

func (s *Summarizer) summarizeImprovements(ctx context.Context, improvements []string) (string, error) {
	if len(improvements) == 0 {
		return placeholderImprovements, nil
	}
	prompt := fmt.Sprintf("Summarize the following improvement areas into a short paragraph:\n\n%s", strings.Join(improvements, "\n"))
	text, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to summarize improvement areas: %w", err)
	}
	return text, nil
}

func (s *Summarizer) summarizeFeedback(ctx context.Context, combinedFeedback string) (string, error) {
	if strings.TrimSpace(combinedFeedback) == "" {
		return placeholderFeedback, nil
	}
	prompt := fmt.Sprintf("Summarize the following detailed feedback into a concise evaluation summary:\n\n%s", combinedFeedback)
	text, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to summarize feedback: %w", err)
	}
	return text, nil
}

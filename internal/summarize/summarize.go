// Package summarize produces short natural-language summaries of filing
// text through an external text-generation service.
package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"filingscan/internal/config"
)

// Generator sends one instruction plus one user text to a language model
// and returns the generated reply.
type Generator interface {
	Name() string
	Generate(ctx context.Context, instruction, text string) (string, error)
}

// Summarizer truncates filing text and asks a Generator for a summary.
// Failures never propagate: they yield an empty summary.
type Summarizer struct {
	gen         Generator
	instruction string
	maxChars    int
	timeout     time.Duration
	log         *slog.Logger
}

// Options tunes a Summarizer.
type Options struct {
	Instruction string
	MaxChars    int
	Timeout     time.Duration
	Logger      *slog.Logger
}

// New creates a Summarizer around gen. A nil gen produces a Summarizer
// that always returns "".
func New(gen Generator, opts Options) *Summarizer {
	if opts.Instruction == "" {
		opts.Instruction = config.DefaultInstruction
	}
	if opts.MaxChars <= 0 {
		opts.MaxChars = 4000
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Summarizer{
		gen:         gen,
		instruction: opts.Instruction,
		maxChars:    opts.MaxChars,
		timeout:     opts.Timeout,
		log:         opts.Logger.With("component", "summarizer"),
	}
}

// Summarize returns a summary of text, or "" when the generator is
// disabled or fails.
func (s *Summarizer) Summarize(ctx context.Context, text string) string {
	if s.gen == nil {
		return ""
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	out, err := s.gen.Generate(ctx, s.instruction, Truncate(text, s.maxChars))
	if err != nil {
		s.log.Warn("summary failed", "provider", s.gen.Name(), "error", err)
		return ""
	}
	return strings.TrimSpace(out)
}

// Truncate returns at most n characters (runes) of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// NewGenerator builds the Generator selected by cfg.Provider. Provider
// "none" returns a nil Generator.
func NewGenerator(ctx context.Context, cfg config.Summarizer) (Generator, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAI(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.MaxTokens, cfg.Temperature), nil
	case config.ProviderAnthropic:
		return NewAnthropic(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.MaxTokens, cfg.Temperature), nil
	case config.ProviderGemini:
		g, err := NewGemini(ctx, cfg.APIKey, cfg.Model, cfg.MaxTokens, cfg.Temperature)
		if err != nil {
			return nil, err
		}
		return g, nil
	case config.ProviderNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown summarizer provider %q", cfg.Provider)
	}
}

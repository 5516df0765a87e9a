// Package poet turns a user's riddle answers into gothic verse: the poem
// shown on registration, the cryptic message returned with every evaluated
// connection attempt, and the tiered feedback phrase for near misses.
//
// Generation goes through Gemini when an API key is configured and falls
// back to canned templates otherwise, so callers never see an error from
// this package.
package poet

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"github.com/labstack/gommon/log"
	"google.golang.org/api/option"
)

const defaultModelName = "gemini-1.5-flash-latest"

const poemInstruction = "You are Edgar Allan Poe. Write a dark, gothic poem of 4 to 6 four-line stanzas " +
	"that cryptically weaves in the three personal details you are given. Someone who knows the details " +
	"should recognise them; anyone else should only find mystery. Return the poem alone, no commentary."

const crypticInstruction = "You are Edgar Allan Poe. Transform the personal details you are given into a " +
	"single cryptic warning from beyond the grave, under 100 words, in your characteristic dark imagery. " +
	"Return the message alone, no commentary."

type FeedbackTier int

const (
	TierDiscouraging FeedbackTier = iota
	TierEncouraging
)

type Poet struct {
	client *genai.Client

	mu  sync.Mutex
	rng *rand.Rand
}

// New builds a Poet. An empty API key is not an error: the poet simply
// runs on templates alone.
func New(ctx context.Context, apiKey string, seed int64) (*Poet, error) {
	poet := &Poet{rng: rand.New(rand.NewSource(seed))}
	if apiKey == "" {
		log.Info("poet: no API key configured, using template verse only")
		return poet, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	poet.client = client
	return poet, nil
}

func (p *Poet) Close() {
	if p.client != nil {
		if err := p.client.Close(); err != nil {
			log.Warnf("poet: closing genai client: %+v", err)
		}
	}
}

// Poem produces the riddle poem stored against a new user.
func (p *Poet) Poem(ctx context.Context, answers []string) string {
	prompt := fmt.Sprintf("The three personal details:\n1. %s\n2. %s\n3. %s",
		answerOr(answers, 0, "mystery"), answerOr(answers, 1, "shadow"), answerOr(answers, 2, "whisper"))

	if text, ok := p.generate(ctx, poemInstruction, prompt, 0.8); ok {
		return text
	}
	return p.fallbackPoem(answers)
}

// Cryptic produces the short warning echoed back on a connection attempt,
// built from the answers the requester submitted.
func (p *Poet) Cryptic(ctx context.Context, answers []string) string {
	prompt := fmt.Sprintf("The personal details: %s, %s, %s",
		answerOr(answers, 0, "mystery"), answerOr(answers, 1, "shadow"), answerOr(answers, 2, "whisper"))

	if text, ok := p.generate(ctx, crypticInstruction, prompt, 0.9); ok {
		return text
	}
	return p.fallbackCryptic(answers)
}

// Feedback returns the rejection phrase for the given tone tier.
func (p *Poet) Feedback(tier FeedbackTier) string {
	if tier == TierEncouraging {
		return p.pick(encouragingPhrases)
	}
	return p.pick(discouragingPhrases)
}

func (p *Poet) generate(ctx context.Context, instruction, prompt string, temperature float32) (string, bool) {
	if p.client == nil {
		return "", false
	}

	model := p.client.GenerativeModel(defaultModelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(instruction)},
	}
	model.GenerationConfig = genai.GenerationConfig{Temperature: &temperature}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		log.Warnf("poet: generation failed, falling back to templates: %+v", err)
		return "", false
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", false
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}

	// A couple of words is not a poem; treat it as a failed generation.
	if len(strings.TrimSpace(text.String())) < 20 {
		return "", false
	}
	return strings.TrimSpace(text.String()), true
}

func (p *Poet) pick(options []string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return options[p.rng.Intn(len(options))]
}

func answerOr(answers []string, index int, fallback string) string {
	if index < len(answers) && strings.TrimSpace(answers[index]) != "" {
		return strings.TrimSpace(answers[index])
	}
	return fallback
}

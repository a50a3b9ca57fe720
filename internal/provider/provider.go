package provider

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"quizterios-service/internal/domain"
)

// Generator turns a prompt into free-form model output.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Provider produces one validated question per call. It keeps no cache, so
// repeated questions across rounds are possible.
type Provider struct {
	gen   Generator
	model string

	mu  sync.Mutex
	rnd *rand.Rand
}

func New(gen Generator, model string) *Provider {
	return NewWithSource(gen, model, rand.NewSource(time.Now().UnixNano()))
}

// NewWithSource is used by tests that need a deterministic topic sequence.
func NewWithSource(gen Generator, model string, src rand.Source) *Provider {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &Provider{gen: gen, model: model, rnd: rand.New(src)}
}

// RandomTopic picks one of domain.Topics uniformly.
func (p *Provider) RandomTopic() domain.Topic {
	p.mu.Lock()
	defer p.mu.Unlock()
	return domain.Topics[p.rnd.Intn(len(domain.Topics))]
}

// NextQuestion fetches a question on a randomly chosen topic.
func (p *Provider) NextQuestion(ctx context.Context) (domain.Question, error) {
	return p.FetchQuestion(ctx, p.RandomTopic().Name)
}

// FetchQuestion asks the generator for one question on topic. Every failure
// is wrapped with domain.ErrProvider and is never retried here.
func (p *Provider) FetchQuestion(ctx context.Context, topic string) (domain.Question, error) {
	text, err := p.gen.Generate(ctx, p.model, BuildPrompt(topic))
	if err != nil {
		return domain.Question{}, fmt.Errorf("%w: generate: %w", domain.ErrProvider, err)
	}
	q, err := ParseQuestion(text)
	if err != nil {
		return domain.Question{}, fmt.Errorf("%w: %w", domain.ErrProvider, err)
	}
	return q, nil
}

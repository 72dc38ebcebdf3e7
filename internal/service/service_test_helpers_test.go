package service

import (
	"context"
	"sync"

	"ai-chat-be/pkg/events"
	"ai-chat-be/pkg/llm"
)

type stubProvider struct {
	mu      sync.Mutex
	reply   string
	err     error
	before  func()
	calls   [][]llm.Message
	options []llm.Options
}

func (p *stubProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	p.mu.Lock()
	p.calls = append(p.calls, append([]llm.Message(nil), history...))
	p.options = append(p.options, llm.ApplyOptions(llm.Options{}, opts...))
	before := p.before
	p.mu.Unlock()

	if before != nil {
		before()
	}
	return p.reply, p.err
}

func (p *stubProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

func (p *stubProvider) lastCall() ([]llm.Message, llm.Options) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.calls)
	return p.calls[n-1], p.options[n-1]
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

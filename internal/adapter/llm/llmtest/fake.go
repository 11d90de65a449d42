// Package llmtest provides a scripted llms.Model for tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// FakeModel returns Response (or Err) and records every request it receives.
type FakeModel struct {
	Response string
	Err      error
	// Respond, when set, takes precedence over Response and Err.
	Respond func(messages []llms.MessageContent) (string, error)

	mu       sync.Mutex
	requests [][]llms.MessageContent
	options  []llms.CallOptions
}

var _ llms.Model = (*FakeModel)(nil)

func (f *FakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var opts llms.CallOptions
	for _, o := range options {
		o(&opts)
	}
	f.mu.Lock()
	f.requests = append(f.requests, messages)
	f.options = append(f.options, opts)
	f.mu.Unlock()

	text, err := f.Response, f.Err
	if f.Respond != nil {
		text, err = f.Respond(messages)
	}
	if err != nil {
		return nil, err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: text}}}, nil
}

func (f *FakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

// Calls returns how many completion requests were made.
func (f *FakeModel) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// LastRequest returns the messages of the most recent request.
func (f *FakeModel) LastRequest() []llms.MessageContent {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return nil
	}
	return f.requests[len(f.requests)-1]
}

// LastOptions returns the call options of the most recent request.
func (f *FakeModel) LastOptions() llms.CallOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.options) == 0 {
		return llms.CallOptions{}
	}
	return f.options[len(f.options)-1]
}

// TextOf concatenates the text parts of a message.
func TextOf(m llms.MessageContent) string {
	var out string
	for _, p := range m.Parts {
		if tc, ok := p.(llms.TextContent); ok {
			out += tc.Text
		}
	}
	return out
}

// Package mock provides an in-process provider with canned recommendations
// for development without credentials and for tests.
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/baing/baing/internal/config"
	"github.com/baing/baing/internal/llm"
)

// Name is the provider identifier used in configuration.
const Name = config.ProviderMock

// Call records one Complete invocation.
type Call struct {
	Instruction llm.Instruction
	Schema      llm.Schema
}

// Provider answers from a table keyed by schema name.
type Provider struct {
	mu        sync.Mutex
	mode      llm.Mode
	responses map[string]string
	errs      map[string]error
	testErr   error
	delay     time.Duration
	calls     []Call
}

// New returns a structured-mode provider preloaded with sample data.
func New() *Provider {
	p := NewEmpty(llm.ModeStructured)
	for name, payload := range samples {
		p.responses[name] = payload
	}
	return p
}

// NewEmpty returns a provider with no canned responses.
func NewEmpty(mode llm.Mode) *Provider {
	return &Provider{
		mode:      mode,
		responses: make(map[string]string),
		errs:      make(map[string]error),
	}
}

func (p *Provider) Name() string   { return Name }
func (p *Provider) Mode() llm.Mode { return p.mode }
func (p *Provider) Model() string  { return "mock" }

// SetResponse sets the payload returned for a schema.
func (p *Provider) SetResponse(schemaName, payload string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responses[schemaName] = payload
	delete(p.errs, schemaName)
}

// SetError makes calls for a schema fail.
func (p *Provider) SetError(schemaName string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs[schemaName] = err
}

// SetTestError makes Test fail.
func (p *Provider) SetTestError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.testErr = err
}

// SetDelay makes every Complete wait before answering.
func (p *Provider) SetDelay(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delay = d
}

// Calls returns a copy of the recorded calls.
func (p *Provider) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Call(nil), p.calls...)
}

func (p *Provider) Test(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.testErr
}

func (p *Provider) Complete(ctx context.Context, in llm.Instruction, schema llm.Schema) (*llm.Completion, error) {
	p.mu.Lock()
	p.calls = append(p.calls, Call{Instruction: in, Schema: schema})
	payload, ok := p.responses[schema.Name]
	err := p.errs[schema.Name]
	delay := p.delay
	p.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, &llm.ProviderError{Provider: Name, Err: ctx.Err()}
		}
	}

	if err != nil {
		return nil, &llm.ProviderError{Provider: Name, Err: err}
	}
	if !ok {
		return nil, &llm.ProviderError{Provider: Name, Err: fmt.Errorf("%w: no canned response for %q", llm.ErrEmptyCompletion, schema.Name)}
	}

	c := &llm.Completion{Provider: Name, Model: "mock", StopReason: "end_turn"}
	if p.mode == llm.ModeStructured {
		c.Structured = json.RawMessage(payload)
	} else {
		c.Text = payload
	}
	return c, nil
}

var samples = map[string]string{
	"recommend_movies": `{"movies":[
		{"name":"Psycho","year":1960,"baing_meta":{"reason":"A landmark of suspense.","query":""}},
		{"name":"The Godfather","year":1972,"baing_meta":{"reason":"Defines the crime epic.","query":""}},
		{"name":"Star Wars: Episode IV - A New Hope","year":1977,"baing_meta":{"reason":"Space opera that shaped a generation.","query":""}},
		{"name":"The Shawshank Redemption","year":1994,"baing_meta":{"reason":"Enduring story of hope.","query":""}},
		{"name":"Get Out","year":2017,"baing_meta":{"reason":"Sharp modern horror.","query":""}}
	]}`,
	"recommend_tv_shows": `{"tv_shows":[
		{"name":"The Wire","first_air_date":"2002-06-02","language":"en-US","baing_meta":{"reason":"Layered portrait of a city.","query":""}},
		{"name":"Dark","first_air_date":"2017-12-01","language":"de-DE","baing_meta":{"reason":"Intricate time-travel mystery.","query":""}},
		{"name":"Fleabag","first_air_date":"2016-07-21","language":"en-GB","baing_meta":{"reason":"Short, sharp comedy.","query":""}}
	]}`,
	"recommend_yt_channels": `{"yt_channels":[
		{"name":"Good Mythical Morning","channel_id":"UC4PooiX37Pld1T8J5SYT-SQ","description":"Rhett and Link host a comedic variety show of bizarre challenges and food experiments.","language":"en-US","baing_meta":{"reason":"Diverse content suitable for watching with family.","query":""}},
		{"name":"BuzzFeedVideo","channel_id":"UCpko_-a4wgz2u_DgDgd9fqA","description":"Recipes, sketches and challenges for quick entertainment.","language":"en-US","baing_meta":{"reason":"Short-format entertainment.","query":""}},
		{"name":"Tasty","channel_id":"UCJFp8uSYCjXOMnkUyb3CQ3Q","description":"Recipes and food hacks in short videos.","language":"en-US","baing_meta":{"reason":"Quick, family-friendly cooking.","query":""}}
	]}`,
	"recommend_online_content": `{"online_content":[
		{"name":"Stratechery","description":"Analysis of the strategy and business side of technology.","url":"https://stratechery.com","language":"en-US","tags":["tech","business"],"baing_meta":{"reason":"Thoughtful long-form analysis.","query":""}},
		{"name":"Radiolab","description":"Investigations into science and philosophy.","url":"https://radiolab.org","language":"en-US","tags":["podcast","science"],"baing_meta":{"reason":"Curiosity-driven storytelling.","query":""}}
	]}`,
}

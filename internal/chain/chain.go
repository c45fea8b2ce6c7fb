// Package chain composes prompt templates, chat models, and output
// parsers into runnable pipelines.
package chain

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"loom/internal/llm"
	"loom/internal/logging"
	"loom/internal/parser"
	"loom/internal/prompt"
)

// Runnable is a pipeline step that maps named inputs to a text output.
type Runnable interface {
	Invoke(ctx context.Context, values map[string]string) (string, error)
}

// Chain wires a single-turn pipeline: format the template, call the
// model, parse the reply.
type Chain struct {
	template *prompt.Template
	model    llm.Client
	parser   parser.Parser
	schema   *parser.Schema
	logger   *zap.Logger
}

// Option configures a Chain.
type Option func(*Chain)

// WithParser sets the output parser. Defaults to StringParser.
func WithParser(p parser.Parser) Option {
	return func(c *Chain) { c.parser = p }
}

// WithSchema requests structured JSON output. Providers that enforce
// schemas at the API level get the schema directly; everyone else gets
// format instructions appended to the prompt. The reply is parsed and
// validated against the schema.
func WithSchema(s *parser.Schema) Option {
	return func(c *Chain) {
		c.schema = s
		c.parser = parser.StructuredParser{Schema: s}
	}
}

// New builds a chain from a template and a model.
func New(template *prompt.Template, model llm.Client, opts ...Option) *Chain {
	c := &Chain{
		template: template,
		model:    model,
		parser:   parser.StringParser{},
		logger:   logging.For(logging.CategoryChain),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run executes the chain and returns the parsed output. Values beyond
// the template's declared variables are ignored, so accumulated
// sequence outputs can flow through untouched.
func (c *Chain) Run(ctx context.Context, values map[string]string) (any, error) {
	selected := make(map[string]string, len(c.template.InputVariables))
	for _, name := range c.template.InputVariables {
		if v, ok := values[name]; ok {
			selected[name] = v
		}
	}

	text, err := c.template.Format(selected)
	if err != nil {
		return nil, fmt.Errorf("format prompt: %w", err)
	}

	start := time.Now()
	raw, err := c.complete(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("model call failed: %w", err)
	}
	c.logger.Debug("chain step complete",
		zap.String("template", c.template.Name),
		zap.String("parser", c.parser.Name()),
		zap.Duration("elapsed", time.Since(start)))

	out, err := c.parser.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse reply: %w", err)
	}
	return out, nil
}

func (c *Chain) complete(ctx context.Context, text string) (string, error) {
	if c.schema != nil {
		if sc, ok := c.model.(llm.StructuredClient); ok {
			reply, err := sc.ChatStructured(ctx,
				[]prompt.Message{prompt.UserMessage(text)}, c.schema.JSONSchema())
			if err != nil {
				return "", err
			}
			return reply.Content, nil
		}
		text = text + "\n\n" + c.schema.Instructions()
	}
	return c.model.Complete(ctx, text)
}

// Invoke runs the chain and renders the parsed output as text, so
// chains compose into sequences.
func (c *Chain) Invoke(ctx context.Context, values map[string]string) (string, error) {
	out, err := c.Run(ctx, values)
	if err != nil {
		return "", err
	}
	return parser.Render(out)
}

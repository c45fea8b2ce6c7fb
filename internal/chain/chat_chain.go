package chain

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"loom/internal/llm"
	"loom/internal/logging"
	"loom/internal/prompt"
	"loom/internal/session"
)

// ChatChain runs a chat template against a model, optionally carrying
// conversation history through a session so follow-up calls see prior
// turns.
type ChatChain struct {
	template *prompt.ChatTemplate
	model    llm.Client
	session  *session.Session
	logger   *zap.Logger
}

// NewChat builds a chat chain. A nil session makes every call
// single-shot.
func NewChat(template *prompt.ChatTemplate, model llm.Client, sess *session.Session) *ChatChain {
	return &ChatChain{
		template: template,
		model:    model,
		session:  sess,
		logger:   logging.For(logging.CategoryChain),
	}
}

// Run formats the template, sends the conversation to the model, and
// returns the reply. With a session attached, formatted messages and
// the reply are recorded so the next Run continues the conversation.
func (c *ChatChain) Run(ctx context.Context, values map[string]string) (string, error) {
	selected := make(map[string]string)
	for _, name := range c.template.InputVariables() {
		if v, ok := values[name]; ok {
			selected[name] = v
		}
	}

	formatted, err := c.template.Format(selected)
	if err != nil {
		return "", fmt.Errorf("format chat prompt: %w", err)
	}

	var messages []prompt.Message
	if c.session != nil {
		for _, msg := range formatted {
			if err := c.session.Append(ctx, msg); err != nil {
				return "", err
			}
		}
		messages = c.session.Messages()
	} else {
		messages = formatted
	}

	reply, err := c.model.Chat(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("model call failed: %w", err)
	}
	c.logger.Debug("chat turn complete",
		zap.String("model", reply.Model),
		zap.Int("history", len(messages)),
		zap.Int("total_tokens", reply.Usage.TotalTokens))

	if c.session != nil {
		if err := c.session.Append(ctx, prompt.AssistantMessage(reply.Content)); err != nil {
			return "", err
		}
	}
	return reply.Content, nil
}

// Invoke satisfies Runnable.
func (c *ChatChain) Invoke(ctx context.Context, values map[string]string) (string, error) {
	return c.Run(ctx, values)
}

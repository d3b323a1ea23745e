// Package llmtest provides a scripted llm.Client for tests.
package llmtest

import (
	"context"
	"strings"
	"sync"

	"github.com/sankalp-ai/sankalp/internal/llm"
)

// Rule answers prompts that contain Match. An empty Match answers every prompt.
type Rule struct {
	Match    string
	Response string
	Err      error
}

// Client is a fake llm.Client. Rules are checked in order; the first match wins.
type Client struct {
	mu      sync.Mutex
	rules   []Rule
	prompts []string
	closed  bool
}

var _ llm.Client = (*Client)(nil)

// New creates a fake client with the given rules.
func New(rules ...Rule) *Client {
	return &Client{rules: rules}
}

// Respond returns a client that answers every prompt with response.
func Respond(response string) *Client {
	return New(Rule{Response: response})
}

// Fail returns a client that fails every call with err.
func Fail(err error) *Client {
	return New(Rule{Err: err})
}

// On appends a rule and returns the client for chaining.
func (c *Client) On(match, response string) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rules = append(c.rules, Rule{Match: match, Response: response})
	return c
}

// OnError appends a failing rule and returns the client for chaining.
func (c *Client) OnError(match string, err error) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rules = append(c.rules, Rule{Match: match, Err: err})
	return c
}

// GenerateContent implements llm.Client.
func (c *Client) GenerateContent(ctx context.Context, prompt string, _ llm.ModelTier) (string, error) {
	c.mu.Lock()
	c.prompts = append(c.prompts, prompt)
	rules := c.rules
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	for _, r := range rules {
		if r.Match == "" || strings.Contains(prompt, r.Match) {
			return r.Response, r.Err
		}
	}
	return "", nil
}

// GetModel implements llm.Client.
func (c *Client) GetModel(tier llm.ModelTier) string {
	return "fake-" + string(tier)
}

// Close implements llm.Client.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Calls returns how many prompts the client has received.
func (c *Client) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.prompts)
}

// Prompts returns a copy of every prompt received, in call order.
func (c *Client) Prompts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.prompts...)
}

// Closed reports whether Close was called.
func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

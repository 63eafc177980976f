// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package moderation pre-screens pending posts with a hosted moderation
// API so admins see flagged content first. A result never approves a
// post; approval stays a manual admin decision.
package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"
)

// Result is the outcome of screening one text.
type Result struct {
	Flagged    bool     `json:"flagged"`
	Categories []string `json:"categories,omitempty"`
	Provider   string   `json:"provider"`
}

// Screener checks text for policy violations.
type Screener interface {
	Screen(ctx context.Context, text string) (*Result, error)
}

// Config holds the credentials for the supported providers. Empty keys
// disable a provider.
type Config struct {
	OpenAIKey      string
	OpenAIBaseURL  string
	MistralKey     string
	MistralBaseURL string
}

// New returns a Screener for the configured providers, or nil when no
// provider has a key. With both keys set, OpenAI is tried first and
// Mistral is used when the OpenAI call fails.
func New(cfg Config) Screener {
	var chain fallback
	if cfg.OpenAIKey != "" {
		chain = append(chain, newOpenAI(cfg.OpenAIKey, cfg.OpenAIBaseURL))
	}
	if cfg.MistralKey != "" {
		chain = append(chain, newMistral(cfg.MistralKey, cfg.MistralBaseURL))
	}
	switch len(chain) {
	case 0:
		return nil
	case 1:
		return chain[0]
	}
	return chain
}

// fallback tries each screener in order and returns the first success.
type fallback []Screener

func (f fallback) Screen(ctx context.Context, text string) (*Result, error) {
	var errs []error
	for _, s := range f {
		res, err := s.Screen(ctx, text)
		if err == nil {
			return res, nil
		}
		slog.Warn("moderation provider failed, trying next", "error", err)
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}

// client is the HTTP plumbing shared by both providers. They expose the
// same request shape at different paths.
type client struct {
	name   string
	apiKey string
	url    string
	model  string
	http   *http.Client
}

func (c *client) post(ctx context.Context, text string, out any) error {
	payload, err := json.Marshal(modRequest{Model: c.model, Input: text})
	if err != nil {
		return fmt.Errorf("%s moderation marshal: %w", c.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s moderation request: %w", c.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s moderation http: %w", c.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s moderation read body: %w", c.name, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s moderation API error (status %d): %s", c.name, resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s moderation unmarshal: %w", c.name, err)
	}
	return nil
}

// openAI uses the free OpenAI moderation endpoint.
type openAI struct{ client }

func newOpenAI(apiKey, baseURL string) *openAI {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &openAI{client{
		name:   "openai",
		apiKey: apiKey,
		url:    strings.TrimRight(baseURL, "/") + "/moderations",
		model:  "omni-moderation-latest",
		http:   &http.Client{Timeout: 15 * time.Second},
	}}
}

func (m *openAI) Screen(ctx context.Context, text string) (*Result, error) {
	var resp modResponse
	if err := m.post(ctx, text, &resp); err != nil {
		return nil, err
	}
	res := &Result{Provider: m.name}
	if len(resp.Results) == 0 || !resp.Results[0].Flagged {
		return res, nil
	}
	res.Flagged = true
	res.Categories = categoryNames(resp.Results[0].Categories)
	return res, nil
}

// mistral has no top-level flag; any flagged category marks the text.
type mistral struct{ client }

func newMistral(apiKey, baseURL string) *mistral {
	if baseURL == "" {
		baseURL = "https://api.mistral.ai"
	}
	return &mistral{client{
		name:   "mistral",
		apiKey: apiKey,
		url:    strings.TrimRight(baseURL, "/") + "/v1/moderations",
		model:  "mistral-moderation-latest",
		http:   &http.Client{Timeout: 15 * time.Second},
	}}
}

func (m *mistral) Screen(ctx context.Context, text string) (*Result, error) {
	var resp modResponse
	if err := m.post(ctx, text, &resp); err != nil {
		return nil, err
	}
	res := &Result{Provider: m.name}
	if len(resp.Results) == 0 {
		return res, nil
	}
	res.Categories = categoryNames(resp.Results[0].Categories)
	res.Flagged = len(res.Categories) > 0
	return res, nil
}

// categoryNames turns "hate/threatening" into "hate (threatening)" and
// "self_harm" into "self harm", sorted for stable output.
func categoryNames(cats map[string]bool) []string {
	var out []string
	for cat, flagged := range cats {
		if !flagged {
			continue
		}
		name := cat
		if base, sub, ok := strings.Cut(cat, "/"); ok {
			name = base + " (" + sub + ")"
		}
		out = append(out, strings.ReplaceAll(name, "_", " "))
	}
	sort.Strings(out)
	return out
}

type modRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type modResponse struct {
	Results []modResult `json:"results"`
}

type modResult struct {
	Flagged    bool            `json:"flagged"`
	Categories map[string]bool `json:"categories"`
}

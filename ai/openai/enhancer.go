// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package openai

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/poiesic/taskquery/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Enhancer implements ai.Enhancer using OpenAI-compatible chat APIs.
type Enhancer struct {
	client    llms.Model
	threshold float64
	logger    *slog.Logger
}

// newEnhancer is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newEnhancer(config *ai.Config) (*Enhancer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken(config.Token),
		openai.WithModel(config.Model),
	)
	if err != nil {
		return nil, err
	}
	return newEnhancerWithModel(client, config.ConfidenceThreshold), nil
}

func newEnhancerWithModel(client llms.Model, threshold float64) *Enhancer {
	return &Enhancer{
		client:    client,
		threshold: threshold,
		logger:    slog.Default().With("component", "openai-enhancer"),
	}
}

// NewEnhancer creates a new query enhancer using the provided configuration.
//
// Returns ai.Enhancer interface to enforce abstraction.
func NewEnhancer(config *ai.Config) (ai.Enhancer, error) {
	return newEnhancer(config)
}

// Enhance asks the model to interpret query. It makes exactly one request.
func (e *Enhancer) Enhance(ctx context.Context, query string, languages []string, timeout time.Duration) (*ai.PartialParsedQuery, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(buildSystemPrompt(languages))},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(cleanQuery(query))},
		},
	}

	started := time.Now()
	response, err := e.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
	if err != nil {
		failure := classifyError(ctx, err)
		e.logger.Warn("enhancement request failed", "kind", failure.Kind, "elapsed", time.Since(started), "err", err)
		return nil, failure
	}
	if len(response.Choices) < 1 {
		return nil, ai.NewFailure(ai.FailureMalformed, errors.New("no choices returned from model"))
	}

	responseText := repairJSON(stripCodeFence(response.Choices[0].Content))

	var result ai.PartialParsedQuery
	if err := json.Unmarshal([]byte(responseText), &result); err != nil {
		e.logger.Warn("error parsing enhancer response", "response", responseText, "err", err)
		return nil, ai.NewFailure(ai.FailureMalformed, err)
	}
	if err := ai.CheckConfidence(&result, e.threshold); err != nil {
		e.logger.Debug("discarding low confidence enhancement", "err", err)
		return nil, err
	}

	e.logger.Debug("enhanced query",
		"keywords", len(result.Keywords),
		"elapsed", time.Since(started))
	return &result, nil
}

// classifyError maps a transport error to a failure kind using the state
// of the request context.
func classifyError(ctx context.Context, err error) *ai.Failure {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return ai.NewFailure(ai.FailureTimeout, err)
	case errors.Is(ctx.Err(), context.Canceled), errors.Is(err, context.Canceled):
		return ai.NewFailure(ai.FailureCancelled, err)
	}
	return ai.NewFailure(ai.FailureProvider, err)
}

package llm

import (
	"context"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"
)

// OpenAIClient sends prompts through the OpenAI Responses API.
type OpenAIClient struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIClient creates an OpenAI backend.
func NewOpenAIClient(apiKey, model string, timeout time.Duration) *OpenAIClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &OpenAIClient{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		model:   model,
		timeout: timeout,
	}
}

// Generate returns the aggregated output text of the response.
func (c *OpenAIClient) Generate(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	response, err := c.client.Responses.New(ctx, responses.ResponseNewParams{
		Model: shared.ResponsesModel(c.model),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: responses.ResponseInputParam{
				responses.ResponseInputItemParamOfMessage(
					responses.ResponseInputMessageContentListParam{
						responses.ResponseInputContentParamOfInputText(req.Prompt),
					},
					"user",
				),
			},
		},
	})
	if err != nil {
		return "", &CallError{Page: req.Page, Label: req.Label, Err: err}
	}

	text := response.OutputText()
	if text == "" {
		return "", &UnknownReplyFormatError{Page: req.Page, Label: req.Label, Excerpt: "no output text in OpenAI reply"}
	}
	return text, nil
}

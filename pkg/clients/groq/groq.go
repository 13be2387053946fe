// Package groq wraps the Groq OpenAI-compatible chat completions API used
// as the forecast report generator.
package groq

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	apiURL       = "https://api.groq.com/openai/v1/chat/completions"
	defaultModel = "llama-3.1-8b-instant"
)

// Client defines the forecast text generation contract. Given a prepared
// data summary it returns the report text, or an empty string when the model
// produced nothing usable.
type Client interface {
	GenerateReport(ctx context.Context, dataSummary string) (string, error)
}

const systemPrompt = "You are a forecast generator. You will be given data. " +
	"Your task is to turn it into a 3-part report. Use these exact headings: " +
	"'### Price Forecast', '### Market-Risk Forecast', '### Strategic Opportunity Forecast'. " +
	"Under the last heading, provide exactly 5 short tips."

type groqClient struct {
	httpClient *resty.Client
	model      string
}

// NewClient creates a configured Groq client. Model falls back to the
// default when empty.
func NewClient(apiKey, model string) Client {
	if model == "" {
		model = defaultModel
	}

	client := resty.New().
		SetHeader("Authorization", "Bearer "+apiKey).
		SetHeader("content-type", "application/json").
		SetTimeout(30 * time.Second)

	return &groqClient{httpClient: client, model: model}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// GenerateReport asks the model to turn the data summary into the 3-part
// forecast report.
func (c *groqClient) GenerateReport(ctx context.Context, dataSummary string) (string, error) {
	reqBody := completionRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: "Generate the report for this data:\n" + dataSummary},
		},
	}

	var respBody completionResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(reqBody).
		SetResult(&respBody).
		Post(apiURL)

	if err != nil {
		return "", fmt.Errorf("groq api call: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("groq api error: %s", resp.String())
	}
	if len(respBody.Choices) == 0 {
		return "", nil
	}

	return strings.TrimSpace(respBody.Choices[0].Message.Content), nil
}

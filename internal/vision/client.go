package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"zentasks/verification-backend/internal/config"
)

const toolName = "verify_task_completion"

const systemPrompt = "You are a task completion verifier. Analyze the uploaded image " +
	"and determine if it proves completion of the given task. Use the " +
	"verify_task_completion function to return your assessment."

// Client calls the vision model gateway with a forced structured tool
// invocation and returns the decoded assessment.
type Client interface {
	ReviewProof(ctx context.Context, req ProofReviewRequest) (*ProofReview, error)
}

type httpClient struct {
	cfg  config.VisionConfig
	http *http.Client
	log  *zap.Logger
}

func NewClient(cfg config.VisionConfig, log *zap.Logger) Client {
	return &httpClient{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log,
	}
}

func (c *httpClient) ReviewProof(ctx context.Context, req ProofReviewRequest) (*ProofReview, error) {
	body, err := json.Marshal(c.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("failed to encode gateway request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.GatewayURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("vision gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("vision gateway error: %s", string(respBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode gateway response: %w", err)
	}

	return c.extractReview(parsed)
}

func (c *httpClient) buildRequest(req ProofReviewRequest) chatRequest {
	description := req.TaskDescription
	if description == "" {
		description = "No description provided"
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s",
		contentType, base64.StdEncoding.EncodeToString(req.ImageData))

	userText := fmt.Sprintf("Verify if this image proves completion of the task.\n\n"+
		"Task Title: %s\nTask Description: %s\n\n"+
		"Rate how well this image demonstrates task completion on a scale of 0-10. Consider:\n"+
		"- Is the image relevant to the task?\n"+
		"- Does it show clear evidence of completion?\n"+
		"- Is the work quality apparent from the image?",
		req.TaskTitle, description)

	return chatRequest{
		Model: c.cfg.Model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: userText},
				{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
			}},
		},
		Tools: []tool{{
			Type: "function",
			Function: function{
				Name:        toolName,
				Description: "Verify task completion based on the uploaded image",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"rating": map[string]any{
							"type":        "number",
							"description": "Rating from 0-10 on how well the image proves task completion",
						},
						"feedback": map[string]any{
							"type":        "string",
							"description": "Detailed feedback about the verification",
						},
						"relevance": map[string]any{
							"type":        "string",
							"enum":        []string{"high", "medium", "low", "none"},
							"description": "How relevant the image is to the task",
						},
						"completeness": map[string]any{
							"type":        "string",
							"enum":        []string{"complete", "partial", "minimal", "unrelated"},
							"description": "Level of task completion shown",
						},
					},
					"required": []string{"rating", "feedback", "relevance", "completeness"},
				},
			},
		}},
		ToolChoice: &toolChoice{
			Type:     "function",
			Function: toolChoiceName{Name: toolName},
		},
	}
}

func (c *httpClient) extractReview(parsed chatResponse) (*ProofReview, error) {
	if len(parsed.Choices) == 0 {
		return &ProofReview{}, nil
	}
	msg := parsed.Choices[0].Message
	review := &ProofReview{Content: msg.Content}

	if len(msg.ToolCalls) == 0 {
		c.log.Warn("Gateway returned no tool call, falling back to content")
		return review, nil
	}

	assessment, err := decodeArguments(msg.ToolCalls[0].Function.Arguments)
	if err != nil {
		c.log.Warn("Failed to decode tool call arguments", zap.Error(err))
		return review, nil
	}
	review.Assessment = assessment
	return review, nil
}

// decodeArguments resolves the string-or-object shape of tool call arguments
// exactly once. Both encodings of the same content yield identical results.
func decodeArguments(raw json.RawMessage) (*Assessment, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '"' {
		var encoded string
		if err := json.Unmarshal(trimmed, &encoded); err != nil {
			return nil, err
		}
		trimmed = []byte(encoded)
	}
	var a Assessment
	if err := json.Unmarshal(trimmed, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

package vision

import "encoding/json"

// Assessment holds the structured fields the model returns through the
// verify_task_completion tool call. Values are raw model output; callers
// must normalize before trusting them.
type Assessment struct {
	Rating       float64 `json:"rating"`
	Feedback     string  `json:"feedback"`
	Relevance    string  `json:"relevance"`
	Completeness string  `json:"completeness"`
}

// ProofReviewRequest carries one proof image plus the task metadata the
// model needs to judge it.
type ProofReviewRequest struct {
	TaskTitle       string
	TaskDescription string
	ImageData       []byte
	ContentType     string
}

// ProofReview is the gateway outcome. Assessment is nil when the model
// produced no tool call; Content then carries the raw assistant text.
type ProofReview struct {
	Assessment *Assessment
	Content    string
}

// chat-completion wire types

type chatRequest struct {
	Model      string      `json:"model"`
	Messages   []message   `json:"messages"`
	Tools      []tool      `json:"tools"`
	ToolChoice *toolChoice `json:"tool_choice,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type tool struct {
	Type     string   `json:"type"`
	Function function `json:"function"`
}

type function struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type toolChoice struct {
	Type     string         `json:"type"`
	Function toolChoiceName `json:"function"`
}

type toolChoiceName struct {
	Name string `json:"name"`
}

type chatResponse struct {
	Choices []choice `json:"choices"`
}

type choice struct {
	Message responseMessage `json:"message"`
}

type responseMessage struct {
	Content   string     `json:"content"`
	ToolCalls []toolCall `json:"tool_calls"`
}

type toolCall struct {
	Function functionCall `json:"function"`
}

type functionCall struct {
	Name string `json:"name"`
	// Arguments may arrive as a JSON object or as a JSON-encoded string,
	// depending on the upstream provider. Kept raw until decodeArguments.
	Arguments json.RawMessage `json:"arguments"`
}

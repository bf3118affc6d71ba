package proofclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TaskInfo is the minimal task metadata sent with a proof.
type TaskInfo struct {
	ID          string
	Title       string
	Description string
}

// Result mirrors the service's verification response.
type Result struct {
	ID           string `json:"id"`
	Rating       int    `json:"rating"`
	Feedback     string `json:"feedback"`
	Relevance    string `json:"relevance"`
	Completeness string `json:"completeness"`
	ImagePath    string `json:"imagePath"`
}

// Client transmits a captured proof to the verification service. Progress is
// a synthetic approximation of the call's lifetime, not a byte-transfer
// measurement.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *zap.Logger

	mu         sync.Mutex
	inProgress bool
	progress   int
}

func NewClient(baseURL, token string, log *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 120 * time.Second},
		log:     log,
	}
}

// VerifyTaskProof issues one verification call. Network and service errors
// are logged and surfaced as a nil result; the caller stays free to retry.
func (c *Client) VerifyTaskProof(ctx context.Context, file ProofFile, task TaskInfo) *Result {
	c.startProgress()
	defer c.finishProgress()

	result, err := c.doVerify(ctx, file, task)
	if err != nil {
		c.log.Error("Task proof verification failed",
			zap.String("task_id", task.ID),
			zap.Error(err))
		return nil
	}
	return result
}

// InProgress reports whether a verification call is running.
func (c *Client) InProgress() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inProgress
}

// Progress returns the coarse progress value in [0,100]. Approximate only.
func (c *Client) Progress() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progress
}

func (c *Client) doVerify(ctx context.Context, file ProofFile, task TaskInfo) (*Result, error) {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="image"; filename=%q`, file.Name))
	header.Set("Content-Type", file.ContentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, err
	}
	if err := writer.WriteField("taskId", task.ID); err != nil {
		return nil, err
	}
	if err := writer.WriteField("taskTitle", task.Title); err != nil {
		return nil, err
	}
	if task.Description != "" {
		if err := writer.WriteField("taskDescription", task.Description); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/verify-task-proof", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.token)

	c.advanceProgress(40)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	c.advanceProgress(80)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		var envelope struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(respBody, &envelope); err == nil && envelope.Error != "" {
			return nil, fmt.Errorf("verification service error: %s", envelope.Error)
		}
		return nil, fmt.Errorf("verification service returned status %d", resp.StatusCode)
	}

	var envelope struct {
		Success      bool    `json:"success"`
		Verification *Result `json:"verification"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode verification response: %w", err)
	}
	if !envelope.Success || envelope.Verification == nil {
		return nil, fmt.Errorf("verification response missing result")
	}

	return envelope.Verification, nil
}

func (c *Client) startProgress() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inProgress = true
	c.progress = 10
}

func (c *Client) advanceProgress(value int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if value > c.progress {
		c.progress = value
	}
}

func (c *Client) finishProgress() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inProgress = false
	c.progress = 100
}

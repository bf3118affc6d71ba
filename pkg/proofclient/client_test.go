package proofclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func proofFile() ProofFile {
	return ProofFile{
		Name:        "proof.jpg",
		ContentType: "image/jpeg",
		Data:        []byte{0xff, 0xd8, 0xff},
	}
}

func taskInfo() TaskInfo {
	return TaskInfo{ID: "t1", Title: "Clean desk", Description: "Tidy the workspace"}
}

func TestVerifyTaskProofSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/verify-task-proof", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		assert.NoError(t, r.ParseMultipartForm(32<<20))
		assert.Equal(t, "t1", r.FormValue("taskId"))
		assert.Equal(t, "Clean desk", r.FormValue("taskTitle"))
		assert.Equal(t, "Tidy the workspace", r.FormValue("taskDescription"))

		file, header, err := r.FormFile("image")
		assert.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "proof.jpg", header.Filename)
		assert.Equal(t, "image/jpeg", header.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"success":true,"verification":{"id":"abc","rating":8,"feedback":"nice","relevance":"high","completeness":"complete","imagePath":"u1/t1_1.jpg"}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token", zap.NewNop())
	result := client.VerifyTaskProof(context.Background(), proofFile(), taskInfo())

	assert.NotNil(t, result)
	assert.Equal(t, 8, result.Rating)
	assert.Equal(t, "high", result.Relevance)
	assert.Equal(t, "u1/t1_1.jpg", result.ImagePath)
	assert.False(t, client.InProgress())
	assert.Equal(t, 100, client.Progress())
}

func TestVerifyTaskProofServiceErrorYieldsNoResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, `{"error":"vision gateway error: quota exceeded"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token", zap.NewNop())
	result := client.VerifyTaskProof(context.Background(), proofFile(), taskInfo())

	assert.Nil(t, result)
	// the client stays usable for a retry
	assert.False(t, client.InProgress())
}

func TestVerifyTaskProofNetworkErrorYieldsNoResult(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "test-token", zap.NewNop())
	result := client.VerifyTaskProof(context.Background(), proofFile(), taskInfo())

	assert.Nil(t, result)
	assert.False(t, client.InProgress())
}

func TestVerifyTaskProofOmitsEmptyDescription(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseMultipartForm(32<<20))
		_, present := r.MultipartForm.Value["taskDescription"]
		assert.False(t, present)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"success":true,"verification":{"id":"abc","rating":5,"feedback":"ok","relevance":"medium","completeness":"partial","imagePath":"u1/t1_1.jpg"}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token", zap.NewNop())
	task := taskInfo()
	task.Description = ""
	result := client.VerifyTaskProof(context.Background(), proofFile(), task)

	assert.NotNil(t, result)
}

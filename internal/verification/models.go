package verification

import (
	"time"

	"github.com/google/uuid"
)

// Relevance is the categorical judgment of how pertinent the submitted
// evidence is to the task.
type Relevance string

const (
	RelevanceHigh   Relevance = "high"
	RelevanceMedium Relevance = "medium"
	RelevanceLow    Relevance = "low"
	RelevanceNone   Relevance = "none"
)

// Completeness is the categorical judgment of how thorough the evidence is.
type Completeness string

const (
	CompletenessComplete  Completeness = "complete"
	CompletenessPartial   Completeness = "partial"
	CompletenessMinimal   Completeness = "minimal"
	CompletenessUnrelated Completeness = "unrelated"
)

// ProofImage is the uploaded evidence payload. It lives only for the
// duration of one verification call.
type ProofImage struct {
	Data        []byte
	ContentType string
	Filename    string
	Size        int64
}

// VerifyProofRequest is the service input for one verification transaction.
type VerifyProofRequest struct {
	UserID          string
	TaskID          string
	TaskTitle       string
	TaskDescription string
	Image           ProofImage
}

// Result is the normalized model assessment. Rating is always an integer in
// [0,10] after normalization, regardless of upstream output.
type Result struct {
	Rating       int          `json:"rating"`
	Feedback     string       `json:"feedback"`
	Relevance    Relevance    `json:"relevance"`
	Completeness Completeness `json:"completeness"`
}

// Verification is the response returned to the upload client.
type Verification struct {
	ID           uuid.UUID    `json:"id"`
	Rating       int          `json:"rating"`
	Feedback     string       `json:"feedback"`
	Relevance    Relevance    `json:"relevance"`
	Completeness Completeness `json:"completeness"`
	ImagePath    string       `json:"imagePath"`
}

// Record is the persisted, immutable verification row. One row per
// successful verification call; rows are never updated or deleted.
type Record struct {
	ID              uuid.UUID `json:"id" db:"id"`
	UserID          string    `json:"user_id" db:"user_id"`
	TaskID          string    `json:"task_id" db:"task_id"`
	TaskTitle       string    `json:"task_title" db:"task_title"`
	TaskDescription *string   `json:"task_description,omitempty" db:"task_description"`
	ImagePath       string    `json:"image_path" db:"image_path"`
	AIRating        int       `json:"ai_rating" db:"ai_rating"`
	AIFeedback      string    `json:"ai_feedback" db:"ai_feedback"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// Summary aggregates a user's verification history for the work score card.
type Summary struct {
	AverageRating float64 `json:"average_rating" db:"average_rating"`
	VerifiedCount int     `json:"verified_count" db:"verified_count"`
}

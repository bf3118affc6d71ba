package verification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"zentasks/verification-backend/internal/storage"
	"zentasks/verification-backend/internal/vision"
)

// MaxImageSize is the largest accepted proof image (5 MiB).
const MaxImageSize = 5 * 1024 * 1024

const fallbackFeedback = "Verification completed"

type Service interface {
	VerifyProof(ctx context.Context, req VerifyProofRequest) (*Verification, error)
	GetProofImage(ctx context.Context, userID, id string) ([]byte, string, error)
	ListVerifications(ctx context.Context, userID string, taskID *string) ([]Record, error)
	GetSummary(ctx context.Context, userID string) (*Summary, error)
}

type verificationService struct {
	repo   Repository
	store  storage.ObjectStore
	vision vision.Client
	log    *zap.Logger
}

func NewService(repo Repository, store storage.ObjectStore, visionClient vision.Client, log *zap.Logger) Service {
	return &verificationService{
		repo:   repo,
		store:  store,
		vision: visionClient,
		log:    log,
	}
}

// VerifyProof runs one verification transaction: validate, store the blob,
// invoke the model, normalize, persist. Effects are strictly sequential and
// never compensated; a failed insert leaves the blob in place.
func (s *verificationService) VerifyProof(ctx context.Context, req VerifyProofRequest) (*Verification, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	imagePath := objectKey(req.UserID, req.TaskID, req.Image.Filename, time.Now())
	if err := s.store.Put(ctx, imagePath, req.Image.Data, req.Image.ContentType); err != nil {
		s.log.Error("Proof upload failed",
			zap.String("task_id", req.TaskID),
			zap.Error(err))
		return nil, storageFault(err)
	}

	review, err := s.vision.ReviewProof(ctx, vision.ProofReviewRequest{
		TaskTitle:       req.TaskTitle,
		TaskDescription: req.TaskDescription,
		ImageData:       req.Image.Data,
		ContentType:     req.Image.ContentType,
	})
	if err != nil {
		s.log.Error("Vision gateway call failed",
			zap.String("task_id", req.TaskID),
			zap.String("image_path", imagePath),
			zap.Error(err))
		return nil, gatewayFault(err)
	}

	result := normalizeReview(review)

	rec := &Record{
		ID:              uuid.New(),
		UserID:          req.UserID,
		TaskID:          req.TaskID,
		TaskTitle:       req.TaskTitle,
		TaskDescription: optionalString(req.TaskDescription),
		ImagePath:       imagePath,
		AIRating:        result.Rating,
		AIFeedback:      result.Feedback,
		CreatedAt:       time.Now(),
	}
	if err := s.repo.CreateVerification(ctx, rec); err != nil {
		s.log.Error("Verification insert failed, blob left in place",
			zap.String("task_id", req.TaskID),
			zap.String("image_path", imagePath),
			zap.Error(err))
		return nil, databaseFault(err)
	}

	return &Verification{
		ID:           rec.ID,
		Rating:       result.Rating,
		Feedback:     result.Feedback,
		Relevance:    result.Relevance,
		Completeness: result.Completeness,
		ImagePath:    imagePath,
	}, nil
}

// GetProofImage returns the stored proof bytes for one of the caller's own
// verifications, with a content type derived from the object key.
func (s *verificationService) GetProofImage(ctx context.Context, userID, id string) ([]byte, string, error) {
	verificationID, err := uuid.Parse(id)
	if err != nil {
		return nil, "", badRequest("invalid verification id %q", id)
	}

	rec, err := s.repo.GetVerification(ctx, userID, verificationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", notFound("verification not found")
		}
		return nil, "", databaseFault(err)
	}

	data, err := s.store.Get(ctx, rec.ImagePath)
	if err != nil {
		s.log.Error("Proof download failed",
			zap.String("image_path", rec.ImagePath),
			zap.Error(err))
		return nil, "", storageFault(err)
	}

	return data, contentTypeForKey(rec.ImagePath), nil
}

func (s *verificationService) ListVerifications(ctx context.Context, userID string, taskID *string) ([]Record, error) {
	return s.repo.ListVerifications(ctx, userID, taskID)
}

func (s *verificationService) GetSummary(ctx context.Context, userID string) (*Summary, error) {
	return s.repo.GetSummary(ctx, userID)
}

// validateRequest rejects incomplete or out-of-contract input before any
// side effect runs.
func validateRequest(req VerifyProofRequest) error {
	var missing []string
	if len(req.Image.Data) == 0 {
		missing = append(missing, "image")
	}
	if req.TaskID == "" {
		missing = append(missing, "taskId")
	}
	if req.TaskTitle == "" {
		missing = append(missing, "taskTitle")
	}
	if len(missing) > 0 {
		return badRequest("missing required fields: %s", strings.Join(missing, ", "))
	}
	if req.Image.Size > MaxImageSize || int64(len(req.Image.Data)) > MaxImageSize {
		return badRequest("image too large (max 5 MiB)")
	}
	if req.Image.ContentType != "" && !strings.HasPrefix(req.Image.ContentType, "image/") {
		return badRequest("unsupported content type %q", req.Image.ContentType)
	}
	return nil
}

// objectKey builds the write-once blob path {userId}/{taskId}_{epochMillis}.{ext}.
func objectKey(userID, taskID, filename string, now time.Time) string {
	ext := strings.TrimPrefix(path.Ext(filename), ".")
	if ext == "" {
		ext = "jpg"
	}
	return fmt.Sprintf("%s/%s_%d.%s", userID, taskID, now.UnixMilli(), ext)
}

// normalizeReview converts raw gateway output into a trusted Result. The
// schema declares every field required, but upstream output is re-validated
// and clamped regardless.
func normalizeReview(review *vision.ProofReview) Result {
	result := Result{
		Rating:       5,
		Feedback:     review.Content,
		Relevance:    RelevanceMedium,
		Completeness: CompletenessPartial,
	}
	if review.Assessment != nil {
		a := review.Assessment
		result.Rating = clampRating(a.Rating)
		result.Feedback = a.Feedback
		result.Relevance = normalizeRelevance(a.Relevance)
		result.Completeness = normalizeCompleteness(a.Completeness)
	}
	if result.Feedback == "" {
		result.Feedback = fallbackFeedback
	}
	return result
}

// clampRating rounds to the nearest integer and constrains to [0,10].
func clampRating(rating float64) int {
	r := int(math.Round(rating))
	if r < 0 {
		return 0
	}
	if r > 10 {
		return 10
	}
	return r
}

func normalizeRelevance(v string) Relevance {
	switch Relevance(v) {
	case RelevanceHigh, RelevanceMedium, RelevanceLow, RelevanceNone:
		return Relevance(v)
	}
	return RelevanceMedium
}

func normalizeCompleteness(v string) Completeness {
	switch Completeness(v) {
	case CompletenessComplete, CompletenessPartial, CompletenessMinimal, CompletenessUnrelated:
		return Completeness(v)
	}
	return CompletenessPartial
}

func contentTypeForKey(key string) string {
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

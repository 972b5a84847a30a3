package validation

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/georepo-validation/internal/domain"
	"github.com/georepo-validation/internal/domain/repository"
	"github.com/georepo-validation/internal/repository/layerfile"
	"github.com/georepo-validation/internal/usecase"
	"github.com/georepo-validation/internal/worker"
)

const (
	maxBatchSize    = 10
	emptyQueueSleep = 100 * time.Millisecond
)

// ValidationWorker consumes upload-validate events and runs the validation
// pipeline, then boundary matching when the event asks for it.
type ValidationWorker struct {
	*worker.BaseWorker
	streamRepo   repository.StreamRepository
	uploadRepo   repository.UploadRepository
	validationUC *usecase.ValidationUseCase
	matchingUC   *usecase.MatchingUseCase
	consumerName string
	maxRetries   int
}

// NewValidationWorker creates a new ValidationWorker.
func NewValidationWorker(
	streamRepo repository.StreamRepository,
	uploadRepo repository.UploadRepository,
	validationUC *usecase.ValidationUseCase,
	matchingUC *usecase.MatchingUseCase,
	consumerGroup string,
	maxRetries int,
	logger *zap.Logger,
) *ValidationWorker {
	hostname, _ := os.Hostname()
	consumerName := fmt.Sprintf("%s-%d", hostname, os.Getpid())

	return &ValidationWorker{
		BaseWorker:   worker.NewBaseWorker("boundary-validation", consumerGroup, logger),
		streamRepo:   streamRepo,
		uploadRepo:   uploadRepo,
		validationUC: validationUC,
		matchingUC:   matchingUC,
		consumerName: consumerName,
		maxRetries:   maxRetries,
	}
}

// Start runs the consume loop.
func (w *ValidationWorker) Start(ctx context.Context) error {
	logger := w.Logger()
	logger.Info("Starting ValidationWorker",
		zap.String("consumer_group", w.ConsumerGroup()),
		zap.String("consumer_name", w.consumerName),
		zap.Int("max_batch_size", maxBatchSize))

	if err := w.streamRepo.CreateConsumerGroup(ctx, domain.StreamUploadValidate, w.ConsumerGroup()); err != nil {
		logger.Error("Failed to create consumer group", zap.Error(err))
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	for {
		select {
		case <-w.StopChan():
			logger.Info("Worker stopped")
			return nil

		case <-ctx.Done():
			logger.Info("Context cancelled")
			return ctx.Err()

		default:
			processed, err := w.processBatch(ctx)
			if err != nil {
				logger.Error("Failed to process batch", zap.Error(err))
				time.Sleep(time.Second)
				continue
			}

			if processed == 0 {
				time.Sleep(emptyQueueSleep)
			}
		}
	}
}

// processBatch reads and handles up to maxBatchSize messages.
// Returns the number of messages consumed.
func (w *ValidationWorker) processBatch(ctx context.Context) (int, error) {
	logger := w.Logger()

	messages, err := w.streamRepo.ConsumeBatch(
		ctx,
		domain.StreamUploadValidate,
		w.ConsumerGroup(),
		w.consumerName,
		maxBatchSize,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to consume batch: %w", err)
	}

	if len(messages) == 0 {
		return 0, nil
	}

	logger.Info("Processing batch", zap.Int("message_count", len(messages)))

	for _, msg := range messages {
		event, err := w.parseMessage(msg)
		if err != nil {
			logger.Warn("Failed to parse message, skipping",
				zap.String("message_id", msg.ID),
				zap.Error(err))
			// Ack the broken message so it does not wedge the group.
			_ = w.streamRepo.AckMessage(ctx, domain.StreamUploadValidate, w.ConsumerGroup(), msg.ID)
			continue
		}

		if err := w.handleEvent(ctx, event); err != nil {
			logger.Error("Failed to handle validation event",
				zap.Int64("entity_upload_id", event.EntityUploadID),
				zap.Error(err))
			// The upload row already carries the error; ack so a retry
			// comes from a fresh event, not redelivery.
			if markErr := w.uploadRepo.MarkError(ctx, event.EntityUploadID, err.Error()); markErr != nil {
				logger.Error("Failed to mark upload errored",
					zap.Int64("entity_upload_id", event.EntityUploadID),
					zap.Error(markErr))
			}
		}

		if err := w.streamRepo.AckMessage(ctx, domain.StreamUploadValidate, w.ConsumerGroup(), msg.ID); err != nil {
			logger.Error("Failed to ack message",
				zap.String("message_id", msg.ID),
				zap.Error(err))
		}
	}

	return len(messages), nil
}

func (w *ValidationWorker) handleEvent(ctx context.Context, event *domain.UploadValidateEvent) error {
	logger := w.Logger()

	levels, err := layerfile.DiscoverLevelFiles(event.LayerDir)
	if err != nil {
		return fmt.Errorf("discover layer files: %w", err)
	}
	source := layerfile.NewGeoJSONSource(levels, layerfile.DefaultFieldMapping(), logger)

	summaries, status, err := w.validationUC.ValidateUpload(ctx, event.EntityUploadID, source)
	if err != nil {
		return fmt.Errorf("validate upload: %w", err)
	}
	if status == "" {
		// Already taken by another worker.
		return nil
	}

	logger.Info("Upload validated",
		zap.Int64("entity_upload_id", event.EntityUploadID),
		zap.String("status", status),
		zap.Int("levels", len(summaries)))

	if event.RunComparison && status == domain.UploadStatusValid {
		if err := w.matchingUC.RunComparison(ctx, event.EntityUploadID, false); err != nil {
			return fmt.Errorf("run comparison: %w", err)
		}
	}

	return nil
}

func (w *ValidationWorker) parseMessage(msg domain.StreamMessage) (*domain.UploadValidateEvent, error) {
	var event domain.UploadValidateEvent
	if err := json.Unmarshal([]byte(msg.Data), &event); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	if event.EntityUploadID == 0 {
		return nil, fmt.Errorf("event missing entity_upload_id")
	}
	return &event, nil
}

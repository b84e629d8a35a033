package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/erebos42/shortcut/internal/domain/entity"
	"github.com/erebos42/shortcut/internal/domain/port"
	"github.com/erebos42/shortcut/internal/infra/metrics"
	"github.com/erebos42/shortcut/internal/shortcut"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type DetectCutsUseCase struct {
	repo      port.JobRepository
	storage   port.VideoStorage
	prober    port.VideoProber
	scanner   *shortcut.Shortcut
	keyframes port.KeyframeWriter
	zipper    port.Zipper
	encoder   port.ReportEncoder
	publisher port.StatusPublisher
	dlq       port.DLQPublisher
	notifier  port.FailureNotifier
	live      port.CutBroadcaster
	logger    *zap.Logger
	cfg       DetectCutsConfig
}

type DetectCutsConfig struct {
	TempDir          string
	MaxRetries       int
	DecodeTimeout    time.Duration
	KeyframesEnabled bool
	Metric           string
}

type DetectCutsDeps struct {
	Repo      port.JobRepository
	Storage   port.VideoStorage
	Prober    port.VideoProber
	Scanner   *shortcut.Shortcut
	Keyframes port.KeyframeWriter
	Zipper    port.Zipper
	Encoder   port.ReportEncoder
	Publisher port.StatusPublisher
	DLQ       port.DLQPublisher
	Notifier  port.FailureNotifier
	Live      port.CutBroadcaster
}

func NewDetectCutsUseCase(deps DetectCutsDeps, logger *zap.Logger, cfg DetectCutsConfig) *DetectCutsUseCase {
	return &DetectCutsUseCase{
		repo:      deps.Repo,
		storage:   deps.Storage,
		prober:    deps.Prober,
		scanner:   deps.Scanner,
		keyframes: deps.Keyframes,
		zipper:    deps.Zipper,
		encoder:   deps.Encoder,
		publisher: deps.Publisher,
		dlq:       deps.DLQ,
		notifier:  deps.Notifier,
		live:      deps.Live,
		logger:    logger,
		cfg:       cfg,
	}
}

func (uc *DetectCutsUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "DetectCutsUseCase.Execute")
	defer span.End()

	totalTimer := time.Now()

	var msg entity.CutDetectionMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal message", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		metrics.JobsProcessedTotal.WithLabelValues("dlq").Inc()
		return nil
	}

	span.SetAttributes(
		attribute.String("job.id", msg.JobID.String()),
		attribute.String("job.video_key", msg.VideoKey),
	)

	log := uc.logger.With(zap.String("job_id", msg.JobID.String()), zap.String("video_key", msg.VideoKey))

	job, err := uc.repo.FindByID(ctx, msg.JobID)
	if err != nil {
		job = entity.NewJob(msg.UserID, msg.VideoKey, msg.FileSize, uc.cfg.MaxRetries)
		job.ID = msg.JobID
		if err := uc.repo.Create(ctx, job); err != nil {
			log.Error("failed to create job record", zap.Error(err))
			return fmt.Errorf("create job: %w", err)
		}
	}

	if job.Status == entity.JobStatusCompleted {
		log.Info("job already completed, skipping redelivery")
		return nil
	}

	if !job.CanRetry() {
		log.Warn("job exhausted retries, sending to DLQ")
		_ = uc.handlePermanentFailure(ctx, job, msg, rawMsg, "max retries exceeded")
		return nil
	}

	job.MarkProcessing()
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to PROCESSING", zap.Error(err))
		return fmt.Errorf("update job: %w", err)
	}

	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	if err := uc.detectCutsPipeline(ctx, job, msg, rawMsg, log); err != nil {
		return err
	}

	if job.Status == entity.JobStatusCompleted {
		metrics.JobsProcessedTotal.WithLabelValues("completed").Inc()
		metrics.JobProcessingDuration.WithLabelValues("total").Observe(time.Since(totalTimer).Seconds())
	}
	return nil
}

func (uc *DetectCutsUseCase) detectCutsPipeline(
	ctx context.Context,
	job *entity.Job,
	msg entity.CutDetectionMessage,
	rawMsg []byte,
	log *zap.Logger,
) error {
	tracer := otel.Tracer("usecase")

	workDir := filepath.Join(uc.cfg.TempDir, job.ID.String())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return fmt.Errorf("create workdir: %w", err)
	}
	defer os.RemoveAll(workDir)

	// Download video from MinIO
	dlStart := time.Now()
	ctx2, spanDl := tracer.Start(ctx, "download_video")
	videoPath := filepath.Join(workDir, "input"+videoExt(msg.VideoKey))
	if err := uc.storage.DownloadVideo(ctx2, msg.VideoKey, videoPath); err != nil {
		spanDl.End()
		log.Error("failed to download video", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "download_video: "+err.Error(), log)
	}
	spanDl.End()
	metrics.JobProcessingDuration.WithLabelValues("download").Observe(time.Since(dlStart).Seconds())

	duration, err := uc.prober.Duration(ctx, videoPath)
	if err != nil {
		log.Warn("could not get video duration", zap.Error(err))
	}

	// Scan for cuts
	scanStart := time.Now()
	ctx3, spanScan := tracer.Start(ctx, "scan_cuts")
	keyframeDir := filepath.Join(workDir, "keyframes")
	if err := os.MkdirAll(keyframeDir, 0755); err != nil {
		spanScan.End()
		return fmt.Errorf("create keyframes dir: %w", err)
	}
	scan, err := uc.scan(ctx3, job, videoPath, keyframeDir, log)
	spanScan.SetAttributes(
		attribute.Int("scan.frames", scan.frames),
		attribute.Int("scan.cuts", len(scan.cuts)),
	)
	spanScan.End()
	if err != nil {
		log.Error("cut scan failed", zap.Error(err), zap.Int("frames_decoded", scan.frames))
		if errors.Is(err, entity.ErrInvalidConfig) || errors.Is(err, entity.ErrConfigMismatch) {
			return uc.handlePermanentFailure(ctx, job, msg, rawMsg, "scan_cuts: "+err.Error())
		}
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "scan_cuts: "+err.Error(), log)
	}
	metrics.JobProcessingDuration.WithLabelValues("scan").Observe(time.Since(scanStart).Seconds())

	if err := uc.repo.SaveCuts(ctx, job.ID, scan.cuts); err != nil {
		log.Error("failed to store cuts", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "save_cuts: "+err.Error(), log)
	}

	// Upload report and keyframes to MinIO
	upStart := time.Now()
	ctx4, spanUp := tracer.Start(ctx, "upload_results")
	reportKey, err := uc.uploadReport(ctx4, job, scan, duration)
	if err != nil {
		spanUp.End()
		log.Error("report upload failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "upload_report: "+err.Error(), log)
	}
	keyframesKey, err := uc.uploadKeyframes(ctx4, job, scan.keyframePaths, workDir)
	if err != nil {
		spanUp.End()
		log.Error("keyframes upload failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "upload_keyframes: "+err.Error(), log)
	}
	spanUp.End()
	metrics.JobProcessingDuration.WithLabelValues("upload").Observe(time.Since(upStart).Seconds())

	// Mark completed
	job.MarkCompleted(entity.ScanResult{
		ReportKey:     reportKey,
		KeyframesKey:  keyframesKey,
		FrameCount:    scan.frames,
		CutCount:      len(scan.cuts),
		VideoDuration: duration,
	})
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to COMPLETED", zap.Error(err))
		return fmt.Errorf("update job completed: %w", err)
	}

	uc.publishStatus(ctx, job, log)

	log.Info("job completed successfully",
		zap.Int("frame_count", scan.frames),
		zap.Int("cut_count", len(scan.cuts)),
		zap.Float64("duration_secs", duration),
		zap.String("report_key", reportKey),
	)

	return nil
}

type scanOutcome struct {
	frames        int
	cuts          []entity.Cut
	keyframePaths []string
}

// scan drains the cut sequence, acting on every cut as soon as it arrives.
// Frame data is released once the keyframe is written so only the previous
// frame stays alive inside the scanner.
func (uc *DetectCutsUseCase) scan(ctx context.Context, job *entity.Job, videoPath, keyframeDir string, log *zap.Logger) (scanOutcome, error) {
	var out scanOutcome
	if uc.cfg.DecodeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.cfg.DecodeTimeout)
		defer cancel()
	}

	scanner := uc.scanner.With(shortcut.WithFrameObserver(func(*entity.Frame) {
		out.frames++
		metrics.FramesDecodedTotal.Inc()
	}))

	for cut, err := range scanner.Cuts(ctx, videoPath) {
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return out, fmt.Errorf("%w (%w)", err, ctxErr)
			}
			return out, err
		}
		metrics.CutsDetectedTotal.Inc()
		if uc.live != nil {
			uc.live.Broadcast(entity.CutEvent{
				JobID:      job.ID.String(),
				FrameIndex: cut.FrameIndex,
				Timestamp:  cut.Timestamp,
				Similarity: cut.Similarity,
			})
		}
		if uc.cfg.KeyframesEnabled {
			path, err := uc.keyframes.WriteKeyframe(keyframeDir, cut)
			if err != nil {
				log.Warn("keyframe not written", zap.Int("frame_index", cut.FrameIndex), zap.Error(err))
			} else {
				out.keyframePaths = append(out.keyframePaths, path)
			}
		}
		cut.Frame = nil
		out.cuts = append(out.cuts, cut)
	}
	return out, nil
}

func (uc *DetectCutsUseCase) uploadReport(ctx context.Context, job *entity.Job, scan scanOutcome, duration float64) (string, error) {
	cfg := uc.scanner.Config()
	rows := make([]entity.CutReportRow, 0, len(scan.cuts))
	for _, c := range scan.cuts {
		rows = append(rows, entity.CutReportRow{FrameIndex: c.FrameIndex, Timestamp: c.Timestamp, Similarity: c.Similarity})
	}
	data, contentType, ext, err := uc.encoder.Encode(entity.CutReport{
		JobID:         job.ID.String(),
		VideoKey:      job.VideoKey,
		Color:         string(cfg.Color),
		Width:         cfg.Width,
		Height:        cfg.Height,
		FrameRate:     uc.scanner.FrameRate(),
		Confidence:    uc.scanner.ConfidenceLevel(),
		Metric:        uc.cfg.Metric,
		FrameCount:    scan.frames,
		VideoDuration: duration,
		Cuts:          rows,
	})
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s/cuts_%s.%s", job.UserID, job.ID.String(), ext)
	if err := uc.storage.UploadResult(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return "", err
	}
	return key, nil
}

func (uc *DetectCutsUseCase) uploadKeyframes(ctx context.Context, job *entity.Job, paths []string, workDir string) (string, error) {
	if len(paths) == 0 {
		return "", nil
	}
	zipPath := filepath.Join(workDir, "keyframes.zip")
	if err := uc.zipper.CreateZip(ctx, paths, zipPath); err != nil {
		return "", fmt.Errorf("create zip: %w", err)
	}

	zipFile, err := os.Open(zipPath)
	if err != nil {
		return "", fmt.Errorf("open zip: %w", err)
	}
	defer zipFile.Close()
	zipStat, err := zipFile.Stat()
	if err != nil {
		return "", fmt.Errorf("stat zip: %w", err)
	}

	key := fmt.Sprintf("%s/keyframes_%s.zip", job.UserID, job.ID.String())
	if err := uc.storage.UploadResult(ctx, key, zipFile, zipStat.Size(), "application/zip"); err != nil {
		return "", err
	}
	return key, nil
}

func (uc *DetectCutsUseCase) handleRetryableFailure(
	ctx context.Context,
	job *entity.Job,
	msg entity.CutDetectionMessage,
	rawMsg []byte,
	errMsg string,
	log *zap.Logger,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	if !job.CanRetry() {
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, errMsg)
	}

	metrics.RetryTotal.WithLabelValues(strconv.Itoa(job.Attempt)).Inc()
	uc.publishStatus(ctx, job, log)

	return fmt.Errorf("retryable failure (attempt %d/%d): %s", job.Attempt, job.MaxAttempts, errMsg)
}

func (uc *DetectCutsUseCase) handlePermanentFailure(
	ctx context.Context,
	job *entity.Job,
	msg entity.CutDetectionMessage,
	rawMsg []byte,
	errMsg string,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	_ = uc.dlq.PublishToDLQ(ctx, rawMsg, errMsg)

	uc.publishStatus(ctx, job, uc.logger)

	metrics.JobsProcessedTotal.WithLabelValues("dlq").Inc()

	if msg.UserEmail != "" {
		_ = uc.notifier.NotifyFailure(ctx, msg.UserEmail, job.ID.String(), msg.VideoKey, errMsg)
	}

	return nil
}

func (uc *DetectCutsUseCase) publishStatus(ctx context.Context, job *entity.Job, log *zap.Logger) {
	statusMsg := entity.CutStatusMessage{
		JobID:        job.ID,
		UserID:       job.UserID,
		Status:       job.Status,
		VideoKey:     job.VideoKey,
		ReportKey:    job.ReportKey,
		KeyframesKey: job.KeyframesKey,
		FrameCount:   job.FrameCount,
		CutCount:     job.CutCount,
		Duration:     job.VideoDuration,
		ErrorMessage: job.ErrorMessage,
		Attempt:      job.Attempt,
		MaxAttempts:  job.MaxAttempts,
	}
	data, _ := json.Marshal(statusMsg)
	if err := uc.publisher.PublishStatus(ctx, data); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}

func videoExt(key string) string {
	if ext := filepath.Ext(key); ext != "" {
		return ext
	}
	return ".mp4"
}

package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/erebos42/shortcut/internal/domain/entity"
	"github.com/erebos42/shortcut/internal/domain/similarity"
	"github.com/erebos42/shortcut/internal/infra/ffmpeg"
	"github.com/erebos42/shortcut/internal/infra/report"
	"github.com/erebos42/shortcut/internal/shortcut"
	"github.com/erebos42/shortcut/internal/shortcut/shortcuttest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	repo     *mockRepo
	storage  *mockStorage
	prober   *mockProber
	status   *mockStatus
	dlq      *mockDLQ
	notifier *mockNotifier
	live     *recordingBroadcaster
	decoder  *shortcuttest.Decoder
	uc       *DetectCutsUseCase
}

func newFixture(t *testing.T, maxRetries int) *fixture {
	t.Helper()
	cfg, err := entity.NewFrameConfig(entity.PixelFormatGray, 4, 2)
	require.NoError(t, err)
	enc, err := report.NewEncoder(report.FormatJSON)
	require.NoError(t, err)

	f := &fixture{
		repo:     &mockRepo{},
		storage:  &mockStorage{},
		prober:   &mockProber{},
		status:   &mockStatus{},
		dlq:      &mockDLQ{},
		notifier: &mockNotifier{},
		live:     &recordingBroadcaster{},
		decoder:  &shortcuttest.Decoder{},
	}
	scanner := shortcut.New(f.decoder, cfg, similarity.Simple{Threshold: similarity.DefaultDiffThreshold})
	f.uc = NewDetectCutsUseCase(DetectCutsDeps{
		Repo:      f.repo,
		Storage:   f.storage,
		Prober:    f.prober,
		Scanner:   scanner,
		Keyframes: ffmpeg.NewKeyframeWriter(),
		Zipper:    ffmpeg.NewZipCreator(),
		Encoder:   enc,
		Publisher: f.status,
		DLQ:       f.dlq,
		Notifier:  f.notifier,
		Live:      f.live,
	}, zap.NewNop(), DetectCutsConfig{
		TempDir:          t.TempDir(),
		MaxRetries:       maxRetries,
		DecodeTimeout:    time.Minute,
		KeyframesEnabled: true,
		Metric:           similarity.MetricSimple,
	})
	return f
}

func message(t *testing.T) (entity.CutDetectionMessage, []byte) {
	t.Helper()
	msg := entity.CutDetectionMessage{
		JobID:     uuid.New(),
		UserID:    "user",
		VideoKey:  "user/test.avi",
		FileSize:  2048,
		UserEmail: "user@example.com",
	}
	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	return msg, raw
}

func lastStatus(t *testing.T, s *mockStatus) entity.CutStatusMessage {
	t.Helper()
	require.NotEmpty(t, s.messages)
	var out entity.CutStatusMessage
	require.NoError(t, json.Unmarshal(s.messages[len(s.messages)-1], &out))
	return out
}

func fiveFrameVideo() []byte {
	dark := shortcuttest.Solid(8, 0)
	light := shortcuttest.Solid(8, 150)
	return shortcuttest.Frames(dark, dark, light, light, light)
}

func TestExecuteDetectsCuts(t *testing.T) {
	f := newFixture(t, 3)
	f.decoder.Output = fiveFrameVideo()
	msg, raw := message(t)

	f.repo.On("FindByID", mock.Anything, msg.JobID).Return(nil, errors.New("no rows"))
	f.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.repo.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.repo.On("SaveCuts", mock.Anything, msg.JobID, mock.MatchedBy(func(cuts []entity.Cut) bool {
		return len(cuts) == 1 && cuts[0].FrameIndex == 2 && cuts[0].Frame == nil
	})).Return(nil)
	f.storage.On("DownloadVideo", mock.Anything, msg.VideoKey, mock.Anything).Return(nil)
	f.storage.On("UploadResult", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.prober.On("Duration", mock.Anything, mock.Anything).Return(0.21, nil)
	f.status.On("PublishStatus", mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, f.uc.Execute(context.Background(), raw))

	status := lastStatus(t, f.status)
	assert.Equal(t, entity.JobStatusCompleted, status.Status)
	assert.Equal(t, 1, status.CutCount)
	assert.Equal(t, 5, status.FrameCount)
	assert.Equal(t, "user/cuts_"+msg.JobID.String()+".json", status.ReportKey)
	assert.Equal(t, "user/keyframes_"+msg.JobID.String()+".zip", status.KeyframesKey)

	var rep entity.CutReport
	require.NoError(t, json.Unmarshal(f.storage.uploads[status.ReportKey], &rep))
	require.Len(t, rep.Cuts, 1)
	assert.InDelta(t, 2/shortcut.DefaultFrameRate, rep.Cuts[0].Timestamp, 1e-12)
	assert.Equal(t, 5, rep.FrameCount)
	assert.Equal(t, 0.21, rep.VideoDuration)
	assert.NotEmpty(t, f.storage.uploads[status.KeyframesKey])

	require.Len(t, f.live.events, 1)
	assert.Equal(t, msg.JobID.String(), f.live.events[0].JobID)
	assert.Equal(t, 2, f.live.events[0].FrameIndex)

	assert.Equal(t, 1, f.decoder.Processes()[0].Terminates())
	f.dlq.AssertNotCalled(t, "PublishToDLQ", mock.Anything, mock.Anything, mock.Anything)
	f.storage.AssertCalled(t, "UploadResult", mock.Anything, status.ReportKey, mock.Anything, "application/json")
	f.storage.AssertCalled(t, "UploadResult", mock.Anything, status.KeyframesKey, mock.Anything, "application/zip")
}

func TestExecuteNoCutsSkipsKeyframes(t *testing.T) {
	f := newFixture(t, 3)
	f.decoder.Output = shortcuttest.Solid(8, 7)
	msg, raw := message(t)

	f.repo.On("FindByID", mock.Anything, msg.JobID).Return(nil, errors.New("no rows"))
	f.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.repo.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.repo.On("SaveCuts", mock.Anything, msg.JobID, mock.Anything).Return(nil)
	f.storage.On("DownloadVideo", mock.Anything, msg.VideoKey, mock.Anything).Return(nil)
	f.storage.On("UploadResult", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.prober.On("Duration", mock.Anything, mock.Anything).Return(0.0, errors.New("ffprobe: not found"))
	f.status.On("PublishStatus", mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, f.uc.Execute(context.Background(), raw))

	status := lastStatus(t, f.status)
	assert.Equal(t, entity.JobStatusCompleted, status.Status)
	assert.Equal(t, 0, status.CutCount)
	assert.Empty(t, status.KeyframesKey)
	f.storage.AssertNumberOfCalls(t, "UploadResult", 1)
}

func TestExecuteMalformedMessageGoesToDLQ(t *testing.T) {
	f := newFixture(t, 3)
	f.dlq.On("PublishToDLQ", mock.Anything, []byte(`{invalid json`), mock.Anything).Return(nil)

	require.NoError(t, f.uc.Execute(context.Background(), []byte(`{invalid json`)))
	f.dlq.AssertExpectations(t)
	f.repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestExecuteDecoderCrashIsRetryable(t *testing.T) {
	f := newFixture(t, 3)
	f.decoder.Output = fiveFrameVideo()[:16]
	f.decoder.ExitErr = errors.New("exit status 1")
	msg, raw := message(t)

	f.repo.On("FindByID", mock.Anything, msg.JobID).Return(nil, errors.New("no rows"))
	f.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.repo.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.storage.On("DownloadVideo", mock.Anything, msg.VideoKey, mock.Anything).Return(nil)
	f.prober.On("Duration", mock.Anything, mock.Anything).Return(1.0, nil)
	f.status.On("PublishStatus", mock.Anything, mock.Anything).Return(nil)

	err := f.uc.Execute(context.Background(), raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retryable failure (attempt 1/3)")

	status := lastStatus(t, f.status)
	assert.Equal(t, entity.JobStatusFailed, status.Status)
	assert.Contains(t, status.ErrorMessage, entity.ErrDecoderRuntime.Error())
	f.repo.AssertNotCalled(t, "SaveCuts", mock.Anything, mock.Anything, mock.Anything)
	f.dlq.AssertNotCalled(t, "PublishToDLQ", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecuteLastAttemptDeadLetters(t *testing.T) {
	f := newFixture(t, 1)
	f.decoder.StartErr = errors.New("exec: \"ffmpeg\": executable file not found in $PATH")
	msg, raw := message(t)

	f.repo.On("FindByID", mock.Anything, msg.JobID).Return(nil, errors.New("no rows"))
	f.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.repo.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.storage.On("DownloadVideo", mock.Anything, msg.VideoKey, mock.Anything).Return(nil)
	f.prober.On("Duration", mock.Anything, mock.Anything).Return(1.0, nil)
	f.status.On("PublishStatus", mock.Anything, mock.Anything).Return(nil)
	f.dlq.On("PublishToDLQ", mock.Anything, raw, mock.Anything).Return(nil)
	f.notifier.On("NotifyFailure", mock.Anything, msg.UserEmail, msg.JobID.String(), msg.VideoKey, mock.Anything).Return(nil)

	require.NoError(t, f.uc.Execute(context.Background(), raw))

	f.dlq.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
	status := lastStatus(t, f.status)
	assert.Equal(t, entity.JobStatusFailed, status.Status)
	assert.Contains(t, status.ErrorMessage, entity.ErrDecoderLaunch.Error())
}

func TestExecuteSkipsCompletedJob(t *testing.T) {
	f := newFixture(t, 3)
	msg, raw := message(t)
	job := entity.NewJob(msg.UserID, msg.VideoKey, msg.FileSize, 3)
	job.ID = msg.JobID
	job.MarkCompleted(entity.ScanResult{ReportKey: "k"})
	f.repo.On("FindByID", mock.Anything, msg.JobID).Return(job, nil)

	require.NoError(t, f.uc.Execute(context.Background(), raw))
	assert.Empty(t, f.decoder.Paths())
	f.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestVideoExt(t *testing.T) {
	assert.Equal(t, ".avi", videoExt("user/test.avi"))
	assert.Equal(t, ".mp4", videoExt("user/noext"))
}

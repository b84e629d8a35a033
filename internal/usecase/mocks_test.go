package usecase

import (
	"context"
	"io"

	"github.com/erebos42/shortcut/internal/domain/entity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockRepo struct{ mock.Mock }

func (m *mockRepo) Create(ctx context.Context, job *entity.Job) error {
	return m.Called(ctx, job).Error(0)
}

func (m *mockRepo) Update(ctx context.Context, job *entity.Job) error {
	return m.Called(ctx, job).Error(0)
}

func (m *mockRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	args := m.Called(ctx, id)
	job, _ := args.Get(0).(*entity.Job)
	return job, args.Error(1)
}

func (m *mockRepo) SaveCuts(ctx context.Context, jobID uuid.UUID, cuts []entity.Cut) error {
	return m.Called(ctx, jobID, cuts).Error(0)
}

type mockStorage struct {
	mock.Mock
	uploads map[string][]byte
}

func (m *mockStorage) DownloadVideo(ctx context.Context, objectKey, destPath string) error {
	return m.Called(ctx, objectKey, destPath).Error(0)
}

func (m *mockStorage) UploadResult(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	if m.uploads == nil {
		m.uploads = map[string][]byte{}
	}
	m.uploads[objectKey] = data
	return m.Called(ctx, objectKey, size, contentType).Error(0)
}

type mockProber struct{ mock.Mock }

func (m *mockProber) Duration(ctx context.Context, videoPath string) (float64, error) {
	args := m.Called(ctx, videoPath)
	return args.Get(0).(float64), args.Error(1)
}

type mockStatus struct {
	mock.Mock
	messages [][]byte
}

func (m *mockStatus) PublishStatus(ctx context.Context, msg []byte) error {
	m.messages = append(m.messages, msg)
	return m.Called(ctx, msg).Error(0)
}

type mockDLQ struct{ mock.Mock }

func (m *mockDLQ) PublishToDLQ(ctx context.Context, msg []byte, reason string) error {
	return m.Called(ctx, msg, reason).Error(0)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) NotifyFailure(ctx context.Context, userEmail, jobID, videoKey, errorMsg string) error {
	return m.Called(ctx, userEmail, jobID, videoKey, errorMsg).Error(0)
}

type recordingBroadcaster struct {
	events []entity.CutEvent
}

func (r *recordingBroadcaster) Broadcast(event entity.CutEvent) {
	r.events = append(r.events, event)
}

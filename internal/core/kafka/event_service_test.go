package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	commonconfig "github.com/Xushengqwer/go-common/config"
	"github.com/Xushengqwer/go-common/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zzpwerkplaats/job_search/internal/models"
	"github.com/zzpwerkplaats/job_search/internal/search"
)

// stubJobRepository 记录收到的索引/删除调用，可注入故障。
type stubJobRepository struct {
	mu       sync.Mutex
	indexed  []models.EsJobDocument
	deleted  []uint64
	indexErr error
}

func (r *stubJobRepository) IndexJob(ctx context.Context, doc models.EsJobDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexErr != nil {
		return r.indexErr
	}
	r.indexed = append(r.indexed, doc)
	return nil
}

func (r *stubJobRepository) DeleteJob(ctx context.Context, jobID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, jobID)
	return nil
}

func (r *stubJobRepository) SearchJobs(ctx context.Context, q search.SearchQuery) (*search.SearchResult, error) {
	return &search.SearchResult{Query: q.Clone()}, nil
}

func newTestLogger(t *testing.T) *core.ZapLogger {
	t.Helper()
	logger, err := core.NewZapLogger(commonconfig.ZapConfig{})
	require.NoError(t, err)
	return logger
}

func validUpsertEvent() models.KafkaJobUpsertEvent {
	return models.KafkaJobUpsertEvent{
		EventID:      "evt-1",
		ID:           42,
		Title:        "Loodgieter gezocht",
		Description:  "Badkamerrenovatie in Utrecht",
		Category:     "bouw",
		Location:     "Utrecht",
		EmployerID:   "employer-1",
		EmployerName: "Bouwbedrijf Van Dijk",
		HourlyRate:   55.0,
		Remote:       false,
		Status:       models.JobStatusOpen,
		PostedAt:     time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC).Unix(),
	}
}

func TestHandleJobUpsertEvent_Success(t *testing.T) {
	repo := &stubJobRepository{}
	svc := NewEventService(repo, newTestLogger(t))

	require.NoError(t, svc.HandleJobUpsertEvent(context.Background(), validUpsertEvent()))

	require.Len(t, repo.indexed, 1)
	doc := repo.indexed[0]
	assert.Equal(t, uint64(42), doc.ID)
	assert.Equal(t, "Loodgieter gezocht", doc.Title)
	assert.Equal(t, "employer-1", doc.EmployerID)
	// Unix 秒时间戳被转换为 UTC 时间。
	assert.Equal(t, time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC), doc.PostedAt)
}

// 校验失败返回对应的哨兵错误，且不触发任何仓库调用。
func TestHandleJobUpsertEvent_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(e *models.KafkaJobUpsertEvent)
		wantErr error
	}{
		{"职位 ID 为零", func(e *models.KafkaJobUpsertEvent) { e.ID = 0 }, ErrInvalidJobID},
		{"标题为空", func(e *models.KafkaJobUpsertEvent) { e.Title = "" }, ErrEmptyTitle},
		{"缺少雇主 ID", func(e *models.KafkaJobUpsertEvent) { e.EmployerID = "" }, ErrMissingEmployerID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &stubJobRepository{}
			svc := NewEventService(repo, newTestLogger(t))

			event := validUpsertEvent()
			tt.mutate(&event)

			err := svc.HandleJobUpsertEvent(context.Background(), event)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, repo.indexed)
		})
	}
}

// 仓库层故障被包装后向上传递，供消费者决定重试或送入 DLQ。
func TestHandleJobUpsertEvent_RepositoryFailure(t *testing.T) {
	repoErr := errors.New("elasticsearch unreachable")
	repo := &stubJobRepository{indexErr: repoErr}
	svc := NewEventService(repo, newTestLogger(t))

	err := svc.HandleJobUpsertEvent(context.Background(), validUpsertEvent())
	assert.ErrorIs(t, err, repoErr)
}

func TestHandleJobDeleteEvent(t *testing.T) {
	repo := &stubJobRepository{}
	svc := NewEventService(repo, newTestLogger(t))

	require.NoError(t, svc.HandleJobDeleteEvent(context.Background(), models.KafkaJobDeleteEvent{
		EventID: "evt-2", Operation: "delete", JobID: 42,
	}))
	assert.Equal(t, []uint64{42}, repo.deleted)

	err := svc.HandleJobDeleteEvent(context.Background(), models.KafkaJobDeleteEvent{
		EventID: "evt-3", Operation: "delete", JobID: 0,
	})
	assert.ErrorIs(t, err, ErrInvalidJobID)
}

// 永久性错误的判定：校验类哨兵错误与格式错误送 DLQ，瞬时故障允许重试。
func TestIsPermanentError(t *testing.T) {
	assert.True(t, isPermanentError(ErrInvalidJobID))
	assert.True(t, isPermanentError(ErrEmptyTitle))
	assert.True(t, isPermanentError(ErrMissingEmployerID))
	assert.True(t, isPermanentError(ErrInvalidEventFormat))
	assert.True(t, isPermanentError(context.Canceled))

	assert.False(t, isPermanentError(errors.New("elasticsearch unreachable")))
	assert.False(t, isPermanentError(nil))
}

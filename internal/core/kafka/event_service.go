package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"github.com/zzpwerkplaats/job_search/internal/models"
	"github.com/zzpwerkplaats/job_search/internal/repositories"

	"go.uber.org/zap"
)

// 包级别定义的哨兵错误 (sentinel errors)，用于表示特定的、可预期的错误条件。
// 上层调用者（Kafka 消息处理器）通过 errors.Is() 检查这些错误类型，
// 并据此决定后续行为（永久性错误发送到死信队列而不是重试）。
var (
	ErrInvalidJobID       = errors.New("无效的职位ID")
	ErrEmptyTitle         = errors.New("职位标题不能为空")
	ErrMissingEmployerID  = errors.New("职位雇主ID不能为空")
	ErrInvalidEventFormat = errors.New("无效的事件格式或缺少关键数据")
)

// EventService 封装了处理与职位相关的 Kafka 事件的业务逻辑。
// 它依赖于 JobRepository 与 Elasticsearch 进行交互。
type EventService struct {
	jobRepo repositories.JobRepository // jobRepo 存储了与职位数据持久化相关的操作接口。
	logger  *core.ZapLogger            // logger 用于结构化日志记录。
}

// NewEventService 创建 EventService 的新实例。
// 关键依赖项 (jobRepo, logger) 为 nil 时 panic，防止服务以损坏状态启动。
func NewEventService(jobRepo repositories.JobRepository, logger *core.ZapLogger) *EventService {
	if jobRepo == nil {
		panic("致命错误 [事件服务]: JobRepository 依赖注入失败，实例不能为 nil")
	}
	if logger == nil {
		panic("致命错误 [事件服务]: ZapLogger 依赖注入失败，实例不能为 nil")
	}
	return &EventService{
		jobRepo: jobRepo,
		logger:  logger,
	}
}

// HandleJobUpsertEvent 处理职位发布/更新的 Kafka 事件。
// 它会验证事件数据，将其转换为 Elasticsearch 文档模型，然后调用仓库层进行索引。
// 返回的错误可能包装了预定义的哨兵错误（如 ErrInvalidJobID, ErrEmptyTitle），
// 以便上层调用者进行类型检查。
func (s *EventService) HandleJobUpsertEvent(ctx context.Context, event models.KafkaJobUpsertEvent) error {
	s.logger.Info("开始处理职位发布/更新事件 (JobUpsertEvent)",
		zap.String("event_id", event.EventID),
		zap.Uint64("job_id", event.ID))

	// 输入数据验证。来自外部系统的数据必须先通过基本校验，
	// 避免无效数据污染下游索引。
	if event.ID <= 0 {
		s.logger.Error("处理 JobUpsertEvent 失败：事件中包含无效的职位 ID",
			zap.String("event_id", event.EventID),
			zap.Uint64("job_id", event.ID),
			zap.String("校验规则", "ID 必须大于 0"),
		)
		return fmt.Errorf("处理职位发布事件失败，职位 ID '%d' 无效: %w", event.ID, ErrInvalidJobID)
	}
	if event.Title == "" {
		s.logger.Error("处理 JobUpsertEvent 失败：事件中的职位标题为空",
			zap.String("event_id", event.EventID),
			zap.Uint64("job_id", event.ID),
		)
		return fmt.Errorf("处理职位发布事件失败，职位 ID '%d' 的标题为空: %w", event.ID, ErrEmptyTitle)
	}
	if event.EmployerID == "" {
		s.logger.Error("处理 JobUpsertEvent 失败：事件中的雇主 ID 为空",
			zap.String("event_id", event.EventID),
			zap.Uint64("job_id", event.ID),
		)
		return fmt.Errorf("处理职位发布事件失败，职位 ID '%d' 缺少雇主 ID: %w", event.ID, ErrMissingEmployerID)
	}

	// 将 Kafka 事件模型转换为 Elasticsearch 文档模型，解耦事件格式与存储格式。
	jobDoc := models.EsJobDocument{
		ID:           event.ID,
		Title:        event.Title,
		Description:  event.Description,
		Category:     event.Category,
		Location:     event.Location,
		EmployerID:   event.EmployerID,
		EmployerName: event.EmployerName,
		HourlyRate:   event.HourlyRate,
		Remote:       event.Remote,
		Status:       event.Status,
		PostedAt:     time.Unix(event.PostedAt, 0).UTC(),
	}
	s.logger.Debug("已将 Kafka 事件数据映射到 EsJobDocument 模型",
		zap.String("event_id", event.EventID),
		zap.Uint64("job_id", event.ID))

	if err := s.jobRepo.IndexJob(ctx, jobDoc); err != nil {
		s.logger.Error("调用 JobRepository 的 IndexJob 操作失败",
			zap.String("event_id", event.EventID),
			zap.Uint64("job_id", event.ID),
			zap.Error(err),
		)
		// 包装后向上传递，由消费者处理器决定重试或送入 DLQ。
		return fmt.Errorf("索引职位 ID '%d' 到 Elasticsearch 失败: %w", event.ID, err)
	}

	s.logger.Info("成功处理并索引职位发布/更新事件",
		zap.String("event_id", event.EventID),
		zap.Uint64("job_id", event.ID))
	return nil
}

// HandleJobDeleteEvent 处理职位删除的 Kafka 事件。
// 它会验证事件数据，然后调用仓库层从 Elasticsearch 中删除相应的文档。
func (s *EventService) HandleJobDeleteEvent(ctx context.Context, event models.KafkaJobDeleteEvent) error {
	s.logger.Info("开始处理职位删除事件 (JobDeleteEvent)",
		zap.String("event_id", event.EventID),
		zap.Uint64("job_id", event.JobID))

	if event.JobID <= 0 {
		s.logger.Error("处理 JobDeleteEvent 失败：事件中包含无效的职位 ID",
			zap.String("event_id", event.EventID),
			zap.Uint64("job_id", event.JobID),
			zap.String("校验规则", "ID 必须大于 0"),
		)
		return fmt.Errorf("处理职位删除事件失败，职位 ID '%d' 无效: %w", event.JobID, ErrInvalidJobID)
	}

	// jobRepo.DeleteJob 已按幂等语义处理 "文档未找到" (404) 的情况。
	if err := s.jobRepo.DeleteJob(ctx, event.JobID); err != nil {
		s.logger.Error("调用 JobRepository 的 DeleteJob 操作失败",
			zap.String("event_id", event.EventID),
			zap.Uint64("job_id", event.JobID),
			zap.Error(err),
		)
		return fmt.Errorf("从 Elasticsearch 删除职位 ID '%d' 失败: %w", event.JobID, err)
	}

	s.logger.Info("成功处理职位删除事件",
		zap.String("event_id", event.EventID),
		zap.Uint64("job_id", event.JobID))
	return nil
}

package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"github.com/zzpwerkplaats/job_search/internal/models"
	"go.uber.org/zap"

	"github.com/IBM/sarama"
	"github.com/cenkalti/backoff/v4"
)

// Handler 实现了 sarama.ConsumerGroupHandler 接口，负责处理从 Kafka 接收到的消息。
// 它包含以下主要职责：
// 1. 消息路由：根据消息的主题将其分发给特定的处理函数。
// 2. 业务逻辑调用：通过注入的 EventService 执行实际的业务处理。
// 3. 错误处理与重试：对可重试的错误执行指数退避重试策略。
// 4. 死信队列 (DLQ) 处理：在最终处理失败后，将消息发送到 DLQ。
// 5. 生命周期管理：通过 Setup, Cleanup 方法管理每个消费者会话的生命周期，并通过 Ready 通道发出就绪信号。
type Handler struct {
	eventService   *EventService                 // 业务服务层实例，用于处理消息的实际业务逻辑。
	dlqProducer    sarama.SyncProducer           // 用于发送消息到死信队列 (DLQ) 的同步生产者。
	dlqTopic       string                        // 死信队列 (DLQ) 的主题名称。
	maxRetry       uint64                        // 消息处理的最大重试次数。
	topicToHandler map[string]MessageHandlerFunc // 将主题名称映射到具体的处理函数。
	ready          chan bool                     // 用于发出 handler 已准备好消费信号的通道。此通道由 Setup 方法关闭。
	logger         *core.ZapLogger               // 结构化日志记录器。
}

// MessageHandlerFunc 定义了处理特定 Kafka 消息的函数的签名。
// 每个主题的消息处理器都应符合此函数原型。
type MessageHandlerFunc func(ctx context.Context, message *sarama.ConsumerMessage) error

// NewHandler 创建并初始化一个新的 Kafka 消息处理程序 (Handler) 实例。
// 参数:
//   - eventSvc: 业务事件服务 (*EventService) 的实例。
//   - producer: 用于发送到 DLQ 的 sarama.SyncProducer 实例。
//   - dlqTopic: 死信队列的主题名称。
//   - upsertTopic: 职位发布/更新事件的主题名称。
//   - deleteTopic: 职位删除事件的主题名称。
//   - logger: *core.ZapLogger 实例。
//   - maxRetries: 消息处理的最大重试次数。
//
// 返回值:
//   - *Handler: 初始化完成的消息处理程序实例。
func NewHandler(
	eventSvc *EventService,
	producer sarama.SyncProducer,
	dlqTopic string,
	upsertTopic string,
	deleteTopic string,
	logger *core.ZapLogger,
	maxRetries uint64,
) *Handler {
	if logger == nil {
		panic("致命错误 [Kafka Handler]: Logger 实例不能为 nil")
	}
	if eventSvc == nil {
		logger.Error("创建 Kafka Handler 失败: EventService 实例不能为 nil")
		panic("致命错误 [Kafka Handler]: EventService 实例不能为 nil")
	}
	// dlqProducer 与 dlqTopic 允许只配置其一，SendToDLQ 内部会再做检查，
	// 但这里对不完整的配对给出警告。
	if producer == nil && dlqTopic != "" {
		logger.Warn("DLQ 主题已配置，但 DLQ 生产者未提供。DLQ 功能可能无法正常工作。", zap.String("dlq_topic", dlqTopic))
	}
	if producer != nil && dlqTopic == "" {
		logger.Warn("DLQ 生产者已提供，但 DLQ 主题未配置。DLQ 功能可能无法正常工作。")
	}

	h := &Handler{
		eventService: eventSvc,
		dlqProducer:  producer,
		dlqTopic:     dlqTopic,
		maxRetry:     maxRetries,
		ready:        make(chan bool), // 初始化 ready 通道，用于 Setup 完成的信号。
		logger:       logger,
	}

	// 主题到处理函数的映射。Handler 根据消息来源的主题动态选择处理逻辑，
	// 便于未来扩展新的主题和对应的处理器。
	h.topicToHandler = map[string]MessageHandlerFunc{
		upsertTopic: h.handleJobUpsertEvent, // "职位发布/更新事件" 主题的消息由此方法处理。
		deleteTopic: h.handleJobDeleteEvent, // "职位删除事件" 主题的消息由此方法处理。
	}
	logger.Info("Kafka Handler 初始化完成",
		zap.Strings("subscribed_topics_for_handler", []string{upsertTopic, deleteTopic}),
		zap.Uint64("max_processing_retries", maxRetries),
		zap.Bool("dlq_producer_configured", producer != nil),
		zap.String("dlq_topic_configured", dlqTopic),
	)
	return h
}

// Ready 返回一个只读通道，用于外部（例如 ConsumerGroup）等待此 Handler 准备就绪。
// 当 Handler 的 Setup 方法成功完成时，此通道将被关闭，任何监听此通道的 goroutine 将会解除阻塞。
// 这是实现 ConsumerGroup 等待 Handler 初始化完成的同步机制。
func (h *Handler) Ready() <-chan bool {
	return h.ready
}

// Setup 在新的消费者组会话开始时，由 Sarama 在每个声明的 claim (分区分配) 之前调用一次。
// 对于此 Handler 实现，它通过关闭 `ready` 通道来发出已准备好处理消息的信号。
func (h *Handler) Setup(session sarama.ConsumerGroupSession) error {
	h.logger.Info("Kafka Handler 开始执行 Setup...", zap.String("member_id", session.MemberID()))
	// ready 通道在整个 Handler 生命周期内只关闭一次。
	// Sarama 在重平衡时可能对同一实例多次调用 Setup，用 select 避免重复关闭导致 panic。
	select {
	case <-h.ready:
		h.logger.Info("Kafka Handler 的 ready 通道已被关闭，Setup 跳过关闭操作。", zap.String("member_id", session.MemberID()))
	default:
		close(h.ready)
		h.logger.Info("Kafka Handler 的 ready 通道已成功关闭。", zap.String("member_id", session.MemberID()))
	}
	h.logger.Info("Kafka Handler Setup 完成，已准备好消费消息。", zap.String("member_id", session.MemberID()))
	return nil
}

// Cleanup 在消费者组会话结束时，或在处理完一个 claim 后且准备释放它之前调用。
// 当前实现没有会话级资源需要释放。
func (h *Handler) Cleanup(session sarama.ConsumerGroupSession) error {
	h.logger.Info("Kafka Handler 开始执行 Cleanup...", zap.String("member_id", session.MemberID()))
	h.logger.Info("Kafka Handler Cleanup 完成。", zap.String("member_id", session.MemberID()))
	return nil
}

// ConsumeClaim 是消息处理的核心循环，由 Sarama 为每个分配给此消费者的分区声明 (claim) 调用。
// 此方法会持续从 `claim.Messages()` 通道中拉取消息并进行处理，
// 直到该通道关闭（通常在会话结束或重平衡时）或会话的上下文被取消。
func (h *Handler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	topic := claim.Topic()
	partition := claim.Partition()
	initialOffset := claim.InitialOffset()

	h.logger.Info("开始消费来自特定分区的消息",
		zap.String("topic", topic),
		zap.Int32("partition", partition),
		zap.Int64("initial_offset", initialOffset),
	)

	// claim.Messages() 返回的通道在会话结束或分区声明被撤销时关闭，
	// for-range 随之退出。
	for message := range claim.Messages() {
		offset := message.Offset
		h.logger.Debug("收到 Kafka 消息",
			zap.String("topic", message.Topic),
			zap.Int32("partition", message.Partition),
			zap.Int64("offset", offset),
			zap.ByteString("key", message.Key),
			zap.Int("value_length", len(message.Value)),
			zap.Time("kafka_timestamp", message.Timestamp),
		)

		// 根据消息的主题从映射中获取对应的处理函数。
		handlerFunc, ok := h.topicToHandler[message.Topic]
		if !ok {
			// 没有为该主题注册处理函数，通常是配置错误或收到了非预期的消息。
			h.logger.Warn("未找到针对该主题注册的消息处理函数，将跳过此消息",
				zap.String("topic", message.Topic),
				zap.Int64("offset", offset),
				zap.Int32("partition", message.Partition),
			)
			session.MarkMessage(message, "") // 必须标记，否则 Sarama 会认为此消息未处理。
			continue
		}

		// processWithRetry 封装了重试逻辑；session.Context() 传递给业务逻辑，
		// 使其能响应超时或取消。
		processingCtx := session.Context()
		processErr := h.processWithRetry(processingCtx, message, handlerFunc)

		if processErr != nil {
			h.logger.Error("消息在所有重试尝试后处理失败，准备发送到死信队列 (DLQ)",
				zap.String("topic", message.Topic),
				zap.Int64("offset", offset),
				zap.Int32("partition", message.Partition),
				zap.Error(processErr),
			)

			// DLQ 发送使用独立的带超时上下文，避免 DLQ 生产者阻塞整个消费者。
			dlqCtx, dlqCancel := context.WithTimeout(context.Background(), 10*time.Second)
			dlqErr := SendToDLQ(dlqCtx, h.dlqProducer, h.dlqTopic, message, processErr, h.logger)
			dlqCancel()

			if dlqErr != nil {
				// 发送到 DLQ 也失败，可能表示 DLQ 系统本身不可用。
				// 仍标记原消息以保证消费流继续，依赖告警处理可能丢失的消息。
				h.logger.Error("发送消息到死信队列 (DLQ) 失败，可能导致消息丢失，需要人工关注！",
					zap.String("topic", message.Topic),
					zap.Int64("offset", offset),
					zap.Int32("partition", message.Partition),
					zap.NamedError("original_processing_error", processErr),
					zap.NamedError("dlq_send_error", dlqErr),
				)
				session.MarkMessage(message, "")
			} else {
				h.logger.Info("消息已成功发送到死信队列 (DLQ)",
					zap.String("original_topic", message.Topic),
					zap.Int64("original_offset", offset),
					zap.Int32("original_partition", message.Partition),
					zap.String("dlq_topic", h.dlqTopic),
				)
				session.MarkMessage(message, "")
			}
		} else {
			session.MarkMessage(message, "")
			h.logger.Debug("消息处理成功",
				zap.String("topic", message.Topic),
				zap.Int64("offset", offset),
				zap.Int32("partition", message.Partition),
			)
		}

		// 每次消息处理后检查会话上下文，及时响应外部的关闭信号。
		if session.Context().Err() != nil {
			h.logger.Info("会话上下文在消息处理后被取消，准备停止消费此分区",
				zap.String("topic", topic),
				zap.Int32("partition", partition),
				zap.Int64("last_processed_offset", offset),
				zap.Error(session.Context().Err()),
			)
			return session.Context().Err()
		}
	}

	h.logger.Info("已完成消费分区中的所有消息（或会话结束）",
		zap.String("topic", topic),
		zap.Int32("partition", partition),
	)
	return nil
}

// processWithRetry 使用指数退避策略执行消息处理函数，并在发生可重试错误时进行重试。
// 如果在所有配置的重试次数后消息处理仍然失败，返回最后一次遇到的错误。
func (h *Handler) processWithRetry(ctx context.Context, message *sarama.ConsumerMessage, handlerFunc MessageHandlerFunc) error {
	// 默认指数退避参数：初始间隔 500ms，乘数 1.5，随机因子 0.5。
	bo := backoff.NewExponentialBackOff()
	// 重试次数由 backoff.WithMaxRetries 控制，不设置总的重试时间上限。
	bo.MaxElapsedTime = 0

	// backoff 库重复调用此闭包，直到返回 nil（成功）、backoff.Permanent（永久性错误）
	// 或达到最大重试次数。
	retryableOperation := func() error {
		err := handlerFunc(ctx, message)
		if err != nil {
			// 永久性错误（数据验证失败、反序列化失败）不应重试。
			if isPermanentError(err) {
				h.logger.Error("消息处理遇到永久性错误，将停止重试并标记为最终失败",
					zap.String("topic", message.Topic),
					zap.Int64("offset", message.Offset),
					zap.Int32("partition", message.Partition),
					zap.Error(err),
				)
				return backoff.Permanent(err)
			}
			h.logger.Warn("消息处理失败，将基于退避策略尝试重试",
				zap.String("topic", message.Topic),
				zap.Int64("offset", message.Offset),
				zap.Int32("partition", message.Partition),
				zap.Error(err),
			)
			return err
		}
		return nil
	}

	// 每次重试尝试前记录一次，便于监控重试的频率和原因。
	notifyFunc := func(err error, nextRetryDuration time.Duration) {
		h.logger.Warn("准备重试消息处理操作",
			zap.String("topic", message.Topic),
			zap.Int64("offset", message.Offset),
			zap.Int32("partition", message.Partition),
			zap.Duration("next_retry_in", nextRetryDuration),
			zap.Error(err),
		)
	}

	return backoff.RetryNotify(retryableOperation, backoff.WithMaxRetries(bo, h.maxRetry), notifyFunc)
}

// --- 特定主题的消息处理函数实现 ---

// handleJobUpsertEvent 是处理 "职位发布/更新事件" 主题消息的具体实现。
// 它负责反序列化消息内容为 models.KafkaJobUpsertEvent，然后调用 EventService 进行处理。
func (h *Handler) handleJobUpsertEvent(ctx context.Context, message *sarama.ConsumerMessage) error {
	var event models.KafkaJobUpsertEvent

	if err := json.Unmarshal(message.Value, &event); err != nil {
		// 反序列化失败是永久性的：消息内容本身不会在重试时发生变化。
		h.logger.Error("反序列化 'JobUpsertEvent' 消息失败，数据格式可能不正确或与模型不匹配",
			zap.String("topic", message.Topic),
			zap.Int64("offset", message.Offset),
			zap.Int32("partition", message.Partition),
			zap.ByteString("raw_value_snippet", message.Value[:min(1024, len(message.Value))]),
			zap.Error(err),
		)
		return backoff.Permanent(fmt.Errorf("反序列化 JobUpsertEvent 失败 (主题: %s, 偏移量: %d): %w", message.Topic, message.Offset, err))
	}

	h.logger.Debug("成功反序列化 JobUpsertEvent，准备交由 EventService 处理",
		zap.Uint64("event_job_id", event.ID),
		zap.String("topic", message.Topic),
		zap.Int64("offset", message.Offset),
	)

	// EventService 返回的错误由 processWithRetry 进一步判断是否为永久性错误。
	return h.eventService.HandleJobUpsertEvent(ctx, event)
}

// handleJobDeleteEvent 是处理 "职位删除事件" 主题消息的具体实现。
// 它负责反序列化消息内容为 models.KafkaJobDeleteEvent，然后调用 EventService 进行处理。
func (h *Handler) handleJobDeleteEvent(ctx context.Context, message *sarama.ConsumerMessage) error {
	var event models.KafkaJobDeleteEvent

	if err := json.Unmarshal(message.Value, &event); err != nil {
		h.logger.Error("反序列化 'JobDeleteEvent' 消息失败，数据格式可能不正确或与模型不匹配",
			zap.String("topic", message.Topic),
			zap.Int64("offset", message.Offset),
			zap.Int32("partition", message.Partition),
			zap.ByteString("raw_value_snippet", message.Value[:min(1024, len(message.Value))]),
			zap.Error(err),
		)
		return backoff.Permanent(fmt.Errorf("反序列化 JobDeleteEvent 失败 (主题: %s, 偏移量: %d): %w", message.Topic, message.Offset, err))
	}

	// 业务层面的验证：只处理期望的 "delete" 操作。
	expectedOperation := "delete"
	if event.Operation != expectedOperation {
		h.logger.Warn("收到的 JobDeleteEvent 操作类型与预期不符，将跳过处理此消息",
			zap.String("topic", message.Topic),
			zap.Int64("offset", message.Offset),
			zap.Int32("partition", message.Partition),
			zap.Uint64("event_job_id", event.JobID),
			zap.String("received_operation", event.Operation),
			zap.String("expected_operation", expectedOperation),
		)
		// 返回 nil：此消息被识别为不适用并已跳过，不重试也不进 DLQ。
		return nil
	}

	h.logger.Debug("成功反序列化 JobDeleteEvent 并验证通过，准备交由 EventService 处理",
		zap.Uint64("event_job_id", event.JobID),
		zap.String("operation_type", event.Operation),
		zap.String("topic", message.Topic),
		zap.Int64("offset", message.Offset),
	)

	return h.eventService.HandleJobDeleteEvent(ctx, event)
}

// isPermanentError 判断给定的错误是否为永久性错误，即不应进行重试的错误。
// 永久性错误包括：
// 1. 上下文取消或超时错误 (context.Canceled, context.DeadlineExceeded)。
// 2. 数据验证相关的业务逻辑错误 (如 ErrInvalidJobID, ErrEmptyTitle)。
// 3. 消息格式或反序列化错误 (json.Unmarshal 失败，或包装后的 ErrInvalidEventFormat)。
func isPermanentError(err error) bool {
	if err == nil {
		return false
	}

	// 上下文被取消或超时，对当前这次尝试而言是"永久的"。
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	// EventService 产生的已知永久性业务/验证错误。
	if errors.Is(err, ErrInvalidJobID) ||
		errors.Is(err, ErrEmptyTitle) ||
		errors.Is(err, ErrMissingEmployerID) ||
		errors.Is(err, ErrInvalidEventFormat) {
		return true
	}

	// 底层的 JSON 反序列化错误。各个 handleXxxEvent 方法会用 backoff.Permanent
	// 包装这类错误，这里是额外的一道防线。
	var syntaxError *json.SyntaxError
	var unmarshalTypeError *json.UnmarshalTypeError
	if errors.As(err, &syntaxError) || errors.As(err, &unmarshalTypeError) {
		return true
	}

	// 其余错误假定可能是暂时的（网络波动、ES 临时过载等），允许重试。
	return false
}

// min 返回两个整数中较小的一个，用于截断日志中的原始消息体。
func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

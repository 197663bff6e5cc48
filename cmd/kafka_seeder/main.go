package main

import (
	"encoding/json"
	"flag"
	"log" // 标准日志库，用于早期错误输出
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/Xushengqwer/go-common/core"
	"github.com/zzpwerkplaats/job_search/config"
	internalKafka "github.com/zzpwerkplaats/job_search/internal/core/kafka"
	"github.com/zzpwerkplaats/job_search/internal/models"
	"go.uber.org/zap"
)

func main() {
	// --- 0. 配置和基础设置 ---
	var configFile string
	defaultConfigPath := filepath.Join("..", "..", "config", "config.development.yaml")

	flag.StringVar(&configFile, "config", defaultConfigPath, "指定配置文件的路径 (相对于当前工作目录或绝对路径)")
	flag.Parse()

	if !filepath.IsAbs(configFile) {
		absPath, err := filepath.Abs(configFile)
		if err != nil {
			log.Fatalf("无法将配置文件路径 '%s' 转换为绝对路径: %v", configFile, err)
		}
		configFile = absPath
	}
	log.Printf("使用的配置文件: %s", configFile)

	// --- 1. 加载配置 ---
	var cfg config.JobSearchConfig
	if err := core.LoadConfig(configFile, &cfg); err != nil {
		log.Fatalf("致命错误: 加载配置文件 '%s' 失败: %v", configFile, err)
	}
	log.Println("配置文件加载成功。")

	// --- 2. 初始化 Logger ---
	logger, loggerErr := core.NewZapLogger(cfg.ZapConfig)
	if loggerErr != nil {
		log.Fatalf("致命错误: 初始化 ZapLogger 失败: %v", loggerErr)
	}
	defer func() {
		logger.Info("正在同步所有日志条目...")
		if err := logger.Logger().Sync(); err != nil {
			log.Printf("警告: ZapLogger Sync 操作失败: %v\n", err)
		}
	}()
	logger.Info("Kafka Seeder 的 Zap Logger 初始化成功。")

	// --- 3. 准备 Kafka 生产者 ---
	kafkaCfg := cfg.KafkaConfig
	if len(kafkaCfg.SubscribedTopics) == 0 {
		logger.Fatal("Kafka 配置错误：未在 subscribedTopics 中找到用于 Seeder 的目标主题。")
	}
	if len(kafkaCfg.SubscribedTopics) < 2 {
		logger.Fatal("Kafka 配置错误：subscribedTopics 至少需要包含两个主题 (一个用于职位写入，一个用于删除)。")
	}

	upsertTopic := kafkaCfg.SubscribedTopics[0] // 第一个主题用于职位写入事件
	deleteTopic := kafkaCfg.SubscribedTopics[1] // 第二个主题用于职位删除事件

	logger.Info("Kafka Seeder 将使用以下主题",
		zap.String("职位写入事件主题 (JobUpsert)", upsertTopic),
		zap.String("删除事件主题 (JobDelete)", deleteTopic),
	)

	saramaConfig, err := internalKafka.ConfigureSarama(kafkaCfg, logger)
	if err != nil {
		logger.Fatal("配置 Sarama (Kafka 客户端库) 失败", zap.Error(err))
	}

	producer, err := sarama.NewSyncProducer(kafkaCfg.Brokers, saramaConfig)
	if err != nil {
		logger.Fatal("创建 Kafka 同步生产者 (SyncProducer) 失败", zap.Error(err))
	}
	defer func() {
		logger.Info("正在关闭 Kafka 同步生产者...")
		if err := producer.Close(); err != nil {
			logger.Error("关闭 Kafka 同步生产者时发生错误", zap.Error(err))
		} else {
			logger.Info("Kafka 同步生产者已成功关闭。")
		}
	}()
	logger.Info("Kafka 同步生产者 (SyncProducer) 初始化成功并已连接。", zap.Strings("Brokers地址", kafkaCfg.Brokers))

	// --- 4. 定义职位创建/更新的测试数据 (JobUpsertEvents) ---
	now := time.Now().UTC()
	testJobUpsertEvents := []models.KafkaJobUpsertEvent{
		{
			EventID:      "seed-upsert-401",
			ID:           401,
			Title:        "Loodgieter gezocht voor badkamerrenovatie",
			Description:  "Voor een complete badkamerrenovatie in Utrecht zoeken wij een ervaren zzp-loodgieter.",
			Category:     "bouw",
			Location:     "Utrecht",
			EmployerID:   "employer_bouwbedrijf_01",
			EmployerName: "Bouwbedrijf Van Dijk",
			HourlyRate:   55.0,
			Remote:       false,
			Status:       models.JobStatusOpen,
			PostedAt:     now.Add(-48 * time.Hour).Unix(),
		},
		{
			EventID:      "seed-upsert-402",
			ID:           402,
			Title:        "Freelance backend developer (Go)",
			Description:  "Wij zoeken een zelfstandige Go-developer voor het uitbouwen van ons marktplaatsplatform.",
			Category:     "ict",
			Location:     "Amsterdam",
			EmployerID:   "employer_techlab_02",
			EmployerName: "TechLab B.V.",
			HourlyRate:   95.0,
			Remote:       true,
			Status:       models.JobStatusOpen,
			PostedAt:     now.Add(-24 * time.Hour).Unix(),
		},
		{
			EventID:      "seed-upsert-403",
			ID:           403,
			Title:        "Verzorgende IG voor thuiszorgroute",
			Description:  "Thuiszorgorganisatie zoekt zzp-verzorgende IG voor ochtendroutes in de regio Rotterdam.",
			Category:     "zorg",
			Location:     "Rotterdam",
			EmployerID:   "employer_zorgthuis_03",
			EmployerName: "ZorgThuis Rijnmond",
			HourlyRate:   42.5,
			Remote:       false,
			Status:       models.JobStatusOpen,
			PostedAt:     now.Add(-12 * time.Hour).Unix(),
		},
		{
			EventID:      "seed-upsert-404",
			ID:           404,
			Title:        "Chauffeur pakketbezorging (vervuld)",
			Description:  "Opdracht voor pakketbezorging in Eindhoven, inmiddels vervuld.",
			Category:     "logistiek",
			Location:     "Eindhoven",
			EmployerID:   "employer_pakket_04",
			EmployerName: "SnelPakket Logistics",
			HourlyRate:   32.0,
			Remote:       false,
			Status:       models.JobStatusFilled,
			PostedAt:     now.Unix(),
		},
		{
			EventID:      "seed-upsert-405",
			ID:           405,
			Title:        "Remote administratief medewerker",
			Description:  "Flexibele administratieve ondersteuning op afstand, facturatie en debiteurenbeheer.",
			Category:     "administratie",
			Location:     "Groningen",
			EmployerID:   "employer_admin_05",
			EmployerName: "Administratiekantoor Noord",
			HourlyRate:   38.0,
			Remote:       true,
			Status:       models.JobStatusOpen,
			PostedAt:     now.Add(-6 * time.Hour).Unix(),
		},
	}

	// --- 5. 发送职位创建/更新事件到 Kafka ---
	logger.Info("开始发送职位创建/更新 (JobUpsert) 事件到 Kafka...", zap.Int("消息数量", len(testJobUpsertEvents)))
	for _, jobEvent := range testJobUpsertEvents {
		payloadBytes, err := json.Marshal(jobEvent)
		if err != nil {
			logger.Error("序列化 KafkaJobUpsertEvent 为 JSON 时发生错误",
				zap.Uint64("职位ID", jobEvent.ID),
				zap.Error(err))
			continue
		}
		eventKey := strconv.FormatUint(jobEvent.ID, 10)
		msg := &sarama.ProducerMessage{
			Topic: upsertTopic,
			Key:   sarama.StringEncoder(eventKey),
			Value: sarama.ByteEncoder(payloadBytes),
		}
		logger.Debug("准备发送的消息详情 (JobUpsert)",
			zap.String("消息键(Key)", eventKey),
			zap.ByteString("消息体片段(Value snippet)", payloadBytes[:min(100, len(payloadBytes))]))
		partition, offset, err := producer.SendMessage(msg)
		if err != nil {
			logger.Error("发送 JobUpsert 事件到 Kafka 失败",
				zap.String("目标主题", upsertTopic),
				zap.Uint64("职位ID", jobEvent.ID),
				zap.Error(err),
			)
		} else {
			logger.Info("JobUpsert 事件成功发送到 Kafka",
				zap.String("目标主题", upsertTopic),
				zap.Uint64("职位ID", jobEvent.ID),
				zap.Int32("分区(Partition)", partition),
				zap.Int64("偏移量(Offset)", offset),
				zap.Time("发送时间戳", time.Now()),
			)
		}
		time.Sleep(100 * time.Millisecond)
	}
	logger.Info("所有 JobUpsert 事件已发送（或已尝试发送）到 Kafka。")

	// --- 6. 定义职位删除的测试数据 (JobDeleteEvents) ---
	// 删除刚创建的一个职位 (ID: 401) 以及一个不存在的旧职位 (ID: 105)，
	// 后者用于验证删除不存在文档时的幂等行为。
	testJobDeleteEvents := []models.KafkaJobDeleteEvent{
		{
			EventID:   "seed-delete-401",
			Operation: "delete",
			JobID:     401,
		},
		{
			EventID:   "seed-delete-105",
			Operation: "delete",
			JobID:     105,
		},
	}

	// --- 7. 发送职位删除事件到 Kafka ---
	logger.Info("开始发送职位删除 (JobDelete) 事件到 Kafka...", zap.Int("消息数量", len(testJobDeleteEvents)))
	for _, deleteEvent := range testJobDeleteEvents {
		payloadBytes, err := json.Marshal(deleteEvent)
		if err != nil {
			logger.Error("序列化 KafkaJobDeleteEvent 为 JSON 时发生错误",
				zap.Uint64("职位ID", deleteEvent.JobID),
				zap.Error(err))
			continue
		}
		eventKey := strconv.FormatUint(deleteEvent.JobID, 10) // 删除事件同样使用职位 ID 作为 Key
		msg := &sarama.ProducerMessage{
			Topic: deleteTopic,
			Key:   sarama.StringEncoder(eventKey),
			Value: sarama.ByteEncoder(payloadBytes),
		}
		logger.Debug("准备发送的消息详情 (JobDelete)",
			zap.String("消息键(Key)", eventKey),
			zap.ByteString("消息体片段(Value snippet)", payloadBytes[:min(100, len(payloadBytes))]))
		partition, offset, err := producer.SendMessage(msg)
		if err != nil {
			logger.Error("发送 JobDelete 事件到 Kafka 失败",
				zap.String("目标主题", deleteTopic),
				zap.Uint64("职位ID", deleteEvent.JobID),
				zap.Error(err),
			)
		} else {
			logger.Info("JobDelete 事件成功发送到 Kafka",
				zap.String("目标主题", deleteTopic),
				zap.Uint64("职位ID", deleteEvent.JobID),
				zap.Int32("分区(Partition)", partition),
				zap.Int64("偏移量(Offset)", offset),
				zap.Time("发送时间戳", time.Now()),
			)
		}
		time.Sleep(100 * time.Millisecond)
	}
	logger.Info("所有 JobDelete 事件已发送（或已尝试发送）到 Kafka。")

	logger.Info("所有测试数据均已处理完毕。")
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func getWorkingDir() string { // 当前版本未直接使用，保留以备将来参考
	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("无法获取当前工作目录: %v", err)
	}
	return wd
}

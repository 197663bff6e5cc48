package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"github.com/zzpwerkplaats/job_search/internal/store"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

// collectionDocument 是集合快照在 Elasticsearch 中的存储形态。
// payload 字段保存整个集合的 JSON 序列化文本，不参与检索。
type collectionDocument struct {
	Key       string    `json:"key"`
	Payload   string    `json:"payload"`
	UpdatedAt time.Time `json:"updated_at"`
}

// esCollectionsRepository 以 "一个集合一个文档" 的方式在 Elasticsearch 中
// 持久化保存的搜索、筛选模板与筛选组合，实现 store.CollectionsRepository 接口。
type esCollectionsRepository struct {
	client    *elasticsearch.Client
	logger    *core.ZapLogger
	indexName string
}

// NewESCollectionsRepository 创建一个新的 esCollectionsRepository 实例。
func NewESCollectionsRepository(client *elasticsearch.Client, logger *core.ZapLogger, indexName string) store.CollectionsRepository {
	if logger == nil {
		panic("创建 esCollectionsRepository 失败：Logger 实例不能为 nil")
	}
	if client == nil {
		logger.Fatal("创建 esCollectionsRepository 失败：Elasticsearch 客户端实例 (client) 不能为 nil。")
	}
	if indexName == "" {
		logger.Fatal("创建 esCollectionsRepository 失败：集合索引名称 (indexName) 不能为空。")
	}
	logger.Info("Elasticsearch CollectionsRepository 初始化成功",
		zap.String("target_index_for_collections", indexName),
	)
	return &esCollectionsRepository{
		client:    client,
		logger:    logger,
		indexName: indexName,
	}
}

// Read 读取指定集合键对应的 JSON 快照。
// 文档不存在时返回 store.ErrKeyNotFound，由调用方决定是否以空集合启动。
func (repo *esCollectionsRepository) Read(ctx context.Context, key string) (string, error) {
	req := esapi.GetRequest{
		Index:      repo.indexName,
		DocumentID: key,
	}

	res, err := req.Do(ctx, repo.client)
	if err != nil {
		repo.logger.Error("执行 Elasticsearch 集合读取请求时发生连接或客户端错误",
			zap.String("collection_key", key),
			zap.Error(err),
		)
		return "", fmt.Errorf("Elasticsearch 集合读取请求 (key: %s) 失败: %w", key, err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		repo.logger.Info("集合快照在 Elasticsearch 中不存在",
			zap.String("collection_key", key),
		)
		return "", store.ErrKeyNotFound
	}

	if res.IsError() {
		return "", repo.logAndWrapESErrorForCollections(res, "读取集合快照", key)
	}

	var esResponse struct {
		Source collectionDocument `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		repo.logger.Error("解码 Elasticsearch 集合读取响应体失败", zap.String("collection_key", key), zap.Error(err))
		return "", fmt.Errorf("解码 Elasticsearch 集合读取响应 (key: %s) 失败: %w", key, err)
	}

	repo.logger.Debug("成功读取集合快照",
		zap.String("collection_key", key),
		zap.Int("payload_bytes", len(esResponse.Source.Payload)),
	)
	return esResponse.Source.Payload, nil
}

// Write 以全量覆写的方式保存指定集合键的 JSON 快照。
func (repo *esCollectionsRepository) Write(ctx context.Context, key string, payload string) error {
	doc := collectionDocument{
		Key:       key,
		Payload:   payload,
		UpdatedAt: time.Now().UTC(),
	}

	body, err := json.Marshal(doc)
	if err != nil {
		repo.logger.Error("序列化集合快照文档失败", zap.String("collection_key", key), zap.Error(err))
		return fmt.Errorf("序列化集合快照文档 (key: %s) 失败: %w", key, err)
	}

	req := esapi.IndexRequest{
		Index:      repo.indexName,
		DocumentID: key,
		Body:       bytes.NewReader(body),
		// 集合写入量小且后续读取依赖最新快照，这里使用同步刷新。
		Refresh: "true",
	}

	res, err := req.Do(ctx, repo.client)
	if err != nil {
		repo.logger.Error("执行 Elasticsearch 集合写入请求时发生连接或客户端错误",
			zap.String("collection_key", key),
			zap.Error(err),
		)
		return fmt.Errorf("Elasticsearch 集合写入请求 (key: %s) 失败: %w", key, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return repo.logAndWrapESErrorForCollections(res, "写入集合快照", key)
	}

	repo.logger.Debug("成功写入集合快照",
		zap.String("collection_key", key),
		zap.Int("payload_bytes", len(payload)),
		zap.String("es_status", res.Status()),
	)
	return nil
}

// logAndWrapESErrorForCollections 是一个针对集合仓库的错误处理辅助函数。
func (repo *esCollectionsRepository) logAndWrapESErrorForCollections(res *esapi.Response, operationDesc string, contextIdentifier interface{}) error {
	var errorBodyContent string
	if res.Body != nil {
		bodyBytes, err := io.ReadAll(res.Body)
		if err == nil {
			errorBodyContent = string(bodyBytes)
		}
	}

	logFields := []zap.Field{
		zap.Any("context_identifier", contextIdentifier),
		zap.String("es_status", res.Status()),
	}
	if errorBodyContent != "" {
		logFields = append(logFields, zap.String("es_error_response_body", errorBodyContent))
	}

	repo.logger.Error(fmt.Sprintf("Elasticsearch 集合操作 '%s' 失败", operationDesc), logFields...)

	if errorBodyContent != "" {
		return fmt.Errorf("Elasticsearch 集合操作 '%s' 失败，状态码: %s，响应: %s", operationDesc, res.Status(), errorBodyContent)
	}
	return fmt.Errorf("Elasticsearch 集合操作 '%s' 失败，状态码: %s", operationDesc, res.Status())
}

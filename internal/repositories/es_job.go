package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"github.com/zzpwerkplaats/job_search/internal/models"
	"github.com/zzpwerkplaats/job_search/internal/search"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

// JobRepository 定义了与职位数据在 Elasticsearch 中持久化和检索相关的操作接口。
// 接口化设计使业务逻辑层与具体的存储实现解耦。
type JobRepository interface {
	// IndexJob 索引（创建或更新）一个职位文档到 Elasticsearch。
	// 相同 ID 的文档已存在时更新，否则创建，保证幂等。
	IndexJob(ctx context.Context, doc models.EsJobDocument) error

	// DeleteJob 根据职位 ID 从 Elasticsearch 中删除职位文档。
	// 文档不存在时视为幂等成功。
	DeleteJob(ctx context.Context, jobID uint64) error

	// SearchJobs 执行组合好的搜索查询，返回命中、总数、分面与耗时。
	// 返回结果中的 Query 为入参的原样回显；Suggestions 由上层服务填充。
	SearchJobs(ctx context.Context, q search.SearchQuery) (*search.SearchResult, error)
}

// esJobRepository 是 JobRepository 接口针对 Elasticsearch 的具体实现。
type esJobRepository struct {
	client    *elasticsearch.Client
	indexName string
	catalog   *search.Catalog // 字段目录：提供可检索字段与分面字段
	facetSize int
	logger    *core.ZapLogger
}

// NewESJobRepository 创建一个新的 esJobRepository 实例。
// 关键依赖缺失时 panic/Fatal，确保服务不会以不完整状态启动。
func NewESJobRepository(
	client *elasticsearch.Client,
	indexName string,
	catalog *search.Catalog,
	facetSize int,
	logger *core.ZapLogger,
) JobRepository {
	if logger == nil {
		panic("创建 esJobRepository 失败：Logger 实例不能为 nil")
	}
	if client == nil {
		logger.Fatal("创建 esJobRepository 失败：Elasticsearch 客户端实例 (client) 不能为 nil。")
	}
	if indexName == "" {
		logger.Fatal("创建 esJobRepository 失败：Elasticsearch 索引名称 (indexName) 不能为空。")
	}
	if catalog == nil {
		logger.Fatal("创建 esJobRepository 失败：字段目录 (catalog) 不能为 nil。")
	}

	logger.Info("Elasticsearch JobRepository 初始化成功",
		zap.String("index_name", indexName),
	)
	return &esJobRepository{
		client:    client,
		indexName: indexName,
		catalog:   catalog,
		facetSize: facetSize,
		logger:    logger,
	}
}

// logAndWrapESError 处理并记录 Elasticsearch API 响应中的错误：
// 读取响应体、记录状态码与内容，返回统一格式的包装错误。
func (repo *esJobRepository) logAndWrapESError(res *esapi.Response, operationDesc string, contextIdentifier interface{}) error {
	var errBody strings.Builder
	var readErr error
	if res.Body != nil {
		_, readErr = io.Copy(&errBody, res.Body)
	}

	logFields := []zap.Field{
		zap.Any("context_identifier", contextIdentifier),
		zap.String("es_status", res.Status()),
	}
	responseBodyStr := errBody.String()
	if readErr != nil {
		logFields = append(logFields, zap.Error(fmt.Errorf("读取 Elasticsearch 错误响应体失败: %w", readErr)))
	} else if responseBodyStr != "" {
		logFields = append(logFields, zap.String("es_error_response_body", responseBodyStr))
	}

	repo.logger.Error(fmt.Sprintf("Elasticsearch 操作 '%s' 失败", operationDesc), logFields...)

	if responseBodyStr != "" {
		return fmt.Errorf("Elasticsearch 操作 '%s' 失败，状态码: %s，响应: %s", operationDesc, res.Status(), responseBodyStr)
	}
	return fmt.Errorf("Elasticsearch 操作 '%s' 失败，状态码: %s", operationDesc, res.Status())
}

// IndexJob 在 Elasticsearch 中索引（创建或更新）一个职位文档。
// 使用职位 ID 作为文档 _id，实现幂等的创建或更新。
func (repo *esJobRepository) IndexJob(ctx context.Context, doc models.EsJobDocument) error {
	// 每次索引操作都刷新文档的最后更新时间戳，统一使用 UTC。
	doc.UpdatedAt = time.Now().UTC()
	docID := strconv.FormatUint(doc.ID, 10)

	payload, err := json.Marshal(doc)
	if err != nil {
		repo.logger.Error("序列化 EsJobDocument 为 JSON 失败",
			zap.Uint64("job_id", doc.ID),
			zap.Error(err),
		)
		return fmt.Errorf("序列化职位文档 (ID: %d) 失败: %w", doc.ID, err)
	}
	repo.logger.Debug("准备索引的职位文档", zap.String("document_id", docID), zap.ByteString("payload", payload))

	req := esapi.IndexRequest{
		Index:      repo.indexName,
		DocumentID: docID,
		Body:       bytes.NewReader(payload),
		// 异步刷新：写入先进内存缓冲与事务日志，对高吞吐的 Kafka 消费场景是首选。
		Refresh: "false",
	}

	res, err := req.Do(ctx, repo.client)
	if err != nil {
		repo.logger.Error("执行 Elasticsearch 索引请求时发生连接或客户端错误",
			zap.Uint64("job_id", doc.ID),
			zap.Error(err),
		)
		return fmt.Errorf("Elasticsearch 索引请求 (ID: %d) 失败: %w", doc.ID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return repo.logAndWrapESError(res, "索引职位文档", docID)
	}

	repo.logger.Info("成功发送职位索引/更新请求到 Elasticsearch",
		zap.Uint64("job_id", doc.ID),
		zap.String("es_status", res.Status()),
	)
	return nil
}

// DeleteJob 根据文档 ID 从 Elasticsearch 中删除职位文档。
// 幂等：目标文档本就不存在（404）时视为成功。
func (repo *esJobRepository) DeleteJob(ctx context.Context, jobID uint64) error {
	docID := strconv.FormatUint(jobID, 10)
	repo.logger.Info("准备从 Elasticsearch 删除职位文档", zap.String("document_id", docID))

	req := esapi.DeleteRequest{
		Index:      repo.indexName,
		DocumentID: docID,
		Refresh:    "false",
	}

	res, err := req.Do(ctx, repo.client)
	if err != nil {
		repo.logger.Error("执行 Elasticsearch 删除请求时发生连接或客户端错误",
			zap.Uint64("job_id", jobID),
			zap.Error(err),
		)
		return fmt.Errorf("Elasticsearch 删除请求 (ID: %d) 失败: %w", jobID, err)
	}
	defer res.Body.Close()

	// “文档不存在”意味着删除的目标状态已经达成，按幂等成功处理。
	if res.StatusCode == 404 {
		repo.logger.Warn("尝试删除的职位文档在 Elasticsearch 中未找到，视为操作成功 (幂等性)",
			zap.Uint64("job_id", jobID),
			zap.String("es_status", res.Status()),
		)
		return nil
	}

	if res.IsError() {
		return repo.logAndWrapESError(res, "删除职位文档", docID)
	}

	repo.logger.Info("成功发送职位删除请求到 Elasticsearch",
		zap.Uint64("job_id", jobID),
		zap.String("es_status", res.Status()),
	)
	return nil
}

// SearchJobs 在职位索引上执行查询，并把命中、总数、分面聚合与耗时
// 映射到通用的 search.SearchResult 信封。
func (repo *esJobRepository) SearchJobs(ctx context.Context, q search.SearchQuery) (*search.SearchResult, error) {
	repo.logger.Info("开始执行 Elasticsearch 职位搜索",
		zap.String("query_text", q.Text),
		zap.Int("filter_count", len(q.Filters)),
		zap.Int("page", q.Page),
		zap.Int("limit", q.Limit),
		zap.String("sort_by", q.SortBy),
		zap.String("sort_order", q.SortOrder),
	)

	queryJSON, err := buildSearchQuery(q, repo.catalog, repo.facetSize)
	if err != nil {
		repo.logger.Error("构建 Elasticsearch 搜索查询 DSL 失败", zap.Any("search_query", q), zap.Error(err))
		return nil, fmt.Errorf("构建搜索查询失败: %w", err)
	}
	repo.logger.Debug("构建的 Elasticsearch 查询 DSL", zap.String("dsl_query", string(queryJSON)))

	searchReq := esapi.SearchRequest{
		Index:          []string{repo.indexName},
		Body:           bytes.NewReader(queryJSON),
		TrackTotalHits: true,
	}

	res, err := searchReq.Do(ctx, repo.client)
	if err != nil {
		repo.logger.Error("执行 Elasticsearch 搜索请求时发生连接或客户端错误", zap.String("query_text", q.Text), zap.Error(err))
		return nil, fmt.Errorf("Elasticsearch 搜索请求失败: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, repo.logAndWrapESError(res, "搜索职位文档", q.Text)
	}

	var esResponse struct {
		Took int `json:"took"`
		Hits struct {
			Total struct {
				Value    int64  `json:"value"`
				Relation string `json:"relation"`
			} `json:"total"`
			Hits []struct {
				Source search.Document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
		Aggregations map[string]struct {
			Buckets []struct {
				Key         interface{} `json:"key"`
				KeyAsString string      `json:"key_as_string"`
				DocCount    int64       `json:"doc_count"`
			} `json:"buckets"`
		} `json:"aggregations"`
	}

	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		repo.logger.Error("解码 Elasticsearch 搜索响应体失败", zap.String("query_text", q.Text), zap.Error(err))
		return nil, fmt.Errorf("解码 Elasticsearch 搜索响应失败: %w", err)
	}

	result := &search.SearchResult{
		Items:        make([]search.Document, 0, len(esResponse.Hits.Hits)),
		Total:        esResponse.Hits.Total.Value,
		SearchTimeMs: int64(esResponse.Took),
		Query:        q.Clone(),
	}
	for _, hit := range esResponse.Hits.Hits {
		result.Items = append(result.Items, hit.Source)
	}

	// 聚合桶映射为按计数排列的分面 值/计数 对。
	// boolean 字段的桶以 key_as_string 表达（"true"/"false"）。
	if len(esResponse.Aggregations) > 0 {
		result.Facets = make(map[string][]search.FacetValue, len(esResponse.Aggregations))
		for field, agg := range esResponse.Aggregations {
			values := make([]search.FacetValue, 0, len(agg.Buckets))
			for _, b := range agg.Buckets {
				label := b.KeyAsString
				if label == "" {
					label = fmt.Sprintf("%v", b.Key)
				}
				values = append(values, search.FacetValue{Value: label, Count: b.DocCount})
			}
			result.Facets[field] = values
		}
	}

	repo.logger.Info("Elasticsearch 职位搜索成功完成",
		zap.Int64("query_took_ms", result.SearchTimeMs),
		zap.Int64("total_hits_found", result.Total),
		zap.Int("returned_hits_count", len(result.Items)),
		zap.String("total_hits_relation", esResponse.Hits.Total.Relation),
		zap.String("query_text", q.Text),
	)

	return result, nil
}

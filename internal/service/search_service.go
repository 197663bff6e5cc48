package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Xushengqwer/go-common/core"

	"github.com/zzpwerkplaats/job_search/internal/models"
	"github.com/zzpwerkplaats/job_search/internal/repositories"
	"github.com/zzpwerkplaats/job_search/internal/search"

	"go.uber.org/zap"
)

// SearchService 封装了与职位搜索相关的业务逻辑。
// 它作为 API 处理层（例如 HTTP Handler）和数据仓库层 (Repository) 之间的中介，
// 负责协调搜索请求的处理、调用数据访问操作，并为结果补充联想建议。
// 它实现了 search.Provider 接口，可直接注入 search.Composer。
type SearchService struct {
	jobRepo           repositories.JobRepository           // JobRepository 接口的实例，用于与 Elasticsearch 交互职位数据。
	hotSearchTermRepo repositories.HotSearchTermRepository // HotSearchTermRepository 接口的实例，用于热门搜索词统计与联想。
	suggestionLimit   int                                  // 每次搜索附带的联想建议数量上限。
	logger            *core.ZapLogger                      // ZapLogger 实例，用于结构化日志记录。
}

// 编译期断言：SearchService 必须满足 search.Provider 接口。
var _ search.Provider = (*SearchService)(nil)

// NewSearchService 创建 SearchService 的一个新实例。
// 参数:
//   - jobRepo: 一个已经初始化并准备好的 JobRepository 实例。
//   - hotSearchTermRepo: 一个已经初始化并准备好的 HotSearchTermRepository 实例。
//   - suggestionLimit: 搜索结果中联想建议的数量上限，非正数时使用默认值 5。
//   - logger: 一个注入的 Logger 实例，用于服务内部的日志记录。
//
// 返回值:
//   - *SearchService: 成功创建的 SearchService 实例。
func NewSearchService(
	jobRepo repositories.JobRepository,
	hotSearchTermRepo repositories.HotSearchTermRepository,
	suggestionLimit int,
	logger *core.ZapLogger,
) *SearchService {
	if logger == nil {
		panic("创建 SearchService 失败：Logger 实例不能为 nil。")
	}
	if jobRepo == nil {
		logger.Fatal("创建 SearchService 失败：JobRepository 实例不能为 nil。服务将无法执行职位搜索操作。")
	}
	if hotSearchTermRepo == nil {
		logger.Fatal("创建 SearchService 失败：HotSearchTermRepository 实例不能为 nil。服务将无法处理热门搜索词功能。")
	}
	if suggestionLimit <= 0 {
		suggestionLimit = 5
	}

	logger.Info("SearchService 初始化成功 (包含热门搜索词与联想建议支持)。")
	return &SearchService{
		jobRepo:           jobRepo,
		hotSearchTermRepo: hotSearchTermRepo,
		suggestionLimit:   suggestionLimit,
		logger:            logger,
	}
}

// Execute 根据组合好的查询执行职位搜索操作。
// 查询文本非空时，结果中会附带基于热门搜索词的联想建议；
// 联想建议获取失败不影响主搜索结果。
func (s *SearchService) Execute(ctx context.Context, q search.SearchQuery) (*search.SearchResult, error) {
	logFields := []zap.Field{
		zap.String("搜索关键词", q.Text),
		zap.Int("筛选条件数", len(q.Filters)),
		zap.Int("请求页码", q.Page),
		zap.Int("每页数量", q.Limit),
		zap.String("排序字段", q.SortBy),
		zap.String("排序顺序", q.SortOrder),
	}
	s.logger.Info("正在处理职位搜索请求", logFields...)

	searchResult, err := s.jobRepo.SearchJobs(ctx, q)
	if err != nil {
		s.logger.Error("调用 JobRepository 执行搜索操作时发生错误",
			zap.Error(err),
			zap.String("搜索关键词_OnError", q.Text),
			zap.Int("请求页码_OnError", q.Page),
		)
		return nil, fmt.Errorf("执行搜索操作失败: %w", err)
	}

	if trimmed := strings.TrimSpace(q.Text); trimmed != "" {
		suggestions, suggErr := s.hotSearchTermRepo.SuggestTerms(ctx, strings.ToLower(trimmed), s.suggestionLimit)
		if suggErr != nil {
			// 联想建议是附加信息，失败只记日志，不影响搜索结果。
			s.logger.Warn("获取搜索词联想建议失败",
				zap.String("query_text", trimmed),
				zap.Error(suggErr),
			)
		} else {
			searchResult.Suggestions = suggestions
		}
	}

	s.logger.Info("职位搜索成功完成",
		zap.Int64("总命中数", searchResult.Total),
		zap.Int("返回结果数", len(searchResult.Items)),
		zap.Int("联想建议数", len(searchResult.Suggestions)),
		zap.Int64("查询耗时_ms", searchResult.SearchTimeMs),
	)

	return searchResult, nil
}

// LogSearchQuery 记录一个搜索查询，用于热门搜索词分析。
// 它会规范化查询字符串，然后调用 HotSearchTermRepository 来递增该词的计数。
func (s *SearchService) LogSearchQuery(ctx context.Context, query string) error {
	// 规范化：转小写并去除首尾空格，保证 "Go" 与 "go" 计入同一词条。
	normalizedQuery := strings.TrimSpace(strings.ToLower(query))

	if normalizedQuery == "" {
		s.logger.Debug("接收到空查询字符串，跳过热门搜索词记录。")
		return nil
	}

	s.logger.Debug("准备记录并递增搜索词计数",
		zap.String("original_query", query),
		zap.String("normalized_query_to_log", normalizedQuery),
	)

	err := s.hotSearchTermRepo.IncrementSearchTermCount(ctx, normalizedQuery)
	if err != nil {
		s.logger.Error("调用 HotSearchTermRepository 递增搜索词计数失败",
			zap.String("normalized_query", normalizedQuery),
			zap.Error(err),
		)
		// 记录热门词失败不应阻塞主搜索流程，由调用方决定如何处置。
		return fmt.Errorf("记录搜索词 '%s' 失败: %w", normalizedQuery, err)
	}

	s.logger.Debug("搜索词计数已成功请求递增", zap.String("normalized_query", normalizedQuery))
	return nil
}

// GetHotSearchTerms 从 HotSearchTermRepository 检索热门搜索词列表。
func (s *SearchService) GetHotSearchTerms(ctx context.Context, limit int) ([]models.HotSearchTerm, error) {
	s.logger.Info("服务层：正在请求获取热门搜索词列表", zap.Int("limit", limit))

	terms, err := s.hotSearchTermRepo.GetHotSearchTerms(ctx, limit)
	if err != nil {
		s.logger.Error("调用 HotSearchTermRepository 获取热门搜索词列表失败",
			zap.Int("limit", limit),
			zap.Error(err),
		)
		return nil, fmt.Errorf("获取热门搜索词列表失败 (limit: %d): %w", limit, err)
	}

	s.logger.Info("服务层：成功获取热门搜索词列表",
		zap.Int("retrieved_count", len(terms)),
		zap.Int("requested_limit", limit),
	)
	return terms, nil
}

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Xushengqwer/gateway/pkg/response"
	"github.com/Xushengqwer/go-common/core"
	"github.com/zzpwerkplaats/job_search/internal/models"
	"github.com/zzpwerkplaats/job_search/internal/search"
	"github.com/zzpwerkplaats/job_search/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SearchHandler 封装职位搜索相关的 API 请求处理逻辑.
type SearchHandler struct {
	searchService *service.SearchService
	catalog       *search.Catalog
	logger        *core.ZapLogger
}

// NewSearchHandler 创建 SearchHandler 实例.
func NewSearchHandler(searchSvc *service.SearchService, catalog *search.Catalog, logger *core.ZapLogger) *SearchHandler {
	if logger == nil {
		panic("NewSearchHandler: logger cannot be nil")
	}
	if searchSvc == nil {
		logger.Fatal("NewSearchHandler: SearchService 不能为 nil")
	}
	if catalog == nil {
		logger.Fatal("NewSearchHandler: 字段目录 (catalog) 不能为 nil")
	}

	return &SearchHandler{
		searchService: searchSvc,
		catalog:       catalog,
		logger:        logger,
	}
}

// SearchJobs 处理职位搜索请求
// @Summary      搜索职位
// @Description  根据关键词、结构化过滤器、分页、排序等条件搜索职位列表
// @Tags         Search
// @Accept       json
// @Produce      json
// @Param        q         query     string  false  "搜索关键词"
// @Param        page      query     int     false  "页码 (从1开始)" default(1) minimum(1)
// @Param        size      query     int     false  "每页数量" default(10) minimum(1) maximum(100)
// @Param        sort_by   query     string  false  "排序字段 (例如: posted_at, hourly_rate)；为空时按相关性排序"
// @Param        sort_order query    string  false  "排序顺序 (asc 或 desc)" default(desc) Enums(asc, desc)
// @Param        filters   query     string  false  "结构化过滤器的 JSON 数组"
// @Success      200       {object}  models.SwaggerSearchResultResponse "搜索成功，返回匹配的职位列表、分面与联想建议。"
// @Failure      400       {object}  models.SwaggerErrorResponse "请求参数无效，例如过滤器字段不可过滤或操作符不合法。"
// @Failure      500       {object}  models.SwaggerErrorResponse "服务器内部错误，搜索服务遇到未预期的问题。"
// @Router       /api/v1/jobs/search [get]
func (h *SearchHandler) SearchJobs(c *gin.Context) {
	var req models.SearchJobsRequest

	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Warn("请求参数绑定或验证失败", zap.Error(err))
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "请求参数无效")
		return
	}
	h.logger.Debug("绑定后的搜索请求", zap.Any("request", req))

	filters, err := h.parseFilters(req.Filters)
	if err != nil {
		h.logger.Warn("解析或校验结构化过滤器失败", zap.String("filters_raw", req.Filters), zap.Error(err))
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "过滤器参数无效: "+err.Error())
		return
	}

	query := search.SearchQuery{
		Text:      req.Query,
		Filters:   filters,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
		Page:      req.Page,
		Limit:     req.Size,
	}
	if err := query.Validate(h.catalog); err != nil {
		h.logger.Warn("搜索查询校验失败", zap.Error(err))
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "查询参数无效: "+err.Error())
		return
	}

	// 异步记录搜索关键词用于热门词统计，不阻塞主搜索流程。
	if strings.TrimSpace(req.Query) != "" {
		queryToLog := req.Query
		go func(query string) {
			// HTTP 请求结束会取消 c.Request.Context()，后台任务使用独立上下文。
			logCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := h.searchService.LogSearchQuery(logCtx, query); err != nil {
				h.logger.Error("异步记录搜索关键词失败",
					zap.String("query", query),
					zap.Error(err),
				)
			} else {
				h.logger.Debug("搜索关键词已异步提交记录", zap.String("query", query))
			}
		}(queryToLog)
	}

	results, err := h.searchService.Execute(c.Request.Context(), query)
	if err != nil {
		h.logger.Error("服务层搜索失败", zap.Error(err))
		response.RespondError(c, http.StatusInternalServerError, response.ErrCodeServerInternal, "搜索服务内部错误")
		return
	}

	h.logger.Info("搜索成功", zap.Int("结果数量", len(results.Items)))
	response.RespondSuccess(c, results, "搜索成功")
}

// parseFilters 将 filters 查询参数（JSON 数组）解析为过滤器列表并逐条校验。
// 客户端可省略过滤器的 type 字段，此处从字段目录回填后再校验。
func (h *SearchHandler) parseFilters(raw string) ([]search.SearchFilter, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var filters []search.SearchFilter
	if err := json.Unmarshal([]byte(raw), &filters); err != nil {
		return nil, err
	}
	for i := range filters {
		if filters[i].Type == "" {
			if def, ok := h.catalog.Field(filters[i].Field); ok {
				filters[i].Type = def.Type
			}
		}
		if filters[i].Operator == "" {
			filters[i].Operator = search.DefaultOperatorForType(filters[i].Type)
		}
		if err := filters[i].Validate(h.catalog); err != nil {
			return nil, err
		}
	}
	return filters, nil
}

// GetHotSearchTerms 处理获取热门搜索词的请求
// @Summary      获取热门搜索词
// @Description  返回最流行或最近搜索词的列表。
// @Tags         Search
// @Produce      json
// @Param        limit    query     int     false  "返回的热门搜索词数量" default(10) minimum(1) maximum(50)
// @Success      200      {object}  models.SwaggerHotSearchTermsResponse "成功，返回热门搜索词列表。"
// @Failure      500      {object}  models.SwaggerErrorResponse "服务器内部错误，无法获取热门搜索词。"
// @Router       /api/v1/jobs/hot-terms [get]
func (h *SearchHandler) GetHotSearchTerms(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "10")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		limit = 10
	} else if limit > 50 {
		limit = 50
	}

	h.logger.Info("收到获取热门搜索词请求", zap.Int("limit", limit))

	terms, err := h.searchService.GetHotSearchTerms(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("服务层获取热门搜索词失败", zap.Int("limit", limit), zap.Error(err))
		response.RespondError(c, http.StatusInternalServerError, response.ErrCodeServerInternal, "获取热门搜索词失败")
		return
	}

	// 空列表返回空数组而不是 null，前端处理更友好。
	if terms == nil {
		terms = make([]models.HotSearchTerm, 0)
	}

	h.logger.Info("成功获取热门搜索词列表", zap.Int("count", len(terms)), zap.Int("requested_limit", limit))
	response.RespondSuccess(c, terms, "热门搜索词获取成功")
}

// GetFieldCatalog 返回字段目录：可过滤/可排序字段、类型、select 字段的候选项，
// 以及每种类型的合法操作符集合。前端用它驱动过滤器编辑界面。
// @Summary      获取字段目录
// @Description  返回可用于搜索、过滤、排序的字段定义及各类型的合法操作符。
// @Tags         Search
// @Produce      json
// @Success      200      {object}  models.SwaggerFieldCatalogResponse "成功，返回字段目录。"
// @Router       /api/v1/jobs/fields [get]
func (h *SearchHandler) GetFieldCatalog(c *gin.Context) {
	operators := make(map[string][]search.Operator)
	for _, t := range []search.FieldType{
		search.FieldTypeText,
		search.FieldTypeNumber,
		search.FieldTypeDate,
		search.FieldTypeSelect,
		search.FieldTypeBoolean,
	} {
		operators[string(t)] = search.OperatorsForType(t)
	}

	payload := gin.H{
		"fields":    h.catalog.Fields(),
		"operators": operators,
	}
	response.RespondSuccess(c, payload, "字段目录获取成功")
}

// HealthCheck 健康检查处理函数
func (h *SearchHandler) HealthCheck(c *gin.Context) {
	h.logger.Debug("执行存活度健康检查")
	response.RespondSuccess(c, gin.H{"status": "ok"}, "服务存活")
}

// RegisterRoutes 将搜索相关的路由注册到提供的 Gin 路由组 (RouterGroup) 上。
func (h *SearchHandler) RegisterRoutes(rg *gin.RouterGroup) {
	h.logger.Info("开始注册 SearchHandler 的路由...")

	rg.GET("/search", h.SearchJobs)
	h.logger.Info("路由 GET /search 已注册到 SearchHandler.SearchJobs")

	rg.GET("/hot-terms", h.GetHotSearchTerms)
	h.logger.Info("路由 GET /hot-terms 已注册到 SearchHandler.GetHotSearchTerms")

	rg.GET("/fields", h.GetFieldCatalog)
	h.logger.Info("路由 GET /fields 已注册到 SearchHandler.GetFieldCatalog")

	rg.GET("/_health", h.HealthCheck)
	h.logger.Info("路由 GET /_health 已注册到 SearchHandler.HealthCheck")

	h.logger.Info("SearchHandler 的所有路由已注册完成。")
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Xushengqwer/gateway/pkg/response"
	"github.com/Xushengqwer/go-common/core"
	"github.com/zzpwerkplaats/job_search/internal/models"
	"github.com/zzpwerkplaats/job_search/internal/search"
	"github.com/zzpwerkplaats/job_search/internal/store"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CollectionsHandler 封装已保存搜索、过滤器模板与过滤器集合的 API 请求处理逻辑.
type CollectionsHandler struct {
	store  *store.Store
	logger *core.ZapLogger
}

// NewCollectionsHandler 创建 CollectionsHandler 实例.
func NewCollectionsHandler(st *store.Store, logger *core.ZapLogger) *CollectionsHandler {
	if logger == nil {
		panic("NewCollectionsHandler: logger cannot be nil")
	}
	if st == nil {
		logger.Fatal("NewCollectionsHandler: Store 不能为 nil")
	}

	return &CollectionsHandler{
		store:  st,
		logger: logger,
	}
}

// respondStoreError 将存储层的哨兵错误映射为相应的 HTTP 状态码。
func (h *CollectionsHandler) respondStoreError(c *gin.Context, err error, operationDesc string) {
	switch {
	case errors.Is(err, store.ErrEmptyName),
		errors.Is(err, store.ErrEmptyQuery),
		errors.Is(err, store.ErrNoFilters):
		h.logger.Warn(operationDesc+"被拒绝", zap.Error(err))
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, err.Error())
	case errors.Is(err, store.ErrNotFound):
		h.logger.Warn(operationDesc+"的目标不存在", zap.Error(err))
		response.RespondError(c, http.StatusNotFound, response.ErrCodeClientInvalidInput, err.Error())
	case errors.Is(err, store.ErrTemplateProtected):
		h.logger.Warn(operationDesc+"被保护规则拒绝", zap.Error(err))
		response.RespondError(c, http.StatusForbidden, response.ErrCodeClientInvalidInput, err.Error())
	default:
		h.logger.Error(operationDesc+"失败", zap.Error(err))
		response.RespondError(c, http.StatusInternalServerError, response.ErrCodeServerInternal, operationDesc+"失败")
	}
}

// --- SavedSearch ---

// SaveSearch 将客户端提交的完整查询保存为 SavedSearch
// @Summary      保存搜索
// @Description  以给定名称保存一个完整的搜索查询（文本、过滤器、排序）。
// @Tags         Collections
// @Accept       json
// @Produce      json
// @Param        body  body      models.SaveSearchRequest  true  "名称与查询 JSON"
// @Success      200   {object}  models.SwaggerErrorResponse "保存成功，返回新条目。"
// @Failure      400   {object}  models.SwaggerErrorResponse "名称为空、查询为空或 JSON 不合法。"
// @Router       /api/v1/jobs/saved-searches [post]
func (h *CollectionsHandler) SaveSearch(c *gin.Context) {
	var req models.SaveSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("保存搜索的请求体绑定失败", zap.Error(err))
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "请求参数无效")
		return
	}

	var query search.SearchQuery
	if err := json.Unmarshal([]byte(req.Query), &query); err != nil {
		h.logger.Warn("保存搜索的查询 JSON 解析失败", zap.Error(err))
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "查询 JSON 不合法")
		return
	}

	saved, err := h.store.SaveSearch(c.Request.Context(), req.Name, query)
	if err != nil {
		h.respondStoreError(c, err, "保存搜索")
		return
	}
	response.RespondSuccess(c, saved, "搜索保存成功")
}

// ListSavedSearches 返回全部已保存的搜索
// @Summary      列出已保存的搜索
// @Tags         Collections
// @Produce      json
// @Router       /api/v1/jobs/saved-searches [get]
func (h *CollectionsHandler) ListSavedSearches(c *gin.Context) {
	response.RespondSuccess(c, h.store.SavedSearches(), "已保存搜索获取成功")
}

// LoadSavedSearch 取出一条已保存的搜索供客户端恢复
// @Summary      加载已保存的搜索
// @Description  返回完整的已保存查询，同时递增其使用次数并刷新最近使用时间。
// @Tags         Collections
// @Produce      json
// @Param        id   path      string  true  "SavedSearch ID"
// @Router       /api/v1/jobs/saved-searches/{id}/load [post]
func (h *CollectionsHandler) LoadSavedSearch(c *gin.Context) {
	saved, err := h.store.LoadSavedSearch(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondStoreError(c, err, "加载已保存搜索")
		return
	}
	response.RespondSuccess(c, saved, "已保存搜索加载成功")
}

// DeleteSavedSearch 删除一条已保存的搜索；ID 不存在时同样返回成功（幂等）。
// @Summary      删除已保存的搜索
// @Tags         Collections
// @Param        id   path      string  true  "SavedSearch ID"
// @Router       /api/v1/jobs/saved-searches/{id} [delete]
func (h *CollectionsHandler) DeleteSavedSearch(c *gin.Context) {
	h.store.DeleteSavedSearch(c.Request.Context(), c.Param("id"))
	response.RespondSuccess(c, gin.H{}, "已保存搜索删除成功")
}

// --- FilterTemplate ---

// SaveTemplate 将过滤器列表保存为 custom 分类下的新模板
// @Summary      保存过滤器模板
// @Tags         Collections
// @Accept       json
// @Produce      json
// @Param        body  body      models.SaveFiltersRequest  true  "名称、描述与过滤器 JSON 数组"
// @Router       /api/v1/jobs/templates [post]
func (h *CollectionsHandler) SaveTemplate(c *gin.Context) {
	var req models.SaveFiltersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("保存模板的请求体绑定失败", zap.Error(err))
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "请求参数无效")
		return
	}

	filters, err := decodeFilters(req.Filters)
	if err != nil {
		h.logger.Warn("保存模板的过滤器 JSON 解析失败", zap.Error(err))
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "过滤器 JSON 不合法")
		return
	}

	tpl, err := h.store.SaveTemplate(c.Request.Context(), req.Name, req.Description, filters)
	if err != nil {
		h.respondStoreError(c, err, "保存过滤器模板")
		return
	}
	response.RespondSuccess(c, tpl, "过滤器模板保存成功")
}

// ListTemplates 按分类分组返回全部过滤器模板
// @Summary      列出过滤器模板
// @Tags         Collections
// @Produce      json
// @Router       /api/v1/jobs/templates [get]
func (h *CollectionsHandler) ListTemplates(c *gin.Context) {
	response.RespondSuccess(c, h.store.TemplatesByCategory(), "过滤器模板获取成功")
}

// ApplyTemplate 取出模板的过滤器列表（仅过滤器，不含文本）
// @Summary      应用过滤器模板
// @Description  返回模板的过滤器列表并递增其使用次数；自由文本不受影响。
// @Tags         Collections
// @Produce      json
// @Param        id   path      string  true  "FilterTemplate ID"
// @Router       /api/v1/jobs/templates/{id}/apply [post]
func (h *CollectionsHandler) ApplyTemplate(c *gin.Context) {
	filters, err := h.store.ApplyTemplate(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondStoreError(c, err, "应用过滤器模板")
		return
	}
	response.RespondSuccess(c, filters, "过滤器模板应用成功")
}

// DeleteTemplate 删除一个过滤器模板；公开模板受保护，返回 403。
// @Summary      删除过滤器模板
// @Tags         Collections
// @Param        id   path      string  true  "FilterTemplate ID"
// @Router       /api/v1/jobs/templates/{id} [delete]
func (h *CollectionsHandler) DeleteTemplate(c *gin.Context) {
	if err := h.store.DeleteTemplate(c.Request.Context(), c.Param("id")); err != nil {
		h.respondStoreError(c, err, "删除过滤器模板")
		return
	}
	response.RespondSuccess(c, gin.H{}, "过滤器模板删除成功")
}

// --- FilterSet ---

// SaveFilterSet 将当前过滤器保存为命名的过滤器集合
// @Summary      保存过滤器集合
// @Tags         Collections
// @Accept       json
// @Produce      json
// @Param        body  body      models.SaveFiltersRequest  true  "名称与过滤器 JSON 数组"
// @Router       /api/v1/jobs/filter-sets [post]
func (h *CollectionsHandler) SaveFilterSet(c *gin.Context) {
	var req models.SaveFiltersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("保存过滤器集合的请求体绑定失败", zap.Error(err))
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "请求参数无效")
		return
	}

	filters, err := decodeFilters(req.Filters)
	if err != nil {
		h.logger.Warn("保存过滤器集合的过滤器 JSON 解析失败", zap.Error(err))
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "过滤器 JSON 不合法")
		return
	}

	set, err := h.store.SaveFilterSet(c.Request.Context(), req.Name, filters)
	if err != nil {
		h.respondStoreError(c, err, "保存过滤器集合")
		return
	}
	response.RespondSuccess(c, set, "过滤器集合保存成功")
}

// ListFilterSets 返回全部过滤器集合
// @Summary      列出过滤器集合
// @Tags         Collections
// @Produce      json
// @Router       /api/v1/jobs/filter-sets [get]
func (h *CollectionsHandler) ListFilterSets(c *gin.Context) {
	response.RespondSuccess(c, h.store.FilterSets(), "过滤器集合获取成功")
}

// LoadFilterSet 取出集合的过滤器列表并刷新其最近使用时间
// @Summary      加载过滤器集合
// @Tags         Collections
// @Produce      json
// @Param        id   path      string  true  "FilterSet ID"
// @Router       /api/v1/jobs/filter-sets/{id}/load [post]
func (h *CollectionsHandler) LoadFilterSet(c *gin.Context) {
	filters, err := h.store.LoadFilterSet(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondStoreError(c, err, "加载过滤器集合")
		return
	}
	response.RespondSuccess(c, filters, "过滤器集合加载成功")
}

// ToggleFavorite 翻转过滤器集合的收藏标记
// @Summary      收藏/取消收藏过滤器集合
// @Tags         Collections
// @Param        id   path      string  true  "FilterSet ID"
// @Router       /api/v1/jobs/filter-sets/{id}/favorite [post]
func (h *CollectionsHandler) ToggleFavorite(c *gin.Context) {
	if err := h.store.ToggleFavorite(c.Request.Context(), c.Param("id")); err != nil {
		h.respondStoreError(c, err, "切换过滤器集合收藏标记")
		return
	}
	response.RespondSuccess(c, gin.H{}, "收藏标记切换成功")
}

// DeleteFilterSet 删除一个过滤器集合；ID 不存在时同样返回成功（幂等）。
// @Summary      删除过滤器集合
// @Tags         Collections
// @Param        id   path      string  true  "FilterSet ID"
// @Router       /api/v1/jobs/filter-sets/{id} [delete]
func (h *CollectionsHandler) DeleteFilterSet(c *gin.Context) {
	h.store.DeleteFilterSet(c.Request.Context(), c.Param("id"))
	response.RespondSuccess(c, gin.H{}, "过滤器集合删除成功")
}

// decodeFilters 解析请求体中的过滤器 JSON 数组。
func decodeFilters(raw string) ([]search.SearchFilter, error) {
	var filters []search.SearchFilter
	if err := json.Unmarshal([]byte(raw), &filters); err != nil {
		return nil, err
	}
	return filters, nil
}

// RegisterRoutes 将集合相关的路由注册到提供的 Gin 路由组 (RouterGroup) 上。
func (h *CollectionsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	h.logger.Info("开始注册 CollectionsHandler 的路由...")

	rg.POST("/saved-searches", h.SaveSearch)
	rg.GET("/saved-searches", h.ListSavedSearches)
	rg.POST("/saved-searches/:id/load", h.LoadSavedSearch)
	rg.DELETE("/saved-searches/:id", h.DeleteSavedSearch)

	rg.POST("/templates", h.SaveTemplate)
	rg.GET("/templates", h.ListTemplates)
	rg.POST("/templates/:id/apply", h.ApplyTemplate)
	rg.DELETE("/templates/:id", h.DeleteTemplate)

	rg.POST("/filter-sets", h.SaveFilterSet)
	rg.GET("/filter-sets", h.ListFilterSets)
	rg.POST("/filter-sets/:id/load", h.LoadFilterSet)
	rg.POST("/filter-sets/:id/favorite", h.ToggleFavorite)
	rg.DELETE("/filter-sets/:id", h.DeleteFilterSet)

	h.logger.Info("CollectionsHandler 的所有路由已注册完成。")
}

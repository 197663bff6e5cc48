package service

import "github.com/zzpwerkplaats/job_search/internal/search"

// JobFieldCatalog 构建职位搜索的字段目录。
// 目录决定了哪些字段可全文检索、可筛选、可排序，以及 select 字段的候选项；
// 查询构建、筛选校验与分面聚合都以它为准。
func JobFieldCatalog() *search.Catalog {
	return search.NewCatalog([]search.FieldDefinition{
		{
			Key:        "title",
			Label:      "职位标题",
			Type:       search.FieldTypeText,
			Searchable: true,
			Filterable: true,
			Sortable:   true,
		},
		{
			Key:        "description",
			Label:      "职位描述",
			Type:       search.FieldTypeText,
			Searchable: true,
			Filterable: true,
		},
		{
			Key:   "category",
			Label: "职位类别",
			Type:  search.FieldTypeSelect,
			Options: []search.Option{
				{Value: "bouw", Label: "建筑施工"},
				{Value: "techniek", Label: "技术工程"},
				{Value: "zorg", Label: "医疗护理"},
				{Value: "ict", Label: "信息技术"},
				{Value: "logistiek", Label: "物流运输"},
				{Value: "administratie", Label: "行政财务"},
				{Value: "overig", Label: "其他"},
			},
			Filterable: true,
		},
		{
			Key:        "location",
			Label:      "工作地点",
			Type:       search.FieldTypeText,
			Searchable: true,
			Filterable: true,
			Sortable:   true,
		},
		{
			Key:        "employer_name",
			Label:      "雇主名称",
			Type:       search.FieldTypeText,
			Searchable: true,
			Filterable: true,
		},
		{
			Key:        "hourly_rate",
			Label:      "时薪",
			Type:       search.FieldTypeNumber,
			Filterable: true,
			Sortable:   true,
		},
		{
			Key:        "remote",
			Label:      "远程工作",
			Type:       search.FieldTypeBoolean,
			Filterable: true,
		},
		{
			Key:   "status",
			Label: "职位状态",
			Type:  search.FieldTypeSelect,
			Options: []search.Option{
				{Value: "0", Label: "招聘中"},
				{Value: "1", Label: "已成交"},
				{Value: "2", Label: "已关闭"},
			},
			Filterable: true,
		},
		{
			Key:        "posted_at",
			Label:      "发布时间",
			Type:       search.FieldTypeDate,
			Filterable: true,
			Sortable:   true,
		},
		{
			Key:      "updated_at",
			Label:    "更新时间",
			Type:     search.FieldTypeDate,
			Sortable: true,
		},
	})
}

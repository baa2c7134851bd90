package pagination

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// Params 描述一次分页请求；Limit <= 0 或 Page < 0 表示不分页。
type Params struct {
	Page  int
	Limit int
}

// Enabled 判断是否启用分页。
func (p Params) Enabled() bool {
	return p.Limit > 0 && p.Page >= 0
}

// Offset 返回需要跳过的记录数，页码从 0 开始。
func (p Params) Offset() int {
	return p.Page * p.Limit
}

// Parse 解析查询参数；缺少 limit 或任一值无法解析时视为不分页，只给 limit 时页码取 0。
func Parse(pageRaw, limitRaw string) Params {
	pageRaw = strings.TrimSpace(pageRaw)
	limitRaw = strings.TrimSpace(limitRaw)
	if limitRaw == "" {
		return Params{Page: -1}
	}
	if pageRaw == "" {
		pageRaw = "0"
	}
	page, err := strconv.Atoi(pageRaw)
	if err != nil {
		return Params{Page: -1}
	}
	limit, err := strconv.Atoi(limitRaw)
	if err != nil {
		return Params{Page: -1}
	}
	return Params{Page: page, Limit: limit}
}

// Result 是列表查询结果。分页时序列化为 {"items","total"}，否则直接序列化为数组。
type Result[T any] struct {
	Items []T
	Total int64
	Paged bool
}

func (r Result[T]) MarshalJSON() ([]byte, error) {
	items := r.Items
	if items == nil {
		items = []T{}
	}
	if !r.Paged {
		return json.Marshal(items)
	}
	return json.Marshal(struct {
		Items []T   `json:"items"`
		Total int64 `json:"total"`
	}{Items: items, Total: r.Total})
}

// Find 在给定作用域上按 created_at 倒序查询，必要时同时统计总数。
func Find[T any](ctx context.Context, db *gorm.DB, p Params, scopes ...func(*gorm.DB) *gorm.DB) (Result[T], error) {
	var model T
	result := Result[T]{Items: []T{}, Paged: p.Enabled()}

	query := db.WithContext(ctx).Model(&model).Scopes(scopes...)
	if result.Paged {
		if err := query.Session(&gorm.Session{}).Count(&result.Total).Error; err != nil {
			return result, fmt.Errorf("count: %w", err)
		}
	}

	query = query.Order("created_at DESC").Order("id DESC")
	if result.Paged {
		query = query.Offset(p.Offset()).Limit(p.Limit)
	}
	if err := query.Find(&result.Items).Error; err != nil {
		return result, fmt.Errorf("find: %w", err)
	}
	return result, nil
}

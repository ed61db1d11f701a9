// Package query 对文章集合做纯函数投影：排序、过滤、分页。输入切片不会被修改。
package query

import (
	"sort"
	"strings"
	"time"

	"github.com/d60-Lab/techoh/internal/model"
)

var dateLayouts = []string{
	"Jan 2, 2006",
	"January 2, 2006",
	"2006-01-02",
	time.RFC3339,
}

// ParseDate 解析 publishDate；无法解析时 ok=false
func ParseDate(s string) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SortByRecency 按发布日期倒序；无法解析的日期排最后，相同日期保持原顺序
func SortByRecency(articles []model.Article) []model.Article {
	out := clone(articles)
	dates := make([]time.Time, len(out))
	valid := make([]bool, len(out))
	for i, a := range out {
		dates[i], valid[i] = ParseDate(a.PublishDate)
	}
	idx := indexes(len(out))
	sort.SliceStable(idx, func(i, j int) bool {
		a, b := idx[i], idx[j]
		if valid[a] != valid[b] {
			return valid[a]
		}
		return valid[a] && dates[a].After(dates[b])
	})
	return permute(out, idx)
}

// SortByPopularity 按点赞数倒序，稳定
func SortByPopularity(articles []model.Article) []model.Article {
	out := clone(articles)
	sort.SliceStable(out, func(i, j int) bool { return out[i].LikesCount > out[j].LikesCount })
	return out
}

// SortByViews 按浏览数倒序，稳定（热门）
func SortByViews(articles []model.Article) []model.Article {
	out := clone(articles)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ViewsCount > out[j].ViewsCount })
	return out
}

func FilterByAuthor(articles []model.Article, authorID string) []model.Article {
	return filter(articles, func(a model.Article) bool { return a.AuthorID == authorID })
}

// FilterByAuthors 任一作者的文章
func FilterByAuthors(articles []model.Article, authorIDs []string) []model.Article {
	set := make(map[string]struct{}, len(authorIDs))
	for _, id := range authorIDs {
		set[id] = struct{}{}
	}
	return filter(articles, func(a model.Article) bool {
		_, ok := set[a.AuthorID]
		return ok
	})
}

// FilterByIDs 保持输入序列的顺序，而不是 ids 的顺序
func FilterByIDs(articles []model.Article, ids []string) []model.Article {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return filter(articles, func(a model.Article) bool {
		_, ok := set[a.ID]
		return ok
	})
}

// Published 去掉草稿
func Published(articles []model.Article) []model.Article {
	return filter(articles, func(a model.Article) bool { return !a.IsDraft })
}

// Paginate page 从 1 开始；page<1 视为 1，pageSize<1 视为 10
func Paginate[T any](items []T, page, pageSize int) []T {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	offset := (page - 1) * pageSize
	if offset >= len(items) {
		return []T{}
	}
	return items[offset:min(offset+pageSize, len(items))]
}

func filter(articles []model.Article, keep func(model.Article) bool) []model.Article {
	out := []model.Article{}
	for _, a := range articles {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

func clone(articles []model.Article) []model.Article {
	return append([]model.Article{}, articles...)
}

func indexes(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func permute(articles []model.Article, idx []int) []model.Article {
	out := make([]model.Article, len(idx))
	for i, j := range idx {
		out[i] = articles[j]
	}
	return out
}

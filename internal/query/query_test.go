package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/d60-Lab/techoh/internal/model"
)

func ids(articles []model.Article) []string {
	out := make([]string, len(articles))
	for i, a := range articles {
		out[i] = a.ID
	}
	return out
}

func TestSortByPopularity_StableTies(t *testing.T) {
	in := []model.Article{{ID: "1", LikesCount: 5}, {ID: "2", LikesCount: 5}, {ID: "3", LikesCount: 9}}
	assert.Equal(t, []string{"3", "1", "2"}, ids(SortByPopularity(in)))
	assert.Equal(t, []string{"1", "2", "3"}, ids(in), "input must not be reordered")
}

func TestSortByRecency(t *testing.T) {
	in := []model.Article{
		{ID: "a", PublishDate: "Apr 15, 2025"},
		{ID: "b", PublishDate: "Apr 12, 2025"},
		{ID: "c", PublishDate: "Apr 20, 2025"},
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids(SortByRecency(in)))
}

func TestSortByRecency_UnparseableLastAndStable(t *testing.T) {
	in := []model.Article{
		{ID: "bad1", PublishDate: "someday"},
		{ID: "x", PublishDate: "April 17, 2025"},
		{ID: "y", PublishDate: "2025-04-17"},
		{ID: "bad2", PublishDate: ""},
		{ID: "z", PublishDate: "Jan 2, 2024"},
	}
	assert.Equal(t, []string{"x", "y", "z", "bad1", "bad2"}, ids(SortByRecency(in)))
}

func TestSortByViews(t *testing.T) {
	in := []model.Article{{ID: "1", ViewsCount: 1}, {ID: "2", ViewsCount: 7}, {ID: "3", ViewsCount: 1}}
	assert.Equal(t, []string{"2", "1", "3"}, ids(SortByViews(in)))
}

func TestFilterByAuthor(t *testing.T) {
	in := []model.Article{{ID: "1", AuthorID: "u1"}, {ID: "2", AuthorID: "u2"}, {ID: "3", AuthorID: "u1"}}
	assert.Equal(t, []string{"1", "3"}, ids(FilterByAuthor(in, "u1")))
	assert.Empty(t, FilterByAuthor(in, "nobody"))
}

func TestFilterByAuthors(t *testing.T) {
	in := []model.Article{{ID: "1", AuthorID: "u1"}, {ID: "2", AuthorID: "u2"}, {ID: "3", AuthorID: "u3"}}
	assert.Equal(t, []string{"1", "3"}, ids(FilterByAuthors(in, []string{"u3", "u1"})))
	assert.Empty(t, FilterByAuthors(in, nil))
}

func TestFilterByIDs_KeepsInputOrder(t *testing.T) {
	in := []model.Article{{ID: "1"}, {ID: "2"}, {ID: "3"}, {ID: "4"}}
	assert.Equal(t, []string{"2", "4"}, ids(FilterByIDs(in, []string{"4", "2", "missing"})))
}

func TestPublished(t *testing.T) {
	in := []model.Article{{ID: "1"}, {ID: "2", IsDraft: true}}
	assert.Equal(t, []string{"1"}, ids(Published(in)))
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{1, 2}, Paginate(items, 1, 2))
	assert.Equal(t, []int{5}, Paginate(items, 3, 2))
	assert.Equal(t, []int{}, Paginate(items, 4, 2))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, Paginate(items, 0, 0))
}

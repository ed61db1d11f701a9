package handler

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/d60-Lab/techoh/internal/feedcache"
	"github.com/d60-Lab/techoh/internal/query"
	"github.com/d60-Lab/techoh/internal/service"
)

func articleInput(c *cli.Context) service.ArticleInput {
	return service.ArticleInput{
		Title:    c.String("title"),
		Content:  c.String("content"),
		Cover:    c.String("cover"),
		Category: c.String("category"),
		Tags:     c.StringSlice("tag"),
	}
}

// Draft 保存草稿
func (h *Handler) Draft(c *cli.Context) error {
	u, err := h.currentUser(c.Context)
	if err != nil {
		return fail(err)
	}
	a, err := h.articles.SaveDraft(c.Context, u.ID, articleInput(c))
	if err != nil {
		return fail(err)
	}
	fmt.Fprintf(c.App.Writer, "draft %s saved\n", a.ID)
	return nil
}

// Publish 直接发布，或用 --draft 发布已有草稿
func (h *Handler) Publish(c *cli.Context) error {
	u, err := h.currentUser(c.Context)
	if err != nil {
		return fail(err)
	}
	if draftID := c.String("draft"); draftID != "" {
		a, err := h.articles.PublishDraft(c.Context, u.ID, draftID)
		if err != nil {
			return fail(err)
		}
		fmt.Fprintf(c.App.Writer, "published %s\n", a.ID)
		return nil
	}
	a, err := h.articles.Publish(c.Context, u.ID, articleInput(c))
	if err != nil {
		return fail(err)
	}
	fmt.Fprintf(c.App.Writer, "published %s\n", a.ID)
	return nil
}

// Show 文章详情，每次查看记一次浏览
func (h *Handler) Show(c *cli.Context) error {
	articleID, err := requireArg(c, "article id")
	if err != nil {
		return err
	}
	v, err := h.articles.View(c.Context, articleID)
	if err != nil {
		return fail(err)
	}
	printView(c.App.Writer, v)
	return nil
}

// Delete 删除自己的文章
func (h *Handler) Delete(c *cli.Context) error {
	articleID, err := requireArg(c, "article id")
	if err != nil {
		return err
	}
	u, err := h.currentUser(c.Context)
	if err != nil {
		return fail(err)
	}
	if err := h.articles.Delete(c.Context, u.ID, articleID); err != nil {
		return fail(err)
	}
	fmt.Fprintf(c.App.Writer, "deleted %s\n", articleID)
	return nil
}

func (h *Handler) Latest(c *cli.Context) error   { return h.feedPage(c, feedcache.Latest) }
func (h *Handler) Top(c *cli.Context) error      { return h.feedPage(c, feedcache.Top) }
func (h *Handler) Trending(c *cli.Context) error { return h.feedPage(c, feedcache.Trending) }

func (h *Handler) feedPage(c *cli.Context, feed feedcache.Feed) error {
	articles, err := h.feed.Page(c.Context, feed, c.Int("page"), c.Int("size"))
	if err != nil {
		return fail(err)
	}
	printArticles(c.App.Writer, articles)
	return nil
}

// Mine 当前用户的文章（含草稿），最新在前
func (h *Handler) Mine(c *cli.Context) error {
	u, err := h.currentUser(c.Context)
	if err != nil {
		return fail(err)
	}
	all, err := h.articles.Articles(c.Context)
	if err != nil {
		return fail(err)
	}
	printArticles(c.App.Writer, query.SortByRecency(query.FilterByAuthor(all, u.ID)))
	return nil
}

// Timeline 关注的作者的新文章
func (h *Handler) Timeline(c *cli.Context) error {
	u, err := h.currentUser(c.Context)
	if err != nil {
		return fail(err)
	}
	articles, err := h.articles.Timeline(c.Context, u.ID, c.Int("page"), c.Int("size"))
	if err != nil {
		return fail(err)
	}
	printArticles(c.App.Writer, articles)
	return nil
}

package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/d60-Lab/techoh/internal/model"
	"github.com/d60-Lab/techoh/internal/query"
	"github.com/d60-Lab/techoh/internal/repository"
	"github.com/d60-Lab/techoh/pkg/idgen"
	"github.com/d60-Lab/techoh/pkg/logger"
)

const (
	shortDateLayout = "Jan 2, 2006"
	excerptRunes    = 160
	wordsPerMinute  = 200
)

// ArticleInput 编辑器表单
type ArticleInput struct {
	Title    string
	Content  string
	Cover    string `validate:"omitempty,url"`
	Category string
	Tags     []string
}

// ArticleView 详情页：文章 + 作者（实时关联）+ 评论
type ArticleView struct {
	Article  model.Article
	Author   *model.User
	Comments []model.Comment
}

// ArticleService 文章的创建、发布、查看与删除
type ArticleService interface {
	SaveDraft(ctx context.Context, authorID string, in ArticleInput) (*model.Article, error)
	Publish(ctx context.Context, authorID string, in ArticleInput) (*model.Article, error)
	PublishDraft(ctx context.Context, authorID, articleID string) (*model.Article, error)
	View(ctx context.Context, articleID string) (*ArticleView, error)
	Delete(ctx context.Context, userID, articleID string) error
	Comments(ctx context.Context, articleID string) ([]model.Comment, error)
	Articles(ctx context.Context) ([]model.Article, error)
	Timeline(ctx context.Context, userID string, page, pageSize int) ([]model.Article, error)
}

type articleService struct {
	Deps
	c         collections
	relations RelationshipService
}

func NewArticleService(deps Deps, relations RelationshipService) ArticleService {
	return &articleService{Deps: deps, c: newCollections(deps.Store), relations: relations}
}

func (s *articleService) SaveDraft(ctx context.Context, authorID string, in ArticleInput) (*model.Article, error) {
	in = normalizeInput(in)
	if in.Title == "" && in.Content == "" {
		return nil, ErrEmptyContent
	}
	return s.create(ctx, authorID, in, true)
}

func (s *articleService) Publish(ctx context.Context, authorID string, in ArticleInput) (*model.Article, error) {
	in = normalizeInput(in)
	if in.Title == "" || in.Content == "" {
		return nil, ErrEmptyContent
	}
	return s.create(ctx, authorID, in, false)
}

// create 在一次提交中写入文章，发布时同时增加作者的文章计数
func (s *articleService) create(ctx context.Context, authorID string, in ArticleInput, draft bool) (*model.Article, error) {
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	article := model.Article{
		ID:          idgen.GenID(),
		Title:       in.Title,
		Content:     in.Content,
		Excerpt:     excerpt(in.Content),
		Cover:       in.Cover,
		AuthorID:    authorID,
		PublishDate: s.now().Format(shortDateLayout),
		ReadTime:    readTime(in.Content),
		Tags:        in.Tags,
		Category:    in.Category,
		IsDraft:     draft,
	}
	err := exec(ctx, s.Writer, func(ctx context.Context) error {
		return s.Store.Run(ctx, func(tx *repository.Tx) error {
			users, err := s.c.users.In(tx)
			if err != nil {
				return err
			}
			author := repository.IndexOf(users, authorID)
			if author < 0 {
				return ErrUserNotFound
			}
			articles, err := s.c.articles.In(tx)
			if err != nil {
				return err
			}
			if err := s.c.articles.Put(tx, append(articles, article)); err != nil {
				return err
			}
			if draft {
				return nil
			}
			users[author].ArticlesCount++
			return s.c.users.Put(tx, users)
		})
	})
	if err != nil {
		return nil, err
	}
	logger.Info("article saved", zap.String("article", article.ID), zap.String("author", authorID), zap.Bool("draft", draft))
	s.Hooks.articlesChanged(ctx)
	return &article, nil
}

func (s *articleService) PublishDraft(ctx context.Context, authorID, articleID string) (*model.Article, error) {
	var out model.Article
	err := exec(ctx, s.Writer, func(ctx context.Context) error {
		return s.Store.Run(ctx, func(tx *repository.Tx) error {
			articles, err := s.c.articles.In(tx)
			if err != nil {
				return err
			}
			i, err := articleIndex(articles, articleID)
			if err != nil {
				return err
			}
			a := &articles[i]
			if a.AuthorID != authorID {
				return ErrNotAuthor
			}
			out = *a
			if !a.IsDraft {
				return nil
			}
			if strings.TrimSpace(a.Title) == "" || strings.TrimSpace(a.Content) == "" {
				return ErrEmptyContent
			}
			users, err := s.c.users.In(tx)
			if err != nil {
				return err
			}
			if author := repository.IndexOf(users, authorID); author >= 0 {
				users[author].ArticlesCount++
				if err := s.c.users.Put(tx, users); err != nil {
					return err
				}
			}
			a.IsDraft = false
			a.PublishDate = s.now().Format(shortDateLayout)
			out = *a
			return s.c.articles.Put(tx, articles)
		})
	})
	if err != nil {
		return nil, err
	}
	s.Hooks.articlesChanged(ctx)
	return &out, nil
}

// View 记录一次浏览后返回详情；作者信息实时关联，评论中的作者信息为快照
func (s *articleService) View(ctx context.Context, articleID string) (*ArticleView, error) {
	if _, err := s.relations.RecordView(ctx, articleID); err != nil {
		return nil, err
	}
	article, err := s.c.articles.Find(ctx, articleID)
	if err != nil {
		return nil, err
	}
	view := &ArticleView{Article: article}
	if author, err := s.c.users.Find(ctx, article.AuthorID); err == nil {
		view.Author = &author
	}
	if view.Comments, err = s.Comments(ctx, articleID); err != nil {
		return nil, err
	}
	return view, nil
}

// Delete 删除文章并级联删除评论、从点赞/收藏集中移除
func (s *articleService) Delete(ctx context.Context, userID, articleID string) error {
	err := exec(ctx, s.Writer, func(ctx context.Context) error {
		return s.Store.Run(ctx, func(tx *repository.Tx) error {
			articles, err := s.c.articles.In(tx)
			if err != nil {
				return err
			}
			i, err := articleIndex(articles, articleID)
			if err != nil {
				return err
			}
			removed := articles[i]
			if removed.AuthorID != userID {
				return ErrNotAuthor
			}
			if err := s.c.articles.Put(tx, append(articles[:i:i], articles[i+1:]...)); err != nil {
				return err
			}

			comments, err := s.c.comments.In(tx)
			if err != nil {
				return err
			}
			kept := comments[:0]
			for _, c := range comments {
				if c.ArticleID != articleID {
					kept = append(kept, c)
				}
			}
			if err := s.c.comments.Put(tx, kept); err != nil {
				return err
			}

			for _, rel := range []repository.Relation{s.c.liked, s.c.saved} {
				set, err := rel.In(tx)
				if err != nil {
					return err
				}
				if set.RemoveTarget(articleID) > 0 {
					if err := rel.Put(tx, set); err != nil {
						return err
					}
				}
			}

			if removed.IsDraft {
				return nil
			}
			users, err := s.c.users.In(tx)
			if err != nil {
				return err
			}
			if author := repository.IndexOf(users, removed.AuthorID); author >= 0 {
				users[author].ArticlesCount = max(users[author].ArticlesCount-1, 0)
				return s.c.users.Put(tx, users)
			}
			return nil
		})
	})
	if err != nil {
		return err
	}
	logger.Info("article deleted", zap.String("article", articleID))
	s.Hooks.articlesChanged(ctx)
	return nil
}

// Comments 返回文章的评论，保持发表顺序
func (s *articleService) Comments(ctx context.Context, articleID string) ([]model.Comment, error) {
	all, err := s.c.comments.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := []model.Comment{}
	for _, c := range all {
		if c.ArticleID == articleID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *articleService) Articles(ctx context.Context) ([]model.Article, error) {
	return s.c.articles.Load(ctx)
}

// Timeline 拉模式：读取时合并关注作者的已发布文章，最新在前
func (s *articleService) Timeline(ctx context.Context, userID string, page, pageSize int) ([]model.Article, error) {
	follows, err := s.c.follows.Load(ctx)
	if err != nil {
		return nil, err
	}
	authors := follows.Members(userID)
	if len(authors) == 0 {
		return []model.Article{}, nil
	}
	all, err := s.c.articles.Load(ctx)
	if err != nil {
		return nil, err
	}
	feed := query.SortByRecency(query.Published(query.FilterByAuthors(all, authors)))
	return query.Paginate(feed, page, pageSize), nil
}

func normalizeInput(in ArticleInput) ArticleInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	in.Cover = strings.TrimSpace(in.Cover)
	in.Category = strings.TrimSpace(in.Category)
	tags := []string{}
	seen := map[string]bool{}
	for _, t := range in.Tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, t)
	}
	in.Tags = tags
	return in
}

// readTime 按每分钟 200 词估算，至少 1 分钟
func readTime(content string) int {
	words := len(strings.Fields(content))
	return max(1, int(math.Ceil(float64(words)/wordsPerMinute)))
}

func excerpt(content string) string {
	if utf8.RuneCountInString(content) <= excerptRunes {
		return content
	}
	runes := []rune(content)
	return strings.TrimSpace(string(runes[:excerptRunes])) + "..."
}

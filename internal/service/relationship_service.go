package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/d60-Lab/techoh/internal/model"
	"github.com/d60-Lab/techoh/internal/query"
	"github.com/d60-Lab/techoh/internal/repository"
	"github.com/d60-Lab/techoh/pkg/idgen"
	"github.com/d60-Lab/techoh/pkg/logger"
)

// LikeResult 点赞切换后的状态
type LikeResult struct {
	Liked        bool
	NewLikeCount int
}

// SaveResult 收藏切换后的状态
type SaveResult struct {
	Saved bool
}

// ReconcileReport 计数校正结果
type ReconcileReport struct {
	ArticlesFixed int
	UsersFixed    int
}

// RelationshipService 关系集与冗余计数的维护者：每次变更在一次提交内同时更新关系集和计数
type RelationshipService interface {
	ToggleLike(ctx context.Context, userID, articleID string) (LikeResult, error)
	ToggleSave(ctx context.Context, userID, articleID string) (SaveResult, error)
	AddComment(ctx context.Context, articleID, userID, displayName, displayAvatar, content string) (*model.Comment, error)
	RecordView(ctx context.Context, articleID string) (int, error)
	IsLiked(ctx context.Context, userID, articleID string) (bool, error)
	IsSaved(ctx context.Context, userID, articleID string) (bool, error)
	SavedIDs(ctx context.Context, userID string) ([]string, error)
	Follow(ctx context.Context, fromUserID, toUserID string) error
	Unfollow(ctx context.Context, fromUserID, toUserID string) error
	ListFollowing(ctx context.Context, userID string, page, pageSize int) ([]string, error)
	ListFans(ctx context.Context, userID string, page, pageSize int) ([]string, error)
	Reconcile(ctx context.Context) (ReconcileReport, error)
}

type relationshipService struct {
	Deps
	c collections
}

func NewRelationshipService(deps Deps) RelationshipService {
	return &relationshipService{Deps: deps, c: newCollections(deps.Store)}
}

func (s *relationshipService) ToggleLike(ctx context.Context, userID, articleID string) (LikeResult, error) {
	var res LikeResult
	err := exec(ctx, s.Writer, func(ctx context.Context) error {
		return s.Store.Run(ctx, func(tx *repository.Tx) error {
			set, err := s.c.liked.In(tx)
			if err != nil {
				return err
			}
			articles, err := s.c.articles.In(tx)
			if err != nil {
				return err
			}
			i, err := articleIndex(articles, articleID)
			if err != nil {
				return err
			}
			a := &articles[i]
			if set.Contains(userID, articleID) {
				set.Remove(userID, articleID)
				a.LikesCount = max(a.LikesCount-1, 0)
				res = LikeResult{Liked: false, NewLikeCount: a.LikesCount}
			} else {
				set.Add(userID, articleID)
				a.LikesCount++
				res = LikeResult{Liked: true, NewLikeCount: a.LikesCount}
			}
			if err := s.c.liked.Put(tx, set); err != nil {
				return err
			}
			return s.c.articles.Put(tx, articles)
		})
	})
	if err != nil {
		return LikeResult{}, err
	}
	logger.Debug("toggle like", zap.String("user", userID), zap.String("article", articleID), zap.Bool("liked", res.Liked))
	s.Hooks.articlesChanged(ctx)
	return res, nil
}

func (s *relationshipService) ToggleSave(ctx context.Context, userID, articleID string) (SaveResult, error) {
	var res SaveResult
	err := exec(ctx, s.Writer, func(ctx context.Context) error {
		return s.Store.Run(ctx, func(tx *repository.Tx) error {
			set, err := s.c.saved.In(tx)
			if err != nil {
				return err
			}
			if set.Contains(userID, articleID) {
				set.Remove(userID, articleID)
				res.Saved = false
			} else {
				articles, err := s.c.articles.In(tx)
				if err != nil {
					return err
				}
				if _, err := articleIndex(articles, articleID); err != nil {
					return err
				}
				set.Add(userID, articleID)
				res.Saved = true
			}
			return s.c.saved.Put(tx, set)
		})
	})
	return res, err
}

func (s *relationshipService) AddComment(ctx context.Context, articleID, userID, displayName, displayAvatar, content string) (*model.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	var comment model.Comment
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
			comments, err := s.c.comments.In(tx)
			if err != nil {
				return err
			}
			comment = model.Comment{
				ID:         idgen.GenCommentID(),
				ArticleID:  articleID,
				UserID:     userID,
				UserName:   displayName,
				UserAvatar: displayAvatar,
				Content:    content,
				Date:       s.now().Format(shortDateLayout),
			}
			articles[i].CommentsCount++
			if err := s.c.comments.Put(tx, append(comments, comment)); err != nil {
				return err
			}
			return s.c.articles.Put(tx, articles)
		})
	})
	if err != nil {
		return nil, err
	}
	s.Hooks.articlesChanged(ctx)
	return &comment, nil
}

// RecordView 每次详情页加载 +1，不按访客去重
func (s *relationshipService) RecordView(ctx context.Context, articleID string) (int, error) {
	var views int
	err := exec(ctx, s.Writer, func(ctx context.Context) error {
		a, err := s.c.articles.Update(ctx, articleID, func(a *model.Article) error {
			a.ViewsCount++
			return nil
		})
		views = a.ViewsCount
		return err
	})
	if err != nil {
		return 0, err
	}
	s.Hooks.articlesChanged(ctx)
	return views, nil
}

func (s *relationshipService) IsLiked(ctx context.Context, userID, articleID string) (bool, error) {
	set, err := s.c.liked.Load(ctx)
	if err != nil {
		return false, err
	}
	return set.Contains(userID, articleID), nil
}

func (s *relationshipService) IsSaved(ctx context.Context, userID, articleID string) (bool, error) {
	set, err := s.c.saved.Load(ctx)
	if err != nil {
		return false, err
	}
	return set.Contains(userID, articleID), nil
}

func (s *relationshipService) SavedIDs(ctx context.Context, userID string) ([]string, error) {
	set, err := s.c.saved.Load(ctx)
	if err != nil {
		return nil, err
	}
	return set.Members(userID), nil
}

func (s *relationshipService) Follow(ctx context.Context, fromUserID, toUserID string) error {
	if fromUserID == toUserID {
		return ErrFollowSelf
	}
	return s.setFollow(ctx, fromUserID, toUserID, true)
}

func (s *relationshipService) Unfollow(ctx context.Context, fromUserID, toUserID string) error {
	return s.setFollow(ctx, fromUserID, toUserID, false)
}

// setFollow 幂等：重复关注/取关不改变计数
func (s *relationshipService) setFollow(ctx context.Context, fromUserID, toUserID string, follow bool) error {
	return exec(ctx, s.Writer, func(ctx context.Context) error {
		return s.Store.Run(ctx, func(tx *repository.Tx) error {
			set, err := s.c.follows.In(tx)
			if err != nil {
				return err
			}
			users, err := s.c.users.In(tx)
			if err != nil {
				return err
			}
			from := repository.IndexOf(users, fromUserID)
			to := repository.IndexOf(users, toUserID)
			if from < 0 || to < 0 {
				return ErrUserNotFound
			}
			if follow {
				if !set.Add(fromUserID, toUserID) {
					return nil
				}
				users[from].Following++
				users[to].Followers++
			} else {
				if !set.Remove(fromUserID, toUserID) {
					return nil
				}
				users[from].Following = max(users[from].Following-1, 0)
				users[to].Followers = max(users[to].Followers-1, 0)
			}
			if err := s.c.follows.Put(tx, set); err != nil {
				return err
			}
			return s.c.users.Put(tx, users)
		})
	})
}

func (s *relationshipService) ListFollowing(ctx context.Context, userID string, page, pageSize int) ([]string, error) {
	set, err := s.c.follows.Load(ctx)
	if err != nil {
		return nil, err
	}
	return query.Paginate(set.Members(userID), page, pageSize), nil
}

func (s *relationshipService) ListFans(ctx context.Context, userID string, page, pageSize int) ([]string, error) {
	set, err := s.c.follows.Load(ctx)
	if err != nil {
		return nil, err
	}
	var fans []string
	for _, owner := range set.Owners() {
		if set.Contains(owner, userID) {
			fans = append(fans, owner)
		}
	}
	sort.Strings(fans)
	return query.Paginate(fans, page, pageSize), nil
}

// Reconcile 按关系集重算全部冗余计数（浏览数无法推导，保持不变）
func (s *relationshipService) Reconcile(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport
	err := exec(ctx, s.Writer, func(ctx context.Context) error {
		return s.Store.Run(ctx, func(tx *repository.Tx) error {
			report = ReconcileReport{}
			articles, err := s.c.articles.In(tx)
			if err != nil {
				return err
			}
			users, err := s.c.users.In(tx)
			if err != nil {
				return err
			}
			comments, err := s.c.comments.In(tx)
			if err != nil {
				return err
			}
			liked, err := s.c.liked.In(tx)
			if err != nil {
				return err
			}
			follows, err := s.c.follows.In(tx)
			if err != nil {
				return err
			}

			commentCounts := make(map[string]int, len(articles))
			for _, c := range comments {
				commentCounts[c.ArticleID]++
			}
			published := make(map[string]int, len(users))
			for i := range articles {
				a := &articles[i]
				if !a.IsDraft {
					published[a.AuthorID]++
				}
				likes, cmts := liked.Count(a.ID), commentCounts[a.ID]
				if a.LikesCount != likes || a.CommentsCount != cmts {
					a.LikesCount, a.CommentsCount = likes, cmts
					report.ArticlesFixed++
				}
			}
			for i := range users {
				u := &users[i]
				following := len(follows.Members(u.ID))
				followers := follows.Count(u.ID)
				if u.ArticlesCount != published[u.ID] || u.Following != following || u.Followers != followers {
					u.ArticlesCount, u.Following, u.Followers = published[u.ID], following, followers
					report.UsersFixed++
				}
			}
			if report.ArticlesFixed > 0 {
				if err := s.c.articles.Put(tx, articles); err != nil {
					return err
				}
			}
			if report.UsersFixed > 0 {
				return s.c.users.Put(tx, users)
			}
			return nil
		})
	})
	if err != nil {
		return ReconcileReport{}, err
	}
	if report.ArticlesFixed > 0 || report.UsersFixed > 0 {
		logger.Warn("counter drift corrected", zap.Int("articles", report.ArticlesFixed), zap.Int("users", report.UsersFixed))
		s.Hooks.articlesChanged(ctx)
	}
	return report, nil
}

func articleIndex(articles []model.Article, id string) (int, error) {
	i := repository.IndexOf(articles, id)
	if i < 0 {
		return -1, fmt.Errorf("article %s: %w", id, repository.ErrNotFound)
	}
	return i, nil
}

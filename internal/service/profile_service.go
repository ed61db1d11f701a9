package service

import (
	"context"
	"strings"

	"github.com/d60-Lab/techoh/internal/model"
	"github.com/d60-Lab/techoh/internal/repository"
)

// ProfileInput 资料修改；nil 字段保持不变
type ProfileInput struct {
	Name     *string
	Bio      *string
	Location *string
	Avatar   *string `validate:"omitempty,url"`
}

// DashboardStats 作者面板统计（含草稿）
type DashboardStats struct {
	Articles  int
	Views     int
	Likes     int
	Comments  int
	Followers int
}

// ProfileService 资料与用户列表
type ProfileService interface {
	UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	GetUser(ctx context.Context, userID string) (*model.User, error)
	Stats(ctx context.Context, userID string) (DashboardStats, error)
}

type profileService struct {
	Deps
	c collections
}

func NewProfileService(deps Deps) ProfileService {
	return &profileService{Deps: deps, c: newCollections(deps.Store)}
}

// UpdateProfile 修改资料并同步会话记录；已发表评论里的作者快照不变
func (s *profileService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*model.User, error) {
	if err := validate.Struct(in); err != nil {
		return nil, ErrInvalidInput
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, ErrInvalidInput
	}
	var out model.User
	err := exec(ctx, s.Writer, func(ctx context.Context) error {
		return s.Store.Run(ctx, func(tx *repository.Tx) error {
			users, err := s.c.users.In(tx)
			if err != nil {
				return err
			}
			i := repository.IndexOf(users, userID)
			if i < 0 {
				return ErrUserNotFound
			}
			u := &users[i]
			if in.Name != nil {
				u.Name = strings.TrimSpace(*in.Name)
			}
			if in.Bio != nil {
				u.Bio = *in.Bio
			}
			if in.Location != nil {
				u.Location = *in.Location
			}
			if in.Avatar != nil {
				u.Avatar = *in.Avatar
			}
			out = *u
			if err := s.c.users.Put(tx, users); err != nil {
				return err
			}
			current, err := s.c.session.In(tx)
			if err != nil {
				return err
			}
			if current != nil && current.ID == userID {
				return s.c.session.Put(tx, out)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *profileService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.c.users.Load(ctx)
}

func (s *profileService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.c.users.Find(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *profileService) Stats(ctx context.Context, userID string) (DashboardStats, error) {
	u, err := s.c.users.Find(ctx, userID)
	if err != nil {
		return DashboardStats{}, err
	}
	articles, err := s.c.articles.Load(ctx)
	if err != nil {
		return DashboardStats{}, err
	}
	stats := DashboardStats{Followers: u.Followers}
	for _, a := range articles {
		if a.AuthorID != userID {
			continue
		}
		stats.Articles++
		stats.Views += a.ViewsCount
		stats.Likes += a.LikesCount
		stats.Comments += a.CommentsCount
	}
	return stats, nil
}

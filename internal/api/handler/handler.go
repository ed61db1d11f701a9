package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/d60-Lab/techoh/internal/feedcache"
	"github.com/d60-Lab/techoh/internal/model"
	"github.com/d60-Lab/techoh/internal/repository"
	"github.com/d60-Lab/techoh/internal/service"
	"github.com/d60-Lab/techoh/internal/storage"
	"github.com/d60-Lab/techoh/pkg/logger"
)

// 退出码
const (
	exitUser    = 1
	exitAuth    = 2
	exitStorage = 3
)

// Services 命令行可用的业务服务
type Services struct {
	Sessions  service.SessionService
	Relations service.RelationshipService
	Articles  service.ArticleService
	Profiles  service.ProfileService
}

// Handler 每个子命令对应一个方法，相当于 UI 的操作边界
type Handler struct {
	store     *repository.Store
	sessions  service.SessionService
	relations service.RelationshipService
	articles  service.ArticleService
	profiles  service.ProfileService
	feed      *feedcache.Cache
}

func NewHandler(store *repository.Store, svc Services, feed *feedcache.Cache) *Handler {
	return &Handler{
		store:     store,
		sessions:  svc.Sessions,
		relations: svc.Relations,
		articles:  svc.Articles,
		profiles:  svc.Profiles,
		feed:      feed,
	}
}

// currentUser 需要登录的命令先调用它
func (h *Handler) currentUser(ctx context.Context) (*model.User, error) {
	u, err := h.sessions.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, service.ErrNotAuthenticated
	}
	return u, nil
}

// fail 把错误转换为一行提示和退出码；存储不可用是阻断性错误，其余可重新输入
func fail(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, service.ErrNotAuthenticated):
		return cli.Exit("please log in first", exitAuth)
	case errors.Is(err, service.ErrInvalidCredentials):
		return cli.Exit("invalid email or password", exitAuth)
	case errors.Is(err, service.ErrDuplicateEmail):
		return cli.Exit("an account with this email already exists", exitUser)
	case errors.Is(err, service.ErrUserNotFound):
		return cli.Exit("user not found", exitUser)
	case errors.Is(err, repository.ErrNotFound):
		return cli.Exit("article not found", exitUser)
	case errors.Is(err, service.ErrEmptyContent):
		return cli.Exit("content cannot be empty", exitUser)
	case errors.Is(err, service.ErrNotAuthor):
		return cli.Exit("only the author can do that", exitUser)
	case errors.Is(err, service.ErrFollowSelf):
		return cli.Exit("you cannot follow yourself", exitUser)
	case errors.Is(err, service.ErrInvalidInput):
		return cli.Exit(err.Error(), exitUser)
	case errors.Is(err, storage.ErrConflict):
		return cli.Exit("the data was changed by another session, please try again", exitStorage)
	case errors.Is(err, storage.ErrUnavailable), errors.Is(err, repository.ErrCorrupt):
		logger.Error("storage failure", zap.Error(err))
		return cli.Exit(fmt.Sprintf("storage unavailable: %v", err), exitStorage)
	default:
		logger.Error("command failed", zap.Error(err))
		return cli.Exit(err.Error(), exitUser)
	}
}

func requireArg(c *cli.Context, name string) (string, error) {
	if c.NArg() < 1 {
		return "", cli.Exit(fmt.Sprintf("missing %s", name), exitUser)
	}
	return c.Args().First(), nil
}

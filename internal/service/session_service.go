package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/d60-Lab/techoh/internal/model"
	"github.com/d60-Lab/techoh/internal/repository"
	"github.com/d60-Lab/techoh/pkg/idgen"
	"github.com/d60-Lab/techoh/pkg/logger"
)

const (
	defaultBio      = "Tech enthusiast and content creator"
	defaultLocation = "Tech-OH Community"
	avatarURL       = "https://i.pravatar.cc/150?u="
	joinedLayout    = "January 2006"
)

// RegisterInput 注册表单
type RegisterInput struct {
	Name     string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string
}

// SessionService 当前会话：Anonymous <-> Authenticated(user)
type SessionService interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.User, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*model.User, error)
}

type sessionService struct {
	Deps
	c collections
	// verifyPassword 额外功能：默认关闭，与原有“只认邮箱”的行为一致
	verifyPassword bool
}

func NewSessionService(deps Deps, verifyPassword bool) SessionService {
	return &sessionService{Deps: deps, c: newCollections(deps.Store), verifyPassword: verifyPassword}
}

func (s *sessionService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var hash []byte
	if s.verifyPassword {
		var err error
		if hash, err = bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}

	id := idgen.GenUserID()
	user := model.User{
		ID:         id,
		Name:       in.Name,
		Username:   usernameFrom(in.Name),
		Email:      in.Email,
		Avatar:     avatarURL + id,
		Bio:        defaultBio,
		Location:   defaultLocation,
		JoinedDate: s.now().Format(joinedLayout),
		Badges:     []string{},
	}

	err := exec(ctx, s.Writer, func(ctx context.Context) error {
		return s.Store.Run(ctx, func(tx *repository.Tx) error {
			users, err := s.c.users.In(tx)
			if err != nil {
				return err
			}
			for _, u := range users {
				if u.Email == in.Email {
					return ErrDuplicateEmail
				}
			}
			if err := s.c.users.Put(tx, append(users, user)); err != nil {
				return err
			}
			if hash != nil {
				creds, err := s.c.credentials.In(tx)
				if err != nil {
					return err
				}
				creds = append(creds, model.Credential{UserID: id, Email: in.Email, Hash: string(hash)})
				if err := s.c.credentials.Put(tx, creds); err != nil {
					return err
				}
			}
			return s.c.session.Put(tx, user)
		})
	})
	if err != nil {
		return nil, err
	}
	logger.Info("user registered", zap.String("user", id))
	return &user, nil
}

func (s *sessionService) Login(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	users, err := s.c.users.Load(ctx)
	if err != nil {
		return nil, err
	}
	i := indexByEmail(users, email)
	if i < 0 {
		return nil, ErrUserNotFound
	}
	user := users[i]

	if s.verifyPassword {
		if err := s.checkPassword(ctx, user.ID, password); err != nil {
			return nil, err
		}
	}

	if err := exec(ctx, s.Writer, func(ctx context.Context) error {
		return s.c.session.Set(ctx, user)
	}); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *sessionService) checkPassword(ctx context.Context, userID, password string) error {
	cred, err := s.c.credentials.Find(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(cred.Hash), []byte(password)) != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Logout 只清除会话指针，不修改任何集合
func (s *sessionService) Logout(ctx context.Context) error {
	return exec(ctx, s.Writer, func(ctx context.Context) error {
		return s.c.session.Clear(ctx)
	})
}

// CurrentUser 读取会话；用户仍在注册表中时返回最新记录
func (s *sessionService) CurrentUser(ctx context.Context) (*model.User, error) {
	u, err := s.c.session.Get(ctx)
	if err != nil || u == nil {
		return nil, err
	}
	live, err := s.c.users.Find(ctx, u.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return u, nil
	}
	if err != nil {
		return nil, err
	}
	return &live, nil
}

func indexByEmail(users []model.User, email string) int {
	for i, u := range users {
		if u.Email == email {
			return i
		}
	}
	return -1
}

// usernameFrom 小写并去掉所有空白；不保证唯一
func usernameFrom(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, name)
}

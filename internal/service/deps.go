package service

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/d60-Lab/techoh/internal/model"
	"github.com/d60-Lab/techoh/internal/repository"
)

var validate = validator.New()

// Deps 各服务共享的依赖
type Deps struct {
	Store  *repository.Store
	Writer *Writer
	Hooks  *Hooks
	// Now 可替换的时钟
	Now func() time.Time
}

type collections struct {
	users       repository.Collection[model.User]
	articles    repository.Collection[model.Article]
	comments    repository.Collection[model.Comment]
	credentials repository.Collection[model.Credential]
	liked       repository.Relation
	saved       repository.Relation
	follows     repository.Relation
	session     repository.SessionKey
}

func newCollections(s *repository.Store) collections {
	return collections{
		users:       repository.NewCollection[model.User](s, repository.CollectionUsers),
		articles:    repository.NewCollection[model.Article](s, repository.CollectionArticles),
		comments:    repository.NewCollection[model.Comment](s, repository.CollectionComments),
		credentials: repository.NewCollection[model.Credential](s, repository.CollectionCredentials),
		liked:       repository.NewRelation(s, repository.RelationLiked),
		saved:       repository.NewRelation(s, repository.RelationSaved),
		follows:     repository.NewRelation(s, repository.RelationFollows),
		session:     repository.NewSessionKey(s),
	}
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

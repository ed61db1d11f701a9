package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/techoh/internal/model"
	"github.com/d60-Lab/techoh/internal/repository"
	"github.com/d60-Lab/techoh/internal/storage"
)

var fixedNow = time.Date(2025, time.April, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	medium    *storage.MemoryMedium
	store     *repository.Store
	deps      Deps
	sessions  SessionService
	relations RelationshipService
	articles  ArticleService
	profiles  ProfileService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	m := storage.NewMemoryMedium(0)
	store := repository.NewStore(m, repository.Options{MaxRetries: 1})
	require.NoError(t, store.Init(context.Background()))

	w := NewWriter(64)
	stop := w.Start()
	t.Cleanup(func() { _ = stop(context.Background()) })

	deps := Deps{Store: store, Writer: w, Hooks: &Hooks{}, Now: func() time.Time { return fixedNow }}
	relations := NewRelationshipService(deps)
	return &fixture{
		medium:    m,
		store:     store,
		deps:      deps,
		sessions:  NewSessionService(deps, false),
		relations: relations,
		articles:  NewArticleService(deps, relations),
		profiles:  NewProfileService(deps),
	}
}

func (f *fixture) register(t *testing.T, name, email string) *model.User {
	t.Helper()
	u, err := f.sessions.Register(context.Background(), RegisterInput{Name: name, Email: email, Password: "secret"})
	require.NoError(t, err)
	return u
}

func (f *fixture) publish(t *testing.T, authorID, title string) *model.Article {
	t.Helper()
	a, err := f.articles.Publish(context.Background(), authorID, ArticleInput{Title: title, Content: "some words here"})
	require.NoError(t, err)
	return a
}

func (f *fixture) raw(t *testing.T, key string) string {
	t.Helper()
	e, err := f.medium.Get(context.Background(), key)
	require.NoError(t, err)
	return string(e.Value)
}

func (f *fixture) article(t *testing.T, id string) model.Article {
	t.Helper()
	a, err := repository.NewCollection[model.Article](f.store, repository.CollectionArticles).Find(context.Background(), id)
	require.NoError(t, err)
	return a
}

func (f *fixture) user(t *testing.T, id string) *model.User {
	t.Helper()
	u, err := f.profiles.GetUser(context.Background(), id)
	require.NoError(t, err)
	return u
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateProfile_SyncsSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "Ann", "ann@example.com")

	bio := "Gopher"
	got, err := f.profiles.UpdateProfile(ctx, u.ID, ProfileInput{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "Gopher", got.Bio)
	assert.Equal(t, "Ann", got.Name)

	cur, err := f.sessions.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Gopher", cur.Bio)

	blank := "  "
	_, err = f.profiles.UpdateProfile(ctx, u.ID, ProfileInput{Name: &blank})
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.profiles.UpdateProfile(ctx, "user_ghost", ProfileInput{Bio: &bio})
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestStats_IncludesDrafts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "Ann", "ann@example.com")
	fan := f.register(t, "Bob", "bob@example.com")
	a := f.publish(t, u.ID, "One")
	_, err := f.articles.SaveDraft(ctx, u.ID, ArticleInput{Title: "Draft"})
	require.NoError(t, err)

	_, err = f.relations.ToggleLike(ctx, fan.ID, a.ID)
	require.NoError(t, err)
	_, err = f.relations.RecordView(ctx, a.ID)
	require.NoError(t, err)
	_, err = f.relations.AddComment(ctx, a.ID, fan.ID, fan.Name, fan.Avatar, "hi")
	require.NoError(t, err)
	require.NoError(t, f.relations.Follow(ctx, fan.ID, u.ID))

	stats, err := f.profiles.Stats(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, DashboardStats{Articles: 2, Views: 1, Likes: 1, Comments: 1, Followers: 1}, stats)
}

package api

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/d60-Lab/techoh/internal/api/handler"
	"github.com/d60-Lab/techoh/internal/feedcache"
	"github.com/d60-Lab/techoh/internal/repository"
	"github.com/d60-Lab/techoh/internal/service"
	"github.com/d60-Lab/techoh/internal/storage"
)

type runner func(args ...string) (string, error)

func newRunner(t *testing.T) runner {
	t.Helper()
	store := repository.NewStore(storage.NewMemoryMedium(0), repository.Options{MaxRetries: 1})
	require.NoError(t, store.Init(context.Background()))

	w := service.NewWriter(16)
	stop := w.Start()
	t.Cleanup(func() { _ = stop(context.Background()) })

	deps := service.Deps{Store: store, Writer: w, Hooks: &service.Hooks{}, Now: time.Now}
	relations := service.NewRelationshipService(deps)
	articles := service.NewArticleService(deps, relations)
	feed := feedcache.New(nil, articles, 0, "techoh-")
	h := handler.NewHandler(store, handler.Services{
		Sessions:  service.NewSessionService(deps, false),
		Relations: relations,
		Articles:  articles,
		Profiles:  service.NewProfileService(deps),
	}, feed)

	return func(args ...string) (string, error) {
		var out bytes.Buffer
		app := &cli.App{
			Name:           "techoh",
			Commands:       Commands(h),
			Writer:         &out,
			ErrWriter:      &out,
			ExitErrHandler: func(*cli.Context, error) {},
		}
		err := app.Run(append([]string{"techoh"}, args...))
		return out.String(), err
	}
}

func exitCode(err error) int {
	var coder cli.ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return -1
}

func lastField(s string) string {
	f := strings.Fields(s)
	return f[len(f)-1]
}

func TestCommands_ReaderJourney(t *testing.T) {
	run := newRunner(t)

	out, err := run("register", "--name", "Ann Lee", "--email", "ann@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "welcome, Ann Lee")

	out, err = run("publish", "--title", "Hello", "--content", "body text", "--tag", "go")
	require.NoError(t, err)
	id := lastField(out)

	out, err = run("like", id)
	require.NoError(t, err)
	assert.Equal(t, "liked "+id+" (1 likes)\n", out)

	_, err = run("comment", "--text", "nice one", id)
	require.NoError(t, err)

	out, err = run("show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Hello")
	assert.Contains(t, out, "by Ann Lee")
	assert.Contains(t, out, "1 likes  1 views  1 comments")
	assert.Contains(t, out, "- Ann Lee")

	out, err = run("latest")
	require.NoError(t, err)
	assert.Contains(t, out, id+"  Hello")

	out, err = run("save", id)
	require.NoError(t, err)
	assert.Contains(t, out, "saved "+id)
	out, err = run("saved")
	require.NoError(t, err)
	assert.Contains(t, out, "Hello")

	out, err = run("stats")
	require.NoError(t, err)
	assert.Equal(t, "articles 1  views 1  likes 1  comments 1  followers 0\n", out)

	out, err = run("reconcile")
	require.NoError(t, err)
	assert.Equal(t, "articles fixed: 0, users fixed: 0\n", out)
}

func TestCommands_ErrorsMapToExitCodes(t *testing.T) {
	run := newRunner(t)

	_, err := run("like", "whatever")
	assert.Equal(t, 2, exitCode(err))

	_, err = run("register", "--name", "Ann", "--email", "ann@example.com")
	require.NoError(t, err)
	_, err = run("register", "--name", "Ann 2", "--email", "ann@example.com")
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))
	assert.Contains(t, err.Error(), "already exists")

	_, err = run("like")
	assert.Equal(t, 1, exitCode(err))

	_, err = run("like", "missing-article")
	assert.Contains(t, err.Error(), "article not found")

	_, err = run("publish", "--title", "  ")
	assert.Contains(t, err.Error(), "content cannot be empty")

	_, err = run("login", "--email", "ghost@example.com")
	assert.Contains(t, err.Error(), "user not found")
}

func TestCommands_FollowAndProfile(t *testing.T) {
	run := newRunner(t)

	out, err := run("register", "--name", "Bob", "--email", "bob@example.com")
	require.NoError(t, err)
	bobID := strings.Trim(lastField(out), "()")
	_, err = run("register", "--name", "Ann", "--email", "ann@example.com")
	require.NoError(t, err)

	_, err = run("follow", bobID)
	require.NoError(t, err)
	out, err = run("fans", bobID)
	require.NoError(t, err)
	assert.Contains(t, out, "Ann (@ann)")

	out, err = run("profile", "--bio", "Gopher")
	require.NoError(t, err)
	assert.Contains(t, out, "Gopher")
	assert.Contains(t, out, "following 1")

	_, err = run("logout")
	require.NoError(t, err)
	out, err = run("whoami")
	require.NoError(t, err)
	assert.Equal(t, "anonymous\n", out)
}

func TestCommands_ExportYAML(t *testing.T) {
	run := newRunner(t)
	_, err := run("register", "--name", "Ann", "--email", "ann@example.com")
	require.NoError(t, err)

	out, err := run("export")
	require.NoError(t, err)
	assert.Contains(t, out, "techoh-users:")
	assert.Contains(t, out, "email: ann@example.com")
	assert.Contains(t, out, "techoh-liked-articles: {}")
}

package api

import (
	"github.com/urfave/cli/v2"

	"github.com/d60-Lab/techoh/internal/api/handler"
)

func pageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "page", Value: 1, Usage: "page number, from 1"},
		&cli.IntFlag{Name: "size", Value: 10, Usage: "page size"},
	}
}

func articleFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title"},
		&cli.StringFlag{Name: "content"},
		&cli.StringFlag{Name: "cover", Usage: "cover image url"},
		&cli.StringFlag{Name: "category"},
		&cli.StringSliceFlag{Name: "tag", Usage: "repeatable"},
	}
}

// Commands 注册全部子命令
func Commands(h *handler.Handler) []*cli.Command {
	return []*cli.Command{
		{Name: "init", Usage: "create empty collections if missing", Action: h.Init},

		{
			Name:  "register",
			Usage: "create an account and log in",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "name", Required: true},
				&cli.StringFlag{Name: "email", Required: true},
				&cli.StringFlag{Name: "password"},
			},
			Action: h.Register,
		},
		{
			Name:  "login",
			Usage: "log in by email",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "email", Required: true},
				&cli.StringFlag{Name: "password"},
			},
			Action: h.Login,
		},
		{Name: "logout", Usage: "end the current session", Action: h.Logout},
		{Name: "whoami", Usage: "show the current user", Action: h.Whoami},

		{Name: "draft", Usage: "save a draft", Flags: articleFlags(), Action: h.Draft},
		{
			Name:   "publish",
			Usage:  "publish a new article or an existing draft",
			Flags:  append(articleFlags(), &cli.StringFlag{Name: "draft", Usage: "id of a draft to publish"}),
			Action: h.Publish,
		},
		{Name: "show", Usage: "read an article", ArgsUsage: "<article-id>", Action: h.Show},
		{Name: "delete", Usage: "delete one of your articles", ArgsUsage: "<article-id>", Action: h.Delete},
		{Name: "like", Usage: "toggle like", ArgsUsage: "<article-id>", Action: h.Like},
		{Name: "save", Usage: "toggle bookmark", ArgsUsage: "<article-id>", Action: h.Save},
		{
			Name:      "comment",
			Usage:     "comment on an article",
			ArgsUsage: "<article-id>",
			Flags:     []cli.Flag{&cli.StringFlag{Name: "text", Required: true}},
			Action:    h.Comment,
		},

		{Name: "follow", Usage: "follow a user", ArgsUsage: "<user-id>", Action: h.Follow},
		{Name: "unfollow", Usage: "unfollow a user", ArgsUsage: "<user-id>", Action: h.Unfollow},
		{Name: "following", Usage: "users someone follows", ArgsUsage: "[user-id]", Flags: pageFlags(), Action: h.Following},
		{Name: "fans", Usage: "users following someone", ArgsUsage: "[user-id]", Flags: pageFlags(), Action: h.Fans},

		{Name: "latest", Usage: "newest articles", Flags: pageFlags(), Action: h.Latest},
		{Name: "top", Usage: "most liked articles", Flags: pageFlags(), Action: h.Top},
		{Name: "trending", Usage: "most viewed articles", Flags: pageFlags(), Action: h.Trending},
		{Name: "timeline", Usage: "new articles from people you follow", Flags: pageFlags(), Action: h.Timeline},
		{Name: "saved", Usage: "your bookmarks", Action: h.Saved},
		{Name: "mine", Usage: "your articles including drafts", Action: h.Mine},

		{Name: "users", Usage: "list registered users", Action: h.Users},
		{Name: "stats", Usage: "author dashboard", ArgsUsage: "[user-id]", Action: h.Stats},
		{
			Name:  "profile",
			Usage: "edit your profile",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "name"},
				&cli.StringFlag{Name: "bio"},
				&cli.StringFlag{Name: "location"},
				&cli.StringFlag{Name: "avatar"},
			},
			Action: h.Profile,
		},

		{Name: "reconcile", Usage: "recompute denormalised counters", Action: h.Reconcile},
		{
			Name:   "export",
			Usage:  "dump every stored key as yaml",
			Flags:  []cli.Flag{&cli.StringFlag{Name: "out", Usage: "file path, default stdout"}},
			Action: h.Export,
		},
	}
}

package handler

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// Like 切换当前用户对文章的点赞
func (h *Handler) Like(c *cli.Context) error {
	articleID, err := requireArg(c, "article id")
	if err != nil {
		return err
	}
	u, err := h.currentUser(c.Context)
	if err != nil {
		return fail(err)
	}
	res, err := h.relations.ToggleLike(c.Context, u.ID, articleID)
	if err != nil {
		return fail(err)
	}
	verb := "unliked"
	if res.Liked {
		verb = "liked"
	}
	fmt.Fprintf(c.App.Writer, "%s %s (%d likes)\n", verb, articleID, res.NewLikeCount)
	return nil
}

// Save 切换收藏
func (h *Handler) Save(c *cli.Context) error {
	articleID, err := requireArg(c, "article id")
	if err != nil {
		return err
	}
	u, err := h.currentUser(c.Context)
	if err != nil {
		return fail(err)
	}
	res, err := h.relations.ToggleSave(c.Context, u.ID, articleID)
	if err != nil {
		return fail(err)
	}
	if res.Saved {
		fmt.Fprintf(c.App.Writer, "saved %s\n", articleID)
	} else {
		fmt.Fprintf(c.App.Writer, "removed %s from saved\n", articleID)
	}
	return nil
}

// Comment 以当前用户的名字和头像快照发表评论
func (h *Handler) Comment(c *cli.Context) error {
	articleID, err := requireArg(c, "article id")
	if err != nil {
		return err
	}
	u, err := h.currentUser(c.Context)
	if err != nil {
		return fail(err)
	}
	comment, err := h.relations.AddComment(c.Context, articleID, u.ID, u.Name, u.Avatar, c.String("text"))
	if err != nil {
		return fail(err)
	}
	fmt.Fprintf(c.App.Writer, "comment %s added\n", comment.ID)
	return nil
}

// Saved 当前用户的收藏列表，按收藏时间
func (h *Handler) Saved(c *cli.Context) error {
	u, err := h.currentUser(c.Context)
	if err != nil {
		return fail(err)
	}
	ids, err := h.relations.SavedIDs(c.Context, u.ID)
	if err != nil {
		return fail(err)
	}
	all, err := h.articles.Articles(c.Context)
	if err != nil {
		return fail(err)
	}
	byID := make(map[string]int, len(all))
	for i, a := range all {
		byID[a.ID] = i
	}
	w := c.App.Writer
	if len(ids) == 0 {
		fmt.Fprintln(w, "no saved articles")
		return nil
	}
	for _, id := range ids {
		if i, ok := byID[id]; ok {
			printArticleLine(w, all[i])
		}
	}
	return nil
}

// Follow 关注用户
func (h *Handler) Follow(c *cli.Context) error {
	target, err := requireArg(c, "user id")
	if err != nil {
		return err
	}
	u, err := h.currentUser(c.Context)
	if err != nil {
		return fail(err)
	}
	if err := h.relations.Follow(c.Context, u.ID, target); err != nil {
		return fail(err)
	}
	fmt.Fprintf(c.App.Writer, "following %s\n", target)
	return nil
}

// Unfollow 取消关注
func (h *Handler) Unfollow(c *cli.Context) error {
	target, err := requireArg(c, "user id")
	if err != nil {
		return err
	}
	u, err := h.currentUser(c.Context)
	if err != nil {
		return fail(err)
	}
	if err := h.relations.Unfollow(c.Context, u.ID, target); err != nil {
		return fail(err)
	}
	fmt.Fprintf(c.App.Writer, "unfollowed %s\n", target)
	return nil
}

// Following 查询某用户关注的人，默认当前用户
func (h *Handler) Following(c *cli.Context) error {
	userID, err := h.userArg(c)
	if err != nil {
		return err
	}
	list, err := h.relations.ListFollowing(c.Context, userID, c.Int("page"), c.Int("size"))
	if err != nil {
		return fail(err)
	}
	return h.printUserIDs(c, list)
}

// Fans 查询某用户的粉丝，默认当前用户
func (h *Handler) Fans(c *cli.Context) error {
	userID, err := h.userArg(c)
	if err != nil {
		return err
	}
	list, err := h.relations.ListFans(c.Context, userID, c.Int("page"), c.Int("size"))
	if err != nil {
		return fail(err)
	}
	return h.printUserIDs(c, list)
}

// Reconcile 按关系集重算冗余计数
func (h *Handler) Reconcile(c *cli.Context) error {
	report, err := h.relations.Reconcile(c.Context)
	if err != nil {
		return fail(err)
	}
	fmt.Fprintf(c.App.Writer, "articles fixed: %d, users fixed: %d\n", report.ArticlesFixed, report.UsersFixed)
	return nil
}

func (h *Handler) userArg(c *cli.Context) (string, error) {
	if c.NArg() > 0 {
		return c.Args().First(), nil
	}
	u, err := h.currentUser(c.Context)
	if err != nil {
		return "", fail(err)
	}
	return u.ID, nil
}

func (h *Handler) printUserIDs(c *cli.Context, ids []string) error {
	w := c.App.Writer
	if len(ids) == 0 {
		fmt.Fprintln(w, "nobody yet")
		return nil
	}
	for _, id := range ids {
		u, err := h.profiles.GetUser(c.Context, id)
		if err != nil {
			fmt.Fprintln(w, id)
			continue
		}
		fmt.Fprintf(w, "%s  %s (@%s)\n", u.ID, u.Name, u.Username)
	}
	return nil
}

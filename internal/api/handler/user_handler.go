package handler

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/d60-Lab/techoh/internal/service"
)

// Init 初始化空集合，可重复执行
func (h *Handler) Init(c *cli.Context) error {
	if err := h.store.Init(c.Context); err != nil {
		return fail(err)
	}
	fmt.Fprintln(c.App.Writer, "store initialised")
	return nil
}

func (h *Handler) Register(c *cli.Context) error {
	u, err := h.sessions.Register(c.Context, service.RegisterInput{
		Name:     c.String("name"),
		Email:    c.String("email"),
		Password: c.String("password"),
	})
	if err != nil {
		return fail(err)
	}
	fmt.Fprintf(c.App.Writer, "welcome, %s (%s)\n", u.Name, u.ID)
	return nil
}

func (h *Handler) Login(c *cli.Context) error {
	u, err := h.sessions.Login(c.Context, c.String("email"), c.String("password"))
	if err != nil {
		return fail(err)
	}
	fmt.Fprintf(c.App.Writer, "logged in as %s\n", u.Name)
	return nil
}

func (h *Handler) Logout(c *cli.Context) error {
	if err := h.sessions.Logout(c.Context); err != nil {
		return fail(err)
	}
	fmt.Fprintln(c.App.Writer, "logged out")
	return nil
}

func (h *Handler) Whoami(c *cli.Context) error {
	u, err := h.sessions.CurrentUser(c.Context)
	if err != nil {
		return fail(err)
	}
	if u == nil {
		fmt.Fprintln(c.App.Writer, "anonymous")
		return nil
	}
	printUser(c.App.Writer, u)
	return nil
}

// Users 注册表中的全部用户
func (h *Handler) Users(c *cli.Context) error {
	users, err := h.profiles.ListUsers(c.Context)
	if err != nil {
		return fail(err)
	}
	for i := range users {
		printUser(c.App.Writer, &users[i])
	}
	return nil
}

// Stats 作者面板，默认当前用户
func (h *Handler) Stats(c *cli.Context) error {
	userID, err := h.userArg(c)
	if err != nil {
		return err
	}
	s, err := h.profiles.Stats(c.Context, userID)
	if err != nil {
		return fail(err)
	}
	fmt.Fprintf(c.App.Writer, "articles %d  views %d  likes %d  comments %d  followers %d\n",
		s.Articles, s.Views, s.Likes, s.Comments, s.Followers)
	return nil
}

// Profile 修改当前用户资料，只改显式传入的字段
func (h *Handler) Profile(c *cli.Context) error {
	u, err := h.currentUser(c.Context)
	if err != nil {
		return fail(err)
	}
	var in service.ProfileInput
	for name, dst := range map[string]**string{
		"name":     &in.Name,
		"bio":      &in.Bio,
		"location": &in.Location,
		"avatar":   &in.Avatar,
	} {
		if c.IsSet(name) {
			v := c.String(name)
			*dst = &v
		}
	}
	updated, err := h.profiles.UpdateProfile(c.Context, u.ID, in)
	if err != nil {
		return fail(err)
	}
	printUser(c.App.Writer, updated)
	return nil
}

// Export 以 yaml 导出所有键
func (h *Handler) Export(c *cli.Context) error {
	snap, err := h.store.Snapshot(c.Context)
	if err != nil {
		return fail(err)
	}
	out := c.App.Writer
	if path := c.String("out"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return cli.Exit(err.Error(), exitUser)
		}
		defer f.Close()
		out = f
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(snap); err != nil {
		return cli.Exit(err.Error(), exitUser)
	}
	return enc.Close()
}

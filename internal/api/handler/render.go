package handler

import (
	"fmt"
	"io"
	"strings"

	"github.com/d60-Lab/techoh/internal/model"
	"github.com/d60-Lab/techoh/internal/service"
)

func printUser(w io.Writer, u *model.User) {
	fmt.Fprintf(w, "%s  %s (@%s) <%s>\n", u.ID, u.Name, u.Username, u.Email)
	fmt.Fprintf(w, "  %s | %s | joined %s\n", u.Bio, u.Location, u.JoinedDate)
	fmt.Fprintf(w, "  articles %d  followers %d  following %d\n", u.ArticlesCount, u.Followers, u.Following)
}

func printArticleLine(w io.Writer, a model.Article) {
	draft := ""
	if a.IsDraft {
		draft = " [draft]"
	}
	fmt.Fprintf(w, "%s  %s%s  (%s, %d min, %d likes, %d views, %d comments)\n",
		a.ID, a.Title, draft, a.PublishDate, a.ReadTime, a.LikesCount, a.ViewsCount, a.CommentsCount)
}

func printArticles(w io.Writer, articles []model.Article) {
	if len(articles) == 0 {
		fmt.Fprintln(w, "no articles")
		return
	}
	for _, a := range articles {
		printArticleLine(w, a)
	}
}

func printView(w io.Writer, v *service.ArticleView) {
	a := v.Article
	fmt.Fprintf(w, "%s\n", a.Title)
	author := "unknown author"
	if v.Author != nil {
		author = v.Author.Name
	}
	fmt.Fprintf(w, "by %s | %s | %d min read\n", author, a.PublishDate, a.ReadTime)
	if len(a.Tags) > 0 {
		fmt.Fprintf(w, "tags: %s\n", strings.Join(a.Tags, ", "))
	}
	fmt.Fprintf(w, "\n%s\n\n", a.Content)
	fmt.Fprintf(w, "%d likes  %d views  %d comments\n", a.LikesCount, a.ViewsCount, a.CommentsCount)
	for _, c := range v.Comments {
		fmt.Fprintf(w, "- %s (%s): %s\n", c.UserName, c.Date, c.Content)
	}
}

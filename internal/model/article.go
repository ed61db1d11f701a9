package model

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Article 文章；likes/views/comments 为冗余计数
type Article struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Excerpt       string   `json:"excerpt"`
	Cover         string   `json:"cover"`
	AuthorID      string   `json:"authorId"`
	PublishDate   string   `json:"publishDate"`
	ReadTime      int      `json:"readTime"`
	Tags          []string `json:"tags"`
	Category      string   `json:"category"`
	LikesCount    int      `json:"likes"`
	ViewsCount    int      `json:"views"`
	CommentsCount int      `json:"comments"`
	IsDraft       bool     `json:"isDraft"`
}

func (a Article) RecordID() string { return a.ID }

// UnmarshalJSON 兼容旧记录：author 内嵌对象、status=draft
func (a *Article) UnmarshalJSON(data []byte) error {
	type plain Article
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.AuthorID == "" {
		p.AuthorID = gjson.GetBytes(data, "author.id").String()
	}
	if !gjson.GetBytes(data, "isDraft").Exists() {
		p.IsDraft = gjson.GetBytes(data, "status").String() == "draft"
	}
	*a = Article(p)
	return nil
}

package model

// Comment 评论；UserName/UserAvatar 是发表时的作者快照，之后不随资料修改而变化
type Comment struct {
	ID         string `json:"id"`
	ArticleID  string `json:"articleId"`
	UserID     string `json:"userId"`
	UserName   string `json:"userName"`
	UserAvatar string `json:"userAvatar"`
	Content    string `json:"content"`
	Date       string `json:"date"`
}

func (c Comment) RecordID() string { return c.ID }

package idgen

import (
	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

var node *snowflake.Node

func init() {
	node, _ = snowflake.NewNode(1)
}

// GenID 时间有序的 snowflake id（文章）
func GenID() string {
	return node.Generate().String()
}

// GenUserID 注册用户 id，保持 user_ 前缀
func GenUserID() string {
	return "user_" + node.Generate().String()
}

// GenCommentID 评论 id
func GenCommentID() string {
	return uuid.NewString()
}

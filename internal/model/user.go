package model

// User 注册用户；JSON 字段名沿用 techoh-users 中的既有格式
type User struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Username      string   `json:"username"`
	Email         string   `json:"email"`
	Avatar        string   `json:"avatar"`
	Bio           string   `json:"bio"`
	Location      string   `json:"location"`
	JoinedDate    string   `json:"joinedDate"`
	ArticlesCount int      `json:"articles"`
	Followers     int      `json:"followers"`
	Following     int      `json:"following"`
	Badges        []string `json:"badges"`
}

func (u User) RecordID() string { return u.ID }

// Credential 可选的密码哈希，单独存放以保持 User 记录格式不变
type Credential struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Hash   string `json:"hash"`
}

func (c Credential) RecordID() string { return c.UserID }

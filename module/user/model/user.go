package model

// 角色只区分普通用户与管理员，沿用来源系统的取值
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID          string `bson:"_id" json:"id"`
	Username    string `bson:"username" json:"username"`
	DisplayName string `bson:"display_name" json:"displayName"`
	Role        string `bson:"role" json:"role"`

	PasswordHash string `bson:"password_hash" json:"-"` // bcrypt

	CreatedAtMS int64 `bson:"created_at_ms" json:"createdAt"`
}

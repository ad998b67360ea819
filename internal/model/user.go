package model

import "time"

// User 用户模型（身份由上游认证服务维护，这里只保留鉴权所需字段）
type User struct {
	ID        uint64    `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Email     string    `db:"email" json:"email"`
	Token     string    `db:"token" json:"-"`
	IsAdmin   bool      `db:"is_admin" json:"is_admin"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

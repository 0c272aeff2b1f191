// Package model はドメインモデルを定義する。
package model

import "time"

// Role はプロフィールの認可ロールを表す。
type Role string

const (
	// RoleUser は一般ユーザーロール。
	RoleUser Role = "user"
	// RoleAdmin は管理者ロール。削除操作と他ユーザーの更新が許可される。
	RoleAdmin Role = "admin"
)

// Profile はデータストアに永続化されるユーザープロフィールを表す。
// IDはIDプロバイダーのアカウントIDと1:1で対応する。
// 認証情報（パスワードハッシュ等）は一切含まない。
type Profile struct {
	ID        string
	Email     string
	FullName  string
	Role      Role
	AvatarURL *string
	Bio       *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProfilePatch はプロフィールの部分更新を表す。
// nilのフィールドは更新せず既存値を維持する。
// roleは意図的に含めない（UpdateUser経由のロール変更は誰にも許可しない）。
type ProfilePatch struct {
	FullName  *string
	Bio       *string
	AvatarURL *string
}

// Account はIDプロバイダーが管理するアカウント情報のビュー。
// このサービスはアカウントを参照するのみで、認証情報には触れない。
type Account struct {
	ID        string
	Email     string
	FullName  string
	CreatedAt time.Time
}

// Session はIDプロバイダーが発行したセッショントークンを表す。
type Session struct {
	AccessToken  string
	TokenType    string
	ExpiresIn    int
	RefreshToken string
}

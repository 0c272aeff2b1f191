// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/ichiro/userhub/internal/model"
)

// ProfileRepository はプロフィールデータの永続化インターフェース。
type ProfileRepository interface {
	// List は全プロフィールをcreated_at降順で取得する。
	List(ctx context.Context) ([]*model.Profile, error)

	// FindByID は指定IDのプロフィールを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Profile, error)

	// FindRoleByID は指定IDのプロフィールのロールのみを取得する。
	// 見つからない場合は空文字列を返す。
	FindRoleByID(ctx context.Context, id string) (model.Role, error)

	// UpdatePartial はプロフィールを部分更新し、更新後の行を返す。
	// patchのnilフィールドは既存値を維持する。roleカラムには一切触れない。
	// 対象が存在しない場合はnilを返す。
	UpdatePartial(ctx context.Context, id string, patch model.ProfilePatch) (*model.Profile, error)

	// EnsureProfile はプロフィール行を冪等にUPSERTする。
	// 既存行がある場合はemailのみ同期し、role等は維持する。
	EnsureProfile(ctx context.Context, profile *model.Profile) error

	// DeleteByID は指定IDのプロフィールを削除する。
	// 行が存在しない場合もエラーにしない（アカウント削除後の冪等なクリーンアップ）。
	DeleteByID(ctx context.Context, id string) error
}

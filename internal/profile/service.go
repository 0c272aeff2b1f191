// Package profile はプロフィール管理のドメインロジックを提供する。
// 所有権とロールによる認可判定がこのパッケージの中心で、
// 永続化はリポジトリに、アカウント削除はIDプロバイダーに委譲する。
package profile

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ichiro/userhub/internal/identity"
	"github.com/ichiro/userhub/internal/model"
	"github.com/ichiro/userhub/internal/repository"
)

// AccountDeleter はサービスロール権限でのアカウント削除インターフェース。
type AccountDeleter interface {
	AdminDeleteUser(ctx context.Context, accountID string) error
}

// Sanitizer はプロフィールテキストのサニタイズインターフェース。
// security.ProfileSanitizerServiceの部分集合として定義する。
type Sanitizer interface {
	SanitizeText(s string) string
}

// AvatarGuard はavatar_urlの検証インターフェース。
// security.AvatarGuardServiceの部分集合として定義する。
type AvatarGuard interface {
	Validate(ctx context.Context, rawURL string) error
}

// Service はプロフィール管理のサービス層。
// 認可ルール: 更新は本人または管理者、削除は管理者のみ（本人でも不可）。
type Service struct {
	repo        repository.ProfileRepository
	accounts    AccountDeleter
	sanitizer   Sanitizer
	avatarGuard AvatarGuard
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	repo repository.ProfileRepository,
	accounts AccountDeleter,
	sanitizer Sanitizer,
	avatarGuard AvatarGuard,
) *Service {
	return &Service{
		repo:        repo,
		accounts:    accounts,
		sanitizer:   sanitizer,
		avatarGuard: avatarGuard,
	}
}

// List は全プロフィールをcreated_at降順で返す。
func (s *Service) List(ctx context.Context) ([]*model.Profile, error) {
	profiles, err := s.repo.List(ctx)
	if err != nil {
		return nil, model.NewUpstreamError(err.Error())
	}
	return profiles, nil
}

// Get は指定IDのプロフィールを返す。存在しない場合は404。
func (s *Service) Get(ctx context.Context, id string) (*model.Profile, error) {
	profile, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, model.NewUpstreamError(err.Error())
	}
	if profile == nil {
		return nil, model.NewUserNotFoundError()
	}
	return profile, nil
}

// Update はプロフィールを部分更新する。
// 認可: 呼び出し元が管理者であるか、対象が本人であること。
// 認可チェックはストアへの変更を試みる前に行い、パッチの内容に関わらず
// 権限不足は403で拒否する。nilフィールドは既存値を維持する。
func (s *Service) Update(ctx context.Context, callerID, targetID string, patch model.ProfilePatch) (*model.Profile, error) {
	role, err := s.repo.FindRoleByID(ctx, callerID)
	if err != nil {
		return nil, model.NewUpstreamError(err.Error())
	}

	if role != model.RoleAdmin && callerID != targetID {
		return nil, model.NewProfileUpdateForbiddenError()
	}

	// ユーザー入力のテキストはHTMLを除去してから保存する
	if patch.FullName != nil {
		cleaned := s.sanitizer.SanitizeText(*patch.FullName)
		patch.FullName = &cleaned
	}
	if patch.Bio != nil {
		cleaned := s.sanitizer.SanitizeText(*patch.Bio)
		patch.Bio = &cleaned
	}

	// avatar_urlはSSRF対策の検証を通す（空文字列はクリア扱いで検証しない）
	if patch.AvatarURL != nil && *patch.AvatarURL != "" {
		if err := s.avatarGuard.Validate(ctx, *patch.AvatarURL); err != nil {
			return nil, model.NewValidationError("invalid avatar_url: " + err.Error())
		}
	}

	updated, err := s.repo.UpdatePartial(ctx, targetID, patch)
	if err != nil {
		return nil, model.NewUpstreamError(err.Error())
	}
	if updated == nil {
		return nil, model.NewUserNotFoundError()
	}

	return updated, nil
}

// Delete はユーザーを削除する。
// 認可: 呼び出し元が管理者であること。対象が本人でも管理者以外は拒否する。
// 削除順序: IDプロバイダーのアカウント（サービスロール権限）→ プロフィール行。
// プロフィール行の削除は暗黙のカスケードに頼らず明示的に行う。
func (s *Service) Delete(ctx context.Context, callerID, targetID string) error {
	role, err := s.repo.FindRoleByID(ctx, callerID)
	if err != nil {
		return model.NewUpstreamError(err.Error())
	}

	if role != model.RoleAdmin {
		return model.NewAdminRequiredError()
	}

	if err := s.accounts.AdminDeleteUser(ctx, targetID); err != nil {
		var perr *identity.ProviderError
		if errors.As(err, &perr) {
			return model.NewUpstreamError(perr.Message)
		}
		return err
	}

	if err := s.repo.DeleteByID(ctx, targetID); err != nil {
		return model.NewUpstreamError(err.Error())
	}

	slog.Info("user deleted",
		slog.String("caller_id", callerID),
		slog.String("target_id", targetID),
	)

	return nil
}

// Package auth は認証操作（登録、サインイン、サインアウト、トークン解決）の
// ドメインロジックを提供する。資格情報の検証とトークンの暗号処理は
// 外部IDプロバイダーに委譲し、このパッケージは入力検証とエラー変換、
// プロフィール行のブートストラップのみを担う。
package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ichiro/userhub/internal/identity"
	"github.com/ichiro/userhub/internal/model"
)

// IdentityProvider は認証サービスが必要とするIDプロバイダーのインターフェース。
type IdentityProvider interface {
	// SignUp は新規アカウントを登録する。セッションはnilの場合がある。
	SignUp(ctx context.Context, email, password string, metadata map[string]string) (*model.Account, *model.Session, error)
	// SignInWithPassword はパスワード認証でセッションを発行する。
	SignInWithPassword(ctx context.Context, email, password string) (*model.Account, *model.Session, error)
	// SignOut は指定トークンのセッションを無効化する。
	SignOut(ctx context.Context, accessToken string) error
	// GetUser はアクセストークンをアカウントに解決する。
	GetUser(ctx context.Context, accessToken string) (*model.Account, error)
}

// ProfileBootstrapper はプロフィール行のブートストラップに必要なインターフェース。
// repository.ProfileRepositoryの部分集合として定義する。
type ProfileBootstrapper interface {
	EnsureProfile(ctx context.Context, profile *model.Profile) error
}

// MetricsRecorder は認証結果のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordAuthSuccess(operation string)
	RecordAuthFailure(operation string)
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	provider IdentityProvider
	profiles ProfileBootstrapper
	metrics  MetricsRecorder
}

// NewService はServiceを生成する。metricsはnil可。
func NewService(provider IdentityProvider, profiles ProfileBootstrapper, metrics MetricsRecorder) *Service {
	return &Service{
		provider: provider,
		profiles: profiles,
		metrics:  metrics,
	}
}

// Register は新規アカウントを登録する。
// email/passwordが空の場合はValidationError（400）を返す。
// プロバイダーの拒否（重複メール、弱いパスワード等）はメッセージを
// そのまま400で返す。成功時はプロフィール行をブートストラップする。
func (s *Service) Register(ctx context.Context, email, password, fullName string) (*model.Account, *model.Session, error) {
	if email == "" || password == "" {
		return nil, nil, model.NewMissingCredentialsError()
	}

	// full_nameは空でもmetadataとして渡す（プロバイダー側でuser_metadataに保存される）
	account, session, err := s.provider.SignUp(ctx, email, password, map[string]string{
		"full_name": fullName,
	})
	if err != nil {
		s.recordFailure("signup")
		return nil, nil, translateProviderError(err, model.NewUpstreamError)
	}

	if account != nil {
		s.bootstrapProfile(ctx, account)
	}

	s.recordSuccess("signup")
	slog.Info("user registered",
		slog.String("account_id", accountID(account)),
	)

	return account, session, nil
}

// SignIn はパスワード認証でセッションを発行する。
// email/passwordが空の場合はValidationError（400）、
// プロバイダーの認証失敗はメッセージをそのまま401で返す。
func (s *Service) SignIn(ctx context.Context, email, password string) (*model.Account, *model.Session, error) {
	if email == "" || password == "" {
		return nil, nil, model.NewMissingCredentialsError()
	}

	account, session, err := s.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		s.recordFailure("signin")
		return nil, nil, translateProviderError(err, model.NewAuthenticationError)
	}

	// メール変更やトリガー未実行に備えてプロフィール行を再同期する
	if account != nil {
		s.bootstrapProfile(ctx, account)
	}

	s.recordSuccess("signin")
	return account, session, nil
}

// SignOut は指定トークンのセッションをプロバイダー側で無効化する。
// プロバイダーエラーはメッセージをそのまま400で返す。
func (s *Service) SignOut(ctx context.Context, accessToken string) error {
	if err := s.provider.SignOut(ctx, accessToken); err != nil {
		return translateProviderError(err, model.NewUpstreamError)
	}

	slog.Info("user signed out")
	return nil
}

// CurrentUser はアクセストークンを現在のアカウントに解決する。
// 解決失敗はメッセージをそのまま401で返す。
func (s *Service) CurrentUser(ctx context.Context, accessToken string) (*model.Account, error) {
	account, err := s.provider.GetUser(ctx, accessToken)
	if err != nil {
		return nil, translateProviderError(err, model.NewAuthenticationError)
	}
	return account, nil
}

// bootstrapProfile はアカウントに対応するプロフィール行をUPSERTする。
// 失敗しても認証操作自体は成功として扱う（次回サインイン時に再試行される）。
func (s *Service) bootstrapProfile(ctx context.Context, account *model.Account) {
	profile := &model.Profile{
		ID:       account.ID,
		Email:    account.Email,
		FullName: account.FullName,
		Role:     model.RoleUser,
	}
	if err := s.profiles.EnsureProfile(ctx, profile); err != nil {
		slog.Warn("failed to bootstrap profile",
			slog.String("account_id", account.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Service) recordSuccess(operation string) {
	if s.metrics != nil {
		s.metrics.RecordAuthSuccess(operation)
	}
}

func (s *Service) recordFailure(operation string) {
	if s.metrics != nil {
		s.metrics.RecordAuthFailure(operation)
	}
}

// translateProviderError はプロバイダーエラーをAPIエラーに変換する。
// メッセージは再解釈せずそのまま使用する。プロバイダー由来でない
// エラー（接続失敗等）はそのまま返し、500として扱わせる。
func translateProviderError(err error, newAPIError func(message string) *model.APIError) error {
	var perr *identity.ProviderError
	if errors.As(err, &perr) {
		return newAPIError(perr.Message)
	}
	return err
}

// accountID はnil安全にアカウントIDを取り出す（ログ用）。
func accountID(account *model.Account) string {
	if account == nil {
		return ""
	}
	return account.ID
}

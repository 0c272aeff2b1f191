// Package identity は外部IDプロバイダー（GoTrue互換API）のクライアントを提供する。
// アカウント登録、パスワード認証、トークン解決、サインアウト、
// サービスロール権限によるアカウント削除を含む。
// パスワードハッシュとトークンの暗号処理はすべてプロバイダー側の責務。
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ichiro/userhub/internal/model"
)

// Config はクライアントの接続設定。
type Config struct {
	BaseURL    string // プロバイダーのベースURL（例: "https://xyz.example.co"）
	AnonKey    string // 匿名APIキー。通常の認証操作に使用する
	ServiceKey string // サービスロールAPIキー。管理者操作（アカウント削除）にのみ使用する
}

// Client はGoTrue互換のIDプロバイダーAPIクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	config     Config
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, config Config) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		config:     config,
	}
}

// ProviderError はプロバイダーが返したエラーレスポンスを表す。
// メッセージはプロバイダーのものをそのまま保持する（再解釈しない）。
type ProviderError struct {
	StatusCode int
	Message    string
}

// Error はerrorインターフェースを実装する。
func (e *ProviderError) Error() string {
	return e.Message
}

// wireUser はプロバイダーのユーザーレスポンス表現。
type wireUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserMetadata struct {
		FullName string `json:"full_name"`
	} `json:"user_metadata"`
	CreatedAt time.Time `json:"created_at"`
}

// authResponse はsignup/tokenエンドポイントのレスポンス表現。
// セッション発行時はトークンフィールドがトップレベルに展開される。
type authResponse struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	RefreshToken string    `json:"refresh_token"`
	User         *wireUser `json:"user"`
}

// wireError はプロバイダーのエラーレスポンス表現。
// GoTrueはエンドポイントによって複数のキー名を使い分ける。
type wireError struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// SignUp は新規アカウントを登録する。
// metadataはプロバイダーのuser_metadataとして保存される。
// メール確認が必要な設定の場合、セッションはnilで返る。
func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]string) (*model.Account, *model.Session, error) {
	payload := map[string]any{
		"email":    email,
		"password": password,
		"data":     metadata,
	}

	body, err := c.post(ctx, "/auth/v1/signup", payload, c.config.AnonKey, "")
	if err != nil {
		return nil, nil, err
	}

	return parseAuthResponse(body)
}

// SignInWithPassword はパスワードグラントで認証し、セッションを発行する。
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*model.Account, *model.Session, error) {
	payload := map[string]any{
		"email":    email,
		"password": password,
	}

	body, err := c.post(ctx, "/auth/v1/token?grant_type=password", payload, c.config.AnonKey, "")
	if err != nil {
		return nil, nil, err
	}

	return parseAuthResponse(body)
}

// SignOut は指定トークンのセッションをプロバイダー側で無効化する。
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	_, err := c.post(ctx, "/auth/v1/logout", nil, c.config.AnonKey, accessToken)
	return err
}

// GetUser はアクセストークンをアカウントに解決する。
// トークンが無効・期限切れの場合はProviderErrorを返す。
func (c *Client) GetUser(ctx context.Context, accessToken string) (*model.Account, error) {
	body, err := c.do(ctx, http.MethodGet, "/auth/v1/user", nil, c.config.AnonKey, accessToken)
	if err != nil {
		return nil, err
	}

	var u wireUser
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("failed to parse user response: %w", err)
	}
	if u.ID == "" {
		return nil, &ProviderError{StatusCode: http.StatusUnauthorized, Message: "Unauthorized"}
	}

	return toAccount(&u), nil
}

// AdminDeleteUser はサービスロール権限でアカウントを削除する。
// 呼び出し側の資格情報とは独立した昇格済み操作。
func (c *Client) AdminDeleteUser(ctx context.Context, accountID string) error {
	path := "/auth/v1/admin/users/" + accountID
	_, err := c.do(ctx, http.MethodDelete, path, nil, c.config.ServiceKey, c.config.ServiceKey)
	return err
}

// post はJSONボディ付きPOSTリクエストを実行する。
func (c *Client) post(ctx context.Context, path string, payload any, apiKey, bearerToken string) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}
	return c.do(ctx, http.MethodPost, path, reqBody, apiKey, bearerToken)
}

// do はプロバイダーAPIへのHTTPリクエストを実行する。
// 2xx以外のステータスはProviderErrorに変換する。
func (c *Client) do(ctx context.Context, method, path string, reqBody io.Reader, apiKey, bearerToken string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Apikey", apiKey)
	req.Header.Set("Content-Type", "application/json")
	if bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+bearerToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("identity provider request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("identity provider request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		perr := &ProviderError{
			StatusCode: resp.StatusCode,
			Message:    parseErrorMessage(body, resp.StatusCode),
		}
		c.logger.Warn("identity provider returned error",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			slog.String("message", perr.Message),
		)
		return nil, perr
	}

	return body, nil
}

// parseErrorMessage はプロバイダーのエラーボディからメッセージを抽出する。
// キー名の優先順位: msg > message > error_description > error。
func parseErrorMessage(body []byte, statusCode int) string {
	var we wireError
	if err := json.Unmarshal(body, &we); err == nil {
		switch {
		case we.Msg != "":
			return we.Msg
		case we.Message != "":
			return we.Message
		case we.ErrorDescription != "":
			return we.ErrorDescription
		case we.Error != "":
			return we.Error
		}
	}
	return fmt.Sprintf("identity provider returned status %d", statusCode)
}

// parseAuthResponse はsignup/tokenレスポンスをアカウントとセッションに変換する。
func parseAuthResponse(body []byte) (*model.Account, *model.Session, error) {
	var ar authResponse
	if err := json.Unmarshal(body, &ar); err != nil {
		return nil, nil, fmt.Errorf("failed to parse auth response: %w", err)
	}

	var account *model.Account
	if ar.User != nil {
		account = toAccount(ar.User)
	} else {
		// メール確認待ちのsignupはユーザーオブジェクトのみをトップレベルで返す
		var u wireUser
		if err := json.Unmarshal(body, &u); err == nil && u.ID != "" {
			account = toAccount(&u)
		}
	}

	var session *model.Session
	if ar.AccessToken != "" {
		session = &model.Session{
			AccessToken:  ar.AccessToken,
			TokenType:    ar.TokenType,
			ExpiresIn:    ar.ExpiresIn,
			RefreshToken: ar.RefreshToken,
		}
	}

	return account, session, nil
}

// toAccount はwireUserをドメインのAccountに変換する。
func toAccount(u *wireUser) *model.Account {
	return &model.Account{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.UserMetadata.FullName,
		CreatedAt: u.CreatedAt,
	}
}

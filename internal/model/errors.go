package model

import "net/http"

// APIError はクライアントに返すエラーを表す。
// すべてのエラーは {"error": <message>} 形式のJSONエンベロープで返される。
// プロバイダー/ストア由来のメッセージは再解釈せずそのまま伝播する。
type APIError struct {
	Status  int    // HTTPステータスコード
	Message string // エラーメッセージ
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return e.Message
}

// NewValidationError は入力不備エラー（400）を生成する。
func NewValidationError(message string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Message: message}
}

// NewAuthenticationError は認証エラー（401）を生成する。
// トークン欠落・無効、または資格情報の不一致を表す。
func NewAuthenticationError(message string) *APIError {
	return &APIError{Status: http.StatusUnauthorized, Message: message}
}

// NewAuthorizationError は認可エラー（403）を生成する。
// 認証済みだがロール/所有権が不足している場合に使用する。
func NewAuthorizationError(message string) *APIError {
	return &APIError{Status: http.StatusForbidden, Message: message}
}

// NewNotFoundError は対象リソース不在エラー（404）を生成する。
func NewNotFoundError(message string) *APIError {
	return &APIError{Status: http.StatusNotFound, Message: message}
}

// NewUpstreamError はプロバイダー/ストア呼び出し失敗エラー（400）を生成する。
// メッセージは上流のエラーメッセージをそのまま使用する。
func NewUpstreamError(message string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Message: message}
}

// NewMissingCredentialsError はemail/password欠落エラーを生成する。
func NewMissingCredentialsError() *APIError {
	return NewValidationError("Email and password are required")
}

// NewUserNotFoundError はユーザー不在エラーを生成する。
func NewUserNotFoundError() *APIError {
	return NewNotFoundError("User not found")
}

// NewProfileUpdateForbiddenError は他ユーザーのプロフィール更新を
// 拒否するエラーを生成する。
func NewProfileUpdateForbiddenError() *APIError {
	return NewAuthorizationError("Forbidden: You can only update your own profile")
}

// NewAdminRequiredError は管理者ロールが必要な操作の拒否エラーを生成する。
func NewAdminRequiredError() *APIError {
	return NewAuthorizationError("Forbidden: Admin access required")
}

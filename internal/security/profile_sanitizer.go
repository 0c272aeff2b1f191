// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ProfileSanitizerService はユーザーが入力するプロフィールテキスト
// （full_name、bio）からHTMLを除去し、一覧・詳細レスポンスを経由した
// XSSからクライアントを保護する。bluemondayのStrictPolicyを使用し、
// タグと属性を一切許可しない。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ProfileSanitizerService はプロフィールテキストのサニタイズ機能の
// インターフェースを定義する。プロフィール更新の保存前に使用される。
type ProfileSanitizerService interface {
	// SanitizeText は入力文字列からすべてのHTMLタグ・属性を除去し、
	// 前後の空白をトリムして返す。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeText(s string) string
}

// profileSanitizer はProfileSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type profileSanitizer struct {
	policy *bluemonday.Policy
}

// NewProfileSanitizer はProfileSanitizerServiceの新しいインスタンスを生成する。
// プロフィールテキストは平文として扱うため、許可リストが空のStrictPolicyを使用する。
// script等の危険なタグに限らず、すべてのマークアップが除去される。
func NewProfileSanitizer() *profileSanitizer {
	return &profileSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeText は入力文字列からすべてのHTMLを除去して返す。
func (s *profileSanitizer) SanitizeText(text string) string {
	return strings.TrimSpace(s.policy.Sanitize(text))
}

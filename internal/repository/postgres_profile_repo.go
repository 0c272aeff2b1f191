package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ichiro/userhub/internal/model"
)

// profileColumns はプロフィール取得で常に選択するカラム。
// 認証情報に相当するカラムはこのテーブルに存在しない。
const profileColumns = `id, email, full_name, role, avatar_url, bio, created_at, updated_at`

// PostgresProfileRepo はPostgreSQLを使用したプロフィールリポジトリ。
type PostgresProfileRepo struct {
	db *sql.DB
}

// NewPostgresProfileRepo はPostgresProfileRepoを生成する。
func NewPostgresProfileRepo(db *sql.DB) *PostgresProfileRepo {
	return &PostgresProfileRepo{db: db}
}

// List は全プロフィールをcreated_at降順で取得する。
func (r *PostgresProfileRepo) List(ctx context.Context) ([]*model.Profile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM profiles ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*model.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profiles: %w", err)
	}

	return profiles, nil
}

// FindByID は指定IDのプロフィールを取得する。見つからない場合はnilを返す。
func (r *PostgresProfileRepo) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1`,
		id,
	)

	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find profile by ID: %w", err)
	}

	return p, nil
}

// FindRoleByID は指定IDのプロフィールのロールのみを取得する。
// 見つからない場合は空文字列を返す。
func (r *PostgresProfileRepo) FindRoleByID(ctx context.Context, id string) (model.Role, error) {
	var role string
	err := r.db.QueryRowContext(ctx,
		`SELECT role FROM profiles WHERE id = $1`,
		id,
	).Scan(&role)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to find role: %w", err)
	}

	return model.Role(role), nil
}

// UpdatePartial はプロフィールを部分更新し、更新後の行を返す。
// COALESCEによりnilフィールドは既存値を維持する。roleカラムには触れない。
// 対象が存在しない場合はnilを返す。
func (r *PostgresProfileRepo) UpdatePartial(ctx context.Context, id string, patch model.ProfilePatch) (*model.Profile, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE profiles
		 SET full_name  = COALESCE($2, full_name),
		     bio        = COALESCE($3, bio),
		     avatar_url = COALESCE($4, avatar_url),
		     updated_at = now()
		 WHERE id = $1
		 RETURNING `+profileColumns,
		id, patch.FullName, patch.Bio, patch.AvatarURL,
	)

	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return p, nil
}

// EnsureProfile はプロフィール行を冪等にUPSERTする。
// 既存行がある場合はemailのみ同期し、roleと編集済みフィールドは維持する。
func (r *PostgresProfileRepo) EnsureProfile(ctx context.Context, profile *model.Profile) error {
	role := profile.Role
	if role == "" {
		role = model.RoleUser
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (id, email, full_name, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, now(), now())
		 ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email`,
		profile.ID, profile.Email, profile.FullName, string(role),
	)
	if err != nil {
		return fmt.Errorf("failed to ensure profile: %w", err)
	}

	return nil
}

// DeleteByID は指定IDのプロフィールを削除する。
func (r *PostgresProfileRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM profiles WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}

// rowScanner は*sql.Rowと*sql.Rowsの共通スキャンインターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// scanProfile は1行をProfileに変換する。
func scanProfile(row rowScanner) (*model.Profile, error) {
	p := &model.Profile{}
	var role string
	var avatarURL, bio sql.NullString

	err := row.Scan(&p.ID, &p.Email, &p.FullName, &role, &avatarURL, &bio, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	p.Role = model.Role(role)
	if avatarURL.Valid {
		p.AvatarURL = &avatarURL.String
	}
	if bio.Valid {
		p.Bio = &bio.String
	}

	return p, nil
}

// compile-time interface check
var _ ProfileRepository = (*PostgresProfileRepo)(nil)

package auth

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/vidtube/vidtube/internal/database"
)

// User is the public representation of an account. The password hash never
// leaves this package.
type User struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	FullName   string `json:"fullName"`
	Avatar     string `json:"avatar"`
	CoverImage string `json:"coverImage"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
}

// UserColumns lists the columns ScanUser expects, in order.
const UserColumns = `id, username, email, full_name, avatar_url, cover_image_url, created_at, updated_at`

// ScanUser scans UserColumns followed by any extra destinations.
func ScanUser(row pgx.Row, extra ...any) (User, error) {
	var u User
	var createdAt, updatedAt time.Time
	dest := []any{&u.ID, &u.Username, &u.Email, &u.FullName, &u.Avatar, &u.CoverImage, &createdAt, &updatedAt}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return User{}, err
	}
	u.CreatedAt = createdAt.Format(time.RFC3339)
	u.UpdatedAt = updatedAt.Format(time.RFC3339)
	return u, nil
}

func LoadUser(ctx context.Context, db database.DBTX, userID string) (User, error) {
	return ScanUser(db.QueryRow(ctx, `SELECT `+UserColumns+` FROM users WHERE id = $1`, userID))
}

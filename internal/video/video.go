package video

import (
	"time"

	"github.com/jackc/pgx/v5"
)

type Owner struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName,omitempty"`
	Avatar   string `json:"avatar"`
}

type Video struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	VideoFile   string  `json:"videoFile,omitempty"`
	Thumbnail   string  `json:"thumbnail"`
	Duration    float64 `json:"duration"`
	Views       int64   `json:"views"`
	IsPublished bool    `json:"isPublished"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt,omitempty"`
	Owner       Owner   `json:"owner"`
}

type videoDetail struct {
	Video
	LikesCount int64 `json:"likesCount"`
	IsLiked    bool  `json:"isLiked"`
}

// videoColumns selects a full video joined to its owner as u.
const videoColumns = `v.id, v.title, v.description, v.video_file_url, v.thumbnail_url, v.duration, v.views, v.is_published, v.created_at, v.updated_at, u.id, u.username, u.full_name, u.avatar_url`

// ListColumns is the lighter projection used by every video listing. It
// expects videos as v joined to their owner as u.
const ListColumns = `v.id, v.title, v.description, v.thumbnail_url, v.duration, v.views, v.is_published, v.created_at, u.id, u.username, u.avatar_url`

func scanVideo(row pgx.Row, extra ...any) (Video, error) {
	var v Video
	var createdAt, updatedAt time.Time
	dest := []any{
		&v.ID, &v.Title, &v.Description, &v.VideoFile, &v.Thumbnail, &v.Duration, &v.Views, &v.IsPublished,
		&createdAt, &updatedAt, &v.Owner.ID, &v.Owner.Username, &v.Owner.FullName, &v.Owner.Avatar,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return Video{}, err
	}
	v.CreatedAt = formatTime(createdAt)
	v.UpdatedAt = formatTime(updatedAt)
	return v, nil
}

func scanListVideo(row pgx.Row, extra ...any) (Video, error) {
	var v Video
	var createdAt time.Time
	dest := []any{
		&v.ID, &v.Title, &v.Description, &v.Thumbnail, &v.Duration, &v.Views, &v.IsPublished,
		&createdAt, &v.Owner.ID, &v.Owner.Username, &v.Owner.Avatar,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return Video{}, err
	}
	v.CreatedAt = formatTime(createdAt)
	return v, nil
}

// CollectListVideos drains rows selected with ListColumns.
func CollectListVideos(rows pgx.Rows) ([]Video, error) {
	defer rows.Close()
	videos := []Video{}
	for rows.Next() {
		v, err := scanListVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

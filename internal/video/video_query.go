package video

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/vidtube/vidtube/internal/auth"
	"github.com/vidtube/vidtube/internal/httputil"
	"github.com/vidtube/vidtube/internal/validate"
)

var sortColumns = map[string]string{
	"createdAt": "v.created_at",
	"views":     "v.views",
	"duration":  "v.duration",
	"title":     "v.title",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type videoPage struct {
	Videos      []Video `json:"videos"`
	Page        int     `json:"page"`
	TotalPages  int     `json:"totalPages"`
	TotalVideos int64   `json:"totalVideos"`
}

// orderClause turns sortBy/sortType into a safe ORDER BY expression.
func orderClause(sortBy, sortType string) string {
	column, ok := sortColumns[sortBy]
	if !ok {
		column = sortColumns["createdAt"]
	}
	direction := "DESC"
	if strings.EqualFold(sortType, "asc") {
		direction = "ASC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, v.id", column, direction)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) error {
	query := r.URL.Query()
	ownerID := query.Get("userId")
	if ownerID == "" {
		return httputil.BadRequest("userId is required")
	}
	if !validate.ID(ownerID) {
		return httputil.BadRequest("Invalid userId")
	}

	exists, err := h.userExists(r.Context(), ownerID)
	if err != nil {
		return httputil.Internal("failed to fetch user", err)
	}
	if !exists {
		return httputil.NotFound("User not found")
	}

	page := httputil.ParsePage(r)
	requester := auth.UserIDFromContext(r.Context())

	from := `
	 FROM videos v JOIN users u ON u.id = v.owner_id
	 WHERE v.owner_id = $1`
	args := []any{ownerID}
	paramIdx := 2

	if requester != ownerID {
		from += ` AND v.is_published = true`
	}
	if search := strings.TrimSpace(query.Get("query")); search != "" {
		from += fmt.Sprintf(` AND v.title ILIKE $%d`, paramIdx)
		args = append(args, "%"+likeEscaper.Replace(search)+"%")
		paramIdx++
	}
	sql := `SELECT ` + ListColumns + `, COUNT(*) OVER()` + from
	sql += orderClause(query.Get("sortBy"), query.Get("sortType"))
	sql += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, paramIdx, paramIdx+1)
	pageArgs := append(append([]any{}, args...), page.Limit, page.Offset())

	rows, err := h.db.Query(r.Context(), sql, pageArgs...)
	if err != nil {
		return httputil.Internal("failed to list videos", err)
	}
	defer rows.Close()

	result := videoPage{Videos: []Video{}, Page: page.Page}
	for rows.Next() {
		v, err := scanListVideo(rows, &result.TotalVideos)
		if err != nil {
			return httputil.Internal("failed to scan video", err)
		}
		result.Videos = append(result.Videos, v)
	}
	if err := rows.Err(); err != nil {
		return httputil.Internal("failed to list videos", err)
	}

	// The window count is empty past the last page.
	if len(result.Videos) == 0 && page.Page > 1 {
		if err := h.db.QueryRow(r.Context(), `SELECT COUNT(*)`+from, args...).Scan(&result.TotalVideos); err != nil {
			return httputil.Internal("failed to count videos", err)
		}
	}
	result.TotalPages = httputil.TotalPages(result.TotalVideos, page.Limit)

	httputil.WriteData(w, http.StatusOK, result, "Videos fetched successfully")
	return nil
}

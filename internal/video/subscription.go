package video

import (
	"net/http"
	"time"

	"github.com/vidtube/vidtube/internal/auth"
	"github.com/vidtube/vidtube/internal/database"
	"github.com/vidtube/vidtube/internal/httputil"
)

type Subscription struct {
	ID           string `json:"id"`
	SubscriberID string `json:"subscriber"`
	ChannelID    string `json:"channel"`
	CreatedAt    string `json:"createdAt"`
}

type Subscriber struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	FullName     string `json:"fullName"`
	Avatar       string `json:"avatar"`
	SubscribedAt string `json:"subscribedAt"`
}

type LatestVideo struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
	CreatedAt string `json:"createdAt"`
}

type Channel struct {
	Subscriber
	LatestVideo *LatestVideo `json:"latestVideo,omitempty"`
}

type subscribersResponse struct {
	Subscribers      []Subscriber `json:"subscribers"`
	SubscribersCount int          `json:"subscribersCount"`
}

type channelsResponse struct {
	Channels      []Channel `json:"channels"`
	ChannelsCount int       `json:"channelsCount"`
}

func (h *Handler) ToggleSubscription(w http.ResponseWriter, r *http.Request) error {
	userID := auth.UserIDFromContext(r.Context())
	channelID, err := pathID(r, "channelId")
	if err != nil {
		return err
	}
	if channelID == userID {
		return httputil.BadRequest("You cannot subscribe to your own channel")
	}

	exists, err := h.userExists(r.Context(), channelID)
	if err != nil {
		return httputil.Internal("failed to fetch channel", err)
	}
	if !exists {
		return httputil.NotFound("Channel not found")
	}

	tag, err := h.db.Exec(r.Context(),
		`DELETE FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2`,
		userID, channelID,
	)
	if err != nil {
		return httputil.Internal("failed to toggle subscription", err)
	}
	if tag.RowsAffected() > 0 {
		httputil.WriteData(w, http.StatusOK, httputil.Empty, "Unsubscribed successfully")
		return nil
	}

	sub := Subscription{SubscriberID: userID, ChannelID: channelID}
	var createdAt time.Time
	err = h.db.QueryRow(r.Context(),
		`INSERT INTO subscriptions (subscriber_id, channel_id) VALUES ($1, $2) RETURNING id, created_at`,
		userID, channelID,
	).Scan(&sub.ID, &createdAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return httputil.Conflict("Already subscribed to this channel")
		}
		return httputil.Internal("failed to toggle subscription", err)
	}
	sub.CreatedAt = formatTime(createdAt)

	httputil.WriteData(w, http.StatusOK, sub, "Subscribed successfully")
	return nil
}

func (h *Handler) ChannelSubscribers(w http.ResponseWriter, r *http.Request) error {
	channelID, err := pathID(r, "channelId")
	if err != nil {
		return err
	}
	exists, err := h.userExists(r.Context(), channelID)
	if err != nil {
		return httputil.Internal("failed to fetch channel", err)
	}
	if !exists {
		return httputil.NotFound("Channel not found")
	}

	rows, err := h.db.Query(r.Context(),
		`SELECT u.id, u.username, u.full_name, u.avatar_url, s.created_at
		 FROM subscriptions s JOIN users u ON u.id = s.subscriber_id
		 WHERE s.channel_id = $1
		 ORDER BY s.created_at DESC`,
		channelID,
	)
	if err != nil {
		return httputil.Internal("failed to fetch subscribers", err)
	}
	defer rows.Close()

	result := subscribersResponse{Subscribers: []Subscriber{}}
	for rows.Next() {
		var s Subscriber
		var subscribedAt time.Time
		if err := rows.Scan(&s.ID, &s.Username, &s.FullName, &s.Avatar, &subscribedAt); err != nil {
			return httputil.Internal("failed to scan subscriber", err)
		}
		s.SubscribedAt = formatTime(subscribedAt)
		result.Subscribers = append(result.Subscribers, s)
	}
	if err := rows.Err(); err != nil {
		return httputil.Internal("failed to fetch subscribers", err)
	}
	result.SubscribersCount = len(result.Subscribers)

	httputil.WriteData(w, http.StatusOK, result, "Subscribers fetched successfully")
	return nil
}

func (h *Handler) SubscribedChannels(w http.ResponseWriter, r *http.Request) error {
	subscriberID, err := pathID(r, "subscriberId")
	if err != nil {
		return err
	}
	exists, err := h.userExists(r.Context(), subscriberID)
	if err != nil {
		return httputil.Internal("failed to fetch subscriber", err)
	}
	if !exists {
		return httputil.NotFound("Subscriber not found")
	}

	rows, err := h.db.Query(r.Context(),
		`SELECT u.id, u.username, u.full_name, u.avatar_url, s.created_at,
		        lv.id, lv.title, lv.thumbnail_url, lv.created_at
		 FROM subscriptions s
		 JOIN users u ON u.id = s.channel_id
		 LEFT JOIN LATERAL (
		     SELECT id, title, thumbnail_url, created_at FROM videos
		     WHERE owner_id = u.id AND is_published
		     ORDER BY created_at DESC LIMIT 1
		 ) lv ON true
		 WHERE s.subscriber_id = $1
		 ORDER BY s.created_at DESC`,
		subscriberID,
	)
	if err != nil {
		return httputil.Internal("failed to fetch subscribed channels", err)
	}
	defer rows.Close()

	result := channelsResponse{Channels: []Channel{}}
	for rows.Next() {
		var c Channel
		var subscribedAt time.Time
		var videoID, videoTitle, videoThumbnail *string
		var videoCreatedAt *time.Time
		if err := rows.Scan(&c.ID, &c.Username, &c.FullName, &c.Avatar, &subscribedAt,
			&videoID, &videoTitle, &videoThumbnail, &videoCreatedAt); err != nil {
			return httputil.Internal("failed to scan channel", err)
		}
		c.SubscribedAt = formatTime(subscribedAt)
		if videoID != nil && videoTitle != nil && videoThumbnail != nil && videoCreatedAt != nil {
			c.LatestVideo = &LatestVideo{
				ID:        *videoID,
				Title:     *videoTitle,
				Thumbnail: *videoThumbnail,
				CreatedAt: formatTime(*videoCreatedAt),
			}
		}
		result.Channels = append(result.Channels, c)
	}
	if err := rows.Err(); err != nil {
		return httputil.Internal("failed to fetch subscribed channels", err)
	}
	result.ChannelsCount = len(result.Channels)

	httputil.WriteData(w, http.StatusOK, result, "Subscribed channels fetched successfully")
	return nil
}

package domain

// Comment is a viewer comment awaiting or past moderation
type Comment struct {
	ID         string `json:"id"`
	VideoID    string `json:"videoId"`
	UserID     string `json:"userId"`
	UserName   string `json:"userName"`
	Text       string `json:"content"`
	IsApproved bool   `json:"approved"`
	CreatedAt  int64  `json:"createdAt"`
}

// WatchlistEntry is a title saved by a profile
type WatchlistEntry struct {
	ID          string      `json:"id"`
	UserID      string      `json:"userId"`
	ProfileID   string      `json:"profileId"`
	ContentID   string      `json:"contentId"`
	ContentType ContentType `json:"contentType"`
	AddedAt     int64       `json:"addedAt"`
}

// Analytics are the dashboard totals
type Analytics struct {
	TotalMovies     int   `json:"totalMovies"`
	TotalSeries     int   `json:"totalSeries"`
	TotalViews      int64 `json:"totalViews"`
	TotalUsers      int   `json:"totalUsers"`
	PendingComments int   `json:"pendingComments"`
}

package dto

type NotificationResponse struct {
	ID        string `json:"id"`
	Message   string `json:"message"`
	URL       string `json:"url"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

type NotificationListResponse struct {
	Unread int64                  `json:"unread"`
	Items  []NotificationResponse `json:"items"`
}

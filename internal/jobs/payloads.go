package jobs

// ShareNotificationPayload identifies the share the worker should
// deliver. Keep payloads minimal and ID-based; the worker loads the
// record, the sender and their tasks from the DB.
type ShareNotificationPayload struct {
	ShareID   int64  `json:"shareId"`
	UserID    int64  `json:"userId"`
	RequestID string `json:"requestId,omitempty"` // correlation
}

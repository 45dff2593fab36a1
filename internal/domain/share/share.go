package share

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("share record not found")

// ShareRecord is a one-way notification event: the sender's schedule
// summary was emailed to ToEmail. It grants no access and is never
// mutated or deleted through the API.
type ShareRecord struct {
	ID         int64     `json:"id"`
	FromUserID int64     `json:"fromUserId"`
	ToEmail    string    `json:"toEmail"`
	Message    string    `json:"message,omitempty"`
	SharedAt   time.Time `json:"sharedAt"`
}

type CreateShareRequest struct {
	Email   string `json:"email" binding:"required,email"`
	Message string `json:"message" binding:"omitempty,max=500"`
}

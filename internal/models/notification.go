package models

import "time"

// NotificationTitleExpiring labels expiry warnings. The expiry scan keys its
// duplicate check on (mou_id, title), so the value must stay stable.
const NotificationTitleExpiring = "MOU Expiring Soon"

// Notification is an in-app message owned by a single user.
type Notification struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	MOUID     string    `db:"mou_id" json:"mou_id"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	Read      bool      `db:"read" json:"read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

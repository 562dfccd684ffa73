package model

import "time"

type List struct {
	ID         int64     `json:"id"`
	OwnerEmail *string   `json:"owner_email"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
}

// OwnedBy reports whether the list belongs to the given email.
func (l *List) OwnedBy(email string) bool {
	return l.OwnerEmail != nil && email != "" && *l.OwnerEmail == email
}

type Item struct {
	ID        int64     `json:"id"`
	ListID    int64     `json:"list_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

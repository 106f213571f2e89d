package sport

import "time"

type Sport struct {
	ID        int       `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type CreateSportRequest struct {
	Name string `json:"name" binding:"required"`
}

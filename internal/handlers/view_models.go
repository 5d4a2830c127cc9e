package handlers

import (
	"time"

	"authgate/internal/models"
)

// UserView is the public JSON form of a user. Credentials never leave the
// server.
type UserView struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FirstName *string   `json:"first_name"`
	LastName  *string   `json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newUserView(u *models.User) UserView {
	return UserView{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func newUserViews(users []models.User) []UserView {
	views := make([]UserView, 0, len(users))
	for i := range users {
		views = append(views, newUserView(&users[i]))
	}
	return views
}

type messageResponse struct {
	Email   string `json:"email,omitempty"`
	Message string `json:"message"`
}

type emailResponse struct {
	Email string `json:"email"`
}

type resetTokenResponse struct {
	Email      string `json:"email"`
	ResetToken string `json:"reset_token"`
}

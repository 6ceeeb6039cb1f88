package rooms

import "time"

// createRoomRequest represents the request to create a new canvas room
type createRoomRequest struct {
	Name      string `json:"name"`
	IsPrivate bool   `json:"isPrivate"`
	Password  string `json:"password"`
	UserID    string `json:"userId"`
}

// memberResponse represents one connected member
type memberResponse struct {
	Username string    `json:"username"`
	JoinedAt time.Time `json:"joinedAt"`
}

// roomResponse represents detailed room information
type roomResponse struct {
	RoomID    string           `json:"roomId"`
	Name      string           `json:"name"`
	IsPrivate bool             `json:"isPrivate"`
	CreatedBy string           `json:"createdBy"`
	Users     []memberResponse `json:"users"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// roomSummary is one row of the public room directory
type roomSummary struct {
	RoomID    string           `json:"roomId"`
	Name      string           `json:"name"`
	Users     []memberResponse `json:"users"`
	CreatedAt time.Time        `json:"createdAt"`
}

package models

// Studio is the tenant boundary.
type Studio struct {
	Meta
	Name string `json:"name"`
}

type User struct {
	Meta
	StudioID    string `json:"studioId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        Role   `json:"role"`
}

// CurrentUser is the opaque caller identity supplied by the session layer.
type CurrentUser struct {
	ID          string
	StudioID    string
	Role        Role
	DisplayName string
}

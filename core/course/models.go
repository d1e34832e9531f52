package course

import "time"

// Enrollment roles
const (
	RoleStudent = "student"
	RoleParent  = "parent"
)

type Course struct {
	ID        int64  `json:"id"`
	ShortName string `json:"shortname"`
	FullName  string `json:"fullname"`
	Visible   bool   `json:"visible"`
}

// Enrollment is the membership of a user in a course under a role.
type Enrollment struct {
	UserID    int64     `json:"user_id"`
	CourseID  int64     `json:"course_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

package user

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Roles
const (
	// Admin
	RoleAdmin        = "admin:"
	RoleAdminManager = "admin:manager"
)

// Capabilities
const (
	CapUserCreate           = "user:create"
	CapManagePartnerships   = "equipment:managepartnerships"
	CapManageAgreements     = "equipment:manageagreements"
	CapManageVCCSubmissions = "equipment:managevccsubmissions"
)

const (
	RelationRoleParent = "parent"
	AuthManual         = "manual"
)

var (
	AdminRoles = []string{RoleAdmin, RoleAdminManager}
	AllRoles   = AdminRoles

	roleCapabilities = map[string][]string{
		RoleAdmin:        {CapUserCreate, CapManagePartnerships, CapManageAgreements, CapManageVCCSubmissions},
		RoleAdminManager: {CapManagePartnerships, CapManageVCCSubmissions},
	}
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"firstname"`
	MiddleName   string    `json:"middlename"`
	LastName     string    `json:"lastname"`
	Phone        string    `json:"phone"`
	Lang         string    `json:"lang"`
	Auth         string    `json:"auth"`
	Confirmed    bool      `json:"confirmed"`
	Roles        []string  `json:"roles"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) RoleStartsWith(prefix string) bool {
	for _, role := range u.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.RoleStartsWith(RoleAdmin)
}

// Can reports whether one of the user's roles grants `capability`.
func (u *User) Can(capability string) bool {
	for _, role := range u.Roles {
		for _, c := range roleCapabilities[role] {
			if c == capability {
				return true
			}
		}
	}
	return false
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	FirstName  string   `json:"firstname" validate:"required,notblank"`
	MiddleName string   `json:"middlename"`
	LastName   string   `json:"lastname" validate:"required,notblank"`
	Username   string   `json:"username" validate:"omitempty,username"`
	Email      string   `json:"email" validate:"omitempty,email"`
	Phone      string   `json:"phone"`
	Lang       string   `json:"lang"`
	Password   string   `json:"password" validate:"required"`
	Roles      []string `json:"roles" validate:"omitempty,allroles"`
}

// Relation links a parent account to a student account.
type Relation struct {
	ParentID  int64     `json:"parent_id"`
	StudentID int64     `json:"student_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// GetFilter selects a single User; the first non-zero field wins.
type GetFilter struct {
	ID              int64
	Username        string
	Email           string
	UsernameOrEmail string
}

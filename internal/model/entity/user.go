package entity

import "time"

// User 系统用户
type User struct {
	ID           string     `json:"id" gorm:"primaryKey;size:32"`
	Email        string     `json:"email" gorm:"size:255;not null;uniqueIndex"`
	PasswordHash string     `json:"-" gorm:"size:255;not null"`
	FirstName    string     `json:"first_name" gorm:"size:100;not null"`
	LastName     string     `json:"last_name" gorm:"size:100;not null"`
	Role         string     `json:"role" gorm:"size:32;not null;default:viewer"`
	Department   string     `json:"department" gorm:"size:100"`
	Phone        string     `json:"phone" gorm:"size:32"`
	IsActive     bool       `json:"is_active" gorm:"not null;default:true"`
	LastLogin    *time.Time `json:"last_login"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// FullName 用户全名
func (u *User) FullName() string {
	if u == nil {
		return ""
	}
	return u.FirstName + " " + u.LastName
}

// 用户角色
const (
	RoleAdmin           = "admin"
	RoleLabManager      = "lab_manager"
	RoleQualityEngineer = "quality_engineer"
	RoleTechnician      = "technician"
	RoleViewer          = "viewer"
)

// Customer 委托客户
type Customer struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	CompanyName string    `json:"company_name" gorm:"size:200;not null"`
	ContactName string    `json:"contact_name" gorm:"size:100"`
	Email       string    `json:"email" gorm:"size:255"`
	Phone       string    `json:"phone" gorm:"size:32"`
	Address     string    `json:"address" gorm:"size:500"`
	Country     string    `json:"country" gorm:"size:100"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Customer) TableName() string {
	return "customers"
}

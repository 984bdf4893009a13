package models

import "time"

// Роли админского API.
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleStaff      = "staff"
)

// User — минимальная запись администратора: нужна для резолюции
// алертов и аудита настроек. Выпуск токенов — вне этого сервиса.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Email    string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	FullName string `gorm:"size:255" json:"full_name"`
	Role     string `gorm:"size:32;not null" json:"role"`
	IsActive bool   `gorm:"default:true" json:"is_active"`
}

package authorization

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	GuardWeb      = "web"
	ModelTypeUser = "user"

	RoleAdmin    = "Admin"
	RoleOwner    = "Owner"
	RoleStaff    = "staff"
	RoleCustomer = "Customer"
)

type Role struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"type:varchar(128);not null;uniqueIndex:ux_roles_name_guard,priority:1" json:"name"`
	GuardName   string       `gorm:"type:varchar(32);not null;uniqueIndex:ux_roles_name_guard,priority:2" json:"guard_name"`
	Description string       `gorm:"type:text" json:"description"`
	IsActive    bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (Role) TableName() string { return "roles" }

type Permission struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"type:varchar(128);not null;uniqueIndex:ux_permissions_name_guard,priority:1" json:"name"`
	GuardName string       `gorm:"type:varchar(32);not null;uniqueIndex:ux_permissions_name_guard,priority:2" json:"guard_name"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (Permission) TableName() string { return "permissions" }

type RoleHasPermission struct {
	PermissionID snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
	RoleID       snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
}

func (RoleHasPermission) TableName() string { return "role_has_permissions" }

type ModelHasRole struct {
	RoleID    snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
	ModelType string       `gorm:"primaryKey;type:varchar(64)"`
	ModelID   snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
}

func (ModelHasRole) TableName() string { return "model_has_roles" }

type ModelHasPermission struct {
	PermissionID snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
	ModelType    string       `gorm:"primaryKey;type:varchar(64)"`
	ModelID      snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
}

func (ModelHasPermission) TableName() string { return "model_has_permissions" }

// Models lists the permission tables for tenant schema migration.
func Models() []any {
	return []any{
		&Role{},
		&Permission{},
		&RoleHasPermission{},
		&ModelHasRole{},
		&ModelHasPermission{},
	}
}

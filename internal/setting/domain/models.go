// Package domain holds the platform-level settings kept in the central
// database.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// GeneralSetting is the superadmin configuration. The latest row wins.
type GeneralSetting struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	SiteTitle       string       `gorm:"type:varchar(255)" json:"site_title"`
	SiteLogo        string       `gorm:"type:varchar(255)" json:"site_logo"`
	Currency        string       `gorm:"type:varchar(16)" json:"currency"`
	FreeTrialLimit  int          `gorm:"not null;default:0" json:"free_trial_limit"`
	DevelopedBy     string       `gorm:"type:varchar(255)" json:"developed_by"`
	StorageProvider string       `gorm:"type:varchar(32)" json:"storage_provider"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

func (GeneralSetting) TableName() string { return "general_settings" }

type MailSetting struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	Driver      string       `gorm:"type:varchar(16)" json:"driver"`
	Host        string       `gorm:"type:varchar(255)" json:"host"`
	Port        int          `json:"port"`
	Username    string       `gorm:"type:varchar(255)" json:"username"`
	Password    string       `gorm:"type:varchar(255)" json:"password"`
	Encryption  string       `gorm:"type:varchar(16)" json:"encryption"`
	FromAddress string       `gorm:"type:varchar(255)" json:"from_address"`
	FromName    string       `gorm:"type:varchar(255)" json:"from_name"`
	APIKey      string       `gorm:"type:varchar(255)" json:"api_key"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (MailSetting) TableName() string { return "mail_settings" }

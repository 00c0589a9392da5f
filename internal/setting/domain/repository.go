package domain

import (
	"context"
	"errors"
)

var (
	ErrGeneralSettingMissing = errors.New("general_setting_missing")
	ErrMailSettingMissing    = errors.New("mail_setting_missing")
)

type Repository interface {
	LatestGeneralSetting(ctx context.Context) (*GeneralSetting, error)
	LatestMailSetting(ctx context.Context) (*MailSetting, error)
}

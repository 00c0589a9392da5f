package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	ServerTypeCPanel = "cpanel"
	ServerTypePlesk  = "plesk"
)

// ProvisioningConfig drives tenant provisioning and imports. It is reloaded
// from provisioning.yml without a restart.
type ProvisioningConfig struct {
	CentralDomain     string `mapstructure:"centralDomain"`
	WildcardSubdomain bool   `mapstructure:"wildcardSubdomain"`
	DefaultTrialDays  int    `mapstructure:"defaultTrialDays"`
	CentralPublicDir  string `mapstructure:"centralPublicDir"`
	TenantPublicDir   string `mapstructure:"tenantPublicDir"`
	ServerType        string `mapstructure:"serverType"`
	SubdomainDir      string `mapstructure:"subdomainDir"`
	ImportChunkSize   int    `mapstructure:"importChunkSize"`
	ImportMaxBytes    int64  `mapstructure:"importMaxBytes"`
	OutboxMaxAttempts int    `mapstructure:"outboxMaxAttempts"`
}

func DefaultProvisioningConfig() ProvisioningConfig {
	return ProvisioningConfig{
		CentralDomain:     "localhost",
		WildcardSubdomain: true,
		DefaultTrialDays:  14,
		CentralPublicDir:  "public",
		TenantPublicDir:   "public/tenants",
		ServerType:        ServerTypeCPanel,
		SubdomainDir:      "public_html",
		ImportChunkSize:   500,
		ImportMaxBytes:    10 << 20,
		OutboxMaxAttempts: 5,
	}
}

type ProvisioningHolder struct {
	current atomic.Value // holds ProvisioningConfig
}

// NewStaticProvisioningHolder wraps a fixed config, used by tests and the CLI.
func NewStaticProvisioningHolder(cfg ProvisioningConfig) *ProvisioningHolder {
	holder := &ProvisioningHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewProvisioningHolder() (*ProvisioningHolder, error) {
	v := viper.New()

	v.SetConfigName("provisioning")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/possaas")
	v.AddConfigPath(".")

	v.SetEnvPrefix("POSSAAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultProvisioningConfig()
	v.SetDefault("provisioning.centralDomain", defaults.CentralDomain)
	v.SetDefault("provisioning.wildcardSubdomain", defaults.WildcardSubdomain)
	v.SetDefault("provisioning.defaultTrialDays", defaults.DefaultTrialDays)
	v.SetDefault("provisioning.centralPublicDir", defaults.CentralPublicDir)
	v.SetDefault("provisioning.tenantPublicDir", defaults.TenantPublicDir)
	v.SetDefault("provisioning.serverType", defaults.ServerType)
	v.SetDefault("provisioning.subdomainDir", defaults.SubdomainDir)
	v.SetDefault("provisioning.importChunkSize", defaults.ImportChunkSize)
	v.SetDefault("provisioning.importMaxBytes", defaults.ImportMaxBytes)
	v.SetDefault("provisioning.outboxMaxAttempts", defaults.OutboxMaxAttempts)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	cfg, err := unmarshalProvisioning(v)
	if err != nil {
		return nil, err
	}
	if err := validateProvisioningConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticProvisioningHolder(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := unmarshalProvisioning(v)
		if err != nil {
			zap.L().Warn("provisioning config reload failed", zap.Error(err))
			return
		}
		if err := validateProvisioningConfig(updated); err != nil {
			zap.L().Warn("invalid provisioning config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		zap.L().Info("provisioning config reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

// unmarshalProvisioning decodes the merged settings so defaults fill keys
// the file leaves out.
func unmarshalProvisioning(v *viper.Viper) (ProvisioningConfig, error) {
	var wrapper struct {
		Provisioning ProvisioningConfig `mapstructure:"provisioning"`
	}
	if err := v.Unmarshal(&wrapper); err != nil {
		return ProvisioningConfig{}, err
	}
	return wrapper.Provisioning, nil
}

func (h *ProvisioningHolder) Get() ProvisioningConfig {
	return h.current.Load().(ProvisioningConfig)
}

func validateProvisioningConfig(cfg ProvisioningConfig) error {
	if strings.TrimSpace(cfg.CentralDomain) == "" {
		return errors.New("provisioning.centralDomain cannot be empty")
	}
	if cfg.DefaultTrialDays < 0 {
		return errors.New("provisioning.defaultTrialDays cannot be negative")
	}
	if cfg.ImportChunkSize <= 0 {
		return errors.New("provisioning.importChunkSize must be positive")
	}
	if cfg.ImportMaxBytes <= 0 {
		return errors.New("provisioning.importMaxBytes must be positive")
	}
	return nil
}

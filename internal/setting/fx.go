package setting

import (
	"github.com/smallbiznis/possaas/internal/setting/repository"
	"github.com/smallbiznis/possaas/internal/setting/service"
	"go.uber.org/fx"
)

var Module = fx.Module("setting.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)

package provisioning

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/possaas/internal/config"
	"github.com/smallbiznis/possaas/internal/provisioning/event"
	"github.com/smallbiznis/possaas/internal/provisioning/service"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("provisioning.service",
	fx.Provide(provideOutbox),
	fx.Provide(service.NewService),
)

func provideOutbox(db *gorm.DB, node *snowflake.Node, holder *config.ProvisioningHolder) *event.Outbox {
	return event.NewOutbox(db, node, holder.Get().OutboxMaxAttempts)
}

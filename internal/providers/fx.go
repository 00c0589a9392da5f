package providers

import (
	"github.com/smallbiznis/possaas/internal/providers/pdf"
	"go.uber.org/fx"
)

// Mail and storage backends are built per call from settings; only the
// document renderer is shared.
var Module = fx.Module("providers",
	fx.Provide(pdf.New),
)

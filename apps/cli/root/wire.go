package root

import (
	"github.com/vetcare-hq/vetcare-saas/apps/cli/cmd/bootstrap"
	"github.com/vetcare-hq/vetcare-saas/apps/cli/cmd/plans"
	"github.com/vetcare-hq/vetcare-saas/apps/cli/cmd/tenant"
)

func init() {
	Root().AddCommand(bootstrap.Command())
	Root().AddCommand(plans.Command())
	Root().AddCommand(tenant.Command())
}

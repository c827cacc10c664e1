package setup

import (
	"fmt"

	"github.com/LavaJover/marketplace-order-service/internal/usecase/dispute"
	"github.com/LavaJover/marketplace-order-service/internal/usecase/lifecycle"
)

type UseCases struct {
	Engine 		*lifecycle.DefaultEngine
	Disputes 	*dispute.DefaultManager
}

func InitializeUseCases(deps *Dependencies) (*UseCases, error) {
	cfg := deps.Config
	repos := deps.Repositories

	planner, err := dispute.NewDefaultCasePlanner(repos.DisputeRepo, deps.Payments, dispute.RefundPolicy{
		MinAmount: 	cfg.PartialRefund.MinAmount,
		MaxRatio: 	cfg.PartialRefund.MaxRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("case planner: %w", err)
	}

	engine := lifecycle.NewDefaultEngine(
		repos.OrderRepo,
		repos.AuditRepo,
		repos.ReviewRepo,
		planner,
		deps.Cache,
		deps.Metrics,
		lifecycle.Options{
			MaxAttempts: 	cfg.Lifecycle.MaxAttempts,
			StoreTimeout: 	cfg.Lifecycle.StoreTimeout,
			DisputeWindow: 	cfg.Lifecycle.DisputeWindow,
		},
	)

	return &UseCases{
		Engine: 	engine,
		Disputes: 	dispute.NewDefaultManager(engine, repos.DisputeRepo, repos.OrderRepo, cfg.Lifecycle.MaxAttempts),
	}, nil
}

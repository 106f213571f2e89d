package plan

import "context"

type PlanRepository interface {
	CreatePlan(ctx context.Context, req CreatePlanRequest) (*Plan, error)
	GetPlanByID(ctx context.Context, id int) (*Plan, error)
	ListPlans(ctx context.Context) ([]Plan, error)
	SetSportPrice(ctx context.Context, planID, sportID int, priceCents int64) (*SportPrice, error)
	GetSportPrices(ctx context.Context, planID int) (map[int]int64, error)
	CreatePackage(ctx context.Context, req CreatePackageRequest) (*Package, error)
	GetPackageByID(ctx context.Context, id int) (*Package, error)
	ListPackages(ctx context.Context) ([]Package, error)
}

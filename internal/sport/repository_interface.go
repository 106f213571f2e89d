package sport

import "context"

type SportRepository interface {
	CreateSport(ctx context.Context, name string) (*Sport, error)
	GetSportByID(ctx context.Context, id int) (*Sport, error)
	GetAllSports(ctx context.Context) ([]Sport, error)
}

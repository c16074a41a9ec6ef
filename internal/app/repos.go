package app

import (
	"gorm.io/gorm"

	"github.com/storelytic/storetwin-backend/internal/data/repos"
	"github.com/storelytic/storetwin-backend/internal/platform/logger"
)

type Repos struct {
	Store          repos.StoreRepo
	Zone           repos.ZoneRepo
	Furniture      repos.FurnitureRepo
	Product        repos.ProductRepo
	ShelfSlot      repos.ShelfSlotRepo
	Transaction    repos.TransactionRepo
	Transition     repos.TransitionRepo
	Visit          repos.VisitRepo
	Environment    repos.EnvironmentRepo
	Staff          repos.StaffRepo
	Parameter      repos.ParameterRepo
	Run            repos.RunRepo
	Recommendation repos.RecommendationRepo
	Outcome        repos.OutcomeRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Store:          repos.NewStoreRepo(db, log),
		Zone:           repos.NewZoneRepo(db, log),
		Furniture:      repos.NewFurnitureRepo(db, log),
		Product:        repos.NewProductRepo(db, log),
		ShelfSlot:      repos.NewShelfSlotRepo(db, log),
		Transaction:    repos.NewTransactionRepo(db, log),
		Transition:     repos.NewTransitionRepo(db, log),
		Visit:          repos.NewVisitRepo(db, log),
		Environment:    repos.NewEnvironmentRepo(db, log),
		Staff:          repos.NewStaffRepo(db, log),
		Parameter:      repos.NewParameterRepo(db, log),
		Run:            repos.NewRunRepo(db, log),
		Recommendation: repos.NewRecommendationRepo(db, log),
		Outcome:        repos.NewOutcomeRepo(db, log),
	}
}

package middleware

import (
	"cleanops/config"
	"cleanops/internal/database"
	"cleanops/internal/repositories"
	"cleanops/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

type Middleware struct {
	DB            database.DB
	Config        config.Config
	directoryRepo repositories.DirectoryRepository
	authService   *services.AuthService
	log           logger.Logger
}

func New(
	db database.DB,
	config config.Config,
	repos repositories.Repository,
	authService *services.AuthService,
) Middleware {
	return Middleware{
		DB:            db,
		Config:        config,
		directoryRepo: repos.Directory,
		authService:   authService,
		log:           logger.New("middleware"),
	}
}

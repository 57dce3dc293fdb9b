package main

import (
	"context"

	"github.com/cppla/aiblog/config"
	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/repository"
	"github.com/cppla/aiblog/routes"
	"github.com/cppla/aiblog/services"
	"github.com/cppla/aiblog/storage"
	"github.com/cppla/aiblog/utils"
)

func main() {
	cfg := config.Load()

	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer utils.Logger.Sync()

	utils.InitRedis(cfg)

	db := config.InitDatabase(
		&models.User{},
		&models.UserDeleteLog{},
		&models.Category{},
		&models.Post{},
		&models.PostCategory{},
		&models.VisitorLog{},
	)

	if len(cfg.AdminEmails) > 0 {
		manager := services.NewUserManager(repository.NewUserRepository(db), services.MailNotifier{})
		if err := manager.EnsureAdmins(context.Background(), cfg.AdminEmails); err != nil {
			utils.Sugar.Fatalf("bootstrap admins: %v", err)
		}
	}

	deps := routes.Deps{DB: db}

	geo, err := utils.OpenGeoIP(cfg.GeoIPDatabasePath)
	if err != nil {
		utils.Sugar.Warnf("geoip disabled: %v", err)
	} else {
		defer geo.Close()
	}
	deps.Geo = geo

	store, err := storage.New(cfg)
	if err != nil {
		utils.Sugar.Fatalf("object storage: %v", err)
	}
	if store != nil {
		deps.Storage = store
	} else {
		utils.Sugar.Warn("object storage not configured, image uploads disabled")
	}

	r := routes.SetupRouter(deps)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}

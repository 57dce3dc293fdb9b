// Command migrate_categories copies each post's legacy single category into
// its ordered category list. It is safe to run more than once.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/cppla/aiblog/config"
	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/repository"
	"github.com/cppla/aiblog/services"
	"github.com/cppla/aiblog/utils"
)

func main() {
	batch := flag.Int("batch", 500, "posts per batch")
	flag.Parse()

	cfg := config.Load()
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer utils.Logger.Sync()

	db := config.InitDatabase(&models.Post{}, &models.PostCategory{})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	posts := services.NewPostService(repository.NewPostRepository(db), repository.NewCategoryRepository(db), repository.NewUserRepository(db))
	n, err := posts.MigrateLegacyCategories(ctx, *batch)
	if err != nil {
		utils.Sugar.Fatalf("category migration stopped after %d posts: %v", n, err)
	}
	utils.Sugar.Infow("category migration finished", "migrated", n)
}

package main

import (
	"log"

	"github.com/Nehimi/myBlog/config"
	"github.com/Nehimi/myBlog/routes"
	"github.com/Nehimi/myBlog/utils"
)

func main() {
	cfg := config.Load()

	if err := utils.InitLogger(cfg); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	db := config.InitDatabase()

	router := routes.NewRouter(db)

	utils.Sugar.Infof("listening on :%s", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, router); err != nil {
		utils.Sugar.Fatalf("server error: %v", err)
	}
}

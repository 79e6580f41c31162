package main

import (
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/DenisKurek/memoract/internal/config"
	"github.com/DenisKurek/memoract/internal/serverapp"
)

func main() {
	// .env is optional; real environment wins over file values.
	_ = godotenv.Load()

	configPath := os.Getenv("MEMORACT_CONFIG")
	if configPath == "" {
		configPath = "memoract.yml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	app, err := serverapp.New(serverapp.Options{
		Config: cfg,
		Logger: log.Default(),
	})
	if err != nil {
		log.Fatalf("build server: %v", err)
	}

	log.Printf("memoract listening on %s", cfg.Server.Addr)
	log.Fatal(http.ListenAndServe(cfg.Server.Addr, app.Handler))
}

package main

import (
	"fmt"
	"log"
	"os"

	"deskpulserest/internal/config"
	"deskpulserest/internal/middleware"
	"deskpulserest/internal/routes"
	"deskpulserest/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// @title           DeskPulse API
// @version         1.0
// @description     Service-desk KPI reporting over a case-management backend.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {

	envPath := "/app/.env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		envPath = "../../.env"
	}
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Error creating config: %v", err)
	}
	defer cfg.CloseAll()

	cfg.Logger.Info(fmt.Sprintf("Starting server with execution ID %s", cfg.Logger.ExecutionID))

	engine := middleware.SetupServer(cfg)

	routes.InitiateRoutes(engine, cfg)

	startServer(engine)
}

func startServer(engine *gin.Engine) {
	addr := ":" + utils.GetPort()

	certFile, keyFile := utils.GetCertFiles()
	if certFile != "" && keyFile != "" {
		log.Println("Starting server with TLS...")
		if err := engine.RunTLS(addr, certFile, keyFile); err != nil {
			log.Fatalf("Error starting TLS server: %v", err)
		}
	} else {
		log.Println("Starting server...")
		if err := engine.Run(addr); err != nil {
			log.Fatalf("Error starting server: %v", err)
		}
	}
}

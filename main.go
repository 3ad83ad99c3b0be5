package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"fastpath/internal/config"
	"fastpath/internal/middleware"
	"fastpath/internal/routes"
	"fastpath/internal/services"

	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// Detect what the host supports before anything touches a patch site
	profile, err := services.InitProfile(services.HostSource{})
	if err != nil {
		log.Fatalf("capability probe: %v", err)
	}
	log.Printf("[PROBE] Detected %s (%s), features: %v", profile.TierName, profile.VendorTag, profile.Features.Names())

	services.InitAuthService(cfg.Auth.SecretKey, cfg.TokenExpiry())

	opt, err := services.InitOptimizer(
		cfg.Patch.MaxSiteBytes,
		cfg.PhaseCeiling(),
		cfg.Validation.OutlierFraction,
		cfg.Validation.MinImprovementPercent,
	)
	if err != nil {
		log.Fatalf("optimizer: %v", err)
	}

	// Patch every site the profile supports before serving traffic
	opt.Facade.WarmUp()

	services.InitWebSocketHub()
	services.StartQualificationRunner(opt.Harness, opt.Facade, cfg.Validation.Iterations, cfg.RequalifyInterval())

	r := gin.Default()
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middleware.RateLimitMiddleware(middleware.NewRateLimiter()))
	middleware.NewSecurityLogger()

	routes.RegisterPatchRoutes(r)
	routes.RegisterReportRoutes(r)
	routes.RegisterAuthRoutes(r, middleware.NewTokenRateLimiter())

	// Roll everything back to baseline on shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Println("Shutting down, restoring baselines")
		services.StopWebSocketHub()
		services.ShutdownOptimizer()
		os.Exit(0)
	}()

	if err := r.Run(cfg.Listen); err != nil {
		log.Fatalf("server: %v", err)
	}
}

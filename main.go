package main

import (
	"context"
	"time"

	"github.com/shandysiswandi/safex/internal/app"
)

const shutdownTimeout = 10 * time.Second

// @title           SafeX API
// @version         1.0
// @description     SafeX local second-factor service: one-time codes delivered over WhatsApp.
// @license.name    MIT
// @license.url     https://mit-license.org/
// @server          http://localhost:8080
// @BasePath        /api/auth
// @securityDefinitions.apikey  BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT.
func main() {
	a := app.New()
	<-a.Start()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.Stop(ctx)
}

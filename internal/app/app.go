package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/safex/internal/mfa/outbound/memory"
	"github.com/shandysiswandi/safex/internal/pkg/clock"
	"github.com/shandysiswandi/safex/internal/pkg/config"
	"github.com/shandysiswandi/safex/internal/pkg/goroutine"
	"github.com/shandysiswandi/safex/internal/pkg/hash"
	"github.com/shandysiswandi/safex/internal/pkg/idempotency"
	"github.com/shandysiswandi/safex/internal/pkg/instrument"
	"github.com/shandysiswandi/safex/internal/pkg/jwt"
	"github.com/shandysiswandi/safex/internal/pkg/messaging"
	"github.com/shandysiswandi/safex/internal/pkg/otp"
	"github.com/shandysiswandi/safex/internal/pkg/router"
	"github.com/shandysiswandi/safex/internal/pkg/uid"
	"github.com/shandysiswandi/safex/internal/pkg/validator"
	"github.com/shandysiswandi/safex/internal/pkg/whatsapp"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hmac      hash.Hash
	uuid      uid.StringID
	otp       otp.Generator
	jwt       jwt.JWT

	// resources
	dbConn     *pgxpool.Pool
	cacheConn  *redis.Client
	idemp      idempotency.Idempotency
	messaging  messaging.Messaging
	whatsapp   whatsapp.Sender
	challenges *memory.Store

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initMessaging()
	app.initDelivery()
	app.initChallengeStore()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}

// Package server wires the HTTP surface of spec §6: one gin.Engine route
// group per concern, grounded on internal/server/server.go in
// smallbiznis-valora (fx.In ServerParams aggregating every domain service,
// lifecycle-hooked http.Server, route-group-per-concern registration),
// retargeted from organization/subscription billing routes to the
// identity/catalog/ledger/order/referral/customer surface this spec names.
package server

import (
	"context"
	"net"
	"net/http"
	"time"

	catalogdomain "github.com/railzway/billing/internal/catalog/domain"
	customerdomain "github.com/railzway/billing/internal/customer/domain"
	identitydomain "github.com/railzway/billing/internal/identity/domain"
	ledgerdomain "github.com/railzway/billing/internal/ledger/domain"
	"github.com/railzway/billing/internal/observability/logger"
	"github.com/railzway/billing/internal/observability/tracing"
	orderdomain "github.com/railzway/billing/internal/order/domain"
	referraldomain "github.com/railzway/billing/internal/referral/domain"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Config configures the HTTP surface.
type Config struct {
	Addr     string
	APIToken string
	ShowDocs bool
	APITitle string
}

// ServerParams aggregates every domain service the HTTP surface needs.
type ServerParams struct {
	fx.In

	Log      *zap.Logger
	DB       *gorm.DB
	Config   Config
	Identity identitydomain.Service
	Catalog  catalogdomain.Service
	Ledger   ledgerdomain.Service
	Order    orderdomain.Service
	Referral referraldomain.Service
	Customer customerdomain.Service
}

// Server bundles the gin.Engine with the services its handlers call.
type Server struct {
	log      *zap.Logger
	db       *gorm.DB
	cfg      Config
	identity identitydomain.Service
	catalog  catalogdomain.Service
	ledger   ledgerdomain.Service
	order    orderdomain.Service
	referral referraldomain.Service
	customer customerdomain.Service
}

// NewServer constructs the Server and its gin.Engine.
func NewServer(p ServerParams) (*Server, *gin.Engine) {
	s := &Server{
		log:      p.Log.Named("server"),
		db:       p.DB,
		cfg:      p.Config,
		identity: p.Identity,
		catalog:  p.Catalog,
		ledger:   p.Ledger,
		order:    p.Order,
		referral: p.Referral,
		customer: p.Customer,
	}

	engine := s.newEngine()
	return s, engine
}

func (s *Server) newEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(tracing.GinMiddleware())
	r.Use(logger.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if s.cfg.ShowDocs {
		r.GET("/openapi.json", s.handleOpenAPI)
	}

	auth := r.Group("/", s.AuthRequired())
	s.registerIdentityRoutes(auth)
	s.registerCatalogRoutes(auth)
	s.registerLedgerRoutes(auth)
	s.registerOrderRoutes(auth)
	s.registerReferralRoutes(auth)
	s.registerCustomerRoutes(auth)
	s.registerAdminRoutes(auth)

	return r
}

func (s *Server) handleOpenAPI(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"openapi": "3.0.3",
		"info": gin.H{
			"title":   s.cfg.APITitle,
			"version": "1.0.0",
		},
	})
}

// run registers the http.Server's graceful start/stop against fx's
// lifecycle, grounded on the teacher's own run(lc fx.Lifecycle, r
// *gin.Engine) pattern in internal/server/server.go.
func run(lc fx.Lifecycle, log *zap.Logger, cfg Config, engine *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", cfg.Addr)
			if err != nil {
				return err
			}
			go func() {
				if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.Addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/orderbill/internal/billingreport"
	billingreportdomain "github.com/smallbiznis/orderbill/internal/billingreport/domain"
	"github.com/smallbiznis/orderbill/internal/calculator"
	"github.com/smallbiznis/orderbill/internal/config"
	"github.com/smallbiznis/orderbill/internal/customer"
	customerdomain "github.com/smallbiznis/orderbill/internal/customer/domain"
	"github.com/smallbiznis/orderbill/internal/customerservice"
	csdomain "github.com/smallbiznis/orderbill/internal/customerservice/domain"
	"github.com/smallbiznis/orderbill/internal/observability"
	obsmiddleware "github.com/smallbiznis/orderbill/internal/observability/logger"
	obstracing "github.com/smallbiznis/orderbill/internal/observability/tracing"
	"github.com/smallbiznis/orderbill/internal/order"
	"github.com/smallbiznis/orderbill/internal/product"
	productdomain "github.com/smallbiznis/orderbill/internal/product/domain"
	"github.com/smallbiznis/orderbill/internal/rule"
	ruledomain "github.com/smallbiznis/orderbill/internal/rule/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Services groups the domain modules the HTTP server and the CLI share.
var Services = fx.Options(
	observability.Module,
	customer.Module,
	product.Module,
	order.Module,
	customerservice.Module,
	rule.Module,
	calculator.Module,
	billingreport.Module,
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(log, classifyErrorForLog))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(cfg config.Config, log *zap.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(log)
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine             *gin.Engine
	customerSvc        customerdomain.Service
	productSvc         productdomain.Service
	customerServiceSvc csdomain.Manager
	ruleSvc            ruledomain.Service
	reportSvc          billingreportdomain.Service
}

type ServerParams struct {
	fx.In

	Gin                *gin.Engine
	CustomerSvc        customerdomain.Service
	ProductSvc         productdomain.Service
	CustomerServiceSvc csdomain.Manager
	RuleSvc            ruledomain.Service
	ReportSvc          billingreportdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:             p.Gin,
		customerSvc:        p.CustomerSvc,
		productSvc:         p.ProductSvc,
		customerServiceSvc: p.CustomerServiceSvc,
		ruleSvc:            p.RuleSvc,
		reportSvc:          p.ReportSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Customers --------
	api.GET("/customers", s.ListCustomers)
	api.POST("/customers", s.CreateCustomer)
	api.GET("/customers/:id", s.GetCustomerByID)
	api.GET("/customers/:id/services", s.ListCustomerServices)
	api.GET("/customers/:id/reports", s.ListCustomerReports)

	// -------- Catalog --------
	api.POST("/products", s.CreateProduct)
	api.POST("/services", s.CreateService)

	// -------- Pricing --------
	api.POST("/customer-services", s.CreateCustomerService)
	api.GET("/customer-services/:id", s.GetCustomerService)
	api.GET("/customer-services/:id/rule-groups", s.ListRuleGroups)
	api.POST("/customer-services/:id/rule-groups", s.CreateRuleGroup)
	api.PUT("/rules/:id/tier-config", s.SetTierConfig)

	// -------- Reports --------
	api.POST("/reports", s.GenerateReport)
	api.GET("/reports/:id", s.GetReport)
	api.GET("/reports/:id/export", s.ExportReport)
	api.DELETE("/reports/:id", s.DeleteReport)
}

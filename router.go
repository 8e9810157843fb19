package main

import (
	"fmt"
	"net/http"

	_ "github.com/Yulian302/lfusys-services-crmrelay/docs"
	"github.com/Yulian302/lfusys-services-crmrelay/relay"
	"github.com/Yulian302/lfusys-services-crmrelay/responses"
	"github.com/Yulian302/lfusys-services-crmrelay/routers"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func BuildRouter(app *App) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	applyRecovery(r, app)
	applyCors(r, app)
	applyTracing(r, app)
	applyRequestLogging(r, app)
	applySwagger(r, app)

	registerRoutes(r, app)

	return r
}

func applyRecovery(r *gin.Engine, app *App) {
	r.Use(gin.CustomRecovery(func(c *gin.Context, rec any) {
		app.Logger.Error("panic while handling request",
			"path", c.Request.URL.Path,
			"panic", fmt.Sprint(rec),
		)
		responses.InternalServerErrorResponse(c, fmt.Sprint(rec))
	}))
}

func applyCors(r *gin.Engine, app *App) {
	r.Use(cors.New(
		cors.Config{
			AllowAllOrigins: true,
			AllowMethods:    []string{"GET", "OPTIONS", "PATCH", "DELETE", "POST", "PUT"},
			AllowHeaders: []string{
				"X-CSRF-Token", "X-Requested-With", "Accept", "Accept-Version", "Content-Length",
				"Content-MD5", "Content-Type", "Date", "X-Api-Version",
			},
			AllowCredentials:          true,
			OptionsResponseStatusCode: http.StatusOK,
		},
	))
}

func applyTracing(r *gin.Engine, app *App) {
	if !app.Config.Tracing {
		return
	}

	r.Use(otelgin.Middleware("crm-relay"))
}

func applyRequestLogging(r *gin.Engine, app *App) {
	r.Use(relay.TraceID(app.Logger), relay.RequestLogger(app.Logger))
}

func applySwagger(r *gin.Engine, app *App) {
	if app.Config.IsProd() {
		return
	}
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

func registerRoutes(r *gin.Engine, app *App) {
	r.GET("/test", func(ctx *gin.Context) {
		responses.JSONSuccess(ctx, "ok")
	})

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{})))

	relayHandler := relay.NewRelayHandler(app.Services.Relay, app.Config.ServiceConfig.MaxBodyBytes, app.Logger)
	r.NoMethod(relayHandler.MethodNotAllowed)

	routers.RegisterRelayRouter(relayHandler, r)

	v1 := routers.ApplyApiVersioning("1", r)
	routers.RegisterRelayRouter(relayHandler, v1)
}

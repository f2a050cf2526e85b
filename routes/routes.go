package routes

import (
	"laundromat/controllers"
	"laundromat/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

type Handlers struct {
	Sync       *controllers.SyncController
	Sales      *controllers.SalesController
	Timesheets *controllers.TimesheetController
	Inventory  *controllers.InventoryController
	Employees  *controllers.EmployeeController
	DB         controllers.Pinger
}

type Options struct {
	SyncRateLimit float64
	SyncRateBurst int
	MetricsAllow  []string
}

func InitializeRoutes(router *gin.Engine, h Handlers, opts Options) {
	router.GET("/healthz", controllers.Healthz(h.DB))
	router.GET("/metrics", middleware.AllowIPs(opts.MetricsAllow), gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")

	api.POST("/sync", middleware.RateLimitByIP(rate.Limit(opts.SyncRateLimit), opts.SyncRateBurst), h.Sync.Sync)

	sales := api.Group("/sales")
	{
		sales.GET("", h.Sales.List)
		sales.POST("", h.Sales.Create)
		sales.GET("/summary", h.Sales.Summary)
		sales.GET("/export", h.Sales.Export)
		sales.POST("/bulk", h.Sales.Bulk)
		sales.GET("/:id", h.Sales.Get)
		sales.PUT("/:id", h.Sales.Update)
		sales.DELETE("/:id", h.Sales.Delete)
	}

	timesheets := api.Group("/timesheets")
	{
		timesheets.GET("", h.Timesheets.List)
		timesheets.POST("/clock-in", h.Timesheets.ClockIn)
		timesheets.POST("/clock-out", h.Timesheets.ClockOut)
		timesheets.POST("/bulk", h.Timesheets.Bulk)
		timesheets.GET("/employee/:employeeId", h.Timesheets.EmployeeReport)
	}

	inventory := api.Group("/inventory")
	{
		inventory.GET("", h.Inventory.List)
		inventory.POST("", h.Inventory.Create)
		inventory.GET("/low-stock", h.Inventory.LowStock)
		inventory.GET("/logs", h.Inventory.Logs)
		inventory.PUT("/:id", h.Inventory.Update)
		inventory.DELETE("/:id", h.Inventory.Delete)
		inventory.POST("/:id/adjust", h.Inventory.Adjust)
	}

	employees := api.Group("/employees")
	{
		employees.GET("", h.Employees.List)
		employees.POST("", h.Employees.Create)
		employees.GET("/:id", h.Employees.Get)
		employees.PUT("/:id", h.Employees.Update)
		employees.DELETE("/:id", h.Employees.Delete)
	}
}

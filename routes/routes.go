package routes

import (
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"ovhsms-backend/config"
	"ovhsms-backend/controllers"
	"ovhsms-backend/utils"
)

func allowedOrigins() []string {
	if env := os.Getenv("ALLOWED_ORIGINS"); env != "" {
		return strings.Split(env, ",")
	}
	return []string{"http://localhost:3000"}
}

func SetupRouter() *gin.Engine {
	r := gin.Default()

	origins := allowedOrigins()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.Use(config.PerformanceLogger())

	r.GET("/health", controllers.HealthCheck)

	auth := r.Group("/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)

		auth.Use(utils.AuthMiddleware())
		auth.GET("/me", controllers.Me)
	}

	api := r.Group("/api")
	api.Use(utils.AuthMiddleware())
	{
		// Gateway settings and direct SMS routes
		sms := api.Group("/sms")
		{
			sms.GET("/settings", controllers.GetSettings)
			sms.PUT("/settings", controllers.UpdateSettings)
			sms.POST("/test-connection", controllers.TestConnection)
			sms.POST("/test", controllers.SendTestSMS)
			sms.GET("/balance", controllers.GetBalance)
			sms.GET("/senders", controllers.GetSenders)
			sms.POST("/senders", controllers.CreateSender)
			sms.POST("/send", controllers.SendManualSMS)
		}

		// Reminder policy routes
		reminders := api.Group("/reminders")
		{
			reminders.GET("/policy", controllers.GetReminderPolicy)
			reminders.PUT("/policy", controllers.UpdateReminderPolicy)
			reminders.GET("/statistics", controllers.GetReminderStatistics)
			reminders.POST("/test", controllers.SendTestReminder)
			reminders.POST("/run", controllers.RunReminderCheck)
			reminders.GET("/reports", controllers.GetWeeklyReports)
		}

		// Campaign routes
		campaigns := api.Group("/campaigns")
		{
			campaigns.POST("", controllers.CreateCampaign)
			campaigns.GET("", controllers.GetCampaigns)
			campaigns.GET("/:id", controllers.GetCampaign)
			campaigns.PUT("/:id", controllers.UpdateCampaign)
			campaigns.DELETE("/:id", controllers.DeleteCampaign)
			campaigns.POST("/:id/submit", controllers.SubmitCampaign)
			campaigns.GET("/:id/preview", controllers.PreviewCampaign)
			campaigns.POST("/:id/send-all", controllers.SendCampaignAll)
			campaigns.POST("/:id/send-selected", controllers.SendCampaignSelected)
			campaigns.POST("/:id/send-test", controllers.SendCampaignTest)
			campaigns.GET("/:id/roi", controllers.GetCampaignROI)
		}

		// Event routes
		events := api.Group("/events")
		{
			events.POST("", controllers.CreateEvent)
			events.GET("", controllers.GetEvents)
			events.GET("/:id", controllers.GetEvent)
			events.PUT("/:id", controllers.UpdateEvent)
			events.DELETE("/:id", controllers.DeleteEvent)
			events.POST("/:id/confirm", controllers.ConfirmEvent)
			events.POST("/:id/cancel", controllers.CancelEvent)
		}

		// Customer routes
		customers := api.Group("/customers")
		{
			customers.POST("", controllers.CreateCustomer)
			customers.GET("", controllers.GetCustomers)
			customers.GET("/:id", controllers.GetCustomer)
			customers.PUT("/:id", controllers.UpdateCustomer)
			customers.DELETE("/:id", controllers.DeleteCustomer)
			customers.GET("/:id/contacts", controllers.GetContacts)
		}
		api.POST("/contacts", controllers.CreateContact)

		// Employee routes
		employees := api.Group("/employees")
		{
			employees.POST("", controllers.CreateEmployee)
			employees.GET("", controllers.GetEmployees)
			employees.GET("/:id", controllers.GetEmployee)
			employees.PUT("/:id", controllers.UpdateEmployee)
			employees.DELETE("/:id", controllers.DeleteEmployee)
		}

		// ERP document hook
		api.POST("/hooks/document-submitted", controllers.DocumentSubmitted)
	}

	return r
}

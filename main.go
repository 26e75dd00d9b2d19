package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"ovhsms-backend/config"
	"ovhsms-backend/models"
	"ovhsms-backend/routes"
	"ovhsms-backend/services"
)

func init() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	config.ConnectDB()

	config.DB.AutoMigrate(
		&models.User{},
		&models.GatewaySettings{},
		&models.ReminderPolicy{},
		&models.SmsReminderLog{},
		&models.Event{},
		&models.EventParticipant{},
		&models.Customer{},
		&models.Employee{},
		&models.Contact{},
		&models.PricingCampaign{},
		&models.PricingItem{},
		&models.WeeklyReport{},
	)
}

func main() {
	scheduler := services.NewScheduler(config.DB)
	scheduler.Start()
	defer scheduler.Stop()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r := routes.SetupRouter()
	printRoutes(r)
	r.Run(":" + port)
}

func printRoutes(r *gin.Engine) {
	routes := r.Routes()
	for _, route := range routes {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}

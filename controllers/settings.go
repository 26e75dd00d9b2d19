// controllers/settings.go
package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ovhsms-backend/config"
	"ovhsms-backend/services"
	"ovhsms-backend/utils"
)

// UpdateSettingsInput covers the editable gateway configuration. Secret
// fields are write-only: omitted fields keep their stored value.
type UpdateSettingsInput struct {
	Enabled           *bool   `json:"enabled"`
	ApplicationKey    *string `json:"applicationKey"`
	ApplicationSecret *string `json:"applicationSecret"`
	ConsumerKey       *string `json:"consumerKey"`
	Endpoint          *string `json:"endpoint"`
	AutoDetectService *bool   `json:"autoDetectService"`
	ServiceName       *string `json:"serviceName"`
	DefaultSender     *string `json:"defaultSender"`
	AllowLocalClock   *bool   `json:"allowLocalClock"`

	EnableSalesOrderSMS    *bool   `json:"enableSalesOrderSms"`
	SalesOrderTemplate     *string `json:"salesOrderTemplate"`
	EnablePaymentSMS       *bool   `json:"enablePaymentSms"`
	PaymentTemplate        *string `json:"paymentTemplate"`
	EnableDeliverySMS      *bool   `json:"enableDeliverySms"`
	DeliveryTemplate       *string `json:"deliveryTemplate"`
	EnablePurchaseOrderSMS *bool   `json:"enablePurchaseOrderSms"`
	PurchaseOrderTemplate  *string `json:"purchaseOrderTemplate"`
}

// GetSettings returns the gateway settings. Secrets never serialize.
func GetSettings(c *gin.Context) {
	svc := services.NewSmsService(config.DB)
	settings, err := svc.Settings()
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load settings")
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateSettings applies a partial update and re-validates the document.
func UpdateSettings(c *gin.Context) {
	var input UpdateSettingsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	svc := services.NewSmsService(config.DB)
	settings, err := svc.Settings()
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load settings")
		return
	}

	if input.Enabled != nil {
		settings.Enabled = *input.Enabled
	}
	if input.ApplicationKey != nil {
		settings.ApplicationKey = *input.ApplicationKey
	}
	if input.ApplicationSecret != nil {
		settings.ApplicationSecret = *input.ApplicationSecret
	}
	if input.ConsumerKey != nil {
		settings.ConsumerKey = *input.ConsumerKey
	}
	if input.Endpoint != nil {
		settings.Endpoint = *input.Endpoint
	}
	if input.AutoDetectService != nil {
		settings.AutoDetectService = *input.AutoDetectService
	}
	if input.ServiceName != nil {
		settings.ServiceName = *input.ServiceName
	}
	if input.DefaultSender != nil {
		if *input.DefaultSender != "" {
			if err := utils.ValidateSenderName(*input.DefaultSender); err != nil {
				utils.RespondWithError(c, http.StatusBadRequest, err.Error())
				return
			}
		}
		settings.DefaultSender = *input.DefaultSender
	}
	if input.AllowLocalClock != nil {
		settings.AllowLocalClock = *input.AllowLocalClock
	}

	if input.EnableSalesOrderSMS != nil {
		settings.EnableSalesOrderSMS = *input.EnableSalesOrderSMS
	}
	if input.SalesOrderTemplate != nil {
		settings.SalesOrderTemplate = *input.SalesOrderTemplate
	}
	if input.EnablePaymentSMS != nil {
		settings.EnablePaymentSMS = *input.EnablePaymentSMS
	}
	if input.PaymentTemplate != nil {
		settings.PaymentTemplate = *input.PaymentTemplate
	}
	if input.EnableDeliverySMS != nil {
		settings.EnableDeliverySMS = *input.EnableDeliverySMS
	}
	if input.DeliveryTemplate != nil {
		settings.DeliveryTemplate = *input.DeliveryTemplate
	}
	if input.EnablePurchaseOrderSMS != nil {
		settings.EnablePurchaseOrderSMS = *input.EnablePurchaseOrderSMS
	}
	if input.PurchaseOrderTemplate != nil {
		settings.PurchaseOrderTemplate = *input.PurchaseOrderTemplate
	}

	if err := settings.Validate(); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := config.DB.Save(settings).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to save settings")
		return
	}

	c.JSON(http.StatusOK, settings)
}

// TestConnection runs the composite gateway check.
func TestConnection(c *gin.Context) {
	svc := services.NewSmsService(config.DB)
	success, message := svc.TestConnection()
	utils.RespondWithResult(c, http.StatusOK, success, message, nil)
}

type SendTestSmsInput struct {
	PhoneNumber string `json:"phoneNumber" binding:"required"`
	Message     string `json:"message"`
}

// SendTestSMS sends one test message to an explicit number.
func SendTestSMS(c *gin.Context) {
	var input SendTestSmsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Phone number is required")
		return
	}

	message := input.Message
	if message == "" {
		message = "Test SMS - " + time.Now().Format("15:04")
	}

	svc := services.NewSmsService(config.DB)
	outcome := svc.SendSMS(message, input.PhoneNumber, "")
	utils.RespondWithResult(c, http.StatusOK, outcome.Success, outcome.Message, gin.H{
		"sender_used":  outcome.SenderUsed,
		"sms_id":       outcome.SmsID,
		"credits_used": outcome.CreditsUsed,
	})
}

// GetBalance fetches the remaining gateway credits.
func GetBalance(c *gin.Context) {
	svc := services.NewSmsService(config.DB)
	balance, service, err := svc.Balance()
	if err != nil {
		utils.RespondWithResult(c, http.StatusOK, false, err.Error(), nil)
		return
	}
	utils.RespondWithResult(c, http.StatusOK, true, "Balance retrieved", gin.H{
		"credits":      balance,
		"service_name": service,
	})
}

// GetSenders lists the registered sender names.
func GetSenders(c *gin.Context) {
	svc := services.NewSmsService(config.DB)
	senders, err := svc.Senders()
	if err != nil {
		utils.RespondWithResult(c, http.StatusOK, false, err.Error(), nil)
		return
	}
	utils.RespondWithResult(c, http.StatusOK, true, "Senders retrieved", gin.H{
		"senders": senders,
		"count":   len(senders),
	})
}

type CreateSenderInput struct {
	Sender      string `json:"sender" binding:"required"`
	Description string `json:"description"`
}

// CreateSender registers a new sender name on the gateway.
func CreateSender(c *gin.Context) {
	var input CreateSenderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Sender name is required")
		return
	}

	svc := services.NewSmsService(config.DB)
	if err := svc.CreateSender(input.Sender, input.Description); err != nil {
		utils.RespondWithResult(c, http.StatusOK, false, err.Error(), nil)
		return
	}
	utils.RespondWithResult(c, http.StatusOK, true, "Sender '"+input.Sender+"' created", nil)
}

type ManualSmsInput struct {
	Message   string   `json:"message" binding:"required"`
	Receivers []string `json:"receivers" binding:"required,min=1"`
	Sender    string   `json:"sender"`
}

// SendManualSMS sends one message to a list of receivers, reporting the
// outcome per receiver.
func SendManualSMS(c *gin.Context) {
	var input ManualSmsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	svc := services.NewSmsService(config.DB)

	results := make([]gin.H, 0, len(input.Receivers))
	succeeded := 0
	for _, receiver := range input.Receivers {
		outcome := svc.SendSMS(input.Message, receiver, input.Sender)
		if outcome.Success {
			succeeded++
		}
		results = append(results, gin.H{
			"receiver": receiver,
			"success":  outcome.Success,
			"message":  outcome.Message,
		})
	}

	utils.RespondWithResult(c, http.StatusOK, succeeded > 0,
		"", gin.H{"results": results, "sent": succeeded})
}

// HealthCheck reports configuration and gateway problems.
func HealthCheck(c *gin.Context) {
	issues := services.CheckHealth(config.DB)
	utils.RespondWithResult(c, http.StatusOK, len(issues) == 0, "", gin.H{
		"issues": issues,
	})
}

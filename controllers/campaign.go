// controllers/campaign.go
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"ovhsms-backend/config"
	"ovhsms-backend/models"
	"ovhsms-backend/services"
	"ovhsms-backend/utils"
)

type PricingItemInput struct {
	CustomerID         *uuid.UUID `json:"customerId"`
	CustomerName       string     `json:"customerName" binding:"required"`
	CustomerMobile     string     `json:"customerMobile"`
	ItemCode           string     `json:"itemCode" binding:"required"`
	ItemName           string     `json:"itemName"`
	ValuationRate      float64    `json:"valuationRate" binding:"required,gt=0"`
	MarginAmountEur    float64    `json:"marginAmountEur" binding:"gte=0"`
	Qty                float64    `json:"qty"`
	SelectedForSending *bool      `json:"selectedForSending"`
}

type CreateCampaignInput struct {
	Title       string             `json:"title" binding:"required"`
	Company     string             `json:"company"`
	SmsTemplate string             `json:"smsTemplate"`
	Items       []PricingItemInput `json:"items" binding:"required,min=1,dive"`
}

type UpdateCampaignInput struct {
	Title       *string            `json:"title"`
	Company     *string            `json:"company"`
	SmsTemplate *string            `json:"smsTemplate"`
	Items       []PricingItemInput `json:"items"`
}

func buildItems(inputs []PricingItemInput) []models.PricingItem {
	items := make([]models.PricingItem, 0, len(inputs))
	for _, in := range inputs {
		item := models.PricingItem{
			CustomerID:         in.CustomerID,
			CustomerName:       in.CustomerName,
			CustomerMobile:     in.CustomerMobile,
			ItemCode:           in.ItemCode,
			ItemName:           in.ItemName,
			ValuationRate:      in.ValuationRate,
			MarginAmountEur:    in.MarginAmountEur,
			Qty:                in.Qty,
			SelectedForSending: true,
		}
		if in.SelectedForSending != nil {
			item.SelectedForSending = *in.SelectedForSending
		}
		items = append(items, item)
	}
	return items
}

// CreateCampaign creates a draft campaign with its pricing lines.
func CreateCampaign(c *gin.Context) {
	var input CreateCampaignInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	campaign := models.PricingCampaign{
		Title:       input.Title,
		Company:     input.Company,
		SmsTemplate: input.SmsTemplate,
		Status:      models.CampaignStatusDraft,
		Items:       buildItems(input.Items),
	}

	svc := services.NewCampaignService(config.DB)
	if err := svc.Validate(&campaign); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := config.DB.Create(&campaign).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create campaign")
		return
	}

	c.JSON(http.StatusCreated, campaign)
}

// GetCampaigns lists campaigns without their lines.
func GetCampaigns(c *gin.Context) {
	var campaigns []models.PricingCampaign
	if err := config.DB.Order("created_at desc").Find(&campaigns).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve campaigns")
		return
	}
	c.JSON(http.StatusOK, campaigns)
}

func campaignFromPath(c *gin.Context) (*models.PricingCampaign, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid campaign ID")
		return nil, false
	}

	svc := services.NewCampaignService(config.DB)
	campaign, err := svc.Get(id)
	if err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Campaign not found")
		return nil, false
	}
	return campaign, true
}

// GetCampaign returns one campaign with its lines.
func GetCampaign(c *gin.Context) {
	campaign, ok := campaignFromPath(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, campaign)
}

// UpdateCampaign edits a draft campaign; submitted campaigns are
// immutable except for their send state.
func UpdateCampaign(c *gin.Context) {
	campaign, ok := campaignFromPath(c)
	if !ok {
		return
	}
	if campaign.Submitted {
		utils.RespondWithError(c, http.StatusConflict, "Submitted campaigns cannot be edited")
		return
	}

	var input UpdateCampaignInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if input.Title != nil {
		campaign.Title = *input.Title
	}
	if input.Company != nil {
		campaign.Company = *input.Company
	}
	if input.SmsTemplate != nil {
		campaign.SmsTemplate = *input.SmsTemplate
	}
	if input.Items != nil {
		if err := config.DB.Where("campaign_id = ?", campaign.ID).Delete(&models.PricingItem{}).Error; err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to replace campaign items")
			return
		}
		campaign.Items = buildItems(input.Items)
		for idx := range campaign.Items {
			campaign.Items[idx].CampaignID = campaign.ID
		}
	}

	svc := services.NewCampaignService(config.DB)
	if err := svc.Validate(campaign); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := config.DB.Session(&gorm.Session{FullSaveAssociations: true}).Save(campaign).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to save campaign")
		return
	}

	c.JSON(http.StatusOK, campaign)
}

// DeleteCampaign removes a campaign and its lines.
func DeleteCampaign(c *gin.Context) {
	campaign, ok := campaignFromPath(c)
	if !ok {
		return
	}

	if err := config.DB.Where("campaign_id = ?", campaign.ID).Delete(&models.PricingItem{}).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete campaign items")
		return
	}
	if err := config.DB.Delete(campaign).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete campaign")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Campaign deleted"})
}

// SubmitCampaign approves a campaign for sending. It requires every
// line priced with a mobile and the gateway enabled.
func SubmitCampaign(c *gin.Context) {
	campaign, ok := campaignFromPath(c)
	if !ok {
		return
	}
	if campaign.Submitted {
		utils.RespondWithResult(c, http.StatusOK, false, "Campaign is already submitted", nil)
		return
	}

	svc := services.NewCampaignService(config.DB)
	if err := svc.Validate(campaign); err != nil {
		utils.RespondWithResult(c, http.StatusOK, false, err.Error(), nil)
		return
	}
	if !campaign.ReadyToSend() {
		utils.RespondWithResult(c, http.StatusOK, false, "Campaign is not ready: missing mobiles or prices", nil)
		return
	}

	smsSvc := services.NewSmsService(config.DB)
	settings, err := smsSvc.Settings()
	if err != nil || !settings.Enabled {
		utils.RespondWithResult(c, http.StatusOK, false, "OVH SMS integration must be enabled", nil)
		return
	}

	campaign.Submitted = true
	campaign.Status = models.CampaignStatusReady
	if err := config.DB.Model(campaign).Updates(map[string]interface{}{
		"submitted": true,
		"status":    campaign.Status,
	}).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to submit campaign")
		return
	}

	utils.RespondWithResult(c, http.StatusOK, true, "Campaign submitted. SMS sending is now available.", nil)
}

// PreviewCampaign renders the first selected messages.
func PreviewCampaign(c *gin.Context) {
	campaign, ok := campaignFromPath(c)
	if !ok {
		return
	}

	svc := services.NewCampaignService(config.DB)
	utils.RespondWithResult(c, http.StatusOK, true, "", gin.H{
		"previews": svc.Preview(campaign),
	})
}

// SendCampaignAll selects every pending line and dispatches the batch.
func SendCampaignAll(c *gin.Context) {
	campaign, ok := campaignFromPath(c)
	if !ok {
		return
	}

	svc := services.NewCampaignService(config.DB)
	if err := svc.SelectAll(campaign); err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to select campaign items")
		return
	}

	refreshed, err := svc.Get(campaign.ID)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to reload campaign")
		return
	}

	dispatchCampaign(c, svc, refreshed)
}

// SendCampaignSelected dispatches only the lines marked for sending.
func SendCampaignSelected(c *gin.Context) {
	campaign, ok := campaignFromPath(c)
	if !ok {
		return
	}

	pending := 0
	for idx := range campaign.Items {
		if campaign.Items[idx].SelectedForSending && !campaign.Items[idx].SmsSent {
			pending++
		}
	}
	if pending == 0 {
		utils.RespondWithResult(c, http.StatusOK, false, "No items selected for sending", nil)
		return
	}

	svc := services.NewCampaignService(config.DB)
	dispatchCampaign(c, svc, campaign)
}

func dispatchCampaign(c *gin.Context, svc *services.CampaignService, campaign *models.PricingCampaign) {
	results, err := svc.SendSelected(campaign)
	if err != nil {
		utils.RespondWithResult(c, http.StatusOK, false, err.Error(), nil)
		return
	}

	utils.RespondWithResult(c, http.StatusOK, true,
		"", gin.H{
			"sent":    results.Sent,
			"failed":  results.Failed,
			"details": results.Details,
		})
}

type CampaignTestInput struct {
	Mobile string `json:"mobile" binding:"required"`
}

// SendCampaignTest sends the first line's message to a test number.
func SendCampaignTest(c *gin.Context) {
	campaign, ok := campaignFromPath(c)
	if !ok {
		return
	}

	var input CampaignTestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Test mobile is required")
		return
	}

	svc := services.NewCampaignService(config.DB)
	outcome, message, err := svc.SendTest(campaign, input.Mobile)
	if err != nil {
		utils.RespondWithResult(c, http.StatusOK, false, err.Error(), nil)
		return
	}

	utils.RespondWithResult(c, http.StatusOK, outcome.Success, outcome.Message, gin.H{
		"content": message,
	})
}

// GetCampaignROI summarizes campaign economics.
func GetCampaignROI(c *gin.Context) {
	campaign, ok := campaignFromPath(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, campaign.ROI())
}

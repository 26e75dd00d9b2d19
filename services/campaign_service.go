// services/campaign_service.go
package services

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ovhsms-backend/models"
	"ovhsms-backend/utils"
)

const defaultCampaignTemplate = "Bonjour {{customer_name}}, nous vous proposons {{item_name}} au prix de {{final_price}}€."

type CampaignService struct {
	db  *gorm.DB
	sms *SmsService
}

func NewCampaignService(db *gorm.DB) *CampaignService {
	return &CampaignService{db: db, sms: NewSmsService(db)}
}

// Get loads a campaign with its items.
func (s *CampaignService) Get(id uuid.UUID) (*models.PricingCampaign, error) {
	var campaign models.PricingCampaign
	if err := s.db.Preload("Items").First(&campaign, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &campaign, nil
}

// Validate checks every line, resolves missing mobiles from the
// customer record, recomputes derived prices, aggregates and status.
// Runs on every save.
func (s *CampaignService) Validate(campaign *models.PricingCampaign) error {
	if len(campaign.Items) == 0 {
		return fmt.Errorf("at least one item and customer is required")
	}

	for idx := range campaign.Items {
		item := &campaign.Items[idx]

		if item.CustomerMobile == "" && item.CustomerID != nil {
			if mobile := s.lookupCustomerMobile(*item.CustomerID); mobile != "" {
				item.CustomerMobile = mobile
			}
		}
		if item.CustomerMobile == "" {
			return fmt.Errorf("mobile number is required for customer %s (line %d)", item.CustomerName, idx+1)
		}

		normalized, err := utils.NormalizePhoneNumber(item.CustomerMobile)
		if err != nil {
			return fmt.Errorf("line %d: %v", idx+1, err)
		}
		item.CustomerMobile = normalized

		if err := item.Validate(); err != nil {
			return fmt.Errorf("line %d: %v", idx+1, err)
		}

		item.ComputePricing()
	}

	campaign.ComputeTotals()
	campaign.RefreshStatus()
	return nil
}

func (s *CampaignService) lookupCustomerMobile(customerID uuid.UUID) string {
	var customer models.Customer
	if err := s.db.First(&customer, "id = ?", customerID).Error; err != nil {
		return ""
	}
	if customer.MobileNo != "" {
		return customer.MobileNo
	}

	var contact models.Contact
	err := s.db.
		Where("customer_id = ?", customerID).
		Where("mobile_no <> '' OR phone <> ''").
		First(&contact).Error
	if err != nil {
		return ""
	}
	if contact.MobileNo != "" {
		return contact.MobileNo
	}
	return contact.Phone
}

// FormatItemMessage renders the campaign template for one line.
func (s *CampaignService) FormatItemMessage(campaign *models.PricingCampaign, item *models.PricingItem) string {
	template := campaign.SmsTemplate
	if template == "" {
		template = defaultCampaignTemplate
	}

	qty := item.Qty
	if qty == 0 {
		qty = 1
	}

	context := map[string]interface{}{
		"customer_name":  item.CustomerName,
		"item_name":      item.DisplayItem(),
		"item_code":      item.ItemCode,
		"final_price":    fmt.Sprintf("%.2f", item.FinalPrice),
		"amount":         fmt.Sprintf("%.2f", item.Amount),
		"currency":       "EUR",
		"valuation_rate": fmt.Sprintf("%.2f", item.ValuationRate),
		"margin_eur":     fmt.Sprintf("%.2f", item.MarginAmountEur),
		"qty":            qty,
		"company":        campaign.Company,
		"campaign_title": campaign.Title,
	}

	return utils.RenderTemplate(template, context)
}

// CampaignSendDetail is one line of a campaign send report.
type CampaignSendDetail struct {
	Customer string `json:"customer"`
	Item     string `json:"item"`
	Success  bool   `json:"success"`
	Message  string `json:"message"`
}

type CampaignSendResults struct {
	Sent    int                  `json:"sent"`
	Failed  int                  `json:"failed"`
	Details []CampaignSendDetail `json:"details"`
}

// sendToItem dispatches one line and updates its send status in place.
func (s *CampaignService) sendToItem(campaign *models.PricingCampaign, item *models.PricingItem) *SendOutcome {
	if item.SmsSent {
		return &SendOutcome{Success: false, Message: "SMS already sent"}
	}
	if item.CustomerMobile == "" {
		return &SendOutcome{Success: false, Message: "missing mobile number"}
	}

	message := s.FormatItemMessage(campaign, item)
	outcome := s.sms.SendSMS(message, item.CustomerMobile, "")

	if outcome.Success {
		item.SmsSent = true
		item.SmsStatus = "sent"
	} else {
		item.SmsStatus = "failed"
	}

	if err := s.db.Model(item).Updates(map[string]interface{}{
		"sms_sent":   item.SmsSent,
		"sms_status": item.SmsStatus,
	}).Error; err != nil {
		log.Printf("campaign %s: failed to persist item status: %v", campaign.ID, err)
	}

	return outcome
}

// SendSelected dispatches every selected, not-yet-sent line and updates
// the campaign counters and status. Per-line failures are counted, never
// abort the batch.
func (s *CampaignService) SendSelected(campaign *models.PricingCampaign) (*CampaignSendResults, error) {
	if !campaign.Submitted {
		return nil, fmt.Errorf("campaign must be submitted before sending")
	}

	results := &CampaignSendResults{}

	for idx := range campaign.Items {
		item := &campaign.Items[idx]
		if !item.SelectedForSending || item.SmsSent {
			continue
		}

		outcome := s.sendToItem(campaign, item)
		if outcome.Success {
			results.Sent++
		} else {
			results.Failed++
		}
		results.Details = append(results.Details, CampaignSendDetail{
			Customer: item.CustomerName,
			Item:     item.DisplayItem(),
			Success:  outcome.Success,
			Message:  outcome.Message,
		})
	}

	now := time.Now()
	campaign.SmsSentCount += results.Sent
	campaign.SmsFailedCount += results.Failed
	campaign.LastSentTime = &now
	campaign.RefreshStatus()

	if err := s.db.Model(campaign).Updates(map[string]interface{}{
		"sms_sent_count":   campaign.SmsSentCount,
		"sms_failed_count": campaign.SmsFailedCount,
		"last_sent_time":   campaign.LastSentTime,
		"status":           campaign.Status,
	}).Error; err != nil {
		return results, fmt.Errorf("failed to persist campaign statistics: %w", err)
	}

	return results, nil
}

// SelectAll marks every pending line for sending.
func (s *CampaignService) SelectAll(campaign *models.PricingCampaign) error {
	return s.db.Model(&models.PricingItem{}).
		Where("campaign_id = ? AND sms_sent = ?", campaign.ID, false).
		Update("selected_for_sending", true).Error
}

// CampaignPreview is one rendered example message.
type CampaignPreview struct {
	Customer  string  `json:"customer"`
	Mobile    string  `json:"mobile"`
	Item      string  `json:"item"`
	Price     float64 `json:"price"`
	Valuation float64 `json:"valuation"`
	Margin    float64 `json:"margin"`
	Message   string  `json:"message"`
}

// Preview renders the first three selected lines.
func (s *CampaignService) Preview(campaign *models.PricingCampaign) []CampaignPreview {
	previews := []CampaignPreview{}

	for idx := range campaign.Items {
		if len(previews) >= 3 {
			break
		}
		item := &campaign.Items[idx]
		if !item.SelectedForSending {
			continue
		}

		previews = append(previews, CampaignPreview{
			Customer:  item.CustomerName,
			Mobile:    item.CustomerMobile,
			Item:      item.DisplayItem(),
			Price:     item.FinalPrice,
			Valuation: item.ValuationRate,
			Margin:    item.MarginAmountEur,
			Message:   s.FormatItemMessage(campaign, item),
		})
	}

	return previews
}

// SendTest renders the first line against a test mobile and sends it,
// without touching item statuses.
func (s *CampaignService) SendTest(campaign *models.PricingCampaign, testMobile string) (*SendOutcome, string, error) {
	if len(campaign.Items) == 0 {
		return nil, "", fmt.Errorf("campaign has no items")
	}

	testItem := campaign.Items[0]
	testItem.CustomerName = "Client Test"
	testItem.CustomerMobile = testMobile

	message := s.FormatItemMessage(campaign, &testItem)
	outcome := s.sms.SendSMS(message, testMobile, "")
	return outcome, message, nil
}

// CleanupOldCampaigns removes fully-sent campaigns older than the given
// age, with their items. Called by the weekly scheduled job.
func (s *CampaignService) CleanupOldCampaigns(maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge)

	var stale []models.PricingCampaign
	if err := s.db.
		Where("status = ? AND updated_at < ?", models.CampaignStatusSent, cutoff).
		Find(&stale).Error; err != nil {
		return 0, err
	}

	var removed int64
	for idx := range stale {
		if err := s.db.Where("campaign_id = ?", stale[idx].ID).Delete(&models.PricingItem{}).Error; err != nil {
			log.Printf("campaign cleanup: failed to delete items of %s: %v", stale[idx].ID, err)
			continue
		}
		if err := s.db.Delete(&stale[idx]).Error; err != nil {
			log.Printf("campaign cleanup: failed to delete %s: %v", stale[idx].ID, err)
			continue
		}
		removed++
	}

	return removed, nil
}

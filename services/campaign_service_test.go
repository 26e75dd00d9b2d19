package services

import (
	"strings"
	"testing"

	"ovhsms-backend/models"
)

func TestFormatItemMessageDefaultTemplate(t *testing.T) {
	t.Parallel()

	svc := NewCampaignService(nil)
	campaign := &models.PricingCampaign{Title: "Promo mars"}
	item := &models.PricingItem{
		CustomerName:  "Dupont",
		ItemCode:      "LAV-01",
		ItemName:      "Lave-linge",
		ValuationRate: 100,
		MarginAmountEur: 20,
		Qty:           1,
	}
	item.ComputePricing()

	message := svc.FormatItemMessage(campaign, item)

	if !strings.Contains(message, "Dupont") {
		t.Errorf("message %q missing customer name", message)
	}
	if !strings.Contains(message, "Lave-linge") {
		t.Errorf("message %q missing item name", message)
	}
	if !strings.Contains(message, "120.00") {
		t.Errorf("message %q missing formatted price", message)
	}
	if strings.Contains(message, "{{") {
		t.Errorf("message %q still contains placeholders", message)
	}
}

func TestFormatItemMessageCustomTemplate(t *testing.T) {
	t.Parallel()

	svc := NewCampaignService(nil)
	campaign := &models.PricingCampaign{
		Title:       "Promo mars",
		Company:     "Ets Martin",
		SmsTemplate: "{{company}}: {{item_code}} pour {{amount}} {{currency}} ({{qty}}x)",
	}
	item := &models.PricingItem{
		CustomerName:  "Dupont",
		ItemCode:      "LAV-01",
		ValuationRate: 50,
		MarginAmountEur: 10,
		Qty:           3,
	}
	item.ComputePricing()

	message := svc.FormatItemMessage(campaign, item)
	want := "Ets Martin: LAV-01 pour 180.00 EUR (3x)"
	if message != want {
		t.Errorf("message = %q, want %q", message, want)
	}
}

func TestFormatItemMessageFallsBackToItemCode(t *testing.T) {
	t.Parallel()

	svc := NewCampaignService(nil)
	campaign := &models.PricingCampaign{SmsTemplate: "{{item_name}}"}
	item := &models.PricingItem{CustomerName: "Dupont", ItemCode: "LAV-01"}

	if got := svc.FormatItemMessage(campaign, item); got != "LAV-01" {
		t.Errorf("message = %q, want item code fallback", got)
	}
}

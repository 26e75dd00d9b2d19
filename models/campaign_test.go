package models

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestPricingItemComputePricing(t *testing.T) {
	t.Parallel()

	item := PricingItem{ValuationRate: 100, MarginAmountEur: 20, Qty: 3}
	item.ComputePricing()

	if !almostEqual(item.FinalPrice, 120) {
		t.Errorf("FinalPrice = %v, want 120", item.FinalPrice)
	}
	if !almostEqual(item.Amount, 360) {
		t.Errorf("Amount = %v, want 360", item.Amount)
	}
	if item.Currency != "EUR" {
		t.Errorf("Currency = %q, want EUR", item.Currency)
	}
}

func TestPricingItemComputePricingZeroQty(t *testing.T) {
	t.Parallel()

	item := PricingItem{ValuationRate: 50, MarginAmountEur: 10}
	item.ComputePricing()

	if item.Qty != 1 {
		t.Errorf("Qty = %v, want 1 (defaulted)", item.Qty)
	}
	if !almostEqual(item.Amount, 60) {
		t.Errorf("Amount = %v, want 60", item.Amount)
	}
}

func TestPricingItemValidate(t *testing.T) {
	t.Parallel()

	valid := PricingItem{CustomerName: "Dupont", ItemCode: "ART-1", ValuationRate: 10}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid item returned error: %v", err)
	}

	invalid := []PricingItem{
		{ItemCode: "ART-1", ValuationRate: 10},
		{CustomerName: "Dupont", ValuationRate: 10},
		{CustomerName: "Dupont", ItemCode: "ART-1"},
		{CustomerName: "Dupont", ItemCode: "ART-1", ValuationRate: 10, MarginAmountEur: -5},
	}
	for i, item := range invalid {
		if err := item.Validate(); err == nil {
			t.Errorf("case %d: expected validation error, got nil", i)
		}
	}
}

func TestCampaignComputeTotals(t *testing.T) {
	t.Parallel()

	campaign := PricingCampaign{
		Items: []PricingItem{
			{CustomerName: "Dupont", ItemCode: "A", ValuationRate: 100, MarginAmountEur: 20, Qty: 1},
			{CustomerName: "Martin", ItemCode: "B", ValuationRate: 200, MarginAmountEur: 40, Qty: 1},
			{CustomerName: "Dupont", ItemCode: "C", ValuationRate: 50, MarginAmountEur: 10, Qty: 1},
		},
	}
	for idx := range campaign.Items {
		campaign.Items[idx].ComputePricing()
	}
	campaign.ComputeTotals()

	if campaign.TotalItems != 3 {
		t.Errorf("TotalItems = %d, want 3", campaign.TotalItems)
	}
	if campaign.TotalCustomers != 2 {
		t.Errorf("TotalCustomers = %d, want 2", campaign.TotalCustomers)
	}
	if !almostEqual(campaign.EstimatedRevenue, 420) {
		t.Errorf("EstimatedRevenue = %v, want 420", campaign.EstimatedRevenue)
	}
	if !almostEqual(campaign.ProfitPotential, 70) {
		t.Errorf("ProfitPotential = %v, want 70", campaign.ProfitPotential)
	}
	if !almostEqual(campaign.TotalSmsCost, 0.20) {
		t.Errorf("TotalSmsCost = %v, want 0.20", campaign.TotalSmsCost)
	}
	// 70 margin on 350 of valuation
	if !almostEqual(campaign.AverageMarginPercent, 20) {
		t.Errorf("AverageMarginPercent = %v, want 20", campaign.AverageMarginPercent)
	}
}

func TestCampaignComputeTotalsEmpty(t *testing.T) {
	t.Parallel()

	var campaign PricingCampaign
	campaign.ComputeTotals()

	if campaign.AverageMarginPercent != 0 {
		t.Errorf("AverageMarginPercent = %v, want 0 on empty campaign", campaign.AverageMarginPercent)
	}
	if campaign.TotalSmsCost != 0 {
		t.Errorf("TotalSmsCost = %v, want 0 on empty campaign", campaign.TotalSmsCost)
	}
}

func TestCampaignReadyToSend(t *testing.T) {
	t.Parallel()

	campaign := PricingCampaign{
		Items: []PricingItem{
			{CustomerMobile: "+33612345678", FinalPrice: 120},
		},
	}
	if !campaign.ReadyToSend() {
		t.Error("expected campaign with priced, reachable lines to be ready")
	}

	campaign.Items = append(campaign.Items, PricingItem{FinalPrice: 50})
	if campaign.ReadyToSend() {
		t.Error("expected campaign with a mobile-less line not to be ready")
	}

	var empty PricingCampaign
	if empty.ReadyToSend() {
		t.Error("expected empty campaign not to be ready")
	}
}

func TestCampaignRefreshStatus(t *testing.T) {
	t.Parallel()

	campaign := PricingCampaign{
		Items: []PricingItem{
			{CustomerMobile: "+33612345678", FinalPrice: 100},
			{CustomerMobile: "+33698765432", FinalPrice: 200},
		},
	}

	campaign.RefreshStatus()
	if campaign.Status != CampaignStatusReady {
		t.Errorf("Status = %q, want ready", campaign.Status)
	}

	campaign.Items[0].SmsSent = true
	campaign.RefreshStatus()
	if campaign.Status != CampaignStatusPartiallySent {
		t.Errorf("Status = %q, want partially_sent", campaign.Status)
	}

	campaign.Items[1].SmsSent = true
	campaign.RefreshStatus()
	if campaign.Status != CampaignStatusSent {
		t.Errorf("Status = %q, want sent", campaign.Status)
	}

	var empty PricingCampaign
	empty.RefreshStatus()
	if empty.Status != CampaignStatusDraft {
		t.Errorf("empty campaign Status = %q, want draft", empty.Status)
	}
}

func TestCampaignROI(t *testing.T) {
	t.Parallel()

	campaign := PricingCampaign{EstimatedRevenue: 420, TotalSmsCost: 0.20}
	roi := campaign.ROI()

	if !almostEqual(roi.Profit, 419.80) {
		t.Errorf("Profit = %v, want 419.80", roi.Profit)
	}
	if !almostEqual(roi.RoiPercent, 419.80/0.20*100) {
		t.Errorf("RoiPercent = %v", roi.RoiPercent)
	}

	var free PricingCampaign
	if got := free.ROI(); got.RoiPercent != 0 {
		t.Errorf("RoiPercent without cost = %v, want 0", got.RoiPercent)
	}
}

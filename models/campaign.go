package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CampaignStatus represents valid campaign statuses
type CampaignStatus string

const (
	CampaignStatusDraft         CampaignStatus = "draft"
	CampaignStatusReady         CampaignStatus = "ready"
	CampaignStatusPartiallySent CampaignStatus = "partially_sent"
	CampaignStatusSent          CampaignStatus = "sent"
)

// Estimated gateway cost per SMS, in EUR.
const PerSmsCost = 0.10

// PricingCampaign is a batch of priced SMS offers, one per
// (customer, item) pair, dispatched together.
type PricingCampaign struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key"`
	Title     string         `gorm:"type:varchar(140);not null"`
	Company   string         `gorm:"type:varchar(140)"`
	Status    CampaignStatus `gorm:"type:varchar(20);default:'draft'"`
	Submitted bool           `gorm:"default:false"`

	SmsTemplate string `gorm:"type:text"`

	// Aggregates, recomputed on every validate/save
	TotalItems           int     `gorm:"default:0"`
	TotalCustomers       int     `gorm:"default:0"`
	EstimatedRevenue     float64 `gorm:"default:0"`
	ProfitPotential      float64 `gorm:"default:0"`
	AverageMarginPercent float64 `gorm:"default:0"`
	TotalSmsCost         float64 `gorm:"default:0"`

	SmsSentCount   int `gorm:"default:0"`
	SmsFailedCount int `gorm:"default:0"`
	LastSentTime   *time.Time

	Items []PricingItem `gorm:"foreignKey:CampaignID"`

	gorm.Model
}

func (c *PricingCampaign) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}

// PricingItem is one priced SMS offer line.
type PricingItem struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	CampaignID uuid.UUID `gorm:"type:uuid;index;not null"`

	CustomerID     *uuid.UUID `gorm:"type:uuid;index"`
	CustomerName   string     `gorm:"type:varchar(140);not null"`
	CustomerMobile string     `gorm:"type:varchar(20)"`

	ItemCode string `gorm:"type:varchar(140);not null"`
	ItemName string `gorm:"type:varchar(140)"`

	ValuationRate   float64 `gorm:"default:0"`
	MarginAmountEur float64 `gorm:"default:0"`
	Qty             float64 `gorm:"default:1"`
	Currency        string  `gorm:"type:varchar(3);default:'EUR'"`

	// Derived
	FinalPrice float64 `gorm:"default:0"`
	Amount     float64 `gorm:"default:0"`

	SelectedForSending bool   `gorm:"default:true"`
	SmsSent            bool   `gorm:"default:false"`
	SmsStatus          string `gorm:"type:varchar(20);default:'pending'"` // pending, sent, failed

	gorm.Model
}

func (i *PricingItem) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return
}

// Validate checks one pricing line.
func (i *PricingItem) Validate() error {
	if i.CustomerName == "" {
		return fmt.Errorf("customer is required")
	}
	if i.ItemCode == "" {
		return fmt.Errorf("item code is required")
	}
	if i.ValuationRate <= 0 {
		return fmt.Errorf("valuation rate is required for %s", i.DisplayItem())
	}
	if i.MarginAmountEur < 0 {
		return fmt.Errorf("margin cannot be negative for %s", i.DisplayItem())
	}
	return nil
}

// ComputePricing derives the final price and line amount.
// final_price = valuation_rate + margin; amount = final_price * qty.
func (i *PricingItem) ComputePricing() {
	qty := i.Qty
	if qty == 0 {
		qty = 1
		i.Qty = 1
	}
	i.Currency = "EUR"
	i.FinalPrice = i.ValuationRate + i.MarginAmountEur
	i.Amount = i.FinalPrice * qty
}

func (i *PricingItem) DisplayItem() string {
	if i.ItemName != "" {
		return i.ItemName
	}
	return i.ItemCode
}

// ComputeTotals recomputes the campaign aggregates from its items.
func (c *PricingCampaign) ComputeTotals() {
	uniqueCustomers := make(map[string]struct{})
	var totalAmount, totalMargin, totalValuation float64

	for idx := range c.Items {
		item := &c.Items[idx]
		if item.CustomerName != "" {
			uniqueCustomers[item.CustomerName] = struct{}{}
		}
		qty := item.Qty
		if qty == 0 {
			qty = 1
		}
		totalAmount += item.Amount
		totalMargin += item.MarginAmountEur * qty
		totalValuation += item.ValuationRate * qty
	}

	c.TotalItems = len(c.Items)
	c.TotalCustomers = len(uniqueCustomers)
	c.TotalSmsCost = float64(c.TotalCustomers) * PerSmsCost
	c.EstimatedRevenue = totalAmount
	c.ProfitPotential = totalMargin

	if totalValuation > 0 {
		c.AverageMarginPercent = totalMargin / totalValuation * 100
	} else {
		c.AverageMarginPercent = 0
	}
}

// ReadyToSend reports whether every line has a mobile and a price.
func (c *PricingCampaign) ReadyToSend() bool {
	if len(c.Items) == 0 {
		return false
	}
	for idx := range c.Items {
		if c.Items[idx].CustomerMobile == "" || c.Items[idx].FinalPrice == 0 {
			return false
		}
	}
	return true
}

// RefreshStatus derives the campaign status from its send progress.
func (c *PricingCampaign) RefreshStatus() {
	if len(c.Items) == 0 {
		c.Status = CampaignStatusDraft
		return
	}

	sent := 0
	for idx := range c.Items {
		if c.Items[idx].SmsSent {
			sent++
		}
	}

	switch {
	case sent == 0 && c.ReadyToSend():
		c.Status = CampaignStatusReady
	case sent == 0:
		c.Status = CampaignStatusDraft
	case sent == len(c.Items):
		c.Status = CampaignStatusSent
	default:
		c.Status = CampaignStatusPartiallySent
	}
}

// ROI summarizes campaign economics against the estimated SMS cost.
type CampaignROI struct {
	RoiPercent float64 `json:"roi_percent"`
	Revenue    float64 `json:"revenue"`
	Cost       float64 `json:"cost"`
	Profit     float64 `json:"profit"`
}

func (c *PricingCampaign) ROI() CampaignROI {
	roi := CampaignROI{
		Revenue: c.EstimatedRevenue,
		Cost:    c.TotalSmsCost,
		Profit:  c.EstimatedRevenue - c.TotalSmsCost,
	}
	if c.TotalSmsCost > 0 {
		roi.RoiPercent = (c.EstimatedRevenue - c.TotalSmsCost) / c.TotalSmsCost * 100
	}
	return roi
}

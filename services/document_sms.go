// services/document_sms.go
package services

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"ovhsms-backend/models"
	"ovhsms-backend/utils"
)

// Document types the host ERP notifies us about on submit.
const (
	DocTypeSalesOrder    = "sales_order"
	DocTypePayment       = "payment"
	DocTypeDelivery      = "delivery"
	DocTypePurchaseOrder = "purchase_order"
)

// DocumentEvent is the submission payload posted by the host ERP. Only
// the fields this system reads are modeled; everything else stays on
// the ERP side.
type DocumentEvent struct {
	DocType      string     `json:"doc_type" binding:"required"`
	Name         string     `json:"name" binding:"required"`
	Customer     string     `json:"customer"`
	CustomerID   *uuid.UUID `json:"customer_id"`
	Supplier     string     `json:"supplier"`
	SupplierName string     `json:"supplier_name"`
	Mobile       string     `json:"mobile"`
	GrandTotal   float64    `json:"grand_total"`
	PaidAmount   float64    `json:"paid_amount"`
	Currency     string     `json:"currency"`
	Date         string     `json:"date"`
}

// DocumentSmsService sends the per-doctype notification SMS when the
// corresponding feature flag is enabled and a mobile is resolvable.
type DocumentSmsService struct {
	db  *gorm.DB
	sms *SmsService
}

func NewDocumentSmsService(db *gorm.DB) *DocumentSmsService {
	return &DocumentSmsService{db: db, sms: NewSmsService(db)}
}

// HandleSubmission processes one submitted document. The second return
// value reports whether a send was attempted at all; a disabled flag or
// unresolvable mobile is a silent no-op, matching the hook contract.
func (s *DocumentSmsService) HandleSubmission(event *DocumentEvent) (*SendOutcome, bool) {
	settings, err := s.sms.Settings()
	if err != nil || !settings.Enabled {
		return nil, false
	}

	var template string
	switch event.DocType {
	case DocTypeSalesOrder:
		if !settings.EnableSalesOrderSMS {
			return nil, false
		}
		template = settings.SalesOrderTemplate
	case DocTypePayment:
		if !settings.EnablePaymentSMS {
			return nil, false
		}
		template = settings.PaymentTemplate
	case DocTypeDelivery:
		if !settings.EnableDeliverySMS {
			return nil, false
		}
		template = settings.DeliveryTemplate
	case DocTypePurchaseOrder:
		if !settings.EnablePurchaseOrderSMS {
			return nil, false
		}
		template = settings.PurchaseOrderTemplate
	default:
		return nil, false
	}

	if template == "" {
		return nil, false
	}

	mobile := s.resolveMobile(event)
	if mobile == "" {
		return nil, false
	}

	context := map[string]interface{}{
		"name":          event.Name,
		"customer":      event.Customer,
		"supplier":      event.Supplier,
		"supplier_name": event.SupplierName,
		"grand_total":   event.GrandTotal,
		"paid_amount":   event.PaidAmount,
		"currency":      event.Currency,
		"date":          event.Date,
	}

	message := utils.RenderTemplate(template, context)
	return s.sms.SendSMS(message, mobile, ""), true
}

// resolveMobile prefers the mobile carried on the payload, else the
// referenced customer's own number or first linked contact.
func (s *DocumentSmsService) resolveMobile(event *DocumentEvent) string {
	if event.Mobile != "" {
		return event.Mobile
	}
	if event.CustomerID == nil {
		return ""
	}

	var customer models.Customer
	if err := s.db.First(&customer, "id = ?", *event.CustomerID).Error; err != nil {
		return ""
	}
	if customer.MobileNo != "" {
		return customer.MobileNo
	}

	var contact models.Contact
	err := s.db.
		Where("customer_id = ?", customer.ID).
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

package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"ovhsms-backend/config"
	"ovhsms-backend/models"
	"ovhsms-backend/utils"
)

// CreateCustomerInput defines the expected JSON structure for creating a customer
type CreateCustomerInput struct {
	Name     string  `json:"name" binding:"required"`
	MobileNo string  `json:"mobileNo"`
	Email    *string `json:"email"`
}

// UpdateCustomerInput defines the expected JSON structure for updating a customer
type UpdateCustomerInput struct {
	Name     *string `json:"name"`
	MobileNo *string `json:"mobileNo"`
	Email    *string `json:"email"`
	IsActive *bool   `json:"isActive"`
}

// CreateCustomer creates a new customer
func CreateCustomer(c *gin.Context) {
	var input CreateCustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if input.MobileNo != "" && !utils.ValidatePhone(input.MobileNo) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid mobile number format")
		return
	}

	customer := models.Customer{
		ID:       uuid.New(),
		Name:     input.Name,
		MobileNo: input.MobileNo,
		IsActive: true,
	}
	if input.Email != nil {
		customer.Email = *input.Email
	}

	if err := config.DB.Create(&customer).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create customer")
		return
	}

	c.JSON(http.StatusCreated, customer)
}

// GetCustomers retrieves all customers
func GetCustomers(c *gin.Context) {
	var customers []models.Customer
	if err := config.DB.Find(&customers).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve customers")
		return
	}

	c.JSON(http.StatusOK, customers)
}

// GetCustomer retrieves a specific customer by ID
func GetCustomer(c *gin.Context) {
	customerUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid customer ID format")
		return
	}

	var customer models.Customer
	if err := config.DB.Where("id = ?", customerUUID).First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Customer not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, customer)
}

// UpdateCustomer updates an existing customer
func UpdateCustomer(c *gin.Context) {
	customerUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid customer ID format")
		return
	}

	var input UpdateCustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var customer models.Customer
	if err := config.DB.Where("id = ?", customerUUID).First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Customer not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if input.Name != nil {
		customer.Name = *input.Name
	}
	if input.MobileNo != nil {
		if *input.MobileNo != "" && !utils.ValidatePhone(*input.MobileNo) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid mobile number format")
			return
		}
		customer.MobileNo = *input.MobileNo
	}
	if input.Email != nil {
		customer.Email = *input.Email
	}
	if input.IsActive != nil {
		customer.IsActive = *input.IsActive
	}

	if err := config.DB.Save(&customer).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update customer")
		return
	}

	c.JSON(http.StatusOK, customer)
}

// DeleteCustomer soft deletes a customer
func DeleteCustomer(c *gin.Context) {
	customerUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid customer ID format")
		return
	}

	result := config.DB.Where("id = ?", customerUUID).Delete(&models.Customer{})
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete customer")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Customer not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Customer deleted successfully"})
}

// CreateContactInput defines the expected JSON structure for adding a
// contact number to a customer
type CreateContactInput struct {
	CustomerID uuid.UUID `json:"customerId" binding:"required"`
	MobileNo   string    `json:"mobileNo"`
	Phone      string    `json:"phone"`
}

// CreateContact attaches a phone contact to a customer
func CreateContact(c *gin.Context) {
	var input CreateContactInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if input.MobileNo == "" && input.Phone == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "Contact requires a mobile or phone number")
		return
	}

	var customer models.Customer
	if err := config.DB.Where("id = ?", input.CustomerID).First(&customer).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Customer not found")
		return
	}

	contact := models.Contact{
		ID:         uuid.New(),
		CustomerID: input.CustomerID,
		MobileNo:   input.MobileNo,
		Phone:      input.Phone,
	}

	if err := config.DB.Create(&contact).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create contact")
		return
	}

	c.JSON(http.StatusCreated, contact)
}

// GetContacts lists the contacts of a customer
func GetContacts(c *gin.Context) {
	customerUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid customer ID format")
		return
	}

	var contacts []models.Contact
	if err := config.DB.Where("customer_id = ?", customerUUID).Find(&contacts).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve contacts")
		return
	}

	c.JSON(http.StatusOK, contacts)
}

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

// CreateEmployeeInput defines the expected JSON structure for creating an employee
type CreateEmployeeInput struct {
	Name          string `json:"name" binding:"required"`
	CellNumber    string `json:"cellNumber"`
	PersonalPhone string `json:"personalPhone"`
	Phone         string `json:"phone"`
}

// UpdateEmployeeInput defines the expected JSON structure for updating an employee
type UpdateEmployeeInput struct {
	Name          *string `json:"name"`
	CellNumber    *string `json:"cellNumber"`
	PersonalPhone *string `json:"personalPhone"`
	Phone         *string `json:"phone"`
	IsActive      *bool   `json:"isActive"`
}

// CreateEmployee creates a new employee
func CreateEmployee(c *gin.Context) {
	var input CreateEmployeeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	employee := models.Employee{
		ID:            uuid.New(),
		Name:          input.Name,
		CellNumber:    input.CellNumber,
		PersonalPhone: input.PersonalPhone,
		Phone:         input.Phone,
		IsActive:      true,
	}

	if err := config.DB.Create(&employee).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create employee")
		return
	}

	c.JSON(http.StatusCreated, employee)
}

// GetEmployees retrieves all employees
func GetEmployees(c *gin.Context) {
	var employees []models.Employee
	if err := config.DB.Find(&employees).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve employees")
		return
	}

	c.JSON(http.StatusOK, employees)
}

// GetEmployee retrieves a specific employee by ID
func GetEmployee(c *gin.Context) {
	employeeUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid employee ID format")
		return
	}

	var employee models.Employee
	if err := config.DB.Where("id = ?", employeeUUID).First(&employee).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Employee not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, employee)
}

// UpdateEmployee updates an existing employee
func UpdateEmployee(c *gin.Context) {
	employeeUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid employee ID format")
		return
	}

	var input UpdateEmployeeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var employee models.Employee
	if err := config.DB.Where("id = ?", employeeUUID).First(&employee).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Employee not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if input.Name != nil {
		employee.Name = *input.Name
	}
	if input.CellNumber != nil {
		employee.CellNumber = *input.CellNumber
	}
	if input.PersonalPhone != nil {
		employee.PersonalPhone = *input.PersonalPhone
	}
	if input.Phone != nil {
		employee.Phone = *input.Phone
	}
	if input.IsActive != nil {
		employee.IsActive = *input.IsActive
	}

	if err := config.DB.Save(&employee).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update employee")
		return
	}

	c.JSON(http.StatusOK, employee)
}

// DeleteEmployee soft deletes an employee
func DeleteEmployee(c *gin.Context) {
	employeeUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid employee ID format")
		return
	}

	result := config.DB.Where("id = ?", employeeUUID).Delete(&models.Employee{})
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete employee")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Employee not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Employee deleted successfully"})
}

package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ovhsms-backend/config"
	"ovhsms-backend/services"
	"ovhsms-backend/utils"
)

// DocumentSubmitted receives the on-submit webhook from the host ERP
// and triggers the per-doctype notification SMS. A disabled flag or
// missing mobile is not an error from the caller's point of view.
func DocumentSubmitted(c *gin.Context) {
	var event services.DocumentEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid payload: "+err.Error())
		return
	}

	svc := services.NewDocumentSmsService(config.DB)
	outcome, attempted := svc.HandleSubmission(&event)
	if !attempted {
		utils.RespondWithResult(c, http.StatusOK, true, "No SMS configured for this document", gin.H{
			"attempted": false,
		})
		return
	}

	utils.RespondWithResult(c, http.StatusOK, outcome.Success, outcome.Message, gin.H{
		"attempted":  true,
		"senderUsed": outcome.SenderUsed,
	})
}

package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sweetlayer/cakeshop/feed"
	"github.com/sweetlayer/cakeshop/models"
	"github.com/sweetlayer/cakeshop/services"
	"github.com/sweetlayer/cakeshop/utils"
)

// PaymentController drives the checkout flow against PayPal. The
// charge amount is always recomputed here from the order's item
// snapshot; client-supplied totals are never trusted.
type PaymentController struct {
	DB     *gorm.DB
	PayPal *services.PayPalService
}

func NewPaymentController(db *gorm.DB, paypal *services.PayPalService) *PaymentController {
	return &PaymentController{DB: db, PayPal: paypal}
}

// Checkout creates a payment intent for an approved order. The KM
// total is converted to EUR at the fixed rate before the remote order
// is created.
func (pc *PaymentController) Checkout(c *gin.Context) {
	userIDInterface, exists := c.Get("user_id")
	if !exists {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("not authenticated"))
		return
	}

	var req struct {
		OrderID uint `json:"order_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var order models.Order
	if err := pc.DB.First(&order, req.OrderID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	if order.UserID != userIDInterface {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	// Server-side gate: the original left this check to the client,
	// which let a bypassed UI pay for a non-approved order.
	if order.Status != models.StatusApproved {
		utils.RespondError(c, http.StatusBadRequest, errors.New("order is not approved for payment"))
		return
	}

	amountKM := order.Total()
	amountEUR := utils.ConvertKMToEUR(amountKM)

	reference, err := pc.PayPal.CreateOrder(amountEUR,
		fmt.Sprintf("Cake order #%d payment (%s)", order.ID, utils.FormatKM(amountKM)))
	if err != nil {
		utils.ErrorLogger.Printf("PayPal order creation failed for order %d: %v", order.ID, err)
		utils.RespondError(c, http.StatusBadGateway, err)
		return
	}

	payment := models.Payment{
		OrderID:   order.ID,
		Reference: reference,
		AmountKM:  amountKM,
		AmountEUR: amountEUR,
		Status:    models.PaymentStatusCreated,
	}
	if err := pc.DB.Create(&payment).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Payment created", payment)
}

// Capture settles a created payment. A confirmed capture marks the
// payment captured and advances the order to ready_for_collecting in
// the same transaction, so a paid order can never linger as merely
// approved.
func (pc *PaymentController) Capture(c *gin.Context) {
	userIDInterface, exists := c.Get("user_id")
	if !exists {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("not authenticated"))
		return
	}

	reference := c.Param("reference")

	var payment models.Payment
	if err := pc.DB.Where("reference = ?", reference).First(&payment).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	// Same ownership gate as checkout; a leaked reference must not let
	// another account drive the capture.
	var order models.Order
	if err := pc.DB.First(&order, payment.OrderID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if order.UserID != userIDInterface {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	if payment.Status == models.PaymentStatusCaptured {
		utils.RespondError(c, http.StatusBadRequest, errors.New("payment already captured"))
		return
	}

	completed, err := pc.PayPal.CaptureOrder(reference)
	if err != nil {
		utils.ErrorLogger.Printf("PayPal capture failed for payment %s: %v", reference, err)
		utils.RespondError(c, http.StatusBadGateway, err)
		return
	}

	if !completed {
		pc.DB.Model(&payment).Update("status", models.PaymentStatusFailed)
		utils.RespondError(c, http.StatusBadGateway, errors.New("payment capture was not completed"))
		return
	}

	now := time.Now()
	err = pc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&payment).Updates(map[string]interface{}{
			"status":      models.PaymentStatusCaptured,
			"captured_at": &now,
		}).Error; err != nil {
			return err
		}
		if err := tx.First(&order, payment.OrderID).Error; err != nil {
			return err
		}
		return tx.Model(&order).Update("status", models.StatusReadyForCollecting).Error
	})
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	payment.Status = models.PaymentStatusCaptured
	payment.CapturedAt = &now
	order.Status = models.StatusReadyForCollecting
	feed.BroadcastPaymentUpdate(payment, order)

	utils.RespondJSON(c, http.StatusOK, "Payment captured", gin.H{
		"payment": payment,
		"order":   order,
	})
}

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
	"github.com/sweetlayer/cakeshop/utils"
)

type OrderController struct {
	DB *gorm.DB
}

func NewOrderController(db *gorm.DB) *OrderController {
	return &OrderController{DB: db}
}

// SubmitOrder turns the caller's cart into a persisted order with
// status sent_for_approval. The preconditions (authenticated caller,
// non-empty cart, valid needed-for date, every item priced) are checked
// independently so each failure reports its own reason. The cart is
// cleared only after the insert succeeds; a failed insert leaves it
// intact.
func (oc *OrderController) SubmitOrder(c *gin.Context) {
	userIDInterface, exists := c.Get("user_id")
	if !exists {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("not authenticated"))
		return
	}
	userID := userIDInterface.(uint)

	var req struct {
		NeededForDate string `json:"needed_for_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if req.NeededForDate == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("needed for date is required"))
		return
	}
	neededFor, err := time.ParseInLocation("2006-01-02", req.NeededForDate, time.Local)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("needed for date must be formatted YYYY-MM-DD"))
		return
	}
	today := time.Now()
	todayDate := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.Local)
	if neededFor.Before(todayDate) {
		utils.RespondError(c, http.StatusBadRequest, errors.New("needed for date cannot be in the past"))
		return
	}

	key, err := cartKey(c)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var items []models.CartItem
	if err := oc.DB.Where("cart_key = ?", key).Order("position asc").Find(&items).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if len(items) == 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("cart is empty"))
		return
	}

	for _, item := range items {
		if item.Price == nil {
			utils.RespondError(c, http.StatusBadRequest,
				fmt.Errorf("item %q has no price; choose a size first", item.Title))
			return
		}
	}

	// Identity snapshot: later profile edits must not touch this order.
	var user models.User
	if err := oc.DB.First(&user, userID).Error; err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("not authenticated"))
		return
	}

	order := models.Order{
		UserID:        user.ID,
		UserEmail:     user.Email,
		UserPhone:     user.Phone,
		Items:         models.SnapshotItems(items),
		NeededForDate: req.NeededForDate,
		Status:        models.StatusSentForApproval,
	}

	if err := oc.DB.Create(&order).Error; err != nil {
		utils.ErrorLogger.Printf("Order insert failed for user %d: %v", user.ID, err)
		utils.RespondError(c, http.StatusInternalServerError, errors.New("insert failed"))
		return
	}

	// Clear after the insert has committed, so a failure above keeps
	// the cart.
	if err := oc.DB.Where("cart_key = ?", key).Delete(&models.CartItem{}).Error; err != nil {
		utils.ErrorLogger.Printf("Failed to clear cart %s after order %d: %v", key, order.ID, err)
	}

	feed.BroadcastOrderCreated(order)

	utils.RespondJSON(c, http.StatusCreated, "Order sent for approval", order)
}

// GetMyOrders lists the caller's own orders, newest first.
func (oc *OrderController) GetMyOrders(c *gin.Context) {
	userIDInterface, exists := c.Get("user_id")
	if !exists {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("not authenticated"))
		return
	}

	var orders []models.Order
	if err := oc.DB.Where("user_id = ?", userIDInterface).
		Order("created_at desc").
		Find(&orders).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Your orders", orders)
}

// GetAllOrders lists every order for the admin review screen, newest
// first and unfiltered by owner.
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	var orders []models.Order
	if err := oc.DB.Order("created_at desc").Find(&orders).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

// GetOrderByID returns one order. Customers only see their own.
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	var order models.Order
	if err := oc.DB.First(&order, c.Param("order_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	role, _ := c.Get("role")
	userID, _ := c.Get("user_id")
	if role != models.RoleAdmin && order.UserID != userID {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// UpdateOrder applies an admin review edit: status, note and
// not-approved reason, in one atomic row update. Items, identity
// snapshot and needed-for date are immutable. Any status-to-status
// move is accepted (the admin screen offers free selection; see the
// dashboard notes), except a rejection without a reason. Concurrent
// admin edits are last-write-wins.
func (oc *OrderController) UpdateOrder(c *gin.Context) {
	var order models.Order
	if err := oc.DB.First(&order, c.Param("order_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	var req struct {
		Status            *string `json:"status"`
		AdminNote         *string `json:"admin_note"`
		NotApprovedReason *string `json:"not_approved_reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	updates := map[string]interface{}{}

	if req.Status != nil {
		if !models.IsOrderStatus(*req.Status) {
			utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("unknown status %q", *req.Status))
			return
		}

		if *req.Status == models.StatusNotApproved {
			reason := order.NotApprovedReason
			if req.NotApprovedReason != nil {
				reason = *req.NotApprovedReason
			}
			if reason == "" {
				utils.RespondError(c, http.StatusBadRequest,
					errors.New("a reason is required when an order is not approved"))
				return
			}
			if !models.IsNotApprovedReason(reason) {
				utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("unknown reason %q", reason))
				return
			}
			updates["not_approved_reason"] = reason
		} else {
			// The reason only exists alongside not_approved.
			updates["not_approved_reason"] = ""
		}

		if *req.Status != order.Status && !models.IsForwardTransition(order.Status, *req.Status) {
			utils.InfoLogger.Printf("Order %d status moved backwards: %s -> %s", order.ID, order.Status, *req.Status)
		}
		updates["status"] = *req.Status
	} else if req.NotApprovedReason != nil {
		if order.Status != models.StatusNotApproved {
			utils.RespondError(c, http.StatusBadRequest,
				errors.New("a reason can only be set on a not approved order"))
			return
		}
		if !models.IsNotApprovedReason(*req.NotApprovedReason) {
			utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("unknown reason %q", *req.NotApprovedReason))
			return
		}
		updates["not_approved_reason"] = *req.NotApprovedReason
	}

	if req.AdminNote != nil {
		updates["admin_note"] = *req.AdminNote
	}

	if len(updates) == 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("nothing to update"))
		return
	}

	if err := oc.DB.Model(&order).Updates(updates).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	if err := oc.DB.First(&order, order.ID).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	feed.BroadcastOrderUpdate(order)

	utils.RespondJSON(c, http.StatusOK, "Order updated", order)
}

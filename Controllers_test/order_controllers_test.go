package Controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sweetlayer/cakeshop/controllers"
	"github.com/sweetlayer/cakeshop/models"
	"github.com/sweetlayer/cakeshop/utils"
)

func setupTestDBForOrders(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file:ordertest?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}
	err = db.AutoMigrate(&models.User{}, &models.CartItem{}, &models.Order{})
	if err != nil {
		panic(err)
	}
	customer := models.User{
		Name:     "Amila",
		Email:    "amila@example.com",
		Phone:    "+387 61 123 456",
		Password: "secret",
		Role:     models.RoleCustomer,
	}
	db.Where(models.User{Email: customer.Email}).FirstOrCreate(&customer)
	t.Cleanup(func() {
		db.Where("1 = 1").Delete(&models.Order{})
		db.Where("1 = 1").Delete(&models.CartItem{})
	})
	return db
}

// asUser stands in for the auth middleware.
func asUser(userID uint, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("role", role)
		c.Next()
	}
}

func setupOrderRouter(db *gorm.DB, userID uint) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.Default()
	orderCtrl := controllers.NewOrderController(db)
	cartCtrl := controllers.NewCartController(db)

	router.POST("/cart/items", cartCtrl.AddItem)
	router.GET("/cart", cartCtrl.GetCart)

	auth := router.Group("/")
	auth.Use(asUser(userID, models.RoleCustomer))
	{
		auth.POST("/orders", orderCtrl.SubmitOrder)
		auth.GET("/orders", orderCtrl.GetMyOrders)
		auth.GET("/orders/:order_id", orderCtrl.GetOrderByID)
	}

	admin := router.Group("/admin")
	admin.Use(asUser(99, models.RoleAdmin))
	{
		admin.GET("/orders", orderCtrl.GetAllOrders)
		admin.PATCH("/orders/:order_id", orderCtrl.UpdateOrder)
	}

	// No identity at all, for the authentication precondition.
	router.POST("/anonymous/orders", orderCtrl.SubmitOrder)

	return router
}

func seedCart(db *gorm.DB, cartKey string) {
	chocolate := 48.0
	custom := 80.0
	db.Create(&models.CartItem{ID: "item-1", CartKey: "device:" + cartKey, Position: 0, Title: "Chocolate", Size: "Medium", Source: "catalog", Price: &chocolate})
	db.Create(&models.CartItem{ID: "item-2", CartKey: "device:" + cartKey, Position: 1, Title: "Custom design cake", Size: "14–18 people (one tier)", Taste: "Oreo", Source: "custom", Price: &custom})
}

func submitOrder(router *gin.Engine, path, cartKey string, payload interface{}) *httptest.ResponseRecorder {
	payloadBytes, _ := json.Marshal(payload)
	req, _ := http.NewRequest("POST", path, bytes.NewBuffer(payloadBytes))
	req.Header.Set("Content-Type", "application/json")
	if cartKey != "" {
		req.Header.Set("X-Cart-Key", cartKey)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func tomorrow() string {
	return time.Now().AddDate(0, 0, 1).Format("2006-01-02")
}

func TestSubmitOrderRequiresAuthentication(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForOrders(t)
	router := setupOrderRouter(db, 1)
	seedCart(db, "submit-auth")

	w := submitOrder(router, "/anonymous/orders", "submit-auth", map[string]interface{}{
		"needed_for_date": tomorrow(),
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err)
	assert.Equal(t, "not authenticated", resp["message"])

	// The cart survives the rejection.
	var count int64
	db.Model(&models.CartItem{}).Where("cart_key = ?", "device:submit-auth").Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestSubmitOrderRequiresNonEmptyCart(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForOrders(t)
	router := setupOrderRouter(db, 1)

	w := submitOrder(router, "/orders", "submit-empty", map[string]interface{}{
		"needed_for_date": tomorrow(),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err)
	assert.Equal(t, "cart is empty", resp["message"])
}

func TestSubmitOrderValidatesNeededForDate(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForOrders(t)
	router := setupOrderRouter(db, 1)
	seedCart(db, "submit-date")

	// Missing date.
	w := submitOrder(router, "/orders", "submit-date", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Bad format.
	w = submitOrder(router, "/orders", "submit-date", map[string]interface{}{
		"needed_for_date": "31/12/2026",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Yesterday.
	w = submitOrder(router, "/orders", "submit-date", map[string]interface{}{
		"needed_for_date": time.Now().AddDate(0, 0, -1).Format("2006-01-02"),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Today is the earliest acceptable date.
	w = submitOrder(router, "/orders", "submit-date", map[string]interface{}{
		"needed_for_date": time.Now().Format("2006-01-02"),
	})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestSubmitOrderSnapshotsCartAndClearsIt(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForOrders(t)
	router := setupOrderRouter(db, 1)
	seedCart(db, "submit-ok")

	w := submitOrder(router, "/orders", "submit-ok", map[string]interface{}{
		"needed_for_date": tomorrow(),
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err)
	assert.Equal(t, "Order sent for approval", resp["message"])
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "sent_for_approval", data["status"])
	assert.Equal(t, "amila@example.com", data["user_email"])
	assert.Equal(t, "+387 61 123 456", data["user_phone"])
	items := data["items"].([]interface{})
	assert.Len(t, items, 2)

	// The cart's only flush point: submission.
	var count int64
	db.Model(&models.CartItem{}).Where("cart_key = ?", "device:submit-ok").Count(&count)
	assert.Equal(t, int64(0), count)

	orderID := uint(data["id"].(float64))
	var order models.Order
	assert.NoError(t, db.First(&order, orderID).Error)
	assert.Equal(t, 128.0, order.Total())
}

func TestOrderSnapshotSurvivesAdminEdits(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForOrders(t)
	router := setupOrderRouter(db, 1)
	seedCart(db, "snapshot")

	w := submitOrder(router, "/orders", "snapshot", map[string]interface{}{
		"needed_for_date": tomorrow(),
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err)
	orderID := uint(resp["data"].(map[string]interface{})["id"].(float64))

	var before models.Order
	assert.NoError(t, db.First(&before, orderID).Error)

	patch := map[string]interface{}{
		"status":     "approved",
		"admin_note": "Collect after 14:00",
	}
	patchBytes, _ := json.Marshal(patch)
	req, _ := http.NewRequest("PATCH", fmt.Sprintf("/admin/orders/%d", orderID), bytes.NewBuffer(patchBytes))
	req.Header.Set("Content-Type", "application/json")
	wPatch := httptest.NewRecorder()
	router.ServeHTTP(wPatch, req)
	assert.Equal(t, http.StatusOK, wPatch.Code)

	var after models.Order
	assert.NoError(t, db.First(&after, orderID).Error)
	assert.Equal(t, "approved", after.Status)
	assert.Equal(t, "Collect after 14:00", after.AdminNote)
	// Immutable parts.
	assert.Equal(t, before.Items, after.Items)
	assert.Equal(t, before.NeededForDate, after.NeededForDate)
	assert.Equal(t, before.UserEmail, after.UserEmail)
	assert.Equal(t, before.UserPhone, after.UserPhone)
}

func patchOrder(router *gin.Engine, orderID uint, payload interface{}) *httptest.ResponseRecorder {
	payloadBytes, _ := json.Marshal(payload)
	req, _ := http.NewRequest("PATCH", fmt.Sprintf("/admin/orders/%d", orderID), bytes.NewBuffer(payloadBytes))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createSubmittedOrder(t *testing.T, db *gorm.DB, router *gin.Engine, cartKey string) uint {
	t.Helper()
	seedCart(db, cartKey)
	w := submitOrder(router, "/orders", cartKey, map[string]interface{}{
		"needed_for_date": tomorrow(),
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err)
	return uint(resp["data"].(map[string]interface{})["id"].(float64))
}

func TestNotApprovedRequiresAReason(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForOrders(t)
	router := setupOrderRouter(db, 1)
	orderID := createSubmittedOrder(t, db, router, "reject-reason")

	// No reason: rejected.
	w := patchOrder(router, orderID, map[string]interface{}{"status": "not_approved"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Reason outside the fixed set: rejected.
	w = patchOrder(router, orderID, map[string]interface{}{
		"status":              "not_approved",
		"not_approved_reason": "We were on holiday",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// A fixed reason: accepted.
	w = patchOrder(router, orderID, map[string]interface{}{
		"status":              "not_approved",
		"not_approved_reason": "Date fully booked",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var order models.Order
	assert.NoError(t, db.First(&order, orderID).Error)
	assert.Equal(t, "not_approved", order.Status)
	assert.Equal(t, "Date fully booked", order.NotApprovedReason)
}

func TestReasonClearedWhenOrderLeavesNotApproved(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForOrders(t)
	router := setupOrderRouter(db, 1)
	orderID := createSubmittedOrder(t, db, router, "reject-clear")

	w := patchOrder(router, orderID, map[string]interface{}{
		"status":              "not_approved",
		"not_approved_reason": "Design not feasible",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	// The admin changes their mind.
	w = patchOrder(router, orderID, map[string]interface{}{"status": "approved"})
	assert.Equal(t, http.StatusOK, w.Code)

	var order models.Order
	assert.NoError(t, db.First(&order, orderID).Error)
	assert.Equal(t, "approved", order.Status)
	assert.Equal(t, "", order.NotApprovedReason)
}

func TestAnyStatusMoveIsAccepted(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForOrders(t)
	router := setupOrderRouter(db, 1)
	orderID := createSubmittedOrder(t, db, router, "free-moves")

	// Forward to the end of the lifecycle.
	for _, status := range []string{"approved", "ready_for_collecting", "collected"} {
		w := patchOrder(router, orderID, map[string]interface{}{"status": status})
		assert.Equal(t, http.StatusOK, w.Code)
	}

	// And all the way back: the review screen offers free selection.
	w := patchOrder(router, orderID, map[string]interface{}{"status": "sent_for_approval"})
	assert.Equal(t, http.StatusOK, w.Code)

	var order models.Order
	assert.NoError(t, db.First(&order, orderID).Error)
	assert.Equal(t, "sent_for_approval", order.Status)

	// But never to a status outside the lifecycle.
	w = patchOrder(router, orderID, map[string]interface{}{"status": "shipped"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCustomersOnlySeeTheirOwnOrders(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForOrders(t)
	router := setupOrderRouter(db, 1)
	orderID := createSubmittedOrder(t, db, router, "ownership")

	other := models.User{Name: "Selma", Email: "selma@example.com", Password: "secret", Role: models.RoleCustomer}
	db.Where(models.User{Email: other.Email}).FirstOrCreate(&other)

	otherRouter := setupOrderRouter(db, other.ID)
	req, _ := http.NewRequest("GET", fmt.Sprintf("/orders/%d", orderID), nil)
	w := httptest.NewRecorder()
	otherRouter.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// The owner sees it.
	req, _ = http.NewRequest("GET", fmt.Sprintf("/orders/%d", orderID), nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// My-orders lists only the owner's orders.
	req, _ = http.NewRequest("GET", "/orders", nil)
	w = httptest.NewRecorder()
	otherRouter.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err)
	assert.Empty(t, resp["data"])
}

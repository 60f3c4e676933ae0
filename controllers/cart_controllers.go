package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sweetlayer/cakeshop/models"
	"github.com/sweetlayer/cakeshop/utils"
	"gorm.io/gorm"
)

// CartController manages the device-scoped cart. Writes are
// last-write-wins; the cart's only flush point is order submission.
type CartController struct {
	DB *gorm.DB
}

func NewCartController(db *gorm.DB) *CartController {
	return &CartController{DB: db}
}

// cartKey resolves which cart a request addresses. A client-generated
// device key (X-Cart-Key) behaves like the original localStorage cart:
// scoped to one device, usable before login. Authenticated requests
// without a device key fall back to a user-scoped cart.
func cartKey(c *gin.Context) (string, error) {
	if key := c.GetHeader("X-Cart-Key"); key != "" {
		if len(key) > 64 {
			return "", errors.New("cart key too long")
		}
		return "device:" + key, nil
	}
	if userID, exists := c.Get("user_id"); exists {
		return fmt.Sprintf("user:%d", userID.(uint)), nil
	}
	return "", errors.New("missing X-Cart-Key header")
}

func (cc *CartController) loadItems(key string) ([]models.CartItem, error) {
	var items []models.CartItem
	err := cc.DB.Where("cart_key = ?", key).Order("position asc").Find(&items).Error
	return items, err
}

// GetCart returns the items in insertion order plus the computed total.
func (cc *CartController) GetCart(c *gin.Context) {
	key, err := cartKey(c)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	items, err := cc.loadItems(key)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Cart", gin.H{
		"items": items,
		"total": models.CartTotal(items),
	})
}

// AddItem appends one line item. The price is always resolved
// server-side: from the catalog registry for catalog items, from the
// headcount tier table for custom items. An item whose price cannot be
// resolved is rejected, never silently added.
func (cc *CartController) AddItem(c *gin.Context) {
	key, err := cartKey(c)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	type addRequest struct {
		ID            string  `json:"id"`
		Title         string  `json:"title" binding:"required"`
		Size          string  `json:"size"`
		Taste         string  `json:"taste"`
		Notes         string  `json:"notes"`
		Source        string  `json:"source" binding:"required"`
		AIImage       *string `json:"ai_image"`
		UploadedImage *string `json:"uploaded_image"`
	}

	var req addRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var price float64
	var ok bool
	switch req.Source {
	case models.SourceCatalog:
		price, ok = models.CatalogPrice(req.Title, req.Size)
	case models.SourceCustom:
		price, ok = models.CustomSizePrice(req.Size)
	default:
		utils.RespondError(c, http.StatusBadRequest, errors.New("source must be catalog or custom"))
		return
	}
	if !ok {
		utils.RespondError(c, http.StatusBadRequest,
			fmt.Errorf("no price for size %q; choose a size before adding to cart", req.Size))
		return
	}

	// Exactly one design source per custom item. An AI-selected design
	// wins over an uploaded image when both are present.
	var image *string
	if req.AIImage != nil && *req.AIImage != "" {
		image = req.AIImage
	} else if req.UploadedImage != nil && *req.UploadedImage != "" {
		image = req.UploadedImage
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	// max+1, not row count: removals leave gaps, and reusing a taken
	// position would make the insertion order ambiguous.
	var maxPos int
	row := cc.DB.Model(&models.CartItem{}).Where("cart_key = ?", key).
		Select("COALESCE(MAX(position), -1)").Row()
	if err := row.Scan(&maxPos); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	item := models.CartItem{
		ID:       id,
		CartKey:  key,
		Position: maxPos + 1,
		Title:    req.Title,
		Image:    image,
		Size:     req.Size,
		Taste:    req.Taste,
		Notes:    req.Notes,
		Source:   req.Source,
		Price:    &price,
	}

	if err := cc.DB.Create(&item).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Item added to cart", item)
}

// RemoveItem removes the first item matching the id. A missing id is a
// no-op, not an error.
func (cc *CartController) RemoveItem(c *gin.Context) {
	key, err := cartKey(c)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	itemID := c.Param("item_id")
	if err := cc.DB.Where("cart_key = ? AND id = ?", key, itemID).Delete(&models.CartItem{}).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	items, err := cc.loadItems(key)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Item removed", gin.H{
		"items": items,
		"total": models.CartTotal(items),
	})
}

// ReplaceCart swaps the whole cart for the given items. Devices syncing
// the same cart race on this endpoint; the last write wins.
func (cc *CartController) ReplaceCart(c *gin.Context) {
	key, err := cartKey(c)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var req struct {
		Items []models.CartItem `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	// Prices are re-resolved here exactly as in AddItem. The request
	// body carries a price field for client-side previews, but it never
	// reaches the stored cart.
	for i := range req.Items {
		item := &req.Items[i]
		var price float64
		var ok bool
		switch item.Source {
		case models.SourceCatalog:
			price, ok = models.CatalogPrice(item.Title, item.Size)
		case models.SourceCustom:
			price, ok = models.CustomSizePrice(item.Size)
		default:
			utils.RespondError(c, http.StatusBadRequest, errors.New("source must be catalog or custom"))
			return
		}
		if !ok {
			utils.RespondError(c, http.StatusBadRequest,
				fmt.Errorf("no price for size %q; choose a size before adding to cart", item.Size))
			return
		}
		item.Price = &price
	}

	err = cc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_key = ?", key).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		for i := range req.Items {
			item := req.Items[i]
			if item.ID == "" {
				item.ID = uuid.NewString()
			}
			item.CartKey = key
			item.Position = i
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	items, err := cc.loadItems(key)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Cart replaced", gin.H{
		"items": items,
		"total": models.CartTotal(items),
	})
}

// ClearCart empties the cart.
func (cc *CartController) ClearCart(c *gin.Context) {
	key, err := cartKey(c)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := cc.DB.Where("cart_key = ?", key).Delete(&models.CartItem{}).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Cart cleared", nil)
}

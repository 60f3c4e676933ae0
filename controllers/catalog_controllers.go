package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sweetlayer/cakeshop/models"
	"github.com/sweetlayer/cakeshop/utils"
)

// CatalogController serves the fixed cake registry. The registry is
// read-only reference data; there is nothing to persist.
type CatalogController struct{}

func NewCatalogController() *CatalogController {
	return &CatalogController{}
}

// GetCatalog returns every flavor with its per-size prices, plus the
// custom-cake tiers and the vocabularies the AI endpoints accept.
func (cc *CatalogController) GetCatalog(c *gin.Context) {
	utils.RespondJSON(c, http.StatusOK, "Catalog", gin.H{
		"cakes":              models.Catalog,
		"sizes":              []string{models.SizeSmall, models.SizeMedium, models.SizeLarge},
		"custom_size_prices": models.CustomSizePrices,
		"flavors":            models.FlavorAllowList,
		"seasons":            models.Seasons,
		"occasions":          models.Occasions,
		"age_groups":         models.AgeGroups,
	})
}

// GetPrice resolves a single flavor/size price. The cart controller
// uses the same lookup server-side, so the client preview can never
// put a different price into an order.
func (cc *CatalogController) GetPrice(c *gin.Context) {
	flavor := c.Query("flavor")
	size := c.Query("size")
	if flavor == "" || size == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("flavor and size are required"))
		return
	}

	price, ok := models.CatalogPrice(flavor, size)
	if !ok {
		utils.RespondError(c, http.StatusNotFound, errors.New("unknown flavor or size"))
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Price", gin.H{
		"flavor": flavor,
		"size":   size,
		"price":  price,
	})
}

package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sweetlayer/cakeshop/models"
	"github.com/sweetlayer/cakeshop/services"
	"github.com/sweetlayer/cakeshop/utils"
)

// DesignController exposes the AI design endpoints and the custom
// design image upload.
type DesignController struct {
	AI *services.OpenAIService
}

func NewDesignController(ai *services.OpenAIService) *DesignController {
	return &DesignController{AI: ai}
}

// GenerateDesigns returns exactly three (title, image) design
// candidates for a free-text request, or a hard failure.
func (dc *DesignController) GenerateDesigns(c *gin.Context) {
	var req struct {
		Query string `json:"query"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	designs, err := dc.AI.GenerateDesigns(req.Query)
	if err != nil {
		if errors.Is(err, services.ErrEmptyQuery) {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
		utils.ErrorLogger.Printf("Design generation failed: %v", err)
		utils.RespondError(c, http.StatusBadGateway, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Design candidates", gin.H{
		"designs": designs,
	})
}

// PredictFlavors returns exactly three allow-listed flavors for the
// given season, occasion and age group.
func (dc *DesignController) PredictFlavors(c *gin.Context) {
	var req struct {
		Season   string `json:"season" binding:"required"`
		Occasion string `json:"occasion" binding:"required"`
		AgeGroup string `json:"age_group" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if !models.IsSeason(req.Season) {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("unknown season %q", req.Season))
		return
	}
	if !models.IsOccasion(req.Occasion) {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("unknown occasion %q", req.Occasion))
		return
	}
	if !models.IsAgeGroup(req.AgeGroup) {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("unknown age group %q", req.AgeGroup))
		return
	}

	flavors, err := dc.AI.PredictFlavors(req.Season, req.Occasion, req.AgeGroup)
	if err != nil {
		utils.ErrorLogger.Printf("Flavor prediction failed: %v", err)
		utils.RespondError(c, http.StatusBadGateway, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Recommended flavors", gin.H{
		"flavors": flavors,
	})
}

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// UploadDesignImages stores customer-provided design images and returns
// a public URL per file. Upload is the lower-priority design source:
// when a cart item also carries an AI design, the AI image is recorded
// instead.
func (dc *DesignController) UploadDesignImages(c *gin.Context) {
	c.Request.ParseMultipartForm(10 << 20)

	form, err := c.MultipartForm()
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("error processing form"))
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("at least one image is required"))
		return
	}

	urls := make([]string, 0, len(files))
	for _, file := range files {
		ext := strings.ToLower(filepath.Ext(file.Filename))
		if !allowedImageExts[ext] {
			utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("unsupported file type %q", ext))
			return
		}

		name := uuid.NewString() + ext
		dst := filepath.Join("public", "uploads", "designs", name)
		if err := c.SaveUploadedFile(file, dst); err != nil {
			utils.ErrorLogger.Printf("Design upload failed: %v", err)
			utils.RespondError(c, http.StatusInternalServerError, errors.New("image upload failed"))
			return
		}

		urls = append(urls, "/uploads/designs/"+name)
	}

	utils.RespondJSON(c, http.StatusCreated, "Images uploaded", gin.H{
		"urls": urls,
	})
}

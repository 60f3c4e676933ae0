package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-pdf/fpdf"
	"github.com/sweetlayer/cakeshop/models"
	"github.com/sweetlayer/cakeshop/utils"
	"gorm.io/gorm"
)

type AdminController struct {
	DB *gorm.DB
}

func NewAdminController(db *gorm.DB) *AdminController {
	return &AdminController{DB: db}
}

// GetDashboardStats aggregates order counts per lifecycle state plus
// captured revenue for the admin dashboard.
func (ac *AdminController) GetDashboardStats(c *gin.Context) {
	today := time.Now().Format("2006-01-02")

	var stats struct {
		TotalOrders int64            `json:"total_orders"`
		TodayOrders int64            `json:"today_orders"`
		ByStatus    map[string]int64 `json:"by_status"`
		RevenueKM   float64          `json:"revenue_km"`
		RevenueEUR  float64          `json:"revenue_eur"`
	}
	stats.ByStatus = make(map[string]int64, len(models.OrderStatuses))

	ac.DB.Model(&models.Order{}).Count(&stats.TotalOrders)
	ac.DB.Model(&models.Order{}).Where("DATE(created_at) = ?", today).Count(&stats.TodayOrders)

	for _, status := range models.OrderStatuses {
		var count int64
		ac.DB.Model(&models.Order{}).Where("status = ?", status).Count(&count)
		stats.ByStatus[status] = count
	}

	ac.DB.Model(&models.Payment{}).Where("status = ?", models.PaymentStatusCaptured).
		Select("COALESCE(SUM(amount_km), 0)").Row().Scan(&stats.RevenueKM)
	ac.DB.Model(&models.Payment{}).Where("status = ?", models.PaymentStatusCaptured).
		Select("COALESCE(SUM(amount_eur), 0)").Row().Scan(&stats.RevenueEUR)

	utils.RespondJSON(c, http.StatusOK, "Dashboard stats", stats)
}

// ExportOrdersPDF renders every order as a one-line table row for
// offline review.
func (ac *AdminController) ExportOrdersPDF(c *gin.Context) {
	var orders []models.Order
	if err := ac.DB.Order("created_at desc").Find(&orders).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 10, "Cake Orders Report")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 9)
	headers := []string{"ID", "Email", "Phone", "Needed for", "Status", "Items", "Total (KM)", "Created"}
	widths := []float64{15, 60, 30, 28, 38, 18, 25, 40}
	for i, header := range headers {
		pdf.CellFormat(widths[i], 7, header, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, order := range orders {
		cells := []string{
			fmt.Sprintf("%d", order.ID),
			order.UserEmail,
			order.UserPhone,
			order.NeededForDate,
			order.Status,
			fmt.Sprintf("%d", len(order.Items)),
			fmt.Sprintf("%.2f", order.Total()),
			order.CreatedAt.Format("2006-01-02 15:04"),
		}
		for i, cell := range cells {
			pdf.CellFormat(widths[i], 7, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="orders.pdf"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/dmbar78/ExpenseTracker-sub000/internal/models"
	"github.com/dmbar78/ExpenseTracker-sub000/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type ImportExportHandler struct {
	DB *gorm.DB
}

func NewImportExportHandler(db *gorm.DB) *ImportExportHandler {
	return &ImportExportHandler{DB: db}
}

func entryRow(e *models.Entry) []string {
	original := ""
	if e.Reconciled() {
		original = fmt.Sprintf("%s %s", e.OriginalAmount.StringFixed(2), *e.OriginalCurrency)
	}
	return []string{
		e.Date.Format("2006-01-02"),
		e.Type,
		e.Account,
		e.Category,
		e.Amount.String(),
		e.Currency,
		original,
		e.Comment,
	}
}

var entryHeader = []string{"Date", "Type", "Account", "Category", "Amount", "Currency", "In Default Currency", "Comment"}

// ExportCSV streams all entries as a CSV attachment.
func (h *ImportExportHandler) ExportCSV(c *gin.Context) {
	var entries []models.Entry
	if err := h.DB.Order("date DESC").Find(&entries).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"entries_%s.csv\"",
		time.Now().Format("20060102")))

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write(entryHeader)
	for i := range entries {
		writer.Write(entryRow(&entries[i]))
	}
}

// ExportXLSX writes entries and transfers into one workbook, a sheet each.
func (h *ImportExportHandler) ExportXLSX(c *gin.Context) {
	var entries []models.Entry
	if err := h.DB.Order("date DESC").Find(&entries).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}
	var transfers []models.Transfer
	if err := h.DB.Order("date DESC").Find(&transfers).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	const entrySheet = "Entries"
	f.SetSheetName("Sheet1", entrySheet)
	writeRow := func(sheet string, row int, values []string) {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetSheetRow(sheet, cell, &values)
	}

	writeRow(entrySheet, 1, entryHeader)
	for i := range entries {
		writeRow(entrySheet, i+2, entryRow(&entries[i]))
	}

	const transferSheet = "Transfers"
	_, err := f.NewSheet(transferSheet)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "export failed")
		return
	}
	writeRow(transferSheet, 1, []string{"Date", "From", "To", "Amount", "Currency", "To Amount", "To Currency", "Comment"})
	for i := range transfers {
		t := &transfers[i]
		toAmount, toCurrency := "", ""
		if t.ToAmount != nil {
			toAmount = t.ToAmount.String()
		}
		if t.ToCurrency != nil {
			toCurrency = *t.ToCurrency
		}
		writeRow(transferSheet, i+2, []string{
			t.Date.Format("2006-01-02"),
			t.FromAccount,
			t.ToAccount,
			t.Amount.String(),
			t.Currency,
			toAmount,
			toCurrency,
			t.Comment,
		})
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"export_%s.xlsx\"",
		time.Now().Format("20060102")))

	if err := f.Write(c.Writer); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "export failed")
	}
}

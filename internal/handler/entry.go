package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmbar78/ExpenseTracker-sub000/internal/ledger"
	"github.com/dmbar78/ExpenseTracker-sub000/internal/models"
	"github.com/dmbar78/ExpenseTracker-sub000/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// EntryHandler serves expense/income endpoints. All mutations go through the
// ledger engine so balances stay consistent with the rows.
type EntryHandler struct {
	DB     *gorm.DB
	Ledger *ledger.Engine
}

func NewEntryHandler(db *gorm.DB, eng *ledger.Engine) *EntryHandler {
	return &EntryHandler{DB: db, Ledger: eng}
}

type entryReq struct {
	Account  string `json:"account" binding:"required,max=64"`
	Type     string `json:"type" binding:"required,oneof=income expense"`
	Category string `json:"category" binding:"max=32"`
	Amount   string `json:"amount" binding:"required"`
	Currency string `json:"currency" binding:"required"`
	Date     int64  `json:"date"` // epoch millis; zero means now
	Comment  string `json:"comment" binding:"max=255"`
}

// toModel validates the request and builds the entry row.
func (r *entryReq) toModel() (*models.Entry, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return nil, errors.New("invalid amount")
	}
	if err := util.ValidateAmount(amount); err != nil {
		return nil, err
	}
	currency := strings.ToUpper(strings.TrimSpace(r.Currency))
	if err := util.ValidateCurrencyCode(currency); err != nil {
		return nil, err
	}
	date := time.Now()
	if r.Date != 0 {
		date = time.UnixMilli(r.Date)
	}
	return &models.Entry{
		Account:  strings.TrimSpace(r.Account),
		Type:     r.Type,
		Category: strings.TrimSpace(r.Category),
		Amount:   amount,
		Currency: currency,
		Date:     date,
		Comment:  r.Comment,
	}, nil
}

// ledgerError maps the engine's typed errors onto the response envelope.
func ledgerError(c *gin.Context, err error) {
	var accErr *ledger.AccountNotFoundError
	var entryErr *ledger.EntryNotFoundError
	var transferErr *ledger.TransferNotFoundError
	switch {
	case errors.As(err, &accErr):
		util.Error(c, http.StatusNotFound, util.CodeNotFound, accErr.Error())
	case errors.As(err, &entryErr):
		util.Error(c, http.StatusNotFound, util.CodeNotFound, entryErr.Error())
	case errors.As(err, &transferErr):
		util.Error(c, http.StatusNotFound, util.CodeNotFound, transferErr.Error())
	default:
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "operation failed")
	}
}

func (h *EntryHandler) CreateEntry(c *gin.Context) {
	var req entryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}
	entry, err := req.toModel()
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}

	if err := h.Ledger.AddEntry(c.Request.Context(), entry); err != nil {
		ledgerError(c, err)
		return
	}
	util.Success(c, util.Response{"entry": entry})
}

func (h *EntryHandler) UpdateEntry(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid id")
		return
	}

	var req entryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}
	entry, err := req.toModel()
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}
	entry.ID = uint(id)

	if err := h.Ledger.UpdateEntry(c.Request.Context(), entry); err != nil {
		ledgerError(c, err)
		return
	}
	util.Success(c, util.Response{"entry": entry})
}

func (h *EntryHandler) DeleteEntry(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid id")
		return
	}

	if err := h.Ledger.DeleteEntry(c.Request.Context(), uint(id)); err != nil {
		ledgerError(c, err)
		return
	}
	util.Success(c, util.Response{"message": "deleted"})
}

// ListEntries supports date range, type, category and account filters with
// paging.
func (h *EntryHandler) ListEntries(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	base := h.DB.Model(&models.Entry{})

	if start := c.Query("start"); start != "" {
		t, err := time.Parse("2006-01-02", start)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid start date, want YYYY-MM-DD")
			return
		}
		base = base.Where("date >= ?", t)
	}
	if end := c.Query("end"); end != "" {
		t, err := time.Parse("2006-01-02", end)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid end date, want YYYY-MM-DD")
			return
		}
		// end date is inclusive: < end + 1 day
		base = base.Where("date < ?", t.Add(24*time.Hour))
	}
	if txType := c.Query("type"); txType == models.EntryTypeIncome || txType == models.EntryTypeExpense {
		base = base.Where("type = ?", txType)
	}
	if category := c.Query("category"); category != "" {
		base = base.Where("category = ?", category)
	}
	if account := c.Query("account"); account != "" {
		base = base.Where("LOWER(account) = ?", ledger.Key(account))
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	var entries []models.Entry
	if err := base.Session(&gorm.Session{}).
		Order("date DESC, id DESC").
		Limit(size).
		Offset(offset).
		Find(&entries).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	util.Success(c, util.Response{
		"items": entries,
		"total": total,
		"page":  page,
		"size":  size,
	})
}

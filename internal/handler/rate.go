package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmbar78/ExpenseTracker-sub000/internal/models"
	"github.com/dmbar78/ExpenseTracker-sub000/internal/rates"
	"github.com/dmbar78/ExpenseTracker-sub000/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RateHandler exposes rate resolution and the reconciliation job. A missing
// rate is rendered as available:false, distinct from an error.
type RateHandler struct {
	DB              *gorm.DB
	Provider        *rates.Provider
	DefaultCurrency string
}

func NewRateHandler(db *gorm.DB, provider *rates.Provider, defaultCurrency string) *RateHandler {
	return &RateHandler{DB: db, Provider: provider, DefaultCurrency: defaultCurrency}
}

func (h *RateHandler) parsePair(c *gin.Context) (base, quote string, on time.Time, ok bool) {
	base = strings.ToUpper(strings.TrimSpace(c.Query("base")))
	quote = strings.ToUpper(strings.TrimSpace(c.Query("quote")))
	if util.ValidateCurrencyCode(base) != nil || util.ValidateCurrencyCode(quote) != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "base and quote must be currency codes")
		return "", "", time.Time{}, false
	}

	on = time.Now()
	if dateStr := c.Query("date"); dateStr != "" {
		if err := util.ValidateDate(dateStr); err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
			return "", "", time.Time{}, false
		}
		on, _ = time.ParseInLocation("2006-01-02", dateStr, time.Local)
	}
	return base, quote, on, true
}

// GetRate resolves the rate for the exact day.
func (h *RateHandler) GetRate(c *gin.Context) {
	base, quote, on, ok := h.parsePair(c)
	if !ok {
		return
	}

	rate, found := h.Provider.GetRate(c.Request.Context(), base, quote, on)
	if !found {
		util.Success(c, util.Response{"available": false})
		return
	}
	util.Success(c, util.Response{"available": true, "rate": rate})
}

// GetRateAsOf resolves the rate effective on the day for historical records.
func (h *RateHandler) GetRateAsOf(c *gin.Context) {
	base, quote, on, ok := h.parsePair(c)
	if !ok {
		return
	}

	rate, found := h.Provider.GetRateAsOf(c.Request.Context(), base, quote, on)
	if !found {
		util.Success(c, util.Response{"available": false})
		return
	}
	util.Success(c, util.Response{"available": true, "rate": rate})
}

// Reconcile backfills conversion snapshots on entries and transfers that
// still lack one, and reports how many remain unresolved.
func (h *RateHandler) Reconcile(c *gin.Context) {
	var entries []models.Entry
	if err := h.DB.Where("original_rate IS NULL").Find(&entries).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}
	var transfers []models.Transfer
	if err := h.DB.Where("original_rate IS NULL").Find(&transfers).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	unresolved := h.Provider.ReconcileRatesNeeded(
		c.Request.Context(),
		entries,
		transfers,
		h.DefaultCurrency,
		func(e models.Entry) error { return h.DB.Save(&e).Error },
		func(t models.Transfer) error { return h.DB.Save(&t).Error },
	)

	util.Success(c, util.Response{
		"scanned":    len(entries) + len(transfers),
		"unresolved": unresolved,
	})
}

// ClearFailedDates drops the session's negative date cache.
func (h *RateHandler) ClearFailedDates(c *gin.Context) {
	h.Provider.ClearFailedDates()
	util.Success(c, util.Response{"message": "cleared"})
}

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

// TransferHandler serves transfer endpoints through the ledger engine.
type TransferHandler struct {
	DB     *gorm.DB
	Ledger *ledger.Engine
}

func NewTransferHandler(db *gorm.DB, eng *ledger.Engine) *TransferHandler {
	return &TransferHandler{DB: db, Ledger: eng}
}

type transferReq struct {
	FromAccount string `json:"from_account" binding:"required,max=64"`
	ToAccount   string `json:"to_account" binding:"required,max=64"`
	Amount      string `json:"amount" binding:"required"`
	Currency    string `json:"currency" binding:"required"`
	Date        int64  `json:"date"` // epoch millis; zero means now
	Comment     string `json:"comment" binding:"max=255"`

	// destination leg of a cross-currency transfer
	ToAmount   string `json:"to_amount"`
	ToCurrency string `json:"to_currency"`
}

func (r *transferReq) toModel() (*models.Transfer, error) {
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

	t := &models.Transfer{
		FromAccount: strings.TrimSpace(r.FromAccount),
		ToAccount:   strings.TrimSpace(r.ToAccount),
		Amount:      amount,
		Currency:    currency,
		Date:        date,
		Comment:     r.Comment,
	}

	if r.ToAmount != "" {
		toAmount, err := decimal.NewFromString(r.ToAmount)
		if err != nil {
			return nil, errors.New("invalid destination amount")
		}
		if err := util.ValidateAmount(toAmount); err != nil {
			return nil, err
		}
		toCurrency := strings.ToUpper(strings.TrimSpace(r.ToCurrency))
		if err := util.ValidateCurrencyCode(toCurrency); err != nil {
			return nil, err
		}
		t.ToAmount = &toAmount
		t.ToCurrency = &toCurrency
	}
	return t, nil
}

func (h *TransferHandler) CreateTransfer(c *gin.Context) {
	var req transferReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}
	transfer, err := req.toModel()
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}

	if err := h.Ledger.AddTransfer(c.Request.Context(), transfer); err != nil {
		ledgerError(c, err)
		return
	}
	util.Success(c, util.Response{"transfer": transfer})
}

func (h *TransferHandler) UpdateTransfer(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid id")
		return
	}

	var req transferReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}
	transfer, err := req.toModel()
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}
	transfer.ID = uint(id)

	if err := h.Ledger.UpdateTransfer(c.Request.Context(), transfer); err != nil {
		ledgerError(c, err)
		return
	}
	util.Success(c, util.Response{"transfer": transfer})
}

func (h *TransferHandler) DeleteTransfer(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid id")
		return
	}

	if err := h.Ledger.DeleteTransfer(c.Request.Context(), uint(id)); err != nil {
		ledgerError(c, err)
		return
	}
	util.Success(c, util.Response{"message": "deleted"})
}

func (h *TransferHandler) ListTransfers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	base := h.DB.Model(&models.Transfer{})
	if account := c.Query("account"); account != "" {
		k := ledger.Key(account)
		base = base.Where("LOWER(from_account) = ? OR LOWER(to_account) = ?", k, k)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	var transfers []models.Transfer
	if err := base.Session(&gorm.Session{}).
		Order("date DESC, id DESC").
		Limit(size).
		Offset(offset).
		Find(&transfers).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	util.Success(c, util.Response{
		"items": transfers,
		"total": total,
		"page":  page,
		"size":  size,
	})
}

package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dmbar78/ExpenseTracker-sub000/internal/ledger"
	"github.com/dmbar78/ExpenseTracker-sub000/internal/models"
	"github.com/dmbar78/ExpenseTracker-sub000/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AccountHandler serves the account CRUD endpoints. Balances are read-only
// through this surface; only the ledger engine moves them.
type AccountHandler struct {
	DB *gorm.DB
}

func NewAccountHandler(db *gorm.DB) *AccountHandler {
	return &AccountHandler{DB: db}
}

type createAccountReq struct {
	Name     string `json:"name" binding:"required,max=64"`
	Currency string `json:"currency" binding:"required"`
	Balance  string `json:"balance"`
}

func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var req createAccountReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if err := util.ValidateAccountName(req.Name); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	if err := util.ValidateCurrencyCode(req.Currency); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}

	balance := decimal.Zero
	if req.Balance != "" {
		var err error
		balance, err = decimal.NewFromString(req.Balance)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid balance")
			return
		}
	}

	// account names are unique case-insensitively
	var count int64
	if err := h.DB.Model(&models.Account{}).
		Where("LOWER(name) = ?", ledger.Key(req.Name)).
		Count(&count).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}
	if count > 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "account name already exists")
		return
	}

	account := models.Account{
		Name:     req.Name,
		Currency: req.Currency,
		Balance:  balance.Round(2),
	}
	if err := h.DB.Create(&account).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "save failed")
		return
	}

	util.Success(c, util.Response{"account": account})
}

func (h *AccountHandler) ListAccounts(c *gin.Context) {
	var accounts []models.Account
	if err := h.DB.Order("name ASC").Find(&accounts).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}
	util.Success(c, util.Response{"accounts": accounts})
}

type updateAccountReq struct {
	Name     string `json:"name" binding:"required,max=64"`
	Currency string `json:"currency" binding:"required"`
}

// UpdateAccount renames an account or changes its currency code. Entries
// reference accounts by name, so the rename is propagated to rows in the
// same transaction.
func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid id")
		return
	}

	var req updateAccountReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := util.ValidateAccountName(req.Name); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	if err := util.ValidateCurrencyCode(req.Currency); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		var account models.Account
		if err := tx.First(&account, id).Error; err != nil {
			return err
		}
		oldName := account.Name
		account.Name = req.Name
		account.Currency = req.Currency
		if err := tx.Save(&account).Error; err != nil {
			return err
		}
		if ledger.Key(oldName) != ledger.Key(req.Name) {
			if err := tx.Model(&models.Entry{}).
				Where("LOWER(account) = ?", ledger.Key(oldName)).
				Update("account", req.Name).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Transfer{}).
				Where("LOWER(from_account) = ?", ledger.Key(oldName)).
				Update("from_account", req.Name).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Transfer{}).
				Where("LOWER(to_account) = ?", ledger.Key(oldName)).
				Update("to_account", req.Name).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err == gorm.ErrRecordNotFound {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "account not found")
		return
	}
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "save failed")
		return
	}

	util.Success(c, util.Response{"message": "updated"})
}

func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid id")
		return
	}

	var account models.Account
	if err := h.DB.First(&account, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "account not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		}
		return
	}

	// refuse to orphan records
	var refs int64
	h.DB.Model(&models.Entry{}).Where("LOWER(account) = ?", ledger.Key(account.Name)).Count(&refs)
	if refs == 0 {
		h.DB.Model(&models.Transfer{}).
			Where("LOWER(from_account) = ? OR LOWER(to_account) = ?", ledger.Key(account.Name), ledger.Key(account.Name)).
			Count(&refs)
	}
	if refs > 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "account still has records")
		return
	}

	if err := h.DB.Delete(&account).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "delete failed")
		return
	}
	util.Success(c, util.Response{"message": "deleted"})
}

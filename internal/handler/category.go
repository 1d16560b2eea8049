package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dmbar78/ExpenseTracker-sub000/internal/models"
	"github.com/dmbar78/ExpenseTracker-sub000/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CategoryHandler serves the category reference table.
type CategoryHandler struct {
	DB *gorm.DB
}

func NewCategoryHandler(db *gorm.DB) *CategoryHandler {
	return &CategoryHandler{DB: db}
}

type categoryReq struct {
	Name string `json:"name" binding:"required,max=64"`
	Type string `json:"type" binding:"required,oneof=income expense"`
}

func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req categoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}

	category := models.Category{
		Name: strings.TrimSpace(req.Name),
		Type: req.Type,
	}
	if err := h.DB.Create(&category).Error; err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "category name already exists")
		return
	}
	util.Success(c, util.Response{"category": category})
}

func (h *CategoryHandler) ListCategories(c *gin.Context) {
	query := h.DB.Order("name ASC")
	if catType := c.Query("type"); catType == models.EntryTypeIncome || catType == models.EntryTypeExpense {
		query = query.Where("type = ?", catType)
	}

	var categories []models.Category
	if err := query.Find(&categories).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}
	util.Success(c, util.Response{"categories": categories})
}

func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid id")
		return
	}

	var category models.Category
	if err := h.DB.First(&category, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "category not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		}
		return
	}

	if err := h.DB.Delete(&category).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "delete failed")
		return
	}
	util.Success(c, util.Response{"message": "deleted"})
}

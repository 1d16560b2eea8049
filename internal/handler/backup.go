package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dmbar78/ExpenseTracker-sub000/internal/models"
	"github.com/dmbar78/ExpenseTracker-sub000/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BackupHandler writes and restores plain-JSON backup files.
type BackupHandler struct {
	DB        *gorm.DB
	BackupDir string
}

func NewBackupHandler(db *gorm.DB, backupDir string) *BackupHandler {
	return &BackupHandler{DB: db, BackupDir: backupDir}
}

// backupData is the content of one backup file.
type backupData struct {
	Created    time.Time             `json:"created"`
	Accounts   []models.Account      `json:"accounts"`
	Entries    []models.Entry        `json:"entries"`
	Transfers  []models.Transfer     `json:"transfers"`
	Categories []models.Category     `json:"categories"`
	Rates      []models.ExchangeRate `json:"rates"`
}

// CreateBackup dumps the whole data set into a new backup file.
func (h *BackupHandler) CreateBackup(c *gin.Context) {
	var data backupData
	data.Created = time.Now()

	if err := h.DB.Order("id ASC").Find(&data.Accounts).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}
	if err := h.DB.Order("id ASC").Find(&data.Entries).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}
	if err := h.DB.Order("id ASC").Find(&data.Transfers).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}
	if err := h.DB.Order("id ASC").Find(&data.Categories).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}
	if err := h.DB.Order("date ASC").Find(&data.Rates).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	raw, err := json.MarshalIndent(&data, "", "  ")
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "serialize failed")
		return
	}

	if err := os.MkdirAll(h.BackupDir, 0o755); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "create backup dir failed")
		return
	}

	fileName := fmt.Sprintf("backup-%s.json", uuid.New().String())
	filePath := filepath.Join(h.BackupDir, fileName)
	if err := os.WriteFile(filePath, raw, 0o600); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "write backup file failed")
		return
	}

	backup := models.Backup{
		FileName: fileName,
		Size:     int64(len(raw)),
	}
	if err := h.DB.Create(&backup).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "save failed")
		return
	}

	util.Success(c, util.Response{"backup": backup})
}

func (h *BackupHandler) ListBackups(c *gin.Context) {
	var list []models.Backup
	if err := h.DB.Order("created_at DESC").Find(&list).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}
	util.Success(c, util.Response{"backups": list})
}

func (h *BackupHandler) DownloadBackup(c *gin.Context) {
	backup, ok := h.loadBackup(c)
	if !ok {
		return
	}
	c.FileAttachment(filepath.Join(h.BackupDir, backup.FileName), backup.FileName)
}

// RestoreBackup replaces the whole data set with the backup's content. The
// swap runs in one transaction so a bad file leaves the data untouched.
func (h *BackupHandler) RestoreBackup(c *gin.Context) {
	backup, ok := h.loadBackup(c)
	if !ok {
		return
	}

	raw, err := os.ReadFile(filepath.Join(h.BackupDir, backup.FileName))
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "read backup file failed")
		return
	}
	var data backupData
	if err := json.Unmarshal(raw, &data); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid backup file")
		return
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{
			&models.Account{}, &models.Entry{}, &models.Transfer{},
			&models.Category{}, &models.ExchangeRate{},
		} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return err
			}
		}
		if len(data.Accounts) > 0 {
			if err := tx.Create(&data.Accounts).Error; err != nil {
				return err
			}
		}
		if len(data.Entries) > 0 {
			if err := tx.Create(&data.Entries).Error; err != nil {
				return err
			}
		}
		if len(data.Transfers) > 0 {
			if err := tx.Create(&data.Transfers).Error; err != nil {
				return err
			}
		}
		if len(data.Categories) > 0 {
			if err := tx.Create(&data.Categories).Error; err != nil {
				return err
			}
		}
		if len(data.Rates) > 0 {
			if err := tx.Create(&data.Rates).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "restore failed")
		return
	}

	util.Success(c, util.Response{"message": "restored"})
}

func (h *BackupHandler) DeleteBackup(c *gin.Context) {
	backup, ok := h.loadBackup(c)
	if !ok {
		return
	}

	_ = os.Remove(filepath.Join(h.BackupDir, backup.FileName))
	if err := h.DB.Delete(backup).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "delete failed")
		return
	}
	util.Success(c, util.Response{"message": "deleted"})
}

func (h *BackupHandler) loadBackup(c *gin.Context) (*models.Backup, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid id")
		return nil, false
	}
	var backup models.Backup
	if err := h.DB.First(&backup, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "backup not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		}
		return nil, false
	}
	return &backup, true
}

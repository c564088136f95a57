package entry

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/SlpAus/million-meters-backend/internal/session"
	"github.com/gin-gonic/gin"
)

type CreateEntryRequest struct {
	Meters float64 `json:"meters" binding:"required"`
	Date   string  `json:"date" binding:"required"`
	Time   string  `json:"time"`
	Sport  string  `json:"sport"`
}

type UpdateEntryRequest struct {
	Meters float64 `json:"meters" binding:"required"`
	Date   string  `json:"date" binding:"required"`
	Time   string  `json:"time"`
}

func entryIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid entry ID"})
		return 0, false
	}
	return id, true
}

// CreateEntryHandler 处理 POST /api/entries 请求。
func CreateEntryHandler(c *gin.Context) {
	userID, _ := session.CurrentUserID(c)

	var req CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Meters and date are required"})
		return
	}

	created, err := Create(userID, req.Meters, req.Date, req.Time, req.Sport)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidMeters):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Meters must be a positive number"})
		case errors.Is(err, ErrMissingDate):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Date is required"})
		default:
			fmt.Printf("创建进度记录失败: %v\n", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": created.ID})
}

// UpdateEntryHandler 处理 PUT /api/entries/:id 请求，只允许修改本人的记录。
func UpdateEntryHandler(c *gin.Context) {
	userID, _ := session.CurrentUserID(c)

	id, ok := entryIDParam(c)
	if !ok {
		return
	}

	var req UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Meters and date are required"})
		return
	}

	if err := Update(userID, id, req.Meters, req.Date, req.Time); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
		case errors.Is(err, ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "Not allowed"})
		case errors.Is(err, ErrInvalidMeters):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Meters must be a positive number"})
		case errors.Is(err, ErrMissingDate):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Date is required"})
		default:
			fmt.Printf("更新进度记录失败: %v\n", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeleteEntryHandler 处理 DELETE /api/entries/:id 请求。
func DeleteEntryHandler(c *gin.Context) {
	userID, _ := session.CurrentUserID(c)

	id, ok := entryIDParam(c)
	if !ok {
		return
	}

	if err := Delete(userID, id); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
		case errors.Is(err, ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "Not allowed"})
		default:
			fmt.Printf("删除进度记录失败: %v\n", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

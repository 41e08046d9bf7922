package api

import (
	"net/http"

	apperrors "dream_journal_go_backend/internal/errors"
	"dream_journal_go_backend/internal/services"

	"github.com/gin-gonic/gin"
)

func getDreamsHandler(dreamStore services.DreamStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"dreams": dreamStore.GetDreams()})
	}
}

// getDreamDatesHandler returns the dates carrying a completed dream, newest
// first, for the calendar indicators.
func getDreamDatesHandler(dreamStore services.DreamStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"dates": dreamStore.GetDreamDates()})
	}
}

func getDreamByDateHandler(dreamStore services.DreamStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		date, ok := sessionDate(c)
		if !ok {
			return
		}

		dream, found := dreamStore.GetDreamByDate(date)
		if !found {
			apperrors.HandleError(c, apperrors.New404Error("no dream recorded for this date"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"dream": dream})
	}
}

func deleteDreamHandler(dreamStore services.DreamStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := dreamStore.DeleteDream(c.Param("id")); err != nil {
			apperrors.HandleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Dream deleted"})
	}
}

func clearDreamsHandler(dreamStore services.DreamStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := dreamStore.ClearAllDreams(); err != nil {
			apperrors.HandleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "All dreams cleared"})
	}
}

func exportJournalHandler(exportService *services.ExportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := exportService.GeneratePDF()
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}

		c.Header("Content-Disposition", `attachment; filename="dream_journal.pdf"`)
		c.Data(http.StatusOK, "application/pdf", data)
	}
}

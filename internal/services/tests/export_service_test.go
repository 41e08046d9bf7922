package services_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"dream_journal_go_backend/internal/models"
	"dream_journal_go_backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 120, G: 80, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestGeneratePDF(t *testing.T) {
	// Setup
	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	dreams := []models.Dream{
		{
			ID:        "dream_1_aaaaaaaaa",
			Date:      "2025-06-01",
			DreamText: "A forest where every tree hums a different note.",
			ImageURL:  "https://source.unsplash.com/800x600/?forest,dream,surreal&sig=12",
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:        "dream_2_bbbbbbbbb",
			Date:      "2025-06-10",
			DreamText: "A staircase of light spiraling into the sea.",
			ImageURL:  "/images/dream_local.png",
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:        "dream_3_ccccccccc",
			Date:      "2025-06-12",
			DreamText: "A dream not yet visualized.",
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	t.Run("renders a document with one page per dream", func(t *testing.T) {
		// Setup
		mockDreams := new(MockDreamStore)
		mockDreams.On("GetDreams").Return(dreams).Once()
		mockImages := new(MockImageStorageManager)
		mockImages.On("LoadImage", "dream_local.png").Return(tinyPNG(t), nil).Once()

		exportService := services.NewExportService(mockDreams, mockImages, "/images")

		// Execute
		data, err := exportService.GeneratePDF()

		// Assert
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
		mockDreams.AssertExpectations(t)
		mockImages.AssertExpectations(t)
	})

	t.Run("an unreadable local image does not fail the export", func(t *testing.T) {
		// Setup
		mockDreams := new(MockDreamStore)
		mockDreams.On("GetDreams").Return(dreams[1:2]).Once()
		mockImages := new(MockImageStorageManager)
		mockImages.On("LoadImage", "dream_local.png").Return(nil, assert.AnError).Once()

		exportService := services.NewExportService(mockDreams, mockImages, "/images")

		// Execute
		data, err := exportService.GeneratePDF()

		// Assert
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
		mockImages.AssertExpectations(t)
	})

	t.Run("empty journal still exports", func(t *testing.T) {
		// Setup
		mockDreams := new(MockDreamStore)
		mockDreams.On("GetDreams").Return([]models.Dream{}).Once()

		exportService := services.NewExportService(mockDreams, new(MockImageStorageManager), "/images")

		// Execute
		data, err := exportService.GeneratePDF()

		// Assert
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
	})
}

package services

import (
	"bytes"
	"fmt"
	"net/http"
	"path"
	"sort"
	"strings"
	"time"

	"dream_journal_go_backend/internal/models"

	"github.com/jung-kurt/gofpdf"
)

// ExportService renders the journal as a PDF, one page per dream, newest
// first. Locally stored images are embedded; external placeholder URLs are
// referenced by link only.
type ExportService struct {
	dreams       DreamStore
	images       ImageStorageManager
	imageBaseURL string
}

func NewExportService(dreams DreamStore, images ImageStorageManager, imageBaseURL string) *ExportService {
	return &ExportService{
		dreams:       dreams,
		images:       images,
		imageBaseURL: imageBaseURL,
	}
}

// GeneratePDF builds the journal document and returns its bytes.
func (s *ExportService) GeneratePDF() ([]byte, error) {
	dreams := s.dreams.GetDreams()
	sort.Slice(dreams, func(i, j int) bool {
		return dreams[i].Date > dreams[j].Date
	})

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Dream Journal", false)

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(0, 12, "Dream Journal", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 8, fmt.Sprintf("%d entries", len(dreams)), "", 1, "C", false, 0, "")

	for _, dream := range dreams {
		s.writeDreamPage(pdf, dream)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render journal PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *ExportService) writeDreamPage(pdf *gofpdf.Fpdf, dream models.Dream) {
	pdf.AddPage()

	heading := dream.Date
	if parsed, err := time.Parse("2006-01-02", dream.Date); err == nil {
		heading = parsed.Format("January 2, 2006")
	}
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, heading, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(0, 6, dream.DreamText, "", "L", false)
	pdf.Ln(4)

	if dream.ImageURL == "" {
		return
	}

	if name, ok := s.localImageName(dream.ImageURL); ok {
		s.embedImage(pdf, name)
		return
	}

	// Placeholder images live on an external host; record the URL instead.
	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5, fmt.Sprintf("Image: %s", dream.ImageURL), "", "L", false)
}

// localImageName maps an image URL back to a file in the image store, when it
// points there.
func (s *ExportService) localImageName(imageURL string) (string, bool) {
	prefix := s.imageBaseURL + "/"
	if !strings.HasPrefix(imageURL, prefix) {
		return "", false
	}
	return path.Base(imageURL), true
}

func (s *ExportService) embedImage(pdf *gofpdf.Fpdf, name string) {
	data, err := s.images.LoadImage(name)
	if err != nil {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(0, 5, "Image unavailable", "", "L", false)
		return
	}

	imageType := ""
	switch http.DetectContentType(data) {
	case "image/png":
		imageType = "PNG"
	case "image/jpeg":
		imageType = "JPG"
	default:
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(0, 5, "Image format not supported in export", "", "L", false)
		return
	}

	opts := gofpdf.ImageOptions{ImageType: imageType, ReadDpi: true}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	pdf.ImageOptions(name, 15, pdf.GetY(), 120, 0, false, opts, 0, "")
}

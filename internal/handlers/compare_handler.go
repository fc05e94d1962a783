package handlers

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/vishwambharaRH/Resume-Analyzer/internal/services"
)

type CompareHandler struct {
	storageService services.StorageService
	extractor      services.TextExtractor
	maxFileSize    int64
}

func NewCompareHandler(
	storageService services.StorageService,
	extractor services.TextExtractor,
	maxFileSize int64,
) *CompareHandler {
	return &CompareHandler{
		storageService: storageService,
		extractor:      extractor,
		maxFileSize:    maxFileSize,
	}
}

// HandleCompare handles POST /compare. It is synchronous: the file is stored
// only for as long as extraction takes.
func (h *CompareHandler) HandleCompare(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "failed to parse multipart form")
	}

	values, ok := form.Value["job_description"]
	if !ok || len(values) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "job_description is required")
	}
	jobDescription := values[0]
	if strings.TrimSpace(jobDescription) == "" {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "job_description cannot be empty")
	}

	name, content, err := readUpload(c)
	if err != nil {
		return err
	}
	if _, err := services.ValidateUpload(name, content, h.maxFileSize); err != nil {
		return rejection(err)
	}

	filename, filePath, err := h.storageService.SaveFile(name, content)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to save file")
	}
	defer func() {
		if err := h.storageService.DeleteFile(filename); err != nil {
			log.Printf("⚠️  Failed to remove %s: %v\n", filename, err)
		}
	}()

	text, err := h.extractor.ExtractText(filePath)
	if errors.Is(err, services.ErrNoText) {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "could not extract text from the uploaded file")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(services.CompareText(text, jobDescription))
}

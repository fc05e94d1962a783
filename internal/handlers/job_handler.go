package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/vishwambharaRH/Resume-Analyzer/internal/models"
	"github.com/vishwambharaRH/Resume-Analyzer/internal/repositories"
	"github.com/vishwambharaRH/Resume-Analyzer/internal/services"
)

type JobHandler struct {
	jobRepo        repositories.JobRepository
	storageService services.StorageService
	worker         services.Worker
	maxFileSize    int64
}

func NewJobHandler(
	jobRepo repositories.JobRepository,
	storageService services.StorageService,
	worker services.Worker,
	maxFileSize int64,
) *JobHandler {
	return &JobHandler{
		jobRepo:        jobRepo,
		storageService: storageService,
		worker:         worker,
		maxFileSize:    maxFileSize,
	}
}

// HandleParse handles POST /parse
func (h *JobHandler) HandleParse(c *fiber.Ctx) error {
	name, content, err := readUpload(c)
	if err != nil {
		return err
	}

	meta, err := services.ValidateUpload(name, content, h.maxFileSize)
	if err != nil {
		return rejection(err)
	}

	// Save file
	filename, filePath, err := h.storageService.SaveFile(meta.Name, content)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, fmt.Sprintf("failed to save file: %v", err))
	}

	job := &models.AnalysisJob{
		ID:               uuid.New(),
		Filename:         filename,
		OriginalFileName: meta.Name,
		FilePath:         filePath,
		FileSize:         meta.SizeBytes,
		Status:           models.StatusQueued,
	}
	if err := h.jobRepo.Create(job); err != nil {
		// Cleanup uploaded file if the insert fails
		h.storageService.DeleteFile(filename)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to create analysis job")
	}

	h.worker.EnqueueJob(job.ID)

	return c.Status(fiber.StatusAccepted).JSON(models.UploadResponse{
		JobID:            job.ID.String(),
		Status:           string(models.StatusQueued),
		Message:          "File uploaded successfully. Parsing in progress.",
		OriginalFilename: job.OriginalFileName,
		FileSize:         job.FileSize,
	})
}

// HandleGetResult handles GET /results/:id
func (h *JobHandler) HandleGetResult(c *fiber.Ctx) error {
	idParam := c.Params("id")
	jobID, err := uuid.Parse(idParam)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "Job not found")
	}

	job, err := h.jobRepo.FindByID(jobID)
	if errors.Is(err, repositories.ErrJobNotFound) {
		// Unknown ids get sample data so a client can render something.
		return c.JSON(services.DemoPayload(idParam))
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load job")
	}

	return h.writePayload(c, job)
}

// HandleDownload handles GET /download/:id
func (h *JobHandler) HandleDownload(c *fiber.Ctx) error {
	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "Job not found")
	}

	job, err := h.jobRepo.FindByID(jobID)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "Job not found")
	}
	if job.Status != models.StatusCompleted {
		return fiber.NewError(fiber.StatusConflict, fmt.Sprintf("job is %s", job.Status))
	}

	c.Attachment(fmt.Sprintf("resume_analysis_%s.json", job.ID))
	return h.writePayload(c, job)
}

func (h *JobHandler) writePayload(c *fiber.Ctx, job *models.AnalysisJob) error {
	switch {
	case job.Status == models.StatusFailed:
		msg := "analysis failed"
		if job.ErrorMessage != nil {
			msg = *job.ErrorMessage
		}
		return c.JSON(models.AnalysisPayload{
			Status: string(models.StatusFailed),
			JobID:  job.ID.String(),
			Error:  msg,
		})
	case job.Result == nil:
		return c.JSON(models.AnalysisPayload{
			Status: string(job.Status),
			JobID:  job.ID.String(),
		})
	}

	if !json.Valid([]byte(*job.Result)) {
		log.Printf("⚠️  Job %s has a corrupt result\n", job.ID)
		return fiber.NewError(fiber.StatusInternalServerError, "stored result is not valid JSON")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.SendString(*job.Result)
}

// readUpload returns the name and bytes of the multipart "file" field.
func readUpload(c *fiber.Ctx) (string, []byte, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return "", nil, fiber.NewError(fiber.StatusBadRequest, "file is required")
	}

	f, err := fh.Open()
	if err != nil {
		return "", nil, fiber.NewError(fiber.StatusBadRequest, "failed to read uploaded file")
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return "", nil, fiber.NewError(fiber.StatusBadRequest, "failed to read uploaded file")
	}
	return fh.Filename, content, nil
}

func rejection(err error) error {
	var rej *services.RejectionError
	if errors.As(err, &rej) {
		return fiber.NewError(fiber.StatusBadRequest, rej.Reason)
	}
	return fiber.NewError(fiber.StatusBadRequest, err.Error())
}

package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"

	"maintrack/internal/apierror"
	"maintrack/internal/dto"
	"maintrack/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxPhotoBytes caps a single uploaded image.
const maxPhotoBytes = 10 << 20

// PhotoLocator resolves a stored photo name to a file on disk.
type PhotoLocator interface {
	Path(name string) (string, error)
}

type MaintenanceHandler struct {
	svc    service.MaintenanceService
	photos PhotoLocator
}

func NewMaintenanceHandler(svc service.MaintenanceService, photos PhotoLocator) *MaintenanceHandler {
	return &MaintenanceHandler{svc: svc, photos: photos}
}

// Create godoc
// @Summary Record a maintenance on an equipment
// @Tags maintenance
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Equipment ID"
// @Param date formData string true "YYYY-MM-DD"
// @Param category formData string true "Installation | Preventive | Corrective | Proactive"
// @Param description formData string true "Work performed"
// @Param labor_cost formData string false "Labor cost, comma or dot decimal"
// @Param part_ids formData []string false "Stock item ids"
// @Param part_quantities formData []int false "Quantities, same order as part_ids"
// @Param photos formData file false "Up to 3 images"
// @Success 201 {object} dto.MaintenanceResponse
// @Failure 409 {object} apierror.StockError
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/equipment/{id}/maintenance [post]
func (h *MaintenanceHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	equipmentID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	in, err := parseMaintenanceForm(c)
	if err != nil {
		respondError(c, err)
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), actor, equipmentID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *MaintenanceHandler) Edit(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	in, err := parseMaintenanceForm(c)
	if err != nil {
		respondError(c, err)
		return
	}
	resp, err := h.svc.Edit(c.Request.Context(), actor, id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *MaintenanceHandler) Delete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *MaintenanceHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *MaintenanceHandler) PDF(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	data, err := h.svc.SheetPDF(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="maintenance-%s.pdf"`, id))
	c.Data(http.StatusOK, "application/pdf", data)
}

func (h *MaintenanceHandler) DeletePhoto(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeletePhoto(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ServeUpload streams a stored maintenance photo.
func (h *MaintenanceHandler) ServeUpload(c *gin.Context) {
	p, err := h.photos.Path(c.Param("filename"))
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Not found"))
		return
	}
	if st, err := os.Stat(p); err != nil || st.IsDir() {
		c.JSON(http.StatusNotFound, apierror.New("Not found"))
		return
	}
	c.File(p)
}

// parseMaintenanceForm reads the create / edit form. Parts arrive as two
// parallel lists; rows with an empty item id are blank form lines and skipped.
func parseMaintenanceForm(c *gin.Context) (dto.MaintenanceInput, error) {
	in := dto.MaintenanceInput{
		Date:        strings.TrimSpace(c.PostForm("date")),
		Category:    strings.TrimSpace(c.PostForm("category")),
		Description: c.PostForm("description"),
		LaborCost:   strings.TrimSpace(c.PostForm("labor_cost")),
	}

	ids := formArray(c, "part_ids")
	qtys := formArray(c, "part_quantities")
	if len(ids) != len(qtys) {
		return in, &service.ValidationError{Field: "parts", Message: "part_ids and part_quantities must have the same length"}
	}
	for i, raw := range ids {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		itemID, err := uuid.Parse(raw)
		if err != nil {
			return in, &service.ValidationError{Field: fmt.Sprintf("parts[%d].stock_item_id", i), Message: "invalid id"}
		}
		qty, err := strconv.ParseInt(strings.TrimSpace(qtys[i]), 10, 32)
		if err != nil || qty < 1 {
			return in, &service.ValidationError{
				Field:   fmt.Sprintf("parts[%d].quantity", i),
				Message: fmt.Sprintf("must be a whole number between 1 and %d", service.MaxPartQuantity),
			}
		}
		in.Parts = append(in.Parts, dto.PartRequest{StockItemID: itemID, Quantity: int(qty)})
	}

	for i, raw := range formArray(c, "remove_images") {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return in, &service.ValidationError{Field: fmt.Sprintf("remove_images[%d]", i), Message: "invalid id"}
		}
		in.RemoveImages = append(in.RemoveImages, id)
	}

	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return in, nil
		}
		return in, &service.ValidationError{Field: "photos", Message: "malformed upload"}
	}
	for i, fh := range formFiles(form, "photos") {
		if fh.Filename == "" {
			continue
		}
		data, err := readUpload(fh)
		if err != nil {
			return in, &service.ValidationError{Field: fmt.Sprintf("photos[%d]", i), Message: err.Error()}
		}
		in.Photos = append(in.Photos, dto.PhotoUpload{Filename: fh.Filename, Data: data})
	}
	return in, nil
}

// formArray accepts both "name" and "name[]" keys.
func formArray(c *gin.Context, name string) []string {
	if v := c.PostFormArray(name); len(v) > 0 {
		return v
	}
	return c.PostFormArray(name + "[]")
}

func formFiles(form *multipart.Form, name string) []*multipart.FileHeader {
	if f := form.File[name]; len(f) > 0 {
		return f
	}
	return form.File[name+"[]"]
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > maxPhotoBytes {
		return nil, errors.New("image exceeds 10 MB")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, errors.New("unreadable upload")
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxPhotoBytes+1))
	if err != nil {
		return nil, errors.New("unreadable upload")
	}
	if len(data) > maxPhotoBytes {
		return nil, errors.New("image exceeds 10 MB")
	}
	return data, nil
}

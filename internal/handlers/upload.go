package handlers

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"roomspark-backend/internal/imageproc"
	"roomspark-backend/internal/models"
)

// maxBodyBytes leaves room for base64 expansion and multipart framing on top
// of the decoded image cap.
const maxBodyBytes = imageproc.MaxInputBytes*4/3 + 1<<20

var imageFieldNames = []string{"image", "photo", "file"}

type UploadHandler struct {
	svc Pipeline
}

func NewUploadHandler(svc Pipeline) *UploadHandler {
	return &UploadHandler{svc: svc}
}

func (h *UploadHandler) Upload(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "project_id")
	if !ok {
		return
	}

	var fields models.TransformRequest
	raw, ok := readImage(c, &fields)
	if !ok {
		return
	}

	result, err := h.svc.UploadImage(c.Request.Context(), userID, projectID, raw)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, uploadResponse(result.ImageID.String(), result.ImageURL, result.Fingerprint))
}

func uploadResponse(id, url, fingerprint string) models.UploadResponse {
	return models.UploadResponse{
		Status:      models.StatusSuccess,
		ImageID:     id,
		ImageURL:    url,
		Fingerprint: fingerprint,
	}
}

// readImage accepts either a JSON body with a base64 photo or a multipart
// form with the file under image, photo or file. Text fields of the request
// are copied into fields. It writes the error response itself.
func readImage(c *gin.Context, fields *models.TransformRequest) ([]byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

	var (
		raw []byte
		err error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		raw, err = readMultipart(c, fields)
	} else {
		raw, err = readJSON(c, fields)
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			badRequest(c, "request body too large")
			return nil, false
		}
		badRequest(c, err.Error())
		return nil, false
	}

	if len(raw) > imageproc.MaxInputBytes {
		badRequest(c, fmt.Sprintf("image exceeds %d MiB limit", imageproc.MaxInputBytes>>20))
		return nil, false
	}
	return raw, true
}

func readJSON(c *gin.Context, fields *models.TransformRequest) ([]byte, error) {
	if err := c.ShouldBindJSON(fields); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, errors.New("invalid request body")
	}
	if strings.TrimSpace(fields.Photo) == "" {
		return nil, errors.New("photo is required")
	}
	raw, err := decodePhoto(fields.Photo)
	if err != nil {
		return nil, errors.New("photo is not valid base64")
	}
	return raw, nil
}

func readMultipart(c *gin.Context, fields *models.TransformRequest) ([]byte, error) {
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, errors.New("failed to parse multipart form")
	}

	fields.ProjectID = firstValue(form.Value["project_id"])
	fields.Style = firstValue(form.Value["style"])

	for _, name := range imageFieldNames {
		files := form.File[name]
		if len(files) == 0 {
			continue
		}
		src, err := files[0].Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s", name)
		}
		defer src.Close()

		raw, err := io.ReadAll(src)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s", name)
		}
		return raw, nil
	}
	return nil, fmt.Errorf("no image uploaded, use one of these fields: %s", strings.Join(imageFieldNames, ", "))
}

// decodePhoto strips an optional data URI prefix and decodes padded or
// unpadded base64.
func decodePhoto(photo string) ([]byte, error) {
	photo = strings.TrimSpace(photo)
	if strings.HasPrefix(photo, "data:") {
		if i := strings.Index(photo, ","); i >= 0 {
			photo = photo[i+1:]
		}
	}
	if raw, err := base64.StdEncoding.DecodeString(photo); err == nil {
		return raw, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(photo, "="))
}

func firstValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

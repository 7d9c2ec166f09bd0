package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/d60-Lab/creation-studio/internal/api/middleware"
	"github.com/d60-Lab/creation-studio/internal/auth"
	"github.com/d60-Lab/creation-studio/internal/service"
	"github.com/d60-Lab/creation-studio/pkg/errcode"
)

const (
	maxImageBytes  = 10 << 20
	maxResumeBytes = 5 << 20
)

// Pinger reports storage liveness; *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler 聚合所有 HTTP 处理器
type Handler struct {
	creations  service.CreationService
	generation service.GenerationService
	db         Pinger
}

func New(creations service.CreationService, generation service.GenerationService, db Pinger) *Handler {
	return &Handler{creations: creations, generation: generation, db: db}
}

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("singleword", singleWord)
	}
}

// singleWord accepts one token without whitespace.
func singleWord(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s != "" && !strings.ContainsFunc(s, unicode.IsSpace)
}

// callerFrom reads what auth.Middleware and middleware.PlanGate stored.
func callerFrom(c *gin.Context) (service.Caller, error) {
	id, ok := auth.FromGin(c)
	if !ok {
		return service.Caller{}, errcode.Unauthorized("Not authenticated")
	}
	usage, ok := middleware.UsageFrom(c)
	if !ok {
		return service.Caller{}, errcode.Unauthorized("Not authenticated")
	}
	return service.Caller{UserID: id.UserID, Usage: usage}, nil
}

// bindError turns validator failures into the message registered for
// "Field.tag", falling back to a generic one.
func bindError(err error, messages map[string]string) error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
				return errcode.Validation(msg)
			}
		}
		return errcode.Validation(fmt.Sprintf("Invalid field %s", ve[0].Field()))
	}
	return errcode.Validation("Invalid request body")
}

type uploadRule struct {
	field       string
	maxBytes    int64
	limitLabel  string
	missing     string
	contentType func(string) bool
	badType     string
}

func (r uploadRule) tooLarge() error {
	return errcode.Validation(fmt.Sprintf("File size exceeds allowed limit (%s).", r.limitLabel))
}

// bodyTooLarge reports whether err came from the request body cap.
func bodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

// readUpload loads one multipart file into memory and checks its size and
// sniffed content type.
func readUpload(c *gin.Context, rule uploadRule) ([]byte, error) {
	fh, err := c.FormFile(rule.field)
	if err != nil {
		if bodyTooLarge(err) {
			return nil, rule.tooLarge()
		}
		return nil, errcode.Validation(rule.missing)
	}
	if fh.Size > rule.maxBytes {
		return nil, rule.tooLarge()
	}
	f, err := fh.Open()
	if err != nil {
		return nil, errcode.Validation(rule.missing)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, rule.maxBytes+1))
	if err != nil {
		return nil, errcode.Validation("Failed to read uploaded file")
	}
	if int64(len(data)) > rule.maxBytes {
		return nil, rule.tooLarge()
	}
	if !rule.contentType(http.DetectContentType(data)) {
		return nil, errcode.Validation(rule.badType)
	}
	return data, nil
}

var (
	imageUpload = uploadRule{
		field:       "image",
		maxBytes:    maxImageBytes,
		limitLabel:  "10MB",
		missing:     "No image file uploaded",
		contentType: func(ct string) bool { return strings.HasPrefix(ct, "image/") },
		badType:     "Only image files are supported.",
	}
	resumeUpload = uploadRule{
		field:       "resume",
		maxBytes:    maxResumeBytes,
		limitLabel:  "5MB",
		missing:     "No resume file uploaded",
		contentType: func(ct string) bool { return ct == "application/pdf" },
		badType:     "Only PDF files are supported.",
	}
)

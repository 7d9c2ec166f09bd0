package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/creation-studio/internal/service"
	"github.com/d60-Lab/creation-studio/pkg/response"
)

type articleRequest struct {
	Prompt string `json:"prompt" binding:"required,max=2000"`
	Length int    `json:"length" binding:"required,min=1,max=5000"`
}

type blogTitleRequest struct {
	Prompt string `json:"prompt" binding:"required,max=2000"`
}

type imageRequest struct {
	Prompt  string `json:"prompt" binding:"required,max=1000"`
	Publish bool   `json:"publish"`
}

type objectRemovalForm struct {
	Object string `form:"object" binding:"required,singleword"`
}

// ContentResponse AI 操作的返回
type ContentResponse struct {
	Success bool   `json:"success"`
	Content string `json:"content"`
}

func (h *Handler) respondContent(c *gin.Context, content string, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"content": content})
}

// GenerateArticle 生成文章
// @Summary 生成文章（免费额度计量）
// @Tags AI
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body articleRequest true "主题与目标字数"
// @Success 200 {object} ContentResponse
// @Failure 400 {object} response.Response
// @Failure 402 {object} response.Response
// @Failure 502 {object} response.Response
// @Failure 504 {object} response.Response
// @Router /api/ai/generate-article [post]
func (h *Handler) GenerateArticle(c *gin.Context) {
	var req articleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, map[string]string{
			"Prompt.required": "Prompt is required",
			"Length.required": "Length is required",
			"Length.min":      "Length must be positive",
			"Length.max":      "Length must be at most 5000 words",
		}))
		return
	}
	caller, err := callerFrom(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	content, err := h.generation.GenerateArticle(c.Request.Context(), caller, service.ArticleInput{Prompt: req.Prompt, Length: req.Length})
	h.respondContent(c, content, err)
}

// GenerateBlogTitle 生成博客标题
// @Summary 生成博客标题（免费额度计量）
// @Tags AI
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body blogTitleRequest true "关键词"
// @Success 200 {object} ContentResponse
// @Failure 402 {object} response.Response
// @Router /api/ai/generate-blog-title [post]
func (h *Handler) GenerateBlogTitle(c *gin.Context) {
	var req blogTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, map[string]string{"Prompt.required": "Prompt is required"}))
		return
	}
	caller, err := callerFrom(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	content, err := h.generation.GenerateBlogTitle(c.Request.Context(), caller, req.Prompt)
	h.respondContent(c, content, err)
}

// GenerateImage 文生图
// @Summary 生成图片（仅 premium）
// @Tags AI
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body imageRequest true "描述与是否发布"
// @Success 200 {object} ContentResponse
// @Failure 403 {object} response.Response
// @Router /api/ai/generate-image [post]
func (h *Handler) GenerateImage(c *gin.Context) {
	var req imageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, map[string]string{"Prompt.required": "Prompt is required"}))
		return
	}
	caller, err := callerFrom(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	content, err := h.generation.GenerateImage(c.Request.Context(), caller, service.ImageInput{Prompt: req.Prompt, Publish: req.Publish})
	h.respondContent(c, content, err)
}

// RemoveImageBackground 去除背景
// @Summary 去除图片背景（仅 premium）
// @Tags AI
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param image formData file true "图片，最大 10MB"
// @Success 200 {object} ContentResponse
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/ai/remove-image-background [post]
func (h *Handler) RemoveImageBackground(c *gin.Context) {
	img, err := readUpload(c, imageUpload)
	if err != nil {
		response.Error(c, err)
		return
	}
	caller, err := callerFrom(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	content, err := h.generation.RemoveBackground(c.Request.Context(), caller, img)
	h.respondContent(c, content, err)
}

// RemoveImageObject 移除图片中的物体
// @Summary 移除图片中的物体（仅 premium）
// @Tags AI
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param image formData file true "图片，最大 10MB"
// @Param object formData string true "要移除的物体，单个词"
// @Success 200 {object} ContentResponse
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/ai/remove-image-object [post]
func (h *Handler) RemoveImageObject(c *gin.Context) {
	var form objectRemovalForm
	if err := c.ShouldBind(&form); err != nil {
		if bodyTooLarge(err) {
			response.Error(c, imageUpload.tooLarge())
			return
		}
		response.Error(c, bindError(err, map[string]string{
			"Object.required":   "Object to remove is required",
			"Object.singleword": "Please enter only one object name",
		}))
		return
	}
	img, err := readUpload(c, imageUpload)
	if err != nil {
		response.Error(c, err)
		return
	}
	caller, err := callerFrom(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	content, err := h.generation.RemoveObject(c.Request.Context(), caller, img, form.Object)
	h.respondContent(c, content, err)
}

// ResumeReview 简历点评
// @Summary 简历点评（仅 premium）
// @Tags AI
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param resume formData file true "PDF，最大 5MB"
// @Success 200 {object} ContentResponse
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/ai/resume-review [post]
func (h *Handler) ResumeReview(c *gin.Context) {
	doc, err := readUpload(c, resumeUpload)
	if err != nil {
		response.Error(c, err)
		return
	}
	caller, err := callerFrom(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	content, err := h.generation.ReviewResume(c.Request.Context(), caller, doc)
	h.respondContent(c, content, err)
}

package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/creation-studio/internal/auth"
	"github.com/d60-Lab/creation-studio/internal/service"
	"github.com/d60-Lab/creation-studio/pkg/errcode"
	"github.com/d60-Lab/creation-studio/pkg/response"
)

type toggleLikeRequest struct {
	ID string `json:"id"`
}

// CreationsResponse 创作列表
type CreationsResponse struct {
	Success   bool                   `json:"success"`
	Creations []service.CreationView `json:"creations"`
	Count     int                    `json:"count"`
}

// ToggleLikeResponse 点赞切换结果
type ToggleLikeResponse struct {
	Success    bool     `json:"success"`
	Message    string   `json:"message"`
	Likes      []string `json:"likes"`
	HasLiked   bool     `json:"hasLiked"`
	LikesCount int      `json:"likesCount"`
}

// GetUserCreations 我的创作
// @Summary 当前用户的全部创作，按创建时间倒序
// @Tags 创作
// @Produce json
// @Security BearerAuth
// @Success 200 {object} CreationsResponse
// @Failure 500 {object} response.Response
// @Router /api/user/get-user-creations [get]
func (h *Handler) GetUserCreations(c *gin.Context) {
	id, ok := auth.FromGin(c)
	if !ok {
		response.Error(c, errcode.Unauthorized("Not authenticated"))
		return
	}
	list, err := h.creations.ListMine(c.Request.Context(), id.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"creations": list, "count": len(list)})
}

// GetPublishedCreations 社区作品
// @Summary 已发布的创作，按创建时间倒序
// @Tags 创作
// @Produce json
// @Security BearerAuth
// @Success 200 {object} CreationsResponse
// @Failure 500 {object} response.Response
// @Router /api/user/get-published-creations [get]
func (h *Handler) GetPublishedCreations(c *gin.Context) {
	list, err := h.creations.ListPublished(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"creations": list, "count": len(list)})
}

// ToggleLikeCreation 点赞 / 取消点赞
// @Summary 切换当前用户对创作的点赞
// @Tags 创作
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body toggleLikeRequest true "创作ID"
// @Success 200 {object} ToggleLikeResponse
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/user/toggle-like-creation [post]
func (h *Handler) ToggleLikeCreation(c *gin.Context) {
	id, ok := auth.FromGin(c)
	if !ok {
		response.Error(c, errcode.Unauthorized("Not authenticated"))
		return
	}
	var req toggleLikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Creation ID is required")
		return
	}
	res, err := h.creations.ToggleLike(c.Request.Context(), req.ID, id.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{
		"message":    res.Message,
		"likes":      res.Likes,
		"hasLiked":   res.HasLiked,
		"likesCount": res.LikesCount,
	})
}

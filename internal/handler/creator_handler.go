package handler

import (
	"net/http"
	"strings"

	"github.com/blues/mss/internal/logic"
	"github.com/gin-gonic/gin"
)

type CreatorHandler struct {
	reputation *logic.ReputationLogic
}

func NewCreatorHandler(reputation *logic.ReputationLogic) *CreatorHandler {
	return &CreatorHandler{reputation: reputation}
}

// GetProfile 获取创建者档案（不存在则懒创建零值档案）
func (h *CreatorHandler) GetProfile(c *gin.Context) {
	address := c.Param("address")
	if address == "" {
		ErrorResponse(c, http.StatusBadRequest, "缺少创建者地址")
		return
	}

	profile, err := h.reputation.GetProfile(address)
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", profile)
}

// UpdateProfile 更新创建者档案展示字段
// 只允许本人更新：路径地址必须与身份协作方注入的钱包地址一致
func (h *CreatorHandler) UpdateProfile(c *gin.Context) {
	address := c.Param("address")
	caller := c.GetHeader(walletHeader)
	if caller == "" || !strings.EqualFold(caller, address) {
		ErrorResponse(c, http.StatusForbidden, "只能更新本人档案")
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := h.reputation.UpdateProfile(address,
		req.DisplayName, req.Bio, req.ProfileImageUrl, req.SocialLinks)
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "档案更新成功", profile)
}

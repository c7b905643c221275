package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/mss/internal/logic"
	"github.com/gin-gonic/gin"
)

type ReleaseHandler struct {
	release    *logic.ReleaseLogic
	milestones *logic.MilestoneLogic
}

func NewReleaseHandler(release *logic.ReleaseLogic, milestones *logic.MilestoneLogic) *ReleaseHandler {
	return &ReleaseHandler{release: release, milestones: milestones}
}

// GetReleasable 查询当前可释放金额
func (h *ReleaseHandler) GetReleasable(c *gin.Context) {
	campaignId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的活动ID")
		return
	}

	releasable, err := h.release.ComputeReleasable(campaignId)
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", gin.H{
		"campaign_id": campaignId,
		"releasable":  releasable,
	})
}

// AuthorizeRelease 显式授权释放某档位（确认时因资金不足被推迟的场景）
func (h *ReleaseHandler) AuthorizeRelease(c *gin.Context) {
	campaignId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的活动ID")
		return
	}
	idx, err := strconv.Atoi(c.Param("idx"))
	if err != nil || idx < 0 {
		ErrorResponse(c, http.StatusBadRequest, "无效的里程碑序号")
		return
	}

	milestone, err := h.milestones.ResolveByIdx(nil, campaignId, idx)
	if err != nil {
		FailWith(c, err)
		return
	}

	instruction, err := h.release.AuthorizeRelease(campaignId, milestone)
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "释放已授权", instruction)
}

package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/mss/internal/logic"
	"github.com/gin-gonic/gin"
)

type ProofHandler struct {
	proofs     *logic.ProofLogic
	milestones *logic.MilestoneLogic
}

func NewProofHandler(proofs *logic.ProofLogic, milestones *logic.MilestoneLogic) *ProofHandler {
	return &ProofHandler{proofs: proofs, milestones: milestones}
}

// GetMilestones 获取活动的里程碑序列
func (h *ProofHandler) GetMilestones(c *gin.Context) {
	campaignId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的活动ID")
		return
	}

	milestones, err := h.milestones.GetCampaignMilestones(campaignId)
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", milestones)
}

// SubmitProof 创建者提交完成证明
func (h *ProofHandler) SubmitProof(c *gin.Context) {
	campaignId, idx, ok := h.parseKey(c)
	if !ok {
		return
	}

	var req SubmitProofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	proof, err := h.proofs.Submit(campaignId, idx, req.EvidenceRef)
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "证明提交成功", proof)
}

// ReviewProof 审核证明
func (h *ProofHandler) ReviewProof(c *gin.Context) {
	campaignId, idx, ok := h.parseKey(c)
	if !ok {
		return
	}

	var req ReviewProofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	reviewer := c.GetHeader(walletHeader)
	proof, deferred, err := h.proofs.Review(campaignId, idx, req.Decision, reviewer)
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "审核完成", gin.H{
		"proof":            proof,
		"release_deferred": deferred,
	})
}

// GetProofs 获取活动的全部证明
func (h *ProofHandler) GetProofs(c *gin.Context) {
	campaignId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的活动ID")
		return
	}

	proofs, err := h.proofs.List(campaignId)
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", proofs)
}

func (h *ProofHandler) parseKey(c *gin.Context) (int64, int, bool) {
	campaignId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的活动ID")
		return 0, 0, false
	}
	idx, err := strconv.Atoi(c.Param("idx"))
	if err != nil || idx < 0 {
		ErrorResponse(c, http.StatusBadRequest, "无效的里程碑序号")
		return 0, 0, false
	}
	return campaignId, idx, true
}

package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/mss/internal/logic"
	"github.com/blues/mss/internal/model"
	"github.com/gin-gonic/gin"
)

// operatorHeader 管理操作的操作者身份，由身份协作方注入
const operatorHeader = "X-Operator-Address"

type AdminHandler struct {
	proofs *logic.ProofLogic
}

func NewAdminHandler(proofs *logic.ProofLogic) *AdminHandler {
	return &AdminHandler{proofs: proofs}
}

// ListProofs 巡检全部证明记录，只读
func (h *AdminHandler) ListProofs(c *gin.Context) {
	proofs, err := h.proofs.ListAll()
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", proofs)
}

// ForceSetStatus 强制写入证明状态（绕过状态机，写审计日志）
func (h *AdminHandler) ForceSetStatus(c *gin.Context) {
	campaignId, idx, operator, ok := h.parseAdminKey(c)
	if !ok {
		return
	}

	var req ForceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	proof, err := h.proofs.ForceSetStatus(campaignId, idx, model.ProofStatus(req.Status), operator)
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "状态已强制写入", proof)
}

// RemoveProof 硬删除证明（人工恢复用，写审计日志）
func (h *AdminHandler) RemoveProof(c *gin.Context) {
	campaignId, idx, operator, ok := h.parseAdminKey(c)
	if !ok {
		return
	}

	if err := h.proofs.Remove(campaignId, idx, operator); err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "证明已删除", nil)
}

func (h *AdminHandler) parseAdminKey(c *gin.Context) (int64, int, string, bool) {
	operator := c.GetHeader(operatorHeader)
	if operator == "" {
		ErrorResponse(c, http.StatusBadRequest, "缺少操作者地址")
		return 0, 0, "", false
	}

	campaignId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的活动ID")
		return 0, 0, "", false
	}
	idx, err := strconv.Atoi(c.Param("idx"))
	if err != nil || idx < 0 {
		ErrorResponse(c, http.StatusBadRequest, "无效的里程碑序号")
		return 0, 0, "", false
	}
	return campaignId, idx, operator, true
}

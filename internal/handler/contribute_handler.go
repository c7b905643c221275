package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/mss/internal/logic"
	"github.com/blues/mss/internal/model"
	"github.com/gin-gonic/gin"
)

type ContributeHandler struct {
	contribute *logic.ContributeLogic
}

func NewContributeHandler(contribute *logic.ContributeLogic) *ContributeHandler {
	return &ContributeHandler{contribute: contribute}
}

// Contribute 记录一笔贡献
func (h *ContributeHandler) Contribute(c *gin.Context) {
	campaignId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的活动ID")
		return
	}

	var req ContributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	contributor := c.GetHeader(walletHeader)
	if contributor == "" {
		ErrorResponse(c, http.StatusBadRequest, "缺少钱包地址")
		return
	}

	record := model.ContributeRecordModel{
		CampaignId: campaignId,
		Amount:     req.Amount,
		Address:    contributor,
		TxHash:     req.TxHash,
		BlockNum:   req.BlockNum,
	}
	if err := h.contribute.Record(&record); err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "贡献记录成功", record)
}

// GetContributions 获取活动贡献记录
func (h *ContributeHandler) GetContributions(c *gin.Context) {
	campaignId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的活动ID")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	records, total, err := h.contribute.List(campaignId, page, pageSize)
	if err != nil {
		FailWith(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"contributions": records,
		"total":         total,
		"page":          page,
		"page_size":     pageSize,
	})
}

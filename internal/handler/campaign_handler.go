package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/mss/internal/logic"
	"github.com/blues/mss/internal/model"
	"github.com/gin-gonic/gin"
)

// walletHeader 身份协作方注入的已认证地址
const walletHeader = "X-Wallet-Address"

type CampaignHandler struct {
	campaigns *logic.CampaignLogic
}

func NewCampaignHandler(campaigns *logic.CampaignLogic) *CampaignHandler {
	return &CampaignHandler{campaigns: campaigns}
}

// CreateCampaign 创建活动
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var req CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	creator := c.GetHeader(walletHeader)
	if creator == "" {
		ErrorResponse(c, http.StatusBadRequest, "缺少钱包地址")
		return
	}

	campaign := model.CampaignModel{
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		GoalAmount:     req.GoalAmount,
		DurationDays:   req.DurationDays,
		CreatorAddress: creator,
		CreatorName:    req.CreatorName,
	}
	if req.Deadline != nil {
		campaign.Deadline = *req.Deadline
	}

	if err := h.campaigns.CreateCampaign(&campaign, req.Milestones); err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "活动创建成功", campaign)
}

// GetCampaigns 获取活动列表
func (h *CampaignHandler) GetCampaigns(c *gin.Context) {
	status := c.Query("status")
	category := c.Query("category")
	creator := c.Query("creator")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	campaigns, total, err := h.campaigns.GetCampaigns(status, category, creator, page, pageSize)
	if err != nil {
		FailWith(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"campaigns": campaigns,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetCampaign 获取活动详情
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的活动ID")
		return
	}

	campaign, err := h.campaigns.GetCampaign(id)
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", campaign)
}

// GetCampaignStats 获取活动统计信息
func (h *CampaignHandler) GetCampaignStats(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的活动ID")
		return
	}

	stats, err := h.campaigns.GetCampaignStats(id)
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", stats)
}

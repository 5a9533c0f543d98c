package handler

import (
	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/service"
	"github.com/gin-gonic/gin"
)

// ReportHandler 报告处理器
type ReportHandler struct {
	svc *service.ReportService
}

// NewReportHandler 创建报告处理器
func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// List 获取报告列表
func (h *ReportHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]interface{}{
		"keyword":            c.Query("search"),
		"status":             c.Query("status"),
		"report_type":        c.Query("report_type"),
		"service_request_id": c.Query("service_request_id"),
	}
	items, total, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, NewListResponse(items, page, pageSize, total))
}

// Get 获取报告详情
func (h *ReportHandler) Get(c *gin.Context) {
	item, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, item)
}

// Create 创建报告
func (h *ReportHandler) Create(c *gin.Context) {
	var req service.CreateReportReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	item, err := h.svc.Create(c.Request.Context(), req, GetUserID(c))
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, item)
}

// Update 更新报告
func (h *ReportHandler) Update(c *gin.Context) {
	var req service.UpdateReportReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	item, err := h.svc.Update(c.Request.Context(), c.Param("id"), req, GetUserID(c))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, item)
}

// Submit 提交报告评审
func (h *ReportHandler) Submit(c *gin.Context) {
	item, err := h.svc.Submit(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, item)
}

// ReviewReq 评审请求
type ReviewReq struct {
	Approved *bool  `json:"approved" binding:"required"`
	Comments string `json:"comments"`
}

// Review 评审报告
func (h *ReportHandler) Review(c *gin.Context) {
	var req ReviewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	item, err := h.svc.Review(c.Request.Context(), c.Param("id"), *req.Approved, GetUserID(c))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, item)
}

// Issue 签发报告
func (h *ReportHandler) Issue(c *gin.Context) {
	item, err := h.svc.Issue(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, item)
}

// Download 下载结构化报告文档
func (h *ReportHandler) Download(c *gin.Context) {
	doc, err := h.svc.BuildDocument(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, doc)
}

// Delete 删除报告
func (h *ReportHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), GetUserID(c)); err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"message": "deleted"})
}

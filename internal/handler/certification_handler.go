package handler

import (
	"time"

	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/service"
	"github.com/gin-gonic/gin"
)

// CertificationHandler 证书处理器
type CertificationHandler struct {
	svc *service.CertificationService
}

// NewCertificationHandler 创建证书处理器
func NewCertificationHandler(svc *service.CertificationService) *CertificationHandler {
	return &CertificationHandler{svc: svc}
}

// List 获取证书列表
func (h *CertificationHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]interface{}{
		"keyword":            c.Query("search"),
		"status":             c.Query("status"),
		"certificate_type":   c.Query("certificate_type"),
		"service_request_id": c.Query("service_request_id"),
	}
	items, total, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, NewListResponse(items, page, pageSize, total))
}

// Get 获取证书详情
func (h *CertificationHandler) Get(c *gin.Context) {
	item, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, item)
}

// Create 创建证书
func (h *CertificationHandler) Create(c *gin.Context) {
	var req service.CreateCertReq
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

// Update 更新证书
func (h *CertificationHandler) Update(c *gin.Context) {
	var req service.UpdateCertReq
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

// IssueReq 签发请求
type IssueReq struct {
	IssueDate *time.Time `json:"issue_date"`
}

// Issue 签发证书
func (h *CertificationHandler) Issue(c *gin.Context) {
	var req IssueReq
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		BadRequest(c, err.Error())
		return
	}
	item, err := h.svc.Issue(c.Request.Context(), c.Param("id"), req.IssueDate, GetUserID(c))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, item)
}

// RevokeReq 吊销请求
type RevokeReq struct {
	Reason string `json:"reason" binding:"required"`
}

// Revoke 吊销证书
func (h *CertificationHandler) Revoke(c *gin.Context) {
	var req RevokeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	item, err := h.svc.Revoke(c.Request.Context(), c.Param("id"), req.Reason, GetUserID(c))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, item)
}

// Verify 公开验证证书
func (h *CertificationHandler) Verify(c *gin.Context) {
	result, err := h.svc.Verify(c.Request.Context(), c.Param("certificateNumber"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, result)
}

// Download 下载结构化证书文档
func (h *CertificationHandler) Download(c *gin.Context) {
	doc, err := h.svc.BuildDocument(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, doc)
}

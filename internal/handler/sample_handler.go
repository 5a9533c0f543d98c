package handler

import (
	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/service"
	"github.com/gin-gonic/gin"
)

// SampleHandler 样品处理器
type SampleHandler struct {
	svc *service.SampleService
}

// NewSampleHandler 创建样品处理器
func NewSampleHandler(svc *service.SampleService) *SampleHandler {
	return &SampleHandler{svc: svc}
}

// List 获取样品列表
func (h *SampleHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]interface{}{
		"keyword":            c.Query("search"),
		"status":             c.Query("status"),
		"sample_type":        c.Query("sample_type"),
		"service_request_id": c.Query("service_request_id"),
		"sort_by":            c.Query("sort_by"),
		"sort_dir":           c.Query("sort_dir"),
	}
	items, total, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, NewListResponse(items, page, pageSize, total))
}

// Get 获取样品详情
func (h *SampleHandler) Get(c *gin.Context) {
	item, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, item)
}

// CustodyChain 获取样品流转链
func (h *SampleHandler) CustodyChain(c *gin.Context) {
	records, err := h.svc.GetCustodyChain(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, records)
}

// Create 登记样品
func (h *SampleHandler) Create(c *gin.Context) {
	var req service.CreateSampleReq
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

// Update 更新样品
func (h *SampleHandler) Update(c *gin.Context) {
	var req service.UpdateSampleReq
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

// Receive 接收样品
func (h *SampleHandler) Receive(c *gin.Context) {
	var req service.ReceiveSampleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	item, err := h.svc.Receive(c.Request.Context(), c.Param("id"), req, GetUserID(c))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, item)
}

// Transfer 转移样品
func (h *SampleHandler) Transfer(c *gin.Context) {
	var req service.TransferSampleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	item, err := h.svc.Transfer(c.Request.Context(), c.Param("id"), req, GetUserID(c))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, item)
}

// Delete 删除样品
func (h *SampleHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), GetUserID(c)); err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"message": "deleted"})
}

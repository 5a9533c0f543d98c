package handler

import (
	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/service"
	"github.com/gin-gonic/gin"
)

// ServiceRequestHandler 委托请求处理器
type ServiceRequestHandler struct {
	svc *service.ServiceRequestService
}

// NewServiceRequestHandler 创建委托请求处理器
func NewServiceRequestHandler(svc *service.ServiceRequestService) *ServiceRequestHandler {
	return &ServiceRequestHandler{svc: svc}
}

// List 获取委托请求列表
func (h *ServiceRequestHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]interface{}{
		"keyword":         c.Query("search"),
		"status":          c.Query("status"),
		"request_type":    c.Query("request_type"),
		"priority":        c.Query("priority"),
		"customer_id":     c.Query("customer_id"),
		"assigned_lab_id": c.Query("assigned_lab_id"),
		"sort_by":         c.Query("sort_by"),
		"sort_dir":        c.Query("sort_dir"),
	}
	items, total, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, NewListResponse(items, page, pageSize, total))
}

// Get 获取委托请求详情
func (h *ServiceRequestHandler) Get(c *gin.Context) {
	item, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, item)
}

// Create 创建委托请求
func (h *ServiceRequestHandler) Create(c *gin.Context) {
	var req service.CreateRequestReq
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

// Update 更新委托请求
func (h *ServiceRequestHandler) Update(c *gin.Context) {
	var req service.UpdateRequestReq
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

// Submit 提交委托请求
func (h *ServiceRequestHandler) Submit(c *gin.Context) {
	item, err := h.svc.Submit(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, item)
}

// Approve 审批通过委托请求
func (h *ServiceRequestHandler) Approve(c *gin.Context) {
	item, err := h.svc.Approve(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, item)
}

// Delete 删除委托请求
func (h *ServiceRequestHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), GetUserID(c)); err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"message": "deleted"})
}

package handler

import (
	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/service"
	"github.com/gin-gonic/gin"
)

// LabFacilityHandler 实验室处理器
type LabFacilityHandler struct {
	svc *service.LabFacilityService
}

// NewLabFacilityHandler 创建实验室处理器
func NewLabFacilityHandler(svc *service.LabFacilityService) *LabFacilityHandler {
	return &LabFacilityHandler{svc: svc}
}

// List 获取实验室列表
func (h *LabFacilityHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]interface{}{
		"keyword":       c.Query("search"),
		"facility_type": c.Query("facility_type"),
	}
	if active := c.Query("is_active"); active != "" {
		filters["is_active"] = active == "true"
	}
	items, total, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, NewListResponse(items, page, pageSize, total))
}

// Get 获取实验室详情
func (h *LabFacilityHandler) Get(c *gin.Context) {
	item, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, item)
}

// Create 创建实验室
func (h *LabFacilityHandler) Create(c *gin.Context) {
	var req service.CreateLabReq
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

// Update 更新实验室
func (h *LabFacilityHandler) Update(c *gin.Context) {
	var req service.UpdateLabReq
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

// Workload 获取实验室工作负荷
func (h *LabFacilityHandler) Workload(c *gin.Context) {
	w, err := h.svc.GetWorkload(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, w)
}

// Delete 删除实验室
func (h *LabFacilityHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), GetUserID(c)); err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"message": "deleted"})
}

package handler

import (
	"net/url"

	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/service"
	"github.com/gin-gonic/gin"
)

// TestPlanHandler 测试计划处理器
type TestPlanHandler struct {
	svc *service.TestPlanService
}

// NewTestPlanHandler 创建测试计划处理器
func NewTestPlanHandler(svc *service.TestPlanService) *TestPlanHandler {
	return &TestPlanHandler{svc: svc}
}

// List 获取测试计划列表
func (h *TestPlanHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]interface{}{
		"keyword":            c.Query("search"),
		"status":             c.Query("status"),
		"service_request_id": c.Query("service_request_id"),
		"assigned_lab_id":    c.Query("assigned_lab_id"),
		"standard_id":        c.Query("standard_id"),
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

// Get 获取测试计划详情，附带结果统计
func (h *TestPlanHandler) Get(c *gin.Context) {
	id := c.Param("id")
	plan, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	counts, err := h.svc.GetResultCounts(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"plan": plan, "result_counts": counts})
}

// ListStandards 获取启用的测试标准
func (h *TestPlanHandler) ListStandards(c *gin.Context) {
	stds, err := h.svc.ListStandards(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, stds)
}

// Create 创建测试计划
func (h *TestPlanHandler) Create(c *gin.Context) {
	var req service.CreatePlanReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	plan, err := h.svc.Create(c.Request.Context(), req, GetUserID(c))
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, plan)
}

// Update 更新测试计划
func (h *TestPlanHandler) Update(c *gin.Context) {
	var req service.UpdatePlanReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	plan, err := h.svc.Update(c.Request.Context(), c.Param("id"), req, GetUserID(c))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, plan)
}

// Delete 删除测试计划
func (h *TestPlanHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), GetUserID(c)); err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"message": "deleted"})
}

// AddResult 新增测试结果
func (h *TestPlanHandler) AddResult(c *gin.Context) {
	var req service.AddResultReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	result, err := h.svc.AddResult(c.Request.Context(), c.Param("id"), req, GetUserID(c))
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, result)
}

// UpdateResult 更新测试结果
func (h *TestPlanHandler) UpdateResult(c *gin.Context) {
	var req service.UpdateResultReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	result, err := h.svc.UpdateResult(c.Request.Context(), c.Param("id"), c.Param("resultId"), req, GetUserID(c))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, result)
}

// VerifyResult 复核测试结果
func (h *TestPlanHandler) VerifyResult(c *gin.Context) {
	result, err := h.svc.VerifyResult(c.Request.Context(), c.Param("id"), c.Param("resultId"), GetUserID(c))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, result)
}

// Complete 完成测试计划
func (h *TestPlanHandler) Complete(c *gin.Context) {
	plan, err := h.svc.Complete(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, plan)
}

// ExportResults 导出测试结果Excel
func (h *TestPlanHandler) ExportResults(c *gin.Context) {
	data, filename, err := h.svc.ExportResults(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+url.PathEscape(filename))
	c.Data(200, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

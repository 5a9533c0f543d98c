package handler

import (
	"strconv"

	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/service"
	"github.com/gin-gonic/gin"
)

// DashboardHandler 仪表盘处理器
type DashboardHandler struct {
	svc *service.DashboardService
}

// NewDashboardHandler 创建仪表盘处理器
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

// Stats 全局统计
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.svc.GetStats(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, stats)
}

// KPIs 周期绩效指标
func (h *DashboardHandler) KPIs(c *gin.Context) {
	kpis, err := h.svc.GetKPIs(c.Request.Context(), c.Query("period"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, kpis)
}

// RecentActivity 最近操作记录
func (h *DashboardHandler) RecentActivity(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	logs, err := h.svc.GetRecentActivity(c.Request.Context(), limit)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, logs)
}

// StandardsSummary 按标准汇总
func (h *DashboardHandler) StandardsSummary(c *gin.Context) {
	summary, err := h.svc.GetStandardsSummary(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, summary)
}

// LabUtilization 实验室利用率
func (h *DashboardHandler) LabUtilization(c *gin.Context) {
	util, err := h.svc.GetLabUtilization(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, util)
}

// UpcomingDeadlines 临近交期的请求
func (h *DashboardHandler) UpcomingDeadlines(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "14"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	items, err := h.svc.GetUpcomingDeadlines(c.Request.Context(), days, limit)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, items)
}

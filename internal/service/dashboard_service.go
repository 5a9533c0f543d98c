package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/model/entity"
	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/repository"
	"github.com/redis/go-redis/v9"
)

// 仪表盘缓存TTL
const dashboardCacheTTL = 60 * time.Second

// DashboardService 仪表盘统计服务
type DashboardService struct {
	repos *repository.Repositories
	rdb   *redis.Client
}

// NewDashboardService 创建仪表盘服务
func NewDashboardService(repos *repository.Repositories, rdb *redis.Client) *DashboardService {
	return &DashboardService{repos: repos, rdb: rdb}
}

// cached 先查redis缓存，未命中则计算并回填
func (s *DashboardService) cached(ctx context.Context, key string, dest interface{}, compute func() (interface{}, error)) error {
	if s.rdb != nil {
		if raw, err := s.rdb.Get(ctx, key).Result(); err == nil && raw != "" {
			if err := json.Unmarshal([]byte(raw), dest); err == nil {
				return nil
			}
		}
	}
	value, err := compute()
	if err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if s.rdb != nil {
		s.rdb.Set(ctx, key, data, dashboardCacheTTL)
	}
	return json.Unmarshal(data, dest)
}

// Stats 全局统计
type Stats struct {
	Requests map[string]int64 `json:"requests"`
	Samples  map[string]int64 `json:"samples"`
	Plans    map[string]int64 `json:"plans"`
}

// GetStats 获取全局统计
func (s *DashboardService) GetStats(ctx context.Context) (*Stats, error) {
	var stats Stats
	err := s.cached(ctx, "dashboard:stats", &stats, func() (interface{}, error) {
		requests, err := s.repos.ServiceRequest.CountByStatus(ctx)
		if err != nil {
			return nil, err
		}
		samples, err := s.repos.Sample.CountByStatus(ctx)
		if err != nil {
			return nil, err
		}
		plans, err := s.repos.TestPlan.CountByStatus(ctx)
		if err != nil {
			return nil, err
		}
		return &Stats{Requests: requests, Samples: samples, Plans: plans}, nil
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// KPIs 周期绩效指标
type KPIs struct {
	Period            string  `json:"period"`
	CompletedRequests int64   `json:"completed_requests"`
	CompletionRate    float64 `json:"completion_rate"`
	OpenRequests      int64   `json:"open_requests"`
	FailedPlans       int64   `json:"failed_plans"`
	CompletedPlans    int64   `json:"completed_plans"`
}

// GetKPIs 获取周期绩效指标，period支持 7d/30d/90d
func (s *DashboardService) GetKPIs(ctx context.Context, period string) (*KPIs, error) {
	var days int
	switch period {
	case "7d":
		days = 7
	case "90d":
		days = 90
	default:
		period = "30d"
		days = 30
	}

	var kpis KPIs
	err := s.cached(ctx, "dashboard:kpis:"+period, &kpis, func() (interface{}, error) {
		now := time.Now()
		from := now.AddDate(0, 0, -days)

		completed, err := s.repos.ServiceRequest.CountCompletedBetween(ctx, from, now)
		if err != nil {
			return nil, err
		}
		byStatus, err := s.repos.ServiceRequest.CountByStatus(ctx)
		if err != nil {
			return nil, err
		}
		planStatus, err := s.repos.TestPlan.CountByStatus(ctx)
		if err != nil {
			return nil, err
		}

		var open, total int64
		for status, count := range byStatus {
			total += count
			if status != entity.RequestStatusCompleted && status != entity.RequestStatusCancelled {
				open += count
			}
		}
		rate := 0.0
		if total > 0 {
			rate = float64(byStatus[entity.RequestStatusCompleted]) / float64(total) * 100
		}

		return &KPIs{
			Period:            period,
			CompletedRequests: completed,
			CompletionRate:    rate,
			OpenRequests:      open,
			FailedPlans:       planStatus[entity.PlanStatusFailed],
			CompletedPlans:    planStatus[entity.PlanStatusCompleted],
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &kpis, nil
}

// GetRecentActivity 获取最近操作记录
func (s *DashboardService) GetRecentActivity(ctx context.Context, limit int) ([]entity.AuditLog, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.repos.AuditLog.ListRecent(ctx, limit)
}

// GetStandardsSummary 按标准汇总测试执行情况
func (s *DashboardService) GetStandardsSummary(ctx context.Context) ([]repository.StandardSummary, error) {
	var summary []repository.StandardSummary
	err := s.cached(ctx, "dashboard:standards", &summary, func() (interface{}, error) {
		return s.repos.TestPlan.SummarizeByStandard(ctx)
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// LabUtilization 实验室利用率
type LabUtilization struct {
	LabID              string  `json:"lab_id"`
	Name               string  `json:"name"`
	Code               string  `json:"code"`
	ActivePlans        int64   `json:"active_plans"`
	ActiveRequests     int64   `json:"active_requests"`
	UtilizationPercent float64 `json:"utilization_percent"`
}

// 单实验室并行计划容量基准，利用率按此折算
const labPlanCapacity = 10

// GetLabUtilization 获取各实验室利用率
func (s *DashboardService) GetLabUtilization(ctx context.Context) ([]LabUtilization, error) {
	var out []LabUtilization
	err := s.cached(ctx, "dashboard:lab_utilization", &out, func() (interface{}, error) {
		labs, _, err := s.repos.LabFacility.List(ctx, 1, 100, map[string]interface{}{"is_active": true})
		if err != nil {
			return nil, err
		}
		result := make([]LabUtilization, 0, len(labs))
		for _, lab := range labs {
			w, err := s.repos.LabFacility.GetWorkload(ctx, lab.ID)
			if err != nil {
				return nil, err
			}
			result = append(result, LabUtilization{
				LabID:              lab.ID,
				Name:               lab.Name,
				Code:               lab.Code,
				ActivePlans:        w.ActivePlans,
				ActiveRequests:     w.ActiveRequests,
				UtilizationPercent: UtilizationPercent(w.ActivePlans, labPlanCapacity),
			})
		}
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UtilizationPercent 利用率百分比，超容量封顶100
func UtilizationPercent(active, capacity int64) float64 {
	if capacity <= 0 {
		return 0
	}
	pct := float64(active) / float64(capacity) * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// GetUpcomingDeadlines 获取临近交期的请求
func (s *DashboardService) GetUpcomingDeadlines(ctx context.Context, withinDays, limit int) ([]entity.ServiceRequest, error) {
	if withinDays <= 0 {
		withinDays = 14
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return s.repos.ServiceRequest.ListUpcomingDeadlines(ctx, time.Duration(withinDays)*24*time.Hour, limit)
}

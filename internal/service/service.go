package service

import (
	"errors"

	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/config"
	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/repository"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// 业务错误定义，handler层据此映射HTTP状态
var (
	ErrInvalidState = errors.New("invalid state for this operation")
	ErrConflict     = errors.New("operation conflicts with current data")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("insufficient permissions")
)

// Services 服务集合
type Services struct {
	Auth           *AuthService
	ServiceRequest *ServiceRequestService
	Sample         *SampleService
	TestPlan       *TestPlanService
	Report         *ReportService
	Certification  *CertificationService
	LabFacility    *LabFacilityService
	Dashboard      *DashboardService
	Audit          *AuditService
	Notification   *NotificationService
}

// NewServices 创建服务集合
func NewServices(repos *repository.Repositories, db *gorm.DB, rdb *redis.Client, cfg *config.Config) *Services {
	// 初始化MinIO客户端，不可用时降级为无归档
	var minioClient *minio.Client
	if cfg.MinIO.Endpoint != "" {
		var err error
		minioClient, err = minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			minioClient = nil
		}
	}

	audit := NewAuditService(repos.AuditLog)
	notification := NewNotificationService(repos.Notification)

	return &Services{
		Auth:           NewAuthService(repos.User, rdb, cfg),
		ServiceRequest: NewServiceRequestService(repos.ServiceRequest, audit, notification),
		Sample:         NewSampleService(repos.Sample, repos.ServiceRequest, audit),
		TestPlan:       NewTestPlanService(repos.TestPlan, repos.Sample, repos.TestStandard, audit, notification),
		Report:         NewReportService(repos.Report, repos.TestPlan, audit, notification, minioClient, cfg.MinIO.Bucket),
		Certification:  NewCertificationService(repos.Certification, audit, notification, minioClient, cfg.MinIO.Bucket),
		LabFacility:    NewLabFacilityService(repos.LabFacility, audit),
		Dashboard:      NewDashboardService(repos, rdb),
		Audit:          audit,
		Notification:   notification,
	}
}

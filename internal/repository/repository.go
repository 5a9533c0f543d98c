package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ganeshgowri-ASA/solar-pv-qa-lims-powerplatform/internal/model/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 错误定义
var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrReference    = errors.New("referenced record missing")
)

// NewID 生成32位实体ID
func NewID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// translateError 将gorm错误转换为仓储层错误
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateKey
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrReference
	}
	return err
}

// NextCode 生成业务编码，如 SR-2025-0001
// 序列行加锁递增，同一事务内调用以保证编码与实体写入同生共死
func NextCode(tx *gorm.DB, prefix string) (string, error) {
	year := time.Now().Year()
	seq := entity.CodeSequence{Prefix: prefix, Year: year}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seq).Error; err != nil {
		return "", err
	}
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("prefix = ? AND year = ?", prefix, year).
		First(&seq).Error; err != nil {
		return "", err
	}
	seq.LastValue++
	if err := tx.Model(&entity.CodeSequence{}).
		Where("prefix = ? AND year = ?", prefix, year).
		Updates(map[string]interface{}{
			"last_value": seq.LastValue,
			"updated_at": time.Now(),
		}).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d-%04d", prefix, year, seq.LastValue), nil
}

// Repositories 仓库集合
type Repositories struct {
	User           *UserRepository
	Customer       *CustomerRepository
	LabFacility    *LabFacilityRepository
	TestStandard   *TestStandardRepository
	ServiceRequest *ServiceRequestRepository
	Sample         *SampleRepository
	TestPlan       *TestPlanRepository
	Report         *ReportRepository
	Certification  *CertificationRepository
	AuditLog       *AuditLogRepository
	Notification   *NotificationRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:           NewUserRepository(db),
		Customer:       NewCustomerRepository(db),
		LabFacility:    NewLabFacilityRepository(db),
		TestStandard:   NewTestStandardRepository(db),
		ServiceRequest: NewServiceRequestRepository(db),
		Sample:         NewSampleRepository(db),
		TestPlan:       NewTestPlanRepository(db),
		Report:         NewReportRepository(db),
		Certification:  NewCertificationRepository(db),
		AuditLog:       NewAuditLogRepository(db),
		Notification:   NewNotificationRepository(db),
	}
}

// allowedSort 校验排序列是否在白名单内，默认按创建时间倒序
func allowedSort(sortBy, sortDir string, allowed map[string]bool) string {
	if !allowed[sortBy] {
		return "created_at DESC"
	}
	dir := "ASC"
	if strings.EqualFold(sortDir, "desc") {
		dir = "DESC"
	}
	return sortBy + " " + dir
}

// paginate 分页查询通用收尾
func paginate(query *gorm.DB, page, pageSize int, order string, dest interface{}) (int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	offset := (page - 1) * pageSize
	err := query.Order(order).Offset(offset).Limit(pageSize).Find(dest).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

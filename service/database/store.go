/*
 * @module service/database/store
 * @description 目录持久化存储,基于 GORM 将任务/数据源/规则目录落库并在启动时载入
 * @architecture 仓储模式 - 内存目录的可选持久化后端
 * @stateFlow 启动时 Load 载入目录 -> 运行期 CRUD 随目录变更写回
 * @rules 持久化为可选能力,未配置数据库时系统纯内存运行;连接凭据加密落库
 * @dependencies gorm.io/gorm, gorm.io/driver/postgres, gorm.io/driver/sqlite, etl-service/service/utils
 * @refs service/init.go, service/pipeline/manager.go
 */

package database

import (
	"fmt"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"etl-service/service/models"
	"etl-service/service/utils"
)

// CatalogStore 目录持久化存储
type CatalogStore struct {
	db     *gorm.DB
	crypto *utils.CryptoUtils
}

// OpenFromEnv 根据环境变量打开持久化存储
// DATABASE_URL 优先;其次 DB_HOST 等分离变量;ETL_SQLITE_PATH 使用本地 sqlite;
// 均未配置时返回 nil,系统纯内存运行
func OpenFromEnv() (*CatalogStore, error) {
	var dialector gorm.Dialector

	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		dialector = postgres.Open(databaseURL)
	} else if host := os.Getenv("DB_HOST"); host != "" {
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host,
			getEnvWithDefault("DB_PORT", "5432"),
			getEnvWithDefault("DB_USER", "postgres"),
			os.Getenv("DB_PASSWORD"),
			getEnvWithDefault("DB_NAME", "postgres"),
			getEnvWithDefault("DB_SSLMODE", "disable"))
		dialector = postgres.Open(dsn)
	} else if path := os.Getenv("ETL_SQLITE_PATH"); path != "" {
		dialector = sqlite.Open(path)
	} else {
		return nil, nil
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("目录数据库连接失败: %w", err)
	}
	return NewCatalogStore(db)
}

// NewCatalogStore 基于已有连接创建存储并完成迁移
func NewCatalogStore(db *gorm.DB) (*CatalogStore, error) {
	if err := db.AutoMigrate(
		&models.DataSource{},
		&models.TransformationRule{},
		&models.ETLJob{},
		&models.Alert{},
	); err != nil {
		return nil, fmt.Errorf("目录表迁移失败: %w", err)
	}
	return &CatalogStore{
		db:     db,
		crypto: utils.NewCryptoUtils(os.Getenv("ETL_CRYPTO_KEY")),
	}, nil
}

// DB 返回底层连接
func (s *CatalogStore) DB() *gorm.DB {
	return s.db
}

// LoadDataSources 载入所有数据源,凭据字段解密后返回
func (s *CatalogStore) LoadDataSources() ([]models.DataSource, error) {
	var sources []models.DataSource
	if err := s.db.Find(&sources).Error; err != nil {
		return nil, fmt.Errorf("载入数据源目录失败: %w", err)
	}
	for i := range sources {
		config, err := s.openCredentials(sources[i].ConnectionConfig)
		if err != nil {
			return nil, fmt.Errorf("数据源 %s 凭据解密失败: %w", sources[i].ID, err)
		}
		sources[i].ConnectionConfig = config
	}
	return sources, nil
}

// LoadRules 载入所有转换规则
func (s *CatalogStore) LoadRules() ([]models.TransformationRule, error) {
	var rules []models.TransformationRule
	if err := s.db.Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("载入转换规则目录失败: %w", err)
	}
	return rules, nil
}

// LoadJobs 载入所有任务
func (s *CatalogStore) LoadJobs() ([]models.ETLJob, error) {
	var jobs []models.ETLJob
	if err := s.db.Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("载入任务目录失败: %w", err)
	}
	return jobs, nil
}

// SaveDataSource 保存数据源,凭据字段加密落库,内存中的明文不受影响
func (s *CatalogStore) SaveDataSource(ds *models.DataSource) error {
	stored := *ds
	config, err := s.sealCredentials(ds.ConnectionConfig)
	if err != nil {
		return fmt.Errorf("数据源 %s 凭据加密失败: %w", ds.ID, err)
	}
	stored.ConnectionConfig = config
	return s.db.Save(&stored).Error
}

// DeleteDataSource 删除数据源
func (s *CatalogStore) DeleteDataSource(id string) error {
	return s.db.Delete(&models.DataSource{}, "id = ?", id).Error
}

// SaveRule 保存转换规则
func (s *CatalogStore) SaveRule(rule *models.TransformationRule) error {
	return s.db.Save(rule).Error
}

// DeleteRule 删除转换规则
func (s *CatalogStore) DeleteRule(id string) error {
	return s.db.Delete(&models.TransformationRule{}, "id = ?", id).Error
}

// SaveJob 保存任务
func (s *CatalogStore) SaveJob(job *models.ETLJob) error {
	return s.db.Save(job).Error
}

// DeleteJob 删除任务
func (s *CatalogStore) DeleteJob(id string) error {
	return s.db.Delete(&models.ETLJob{}, "id = ?", id).Error
}

// sealCredentials 返回敏感字段加密后的配置副本
func (s *CatalogStore) sealCredentials(config models.JSONB) (models.JSONB, error) {
	if config == nil {
		return nil, nil
	}
	sealed := make(models.JSONB, len(config))
	for k, v := range config {
		sealed[k] = v
	}
	for _, key := range utils.SensitiveConfigKeys {
		raw, ok := sealed[key].(string)
		if !ok || raw == "" {
			continue
		}
		encrypted, err := s.crypto.EncryptValue(raw)
		if err != nil {
			return nil, err
		}
		sealed[key] = encrypted
	}
	return sealed, nil
}

// openCredentials 返回敏感字段解密后的配置副本
func (s *CatalogStore) openCredentials(config models.JSONB) (models.JSONB, error) {
	if config == nil {
		return nil, nil
	}
	opened := make(models.JSONB, len(config))
	for k, v := range config {
		opened[k] = v
	}
	for _, key := range utils.SensitiveConfigKeys {
		raw, ok := opened[key].(string)
		if !ok || raw == "" {
			continue
		}
		plaintext, err := s.crypto.DecryptValue(raw)
		if err != nil {
			return nil, err
		}
		opened[key] = plaintext
	}
	return opened, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

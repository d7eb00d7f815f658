/*
 * @module service/datasource/database
 * @description 数据库数据源,基于 GORM 支持 PostgreSQL 与 SQLite 的抽取和写入
 * @architecture 适配器模式 - 将关系库读写适配为统一数据源接口
 * @documentReference dev_docs/etl_datasource_req.md
 * @stateFlow Init 校验配置 -> Start 建立连接池 -> Execute 查询/写入 -> Stop 关闭
 * @rules 写入操作必须指定目标表;标识符统一经过 QuoteIdentifier 转义
 * @dependencies gorm.io/gorm, gorm.io/driver/postgres, gorm.io/driver/sqlite, github.com/lib/pq
 * @refs service/datasource/base.go
 */

package datasource

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"etl-service/service/meta"
	"etl-service/service/models"
)

// 数据库驱动类型
const (
	DatabaseDriverPostgreSQL = "postgresql"
	DatabaseDriverSQLite     = "sqlite"
)

// DatabaseDataSource 数据库数据源
type DatabaseDataSource struct {
	BaseDataSource
	db     *gorm.DB
	driver string
}

// NewDatabaseDataSource 创建数据库数据源
func NewDatabaseDataSource() DataSourceInterface {
	return &DatabaseDataSource{}
}

func (d *DatabaseDataSource) Init(ctx context.Context, ds *models.DataSource) error {
	d.InitBase(ds)

	driver := d.GetConfigString("driver")
	if driver == "" {
		driver = DatabaseDriverPostgreSQL
	}
	switch driver {
	case DatabaseDriverPostgreSQL:
		if d.GetConfigString("dsn") == "" {
			if err := d.RequireConfig("host", "database", "user"); err != nil {
				return err
			}
		}
	case DatabaseDriverSQLite:
		if err := d.RequireConfig("path"); err != nil {
			return err
		}
	default:
		return fmt.Errorf("不支持的数据库驱动: %s", driver)
	}
	d.driver = driver
	return nil
}

func (d *DatabaseDataSource) Start(ctx context.Context) error {
	if d.IsStarted() && d.db != nil {
		return nil
	}

	var dialector gorm.Dialector
	switch d.driver {
	case DatabaseDriverSQLite:
		dialector = sqlite.Open(d.GetConfigString("path"))
	default:
		dialector = postgres.Open(d.buildPostgresDSN())
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		d.SetLastError(err)
		return fmt.Errorf("数据库连接失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("获取底层连接失败: %w", err)
	}
	sqlDB.SetMaxOpenConns(d.GetConfigInt("max_open_conns", 10))
	sqlDB.SetMaxIdleConns(d.GetConfigInt("max_idle_conns", 5))
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.PingContext(ctx); err != nil {
		d.SetLastError(err)
		return fmt.Errorf("数据库连接检测失败: %w", err)
	}

	d.db = db
	d.SetStarted(true)
	d.SetLastError(nil)
	return nil
}

func (d *DatabaseDataSource) buildPostgresDSN() string {
	if dsn := d.GetConfigString("dsn"); dsn != "" {
		return dsn
	}
	sslMode := d.GetConfigString("sslmode")
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.GetConfigString("host"),
		d.GetConfigInt("port", 5432),
		d.GetConfigString("user"),
		d.GetConfigString("password"),
		d.GetConfigString("database"),
		sslMode)
}

func (d *DatabaseDataSource) Execute(ctx context.Context, request *ExecuteRequest) (*ExecuteResponse, error) {
	start := time.Now()
	if d.db == nil {
		return FailResponse(start, meta.ErrorTypeConnection, fmt.Errorf("数据源未启动")), nil
	}

	switch request.Operation {
	case OperationExtract:
		return d.extract(ctx, start, request)
	case OperationLoad:
		return d.load(ctx, start, request)
	default:
		return FailResponse(start, meta.ErrorTypeConfiguration,
			fmt.Errorf("不支持的操作类型: %s", request.Operation)), nil
	}
}

func (d *DatabaseDataSource) extract(ctx context.Context, start time.Time, request *ExecuteRequest) (*ExecuteResponse, error) {
	query := request.Query
	if query == "" {
		table := d.GetConfigString("table")
		if table == "" {
			return FailResponse(start, meta.ErrorTypeConfiguration,
				fmt.Errorf("抽取操作需要 query 或 table 配置")), nil
		}
		query = fmt.Sprintf("SELECT * FROM %s", d.quoteIdentifier(table))
	}

	var rows []map[string]interface{}
	if err := d.db.WithContext(ctx).Raw(query).Scan(&rows).Error; err != nil {
		d.SetLastError(err)
		return FailResponse(start, meta.ErrorTypeConnection, err), nil
	}

	resp := NewExecuteResponse(start)
	resp.Success = true
	resp.Data = rows
	resp.RowCount = len(rows)
	return resp, nil
}

func (d *DatabaseDataSource) load(ctx context.Context, start time.Time, request *ExecuteRequest) (*ExecuteResponse, error) {
	table := d.GetConfigString("table")
	if t, ok := request.Params["table"]; ok {
		table = fmt.Sprintf("%v", t)
	}
	if table == "" {
		return FailResponse(start, meta.ErrorTypeConfiguration,
			fmt.Errorf("写入操作需要指定目标表")), nil
	}
	if len(request.Data) == 0 {
		resp := NewExecuteResponse(start)
		resp.Success = true
		resp.Message = "无数据写入"
		return resp, nil
	}

	// 取并集列,保证整批行使用同一条插入语句
	columnSet := make(map[string]bool)
	for _, row := range request.Data {
		for col := range row {
			columnSet[col] = true
		}
	}
	columns := make([]string, 0, len(columnSet))
	for col := range columnSet {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = d.quoteIdentifier(col)
		placeholders[i] = "?"
	}
	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.quoteIdentifier(table),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "))

	written := 0
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, row := range request.Data {
			values := make([]interface{}, len(columns))
			for i, col := range columns {
				values[i] = row[col]
			}
			if err := tx.Exec(insertSQL, values...).Error; err != nil {
				return err
			}
			written++
		}
		return nil
	})
	if err != nil {
		d.SetLastError(err)
		return FailResponse(start, meta.ErrorTypeConnection, err), nil
	}

	resp := NewExecuteResponse(start)
	resp.Success = true
	resp.RowCount = written
	resp.Message = fmt.Sprintf("写入 %d 行", written)
	return resp, nil
}

func (d *DatabaseDataSource) quoteIdentifier(name string) string {
	if d.driver == DatabaseDriverSQLite {
		return fmt.Sprintf("%q", name)
	}
	return pq.QuoteIdentifier(name)
}

func (d *DatabaseDataSource) Stop(ctx context.Context) error {
	if d.db == nil {
		return nil
	}
	sqlDB, err := d.db.DB()
	if err == nil {
		_ = sqlDB.Close()
	}
	d.db = nil
	d.SetStarted(false)
	return nil
}

func (d *DatabaseDataSource) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	start := time.Now()
	status := &HealthStatus{LastCheck: start}
	if d.db == nil {
		status.Status = "offline"
		status.ErrorMessage = "数据源未启动"
		return status, nil
	}
	sqlDB, err := d.db.DB()
	if err != nil {
		status.Status = "error"
		status.ErrorMessage = err.Error()
		return status, nil
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		status.Status = "error"
		status.ErrorMessage = err.Error()
		return status, nil
	}
	status.Status = "online"
	status.ResponseTime = time.Since(start)
	return status, nil
}

func (d *DatabaseDataSource) IsResident() bool { return true }

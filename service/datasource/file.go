/*
 * @module service/datasource/file
 * @description 文件数据源,支持 JSON 与 CSV 文件的读取和写入,兼容 GBK 编码
 * @architecture 适配器模式 - 将本地文件读写适配为统一数据源接口
 * @documentReference dev_docs/etl_datasource_req.md
 * @stateFlow 非常驻类型,Execute 时按需读写文件
 * @rules CSV 首行为表头;encoding 配置为 gbk 时读取前先转换为 UTF-8
 * @dependencies encoding/csv, encoding/json, etl-service/service/utils
 * @refs service/datasource/base.go, service/utils/data_converter.go
 */

package datasource

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"etl-service/service/meta"
	"etl-service/service/models"
	"etl-service/service/utils"
)

// 文件格式常量
const (
	FileFormatJSON = "json"
	FileFormatCSV  = "csv"
)

// FileDataSource 文件数据源
type FileDataSource struct {
	BaseDataSource
	converter *utils.DataConverter
	format    string
}

// NewFileDataSource 创建文件数据源
func NewFileDataSource() DataSourceInterface {
	return &FileDataSource{converter: utils.NewDataConverter()}
}

func (f *FileDataSource) Init(ctx context.Context, ds *models.DataSource) error {
	f.InitBase(ds)
	if err := f.RequireConfig("path"); err != nil {
		return err
	}

	format := f.GetConfigString("format")
	if format == "" {
		switch filepath.Ext(f.GetConfigString("path")) {
		case ".csv":
			format = FileFormatCSV
		default:
			format = FileFormatJSON
		}
	}
	if format != FileFormatJSON && format != FileFormatCSV {
		return fmt.Errorf("不支持的文件格式: %s", format)
	}
	f.format = format
	return nil
}

func (f *FileDataSource) Start(ctx context.Context) error {
	f.SetStarted(true)
	return nil
}

func (f *FileDataSource) Execute(ctx context.Context, request *ExecuteRequest) (*ExecuteResponse, error) {
	start := time.Now()
	switch request.Operation {
	case OperationExtract:
		return f.extract(start)
	case OperationLoad:
		return f.load(start, request)
	default:
		return FailResponse(start, meta.ErrorTypeConfiguration,
			fmt.Errorf("不支持的操作类型: %s", request.Operation)), nil
	}
}

func (f *FileDataSource) extract(start time.Time) (*ExecuteResponse, error) {
	path := f.GetConfigString("path")
	data, err := os.ReadFile(path)
	if err != nil {
		f.SetLastError(err)
		return FailResponse(start, meta.ErrorTypeConnection, fmt.Errorf("读取文件失败: %w", err)), nil
	}

	if enc := f.GetConfigString("encoding"); enc != "" && enc != "utf-8" {
		data, err = f.converter.ConvertEncoding(data, enc, "utf-8")
		if err != nil {
			return FailResponse(start, meta.ErrorTypeConfiguration, err), nil
		}
	}

	var rows []map[string]interface{}
	switch f.format {
	case FileFormatCSV:
		rows, err = f.parseCSV(data)
	default:
		err = json.Unmarshal(data, &rows)
	}
	if err != nil {
		return FailResponse(start, meta.ErrorTypeConfiguration, fmt.Errorf("解析文件失败: %w", err)), nil
	}

	resp := NewExecuteResponse(start)
	resp.Success = true
	resp.Data = rows
	resp.RowCount = len(rows)
	return resp, nil
}

func (f *FileDataSource) parseCSV(data []byte) ([]map[string]interface{}, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	rows := make([]map[string]interface{}, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]interface{}, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (f *FileDataSource) load(start time.Time, request *ExecuteRequest) (*ExecuteResponse, error) {
	path := f.GetConfigString("path")
	var data []byte
	var err error

	switch f.format {
	case FileFormatCSV:
		data, err = f.encodeCSV(request.Data)
	default:
		data, err = json.MarshalIndent(request.Data, "", "  ")
	}
	if err != nil {
		return FailResponse(start, meta.ErrorTypeConfiguration, err), nil
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		f.SetLastError(err)
		return FailResponse(start, meta.ErrorTypeConnection, fmt.Errorf("写入文件失败: %w", err)), nil
	}

	resp := NewExecuteResponse(start)
	resp.Success = true
	resp.RowCount = len(request.Data)
	resp.Message = fmt.Sprintf("写入 %d 行到 %s", len(request.Data), path)
	return resp, nil
}

func (f *FileDataSource) encodeCSV(rows []map[string]interface{}) ([]byte, error) {
	columnSet := make(map[string]bool)
	for _, row := range rows {
		for col := range row {
			columnSet[col] = true
		}
	}
	columns := make([]string, 0, len(columnSet))
	for col := range columnSet {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(columns); err != nil {
		return nil, err
	}
	for _, row := range rows {
		record := make([]string, len(columns))
		for i, col := range columns {
			if v, ok := row[col]; ok && v != nil {
				record[i] = f.converter.ToString(v)
			}
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	return buf.Bytes(), writer.Error()
}

func (f *FileDataSource) Stop(ctx context.Context) error {
	f.SetStarted(false)
	return nil
}

func (f *FileDataSource) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	start := time.Now()
	status := &HealthStatus{LastCheck: start}
	path := f.GetConfigString("path")
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			// 目标文件可能尚未生成,目录可写即认为可用
			if _, dirErr := os.Stat(filepath.Dir(path)); dirErr == nil {
				status.Status = "online"
				return status, nil
			}
		}
		status.Status = "error"
		status.ErrorMessage = err.Error()
		return status, nil
	}
	status.Status = "online"
	status.ResponseTime = time.Since(start)
	status.Details = map[string]interface{}{"size": info.Size()}
	return status, nil
}

func (f *FileDataSource) IsResident() bool { return false }

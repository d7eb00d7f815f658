/*
 * @module service/transform/script
 * @description 自定义规则的脚本执行器，基于yaegi解释执行Go脚本并缓存编译结果
 * @architecture 解释器模式 - 脚本包装为固定签名的Run函数
 * @documentReference dev_docs/etl_requirements.md
 * @stateFlow 脚本哈希 -> 缓存查找 -> 编译 -> 执行
 * @rules 脚本必须实现 Run(records []map[string]interface{}) ([]map[string]interface{}, error)
 * @dependencies github.com/traefik/yaegi
 * @refs engine.go
 */

package transform

import (
	"context"
	"crypto/sha1"
	"fmt"
	"sync"
	"time"

	"etl-service/service/models"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// CustomConfig custom规则配置
type CustomConfig struct {
	Script string `json:"script"`
}

// parseCustomConfig 解析并校验custom规则配置
func parseCustomConfig(config models.JSONB) (*CustomConfig, error) {
	var cfg CustomConfig
	if err := decodeConfig(config, &cfg); err != nil {
		return nil, err
	}

	if cfg.Script == "" {
		return nil, fmt.Errorf("custom规则缺少script")
	}

	return &cfg, nil
}

// applyCustom 应用custom规则，脚本对整批记录处理
func (e *Engine) applyCustom(ctx context.Context, records []Record, rule *models.TransformationRule) ([]Record, []RowError, error) {
	cfg, err := parseCustomConfig(rule.Config)
	if err != nil {
		return nil, nil, err
	}

	result, err := e.scriptExecutor.Execute(ctx, cfg.Script, records)
	if err != nil {
		return nil, nil, fmt.Errorf("脚本执行失败: %w", err)
	}

	return result, nil, nil
}

// batchFunc 编译后的批处理函数签名
type batchFunc func([]map[string]interface{}) ([]map[string]interface{}, error)

// compiledScript 编译后的脚本，保存可执行函数
type compiledScript struct {
	fn       batchFunc
	compiled time.Time
	hash     string
}

// ScriptExecutor 脚本执行器，带编译缓存
type ScriptExecutor struct {
	mu    sync.RWMutex
	cache map[string]*compiledScript
}

// NewScriptExecutor 创建脚本执行器
func NewScriptExecutor() *ScriptExecutor {
	return &ScriptExecutor{
		cache: make(map[string]*compiledScript),
	}
}

// Execute 执行脚本（带缓存优化）
func (s *ScriptExecutor) Execute(ctx context.Context, script string, records []Record) ([]Record, error) {
	hash := fmt.Sprintf("%x", sha1.Sum([]byte(script)))

	s.mu.RLock()
	compiled, ok := s.cache[hash]
	s.mu.RUnlock()

	if !ok {
		var err error
		compiled, err = s.compile(script, hash)
		if err != nil {
			return nil, fmt.Errorf("脚本编译失败: %v", err)
		}

		s.mu.Lock()
		s.cache[hash] = compiled
		s.mu.Unlock()
	}

	return compiled.fn(records)
}

// compile 编译脚本为可执行函数
func (s *ScriptExecutor) compile(script, hash string) (*compiledScript, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("加载标准库失败: %w", err)
	}

	if _, err := i.Eval(wrapScript(script)); err != nil {
		return nil, fmt.Errorf("脚本求值失败: %w", err)
	}

	v, err := i.Eval("Run")
	if err != nil {
		return nil, fmt.Errorf("脚本缺少 Run 函数: %w", err)
	}

	runFunc, ok := v.Interface().(func([]map[string]interface{}) ([]map[string]interface{}, error))
	if !ok {
		return nil, fmt.Errorf("Run 函数签名必须是 func([]map[string]interface{}) ([]map[string]interface{}, error)")
	}

	return &compiledScript{
		fn:       runFunc,
		compiled: time.Now(),
		hash:     hash,
	}, nil
}

// Validate 验证脚本语法（快速校验）
func (s *ScriptExecutor) Validate(script string) error {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return fmt.Errorf("加载标准库符号失败: %v", err)
	}

	_, err := i.Compile(wrapScript(script))
	return err
}

// ClearCache 清理编译缓存
func (s *ScriptExecutor) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*compiledScript)
}

// wrapScript 包装脚本：要求脚本体实现Run函数的主体逻辑
func wrapScript(script string) string {
	return fmt.Sprintf(`
package main

import (
	"fmt"
	"strings"
	"strconv"
	"sort"
	"time"
	"encoding/json"
)

func Run(records []map[string]interface{}) ([]map[string]interface{}, error) {
%s
}
`, script)
}

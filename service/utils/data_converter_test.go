/**
 * @module data_converter_test
 * @description 数据转换工具单元测试,覆盖类型转换、编码转换与时间解析
 * @refs data_converter.go
 */

package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"
)

func TestToString(t *testing.T) {
	dc := NewDataConverter()

	assert.Equal(t, "", dc.ToString(nil))
	assert.Equal(t, "123", dc.ToString(123))
	assert.Equal(t, "12.5", dc.ToString(12.5))
	assert.Equal(t, "true", dc.ToString(true))
	assert.Equal(t, "浦东", dc.ToString("浦东"))

	ts := time.Date(2025, 6, 18, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-06-18T10:00:00Z", dc.ToString(ts))

	// 复杂类型回退为JSON
	assert.Equal(t, `{"a":1}`, dc.ToString(map[string]interface{}{"a": 1}))
}

func TestNumericConversions(t *testing.T) {
	dc := NewDataConverter()

	n, err := dc.ToInt("42")
	require.NoError(t, err)
	assert.Equal(t, 42, n)
	_, err = dc.ToInt("forty-two")
	assert.Error(t, err)
	_, err = dc.ToInt(nil)
	assert.Error(t, err)

	f, err := dc.ToFloat("12.5")
	require.NoError(t, err)
	assert.Equal(t, 12.5, f)
	_, err = dc.ToFloat("not-a-number")
	assert.Error(t, err)

	b, err := dc.ToBool("true")
	require.NoError(t, err)
	assert.True(t, b)
	_, err = dc.ToBool("也许")
	assert.Error(t, err)
}

func TestParseTime(t *testing.T) {
	dc := NewDataConverter()

	cases := map[string]time.Time{
		"2025-06-18T10:00:00Z":  time.Date(2025, 6, 18, 10, 0, 0, 0, time.UTC),
		"2025-06-18 10:00:00":   time.Date(2025, 6, 18, 10, 0, 0, 0, time.UTC),
		"2025-06-18":            time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC),
		"2025/06/18":            time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC),
	}
	for input, expected := range cases {
		parsed, err := dc.ParseTime(input, nil)
		require.NoError(t, err, input)
		assert.True(t, expected.Equal(parsed), input)
	}

	_, err := dc.ParseTime("昨天", nil)
	assert.Error(t, err)
}

func TestConvertType(t *testing.T) {
	dc := NewDataConverter()

	v, err := dc.ConvertType("42", "int")
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = dc.ConvertType(42, "string")
	require.NoError(t, err)
	assert.Equal(t, "42", v)

	v, err = dc.ConvertType("12.5", "float")
	require.NoError(t, err)
	assert.Equal(t, 12.5, v)

	v, err = dc.ConvertType("2025-06-18", "time")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC), v)

	_, err = dc.ConvertType("x", "uuid")
	assert.Error(t, err)
}

func TestConvertEncoding(t *testing.T) {
	dc := NewDataConverter()
	utf8Text := []byte("估价数据")

	gbkText, err := dc.ConvertEncoding(utf8Text, "utf-8", "gbk")
	require.NoError(t, err)
	assert.NotEqual(t, utf8Text, gbkText)

	back, err := dc.ConvertEncoding(gbkText, "gbk", "utf-8")
	require.NoError(t, err)
	assert.Equal(t, utf8Text, back)

	// 参照标准编码器验证
	expected, err := simplifiedchinese.GBK.NewEncoder().Bytes(utf8Text)
	require.NoError(t, err)
	assert.Equal(t, expected, gbkText)

	same, err := dc.ConvertEncoding(utf8Text, "utf-8", "UTF-8")
	require.NoError(t, err)
	assert.Equal(t, utf8Text, same)

	_, err = dc.ConvertEncoding(utf8Text, "utf-8", "big5")
	assert.Error(t, err)
}

func TestNormalizeString(t *testing.T) {
	dc := NewDataConverter()
	assert.Equal(t, "a b c", dc.NormalizeString("  a\t b \n c  "))
	assert.Equal(t, "", dc.NormalizeString("   "))
}

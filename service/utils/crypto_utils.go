/**
 * @module crypto_utils
 * @description 加密工具模块，负责数据源连接凭据加密、密钥派生和敏感字段脱敏
 * @architecture 加密工具集模式
 * @documentReference dev_docs/etl_requirements.md
 * @stateFlow 无状态加密：明文 -> 加密算法 -> 密文 / 密文 -> 解密算法 -> 明文
 * @rules
 *   - 数据源密码落库前加密，查询接口返回脱敏值
 *   - 密钥通过scrypt从服务密钥派生
 *   - 加密算法使用业界标准
 * @dependencies
 *   - crypto/aes, crypto/cipher: AES加密
 *   - golang.org/x/crypto/scrypt: 密钥派生
 * @refs
 *   - service/database/store.go: 凭据落库加密
 *   - api/controllers/datasource_controller.go: 响应脱敏
 */

package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// cipherPrefix 标识本工具产出的密文,避免重复加密
const cipherPrefix = "enc:"

// SensitiveConfigKeys 连接配置中落库前加密、查询时脱敏的字段
var SensitiveConfigKeys = []string{"password", "secret", "token"}

// CryptoUtils 加密工具
type CryptoUtils struct {
	defaultKey []byte
}

// NewCryptoUtils 创建新的加密工具实例
func NewCryptoUtils(key string) *CryptoUtils {
	if key == "" {
		key = "etl-service-default-key"
	}

	derived, err := scrypt.Key([]byte(key), []byte("etl-service-salt"), 1<<15, 8, 1, 32)
	if err != nil {
		// 参数为编译期常量，派生只会因内存不足失败
		panic(fmt.Sprintf("密钥派生失败: %v", err))
	}

	return &CryptoUtils{
		defaultKey: derived,
	}
}

// AESEncrypt AES加密（CFB模式，IV前置）
func (cu *CryptoUtils) AESEncrypt(plaintext string, key ...[]byte) (string, error) {
	var encryptKey []byte
	if len(key) > 0 && len(key[0]) > 0 {
		encryptKey = key[0]
	} else {
		encryptKey = cu.defaultKey
	}

	block, err := aes.NewCipher(encryptKey)
	if err != nil {
		return "", fmt.Errorf("创建AES块失败: %v", err)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("生成IV失败: %v", err)
	}

	stream := cipher.NewCFBEncrypter(block, iv)
	ciphertext := make([]byte, len(plaintext))
	stream.XORKeyStream(ciphertext, []byte(plaintext))

	result := append(iv, ciphertext...)
	return base64.StdEncoding.EncodeToString(result), nil
}

// AESDecrypt AES解密
func (cu *CryptoUtils) AESDecrypt(ciphertext string, key ...[]byte) (string, error) {
	var decryptKey []byte
	if len(key) > 0 && len(key[0]) > 0 {
		decryptKey = key[0]
	} else {
		decryptKey = cu.defaultKey
	}

	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("解码base64失败: %v", err)
	}

	if len(data) < aes.BlockSize {
		return "", fmt.Errorf("密文长度不足")
	}

	block, err := aes.NewCipher(decryptKey)
	if err != nil {
		return "", fmt.Errorf("创建AES块失败: %v", err)
	}

	iv := data[:aes.BlockSize]
	ciphertextData := data[aes.BlockSize:]

	stream := cipher.NewCFBDecrypter(block, iv)
	plaintext := make([]byte, len(ciphertextData))
	stream.XORKeyStream(plaintext, ciphertextData)

	return string(plaintext), nil
}

// EncryptValue 加密敏感值并附加密文前缀,空值与已加密值原样返回
func (cu *CryptoUtils) EncryptValue(plaintext string) (string, error) {
	if plaintext == "" || strings.HasPrefix(plaintext, cipherPrefix) {
		return plaintext, nil
	}
	ciphertext, err := cu.AESEncrypt(plaintext)
	if err != nil {
		return "", err
	}
	return cipherPrefix + ciphertext, nil
}

// DecryptValue 解密带前缀的密文,非密文值原样返回
func (cu *CryptoUtils) DecryptValue(value string) (string, error) {
	if !strings.HasPrefix(value, cipherPrefix) {
		return value, nil
	}
	return cu.AESDecrypt(strings.TrimPrefix(value, cipherPrefix))
}

// IsEncrypted 判断值是否为本工具产出的密文
func (cu *CryptoUtils) IsEncrypted(value string) bool {
	return strings.HasPrefix(value, cipherPrefix)
}

// DeriveKey 通过scrypt从口令和盐派生32字节密钥
func (cu *CryptoUtils) DeriveKey(password, salt string) ([]byte, error) {
	key, err := scrypt.Key([]byte(password), []byte(salt), 1<<15, 8, 1, 32)
	if err != nil {
		return nil, fmt.Errorf("密钥派生失败: %v", err)
	}
	return key, nil
}

// MaskGeneral 通用脱敏，保留首尾指定长度
func (cu *CryptoUtils) MaskGeneral(data string, keepStart, keepEnd int) string {
	if len(data) <= keepStart+keepEnd {
		return strings.Repeat("*", len(data))
	}
	masked := len(data) - keepStart - keepEnd
	return data[:keepStart] + strings.Repeat("*", masked) + data[len(data)-keepEnd:]
}

// SecureCompare 恒定时间字符串比较
func (cu *CryptoUtils) SecureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

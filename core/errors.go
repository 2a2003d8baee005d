package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX），可穿透 fmt.Errorf("%w") 包装
//
// 使用场景：
//   - Catalog 错误：NOT_FOUND, UNAVAILABLE
//   - Weights 错误：INVALID_CONFIG
//   - Recommend / Search 错误：INVALID_INPUT
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "INVALID_CONFIG"）
	Message string // 错误消息
	Module  string // 模块名称（如 "catalog", "weights"）
	Err     error  // 底层错误（可选）
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is 让 errors.Is 按 Module + Code 匹配哨兵错误，而不比较 Message。
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Module == t.Module && e.Code == t.Code
}

// IsDomainError 检查错误链中是否存在 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取错误链中的 DomainError，如果不存在则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// WrapDomainError 创建携带底层错误的领域错误
func WrapDomainError(module, code, message string, err error) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeInvalidConfig = "INVALID_CONFIG" // 权重配置无效
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 请求参数无效
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 上游存储不可用
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误
)

// 模块名称常量
const (
	ModuleCatalog   = "catalog"   // 房源目录
	ModuleStore     = "store"     // 缓存存储
	ModuleWeights   = "weights"   // 权重配置
	ModuleRecommend = "recommend" // 相似推荐
	ModuleSearch    = "search"    // 文本搜索
)

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	return hasCode(err, ErrorCodeNotFound)
}

// IsInvalidConfig 检查错误是否为 INVALID_CONFIG
func IsInvalidConfig(err error) bool {
	return hasCode(err, ErrorCodeInvalidConfig)
}

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool {
	return hasCode(err, ErrorCodeInvalidInput)
}

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool {
	return hasCode(err, ErrorCodeUnavailable)
}

var (
	// ErrListingNotFound 表示房源不在当前目录快照中
	ErrListingNotFound = NewDomainError(ModuleCatalog, ErrorCodeNotFound, "catalog: listing not found")

	// ErrUpstreamUnavailable 表示目录存储不可达；引擎内部不重试
	ErrUpstreamUnavailable = NewDomainError(ModuleCatalog, ErrorCodeUnavailable, "catalog: upstream unavailable")
)

// NewInvalidInput 构造 INVALID_INPUT 错误
func NewInvalidInput(module, message string) *DomainError {
	return NewDomainError(module, ErrorCodeInvalidInput, message)
}

// NewInvalidConfig 构造 INVALID_CONFIG 错误
func NewInvalidConfig(message string) *DomainError {
	return NewDomainError(ModuleWeights, ErrorCodeInvalidConfig, "weights: "+message)
}

// Unavailable 把存储层错误包装为 UpstreamUnavailable
func Unavailable(module string, err error) *DomainError {
	return WrapDomainError(module, ErrorCodeUnavailable, module+": upstream unavailable", err)
}

package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX），检查时透过 %w 包装链查找
//
// 使用场景：
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
//   - 装配错误：ARTIFACT_MISSING, ARTIFACT_CORRUPT
//   - 查询错误：NOT_FOUND（冷启动）, DIMENSION_MISMATCH, INVALID_INPUT
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "ARTIFACT_MISSING"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "artifact", "recall"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// IsDomainError 检查错误是否为 DomainError 类型
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取 DomainError，如果不是则返回 nil。
// 使用 errors.As，包装过的领域错误（fmt.Errorf("...: %w", err)）同样能被识别。
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

// 错误代码常量
const (
	// 通用错误代码
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在（查询期即冷启动信号）
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 服务不可用
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误

	// 装配期错误代码
	ErrorCodeArtifactMissing = "ARTIFACT_MISSING" // 必需分片缺失，初始化失败
	ErrorCodeArtifactCorrupt = "ARTIFACT_CORRUPT" // 分片存在但无法解码，初始化失败

	// 查询期错误代码
	ErrorCodeDimensionMismatch = "DIMENSION_MISMATCH" // 客户/物品向量维度不一致
)

// 模块名称常量
const (
	ModuleStore    = "store"    // 存储模块
	ModuleArtifact = "artifact" // 分片装配模块
	ModuleDataset  = "dataset"  // 数据集/索引模块
	ModuleRecall   = "recall"   // 召回/打分模块
	ModuleFilter   = "filter"   // 过滤模块
	ModuleService  = "service"  // 服务编排模块
	ModuleFeast    = "feast"    // 特征存储模块
)

// NewArtifactMissing 创建必需分片缺失错误（致命，初始化中止）。
func NewArtifactMissing(message string) *DomainError {
	return NewDomainError(ModuleArtifact, ErrorCodeArtifactMissing, message)
}

// NewArtifactCorrupt 创建分片损坏错误（致命，初始化中止，不返回部分结果）。
func NewArtifactCorrupt(message string) *DomainError {
	return NewDomainError(ModuleArtifact, ErrorCodeArtifactCorrupt, message)
}

// NewDimensionMismatch 创建向量维度不一致错误（指向构建/版本不一致）。
func NewDimensionMismatch(message string) *DomainError {
	return NewDomainError(ModuleRecall, ErrorCodeDimensionMismatch, message)
}

// NewCustomerNotFound 创建客户缺席错误：查询期的冷启动信号。
// 服务层将其转译为 UnknownCustomer 状态返回，不作为故障上抛。
func NewCustomerNotFound(customerID string) *DomainError {
	return NewDomainError(ModuleRecall, ErrorCodeNotFound, "recall: customer "+customerID+" not found")
}

// NewInvalidInput 创建输入无效错误（如空客户 ID、非法 N）。
func NewInvalidInput(module, message string) *DomainError {
	return NewDomainError(module, ErrorCodeInvalidInput, message)
}

// 通用错误检查函数

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotSupported
	}
	return false
}

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeUnavailable
	}
	return false
}

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeInvalidInput
	}
	return false
}

// IsArtifactMissing 检查错误是否为必需分片缺失
func IsArtifactMissing(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeArtifactMissing
	}
	return false
}

// IsArtifactCorrupt 检查错误是否为分片损坏
func IsArtifactCorrupt(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeArtifactCorrupt
	}
	return false
}

// IsDimensionMismatch 检查错误是否为向量维度不一致
func IsDimensionMismatch(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeDimensionMismatch
	}
	return false
}

package apperr

import "errors"

// 业务错误类型，handler 层通过 errors.Is 映射为 HTTP 状态码。
// 错误信息面向调用方，上下文通过 fmt.Errorf("...: %w", Err) 包装。
var (
	ErrValidation          = errors.New("参数校验失败")
	ErrDuplicateSubmission = errors.New("该里程碑已有待审核或已确认的证明")
	ErrInvalidTransition   = errors.New("证明当前状态不允许此操作")
	ErrUnknownMilestone    = errors.New("里程碑不存在")
	ErrAlreadyCompleted    = errors.New("里程碑已完成")
	ErrAlreadyReleased     = errors.New("该里程碑资金已释放")
	ErrInsufficientFunds   = errors.New("筹款金额未达到释放条件")
	ErrNotFound            = errors.New("记录不存在")
	ErrSettlement          = errors.New("链上结算失败")
)

// Retryable 判断错误是否可重试（结算类错误由外部重试）
func Retryable(err error) bool {
	return errors.Is(err, ErrSettlement)
}

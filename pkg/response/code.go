package response

// 业务状态码
const (
	CodeSuccess = 0
	CodeError   = 1

	// 用户模块错误 100xx
	ErrUserExists      = 10001
	ErrUserNotFound    = 10002
	ErrAuthFailed      = 10003
	ErrTokenInvalid    = 10004
	ErrNoPermission    = 10005
	ErrAccountLocked   = 10006
	ErrAccountInactive = 10007

	// 优惠券模块错误 200xx
	ErrVoucherNotFound      = 20001
	ErrVoucherNotApplicable = 20002
	ErrVoucherCodeExists    = 20003

	// 商品/分类/订单 300xx
	ErrCategoryNotFound = 30001
	ErrProductNotFound  = 30002
	ErrProductInUse     = 30003
	ErrOrderNotFound    = 30004
	ErrCartNotFound     = 30005
	ErrCommentNotFound  = 30006

	// 支付 400xx
	ErrPaymentFailed    = 40001
	ErrPaymentSignature = 40002

	// 系统错误 500xx
	ErrServerInternal  = 50001
	ErrInvalidParam    = 50002
	ErrTooManyRequests = 50003
	ErrUploadFailed    = 50004
)

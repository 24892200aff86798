package errs

// 错误码分段：1xxx 认证/鉴权，2xxx 参数校验，3xxx 资源，5xxx 基础设施
const (
	UnknownCode = 500

	UnauthenticatedCode     = 1001
	ForbiddenCode           = 1002
	InvalidArgumentCode     = 2000
	InvalidParticipantsCode = 2001
	EmptyContentCode        = 2002
	UsernameTakenCode       = 2003
	UnknownUserCode         = 3001
	NotFoundCode            = 3002
	StorageUnavailableCode  = 5001
)

var (
	ErrUnauthenticated     = NewCodeError(UnauthenticatedCode, "unauthenticated")
	ErrForbidden           = NewCodeError(ForbiddenCode, "forbidden")
	ErrInvalidArgument     = NewCodeError(InvalidArgumentCode, "invalid argument")
	ErrInvalidParticipants = NewCodeError(InvalidParticipantsCode, "invalid participants")
	ErrEmptyContent        = NewCodeError(EmptyContentCode, "message content is empty")
	ErrUnknownUser         = NewCodeError(UnknownUserCode, "unknown user")
	ErrNotFound            = NewCodeError(NotFoundCode, "not found")
	ErrStorageUnavailable  = NewCodeError(StorageUnavailableCode, "storage unavailable")
)

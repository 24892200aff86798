package errs

import "net/http"

// HTTPStatus 把错误码映射到 HTTP 状态；非 CodeError 一律按 500
func HTTPStatus(err error) int {
	switch Code(err) {
	case UnauthenticatedCode:
		return http.StatusUnauthorized
	case ForbiddenCode:
		return http.StatusForbidden
	case InvalidArgumentCode, InvalidParticipantsCode, EmptyContentCode:
		return http.StatusBadRequest
	case UsernameTakenCode:
		return http.StatusConflict
	case UnknownUserCode, NotFoundCode:
		return http.StatusNotFound
	case StorageUnavailableCode:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

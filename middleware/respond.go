package middleware

import (
	"errors"

	"TMProject/logger"
	"TMProject/tools/errs"

	"github.com/gin-gonic/gin"
)

// WriteErr 把业务错误写成 JSON 响应。
// 基础设施错误的 Detail 带着驱动原文（地址、DSN 片段），只进日志；
// 客户端只拿到稳定的 {code,msg}。
func WriteErr(c *gin.Context, err error) {
	var ce *errs.CodeError
	if !errors.As(err, &ce) {
		ce = errs.NewCodeError(errs.UnknownCode, "internal error")
	}
	if ce.Code == errs.StorageUnavailableCode || ce.Code == errs.UnknownCode {
		logger.Error("request failed: " + err.Error())
		msg := ce.Msg
		if ce.Code == errs.UnknownCode {
			// 未分类错误的 Msg 可能携带任意内部文本
			msg = "internal error"
		}
		ce = errs.NewCodeError(ce.Code, msg)
	}
	c.JSON(errs.HTTPStatus(ce), ce)
}

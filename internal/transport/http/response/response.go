// Package response is the JSON envelope of the ops API.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// KeyCode is the context key holding the code of the envelope written for
// the request. Responses without an envelope (file downloads) leave it unset.
const KeyCode = "envelope_code"

type Resp struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data"`
}

// New never returns a null data field.
func New(code int, msg string, data any) Resp {
	if data == nil {
		data = struct{}{}
	}
	return Resp{Code: code, Msg: msg, Data: data}
}

func OK(data any) Resp {
	return New(CodeOK, CodeMsgMap[CodeOK], data)
}

// Error uses the default message of code unless customMsg is set.
func Error(code int, customMsg string) Resp {
	msg := CodeMsgMap[code]
	if customMsg != "" {
		msg = customMsg
	}
	return New(code, msg, struct{}{})
}

// Send writes r with HTTP 200 and records its code for logs and metrics.
func Send(c *gin.Context, r Resp) {
	c.Set(KeyCode, r.Code)
	c.JSON(http.StatusOK, r)
}

// Abort is Send for middleware that stops the chain.
func Abort(c *gin.Context, r Resp) {
	c.Set(KeyCode, r.Code)
	c.AbortWithStatusJSON(http.StatusOK, r)
}

// CodeOf returns the envelope code written for c, if any.
func CodeOf(c *gin.Context) (int, bool) {
	v, ok := c.Get(KeyCode)
	if !ok {
		return 0, false
	}
	code, ok := v.(int)
	return code, ok
}

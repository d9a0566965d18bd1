// Package ez registers JSON actions on a gin group with one call each:
// bind the input, run the handler, map its error to the response envelope.
package ez

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	mdw "chatshop/internal/transport/http/middleware"
	resp "chatshop/internal/transport/http/response"
)

type EZ struct{ g *gin.RouterGroup }

func New(g *gin.RouterGroup) EZ { return EZ{g: g} }

type Binder string

const (
	BindJSON  Binder = "json"
	BindQuery Binder = "query"
	BindURI   Binder = "uri"
	BindNone  Binder = "none"
)

// AErr is an error with a response code.
type AErr struct {
	Code int
	Msg  string
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error   { return &AErr{Code: resp.CodeBadRequest, Msg: msg} }
func Unauthorized(msg string) error { return &AErr{Code: resp.CodeUnauthorized, Msg: msg} }
func Forbidden(msg string) error    { return &AErr{Code: resp.CodeForbidden, Msg: msg} }
func NotFound(msg string) error     { return &AErr{Code: resp.CodeNotFound, Msg: msg} }
func Internal(msg string, err error) error {
	return &AErr{Code: resp.CodeServerError, Msg: msg, Err: err}
}

// Action describes one endpoint: I is the bound input, O the data payload.
type Action[I any, O any] struct {
	Method  string
	Path    string
	Binder  Binder
	Auth    bool     // require claims set by AuthJWT
	Roles   []string // optional role allow list
	Handler func(c *gin.Context, in *I) (O, error)
}

// Authorized checks the claims AuthJWT left on the context.
func Authorized(c *gin.Context, roles []string) error {
	if c.GetString(mdw.KeyOperator) == "" {
		return Unauthorized("unauthorized")
	}
	if len(roles) > 0 && !slices.Contains(roles, c.GetString(mdw.KeyRole)) {
		return Forbidden("forbidden")
	}
	return nil
}

// Fail writes err as an envelope; errors without a code become 500 and are
// reported without their text.
func Fail(c *gin.Context, err error) {
	var ae *AErr
	if errors.As(err, &ae) {
		_ = c.Error(err)
		resp.Send(c, resp.Error(ae.Code, ae.Error()))
		return
	}
	_ = c.Error(err)
	resp.Send(c, resp.Error(resp.CodeServerError, ""))
}

func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	h := func(c *gin.Context) {
		if a.Auth {
			if err := Authorized(c, a.Roles); err != nil {
				Fail(c, err)
				return
			}
		}

		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		case BindURI:
			bindErr = c.ShouldBindUri(&in)
		}
		if bindErr != nil {
			Fail(c, BadRequest(bindErr.Error()))
			return
		}

		out, err := a.Handler(c, &in)
		if err != nil {
			Fail(c, err)
			return
		}
		resp.Send(c, resp.OK(out))
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default:
		e.g.POST(a.Path, h)
	}
}

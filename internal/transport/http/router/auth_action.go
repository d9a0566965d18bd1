package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chatshop/internal/core/auth"
	httpez "chatshop/internal/transport/http/ez"
	"chatshop/pkg/utils"
)

// mountAuthActions registers POST /auth/token, which trades the operator
// password for a bearer token.
func mountAuthActions(public *gin.RouterGroup, d Deps) {
	type tokenIn struct {
		Operator string `json:"operator" binding:"required,max=64"`
		Password string `json:"password" binding:"required"`
	}
	type tokenOut struct {
		Token     string `json:"token"`
		ExpiresIn int64  `json:"expiresIn"`
	}
	httpez.RegisterAction(httpez.New(public), httpez.Action[tokenIn, tokenOut]{
		Method: http.MethodPost,
		Path:   "/auth/token",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *tokenIn) (tokenOut, error) {
			operator := strings.TrimSpace(in.Operator)
			if !utils.CheckPassword(in.Password, d.PasswordHash) {
				d.Log.Warn("ops login refused", zap.String("operator", operator), zap.String("ip", c.ClientIP()))
				return tokenOut{}, httpez.Unauthorized("invalid credentials")
			}
			tok, err := d.JWT.Issue(operator, auth.RoleOps)
			if err != nil {
				return tokenOut{}, httpez.Internal("issue token failed", err)
			}
			d.Log.Info("ops token issued", zap.String("operator", operator))
			return tokenOut{Token: tok, ExpiresIn: int64(d.JWT.TTL.Seconds())}, nil
		},
	})
}

package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Codes are the HTTP statuses written with the envelope.
const (
	CodeParamError       = http.StatusBadRequest
	CodeAuthFailed       = http.StatusUnauthorized
	CodePlanRequired     = http.StatusPaymentRequired
	CodePermissionDenied = http.StatusForbidden
	CodeResourceNotFound = http.StatusNotFound
	CodeRateLimited      = http.StatusTooManyRequests
	CodeServerError      = http.StatusInternalServerError
	CodeUpstreamError    = http.StatusBadGateway
)

var codeMessages = map[int]string{
	CodeParamError:       "Parâmetros inválidos.",
	CodeAuthFailed:       "Token inválido ou expirado.",
	CodePlanRequired:     "Seu plano expirou. Assine para continuar.",
	CodePermissionDenied: "Acesso negado.",
	CodeResourceNotFound: "Recurso não encontrado.",
	CodeRateLimited:      "Muitas requisições. Tente novamente em instantes.",
	CodeServerError:      "Erro interno.",
	CodeUpstreamError:    "Serviço externo indisponível.",
}

// Response is the error envelope. Success payloads are flat objects with ok=true.
type Response struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// Success writes payload with ok=true merged in.
func Success(c *gin.Context, payload gin.H) {
	if payload == nil {
		payload = gin.H{}
	}
	payload["ok"] = true
	c.JSON(http.StatusOK, payload)
}

// SuccessWithMessage writes payload with ok=true and a user-facing message.
func SuccessWithMessage(c *gin.Context, message string, payload gin.H) {
	if payload == nil {
		payload = gin.H{}
	}
	payload["message"] = message
	Success(c, payload)
}

// Error writes {ok:false,error} with the status carried by code.
func Error(c *gin.Context, code int, message string) {
	if message == "" {
		message = codeMessages[code]
	}
	c.JSON(code, Response{
		OK:    false,
		Error: message,
	})
}

func ParamError(c *gin.Context, message string) {
	Error(c, CodeParamError, message)
}

func AuthError(c *gin.Context, message string) {
	Error(c, CodeAuthFailed, message)
}

func PlanError(c *gin.Context, message string) {
	Error(c, CodePlanRequired, message)
}

func PermissionError(c *gin.Context, message string) {
	Error(c, CodePermissionDenied, message)
}

func NotFoundError(c *gin.Context, message string) {
	Error(c, CodeResourceNotFound, message)
}

func RateLimitError(c *gin.Context, message string) {
	Error(c, CodeRateLimited, message)
}

func ServerError(c *gin.Context, message string) {
	Error(c, CodeServerError, message)
}

func UpstreamError(c *gin.Context, message string) {
	Error(c, CodeUpstreamError, message)
}

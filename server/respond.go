package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/rushteam/listingrec/core"
)

// errorBody 是错误响应体
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// statusOf 把领域错误映射为 HTTP 状态码
func statusOf(err error) int {
	switch {
	case core.IsNotFound(err):
		return http.StatusNotFound
	case core.IsInvalidInput(err), core.IsInvalidConfig(err):
		return http.StatusBadRequest
	case core.IsUnavailable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	body := errorBody{Error: err.Error(), Code: core.ErrorCodeInternalError}
	if de := core.GetDomainError(err); de != nil {
		body.Code = de.Code
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", sanitizeLogValue(r.URL.Path)),
			slog.String("error", err.Error()))
		if status == http.StatusInternalServerError {
			body.Error = "internal error"
		}
	}
	respondJSON(w, status, body)
}

// sanitizeLogValue 去掉控制字符，防止日志注入
func sanitizeLogValue(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7F {
			return '?'
		}
		return r
	}, s)
}

package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cwrk-planet/board-service/internal/errs"
	"github.com/cwrk-planet/board-service/pkg/logger"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// writeError: унифицированная ошибка. 5xx логируются с причиной, клиенту уходит только текст статуса.
func writeError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	status := errs.ToHTTP(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		logger.FromContext(ctx).Error(op, "err", err)
		msg = http.StatusText(status)
	}
	writeJSON(w, status, ErrorResponse{Error: msg})
}

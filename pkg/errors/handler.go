package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// msgInternal replaces the text of errors that are not AppErrors
const msgInternal = "An internal error occurred"

// ErrorResponse is the JSON body of every error response
type ErrorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
	StackTrace string `json:"stack_trace,omitempty"`
}

// ErrorHandler renders errors as JSON responses and logs them by status
// class. In debug mode responses also carry stack traces and the text of
// unclassified errors.
type ErrorHandler struct {
	logger *zap.Logger
	debug  bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger, debug bool) *ErrorHandler {
	return &ErrorHandler{logger: logger, debug: debug}
}

// Handle writes the response for err. A nil err writes nothing.
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	response := ErrorResponse{RequestID: requestIDFrom(r)}
	status := http.StatusInternalServerError

	appErr := GetAppError(err)
	if appErr == nil {
		response.Error = msgInternal
		if h.debug {
			response.Details = err.Error()
		}
		h.log(r, status, "Unhandled error", zap.Error(err))
		h.write(w, status, response)
		return
	}

	if appErr.HTTPStatus != 0 {
		status = appErr.HTTPStatus
	}
	response.Error = appErr.Message
	response.Details = appErr.Details()
	if h.debug {
		response.StackTrace = appErr.StackTrace
	}

	fields := []zap.Field{zap.String("error_type", string(appErr.Type))}
	if appErr.Cause != nil {
		fields = append(fields, zap.Error(appErr.Cause))
	}
	h.log(r, status, appErr.Message, fields...)
	h.write(w, status, response)
}

// HandleStatus writes an error response with an explicit status
func (h *ErrorHandler) HandleStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.log(r, status, message)
	h.write(w, status, ErrorResponse{
		Error:     message,
		RequestID: requestIDFrom(r),
	})
}

// Middleware turns panics in later handlers into 500 responses
func (h *ErrorHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				h.Handle(w, r, NewInternalError(fmt.Sprintf("panic: %v", rec)))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func (h *ErrorHandler) log(r *http.Request, status int, msg string, fields ...zap.Field) {
	fields = append(fields,
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("request_id", requestIDFrom(r)),
	)

	switch {
	case status >= 500:
		h.logger.Error(msg, fields...)
	case status >= 400:
		h.logger.Warn(msg, fields...)
	default:
		h.logger.Info(msg, fields...)
	}
}

func (h *ErrorHandler) write(w http.ResponseWriter, status int, response ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Failed to encode error response", zap.Error(err))
	}
}

func requestIDFrom(r *http.Request) string {
	if id := middleware.GetReqID(r.Context()); id != "" {
		return id
	}
	return r.Header.Get("X-Request-ID")
}

package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/veto-backend/internal/catalog"
	"github.com/DoyleJ11/veto-backend/internal/engine"
	"github.com/DoyleJ11/veto-backend/internal/store"
	"github.com/DoyleJ11/veto-backend/internal/veto"
)

const maxBodyBytes = 1 << 20

const (
	CodeGuard      = "GUARD"
	CodeTurn       = "TURN"
	CodeValidation = "VALIDATION"
	CodeBadRequest = "BAD_REQUEST"
)

type errorBody struct {
	Detail string            `json:"detail"`
	Code   string            `json:"code,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// badRequest is a malformed request: unreadable JSON or a bad path parameter.
type badRequest string

func (e badRequest) Error() string { return string(e) }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code. Unexpected errors are logged and
// reported as a bare 500.
func (a *api) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		guardErr *engine.GuardError
		turnErr  *engine.TurnError
		valErr   *ValidationError
		badReq   badRequest
	)
	switch {
	case errors.As(err, &guardErr):
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: guardErr.Reason, Code: CodeGuard})
	case errors.As(err, &turnErr):
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: turnErr.Reason, Code: CodeTurn})
	case errors.As(err, &valErr):
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "validation failed", Code: CodeValidation, Fields: valErr.Fields})
	case errors.As(err, &badReq):
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: badReq.Error(), Code: CodeBadRequest})
	case errors.Is(err, catalog.ErrInvalidName):
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: err.Error(), Code: CodeValidation})
	case errors.Is(err, store.ErrSeriesNotFound),
		errors.Is(err, store.ErrMapNotFound),
		errors.Is(err, store.ErrModeNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Detail: err.Error()})
	case errors.Is(err, store.ErrDuplicateName), errors.Is(err, store.ErrInUse):
		writeJSON(w, http.StatusConflict, errorBody{Detail: err.Error()})
	case errors.Is(err, veto.ErrUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Detail: err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		a.log.Debug("request abandoned", zap.String("route", routePattern(r)), zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Detail: "request cancelled"})
	default:
		a.log.Error("request failed",
			zap.String("route", routePattern(r)),
			zap.String("id", chi.URLParam(r, "id")),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, errorBody{Detail: "internal server error"})
	}
}

// decode reads a JSON body into dst and validates it. Unknown fields are
// rejected; an empty body decodes as {} and is left to validation.
// normalizer folds alias fields into their canonical ones before validation.
type normalizer interface {
	normalize()
}

func (a *api) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return badRequest("malformed JSON body: " + err.Error())
	}
	if n, ok := dst.(normalizer); ok {
		n.normalize()
	}
	return a.validator.Validate(dst)
}

func pathID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		return 0, badRequest("invalid id")
	}
	return uint(id), nil
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		return r.Method + " " + rc.RoutePattern()
	}
	return r.Method + " " + r.URL.Path
}

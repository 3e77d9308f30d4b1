package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tracehub.io/tracehub/internal/api/openapi"
	apperrors "tracehub.io/tracehub/internal/pkg/errors"
	"tracehub.io/tracehub/internal/pkg/logger"
)

// Contract error codes.
const (
	CodeContractRoute    = "OPENAPI_ROUTE_INVALID"
	CodeContractRequest  = "OPENAPI_REQUEST_INVALID"
	CodeContractResponse = "OPENAPI_RESPONSE_INVALID"
)

// Authentication is JWTAuth's job; the contract check only looks at shapes.
var contractOptions = &openapi3filter.Options{
	AuthenticationFunc: func(context.Context, *openapi3filter.AuthenticationInput) error { return nil },
}

// MustOpenAPIValidator is NewOpenAPIValidator that panics on a broken contract.
func MustOpenAPIValidator(basePath string) gin.HandlerFunc {
	mw, err := NewOpenAPIValidator(basePath)
	if err != nil {
		panic(fmt.Sprintf("init openapi validator: %v", err))
	}
	return mw
}

// NewOpenAPIValidator checks requests and responses under basePath against the
// embedded notification API contract. Paths the contract does not describe,
// such as /metrics, pass through. It must be installed before ErrorHandler
// so error bodies are checked too.
func NewOpenAPIValidator(basePath string) (gin.HandlerFunc, error) {
	doc, err := openapi.Load()
	if err != nil {
		return nil, err
	}
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("create openapi router: %w", err)
	}
	v := &contractValidator{router: router, basePath: normalizeBasePath(basePath)}
	return v.handle, nil
}

type contractValidator struct {
	router   routers.Router
	basePath string
}

func (v *contractValidator) handle(c *gin.Context) {
	input, err := v.route(c.Request)
	switch {
	case errors.Is(err, routers.ErrPathNotFound):
		c.Next()
		return
	case err != nil:
		abortContract(c, apperrors.BadRequest(CodeContractRoute, err.Error()))
		return
	}

	err = openapi3filter.ValidateRequest(c.Request.Context(), input)
	// the body was consumed through the routed copy
	c.Request.Body = input.Request.Body
	if err != nil {
		abortContract(c, apperrors.BadRequest(CodeContractRequest, err.Error()))
		return
	}

	buffered := newBufferedResponseWriter(c.Writer)
	c.Writer = buffered
	c.Next()
	c.Writer = buffered.ResponseWriter

	if err := v.checkResponse(c.Request.Context(), input, buffered); err != nil {
		logger.Error("response violates notification API contract",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", buffered.Status()),
			zap.String("request_id", GetRequestID(c.Request.Context())),
			zap.Error(err),
		)
		buffered.replace(apperrors.New(CodeContractResponse,
			"response does not conform to OpenAPI contract", http.StatusInternalServerError))
	}

	if err := buffered.flush(); err != nil {
		logger.Warn("failed to flush buffered response",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
	}
}

// route resolves the contract operation for req. The contract's paths are
// relative to basePath, so the prefix is stripped on a copy of the request
// when the full path does not match.
func (v *contractValidator) route(req *http.Request) (*openapi3filter.RequestValidationInput, error) {
	routed := req.WithContext(req.Context())
	u := *req.URL
	routed.URL = &u

	route, params, err := v.router.FindRoute(routed)
	if isPathNotFound(err) {
		u.Path = normalizeValidationPath(v.basePath, req.URL.Path)
		if req.URL.RawPath != "" {
			u.RawPath = normalizeValidationPath(v.basePath, req.URL.RawPath)
		}
		route, params, err = v.router.FindRoute(routed)
	}
	if isPathNotFound(err) {
		return nil, routers.ErrPathNotFound
	}
	if err != nil {
		return nil, err
	}
	return &openapi3filter.RequestValidationInput{
		Request:    routed,
		PathParams: params,
		Route:      route,
		Options:    contractOptions,
	}, nil
}

func (v *contractValidator) checkResponse(ctx context.Context, req *openapi3filter.RequestValidationInput, w *bufferedResponseWriter) error {
	input := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: req,
		Status:                 w.Status(),
		Header:                 w.Header().Clone(),
		Options:                contractOptions,
	}
	if w.body.Len() > 0 {
		input.SetBodyBytes(w.body.Bytes())
	}
	return openapi3filter.ValidateResponse(ctx, input)
}

func normalizeBasePath(basePath string) string {
	basePath = strings.Trim(strings.TrimSpace(basePath), "/")
	if basePath == "" {
		return ""
	}
	return "/" + basePath
}

// normalizeValidationPath strips basePath from path. Paths outside basePath
// are returned as they are.
func normalizeValidationPath(basePath, path string) string {
	switch {
	case basePath == "" && path == "":
		return "/"
	case basePath == "":
		return path
	case path == basePath:
		return "/"
	case strings.HasPrefix(path, basePath+"/"):
		return strings.TrimPrefix(path, basePath)
	}
	return path
}

func isPathNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, routers.ErrPathNotFound) {
		return true
	}
	var routeErr *routers.RouteError
	if errors.As(err, &routeErr) {
		return strings.Contains(routeErr.Reason, routers.ErrPathNotFound.Error())
	}
	return strings.Contains(err.Error(), routers.ErrPathNotFound.Error())
}

func abortContract(c *gin.Context, appErr *apperrors.AppError) {
	c.AbortWithStatusJSON(appErr.Status(), appErr)
}

// bufferedResponseWriter holds the response until it has been checked.
type bufferedResponseWriter struct {
	gin.ResponseWriter
	body   bytes.Buffer
	status int
}

func newBufferedResponseWriter(w gin.ResponseWriter) *bufferedResponseWriter {
	return &bufferedResponseWriter{ResponseWriter: w}
}

func (w *bufferedResponseWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
}

func (w *bufferedResponseWriter) WriteHeaderNow() {
	w.WriteHeader(http.StatusOK)
}

func (w *bufferedResponseWriter) Write(data []byte) (int, error) {
	w.WriteHeader(http.StatusOK)
	return w.body.Write(data)
}

func (w *bufferedResponseWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

func (w *bufferedResponseWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func (w *bufferedResponseWriter) Size() int    { return w.body.Len() }
func (w *bufferedResponseWriter) Written() bool { return w.status != 0 }

func (w *bufferedResponseWriter) replace(appErr *apperrors.AppError) {
	w.status = appErr.Status()
	w.body.Reset()
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(&w.body).Encode(appErr); err != nil {
		w.body.Reset()
		w.body.WriteString(`{"code":"` + CodeContractResponse + `","message":"response does not conform to OpenAPI contract"}`)
	}
}

func (w *bufferedResponseWriter) flush() error {
	w.ResponseWriter.WriteHeader(w.Status())
	if w.body.Len() == 0 {
		w.ResponseWriter.WriteHeaderNow()
		return nil
	}
	_, err := w.ResponseWriter.Write(w.body.Bytes())
	return err
}

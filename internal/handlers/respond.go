package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"reda-store/internal/apperr"
	"reda-store/internal/logging"
)

var tracer = otel.Tracer("handlers")

var registerTagNames sync.Once

// useJSONFieldNames makes validation errors name fields the way clients send
// them (qty, not Qty).
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
}

// startSpan opens a span for the handler and makes it the request context.
func startSpan(c *gin.Context, name string) trace.Span {
	ctx, span := tracer.Start(c.Request.Context(), name, trace.WithSpanKind(trace.SpanKindServer))
	c.Request = c.Request.WithContext(ctx)
	return span
}

// respondError writes {"error": msg} with the status of the error kind.
// Storage failures are logged with their cause and answered generically.
func respondError(c *gin.Context, span trace.Span, err error) {
	status := apperr.HTTPStatus(err)
	msg := apperr.Message(err)
	span.SetStatus(codes.Error, msg)
	if status >= http.StatusInternalServerError {
		span.RecordError(err)
		logging.WithContext(c.Request.Context()).WithError(err).Error("request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// bindJSON decodes the body through gin and turns validator output into a
// short message.
func bindJSON(c *gin.Context, v interface{}) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return apperr.Validation(validationMessage(err))
	}
	return nil
}

// bindStrict is bindJSON that also rejects fields the request type does not
// declare.
func bindStrict(c *gin.Context, v interface{}) error {
	if c.Request.Body == nil {
		return apperr.Validation("Invalid request body")
	}
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.Validation(decodeMessage(err))
	}
	if err := binding.Validator.ValidateStruct(v); err != nil {
		return apperr.Validation(validationMessage(err))
	}
	return nil
}

func decodeMessage(err error) string {
	msg := err.Error()
	if strings.HasPrefix(msg, "json: unknown field ") {
		return "Unknown field " + strings.TrimPrefix(msg, "json: unknown field ")
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return "Invalid " + typeErr.Field
	}
	return "Invalid request body"
}

func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return decodeMessage(err)
	}
	fe := ve[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		if fe.Kind() == reflect.Slice || fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must have at least %s", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice || fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must have at most %s", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "email":
		return "Invalid email"
	}
	return "Invalid " + field
}

func queryInt(c *gin.Context, key string, def int) int {
	if v, err := strconv.Atoi(c.Query(key)); err == nil {
		return v
	}
	return def
}

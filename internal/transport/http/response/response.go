package response

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	CodeBadRequest           = 40000
	CodeUsernameExists       = 40001
	CodeUserNotFound         = 40401
	CodeConversationNotFound = 40402
	CodeValidation           = 42200
	CodeInternalServer       = 50000
	CodeLLMUnavailable       = 50300
)

type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

type ErrorResponse struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.AbortWithStatusJSON(httpStatus, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// Validation answers 422. Binding errors from the validator are expanded into
// per-field details keyed by the json/form name.
func Validation(c *gin.Context, err error) {
	resp := ErrorResponse{Code: CodeValidation, Message: "invalid request payload"}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			resp.Details = append(resp.Details, FieldError{Field: fe.Field(), Rule: fe.Tag()})
		}
	} else if err != nil {
		resp.Message = "invalid request payload: " + err.Error()
	}
	c.AbortWithStatusJSON(422, resp)
}

func FieldInvalid(c *gin.Context, field, rule string) {
	c.AbortWithStatusJSON(422, ErrorResponse{
		Code:    CodeValidation,
		Message: "invalid request payload",
		Details: []FieldError{{Field: field, Rule: rule}},
	})
}

var registerOnce sync.Once

// UseWireFieldNames makes validator report json (or form) names instead of Go
// struct field names.
func UseWireFieldNames() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
	})
}

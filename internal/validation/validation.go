package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"jobboard/internal/errcode"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// 错误中使用 JSON 字段名，与客户端提交的字段保持一致。
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Struct 校验带 validate 标签的结构体。
// 所有 required 失败的字段按声明顺序汇总为一个 validation_failed 错误；
// 其他规则失败时返回第一个字段的参数错误。
func Struct(v any) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errcode.BadRequest("Invalid request body")
	}

	var missing []string
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
		}
	}
	if len(missing) > 0 {
		return errcode.Validation(missing...)
	}
	return errcode.BadRequest("Invalid value for " + fieldErrs[0].Field())
}

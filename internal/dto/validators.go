package dto

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators 向 gin 默认校验器注册自定义规则：
//   - hhmm：24 小时制 "HH:MM"
//   - rut：智利 RUT，校验位按模 11 计算
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	if err := v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return IsHHMM(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("rut", func(fl validator.FieldLevel) bool {
		return IsValidRUT(fl.Field().String())
	})
}

// IsHHMM 判断是否为合法的 "HH:MM"
func IsHHMM(s string) bool {
	if len(s) != 5 {
		return false
	}
	_, err := time.Parse("15:04", s)
	return err == nil
}

// NormalizeRUT 去掉点号与空白，校验位转大写，例如 "12.345.678-k" → "12345678-K"
func NormalizeRUT(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, " ", "")
	if !strings.Contains(s, "-") && len(s) > 1 {
		s = s[:len(s)-1] + "-" + s[len(s)-1:]
	}
	return s
}

// IsValidRUT 校验 RUT 的格式与模 11 校验位
func IsValidRUT(s string) bool {
	parts := strings.Split(NormalizeRUT(s), "-")
	if len(parts) != 2 || len(parts[1]) != 1 {
		return false
	}
	body, dv := parts[0], parts[1]
	if len(body) < 6 || len(body) > 8 {
		return false
	}
	if _, err := strconv.Atoi(body); err != nil {
		return false
	}
	return rutCheckDigit(body) == dv
}

func rutCheckDigit(body string) string {
	sum, mul := 0, 2
	for i := len(body) - 1; i >= 0; i-- {
		sum += int(body[i]-'0') * mul
		mul++
		if mul > 7 {
			mul = 2
		}
	}
	switch r := 11 - sum%11; r {
	case 11:
		return "0"
	case 10:
		return "K"
	default:
		return strconv.Itoa(r)
	}
}

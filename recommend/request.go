package recommend

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/rushteam/listingrec/core"
)

// Request 是一次相似推荐请求。
type Request struct {
	// ListingID 查询房源
	ListingID int64 `json:"listing_id"`

	// MaxResults 返回结果上限，取值 [1, 100]
	MaxResults int `json:"max_results" validate:"min=1,max=100"`

	// Threshold 相似度阈值，取值 [0, 1]；score >= threshold 的候选保留
	Threshold float64 `json:"threshold" validate:"gte=0,lte=1"`

	// Filter 可选的 CEL 候选过滤表达式，例如 listing.price <= 200.0
	Filter string `json:"filter,omitempty" validate:"max=2048"`

	// MaxPerNeighbourhood 每个街区最多返回的结果数，0 表示不限制
	MaxPerNeighbourhood int `json:"max_per_neighbourhood,omitempty" validate:"gte=0"`

	// Explain 为 true 时返回逐特征贡献
	Explain bool `json:"explain,omitempty"`
}

// NewRequest 使用默认参数（10 条结果，阈值 0.6）构造请求
func NewRequest(listingID int64) Request {
	return Request{
		ListingID:  listingID,
		MaxResults: core.DefaultMaxResults,
		Threshold:  core.DefaultThreshold,
	}
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Validate 校验请求参数；越界参数直接拒绝（INVALID_INPUT），不做静默截断。
func (r Request) Validate() error {
	err := getValidator().Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return core.WrapDomainError(core.ModuleRecommend, core.ErrorCodeInvalidInput, "recommend: invalid request", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return core.NewInvalidInput(core.ModuleRecommend, "recommend: "+strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min", "gte":
		return fmt.Sprintf("%s must be >= %s", fe.Field(), fe.Param())
	case "max", "lte":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be <= %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %q validation", fe.Field(), fe.Tag())
	}
}

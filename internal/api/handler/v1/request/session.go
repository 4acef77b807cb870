package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

type JoinSessionRequest struct {
	Code string `json:"code"`
}

func (req *JoinSessionRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Code, validation.Required, validation.Length(6, 6), is.Alphanumeric),
	)
}

package response

import "github.com/acg-climbing/sessions-api/internal/domain"

type LoginResponse struct {
	Token   string         `json:"token"`
	Profile domain.Profile `json:"profile"`
}

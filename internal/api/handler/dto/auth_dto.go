package dto

type AuthenticationRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r *AuthenticationRequest) Validate() error {
	return validateStruct(r)
}

type AuthenticationResponse struct {
	Token       string      `json:"token"`
	CustomerDTO CustomerDTO `json:"customerDTO"`
}

package request

type CreateMailbox struct {
	LocalPart string `json:"local_part" validate:"required,localpart"`
	Name      string `json:"name" validate:"max=100"`
	Password  string `json:"password" validate:"required,min=8"`
}

type CreateAlias struct {
	LocalPart string `json:"local_part" validate:"required,localpart"`
	Target    string `json:"target" validate:"required,email"`
}

package dto

type ClientRequest struct {
	Name          string  `json:"name"           validate:"required,min=2,max=200"`
	Address       *string `json:"address"        validate:"omitempty,max=300"`
	ContactPerson *string `json:"contact_person" validate:"omitempty,max=150"`
	Phone         *string `json:"phone"          validate:"omitempty,max=20"`
}

type ClientResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Address       *string `json:"address"`
	ContactPerson *string `json:"contact_person"`
	Phone         *string `json:"phone"`
	IsArchived    bool    `json:"is_archived"`
}

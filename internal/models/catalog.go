package models

type Glaze struct {
	Meta
	StudioID     string  `json:"studioId"`
	Name         string  `json:"name"`
	Manufacturer *string `json:"manufacturer"`
	Cone         *string `json:"cone"`
	Notes        *string `json:"notes"`
}

type ClayBody struct {
	Meta
	StudioID     string  `json:"studioId"`
	Name         string  `json:"name"`
	Manufacturer *string `json:"manufacturer"`
	Cone         *string `json:"cone"`
	Notes        *string `json:"notes"`
}

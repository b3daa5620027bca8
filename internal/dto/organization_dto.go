package dto

// UpdateOrganizationRequest uses pointers so an absent field is left untouched
// while an empty string clears it.
type UpdateOrganizationRequest struct {
	OrganizationID string  `json:"organization_id"`
	Name           string  `json:"name"          validate:"max=200"`
	LogoURL        *string `json:"logo_url"      validate:"omitempty,max=2048"`
	BrandColor     *string `json:"brand_color"`
	BusinessType   *string `json:"business_type" validate:"omitempty,max=100"`
	OpeningTime    *string `json:"opening_time"`
	ClosingTime    *string `json:"closing_time"`
	Subdomain      *string `json:"subdomain"`
}

type OrganizationResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Slug         string  `json:"slug"`
	Subdomain    *string `json:"subdomain"`
	BrandColor   *string `json:"brand_color"`
	LogoURL      *string `json:"logo_url"`
	BusinessType *string `json:"business_type"`
	OpeningTime  *string `json:"opening_time"`
	ClosingTime  *string `json:"closing_time"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

// ResolveOrganizationResponse carries a null organization when nothing matches.
type ResolveOrganizationResponse struct {
	Organization *OrganizationResponse `json:"organization"`
}

type UpdateOrganizationResponse struct {
	Success      bool                 `json:"success"`
	Organization OrganizationResponse `json:"organization"`
}

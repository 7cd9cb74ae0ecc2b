package xero

// Organisation is the subset of the organisation record used by the liveness check.
type Organisation struct {
	OrganisationID string `json:"OrganisationID"`
	Name           string `json:"Name"`
	LegalName      string `json:"LegalName"`
	BaseCurrency   string `json:"BaseCurrency"`
	CountryCode    string `json:"CountryCode"`
}

// Item is an inventory or service item. Code holds the SKU.
type Item struct {
	ItemID      string `json:"ItemID"`
	Code        string `json:"Code"`
	Name        string `json:"Name"`
	Description string `json:"Description"`
}

// Organisations and Items are pointers so a missing array can be told apart from an empty one.
type organisationsResponse struct {
	Organisations *[]Organisation `json:"Organisations"`
}

type itemsResponse struct {
	Items *[]Item `json:"Items"`
}

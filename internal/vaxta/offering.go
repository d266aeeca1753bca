package vaxta

// RawOffering is a job offering as returned by the platform.
type RawOffering struct {
	ID          string   `json:"id"`
	Name        string   `json:"f_offering_name,omitempty"`
	CreatedAt   string   `json:"createdAt,omitempty"`
	UpdatedAt   string   `json:"updatedAt,omitempty"`
	Description string   `json:"f_offering_new_description,omitempty"`
	Gender      []string `json:"f_offering_gender,omitempty"`
	Nationality []string `json:"f_offering_nationality,omitempty"`
	Category    string   `json:"f_offering_offering,omitempty"`
	Rate        string   `json:"f_offering_rate,omitempty"`
	RegionID    int      `json:"f_778clr1gcvp,omitempty"`
	MinAge      int      `json:"f_min_age,omitempty"`
	MaxAge      int      `json:"f_offering_max_age,omitempty"`
	MinPrice    int      `json:"f_offering_min_price,omitempty"`
	MaxPrice    int      `json:"f_offering_max_price,omitempty"`
	MenNeeded   int      `json:"f_offering_men_needed,omitempty"`
	WomenNeeded int      `json:"f_offering_women_needed,omitempty"`
}

// Offerings is one page of search results.
type Offerings struct {
	Items []*RawOffering
	// Total is the number of matches reported by the platform; it can exceed len(Items).
	Total int
}

func (o *Offerings) Len() int {
	if o == nil {
		return 0
	}
	return len(o.Items)
}

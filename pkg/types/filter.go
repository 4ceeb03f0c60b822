package types

// Filter - параметры фильтрации и пагинации списков.
type Filter struct {
	Search         string                 `json:"search,omitempty"`
	Sort           map[string]string      `json:"sort,omitempty"`
	Filter         map[string]interface{} `json:"filter,omitempty"`
	Limit          int                    `json:"limit"`
	Offset         int                    `json:"offset"`
	Page           int                    `json:"page"`
	WithPagination bool                   `json:"with_pagination"`
}

// http://localhost:8080/api/equipment?search=BAR&sort[serial_id]=asc&filter[model_id]=1,2&limit=10&offset=0&withPagination=true

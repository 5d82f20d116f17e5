package notion

// Page is the remote record written for a processed video
type Page struct {
	Title    string
	URL      string
	Platform string
	Date     string // YYYY-MM-DD
	Body     string
}

// richText is a Notion rich text object
type richText struct {
	Type string `json:"type"`
	Text struct {
		Content string `json:"content"`
	} `json:"text"`
}

// block is a Notion paragraph block
type block struct {
	Object    string `json:"object"`
	Type      string `json:"type"`
	Paragraph struct {
		RichText []richText `json:"rich_text"`
	} `json:"paragraph"`
}

type queryRequest struct {
	Filter   queryFilter `json:"filter"`
	PageSize int         `json:"page_size,omitempty"`
}

type queryFilter struct {
	Property string `json:"property"`
	URL      struct {
		Equals string `json:"equals"`
	} `json:"url"`
}

type queryResponse struct {
	Object  string `json:"object"`
	Results []struct {
		ID string `json:"id"`
	} `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

type createPageRequest struct {
	Parent struct {
		DatabaseID string `json:"database_id"`
	} `json:"parent"`
	Properties map[string]any `json:"properties"`
	Children   []block        `json:"children,omitempty"`
}

type appendChildrenRequest struct {
	Children []block `json:"children"`
}

type pageResponse struct {
	Object string `json:"object"`
	ID     string `json:"id"`
	URL    string `json:"url"`
}

// errorResponse is the body Notion returns on non-2xx status codes
type errorResponse struct {
	Object  string `json:"object"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

package models

// MenuItem is a navigation entry; items nest through Children.
type MenuItem struct {
	ID       string     `json:"id"`
	Label    string     `json:"label"`
	URL      string     `json:"url"`
	Children []MenuItem `json:"children,omitempty"`
	IsOpen   bool       `json:"isOpen,omitempty"`
}

type Menu struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Order     int        `json:"order"`
	Items     []MenuItem `json:"items"`
	CreatedAt string     `json:"createdAt,omitempty"`
	UpdatedAt string     `json:"updatedAt,omitempty"`
}

// WidgetType enumerates dashboard widget kinds.
type WidgetType string

const (
	WidgetStats    WidgetType = "stats"
	WidgetList     WidgetType = "list"
	WidgetChart    WidgetType = "chart"
	WidgetActivity WidgetType = "activity"
	WidgetTable    WidgetType = "table"
	WidgetTitle    WidgetType = "title"
	WidgetProfile  WidgetType = "profile"
	WidgetHeader   WidgetType = "header"
)

// Widget is one tile of a dashboard grid. Order is the explicit ordinal
// used when listing widgets; X/Y/Cols/Rows describe grid placement.
type Widget struct {
	ID     string         `json:"id"`
	Type   WidgetType     `json:"type"`
	Title  string         `json:"title"`
	Data   map[string]any `json:"data,omitempty"`
	Cols   int            `json:"cols"`
	Rows   int            `json:"rows"`
	X      int            `json:"x"`
	Y      int            `json:"y"`
	Order  int            `json:"order"`
	Locked bool           `json:"locked,omitempty"`
}

// Dashboard is the widget layout stored per dashboard slug.
type Dashboard struct {
	ID        string   `json:"id"`
	Widgets   []Widget `json:"widgets"`
	UpdatedAt string   `json:"updatedAt,omitempty"`
}

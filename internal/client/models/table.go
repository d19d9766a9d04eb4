package models

// TableMeta declares a dynamic local collection. KeyPath names the document
// field used as primary key; empty means keys are supplied out of line.
type TableMeta struct {
	Name        string   `json:"name"`
	KeyPath     string   `json:"keyPath"`
	Indices     []string `json:"indices,omitempty"`
	IsEncrypted bool     `json:"isEncrypted,omitempty"`
	CreatedAt   string   `json:"createdAt"`
}

// TableInfo is a materialized collection as reported to admin tooling.
type TableInfo struct {
	TableMeta
	System bool `json:"system"`
	Rows   int  `json:"rows"`
}

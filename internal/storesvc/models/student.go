package models

type Student struct {
	ID       int64  `json:"id"` // Primary key
	IndexNo  string `json:"index_no"`
	FullName string `json:"full_name"`
}

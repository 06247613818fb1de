// models/category.go
package models

// CategoryRow is one row of tbl_2b, the category ranking rebuilt by the cascade script.
type CategoryRow struct {
	CategoryID    int64  `json:"category_id" csv:"category_id" db:"category_id"`
	CategoryTitle string `json:"category_title" csv:"category_title" db:"category_title"`
	CategoryRank  int64  `json:"category_rank" csv:"category_rank" db:"category_rank"`
	PageCount     int64  `json:"page_count" csv:"page_count" db:"page_count"`
}

// CategoryFilter holds the optional equality filters of GET /api/category.
// Empty fields are not applied.
type CategoryFilter struct {
	CategoryID    string
	CategoryTitle string
	CategoryRank  string
}

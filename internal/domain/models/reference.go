package models

// Column titles of the crops reference table.
const (
	CropsColumnName     = "採收作物"
	CropsColumnCategory = "中分類"
)

// CropOptions groups crop names by category. Filtered is only meaningful
// when Query is non-empty.
type CropOptions struct {
	Query    string
	Filtered []string
	All      map[string][]string
}

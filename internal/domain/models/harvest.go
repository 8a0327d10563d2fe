package models

import "strconv"

// Column titles of the persisted harvest table. They match the data already
// stored in the bucket byte-for-byte.
const (
	ColumnID           = "ID"
	ColumnName         = "姓名"
	ColumnDate         = "日期"
	ColumnLocation     = "採收位置"
	ColumnCrop         = "採收作物"
	ColumnWeight       = "重量"
	ColumnEggType      = "雞蛋類型"
	ColumnWashedStored = "已洗入庫"
	ColumnBrokenEggs   = "破蛋"
)

// EggHouseLocation is the location whose records carry egg fields instead of
// crop and weight.
const EggHouseLocation = "蛋雞舍"

// Placeholder fills the field group a record does not use.
const Placeholder = "-"

// DateLayout is the on-disk date format.
const DateLayout = "2006/01/02"

// HarvestColumns lists the fixed column set in file order.
var HarvestColumns = []string{
	ColumnID,
	ColumnName,
	ColumnDate,
	ColumnLocation,
	ColumnCrop,
	ColumnWeight,
	ColumnEggType,
	ColumnWashedStored,
	ColumnBrokenEggs,
}

// HarvestRecord is one row of the harvest table.
type HarvestRecord struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Date         string `json:"date"`
	Location     string `json:"location"`
	Crop         string `json:"crop"`
	Weight       string `json:"weight"`
	EggType      string `json:"egg_type"`
	WashedStored string `json:"washed_stored"`
	BrokenEggs   string `json:"broken_eggs"`
}

// IsEggHouse reports whether the record belongs to the egg house.
func (r HarvestRecord) IsEggHouse() bool {
	return r.Location == EggHouseLocation
}

// Cells returns the record keyed by column title.
func (r HarvestRecord) Cells() map[string]string {
	return map[string]string{
		ColumnID:           strconv.Itoa(r.ID),
		ColumnName:         r.Name,
		ColumnDate:         r.Date,
		ColumnLocation:     r.Location,
		ColumnCrop:         r.Crop,
		ColumnWeight:       r.Weight,
		ColumnEggType:      r.EggType,
		ColumnWashedStored: r.WashedStored,
		ColumnBrokenEggs:   r.BrokenEggs,
	}
}

// RawRecord is one submitted form entry keyed by column title.
type RawRecord map[string]any

package harvest

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mamadbah2/harvest/internal/domain/models"
)

const inputDateLayout = "2006/1/2"

var (
	eggHouseRequired = []string{
		models.ColumnName,
		models.ColumnDate,
		models.ColumnLocation,
		models.ColumnEggType,
		models.ColumnWashedStored,
		models.ColumnBrokenEggs,
	}
	standardRequired = []string{
		models.ColumnName,
		models.ColumnDate,
		models.ColumnLocation,
		models.ColumnCrop,
		models.ColumnWeight,
	}
)

// NormalizeDate turns submitted date text into the stored YYYY/MM/DD form.
// A trailing time of day is dropped and dashes count as slashes. Month and
// day may have one or two digits; the year needs four.
func NormalizeDate(raw string) (string, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return "", fmt.Errorf("empty date")
	}
	value := strings.ReplaceAll(fields[0], "-", "/")

	parts := strings.Split(value, "/")
	if len(parts) != 3 || len(parts[0]) != 4 || len(parts[1]) > 2 || len(parts[2]) > 2 {
		return "", fmt.Errorf("date %q is not YYYY/MM/DD", value)
	}

	parsed, err := time.Parse(inputDateLayout, value)
	if err != nil {
		return "", err
	}
	return parsed.Format(models.DateLayout), nil
}

// normalizeRecord validates one raw record and fills the unused field group
// with placeholders. The ID is assigned later.
func normalizeRecord(index int, raw models.RawRecord) (models.HarvestRecord, error) {
	rawDate := cellText(raw[models.ColumnDate])
	date, err := NormalizeDate(rawDate)
	if err != nil {
		return models.HarvestRecord{}, &DateFormatError{Index: index, Value: rawDate}
	}

	location := cellText(raw[models.ColumnLocation])
	required := standardRequired
	if location == models.EggHouseLocation {
		required = eggHouseRequired
	}

	var missing []string
	for _, field := range required {
		if strings.TrimSpace(cellText(raw[field])) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return models.HarvestRecord{}, &MissingFieldError{Index: index, Fields: missing}
	}

	record := models.HarvestRecord{
		Name:     cellText(raw[models.ColumnName]),
		Date:     date,
		Location: location,
	}

	if record.IsEggHouse() {
		record.Crop = models.Placeholder
		record.Weight = models.Placeholder
		record.EggType = cellText(raw[models.ColumnEggType])
		record.WashedStored = cellText(raw[models.ColumnWashedStored])
		record.BrokenEggs = cellText(raw[models.ColumnBrokenEggs])
	} else {
		record.Crop = cellText(raw[models.ColumnCrop])
		record.Weight = cellText(raw[models.ColumnWeight])
		record.EggType = models.Placeholder
		record.WashedStored = models.Placeholder
		record.BrokenEggs = models.Placeholder
	}

	return record, nil
}

// cellText renders a decoded JSON value as cell text. Absent and null values
// become the empty string.
func cellText(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

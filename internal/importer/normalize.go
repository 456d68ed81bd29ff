package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"gitlab.com/dirk.krummacker/surf-contacts/internal/model"
)

// Column headers of the lead exports we ingest. Other columns, like "Hours", are ignored.
const (
	columnName          = "Name"
	columnPhone         = "Phone"
	columnEmail         = "Email"
	columnWebsite       = "Website"
	columnAddress       = "Address"
	columnCategory      = "Category"
	columnRating        = "Rating"
	columnReviews       = "Reviews"
	columnGoogleMapsURL = "Google Maps URL"
)

var validate = validator.New()

// Normalize parses a CSV document with a header row into contact fields, in document order.
// Rows without a name or a phone number are skipped and counted. Blank lines are not rows.
func Normalize(document string) ([]model.ContactFields, int, error) {
	reader := csv.NewReader(strings.NewReader(document))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read csv header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, seen := index[name]; !seen {
			index[name] = i
		}
	}

	var rows []model.ContactFields
	skipped := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read csv row: %w", err)
		}
		if isBlank(record) {
			continue
		}
		fields, ok := normalizeRecord(record, index)
		if !ok {
			skipped++
			continue
		}
		rows = append(rows, fields)
	}
	return rows, skipped, nil
}

func normalizeRecord(record []string, index map[string]int) (model.ContactFields, bool) {
	value := func(column string) string {
		i, ok := index[column]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	fields := model.ContactFields{
		Name:          value(columnName),
		Phone:         value(columnPhone),
		Email:         optional(value(columnEmail)),
		Website:       optional(value(columnWebsite)),
		Address:       optional(value(columnAddress)),
		Category:      optional(value(columnCategory)),
		Rating:        parseRating(value(columnRating)),
		Reviews:       parseReviews(value(columnReviews)),
		GoogleMapsURL: optional(value(columnGoogleMapsURL)),
	}
	if err := validate.Struct(fields); err != nil {
		return model.ContactFields{}, false
	}
	return fields, true
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Leading numbers of rating and review cells. Exports often carry suffixes like "4.5 stars"
// or thousands separators like "1,234"; only the leading number counts.
var (
	leadingDecimal = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)
	leadingInteger = regexp.MustCompile(`^[+-]?\d+`)
)

// parseRating reads the leading decimal of a rating. Values are not range checked.
func parseRating(s string) decimal.NullDecimal {
	number := leadingDecimal.FindString(s)
	if number == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(number)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// parseReviews reads the leading integer of a review count. Negative counts are kept as they
// are.
func parseReviews(s string) *int64 {
	number := leadingInteger.FindString(s)
	if number == "" {
		return nil
	}
	n, err := strconv.ParseInt(number, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

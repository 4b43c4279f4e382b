package demand

import (
	"sort"

	"ecostock/internal/model"
)

// HolidayFeature is the name of the pass-through holiday column.
const HolidayFeature = "HolidayFlag"

// categorical lists the one-hot encoded features and how to read them.
var categorical = []struct {
	name  string
	value func(model.InventoryRecord) string
}{
	{"Category", func(r model.InventoryRecord) string { return string(r.Category) }},
	{"StoreID", func(r model.InventoryRecord) string { return string(r.StoreID) }},
	{"Weather", func(r model.InventoryRecord) string { return string(r.Weather) }},
}

// Encoder expands records into numeric feature vectors. Each categorical
// feature becomes one indicator column per value seen during Fit, sorted by
// value. Values not seen during Fit encode to all zeros.
type Encoder struct {
	vocab   []map[string]int
	offsets []int
	names   []string
}

// NewEncoder learns the categorical vocabularies from records.
func NewEncoder(records []model.InventoryRecord) *Encoder {
	e := &Encoder{
		vocab:   make([]map[string]int, len(categorical)),
		offsets: make([]int, len(categorical)),
	}

	offset := 0
	for i, feature := range categorical {
		seen := make(map[string]struct{})
		for _, rec := range records {
			seen[feature.value(rec)] = struct{}{}
		}

		values := make([]string, 0, len(seen))
		for v := range seen {
			values = append(values, v)
		}
		sort.Strings(values)

		e.vocab[i] = make(map[string]int, len(values))
		e.offsets[i] = offset
		for j, v := range values {
			e.vocab[i][v] = j
			e.names = append(e.names, feature.name+"="+v)
		}
		offset += len(values)
	}
	e.names = append(e.names, HolidayFeature)

	return e
}

// Width is the length of an encoded vector.
func (e *Encoder) Width() int {
	return len(e.names)
}

// FeatureNames returns the column names in encoding order.
func (e *Encoder) FeatureNames() []string {
	return append([]string(nil), e.names...)
}

// Transform encodes one record into dst, which must have Width elements.
func (e *Encoder) Transform(rec model.InventoryRecord, dst []float64) {
	clear(dst)
	for i, feature := range categorical {
		if j, ok := e.vocab[i][feature.value(rec)]; ok {
			dst[e.offsets[i]+j] = 1
		}
	}
	dst[len(dst)-1] = rec.HolidayValue()
}

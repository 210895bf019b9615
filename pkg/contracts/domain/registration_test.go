package domain

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDimension(t *testing.T) {
	tests := []struct {
		input string
		want  Dimension
		ok    bool
	}{
		{"category", DimensionCategory, true},
		{"By Category", DimensionCategory, true},
		{"vehicle_category", DimensionCategory, true},
		{"By Manufacturer", DimensionManufacturer, true},
		{" OEM ", DimensionManufacturer, true},
		{"make", DimensionManufacturer, true},
		{"colour", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseDimension(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGroupKey(t *testing.T) {
	r := Record{Category: "2W", Manufacturer: "Hero"}
	dims := []Dimension{DimensionCategory, DimensionManufacturer}

	key := NewGroupKey(r, dims)
	dims[0] = DimensionManufacturer

	assert.Equal(t, []Dimension{DimensionCategory, DimensionManufacturer}, key.Dimensions)
	assert.Equal(t, "2W / Hero", key.Label())
	assert.Equal(t, "Hero", key.Get(DimensionManufacturer))
	assert.Equal(t, "", NewGroupKey(r, []Dimension{DimensionCategory}).Get(DimensionManufacturer))
	assert.Equal(t, "Total", NewGroupKey(r, nil).Label())

	other := NewGroupKey(Record{Category: "2W", Manufacturer: "Bajaj"}, key.Dimensions)
	assert.NotEqual(t, key.ID(), other.ID())
	assert.Positive(t, key.Compare(other))
	assert.Negative(t, other.Compare(key))
	assert.Zero(t, key.Compare(key))

	data, err := json.Marshal(key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"category":"2W","manufacturer":"Hero"}`, string(data))
}

func TestGroupKeyIDIsUnambiguous(t *testing.T) {
	dims := []Dimension{DimensionCategory, DimensionManufacturer}
	a := NewGroupKey(Record{Category: "2W Hero", Manufacturer: "X"}, dims)
	b := NewGroupKey(Record{Category: "2W", Manufacturer: "Hero X"}, dims)

	assert.NotEqual(t, a.ID(), b.ID())
}

func TestDataset(t *testing.T) {
	d := Dataset{
		{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Category: "2W", Registrations: 10},
		{Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Category: "4W", Registrations: 5},
	}

	clone := d.Clone()
	clone[0].Registrations = 99

	assert.Equal(t, int64(10), d[0].Registrations)
	assert.Equal(t, int64(15), d.TotalRegistrations())
	assert.Nil(t, Dataset(nil).Clone())
	assert.Equal(t, "4W", d[1].Value(DimensionCategory))
	assert.Equal(t, "", d[1].Value("colour"))
}

func TestPercent(t *testing.T) {
	tests := []struct {
		name     string
		current  float64
		previous float64
		want     Percent
	}{
		{"growth", 150, 100, Percent{Value: 50, Valid: true}},
		{"decline", 75, 100, Percent{Value: -25, Valid: true}},
		{"flat", 100, 100, Percent{Value: 0, Valid: true}},
		{"zero previous", 50, 0, Percent{}},
		{"zero both", 0, 0, Percent{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PercentChange(tt.current, tt.previous))
		})
	}

	assert.False(t, PercentOf(math.NaN()).Valid)
	assert.False(t, PercentOf(math.Inf(1)).Valid)
	assert.Equal(t, 7.5, PercentOf(7.5).Or(0))
	assert.Equal(t, -1.0, Percent{}.Or(-1))
}

func TestPercentEncoding(t *testing.T) {
	assert.Equal(t, "12.35", PercentOf(12.346).String())
	assert.Equal(t, "", Percent{}.String())

	data, err := json.Marshal(struct {
		YoY Percent `json:"yoy"`
		QoQ Percent `json:"qoq"`
	}{YoY: PercentOf(50), QoQ: Percent{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"yoy":50,"qoq":null}`, string(data))

	var decoded struct {
		YoY Percent `json:"yoy"`
		QoQ Percent `json:"qoq"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, PercentOf(50), decoded.YoY)
	assert.False(t, decoded.QoQ.Valid)
}

func TestFilterMatches(t *testing.T) {
	r := BucketedRecord{
		Record: Record{Category: "2W", Manufacturer: "Hero"},
		Year:   2023,
	}

	assert.True(t, NewFilter(0, 0, nil, nil, DimensionCategory).Matches(r))
	assert.True(t, NewFilter(2023, 2023, []string{"2W"}, []string{"Hero"}, DimensionCategory).Matches(r))
	assert.False(t, NewFilter(2024, 0, nil, nil, DimensionCategory).Matches(r))
	assert.False(t, NewFilter(0, 2022, nil, nil, DimensionCategory).Matches(r))
	assert.False(t, NewFilter(0, 0, []string{"4W"}, nil, DimensionCategory).Matches(r))
	assert.False(t, NewFilter(0, 0, nil, []string{"Tata"}, DimensionCategory).Matches(r))

	categories := []string{"2W"}
	f := NewFilter(0, 0, categories, nil, DimensionCategory)
	categories[0] = "4W"
	assert.True(t, f.Matches(r))
}

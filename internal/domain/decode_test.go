package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductUnmarshalNormalizesUpstreamFields(t *testing.T) {
	var p Product
	require.NoError(t, json.Unmarshal([]byte(`{"_id":"abc","name":"Bun","price":12.5,"image_url":"http://x"}`), &p))

	assert.Equal(t, "abc", p.ID)
	require.NotNil(t, p.Price)
	assert.Equal(t, 12.5, *p.Price)
	assert.Equal(t, "http://x", p.ImageURL)
}

func TestProductUnmarshalDropsNonNumericPrice(t *testing.T) {
	var p Product
	require.NoError(t, json.Unmarshal([]byte(`{"id":7,"name":"Bun","price":"12"}`), &p))

	assert.Equal(t, "7", p.ID)
	assert.Nil(t, p.Price)
}

func TestBranchUnmarshal(t *testing.T) {
	raw := `{
		"_id": "b1",
		"name": "Downtown",
		"location": {"lat": 42.8, "lng": "74.6"},
		"schedule": [{"day": 1, "open": "09:00", "close": "17:00"}],
		"productCounts": [{"productId": 5, "count": "3"}, {"productId": "x", "count": "many"}],
		"shopLogoUrl": "http://logo"
	}`
	var b Branch
	require.NoError(t, json.Unmarshal([]byte(raw), &b))

	assert.Equal(t, "b1", b.ID)
	require.NotNil(t, b.Location.Lat)
	assert.Nil(t, b.Location.Lng)
	assert.False(t, b.Location.Valid())
	require.Len(t, b.ProductCounts, 2)
	assert.Equal(t, FlexID("5"), b.ProductCounts[0].ProductID)
	assert.Equal(t, FlexNumber(3), b.ProductCounts[0].Count)
	assert.Equal(t, FlexNumber(0), b.ProductCounts[1].Count)
	assert.Equal(t, "http://logo", b.LogoURL)
}

func TestScheduleValidate(t *testing.T) {
	assert.NoError(t, Schedule{{Day: 1, Open: "09:00", Close: "17:00"}, {Day: 7, Open: "10:00", Close: "14:30"}}.Validate())

	var verr *ValidationError
	assert.ErrorAs(t, Schedule{{Day: 0, Open: "09:00", Close: "17:00"}}.Validate(), &verr)
	assert.ErrorAs(t, Schedule{{Day: 2, Open: "09:00", Close: "17:00"}, {Day: 2, Open: "10:00", Close: "11:00"}}.Validate(), &verr)
	assert.ErrorAs(t, Schedule{{Day: 3, Open: "9", Close: "17:00"}}.Validate(), &verr)
}

func TestWeekRoundTrip(t *testing.T) {
	week := DefaultWeek()
	require.Len(t, week, 7)
	assert.Len(t, EnabledSchedule(week), 5)

	prefilled := WeekFromSchedule(Schedule{{Day: 6, Open: "11:00", Close: "15:00"}})
	enabled := EnabledSchedule(prefilled)
	assert.Equal(t, Schedule{{Day: 6, Open: "11:00", Close: "15:00"}}, enabled)
}

func TestParseDecimal(t *testing.T) {
	v, ok := ParseDecimal(" 12,5 ")
	assert.True(t, ok)
	assert.Equal(t, 12.5, v)

	_, ok = ParseDecimal("abc")
	assert.False(t, ok)
	_, ok = ParseDecimal("")
	assert.False(t, ok)
	_, ok = ParseDecimal("NaN")
	assert.False(t, ok)
}

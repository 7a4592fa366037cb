package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestWeekSlots_FourteenOrderedSlots(t *testing.T) {
	slots := WeekSlots()

	require.Len(t, slots, SlotsPerWeek)
	assert.Equal(t, TimeSlot{Day: Monday, Slot: 1}, slots[0])
	assert.Equal(t, TimeSlot{Day: Friday, Slot: 3}, slots[len(slots)-1])

	for i := 1; i < len(slots); i++ {
		assert.True(t, slots[i-1].Before(slots[i]), "%s should sort before %s", slots[i-1], slots[i])
	}
	for i, ts := range slots {
		assert.Equal(t, i, ts.Index())
		assert.True(t, ts.Valid())
	}
}

func TestWeekSlots_ThursdayHasTwoSlots(t *testing.T) {
	assert.Len(t, DaySlots(Thursday), 2)
	assert.False(t, TimeSlot{Day: Thursday, Slot: 3}.Valid())
	assert.True(t, TimeSlot{Day: Friday, Slot: 3}.Valid())
	assert.False(t, TimeSlot{Day: Monday, Slot: 0}.Valid())
}

func TestTimeSlot_Span(t *testing.T) {
	slots, ok := TimeSlot{Day: Monday, Slot: 2}.Span(2)
	require.True(t, ok)
	assert.Equal(t, []TimeSlot{{Day: Monday, Slot: 2}, {Day: Monday, Slot: 3}}, slots)

	_, ok = TimeSlot{Day: Thursday, Slot: 2}.Span(2)
	assert.False(t, ok, "Thursday has no third slot")

	_, ok = TimeSlot{Day: Monday, Slot: 1}.Span(4)
	assert.False(t, ok, "no activity crosses into the next day")
}

func TestTimeSlot_Next(t *testing.T) {
	next, ok := TimeSlot{Day: Tuesday, Slot: 1}.Next()
	require.True(t, ok)
	assert.Equal(t, TimeSlot{Day: Tuesday, Slot: 2}, next)

	_, ok = TimeSlot{Day: Thursday, Slot: 2}.Next()
	assert.False(t, ok)
}

func TestParseDay(t *testing.T) {
	d, err := ParseDay("thu")
	require.NoError(t, err)
	assert.Equal(t, Thursday, d)

	d, err = ParseDay(" Friday ")
	require.NoError(t, err)
	assert.Equal(t, Friday, d)

	_, err = ParseDay("Saturday")
	assert.Error(t, err)
}

func TestDay_YAMLRoundTrip(t *testing.T) {
	var out struct {
		Day Day `yaml:"day"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("day: Wednesday\n"), &out))
	assert.Equal(t, Wednesday, out.Day)

	data, err := yaml.Marshal(out)
	require.NoError(t, err)
	assert.Equal(t, "day: Wednesday\n", string(data))
}

func TestTimeSlot_String(t *testing.T) {
	assert.Equal(t, "Mon-1", TimeSlot{Day: Monday, Slot: 1}.String())
	assert.Equal(t, "Thu-2", TimeSlot{Day: Thursday, Slot: 2}.String())
}

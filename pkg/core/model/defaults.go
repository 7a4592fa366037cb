package model

// Staffing roles used by the default catalog
const (
	StaffBeach         = "Beach Staff"
	StaffBoats         = "Boats Director"
	StaffNature        = "Nature Director"
	StaffHandicrafts   = "Handicrafts Director"
	StaffShooting      = "Shooting Sports Director"
	StaffClimbing      = "Climbing Tower Director"
	StaffOutdoorSkills = "Outdoor Skills Director"
	StaffCommissioner  = "Commissioner"
	StaffGeneral       = "Staff"
)

// Zones used by the default catalog
const (
	ZoneBeach         = "Beach"
	ZoneTower         = "Tower"
	ZoneOutdoorSkills = "Outdoor Skills"
	ZoneDelta         = "Delta"
	ZoneOffCamp       = "Off-camp"
	ZoneCampsite      = "Campsite"
)

// DefaultRules returns the designated lists used at camp
func DefaultRules() *Rules {
	return &Rules{
		DefaultFill: []string{
			"Aqua Trampoline", "Archery", "Water Polo", "Troop Rifle", "Gaga Ball", "9 Square",
			"Troop Swim", "Sailing", "Trading Post", "GPS & Geocaching", "Hemp Craft",
			"Dr. DNA", "Loon Lore", "Fishing", "Campsite Free Time",
		},
		Fallback: "Campsite Free Time",
		Accuracy: []string{"Archery", "Troop Rifle", "Troop Shotgun"},
		Beach: BeachRule{
			Activities: []string{
				"Water Polo", "Greased Watermelon", "Aqua Trampoline", "Troop Swim",
				"Underwater Obstacle Course", "Troop Canoe", "Troop Kayak", "Canoe Snorkel",
				"Nature Canoe", "Float for Floats",
			},
			AllowedSlots: []int{1, 3},
			OpenDays:     []Day{Thursday},
		},
		Wet: []string{
			"Aqua Trampoline", "Water Polo", "Greased Watermelon", "Troop Swim",
			"Underwater Obstacle Course", "Troop Canoe", "Troop Kayak", "Canoe Snorkel",
			"Nature Canoe", "Float for Floats", "Sailing", "Sauna",
		},
		TowerOutdoorSkills: []string{
			"Climbing Tower", "Knots and Lashings", "Orienteering", "GPS & Geocaching",
			"Ultimate Survivor", "What's Cooking", "Chopped!",
		},
		SameDayPairs: []Pair{
			{First: "Trading Post", Second: "Campsite Free Time"},
			{First: "Trading Post", Second: "Shower House"},
			{First: "Aqua Trampoline", Second: "Water Polo"},
			{First: "Aqua Trampoline", Second: "Greased Watermelon"},
			{First: "Water Polo", Second: "Greased Watermelon"},
			{First: "Troop Canoe", Second: "Canoe Snorkel"},
			{First: "Troop Canoe", Second: "Nature Canoe"},
			{First: "Troop Canoe", Second: "Float for Floats"},
			{First: "Canoe Snorkel", Second: "Nature Canoe"},
			{First: "Canoe Snorkel", Second: "Float for Floats"},
			{First: "Nature Canoe", Second: "Float for Floats"},
		},
		Closing: ClosingRule{Activity: "Reflection", Day: Friday},
		Commissioner: CommissionerRule{
			Early: "Delta",
			Late:  "Super Troop",
			Roles: map[string]CommissionerDays{
				"A": {Early: Monday, Late: Tuesday},
				"B": {Early: Tuesday, Late: Wednesday},
				"C": {Early: Wednesday, Late: Thursday},
			},
		},
		SlotCaps:     []SlotCap{{Staff: StaffBeach, Max: 4}},
		ClusterAreas: []string{"Tower", "Rifle Range", "Archery", "Outdoor Skills", "Handicrafts"},
	}
}

// DefaultActivities returns the camp activity list
func DefaultActivities() []*Activity {
	beach := func(name string, duration float64, conflicts ...string) *Activity {
		return &Activity{Name: name, Duration: duration, Zone: ZoneBeach, Area: name, Staff: StaffBeach, StaffLoad: 2, Conflicts: conflicts}
	}
	staffed := func(name, zone, area, staff string) *Activity {
		return &Activity{Name: name, Duration: 1, Zone: zone, Area: area, Staff: staff, StaffLoad: 1}
	}
	open := func(name, zone, area string) *Activity {
		return &Activity{Name: name, Duration: 1, Zone: zone, Area: area}
	}

	aqua := beach("Aqua Trampoline", 1)
	aqua.Sharing = &SharingRule{MaxTroops: 2, MaxTroopSize: 16}
	polo := beach("Water Polo", 1)
	polo.Sharing = &SharingRule{MaxTroops: 2}

	nature := staffed("Nature Canoe", ZoneBeach, "Nature Canoe", StaffNature)

	sailing := staffed("Sailing", ZoneBeach, "Sailing", StaffBoats)
	sailing.Duration = 1.5

	tower := staffed("Climbing Tower", ZoneTower, "Tower", StaffClimbing)
	tower.LargeTroopScouts = 15
	tower.LargeTroopDuration = 2

	rifle := staffed("Troop Rifle", ZoneBeach, "Rifle Range", StaffShooting)
	rifle.Conflicts = []string{"Troop Shotgun"}
	shotgun := staffed("Troop Shotgun", ZoneBeach, "Rifle Range", StaffShooting)
	shotgun.Conflicts = []string{"Troop Rifle"}

	gaga := open("Gaga Ball", ZoneBeach, "")
	gaga.Repeatable = true
	nine := open("9 Square", ZoneBeach, "")
	nine.Repeatable = true

	return []*Activity{
		nine,
		gaga,
		open("Fishing", ZoneBeach, ""),
		open("Sauna", ZoneBeach, "Sauna"),
		open("Shower House", ZoneBeach, "Shower House"),
		open("Trading Post", ZoneBeach, "Trading Post"),

		aqua,
		beach("Troop Canoe", 1),
		beach("Troop Kayak", 1),
		beach("Canoe Snorkel", 2),
		beach("Float for Floats", 2),
		beach("Greased Watermelon", 1),
		beach("Underwater Obstacle Course", 1, "Troop Swim"),
		beach("Troop Swim", 1, "Underwater Obstacle Course"),
		polo,
		nature,

		sailing,
		staffed("Dr. DNA", ZoneBeach, "Nature Center", StaffNature),
		staffed("Loon Lore", ZoneBeach, "Nature Center", StaffNature),
		staffed("Hemp Craft", ZoneBeach, "Handicrafts", StaffHandicrafts),
		staffed("Monkey's Fist", ZoneBeach, "Handicrafts", StaffHandicrafts),
		staffed("Tie Dye", ZoneBeach, "Handicrafts", StaffHandicrafts),
		staffed("Woggle Neckerchief Slide", ZoneBeach, "Handicrafts", StaffHandicrafts),
		staffed("Archery", ZoneBeach, "Archery", StaffCommissioner),
		rifle,
		shotgun,

		tower,

		staffed("Chopped!", ZoneOutdoorSkills, "Outdoor Skills", StaffOutdoorSkills),
		staffed("GPS & Geocaching", ZoneOutdoorSkills, "Outdoor Skills", StaffOutdoorSkills),
		staffed("Knots and Lashings", ZoneOutdoorSkills, "Outdoor Skills", StaffOutdoorSkills),
		staffed("Orienteering", ZoneOutdoorSkills, "Outdoor Skills", StaffOutdoorSkills),
		staffed("Ultimate Survivor", ZoneOutdoorSkills, "Outdoor Skills", StaffOutdoorSkills),
		staffed("What's Cooking", ZoneOutdoorSkills, "Outdoor Skills", StaffOutdoorSkills),

		staffed("Delta", ZoneDelta, "Delta", StaffCommissioner),
		staffed("Super Troop", ZoneBeach, "Super Troop", StaffCommissioner),

		{Name: "Back of the Moon", Duration: 3, Zone: ZoneOffCamp, Staff: StaffGeneral, StaffLoad: 1},
		open("Disc Golf", ZoneOffCamp, "Disc Golf"),
		{Name: "Itasca State Park", Duration: 3, Zone: ZoneOffCamp},
		{Name: "Tamarac Wildlife Refuge", Duration: 3, Zone: ZoneOffCamp},

		{Name: "Campsite Free Time", Duration: 1, Zone: ZoneCampsite, Concurrent: true, Repeatable: true},
		{Name: "Reflection", Duration: 1, Zone: ZoneCampsite, Staff: StaffCommissioner, StaffLoad: 1, Concurrent: true},

		open("History Center", ZoneOffCamp, "History Center"),

		staffed("Ecosystem in a Jar", ZoneBeach, "", StaffNature),
		staffed("Nature Salad", ZoneBeach, "", StaffNature),
		staffed("Nature Bingo", ZoneBeach, "", StaffNature),
	}
}

// DefaultCatalog returns the camp catalog with its rules
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultActivities(), DefaultRules())
	if err != nil {
		panic(err)
	}
	return c
}

package schema

import (
	"strconv"

	v1 "github.com/powergrid-labs/gridtrack/internal/api/v1"
)

// Kind classifies a field for operator and aggregate legality checks.
type Kind int

const (
	KindString Kind = iota
	KindNumeric
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindDate:
		return "date"
	default:
		return "string"
	}
}

// Comparison operator vocabulary. Closed set; anything else is rejected.
const (
	OpEq = "="
	OpNe = "!="
	OpLt = "<"
	OpGt = ">"
	OpLe = "<="
	OpGe = ">="
)

// Field is one entry of the record field table. Access goes through typed
// getter/setter funcs so the predicate builder, the aggregate planner and the
// inline-update path all share a single source of truth.
// Adding a field means adding one entry to Fields — no switch anywhere else.
type Field struct {
	Name string
	Kind Kind

	get    func(*v1.Activity) string
	set    func(*v1.Activity, string)
	getInt func(*v1.Activity) int
	setInt func(*v1.Activity, int)
}

// Fields is the registry of all queryable record fields.
var Fields = map[string]Field{
	"state": {
		Name: "state", Kind: KindString,
		get: func(a *v1.Activity) string { return a.State },
		set: func(a *v1.Activity, s string) { a.State = s },
	},
	"stationName": {
		Name: "stationName", Kind: KindString,
		get: func(a *v1.Activity) string { return a.StationName },
		set: func(a *v1.Activity, s string) { a.StationName = s },
	},
	"activityType": {
		Name: "activityType", Kind: KindString,
		get: func(a *v1.Activity) string { return a.ActivityType },
		set: func(a *v1.Activity, s string) { a.ActivityType = s },
	},
	"eventCategory": {
		Name: "eventCategory", Kind: KindString,
		get: func(a *v1.Activity) string { return a.EventCategory },
		set: func(a *v1.Activity, s string) { a.EventCategory = s },
	},
	"participantCategory": {
		Name: "participantCategory", Kind: KindString,
		get: func(a *v1.Activity) string { return a.ParticipantCategory },
		set: func(a *v1.Activity, s string) { a.ParticipantCategory = s },
	},
	"eventDescription": {
		Name: "eventDescription", Kind: KindString,
		get: func(a *v1.Activity) string { return a.EventDescription },
		set: func(a *v1.Activity, s string) { a.EventDescription = s },
	},
	"schoolOrCollegeOrPanchayatName": {
		Name: "schoolOrCollegeOrPanchayatName", Kind: KindString,
		get: func(a *v1.Activity) string { return a.SchoolOrCollegeOrPanchayatName },
		set: func(a *v1.Activity, s string) { a.SchoolOrCollegeOrPanchayatName = s },
	},
	"eventLocation": {
		Name: "eventLocation", Kind: KindString,
		get: func(a *v1.Activity) string { return a.EventLocation },
		set: func(a *v1.Activity, s string) { a.EventLocation = s },
	},
	"remarks": {
		Name: "remarks", Kind: KindString,
		get: func(a *v1.Activity) string { return a.Remarks },
		set: func(a *v1.Activity, s string) { a.Remarks = s },
	},
	"eventDate": {
		Name: "eventDate", Kind: KindDate,
		get: func(a *v1.Activity) string { return a.EventDate },
		set: func(a *v1.Activity, s string) { a.EventDate = s },
	},
	"numberOfParticipants": {
		Name: "numberOfParticipants", Kind: KindNumeric,
		getInt: func(a *v1.Activity) int { return a.NumberOfParticipants },
		setInt: func(a *v1.Activity, n int) { a.NumberOfParticipants = n },
	},
}

// Lookup returns the field table entry for name.
func Lookup(name string) (Field, bool) {
	f, ok := Fields[name]
	return f, ok
}

// Allows reports whether op may be applied to this field. Relational
// operators require an ordered kind; strings only support (in)equality.
func (f Field) Allows(op string) bool {
	switch op {
	case OpEq, OpNe:
		return true
	case OpLt, OpGt, OpLe, OpGe:
		return f.Kind != KindString
	default:
		return false
	}
}

// StringValue returns the field's value rendered as a string. Numeric fields
// are formatted in base 10; date fields return the raw YYYY-MM-DD string.
func (f Field) StringValue(a *v1.Activity) string {
	if f.Kind == KindNumeric {
		return strconv.Itoa(f.getInt(a))
	}
	return f.get(a)
}

// IntValue returns the numeric field's value. Only valid for KindNumeric.
func (f Field) IntValue(a *v1.Activity) int {
	return f.getInt(a)
}

// SetString assigns a string or date field.
func (f Field) SetString(a *v1.Activity, s string) {
	f.set(a, s)
}

// SetInt assigns a numeric field.
func (f Field) SetInt(a *v1.Activity, n int) {
	f.setInt(a, n)
}

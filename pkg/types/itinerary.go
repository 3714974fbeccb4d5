package types

// ItemType distinguishes free text from bulleted activities.
type ItemType string

const (
	ItemText     ItemType = "text"
	ItemActivity ItemType = "activity"
)

// ParsedItem is one line inside a time block.
type ParsedItem struct {
	Type    ItemType `json:"type" yaml:"type"`
	Content string   `json:"content" yaml:"content"`
}

// ParsedTimeBlock groups items under a label such as "Morning".
// Time is empty for blocks synthesized to hold unlabelled activities.
type ParsedTimeBlock struct {
	Time  string       `json:"time" yaml:"time,omitempty"`
	Items []ParsedItem `json:"items" yaml:"items"`
}

// ParsedDay is one day of a parsed itinerary.
type ParsedDay struct {
	DayNum int               `json:"day_num" yaml:"day_num"`
	Title  string            `json:"title" yaml:"title,omitempty"`
	Times  []ParsedTimeBlock `json:"times" yaml:"times"`
}

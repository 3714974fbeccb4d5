package itinerary

import (
	"strings"

	"github.com/yourorg/wandermate/pkg/types"
)

// Parse turns generated itinerary text into days of time blocks. It never
// fails: lines that arrive before any day header are dropped, and a day
// without time headers collects its bullets in an unlabelled block.
func Parse(text string) []types.ParsedDay {
	p := &parser{days: []types.ParsedDay{}}
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		p.feed(Classify(line))
	}
	p.closeDay()
	return p.days
}

type parser struct {
	days []types.ParsedDay
	day  *types.ParsedDay
	time *types.ParsedTimeBlock
}

func (p *parser) feed(l Line) {
	switch l.Kind {
	case DayHeader:
		p.closeDay()
		num := l.DayNum
		if num == 0 {
			num = len(p.days) + 1
		}
		p.day = &types.ParsedDay{DayNum: num, Title: l.Content, Times: []types.ParsedTimeBlock{}}

	case TimeHeader:
		p.closeTime()
		p.time = &types.ParsedTimeBlock{Time: l.Label, Items: []types.ParsedItem{}}
		if l.Content != "" {
			p.time.Items = append(p.time.Items, types.ParsedItem{Type: types.ItemText, Content: l.Content})
		}

	case Bullet:
		item := types.ParsedItem{Type: types.ItemActivity, Content: l.Content}
		if p.time != nil {
			p.time.Items = append(p.time.Items, item)
			return
		}
		if p.day != nil {
			if len(p.day.Times) == 0 {
				p.day.Times = append(p.day.Times, types.ParsedTimeBlock{Items: []types.ParsedItem{}})
			}
			p.appendToLast(item)
		}

	default:
		item := types.ParsedItem{Type: types.ItemText, Content: l.Content}
		if p.time != nil {
			p.time.Items = append(p.time.Items, item)
			return
		}
		if p.day != nil && len(p.day.Times) > 0 {
			p.appendToLast(item)
		}
	}
}

func (p *parser) appendToLast(item types.ParsedItem) {
	last := &p.day.Times[len(p.day.Times)-1]
	last.Items = append(last.Items, item)
}

// closeTime moves the open block into the open day. A block opened before
// any day header has nowhere to go and is discarded.
func (p *parser) closeTime() {
	if p.time != nil && p.day != nil {
		p.day.Times = append(p.day.Times, *p.time)
	}
	p.time = nil
}

func (p *parser) closeDay() {
	p.closeTime()
	if p.day != nil {
		p.days = append(p.days, *p.day)
	}
	p.day = nil
}

package scheduler

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sysu-ecnc-dev/shift-month/backend/internal/calendar"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/domain"
	"gopkg.in/yaml.v3"
)

// RequirementPreset 描述每天需要多少人，优先级：具体日期 > 星期 > 默认值
//
//	default: 2
//	weekdays:
//	  saturday: 3
//	dates:
//	  "2026-03-20": 4
type RequirementPreset struct {
	Default  int            `yaml:"default" json:"default"`
	Weekdays map[string]int `yaml:"weekdays" json:"weekdays"`
	Dates    map[string]int `yaml:"dates" json:"dates"`
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func LoadRequirementPreset(r io.Reader) (*RequirementPreset, error) {
	preset := &RequirementPreset{}
	if err := yaml.NewDecoder(r).Decode(preset); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: 无法解析需求配置: %v", domain.ErrInvalidArgument, err)
	}
	return preset, nil
}

// Expand 把配置展开成某个月每天的需求人数，定休日固定为 0
func (p *RequirementPreset) Expand(ym calendar.YearMonth, closure time.Weekday) (map[int]int, error) {
	byWeekday := make(map[time.Weekday]int)
	for name, n := range p.Weekdays {
		wd, ok := weekdayNames[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("%w: 未知的星期 %q", domain.ErrInvalidArgument, name)
		}
		byWeekday[wd] = n
	}

	requirements := make(map[int]int)
	for day := 1; day <= ym.LastDay(); day++ {
		wd := ym.Weekday(day)
		if wd == closure {
			continue
		}
		n := p.Default
		if v, ok := byWeekday[wd]; ok {
			n = v
		}
		requirements[day] = n
	}

	for s, n := range p.Dates {
		date, err := calendar.ParseDate(s)
		if err != nil {
			return nil, err
		}
		if !ym.Contains(date) {
			continue
		}
		if date.Weekday() == closure {
			return nil, fmt.Errorf("%w: %s 是定休日", domain.ErrInvalidArgument, s)
		}
		requirements[date.Day()] = n
	}

	return requirements, nil
}

package timezone

import (
	"fmt"
	"time"
	_ "time/tzdata" // 容器环境中可能没有系统tz数据库，内嵌一份
)

// 本包处理美国东部时间（America/New_York）与UTC存储时刻之间的换算。
// 东部时间为UTC-5（EST）或UTC-4（EDT），随夏令时切换。

const (
	// DateLayout 是日历日期的标准格式 YYYY-MM-DD
	DateLayout = "2006-01-02"
	// TimeLayout 是墙上时钟时间的标准格式 HH:MM（24小时制）
	TimeLayout = "15:04"
	// InstantLayout 是存储时刻的格式：UTC、毫秒精度、字典序可排序
	InstantLayout = "2006-01-02T15:04:05.000Z"
)

// location 是进程内唯一的东部时区规则表，在包加载时初始化。
var location *time.Location

func init() {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		panic("无法加载America/New_York时区规则: " + err.Error())
	}
	location = loc
}

// Normalize 将一个东部时间的日期和墙上时间合并为用于存储的UTC时刻字符串。
//
// 偏移量取给定日期当地正午时刻生效的UTC偏移，并统一应用到完整的日期+时间上。
// 在正午采样可以避开切换窗口本身；代价是在夏令时切换日，切换边界另一侧的
// 时间会偏差一小时。春季不存在的一小时和秋季重复的一小时同样按正午采样的
// 偏移解析，保证结果唯一且确定。
func Normalize(dateStr string, timeStr string) (string, error) {
	day, err := time.Parse(DateLayout, dateStr)
	if err != nil {
		return "", fmt.Errorf("无法解析日期 %q: %w", dateStr, err)
	}
	clock, err := time.Parse(TimeLayout, timeStr)
	if err != nil {
		return "", fmt.Errorf("无法解析时间 %q: %w", timeStr, err)
	}

	// 1. 取该日期当地正午的UTC偏移（秒）
	noon := time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, location)
	_, offset := noon.Zone()

	// 2. 把同一偏移应用于完整的日期+时间，得到唯一的UTC时刻
	wall := time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, time.UTC)
	instant := wall.Add(-time.Duration(offset) * time.Second)

	return instant.Format(InstantLayout), nil
}

// Localize 把一个存储时刻还原为东部时间观察者读到的日期和墙上时间。
// 这个方向没有近似：时刻本身无歧义，按该时刻生效的精确时区规则换算。
func Localize(instantStr string) (string, string, error) {
	instant, err := time.Parse(time.RFC3339, instantStr)
	if err != nil {
		return "", "", fmt.Errorf("无法解析时刻 %q: %w", instantStr, err)
	}
	local := instant.In(location)
	return local.Format(DateLayout), local.Format(TimeLayout), nil
}

// CurrentDate 返回当前东部时间的日期 YYYY-MM-DD。
func CurrentDate() string {
	return time.Now().In(location).Format(DateLayout)
}

// CurrentTime 返回当前东部时间的墙上时间 HH:MM。
func CurrentTime() string {
	return time.Now().In(location).Format(TimeLayout)
}

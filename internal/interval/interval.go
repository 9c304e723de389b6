package interval

import (
	"errors"
	"time"
)

var (
	ErrInvalidInterval = errors.New("invalid interval")
	ErrSlotDuration    = errors.New("slot duration must be positive")
)

// Interval представляет временной интервал [Start, End).
// Полуоткрытая семантика: стыкующиеся интервалы не пересекаются.
type Interval struct {
	Start time.Time
	End   time.Time
}

// New создаёт интервал и делает простую валидацию:
// нулевые границы и End <= Start запрещены.
func New(start, end time.Time) (Interval, error) {
	if start.IsZero() || end.IsZero() {
		return Interval{}, ErrInvalidInterval
	}
	if !end.After(start) {
		return Interval{}, ErrInvalidInterval
	}
	return Interval{Start: start, End: end}, nil
}

// Overlaps проверяет пересечение двух полуоткрытых интервалов:
// a.Start < b.End && b.Start < a.End.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// Intersect возвращает общую часть двух интервалов.
// Если пересечения нет — второй результат false.
func (i Interval) Intersect(other Interval) (Interval, bool) {
	if !i.Overlaps(other) {
		return Interval{}, false
	}
	start := i.Start
	if other.Start.After(start) {
		start = other.Start
	}
	end := i.End
	if other.End.Before(end) {
		end = other.End
	}
	return Interval{Start: start, End: end}, true
}

// DurationMinutes возвращает длительность интервала в минутах.
func (i Interval) DurationMinutes() int64 {
	return int64(i.End.Sub(i.Start) / time.Minute)
}

// Split разбивает интервал на слоты фиксированной длительности.
// alignMinutes > 0 — выравнивание начала по ближайшей отметке, кратной alignMinutes.
// "Хвост" меньшей длительности, чем slotDuration, отбрасывается.
func (i Interval) Split(slotDuration time.Duration, alignMinutes int) ([]Interval, error) {
	if slotDuration <= 0 {
		return nil, ErrSlotDuration
	}

	start := i.Start

	// Выравнивание по шагу в минутах, если задан.
	if alignMinutes > 0 {
		min := start.Minute()
		rem := min % alignMinutes
		if rem != 0 {
			delta := alignMinutes - rem
			start = time.Date(
				start.Year(),
				start.Month(),
				start.Day(),
				start.Hour(),
				min+delta,
				0, 0,
				start.Location(),
			)
			if !start.Before(i.End) {
				return []Interval{}, nil
			}
		}
	}

	var slots []Interval
	for cur := start; !cur.Add(slotDuration).After(i.End); cur = cur.Add(slotDuration) {
		slots = append(slots, Interval{Start: cur, End: cur.Add(slotDuration)})
	}

	return slots, nil
}

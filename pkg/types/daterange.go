package types

import (
	"fmt"
	"time"
)

// DateLayout - формат календарной даты в API и в БД.
const DateLayout = "2006-01-02"

// DateRange - интервал календарных дат. Обе границы входят в интервал:
// бронь на [10.01, 12.01] занимает 10, 11 и 12 января.
// Часовой пояс не моделируется, время суток отбрасывается.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange обрезает время суток и проверяет, что start <= end.
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: TruncateDate(start), End: TruncateDate(end)}
	if r.End.Before(r.Start) {
		return DateRange{}, fmt.Errorf("дата начала %s позже даты окончания %s", r.Start.Format(DateLayout), r.End.Format(DateLayout))
	}
	return r, nil
}

// ParseDateRange разбирает пару строк формата YYYY-MM-DD.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return DateRange{}, fmt.Errorf("неверная дата начала %q: %w", start, err)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return DateRange{}, fmt.Errorf("неверная дата окончания %q: %w", end, err)
	}
	return NewDateRange(s, e)
}

// Overlaps: интервалы пересекаются, если у них есть хотя бы одна общая дата.
func (r DateRange) Overlaps(other DateRange) bool {
	return !other.Start.After(r.End) && !other.End.Before(r.Start)
}

func (r DateRange) String() string {
	return fmt.Sprintf("[%s, %s]", r.Start.Format(DateLayout), r.End.Format(DateLayout))
}

// TruncateDate оставляет только календарную дату в UTC.
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

package domain

import "time"

// DailyMean is the arithmetic mean of the non-null temperatures recorded on
// one calendar date.
type DailyMean struct {
	Date            time.Time
	MeanTemperature float64
}

// DailyMeans groups observations by calendar date and averages the non-nil
// temperatures in each group. Dates whose every temperature is nil are
// omitted entirely rather than emitted as NaN. Input is expected in the
// timestamp order produced by Store.Read; output dates preserve that order.
func DailyMeans(observations []Observation) []DailyMean {
	type acc struct {
		sum   float64
		count int
	}

	var order []string
	groups := make(map[string]*acc)

	for _, obs := range observations {
		if obs.Temperature == nil {
			continue
		}
		day := obs.Timestamp.Format(DateLayout)
		g, ok := groups[day]
		if !ok {
			g = &acc{}
			groups[day] = g
			order = append(order, day)
		}
		g.sum += *obs.Temperature
		g.count++
	}

	means := make([]DailyMean, 0, len(order))
	for _, day := range order {
		g := groups[day]
		date, err := time.Parse(DateLayout, day)
		if err != nil {
			continue
		}
		means = append(means, DailyMean{
			Date:            date,
			MeanTemperature: g.sum / float64(g.count),
		})
	}
	return means
}

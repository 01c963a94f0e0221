package services

import (
	"context"
	"sort"
	"time"

	"salonbook-backend/models"
	"salonbook-backend/utils"
)

// MaxCalendarDays bounds the span of one calendar request.
const MaxCalendarDays = 92

// TopServicesLimit is how many services the analytics summary ranks.
const TopServicesLimit = 6

const dayLayout = "2006-01-02"

// ClientVisit is a visit together with the client it belongs to.
type ClientVisit struct {
	ClientID   string       `json:"clientId"`
	ClientName string       `json:"clientName"`
	DisplayID  string       `json:"displayId"`
	Visit      models.Visit `json:"visit"`
}

type DaySchedule struct {
	Date        string        `json:"date"`
	Visits      []ClientVisit `json:"visits"`
	TotalPaid   float64       `json:"totalPaid"`
	TotalUnpaid float64       `json:"totalUnpaid"`
}

type PaymentsOverview struct {
	Paid        []ClientVisit `json:"paid"`
	Unpaid      []ClientVisit `json:"unpaid"`
	TotalPaid   float64       `json:"totalPaid"`
	TotalUnpaid float64       `json:"totalUnpaid"`
}

// UpcomingAppointmentLabel is the only service listed on a calendar entry.
const UpcomingAppointmentLabel = "Upcoming Appointment"

// CalendarEntry is an appointment booked through a visit's nextVisit. Its
// visit is a placeholder: the source visit's services, amount, payment and
// notes are never exposed.
type CalendarEntry struct {
	ClientVisit
	Time time.Time `json:"time"`
}

type CalendarDay struct {
	Date    string          `json:"date"`
	Entries []CalendarEntry `json:"entries"`
}

type PeriodRevenue struct {
	Period  string  `json:"period"`
	Revenue float64 `json:"revenue"`
}

type ServiceCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type AnalyticsSummary struct {
	TotalRevenue        float64         `json:"totalRevenue"`
	AvgRevenuePerClient float64         `json:"avgRevenuePerClient"`
	TotalVisits         int             `json:"totalVisits"`
	MonthlyRevenue      []PeriodRevenue `json:"monthlyRevenue"`
	WeeklyRevenue       []PeriodRevenue `json:"weeklyRevenue"`
	TopServices         []ServiceCount  `json:"topServices"`
}

// InsightService builds the read models behind the dashboard, payments,
// calendar and analytics screens from the client listing.
type InsightService struct {
	clients *ClientService
	loc     *time.Location
}

func NewInsightService(p Params, clients *ClientService) *InsightService {
	return &InsightService{clients: clients, loc: p.location()}
}

func (s *InsightService) Location() *time.Location { return s.loc }

func (s *InsightService) allVisits(ctx context.Context) ([]models.Client, []ClientVisit, error) {
	clients, err := s.clients.ListClients(ctx)
	if err != nil {
		return nil, nil, err
	}
	var out []ClientVisit
	for _, c := range clients {
		for _, v := range c.Visits {
			out = append(out, ClientVisit{ClientID: c.ID, ClientName: c.Name, DisplayID: c.DisplayID, Visit: v})
		}
	}
	return clients, out, nil
}

// DaySchedule lists the visits that took place on day, earliest first, with
// paid and unpaid totals.
func (s *InsightService) DaySchedule(ctx context.Context, day time.Time) (DaySchedule, error) {
	_, visits, err := s.allVisits(ctx)
	if err != nil {
		return DaySchedule{}, err
	}
	day = day.In(s.loc)

	schedule := DaySchedule{Date: day.Format(dayLayout), Visits: []ClientVisit{}}
	for _, cv := range visits {
		if !utils.SameDay(cv.Visit.Date.In(s.loc), day) {
			continue
		}
		schedule.Visits = append(schedule.Visits, cv)
		if cv.Visit.Paid {
			schedule.TotalPaid += cv.Visit.Amount
		} else {
			schedule.TotalUnpaid += cv.Visit.Amount
		}
	}
	sort.SliceStable(schedule.Visits, func(i, j int) bool {
		return schedule.Visits[i].Visit.Date.Before(schedule.Visits[j].Visit.Date)
	})
	return schedule, nil
}

// Payments splits visits into paid and unpaid. A nil from includes all
// visits; a nil to means the single day from.
func (s *InsightService) Payments(ctx context.Context, from, to *time.Time) (PaymentsOverview, error) {
	_, visits, err := s.allVisits(ctx)
	if err != nil {
		return PaymentsOverview{}, err
	}

	var start, end time.Time
	if from != nil {
		start = utils.BeginningOfDay(from.In(s.loc))
		end = utils.EndOfDay(start)
		if to != nil {
			end = utils.EndOfDay(to.In(s.loc))
		}
		if end.Before(start) {
			return PaymentsOverview{}, invalid("range end precedes start")
		}
	}

	overview := PaymentsOverview{Paid: []ClientVisit{}, Unpaid: []ClientVisit{}}
	for _, cv := range visits {
		if from != nil && (cv.Visit.Date.Before(start) || cv.Visit.Date.After(end)) {
			continue
		}
		if cv.Visit.Paid {
			overview.Paid = append(overview.Paid, cv)
			overview.TotalPaid += cv.Visit.Amount
		} else {
			overview.Unpaid = append(overview.Unpaid, cv)
			overview.TotalUnpaid += cv.Visit.Amount
		}
	}
	newestFirst := func(list []ClientVisit) {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Visit.Date.After(list[j].Visit.Date) })
	}
	newestFirst(overview.Paid)
	newestFirst(overview.Unpaid)
	return overview, nil
}

// Calendar buckets upcoming appointments by day for the inclusive range
// [from, to]. Days without appointments are omitted.
func (s *InsightService) Calendar(ctx context.Context, from, to time.Time) ([]CalendarDay, error) {
	start := utils.BeginningOfDay(from.In(s.loc))
	end := utils.EndOfDay(to.In(s.loc))
	if end.Before(start) {
		return nil, invalid("range end precedes start")
	}
	if utils.DaysBetween(start, end) >= MaxCalendarDays {
		return nil, invalid("calendar range cannot exceed %d days", MaxCalendarDays)
	}

	_, visits, err := s.allVisits(ctx)
	if err != nil {
		return nil, err
	}

	byDay := map[string][]CalendarEntry{}
	for _, cv := range visits {
		if cv.Visit.NextVisit == nil {
			continue
		}
		at := cv.Visit.NextVisit.In(s.loc)
		if at.Before(start) || at.After(end) {
			continue
		}
		key := at.Format(dayLayout)
		byDay[key] = append(byDay[key], appointmentEntry(cv))
	}

	days := make([]CalendarDay, 0, len(byDay))
	for key, entries := range byDay {
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Time.Before(entries[j].Time) })
		days = append(days, CalendarDay{Date: key, Entries: entries})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days, nil
}

// Analytics summarizes revenue from paid visits and service popularity
// across all visits.
func (s *InsightService) Analytics(ctx context.Context) (AnalyticsSummary, error) {
	clients, visits, err := s.allVisits(ctx)
	if err != nil {
		return AnalyticsSummary{}, err
	}

	summary := AnalyticsSummary{
		TotalVisits:    len(visits),
		MonthlyRevenue: []PeriodRevenue{},
		WeeklyRevenue:  []PeriodRevenue{},
		TopServices:    []ServiceCount{},
	}

	monthly := map[time.Time]float64{}
	weekly := map[time.Time]float64{}
	serviceCounts := map[string]int{}

	for _, cv := range visits {
		v := cv.Visit
		for _, svc := range v.Services {
			serviceCounts[svc]++
		}
		if !v.Paid {
			continue
		}
		summary.TotalRevenue += v.Amount
		local := v.Date.In(s.loc)
		month := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, s.loc)
		monthly[month] += v.Amount
		weekly[utils.BeginningOfWeek(local)] += v.Amount
	}
	if len(clients) > 0 {
		summary.AvgRevenuePerClient = summary.TotalRevenue / float64(len(clients))
	}

	summary.MonthlyRevenue = periodSeries(monthly, "Jan 2006")
	summary.WeeklyRevenue = periodSeries(weekly, "Jan 02, 2006")

	for name, count := range serviceCounts {
		summary.TopServices = append(summary.TopServices, ServiceCount{Name: name, Count: count})
	}
	sort.Slice(summary.TopServices, func(i, j int) bool {
		a, b := summary.TopServices[i], summary.TopServices[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Name < b.Name
	})
	if len(summary.TopServices) > TopServicesLimit {
		summary.TopServices = summary.TopServices[:TopServicesLimit]
	}
	return summary, nil
}

func appointmentEntry(cv ClientVisit) CalendarEntry {
	at := *cv.Visit.NextVisit
	cv.Visit = models.Visit{
		ID:       cv.Visit.ID,
		Date:     at,
		Services: []string{UpcomingAppointmentLabel},
	}
	return CalendarEntry{ClientVisit: cv, Time: at}
}

func periodSeries(totals map[time.Time]float64, layout string) []PeriodRevenue {
	keys := make([]time.Time, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	out := make([]PeriodRevenue, 0, len(keys))
	for _, k := range keys {
		out = append(out, PeriodRevenue{Period: k.Format(layout), Revenue: totals[k]})
	}
	return out
}

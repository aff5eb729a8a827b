package wizard

import (
	"context"
	"errors"
	"time"

	"github.com/terra-clan/event-wizard/internal/models"
)

func ptr[T any](v T) *T { return &v }

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func basicDetails() *models.BasicDetails {
	return &models.BasicDetails{
		Title:          "Concert Night",
		Category:       "music",
		Description:    "A 20+ char description",
		OrganizerEmail: "a@b.com",
		OrganizerPhone: "1234567890",
		OrganizerName:  "Jane",
	}
}

func venues() models.VenueList {
	return models.VenueList{
		{ID: "v1", Name: "Main Hall", Address: "1 Park Ave", City: "Lagos", Country: "NG", Capacity: ptr(500)},
		{ID: "v2", Name: "TBA", IsTBA: true, City: "Abuja"},
	}
}

func dates() models.DateList {
	return models.DateList{
		{ID: "d1", Kind: models.DateSingle, Start: day("2026-11-01"), VenueID: "v1"},
		{ID: "d2", Kind: models.DateRange, Start: day("2026-11-05"), End: ptr(day("2026-11-07")), VenueID: "v2"},
	}
}

func timeSlots() models.TimeSlotList {
	return models.TimeSlotList{
		{ID: "s1", DateID: "d1", VenueID: "v1", StartTime: "19:00", EndTime: "22:00", GateOpenMinutes: ptr(30)},
	}
}

func tickets() models.TicketList {
	return models.TicketList{
		{ID: "t1", Name: "General", Pricing: models.TicketPaid, Price: 25, Currency: "USD", Quantity: 400, IsAllDates: true, IsAllVenues: true, IsAllTimeSlots: true},
		{ID: "t2", Name: "Guest", Pricing: models.TicketFree, Quantity: 20, DateIDs: []string{"d1"}, VenueIDs: []string{"v1"}, TimeSlotIDs: []string{"s1"}},
	}
}

func assignments() models.AssignmentList {
	return models.AssignmentList{
		{ID: "a1", TicketID: "t1", DateID: "d1", VenueID: "v1", TimeSlotID: "s1", Quantity: 300},
	}
}

func media() *models.Media {
	return &models.Media{
		CardImage: &models.MediaRef{ID: "m1", URL: "https://cdn.example.com/card.png"},
		Gallery: []models.MediaRef{
			{ID: "g1", URL: "https://cdn.example.com/g1.png"},
			{ID: "g2", URL: "https://cdn.example.com/g2.png"},
		},
	}
}

func additionalInfo() *models.AdditionalInfo {
	return &models.AdditionalInfo{
		Terms:           "**No refunds** after the event starts.",
		ProhibitedItems: []string{"weapons"},
		Sponsors: []models.Sponsor{
			{ID: "sp1", Name: "Acme"},
			{ID: "sp2", Name: "Globex"},
		},
		FAQs: []models.FAQ{{ID: "f1", Question: "Parking?", Answer: "Yes"}},
	}
}

// allStepData returns valid data for every non-terminal step, in order
func allStepData() []models.StepData {
	return []models.StepData{
		basicDetails(),
		venues(),
		dates(),
		timeSlots(),
		tickets(),
		assignments(),
		media(),
		additionalInfo(),
	}
}

type fakeCreator struct {
	calls   int
	eventID string
	review  *Review
	err     error
}

func (f *fakeCreator) CreateEvent(_ context.Context, eventID string, review *Review) error {
	f.calls++
	f.eventID = eventID
	f.review = review
	return f.err
}

var errBackendDown = errors.New("backend unavailable")

type fakeCatalog struct{}

func (fakeCatalog) HasCategory(id string) bool       { return id == "music" || id == "sports" }
func (fakeCatalog) HasProhibitedItem(id string) bool { return id == "weapons" || id == "drones" }

package models

import (
	"time"
)

// StepData is the validated field-group submitted for one step.
// The set of implementations is closed to this package.
type StepData interface {
	Step() Step
	isStepData()
}

// TBAVenueName is the display name of a venue whose location is not decided yet
const TBAVenueName = "TBA"

// BasicDetails holds the basicDetails step
type BasicDetails struct {
	Title          string   `json:"title" validate:"required,max=200"`
	Category       string   `json:"category" validate:"required"`
	Description    string   `json:"description" validate:"required,min=20"`
	OrganizerName  string   `json:"organizerName" validate:"required"`
	OrganizerEmail string   `json:"organizerEmail" validate:"required,email"`
	OrganizerPhone string   `json:"organizerPhone" validate:"required,phone"`
	Tags           []string `json:"tags,omitempty" validate:"dive,required"`
}

// Venue is a physical (or TBA) location of the event
type Venue struct {
	ID         string   `json:"id" validate:"required"`
	Name       string   `json:"name"`
	IsTBA      bool     `json:"isTba"`
	Address    string   `json:"address,omitempty"`
	City       string   `json:"city" validate:"required"`
	State      string   `json:"state,omitempty"`
	PostalCode string   `json:"postalCode,omitempty"`
	Country    string   `json:"country,omitempty"`
	Latitude   *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude  *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
	Capacity   *int     `json:"capacity,omitempty" validate:"omitempty,gt=0"`
}

// DisplayName returns the venue name, or TBA for undecided venues
func (v Venue) DisplayName() string {
	if v.IsTBA || v.Name == "" {
		return TBAVenueName
	}
	return v.Name
}

// DateKind is the shape of a date entry
type DateKind string

const (
	DateSingle    DateKind = "single"
	DateRange     DateKind = "range"
	DateRecurring DateKind = "recurring"
)

// RecurrenceRule describes how a recurring date repeats
type RecurrenceRule struct {
	Frequency string         `json:"frequency" validate:"required,oneof=daily weekly monthly"`
	Interval  int            `json:"interval" validate:"gte=1"`
	Weekdays  []time.Weekday `json:"weekdays,omitempty" validate:"dive,gte=0,lte=6"`
}

// DateSpec is one date (or date range) on which the event runs
type DateSpec struct {
	ID         string          `json:"id" validate:"required"`
	Kind       DateKind        `json:"kind" validate:"required,oneof=single range recurring"`
	Start      time.Time       `json:"start" validate:"required"`
	End        *time.Time      `json:"end,omitempty"`
	Recurrence *RecurrenceRule `json:"recurrence,omitempty"`
	VenueID    string          `json:"venueId,omitempty"`
}

// TimeSlot is a start/end time window, optionally bound to a date and venue
type TimeSlot struct {
	ID              string `json:"id" validate:"required"`
	DateID          string `json:"dateId,omitempty"`
	VenueID         string `json:"venueId,omitempty"`
	StartTime       string `json:"startTime" validate:"required,hhmm"`
	EndTime         string `json:"endTime" validate:"required,hhmm"`
	GateOpenMinutes *int   `json:"gateOpenMinutes,omitempty" validate:"omitempty,gte=0"`
}

// TicketPricing distinguishes paid from free tickets
type TicketPricing string

const (
	TicketPaid TicketPricing = "paid"
	TicketFree TicketPricing = "free"
)

// TicketType is a kind of ticket sold for the event
type TicketType struct {
	ID             string        `json:"id" validate:"required"`
	Name           string        `json:"name" validate:"required"`
	Pricing        TicketPricing `json:"pricing" validate:"required,oneof=paid free"`
	Price          float64       `json:"price" validate:"gte=0"`
	Currency       string        `json:"currency,omitempty" validate:"omitempty,len=3"`
	Quantity       int           `json:"quantity" validate:"gt=0"`
	Category       string        `json:"category,omitempty"`
	IsAllDates     bool          `json:"isAllDates"`
	DateIDs        []string      `json:"dateIds,omitempty"`
	IsAllVenues    bool          `json:"isAllVenues"`
	VenueIDs       []string      `json:"venueIds,omitempty"`
	IsAllTimeSlots bool          `json:"isAllTimeSlots"`
	TimeSlotIDs    []string      `json:"timeSlotIds,omitempty"`
}

// TicketSnapshot freezes the ticket fields at the moment of assignment.
// Later edits to the ticket type do not change existing assignments.
type TicketSnapshot struct {
	Name     string        `json:"name"`
	Pricing  TicketPricing `json:"pricing"`
	Price    float64       `json:"price"`
	Currency string        `json:"currency,omitempty"`
	Category string        `json:"category,omitempty"`
}

// SnapshotOf captures the current fields of a ticket type
func SnapshotOf(t TicketType) TicketSnapshot {
	return TicketSnapshot{
		Name:     t.Name,
		Pricing:  t.Pricing,
		Price:    t.Price,
		Currency: t.Currency,
		Category: t.Category,
	}
}

// TicketAssignment binds a ticket type to a date, venue and time slot
type TicketAssignment struct {
	ID         string          `json:"id" validate:"required"`
	TicketID   string          `json:"ticketId" validate:"required"`
	DateID     string          `json:"dateId" validate:"required"`
	VenueID    string          `json:"venueId" validate:"required"`
	TimeSlotID string          `json:"timeSlotId" validate:"required"`
	Quantity   int             `json:"quantity" validate:"gt=0"`
	Snapshot   *TicketSnapshot `json:"snapshot,omitempty"`
}

// MediaRef points at an uploaded file handle or a URL
type MediaRef struct {
	ID  string `json:"id" validate:"required"`
	URL string `json:"url" validate:"required"`
	Alt string `json:"alt,omitempty"`
}

// Media holds the media step
type Media struct {
	CardImage     *MediaRef  `json:"cardImage" validate:"required"`
	BannerImage   *MediaRef  `json:"bannerImage,omitempty"`
	VerticalImage *MediaRef  `json:"verticalImage,omitempty"`
	Gallery       []MediaRef `json:"gallery,omitempty" validate:"dive"`
	Video         *MediaRef  `json:"video,omitempty"`
	VideoLink     string     `json:"videoLink,omitempty" validate:"omitempty,url"`
}

// Sponsor is ranked by Priority, 1 being the most prominent
type Sponsor struct {
	ID       string `json:"id" validate:"required"`
	Name     string `json:"name" validate:"required"`
	LogoURL  string `json:"logoUrl,omitempty"`
	Website  string `json:"website,omitempty" validate:"omitempty,url"`
	Priority int    `json:"priority"`
}

// FAQ is a question/answer pair shown on the event page
type FAQ struct {
	ID       string `json:"id" validate:"required"`
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required"`
}

// AdditionalInfo holds the additionalInfo step. Terms is Markdown.
type AdditionalInfo struct {
	Terms           string    `json:"terms,omitempty"`
	ProhibitedItems []string  `json:"prohibitedItems,omitempty"`
	Sponsors        []Sponsor `json:"sponsors,omitempty" validate:"dive"`
	FAQs            []FAQ     `json:"faqs,omitempty" validate:"dive"`
}

// VenueList is the venues step
type VenueList []Venue

// DateList is the dates step
type DateList []DateSpec

// TimeSlotList is the times step
type TimeSlotList []TimeSlot

// TicketList is the tickets step
type TicketList []TicketType

// AssignmentList is the assigntickets step
type AssignmentList []TicketAssignment

func (*BasicDetails) Step() Step   { return StepBasicDetails }
func (VenueList) Step() Step       { return StepVenues }
func (DateList) Step() Step        { return StepDates }
func (TimeSlotList) Step() Step    { return StepTimes }
func (TicketList) Step() Step      { return StepTickets }
func (AssignmentList) Step() Step  { return StepAssignTickets }
func (*Media) Step() Step          { return StepMedia }
func (*AdditionalInfo) Step() Step { return StepAdditionalInfo }

func (*BasicDetails) isStepData()   {}
func (VenueList) isStepData()       {}
func (DateList) isStepData()        {}
func (TimeSlotList) isStepData()    {}
func (TicketList) isStepData()      {}
func (AssignmentList) isStepData()  {}
func (*Media) isStepData()          {}
func (*AdditionalInfo) isStepData() {}

// Draft is the in-memory event record accumulated across steps
type Draft struct {
	BasicDetails   *BasicDetails   `json:"basicDetails,omitempty"`
	Venues         VenueList       `json:"venues"`
	Dates          DateList        `json:"dates"`
	TimeSlots      TimeSlotList    `json:"timeSlots"`
	Tickets        TicketList      `json:"tickets"`
	Assignments    AssignmentList  `json:"assignments"`
	Media          *Media          `json:"media,omitempty"`
	AdditionalInfo *AdditionalInfo `json:"additionalInfo,omitempty"`
}

// NewDraft returns a draft with every field-group empty
func NewDraft() *Draft {
	return &Draft{
		Venues:      VenueList{},
		Dates:       DateList{},
		TimeSlots:   TimeSlotList{},
		Tickets:     TicketList{},
		Assignments: AssignmentList{},
	}
}

// Clone returns a deep copy of the draft
func (d *Draft) Clone() *Draft {
	if d == nil {
		return nil
	}
	c := &Draft{
		BasicDetails:   d.BasicDetails.Clone(),
		Venues:         d.Venues.Clone(),
		Dates:          d.Dates.Clone(),
		TimeSlots:      d.TimeSlots.Clone(),
		Tickets:        d.Tickets.Clone(),
		Assignments:    d.Assignments.Clone(),
		Media:          d.Media.Clone(),
		AdditionalInfo: d.AdditionalInfo.Clone(),
	}
	return c
}

// Clone returns a deep copy
func (b *BasicDetails) Clone() *BasicDetails {
	if b == nil {
		return nil
	}
	c := *b
	c.Tags = cloneSlice(b.Tags)
	return &c
}

// Clone returns a deep copy
func (l VenueList) Clone() VenueList {
	out := make(VenueList, len(l))
	for i, v := range l {
		v.Latitude = clonePtr(v.Latitude)
		v.Longitude = clonePtr(v.Longitude)
		v.Capacity = clonePtr(v.Capacity)
		out[i] = v
	}
	return out
}

// Clone returns a deep copy
func (l DateList) Clone() DateList {
	out := make(DateList, len(l))
	for i, d := range l {
		d.End = clonePtr(d.End)
		if d.Recurrence != nil {
			r := *d.Recurrence
			r.Weekdays = cloneSlice(r.Weekdays)
			d.Recurrence = &r
		}
		out[i] = d
	}
	return out
}

// Clone returns a deep copy
func (l TimeSlotList) Clone() TimeSlotList {
	out := make(TimeSlotList, len(l))
	for i, s := range l {
		s.GateOpenMinutes = clonePtr(s.GateOpenMinutes)
		out[i] = s
	}
	return out
}

// Clone returns a deep copy
func (l TicketList) Clone() TicketList {
	out := make(TicketList, len(l))
	for i, t := range l {
		t.DateIDs = cloneSlice(t.DateIDs)
		t.VenueIDs = cloneSlice(t.VenueIDs)
		t.TimeSlotIDs = cloneSlice(t.TimeSlotIDs)
		out[i] = t
	}
	return out
}

// Clone returns a deep copy
func (l AssignmentList) Clone() AssignmentList {
	out := make(AssignmentList, len(l))
	for i, a := range l {
		a.Snapshot = clonePtr(a.Snapshot)
		out[i] = a
	}
	return out
}

// Clone returns a deep copy
func (m *Media) Clone() *Media {
	if m == nil {
		return nil
	}
	c := *m
	c.CardImage = clonePtr(m.CardImage)
	c.BannerImage = clonePtr(m.BannerImage)
	c.VerticalImage = clonePtr(m.VerticalImage)
	c.Video = clonePtr(m.Video)
	c.Gallery = cloneSlice(m.Gallery)
	return &c
}

// Clone returns a deep copy
func (a *AdditionalInfo) Clone() *AdditionalInfo {
	if a == nil {
		return nil
	}
	c := *a
	c.ProhibitedItems = cloneSlice(a.ProhibitedItems)
	c.Sponsors = cloneSlice(a.Sponsors)
	c.FAQs = cloneSlice(a.FAQs)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}

package wizard

import (
	"bytes"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/terra-clan/event-wizard/internal/models"
)

// Placeholders rendered by the review for missing data
const (
	NonePlaceholder = "None"
	UnknownDate     = "Unknown date"
	UnknownVenue    = "Unknown venue"
	UnknownTimeSlot = "Unknown time slot"
	UnknownTicket   = "Unknown ticket"
)

// Review sections
const (
	SectionBasicDetails   = "basicDetails"
	SectionVenues         = "venues"
	SectionDates          = "dates"
	SectionTimeSlots      = "timeSlots"
	SectionTickets        = "tickets"
	SectionAssignments    = "assignments"
	SectionMedia          = "media"
	SectionAdditionalInfo = "additionalInfo"
)

// Review is the composite record assembled at the terminal step
type Review struct {
	BasicDetails   *models.BasicDetails `json:"basicDetails,omitempty"`
	Venues         []VenueRow           `json:"venues"`
	Dates          []DateRow            `json:"dates"`
	TimeSlots      []TimeSlotRow        `json:"timeSlots"`
	Tickets        []TicketRow          `json:"tickets"`
	Assignments    []AssignmentRow      `json:"assignments"`
	Media          *models.Media        `json:"media,omitempty"`
	AdditionalInfo *AdditionalInfoView  `json:"additionalInfo,omitempty"`
	TotalAssigned  int                  `json:"totalAssigned"`
	// Placeholders maps each empty section to the text shown in its place
	Placeholders map[string]string `json:"placeholders,omitempty"`
}

// VenueRow is a venue as displayed in the review
type VenueRow struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Capacity *int   `json:"capacity,omitempty"`
}

// DateRow is a date with its venue resolved
type DateRow struct {
	ID        string          `json:"id"`
	Kind      models.DateKind `json:"kind"`
	Label     string          `json:"label"`
	VenueName string          `json:"venueName,omitempty"`
}

// TimeSlotRow is a time slot with its date and venue resolved
type TimeSlotRow struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	DateLabel string `json:"dateLabel,omitempty"`
	VenueName string `json:"venueName,omitempty"`
	GatesOpen string `json:"gatesOpen,omitempty"`
}

// TicketRow is a ticket type with its applicability spelled out
type TicketRow struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	Pricing   models.TicketPricing `json:"pricing"`
	Price     float64              `json:"price"`
	Currency  string               `json:"currency,omitempty"`
	Quantity  int                  `json:"quantity"`
	Category  string               `json:"category,omitempty"`
	Dates     []string             `json:"dates"`
	Venues    []string             `json:"venues"`
	TimeSlots []string             `json:"timeSlots"`
}

// AssignmentRow joins an assignment to human-readable labels. Ticket fields
// come from the snapshot taken at assignment time.
type AssignmentRow struct {
	ID            string               `json:"id"`
	TicketName    string               `json:"ticketName"`
	Pricing       models.TicketPricing `json:"pricing,omitempty"`
	Price         float64              `json:"price"`
	Currency      string               `json:"currency,omitempty"`
	DateLabel     string               `json:"dateLabel"`
	VenueName     string               `json:"venueName"`
	TimeSlotLabel string               `json:"timeSlotLabel"`
	Quantity      int                  `json:"quantity"`
}

// AdditionalInfoView renders terms to HTML and orders sponsors by priority
type AdditionalInfoView struct {
	Terms           string           `json:"terms,omitempty"`
	TermsHTML       string           `json:"termsHtml,omitempty"`
	ProhibitedItems []string         `json:"prohibitedItems"`
	Sponsors        []models.Sponsor `json:"sponsors"`
	FAQs            []models.FAQ     `json:"faqs"`
}

const allLabel = "All"

var (
	markdownOnce sync.Once
	markdown     goldmark.Markdown
)

func markdownRenderer() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return markdown
}

// Aggregate assembles the review from a draft. It never fails and never
// modifies the draft: unresolved ids render as Unknown placeholders and
// empty sections as None.
func Aggregate(draft *models.Draft) *Review {
	d := draft.Clone()
	ix := newIndex(d)
	r := &Review{
		BasicDetails: d.BasicDetails,
		Venues:       []VenueRow{},
		Dates:        []DateRow{},
		TimeSlots:    []TimeSlotRow{},
		Tickets:      []TicketRow{},
		Assignments:  []AssignmentRow{},
		Media:        d.Media,
		Placeholders: make(map[string]string),
	}

	for _, v := range d.Venues {
		r.Venues = append(r.Venues, VenueRow{
			ID:       v.ID,
			Name:     v.DisplayName(),
			Address:  venueAddress(v),
			Capacity: v.Capacity,
		})
	}

	for _, dt := range d.Dates {
		row := DateRow{ID: dt.ID, Kind: dt.Kind, Label: dateLabel(dt)}
		if dt.VenueID != "" {
			row.VenueName = ix.venueName(dt.VenueID)
		}
		r.Dates = append(r.Dates, row)
	}

	for _, s := range d.TimeSlots {
		row := TimeSlotRow{ID: s.ID, Label: slotLabel(s)}
		if s.DateID != "" {
			row.DateLabel = ix.dateLabel(s.DateID)
		}
		if s.VenueID != "" {
			row.VenueName = ix.venueName(s.VenueID)
		}
		if s.GateOpenMinutes != nil {
			row.GatesOpen = fmt.Sprintf("%d min before start", *s.GateOpenMinutes)
		}
		r.TimeSlots = append(r.TimeSlots, row)
	}

	for _, t := range d.Tickets {
		r.Tickets = append(r.Tickets, TicketRow{
			ID:        t.ID,
			Name:      t.Name,
			Pricing:   t.Pricing,
			Price:     t.Price,
			Currency:  t.Currency,
			Quantity:  t.Quantity,
			Category:  t.Category,
			Dates:     applicability(t.IsAllDates, t.DateIDs, ix.dateLabel),
			Venues:    applicability(t.IsAllVenues, t.VenueIDs, ix.venueName),
			TimeSlots: applicability(t.IsAllTimeSlots, t.TimeSlotIDs, ix.slotLabel),
		})
	}

	for _, a := range d.Assignments {
		row := AssignmentRow{
			ID:            a.ID,
			DateLabel:     ix.dateLabel(a.DateID),
			VenueName:     ix.venueName(a.VenueID),
			TimeSlotLabel: ix.slotLabel(a.TimeSlotID),
			Quantity:      a.Quantity,
		}
		switch {
		case a.Snapshot != nil:
			row.TicketName = a.Snapshot.Name
			row.Pricing = a.Snapshot.Pricing
			row.Price = a.Snapshot.Price
			row.Currency = a.Snapshot.Currency
		default:
			if t, ok := ix.tickets[a.TicketID]; ok {
				row.TicketName = t.Name
				row.Pricing = t.Pricing
				row.Price = t.Price
				row.Currency = t.Currency
			} else {
				row.TicketName = UnknownTicket
			}
		}
		r.TotalAssigned += a.Quantity
		r.Assignments = append(r.Assignments, row)
	}

	if info := d.AdditionalInfo; info != nil {
		view := &AdditionalInfoView{
			Terms:           info.Terms,
			TermsHTML:       renderTerms(info.Terms),
			ProhibitedItems: append([]string{}, info.ProhibitedItems...),
			Sponsors:        append([]models.Sponsor{}, info.Sponsors...),
			FAQs:            append([]models.FAQ{}, info.FAQs...),
		}
		sort.SliceStable(view.Sponsors, func(i, j int) bool {
			return view.Sponsors[i].Priority < view.Sponsors[j].Priority
		})
		r.AdditionalInfo = view
	}

	empty := map[string]bool{
		SectionBasicDetails:   r.BasicDetails == nil,
		SectionVenues:         len(r.Venues) == 0,
		SectionDates:          len(r.Dates) == 0,
		SectionTimeSlots:      len(r.TimeSlots) == 0,
		SectionTickets:        len(r.Tickets) == 0,
		SectionAssignments:    len(r.Assignments) == 0,
		SectionMedia:          r.Media == nil,
		SectionAdditionalInfo: r.AdditionalInfo == nil,
	}
	for section, isEmpty := range empty {
		if isEmpty {
			r.Placeholders[section] = NonePlaceholder
		}
	}

	return r
}

func (ix *index) venueName(id string) string {
	if v, ok := ix.venues[id]; ok {
		return v.DisplayName()
	}
	return UnknownVenue
}

func (ix *index) dateLabel(id string) string {
	if dt, ok := ix.dates[id]; ok {
		return dateLabel(dt)
	}
	return UnknownDate
}

func (ix *index) slotLabel(id string) string {
	if s, ok := ix.slots[id]; ok {
		return slotLabel(s)
	}
	return UnknownTimeSlot
}

func applicability(all bool, ids []string, label func(string) string) []string {
	if all {
		return []string{allLabel}
	}
	if len(ids) == 0 {
		return []string{NonePlaceholder}
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = label(id)
	}
	return out
}

func venueAddress(v models.Venue) string {
	if v.IsTBA {
		return fmt.Sprintf("%s, %s", TBALabel, v.City)
	}
	var parts []string
	for _, p := range []string{v.Address, v.City, v.State, v.PostalCode, v.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// TBALabel prefixes the address of a venue that is still to be announced
const TBALabel = "To be announced"

const dateLayout = "2006-01-02"

func dateLabel(dt models.DateSpec) string {
	start := dt.Start.Format(dateLayout)
	switch dt.Kind {
	case models.DateRange:
		if dt.End != nil {
			return start + " to " + dt.End.Format(dateLayout)
		}
	case models.DateRecurring:
		label := start
		if dt.End != nil {
			label += " to " + dt.End.Format(dateLayout)
		}
		if dt.Recurrence != nil {
			label += " (" + recurrenceLabel(*dt.Recurrence) + ")"
		}
		return label
	}
	return start
}

var recurrenceUnits = map[string]string{
	"daily":   "days",
	"weekly":  "weeks",
	"monthly": "months",
}

func recurrenceLabel(r models.RecurrenceRule) string {
	label := r.Frequency
	if unit, ok := recurrenceUnits[r.Frequency]; ok && r.Interval > 1 {
		label = fmt.Sprintf("every %d %s", r.Interval, unit)
	}
	if len(r.Weekdays) > 0 {
		days := make([]string, len(r.Weekdays))
		for i, wd := range r.Weekdays {
			days[i] = wd.String()[:3]
		}
		label += " on " + strings.Join(days, ", ")
	}
	return label
}

func slotLabel(s models.TimeSlot) string {
	return s.StartTime + "-" + s.EndTime
}

func renderTerms(terms string) string {
	if strings.TrimSpace(terms) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := markdownRenderer().Convert([]byte(terms), &buf); err != nil {
		slog.Warn("failed to render terms", "error", err)
		return ""
	}
	return buf.String()
}

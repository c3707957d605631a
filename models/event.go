package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventsCollection        = "events"
	RegistrationsCollection = "event_registrations"
)

type EventStatus string

const (
	EventStatusUpcoming  EventStatus = "UPCOMING"
	EventStatusOngoing   EventStatus = "ONGOING"
	EventStatusCompleted EventStatus = "COMPLETED"
)

var EventStatuses = []EventStatus{EventStatusUpcoming, EventStatusOngoing, EventStatusCompleted}

func (s EventStatus) Valid() bool {
	for _, v := range EventStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type EventCategory string

const (
	CategoryWorkshop    EventCategory = "WORKSHOP"
	CategorySeminar     EventCategory = "SEMINAR"
	CategoryConference  EventCategory = "CONFERENCE"
	CategoryCompetition EventCategory = "COMPETITION"
	CategorySocial      EventCategory = "SOCIAL"
	CategoryTraining    EventCategory = "TRAINING"
	CategoryOther       EventCategory = "OTHER"
)

var EventCategories = []EventCategory{
	CategoryWorkshop,
	CategorySeminar,
	CategoryConference,
	CategoryCompetition,
	CategorySocial,
	CategoryTraining,
	CategoryOther,
}

func (c EventCategory) Valid() bool {
	for _, v := range EventCategories {
		if c == v {
			return true
		}
	}
	return false
}

type Event struct {
	ID                   string              `json:"id"`
	Name                 string              `json:"name"`
	Description          string              `json:"description"`
	Category             EventCategory       `json:"category"`
	Status               EventStatus         `json:"status"`
	Date                 time.Time           `json:"date"`
	RegistrationDeadline *time.Time          `json:"registrationDeadline"`
	Location             string              `json:"location"`
	Published            bool                `json:"published"`
	Featured             bool                `json:"featured"`
	CurrentParticipants  int                 `json:"currentParticipants"`
	AuthorID             string              `json:"authorId"`
	Author               *UserSummary        `json:"author,omitempty"`
	Registrations        []EventRegistration `json:"registrations,omitempty"`
	RegistrationCount    int                 `json:"registrationCount"`
	CreatedAt            time.Time           `json:"createdAt"`
	UpdatedAt            time.Time           `json:"updatedAt"`
}

type EventRegistration struct {
	ID        string       `json:"id"`
	EventID   string       `json:"eventId"`
	UserID    string       `json:"userId"`
	User      *UserSummary `json:"user,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
}

type StatsOverview struct {
	TotalEvents          int64           `json:"totalEvents"`
	PublishedEvents      int64           `json:"publishedEvents"`
	UpcomingEvents       int64           `json:"upcomingEvents"`
	OngoingEvents        int64           `json:"ongoingEvents"`
	CompletedEvents      int64           `json:"completedEvents"`
	TotalRegistrations   int64           `json:"totalRegistrations"`
	AverageRegistrations decimal.Decimal `json:"averageRegistrations"`
}

type EventStats struct {
	Overview             StatsOverview           `json:"overview"`
	CategoryDistribution map[EventCategory]int64 `json:"categoryDistribution"`
	RecentEvents         []Event                 `json:"recentEvents"`
}

package store

import (
	"fmt"
	"strings"
	"time"
)

// Sector is an organizational unit of the town hall. Users belong to any
// number of sectors; events are tagged with the sectors they concern.
type Sector struct {
	ID        int64
	Name      string
	Color     string // #RRGGBB, uppercased
	Position  int
	CreatedAt time.Time
	UpdatedAt time.Time

	// UserCount is populated by list queries.
	UserCount int
}

// Role is a hierarchy position. Level 0 is the bottom of the ladder; the
// seed data goes Agent (0) through Elected Official (4). Both name and
// level are unique.
type Role struct {
	ID        int64
	Name      string
	Level     int
	CreatedAt time.Time
	UpdatedAt time.Time

	UserCount int
}

// User is a staff account. Email doubles as the login identifier.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Active       bool
	Superuser    bool
	JoinedAt     time.Time

	EmailVerified bool
	VerifyToken   string
	VerifySentAt  *time.Time
	ResetToken    string
	ResetSentAt   *time.Time

	NotifyWelcome        bool
	NotifyPasswordChange bool
	NotifyNewLogin       bool
	NotifySecurityAlerts bool

	RoleID *int64

	// Role and Sectors are loaded alongside the user by Get/List queries.
	Role    *Role
	Sectors []*Sector
}

// FullName returns "First Last", falling back to the email local part
// when no name is set.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	if at := strings.IndexByte(u.Email, '@'); at > 0 {
		return u.Email[:at]
	}
	return u.Email
}

// ApprovalStatus is the state of one validation track, or of the event as
// a whole.
type ApprovalStatus string

const (
	ApprovalNotRequested ApprovalStatus = "not_requested"
	ApprovalPending      ApprovalStatus = "pending"
	ApprovalApproved     ApprovalStatus = "approved"
	ApprovalRefused      ApprovalStatus = "refused"
)

// ApprovalTrack names one of the two validation circuits an event can be
// routed through.
type ApprovalTrack string

const (
	// TrackDeputy is decided by deputy directors (role level 2 and up).
	TrackDeputy ApprovalTrack = "deputy"
	// TrackDirector is decided by the directorate (role level 3 and up).
	TrackDirector ApprovalTrack = "director"
)

// Approval is the state of a single validation track on an event.
type Approval struct {
	Requested bool
	Status    ApprovalStatus
	DecidedAt *time.Time
	DeciderID *int64
	Comment   string
}

// Address locates an event venue. Country defaults to France.
type Address struct {
	Street     string
	City       string
	PostalCode string
	Country    string
	Extra      string
}

// DefaultEventColor is used on the calendar when an event has no sector.
const DefaultEventColor = "#808080"

// EventTimezones is the allow-list for the event timezone field.
var EventTimezones = []string{
	"Europe/Paris",
	"UTC",
	"America/New_York",
	"America/Los_Angeles",
	"Asia/Tokyo",
}

// Event is a communication event (ceremony, meeting, publication) going
// through the approval workflow.
type Event struct {
	ID          int64
	Title       string
	Description string
	Venue       string
	Address     *Address

	StartsAt  time.Time
	EndsAt    *time.Time
	Timezone  string
	PublishBy *time.Time // date-only deadline for publication material

	CreatorID int64
	Creator   *User

	Deputy   Approval
	Director Approval

	Sectors   []*Sector
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OverallStatus derives the event-wide state from the two tracks:
// any refusal wins, then any pending, then approved once every requested
// track approved. Events with no requested track are not in the circuit.
func (e *Event) OverallStatus() ApprovalStatus {
	tracks := []Approval{e.Deputy, e.Director}

	requested := 0
	approved := 0
	for _, a := range tracks {
		if !a.Requested {
			continue
		}
		requested++
		switch a.Status {
		case ApprovalRefused:
			return ApprovalRefused
		case ApprovalApproved:
			approved++
		}
	}
	if requested == 0 {
		return ApprovalNotRequested
	}
	if approved == requested {
		return ApprovalApproved
	}
	return ApprovalPending
}

// CalendarColor returns the display color for the event: the color of its
// single sector, the channel-wise mean for several, gray for none.
func (e *Event) CalendarColor() string {
	return MixColors(e.Sectors)
}

// MixColors averages sector colors channel by channel. Malformed colors
// are skipped; an empty result falls back to the default gray.
func MixColors(sectors []*Sector) string {
	var r, g, b, n int
	for _, s := range sectors {
		cr, cg, cb, ok := parseHexColor(s.Color)
		if !ok {
			continue
		}
		r += cr
		g += cg
		b += cb
		n++
	}
	if n == 0 {
		return DefaultEventColor
	}
	return fmt.Sprintf("#%02X%02X%02X", r/n, g/n, b/n)
}

func parseHexColor(c string) (r, g, b int, ok bool) {
	if len(c) != 7 || c[0] != '#' {
		return 0, 0, 0, false
	}
	var err error
	if _, err = fmt.Sscanf(c[1:], "%02x%02x%02x", &r, &g, &b); err != nil {
		return 0, 0, 0, false
	}
	return r, g, b, true
}

// AttachmentKind discriminates stored event files.
type AttachmentKind string

const (
	AttachmentImage AttachmentKind = "image"
	AttachmentPDF   AttachmentKind = "pdf"
)

// Attachment limits.
const (
	MaxAttachmentsPerEvent = 5
	MaxAttachmentSize      = 10 << 20 // 10 MiB
)

// Attachment is a file (image or PDF) attached to an event.
type Attachment struct {
	ID         int64
	EventID    int64
	Name       string // original filename shown to users
	StoredName string // name on disk under the uploads dir
	Kind       AttachmentKind
	Size       int64
	Position   int
	UploadedAt time.Time
}

// DayBasis selects which weekdays count as working days.
type DayBasis string

const (
	// BasisFiveDay counts Monday through Friday (jours ouvrés).
	BasisFiveDay DayBasis = "five_day"
	// BasisSixDay counts Monday through Saturday (jours ouvrables).
	BasisSixDay DayBasis = "six_day"
)

// HalfDay identifies the half of a day a leave period starts or ends on.
type HalfDay string

const (
	Morning   HalfDay = "morning"
	Afternoon HalfDay = "afternoon"
)

// LeaveKind classifies a leave period. Only annual leave enters the
// split-bonus computation.
type LeaveKind string

const (
	LeaveAnnual LeaveKind = "annual"
	LeaveRTT    LeaveKind = "rtt"
	LeaveASA    LeaveKind = "asa"
	LeaveSick   LeaveKind = "sick"
	LeaveOther  LeaveKind = "other"
)

// WorkCycle is a user's working arrangement for one civil year. RTTDays
// and AnnualHalfDays are derived from the hours and quota at save time.
type WorkCycle struct {
	ID           int64
	UserID       int64
	Year         int
	HoursPerWeek float64 // 35.0 to 39.0
	Quota        float64 // work-time fraction, 0.5 to 1.0
	Basis        DayBasis

	RTTDays        int
	AnnualHalfDays int // prorated annual leave, in half days

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AnnualDays returns the annual leave entitlement in days.
func (c *WorkCycle) AnnualDays() float64 {
	return float64(c.AnnualHalfDays) / 2
}

// YearSettings overrides the counting basis for one user and year without
// a full work cycle.
type YearSettings struct {
	ID     int64
	UserID int64
	Year   int
	Basis  DayBasis
}

// LeavePeriod is one absence, bounded by half days on both ends.
type LeavePeriod struct {
	ID        int64
	UserID    int64
	Start     time.Time // date only
	StartHalf HalfDay
	End       time.Time // date only
	EndHalf   HalfDay
	Kind      LeaveKind
	Year      int

	// HalfDays is the working time consumed, computed at save time with
	// the user's counting basis for Year.
	HalfDays int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Days returns the consumed working time in days.
func (p *LeavePeriod) Days() float64 {
	return float64(p.HalfDays) / 2
}

// SplitCalculation records the fractionnement bonus granted to a user for
// one year.
type SplitCalculation struct {
	ID          int64
	UserID      int64
	Year        int
	DaysOutside int // whole annual-leave days taken outside May 1 - Oct 31
	BonusDays   int // 0, 1 or 2
	ComputedAt  time.Time
}

// SectorCount is one row of the per-sector event breakdown.
type SectorCount struct {
	SectorID int64
	Name     string
	Color    string
	Count    int
}

// EventStats aggregates the numbers shown on the statistics page.
type EventStats struct {
	Total    int
	Pending  int
	Approved int
	Refused  int

	// PerMonth holds event counts for January..December of the stats year.
	PerMonth [12]int

	BySector []SectorCount
}

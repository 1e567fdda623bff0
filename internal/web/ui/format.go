package ui

import (
	"fmt"
	"time"

	"github.com/beffroi/beffroi/internal/store"
)

// FrDate formats a date the French way, 02/01/2006.
func FrDate(t time.Time) string {
	return t.Format("02/01/2006")
}

// FrTime formats a timestamp the French way, 02/01/2006 15:04.
func FrTime(t time.Time) string {
	return t.Format("02/01/2006 15:04")
}

// HalfDays renders a half-day count as a day figure, "2,5 j".
func HalfDays(n int) string {
	if n%2 == 0 {
		return fmt.Sprintf("%d j", n/2)
	}
	return fmt.Sprintf("%d,5 j", n/2)
}

// StatusLabel is the French label of an approval status.
func StatusLabel(s store.ApprovalStatus) string {
	switch s {
	case store.ApprovalPending:
		return "En attente"
	case store.ApprovalApproved:
		return "Validé"
	case store.ApprovalRefused:
		return "Refusé"
	default:
		return "Non demandé"
	}
}

// KindLabel is the French label of a leave kind.
func KindLabel(k store.LeaveKind) string {
	switch k {
	case store.LeaveAnnual:
		return "Congés annuels"
	case store.LeaveRTT:
		return "RTT"
	case store.LeaveASA:
		return "ASA"
	case store.LeaveSick:
		return "Maladie"
	default:
		return "Autre"
	}
}

// HalfLabel is the French label of a half-day boundary.
func HalfLabel(h store.HalfDay) string {
	if h == store.Afternoon {
		return "après-midi"
	}
	return "matin"
}

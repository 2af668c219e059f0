package library

import "time"

// ReservationTTL is how long a reservation holds a copy.
const ReservationTTL = 24 * time.Hour

// expireReservation drops a reservation older than ReservationTTL. It only
// touches memory; the change reaches disk with the copy's next write.
func (b *Book) expireReservation(now time.Time) bool {
	if b.Reservation == nil || now.Sub(b.Reservation.At) <= ReservationTTL {
		return false
	}
	b.Reservation = nil
	return true
}

// borrowableBy reports whether memberID may take this copy now: it must be on
// the shelf and either unreserved or reserved for that member.
func (b *Book) borrowableBy(memberID int) bool {
	if b.Borrowed {
		return false
	}
	return b.Reservation == nil || b.Reservation.MemberID == memberID
}

func (b *Book) reservable() bool {
	return !b.Borrowed && b.Reservation == nil
}

// reserve holds the copy for memberID. The timestamp is cut to whole seconds,
// the resolution of the books file.
func (b *Book) reserve(memberID int, now time.Time) {
	b.Reservation = &Reservation{MemberID: memberID, At: time.Unix(now.Unix(), 0)}
}

func (b *Book) markBorrowed() {
	b.Borrowed = true
	b.Reservation = nil
}

func (b *Book) markReturned() {
	b.Borrowed = false
}

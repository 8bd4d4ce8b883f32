package redis

import "fmt"

const ns = "zenobus:v1"

func KeyScheduleSummary(scheduleID int64) string {
	return fmt.Sprintf("%s:schedule:%d:summary", ns, scheduleID)
}

func KeyScheduleAvailability(scheduleID int64) string {
	return fmt.Sprintf("%s:schedule:%d:availability", ns, scheduleID)
}

func KeyScheduleSeatMap(scheduleID int64) string {
	return fmt.Sprintf("%s:schedule:%d:seatmap", ns, scheduleID)
}

func KeyIdemBooking(userID int64, idemKey string) string {
	return fmt.Sprintf("%s:idem:bookings:%d:%s", ns, userID, idemKey)
}

func ChannelSchedulesChanged() string {
	return ns + ":schedules:changed"
}

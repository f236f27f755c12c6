package dto

type CalendarSlotDTO struct {
	Minute      int                 `json:"minute"`
	Appointment *AppointmentListDTO `json:"appointment"`
}

type CalendarCellDTO struct {
	Hour  int               `json:"hour"`
	Slots []CalendarSlotDTO `json:"slots"`
}

type CalendarDayDTO struct {
	Date  string            `json:"date"`
	Hours []CalendarCellDTO `json:"hours"`
}

type CalendarDTO struct {
	From     string           `json:"from"`
	To       string           `json:"to"`
	HourFrom int              `json:"hour_from"`
	HourTo   int              `json:"hour_to"`
	Days     []CalendarDayDTO `json:"days"`
}

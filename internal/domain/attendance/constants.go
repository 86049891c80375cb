package attendance

const (
	CollectionAttendance = "attendance"

	DateLayout = "2006-01-02"

	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLeave   Status = "leave"

	defaultHistoryLimit = 90
)

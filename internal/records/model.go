package records

// MeetingRecord is one attendance entry for one branch at one date/time.
// Records are append-only: there is no edit or delete operation, and the
// timestamp is derived exactly once at creation from date+time so the two
// can never drift apart.
type MeetingRecord struct {
	ID           string `gorm:"column:id;primaryKey;size:190;not null" json:"id"`
	Date         string `gorm:"column:date;size:10;not null" json:"date"`
	Time         string `gorm:"column:time;size:5;not null" json:"time"`
	TotalPeople  int    `gorm:"column:total_people;not null" json:"totalPeople"`
	Decisions    int    `gorm:"column:decisions;not null" json:"decisions"`
	Visitors     int    `gorm:"column:visitors;not null" json:"visitors"`
	KidsVisitors int    `gorm:"column:kids_visitors;not null" json:"kidsVisitors"`
	BranchID     string `gorm:"column:branch_id;size:64;not null;index" json:"branchId"`
	Timestamp    int64  `gorm:"column:timestamp_ms;not null" json:"timestamp"`
}

// TableName provides the explicit table binding for GORM.
func (MeetingRecord) TableName() string {
	return "meeting_records"
}

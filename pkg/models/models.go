package models

type Parameter string

const (
	ParameterPH          Parameter = "pH"
	ParameterTemperature Parameter = "Temperature"
	ParameterAmmonia     Parameter = "Ammonia"
)

// Device holds a pond sensor's identity and its configured safe ranges.
// DeviceID is the hardware identifier and is immutable after creation.
type Device struct {
	DeviceID   string `gorm:"primaryKey"`
	UserID     string `gorm:"index"`
	Name       string
	PhMin      float64
	PhMax      float64
	TempMin    float64
	TempMax    float64
	AmmoniaMax float64

	// Phone is the SMS alert channel address (09XXXXXXXXX); empty means
	// no channel configured. SendSMS additionally gates dispatch.
	Phone   string
	SendSMS bool

	// AlertInterval is the minimum spacing in seconds between repeated
	// notifications for the same parameter. Zero disables the debounce.
	AlertInterval int64

	Readings      []Reading      `gorm:"foreignKey:DeviceID;references:DeviceID"`
	Notifications []Notification `gorm:"foreignKey:DeviceID;references:DeviceID"`
}

// Reading is one timestamped sensor sample. Timestamp is milliseconds
// since epoch, the canonical unit everywhere in this service.
type Reading struct {
	ID          uint   `gorm:"primaryKey"`
	DeviceID    string `gorm:"index"`
	Timestamp   int64  `gorm:"index"`
	Ph          float64
	Temperature float64
	Ammonia     float64
}

// NotificationFilter narrows a notification query. Query matches
// case-insensitively against device name, device id, parameter, and the
// formatted value. From/To are inclusive millisecond bounds; zero means
// unbounded. Limit zero means no limit.
type NotificationFilter struct {
	Query  string
	From   int64
	To     int64
	Limit  int
	Offset int
}

// Notification is a persisted alert. Timestamp is detection time in
// milliseconds, not the originating reading's timestamp.
type Notification struct {
	ID           string `gorm:"primaryKey"`
	UserID       string `gorm:"index"`
	DeviceID     string `gorm:"index"`
	DeviceName   string
	Parameter    Parameter `gorm:"type:varchar(20);check:parameter IN ('pH','Temperature','Ammonia')"`
	Value        float64
	Threshold    string
	Range        string
	Timestamp    int64
	Read         bool
	SMSRequested bool
}

package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Session{},
	&CommandRecord{},
	&TelemetrySample{},
}

// Session is one autonomous run: the script selected at the driver
// station and how far through it the robot got.
type Session struct {
	gorm.Model
	StartedAt  time.Time `json:"startedAt" gorm:"index:idx_session_started_at"`
	FinishedAt time.Time `json:"finishedAt"`
	ScriptPath string    `json:"scriptPath" gorm:"size:255"`
	Commands   int       `json:"commands"`
	Completed  bool      `json:"completed"`
}

func (*Session) TableName() string {
	return "sessions"
}

// CommandRecord is one executed script command within a session.
// Parameters holds the raw parameter list as a JSON array.
type CommandRecord struct {
	gorm.Model
	SessionID  uint           `json:"sessionId" gorm:"index:idx_commandrecord_session_id"`
	Session    Session        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	Sequence   int            `json:"sequence"`
	Verb       string         `json:"verb" gorm:"size:32"`
	Parameters datatypes.JSON `json:"parameters"`
	Ticks      int            `json:"ticks"`
	Completed  bool           `json:"completed"`
}

func (*CommandRecord) TableName() string {
	return "command_records"
}

// TelemetrySample is a point-in-time sensor snapshot taken while a
// session runs.
type TelemetrySample struct {
	gorm.Model
	Time         time.Time `json:"time" gorm:"index:idx_telemetrysample_time"`
	SessionID    uint      `json:"sessionId" gorm:"index:idx_telemetrysample_session_id"`
	Session      Session   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	Heading      float64   `json:"heading"`
	RangeFeet    float64   `json:"rangeFeet"`
	EncoderCount float64   `json:"encoderCount"`
	TickMicros   int64     `json:"tickMicros"`
}

func (*TelemetrySample) TableName() string {
	return "telemetry_samples"
}

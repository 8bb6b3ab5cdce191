// Package model contains core data types exchanged with the blood-pressure
// journal server.
package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Reading is a single averaged blood-pressure measurement. The server
// assigns the identity and the classification label; the client never
// computes either.
type Reading struct {
	ID             int64     `json:"id"`             // Server-assigned identity.
	Timestamp      Timestamp `json:"timestamp"`      // Moment the reading was recorded.
	Systolic       int       `json:"systolic"`       // mmHg.
	Diastolic      int       `json:"diastolic"`      // mmHg.
	Pulse          int       `json:"pulse"`          // Beats per minute.
	Classification string    `json:"classification"` // Server-assigned category label.
}

// ReadingInput carries three consecutive raw measurements that the server
// averages into one Reading. It has no identity and is discarded after
// submission.
type ReadingInput struct {
	Systolic1  int `json:"systolic1" validate:"required,gte=1,lte=400"`
	Diastolic1 int `json:"diastolic1" validate:"required,gte=1,lte=400"`
	Pulse1     int `json:"pulse1" validate:"required,gte=1,lte=300"`
	Systolic2  int `json:"systolic2" validate:"required,gte=1,lte=400"`
	Diastolic2 int `json:"diastolic2" validate:"required,gte=1,lte=400"`
	Pulse2     int `json:"pulse2" validate:"required,gte=1,lte=300"`
	Systolic3  int `json:"systolic3" validate:"required,gte=1,lte=400"`
	Diastolic3 int `json:"diastolic3" validate:"required,gte=1,lte=400"`
	Pulse3     int `json:"pulse3" validate:"required,gte=1,lte=300"`
}

// Stats is the aggregate snapshot computed server-side. A nil average means
// no readings exist in that window; the matching count is still a valid
// integer (possibly 0).
type Stats struct {
	LastReading  *Reading `json:"last_reading"`
	Avg7Days     *Reading `json:"avg_7_days"`
	Count7Days   int      `json:"count_7_days"`
	Avg30Days    *Reading `json:"avg_30_days"`
	Count30Days  int      `json:"count_30_days"`
	AvgAllTime   *Reading `json:"avg_all_time"`
	CountAllTime int      `json:"count_all_time"`
}

var validate = validator.New()

// Validate checks the nine measurement fields against their bounds.
func (in ReadingInput) Validate() error {
	return validate.Struct(in)
}

// ParseReadingInput builds a ReadingInput from nine user-entered strings,
// ordered as three (systolic, diastolic, pulse) triplets. Every field must
// parse as a whole number.
func ParseReadingInput(fields [9]string) (ReadingInput, error) {
	names := [9]string{
		"systolic1", "diastolic1", "pulse1",
		"systolic2", "diastolic2", "pulse2",
		"systolic3", "diastolic3", "pulse3",
	}
	var vals [9]int
	for i, s := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return ReadingInput{}, fmt.Errorf("field %s: %q is not a whole number", names[i], s)
		}
		vals[i] = v
	}
	return ReadingInput{
		Systolic1: vals[0], Diastolic1: vals[1], Pulse1: vals[2],
		Systolic2: vals[3], Diastolic2: vals[4], Pulse2: vals[5],
		Systolic3: vals[6], Diastolic3: vals[7], Pulse3: vals[8],
	}, nil
}

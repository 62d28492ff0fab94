package value

import "strconv"

// Int is the type of an integer value.
type Int int64

var _ Value = Int(0)

func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }
func (i Int) Type() string   { return "integer" }

// Time is the type of a timestamp value, a count of seconds since the
// epoch. It orders and formats like an integer but is a distinct
// variant: a Time never equals an Int.
type Time int64

var _ Value = Time(0)

func (t Time) String() string { return strconv.FormatInt(int64(t), 10) }
func (t Time) Type() string   { return "timestamp" }

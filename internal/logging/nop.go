package logging

// Nop is a Logger that discards everything, for tests and for callers
// that have not configured a destination yet.
type Nop struct{}

func (Nop) SetLevel(int8)                    {}
func (Nop) Debug(msg string, kv ...interface{})   {}
func (Nop) Info(msg string, kv ...interface{})    {}
func (Nop) Warning(msg string, kv ...interface{}) {}
func (Nop) Error(msg string, kv ...interface{})   {}
func (Nop) Fatal(msg string, kv ...interface{})   {}

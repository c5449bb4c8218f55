package logger

// Nop discards all logs. Handy for tests and tooling.
type Nop struct{}

var _ ILogger = Nop{}

func (Nop) Debug(module, message string, details map[string]interface{}) {}
func (Nop) Info(module, message string, details map[string]interface{})  {}
func (Nop) Warn(module, message string, details map[string]interface{})  {}
func (Nop) Error(module, message string, details map[string]interface{}) {}
func (Nop) Sync() error                                                  { return nil }

package internal

type LogHandler interface {
	FeatureEvent(feature, id, text string)
	Debug(text string)
	Warn(text string)
	Error(text string, err error)
	RawDataEvent(direction, data string)
}

// NopLogger drops everything, used where logging is not wanted
type NopLogger struct{}

func (NopLogger) FeatureEvent(string, string, string) {}
func (NopLogger) Debug(string)                        {}
func (NopLogger) Warn(string)                         {}
func (NopLogger) Error(string, error)                 {}
func (NopLogger) RawDataEvent(string, string)         {}

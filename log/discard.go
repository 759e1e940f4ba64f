package log

// DiscardLogger drops every entry.
var DiscardLogger Logger = discardLogger{}

type discardLogger struct{}

func (discardLogger) Debugf(string, ...any) {}
func (discardLogger) Infof(string, ...any)  {}
func (discardLogger) Warnf(string, ...any)  {}
func (discardLogger) Errorf(string, ...any) {}

func (discardLogger) With(...any) Logger { return DiscardLogger }

func (discardLogger) LogLevel() Level { return ErrorLevel }
